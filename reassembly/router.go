package reassembly

import "github.com/radarmesh/pointstream/protocol"

// RouteByMount selects which of ctxs should admit a packet declaring
// mount, demultiplexing a single receive loop across multiple radars
// sharing one socket.
//
// A context already bound to mount is always preferred. Failing that, the
// first unbound context is returned so it can claim the mount via
// tryBind/Assign. found is false when ctxs has no bound match and no free
// context, i.e. the caller should report status.OutOfContexts.
func RouteByMount(ctxs []*Context, mount protocol.MountPosition) (*Context, bool) {
	var firstUnbound *Context
	for _, ctx := range ctxs {
		m, ok := ctx.MountPosition()
		if ok && m == mount {
			return ctx, true
		}
		if !ok && firstUnbound == nil {
			firstUnbound = ctx
		}
	}
	if firstUnbound != nil {
		return firstUnbound, true
	}
	return nil, false
}
