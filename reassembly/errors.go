package reassembly

import "github.com/radarmesh/pointstream/status"

func argumentError(format string, args ...any) error {
	return status.Err(status.Argument, format, args...)
}

func notPermittedError(format string, args ...any) error {
	return status.Err(status.NotPermitted, format, args...)
}

func protocolError(format string, args ...any) error {
	return status.Err(status.Protocol, format, args...)
}
