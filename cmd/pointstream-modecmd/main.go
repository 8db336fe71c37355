// Command pointstream-modecmd sends a one-shot mode-change command to a
// radar (or the broadcast address, for a fleet-wide change) and prints the
// acknowledgement.
package main

import (
	"errors"
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/radarmesh/pointstream/internal/timeutil"
	"github.com/radarmesh/pointstream/internal/version"
	"github.com/radarmesh/pointstream/modecmd"
	"github.com/radarmesh/pointstream/protocol"
	"github.com/radarmesh/pointstream/status"
	"github.com/radarmesh/pointstream/transport"
)

var (
	addr        = flag.String("addr", "", "destination host:port; an address containing \"255\" is sent as a broadcast")
	mountFlag   = flag.Int("mount", -1, "numeric MountPosition to target")
	modeFlag    = flag.String("mode", "", "requested mode name: short, medium, long, ultra_long, hyper_long")
	retries     = flag.Int("retries", modecmd.DefaultRetries, "number of retries after the first attempt")
	timeout     = flag.Duration("timeout", modecmd.DefaultPerAttemptTimeout, "per-attempt ACK wait")
	versionFlag = flag.Bool("version", false, "print version information and exit")
)

func main() {
	flag.Parse()

	if *versionFlag {
		fmt.Printf("pointstream-modecmd %s (git SHA: %s)\n", version.Version, version.GitSHA)
		os.Exit(0)
	}

	if *addr == "" {
		log.Fatal("-addr is required")
	}
	if *mountFlag < 0 {
		log.Fatal("-mount is required")
	}
	mode, ok := protocol.ModeFromString(*modeFlag)
	if !ok {
		log.Fatalf("unrecognized -mode %q", *modeFlag)
	}

	req := modecmd.Request{
		Addr:              *addr,
		MountPosition:     protocol.MountPosition(*mountFlag),
		RequestedMode:     mode,
		Retries:           *retries,
		PerAttemptTimeout: *timeout,
	}

	ack, err := modecmd.Send(transport.NewRealUDPSocketFactory(), timeutil.RealClock{}, req)
	if err != nil {
		if errors.Is(err, status.Timeout) {
			log.Fatalf("mode command timed out: %v", err)
		}
		log.Fatalf("mode command failed: %v", err)
	}

	fmt.Printf("ack: mount=%s mode=%s protocol_version=%d error_code=%d\n",
		ack.MountPosition, ack.Mode, ack.ProtocolVersion, ack.ErrorCode)
}
