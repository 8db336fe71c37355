//go:build pcap

// Command pointstream-replay feeds the UDP payloads recorded in a PCAP
// capture through the reassembly pipeline, as an offline alternative to a
// live socket. Requires libpcap; build with -tags=pcap.
package main

import (
	"flag"
	"fmt"
	"log"
	"time"

	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"
	"github.com/google/gopacket/pcap"

	"github.com/radarmesh/pointstream/protocol"
	"github.com/radarmesh/pointstream/reassembly"
	"github.com/radarmesh/pointstream/status"
)

var (
	pcapFile = flag.String("pcap", "", "path to a PCAP capture of recorded radar datagrams")
	udpPort  = flag.Int("port", 0, "UDP port the capture's radar traffic used; 0 disables the BPF filter")
	contexts = flag.Int("contexts", 6, "number of reassembly contexts to demultiplex across (one per mount position expected in the capture)")
)

func main() {
	flag.Parse()
	if *pcapFile == "" {
		log.Fatal("-pcap is required")
	}

	handle, err := pcap.OpenOffline(*pcapFile)
	if err != nil {
		log.Fatalf("open PCAP file %s: %v", *pcapFile, err)
	}
	defer handle.Close()

	if *udpPort != 0 {
		filter := fmt.Sprintf("udp port %d", *udpPort)
		if err := handle.SetBPFFilter(filter); err != nil {
			log.Fatalf("set BPF filter %q: %v", filter, err)
		}
		log.Printf("BPF filter set: %s", filter)
	}

	var cloudCount, egoCount int
	ctxs := reassembly.NewContexts(*contexts,
		reassembly.PointCloudSinkFunc(func(c protocol.Cloud) { cloudCount++ }),
		reassembly.EgoMotionSinkFunc(func(e protocol.EgoMotion) { egoCount++ }),
	)

	source := gopacket.NewPacketSource(handle, handle.LinkType())
	start := time.Now()
	packetCount := 0

	for packet := range source.Packets() {
		udpLayer := packet.Layer(layers.LayerTypeUDP)
		if udpLayer == nil {
			continue
		}
		udp, ok := udpLayer.(*layers.UDP)
		if !ok || len(udp.Payload) == 0 {
			continue
		}
		packetCount++

		result, err := reassembly.HandleFragmentMulti(ctxs, udp.Payload)
		if err != nil {
			log.Printf("packet %d: fragment error: %v", packetCount, err)
			continue
		}
		if result == status.Skipped {
			if _, err := reassembly.HandleEgoMotionMulti(ctxs, udp.Payload); err != nil {
				log.Printf("packet %d: ego-motion error: %v", packetCount, err)
			}
		}

		if packetCount%10000 == 0 {
			elapsed := time.Since(start)
			log.Printf("replay progress: %d packets in %v (%.0f pkt/s)", packetCount, elapsed, float64(packetCount)/elapsed.Seconds())
		}
	}

	log.Printf("replay complete: %d packets, %d clouds, %d ego-motion snapshots in %v",
		packetCount, cloudCount, egoCount, time.Since(start))
}
