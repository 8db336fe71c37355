//go:build !pcap

// Command pointstream-replay (stub build). The real implementation links
// libpcap via gopacket/pcap and is only compiled in with -tags=pcap.
package main

import "log"

func main() {
	log.Fatal("pointstream-replay was built without PCAP support; rebuild with -tags=pcap")
}
