// Command pointstream-viz renders the current contents of an accumulation
// ring as an HTML scatter chart, colored by recency, for visual sanity
// checking of the static-points filter without a full UI.
package main

import (
	"bytes"
	"flag"
	"fmt"
	"log"
	"math"
	"os"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/radarmesh/pointstream/accum"
	"github.com/radarmesh/pointstream/internal/sink"
	"github.com/radarmesh/pointstream/protocol"
	"github.com/radarmesh/pointstream/reassembly"
	"github.com/radarmesh/pointstream/spatial"
	"github.com/radarmesh/pointstream/transport"
)

var (
	port      = flag.Int("port", 7400, "UDP port to listen on")
	mountFlag = flag.Int("mount", 0, "numeric MountPosition to render")
	ringSize  = flag.Int("ring", 8, "accumulation ring capacity")
	frames    = flag.Int("frames", 50, "stop and render after this many completed frames")
	outPath   = flag.String("out", "pointstream-viz.html", "output HTML file path")
	maxPoints = flag.Int("max-points", 20000, "drop points beyond this total to bound the chart payload")
)

func main() {
	flag.Parse()

	ring := accum.NewRing(*ringSize)
	mount := protocol.MountPosition(*mountFlag)
	framesSeen := 0

	// viz has no pose-integration source of its own (ego-motion packets
	// carry ground-speed only, not absolute orientation), so every cloud
	// is accumulated under the identity pose: points are plotted in the
	// radar's own frame, not re-projected into a common world frame.
	identityPose := spatial.EnuFix{Orientation: spatial.IdentityQuaternion()}

	ctx := reassembly.NewContext(
		reassembly.PointCloudSinkFunc(func(cloud protocol.Cloud) {
			if cloud.MountPosition != mount {
				return
			}
			if _, err := ring.Accumulate(cloud, identityPose, nil); err != nil {
				sink.Warnf("viz: dropping frame %d: %v", cloud.FrameIndex, err)
				return
			}
			framesSeen++
		}),
		nil,
	)
	if err := ctx.Assign(mount); err != nil {
		log.Fatalf("assign mount: %v", err)
	}

	session, err := transport.Open(transport.NewRealUDPSocketFactory(), transport.SessionConfig{
		Port:     *port,
		Contexts: []*reassembly.Context{ctx},
	})
	if err != nil {
		log.Fatalf("open session: %v", err)
	}
	defer session.Close()

	log.Printf("pointstream-viz: listening on port %d for mount %s, rendering after %d frames", *port, mount, *frames)
	buf := make([]byte, protocol.MaxDatagramPayload)
	for framesSeen < *frames {
		if _, err := session.ReceiveAndRoute(buf); err != nil {
			log.Printf("receive error: %v", err)
		}
	}

	if err := render(ring, *outPath, *maxPoints); err != nil {
		log.Fatalf("render: %v", err)
	}
	fmt.Printf("wrote %s (%d clouds, %d points in ring)\n", *outPath, ring.CountClouds(), ring.CountPoints())
}

// render walks ring newest-to-oldest, building one scatter series per
// cloud so recency can be colored by series, and writes the result as a
// standalone HTML file.
func render(ring *accum.Ring, path string, maxPoints int) error {
	scatter := charts.NewScatter()
	scatter.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{PageTitle: "Point Cloud Ring", Theme: "dark", Width: "900px", Height: "900px"}),
		charts.WithTitleOpts(opts.Title{Title: "Accumulation Ring", Subtitle: fmt.Sprintf("clouds=%d points=%d", ring.CountClouds(), ring.CountPoints())}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithXAxisOpts(opts.XAxis{Name: "X (m)", NameLocation: "middle", NameGap: 25}),
		charts.WithYAxisOpts(opts.YAxis{Name: "Y (m)", NameLocation: "middle", NameGap: 30}),
	)

	it := ring.Head()
	age := 0
	emitted := 0
	for !it.IsEnd() && emitted < maxPoints {
		cloud, _ := it.Cloud()
		data := make([]opts.ScatterData, 0, len(cloud.Points))
		for _, p := range cloud.Points {
			if emitted >= maxPoints {
				break
			}
			data = append(data, opts.ScatterData{Value: []interface{}{
				roundTo(float64(p.X), 3), roundTo(float64(p.Y), 3), age,
			}})
			emitted++
		}
		scatter.AddSeries(fmt.Sprintf("frame %d", cloud.FrameIndex), data, charts.WithScatterChartOpts(opts.ScatterChart{SymbolSize: 3}))
		age++
		it.NextPointCloud()
	}

	var buf bytes.Buffer
	if err := scatter.Render(&buf); err != nil {
		return fmt.Errorf("render chart: %w", err)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer f.Close()
	_, err = f.Write(buf.Bytes())
	return err
}

func roundTo(v float64, places int) float64 {
	mult := math.Pow(10, float64(places))
	return math.Round(v*mult) / mult
}
