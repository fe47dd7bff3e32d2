package main

import (
	"context"
	"fmt"
	"log"
	"math"
	"math/rand"
	"os"
	"strings"
	"time"

	"github.com/delaneyj/watchparty/observer"
	"github.com/dustin/go-humanize"
	"github.com/olekukonko/tablewriter"
	"github.com/urfave/cli/v3"
)

const (
	repeatsKey = "repeats"
	onlyKey    = "only"
)

type layerConfig struct {
	name           string  // unique label for the run
	width          int     // nodes per layer
	totalLayers    int     // layers including the sources
	staticFraction float64 // fraction of nodes that always read every source
	nSources       int     // sources read by each node
	readFraction   float64 // fraction of leaves read after each write
	iterations     int64
}

var layerConfigs = []layerConfig{
	{name: "simple component", width: 10, totalLayers: 5, staticFraction: 1, nSources: 2, readFraction: 0.2, iterations: 600000},
	{name: "dynamic component", width: 10, totalLayers: 10, staticFraction: 0.75, nSources: 6, readFraction: 0.2, iterations: 15000},
	{name: "large web app", width: 1000, totalLayers: 12, staticFraction: 0.95, nSources: 4, readFraction: 1, iterations: 7000},
	{name: "wide dense", width: 1000, totalLayers: 5, staticFraction: 1, nSources: 25, readFraction: 1, iterations: 3000},
	{name: "deep", width: 5, totalLayers: 500, staticFraction: 1, nSources: 3, readFraction: 1, iterations: 500},
	{name: "very dynamic", width: 100, totalLayers: 15, staticFraction: 0.5, nSources: 6, readFraction: 1, iterations: 2000},
}

func main() {
	cmd := &cli.Command{
		Name:  "benchmark_layers",
		Usage: "Run layered dynamic graphs of computeds and report update rates",
		Flags: []cli.Flag{
			&cli.UintFlag{
				Name:  repeatsKey,
				Usage: "Timed runs per graph, the best one is reported",
				Value: 5,
			},
			&cli.StringFlag{
				Name:  onlyKey,
				Usage: "Only run graphs whose name contains this text",
			},
		},
		Action: run,
	}
	if err := cmd.Run(context.Background(), os.Args); err != nil {
		log.Fatal(err)
	}
}

type result struct {
	sum      int
	count    int64
	duration time.Duration
}

func run(ctx context.Context, cmd *cli.Command) error {
	log.Print("Starting layers benchmark, please wait...")
	defer log.Print("Finished layers benchmark")

	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{
		"size", "nSources", "read%", "static%",
		"nTimes", "test", "time", "updateRate", "sum", "title",
	})

	repeats := int(cmd.Uint(repeatsKey))
	only := cmd.String(onlyKey)
	for _, cfg := range layerConfigs {
		if only != "" && !strings.Contains(cfg.name, only) {
			continue
		}
		log.Printf("Running '%s' config", cfg.name)

		counter := new(int64)
		graph := makeGraph(cfg, counter)
		// warm up
		runGraph(graph, cfg)

		best := result{duration: time.Hour}
		for i := 0; i < repeats; i++ {
			log.Printf("Running '%s' config, iteration %d/%d", cfg.name, i+1, repeats)
			*counter = 0
			start := time.Now()
			sum := runGraph(graph, cfg)
			if d := time.Since(start); d < best.duration {
				best = result{sum: sum, count: *counter, duration: d}
			}
		}

		updateRate := float64(best.count) / (float64(best.duration) / float64(time.Millisecond))
		table.Append([]string{
			fmt.Sprintf("%dx%d", cfg.width, cfg.totalLayers),
			fmt.Sprint(cfg.nSources),
			fmt.Sprint(cfg.readFraction),
			fmt.Sprint(cfg.staticFraction),
			humanize.Comma(cfg.iterations),
			cfg.name,
			fmt.Sprint(best.duration),
			humanize.Comma(int64(updateRate)),
			humanize.Comma(int64(best.sum)),
			title(cfg),
		})
	}
	table.Render()
	return nil
}

func title(cfg layerConfig) string {
	sb := strings.Builder{}
	fmt.Fprintf(&sb, "%dx%d %d sources", cfg.width, cfg.totalLayers, cfg.nSources)
	if cfg.staticFraction < 1 {
		sb.WriteString(" dynamic")
	}
	if cfg.readFraction < 1 {
		fmt.Fprintf(&sb, " read %0.2f%%", 100*cfg.readFraction)
	}
	return sb.String()
}

type node interface {
	read() int
}

type source struct {
	obj *observer.Object
}

func (s source) read() int {
	return s.obj.Get("v").(int)
}

type derived struct {
	c *observer.Computed
}

func (d derived) read() int {
	return d.c.Get().(int)
}

type graph struct {
	rt      *observer.Runtime
	sources []source
	layers  [][]node
}

func makeGraph(cfg layerConfig, counter *int64) *graph {
	rt := observer.New()
	g := &graph{rt: rt}
	prev := make([]node, cfg.width)
	for i := range cfg.width {
		s := source{obj: rt.Reactive(map[string]any{"v": i})}
		g.sources = append(g.sources, s)
		prev[i] = s
	}

	random := rand.New(rand.NewSource(0))
	for l := 1; l < cfg.totalLayers; l++ {
		prev = makeRow(rt, prev, cfg, counter, random)
		g.layers = append(g.layers, prev)
	}
	return g
}

func makeRow(rt *observer.Runtime, prev []node, cfg layerConfig, counter *int64, random *rand.Rand) []node {
	row := make([]node, len(prev))
	for myDex := range prev {
		mySources := make([]node, 0, cfg.nSources)
		for sourceDex := range cfg.nSources {
			mySources = append(mySources, prev[(myDex+sourceDex)%len(prev)])
		}

		if random.Float64() < cfg.staticFraction {
			row[myDex] = derived{c: rt.Computed(func() any {
				*counter++
				sum := 0
				for _, s := range mySources {
					sum += s.read()
				}
				return sum
			}, nil)}
			continue
		}

		first, tail := mySources[0], mySources[1:]
		row[myDex] = derived{c: rt.Computed(func() any {
			*counter++
			sum := first.read()
			shouldDrop := sum&0x1 > 0
			dropDex := sum % len(tail)
			for i, s := range tail {
				if shouldDrop && i == dropDex {
					continue
				}
				sum += s.read()
			}
			return sum
		}, nil)}
	}
	return row
}

// runGraph writes one source per iteration, reads a fraction of the leaves
// and returns the sum of the read leaves.
func runGraph(g *graph, cfg layerConfig) int {
	random := rand.New(rand.NewSource(0))
	leaves := g.layers[len(g.layers)-1]
	skip := int(math.Round(float64(len(leaves)) * (1 - cfg.readFraction)))
	readLeaves := removeElems(leaves, skip, random)

	for i := 0; i < int(cfg.iterations); i++ {
		sourceDex := i % len(g.sources)
		g.sources[sourceDex].obj.Set("v", i+sourceDex)
		for _, leaf := range readLeaves {
			leaf.read()
		}
	}

	sum := 0
	for _, leaf := range readLeaves {
		sum += leaf.read()
	}
	return sum
}

func removeElems[T any](src []T, rmCount int, random *rand.Rand) []T {
	out := make([]T, len(src))
	copy(out, src)
	for range rmCount {
		i := random.Intn(len(out))
		out[i] = out[len(out)-1]
		out = out[:len(out)-1]
	}
	return out
}
