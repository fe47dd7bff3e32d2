package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"runtime/pprof"
	"strconv"
	"strings"
	"time"

	"github.com/delaneyj/watchparty/observer"
	"github.com/jamiealquiza/tachymeter"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/urfave/cli/v3"
)

const (
	widthsKey     = "widths"
	heightsKey    = "heights"
	iterationsKey = "iterations"
	configKey     = "config"
	profileKey    = "profile"
)

func main() {
	cmd := &cli.Command{
		Name:  "benchmark",
		Usage: "Time propagation through chains of computeds ending in a render watcher",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  widthsKey,
				Usage: "Comma separated number of chains per graph",
				Value: "1,10,100,1000",
			},
			&cli.StringFlag{
				Name:  heightsKey,
				Usage: "Comma separated number of computeds per chain",
				Value: "1,10,100,1000",
			},
			&cli.UintFlag{
				Name:  iterationsKey,
				Usage: "Writes timed per graph",
				Value: 100,
			},
			&cli.StringFlag{
				Name:  configKey,
				Usage: "Optional observer YAML config",
			},
			&cli.BoolFlag{
				Name:  profileKey,
				Usage: "Write a CPU profile to default.pgo",
			},
		},
		Action: run,
	}
	if err := cmd.Run(context.Background(), os.Args); err != nil {
		log.Fatal(err)
	}
}

func run(ctx context.Context, cmd *cli.Command) error {
	ww, err := parseSizes(cmd.String(widthsKey))
	if err != nil {
		return fmt.Errorf("parse %s: %w", widthsKey, err)
	}
	hh, err := parseSizes(cmd.String(heightsKey))
	if err != nil {
		return fmt.Errorf("parse %s: %w", heightsKey, err)
	}

	cfg := observer.DefaultConfig()
	if path := cmd.String(configKey); path != "" {
		if cfg, err = observer.LoadConfig(path); err != nil {
			return err
		}
	}

	if cmd.Bool(profileKey) {
		f, err := os.Create("default.pgo")
		if err != nil {
			return err
		}
		defer f.Close()
		if err := pprof.StartCPUProfile(f); err != nil {
			return err
		}
		defer pprof.StopCPUProfile()
	}

	log.Printf("warming up")
	benchmarkPropagate(cfg, ww, hh, int(cmd.Uint(iterationsKey)), false)
	benchmarkPropagate(cfg, ww, hh, int(cmd.Uint(iterationsKey)), true)
	return nil
}

func parseSizes(s string) ([]int, error) {
	parts := strings.Split(s, ",")
	sizes := make([]int, 0, len(parts))
	for _, p := range parts {
		n, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil {
			return nil, err
		}
		if n <= 0 {
			return nil, fmt.Errorf("size must be positive, got %d", n)
		}
		sizes = append(sizes, n)
	}
	return sizes, nil
}

func benchmarkPropagate(cfg observer.Config, ww, hh []int, iters int, shouldRender bool) {
	tbl := table.NewWriter()
	tbl.SetTitle("Observer")
	tbl.SetOutputMirror(os.Stdout)
	tbl.AppendHeader(table.Row{"benchmark", "avg", "min", "p75", "p99", "max", "renders"})

	for _, w := range ww {
		for _, h := range hh {
			tach := tachymeter.New(&tachymeter.Config{Size: iters})

			rt := observer.New(observer.WithConfig(cfg))
			src := rt.Reactive(map[string]any{"v": 1})
			renders := 0
			for i := 0; i < w; i++ {
				last := rt.Computed(func() any {
					return src.Get("v").(int) + 1
				}, nil)
				for j := 1; j < h; j++ {
					prev := last
					last = rt.Computed(func() any {
						return prev.Get().(int) + 1
					}, nil)
				}

				leaf := last
				rt.Render(rt.NewScope(fmt.Sprintf("chain %d", i)), func() {
					leaf.Get()
					renders++
				}, nil)
			}

			for i := 0; i < iters; i++ {
				start := time.Now()
				src.Set("v", src.Get("v").(int)+1)
				rt.Tick()
				tach.AddTime(time.Since(start))
			}

			calc := tach.Calc()
			tbl.AppendRows([]table.Row{
				{
					fmt.Sprintf("propagate: %d * %d", w, h),
					calc.Time.Avg,
					calc.Time.Min,
					calc.Time.P75,
					calc.Time.P99,
					calc.Time.Max,
					renders,
				},
			})
		}
	}

	if shouldRender {
		tbl.Render()
	}
}
