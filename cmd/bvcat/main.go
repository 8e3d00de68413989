// Command bvcat is the spec's CLI test driver: it loads a BV-format
// compressed web graph and exercises one access pattern against it per
// invocation, matching cmd/snapshot's one-command-per-mode layout with a
// shared base-path flag rather than a bare positional (urfave/cli/v2 has
// no notion of a positional argument preceding the subcommand name, so
// --base takes the role spec.md's `prog <base> {mode}` grammar gives the
// first argument; documented in DESIGN.md).
package main

import (
	"fmt"
	"math/rand"
	"os"
	"strconv"
	"time"

	"github.com/urfave/cli/v2"

	bvgraph "github.com/vigna/webgraph-go"
	"github.com/vigna/webgraph-go/bvlog"
)

var baseFlag = &cli.StringFlag{
	Name:     "base",
	Usage:    "base path: `<base>.graph`, `<base>.offsets`, `<base>.properties`",
	Required: true,
}

var offsetStepFlag = &cli.IntFlag{
	Name:  "offset-step",
	Usage: "load policy: -1 metadata-only, <-1 mmap+EF, 0 no offsets, 1 dense, 2 EF, >2 byte budget",
	Value: 2,
}

func main() {
	app := cli.NewApp()
	app.Name = "bvcat"
	app.Usage = "inspect a BV-format compressed web graph"
	app.UsageText = "bvcat --base <base> {random N | head-tail | all | perform N | iter}"
	app.Flags = []cli.Flag{baseFlag, offsetStepFlag}
	app.Commands = []*cli.Command{
		randomCommand,
		headTailCommand,
		allCommand,
		performCommand,
		iterCommand,
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func load(c *cli.Context) (*bvgraph.Graph, error) {
	base := c.String(baseFlag.Name)
	if base == "" {
		return nil, fmt.Errorf("bvcat: --base is required")
	}
	return bvgraph.Load(base, bvgraph.WithOffsetStep(c.Int(offsetStepFlag.Name)), bvgraph.WithLogger(bvlog.Discard))
}

func printSuccessors(x uint64, succ []uint64) {
	fmt.Printf("%d:", x)
	for _, s := range succ {
		fmt.Printf(" %d", s)
	}
	fmt.Println()
}

var randomCommand = &cli.Command{
	Name:      "random",
	Usage:     "print the successor lists of N randomly chosen vertices",
	ArgsUsage: "<N>",
	Action: func(c *cli.Context) error {
		n, err := strconv.Atoi(c.Args().First())
		if err != nil || n < 0 {
			return fmt.Errorf("bvcat: random: invalid N %q", c.Args().First())
		}
		g, err := load(c)
		if err != nil {
			return err
		}
		defer g.Close()

		ra, err := bvgraph.NewRandomAccess(g)
		if err != nil {
			return err
		}
		defer ra.Close()

		if g.N() == 0 {
			return nil
		}
		rng := rand.New(rand.NewSource(time.Now().UnixNano()))
		for i := 0; i < n; i++ {
			x := uint64(rng.Int63n(int64(g.N())))
			succ, err := ra.Successors(x)
			if err != nil {
				return err
			}
			printSuccessors(x, succ)
		}
		return nil
	},
}

var headTailCommand = &cli.Command{
	Name:  "head-tail",
	Usage: "print the successor lists of the first and last vertex",
	Action: func(c *cli.Context) error {
		g, err := load(c)
		if err != nil {
			return err
		}
		defer g.Close()

		ra, err := bvgraph.NewRandomAccess(g)
		if err != nil {
			return err
		}
		defer ra.Close()

		if g.N() == 0 {
			fmt.Println("(empty graph)")
			return nil
		}
		head, err := ra.Successors(0)
		if err != nil {
			return err
		}
		printSuccessors(0, head)
		if g.N() > 1 {
			tail, err := ra.Successors(g.N() - 1)
			if err != nil {
				return err
			}
			printSuccessors(g.N()-1, tail)
		}
		return nil
	},
}

var allCommand = &cli.Command{
	Name:  "all",
	Usage: "sequentially dump every vertex and print summary statistics",
	Action: func(c *cli.Context) error {
		g, err := load(c)
		if err != nil {
			return err
		}
		defer g.Close()

		it, err := bvgraph.NewSequentialIterator(g)
		if err != nil {
			return err
		}
		defer it.Close()

		for it.Next() {
			printSuccessors(it.Vertex(), it.Successors())
		}
		if it.Err() != nil {
			return it.Err()
		}

		stats, err := bvgraph.ComputeStats(g)
		if err != nil {
			return err
		}
		fmt.Printf("nodes=%d arcs=%d dangling=%d self_loops=%d\n", stats.Nodes, stats.Arcs, stats.Dangling, stats.SelfLoops)
		return nil
	},
}

var performCommand = &cli.Command{
	Name:      "perform",
	Usage:     "time N random-access successor lookups",
	ArgsUsage: "<N>",
	Action: func(c *cli.Context) error {
		n, err := strconv.Atoi(c.Args().First())
		if err != nil || n < 0 {
			return fmt.Errorf("bvcat: perform: invalid N %q", c.Args().First())
		}
		g, err := load(c)
		if err != nil {
			return err
		}
		defer g.Close()

		ra, err := bvgraph.NewRandomAccess(g)
		if err != nil {
			return err
		}
		defer ra.Close()

		if g.N() == 0 || n == 0 {
			fmt.Println("0 lookups, nothing to time")
			return nil
		}
		rng := rand.New(rand.NewSource(time.Now().UnixNano()))
		start := time.Now()
		var arcs uint64
		for i := 0; i < n; i++ {
			x := uint64(rng.Int63n(int64(g.N())))
			succ, err := ra.Successors(x)
			if err != nil {
				return err
			}
			arcs += uint64(len(succ))
		}
		elapsed := time.Since(start)
		fmt.Printf("%d lookups, %d arcs, %s total, %.0f lookups/s\n",
			n, arcs, elapsed, float64(n)/elapsed.Seconds())
		return nil
	},
}

var iterCommand = &cli.Command{
	Name:  "iter",
	Usage: "sequentially dump every vertex's successor list",
	Action: func(c *cli.Context) error {
		g, err := load(c)
		if err != nil {
			return err
		}
		defer g.Close()

		it, err := bvgraph.NewSequentialIterator(g)
		if err != nil {
			return err
		}
		defer it.Close()

		for it.Next() {
			printSuccessors(it.Vertex(), it.Successors())
		}
		return it.Err()
	},
}
