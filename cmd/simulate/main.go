// Command simulate runs a level headless for a fixed number of frames and
// reports what every behavior did. With -save it also round-trips each
// behavior through a save slot.
package main

import (
	"flag"
	"fmt"
	"io"
	"log"
	"os"

	"github.com/milk9111/aibehavior/behavior"
	"github.com/milk9111/aibehavior/levels"
	"github.com/milk9111/aibehavior/persist"
	"github.com/milk9111/aibehavior/scene"
)

type options struct {
	level  string
	frames int
	dt     float64
	seed   int64
	debug  bool
	save   bool
	app    string
	attack int
}

func main() {
	var opts options
	flag.StringVar(&opts.level, "level", "arena", "level name in levels/ (basename, .json optional)")
	flag.IntVar(&opts.frames, "frames", 600, "number of frames to simulate")
	flag.Float64Var(&opts.dt, "dt", 1.0/60, "seconds per frame")
	flag.Int64Var(&opts.seed, "seed", 1, "random seed for behavior decisions")
	flag.BoolVar(&opts.debug, "debug", false, "log every behavior decision")
	flag.BoolVar(&opts.save, "save", false, "save and reload every behavior through a slot")
	flag.StringVar(&opts.app, "app", "aibehavior", "application name for save slots")
	flag.IntVar(&opts.attack, "attack", 0, "player attacks every N frames (0 disables)")
	flag.Parse()

	if err := run(opts, os.Stdout); err != nil {
		log.Fatal(err)
	}
}

func run(opts options, out io.Writer) error {
	if opts.frames < 0 || opts.dt <= 0 {
		return fmt.Errorf("simulate: frames must be >= 0 and dt > 0")
	}
	lvl, err := levels.Load(opts.level)
	if err != nil {
		return fmt.Errorf("simulate: load level %s: %w", opts.level, err)
	}
	sc, err := scene.Load(lvl, scene.Config{Debug: opts.debug, Seed: opts.seed})
	if err != nil {
		return fmt.Errorf("simulate: build scene: %w", err)
	}

	transitions := 0
	sc.Hub().Subscribe(behavior.EventStateChanged, nil, func(ev behavior.Event) {
		transitions++
		fmt.Fprintf(out, "state  actor=%d %s %s -> %s\n", ev.Actor.ID(), ev.Behavior, ev.From, ev.To)
	})

	for f := 1; f <= opts.frames; f++ {
		if p := sc.Player(); opts.attack > 0 && p != nil && f%opts.attack == 0 {
			if victim := sc.Attack(p, 24); victim != nil {
				fmt.Fprintf(out, "attack frame=%d %s\n", f, victim)
			}
		}
		sc.Update(opts.dt)
	}

	fmt.Fprintf(out, "done   level=%s frames=%d transitions=%d\n", lvl.Name, opts.frames, transitions)
	for _, a := range sc.Actors() {
		pos := a.Position()
		fmt.Fprintf(out, "actor  %-12s floor=%d pos=(%.1f,%.1f) hits=%d %s\n",
			a, a.Floor(), pos.X, pos.Y, a.Hits(), behavior.Describe(a.Behavior()))
	}

	if opts.save {
		return roundTrip(sc, opts.app, lvl.Name, out)
	}
	return nil
}

// roundTrip saves every actor's behavior into its own slot and loads it back.
func roundTrip(sc *scene.Scene, app, level string, out io.Writer) error {
	store, err := persist.OpenSlots(app)
	if err != nil {
		return fmt.Errorf("simulate: open slots: %w", err)
	}
	for _, a := range sc.Actors() {
		b := a.Behavior()
		if b == nil {
			continue
		}
		slot := fmt.Sprintf("%s-%s-%d", level, a.Name(), a.ID())
		if err := behavior.SaveTo(store, slot, b); err != nil {
			return fmt.Errorf("simulate: save %s: %w", slot, err)
		}
		loaded, err := behavior.LoadFrom(store, slot, sc.Factory(), a)
		if err != nil {
			return fmt.Errorf("simulate: load %s: %w", slot, err)
		}
		if loaded.Kind() != b.Kind() {
			return fmt.Errorf("simulate: %s came back as %s, want %s", slot, loaded.Kind(), b.Kind())
		}
		fmt.Fprintf(out, "saved  %s (%s)\n", slot, loaded.Kind())
	}
	return nil
}
