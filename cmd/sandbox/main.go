// Command sandbox runs a level with live behaviors in a window. Move the
// player around to provoke the actors and watch their state on the overlay.
package main

import (
	"flag"
	"log"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/milk9111/aibehavior/levels"
	"github.com/milk9111/aibehavior/prefabs"
	"github.com/milk9111/aibehavior/scene"
)

func main() {
	levelName := flag.String("level", "arena", "level name in levels/ (basename, .json optional)")
	debug := flag.Bool("debug", false, "log behavior transitions and draw physics shapes")
	seed := flag.Int64("seed", 1, "random seed for behavior decisions")
	watch := flag.Bool("watch", false, "reload templates and scripts when they change on disk")
	baseMonitor := flag.Bool("m", false, "use base monitor instead of primary (for multi-monitor setups)")
	flag.Parse()

	lvl, err := levels.Load(*levelName)
	if err != nil {
		log.Fatalf("load level %s: %v", *levelName, err)
	}
	sc, err := scene.Load(lvl, scene.Config{Debug: *debug, Seed: *seed})
	if err != nil {
		log.Fatalf("build scene: %v", err)
	}

	game := NewGame(sc, *debug)
	if *watch {
		w, err := prefabs.NewWatcher("prefabs", "prefabs/scripts")
		if err != nil {
			log.Printf("watch disabled: %v", err)
		} else {
			defer w.Close()
			game.watcher = w
		}
	}

	if *baseMonitor {
		ebiten.SetMonitor(ebiten.AppendMonitors(nil)[0])
	}
	ebiten.SetWindowResizingMode(ebiten.WindowResizingModeEnabled)
	ebiten.SetWindowSize(baseWidth, baseHeight)
	ebiten.SetWindowTitle("aibehavior sandbox - " + lvl.Name)

	if err := ebiten.RunGame(game); err != nil {
		log.Fatal(err)
	}
}
