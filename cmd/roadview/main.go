package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"time"

	"github.com/gdamore/tcell/v2"

	"roadrunner/server/internal/mapconfig"
	"roadrunner/server/internal/roadview"
	"roadrunner/server/internal/world"
)

func main() {
	configFile := flag.String("config-file", "", "path to the map config JSON")
	mapID := flag.String("map", "", "map id to open (defaults to the first map)")
	tick := flag.Duration("tick", 50*time.Millisecond, "simulation tick")
	flag.Parse()

	if err := run(*configFile, *mapID, *tick); err != nil {
		log.Fatalf("%v", err)
	}
}

func run(configFile, mapID string, tick time.Duration) error {
	if configFile == "" {
		return fmt.Errorf("--config-file is required")
	}
	file, maps, err := mapconfig.LoadMaps(configFile)
	if err != nil {
		return err
	}
	selected := maps[0]
	if mapID != "" {
		selected = nil
		for _, m := range maps {
			if string(m.ID()) == mapID {
				selected = m
				break
			}
		}
		if selected == nil {
			return fmt.Errorf("map %q: %w", mapID, world.ErrMapNotFound)
		}
	}

	cfg := world.DefaultConfig()
	if file.DefaultDogSpeed > 0 {
		cfg.DefaultDogSpeed = file.DefaultDogSpeed
	}

	screen, err := tcell.NewScreen()
	if err != nil {
		return fmt.Errorf("open terminal: %w", err)
	}
	if err := screen.Init(); err != nil {
		return fmt.Errorf("init terminal: %w", err)
	}
	defer screen.Fini()

	viewer, err := roadview.New(screen, selected, cfg, tick)
	if err != nil {
		return err
	}
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	if err := viewer.Run(ctx); err != nil && ctx.Err() == nil {
		return err
	}
	return nil
}
