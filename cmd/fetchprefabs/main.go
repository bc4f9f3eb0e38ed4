// Command fetchprefabs downloads a prefab pack into a local directory
// that citycraft can then use with -prefabs.
package main

import (
	"context"
	"flag"
	"log/slog"
	"os"

	"github.com/OCharnyshevich/citycraft/internal/prefabs"
)

func main() {
	var (
		src = flag.String("source", "", "go-getter URL of the pack, e.g. git::https://host/repo.git//city")
		out = flag.String("o", "./prefabs", "output dir path")
	)
	flag.Parse()

	log := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))

	if *out == "" {
		log.Error("output dir path required")
		os.Exit(2)
	}
	if *src == "" {
		log.Error("-source required")
		os.Exit(2)
	}

	ctx := context.Background()
	dir, err := prefabs.Fetch(ctx, *src, *out, log)
	if err != nil {
		log.Error("fetch", "error", err)
		os.Exit(1)
	}

	// Malformed schematics are reported by the load.
	lib, err := prefabs.Load(ctx, prefabs.Options{Dir: dir}, log)
	if err != nil {
		log.Error("load fetched pack", "error", err)
		os.Exit(1)
	}
	log.Info("done", "dir", dir, "prefabs", lib.Len())
}
