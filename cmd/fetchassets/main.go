package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	get "github.com/hashicorp/go-getter"
)

func main() {
	var (
		base    = flag.String("base", "", "git url of the asset repository")
		pack    = flag.String("pack", "default", "asset pack name")
		ver     = flag.String("version", "main", "repository ref")
		out     = flag.String("o", "./assets", "output dir path")
		replace = flag.Bool("replace", true, "remove an existing copy first")
	)
	flag.Parse()

	log := slog.New(slog.NewTextHandler(os.Stdout, nil))

	if *base == "" || *out == "" || *pack == "" || *ver == "" {
		log.Error("base url, output dir, pack and version are required")
		os.Exit(2)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	dst := filepath.Join(*out, *pack)
	if err := fetch(ctx, *base, *pack, *ver, dst, *replace, log); err != nil {
		log.Error("fetch assets", "pack", *pack, "error", err)
		os.Exit(1)
	}
}

// sourceURL builds the go-getter source of a pack stored under packs/ in a
// git repository.
func sourceURL(base, pack, ref string) string {
	return fmt.Sprintf("git::%s//packs/%s?ref=%s", base, pack, ref)
}

func fetch(ctx context.Context, base, pack, ref, dst string, replace bool, log *slog.Logger) error {
	if replace {
		if err := os.RemoveAll(dst); err != nil {
			return fmt.Errorf("remove %s: %w", dst, err)
		}
	}
	src := sourceURL(base, pack, ref)
	log.Info("start downloading asset pack", "src", src, "dst", dst)

	client := &get.Client{
		Ctx:  ctx,
		Src:  src,
		Dst:  dst,
		Mode: get.ClientModeDir,
	}
	if err := client.Get(); err != nil {
		return fmt.Errorf("download %s: %w", src, err)
	}

	for _, name := range []string{"registry.yaml", "router.yaml"} {
		if _, err := os.Stat(filepath.Join(dst, name)); err != nil {
			log.Warn("asset pack file missing", "file", name, "error", err)
		}
	}
	log.Info("done downloading asset pack", "dst", dst)
	return nil
}
