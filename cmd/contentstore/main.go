// Command contentstore is a small operational tool over a configured content
// store: it lists content ids, enumerates a content item's file assets, and
// reports library usage statistics. Configuration comes from the environment
// (see pkg/contentstore/config).
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strconv"

	"github.com/openlearntech/contentstore/pkg/contentstore"
	"github.com/openlearntech/contentstore/pkg/contentstore/config"
)

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Error("Failed to load configuration", "err", err)
		os.Exit(1)
	}

	ctx := context.Background()
	store, closeStore, err := cfg.BuildStorage(ctx)
	if err != nil {
		slog.Error("Failed to build storage", "err", err)
		os.Exit(1)
	}
	defer closeStore()

	if err := run(ctx, store, os.Args[1], os.Args[2:]); err != nil {
		slog.Error("Command failed", "command", os.Args[1], "err", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, store contentstore.Storage, command string, args []string) error {
	switch command {
	case "list":
		ids, err := store.ListContentIDs(ctx)
		if err != nil {
			return err
		}
		for _, id := range ids {
			fmt.Println(id)
		}
		return nil

	case "files":
		if len(args) != 1 {
			return fmt.Errorf("usage: contentstore files <content-id>")
		}
		id, err := strconv.ParseInt(args[0], 10, 64)
		if err != nil {
			return fmt.Errorf("invalid content id %q", args[0])
		}
		files, err := store.ListFiles(ctx, id)
		if err != nil {
			return err
		}
		for _, f := range files {
			fmt.Println(f)
		}
		return nil

	case "usage":
		if len(args) != 1 {
			return fmt.Errorf("usage: contentstore usage <library>")
		}
		stats, err := store.GetUsage(ctx, args[0])
		if err != nil {
			return err
		}
		fmt.Printf("main library: %d\ndependency:   %d\n", stats.AsMainLibrary, stats.AsDependency)
		return nil

	default:
		usage()
		return fmt.Errorf("unknown command %q", command)
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, `usage: contentstore <command> [args]

commands:
  list               print all content ids
  files <id>         print the file assets of a content item
  usage <library>    print usage statistics for a library`)
}
