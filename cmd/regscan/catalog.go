package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"

	"github.com/KromDaniel/regscan/patternset"
	"github.com/KromDaniel/regscan/store"
)

func runCatalog(args []string, stdout, stderr io.Writer, log *slog.Logger) error {
	fs := flag.NewFlagSet("catalog", flag.ContinueOnError)
	fs.SetOutput(stderr)
	dbPath := fs.String("db", "regscan.db", "catalog file")
	if err := fs.Parse(args); err != nil {
		return err
	}
	rest := fs.Args()
	if len(rest) == 0 {
		return errors.New("expected put, get, list, versions or delete")
	}

	ctx := context.Background()
	c, err := store.Open(*dbPath, store.Options{})
	if err != nil {
		return err
	}
	defer c.Close()

	op, operands := rest[0], rest[1:]
	switch op {
	case "put":
		if len(operands) == 0 {
			return errors.New("put: expected set files")
		}
		for _, path := range operands {
			set, err := patternset.Load(path)
			if err != nil {
				return err
			}
			if err := c.Put(ctx, set); err != nil {
				return err
			}
			log.Info("pattern set stored", "name", set.Name, "patterns", len(set.Patterns))
		}
		return nil
	case "get":
		if len(operands) != 1 {
			return errors.New("get: expected one set name")
		}
		set, err := c.Get(ctx, operands[0])
		if err != nil {
			return err
		}
		return writeSet(stdout, set)
	case "versions":
		if len(operands) != 1 {
			return errors.New("versions: expected one set name")
		}
		versions, err := c.Versions(ctx, operands[0])
		if err != nil {
			return err
		}
		for i, set := range versions {
			fmt.Fprintf(stdout, "# version %d\n", i+1)
			if err := writeSet(stdout, set); err != nil {
				return err
			}
		}
		return nil
	case "list":
		names, err := c.List(ctx)
		if err != nil {
			return err
		}
		for _, name := range names {
			fmt.Fprintln(stdout, name)
		}
		return nil
	case "delete":
		for _, name := range operands {
			if err := c.Delete(ctx, name); err != nil {
				return err
			}
		}
		return nil
	}
	return fmt.Errorf("unknown operation %q", op)
}

func writeSet(w io.Writer, set *patternset.Set) error {
	data, err := set.Marshal()
	if err != nil {
		return err
	}
	_, err = w.Write(data)
	return err
}
