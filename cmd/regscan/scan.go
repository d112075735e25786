package main

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"

	"github.com/KromDaniel/regscan/patternset"
	"github.com/KromDaniel/regscan/pkg/regscan"
	"github.com/KromDaniel/regscan/store"
	"github.com/KromDaniel/regscan/stream"
)

// setSource selects where a pattern set is loaded from.
type setSource struct {
	patterns string
	catalog  string
	name     string
}

func (src *setSource) register(fs *flag.FlagSet) {
	fs.StringVar(&src.patterns, "patterns", "", "pattern-set YAML file")
	fs.StringVar(&src.catalog, "catalog", "", "catalog file to load the set from (requires -set)")
	fs.StringVar(&src.name, "set", "", "name of the set in the catalog")
}

func (src *setSource) load(ctx context.Context) (*patternset.Set, error) {
	switch {
	case src.patterns != "" && src.catalog != "":
		return nil, errors.New("-patterns and -catalog are mutually exclusive")
	case src.patterns != "":
		return patternset.Load(src.patterns)
	case src.catalog != "":
		if src.name == "" {
			return nil, errors.New("-catalog requires -set")
		}
		c, err := store.Open(src.catalog, store.Options{})
		if err != nil {
			return nil, err
		}
		defer c.Close()
		return c.Get(ctx, src.name)
	}
	return nil, errors.New("one of -patterns or -catalog is required")
}

// output prints matches of one input as name:tag:start:end. Untagged
// patterns print as #N.
type output struct {
	w    *bufio.Writer
	name string
	err  error
}

func printMatch(o *output, tag regscan.Tag, from, to uint64) regscan.Scan {
	if _, err := fmt.Fprintf(o.w, "%s:%v:%d:%d\n", o.name, tag, from, to); err != nil {
		o.err = err
		return regscan.Terminate
	}
	return regscan.Continue
}

func runScan(args []string, stdout, stderr io.Writer, log *slog.Logger) error {
	fs := flag.NewFlagSet("scan", flag.ContinueOnError)
	fs.SetOutput(stderr)
	var (
		src      setSource
		modeName = fs.String("mode", "", "override the set's mode: block, vectored or stream")
		chunk    = fs.Int("chunk", 0, "stream read size, or vectored buffer size, in bytes (default 64KB)")
		filter   = fs.Bool("filter", false, "print lines containing a match instead of offsets (block mode)")
		lines    arrayFlags
	)
	src.register(fs)
	fs.Var(&lines, "line", "only scan lines containing this substring (repeatable)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	set, err := src.load(ctx)
	if err != nil {
		return err
	}
	if *modeName != "" {
		set.Mode = *modeName
	}
	db, err := set.Compile(regscan.Options{Logger: log})
	if err != nil {
		return err
	}
	log.Info("pattern set compiled", "name", set.Name, "mode", db.Mode().String(), "patterns", db.Len())

	inputs := fs.Args()
	if len(inputs) == 0 {
		inputs = []string{"-"}
	}

	w := bufio.NewWriter(stdout)
	defer w.Flush()

	for _, name := range inputs {
		if err := scanInput(ctx, db, name, w, lines, *filter, *chunk); err != nil {
			return err
		}
	}
	return w.Flush()
}

func scanInput(ctx context.Context, db *regscan.Database, name string, w *bufio.Writer, lines []string, filter bool, chunk int) error {
	var r io.Reader
	if name == "-" {
		r = os.Stdin
	} else {
		f, err := os.Open(name)
		if err != nil {
			return err
		}
		defer f.Close()
		r = f
	}
	if len(lines) > 0 {
		r = stream.LineFilter(r, func(line []byte) bool {
			for _, sub := range lines {
				if bytes.Contains(line, []byte(sub)) {
					return true
				}
			}
			return false
		})
	}

	if filter {
		fr, err := stream.PatternFilter(r, db)
		if err != nil {
			return err
		}
		_, err = io.Copy(w, fr)
		return err
	}

	out := &output{w: w, name: name}
	s, err := regscan.Build(db, out, printMatch)
	if err != nil {
		return err
	}
	defer s.Close()

	switch db.Mode() {
	case regscan.Stream:
		_, err = stream.ScanReader(ctx, s, r, stream.Config{BufferSize: chunk})
	case regscan.Vectored:
		var data []byte
		if data, err = io.ReadAll(r); err == nil {
			_, err = s.ScanVector(split(data, chunk))
		}
	default:
		var data []byte
		if data, err = io.ReadAll(r); err == nil {
			_, err = s.Scan(data)
		}
	}
	if err != nil {
		return fmt.Errorf("%s: %w", name, err)
	}
	return out.err
}

// split cuts data into buffers of size bytes; zero selects the stream default.
func split(data []byte, size int) [][]byte {
	if size <= 0 {
		size = stream.DefaultBufferSize
	}
	bufs := make([][]byte, 0, len(data)/size+1)
	for len(data) > size {
		bufs = append(bufs, data[:size])
		data = data[size:]
	}
	return append(bufs, data)
}
