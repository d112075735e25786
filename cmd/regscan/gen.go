package main

import (
	"context"
	"errors"
	"flag"
	"io"
	"os"

	"github.com/KromDaniel/regscan/internal/codegen"
)

func runGen(args []string, stdout, stderr io.Writer) error {
	fs := flag.NewFlagSet("gen", flag.ContinueOnError)
	fs.SetOutput(stderr)
	var (
		src     setSource
		pkg     = fs.String("package", "", "package name of the generated file")
		name    = fs.String("name", "", "identifier prefix, e.g. Web for WebPatterns (default: set name)")
		outFile = fs.String("o", "", "output file (default: stdout)")
	)
	src.register(fs)
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *pkg == "" {
		return errors.New("-package is required")
	}

	set, err := src.load(context.Background())
	if err != nil {
		return err
	}
	if *name == "" {
		*name = set.Name
	}
	code, err := codegen.Generate(codegen.Config{Package: *pkg, Name: *name, Set: set})
	if err != nil {
		return err
	}
	if *outFile == "" {
		_, err = stdout.Write(code)
		return err
	}
	return os.WriteFile(*outFile, code, 0o644)
}
