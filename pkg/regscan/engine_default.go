//go:build !hyperscan || !cgo

package regscan

import (
	"github.com/KromDaniel/regscan/internal/compiler"
	"github.com/KromDaniel/regscan/internal/engine"
)

// EngineName names the matching engine this package was built with.
const EngineName = "nfa"

func newEngine(opts Options) engine.Compiler {
	return compiler.New(compiler.Config{Logger: opts.logger()})
}
