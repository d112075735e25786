//go:build hyperscan && cgo

package regscan

import (
	"github.com/KromDaniel/regscan/internal/engine"
	"github.com/KromDaniel/regscan/internal/hs"
)

// EngineName names the matching engine this package was built with.
const EngineName = "hyperscan"

func newEngine(Options) engine.Compiler {
	return hs.New()
}
