// Command scanclose reports regscan Scanners that are never closed.
package main

import (
	"golang.org/x/tools/go/analysis/singlechecker"

	"github.com/KromDaniel/regscan/analysis/scanclose"
)

func main() {
	singlechecker.Main(scanclose.Analyzer)
}
