// Package compiler implements the pure-Go matching engine: expressions are
// parsed with regexp/syntax and simulated as a set of Thompson NFAs whose
// thread sets can be carried from one chunk of input to the next.
package compiler

import (
	"log/slog"

	"github.com/KromDaniel/regscan/internal/engine"
)

// Config holds the configuration for compilation.
type Config struct {
	Logger *slog.Logger // Verbose logging of analysis decisions, debug level
}

// Compiler builds Automata from expressions.
type Compiler struct {
	config Config
	logger *Logger
}

var _ engine.Compiler = (*Compiler)(nil)

// New creates a new compiler instance.
func New(config Config) *Compiler {
	return &Compiler{
		config: config,
		logger: NewLogger(config.Logger),
	}
}

// Automaton is a compiled expression set.
type Automaton struct {
	mode     engine.Mode
	programs []*program
}

var _ engine.Automaton = (*Automaton)(nil)

// Compile implements engine.Compiler.
func (c *Compiler) Compile(mode engine.Mode, exprs []engine.Expression) (engine.Automaton, error) {
	a, err := c.CompileAutomaton(mode, exprs)
	if err != nil {
		return nil, err
	}
	return a, nil
}

// CompileAutomaton is Compile returning the concrete type.
func (c *Compiler) CompileAutomaton(mode engine.Mode, exprs []engine.Expression) (*Automaton, error) {
	if len(exprs) == 0 {
		return nil, &engine.CompileError{Index: -1, Message: "no patterns"}
	}

	c.logger.Section("Pattern Analysis")
	c.logger.Log("Mode: %d, expressions: %d", mode, len(exprs))

	programs := make([]*program, 0, len(exprs))
	for i, e := range exprs {
		p, err := parseExpression(i, e)
		if err != nil {
			c.logger.Log("Expression %d rejected: %v", i, err)
			return nil, err
		}
		c.analyzeAndLog(p)
		programs = append(programs, p)
	}

	return &Automaton{mode: mode, programs: programs}, nil
}

// analyzeAndLog logs the analysis results for one program if verbose mode is enabled.
func (c *Compiler) analyzeAndLog(p *program) {
	if !c.logger.Enabled() {
		return
	}
	c.logger.Log("Expression %d: %q", p.index, p.expr)
	c.logger.Log("NFA states: %d", len(p.prog.Inst))
	c.logger.Log("Is anchored: %v", p.anchored)
	c.logger.Log("Needs lookahead: %v", needsLookahead(p.prog))
	c.logger.Log("UTF-8 input: %v, single match: %v, quiet: %v", p.utf8, p.single, p.quiet)
	c.logger.Log("Width: min %d, max %d", p.info.MinWidth, p.info.MaxWidth)
}

// Mode implements engine.Automaton.
func (a *Automaton) Mode() engine.Mode {
	return a.mode
}

// NewState implements engine.Automaton.
func (a *Automaton) NewState() (engine.State, error) {
	return newState(a), nil
}

// Info returns the static properties of every expression, in order.
func (a *Automaton) Info() []ExpressionInfo {
	out := make([]ExpressionInfo, len(a.programs))
	for i, p := range a.programs {
		out[i] = p.info
	}
	return out
}

// Analyze parses a single expression and returns its static properties.
func Analyze(e engine.Expression) (ExpressionInfo, error) {
	p, err := parseExpression(0, e)
	if err != nil {
		return ExpressionInfo{}, err
	}
	return p.info, nil
}
