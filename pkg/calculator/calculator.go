// Package calculator evaluates scalar math expressions used for element
// values: constants, time-dependent waveforms and nonlinear parameters.
// Expressions compile once and are re-evaluated with fresh variable
// bindings on every call, so "sin(2*pi*t)" yields a new value each step.
package calculator

import (
	"fmt"
	"math"
)

// EvaluationError reports a malformed or undefined expression. Pos is a
// byte offset into Expr, -1 when the failure is not tied to a position.
type EvaluationError struct {
	Expr string
	Pos  int
	Msg  string
}

func (e *EvaluationError) Error() string {
	if e.Pos >= 0 {
		return fmt.Sprintf("evaluating %q at offset %d: %s", e.Expr, e.Pos, e.Msg)
	}
	return fmt.Sprintf("evaluating %q: %s", e.Expr, e.Msg)
}

func evalErr(expr string, pos int, format string, args ...any) *EvaluationError {
	return &EvaluationError{Expr: expr, Pos: pos, Msg: fmt.Sprintf(format, args...)}
}

// Calculator holds the constant and function registries for one circuit
// run. Instances are independent; concurrent runs must not share one if
// they register constants.
type Calculator struct {
	constants map[string]float64
	functions map[string]func(float64) float64
}

// New returns a calculator with e and pi and the built-in single-argument
// functions registered.
func New() *Calculator {
	c := &Calculator{
		constants: map[string]float64{
			"e":  math.E,
			"pi": math.Pi,
		},
		functions: map[string]func(float64) float64{
			"sin":   math.Sin,
			"cos":   math.Cos,
			"tan":   math.Tan,
			"asin":  math.Asin,
			"acos":  math.Acos,
			"atan":  math.Atan,
			"abs":   math.Abs,
			"floor": math.Floor,
			"exp":   math.Exp,
			"sqrt":  math.Sqrt,
			"log":   math.Log,
		},
	}
	return c
}

// SetConstant registers a named constant. The built-in constants e and pi
// are read only.
func (c *Calculator) SetConstant(name string, value float64) error {
	if name == "e" || name == "pi" {
		return evalErr(name, -1, "constant %q is read only", name)
	}
	c.constants[name] = value
	return nil
}

// SetFunction registers a single-argument function under the given name.
func (c *Calculator) SetFunction(name string, fn func(float64) float64) error {
	if _, ok := New().functions[name]; ok {
		return evalErr(name, -1, "function %q is read only", name)
	}
	c.functions[name] = fn
	return nil
}

// Compile parses src into a reusable expression. Unknown function names
// and syntax errors are reported here; unknown variables only at Eval,
// since bindings are supplied per call.
func (c *Calculator) Compile(src string) (*Expr, error) {
	p := &parser{src: src, calc: c}
	if err := p.scan(); err != nil {
		return nil, err
	}
	root, err := p.parseExpression()
	if err != nil {
		return nil, err
	}
	if p.pos < len(p.tokens) {
		t := p.tokens[p.pos]
		return nil, evalErr(src, t.pos, "unexpected %q", t.text)
	}
	return &Expr{src: src, root: root, calc: c}, nil
}

// Evaluate compiles and evaluates src in one call.
func (c *Calculator) Evaluate(src string, vars map[string]float64) (float64, error) {
	ex, err := c.Compile(src)
	if err != nil {
		return 0, err
	}
	return ex.Eval(vars)
}

// Expr is a compiled expression bound to the calculator that compiled it.
type Expr struct {
	src  string
	root node
	calc *Calculator
}

func (e *Expr) String() string { return e.src }

// Eval evaluates the expression with the given variable bindings.
// Division by zero, unknown identifiers and non-finite results become
// EvaluationError.
func (e *Expr) Eval(vars map[string]float64) (float64, error) {
	v, err := e.root.eval(e, vars)
	if err != nil {
		return 0, err
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, evalErr(e.src, -1, "non-finite result %v", v)
	}
	return v, nil
}

// Deriv approximates d(expr)/d(name) at the given bindings by central
// finite difference. Used for time-varying capacitances (dC/dt term).
func (e *Expr) Deriv(name string, vars map[string]float64) (float64, error) {
	x := vars[name]
	h := 1e-7 * (1.0 + math.Abs(x))

	shifted := make(map[string]float64, len(vars))
	for k, v := range vars {
		shifted[k] = v
	}

	shifted[name] = x + h
	hi, err := e.Eval(shifted)
	if err != nil {
		return 0, err
	}
	shifted[name] = x - h
	lo, err := e.Eval(shifted)
	if err != nil {
		return 0, err
	}
	return (hi - lo) / (2 * h), nil
}
