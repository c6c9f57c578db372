package element

import (
	"fmt"

	"github.com/maximerenault/LUPA/pkg/calculator"
)

// Param is an element parameter given as an expression. Constant
// expressions are folded at compile time; time-varying ones are
// re-evaluated with the current simulation time on every stamp.
type Param struct {
	src      string
	expr     *calculator.Expr
	constant bool
	value    float64
}

// NewParam compiles src with the given calculator. An expression with no
// free variables is evaluated once here, which also surfaces malformed
// expressions before any simulation work begins.
func NewParam(calc *calculator.Calculator, src string) (*Param, error) {
	expr, err := calc.Compile(src)
	if err != nil {
		return nil, err
	}

	p := &Param{src: src, expr: expr}
	if v, err := expr.Eval(nil); err == nil {
		p.constant = true
		p.value = v
	}
	return p, nil
}

func (p *Param) String() string { return p.src }

// Constant reports whether the parameter has no time dependence.
func (p *Param) Constant() bool { return p.constant }

// At evaluates the parameter at simulation time t.
func (p *Param) At(t float64) (float64, error) {
	if p.constant {
		return p.value, nil
	}
	return p.expr.Eval(map[string]float64{"t": t})
}

// DerivAt approximates the parameter's time derivative at t. Zero for
// constant parameters.
func (p *Param) DerivAt(t float64) (float64, error) {
	if p.constant {
		return 0, nil
	}
	return p.expr.Deriv("t", map[string]float64{"t": t})
}

func paramErr(name, param string, value float64, msg string) error {
	return &InvalidParameterError{Element: name, Param: param, Value: value, Msg: msg}
}

func wrapEval(name string, err error) error {
	return fmt.Errorf("element %s: %w", name, err)
}
