package calculator

import "math"

type node interface {
	eval(e *Expr, vars map[string]float64) (float64, error)
}

type numberNode struct{ val float64 }

func (n *numberNode) eval(*Expr, map[string]float64) (float64, error) {
	return n.val, nil
}

type varNode struct {
	name string
	pos  int
}

func (n *varNode) eval(e *Expr, vars map[string]float64) (float64, error) {
	v, ok := vars[n.name]
	if !ok {
		return 0, evalErr(e.src, n.pos, "unknown identifier %q", n.name)
	}
	return v, nil
}

type negNode struct{ inner node }

func (n *negNode) eval(e *Expr, vars map[string]float64) (float64, error) {
	v, err := n.inner.eval(e, vars)
	return -v, err
}

type callNode struct {
	name string
	pos  int
	fn   func(float64) float64
	arg  node
}

func (n *callNode) eval(e *Expr, vars map[string]float64) (float64, error) {
	v, err := n.arg.eval(e, vars)
	if err != nil {
		return 0, err
	}
	r := n.fn(v)
	if math.IsNaN(r) || math.IsInf(r, 0) {
		return 0, evalErr(e.src, n.pos, "%s(%v) is not finite", n.name, v)
	}
	return r, nil
}

type binaryNode struct {
	op       string
	pos      int
	lhs, rhs node
}

func (n *binaryNode) eval(e *Expr, vars map[string]float64) (float64, error) {
	l, err := n.lhs.eval(e, vars)
	if err != nil {
		return 0, err
	}
	r, err := n.rhs.eval(e, vars)
	if err != nil {
		return 0, err
	}
	switch n.op {
	case "+":
		return l + r, nil
	case "-":
		return l - r, nil
	case "*":
		return l * r, nil
	case "/":
		if r == 0 {
			return 0, evalErr(e.src, n.pos, "division by zero")
		}
		return l / r, nil
	case "%":
		if r == 0 {
			return 0, evalErr(e.src, n.pos, "modulo by zero")
		}
		return math.Mod(l, r), nil
	case "^":
		return math.Pow(l, r), nil
	}
	return 0, evalErr(e.src, n.pos, "unknown operator %q", n.op)
}
