// Package matrix wraps the sparse LU solver behind the small stamping
// surface the elements need. Rows and columns are 1-based; index 0 is the
// ground node and stamps addressed to it are dropped by the callers.
package matrix

import (
	"fmt"

	"github.com/edp1096/sparse"
)

// SystemMatrix is the Newton iteration matrix J together with the right
// hand side vector holding -G(x). Entries accumulate additively, which is
// what lets every element stamp independently.
type SystemMatrix struct {
	Size     int
	matrix   *sparse.Matrix
	rhs      []float64
	solution []float64
	config   *sparse.Configuration
}

func New(size int) (*SystemMatrix, error) {
	config := &sparse.Configuration{
		Real:           true,
		Expandable:     true,
		Translate:      true,
		ModifiedNodal:  true,
		TiesMultiplier: 5,
		PrinterWidth:   140,
	}

	mat, err := sparse.Create(int64(size), config)
	if err != nil {
		return nil, fmt.Errorf("creating sparse matrix: %w", err)
	}

	return &SystemMatrix{
		Size:     size,
		matrix:   mat,
		rhs:      make([]float64, size+1), // 1-based indexing
		solution: make([]float64, size+1),
		config:   config,
	}, nil
}

// SetupElements touches every entry once so the sparsity pattern is
// allocated before the first factorization.
func (m *SystemMatrix) SetupElements() {
	for i := 1; i <= m.Size; i++ {
		for j := 1; j <= m.Size; j++ {
			m.matrix.GetElement(int64(i), int64(j))
		}
	}
}

func (m *SystemMatrix) AddElement(i, j int, value float64) {
	if i <= 0 || j <= 0 {
		return
	}
	if i > m.Size || j > m.Size {
		panic(fmt.Sprintf("matrix index out of bounds (i=%d, j=%d, size=%d)", i, j, m.Size))
	}
	m.matrix.GetElement(int64(i), int64(j)).Real += value
}

func (m *SystemMatrix) AddRHS(i int, value float64) {
	if i <= 0 {
		return
	}
	if i > m.Size {
		panic(fmt.Sprintf("rhs index out of bounds (i=%d, size=%d)", i, m.Size))
	}
	m.rhs[i] += value
}

// LoadGmin adds a small conductance on every diagonal. Used by the
// steady-state solve to keep near-singular systems factorizable.
func (m *SystemMatrix) LoadGmin(gmin float64) {
	if gmin == 0 {
		return
	}
	for i := 1; i <= m.Size; i++ {
		if diag := m.matrix.Diags[i]; diag != nil {
			diag.Real += gmin
		}
	}
}

func (m *SystemMatrix) Clear() {
	m.matrix.Clear()
	for i := range m.rhs {
		m.rhs[i] = 0
	}
}

// Solve factors and solves the stamped system in place. The result is
// available through Solution until the next Solve.
func (m *SystemMatrix) Solve() error {
	if err := m.matrix.Factor(); err != nil {
		return fmt.Errorf("matrix factorization failed: %w", err)
	}

	solution, err := m.matrix.Solve(m.rhs)
	if err != nil {
		return fmt.Errorf("matrix solve failed: %w", err)
	}
	m.solution = solution

	return nil
}

// RHS returns the 1-based right hand side vector.
func (m *SystemMatrix) RHS() []float64 {
	return m.rhs
}

// Solution returns the 1-based solution vector of the last Solve.
func (m *SystemMatrix) Solution() []float64 {
	return m.solution
}

func (m *SystemMatrix) Destroy() {
	if m.matrix != nil {
		m.matrix.Destroy()
	}
}
