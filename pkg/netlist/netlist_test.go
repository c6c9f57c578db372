package netlist

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/maximerenault/LUPA/pkg/calculator"
	"github.com/maximerenault/LUPA/pkg/element"
)

const rcYAML = `
name: rc
constants:
  Rsrc: 1000
branches:
  - name: V1
    kind: P
    nodes: [in, "0"]
    value: "1"
  - name: R1
    kind: R
    nodes: [in, out]
    value: "Rsrc"
  - name: C1
    kind: C
    nodes: [out, "0"]
    value: "1e-6"
  - name: D1
    kind: D
    nodes: [out, "0"]
    model: {is: 1e-12, n: 1.5}
`

func TestParse(t *testing.T) {
	desc, err := Parse([]byte(rcYAML))
	require.NoError(t, err)

	assert.Equal(t, "rc", desc.Name)
	require.Len(t, desc.Branches, 4)
	assert.Equal(t, "R1", desc.Branches[1].Name)
	assert.Equal(t, []string{"in", "out"}, desc.Branches[1].Nodes)
	assert.Equal(t, map[string]float64{"Rsrc": 1000}, desc.Constants)
	assert.Equal(t, 1e-12, desc.Branches[3].Model["is"])
}

func TestParseRejectsMalformedYAML(t *testing.T) {
	_, err := Parse([]byte("branches: [->"))
	require.Error(t, err)
}

func TestGroundName(t *testing.T) {
	assert.True(t, GroundName("0"))
	assert.True(t, GroundName("gnd"))
	assert.False(t, GroundName("ground"))
	assert.False(t, GroundName(""))
}

func TestCreateElement(t *testing.T) {
	calc := calculator.New()

	elem, err := CreateElement(Branch{
		Name: "R1", Kind: "R", Nodes: []string{"a", "b"}, Value: "100",
	}, calc)
	require.NoError(t, err)
	assert.Equal(t, element.KindResistor, elem.GetKind())
	assert.Equal(t, "R1", elem.GetName())

	d, err := CreateElement(Branch{
		Name: "D1", Kind: "D", Nodes: []string{"a", "0"},
		Model: map[string]float64{"is": 1e-12},
	}, calc)
	require.NoError(t, err)
	assert.Equal(t, 1e-12, d.(*element.Diode).Is)
}

func TestCreateElementErrors(t *testing.T) {
	calc := calculator.New()

	cases := []struct {
		name string
		b    Branch
	}{
		{"wrong node count", Branch{Name: "R1", Kind: "R", Nodes: []string{"a"}, Value: "1"}},
		{"ground with two nodes", Branch{Name: "G1", Kind: "G", Nodes: []string{"a", "b"}}},
		{"missing value", Branch{Name: "R1", Kind: "R", Nodes: []string{"a", "b"}}},
		{"unknown kind", Branch{Name: "X1", Kind: "Z", Nodes: []string{"a", "b"}, Value: "1"}},
		{"malformed expression", Branch{Name: "R1", Kind: "R", Nodes: []string{"a", "b"}, Value: "1+"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := CreateElement(tc.b, calc)
			assert.Error(t, err)
		})
	}
}
