package schema

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPlanTopologicalOrder(t *testing.T) {
	p := &Plan{Tasks: []Task{
		{ID: "c", Dependencies: []string{"a", "b"}},
		{ID: "a"},
		{ID: "b", Dependencies: []string{"a"}},
	}}

	order, err := p.TopologicalOrder()
	require.NoError(t, err)
	require.Len(t, order, 3)

	pos := make(map[string]int, len(order))
	for i, id := range order {
		pos[id] = i
	}
	assert.Less(t, pos["a"], pos["b"])
	assert.Less(t, pos["b"], pos["c"])
}

func TestPlanTopologicalOrderDetectsCycle(t *testing.T) {
	p := &Plan{Tasks: []Task{
		{ID: "a", Dependencies: []string{"b"}},
		{ID: "b", Dependencies: []string{"a"}},
	}}
	_, err := p.TopologicalOrder()
	require.Error(t, err)
}

func TestPlanTopologicalOrderUnknownDependency(t *testing.T) {
	p := &Plan{Tasks: []Task{
		{ID: "a", Dependencies: []string{"missing"}},
	}}
	_, err := p.TopologicalOrder()
	require.Error(t, err)
}
