// ABOUTME: Tests for DPO tree queries on a loaded node collection
// ABOUTME: Covers deepest-id reduction, ordering and path reconstruction

package storage

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/harper/pedagogy/internal/models"
)

func node(id string, rule int, answer string) models.DPODialogue {
	return models.DPODialogue{
		ID: id,
		LastTurn: models.DPOTurn{
			StudentQuestion: "q " + answer,
			PositiveAnswer:  answer,
			NegativeAnswer:  "neg " + answer,
			RuleUsed:        rule,
		},
	}
}

func newDPO(t *testing.T, nodes ...models.DPODialogue) *DPOCollection {
	t.Helper()
	c, err := LoadDPO(filepath.Join(t.TempDir(), "dpo.jsonl"))
	require.NoError(t, err)
	for _, n := range nodes {
		require.NoError(t, c.Save(n))
	}
	return c
}

func TestUniqueDeepestIDs(t *testing.T) {
	orders := [][]models.DPODialogue{
		{node("X_dpo[1]", 1, "a"), node("X_dpo[1_2]", 2, "b"), node("X_dpo[1_2_3]", 3, "c"), node("X_dpo[5]", 5, "d")},
		{node("X_dpo[1_2_3]", 3, "c"), node("X_dpo[5]", 5, "d"), node("X_dpo[1_2]", 2, "b"), node("X_dpo[1]", 1, "a")},
	}

	for _, nodes := range orders {
		c := newDPO(t, nodes...)
		assert.Equal(t, []string{"X_dpo[5]", "X_dpo[1_2_3]"}, c.UniqueDeepestIDs())
	}
}

func TestUniqueDeepestIDsSiblings(t *testing.T) {
	c := newDPO(t,
		node("D_dpo[1]", 1, "a"),
		node("D_dpo[2]", 2, "b"),
		node("D_dpo[1_4]", 4, "c"),
		node("D_dpo[1_3]", 3, "d"),
		node("D_dpo[10]", 10, "e"),
	)
	assert.Equal(t, []string{"D_dpo[2]", "D_dpo[10]", "D_dpo[1_3]", "D_dpo[1_4]"}, c.UniqueDeepestIDs())
}

func TestUniqueDeepestIDsWithMissingAncestor(t *testing.T) {
	c := newDPO(t, node("X_dpo[1_2]", 2, "b"))
	assert.Equal(t, []string{"X_dpo[1_2]"}, c.UniqueDeepestIDs())
}

func TestDeepestFor(t *testing.T) {
	c := newDPO(t,
		node("dc1_ch[0]_dpo[1]", 1, "a"),
		node("dc1_ch[0]_dpo[1_2]", 2, "b"),
		node("dc1_ch[0_1]_dpo[3]", 3, "c"),
	)
	assert.Equal(t, []string{"dc1_ch[0]_dpo[1_2]"}, c.DeepestFor("dc1_ch[0]"))
	assert.Equal(t, []string{"dc1_ch[0_1]_dpo[3]"}, c.DeepestFor("dc1_ch[0_1]"))
	assert.Empty(t, c.DeepestFor("dc2_ch[0]"))
}

func TestTurnsAlongPath(t *testing.T) {
	a := node("doc1_ch[0]_dpo[3]", 3, "A")
	b := node("doc1_ch[0]_dpo[3_7]", 7, "B")
	cc := node("doc1_ch[0]_dpo[3_7_2]", 2, "C")
	c := newDPO(t, cc, a, b)

	turns, err := c.TurnsAlongPath("doc1_ch[0]_dpo[3_7_2]")
	require.NoError(t, err)
	assert.Equal(t, []models.DPOTurn{a.LastTurn, b.LastTurn, cc.LastTurn}, turns)

	root, err := c.TurnsAlongPath("doc1_ch[0]_dpo[3]")
	require.NoError(t, err)
	assert.Equal(t, []models.DPOTurn{a.LastTurn}, root)
}

func TestTurnsAlongPathOrphan(t *testing.T) {
	c := newDPO(t,
		node("doc1_ch[0]_dpo[3]", 3, "A"),
		node("doc1_ch[0]_dpo[3_7_2]", 2, "C"),
	)

	_, err := c.TurnsAlongPath("doc1_ch[0]_dpo[3_7_2]")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrNotFound))
	assert.Contains(t, err.Error(), "doc1_ch[0]_dpo[3_7]")
}

func TestDPORoundTripThroughFile(t *testing.T) {
	c := newDPO(t, node("dc1_ch[0]_dpo[0]", 0, "zero"))

	reloaded, err := LoadDPO(c.Path())
	require.NoError(t, err)
	got, err := reloaded.Get("dc1_ch[0]_dpo[0]")
	require.NoError(t, err)
	assert.Equal(t, node("dc1_ch[0]_dpo[0]", 0, "zero"), got)
}
