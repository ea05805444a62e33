// ABOUTME: Tests for the identifier codec
// ABOUTME: Covers inverse laws, parent derivation and malformed input

package ids

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChunkID_RoundTrip(t *testing.T) {
	tests := []struct {
		doc string
		idx int
	}{
		{"dc1", 0},
		{"dc1", 7},
		{"dc42", 1234},
	}

	for _, tt := range tests {
		id := ChunkID(tt.doc, tt.idx)
		doc, idx, err := ParseChunkID(id)
		require.NoError(t, err, id)
		assert.Equal(t, tt.doc, doc)
		assert.Equal(t, tt.idx, idx)
	}

	assert.Equal(t, "dc3_ch12", ChunkID("dc3", 12))
}

func TestParseChunkID_Malformed(t *testing.T) {
	for _, id := range []string{"", "dc1", "_ch3", "dc1_ch", "dc1_chx", "dc1_ch-1", "dc1_ch[0_1]"} {
		_, _, err := ParseChunkID(id)
		assert.ErrorIs(t, err, ErrMalformedID, id)
	}
}

func TestDocumentID(t *testing.T) {
	assert.Equal(t, "dc1", DocumentID(1))

	n, err := ParseDocumentID("dc17")
	require.NoError(t, err)
	assert.Equal(t, 17, n)

	_, err = ParseDocumentID("doc17")
	assert.ErrorIs(t, err, ErrMalformedID)
}

func TestDialogueID(t *testing.T) {
	id, err := DialogueID([]string{"dc1_ch0", "dc1_ch1", "dc1_ch2"})
	require.NoError(t, err)
	assert.Equal(t, "dc1_ch[0_1_2]", id)

	chunks, err := DialogueChunkIDs(id)
	require.NoError(t, err)
	assert.Equal(t, []string{"dc1_ch0", "dc1_ch1", "dc1_ch2"}, chunks)

	doc, indices, err := ParseDialogueID("dc4_ch[9]")
	require.NoError(t, err)
	assert.Equal(t, "dc4", doc)
	assert.Equal(t, []int{9}, indices)
}

func TestDialogueID_Errors(t *testing.T) {
	_, err := DialogueID(nil)
	assert.ErrorIs(t, err, ErrMalformedID)

	_, err = DialogueID([]string{"dc1_ch0", "dc2_ch1"})
	assert.ErrorIs(t, err, ErrMalformedID)

	_, err = DialogueID([]string{"dc1_ch0", "garbage"})
	assert.ErrorIs(t, err, ErrMalformedID)

	for _, id := range []string{"dc1", "dc1_ch[]", "dc1_ch[0_1", "dc1_ch[a]", "dc1_ch[0_1]_dpo[1]"} {
		_, _, err := ParseDialogueID(id)
		assert.ErrorIs(t, err, ErrMalformedID, id)
	}
}

func TestDPOID_RoundTrip(t *testing.T) {
	id, err := DPOID("dc1_ch[0_1]", []int{3, 7, 2})
	require.NoError(t, err)
	assert.Equal(t, "dc1_ch[0_1]_dpo[3_7_2]", id)

	dialogue, path, err := ParseDPOID(id)
	require.NoError(t, err)
	assert.Equal(t, "dc1_ch[0_1]", dialogue)
	assert.Equal(t, []int{3, 7, 2}, path)

	path, err = ParseDPORulePath(id)
	require.NoError(t, err)
	assert.Equal(t, []int{3, 7, 2}, path)

	dialogue, err = DPODialogueID(id)
	require.NoError(t, err)
	assert.Equal(t, "dc1_ch[0_1]", dialogue)
}

func TestDPOID_Errors(t *testing.T) {
	_, err := DPOID("dc1_ch[0]", nil)
	assert.ErrorIs(t, err, ErrMalformedID)

	_, err = DPOID("", []int{1})
	assert.ErrorIs(t, err, ErrMalformedID)

	_, err = DPOID("dc1_ch[0]", []int{1, -2})
	assert.ErrorIs(t, err, ErrMalformedID)

	for _, id := range []string{"dc1_ch[0]", "dc1_ch[0]_dpo[]", "dc1_ch[0]_dpo[1", "_dpo[1]", "dc1_ch[0]_dpo[1_x]"} {
		_, _, err := ParseDPOID(id)
		assert.ErrorIs(t, err, ErrMalformedID, id)
	}
}

func TestParentDPOID(t *testing.T) {
	base := "dc1_ch[0_1]"
	paths := [][]int{{1}, {1, 2}, {4, 9, 4}, {11, 19, 7, 25}}

	for _, path := range paths {
		id, err := DPOID(base, path)
		require.NoError(t, err)

		parent, err := ParentDPOID(id)
		require.NoError(t, err)

		if len(path) == 1 {
			assert.Empty(t, parent, "root edge has no parent")
			continue
		}
		want, err := DPOID(base, path[:len(path)-1])
		require.NoError(t, err)
		assert.Equal(t, want, parent)
	}
}

func TestParentDPOID_WalksToRoot(t *testing.T) {
	id := "dc2_ch[3_4]_dpo[5_6_7]"
	var chain []string
	for id != "" {
		chain = append(chain, id)
		var err error
		id, err = ParentDPOID(id)
		require.NoError(t, err)
	}
	assert.Equal(t, []string{
		"dc2_ch[3_4]_dpo[5_6_7]",
		"dc2_ch[3_4]_dpo[5_6]",
		"dc2_ch[3_4]_dpo[5]",
	}, chain)
}

func TestParentDPOID_Malformed(t *testing.T) {
	_, err := ParentDPOID("dc1_ch[0_1]")
	assert.ErrorIs(t, err, ErrMalformedID)
}
