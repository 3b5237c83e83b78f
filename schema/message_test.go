package schema

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCanonicalizeQueryIdempotent(t *testing.T) {
	cases := []any{
		"what's the solution 234*568",
		[]QueryPart{{Text: "describe this"}, {Image: &ImagePart{URL: "https://example.com/x.png"}}},
	}

	for _, c := range cases {
		once, err := CanonicalizeQuery(c, "be terse")
		require.NoError(t, err)

		twice, err := CanonicalizeQuery(once, "be terse")
		require.NoError(t, err)

		require.Equal(t, len(once), len(twice))
		for i := range once {
			assert.True(t, once[i].Equal(twice[i]), "message %d should be unchanged across re-canonicalization", i)
		}
	}
}

func TestCanonicalizeQueryMultimodalOrderPreserved(t *testing.T) {
	msgs, err := CanonicalizeQuery([]QueryPart{
		{Text: "Is this answer correct?"},
		{Image: &ImagePart{Data: []byte("fake-bytes"), MediaType: "image/png"}},
		{Text: "Explain briefly."},
	}, "")
	require.NoError(t, err)
	require.Len(t, msgs, 1)

	parts := msgs[0].Parts
	require.Len(t, parts, 3)
	assert.Equal(t, PartText, parts[0].Kind)
	assert.Equal(t, PartImage, parts[1].Kind)
	assert.Equal(t, PartText, parts[2].Kind)
}

func TestMessageEqualityIsStructural(t *testing.T) {
	a := NewTextMessage(RoleUser, "hi")
	b := NewTextMessage(RoleUser, "hi")
	assert.True(t, a.Equal(b))

	c := NewTextMessage(RoleUser, "bye")
	assert.False(t, a.Equal(c))
}
