package entity

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeImageRefs(t *testing.T) {
	assert.Nil(t, DecodeImageRefs(""))
	assert.Nil(t, DecodeImageRefs("  ;  "))
	assert.Equal(t, []string{"a.png", "dir/b.jpg"}, DecodeImageRefs(" a.png ;; dir/b.jpg;"))
}

func TestEncodeImageRefs(t *testing.T) {
	raw, err := EncodeImageRefs([]string{"a.png", "b.jpg"})
	require.NoError(t, err)
	assert.Equal(t, "a.png;b.jpg", raw)

	raw, err = EncodeImageRefs(nil)
	require.NoError(t, err)
	assert.Empty(t, raw)

	_, err = EncodeImageRefs([]string{"a;b.png"})
	assert.ErrorIs(t, err, ErrDelimiterInPath)

	for _, ref := range []string{" a.png", "a.png ", "\ta.png", "", "  "} {
		_, err = EncodeImageRefs([]string{"ok.png", ref})
		assert.ErrorIs(t, err, ErrUntrimmedPath, "%q", ref)
	}

	raw, err = EncodeImageRefs([]string{"dir with space/a b.png"})
	require.NoError(t, err)
	assert.Equal(t, []string{"dir with space/a b.png"}, DecodeImageRefs(raw))
}

func TestCatalogLookups(t *testing.T) {
	c := Catalog{Products: []Product{
		{Code: "1001"}, {Code: ""}, {Code: "2001"}, {Code: "1001", Description: "dup"}, {Code: "  "},
	}}

	assert.Equal(t, 0, c.IndexOf("1001"))
	assert.Equal(t, 2, c.IndexOf("2001"))
	assert.Equal(t, -1, c.IndexOf("9"))
	assert.Equal(t, []string{"1001", "2001"}, c.Codes())
}

func TestCatalogClone(t *testing.T) {
	c := Catalog{Products: []Product{{Code: "1", ImageRefs: []string{"a.png"}}}, Warnings: []string{"w"}}
	clone := c.Clone()
	clone.Products[0].ImageRefs[0] = "b.png"
	clone.Warnings[0] = "x"

	assert.Equal(t, "a.png", c.Products[0].ImageRefs[0])
	assert.Equal(t, "w", c.Warnings[0])
}

func TestParseField(t *testing.T) {
	f, err := ParseField("images")
	require.NoError(t, err)
	assert.Equal(t, FieldImages, f)

	_, err = ParseField("price")
	assert.ErrorIs(t, err, ErrUnknownField)
}
