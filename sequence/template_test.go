package sequence

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseTemplate(t *testing.T) {
	t.Run("ValidWithAllTokens", func(t *testing.T) {
		tmpl, err := ParseTemplate("{category}-{subcategory}-{sequence}")
		require.NoError(t, err)
		assert.Equal(t, "{category}-{subcategory}-{sequence}", tmpl.Raw())
	})

	t.Run("ValidWithoutSubcategory", func(t *testing.T) {
		tmpl, err := ParseTemplate("{category}/{sequence}")
		require.NoError(t, err)
		assert.NotNil(t, tmpl)
	})

	t.Run("MissingCategory", func(t *testing.T) {
		_, err := ParseTemplate("MX-{sequence}")
		assert.ErrorIs(t, err, ErrMissingCategoryToken)
	})

	t.Run("MissingSequence", func(t *testing.T) {
		_, err := ParseTemplate("{category}-{subcategory}")
		assert.ErrorIs(t, err, ErrMissingSequenceToken)
	})

	t.Run("Empty", func(t *testing.T) {
		_, err := ParseTemplate("   ")
		assert.ErrorIs(t, err, ErrEmptyTemplate)
	})

	t.Run("UnknownBracesStayLiteral", func(t *testing.T) {
		tmpl, err := ParseTemplate("{plant}{category}-{sequence}")
		require.NoError(t, err)
		assert.Equal(t, "{plant}PUMP-007", tmpl.Render("pump", "", 7))
	})
}

func TestRender(t *testing.T) {
	tmpl, err := ParseTemplate("{category}-{subcategory}-{sequence}")
	require.NoError(t, err)

	t.Run("UppercasesSlugs", func(t *testing.T) {
		assert.Equal(t, "PUMP-HYD-001", tmpl.Render("pump", "hyd", 1))
	})

	t.Run("PadsToThreeDigits", func(t *testing.T) {
		assert.Contains(t, tmpl.Render("pump", "hyd", 7), "007")
	})

	t.Run("NoTruncationAboveThreeDigits", func(t *testing.T) {
		assert.Contains(t, tmpl.Render("pump", "hyd", 1234), "1234")
	})

	t.Run("EmptySubcategoryCollapsesHyphens", func(t *testing.T) {
		id := tmpl.Render("pump", "", 7)
		assert.Equal(t, "PUMP-007", id)
		assert.NotContains(t, id, "--")
	})

	t.Run("TrimsLeadingAndTrailingHyphen", func(t *testing.T) {
		leading, err := ParseTemplate("{subcategory}-{category}-{sequence}")
		require.NoError(t, err)
		assert.Equal(t, "PUMP-003", leading.Render("pump", "", 3))

		trailing, err := ParseTemplate("{category}-{sequence}-{subcategory}")
		require.NoError(t, err)
		assert.Equal(t, "PUMP-003", trailing.Render("pump", "", 3))
	})
}

func TestRenderDecodeRoundTrip(t *testing.T) {
	templates := []struct {
		raw string
		sub string
	}{
		{"{category}-{subcategory}-{sequence}", "hyd"},
		{"{category}-{sequence}", ""},
		{"MX-{category}-{sequence}", ""},
		{"{category}_{subcategory}_{sequence}", "cnc"},
		{"{category}-{subcategory}-{sequence}", ""}, // empty subcategory, cleanup pass kicks in
	}
	numbers := []int64{1, 7, 42, 99, 100, 999, 1000, 4321}

	for _, tc := range templates {
		tmpl, err := ParseTemplate(tc.raw)
		require.NoError(t, err)
		for _, n := range numbers {
			name := fmt.Sprintf("%s/n=%d", tc.raw, n)
			t.Run(name, func(t *testing.T) {
				id := tmpl.Render("pump", tc.sub, n)
				got, _, ok := DecodeSequence(id, tc.raw, "pump", tc.sub)
				require.True(t, ok, "identifier %q should decode", id)
				assert.Equal(t, n, got)
			})
		}
	}
}

func TestPrefixPattern(t *testing.T) {
	assert.True(t, PrefixPattern.MatchString("MX-01"))
	assert.True(t, PrefixPattern.MatchString("A"))
	assert.False(t, PrefixPattern.MatchString(""))
	assert.False(t, PrefixPattern.MatchString("lowercase"))
	assert.False(t, PrefixPattern.MatchString("TOOLONGPREFIX"))
	assert.False(t, PrefixPattern.MatchString("MX_01"))
}
