package sequence

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStructuralDecode(t *testing.T) {
	t.Run("KnownSubcategory", func(t *testing.T) {
		n, strategy, ok := DecodeSequence("PUMP-HYD-042", "{category}-{subcategory}-{sequence}", "pump", "hyd")
		require.True(t, ok)
		assert.Equal(t, StrategyStructural, strategy)
		assert.Equal(t, int64(42), n)
	})

	t.Run("UnknownSubcategoryOpenClass", func(t *testing.T) {
		n, strategy, ok := DecodeSequence("PUMP-HYD-042", "{category}-{subcategory}-{sequence}", "pump", "")
		require.True(t, ok)
		// The open class is matched case-insensitively against whatever the
		// historical subcategory slug was.
		assert.Equal(t, StrategyStructural, strategy)
		assert.Equal(t, int64(42), n)
	})

	t.Run("CaseInsensitive", func(t *testing.T) {
		n, strategy, ok := DecodeSequence("pump-hyd-042", "{category}-{subcategory}-{sequence}", "PUMP", "HYD")
		require.True(t, ok)
		assert.Equal(t, StrategyStructural, strategy)
		assert.Equal(t, int64(42), n)
	})

	t.Run("LiteralPrefixTemplate", func(t *testing.T) {
		n, strategy, ok := DecodeSequence("MX-LATHE-1234", "MX-{category}-{sequence}", "lathe", "")
		require.True(t, ok)
		assert.Equal(t, StrategyStructural, strategy)
		assert.Equal(t, int64(1234), n)
	})

	t.Run("MismatchFallsThrough", func(t *testing.T) {
		// Identifier was rendered under some other template; structural must
		// miss and the padded heuristic takes over.
		n, strategy, ok := DecodeSequence("LEGACY/0150/X", "{category}-{sequence}", "pump", "")
		require.True(t, ok)
		assert.NotEqual(t, StrategyStructural, strategy)
		assert.Equal(t, int64(150), n)
	})

	t.Run("MalformedTemplateNeverAborts", func(t *testing.T) {
		// A historical template with no sequence token cannot decode
		// structurally but must not prevent the heuristics from running.
		n, strategy, ok := DecodeSequence("PUMP-007", "{category}-{subcategory}", "pump", "")
		require.True(t, ok)
		assert.Equal(t, StrategyZeroPadded, strategy)
		assert.Equal(t, int64(7), n)
	})
}

func TestPaddedNumberHeuristic(t *testing.T) {
	t.Run("ZeroPaddedThreePlusDigits", func(t *testing.T) {
		n, strategy, ok := DecodeSequence("OLD-0150-A", "{category}-{sequence}", "pump", "")
		require.True(t, ok)
		assert.Equal(t, StrategyPadded, strategy)
		assert.Equal(t, int64(150), n)
	})

	t.Run("ShortRemainderSkipsToZeroPadded", func(t *testing.T) {
		n, strategy, ok := DecodeSequence("OLD-007-A", "{category}-{sequence}", "pump", "")
		require.True(t, ok)
		assert.Equal(t, StrategyZeroPadded, strategy)
		assert.Equal(t, int64(7), n)
	})
}

func TestBareDigitsHeuristic(t *testing.T) {
	t.Run("PrefersLastRunOfTwoPlusDigits", func(t *testing.T) {
		n, strategy, ok := DecodeSequence("PUMP2-X9-45", "{category}-{sequence}", "lathe", "")
		require.True(t, ok)
		assert.Equal(t, StrategyBareDigits, strategy)
		assert.Equal(t, int64(45), n)
	})

	t.Run("FallsBackToLastRunOfAnyLength", func(t *testing.T) {
		n, strategy, ok := DecodeSequence("A1-B2", "{category}-{sequence}", "lathe", "")
		require.True(t, ok)
		assert.Equal(t, StrategyBareDigits, strategy)
		assert.Equal(t, int64(2), n)
	})
}

func TestDecodeNotFound(t *testing.T) {
	_, _, ok := DecodeSequence("NO-DIGITS-HERE", "{category}-{sequence}", "pump", "")
	assert.False(t, ok)
}
