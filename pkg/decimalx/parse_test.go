package decimalx

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseLocalized(t *testing.T) {
	testCases := []struct {
		input string
		want  string
	}{
		{"1.234,56", "1234.56"},
		{"950", "950"},
		{"12.500", "12500"},
		{" 3.100,00 ", "3100"},
		{"0,5", "0.5"},
	}

	for _, tc := range testCases {
		got, err := ParseLocalized(tc.input)
		assert.NoError(t, err, tc.input)
		assert.Equal(t, MustFromString(tc.want).String(), got.String(), tc.input)
	}
}

func TestParseLocalizedInvalid(t *testing.T) {
	_, err := ParseLocalized("nema cene")
	assert.Error(t, err)
}

func TestChangePct(t *testing.T) {
	assert.InDelta(t, -6.0, ChangePct(100, 94), 1e-9)
	assert.InDelta(t, 5.0, ChangePct(100, 105), 1e-9)
	assert.InDelta(t, 0.0, ChangePct(42, 42), 1e-9)
}
