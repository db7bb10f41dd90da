package projector

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseAmount(t *testing.T) {
	tests := []struct {
		in   string
		want float64
	}{
		{"2000", 2000},
		{"2000gh", 2000},
		{"125000.5", 125000.5},
		{"25%", 25},
		{"-40", -40},
		{"  12.5  ", 12.5},
		{"abc", 0},
		{"", 0},
		{".", 0},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ParseAmount(tt.in), "input %q", tt.in)
	}
}

func TestAppendPercent(t *testing.T) {
	assert.Equal(t, "40%", AppendPercent("40"))
	assert.Equal(t, "40%", AppendPercent("40%"))
	assert.Equal(t, "", AppendPercent(""))
}

func TestFormatAmount(t *testing.T) {
	assert.Equal(t, "1,234,567.89", FormatAmount(1234567.89))
	assert.Equal(t, "2,500", FormatAmount(2500))
	assert.Equal(t, "0.125", FormatAmount(0.125))
	assert.Equal(t, "-1,000", FormatAmount(-1000))
}

func TestFormatMoney(t *testing.T) {
	assert.Equal(t, "1,234.50", FormatMoney(1234.5))
	assert.Equal(t, "0.00", FormatMoney(0))
}
