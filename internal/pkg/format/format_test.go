package format

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestInt(t *testing.T) {
	assert.Equal(t, "0", Int(0))
	assert.Equal(t, "18,248", Int(18248))
	assert.Equal(t, "6,600,000", Int(6600000))
}

func TestFloat(t *testing.T) {
	tests := []struct {
		in        float64
		precision int
		want      string
	}{
		{81500, 2, "81,500.00"},
		{81.5, 1, "81.5"},
		{1234.567, 2, "1,234.57"},
		{-6270.004, 2, "-6,270.00"},
		{0.25, 0, "0"},
		{999999.999, 2, "1,000,000.00"},
		{1774.5, 2, "1,774.50"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Float(tt.in, tt.precision))
	}
}

func TestFloat_NonFinite(t *testing.T) {
	assert.Equal(t, "NaN", Float(math.NaN(), 2))
	assert.Equal(t, "+Inf", Float(math.Inf(1), 2))
}

func TestTCO2e(t *testing.T) {
	assert.Equal(t, "6,270.00 tCO2e", TCO2e(6270))
}
