package credits

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func intPtr(v int) *int { return &v }

func TestAvailable(t *testing.T) {
	tests := []struct {
		name     string
		counters Counters
		want     int
	}{
		{"all zero", Counters{}, 0},
		{"allowance plus purchased", Counters{Limit: 100, Used: 30, Balance: 50}, 120},
		{"over-consumed floors at zero", Counters{Limit: 10, Used: 50, Balance: 0}, 0},
		{"purchased covers overshoot", Counters{Limit: 10, Used: 50, Balance: 45}, 5},
		{"purchase-only user", Counters{Limit: 0, Used: 0, Balance: 30}, 30},
		{"unused allowance", Counters{Limit: 100, Used: 0, Balance: 0}, 100},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.counters.Available())
		})
	}
}

func TestRemaining(t *testing.T) {
	assert.Equal(t, 70, Counters{Limit: 100, Used: 30, Balance: 50}.Remaining())
	assert.Equal(t, 0, Counters{Limit: 10, Used: 50}.Remaining())
}

func TestFromNullable(t *testing.T) {
	t.Run("all nil reads as zero", func(t *testing.T) {
		c := FromNullable(nil, nil, nil)
		assert.Equal(t, Counters{}, c)
		assert.Equal(t, 0, c.Available())
	})

	t.Run("mixed nil and set", func(t *testing.T) {
		c := FromNullable(intPtr(100), nil, intPtr(25))
		assert.Equal(t, Counters{Limit: 100, Used: 0, Balance: 25}, c)
		assert.Equal(t, 125, c.Available())
	})
}
