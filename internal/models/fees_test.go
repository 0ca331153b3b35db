package models

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFeeFor(t *testing.T) {
	tests := []struct {
		name     string
		schedule FeeSchedule
		amount   int64
		want     int64
	}{
		{"ten percent", FeeSchedule{PlatformFeeBps: 1000}, 50000, 5000},
		{"rounds down", FeeSchedule{PlatformFeeBps: 1000}, 12345, 1234},
		{"zero amount", FeeSchedule{PlatformFeeBps: 1000}, 0, 0},
		{"negative amount", FeeSchedule{PlatformFeeBps: 1000}, -100, 0},
		{"minimum applies", FeeSchedule{PlatformFeeBps: 100, MinimumFee: 50}, 1000, 50},
		{"minimum capped at amount", FeeSchedule{MinimumFee: 500}, 300, 300},
		{"no rate", FeeSchedule{}, 10000, 0},
		{"negative rate", FeeSchedule{PlatformFeeBps: -500}, 10000, 0},
		{"full rate", FeeSchedule{PlatformFeeBps: 10000}, 777, 777},
		{"rate above full", FeeSchedule{PlatformFeeBps: 25000}, 777, 777},
		{"max amount does not overflow", FeeSchedule{PlatformFeeBps: 1000}, math.MaxInt64, 922337203685477580},
		{"max amount near full rate", FeeSchedule{PlatformFeeBps: 9999}, math.MaxInt64, 9222449699651090329},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.schedule.FeeFor(tt.amount))
		})
	}
}

func TestFeeFor_NeverExceedsAmount(t *testing.T) {
	schedule := FeeSchedule{PlatformFeeBps: 9999}
	for _, amount := range []int64{1, 9999, 10001, math.MaxInt64 / 3, math.MaxInt64} {
		fee := schedule.FeeFor(amount)
		assert.GreaterOrEqual(t, fee, int64(0))
		assert.LessOrEqual(t, fee, amount)
	}
}
