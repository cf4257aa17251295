package types

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSlot_Before(t *testing.T) {
	tests := []struct {
		name string
		a    Slot
		b    Slot
		want bool
	}{
		{"lower period wins", NewSlot(1, 0), NewSlot(0, 1), true},
		{"same period lower thread wins", NewSlot(0, 5), NewSlot(1, 5), true},
		{"equal slots", NewSlot(0, 5), NewSlot(0, 5), false},
		{"higher period loses", NewSlot(0, 6), NewSlot(0, 5), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, tt.a.Before(tt.b))
			require.Equal(t, tt.want, tt.b.After(tt.a))
		})
	}
}
