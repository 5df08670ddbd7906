package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNetSold(t *testing.T) {
	tests := []struct {
		name     string
		sale     int
		released int
		want     int
	}{
		{"no movements", 0, 0, 0},
		{"sales only", 12, 0, 12},
		{"cancellation returns units", 12, 5, 7},
		{"everything cancelled", 8, 8, 0},
		{"over-release floors at zero", 3, 10, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, NetSold(tt.sale, tt.released))
		})
	}
}
