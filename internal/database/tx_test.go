package database

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLockOrder(t *testing.T) {
	tests := []struct {
		name string
		ids  []int64
		want []int64
	}{
		{"ascending", []int64{7, 3, 5}, []int64{3, 5, 7}},
		{"duplicates", []int64{4, 2, 4, 2}, []int64{2, 4}},
		{"ignores unset ids", []int64{0, 9, -1}, []int64{9}},
		{"folded keys collapse", []int64{1, 1 + 1<<31}, []int64{1}},
		{"empty", nil, []int64{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, lockOrder(tt.ids))
		})
	}
}
