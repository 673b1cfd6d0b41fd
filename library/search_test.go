package library

import (
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
)

func TestTruncate(t *testing.T) {
	tests := []struct {
		in     string
		maxLen int
		want   string
	}{
		{"short", 10, "short"},
		{"abcdefghijklmnop", 10, "abcdefg..."},
		{"abcdef", 2, "ab"},
		{"Crime et Châtiment", 15, "Crime et Châ..."},
		{"Crime et Châtiment", 18, "Crime et Châtiment"},
		{"Les Misérables", 9, "Les Mi..."},
		{"Les Mise\u0301rables", 14, "Les Misérables"},
		{"東京物語の全て", 5, "東京..."},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got := Truncate(tt.in, tt.maxLen)
			assert.Equal(t, tt.want, got)
			assert.True(t, utf8.ValidString(got))
			assert.LessOrEqual(t, utf8.RuneCountInString(got), tt.maxLen)
		})
	}
}
