package registry

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFormatValue(t *testing.T) {
	tests := []struct {
		value any
		want  string
	}{
		{true, "1"},
		{false, "0"},
		{42, "42"},
		{int64(-1), "-1"},
		{"dlmalloc", "dlmalloc"},
		{[]any{"_main", "_malloc"}, "[_main,_malloc]"},
		{[]string{}, "[]"},
		{nil, ""},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, FormatValue(tt.value))
	}
}

func TestEqual(t *testing.T) {
	tests := []struct {
		a, b any
		want bool
	}{
		{1, 1, true},
		{int64(1), 1, true},
		{true, 1, true},
		{0, false, true},
		{true, 2, false},
		{"native-wasm", "native-wasm", true},
		{"1", 1, false},
		{[]any{}, []any{}, true},
		{[]any{}, []string{}, true},
		{[]any{"a"}, []any{"b"}, false},
		{[]any{1}, 1, false},
		{2.5, 2.5, false},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, Equal(tt.a, tt.b), "Equal(%v, %v)", tt.a, tt.b)
	}
}
