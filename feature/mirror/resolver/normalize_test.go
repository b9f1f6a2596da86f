package resolver

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEquivalent(t *testing.T) {
	tests := []struct {
		name string
		a    string
		b    string
		want bool
	}{
		{"Exact", "12345", "12345", true},
		{"Leading zeros remote", "00123", "123", true},
		{"Leading zeros local", "123", "00123", true},
		{"All zeros", "000", "0", true},
		{"Case insensitive", "ABC123", "abc123", true},
		{"Separators ignored", "4-006381-333931", "4006381333931", true},
		{"Whitespace trimmed", " 123 ", "123", true},
		{"Different codes", "123", "124", false},
		{"Empty left", "", "123", false},
		{"Empty right", "123", "", false},
		{"Both empty", "", "", false},
		{"Zero vs empty", "0", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Equivalent(tt.a, tt.b))
		})
	}
}
