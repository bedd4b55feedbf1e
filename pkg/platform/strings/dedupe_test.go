package strings

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClean(t *testing.T) {
	tests := []struct {
		name   string
		values []string
		fold   bool
		want   []string
	}{
		{name: "nil stays nil", values: nil, want: nil},
		{name: "trims and drops blanks", values: []string{" staged ", "", "  ", "staged"}, want: []string{"staged"}},
		{name: "case sensitive keeps both", values: []string{"Rust", "rust"}, want: []string{"Rust", "rust"}},
		{name: "folded", values: []string{"Pre-existing", " pre-existing", "Staged*"}, fold: true, want: []string{"pre-existing", "staged*"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Clean(tt.values, tt.fold))
		})
	}
}
