package disclosure

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestMaskPhone(t *testing.T) {
	cases := []struct {
		in, want string
	}{
		{"+54 11 4567 8901", "+** ** **** *901"},
		{"1145678901", "*******901"},
		{"555-0199", "***-*199"},
		{"123", "123"},    // nothing left to hide
		{"12", "12"},      // shorter than the visible suffix
		{"", ""},          // empty stays empty
		{"sin dato", "sin dato"}, // no digits at all
	}
	for _, tc := range cases {
		require.Equal(t, tc.want, MaskPhone(tc.in), "input %q", tc.in)
	}
}
