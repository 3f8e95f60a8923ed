package pricing

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFormatCompact(t *testing.T) {
	t.Parallel()

	cases := []struct {
		in   string
		want string
	}{
		{"0", "0.00"},
		{"999.99", "999.99"},
		{"1000", "1.00K"},
		{"1040", "1.04K"},
		{"999999", "1000.00K"},
		{"1000000", "1.00M"},
		{"2345678", "2.35M"},
		{"-1500", "-1.50K"},
		{"52", "52.00"},
	}
	for _, tc := range cases {
		require.Equal(t, tc.want, FormatCompact(dec(tc.in)), "input %s", tc.in)
	}
}
