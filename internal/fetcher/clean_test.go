package fetcher

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCleanHTML(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		in   string
		want string
	}{
		{"strips tags", "<p>Hello <b>world</b></p>", "Hello world"},
		{"decodes entities", "a &amp; b &lt;c&gt;", "a & b <c>"},
		{"collapses whitespace", "one\n\n  two\tthree", "one two three"},
		{"empty input", "", ""},
		{"plain text untouched", "no markup here", "no markup here"},
	}
	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			require.Equal(t, tc.want, CleanHTML(tc.in))
		})
	}
}
