package render

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCollapseWhitespace(t *testing.T) {
	require.Equal(t, "a b", CollapseWhitespace("a  b"))
	require.Equal(t, "a b", CollapseWhitespace("a\t\tb"))
	require.Equal(t, "a b c", CollapseWhitespace("a \t b\n\nc"))
	require.Equal(t, "single spaces stay", CollapseWhitespace("single spaces stay"))
	require.Equal(t, "", CollapseWhitespace(""))
}
