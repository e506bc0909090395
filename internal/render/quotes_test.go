package render

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestConvertQuotes_Single(t *testing.T) {
	require.Equal(t, "‘one’, ‘two’", convertQuotes("'one', 'two'"))
}

func TestConvertQuotes_Double(t *testing.T) {
	require.Equal(t, "“one”, “two”", convertQuotes(`"one", "two"`))
}

func TestConvertQuotes_LeadingWhitespaceOpens(t *testing.T) {
	require.Equal(t, "\t‘one’", convertQuotes("\t'one'"))
	require.Equal(t, "‘one’", convertQuotes("'one'"))
}

func TestConvertQuotes_Apostrophe(t *testing.T) {
	// A quote after a non-space rune closes, which doubles as the
	// apostrophe case.
	require.Equal(t, "it’s", convertQuotes("it's"))
}

func TestConvertQuotes_EscapedStaysStraight(t *testing.T) {
	require.Equal(t, `\'one\'`, convertQuotes(`\'one\'`))
	require.Equal(t, `\"one\"`, convertQuotes(`\"one\"`))
}

func TestConvertQuotes_NoQuotes(t *testing.T) {
	s := "nothing to do here"
	require.Equal(t, s, convertQuotes(s))
}
