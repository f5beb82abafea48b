package swan

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParse_TemplateFile(t *testing.T) {
	r := Parse(`<view s-if="cond">hi</view>`, Options{FilePath: "page.swan"})
	require.NotNil(t, r.Document)
	require.Equal(t, XMLTypeSwan, r.Document.XMLType)
	require.Len(t, r.Document.Children, 1)
}

func TestParse_NonTemplateFileIsScriptOnly(t *testing.T) {
	r := Parse(`a + 1; b.c`, Options{FilePath: "module.sjs"})
	require.Equal(t, XMLTypeUnknown, r.Document.XMLType)
	require.Len(t, r.Document.Children, 1)
	mod, ok := r.Document.Children[0].(*XModule)
	require.True(t, ok)
	require.Len(t, mod.Body, 2)
}

func TestParse_FilePathIsCaseInsensitive(t *testing.T) {
	r := Parse(`<view></view>`, Options{FilePath: "Page.SWAN"})
	require.Equal(t, XMLTypeSwan, r.Document.XMLType)
}

func TestParseForESLint_MatchesParse(t *testing.T) {
	opts := Options{FilePath: "page.swan"}
	a := Parse(`<view s-if="cond"></view>`, opts)
	b := ParseForESLint(`<view s-if="cond"></view>`, opts)
	require.Equal(t, len(a.Document.Children), len(b.Document.Children))
}
