package swandump

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/swandialect/swanparse/swan"
)

func TestDumpXML_RendersElementsAndText(t *testing.T) {
	r := swan.Parse(`<view class="a"><text>hi {{name}}</text></view>`, swan.Options{
		FilePath: "page.swan",
	})
	require.Empty(t, r.Document.Errors)

	out, err := DumpXML(r.Document)
	require.NoError(t, err)
	require.Contains(t, out, "<view")
	require.Contains(t, out, `class="a"`)
	require.Contains(t, out, "<text>")
	require.Contains(t, out, "hi")
	require.Contains(t, out, "{{")
}

func TestDump_RoundTripsAttributes(t *testing.T) {
	r := swan.Parse(`<view s-for="item, idx in list"></view>`, swan.Options{
		FilePath: "page.swan",
	})
	require.Empty(t, r.Document.Errors)

	out, err := DumpXML(r.Document)
	require.NoError(t, err)
	require.True(t, strings.Contains(out, "s-for="))
	require.True(t, strings.Contains(out, "for(item,idx)"))
}
