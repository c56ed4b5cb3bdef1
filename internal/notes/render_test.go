package notes

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRenderMarkdown_Basic(t *testing.T) {
	t.Parallel()
	out := string(RenderMarkdown("# Title\n\nSome **bold** text and [a link](https://example.com)."))
	assert.Contains(t, out, "<h1")
	assert.Contains(t, out, "<strong>bold</strong>")
	assert.Contains(t, out, `href="https://example.com"`)
}

func TestRenderMarkdown_StripsScripts(t *testing.T) {
	t.Parallel()
	out := string(RenderMarkdown("hello <script>alert(1)</script> <img src=x onerror=alert(1)>"))
	assert.NotContains(t, out, "<script")
	assert.NotContains(t, out, "onerror")
}

func TestRenderNoteHTML_EscapesTitle(t *testing.T) {
	t.Parallel()
	doc, err := RenderNoteHTML(Note{
		Title:   `<b>"x"</b>`,
		Content: "body text",
		Preview: "body text",
	})
	require.NoError(t, err)
	html := string(doc)
	assert.True(t, strings.HasPrefix(html, "<!DOCTYPE html>"))
	assert.NotContains(t, html, `<b>"x"</b>`)
	assert.Contains(t, html, "&lt;b&gt;")
	assert.Contains(t, html, "<p>body text</p>")
}
