package notes

import (
	"bytes"
	"html/template"

	"github.com/gomarkdown/markdown"
	mdhtml "github.com/gomarkdown/markdown/html"
	"github.com/gomarkdown/markdown/parser"
	"github.com/microcosm-cc/bluemonday"
)

const noteTemplate = `<!DOCTYPE html>
<html lang="en">
<head>
    <meta charset="UTF-8">
    <meta name="viewport" content="width=device-width, initial-scale=1.0">
    <title>{{.Title}}</title>
    <meta name="description" content="{{.Description}}">
    <style>
        body {
            font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, Arial, sans-serif;
            line-height: 1.6;
            max-width: 800px;
            margin: 0 auto;
            padding: 2rem 1rem;
        }
        pre { background: #f5f5f5; padding: 1rem; border-radius: 6px; overflow-x: auto; }
        blockquote { margin: 1em 0; padding: 0.5em 1em; border-left: 4px solid #ddd; }
        img { max-width: 100%; height: auto; }
    </style>
</head>
<body>
    <article>
        <h1>{{.Title}}</h1>
        {{.Content}}
    </article>
</body>
</html>`

var noteTmpl = template.Must(template.New("note").Parse(noteTemplate))

type noteTemplateData struct {
	Title       string
	Description string
	Content     template.HTML
}

// RenderMarkdown converts markdown to sanitized HTML.
func RenderMarkdown(content string) []byte {
	extensions := parser.CommonExtensions | parser.AutoHeadingIDs | parser.NoEmptyLineBeforeBlock
	p := parser.NewWithExtensions(extensions)
	doc := p.Parse([]byte(content))

	renderer := mdhtml.NewRenderer(mdhtml.RendererOptions{
		Flags: mdhtml.CommonFlags | mdhtml.HrefTargetBlank,
	})
	out := markdown.Render(doc, renderer)

	// Sanitize HTML to prevent XSS attacks
	return bluemonday.UGCPolicy().SanitizeBytes(out)
}

// RenderNoteHTML renders a note as a standalone HTML document. The title and
// preview are escaped by the template; the body is sanitized markdown.
func RenderNoteHTML(note Note) ([]byte, error) {
	var buf bytes.Buffer
	err := noteTmpl.Execute(&buf, noteTemplateData{
		Title:       note.Title,
		Description: note.Preview,
		Content:     template.HTML(RenderMarkdown(note.Content)),
	})
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
