package parser

import (
	"archive/zip"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pdf-assistant/internal/models"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func writeZip(t *testing.T, name string, files map[string]string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	f, err := os.Create(path)
	require.NoError(t, err)
	w := zip.NewWriter(f)
	for n, body := range files {
		fw, err := w.Create(n)
		require.NoError(t, err)
		_, err = fw.Write([]byte(body))
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())
	require.NoError(t, f.Close())
	return path
}

func TestLoadText(t *testing.T) {
	path := writeFile(t, "notes.txt", "first page\nline two\fsecond page\f14")

	pages, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, []models.RawPage{
		{Text: "first page\nline two", PageNumber: 1},
		{Text: "second page", PageNumber: 2},
		{Text: "14", PageNumber: 3},
	}, pages)
}

func TestLoadMarkdown(t *testing.T) {
	path := writeFile(t, "README.md", "# Title\n\nSome *emphasis* and a [link](http://example.com).\n\n- item one\n- item two\n\n```\ncode line\n```\n")

	pages, err := Load(path)
	require.NoError(t, err)
	require.Len(t, pages, 1)
	assert.Equal(t, "Title\nSome emphasis and a link.\nitem one\nitem two\ncode line", pages[0].Text)
}

func TestLoadPPTXOrdersSlidesByNumber(t *testing.T) {
	slide := func(text string) string {
		return `<p:sld><p:cSld><p:spTree><p:sp><p:txBody><a:p><a:r><a:t>` + text + `</a:t></a:r></a:p></p:txBody></p:sp></p:spTree></p:cSld></p:sld>`
	}
	path := writeZip(t, "deck.pptx", map[string]string{
		"ppt/slides/slide10.xml":           slide("ten"),
		"ppt/slides/slide2.xml":            slide("two &amp; more"),
		"ppt/slides/slide1.xml":            slide("one"),
		"ppt/slides/_rels/slide1.xml.rels": "<Relationships/>",
		"ppt/presentation.xml":             "<p:presentation/>",
	})

	pages, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, []models.RawPage{
		{Text: "one", PageNumber: 1},
		{Text: "two & more", PageNumber: 2},
		{Text: "ten", PageNumber: 10},
	}, pages)
}

func TestLoadDOCX(t *testing.T) {
	body := `<?xml version="1.0" encoding="UTF-8"?><w:document><w:body>` +
		`<w:p><w:r><w:t>Hello</w:t></w:r><w:r><w:t xml:space="preserve"> world</w:t></w:r></w:p>` +
		`<w:p><w:r><w:tab/><w:t>Second &lt;para&gt;</w:t></w:r></w:p>` +
		`</w:body></w:document>`
	path := writeZip(t, "letter.docx", map[string]string{
		"word/document.xml":            body,
		"word/_rels/document.xml.rels": `<?xml version="1.0" encoding="UTF-8"?><Relationships></Relationships>`,
		"[Content_Types].xml":          `<?xml version="1.0" encoding="UTF-8"?><Types></Types>`,
	})

	pages, err := Load(path)
	require.NoError(t, err)
	require.Len(t, pages, 1)
	assert.Equal(t, "Hello world\nSecond <para>", pages[0].Text)
}

func TestLoadFailures(t *testing.T) {
	dir := t.TempDir()
	tests := []struct {
		name string
		path string
	}{
		{name: "missing", path: filepath.Join(dir, "nope.pdf")},
		{name: "directory", path: dir},
		{name: "unsupported", path: writeFile(t, "image.png", "png")},
		{name: "bogus pdf", path: writeFile(t, "fake.pdf", "this is not a pdf")},
		{name: "bogus pptx", path: writeFile(t, "fake.pptx", "not a zip")},
		{name: "pptx without slides", path: writeZip(t, "empty.pptx", map[string]string{"ppt/presentation.xml": ""})},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(tt.path)
			assert.ErrorIs(t, err, models.ErrFile)
		})
	}
}
