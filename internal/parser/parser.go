package parser

import (
	"archive/zip"
	"fmt"
	"html"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/ledongthuc/pdf"
	"github.com/nguyenthenguyen/docx"
	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/rs/zerolog/log"
	"github.com/tealeg/xlsx"
	"github.com/xuri/excelize/v2"

	"pdf-assistant/internal/models"
)

// SupportedExtensions lists the file types Load understands
var SupportedExtensions = []string{".pdf", ".docx", ".pptx", ".xlsx", ".xlsm", ".xltx", ".xltm", ".md", ".txt"}

var (
	slideRe     = regexp.MustCompile(`^ppt/slides/slide(\d+)\.xml$`)
	wordTextRe  = regexp.MustCompile(`(?s)<w:t(?:\s[^>]*)?>(.*?)</w:t>`)
	wordParaRe  = regexp.MustCompile(`</w:p>`)
	anyTagRe    = regexp.MustCompile(`<[^>]+>`)
	disablePDFC sync.Once
)

// Load extracts the text of path one page at a time. Formats without pages
// yield a single page, spreadsheets one page per sheet and decks one per slide.
// Every failure matches models.ErrFile.
func Load(path string) ([]models.RawPage, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", models.ErrFile, err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("%w: %s is a directory", models.ErrFile, path)
	}

	var pages []models.RawPage
	ext := strings.ToLower(filepath.Ext(path))
	switch ext {
	case ".pdf":
		pages, err = parsePDF(path)
	case ".docx":
		pages, err = parseDOCX(path)
	case ".pptx":
		pages, err = parsePPTX(path)
	case ".xlsx":
		pages, err = parseXLSX(path)
	case ".xlsm", ".xltx", ".xltm":
		pages, err = parseExcelize(path)
	case ".md":
		pages, err = parseMarkdown(path)
	case ".txt":
		pages, err = parseText(path)
	default:
		return nil, fmt.Errorf("%w: unsupported file format: %s", models.ErrFile, ext)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", models.ErrFile, err)
	}

	log.Info().Str("path", path).Int("pages", len(pages)).Msg("Loaded document")
	return pages, nil
}

// probePDF reads the document structure with pdfcpu. Files it cannot read are
// still handed to the text extractor, encrypted ones are refused.
func probePDF(path string) error {
	disablePDFC.Do(api.DisableConfigDir)

	ctx, err := api.ReadContextFile(path)
	if err != nil {
		log.Warn().Err(err).Str("path", path).Msg("PDF structure check failed")
		return nil
	}
	if ctx.Encrypt != nil {
		return fmt.Errorf("%s is encrypted", path)
	}
	log.Debug().Str("path", path).Int("pages", ctx.PageCount).Msg("PDF structure ok")
	return nil
}

func parsePDF(path string) (pages []models.RawPage, err error) {
	if err := probePDF(path); err != nil {
		return nil, err
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	stat, err := f.Stat()
	if err != nil {
		return nil, err
	}

	// the extractor panics on some malformed streams
	defer func() {
		if r := recover(); r != nil {
			pages, err = nil, fmt.Errorf("malformed pdf: %v", r)
		}
	}()

	reader, err := pdf.NewReader(f, stat.Size())
	if err != nil {
		return nil, err
	}

	numPages := reader.NumPage()
	for i := 1; i <= numPages; i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		pageText, err := page.GetPlainText(nil)
		if err != nil {
			return nil, fmt.Errorf("page %d: %v", i, err)
		}
		pages = append(pages, models.RawPage{Text: pageText, PageNumber: i})
	}
	return pages, nil
}

func parseDOCX(path string) ([]models.RawPage, error) {
	r, err := docx.ReadDocxFile(path)
	if err != nil {
		return nil, err
	}
	defer r.Close()

	// DOCX has no page numbers
	return []models.RawPage{{Text: wordText(r.Editable().GetContent()), PageNumber: 1}}, nil
}

// wordText keeps the run text of a document.xml body, one line per paragraph
func wordText(content string) string {
	var b strings.Builder
	for _, para := range wordParaRe.Split(content, -1) {
		var line strings.Builder
		for _, m := range wordTextRe.FindAllStringSubmatch(para, -1) {
			line.WriteString(m[1])
		}
		if line.Len() == 0 {
			continue
		}
		if b.Len() > 0 {
			b.WriteString("\n")
		}
		b.WriteString(html.UnescapeString(line.String()))
	}
	return b.String()
}

func parsePPTX(path string) ([]models.RawPage, error) {
	f, err := zip.OpenReader(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	type slide struct {
		num  int
		file *zip.File
	}
	var slides []slide
	for _, file := range f.File {
		m := slideRe.FindStringSubmatch(file.Name)
		if m == nil {
			continue
		}
		n, _ := strconv.Atoi(m[1])
		slides = append(slides, slide{num: n, file: file})
	}
	if len(slides) == 0 {
		return nil, fmt.Errorf("%s has no slides", path)
	}
	sort.Slice(slides, func(i, j int) bool { return slides[i].num < slides[j].num })

	pages := make([]models.RawPage, 0, len(slides))
	for _, s := range slides {
		rc, err := s.file.Open()
		if err != nil {
			return nil, err
		}
		data, err := io.ReadAll(rc)
		rc.Close()
		if err != nil {
			return nil, err
		}
		pages = append(pages, models.RawPage{Text: extractTextFromXML(string(data)), PageNumber: s.num})
	}
	return pages, nil
}

// extractTextFromXML joins the <a:t> runs of a slide
func extractTextFromXML(xmlContent string) string {
	var parts []string
	for i, part := range strings.Split(xmlContent, "<a:t>") {
		if i == 0 {
			continue
		}
		if end := strings.Index(part, "</a:t>"); end >= 0 {
			parts = append(parts, html.UnescapeString(anyTagRe.ReplaceAllString(part[:end], "")))
		}
	}
	return strings.Join(parts, " ")
}

func parseXLSX(path string) ([]models.RawPage, error) {
	f, err := xlsx.OpenFile(path)
	if err != nil {
		return nil, err
	}

	pages := make([]models.RawPage, 0, len(f.Sheets))
	for i, sheet := range f.Sheets {
		rows := make([][]string, 0, len(sheet.Rows))
		for _, row := range sheet.Rows {
			if row == nil {
				continue
			}
			cells := make([]string, 0, len(row.Cells))
			for _, cell := range row.Cells {
				if cell == nil {
					cells = append(cells, "")
					continue
				}
				cells = append(cells, cell.String())
			}
			rows = append(rows, cells)
		}
		pages = append(pages, models.RawPage{Text: sheetText(sheet.Name, rows), PageNumber: i + 1})
	}
	return pages, nil
}

func parseExcelize(path string) ([]models.RawPage, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	sheets := f.GetSheetList()
	pages := make([]models.RawPage, 0, len(sheets))
	for i, name := range sheets {
		rows, err := f.GetRows(name)
		if err != nil {
			return nil, fmt.Errorf("sheet %s: %v", name, err)
		}
		pages = append(pages, models.RawPage{Text: sheetText(name, rows), PageNumber: i + 1})
	}
	return pages, nil
}

func sheetText(name string, rows [][]string) string {
	var text strings.Builder
	fmt.Fprintf(&text, "Sheet: %s\n", name)
	for _, row := range rows {
		text.WriteString(strings.TrimRight(strings.Join(row, "\t"), "\t"))
		text.WriteString("\n")
	}
	return text.String()
}

// parseText treats form feeds as page breaks
func parseText(path string) ([]models.RawPage, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	parts := strings.Split(string(data), "\f")
	pages := make([]models.RawPage, len(parts))
	for i, p := range parts {
		pages[i] = models.RawPage{Text: p, PageNumber: i + 1}
	}
	return pages, nil
}
