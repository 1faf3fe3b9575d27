package chunker

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/rs/zerolog/log"
	"github.com/tmc/langchaingo/textsplitter"

	"pdf-assistant/internal/models"
)

// paragraph, line, sentence, word, character
var separators = []string{"\n\n", "\n", ". ", " ", ""}

// Split cuts each page into chunks of at most chunkSize runes, adjacent chunks
// sharing at most chunkOverlap runes. Chunks never cross a page boundary.
func Split(pages []models.RawPage, chunkSize, chunkOverlap int) ([]models.Chunk, error) {
	if chunkSize <= 0 || chunkOverlap < 0 || chunkOverlap >= chunkSize {
		return nil, fmt.Errorf("%w: chunk overlap %d must be in [0, %d) and chunk size positive", models.ErrConfig, chunkOverlap, chunkSize)
	}

	splitter := newSplitter(chunkSize, chunkOverlap)

	var chunks []models.Chunk
	for _, page := range pages {
		split, err := splitter.SplitText(page.Text)
		if err != nil {
			return nil, fmt.Errorf("failed to split page %d: %v", page.PageNumber, err)
		}
		var parts []string
		for _, part := range split {
			fitted, err := fit(part, chunkSize, chunkOverlap)
			if err != nil {
				return nil, fmt.Errorf("failed to split page %d: %v", page.PageNumber, err)
			}
			parts = append(parts, fitted...)
		}
		n := 0
		for _, part := range parts {
			// the splitter trims, but a page of separators can still leave blanks
			if strings.TrimSpace(part) == "" {
				continue
			}
			n++
			chunks = append(chunks, models.Chunk{
				ID:         fmt.Sprintf("%d-%d", page.PageNumber, n),
				Seq:        len(chunks),
				PageNumber: page.PageNumber,
				Content:    part,
			})
		}
	}

	log.Debug().Int("pages", len(pages)).Int("chunks", len(chunks)).Int("chunk_size", chunkSize).Int("chunk_overlap", chunkOverlap).Msg("Split document")
	return chunks, nil
}

func newSplitter(chunkSize, chunkOverlap int) textsplitter.RecursiveCharacter {
	return textsplitter.NewRecursiveCharacter(
		textsplitter.WithChunkSize(chunkSize),
		textsplitter.WithChunkOverlap(chunkOverlap),
		textsplitter.WithSeparators(separators),
		textsplitter.WithLenFunc(utf8.RuneCountInString),
	)
}

// maxShrink covers the longest separator the splitter can append past the limit
const maxShrink = 3

// fit re-splits a part the splitter let grow past chunkSize. The merge step can
// overshoot by a separator when it carries a single overlap fragment.
func fit(part string, chunkSize, chunkOverlap int) ([]string, error) {
	if utf8.RuneCountInString(part) <= chunkSize {
		return []string{part}, nil
	}
	for shrink := 1; shrink <= maxShrink && chunkSize-shrink > 0; shrink++ {
		size := chunkSize - shrink
		pieces, err := newSplitter(size, min(chunkOverlap, size-1)).SplitText(part)
		if err != nil {
			return nil, err
		}
		if within(pieces, chunkSize) {
			return pieces, nil
		}
	}
	return cut(part, chunkSize), nil
}

func within(parts []string, chunkSize int) bool {
	for _, p := range parts {
		if utf8.RuneCountInString(p) > chunkSize {
			return false
		}
	}
	return true
}

// cut falls back to fixed windows of chunkSize runes
func cut(text string, chunkSize int) []string {
	runes := []rune(text)
	var parts []string
	for start := 0; start < len(runes); start += chunkSize {
		end := min(start+chunkSize, len(runes))
		parts = append(parts, strings.TrimSpace(string(runes[start:end])))
	}
	return parts
}
