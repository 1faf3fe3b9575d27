// Package cleaner normalizes extracted page text before chunking.
package cleaner

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"pdf-assistant/internal/models"
)

const maxSuffixLetters = 2

var (
	// a page holding only a page number, optionally framed by spaces, # or -
	pageNumberRe = regexp.MustCompile(`^[\s#-]*\d{1,4}[\s#-]*$`)
	// letters glued to a number: 12th, 3-rd, 5-й
	suffixRe = regexp.MustCompile(`(\d+)-?(\p{L}+)`)
	// # and № in front of numbers
	markerRe = regexp.MustCompile(`[#№]+(\d+)`)

	newlines = strings.NewReplacer("\r\n", " ", "\n", " ", "\r", " ")
)

// Clean normalizes every page and drops the pages left without text.
// The input slice is not modified.
func Clean(pages []models.RawPage) []models.RawPage {
	cleaned := make([]models.RawPage, 0, len(pages))
	for _, page := range pages {
		text := CleanText(page.Text)
		if strings.TrimSpace(text) == "" {
			continue
		}
		cleaned = append(cleaned, models.RawPage{Text: text, PageNumber: page.PageNumber})
	}
	return cleaned
}

// CleanText applies the cleaning chain until the text stops changing.
// Every step only removes characters or swaps a newline for a space, so the loop ends.
func CleanText(text string) string {
	for {
		next := cleanOnce(text)
		if next == text {
			return next
		}
		text = next
	}
}

func cleanOnce(text string) string {
	text = pageNumberRe.ReplaceAllString(text, "")
	text = stripSuffixes(text)
	text = markerRe.ReplaceAllString(text, "$1")
	return newlines.Replace(text)
}

func stripSuffixes(text string) string {
	return suffixRe.ReplaceAllStringFunc(text, func(match string) string {
		sub := suffixRe.FindStringSubmatch(match)
		if utf8.RuneCountInString(sub[2]) > maxSuffixLetters {
			return match
		}
		return sub[1]
	})
}
