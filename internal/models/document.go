package models

import "github.com/go-playground/validator/v10"

// RawPage is the text of one page as extracted from the source document
type RawPage struct {
	Text       string `json:"text"`
	PageNumber int    `json:"page_number"`
}

// Chunk represents a bounded text span used as the unit of embedding and retrieval.
// Seq is the position of the chunk in document order and breaks similarity ties.
type Chunk struct {
	ID         string `json:"id"`
	Seq        int    `json:"seq"`
	PageNumber int    `json:"page_number"`
	Content    string `json:"content"`
}

// RetrievedChunk is a chunk returned by a similarity search
type RetrievedChunk struct {
	Chunk
	Similarity float32 `json:"similarity"`
}

// RetrievalResult holds the top-k chunks for a query, most similar first.
type RetrievalResult []RetrievedChunk

// Texts returns the passages in rank order
func (r RetrievalResult) Texts() []string {
	texts := make([]string, len(r))
	for i, c := range r {
		texts[i] = c.Content
	}
	return texts
}

// Pages returns the distinct source pages in rank order
func (r RetrievalResult) Pages() []int {
	var pages []int
	seen := make(map[int]struct{}, len(r))
	for _, c := range r {
		if _, ok := seen[c.PageNumber]; ok {
			continue
		}
		seen[c.PageNumber] = struct{}{}
		pages = append(pages, c.PageNumber)
	}
	return pages
}

// AnsweredQuery is the structured result of one question.
// It is only handed to callers after Validate succeeds.
type AnsweredQuery struct {
	Question string   `json:"question" validate:"required"`
	Context  []string `json:"context" validate:"required,min=1,dive,required"`
	Answer   string   `json:"answer" validate:"required"`
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate checks the required fields and returns a *ValidationError on failure
func (q *AnsweredQuery) Validate() error {
	err := validate.Struct(q)
	if err == nil {
		return nil
	}
	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return NewValidationError(FieldIssue{Field: "answered_query", Problem: err.Error()})
	}
	issues := make([]FieldIssue, 0, len(verrs))
	for _, fe := range verrs {
		issues = append(issues, FieldIssue{Field: fe.Namespace(), Problem: fe.Tag()})
	}
	return NewValidationError(issues...)
}
