package rag

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/tmc/langchaingo/prompts"

	"pdf-assistant/internal/config"
	"pdf-assistant/internal/llmservice"
	"pdf-assistant/internal/models"
)

var (
	thinkTagRe  = regexp.MustCompile(models.ThinkTag)
	codeFenceRe = regexp.MustCompile(models.CodeFence)
)

type AnswerService struct {
	completer llmservice.Completer
	prompt    prompts.PromptTemplate
}

func NewAnswerService(completer llmservice.Completer) *AnswerService {
	return &AnswerService{
		completer: completer,
		prompt:    prompts.NewPromptTemplate(models.QuestionAnswerPromptTemplate, []string{"context", "question"}),
	}
}

// Answer asks the model once and returns the validated result.
// Malformed replies fail with *models.ValidationError.
func (s *AnswerService) Answer(ctx context.Context, question string, result models.RetrievalResult, params config.LLMConfig) (*models.AnsweredQuery, error) {
	passages := result.Texts()
	prompt, err := s.prompt.Format(map[string]any{
		"context":  strings.Join(passages, models.ContextSeparator),
		"question": question,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to render prompt: %v", err)
	}

	reply, err := s.completer.Complete(ctx, prompt, params)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", models.ErrProvider, err)
	}

	answer, err := parseAnswer(reply)
	if err != nil {
		log.Warn().Err(err).Int("reply_len", len(reply)).Msg("Discarding malformed reply")
		return nil, err
	}

	q := &models.AnsweredQuery{Question: question, Context: passages, Answer: answer}
	if err := q.Validate(); err != nil {
		return nil, err
	}
	return q, nil
}

// parseAnswer extracts the answer member of a {"answer": "..."} reply
func parseAnswer(reply string) (string, error) {
	text := strings.TrimSpace(thinkTagRe.ReplaceAllString(reply, ""))
	if m := codeFenceRe.FindStringSubmatch(text); m != nil {
		text = m[1]
	}

	var obj map[string]json.RawMessage
	if err := json.Unmarshal([]byte(text), &obj); err != nil || obj == nil {
		return "", models.NewValidationError(models.FieldIssue{Field: "reply", Problem: "not a JSON object"})
	}
	raw, ok := obj["answer"]
	if !ok {
		return "", models.NewValidationError(models.FieldIssue{Field: "AnsweredQuery.Answer", Problem: "required"})
	}
	var answer string
	if err := json.Unmarshal(raw, &answer); err != nil {
		return "", models.NewValidationError(models.FieldIssue{Field: "AnsweredQuery.Answer", Problem: "must be a string"})
	}
	// a whitespace-only answer is caught by Validate as missing
	return strings.TrimSpace(answer), nil
}
