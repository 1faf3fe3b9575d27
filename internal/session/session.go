package session

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/rs/zerolog/log"

	"pdf-assistant/internal/chunker"
	"pdf-assistant/internal/cleaner"
	"pdf-assistant/internal/config"
	"pdf-assistant/internal/embedding"
	"pdf-assistant/internal/index"
	"pdf-assistant/internal/llmservice"
	"pdf-assistant/internal/models"
	"pdf-assistant/internal/picker"
	"pdf-assistant/internal/rag"
)

const (
	banner = "\n=== AI Assistant for Answering Questions about Texts ===\n=== Retrieval-Augmented Generation (RAG) ===\n"

	cmdExit    = "exit"
	cmdTune    = "tune"
	cmdTuneLLM = "tune llm"

	labelWidth = 15
)

// Loader extracts the pages of a document
type Loader func(path string) ([]models.RawPage, error)

type Options struct {
	Config       *config.Config
	Picker       picker.FilePicker
	Loader       Loader
	Embedder     embedding.Embedder
	Completer    llmservice.Completer
	StoreFactory index.StoreFactory
	In           io.Reader
	Out          io.Writer
}

// Controller runs one ingestion followed by the question loop
type Controller struct {
	opts  Options
	in    *bufio.Reader
	out   io.Writer
	label lipgloss.Style
	note  lipgloss.Style
}

func New(opts Options) *Controller {
	r := lipgloss.NewRenderer(opts.Out)
	return &Controller{
		opts:  opts,
		in:    bufio.NewReader(opts.In),
		out:   opts.Out,
		label: r.NewStyle().Bold(true).Foreground(lipgloss.Color("12")),
		note:  r.NewStyle().Foreground(lipgloss.Color("8")),
	}
}

// Run returns nil when the user leaves and ctx.Err() once ctx is cancelled.
// Apart from cancellation only an indexing failure is returned as an error.
func (c *Controller) Run(ctx context.Context) error {
	c.println(banner)

	idx, ragCfg, err := c.ingest(ctx)
	if errors.Is(err, io.EOF) || (err == nil && idx == nil) {
		c.println("The program has been successfully completed. Bye!")
		return nil
	}
	if ctxErr := ctx.Err(); ctxErr != nil && errors.Is(err, ctxErr) {
		c.println("The program has been successfully completed. Bye!")
		return err
	}
	if err != nil {
		return err
	}
	defer func() {
		if err := idx.Close(); err != nil {
			log.Warn().Err(err).Msg("Failed to close index")
		}
	}()
	c.println("The retriever is ready to work")

	r := rag.NewRAG(
		rag.NewRetriever(c.opts.Embedder, idx),
		rag.NewAnswerService(c.opts.Completer),
		ragCfg.TopK,
	)
	params := c.opts.Config.LLMParams()

	for {
		if err := ctx.Err(); err != nil {
			c.println("Thank you for using the AI assistant. Bye!")
			return err
		}
		c.println("\nYou can ask the AI assistant here. To exit the program, type 'exit'.\n")
		question, err := c.prompt("Your question: ")
		if err != nil {
			c.println("Thank you for using the AI assistant. Bye!")
			return nil
		}
		if strings.EqualFold(question, cmdTuneLLM) {
			c.println("You just requested 'tune llm' for llm tuning\n")
			if params, err = c.tuneLLM(); err != nil {
				c.println("Thank you for using the AI assistant. Bye!")
				return nil
			}
			if question, err = c.prompt("LLM tuning done\nYour question to the AI assistant: "); err != nil {
				c.println("Thank you for using the AI assistant. Bye!")
				return nil
			}
		}
		if strings.EqualFold(question, cmdExit) {
			c.println("Thank you for using the AI assistant. Bye!")
			return nil
		}
		if question == "" {
			continue
		}

		c.ask(ctx, r, question, params)
	}
}

// ask answers one question. Every failure is printed and the loop goes on.
func (c *Controller) ask(ctx context.Context, r *rag.RAG, question string, params config.LLMConfig) {
	c.println("Preparing results ...")
	res, err := r.Query(ctx, question, params)
	if err != nil {
		log.Debug().Err(err).Msg("Question failed")
		var verr *models.ValidationError
		if errors.As(err, &verr) {
			c.printf("Validation error: %v\n", verr)
			return
		}
		c.printf("Error processing request: %v\n", err)
		return
	}

	c.printf("%s%s\n", c.labelled("Your question:"), res.Query.Question)
	c.printf("%s%s\n", c.labelled("AI answer:"), res.Query.Answer)
	pages := make([]string, 0, len(res.Sources))
	for _, p := range res.Sources.Pages() {
		pages = append(pages, strconv.Itoa(p))
	}
	c.printf("%s%s\n", c.labelled("Source pages:"), c.note.Render(strings.Join(pages, ", ")))
}

// ingest loops until a document is indexed. A nil index with a nil error means the user gave up.
func (c *Controller) ingest(ctx context.Context) (*index.Index, config.RAGConfig, error) {
	for {
		if err := ctx.Err(); err != nil {
			return nil, config.RAGConfig{}, err
		}
		c.println("Please select a document in the file picker")
		path, err := c.opts.Picker.Pick(ctx)
		if err != nil {
			log.Warn().Err(err).Msg("File picker failed")
			path = ""
		}
		if path == "" {
			c.println("File not selected or not found. Please, make a choice in the file picker again.")
			answer, err := c.prompt("To try again type any symbol, to exit type exit: ")
			if err != nil {
				return nil, config.RAGConfig{}, err
			}
			if strings.EqualFold(answer, cmdExit) {
				return nil, config.RAGConfig{}, nil
			}
			continue
		}

		c.println("Selected file loading and reading...")
		pages, err := c.opts.Loader(path)
		if err != nil {
			c.printf("Error loading file: %v\n", err)
			continue
		}
		c.println("Document uploaded successfully!")

		ragCfg, err := c.tuneRAG()
		if err != nil {
			return nil, config.RAGConfig{}, err
		}

		c.println("Preparing a retriever with your text...")
		chunks, err := chunker.Split(cleaner.Clean(pages), ragCfg.ChunkSize, ragCfg.ChunkOverlap)
		if err != nil {
			return nil, config.RAGConfig{}, err
		}
		idx, err := index.NewIndexer(c.opts.Embedder, c.opts.StoreFactory).Build(ctx, chunks)
		if errors.Is(err, models.ErrFile) {
			c.printf("Error loading file: %v\n", err)
			continue
		}
		if err != nil {
			return nil, config.RAGConfig{}, err
		}
		return idx, ragCfg, nil
	}
}

// tuneRAG asks for chunking parameters. An invalid combination falls back to the configured values.
func (c *Controller) tuneRAG() (config.RAGConfig, error) {
	defaults := c.opts.Config.RAG
	answer, err := c.prompt("To tune RAG type 'tune'. To use default tuning type any symbol: ")
	if err != nil {
		return config.RAGConfig{}, err
	}
	if !strings.EqualFold(answer, cmdTune) {
		return defaults, nil
	}

	var tuned config.RAGConfig
	if tuned.ChunkSize, err = c.intInput(fmt.Sprintf("Input chunk size to split text for RAG (by default %d): ", defaults.ChunkSize), defaults.ChunkSize); err != nil {
		return config.RAGConfig{}, err
	}
	if tuned.ChunkOverlap, err = c.intInput(fmt.Sprintf("Input chunk overlap (by default %d): ", defaults.ChunkOverlap), defaults.ChunkOverlap); err != nil {
		return config.RAGConfig{}, err
	}
	if tuned.TopK, err = c.intInput(fmt.Sprintf("Input number of top chunks retrieved from RAG vector store (by default %d): ", defaults.TopK), defaults.TopK); err != nil {
		return config.RAGConfig{}, err
	}

	if err := tuned.Validate(); err != nil {
		c.printf("%v. Using default RAG settings.\n", err)
		return defaults, nil
	}
	return tuned, nil
}

// tuneLLM asks for new model parameters, keeping the configured value for blank or invalid answers
func (c *Controller) tuneLLM() (config.LLMConfig, error) {
	params := c.opts.Config.LLMParams()

	temperature, err := c.floatInput(fmt.Sprintf("temperature (%g by default): ", params.Temperature), params.Temperature)
	if err != nil {
		return params, err
	}
	if temperature >= 0 && temperature <= 2 {
		params.Temperature = temperature
	} else {
		c.printf("Temperature must be between 0 and 2, using %g.\n", params.Temperature)
	}

	model, err := c.prompt(fmt.Sprintf("model name (press enter for %s by default): ", params.Model))
	if err != nil {
		return params, err
	}
	if model != "" {
		params.Model = model
	}

	maxTokens, err := c.intInput(fmt.Sprintf("max tokens (%d by default): ", params.MaxTokens), params.MaxTokens)
	if err != nil {
		return params, err
	}
	if maxTokens > 0 {
		params.MaxTokens = maxTokens
	} else {
		c.printf("Max tokens must be positive, using %d.\n", params.MaxTokens)
	}

	log.Debug().Interface("llmConfig", params).Msg("LLM retuned")
	return params, nil
}

func (c *Controller) intInput(prompt string, def int) (int, error) {
	s, err := c.prompt(prompt)
	if err != nil || s == "" {
		return def, err
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		c.printf("Invalid input, using the default (%d).\n", def)
		return def, nil
	}
	return v, nil
}

func (c *Controller) floatInput(prompt string, def float64) (float64, error) {
	s, err := c.prompt(prompt)
	if err != nil || s == "" {
		return def, err
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		c.printf("Invalid input, using the default (%g).\n", def)
		return def, nil
	}
	return v, nil
}

// prompt reads one trimmed line. io.EOF is returned only when nothing was typed.
func (c *Controller) prompt(text string) (string, error) {
	fmt.Fprint(c.out, text)
	line, err := c.in.ReadString('\n')
	if err != nil && !(errors.Is(err, io.EOF) && line != "") {
		fmt.Fprintln(c.out)
		return "", err
	}
	return strings.TrimSpace(line), nil
}

func (c *Controller) labelled(label string) string {
	return c.label.Render(label) + strings.Repeat(" ", max(1, labelWidth-len(label)))
}

func (c *Controller) println(s string) { fmt.Fprintln(c.out, s) }

func (c *Controller) printf(format string, args ...any) { fmt.Fprintf(c.out, format, args...) }
