package picker

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/bubbles/filepicker"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// FilePicker asks the user for a document. An empty path means nothing was chosen.
type FilePicker interface {
	Pick(ctx context.Context) (string, error)
}

// Func adapts a plain function to FilePicker
type Func func(ctx context.Context) (string, error)

func (f Func) Pick(ctx context.Context) (string, error) { return f(ctx) }

// Once returns path on the first call and defers to next afterwards
func Once(path string, next FilePicker) FilePicker {
	used := path == ""
	return Func(func(ctx context.Context) (string, error) {
		if !used {
			used = true
			return path, nil
		}
		return next.Pick(ctx)
	})
}

// TUI browses the file system starting at Dir and only offers AllowedTypes
type TUI struct {
	Dir          string
	AllowedTypes []string
	In           io.Reader
	Out          io.Writer
}

func (t *TUI) Pick(ctx context.Context) (string, error) {
	m, err := newModel(t.Dir, t.AllowedTypes)
	if err != nil {
		return "", err
	}

	opts := []tea.ProgramOption{tea.WithContext(ctx)}
	if t.In != nil {
		opts = append(opts, tea.WithInput(t.In))
	}
	if t.Out != nil {
		opts = append(opts, tea.WithOutput(t.Out))
	}

	final, err := tea.NewProgram(m, opts...).Run()
	if err != nil {
		return "", fmt.Errorf("file picker failed: %v", err)
	}
	return final.(Model).Selected, nil
}

var (
	titleStyle = lipgloss.NewStyle().Bold(true)
	hintStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	errStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
)

// Model is the Bubble Tea model around bubbles/filepicker
type Model struct {
	fp       filepicker.Model
	Selected string
	note     string
	quitting bool
}

func newModel(dir string, allowed []string) (Model, error) {
	if dir == "" {
		wd, err := os.Getwd()
		if err != nil {
			return Model{}, err
		}
		dir = wd
	}
	fp := filepicker.New()
	fp.CurrentDirectory = dir
	fp.AllowedTypes = allowed
	fp.Height = 15
	return Model{fp: fp}, nil
}

func (m Model) Init() tea.Cmd { return m.fp.Init() }

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if key, ok := msg.(tea.KeyMsg); ok {
		switch key.String() {
		case "ctrl+c", "q", "esc":
			m.quitting = true
			return m, tea.Quit
		}
	}

	var cmd tea.Cmd
	m.fp, cmd = m.fp.Update(msg)

	if ok, path := m.fp.DidSelectFile(msg); ok {
		m.Selected = path
		m.quitting = true
		return m, tea.Quit
	}
	if ok, path := m.fp.DidSelectDisabledFile(msg); ok {
		m.note = path + " is not a supported document"
	}
	return m, cmd
}

func (m Model) View() string {
	if m.quitting {
		return ""
	}
	var b strings.Builder
	b.WriteString(titleStyle.Render("Pick a document") + "\n")
	b.WriteString(hintStyle.Render("types: "+strings.Join(m.fp.AllowedTypes, " ")+"  q to cancel") + "\n\n")
	b.WriteString(m.fp.View() + "\n")
	if m.note != "" {
		b.WriteString(errStyle.Render(m.note) + "\n")
	}
	return b.String()
}
