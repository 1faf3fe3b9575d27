package picker

import (
	"context"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOnceReturnsPathThenDelegates(t *testing.T) {
	calls := 0
	next := Func(func(context.Context) (string, error) {
		calls++
		return "picked.pdf", nil
	})
	p := Once("given.pdf", next)

	got, err := p.Pick(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "given.pdf", got)
	assert.Equal(t, 0, calls)

	got, err = p.Pick(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "picked.pdf", got)
	assert.Equal(t, 1, calls)
}

func TestOnceWithoutPathDelegatesImmediately(t *testing.T) {
	p := Once("", Func(func(context.Context) (string, error) { return "picked.pdf", nil }))
	got, err := p.Pick(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "picked.pdf", got)
}

func TestModelCancelKeys(t *testing.T) {
	keys := []tea.KeyMsg{
		{Type: tea.KeyCtrlC},
		{Type: tea.KeyEsc},
		{Type: tea.KeyRunes, Runes: []rune("q")},
	}
	for _, key := range keys {
		t.Run(key.String(), func(t *testing.T) {
			m, err := newModel(t.TempDir(), []string{".pdf"})
			require.NoError(t, err)

			next, cmd := m.Update(key)
			require.NotNil(t, cmd)
			assert.IsType(t, tea.QuitMsg{}, cmd())
			assert.Empty(t, next.(Model).Selected)
			assert.Empty(t, next.View())
		})
	}
}

func TestModelViewListsAllowedTypes(t *testing.T) {
	m, err := newModel(t.TempDir(), []string{".pdf", ".txt"})
	require.NoError(t, err)
	assert.Contains(t, m.View(), ".pdf .txt")
}
