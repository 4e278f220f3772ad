package main

import (
	"context"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/napolitain/warren/internal/config"
	"github.com/napolitain/warren/internal/loader"
	"github.com/napolitain/warren/internal/sim"
	"github.com/napolitain/warren/internal/storage"
)

func testSession(t *testing.T) *session {
	t.Helper()
	cat, err := loader.LoadCatalog("../../data")
	require.NoError(t, err)
	store, err := storage.NewFileStore(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	cfg := config.DefaultConfig()
	return &session{cfg: cfg, logger: zap.NewNop(), engine: sim.New(cat), store: store, slot: "play"}
}

func key(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func TestPlay_FrameAdvancesClock(t *testing.T) {
	s := testSession(t)
	m := newPlayModel(context.Background(), s)
	require.NotNil(t, m.Init())

	_, cmd := m.Update(frameMsg{})
	assert.NotNil(t, cmd, "next frame scheduled")
	assert.InDelta(t, 0.1, s.engine.Now(), 1e-9)

	// first frame autosaves
	_, err := s.store.Load(context.Background(), "play")
	assert.NoError(t, err)
}

func TestPlay_UpgradeAndEventLog(t *testing.T) {
	s := testSession(t)
	m := newPlayModel(context.Background(), s)

	m.Update(key("u"))
	assert.False(t, m.failed, m.status)
	assert.Contains(t, m.status, "upgrade Castle")

	require.NoError(t, s.engine.AdvanceTime(60))
	require.NotEmpty(t, m.log)
	assert.Contains(t, m.log[len(m.log)-1], "Castle reached level 1")
	assert.Len(t, m.buildings(), 4, "castle plus its level 1 unlocks")
}

func TestPlay_CursorAndErrors(t *testing.T) {
	s := testSession(t)
	m := newPlayModel(context.Background(), s)

	m.Update(tea.KeyMsg{Type: tea.KeyDown})
	assert.Equal(t, 0, m.cursor, "only the castle is available")

	m.Update(key("c"))
	assert.True(t, m.failed, "castle takes no clicks")

	m.Update(key("b"))
	assert.True(t, m.failed, "no army selected")
}

func TestPlay_QuitAndView(t *testing.T) {
	s := testSession(t)
	m := newPlayModel(context.Background(), s)

	view := m.View()
	assert.Contains(t, view, "Gold")
	assert.Contains(t, view, "Warren Castle")

	_, cmd := m.Update(key("q"))
	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())
}
