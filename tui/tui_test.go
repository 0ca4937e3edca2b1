// ABOUTME: Tests for the kanban board model
// ABOUTME: Drives the bubbletea model with key messages against an in-memory record store
package tui

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/harperreed/crmlink/adapter"
	"github.com/harperreed/crmlink/cache"
	"github.com/harperreed/crmlink/coordinator"
	"github.com/harperreed/crmlink/db"
	"github.com/harperreed/crmlink/objects"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type boardStore struct {
	mu          sync.Mutex
	lists       map[string][]objects.Record
	failUpdates error
	nextID      int
}

func (b *boardStore) FetchList(ctx context.Context, resource string, params adapter.ListParams) (adapter.Page, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]objects.Record, 0, len(b.lists[resource]))
	for _, rec := range b.lists[resource] {
		out = append(out, rec.Clone())
	}
	return adapter.Page{Records: out, Total: len(out)}, nil
}

func (b *boardStore) FetchOne(ctx context.Context, resource, id string) (objects.Record, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, rec := range b.lists[resource] {
		if rec.ID() == id {
			return rec.Clone(), nil
		}
	}
	return nil, errors.New("not found")
}

func (b *boardStore) Create(ctx context.Context, resource string, values objects.Patch) (objects.Record, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.nextID++
	rec := objects.ApplyPatch(objects.Record{"id": fmt.Sprintf("new-%d", b.nextID)}, values)
	b.lists[resource] = append(b.lists[resource], rec)
	return rec.Clone(), nil
}

func (b *boardStore) Update(ctx context.Context, resource, id string, values objects.Patch) (objects.Record, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.failUpdates != nil {
		return nil, b.failUpdates
	}
	for i, rec := range b.lists[resource] {
		if rec.ID() == id {
			b.lists[resource][i] = objects.ApplyPatch(rec, values)
			return b.lists[resource][i].Clone(), nil
		}
	}
	return nil, errors.New("not found")
}

func (b *boardStore) Delete(ctx context.Context, resource, id string) (objects.Record, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	recs := b.lists[resource]
	for i, rec := range recs {
		if rec.ID() == id {
			b.lists[resource] = append(recs[:i:i], recs[i+1:]...)
			return objects.Record{"id": id}, nil
		}
	}
	return nil, errors.New("not found")
}

func newBoard(t *testing.T) (*boardStore, Model) {
	t.Helper()
	store := &boardStore{lists: map[string][]objects.Record{
		"taskStages": {
			{"id": "ts1", "title": "TODO"},
			{"id": "ts2", "title": "DONE"},
		},
		"tasks": {
			{"id": "t1", "title": "Call Ada", "stageId": "ts1", "users": []any{map[string]any{"id": "u1", "name": "Grace Hopper"}}},
			{"id": "t2", "title": "Send invoice", "stageId": nil},
		},
	}}
	co := coordinator.New(store, cache.New())

	m := NewModel(co, nil)
	m.now = func() time.Time { return time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC) }
	m = run(t, m, m.Init())
	return store, m
}

// run executes cmd synchronously and feeds its message back into the model.
func run(t *testing.T, m Model, cmd tea.Cmd) Model {
	t.Helper()
	if cmd == nil {
		return m
	}
	next, _ := m.Update(cmd())
	return next.(Model)
}

func press(t *testing.T, m Model, key string) (Model, tea.Cmd) {
	t.Helper()
	var msg tea.KeyMsg
	switch key {
	case "enter":
		msg = tea.KeyMsg{Type: tea.KeyEnter}
	case "esc":
		msg = tea.KeyMsg{Type: tea.KeyEsc}
	case "tab":
		msg = tea.KeyMsg{Type: tea.KeyTab}
	default:
		msg = tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(key)}
	}
	next, cmd := m.Update(msg)
	return next.(Model), cmd
}

func columnIDs(m Model) [][]string {
	out := make([][]string, len(m.columns))
	for i, col := range m.columns {
		out[i] = []string{}
		for _, task := range col.Tasks {
			out[i] = append(out[i], task.ID())
		}
	}
	return out
}

func TestBoardLoads(t *testing.T) {
	_, m := newBoard(t)

	assert.Equal(t, [][]string{{"t2"}, {"t1"}, {}}, columnIDs(m))
	view := m.View()
	assert.Contains(t, view, "TODO (1)")
	assert.Contains(t, view, "Send invoice")
	assert.Contains(t, view, "GH")
}

func TestBoardMoveCard(t *testing.T) {
	_, m := newBoard(t)

	m, _ = press(t, m, "l")
	require.Equal(t, "t1", m.selectedTask().ID())

	m, cmd := press(t, m, "L")
	m = run(t, m, cmd)

	assert.Equal(t, [][]string{{"t2"}, {}, {"t1"}}, columnIDs(m))
	assert.Equal(t, 2, m.col, "selection follows the moved card")
	assert.False(t, m.statusErr)
	assert.Contains(t, m.status, "DONE")
}

func TestBoardMoveFailureRestoresCard(t *testing.T) {
	store, m := newBoard(t)
	store.failUpdates = errors.New("stage is locked")

	m, _ = press(t, m, "l")
	m, cmd := press(t, m, "H")
	m = run(t, m, cmd)

	assert.Equal(t, [][]string{{"t2"}, {"t1"}, {}}, columnIDs(m))
	assert.True(t, m.statusErr)
	assert.Contains(t, m.View(), "stage is locked")
}

func TestBoardMoveToUnassignedClearsStage(t *testing.T) {
	store, m := newBoard(t)

	m, _ = press(t, m, "l")
	m, cmd := press(t, m, "H")
	m = run(t, m, cmd)

	assert.Equal(t, [][]string{{"t1", "t2"}, {}, {}}, columnIDs(m), "cards keep list order within a column")
	store.mu.Lock()
	defer store.mu.Unlock()
	assert.Nil(t, store.lists["tasks"][0]["stageId"])
}

func TestBoardDelete(t *testing.T) {
	_, m := newBoard(t)

	m, _ = press(t, m, "d")
	assert.Equal(t, ViewConfirmDelete, m.viewMode)
	assert.Contains(t, m.View(), "Send invoice")

	m, cmd := press(t, m, "y")
	m = run(t, m, cmd)

	assert.Equal(t, ViewBoard, m.viewMode)
	assert.Equal(t, [][]string{{}, {"t1"}, {}}, columnIDs(m))
}

func TestBoardDeleteCancel(t *testing.T) {
	_, m := newBoard(t)

	m, _ = press(t, m, "d")
	m, cmd := press(t, m, "esc")
	assert.Nil(t, cmd)
	assert.Equal(t, ViewBoard, m.viewMode)
	assert.Equal(t, [][]string{{"t2"}, {"t1"}, {}}, columnIDs(m))
}

func TestBoardEditTask(t *testing.T) {
	store, m := newBoard(t)

	m, _ = press(t, m, "e")
	require.Equal(t, ViewEdit, m.viewMode)
	assert.Equal(t, "Send invoice", m.formInputs[fieldTitle].Value())

	m.formInputs[fieldTitle].SetValue("Send final invoice")
	m.formInputs[fieldDueDate].SetValue("2024-03-02")
	m, cmd := press(t, m, "enter")
	m = run(t, m, cmd)

	assert.Equal(t, ViewBoard, m.viewMode)
	assert.Contains(t, m.View(), "Send final invoice")

	store.mu.Lock()
	defer store.mu.Unlock()
	assert.Equal(t, "2024-03-02T00:00:00Z", store.lists["tasks"][1]["dueDate"])
}

func TestBoardEditRejectsBadDate(t *testing.T) {
	_, m := newBoard(t)

	m, _ = press(t, m, "n")
	m.formInputs[fieldTitle].SetValue("New card")
	m.formInputs[fieldDueDate].SetValue("tomorrow")
	m, cmd := press(t, m, "enter")

	assert.Nil(t, cmd)
	assert.Equal(t, ViewEdit, m.viewMode)
	assert.True(t, m.statusErr)
}

func TestBoardCreateTaskInColumn(t *testing.T) {
	store, m := newBoard(t)

	m, _ = press(t, m, "l")
	m, _ = press(t, m, "n")
	m.formInputs[fieldTitle].SetValue("Book demo")
	m, cmd := press(t, m, "enter")
	_ = run(t, m, cmd)

	store.mu.Lock()
	defer store.mu.Unlock()
	created := store.lists["tasks"][2]
	assert.Equal(t, "Book demo", created["title"])
	assert.Equal(t, "ts1", created["stageId"])
}

func TestBoardDetailView(t *testing.T) {
	_, m := newBoard(t)

	m, _ = press(t, m, "l")
	m, _ = press(t, m, "enter")
	require.Equal(t, ViewDetail, m.viewMode)

	view := m.View()
	assert.Contains(t, view, "Call Ada")
	assert.Contains(t, view, "Grace Hopper (GH)")

	m, _ = press(t, m, "esc")
	assert.Equal(t, ViewBoard, m.viewMode)
}

func TestBoardInvalidationReloads(t *testing.T) {
	store, m := newBoard(t)

	store.mu.Lock()
	store.lists["tasks"] = append(store.lists["tasks"], objects.Record{"id": "t3", "title": "Remote", "stageId": "ts2"})
	store.mu.Unlock()

	next, cmd := m.Update(cacheChangedMsg{event: cache.Event{Type: cache.EventInvalidated, Key: cache.Key{Resource: "tasks"}}})
	require.NotNil(t, cmd)
	m = run(t, next.(Model), cmd)

	assert.Equal(t, [][]string{{"t2"}, {"t1"}, {"t3"}}, columnIDs(m))
}

func TestSyncView(t *testing.T) {
	database, err := db.OpenDatabase(filepath.Join(t.TempDir(), "tui.db"))
	require.NoError(t, err)
	defer func() { _ = database.Close() }()

	require.NoError(t, db.UpdateSyncStatus(database, "tasks", db.SyncSyncing, nil))
	msg := "socket closed"
	require.NoError(t, db.UpdateSyncStatus(database, "deals", db.SyncError, &msg))

	_, m := newBoard(t)
	m.db = database

	m, _ = press(t, m, "s")
	require.Equal(t, ViewSync, m.viewMode)
	view := m.View()
	assert.Contains(t, view, "Streaming")
	assert.Contains(t, view, "socket closed")

	m, _ = press(t, m, "esc")
	assert.Equal(t, ViewBoard, m.viewMode)
}

func TestSyncViewWithoutDatabase(t *testing.T) {
	_, m := newBoard(t)
	m, _ = press(t, m, "s")
	assert.True(t, strings.Contains(m.View(), "No live sync data"))
}

func TestFormatTimeSince(t *testing.T) {
	now := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	assert.Equal(t, "just now", formatTimeSince(now, now.Add(-10*time.Second)))
	assert.Equal(t, "1 minute ago", formatTimeSince(now, now.Add(-time.Minute)))
	assert.Equal(t, "5 hours ago", formatTimeSince(now, now.Add(-5*time.Hour)))
	assert.Equal(t, "2 days ago", formatTimeSince(now, now.Add(-48*time.Hour)))
}
