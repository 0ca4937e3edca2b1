// ABOUTME: Terminal User Interface using bubbletea framework
// ABOUTME: Provides a kanban board of tasks backed by the optimistic mutation coordinator
package tui

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/harperreed/crmlink/adapter"
	"github.com/harperreed/crmlink/cache"
	"github.com/harperreed/crmlink/coordinator"
	"github.com/harperreed/crmlink/models"
	"github.com/harperreed/crmlink/objects"
	"golang.org/x/sync/errgroup"
)

// ViewMode represents the current TUI view
type ViewMode int

const (
	ViewBoard ViewMode = iota
	ViewDetail
	ViewEdit
	ViewConfirmDelete
	ViewSync
)

// List keys the board loads into the cache.
const (
	BoardTasksList  = "board:tasks"
	BoardStagesList = "board:taskStages"
)

// BoardPageSize bounds the tasks loaded onto the board.
const BoardPageSize = 200

// boardLoadedMsg reports the outcome of a board fetch.
type boardLoadedMsg struct {
	err error
}

// cacheChangedMsg is delivered when a cached task or stage changes.
type cacheChangedMsg struct {
	event cache.Event
}

// mutationDoneMsg reports the outcome of one mutation.
type mutationDoneMsg struct {
	description string
	err         error
}

// Model is the main bubbletea model
type Model struct {
	co       *coordinator.Coordinator
	db       *sql.DB
	viewMode ViewMode

	// Board state
	columns    []objects.Column
	col        int
	row        int
	selectedID string
	loading    bool

	// Edit view state
	formInputs []textinput.Model
	focusIndex int
	editingID  string

	// Sync view state
	syncStates []SyncStateDisplay

	// Status line
	status    string
	statusErr bool

	// UI state
	width   int
	height  int
	now     func() time.Time
	timeout time.Duration
}

// NewModel creates a new TUI model. database may be nil, which hides live
// sync status.
func NewModel(co *coordinator.Coordinator, database *sql.DB) Model {
	return Model{
		co:       co,
		db:       database,
		viewMode: ViewBoard,
		loading:  true,
		width:    120,
		height:   30,
		now:      time.Now,
		timeout:  30 * time.Second,
	}
}

// Run starts the board full screen and forwards cache notifications to it.
func Run(co *coordinator.Coordinator, database *sql.DB) error {
	p := tea.NewProgram(NewModel(co, database), tea.WithAltScreen())

	forward := cache.ObserverFunc(func(e cache.Event) {
		// Notifications arrive under the coordinator lock; Send must not block it.
		go p.Send(cacheChangedMsg{event: e})
	})
	tasksSub := co.Cache().SubscribeResource(models.ResourceTasks, forward)
	defer tasksSub.Close()
	stagesSub := co.Cache().SubscribeResource(models.ResourceTaskStages, forward)
	defer stagesSub.Close()

	_, err := p.Run()
	return err
}

func (m Model) Init() tea.Cmd {
	return m.loadBoard()
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKeyPress(msg)
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil
	case boardLoadedMsg:
		m.loading = false
		if msg.err != nil {
			m.setStatus(fmt.Sprintf("✗ failed to load board: %v", msg.err), true)
		}
		m.rebuild()
		return m, nil
	case cacheChangedMsg:
		if msg.event.Type == cache.EventInvalidated {
			return m, m.loadBoard()
		}
		m.rebuild()
		return m, nil
	case mutationDoneMsg:
		if msg.err != nil {
			m.setStatus(fmt.Sprintf("✗ %s failed: %v", msg.description, msg.err), true)
		} else {
			m.setStatus("✓ "+msg.description, false)
		}
		m.rebuild()
		return m, nil
	}
	return m, nil
}

func (m Model) View() string {
	switch m.viewMode {
	case ViewBoard:
		return m.renderBoardView()
	case ViewDetail:
		return m.renderDetailView()
	case ViewEdit:
		return m.renderEditView()
	case ViewConfirmDelete:
		return m.renderConfirmDeleteView()
	case ViewSync:
		return m.renderSyncView()
	}
	return ""
}

func (m Model) handleKeyPress(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.String() == "ctrl+c" {
		return m, tea.Quit
	}
	if msg.String() == "q" && m.viewMode != ViewEdit {
		return m, tea.Quit
	}

	// Delegate to view-specific handlers
	switch m.viewMode {
	case ViewBoard:
		return m.handleBoardKeys(msg)
	case ViewDetail:
		return m.handleDetailKeys(msg)
	case ViewEdit:
		return m.handleEditKeys(msg)
	case ViewConfirmDelete:
		return m.handleConfirmDeleteKeys(msg)
	case ViewSync:
		return m.handleSyncKeys(msg)
	}

	return m, nil
}

// loadBoard fetches stages and tasks into the cache.
func (m Model) loadBoard() tea.Cmd {
	co := m.co
	timeout := m.timeout
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		return boardLoadedMsg{err: LoadBoard(ctx, co)}
	}
}

// LoadBoard fetches task stages and tasks concurrently into the board list
// views. Stages are ordered by creation and tasks by due date.
func LoadBoard(ctx context.Context, co *coordinator.Coordinator) error {
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		params := adapter.ListParams{
			Sorters:    []adapter.Sorter{{Field: "createdAt", Order: "asc"}},
			Pagination: adapter.Pagination{Current: 1, PageSize: BoardPageSize},
		}
		_, err := co.LoadList(gctx, BoardStagesList, models.ResourceTaskStages, params)
		return err
	})
	g.Go(func() error {
		params := adapter.ListParams{
			Sorters:    []adapter.Sorter{{Field: "dueDate", Order: "asc"}},
			Pagination: adapter.Pagination{Current: 1, PageSize: BoardPageSize},
		}
		_, err := co.LoadList(gctx, BoardTasksList, models.ResourceTasks, params)
		return err
	})
	return g.Wait()
}

// BoardColumns groups the cached board lists into columns.
func BoardColumns(c *cache.Store) []objects.Column {
	tasks, _ := c.List(BoardTasksList)
	stages, _ := c.List(BoardStagesList)
	return objects.GroupTasksByStage(tasks, stages)
}

// rebuild regroups the cached tasks and keeps the selected card selected.
func (m *Model) rebuild() {
	m.columns = BoardColumns(m.co.Cache())

	if m.selectedID != "" {
		for c, column := range m.columns {
			for r, task := range column.Tasks {
				if task.ID() == m.selectedID {
					m.col, m.row = c, r
					return
				}
			}
		}
	}
	m.clampSelection()
}

func (m *Model) clampSelection() {
	if m.col >= len(m.columns) {
		m.col = len(m.columns) - 1
	}
	if m.col < 0 {
		m.col = 0
	}
	m.row = clamp(m.row, 0, len(m.columnTasks(m.col))-1)
	m.selectedID = ""
	if task := m.selectedTask(); task != nil {
		m.selectedID = task.ID()
	}
}

func (m Model) columnTasks(col int) []objects.Record {
	if col < 0 || col >= len(m.columns) {
		return nil
	}
	return m.columns[col].Tasks
}

func (m Model) selectedTask() objects.Record {
	tasks := m.columnTasks(m.col)
	if m.row < 0 || m.row >= len(tasks) {
		return nil
	}
	return tasks[m.row]
}

func (m *Model) setStatus(status string, isErr bool) {
	m.status = status
	m.statusErr = isErr
}

// mutate runs fn off the update loop and reports its outcome.
func (m Model) mutate(description string, fn func(ctx context.Context) error) tea.Cmd {
	timeout := m.timeout
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		return mutationDoneMsg{description: description, err: fn(ctx)}
	}
}

func clamp(v, lo, hi int) int {
	if hi < lo {
		return lo
	}
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// Styles
var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("170")).
			MarginBottom(1)

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240")).
			MarginTop(1)

	statusOKStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("10"))

	statusErrStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("9")).
			Bold(true)
)
