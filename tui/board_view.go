// ABOUTME: Kanban board view for TUI
// ABOUTME: Renders task columns by stage and moves or deletes cards optimistically
package tui

import (
	"context"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/harperreed/crmlink/display"
	"github.com/harperreed/crmlink/models"
	"github.com/harperreed/crmlink/objects"
)

var (
	columnStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("240")).
			Padding(0, 1)

	activeColumnStyle = columnStyle.
				BorderForeground(lipgloss.Color("170"))

	columnTitleStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(lipgloss.Color("39"))

	cardStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("252"))

	selectedCardStyle = lipgloss.NewStyle().
				Background(lipgloss.Color("235")).
				Foreground(lipgloss.Color("255")).
				Bold(true)

	dueStyles = map[string]lipgloss.Style{
		display.ColorError:   lipgloss.NewStyle().Foreground(lipgloss.Color("9")),
		display.ColorWarning: lipgloss.NewStyle().Foreground(lipgloss.Color("11")),
		display.ColorDefault: lipgloss.NewStyle().Foreground(lipgloss.Color("240")),
	}
)

func (m Model) renderBoardView() string {
	var s strings.Builder

	s.WriteString(titleStyle.Render("TASKS"))
	s.WriteString("\n\n")

	if m.loading && len(m.columns) == 0 {
		s.WriteString("Loading board...\n")
	} else {
		s.WriteString(m.renderColumns())
	}
	s.WriteString("\n")

	s.WriteString(m.renderStatus())
	s.WriteString(m.renderBoardHelp())

	return s.String()
}

func (m Model) renderColumns() string {
	if len(m.columns) == 0 {
		return "No stages"
	}

	width := m.width/len(m.columns) - 4
	if width < 18 {
		width = 18
	}

	rendered := make([]string, 0, len(m.columns))
	for c, column := range m.columns {
		var body strings.Builder
		body.WriteString(columnTitleStyle.Render(fmt.Sprintf("%s (%d)", column.Title, len(column.Tasks))))
		body.WriteString("\n")

		for r, task := range column.Tasks {
			card := m.renderCard(task, width)
			if c == m.col && r == m.row {
				card = selectedCardStyle.Render(card)
			} else {
				card = cardStyle.Render(card)
			}
			body.WriteString("\n")
			body.WriteString(card)
		}

		style := columnStyle
		if c == m.col {
			style = activeColumnStyle
		}
		rendered = append(rendered, style.Width(width).Render(body.String()))
	}

	return lipgloss.JoinHorizontal(lipgloss.Top, rendered...)
}

func (m Model) renderCard(task objects.Record, width int) string {
	title := task.String(objects.TaskFieldTitle)
	if len([]rune(title)) > width {
		title = string([]rune(title)[:width-1]) + "…"
	}

	var meta []string
	if due := objects.DueDate(task); due != nil {
		color := display.DateColor(*due, m.now())
		meta = append(meta, dueStyles[color].Render(display.DueLabel(*due)))
	}
	if users, ok := task[objects.TaskFieldUsers].([]any); ok {
		for _, u := range users {
			if user, ok := u.(map[string]any); ok {
				meta = append(meta, display.Initials(objects.Record(user).String("name")))
			}
		}
	}

	if len(meta) == 0 {
		return title
	}
	return title + "\n  " + strings.Join(meta, " ")
}

func (m Model) renderStatus() string {
	if m.status == "" {
		return ""
	}
	if m.statusErr {
		return statusErrStyle.Render(m.status) + "\n"
	}
	return statusOKStyle.Render(m.status) + "\n"
}

func (m Model) renderBoardHelp() string {
	help := []string{
		"←/→ ↑/↓: Select",
		"H/L: Move card",
		"Enter: Details",
		"e: Edit",
		"n: New",
		"d: Delete",
		"s: Sync",
		"r: Reload",
		"q: Quit",
	}
	return helpStyle.Render(strings.Join(help, " • "))
}

func (m Model) handleBoardKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "left", "h":
		m.col = clamp(m.col-1, 0, len(m.columns)-1)
		m.clampSelection()
	case "right", "l":
		m.col = clamp(m.col+1, 0, len(m.columns)-1)
		m.clampSelection()
	case "up", "k":
		m.row--
		m.clampSelection()
	case "down", "j":
		m.row++
		m.clampSelection()
	case "H":
		return m.moveSelected(-1)
	case "L":
		return m.moveSelected(1)
	case "enter":
		if m.selectedTask() != nil {
			m.viewMode = ViewDetail
		}
	case "e":
		if task := m.selectedTask(); task != nil {
			m.initEditForm(task)
			m.viewMode = ViewEdit
		}
	case "n":
		m.initEditForm(nil)
		m.viewMode = ViewEdit
	case "d":
		if m.selectedTask() != nil {
			m.viewMode = ViewConfirmDelete
		}
	case "s":
		m.loadSyncStates()
		m.viewMode = ViewSync
	case "r":
		m.loading = true
		return m, m.loadBoard()
	}

	return m, nil
}

// moveSelected moves the selected card delta columns. The card shows in its
// new column as soon as the cache publishes the tentative value.
func (m Model) moveSelected(delta int) (tea.Model, tea.Cmd) {
	task := m.selectedTask()
	target := m.col + delta
	if task == nil || target < 0 || target >= len(m.columns) {
		return m, nil
	}

	id := task.ID()
	column := m.columns[target]
	patch := objects.MoveTaskPatch(column.StageID)
	description := fmt.Sprintf("move %q to %s", task.String(objects.TaskFieldTitle), column.Title)

	m.selectedID = id
	m.setStatus("… "+description, false)

	co := m.co
	return m, m.mutate(description, func(ctx context.Context) error {
		_, err := co.Update(ctx, models.ResourceTasks, id, patch)
		return err
	})
}
