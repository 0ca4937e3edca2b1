// ABOUTME: Delete confirmation view for TUI
// ABOUTME: Confirms and then deletes the selected card optimistically
package tui

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/harperreed/crmlink/models"
	"github.com/harperreed/crmlink/objects"
)

var (
	confirmBoxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("9")).
			Padding(1, 2).
			Width(60).
			Align(lipgloss.Center)

	warningStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("9")).
			Bold(true)

	confirmButtonStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("15")).
				Background(lipgloss.Color("9")).
				Padding(0, 2).
				MarginRight(2)

	cancelButtonStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("15")).
				Background(lipgloss.Color("8")).
				Padding(0, 2)
)

func (m Model) renderConfirmDeleteView() string {
	task := m.selectedTask()
	if task == nil {
		return "Task no longer on the board"
	}

	title := warningStyle.Render("⚠  DELETE CONFIRMATION  ⚠")
	message := "Are you sure you want to delete this task?"
	taskInfo := fmt.Sprintf("\nTASK: %s\n", task.String(objects.TaskFieldTitle))

	buttons := lipgloss.JoinHorizontal(
		lipgloss.Left,
		confirmButtonStyle.Render("Yes, Delete (y)"),
		cancelButtonStyle.Render("Cancel (n/esc)"),
	)

	content := lipgloss.JoinVertical(
		lipgloss.Center,
		title,
		"",
		message,
		taskInfo,
		"",
		buttons,
	)

	box := confirmBoxStyle.Render(content)

	// Center the box on screen
	return lipgloss.Place(
		m.width,
		m.height,
		lipgloss.Center,
		lipgloss.Center,
		box,
	)
}

func (m Model) handleConfirmDeleteKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "y", "Y":
		m.viewMode = ViewBoard
		return m, m.deleteSelected()
	case "n", "N", "esc":
		m.viewMode = ViewBoard
	}

	return m, nil
}

// deleteSelected hides the card at once. On failure it reappears in place.
func (m Model) deleteSelected() tea.Cmd {
	task := m.selectedTask()
	if task == nil {
		return nil
	}

	id := task.ID()
	co := m.co
	return m.mutate(fmt.Sprintf("delete %q", task.String(objects.TaskFieldTitle)), func(ctx context.Context) error {
		return co.Delete(ctx, models.ResourceTasks, id)
	})
}
