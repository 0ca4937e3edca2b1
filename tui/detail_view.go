// ABOUTME: Task detail view for TUI
// ABOUTME: Shows every field of the selected card including assignees and checklist
package tui

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/harperreed/crmlink/display"
	"github.com/harperreed/crmlink/objects"
)

var (
	fieldLabelStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("170")).
			Width(20)

	fieldValueStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("252"))
)

func (m Model) renderDetailView() string {
	var s strings.Builder

	s.WriteString(titleStyle.Render("TASK"))
	s.WriteString("\n\n")

	task := m.selectedTask()
	if task == nil {
		s.WriteString("Task no longer on the board\n")
	} else {
		s.WriteString(m.renderTaskDetail(task))
	}

	s.WriteString("\n")
	s.WriteString(m.renderStatus())
	s.WriteString(m.renderDetailHelp())

	return s.String()
}

func (m Model) renderTaskDetail(task objects.Record) string {
	var s strings.Builder

	s.WriteString(m.renderField("Title", task.String(objects.TaskFieldTitle)))
	s.WriteString(m.renderField("Stage", m.columns[m.col].Title))
	if due := objects.DueDate(task); due != nil {
		s.WriteString(m.renderField("Due", fmt.Sprintf("%s (%s)", due.Format("2006-01-02"), display.DateColor(*due, m.now()))))
	}
	if completed, _ := task[objects.TaskFieldCompleted].(bool); completed {
		s.WriteString(m.renderField("Completed", "yes"))
	}
	s.WriteString(m.renderField("Description", task.String("description")))

	if users, ok := task[objects.TaskFieldUsers].([]any); ok && len(users) > 0 {
		s.WriteString("\n")
		s.WriteString(lipgloss.NewStyle().Bold(true).Render("ASSIGNEES"))
		s.WriteString("\n")
		for _, u := range users {
			if user, ok := u.(map[string]any); ok {
				name := objects.Record(user).String("name")
				s.WriteString(fmt.Sprintf("  • %s (%s)\n", name, display.Initials(name)))
			}
		}
	}

	if items, ok := task["checklist"].([]any); ok && len(items) > 0 {
		s.WriteString("\n")
		s.WriteString(lipgloss.NewStyle().Bold(true).Render("CHECKLIST"))
		s.WriteString("\n")
		for _, it := range items {
			item, ok := it.(map[string]any)
			if !ok {
				continue
			}
			mark := "[ ]"
			if checked, _ := item["checked"].(bool); checked {
				mark = "[x]"
			}
			s.WriteString(fmt.Sprintf("  %s %s\n", mark, objects.Record(item).String("title")))
		}
	}

	return s.String()
}

func (m Model) renderField(label, value string) string {
	if value == "" {
		return ""
	}
	return fieldLabelStyle.Render(label+":") + " " + fieldValueStyle.Render(value) + "\n"
}

func (m Model) renderDetailHelp() string {
	help := []string{
		"e: Edit",
		"d: Delete",
		"Esc: Back",
		"q: Quit",
	}
	return helpStyle.Render(strings.Join(help, " • "))
}

func (m Model) handleDetailKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.viewMode = ViewBoard
	case "e":
		if task := m.selectedTask(); task != nil {
			m.initEditForm(task)
			m.viewMode = ViewEdit
		}
	case "d":
		if m.selectedTask() != nil {
			m.viewMode = ViewConfirmDelete
		}
	}

	return m, nil
}
