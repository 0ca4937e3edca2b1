// ABOUTME: Task edit form for TUI
// ABOUTME: Creates tasks in the selected column or renames and reschedules existing ones
package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/harperreed/crmlink/models"
	"github.com/harperreed/crmlink/objects"
)

const (
	fieldTitle = iota
	fieldDueDate
	fieldDescription
)

func (m Model) renderEditView() string {
	var s strings.Builder

	if m.editingID == "" {
		s.WriteString(titleStyle.Render("NEW TASK"))
	} else {
		s.WriteString(titleStyle.Render("EDIT TASK"))
	}
	s.WriteString("\n\n")

	for i, input := range m.formInputs {
		if i == m.focusIndex {
			s.WriteString("> ")
		} else {
			s.WriteString("  ")
		}
		s.WriteString(input.View())
		s.WriteString("\n")
	}

	s.WriteString("\n")
	s.WriteString(m.renderStatus())
	s.WriteString(m.renderEditHelp())

	return s.String()
}

func (m Model) renderEditHelp() string {
	help := []string{
		"Tab: Next field",
		"Enter: Save",
		"Esc: Cancel",
	}
	return helpStyle.Render(strings.Join(help, " • "))
}

// initEditForm prepares the form. A nil task starts a new card.
func (m *Model) initEditForm(task objects.Record) {
	m.formInputs = make([]textinput.Model, 3)
	m.focusIndex = fieldTitle
	m.editingID = ""

	m.formInputs[fieldTitle] = textinput.New()
	m.formInputs[fieldTitle].Placeholder = "Title"
	m.formInputs[fieldTitle].CharLimit = 200

	m.formInputs[fieldDueDate] = textinput.New()
	m.formInputs[fieldDueDate].Placeholder = "Due date (YYYY-MM-DD)"
	m.formInputs[fieldDueDate].CharLimit = 10

	m.formInputs[fieldDescription] = textinput.New()
	m.formInputs[fieldDescription].Placeholder = "Description"
	m.formInputs[fieldDescription].CharLimit = 500

	if task != nil {
		m.editingID = task.ID()
		m.formInputs[fieldTitle].SetValue(task.String(objects.TaskFieldTitle))
		if due := objects.DueDate(task); due != nil {
			m.formInputs[fieldDueDate].SetValue(due.Format("2006-01-02"))
		}
		m.formInputs[fieldDescription].SetValue(task.String("description"))
	}

	m.updateFormFocus()
}

func (m *Model) updateFormFocus() {
	for i := range m.formInputs {
		if i == m.focusIndex {
			m.formInputs[i].Focus()
		} else {
			m.formInputs[i].Blur()
		}
	}
}

func (m Model) handleEditKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.viewMode = ViewBoard
		return m, nil
	case "tab":
		m.focusIndex = (m.focusIndex + 1) % len(m.formInputs)
		m.updateFormFocus()
		return m, nil
	case "enter":
		values, err := m.formValues()
		if err != nil {
			m.setStatus("✗ "+err.Error(), true)
			return m, nil
		}
		m.viewMode = ViewBoard
		return m, m.saveTask(values)
	}

	// Update current input
	var cmd tea.Cmd
	m.formInputs[m.focusIndex], cmd = m.formInputs[m.focusIndex].Update(msg)
	return m, cmd
}

func (m Model) formValues() (objects.Patch, error) {
	title := strings.TrimSpace(m.formInputs[fieldTitle].Value())
	if title == "" {
		return nil, fmt.Errorf("title is required")
	}

	values := objects.Patch{
		objects.TaskFieldTitle: title,
		"description":          strings.TrimSpace(m.formInputs[fieldDescription].Value()),
	}

	if raw := strings.TrimSpace(m.formInputs[fieldDueDate].Value()); raw != "" {
		due, err := time.Parse("2006-01-02", raw)
		if err != nil {
			return nil, fmt.Errorf("invalid due date %q: use YYYY-MM-DD", raw)
		}
		values[objects.TaskFieldDueDate] = due.UTC().Format(time.RFC3339)
	} else {
		values[objects.TaskFieldDueDate] = nil
	}

	return values, nil
}

// saveTask updates the card being edited, or creates one in the selected column.
func (m Model) saveTask(values objects.Patch) tea.Cmd {
	co := m.co
	title := values[objects.TaskFieldTitle]

	if m.editingID != "" {
		id := m.editingID
		return m.mutate(fmt.Sprintf("update %q", title), func(ctx context.Context) error {
			_, err := co.Update(ctx, models.ResourceTasks, id, values)
			return err
		})
	}

	if m.col < len(m.columns) {
		for k, v := range objects.MoveTaskPatch(m.columns[m.col].StageID) {
			values[k] = v
		}
	}
	return m.mutate(fmt.Sprintf("create %q", title), func(ctx context.Context) error {
		_, err := co.Create(ctx, models.ResourceTasks, values)
		return err
	})
}
