// ABOUTME: TUI view for live sync status
// ABOUTME: Displays the subscription state and last event seen per resource
package tui

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/harperreed/crmlink/db"
)

var (
	syncHeaderStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("39")).
			Underline(true)

	syncResourceStyle = lipgloss.NewStyle().
				Bold(true).
				Width(12)

	syncIdleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("10"))

	syncSyncingStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("11")).
				Bold(true)

	syncErrorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("9"))

	syncMessageStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("240")).
				Italic(true)
)

// SyncStateDisplay is one row of the sync view.
type SyncStateDisplay struct {
	Resource      string
	Status        string
	LastEventTime string
	LastEventID   string
	ErrorMessage  string
}

func (m Model) renderSyncView() string {
	var s strings.Builder

	s.WriteString(titleStyle.Render("Live Sync"))
	s.WriteString("\n\n")

	if len(m.syncStates) == 0 {
		s.WriteString(syncMessageStyle.Render("No live sync data. Enable live updates in the config to stream remote changes."))
		s.WriteString("\n\n")
		s.WriteString(m.renderSyncHelp())
		return s.String()
	}

	s.WriteString(syncHeaderStyle.Render("Resource Status"))
	s.WriteString("\n\n")

	for _, state := range m.syncStates {
		var row strings.Builder
		row.WriteString(syncResourceStyle.Render(state.Resource))

		switch state.Status {
		case db.SyncSyncing:
			row.WriteString(syncSyncingStyle.Render("  ⟳ Streaming"))
		case db.SyncError:
			row.WriteString(syncErrorStyle.Render("  ✗ Error"))
			if state.ErrorMessage != "" {
				row.WriteString(syncErrorStyle.Render(": " + state.ErrorMessage))
			}
		default:
			row.WriteString(syncIdleStyle.Render("  ✓ Idle"))
		}

		if state.LastEventTime != "" {
			row.WriteString(syncMessageStyle.Render(fmt.Sprintf(" • %s %s", state.LastEventID, state.LastEventTime)))
		}

		s.WriteString(row.String())
		s.WriteString("\n")
	}

	s.WriteString("\n")
	s.WriteString(m.renderSyncHelp())

	return s.String()
}

func (m Model) renderSyncHelp() string {
	help := []string{
		"r: Refresh status",
		"Esc: Back",
		"q: Quit",
	}
	return helpStyle.Render(strings.Join(help, " • "))
}

func (m *Model) loadSyncStates() {
	m.syncStates = []SyncStateDisplay{}
	if m.db == nil {
		return
	}

	states, err := db.GetAllSyncStates(m.db)
	if err != nil {
		m.setStatus(fmt.Sprintf("✗ failed to read sync state: %v", err), true)
		return
	}

	for _, state := range states {
		row := SyncStateDisplay{
			Resource: state.Resource,
			Status:   state.Status,
		}
		if state.LastEventTime != nil {
			row.LastEventTime = formatTimeSince(m.now(), *state.LastEventTime)
		}
		if state.LastEventID != nil {
			row.LastEventID = *state.LastEventID
		}
		if state.ErrorMessage != nil {
			row.ErrorMessage = *state.ErrorMessage
		}
		m.syncStates = append(m.syncStates, row)
	}
}

func (m Model) handleSyncKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "r":
		m.loadSyncStates()
	case "esc":
		m.viewMode = ViewBoard
	}

	return m, nil
}

// formatTimeSince formats a time duration in a human-readable way.
func formatTimeSince(now, t time.Time) string {
	duration := now.Sub(t)

	if duration < time.Minute {
		return "just now"
	} else if duration < time.Hour {
		minutes := int(duration.Minutes())
		if minutes == 1 {
			return "1 minute ago"
		}
		return fmt.Sprintf("%d minutes ago", minutes)
	} else if duration < 24*time.Hour {
		hours := int(duration.Hours())
		if hours == 1 {
			return "1 hour ago"
		}
		return fmt.Sprintf("%d hours ago", hours)
	}

	days := int(duration.Hours() / 24)
	if days == 1 {
		return "1 day ago"
	}
	return fmt.Sprintf("%d days ago", days)
}
