// ABOUTME: Task board helpers grouping task records into stage columns
// ABOUTME: Builds the stage patch used when a card is dropped on a column
package objects

import (
	"time"
)

// Task field keys.
const (
	TaskFieldTitle     = "title"
	TaskFieldStageID   = "stageId"
	TaskFieldDueDate   = "dueDate"
	TaskFieldCompleted = "completed"
	TaskFieldUsers     = "users"
)

// UnassignedColumnID identifies the column of tasks without a stage.
const UnassignedColumnID = "unassigned"

// Column is one kanban column.
type Column struct {
	StageID string
	Title   string
	Tasks   []Record
}

// StageID returns the task's stage id, or "" when unassigned.
func StageID(task Record) string {
	return task.String(TaskFieldStageID)
}

// DueDate parses the task due date.
func DueDate(task Record) *time.Time {
	s := task.String(TaskFieldDueDate)
	if s == "" {
		return nil
	}
	if due, err := time.Parse(time.RFC3339, s); err == nil {
		return &due
	}
	return nil
}

// GroupTasksByStage returns the unassigned column first, then one column per
// stage in the given order. Tasks keep their input order within a column.
// Tasks pointing at an unknown stage land in the unassigned column.
func GroupTasksByStage(tasks []Record, stages []Record) []Column {
	columns := make([]Column, 0, len(stages)+1)
	columns = append(columns, Column{StageID: UnassignedColumnID, Title: "Unassigned"})

	index := make(map[string]int, len(stages))
	for _, st := range stages {
		id := st.ID()
		if id == "" {
			continue
		}
		if _, dup := index[id]; dup {
			continue
		}
		index[id] = len(columns)
		columns = append(columns, Column{StageID: id, Title: st.String("title")})
	}

	for _, task := range tasks {
		pos := 0
		if i, ok := index[StageID(task)]; ok {
			pos = i
		}
		columns[pos].Tasks = append(columns[pos].Tasks, task)
	}

	return columns
}

// MoveTaskPatch builds the patch applied when a card is dropped on a column.
// Dropping on the unassigned column clears the stage.
func MoveTaskPatch(columnID string) Patch {
	if columnID == "" || columnID == UnassignedColumnID {
		return Patch{TaskFieldStageID: nil}
	}
	return Patch{TaskFieldStageID: columnID}
}
