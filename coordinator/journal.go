// ABOUTME: Mutation records and the optional journal hook
// ABOUTME: The sqlite journal in db implements Journal
package coordinator

import "github.com/harperreed/crmlink/objects"

// OpKind names a mutation.
type OpKind string

const (
	OpCreate OpKind = "create"
	OpUpdate OpKind = "update"
	OpDelete OpKind = "delete"
)

// Mutation describes one remote write issued by the coordinator.
type Mutation struct {
	// JournalID is assigned by Journal.Begin.
	JournalID string
	Resource  string
	RecordID  string
	// Seq increases with every optimistic request on this coordinator.
	Seq       uint64
	Op        OpKind
	Patch     objects.Patch
}

// Journal records mutations as they begin and resolve. Journal failures are
// logged and never fail the mutation.
type Journal interface {
	Begin(m *Mutation) error
	Confirm(m *Mutation, rec objects.Record) error
	Fail(m *Mutation, cause error) error
}
