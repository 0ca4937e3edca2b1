// ABOUTME: Tests for the MCP tool, resource and prompt handlers
// ABOUTME: Runs the handlers against a coordinator backed by an in-memory record store
package handlers

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/harperreed/crmlink/adapter"
	"github.com/harperreed/crmlink/cache"
	"github.com/harperreed/crmlink/coordinator"
	"github.com/harperreed/crmlink/crmerr"
	"github.com/harperreed/crmlink/objects"
	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// memStore answers immediately. failUpdates makes every update fail.
type memStore struct {
	mu          sync.Mutex
	records     map[string]map[string]objects.Record
	order       map[string][]string
	nextID      int
	failUpdates error
	lastParams  adapter.ListParams
}

func newMemStore() *memStore {
	return &memStore{
		records: map[string]map[string]objects.Record{},
		order:   map[string][]string{},
	}
}

func (m *memStore) seed(resource string, recs ...objects.Record) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.records[resource] == nil {
		m.records[resource] = map[string]objects.Record{}
	}
	for _, rec := range recs {
		m.records[resource][rec.ID()] = rec.Clone()
		m.order[resource] = append(m.order[resource], rec.ID())
	}
}

func (m *memStore) FetchList(ctx context.Context, resource string, params adapter.ListParams) (adapter.Page, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lastParams = params
	var out []objects.Record
	for _, id := range m.order[resource] {
		if rec, ok := m.records[resource][id]; ok {
			out = append(out, rec.Clone())
		}
	}
	return adapter.Page{Records: out, Total: len(out)}, nil
}

func (m *memStore) FetchOne(ctx context.Context, resource, id string) (objects.Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec, ok := m.records[resource][id]
	if !ok {
		return nil, crmerr.Validation("fetch "+resource, "record not found", nil)
	}
	return rec.Clone(), nil
}

func (m *memStore) Create(ctx context.Context, resource string, values objects.Patch) (objects.Record, error) {
	m.mu.Lock()
	m.nextID++
	id := fmt.Sprintf("new-%d", m.nextID)
	m.mu.Unlock()

	rec := objects.ApplyPatch(objects.Record{"id": id}, values)
	m.seed(resource, rec)
	return rec, nil
}

func (m *memStore) Update(ctx context.Context, resource, id string, values objects.Patch) (objects.Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failUpdates != nil {
		return nil, m.failUpdates
	}
	rec := objects.ApplyPatch(m.records[resource][id], values)
	m.records[resource][id] = rec
	return rec.Clone(), nil
}

func (m *memStore) Delete(ctx context.Context, resource, id string) (objects.Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.records[resource], id)
	return objects.Record{"id": id}, nil
}

func setupHandlers(t *testing.T) (*memStore, *coordinator.Coordinator) {
	t.Helper()
	store := newMemStore()
	store.seed("contacts",
		objects.Record{"id": "c1", "name": "Ada Lovelace", "email": "ada@example.com", "status": "NEW"},
		objects.Record{"id": "c2", "name": "Grace Hopper", "status": "WON"},
	)
	store.seed("taskStages", objects.Record{"id": "ts1", "title": "TODO"})
	store.seed("tasks", objects.Record{"id": "t1", "title": "Call Ada", "stageId": nil})
	store.seed("dealStages", objects.Record{"id": "s1", "title": "WON", "dealsAggregate": []any{
		map[string]any{"groupBy": map[string]any{"closeDateMonth": 2.0, "closeDateYear": 2024.0}, "sum": map[string]any{"value": 300.0}},
	}})
	store.seed("deals", objects.Record{"id": "d1", "title": "Rockets", "value": 1200.0, "stageId": "s1"})
	return store, coordinator.New(store, cache.New())
}

func TestListRecords(t *testing.T) {
	store, co := setupHandlers(t)
	h := NewRecordHandlers(co)

	_, out, err := h.ListRecords(context.Background(), nil, ListRecordsInput{
		Resource: "contacts",
		Filters:  []adapter.Filter{{Field: "status", Operator: "eq", Value: "NEW"}},
		Page:     2,
		PageSize: 5,
	})
	require.NoError(t, err)
	assert.Equal(t, 2, out.Count)
	assert.Equal(t, 2, out.Total)
	assert.Equal(t, "c1", out.Records[0].ID())
	assert.Equal(t, 2, store.lastParams.Pagination.Current)
	assert.Equal(t, "status", store.lastParams.Filters[0].Field)

	_, _, err = h.ListRecords(context.Background(), nil, ListRecordsInput{})
	assert.Error(t, err)
}

func TestGetAndUpdateRecord(t *testing.T) {
	_, co := setupHandlers(t)
	h := NewRecordHandlers(co)

	_, got, err := h.GetRecord(context.Background(), nil, RecordInput{Resource: "contacts", ID: "c1"})
	require.NoError(t, err)
	assert.Equal(t, "Ada Lovelace", got.Record.String("name"))

	_, updated, err := h.UpdateRecord(context.Background(), nil, UpdateRecordInput{
		Resource: "contacts",
		ID:       "c1",
		Values:   map[string]any{"jobTitle": "Analyst"},
	})
	require.NoError(t, err)
	assert.Equal(t, "Analyst", updated.Record.String("jobTitle"))

	cached, ok := co.Cache().Get(cache.Key{Resource: "contacts", ID: "c1"})
	require.True(t, ok)
	assert.Equal(t, "Analyst", cached.String("jobTitle"))

	_, _, err = h.UpdateRecord(context.Background(), nil, UpdateRecordInput{Resource: "contacts", ID: "c1"})
	assert.Error(t, err, "empty values are rejected")
}

func TestCreateAndDeleteRecord(t *testing.T) {
	_, co := setupHandlers(t)
	h := NewRecordHandlers(co)

	_, created, err := h.CreateRecord(context.Background(), nil, CreateRecordInput{
		Resource: "companies",
		Values:   map[string]any{"name": "Acme"},
	})
	require.NoError(t, err)
	id := created.Record.ID()
	require.NotEmpty(t, id)

	_, deleted, err := h.DeleteRecord(context.Background(), nil, RecordInput{Resource: "companies", ID: id})
	require.NoError(t, err)
	assert.True(t, deleted.Deleted)

	_, ok := co.Cache().Get(cache.Key{Resource: "companies", ID: id})
	assert.False(t, ok)

	_, _, err = h.CreateRecord(context.Background(), nil, CreateRecordInput{Resource: "invoices", Values: map[string]any{"a": 1}})
	assert.True(t, errors.Is(err, crmerr.ErrConfiguration))
}

func TestSetContactStatus(t *testing.T) {
	store, co := setupHandlers(t)
	h := NewContactHandlers(co)

	_, out, err := h.SetContactStatus(context.Background(), nil, SetContactStatusInput{ID: "c1", Status: "contacted"})
	require.NoError(t, err)
	assert.Equal(t, "CONTACTED", out.Status)
	assert.Equal(t, "Ada Lovelace", out.Name)

	_, _, err = h.SetContactStatus(context.Background(), nil, SetContactStatusInput{ID: "c1", Status: "MAYBE"})
	assert.True(t, errors.Is(err, crmerr.ErrValidation))

	store.failUpdates = crmerr.Validation("update contacts", "rejected", nil)
	_, _, err = h.SetContactStatus(context.Background(), nil, SetContactStatusInput{ID: "c1", Status: "LOST"})
	assert.True(t, errors.Is(err, crmerr.ErrValidation))

	cached, ok := co.Cache().Get(cache.Key{Resource: "contacts", ID: "c1"})
	require.True(t, ok)
	assert.Equal(t, "CONTACTED", cached.String("status"), "failed update reverts to the confirmed status")
}

func TestMoveTask(t *testing.T) {
	_, co := setupHandlers(t)
	h := NewTaskHandlers(co)

	_, out, err := h.MoveTask(context.Background(), nil, MoveTaskInput{ID: "t1", StageID: "ts1"})
	require.NoError(t, err)
	require.NotNil(t, out.StageID)
	assert.Equal(t, "ts1", *out.StageID)

	_, out, err = h.MoveTask(context.Background(), nil, MoveTaskInput{ID: "t1", StageID: "unassigned"})
	require.NoError(t, err)
	assert.Nil(t, out.StageID)

	_, _, err = h.MoveTask(context.Background(), nil, MoveTaskInput{})
	assert.Error(t, err)
}

func TestGenerateGraphAndDashboard(t *testing.T) {
	_, co := setupHandlers(t)
	h := NewVizHandlers(co, zerolog.Nop())

	_, graph, err := h.GenerateGraph(context.Background(), nil, GenerateGraphInput{Type: "pipeline"})
	require.NoError(t, err)
	assert.Contains(t, graph.DOTSource, "deal_d1")
	assert.Greater(t, graph.EdgeCount, 0)

	_, _, err = h.GenerateGraph(context.Background(), nil, GenerateGraphInput{Type: "contacts"})
	assert.Error(t, err)

	_, dash, err := h.Dashboard(context.Background(), nil, DashboardInput{})
	require.NoError(t, err)
	assert.Equal(t, 2, dash.TotalContacts)
	assert.Equal(t, 1, dash.TotalDeals)
	assert.Contains(t, dash.Text, "PIPELINE OVERVIEW")
}

func TestReadResource(t *testing.T) {
	_, co := setupHandlers(t)
	h := NewResourceHandlers(co)

	read := func(uri string) (*mcp.ReadResourceResult, error) {
		return h.ReadResource(context.Background(), &mcp.ReadResourceRequest{Params: &mcp.ReadResourceParams{URI: uri}})
	}

	res, err := read("crm://contacts")
	require.NoError(t, err)
	assert.Contains(t, res.Contents[0].Text, "Grace Hopper")

	res, err = read("crm://contacts/c1")
	require.NoError(t, err)
	assert.Contains(t, res.Contents[0].Text, "ada@example.com")

	res, err = read("crm://pipeline")
	require.NoError(t, err)
	assert.Equal(t, "text/plain", res.Contents[0].MIMEType)

	_, err = read("crm://invoices")
	assert.Error(t, err)
	_, err = read("http://contacts")
	assert.Error(t, err)
}

func TestGetPrompt(t *testing.T) {
	_, co := setupHandlers(t)
	h := NewPromptHandlers(co)

	get := func(name string, args map[string]string) (*mcp.GetPromptResult, error) {
		return h.GetPrompt(context.Background(), &mcp.GetPromptRequest{Params: &mcp.GetPromptParams{Name: name, Arguments: args}})
	}

	res, err := get("contact-summary", map[string]string{"contact_id": "c1"})
	require.NoError(t, err)
	text := res.Messages[0].Content.(*mcp.TextContent).Text
	assert.Contains(t, text, "Ada Lovelace (AL)")
	assert.Contains(t, text, "Status: NEW")

	_, err = get("contact-summary", nil)
	assert.Error(t, err)

	res, err = get("deal-analysis", nil)
	require.NoError(t, err)
	text = res.Messages[0].Content.(*mcp.TextContent).Text
	assert.Contains(t, text, "Total Deals: 1")
	assert.Contains(t, text, "Feb 2024 Won")

	res, err = get("task-review", nil)
	require.NoError(t, err)
	assert.Contains(t, res.Messages[0].Content.(*mcp.TextContent).Text, "No overdue or upcoming tasks")

	_, err = get("relationship-map", nil)
	assert.Error(t, err)
}

func TestNewServer(t *testing.T) {
	_, co := setupHandlers(t)
	assert.NotNil(t, NewServer(co, "test", zerolog.Nop()))
}
