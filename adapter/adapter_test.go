// ABOUTME: Tests for the record store adapter
// ABOUTME: Uses a fake GraphQL doer to capture variables and return canned data
package adapter

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/harperreed/crmlink/crmerr"
	"github.com/harperreed/crmlink/gqlclient"
	"github.com/harperreed/crmlink/objects"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeDoer struct {
	requests []gqlclient.Request
	response string
	err      error
}

func (f *fakeDoer) Do(ctx context.Context, req gqlclient.Request, out any) error {
	f.requests = append(f.requests, req)
	if f.err != nil {
		return f.err
	}
	if out == nil || f.response == "" {
		return nil
	}
	return json.Unmarshal([]byte(f.response), out)
}

func newTestAdapter(t *testing.T, doer *fakeDoer) *Adapter {
	t.Helper()
	a, err := New(doer, nil, zerolog.Nop())
	require.NoError(t, err)
	return a
}

func TestDefaultRegistryCoversEveryListableResource(t *testing.T) {
	r, err := DefaultRegistry()
	require.NoError(t, err)

	for _, res := range []string{"companies", "contacts", "deals", "tasks", "users", "events", "dealStages", "taskStages"} {
		assert.True(t, r.Supports(res, OpList), res)
		assert.True(t, r.Supports(res, OpOne), res)
	}
	for _, res := range []string{"companies", "contacts", "deals", "tasks"} {
		assert.True(t, r.Supports(res, OpCreate), res)
		assert.True(t, r.Supports(res, OpUpdate), res)
		assert.True(t, r.Supports(res, OpDelete), res)
	}
	assert.False(t, r.Supports("events", OpDelete))
}

func TestUnknownResourceIsConfigurationError(t *testing.T) {
	doer := &fakeDoer{}
	a := newTestAdapter(t, doer)

	_, err := a.FetchList(context.Background(), "invoices", ListParams{})
	assert.True(t, errors.Is(err, crmerr.ErrConfiguration))

	_, err = a.FetchOne(context.Background(), "invoices", "1")
	assert.True(t, errors.Is(err, crmerr.ErrConfiguration))

	_, err = a.Delete(context.Background(), "events", "1")
	assert.True(t, errors.Is(err, crmerr.ErrConfiguration), "events has no delete document")

	assert.Empty(t, doer.requests, "no call should leave the process")
}

func TestFetchListMapsParamsToVariables(t *testing.T) {
	doer := &fakeDoer{response: `{"tasks":{"totalCount":7,"nodes":[{"id":"t1","title":"a"},{"id":"t2","title":"b"}]}}`}
	a := newTestAdapter(t, doer)

	page, err := a.FetchList(context.Background(), "tasks", ListParams{
		Filters: []Filter{
			{Field: "title", Operator: "contains", Value: "call"},
			{Field: "stageId", Operator: "null"},
			{Field: "id", Operator: "nin", Value: []string{"x"}},
			{Field: "dueDate", Operator: "between", Value: []string{"2024-01-01", "2024-02-01"}},
			{Field: "ignored", Operator: "eq", Value: nil},
		},
		Sorters:    []Sorter{{Field: "dueDate", Order: "desc"}, {Field: "id"}},
		Pagination: Pagination{Current: 3, PageSize: 5},
	})
	require.NoError(t, err)

	assert.Equal(t, 7, page.Total)
	require.Len(t, page.Records, 2)
	assert.Equal(t, "t2", page.Records[1].ID())

	require.Len(t, doer.requests, 1)
	vars := doer.requests[0].Variables
	assert.Equal(t, map[string]any{
		"title":   map[string]any{"iLike": "%call%"},
		"stageId": map[string]any{"is": nil},
		"id":      map[string]any{"notIn": []string{"x"}},
		"dueDate": map[string]any{"between": map[string]any{"lower": "2024-01-01", "upper": "2024-02-01"}},
	}, vars["filter"])
	assert.Equal(t, []map[string]any{
		{"field": "dueDate", "direction": "DESC"},
		{"field": "id", "direction": "ASC"},
	}, vars["sorting"])
	assert.Equal(t, map[string]any{"limit": 5, "offset": 10}, vars["paging"])
}

func TestFetchListDefaultsPaging(t *testing.T) {
	doer := &fakeDoer{response: `{"contacts":{"totalCount":0,"nodes":null}}`}
	a := newTestAdapter(t, doer)

	page, err := a.FetchList(context.Background(), "contacts", ListParams{})
	require.NoError(t, err)
	assert.NotNil(t, page.Records)
	assert.Empty(t, page.Records)
	assert.Equal(t, map[string]any{"limit": DefaultPageSize, "offset": 0}, doer.requests[0].Variables["paging"])
}

func TestListParamsValidate(t *testing.T) {
	tests := []struct {
		name   string
		params ListParams
		ok     bool
	}{
		{"empty", ListParams{}, true},
		{"missing field", ListParams{Filters: []Filter{{Operator: "eq", Value: 1}}}, false},
		{"unknown operator", ListParams{Filters: []Filter{{Field: "a", Operator: "like", Value: 1}}}, false},
		{"in needs slice", ListParams{Filters: []Filter{{Field: "a", Operator: "in", Value: "x"}}}, false},
		{"in with slice", ListParams{Filters: []Filter{{Field: "a", Operator: "in", Value: []any{"x", "y"}}}}, true},
		{"in without value", ListParams{Filters: []Filter{{Field: "a", Operator: "in"}}}, false},
		{"nin without value", ListParams{Filters: []Filter{{Field: "a", Operator: "nin"}}}, false},
		{"between needs two", ListParams{Filters: []Filter{{Field: "a", Operator: "between", Value: []int{1}}}}, false},
		{"between without value", ListParams{Filters: []Filter{{Field: "a", Operator: "between"}}}, false},
		{"null without value", ListParams{Filters: []Filter{{Field: "a", Operator: "null"}}}, true},
		{"empty order", ListParams{Sorters: []Sorter{{Field: "a"}}}, true},
		{"bad order", ListParams{Sorters: []Sorter{{Field: "a", Order: "up"}}}, false},
		{"upper order", ListParams{Sorters: []Sorter{{Field: "a", Order: "DESC"}}}, true},
		{"negative page", ListParams{Pagination: Pagination{Current: -1}}, false},
		{"negative size", ListParams{Pagination: Pagination{PageSize: -5}}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.params.Validate("list")
			if tt.ok {
				assert.NoError(t, err)
				return
			}
			assert.True(t, errors.Is(err, crmerr.ErrConfiguration), "got %v", err)
		})
	}
}

func TestEmptySortOrderRendersAscending(t *testing.T) {
	vars := ListParams{Sorters: []Sorter{{Field: "createdAt"}, {Field: "name", Order: "DESC"}}}.Variables()
	assert.Equal(t, []map[string]any{
		{"field": "createdAt", "direction": "ASC"},
		{"field": "name", "direction": "DESC"},
	}, vars["sorting"])
}

func TestMutationsWrapInputs(t *testing.T) {
	ctx := context.Background()

	doer := &fakeDoer{response: `{"createOneContact":{"id":"c9","name":"Ada","status":"NEW"}}`}
	a := newTestAdapter(t, doer)
	rec, err := a.Create(ctx, "contacts", objects.Patch{"name": "Ada", "status": "NEW"})
	require.NoError(t, err)
	assert.Equal(t, "c9", rec.ID())
	assert.Equal(t, map[string]any{"contact": map[string]any{"name": "Ada", "status": "NEW"}}, doer.requests[0].Variables["input"])

	doer = &fakeDoer{response: `{"updateOneContact":{"id":"c9","status":"WON"}}`}
	a = newTestAdapter(t, doer)
	rec, err = a.Update(ctx, "contacts", "c9", objects.Patch{"status": "WON"})
	require.NoError(t, err)
	assert.Equal(t, "WON", rec["status"])
	assert.Equal(t, map[string]any{"id": "c9", "update": map[string]any{"status": "WON"}}, doer.requests[0].Variables["input"])

	doer = &fakeDoer{response: `{"deleteOneTask":{"id":null}}`}
	a = newTestAdapter(t, doer)
	rec, err = a.Delete(ctx, "tasks", "t1")
	require.NoError(t, err)
	assert.Equal(t, "t1", rec.ID())
	assert.Equal(t, map[string]any{"id": "t1"}, doer.requests[0].Variables["input"])
}

func TestEmptyIDIsConfigurationError(t *testing.T) {
	a := newTestAdapter(t, &fakeDoer{})
	_, err := a.Update(context.Background(), "tasks", " ", objects.Patch{"title": "x"})
	assert.True(t, errors.Is(err, crmerr.ErrConfiguration))
}

func TestResponseMissingFieldIsConfigurationError(t *testing.T) {
	a := newTestAdapter(t, &fakeDoer{response: `{"somethingElse":{}}`})
	_, err := a.FetchOne(context.Background(), "deals", "d1")
	assert.True(t, errors.Is(err, crmerr.ErrConfiguration))
}

func TestRemoteErrorsPassThroughUnchanged(t *testing.T) {
	remote := crmerr.Validation("graphql", "status must be an enum", map[string]string{"status": "invalid"})
	a := newTestAdapter(t, &fakeDoer{err: remote})

	_, err := a.Update(context.Background(), "contacts", "c1", objects.Patch{"status": "CONTACTED"})
	assert.Same(t, remote, err)
}

func TestLoadRegistryOverlaysDocuments(t *testing.T) {
	path := filepath.Join(t.TempDir(), "documents.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
tasks:
  one:
    field: taskById
    document: "query T($id: ID!) { taskById(id: $id) { id } }"
`), 0600))

	r, err := LoadRegistry(path)
	require.NoError(t, err)

	doc, key, err := r.Lookup("tasks", OpOne)
	require.NoError(t, err)
	assert.Equal(t, "taskById", doc.Field)
	assert.Equal(t, "task", key, "input key survives the overlay")

	list, _, err := r.Lookup("tasks", OpList)
	require.NoError(t, err)
	assert.Equal(t, "tasks", list.Field, "untouched operations keep defaults")
}

func TestLoadRegistryRejectsUnknownResource(t *testing.T) {
	path := filepath.Join(t.TempDir(), "documents.yaml")
	require.NoError(t, os.WriteFile(path, []byte("invoices:\n  list:\n    field: invoices\n    document: x\n"), 0600))

	_, err := LoadRegistry(path)
	assert.True(t, errors.Is(err, crmerr.ErrConfiguration))
}
