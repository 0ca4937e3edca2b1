// ABOUTME: Record store adapter translating CRUD and list requests into GraphQL calls
// ABOUTME: Stateless per call; maps responses back into generic records
package adapter

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/harperreed/crmlink/crmerr"
	"github.com/harperreed/crmlink/gqlclient"
	"github.com/harperreed/crmlink/objects"
	"github.com/rs/zerolog"
)

// Page is one page of a list result.
type Page struct {
	Records []objects.Record
	Total   int
}

// Store is the record store contract consumed by the coordinator.
type Store interface {
	FetchList(ctx context.Context, resource string, params ListParams) (Page, error)
	FetchOne(ctx context.Context, resource, id string) (objects.Record, error)
	Create(ctx context.Context, resource string, values objects.Patch) (objects.Record, error)
	Update(ctx context.Context, resource, id string, values objects.Patch) (objects.Record, error)
	Delete(ctx context.Context, resource, id string) (objects.Record, error)
}

// Adapter implements Store over a GraphQL Doer.
type Adapter struct {
	client   gqlclient.Doer
	registry *Registry
	log      zerolog.Logger
}

// New creates an adapter. A nil registry uses the embedded defaults.
func New(client gqlclient.Doer, registry *Registry, log zerolog.Logger) (*Adapter, error) {
	if registry == nil {
		var err error
		registry, err = DefaultRegistry()
		if err != nil {
			return nil, err
		}
	}
	return &Adapter{client: client, registry: registry, log: log}, nil
}

// Registry returns the document registry in use.
func (a *Adapter) Registry() *Registry {
	return a.registry
}

type listResult struct {
	Nodes      []objects.Record `json:"nodes"`
	TotalCount int              `json:"totalCount"`
}

// FetchList runs the list document for resource.
func (a *Adapter) FetchList(ctx context.Context, resource string, params ListParams) (Page, error) {
	doc, _, err := a.registry.Lookup(resource, OpList)
	if err != nil {
		return Page{}, err
	}
	if err := params.Validate("list " + resource); err != nil {
		return Page{}, err
	}

	var data map[string]json.RawMessage
	if err := a.client.Do(ctx, gqlclient.Request{Query: doc.Query, Variables: params.Variables()}, &data); err != nil {
		return Page{}, err
	}

	var result listResult
	if err := decodeField(data, doc.Field, &result); err != nil {
		return Page{}, fmt.Errorf("list %s: %w", resource, err)
	}
	if result.Nodes == nil {
		result.Nodes = []objects.Record{}
	}

	a.log.Debug().Str("resource", resource).Int("count", len(result.Nodes)).Int("total", result.TotalCount).Msg("fetched list")
	return Page{Records: result.Nodes, Total: result.TotalCount}, nil
}

// FetchOne runs the one document for resource and id.
func (a *Adapter) FetchOne(ctx context.Context, resource, id string) (objects.Record, error) {
	doc, _, err := a.registry.Lookup(resource, OpOne)
	if err != nil {
		return nil, err
	}
	if err := requireID("one "+resource, id); err != nil {
		return nil, err
	}
	return a.record(ctx, resource, doc, map[string]any{"id": id})
}

// Create runs the create document with values wrapped under the resource's input key.
func (a *Adapter) Create(ctx context.Context, resource string, values objects.Patch) (objects.Record, error) {
	doc, inputKey, err := a.registry.Lookup(resource, OpCreate)
	if err != nil {
		return nil, err
	}
	if inputKey == "" {
		return nil, crmerr.Configuration("create "+resource, "no input key configured for %q", resource)
	}
	return a.record(ctx, resource, doc, map[string]any{
		"input": map[string]any{inputKey: patchValues(values)},
	})
}

// Update runs the update document for id with values.
func (a *Adapter) Update(ctx context.Context, resource, id string, values objects.Patch) (objects.Record, error) {
	doc, _, err := a.registry.Lookup(resource, OpUpdate)
	if err != nil {
		return nil, err
	}
	if err := requireID("update "+resource, id); err != nil {
		return nil, err
	}
	return a.record(ctx, resource, doc, map[string]any{
		"input": map[string]any{"id": id, "update": patchValues(values)},
	})
}

// Delete runs the delete document for id. The returned record always carries id.
func (a *Adapter) Delete(ctx context.Context, resource, id string) (objects.Record, error) {
	doc, _, err := a.registry.Lookup(resource, OpDelete)
	if err != nil {
		return nil, err
	}
	if err := requireID("delete "+resource, id); err != nil {
		return nil, err
	}
	rec, err := a.record(ctx, resource, doc, map[string]any{"input": map[string]any{"id": id}})
	if err != nil {
		return nil, err
	}
	if rec.ID() == "" {
		rec[objects.FieldID] = id
	}
	return rec, nil
}

func (a *Adapter) record(ctx context.Context, resource string, doc *Document, vars map[string]any) (objects.Record, error) {
	var data map[string]json.RawMessage
	if err := a.client.Do(ctx, gqlclient.Request{Query: doc.Query, Variables: vars}, &data); err != nil {
		return nil, err
	}

	var rec objects.Record
	if err := decodeField(data, doc.Field, &rec); err != nil {
		return nil, fmt.Errorf("%s: %w", resource, err)
	}
	if rec == nil {
		rec = objects.Record{}
	}
	return rec, nil
}

// decodeField unmarshals data[field] into out. A missing or null field is a
// configuration error since the document and field name disagree.
func decodeField(data map[string]json.RawMessage, field string, out any) error {
	raw, ok := data[field]
	if !ok || len(raw) == 0 || string(raw) == "null" {
		return crmerr.Configuration("decode", "response has no %q field", field)
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return crmerr.Configuration("decode", "field %q has unexpected shape: %v", field, err)
	}
	return nil
}

func requireID(op, id string) error {
	if strings.TrimSpace(id) == "" {
		return crmerr.Configuration(op, "id is required")
	}
	return nil
}

func patchValues(values objects.Patch) map[string]any {
	if values == nil {
		return map[string]any{}
	}
	return map[string]any(values.Clone())
}
