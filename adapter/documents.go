// ABOUTME: Registry of GraphQL documents per resource and operation
// ABOUTME: Loads the embedded defaults and optional YAML overrides from config
package adapter

import (
	_ "embed"
	"fmt"
	"os"

	"github.com/harperreed/crmlink/crmerr"
	"github.com/harperreed/crmlink/models"
	"gopkg.in/yaml.v3"
)

//go:embed documents.yaml
var defaultDocuments []byte

// Operation names a registry slot.
type Operation string

const (
	OpList   Operation = "list"
	OpOne    Operation = "one"
	OpCreate Operation = "create"
	OpUpdate Operation = "update"
	OpDelete Operation = "delete"
)

// Document is one opaque GraphQL document and the response field holding its result.
type Document struct {
	Field string `yaml:"field"`
	Query string `yaml:"document"`
}

// ResourceDocuments holds every document for one resource.
type ResourceDocuments struct {
	InputKey string    `yaml:"input_key"`
	List     *Document `yaml:"list"`
	One      *Document `yaml:"one"`
	Create   *Document `yaml:"create"`
	Update   *Document `yaml:"update"`
	Delete   *Document `yaml:"delete"`
}

func (r ResourceDocuments) get(op Operation) *Document {
	switch op {
	case OpList:
		return r.List
	case OpOne:
		return r.One
	case OpCreate:
		return r.Create
	case OpUpdate:
		return r.Update
	case OpDelete:
		return r.Delete
	}
	return nil
}

// Registry maps resources to documents.
type Registry struct {
	resources map[string]ResourceDocuments
}

// DefaultRegistry parses the embedded documents.
func DefaultRegistry() (*Registry, error) {
	r := &Registry{resources: map[string]ResourceDocuments{}}
	if err := r.merge(defaultDocuments); err != nil {
		return nil, fmt.Errorf("failed to parse embedded documents: %w", err)
	}
	return r, nil
}

// LoadRegistry returns the defaults overlaid with the YAML file at path.
// An empty path returns the defaults.
func LoadRegistry(path string) (*Registry, error) {
	r, err := DefaultRegistry()
	if err != nil {
		return nil, err
	}
	if path == "" {
		return r, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read documents %s: %w", path, err)
	}
	if err := r.merge(data); err != nil {
		return nil, fmt.Errorf("failed to parse documents %s: %w", path, err)
	}
	return r, nil
}

// merge overlays parsed documents per operation, keeping existing slots the
// overlay leaves empty.
func (r *Registry) merge(data []byte) error {
	var parsed map[string]ResourceDocuments
	if err := yaml.Unmarshal(data, &parsed); err != nil {
		return err
	}

	for name, docs := range parsed {
		if !models.IsKnownResource(name) {
			return crmerr.Configuration("load documents", "unknown resource %q", name)
		}
		cur := r.resources[name]
		if docs.InputKey != "" {
			cur.InputKey = docs.InputKey
		}
		if docs.List != nil {
			cur.List = docs.List
		}
		if docs.One != nil {
			cur.One = docs.One
		}
		if docs.Create != nil {
			cur.Create = docs.Create
		}
		if docs.Update != nil {
			cur.Update = docs.Update
		}
		if docs.Delete != nil {
			cur.Delete = docs.Delete
		}
		r.resources[name] = cur
	}
	return nil
}

// Lookup returns the document for resource and op.
func (r *Registry) Lookup(resource string, op Operation) (*Document, string, error) {
	if !models.IsKnownResource(resource) {
		return nil, "", crmerr.Configuration(string(op)+" "+resource, "unknown resource %q", resource)
	}
	docs, ok := r.resources[resource]
	if !ok {
		return nil, "", crmerr.Configuration(string(op)+" "+resource, "no documents configured for %q", resource)
	}
	doc := docs.get(op)
	if doc == nil || doc.Query == "" || doc.Field == "" {
		return nil, "", crmerr.Configuration(string(op)+" "+resource, "no %s document configured for %q", op, resource)
	}
	return doc, docs.InputKey, nil
}

// Supports reports whether op is configured for resource.
func (r *Registry) Supports(resource string, op Operation) bool {
	_, _, err := r.Lookup(resource, op)
	return err == nil
}
