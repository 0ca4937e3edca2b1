// ABOUTME: Tests for concurrent snapshot loading
// ABOUTME: Uses a fake loader keyed by resource
package viz

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/harperreed/crmlink/adapter"
	"github.com/harperreed/crmlink/objects"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeLoader struct {
	mu    sync.Mutex
	pages map[string][]objects.Record
	keys  []string
	err   error
}

func (f *fakeLoader) LoadList(ctx context.Context, listKey, resource string, params adapter.ListParams) (adapter.Page, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.keys = append(f.keys, listKey)
	if f.err != nil && resource == "deals" {
		return adapter.Page{}, f.err
	}
	recs := f.pages[resource]
	return adapter.Page{Records: recs, Total: len(recs)}, nil
}

func TestLoadSnapshot(t *testing.T) {
	loader := &fakeLoader{pages: map[string][]objects.Record{
		"companies":  {{"id": "co1"}},
		"deals":      {{"id": "d1"}, {"id": "d2"}},
		"dealStages": {{"id": "s1", "title": "WON"}},
	}}

	snap, err := LoadSnapshot(context.Background(), loader)
	require.NoError(t, err)
	assert.Len(t, snap.Companies, 1)
	assert.Len(t, snap.Deals, 2)
	assert.Len(t, snap.DealStages, 1)
	assert.Empty(t, snap.Contacts)
	assert.ElementsMatch(t, []string{
		"snapshot:companies", "snapshot:contacts", "snapshot:deals", "snapshot:dealStages", "snapshot:tasks",
	}, loader.keys)
}

func TestLoadSnapshotFailure(t *testing.T) {
	boom := errors.New("offline")
	_, err := LoadSnapshot(context.Background(), &fakeLoader{err: boom})
	assert.ErrorIs(t, err, boom)
}
