// ABOUTME: Loads the record snapshot behind the dashboard and graphs
// ABOUTME: Fetches every resource list concurrently through the coordinator
package viz

import (
	"context"
	"fmt"

	"github.com/harperreed/crmlink/adapter"
	"github.com/harperreed/crmlink/models"
	"github.com/harperreed/crmlink/objects"
	"golang.org/x/sync/errgroup"
)

// SnapshotPageSize bounds each list fetched for a snapshot.
const SnapshotPageSize = 500

// Loader fetches a page and records it as a cached list view.
type Loader interface {
	LoadList(ctx context.Context, listKey, resource string, params adapter.ListParams) (adapter.Page, error)
}

// LoadSnapshot fetches companies, contacts, deals, deal stages and tasks in
// parallel. The first failure cancels the rest.
func LoadSnapshot(ctx context.Context, loader Loader) (Snapshot, error) {
	var snap Snapshot
	targets := []struct {
		resource string
		dst      *[]objects.Record
	}{
		{models.ResourceCompanies, &snap.Companies},
		{models.ResourceContacts, &snap.Contacts},
		{models.ResourceDeals, &snap.Deals},
		{models.ResourceDealStages, &snap.DealStages},
		{models.ResourceTasks, &snap.Tasks},
	}

	g, gctx := errgroup.WithContext(ctx)
	for _, target := range targets {
		target := target
		g.Go(func() error {
			params := adapter.ListParams{Pagination: adapter.Pagination{Current: 1, PageSize: SnapshotPageSize}}
			page, err := loader.LoadList(gctx, "snapshot:"+target.resource, target.resource, params)
			if err != nil {
				return fmt.Errorf("failed to load %s: %w", target.resource, err)
			}
			*target.dst = page.Records
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return Snapshot{}, err
	}
	return snap, nil
}
