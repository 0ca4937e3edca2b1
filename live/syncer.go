// ABOUTME: Applies live remote events to the shared cache through the coordinator
// ABOUTME: Tracks per-resource sync status in the sync_state table when a database is given
package live

import (
	"context"
	"database/sql"

	"github.com/harperreed/crmlink/cache"
	"github.com/harperreed/crmlink/coordinator"
	"github.com/harperreed/crmlink/db"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

// Syncer keeps the cache in step with remote changes.
type Syncer struct {
	sub      Subscriber
	co       *coordinator.Coordinator
	database *sql.DB
	log      zerolog.Logger
}

// NewSyncer creates a syncer. database may be nil.
func NewSyncer(sub Subscriber, co *coordinator.Coordinator, database *sql.DB, log zerolog.Logger) *Syncer {
	return &Syncer{sub: sub, co: co, database: database, log: log}
}

// Run subscribes to every resource until ctx ends or one subscription fails.
func (s *Syncer) Run(ctx context.Context, resources ...string) error {
	g, gctx := errgroup.WithContext(ctx)
	for _, resource := range resources {
		resource := resource
		g.Go(func() error {
			s.status(resource, db.SyncSyncing, nil)
			err := s.sub.Subscribe(gctx, resource, func(ev Event) {
				s.Apply(gctx, ev)
			})
			if err != nil {
				msg := err.Error()
				s.status(resource, db.SyncError, &msg)
				return err
			}
			s.status(resource, db.SyncIdle, nil)
			return nil
		})
	}
	return g.Wait()
}

// Apply folds one event into the cache. Records with local mutations in
// flight are left to the coordinator's reconciliation.
func (s *Syncer) Apply(ctx context.Context, ev Event) {
	id := ev.Record.ID()
	key := cache.Key{Resource: ev.Resource, ID: id}
	logger := s.log.With().Str("resource", ev.Resource).Str("id", id).Str("kind", string(ev.Kind)).Logger()

	switch ev.Kind {
	case EventCreated:
		s.co.Cache().Invalidate(ev.Resource)
	case EventUpdated:
		if id == "" {
			return
		}
		if s.co.Pending(key) {
			logger.Debug().Msg("skipping live update for record with pending mutations")
			return
		}
		if _, err := s.co.Load(ctx, ev.Resource, id); err != nil {
			logger.Warn().Err(err).Msg("failed to refresh record after live update")
			return
		}
	case EventDeleted:
		if id == "" {
			return
		}
		if !s.co.RemoteDelete(ev.Resource, id) {
			logger.Debug().Msg("skipping live delete for record with pending mutations")
			return
		}
		if s.database != nil {
			if err := db.DeleteSnapshot(s.database, ev.Resource, id); err != nil {
				logger.Warn().Err(err).Msg("failed to drop snapshot")
			}
		}
	default:
		return
	}

	if s.database != nil {
		if err := db.RecordSyncEvent(s.database, ev.Resource, string(ev.Kind)+":"+id); err != nil {
			logger.Warn().Err(err).Msg("failed to record sync event")
		}
	}
	logger.Debug().Msg("applied live event")
}

func (s *Syncer) status(resource, status string, msg *string) {
	if s.database == nil {
		return
	}
	if err := db.UpdateSyncStatus(s.database, resource, status, msg); err != nil {
		s.log.Warn().Err(err).Str("resource", resource).Msg("failed to update sync status")
	}
}
