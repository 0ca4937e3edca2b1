// ABOUTME: Optimistic mutation coordinator over the record store adapter and cache
// ABOUTME: Publishes tentative edits at once and reconciles responses per key in request order
package coordinator

import (
	"context"
	"sync"

	"github.com/harperreed/crmlink/adapter"
	"github.com/harperreed/crmlink/cache"
	"github.com/harperreed/crmlink/crmerr"
	"github.com/harperreed/crmlink/models"
	"github.com/harperreed/crmlink/objects"
	"github.com/rs/zerolog"
)

// Coordinator applies mutations optimistically to a shared cache.
//
// Cache notifications are delivered synchronously while the coordinator holds
// its lock. Observers may read the cache but must not call back into the
// coordinator from Notify.
type Coordinator struct {
	store    adapter.Store
	cache    *cache.Store
	journal  Journal
	onFailed func(*crmerr.MutationFailed)
	onError  func(error)
	log      zerolog.Logger

	mu     sync.Mutex
	chains map[cache.Key]*chain
	seq    uint64

	// version counts local state changes. While fetches are in flight,
	// touched holds the version that last changed each key.
	version uint64
	touched map[cache.Key]uint64
	reads   int
}

// Option configures a Coordinator.
type Option func(*Coordinator)

// WithJournal records every mutation.
func WithJournal(j Journal) Option {
	return func(c *Coordinator) {
		c.journal = j
	}
}

// WithFailureHook receives every rolled back mutation.
func WithFailureHook(fn func(*crmerr.MutationFailed)) Option {
	return func(c *Coordinator) {
		c.onFailed = fn
	}
}

// WithErrorHook receives every failed remote call, reads included.
func WithErrorHook(fn func(error)) Option {
	return func(c *Coordinator) {
		c.onError = fn
	}
}

// WithLogger sets the logger for reconciliation and journal events.
func WithLogger(log zerolog.Logger) Option {
	return func(c *Coordinator) {
		c.log = log
	}
}

// New creates a coordinator writing to store and publishing through c.
func New(store adapter.Store, c *cache.Store, opts ...Option) *Coordinator {
	co := &Coordinator{
		store:   store,
		cache:   c,
		log:     zerolog.Nop(),
		chains:  make(map[cache.Key]*chain),
		touched: make(map[cache.Key]uint64),
	}
	for _, opt := range opts {
		opt(co)
	}
	return co
}

// Cache returns the shared store.
func (c *Coordinator) Cache() *cache.Store {
	return c.cache
}

// pendingOp is one in-flight mutation in a chain.
type pendingOp struct {
	mut        *Mutation
	done       bool
	result     objects.Record
	err        error
	reconciled chan struct{}
}

// chain is the unreconciled history of one key. base is the last confirmed
// value; the visible value is base with every pending patch applied in order.
type chain struct {
	base    objects.Record
	hasBase bool
	deleted bool
	ops     []*pendingOp
}

// Pending reports whether key has unreconciled mutations.
func (c *Coordinator) Pending(key cache.Key) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.chains[key]
	return ok
}

// Load fetches one record. While mutations are pending for it only the chain
// base moves, so tentative edits stay visible. A response is not stored if the
// record changed locally after the fetch was issued.
func (c *Coordinator) Load(ctx context.Context, resource, id string) (objects.Record, error) {
	start := c.startRead()
	rec, err := c.store.FetchOne(ctx, resource, id)
	if err != nil {
		c.abortRead()
		c.reportError(err)
		return nil, err
	}

	key := cache.Key{Resource: resource, ID: id}
	c.mu.Lock()
	defer c.mu.Unlock()
	defer c.endRead()

	c.storeFetched(key, rec, start)
	if visible, ok := c.cache.Get(key); ok {
		return visible, nil
	}
	return rec, nil
}

// LoadList fetches a page, caches each record and records the list view under
// listKey. The returned page holds the visible records.
func (c *Coordinator) LoadList(ctx context.Context, listKey, resource string, params adapter.ListParams) (adapter.Page, error) {
	start := c.startRead()
	page, err := c.store.FetchList(ctx, resource, params)
	if err != nil {
		c.abortRead()
		c.reportError(err)
		return adapter.Page{}, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	defer c.endRead()

	ids := make([]string, 0, len(page.Records))
	for _, rec := range page.Records {
		id := rec.ID()
		if id == "" {
			continue
		}
		c.storeFetched(cache.Key{Resource: resource, ID: id}, rec, start)
		ids = append(ids, id)
	}
	c.cache.SetList(listKey, resource, ids)

	visible, _ := c.cache.List(listKey)
	return adapter.Page{Records: visible, Total: page.Total}, nil
}

// storeFetched caches a fetched record unless key changed after the fetch
// started at version start. Callers hold mu.
func (c *Coordinator) storeFetched(key cache.Key, rec objects.Record, start uint64) {
	if c.touched[key] > start {
		c.log.Debug().Str("key", key.String()).Msg("dropped fetch older than local change")
		return
	}
	if ch, ok := c.chains[key]; ok {
		ch.base = rec.Clone()
		ch.hasBase = true
		ch.deleted = false
		c.publish(key, ch)
		return
	}
	c.cache.Put(key, rec)
}

func (c *Coordinator) startRead() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.reads++
	return c.version
}

// endRead must be called with mu held.
func (c *Coordinator) endRead() {
	c.reads--
	if c.reads == 0 {
		clear(c.touched)
	}
}

func (c *Coordinator) abortRead() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.endRead()
}

// touch records a local change to key. Callers hold mu.
func (c *Coordinator) touch(key cache.Key) {
	c.version++
	if c.reads > 0 {
		c.touched[key] = c.version
	}
}

// RemoteDelete drops a record deleted elsewhere. It does nothing and returns
// false while local mutations are pending for the record.
func (c *Coordinator) RemoteDelete(resource, id string) bool {
	key := cache.Key{Resource: resource, ID: id}
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.chains[key]; ok {
		return false
	}
	c.cache.Remove(key)
	c.touch(key)
	return true
}

// Update publishes base plus patch immediately, then issues the remote update.
// It returns once this request has been reconciled, which may wait for earlier
// requests on the same record. Errors are returned unchanged.
func (c *Coordinator) Update(ctx context.Context, resource, id string, patch objects.Patch) (objects.Record, error) {
	if err := checkTarget("update", resource, id); err != nil {
		return nil, err
	}
	if err := models.ValidatePatch(resource, patch); err != nil {
		return nil, err
	}

	key := cache.Key{Resource: resource, ID: id}
	op := c.begin(key, OpUpdate, patch)

	rec, err := c.store.Update(ctx, resource, id, patch)
	c.finish(key, op, rec, err)
	<-op.reconciled

	if err != nil {
		return nil, err
	}
	return rec, nil
}

// Delete hides the record from every view, then removes it on success or
// reveals it at its original list position on failure.
func (c *Coordinator) Delete(ctx context.Context, resource, id string) error {
	if err := checkTarget("delete", resource, id); err != nil {
		return err
	}

	key := cache.Key{Resource: resource, ID: id}
	op := c.begin(key, OpDelete, nil)

	_, err := c.store.Delete(ctx, resource, id)
	c.finish(key, op, nil, err)
	<-op.reconciled
	return err
}

// Create is not optimistic: the server assigns the id. The new record is
// cached and the resource's lists are invalidated.
func (c *Coordinator) Create(ctx context.Context, resource string, values objects.Patch) (objects.Record, error) {
	if !models.IsKnownResource(resource) {
		return nil, crmerr.Configuration("create", "unknown resource %q", resource)
	}
	if err := models.ValidatePatch(resource, values); err != nil {
		return nil, err
	}

	m := &Mutation{Resource: resource, Op: OpCreate, Patch: values.Clone()}
	c.journalBegin(m)

	rec, err := c.store.Create(ctx, resource, values)
	if err != nil {
		c.journalFail(m, err)
		c.reportFailure(m, err)
		return nil, err
	}

	m.RecordID = rec.ID()
	c.journalConfirm(m, rec)

	if m.RecordID != "" {
		key := cache.Key{Resource: resource, ID: m.RecordID}
		c.mu.Lock()
		c.cache.Put(key, rec)
		c.touch(key)
		c.mu.Unlock()
	}
	c.cache.Invalidate(resource)

	c.log.Debug().Str("resource", resource).Str("id", m.RecordID).Msg("created record")
	return rec, nil
}

func (c *Coordinator) begin(key cache.Key, kind OpKind, patch objects.Patch) *pendingOp {
	c.mu.Lock()
	defer c.mu.Unlock()

	ch, ok := c.chains[key]
	if !ok {
		ch = &chain{}
		ch.base, ch.hasBase = c.cache.Confirmed(key)
		c.chains[key] = ch
	}

	c.seq++
	op := &pendingOp{
		mut: &Mutation{
			Resource: key.Resource,
			RecordID: key.ID,
			Seq:      c.seq,
			Op:       kind,
			Patch:    patch.Clone(),
		},
		reconciled: make(chan struct{}),
	}
	ch.ops = append(ch.ops, op)

	c.journalBegin(op.mut)
	c.publish(key, ch)

	c.log.Debug().Str("key", key.String()).Uint64("seq", op.mut.Seq).Str("op", string(kind)).Msg("optimistic mutation applied")
	return op
}

// finish records a response and reconciles every completed op at the head of
// the chain. A response that arrives ahead of an earlier request waits.
func (c *Coordinator) finish(key cache.Key, op *pendingOp, rec objects.Record, err error) {
	c.mu.Lock()

	op.done = true
	op.result = rec
	op.err = err

	ch := c.chains[key]
	var failed []*pendingOp
	var drained []*pendingOp
	for len(ch.ops) > 0 && ch.ops[0].done {
		head := ch.ops[0]
		ch.ops = ch.ops[1:]
		if c.reconcile(ch, head) {
			failed = append(failed, head)
		}
		drained = append(drained, head)
	}

	if len(drained) > 0 {
		c.touch(key)
	}

	switch {
	case len(drained) == 0:
		c.log.Debug().Str("key", key.String()).Uint64("seq", op.mut.Seq).Msg("response buffered behind earlier request")
	case len(ch.ops) == 0:
		delete(c.chains, key)
		c.settle(key, ch)
	default:
		c.publish(key, ch)
	}

	c.mu.Unlock()

	for _, f := range failed {
		c.reportFailure(f.mut, f.err)
	}
	for _, d := range drained {
		close(d.reconciled)
	}
}

// reconcile folds one completed op into the chain base. It reports whether
// the op failed. A failure only drops its own patch.
func (c *Coordinator) reconcile(ch *chain, op *pendingOp) bool {
	if op.err != nil {
		c.journalFail(op.mut, op.err)
		c.log.Warn().Err(op.err).
			Str("resource", op.mut.Resource).
			Str("id", op.mut.RecordID).
			Uint64("seq", op.mut.Seq).
			Str("op", string(op.mut.Op)).
			Msg("mutation rolled back")
		return true
	}

	switch op.mut.Op {
	case OpDelete:
		ch.base = nil
		ch.hasBase = false
		ch.deleted = true
	default:
		ch.base = op.result.Clone()
		ch.hasBase = true
		ch.deleted = false
	}
	c.journalConfirm(op.mut, op.result)
	return false
}

// publish shows base with every pending op applied.
func (c *Coordinator) publish(key cache.Key, ch *chain) {
	visible := ch.base.Clone()
	hidden := ch.deleted
	for _, op := range ch.ops {
		if op.mut.Op == OpDelete {
			hidden = true
			continue
		}
		visible = objects.ApplyPatch(visible, op.mut.Patch)
	}

	if hidden {
		c.cache.Hide(key)
	} else {
		if visible == nil {
			visible = objects.Record{}
		}
		if visible.ID() == "" {
			visible[objects.FieldID] = key.ID
		}
		c.cache.SetOverlay(key, visible)
	}
	if ch.hasBase {
		c.cache.Put(key, ch.base)
	}
}

// settle writes the final confirmed state once a chain is empty. When every
// op failed this is the snapshot taken before the chain started.
func (c *Coordinator) settle(key cache.Key, ch *chain) {
	switch {
	case ch.deleted:
		c.cache.Remove(key)
	case ch.hasBase:
		c.cache.Put(key, ch.base)
		c.cache.ClearOverlay(key)
	default:
		c.cache.ClearOverlay(key)
	}
}

func (c *Coordinator) reportError(err error) {
	if c.onError != nil {
		c.onError(err)
	}
}

func (c *Coordinator) reportFailure(m *Mutation, err error) {
	c.reportError(err)
	if c.onFailed != nil {
		c.onFailed(&crmerr.MutationFailed{
			Resource: m.Resource,
			ID:       m.RecordID,
			Op:       string(m.Op),
			Err:      err,
		})
	}
}

func (c *Coordinator) journalBegin(m *Mutation) {
	if c.journal == nil {
		return
	}
	if err := c.journal.Begin(m); err != nil {
		c.log.Warn().Err(err).Str("resource", m.Resource).Msg("failed to journal mutation")
	}
}

func (c *Coordinator) journalConfirm(m *Mutation, rec objects.Record) {
	if c.journal == nil {
		return
	}
	if err := c.journal.Confirm(m, rec); err != nil {
		c.log.Warn().Err(err).Str("journal_id", m.JournalID).Msg("failed to journal confirmation")
	}
}

func (c *Coordinator) journalFail(m *Mutation, cause error) {
	if c.journal == nil {
		return
	}
	if err := c.journal.Fail(m, cause); err != nil {
		c.log.Warn().Err(err).Str("journal_id", m.JournalID).Msg("failed to journal failure")
	}
}

func checkTarget(op, resource, id string) error {
	if !models.IsKnownResource(resource) {
		return crmerr.Configuration(op, "unknown resource %q", resource)
	}
	if id == "" {
		return crmerr.Configuration(op, "id is required")
	}
	return nil
}
