// Package repository owns the canonical tenant collection and keeps it in
// sync between the local store and the owner's remote document.
package repository

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/Mayank7Bisnewar/Tenant/internal/metrics"
	"github.com/Mayank7Bisnewar/Tenant/internal/models"
	"github.com/Mayank7Bisnewar/Tenant/internal/remote"
	"github.com/Mayank7Bisnewar/Tenant/internal/storage"
)

var (
	// ErrNoRemote is returned by SignIn when no remote directory is configured.
	ErrNoRemote = errors.New("remote directory not configured")

	// ErrNotSignedIn is returned by AwaitSync when there is no session to wait for.
	ErrNotSignedIn = errors.New("not signed in")
)

// State is the sync state of the repository.
type State int

const (
	// StateUnauthenticated works on local data only; nothing is pushed.
	StateUnauthenticated State = iota

	// StateInitialSync is signed in and waiting for the first remote snapshot.
	StateInitialSync

	// StateSynced mirrors the remote document and pushes every local mutation.
	StateSynced
)

func (s State) String() string {
	switch s {
	case StateUnauthenticated:
		return "unauthenticated"
	case StateInitialSync:
		return "initial_sync"
	case StateSynced:
		return "synced"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Snapshot outcomes reported to metrics.
const (
	outcomeSeeded   = "seeded"
	outcomeReplaced = "replaced"
	outcomeIgnored  = "ignored"
)

const defaultPushTimeout = 30 * time.Second

// Option configures a Repository.
type Option func(*Repository)

// WithLogger sets the logger. Defaults to slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(r *Repository) { r.logger = logger }
}

// WithMetrics sets the metrics sink.
func WithMetrics(m *metrics.Metrics) Option {
	return func(r *Repository) { r.metrics = m }
}

// WithErrorSink receives every failed remote push. It is called from the
// push goroutine.
func WithErrorSink(sink func(error)) Option {
	return func(r *Repository) { r.errSink = sink }
}

// WithClock overrides time.Now.
func WithClock(now func() time.Time) Option {
	return func(r *Repository) { r.now = now }
}

// WithIDGenerator overrides the tenant ID generator.
func WithIDGenerator(newID func() string) Option {
	return func(r *Repository) { r.newID = newID }
}

// WithPushTimeout bounds each remote push.
func WithPushTimeout(d time.Duration) Option {
	return func(r *Repository) { r.pushTimeout = d }
}

// WithSnapshotHook is called with a copy of the collection after every remote
// snapshot has been applied.
func WithSnapshotHook(hook func([]models.Tenant)) Option {
	return func(r *Repository) { r.onSnapshot = hook }
}

// session is one signed-in period. A new SignIn always creates a new session,
// so snapshots from an abandoned watch can be recognized and dropped.
type session struct {
	ownerID string
	cancel  context.CancelFunc
	synced  chan struct{}
	ended   chan struct{}
}

// Repository is the single owner of the tenant collection.
// Mutations are serialized and immediately visible; remote pushes run in the
// background and never roll back local state.
type Repository struct {
	mu      sync.Mutex
	tenants []models.Tenant
	state   State
	session *session

	slot *storage.Slot[[]models.Tenant]
	dir  remote.Directory

	// Pushes are saved one at a time, in issue order, by a single drainer.
	// Only the newest unsaved snapshot is kept.
	pushes  sync.WaitGroup
	queued  *pushJob
	pushing bool
	pushSeq uint64
	// echoes maps the fingerprint of each pushed snapshot to its sequence
	// number, so the remote feed echoing an older push can be dropped.
	echoes map[string]uint64

	logger      *slog.Logger
	metrics     *metrics.Metrics
	errSink     func(error)
	now         func() time.Time
	newID       func() string
	pushTimeout time.Duration
	onSnapshot  func([]models.Tenant)
}

// New loads the local tenant collection and returns an unauthenticated
// repository. dir may be nil, in which case SignIn always fails with ErrNoRemote.
func New(ctx context.Context, store storage.Store, dir remote.Directory, opts ...Option) *Repository {
	r := &Repository{
		dir:         dir,
		logger:      slog.Default(),
		now:         time.Now,
		newID:       uuid.NewString,
		pushTimeout: defaultPushTimeout,
		echoes:      make(map[string]uint64),
	}
	for _, opt := range opts {
		opt(r)
	}
	r.slot = storage.NewTenantsSlot(store, r.logger)
	r.tenants = r.slot.Read(ctx)
	r.observeCounts()

	r.logger.Debug("Tenant repository loaded", "tenants", len(r.tenants))
	return r
}

// State returns the current sync state.
func (r *Repository) State() State {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state
}

// OwnerID returns the signed-in owner, or "" when unauthenticated.
func (r *Repository) OwnerID() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.session == nil {
		return ""
	}
	return r.session.ownerID
}

// All returns every tenant, deleted ones included, in display order.
func (r *Repository) All() []models.Tenant {
	r.mu.Lock()
	defer r.mu.Unlock()
	return models.CloneTenants(r.tenants)
}

// Active returns the tenants shown in billing views.
func (r *Repository) Active() []models.Tenant {
	return r.filter(models.Tenant.IsActive)
}

// Deleted returns the soft-deleted tenants.
func (r *Repository) Deleted() []models.Tenant {
	return r.filter(func(t models.Tenant) bool { return !t.IsActive() })
}

func (r *Repository) filter(keep func(models.Tenant) bool) []models.Tenant {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := []models.Tenant{}
	for _, t := range r.tenants {
		if keep(t) {
			out = append(out, t.Clone())
		}
	}
	return out
}

// Get returns the tenant with the given ID.
func (r *Repository) Get(id string) (models.Tenant, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	i := r.indexLocked(id)
	if i < 0 {
		return models.Tenant{}, false
	}
	return r.tenants[i].Clone(), true
}

// Add creates an active tenant from fields. The tenant is kept in memory even
// when the local write fails; the write error is returned alongside it.
func (r *Repository) Add(ctx context.Context, fields models.TenantFields) (models.Tenant, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()
	tenant := models.Tenant{
		ID:             r.newID(),
		Name:           fields.Name,
		RoomNumber:     fields.RoomNumber,
		MobileNumber:   fields.MobileNumber,
		MonthlyRent:    fields.MonthlyRent,
		WaterBill:      fields.WaterBill,
		Status:         models.StatusActive,
		PaymentHistory: []models.PaymentRecord{},
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	r.tenants = append(r.tenants, tenant)

	r.logger.Info("Tenant added", "tenant_id", tenant.ID, "name", tenant.Name)
	return tenant.Clone(), r.commitLocked(ctx)
}

// Update applies mutate to the tenant with the given ID and stamps UpdatedAt.
// ID and CreatedAt are restored if mutate changes them. A missing ID is a
// no-op reported as found=false.
func (r *Repository) Update(ctx context.Context, id string, mutate func(*models.Tenant)) (models.Tenant, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	i := r.indexLocked(id)
	if i < 0 {
		r.logger.Debug("Update skipped, tenant not found", "tenant_id", id)
		return models.Tenant{}, false, nil
	}

	current := r.tenants[i]
	next := current.Clone()
	mutate(&next)
	next.ID = current.ID
	next.CreatedAt = current.CreatedAt
	next.Normalize()
	r.stampLocked(&next)
	r.tenants[i] = next

	return next.Clone(), true, r.commitLocked(ctx)
}

// Delete soft-deletes the tenant. The record and its history are retained.
func (r *Repository) Delete(ctx context.Context, id string) (bool, error) {
	_, found, err := r.Update(ctx, id, func(t *models.Tenant) {
		at := r.now()
		t.Status = models.StatusDeleted
		t.DeletedAt = &at
	})
	if found {
		r.logger.Info("Tenant deleted", "tenant_id", id)
	}
	return found, err
}

// Restore returns a soft-deleted tenant to the active views.
func (r *Repository) Restore(ctx context.Context, id string) (bool, error) {
	_, found, err := r.Update(ctx, id, func(t *models.Tenant) {
		t.Status = models.StatusActive
		t.DeletedAt = nil
	})
	if found {
		r.logger.Info("Tenant restored", "tenant_id", id)
	}
	return found, err
}

// PermanentDelete removes the tenant and its payment history.
func (r *Repository) PermanentDelete(ctx context.Context, id string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	i := r.indexLocked(id)
	if i < 0 {
		return false, nil
	}
	r.tenants = append(r.tenants[:i:i], r.tenants[i+1:]...)

	r.logger.Info("Tenant permanently deleted", "tenant_id", id)
	return true, r.commitLocked(ctx)
}

// Reorder puts the collection in the order of ordered. Only IDs are taken
// from ordered; tenant content always comes from the current collection.
// Unknown IDs are ignored and tenants missing from ordered keep their
// relative order after the listed ones.
func (r *Repository) Reorder(ctx context.Context, ordered []models.Tenant) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	byID := make(map[string]models.Tenant, len(r.tenants))
	for _, t := range r.tenants {
		byID[t.ID] = t
	}

	next := make([]models.Tenant, 0, len(r.tenants))
	placed := make(map[string]bool, len(r.tenants))
	for _, t := range ordered {
		current, ok := byID[t.ID]
		if !ok || placed[t.ID] {
			continue
		}
		next = append(next, current)
		placed[t.ID] = true
	}
	for _, t := range r.tenants {
		if !placed[t.ID] {
			next = append(next, t)
		}
	}
	r.tenants = next

	r.logger.Info("Tenants reordered", "count", len(next))
	return r.commitLocked(ctx)
}

// SignIn starts syncing with the owner's remote document. Any previous
// session is ended first, so at most one watch is active.
func (r *Repository) SignIn(ctx context.Context, ownerID string) error {
	if r.dir == nil {
		return ErrNoRemote
	}
	if ownerID == "" {
		return remote.ErrNoOwner
	}

	watchCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	s := &session{
		ownerID: ownerID,
		cancel:  cancel,
		synced:  make(chan struct{}),
		ended:   make(chan struct{}),
	}

	r.mu.Lock()
	r.endSessionLocked()
	r.session = s
	r.state = StateInitialSync
	clear(r.echoes)
	r.mu.Unlock()

	r.logger.Info("Signing in", "owner_id", ownerID)

	updates, err := r.dir.Watch(watchCtx, ownerID)
	if err != nil {
		r.mu.Lock()
		if r.session == s {
			r.endSessionLocked()
		}
		r.mu.Unlock()
		r.logger.Error("Failed to watch remote document", "owner_id", ownerID, "error", err)
		return fmt.Errorf("failed to watch remote document: %w", err)
	}

	go r.follow(s, updates)
	return nil
}

// SignOut ends the session. The repository keeps working on local data.
func (r *Repository) SignOut() {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.session != nil {
		r.logger.Info("Signed out", "owner_id", r.session.ownerID)
	}
	r.endSessionLocked()
}

// AwaitSync blocks until the current session has reconciled its first
// remote snapshot.
func (r *Repository) AwaitSync(ctx context.Context) error {
	r.mu.Lock()
	s := r.session
	r.mu.Unlock()

	if s == nil {
		return ErrNotSignedIn
	}

	select {
	case <-s.synced:
		return nil
	case <-s.ended:
		return ErrNotSignedIn
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Flush waits for every in-flight remote push.
func (r *Repository) Flush() {
	r.pushes.Wait()
}

// Close ends the session and waits for pending pushes.
func (r *Repository) Close() {
	r.SignOut()
	r.Flush()
}

func (r *Repository) follow(s *session, updates <-chan []models.Tenant) {
	for snapshot := range updates {
		r.reconcile(s, snapshot)
	}
}

func (r *Repository) reconcile(s *session, snapshot []models.Tenant) {
	r.mu.Lock()

	if r.session != s {
		r.mu.Unlock()
		r.metrics.ObserveSnapshot(outcomeIgnored)
		return
	}

	ctx := context.Background()
	switch r.state {
	case StateInitialSync:
		if len(snapshot) == 0 && len(r.tenants) > 0 {
			// First sign-in against an empty document: local data seeds it.
			r.state = StateSynced
			r.pushLocked()
			r.metrics.ObserveSnapshot(outcomeSeeded)
			r.logger.Info("Seeded remote document from local data", "owner_id", s.ownerID, "tenants", len(r.tenants))
		} else {
			r.replaceLocked(ctx, snapshot)
			r.state = StateSynced
			r.metrics.ObserveSnapshot(outcomeReplaced)
			r.logger.Info("Initial sync complete", "owner_id", s.ownerID, "tenants", len(snapshot))
		}
		close(s.synced)
	case StateSynced:
		if r.staleLocked(snapshot) {
			r.mu.Unlock()
			r.metrics.ObserveSnapshot(outcomeIgnored)
			r.logger.Debug("Ignored remote snapshot behind local state", "owner_id", s.ownerID)
			return
		}
		r.replaceLocked(ctx, snapshot)
		r.metrics.ObserveSnapshot(outcomeReplaced)
		r.logger.Debug("Applied remote snapshot", "owner_id", s.ownerID, "tenants", len(snapshot))
	}

	hook := r.onSnapshot
	current := models.CloneTenants(r.tenants)
	r.mu.Unlock()

	if hook != nil {
		hook(current)
	}
}

// replaceLocked adopts a remote snapshot and writes it through to the local store.
func (r *Repository) replaceLocked(ctx context.Context, snapshot []models.Tenant) {
	next := models.CloneTenants(snapshot)
	if next == nil {
		next = []models.Tenant{}
	}
	for i := range next {
		next[i].Normalize()
	}
	r.tenants = next
	r.observeCountsLocked()

	if err := r.slot.Write(ctx, r.tenants); err != nil {
		r.metrics.ObserveLocalWrite(err)
		r.logger.Error("Failed to persist remote snapshot", "error", err)
	}
}

// commitLocked persists the collection and, when synced, pushes it.
func (r *Repository) commitLocked(ctx context.Context) error {
	r.observeCountsLocked()
	r.pushLocked()

	if err := r.slot.Write(ctx, r.tenants); err != nil {
		r.metrics.ObserveLocalWrite(err)
		r.logger.Error("Failed to persist tenants", "error", err)
		return err
	}
	return nil
}

// pushLocked queues the current collection for the remote directory.
// Only the Synced state pushes.
func (r *Repository) pushLocked() {
	if r.state != StateSynced || r.session == nil {
		return
	}

	snapshot := models.CloneTenants(r.tenants)
	r.pushSeq++
	if fp, err := fingerprint(snapshot); err == nil {
		r.echoes[fp] = r.pushSeq
	}
	r.queued = &pushJob{ownerID: r.session.ownerID, tenants: snapshot}

	if r.pushing {
		return
	}
	r.pushing = true
	r.pushes.Add(1)
	go r.drainPushes()
}

// staleLocked reports whether a remote snapshot must not replace local state:
// it is the echo of a push that a newer push supersedes, or a push of ours
// is still pending and will overwrite the remote document anyway.
func (r *Repository) staleLocked(snapshot []models.Tenant) bool {
	fp, err := fingerprint(snapshot)
	if err != nil {
		return r.pushing
	}
	if seq, ok := r.echoes[fp]; ok {
		if seq < r.pushSeq {
			return true
		}
		// The newest push has come back; older echoes were delivered before it.
		clear(r.echoes)
		return false
	}
	return r.pushing
}
type pushJob struct {
	ownerID string
	tenants []models.Tenant
}

func (r *Repository) drainPushes() {
	defer r.pushes.Done()
	for {
		r.mu.Lock()
		job := r.queued
		r.queued = nil
		if job == nil {
			r.pushing = false
			r.mu.Unlock()
			return
		}
		r.mu.Unlock()

		r.save(job)
	}
}

func (r *Repository) save(job *pushJob) {
	ctx, cancel := context.WithTimeout(context.Background(), r.pushTimeout)
	defer cancel()

	err := r.dir.Save(ctx, job.ownerID, job.tenants)
	r.metrics.ObservePush(err)
	if err != nil {
		err = fmt.Errorf("failed to push tenants for owner %s: %w", job.ownerID, err)
		r.logger.Error("Remote push failed", "owner_id", job.ownerID, "error", err)
		if r.errSink != nil {
			r.errSink(err)
		}
		return
	}
	r.logger.Debug("Remote push complete", "owner_id", job.ownerID, "tenants", len(job.tenants))
}

// fingerprint identifies a collection by its remote encoding.
func fingerprint(tenants []models.Tenant) (string, error) {
	raw, err := remote.EncodeDocument(tenants)
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256(raw)
	return hex.EncodeToString(sum[:]), nil
}

func (r *Repository) endSessionLocked() {
	if r.session != nil {
		r.session.cancel()
		close(r.session.ended)
		r.session = nil
	}
	r.state = StateUnauthenticated
}

// stampLocked sets UpdatedAt to now, never earlier than CreatedAt.
func (r *Repository) stampLocked(t *models.Tenant) {
	now := r.now()
	if now.Before(t.CreatedAt) {
		now = t.CreatedAt
	}
	t.UpdatedAt = now
}

func (r *Repository) indexLocked(id string) int {
	for i, t := range r.tenants {
		if t.ID == id {
			return i
		}
	}
	return -1
}

func (r *Repository) observeCounts() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.observeCountsLocked()
}

func (r *Repository) observeCountsLocked() {
	active := 0
	for _, t := range r.tenants {
		if t.IsActive() {
			active++
		}
	}
	r.metrics.SetTenants(active, len(r.tenants)-active)
}
