// Package crud implements tenant-scoped entity collections that keep
// serving from a local mirror while the remote backend is unreachable.
package crud

import (
	"context"
	"strconv"
	"sync"
	"time"

	"github.com/XTREM35000/core-toolkit-app-sub001/internal/entity"
	"github.com/XTREM35000/core-toolkit-app-sub001/internal/mirror"
	"github.com/XTREM35000/core-toolkit-app-sub001/internal/repository"
	"github.com/XTREM35000/core-toolkit-app-sub001/pkg/logger"
	"github.com/XTREM35000/core-toolkit-app-sub001/prometheus"

	"go.uber.org/zap"
)

// Policy decides what a Collection does when the remote store fails
type Policy int

const (
	// FallbackToMirror serves reads from the mirror and records writes there
	FallbackToMirror Policy = iota
	// Propagate returns the remote error to the caller
	Propagate
)

// ParsePolicy maps "propagate" to Propagate and anything else to FallbackToMirror
func ParsePolicy(s string) Policy {
	if s == "propagate" {
		return Propagate
	}
	return FallbackToMirror
}

// TenantSource yields the tenant that scopes every query
type TenantSource interface {
	TenantID(ctx context.Context) (string, bool)
}

// Deps are the collaborators of a Collection. Mirror and Tenant may be nil.
type Deps struct {
	Remote repository.Repository
	Mirror repository.Repository
	Tenant TenantSource
	Policy Policy
	Log    *zap.Logger
	Now    func() time.Time
}

// Collection is one view's working set of an entity. Instances never share
// state; two collections of the same entity diverge until each refreshes.
type Collection struct {
	spec   entity.Spec
	remote repository.Repository
	mirror repository.Repository
	tenant TenantSource
	policy Policy
	log    *zap.Logger
	now    func() time.Time

	mu      sync.Mutex
	items   []entity.Record
	loading bool
	offline bool
	err     error
}

// New creates a collection and loads it once
func New(ctx context.Context, spec entity.Spec, deps Deps) *Collection {
	c := Open(spec, deps)
	c.Refresh(ctx)
	return c
}

// Open creates a collection with an empty working set. Writes go straight to
// the stores; Refresh loads the list.
func Open(spec entity.Spec, deps Deps) *Collection {
	c := &Collection{
		spec:   spec,
		remote: deps.Remote,
		mirror: deps.Mirror,
		tenant: deps.Tenant,
		policy: deps.Policy,
		log:    logger.OrNop(deps.Log).With(zap.String("entity", spec.Name)),
		now:    deps.Now,
	}
	if c.now == nil {
		c.now = time.Now
	}
	return c
}

// Items returns a copy of the current working set, newest first
func (c *Collection) Items() []entity.Record {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]entity.Record, len(c.items))
	copy(out, c.items)
	return out
}

// Loading reports whether a remote call is in flight
func (c *Collection) Loading() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.loading
}

// Offline reports whether the last operation was served by the mirror
func (c *Collection) Offline() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.offline
}

// Err returns the error of the last operation, if it was returned to the caller
func (c *Collection) Err() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.err
}

func (c *Collection) begin() {
	c.mu.Lock()
	c.loading = true
	c.mu.Unlock()
}

func (c *Collection) finish(offline bool, err error) {
	c.mu.Lock()
	c.loading = false
	c.offline = offline
	c.err = err
	c.mu.Unlock()
}

func (c *Collection) scope(ctx context.Context) repository.Scope {
	if c.tenant == nil {
		return repository.Scope{}
	}
	tenantID, ok := c.tenant.TenantID(ctx)
	if !ok {
		prometheus.TenantContextMissingCounter.Inc()
		c.log.Debug("No tenant resolved, querying unscoped")
		return repository.Scope{}
	}
	return repository.Scope{TenantID: tenantID}
}

// useMirror reports whether a remote failure should be absorbed by the mirror
func (c *Collection) useMirror(op string, err error) bool {
	if c.policy != FallbackToMirror || c.mirror == nil || repository.IsNotFound(err) {
		return false
	}
	c.log.Warn("Remote store failed, using local mirror",
		zap.String("operation", op),
		zap.String("kind", string(repository.KindOf(err))),
		zap.Error(err))
	prometheus.RecordMirrorFallback(c.spec.Name, op)
	return true
}

// Refresh reloads the working set from the remote store, or from the mirror
// when the remote fails. With FallbackToMirror it never returns an error.
func (c *Collection) Refresh(ctx context.Context) ([]entity.Record, error) {
	prometheus.RecordEntityOperation(c.spec.Name, "list")
	c.begin()

	scope := c.scope(ctx)
	rows, err := c.remote.List(ctx, scope)
	offline := false
	if err != nil {
		if !c.useMirror("list", err) {
			c.finish(false, err)
			return nil, err
		}
		offline = true
		rows, err = c.mirror.List(ctx, scope)
		if err != nil {
			c.log.Error("Local mirror unreadable, returning empty list", zap.Error(err))
			rows = nil
		}
	}

	items := make([]entity.Record, 0, len(rows))
	for _, row := range rows {
		items = append(items, c.spec.ToUI(row))
	}

	c.mu.Lock()
	c.items = items
	c.mu.Unlock()
	c.finish(offline, nil)

	return c.Items(), nil
}

// Create stores payload (UI field names) and prepends the result to the
// working set. A tenant in payload is ignored; the row belongs to the
// resolved tenant. When the remote insert fails the row is recorded in the mirror
// under a time-based id and returned as if it had been stored.
func (c *Collection) Create(ctx context.Context, payload entity.Record) (entity.Record, error) {
	prometheus.RecordEntityOperation(c.spec.Name, "create")
	c.begin()

	rec := c.spec.ToBackend(payload)
	delete(rec, c.spec.Tenant())
	rec[entity.FieldCreatedAt] = c.now().UTC()
	scope := c.scope(ctx)
	if scope.Scoped() {
		rec[c.spec.Tenant()] = scope.TenantID
	}

	row, err := c.remote.Create(ctx, scope, rec)
	offline := false
	if err != nil {
		if !c.useMirror("create", err) {
			c.finish(false, err)
			return nil, err
		}
		offline = true
		row, err = c.mirror.Create(ctx, scope, rec)
		if err != nil {
			c.log.Error("Local mirror unwritable, keeping row in memory only", zap.Error(err))
			row = rec.Clone()
			row[entity.FieldID] = mirror.LocalIDPrefix + strconv.FormatInt(c.now().UnixNano(), 10)
		}
	}

	created := c.spec.ToUI(row)
	c.mu.Lock()
	c.items = append([]entity.Record{created}, c.items...)
	c.mu.Unlock()
	c.finish(offline, nil)

	c.log.Info("Entity created", zap.String("id", created.ID()), zap.Bool("offline", offline))
	return created.Clone(), nil
}

// Update applies payload (UI field names) to the row with id
func (c *Collection) Update(ctx context.Context, id string, payload entity.Record) (entity.Record, error) {
	prometheus.RecordEntityOperation(c.spec.Name, "update")
	c.begin()

	patch := c.spec.ToBackend(payload)
	patch[entity.FieldUpdatedAt] = c.now().UTC()
	scope := c.scope(ctx)

	row, err := c.remote.Update(ctx, scope, id, patch)
	offline := false
	if err != nil {
		if !c.useMirror("update", err) {
			c.finish(false, err)
			return nil, err
		}
		offline = true
		row, err = c.mirror.Update(ctx, scope, id, patch)
		if err != nil {
			row, err = c.patchInMemory(id, patch, err)
			if err != nil {
				c.finish(true, err)
				return nil, err
			}
		}
	}

	updated := c.spec.ToUI(row)
	c.mu.Lock()
	for i, item := range c.items {
		if item.ID() == id {
			c.items[i] = updated
			break
		}
	}
	c.mu.Unlock()
	c.finish(offline, nil)

	return updated.Clone(), nil
}

// patchInMemory applies patch to the working-set copy of id when the mirror
// has no entry for it (the row was loaded from the remote store).
func (c *Collection) patchInMemory(id string, patch entity.Record, mirrorErr error) (entity.Record, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, item := range c.items {
		if item.ID() != id {
			continue
		}
		row := c.spec.ToBackend(item)
		for k, v := range patch {
			if k != entity.FieldID && k != c.spec.Tenant() {
				row[k] = v
			}
		}
		return row, nil
	}
	return nil, mirrorErr
}

// Remove deletes the row with id. When the remote delete fails the row is
// filtered out of the mirror instead.
func (c *Collection) Remove(ctx context.Context, id string) error {
	prometheus.RecordEntityOperation(c.spec.Name, "remove")
	c.begin()

	scope := c.scope(ctx)
	err := c.remote.Remove(ctx, scope, id)
	offline := false
	if err != nil {
		if !c.useMirror("remove", err) {
			c.finish(false, err)
			return err
		}
		offline = true
		if err := c.mirror.Remove(ctx, scope, id); err != nil {
			c.log.Error("Local mirror unwritable", zap.String("id", id), zap.Error(err))
		}
	}

	c.mu.Lock()
	kept := c.items[:0]
	for _, item := range c.items {
		if item.ID() != id {
			kept = append(kept, item)
		}
	}
	c.items = kept
	c.mu.Unlock()
	c.finish(offline, nil)

	return nil
}
