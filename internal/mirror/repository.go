package mirror

import (
	"context"
	"encoding/json"
	"strconv"
	"sync"
	"time"

	"github.com/XTREM35000/core-toolkit-app-sub001/internal/entity"
	"github.com/XTREM35000/core-toolkit-app-sub001/internal/repository"
	"github.com/XTREM35000/core-toolkit-app-sub001/pkg/logger"

	"go.uber.org/zap"
)

// LocalIDPrefix marks ids synthesized while the backend was unreachable
const LocalIDPrefix = "local-"

// Repository stores one entity as a JSON array under a fixed key.
// Each tenant gets its own key so a fallback never crosses tenants.
type Repository struct {
	store  Store
	spec   entity.Spec
	prefix string
	log    *zap.Logger
	now    func() time.Time

	mu sync.Mutex
}

// NewRepository creates a mirror repository for spec
func NewRepository(store Store, spec entity.Spec, keyPrefix string, log *zap.Logger) *Repository {
	return &Repository{
		store:  store,
		spec:   spec,
		prefix: keyPrefix,
		log:    logger.OrNop(log),
		now:    time.Now,
	}
}

// Key returns the storage key for scope
func (r *Repository) Key(scope repository.Scope) string {
	key := r.prefix + r.spec.MirrorKey
	if scope.Scoped() {
		key += ":" + scope.TenantID
	}
	return key
}

// load reads the mirror in stored order. Missing or corrupt payloads read as empty.
func (r *Repository) load(ctx context.Context, op string, scope repository.Scope) ([]entity.Record, error) {
	key := r.Key(scope)
	data, err := r.store.Load(ctx, key)
	if err != nil {
		return nil, repository.Wrap(op, key, repository.KindUnavailable, err)
	}
	if len(data) == 0 {
		return []entity.Record{}, nil
	}

	var records []entity.Record
	if err := json.Unmarshal(data, &records); err != nil {
		r.log.Warn("Discarding corrupt mirror", zap.String("key", key), zap.Error(err))
		return []entity.Record{}, nil
	}

	out := make([]entity.Record, 0, len(records))
	for _, rec := range records {
		if rec != nil {
			out = append(out, rec.NormalizeTimes())
		}
	}
	return out, nil
}

func (r *Repository) save(ctx context.Context, op string, scope repository.Scope, records []entity.Record) error {
	key := r.Key(scope)
	data, err := json.Marshal(records)
	if err != nil {
		return repository.Wrap(op, key, repository.KindRejected, err)
	}
	if err := r.store.Save(ctx, key, data); err != nil {
		return repository.Wrap(op, key, repository.KindUnavailable, err)
	}
	return nil
}

// List returns the mirrored rows, newest first
func (r *Repository) List(ctx context.Context, scope repository.Scope) ([]entity.Record, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	records, err := r.load(ctx, "list", scope)
	if err != nil {
		return nil, err
	}
	entity.SortNewestFirst(records)
	return records, nil
}

// Create prepends rec to the mirror. Rows without an id get a time-based one.
func (r *Repository) Create(ctx context.Context, scope repository.Scope, rec entity.Record) (entity.Record, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	records, err := r.load(ctx, "create", scope)
	if err != nil {
		return nil, err
	}

	row := rec.Clone()
	if row.ID() == "" {
		row[entity.FieldID] = LocalIDPrefix + strconv.FormatInt(r.now().UnixNano(), 10)
	}
	if scope.Scoped() {
		row[r.spec.Tenant()] = scope.TenantID
	}

	records = append([]entity.Record{row}, records...)
	if err := r.save(ctx, "create", scope, records); err != nil {
		return nil, err
	}
	return row, nil
}

// Update patches the mirrored row with id
func (r *Repository) Update(ctx context.Context, scope repository.Scope, id string, patch entity.Record) (entity.Record, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	records, err := r.load(ctx, "update", scope)
	if err != nil {
		return nil, err
	}

	for i, rec := range records {
		if rec.ID() != id {
			continue
		}
		updated := rec.Clone()
		for k, v := range patch {
			if k == entity.FieldID || k == r.spec.Tenant() {
				continue
			}
			updated[k] = v
		}
		records[i] = updated
		if err := r.save(ctx, "update", scope, records); err != nil {
			return nil, err
		}
		return updated, nil
	}

	return nil, repository.Wrap("update", r.Key(scope), repository.KindNotFound, repository.ErrNotFound)
}

// Remove filters the row with id out of the mirror. Removing an absent row is a no-op.
func (r *Repository) Remove(ctx context.Context, scope repository.Scope, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	records, err := r.load(ctx, "remove", scope)
	if err != nil {
		return err
	}

	kept := records[:0]
	for _, rec := range records {
		if rec.ID() != id {
			kept = append(kept, rec)
		}
	}
	if len(kept) == len(records) {
		return nil
	}
	return r.save(ctx, "remove", scope, kept)
}
