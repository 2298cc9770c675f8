package repository

import (
	"context"
	"time"

	"github.com/XTREM35000/core-toolkit-app-sub001/internal/entity"
	"github.com/XTREM35000/core-toolkit-app-sub001/prometheus"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormRepository stores an entity in its backend table
type GormRepository struct {
	db   *gorm.DB
	spec entity.Spec
}

// NewGormRepository creates a remote repository for spec
func NewGormRepository(db *gorm.DB, spec entity.Spec) *GormRepository {
	return &GormRepository{db: db, spec: spec}
}

func (r *GormRepository) scoped(ctx context.Context, scope Scope) *gorm.DB {
	q := r.db.WithContext(ctx).Table(r.spec.Table)
	if scope.Scoped() {
		q = q.Where(clause.Eq{Column: clause.Column{Name: r.spec.Tenant()}, Value: scope.TenantID})
	}
	return q
}

// List returns the rows visible in scope, newest first
func (r *GormRepository) List(ctx context.Context, scope Scope) ([]entity.Record, error) {
	defer prometheus.TrackDBOperation("query")(time.Now())

	var rows []map[string]interface{}
	if err := r.scoped(ctx, scope).Order("created_at desc").Find(&rows).Error; err != nil {
		return nil, Wrap("list", r.spec.Table, "", err)
	}

	records := make([]entity.Record, 0, len(rows))
	for _, row := range rows {
		records = append(records, entity.Record(row))
	}
	return records, nil
}

// Create inserts rec. A UUID is assigned when rec has no id, and the tenant
// column is forced to the scope's tenant.
func (r *GormRepository) Create(ctx context.Context, scope Scope, rec entity.Record) (entity.Record, error) {
	defer prometheus.TrackDBOperation("insert")(time.Now())

	row := rec.Clone()
	if row.ID() == "" {
		row[entity.FieldID] = uuid.NewString()
	}
	if scope.Scoped() {
		row[r.spec.Tenant()] = scope.TenantID
	}

	if err := r.db.WithContext(ctx).Table(r.spec.Table).Create(map[string]interface{}(row)).Error; err != nil {
		return nil, Wrap("create", r.spec.Table, "", err)
	}
	return row, nil
}

// Update applies patch to the row with id in scope and returns the stored row
func (r *GormRepository) Update(ctx context.Context, scope Scope, id string, patch entity.Record) (entity.Record, error) {
	defer prometheus.TrackDBOperation("update")(time.Now())

	values := patch.Clone()
	delete(values, entity.FieldID)
	delete(values, r.spec.Tenant())

	if len(values) > 0 {
		res := r.scoped(ctx, scope).
			Where(clause.Eq{Column: clause.Column{Name: entity.FieldID}, Value: id}).
			Updates(map[string]interface{}(values))
		if res.Error != nil {
			return nil, Wrap("update", r.spec.Table, "", res.Error)
		}
		if res.RowsAffected == 0 {
			return nil, Wrap("update", r.spec.Table, KindNotFound, ErrNotFound)
		}
	}

	row := map[string]interface{}{}
	err := r.scoped(ctx, scope).
		Where(clause.Eq{Column: clause.Column{Name: entity.FieldID}, Value: id}).
		Take(&row).Error
	if err != nil {
		return nil, Wrap("update", r.spec.Table, "", err)
	}
	return entity.Record(row), nil
}

// Remove deletes the row with id in scope
func (r *GormRepository) Remove(ctx context.Context, scope Scope, id string) error {
	defer prometheus.TrackDBOperation("delete")(time.Now())

	var res *gorm.DB
	if scope.Scoped() {
		res = r.db.WithContext(ctx).Exec("DELETE FROM ? WHERE ? = ? AND ? = ?",
			clause.Table{Name: r.spec.Table},
			clause.Column{Name: entity.FieldID}, id,
			clause.Column{Name: r.spec.Tenant()}, scope.TenantID)
	} else {
		res = r.db.WithContext(ctx).Exec("DELETE FROM ? WHERE ? = ?",
			clause.Table{Name: r.spec.Table},
			clause.Column{Name: entity.FieldID}, id)
	}
	if res.Error != nil {
		return Wrap("remove", r.spec.Table, "", res.Error)
	}
	if res.RowsAffected == 0 {
		return Wrap("remove", r.spec.Table, KindNotFound, ErrNotFound)
	}
	return nil
}
