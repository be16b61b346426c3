package entitykit

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"reflect"

	"github.com/uptrace/bun"
)

// CreateInput builds a new entity row. Implementations return a fully
// populated model ready to persist; generated columns (primary key, defaults,
// audit columns) are filled in by the engine and the store.
type CreateInput[E any] interface {
	Entity() *E
}

// UpdateInput applies a partial update to a loaded entity and returns the
// column names it touched. Fields the input does not carry must be left
// untouched, not nulled; returning no columns means nothing to persist.
type UpdateInput[E any] interface {
	ApplyTo(entity *E) (columns []string)
}

// Engine provides create/read/update/delete/list operations over a single
// entity type. It is parameterized by the context kind C, the entity E, the
// create and update input types, and the primary key type ID.
//
// An Engine holds no mutable state beyond the Descriptor computed at
// construction, so a single instance per entity type (built at application
// startup) is safe to share across concurrent operations. Each operation
// receives its own Context carrying the session it runs on.
type Engine[C Context, E any, CI CreateInput[E], UI UpdateInput[E], ID comparable] struct {
	desc        *Descriptor
	maxPageSize int
	changeLog   bool
}

// DefaultMaxPageSize bounds list page sizes unless an engine overrides it.
const DefaultMaxPageSize = 100

type engineConfig struct {
	sortable    []string
	filterable  []string
	maxPageSize int
	changeLog   bool
}

// Option configures an Engine at construction time.
type Option func(*engineConfig)

// WithSortable restricts the sort allow-list to the given columns.
// Without it, every column is sortable.
func WithSortable(columns ...string) Option {
	return func(c *engineConfig) { c.sortable = columns }
}

// WithFilterable restricts the filter allow-list to the given columns.
// Without it, every column is filterable.
func WithFilterable(columns ...string) Option {
	return func(c *engineConfig) { c.filterable = columns }
}

// WithMaxPageSize sets the engine-wide maximum (and default) list page size.
func WithMaxPageSize(n int) Option {
	return func(c *engineConfig) { c.maxPageSize = n }
}

// WithChangeLog makes the engine record a ChangeLog row for every create,
// update, and delete, with before/after snapshots of the entity.
func WithChangeLog() Option {
	return func(c *engineConfig) { c.changeLog = true }
}

// NewEngine builds an Engine for entity E, computing its Descriptor once and
// cross-checking it against the context kind C. Misconfiguration — an entity
// that is not a bun model, an unknown column in an allow-list, or audit
// columns paired with a context kind that cannot carry an identity — is
// reported here as ErrConfiguration, before any operation can run.
func NewEngine[C Context, E any, CI CreateInput[E], UI UpdateInput[E], ID comparable](opts ...Option) (*Engine[C, E, CI, UI, ID], error) {
	cfg := engineConfig{maxPageSize: DefaultMaxPageSize}
	for _, opt := range opts {
		opt(&cfg)
	}

	desc, err := describeEntity(reflect.TypeOf((*E)(nil)).Elem())
	if err != nil {
		return nil, err
	}
	if cfg.sortable != nil {
		if err := desc.restrictSortable(cfg.sortable); err != nil {
			return nil, err
		}
	}
	if cfg.filterable != nil {
		if err := desc.restrictFilterable(cfg.filterable); err != nil {
			return nil, err
		}
	}
	if cfg.maxPageSize <= 0 {
		return nil, NewError(ErrConfiguration,
			fmt.Sprintf("max page size must be positive, got %d", cfg.maxPageSize)).
			WithEntity(desc.Table())
	}

	var zero C
	if any(zero) == nil {
		return nil, NewError(ErrConfiguration,
			"context kind must be a concrete variant (UserContext, NoUserContext, or MaybeUserContext), not the Context interface").
			WithEntity(desc.Table())
	}
	if desc.HasAuditColumns() && !zero.carriesIdentity() {
		return nil, NewError(ErrConfiguration,
			fmt.Sprintf("entity %s has audit columns but context kind %T cannot carry an identity", desc.Table(), zero)).
			WithEntity(desc.Table())
	}

	return &Engine[C, E, CI, UI, ID]{
		desc:        desc,
		maxPageSize: cfg.maxPageSize,
		changeLog:   cfg.changeLog,
	}, nil
}

// Descriptor returns the entity metadata computed at construction.
func (e *Engine[C, E, CI, UI, ID]) Descriptor() *Descriptor {
	return e.desc
}

// Get looks up an entity by primary key. A missing row is not an error:
// it returns (nil, nil).
func (e *Engine[C, E, CI, UI, ID]) Get(ctx context.Context, ec C, id ID) (*E, error) {
	entity := new(E)
	err := ec.Session().NewSelect().
		Model(entity).
		Where("? = ?", bun.Ident(e.desc.PKColumn()), id).
		Limit(1).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return entity, nil
}

// GetIfExist looks up an entity by primary key and returns ErrEntityNotFound
// if it does not exist. For callers that treat absence as exceptional.
func (e *Engine[C, E, CI, UI, ID]) GetIfExist(ctx context.Context, ec C, id ID) (*E, error) {
	entity, err := e.Get(ctx, ec, id)
	if err != nil {
		return nil, err
	}
	if entity == nil {
		return nil, NewError(ErrEntityNotFound,
			fmt.Sprintf("entity [%s] with id=%v does not exist", e.desc.Table(), id)).
			WithEntity(e.desc.Table()).WithID(id)
	}
	return entity, nil
}

// Create persists a new entity built from input. When the entity has a
// creator column and the context carries a present identity, the column is
// stamped before persisting. Returns the persisted entity including the
// generated primary key and server-side defaults.
func (e *Engine[C, E, CI, UI, ID]) Create(ctx context.Context, ec C, input CI) (*E, error) {
	entity := input.Entity()

	if userID, ok := ec.Identity(); ok && e.desc.creatorIndex != nil {
		e.desc.stampCreator(entity, userID)
	}

	_, err := ec.Session().NewInsert().
		Model(entity).
		Returning("*").
		Exec(ctx)
	if err != nil {
		return nil, err
	}

	e.logChange(ctx, ec.Session(), nil, entity)
	return entity, nil
}

// CreateIfNotExist looks for an existing row matching the given equality
// filters. If one exists it is returned unchanged — or, when raiseOnConflict
// is set, ErrDuplicateEntity is returned instead. Otherwise the call behaves
// like Create. Filter keys are validated against the filter allow-list.
func (e *Engine[C, E, CI, UI, ID]) CreateIfNotExist(ctx context.Context, ec C, input CI, match map[string]any, raiseOnConflict bool) (*E, error) {
	if err := e.desc.checkFilterable(match); err != nil {
		return nil, err
	}

	existing := new(E)
	q := ec.Session().NewSelect().Model(existing).Limit(1)
	for _, key := range sortedKeys(match) {
		q = q.Where("? = ?", bun.Ident(key), match[key])
	}

	err := q.Scan(ctx)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return e.Create(ctx, ec, input)
	case err != nil:
		return nil, err
	case raiseOnConflict:
		return nil, NewError(ErrDuplicateEntity,
			fmt.Sprintf("entity [%s] matching filters already exists", e.desc.Table())).
			WithEntity(e.desc.Table())
	default:
		return existing, nil
	}
}

// Update loads the entity by primary key (ErrEntityNotFound if absent),
// applies only the fields the input carries, stamps the last-modifier column
// under the same identity-presence rule as Create, and persists. Untouched
// fields keep their stored values.
func (e *Engine[C, E, CI, UI, ID]) Update(ctx context.Context, ec C, id ID, input UI) (*E, error) {
	entity, err := e.GetIfExist(ctx, ec, id)
	if err != nil {
		return nil, err
	}
	before := *entity

	columns := input.ApplyTo(entity)
	if len(columns) == 0 {
		return entity, nil
	}
	if userID, ok := ec.Identity(); ok && e.desc.modifierIndex != nil {
		e.desc.stampModifier(entity, userID)
		columns = append(columns, ColumnLastModifierUserID)
	}

	_, err = ec.Session().NewUpdate().
		Model(entity).
		Column(columns...).
		WherePK().
		Returning("*").
		Exec(ctx)
	if err != nil {
		return nil, err
	}

	e.logChange(ctx, ec.Session(), &before, entity)
	return entity, nil
}

// Delete loads the entity by primary key (ErrEntityNotFound if absent),
// removes the row, and returns the pre-deletion snapshot.
func (e *Engine[C, E, CI, UI, ID]) Delete(ctx context.Context, ec C, id ID) (*E, error) {
	entity, err := e.GetIfExist(ctx, ec, id)
	if err != nil {
		return nil, err
	}

	_, err = ec.Session().NewDelete().
		Model(entity).
		WherePK().
		Exec(ctx)
	if err != nil {
		return nil, err
	}

	e.logChange(ctx, ec.Session(), entity, nil)
	return entity, nil
}

// GetMulti returns the total number of rows matching the filters and one page
// of them. Filters are conjunctive equality predicates; sort fields apply in
// order, falling back to ascending primary key when none are given so that
// paging over a static dataset is deterministic. Count and page come from the
// same filtered query on the same session, so both see one snapshot.
func (e *Engine[C, E, CI, UI, ID]) GetMulti(ctx context.Context, ec C, params ListParams) (int, []E, error) {
	if err := e.desc.checkFilterable(params.Filters); err != nil {
		return 0, nil, err
	}
	if err := e.desc.checkSortable(params.Sort); err != nil {
		return 0, nil, err
	}

	limit := params.Limit
	if limit <= 0 || limit > e.maxPageSize {
		limit = e.maxPageSize
	}

	var entities []E
	q := ec.Session().NewSelect().Model(&entities)

	for _, key := range sortedKeys(params.Filters) {
		q = q.Where("? = ?", bun.Ident(key), params.Filters[key])
	}

	sorts := params.Sort
	if len(sorts) == 0 {
		sorts = []SortField{{Field: e.desc.PKColumn(), Direction: Ascending}}
	}
	for _, s := range sorts {
		if s.Direction == Descending {
			q = q.OrderExpr("? DESC", bun.Ident(s.Field))
		} else {
			q = q.OrderExpr("? ASC", bun.Ident(s.Field))
		}
	}

	total, err := q.Offset(params.Skip).Limit(limit).ScanAndCount(ctx)
	if err != nil {
		return 0, nil, err
	}
	return total, entities, nil
}

// logChange records an entity mutation when the engine was built
// WithChangeLog. A failed write never fails the mutation it describes.
func (e *Engine[C, E, CI, UI, ID]) logChange(ctx context.Context, s Session, before, after *E) {
	if !e.changeLog {
		return
	}
	var b, a any
	if before != nil {
		b = before
	}
	if after != nil {
		a = after
	}
	_ = writeChangeLog(ctx, s, e.desc.Table(), b, a)
}
