package entitykit

import (
	"context"
	"database/sql"
	"testing"

	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
)

// newTestDB creates an in-memory SQLite database for unit tests that need
// real queries without a Postgres instance.
func newTestDB(t *testing.T) *bun.DB {
	t.Helper()

	sqldb, err := sql.Open("sqlite3", "file::memory:?cache=shared")
	require.NoError(t, err)
	// A single connection keeps every query on the same in-memory database.
	sqldb.SetMaxOpenConns(1)

	db := bun.NewDB(sqldb, sqlitedialect.New())
	t.Cleanup(func() { _ = db.Close() })
	return db
}

// newGraphDB creates a test database with the full user/role/permission
// schema plus the change log.
func newGraphDB(t *testing.T) *bun.DB {
	t.Helper()

	db := newTestDB(t)
	ctx := context.Background()
	for _, model := range []any{
		(*User)(nil),
		(*Role)(nil),
		(*Permission)(nil),
		(*UserRole)(nil),
		(*RolePermission)(nil),
		(*ChangeLog)(nil),
	} {
		require.NoError(t, db.ResetModel(ctx, model))
	}
	return db
}

// Widget is a plain test entity without audit columns.
type Widget struct {
	bun.BaseModel `bun:"table:widgets,alias:w"`

	ID     int64  `bun:"id,pk,autoincrement"`
	Name   string `bun:"name,notnull"`
	Status string `bun:"status,notnull"`
	Weight int64  `bun:"weight,notnull"`
}

// WidgetCreate is the create input for Widget.
type WidgetCreate struct {
	Name   string
	Status string
	Weight int64
}

func (in WidgetCreate) Entity() *Widget {
	return &Widget{Name: in.Name, Status: in.Status, Weight: in.Weight}
}

// WidgetUpdate is the partial-update input for Widget.
type WidgetUpdate struct {
	Name   *string
	Status *string
	Weight *int64
}

func (in WidgetUpdate) ApplyTo(w *Widget) []string {
	var columns []string
	if in.Name != nil {
		w.Name = *in.Name
		columns = append(columns, "name")
	}
	if in.Status != nil {
		w.Status = *in.Status
		columns = append(columns, "status")
	}
	if in.Weight != nil {
		w.Weight = *in.Weight
		columns = append(columns, "weight")
	}
	return columns
}

// Gadget is a test entity with audit columns.
type Gadget struct {
	bun.BaseModel `bun:"table:gadgets,alias:g"`

	ID   int64  `bun:"id,pk,autoincrement"`
	Name string `bun:"name,notnull"`

	CreatorUserID      *int64 `bun:"creator_user_id"`
	LastModifierUserID *int64 `bun:"last_modifier_user_id"`
}

// GadgetCreate is the create input for Gadget.
type GadgetCreate struct {
	Name string
}

func (in GadgetCreate) Entity() *Gadget {
	return &Gadget{Name: in.Name}
}

// GadgetUpdate is the partial-update input for Gadget.
type GadgetUpdate struct {
	Name *string
}

func (in GadgetUpdate) ApplyTo(g *Gadget) []string {
	var columns []string
	if in.Name != nil {
		g.Name = *in.Name
		columns = append(columns, "name")
	}
	return columns
}

// newWidgetDB creates a test database with the widgets table.
func newWidgetDB(t *testing.T) *bun.DB {
	t.Helper()

	db := newTestDB(t)
	require.NoError(t, db.ResetModel(context.Background(), (*Widget)(nil)))
	return db
}

// newGadgetDB creates a test database with the gadgets table.
func newGadgetDB(t *testing.T) *bun.DB {
	t.Helper()

	db := newTestDB(t)
	require.NoError(t, db.ResetModel(context.Background(), (*Gadget)(nil)))
	return db
}

// newWidgetEngine builds a Widget engine for tests, failing the test on
// configuration errors.
func newWidgetEngine(t *testing.T, opts ...Option) *Engine[NoUserContext, Widget, WidgetCreate, WidgetUpdate, int64] {
	t.Helper()

	engine, err := NewEngine[NoUserContext, Widget, WidgetCreate, WidgetUpdate, int64](opts...)
	require.NoError(t, err)
	return engine
}

// seedWidgets inserts n widgets with predictable names and alternating status.
func seedWidgets(t *testing.T, db *bun.DB, n int) []Widget {
	t.Helper()

	ctx := context.Background()
	engine := newWidgetEngine(t)
	ec := NewNoUserContext(db)

	widgets := make([]Widget, 0, n)
	for i := 0; i < n; i++ {
		status := "active"
		if i%2 == 1 {
			status = "inactive"
		}
		w, err := engine.Create(ctx, ec, WidgetCreate{
			Name:   string(rune('a' + i%26)),
			Status: status,
			Weight: int64(n - i),
		})
		require.NoError(t, err)
		widgets = append(widgets, *w)
	}
	return widgets
}

func ptr[T any](v T) *T { return &v }
