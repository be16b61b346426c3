// Package entitykit provides a generic entity-access engine over bun models,
// plus the role/permission graph most applications end up wiring around it.
//
// # Core Concepts
//
// Context: the carrier of a storage session and (depending on the variant)
// the acting identity for one logical operation. Three variants exist:
// UserContext (identity always present), NoUserContext (no identity),
// MaybeUserContext (identity optional). The variant is part of an engine's
// type, so "this entity needs an acting user" is checked when the engine is
// built, not when a request happens to hit the wrong code path.
//
// Engine: one instance per entity type, built at application startup and
// injected into whatever consumes it. It computes the entity's Descriptor
// (columns, audit columns, primary key, sort/filter allow-lists) once, then
// exposes Get, GetIfExist, Create, CreateIfNotExist, Update, Delete, and
// GetMulti. Entities with the conventional creator_user_id and
// last_modifier_user_id columns get those stamped automatically whenever the
// context carries an identity.
//
// Resolver: resolves a user to their effective permission set through the
// user->role->permission graph, with a superuser flag that satisfies any
// check. A false answer is a boolean for the caller to act on, not an error.
//
// # Basic Usage
//
//	// 1. Build engines at startup (construction validates configuration)
//	widgets, err := entitykit.NewEngine[entitykit.NoUserContext, Widget, WidgetCreate, WidgetUpdate, int64]()
//	if err != nil {
//	    log.Fatal(err) // e.g. audit columns paired with NoUserContext
//	}
//
//	// 2. One Context per request
//	ec := entitykit.NewNoUserContext(db)
//
//	// 3. Operate
//	total, page, err := widgets.GetMulti(ctx, ec, entitykit.NewListParams().
//	    WithFilter("status", "active").
//	    WithPagination(0, 20))
//
// List queries validate every sort and filter field against the entity's
// allow-lists and fail with ErrInvalidQuery instead of silently dropping a
// clause. When no sort is given, rows are ordered by ascending primary key so
// that paging with skip/limit partitions the result set deterministically.
package entitykit
