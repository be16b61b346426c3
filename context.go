package entitykit

import (
	"github.com/uptrace/bun"
)

// Session is the slice of the bun query API the engine needs. It is satisfied
// by *bun.DB, bun.Tx, and dbkit database handles, so a Context can carry either
// a plain connection or a transaction-scoped one.
type Session interface {
	NewSelect() *bun.SelectQuery
	NewInsert() *bun.InsertQuery
	NewUpdate() *bun.UpdateQuery
	NewDelete() *bun.DeleteQuery
	NewRaw(query string, args ...interface{}) *bun.RawQuery
}

// Context carries the storage session and, depending on the variant, the
// acting identity for a single logical operation. There are exactly three
// variants: UserContext (identity always present), NoUserContext (no identity
// is available or relevant), and MaybeUserContext (identity may be absent).
//
// A Context is a pure carrier: it is built once per operation, never mutated,
// and never shared across concurrent operations.
type Context interface {
	// Session returns the storage session bound to this operation.
	Session() Session

	// Identity returns the acting user's ID and whether one is present.
	Identity() (int64, bool)

	// carriesIdentity reports whether this variant is capable of supplying
	// an identity. It is a property of the variant, not of the value, so the
	// engine can evaluate it on a zero value at construction time.
	carriesIdentity() bool
}

// UserContext is the variant with a non-optional acting identity.
type UserContext struct {
	session Session
	user    *User
}

// NewUserContext builds a UserContext. The user must not be nil; operations
// that can run without an identity should use MaybeUserContext instead.
func NewUserContext(session Session, user *User) UserContext {
	return UserContext{session: session, user: user}
}

// Session returns the storage session bound to this operation.
func (c UserContext) Session() Session { return c.session }

// Identity returns the acting user's ID. Present by construction.
func (c UserContext) Identity() (int64, bool) { return c.user.ID, true }

// User returns the acting user.
func (c UserContext) User() *User { return c.user }

func (UserContext) carriesIdentity() bool { return true }

// NoUserContext is the variant with no acting identity. Engines over entities
// with audit columns refuse this variant at construction time.
type NoUserContext struct {
	session Session
}

// NewNoUserContext builds a NoUserContext.
func NewNoUserContext(session Session) NoUserContext {
	return NoUserContext{session: session}
}

// Session returns the storage session bound to this operation.
func (c NoUserContext) Session() Session { return c.session }

// Identity always reports absence.
func (NoUserContext) Identity() (int64, bool) { return 0, false }

func (NoUserContext) carriesIdentity() bool { return false }

// MaybeUserContext is the variant whose acting identity may or may not be
// present. Audit columns are stamped only when it is.
type MaybeUserContext struct {
	session Session
	user    *User
}

// NewMaybeUserContext builds a MaybeUserContext. A nil user means no identity.
func NewMaybeUserContext(session Session, user *User) MaybeUserContext {
	return MaybeUserContext{session: session, user: user}
}

// Session returns the storage session bound to this operation.
func (c MaybeUserContext) Session() Session { return c.session }

// Identity returns the acting user's ID if one was supplied.
func (c MaybeUserContext) Identity() (int64, bool) {
	if c.user == nil {
		return 0, false
	}
	return c.user.ID, true
}

// User returns the acting user, or nil.
func (c MaybeUserContext) User() *User { return c.user }

func (MaybeUserContext) carriesIdentity() bool { return true }
