package entitykit

import (
	"encoding/json"
	"time"

	"github.com/uptrace/bun"
)

// Audit column names, fixed by convention. An entity that declares them gets
// stamped by the engine: the creator on Create, the last modifier on Update.
// Both are nullable references to the users table.
const (
	ColumnCreatorUserID      = "creator_user_id"
	ColumnLastModifierUserID = "last_modifier_user_id"
)

// User is an account that can act on entities and hold roles.
// It intentionally has no audit columns: users are managed with or without
// an acting identity (e.g. self-registration).
type User struct {
	bun.BaseModel `bun:"table:users,alias:u"`

	ID             int64  `bun:"id,pk,autoincrement"`
	Name           string `bun:"name,notnull"`
	Surname        string `bun:"surname,notnull"`
	Email          string `bun:"email,notnull,unique"`
	HashedPassword string `bun:"hashed_password,notnull"`
	IsActive       bool   `bun:"is_active,notnull"`

	// IsSuperuser grants every permission unconditionally, regardless of
	// role membership.
	IsSuperuser bool `bun:"is_superuser,notnull"`
}

// Role is a named grant bundle assignable to users.
type Role struct {
	bun.BaseModel `bun:"table:roles,alias:r"`

	ID       int64  `bun:"id,pk,autoincrement"`
	Name     string `bun:"name,notnull"`
	IsActive bool   `bun:"is_active,notnull"`

	CreatorUserID      *int64    `bun:"creator_user_id"`
	LastModifierUserID *int64    `bun:"last_modifier_user_id"`
	CreatedAt          time.Time `bun:"created_at,notnull,default:current_timestamp"`
}

// Permission is a named capability granted through roles.
type Permission struct {
	bun.BaseModel `bun:"table:permissions,alias:p"`

	ID   int64  `bun:"id,pk,autoincrement"`
	Name string `bun:"name,notnull"`

	CreatorUserID      *int64    `bun:"creator_user_id"`
	LastModifierUserID *int64    `bun:"last_modifier_user_id"`
	CreatedAt          time.Time `bun:"created_at,notnull,default:current_timestamp"`
}

// UserRole is the user<->role many-to-many association.
type UserRole struct {
	bun.BaseModel `bun:"table:users_roles,alias:ur"`

	ID     int64 `bun:"id,pk,autoincrement"`
	UserID int64 `bun:"user_id,notnull"`
	RoleID int64 `bun:"role_id,notnull"`

	CreatorUserID      *int64 `bun:"creator_user_id"`
	LastModifierUserID *int64 `bun:"last_modifier_user_id"`
}

// RolePermission is the role<->permission many-to-many association.
type RolePermission struct {
	bun.BaseModel `bun:"table:roles_permissions,alias:rp"`

	ID           int64 `bun:"id,pk,autoincrement"`
	RoleID       int64 `bun:"role_id,notnull"`
	PermissionID int64 `bun:"permission_id,notnull"`

	CreatorUserID      *int64 `bun:"creator_user_id"`
	LastModifierUserID *int64 `bun:"last_modifier_user_id"`
}

// ChangeLog records an entity mutation: the table, the row state before and
// after, and the request that caused it. Written by engines constructed with
// WithChangeLog; a failed write never fails the operation it describes.
type ChangeLog struct {
	bun.BaseModel `bun:"table:change_logs,alias:cl"`

	ID         int64           `bun:"id,pk,autoincrement"`
	RequestID  string          `bun:"request_id"`
	Entity     string          `bun:"entity,notnull"`
	Before     json.RawMessage `bun:"before,type:jsonb"`
	After      json.RawMessage `bun:"after,type:jsonb"`
	RecordedAt time.Time       `bun:"recorded_at,notnull,default:current_timestamp"`
}
