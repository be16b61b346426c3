package entitykit

import (
	"github.com/fernandezvara/dbkit"
)

// Migrations returns all database migrations required by entitykit's built-in
// models. Use dbkit: db.Migrate(ctx, entitykit.Migrations()).
func Migrations() []dbkit.Migration {
	return []dbkit.Migration{
		{
			ID:          "entitykit-001",
			Description: "Create users table",
			SQL: `
                CREATE TABLE IF NOT EXISTS users (
                    id BIGSERIAL PRIMARY KEY,
                    name TEXT NOT NULL,
                    surname TEXT NOT NULL,
                    email TEXT NOT NULL UNIQUE,
                    hashed_password TEXT NOT NULL,
                    is_active BOOLEAN NOT NULL DEFAULT true,
                    is_superuser BOOLEAN NOT NULL DEFAULT false
                )`,
		},
		{
			ID:          "entitykit-002",
			Description: "Create roles table",
			SQL: `
                CREATE TABLE IF NOT EXISTS roles (
                    id BIGSERIAL PRIMARY KEY,
                    name TEXT NOT NULL,
                    is_active BOOLEAN NOT NULL DEFAULT true,
                    creator_user_id BIGINT REFERENCES users(id),
                    last_modifier_user_id BIGINT REFERENCES users(id),
                    created_at TIMESTAMPTZ NOT NULL DEFAULT current_timestamp
                )`,
		},
		{
			ID:          "entitykit-003",
			Description: "Create permissions table",
			SQL: `
                CREATE TABLE IF NOT EXISTS permissions (
                    id BIGSERIAL PRIMARY KEY,
                    name TEXT NOT NULL,
                    creator_user_id BIGINT REFERENCES users(id),
                    last_modifier_user_id BIGINT REFERENCES users(id),
                    created_at TIMESTAMPTZ NOT NULL DEFAULT current_timestamp
                )`,
		},
		{
			ID:          "entitykit-004",
			Description: "Create users_roles association table",
			SQL: `
                CREATE TABLE IF NOT EXISTS users_roles (
                    id BIGSERIAL PRIMARY KEY,
                    user_id BIGINT NOT NULL REFERENCES users(id),
                    role_id BIGINT NOT NULL REFERENCES roles(id),
                    creator_user_id BIGINT REFERENCES users(id),
                    last_modifier_user_id BIGINT REFERENCES users(id),
                    UNIQUE (user_id, role_id)
                )`,
		},
		{
			ID:          "entitykit-005",
			Description: "Create roles_permissions association table",
			SQL: `
                CREATE TABLE IF NOT EXISTS roles_permissions (
                    id BIGSERIAL PRIMARY KEY,
                    role_id BIGINT NOT NULL REFERENCES roles(id),
                    permission_id BIGINT NOT NULL REFERENCES permissions(id),
                    creator_user_id BIGINT REFERENCES users(id),
                    last_modifier_user_id BIGINT REFERENCES users(id),
                    UNIQUE (role_id, permission_id)
                )`,
		},
		{
			ID:          "entitykit-006",
			Description: "Create change_logs table",
			SQL: `
                CREATE TABLE IF NOT EXISTS change_logs (
                    id BIGSERIAL PRIMARY KEY,
                    request_id TEXT,
                    entity TEXT NOT NULL,
                    before JSONB,
                    after JSONB,
                    recorded_at TIMESTAMPTZ NOT NULL DEFAULT current_timestamp
                )`,
		},
	}
}
