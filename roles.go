package entitykit

import (
	"context"
	"database/sql"
	"errors"

	"github.com/fernandezvara/dbkit"
)

// RoleCreate is the input for creating a role.
type RoleCreate struct {
	Name     string
	IsActive bool
}

// Entity implements CreateInput.
func (in RoleCreate) Entity() *Role {
	return &Role{Name: in.Name, IsActive: in.IsActive}
}

// RoleUpdate is the partial-update input for roles. Nil fields are left
// untouched.
type RoleUpdate struct {
	Name     *string
	IsActive *bool
}

// ApplyTo implements UpdateInput.
func (in RoleUpdate) ApplyTo(r *Role) []string {
	var columns []string
	if in.Name != nil {
		r.Name = *in.Name
		columns = append(columns, "name")
	}
	if in.IsActive != nil {
		r.IsActive = *in.IsActive
		columns = append(columns, "is_active")
	}
	return columns
}

// RoleStore manages roles. Roles carry audit columns, so the engine demands
// a UserContext: constructing it over a NoUserContext kind would fail.
type RoleStore struct {
	*Engine[UserContext, Role, RoleCreate, RoleUpdate, int64]
}

// NewRoleStore builds a RoleStore.
func NewRoleStore(opts ...Option) (*RoleStore, error) {
	engine, err := NewEngine[UserContext, Role, RoleCreate, RoleUpdate, int64](opts...)
	if err != nil {
		return nil, err
	}
	return &RoleStore{Engine: engine}, nil
}

// GetByName returns the role with the given name, or nil if none exists.
func (s *RoleStore) GetByName(ctx context.Context, ec UserContext, name string) (*Role, error) {
	role := new(Role)
	err := dbkit.WithErr1(ec.Session().NewSelect().
		Model(role).
		Where("r.name = ?", name).
		Limit(1).
		Scan(ctx), "GetRoleByName").Err()
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return role, nil
}

// GetMultiByUserID returns all roles assigned to a user.
func (s *RoleStore) GetMultiByUserID(ctx context.Context, ec UserContext, userID int64) ([]Role, error) {
	var roles []Role
	err := dbkit.WithErr1(ec.Session().NewSelect().
		Model(&roles).
		Join("JOIN users_roles AS ur ON ur.role_id = r.id").
		Where("ur.user_id = ?", userID).
		Scan(ctx), "GetRolesByUserID").Err()
	if err != nil {
		return nil, err
	}
	return roles, nil
}

// Deprecate removes every user association from the role, leaving the role
// itself in place. Returns ErrEntityNotFound when no role has that name.
func (s *RoleStore) Deprecate(ctx context.Context, ec UserContext, name string) (*Role, error) {
	role, err := s.GetByName(ctx, ec, name)
	if err != nil {
		return nil, err
	}
	if role == nil {
		return nil, NewError(ErrEntityNotFound, "role "+name+" does not exist").
			WithEntity("roles")
	}

	_, err = ec.Session().NewDelete().
		Model((*UserRole)(nil)).
		Where("role_id = ?", role.ID).
		Exec(ctx)
	if err = dbkit.WithErr1(err, "DeprecateRole").Err(); err != nil {
		return nil, err
	}
	return role, nil
}
