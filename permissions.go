package entitykit

import (
	"context"
	"database/sql"
	"errors"

	"github.com/fernandezvara/dbkit"
)

// PermissionCreate is the input for creating a permission.
type PermissionCreate struct {
	Name string
}

// Entity implements CreateInput.
func (in PermissionCreate) Entity() *Permission {
	return &Permission{Name: in.Name}
}

// PermissionUpdate is the partial-update input for permissions.
type PermissionUpdate struct {
	Name *string
}

// ApplyTo implements UpdateInput.
func (in PermissionUpdate) ApplyTo(p *Permission) []string {
	var columns []string
	if in.Name != nil {
		p.Name = *in.Name
		columns = append(columns, "name")
	}
	return columns
}

// PermissionStore manages permissions and their role associations.
// Permissions carry audit columns, so the engine demands a UserContext.
type PermissionStore struct {
	*Engine[UserContext, Permission, PermissionCreate, PermissionUpdate, int64]
}

// NewPermissionStore builds a PermissionStore.
func NewPermissionStore(opts ...Option) (*PermissionStore, error) {
	engine, err := NewEngine[UserContext, Permission, PermissionCreate, PermissionUpdate, int64](opts...)
	if err != nil {
		return nil, err
	}
	return &PermissionStore{Engine: engine}, nil
}

// GetByName returns the permission with the given name, or nil if none exists.
func (s *PermissionStore) GetByName(ctx context.Context, ec UserContext, name string) (*Permission, error) {
	permission := new(Permission)
	err := dbkit.WithErr1(ec.Session().NewSelect().
		Model(permission).
		Where("p.name = ?", name).
		Limit(1).
		Scan(ctx), "GetPermissionByName").Err()
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return permission, nil
}

// GetMultiByRoleID returns all permissions assigned to a role.
func (s *PermissionStore) GetMultiByRoleID(ctx context.Context, ec UserContext, roleID int64) ([]Permission, error) {
	var permissions []Permission
	err := dbkit.WithErr1(ec.Session().NewSelect().
		Model(&permissions).
		Join("JOIN roles_permissions AS rp ON rp.permission_id = p.id").
		Where("rp.role_id = ?", roleID).
		Scan(ctx), "GetPermissionsByRoleID").Err()
	if err != nil {
		return nil, err
	}
	return permissions, nil
}

// AssociateRole grants the permission to a role. Idempotent: associating an
// already-granted permission is a no-op. Both sides must exist.
func (s *PermissionStore) AssociateRole(ctx context.Context, ec UserContext, permissionID, roleID int64) (*Permission, error) {
	permission, err := s.GetIfExist(ctx, ec, permissionID)
	if err != nil {
		return nil, err
	}
	if err := requireRole(ctx, ec.Session(), roleID); err != nil {
		return nil, err
	}

	association, err := s.getRoleAssociation(ctx, ec.Session(), permissionID, roleID)
	if err != nil {
		return nil, err
	}
	if association != nil {
		return permission, nil
	}

	link := &RolePermission{RoleID: roleID, PermissionID: permissionID}
	if actorID, ok := ec.Identity(); ok {
		link.CreatorUserID = &actorID
	}
	_, err = ec.Session().NewInsert().Model(link).Exec(ctx)
	if err = dbkit.WithErr1(err, "CreateRolePermission").Err(); err != nil {
		return nil, err
	}
	return permission, nil
}

// PurgeRole removes the association between the permission and a role.
// Idempotent. Both sides must exist.
func (s *PermissionStore) PurgeRole(ctx context.Context, ec UserContext, permissionID, roleID int64) (*Permission, error) {
	permission, err := s.GetIfExist(ctx, ec, permissionID)
	if err != nil {
		return nil, err
	}
	if err := requireRole(ctx, ec.Session(), roleID); err != nil {
		return nil, err
	}

	_, err = ec.Session().NewDelete().
		Model((*RolePermission)(nil)).
		Where("permission_id = ? AND role_id = ?", permissionID, roleID).
		Exec(ctx)
	if err = dbkit.WithErr1(err, "DeleteRolePermission").Err(); err != nil {
		return nil, err
	}
	return permission, nil
}

// PurgeAllRoles removes every role association from the permission.
func (s *PermissionStore) PurgeAllRoles(ctx context.Context, ec UserContext, permissionID int64) (*Permission, error) {
	permission, err := s.GetIfExist(ctx, ec, permissionID)
	if err != nil {
		return nil, err
	}

	_, err = ec.Session().NewDelete().
		Model((*RolePermission)(nil)).
		Where("permission_id = ?", permissionID).
		Exec(ctx)
	if err = dbkit.WithErr1(err, "PurgeAllRoles").Err(); err != nil {
		return nil, err
	}
	return permission, nil
}

// Delete removes a permission along with all of its role associations.
func (s *PermissionStore) Delete(ctx context.Context, ec UserContext, permissionID int64) (*Permission, error) {
	if _, err := s.PurgeAllRoles(ctx, ec, permissionID); err != nil {
		return nil, err
	}
	return s.Engine.Delete(ctx, ec, permissionID)
}

func (s *PermissionStore) getRoleAssociation(ctx context.Context, session Session, permissionID, roleID int64) (*RolePermission, error) {
	association := new(RolePermission)
	err := session.NewSelect().
		Model(association).
		Where("permission_id = ? AND role_id = ?", permissionID, roleID).
		Limit(1).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, dbkit.WithErr1(err, "GetRolePermission").Err()
	}
	return association, nil
}
