package entitykit

import (
	"context"
)

// PermissionSet is a user's effective permission set: the union of permission
// names reachable through every role assigned to the user.
type PermissionSet map[string]struct{}

// NewPermissionSet creates a PermissionSet from permission names.
// Duplicates collapse; resolution is over a set, not a multiset.
func NewPermissionSet(names ...string) PermissionSet {
	set := make(PermissionSet, len(names))
	for _, n := range names {
		set[n] = struct{}{}
	}
	return set
}

// Has checks if the set contains a permission.
func (ps PermissionSet) Has(name string) bool {
	_, ok := ps[name]
	return ok
}

// HasAll checks if the set contains every given permission.
// An empty requirement is trivially satisfied.
func (ps PermissionSet) HasAll(names ...string) bool {
	for _, n := range names {
		if !ps.Has(n) {
			return false
		}
	}
	return true
}

// Names returns the permission names, sorted.
func (ps PermissionSet) Names() []string {
	return sortedKeys(ps)
}

// Resolver answers "what can this user do" by walking the user->role->
// permission graph. It holds no state; each call runs on the session the
// Context carries.
type Resolver struct{}

// NewResolver creates a Resolver.
func NewResolver() *Resolver {
	return &Resolver{}
}

// GetPermissions resolves the user's effective permission set: the union of
// permissions of every role currently assigned to the user, deduplicated.
// A user with no roles has an empty set; that is not an error.
func (r *Resolver) GetPermissions(ctx context.Context, ec Context, user *User) (PermissionSet, error) {
	var names []string
	err := ec.Session().NewSelect().
		Model((*Permission)(nil)).
		Column("p.name").
		Join("JOIN roles_permissions AS rp ON rp.permission_id = p.id").
		Join("JOIN users_roles AS ur ON ur.role_id = rp.role_id").
		Where("ur.user_id = ?", user.ID).
		Distinct().
		Scan(ctx, &names)
	if err != nil {
		return nil, err
	}
	return NewPermissionSet(names...), nil
}

// HasPermissions checks if the user holds all of the required permissions.
// A superuser satisfies any requirement, including names that do not exist.
// For everyone else the answer is true iff required is a subset of the
// resolved set — a partial match is a failure.
func (r *Resolver) HasPermissions(ctx context.Context, ec Context, user *User, required ...string) (bool, error) {
	if user.IsSuperuser {
		return true, nil
	}
	if len(required) == 0 {
		return true, nil
	}

	permissions, err := r.GetPermissions(ctx, ec, user)
	if err != nil {
		return false, err
	}
	return permissions.HasAll(required...), nil
}

// GetRoles returns all roles currently assigned to the user.
func (r *Resolver) GetRoles(ctx context.Context, ec Context, user *User) ([]Role, error) {
	var roles []Role
	err := ec.Session().NewSelect().
		Model(&roles).
		Join("JOIN users_roles AS ur ON ur.role_id = r.id").
		Where("ur.user_id = ?", user.ID).
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return roles, nil
}

// HasRoles checks if the user holds all of the given roles by name.
func (r *Resolver) HasRoles(ctx context.Context, ec Context, user *User, required ...string) (bool, error) {
	roles, err := r.GetRoles(ctx, ec, user)
	if err != nil {
		return false, err
	}

	held := make(map[string]struct{}, len(roles))
	for _, role := range roles {
		held[role.Name] = struct{}{}
	}
	for _, name := range required {
		if _, ok := held[name]; !ok {
			return false, nil
		}
	}
	return true, nil
}
