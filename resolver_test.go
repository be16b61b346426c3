package entitykit

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"
)

// permissionGraph is the fixture the resolver tests run against.
type permissionGraph struct {
	db    *bun.DB
	admin *User // superuser
	alice *User // editor + reviewer
	bob   *User // no roles
}

// newPermissionGraph seeds users, two overlapping roles, and their permissions.
func newPermissionGraph(t *testing.T) *permissionGraph {
	t.Helper()
	ctx := context.Background()
	db := newGraphDB(t)

	users, err := NewUserStore()
	require.NoError(t, err)
	roles, err := NewRoleStore()
	require.NoError(t, err)
	permissions, err := NewPermissionStore()
	require.NoError(t, err)

	bootstrap := NewMaybeUserContext(db, nil)
	admin, err := users.Create(ctx, bootstrap, UserCreate{
		Name: "Admin", Surname: "Root", Email: "admin@test.local",
		Password: "secret", IsActive: true, IsSuperuser: true,
	})
	require.NoError(t, err)

	actor := NewMaybeUserContext(db, admin)
	adminCtx := NewUserContext(db, admin)

	alice, err := users.Create(ctx, actor, UserCreate{
		Name: "Alice", Surname: "Author", Email: "alice@test.local",
		Password: "secret", IsActive: true,
	})
	require.NoError(t, err)
	bob, err := users.Create(ctx, actor, UserCreate{
		Name: "Bob", Surname: "Bystander", Email: "bob@test.local",
		Password: "secret", IsActive: true,
	})
	require.NoError(t, err)

	editor, err := roles.Create(ctx, adminCtx, RoleCreate{Name: "editor", IsActive: true})
	require.NoError(t, err)
	reviewer, err := roles.Create(ctx, adminCtx, RoleCreate{Name: "reviewer", IsActive: true})
	require.NoError(t, err)

	// posts:read belongs to both roles so resolution must deduplicate it.
	grants := map[string][]int64{
		"posts:read":    {editor.ID, reviewer.ID},
		"posts:write":   {editor.ID},
		"posts:approve": {reviewer.ID},
	}
	for name, roleIDs := range grants {
		permission, err := permissions.Create(ctx, adminCtx, PermissionCreate{Name: name})
		require.NoError(t, err)
		for _, roleID := range roleIDs {
			_, err := permissions.AssociateRole(ctx, adminCtx, permission.ID, roleID)
			require.NoError(t, err)
		}
	}

	_, err = users.AssignRole(ctx, actor, alice.ID, editor.ID)
	require.NoError(t, err)
	_, err = users.AssignRole(ctx, actor, alice.ID, reviewer.ID)
	require.NoError(t, err)

	return &permissionGraph{db: db, admin: admin, alice: alice, bob: bob}
}

// TestResolverGetPermissions tests union-with-deduplication across roles
func TestResolverGetPermissions(t *testing.T) {
	ctx := context.Background()
	g := newPermissionGraph(t)
	resolver := NewResolver()
	ec := NewNoUserContext(g.db)

	set, err := resolver.GetPermissions(ctx, ec, g.alice)
	require.NoError(t, err)
	assert.Equal(t, []string{"posts:approve", "posts:read", "posts:write"}, set.Names())
}

// TestResolverGetPermissionsNoRoles tests that an unprivileged user resolves to an empty set
func TestResolverGetPermissionsNoRoles(t *testing.T) {
	ctx := context.Background()
	g := newPermissionGraph(t)
	resolver := NewResolver()
	ec := NewNoUserContext(g.db)

	set, err := resolver.GetPermissions(ctx, ec, g.bob)
	require.NoError(t, err)
	assert.Empty(t, set)
}

// TestResolverHasPermissions tests the subset semantics of permission checks
func TestResolverHasPermissions(t *testing.T) {
	ctx := context.Background()
	g := newPermissionGraph(t)
	resolver := NewResolver()
	ec := NewNoUserContext(g.db)

	tests := []struct {
		name     string
		user     *User
		required []string
		want     bool
	}{
		{"Single held permission", g.alice, []string{"posts:read"}, true},
		{"All held permissions", g.alice, []string{"posts:read", "posts:write", "posts:approve"}, true},
		{"Partial match fails", g.alice, []string{"posts:read", "posts:delete"}, false},
		{"Unknown permission fails", g.alice, []string{"posts:delete"}, false},
		{"Empty requirement holds", g.alice, nil, true},
		{"No roles fails", g.bob, []string{"posts:read"}, false},
		{"No roles empty requirement holds", g.bob, nil, true},
		{"Superuser holds anything", g.admin, []string{"no:such:permission"}, true},
		{"Superuser with empty requirement", g.admin, nil, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := resolver.HasPermissions(ctx, ec, tt.user, tt.required...)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

// TestResolverGetRoles tests listing a user's assigned roles
func TestResolverGetRoles(t *testing.T) {
	ctx := context.Background()
	g := newPermissionGraph(t)
	resolver := NewResolver()
	ec := NewNoUserContext(g.db)

	roles, err := resolver.GetRoles(ctx, ec, g.alice)
	require.NoError(t, err)

	names := make([]string, 0, len(roles))
	for _, role := range roles {
		names = append(names, role.Name)
	}
	assert.ElementsMatch(t, []string{"editor", "reviewer"}, names)

	none, err := resolver.GetRoles(ctx, ec, g.bob)
	require.NoError(t, err)
	assert.Empty(t, none)
}

// TestResolverHasRoles tests role membership checks by name
func TestResolverHasRoles(t *testing.T) {
	ctx := context.Background()
	g := newPermissionGraph(t)
	resolver := NewResolver()
	ec := NewNoUserContext(g.db)

	ok, err := resolver.HasRoles(ctx, ec, g.alice, "editor", "reviewer")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = resolver.HasRoles(ctx, ec, g.alice, "editor", "owner")
	require.NoError(t, err)
	assert.False(t, ok)
}

// TestPermissionSet tests the set operations directly
func TestPermissionSet(t *testing.T) {
	set := NewPermissionSet("a", "b", "b")

	assert.Len(t, set, 2)
	assert.True(t, set.Has("a"))
	assert.False(t, set.Has("c"))
	assert.True(t, set.HasAll("a", "b"))
	assert.False(t, set.HasAll("a", "c"))
	assert.True(t, set.HasAll())
	assert.Equal(t, []string{"a", "b"}, set.Names())
}
