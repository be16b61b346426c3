package entitykit

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestRoleStoreRequiresIdentity tests that role mutations stamp the actor
func TestRoleStoreRequiresIdentity(t *testing.T) {
	ctx := context.Background()
	g := newPermissionGraph(t)
	store, err := NewRoleStore()
	require.NoError(t, err)

	adminCtx := NewUserContext(g.db, g.admin)

	role, err := store.Create(ctx, adminCtx, RoleCreate{Name: "auditor", IsActive: true})
	require.NoError(t, err)
	require.NotNil(t, role.CreatorUserID)
	assert.Equal(t, g.admin.ID, *role.CreatorUserID)
	assert.Nil(t, role.LastModifierUserID)

	updated, err := store.Update(ctx, adminCtx, role.ID, RoleUpdate{IsActive: ptr(false)})
	require.NoError(t, err)
	require.NotNil(t, updated.LastModifierUserID)
	assert.Equal(t, g.admin.ID, *updated.LastModifierUserID)
	assert.False(t, updated.IsActive)
}

// TestRoleStoreGetByName tests the name lookup
func TestRoleStoreGetByName(t *testing.T) {
	ctx := context.Background()
	g := newPermissionGraph(t)
	store, err := NewRoleStore()
	require.NoError(t, err)
	adminCtx := NewUserContext(g.db, g.admin)

	role, err := store.GetByName(ctx, adminCtx, "editor")
	require.NoError(t, err)
	require.NotNil(t, role)
	assert.Equal(t, "editor", role.Name)

	missing, err := store.GetByName(ctx, adminCtx, "no-such-role")
	require.NoError(t, err)
	assert.Nil(t, missing)
}

// TestRoleStoreDeprecate tests detaching every user from a role
func TestRoleStoreDeprecate(t *testing.T) {
	ctx := context.Background()
	g := newPermissionGraph(t)
	store, err := NewRoleStore()
	require.NoError(t, err)
	adminCtx := NewUserContext(g.db, g.admin)

	role, err := store.Deprecate(ctx, adminCtx, "editor")
	require.NoError(t, err)
	assert.Equal(t, "editor", role.Name)

	// The role survives, its assignments do not.
	kept, err := store.GetByName(ctx, adminCtx, "editor")
	require.NoError(t, err)
	require.NotNil(t, kept)

	assigned, err := store.GetMultiByUserID(ctx, adminCtx, g.alice.ID)
	require.NoError(t, err)
	require.Len(t, assigned, 1)
	assert.Equal(t, "reviewer", assigned[0].Name)

	_, err = store.Deprecate(ctx, adminCtx, "no-such-role")
	assert.True(t, IsNotFound(err))
}

// TestRoleStoreGetMulti tests listing roles through the engine
func TestRoleStoreGetMulti(t *testing.T) {
	ctx := context.Background()
	g := newPermissionGraph(t)
	store, err := NewRoleStore()
	require.NoError(t, err)
	adminCtx := NewUserContext(g.db, g.admin)

	total, page, err := store.GetMulti(ctx, adminCtx, NewListParams().
		WithSort("name", Ascending))
	require.NoError(t, err)
	assert.Equal(t, 2, total)
	require.Len(t, page, 2)
	assert.Equal(t, "editor", page[0].Name)
	assert.Equal(t, "reviewer", page[1].Name)
}
