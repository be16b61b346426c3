package entitykit

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/fernandezvara/dbkit"
	"golang.org/x/crypto/bcrypt"
)

// UserCreate is the input for creating a user. The password is hashed before
// it reaches storage; the plaintext is never persisted.
type UserCreate struct {
	Name        string
	Surname     string
	Email       string
	Password    string
	IsActive    bool
	IsSuperuser bool
}

// userSeed is the engine-level create input, built by UserStore.Create once
// the password has been hashed.
type userSeed struct {
	in     UserCreate
	hashed string
}

func (s userSeed) Entity() *User {
	return &User{
		Name:           s.in.Name,
		Surname:        s.in.Surname,
		Email:          s.in.Email,
		HashedPassword: s.hashed,
		IsActive:       s.in.IsActive,
		IsSuperuser:    s.in.IsSuperuser,
	}
}

// UserUpdate is the partial-update input for users. Nil fields are left
// untouched.
type UserUpdate struct {
	Name     *string
	Surname  *string
	Email    *string
	IsActive *bool
}

// ApplyTo implements UpdateInput.
func (in UserUpdate) ApplyTo(u *User) []string {
	var columns []string
	if in.Name != nil {
		u.Name = *in.Name
		columns = append(columns, "name")
	}
	if in.Surname != nil {
		u.Surname = *in.Surname
		columns = append(columns, "surname")
	}
	if in.Email != nil {
		u.Email = *in.Email
		columns = append(columns, "email")
	}
	if in.IsActive != nil {
		u.IsActive = *in.IsActive
		columns = append(columns, "is_active")
	}
	return columns
}

// UserStore manages users and their role assignments. Users carry no audit
// columns (they may be created without an acting identity, e.g. during
// self-registration), so the engine accepts a MaybeUserContext.
type UserStore struct {
	*Engine[MaybeUserContext, User, userSeed, UserUpdate, int64]
}

// NewUserStore builds a UserStore.
func NewUserStore(opts ...Option) (*UserStore, error) {
	engine, err := NewEngine[MaybeUserContext, User, userSeed, UserUpdate, int64](opts...)
	if err != nil {
		return nil, err
	}
	return &UserStore{Engine: engine}, nil
}

// Create persists a new user with a bcrypt-hashed password.
func (s *UserStore) Create(ctx context.Context, ec MaybeUserContext, in UserCreate) (*User, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}
	return s.Engine.Create(ctx, ec, userSeed{in: in, hashed: string(hashed)})
}

// CreateIfNotExist returns the existing user matching the filters, or creates
// one with a bcrypt-hashed password. With raiseOnConflict, an existing match
// is ErrDuplicateEntity instead.
func (s *UserStore) CreateIfNotExist(ctx context.Context, ec MaybeUserContext, in UserCreate, match map[string]any, raiseOnConflict bool) (*User, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}
	return s.Engine.CreateIfNotExist(ctx, ec, userSeed{in: in, hashed: string(hashed)}, match, raiseOnConflict)
}

// GetByEmail returns the user with the given email, or nil if none exists.
func (s *UserStore) GetByEmail(ctx context.Context, ec MaybeUserContext, email string) (*User, error) {
	user := new(User)
	err := dbkit.WithErr1(ec.Session().NewSelect().
		Model(user).
		Where("email = ?", email).
		Limit(1).
		Scan(ctx), "GetUserByEmail").Err()
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return user, nil
}

// GetByName returns the first user with the given name, or nil if none exists.
func (s *UserStore) GetByName(ctx context.Context, ec MaybeUserContext, name string) (*User, error) {
	user := new(User)
	err := dbkit.WithErr1(ec.Session().NewSelect().
		Model(user).
		Where("u.name = ?", name).
		Limit(1).
		Scan(ctx), "GetUserByName").Err()
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return user, nil
}

// GetMultiByRoleID returns all users assigned a specific role.
func (s *UserStore) GetMultiByRoleID(ctx context.Context, ec MaybeUserContext, roleID int64) ([]User, error) {
	var users []User
	err := dbkit.WithErr1(ec.Session().NewSelect().
		Model(&users).
		Join("JOIN users_roles AS ur ON ur.user_id = u.id").
		Where("ur.role_id = ?", roleID).
		Scan(ctx), "GetUsersByRoleID").Err()
	if err != nil {
		return nil, err
	}
	return users, nil
}

// IsSuperuser checks if the user has superuser privileges.
func (s *UserStore) IsSuperuser(ctx context.Context, ec MaybeUserContext, userID int64) (bool, error) {
	user, err := s.GetIfExist(ctx, ec, userID)
	if err != nil {
		return false, err
	}
	return user.IsSuperuser, nil
}

// AssignRole assigns a role to a user. Idempotent: assigning a role the user
// already has is a no-op. Both the user and the role must exist.
func (s *UserStore) AssignRole(ctx context.Context, ec MaybeUserContext, userID, roleID int64) (*User, error) {
	user, err := s.GetIfExist(ctx, ec, userID)
	if err != nil {
		return nil, err
	}
	if err := requireRole(ctx, ec.Session(), roleID); err != nil {
		return nil, err
	}

	association, err := s.getUserRoleAssociation(ctx, ec.Session(), userID, roleID)
	if err != nil {
		return nil, err
	}
	if association != nil {
		return user, nil
	}

	link := &UserRole{UserID: userID, RoleID: roleID}
	if actorID, ok := ec.Identity(); ok {
		link.CreatorUserID = &actorID
	}
	_, err = ec.Session().NewInsert().Model(link).Exec(ctx)
	if err = dbkit.WithErr1(err, "CreateUserRole").Err(); err != nil {
		return nil, err
	}
	return user, nil
}

// RemoveRole removes a role from a user. Idempotent: removing a role the user
// does not have is a no-op. Both the user and the role must exist.
func (s *UserStore) RemoveRole(ctx context.Context, ec MaybeUserContext, userID, roleID int64) (*User, error) {
	user, err := s.GetIfExist(ctx, ec, userID)
	if err != nil {
		return nil, err
	}
	if err := requireRole(ctx, ec.Session(), roleID); err != nil {
		return nil, err
	}

	_, err = ec.Session().NewDelete().
		Model((*UserRole)(nil)).
		Where("user_id = ? AND role_id = ?", userID, roleID).
		Exec(ctx)
	if err = dbkit.WithErr1(err, "DeleteUserRole").Err(); err != nil {
		return nil, err
	}
	return user, nil
}

func (s *UserStore) getUserRoleAssociation(ctx context.Context, session Session, userID, roleID int64) (*UserRole, error) {
	association := new(UserRole)
	err := session.NewSelect().
		Model(association).
		Where("user_id = ? AND role_id = ?", userID, roleID).
		Limit(1).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, dbkit.WithErr1(err, "GetUserRole").Err()
	}
	return association, nil
}

// requireRole returns ErrEntityNotFound when the role does not exist.
func requireRole(ctx context.Context, session Session, roleID int64) error {
	exists, err := session.NewSelect().
		Model((*Role)(nil)).
		Where("id = ?", roleID).
		Exists(ctx)
	if err != nil {
		return dbkit.WithErr1(err, "RequireRole").Err()
	}
	if !exists {
		return NewError(ErrEntityNotFound,
			fmt.Sprintf("entity [roles] with id=%d does not exist", roleID)).
			WithEntity("roles").WithID(roleID)
	}
	return nil
}
