package users

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/pharmacare-app/pharmacare-backend/pkg/db"
	"github.com/pharmacare-app/pharmacare-backend/pkg/db/models"
	"github.com/pharmacare-app/pharmacare-backend/pkg/enums"
	pkgerrors "github.com/pharmacare-app/pharmacare-backend/pkg/errors"
)

func newTestRepo(t *testing.T) *Repository {
	t.Helper()
	dsn := "file:users_" + uuid.NewString() + "?mode=memory&cache=shared"
	gdb, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, gdb.AutoMigrate(&models.User{}))
	return NewRepository(gdb)
}

func TestCreateAndFindUser(t *testing.T) {
	t.Parallel()

	repo := newTestRepo(t)
	ctx := context.Background()

	created, err := repo.Create(ctx, CreateUserDTO{
		Name:         "Head Pharmacist",
		Email:        "head@pharmacare.test",
		PasswordHash: "argon2id$hash",
		Role:         enums.UserRolePharmacist,
	})
	require.NoError(t, err)
	require.NotEqual(t, uuid.Nil, created.ID)
	require.Equal(t, enums.UserStatusActive, created.Status)

	byEmail, err := repo.FindByEmail(ctx, "head@pharmacare.test")
	require.NoError(t, err)
	require.Equal(t, created.ID, byEmail.ID)

	byID, err := repo.FindByID(ctx, created.ID)
	require.NoError(t, err)
	require.Equal(t, created.Email, byID.Email)
}

func TestFindUserNotFound(t *testing.T) {
	t.Parallel()

	repo := newTestRepo(t)
	ctx := context.Background()

	_, err := repo.FindByEmail(ctx, "ghost@pharmacare.test")
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	require.Equal(t, pkgerrors.CodeNotFound, typed.Code())

	_, err = repo.FindByID(ctx, uuid.New())
	typed = pkgerrors.As(err)
	require.NotNil(t, typed)
	require.Equal(t, pkgerrors.CodeNotFound, typed.Code())
}

func TestDuplicateEmailSurfacesUniqueViolation(t *testing.T) {
	t.Parallel()

	repo := newTestRepo(t)
	ctx := context.Background()

	_, err := repo.Create(ctx, CreateUserDTO{
		Name:         "First",
		Email:        "dup@pharmacare.test",
		PasswordHash: "hash",
		Role:         enums.UserRoleClient,
	})
	require.NoError(t, err)

	_, err = repo.Create(ctx, CreateUserDTO{
		Name:         "Second",
		Email:        "dup@pharmacare.test",
		PasswordHash: "hash",
		Role:         enums.UserRoleClient,
	})
	require.Error(t, err)
	require.True(t, db.IsUniqueViolation(err, "idx_users_email", "users.email"))
}
