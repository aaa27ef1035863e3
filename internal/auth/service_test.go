package auth_test

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/uplora/uplora/internal/auth"
	"github.com/uplora/uplora/internal/team"
)

// --- Mock User Repository ---

type mockUserRepo struct {
	createFn       func(ctx context.Context, u *auth.User) error
	findByPrefixFn func(ctx context.Context, prefix string) ([]auth.User, error)
	countAllFn     func(ctx context.Context) (int, error)
}

func (m *mockUserRepo) Create(ctx context.Context, u *auth.User) error {
	if m.createFn != nil {
		return m.createFn(ctx, u)
	}
	u.ID = uuid.New()
	u.CreatedAt = time.Now().UTC()
	return nil
}

func (m *mockUserRepo) GetByID(ctx context.Context, id uuid.UUID) (*auth.User, error) {
	return nil, auth.ErrUserNotFound
}

func (m *mockUserRepo) FindByPrefix(ctx context.Context, prefix string) ([]auth.User, error) {
	if m.findByPrefixFn != nil {
		return m.findByPrefixFn(ctx, prefix)
	}
	return []auth.User{}, nil
}

func (m *mockUserRepo) List(ctx context.Context) ([]auth.User, error) {
	return []auth.User{}, nil
}

func (m *mockUserRepo) Revoke(ctx context.Context, id uuid.UUID) error { return nil }

func (m *mockUserRepo) CountAll(ctx context.Context) (int, error) {
	if m.countAllFn != nil {
		return m.countAllFn(ctx)
	}
	return 0, nil
}

// --- Mock Membership Repository ---

type mockMembershipRepo struct {
	listByUserFn func(ctx context.Context, userID uuid.UUID) ([]team.Membership, error)
}

func (m *mockMembershipRepo) Set(ctx context.Context, ms *team.Membership) error { return nil }

func (m *mockMembershipRepo) Get(ctx context.Context, userID, teamID uuid.UUID) (*team.Membership, error) {
	return nil, team.ErrMembershipNotFound
}

func (m *mockMembershipRepo) ListByTeam(ctx context.Context, teamID uuid.UUID) ([]team.Membership, error) {
	return []team.Membership{}, nil
}

func (m *mockMembershipRepo) ListByUser(ctx context.Context, userID uuid.UUID) ([]team.Membership, error) {
	if m.listByUserFn != nil {
		return m.listByUserFn(ctx, userID)
	}
	return []team.Membership{}, nil
}

func (m *mockMembershipRepo) Remove(ctx context.Context, userID, teamID uuid.UUID) error {
	return nil
}

// bcrypt cost 4 keeps the tests fast.
func newService(users *mockUserRepo, members *mockMembershipRepo) *auth.Service {
	if users == nil {
		users = &mockUserRepo{}
	}
	if members == nil {
		members = &mockMembershipRepo{}
	}
	return auth.NewService(users, members, 4)
}

// --- GenerateKey ---

func TestGenerateKey_Shape(t *testing.T) {
	t.Parallel()

	svc := newService(nil, nil)

	rawKey, prefix, hash, err := svc.GenerateKey()
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(rawKey, "uplr_"))
	assert.Equal(t, rawKey[:8], prefix)
	assert.NotEqual(t, rawKey, hash)
	assert.True(t, strings.HasPrefix(hash, "$2a$"))
}

func TestGenerateKey_Unique(t *testing.T) {
	t.Parallel()

	svc := newService(nil, nil)

	k1, _, _, err := svc.GenerateKey()
	require.NoError(t, err)
	k2, _, _, err := svc.GenerateKey()
	require.NoError(t, err)

	assert.NotEqual(t, k1, k2)
}

// --- Authenticate ---

func TestAuthenticate_Success(t *testing.T) {
	t.Parallel()

	svc := newService(nil, nil)
	rawKey, prefix, hash, err := svc.GenerateKey()
	require.NoError(t, err)

	userID := uuid.New()
	teamID := uuid.New()

	users := &mockUserRepo{
		findByPrefixFn: func(ctx context.Context, gotPrefix string) ([]auth.User, error) {
			assert.Equal(t, prefix, gotPrefix)
			return []auth.User{{
				ID:           userID,
				Name:         "casey",
				ApiKeyPrefix: prefix,
				ApiKeyHash:   hash,
			}}, nil
		},
	}
	members := &mockMembershipRepo{
		listByUserFn: func(ctx context.Context, gotUser uuid.UUID) ([]team.Membership, error) {
			assert.Equal(t, userID, gotUser)
			return []team.Membership{{UserID: userID, TeamID: teamID, Role: team.RoleManager}}, nil
		},
	}

	identity, err := newService(users, members).Authenticate(context.Background(), rawKey)
	require.NoError(t, err)
	assert.Equal(t, userID, identity.UserID)
	assert.False(t, identity.IsAdmin)

	role, ok := identity.RoleFor(teamID)
	require.True(t, ok)
	assert.Equal(t, team.RoleManager, role)
}

func TestAuthenticate_WrongKey(t *testing.T) {
	t.Parallel()

	svc := newService(nil, nil)
	_, prefix, hash, err := svc.GenerateKey()
	require.NoError(t, err)

	users := &mockUserRepo{
		findByPrefixFn: func(ctx context.Context, gotPrefix string) ([]auth.User, error) {
			return []auth.User{{ID: uuid.New(), ApiKeyPrefix: prefix, ApiKeyHash: hash}}, nil
		},
	}

	// Same prefix, different key.
	_, err = newService(users, nil).Authenticate(context.Background(), prefix+"xxxxxxxxxxxxxxxxxxxx")
	assert.ErrorIs(t, err, auth.ErrInvalidKey)
}

func TestAuthenticate_TooShort(t *testing.T) {
	t.Parallel()

	_, err := newService(nil, nil).Authenticate(context.Background(), "uplr")
	assert.ErrorIs(t, err, auth.ErrInvalidKey)
}

func TestAuthenticate_NoCandidates(t *testing.T) {
	t.Parallel()

	_, err := newService(nil, nil).Authenticate(context.Background(), "uplr_unknownkey")
	assert.ErrorIs(t, err, auth.ErrInvalidKey)
}

// --- BootstrapAdmin ---

func TestBootstrapAdmin_CreatesAdminOnEmptyTable(t *testing.T) {
	t.Parallel()

	var created *auth.User
	users := &mockUserRepo{
		createFn: func(ctx context.Context, u *auth.User) error {
			u.ID = uuid.New()
			created = u
			return nil
		},
	}

	rawKey, err := newService(users, nil).BootstrapAdmin(context.Background())
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(rawKey, "uplr_"))

	require.NotNil(t, created)
	assert.True(t, created.IsAdmin)
	assert.Equal(t, "admin", created.Name)
}

func TestBootstrapAdmin_SkipsWhenUsersExist(t *testing.T) {
	t.Parallel()

	users := &mockUserRepo{
		countAllFn: func(ctx context.Context) (int, error) { return 3, nil },
		createFn: func(ctx context.Context, u *auth.User) error {
			t.Fatal("no user should be created")
			return nil
		},
	}

	rawKey, err := newService(users, nil).BootstrapAdmin(context.Background())
	require.NoError(t, err)
	assert.Empty(t, rawKey)
}
