package auth

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/uplora/uplora/internal/team"
)

// ErrInvalidKey is returned when the provided API key does not match any active user.
var ErrInvalidKey = errors.New("invalid or revoked API key")

// Service provides authentication operations.
type Service struct {
	userRepo   UserRepository
	memberRepo team.MembershipRepository
	bcryptCost int
}

// NewService creates a new auth Service.
func NewService(userRepo UserRepository, memberRepo team.MembershipRepository, bcryptCost int) *Service {
	return &Service{
		userRepo:   userRepo,
		memberRepo: memberRepo,
		bcryptCost: bcryptCost,
	}
}

// GenerateKey creates a new API key. Returns the raw key, its prefix (first 8 chars),
// and the bcrypt hash. The raw key is: 32 random bytes -> base64url -> prepend "uplr_".
func (s *Service) GenerateKey() (rawKey, prefix, hash string, err error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", "", "", fmt.Errorf("generating random bytes: %w", err)
	}

	rawKey = "uplr_" + base64.RawURLEncoding.EncodeToString(b)
	prefix = rawKey[:8]

	hashBytes, err := bcrypt.GenerateFromPassword([]byte(rawKey), s.bcryptCost)
	if err != nil {
		return "", "", "", fmt.Errorf("hashing key: %w", err)
	}
	hash = string(hashBytes)

	return rawKey, prefix, hash, nil
}

// Authenticate resolves a raw API key to an Identity. It extracts the prefix,
// looks up candidates, and bcrypt-compares each one.
func (s *Service) Authenticate(ctx context.Context, rawKey string) (*Identity, error) {
	if len(rawKey) < 8 {
		return nil, ErrInvalidKey
	}

	prefix := rawKey[:8]

	candidates, err := s.userRepo.FindByPrefix(ctx, prefix)
	if err != nil {
		return nil, fmt.Errorf("finding users by prefix: %w", err)
	}

	for _, u := range candidates {
		if bcrypt.CompareHashAndPassword([]byte(u.ApiKeyHash), []byte(rawKey)) == nil {
			return s.buildIdentity(ctx, &u)
		}
	}

	return nil, ErrInvalidKey
}

// BootstrapAdmin creates the initial admin user if the users table is empty.
// Returns the raw API key (only displayed once). If users already exist, returns empty string.
func (s *Service) BootstrapAdmin(ctx context.Context) (string, error) {
	count, err := s.userRepo.CountAll(ctx)
	if err != nil {
		return "", fmt.Errorf("counting users: %w", err)
	}

	if count > 0 {
		return "", nil
	}

	rawKey, prefix, hash, err := s.GenerateKey()
	if err != nil {
		return "", fmt.Errorf("generating admin key: %w", err)
	}

	user := &User{
		Name:         "admin",
		Email:        "admin@localhost",
		IsAdmin:      true,
		ApiKeyPrefix: prefix,
		ApiKeyHash:   hash,
	}

	if err := s.userRepo.Create(ctx, user); err != nil {
		return "", fmt.Errorf("creating admin user: %w", err)
	}

	slog.Info("Admin API key created", "key", rawKey)

	return rawKey, nil
}

// buildIdentity constructs an Identity from a User, loading team memberships.
func (s *Service) buildIdentity(ctx context.Context, u *User) (*Identity, error) {
	identity := &Identity{
		UserID:  u.ID,
		Name:    u.Name,
		IsAdmin: u.IsAdmin,
		Roles:   map[uuid.UUID]team.Role{},
	}

	memberships, err := s.memberRepo.ListByUser(ctx, u.ID)
	if err != nil {
		return nil, fmt.Errorf("fetching memberships for identity: %w", err)
	}

	for _, m := range memberships {
		identity.Roles[m.TeamID] = m.Role
	}

	return identity, nil
}
