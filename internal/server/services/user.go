// Package services contains the server-side business logic. This file
// implements UserService, the authentication boundary: registration,
// password login issuing JWTs, and profile reads.
package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/wavelength-app/wavelength/internal/common"
	"github.com/wavelength-app/wavelength/internal/server/auth"
	"github.com/wavelength-app/wavelength/internal/server/config"
	"github.com/wavelength-app/wavelength/internal/server/models"
	"github.com/wavelength-app/wavelength/internal/server/repositories/repomanager"
)

// Profile is the client-facing view of a user record. The field list is
// declared statically so the password digest can never leak into a response.
type Profile struct {
	ID        string    `json:"id"`
	Username  string    `json:"username"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"created_at"`
}

// UserService provides the account operations:
// - Register: create users (no session is implied; login is a separate step)
// - Login: verify credentials and mint a bearer token
// - GetProfile: read a user record with the digest stripped
type UserService struct {
	db                    *sql.DB
	repomanager           repomanager.RepositoryManager
	hasher                auth.PasswordHasher
	jwtSecret             []byte
	tokenValidityDuration time.Duration
}

// NewUserService constructs a UserService from repositories, the password
// hasher, and server config.
func NewUserService(db *sql.DB, m repomanager.RepositoryManager, h auth.PasswordHasher, cfg *config.Config) *UserService {
	return &UserService{
		db:                    db,
		repomanager:           m,
		hasher:                h,
		jwtSecret:             []byte(cfg.SecretKey),
		tokenValidityDuration: cfg.TokenValidityDuration,
	}
}

// Register hashes the password and inserts a new user. A duplicate email
// yields common.ErrorAlreadyExists; the caller decides the wire shape.
func (s *UserService) Register(ctx context.Context, username, email, password string) (*models.User, error) {
	digest, err := s.hasher.Hash(password)
	if err != nil {
		return nil, fmt.Errorf("error hashing password: %w", err)
	}

	user := &models.User{Username: username, Email: email, PasswordHash: digest}
	repo := s.repomanager.Users(s.db)
	u, err := repo.Create(ctx, user)
	if err != nil {
		if errors.Is(err, common.ErrorAlreadyExists) {
			return nil, common.ErrorAlreadyExists
		}
		return nil, fmt.Errorf("error creating user: %w", err)
	}
	return u, nil
}

// Login verifies the credentials and returns a signed bearer token.
//
// An unknown email and a wrong password both return common.ErrorUnauthorized
// so the response does not reveal which emails are registered. The unknown
// email path still runs a bcrypt comparison (against a dummy digest) to keep
// its timing in line with the known-email path.
func (s *UserService) Login(ctx context.Context, email, password string) (string, error) {
	repo := s.repomanager.Users(s.db)
	user, err := repo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			s.hasher.Verify(password, auth.DummyDigest)
			return "", common.ErrorUnauthorized
		}
		return "", common.ErrorInternal
	}

	if !s.hasher.Verify(password, user.PasswordHash) {
		return "", common.ErrorUnauthorized
	}

	token, err := auth.GenerateToken(user.ID, s.jwtSecret, s.tokenValidityDuration)
	if err != nil {
		return "", common.ErrorInternal
	}
	return token, nil
}

// GetProfile returns the profile for the given user id with the password
// digest stripped. Absent users yield common.ErrorNotFound.
func (s *UserService) GetProfile(ctx context.Context, userID string) (*Profile, error) {
	repo := s.repomanager.Users(s.db)
	user, err := repo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("error fetching user: %w", err)
	}

	return &Profile{
		ID:        user.ID,
		Username:  user.Username,
		Email:     user.Email,
		CreatedAt: user.CreatedAt,
	}, nil
}
