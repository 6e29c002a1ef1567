package service

import (
	"context"
	"errors"
	"fmt"

	"msgboard/internal/common"
	"msgboard/internal/common/security"
	"msgboard/internal/domain/model"
	"msgboard/internal/domain/repository"
)

type AuthService struct {
	userRepo repository.UserRepository
}

func NewAuthService(userRepo repository.UserRepository) *AuthService {
	return &AuthService{userRepo: userRepo}
}

// Signup validates the credentials and creates the account. Duplicate
// usernames surface as common.ErrConflict from the repository; there is
// no separate existence check, so two racing signups cannot both win.
func (s *AuthService) Signup(ctx context.Context, username, password string) (*model.CurrentUser, error) {
	if !security.IsUsernameValid(username) || !security.IsPasswordValid(password) {
		return nil, common.ErrValidation
	}

	hashedPassword, err := security.HashPassword(password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &model.User{
		Username:       username,
		HashedPassword: hashedPassword,
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		if errors.Is(err, common.ErrConflict) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	return &model.CurrentUser{Username: user.Username}, nil
}

// Login authenticates by verifying the submitted password against the
// stored hash; existence of the account alone never authenticates. The
// returned identity carries no password material.
func (s *AuthService) Login(ctx context.Context, username, password string) (*model.CurrentUser, error) {
	if !security.IsUsernameValid(username) || !security.IsPasswordValid(password) {
		return nil, common.ErrValidation
	}

	user, err := s.userRepo.FindByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return nil, common.ErrUnauthorized // Generic message for security
		}
		// Unreadable record is a storage failure, not an unknown user.
		return nil, fmt.Errorf("failed to find user: %w", err)
	}

	if !security.CheckPasswordHash(password, user.HashedPassword) {
		return nil, common.ErrUnauthorized
	}

	return &model.CurrentUser{Username: user.Username}, nil
}
