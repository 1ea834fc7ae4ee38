// file: internal/services/user_service.go
package services

import (
	"context"
	"errors"
	"strings"

	"studyhub/internal/cache"
	"studyhub/internal/models"
	"studyhub/internal/repositories"
	"studyhub/internal/validation"

	"golang.org/x/crypto/bcrypt"
)

// passwordCost is the bcrypt work factor for new accounts
var passwordCost = bcrypt.DefaultCost

// userService implements UserService
type userService struct {
	store       repositories.Store
	cache       *cache.ResultCache
	invalidator *cache.Invalidator
}

// NewUserService creates a user service
func NewUserService(store repositories.Store, rc *cache.ResultCache, invalidator *cache.Invalidator) UserService {
	return &userService{
		store:       store,
		cache:       rc,
		invalidator: invalidator,
	}
}

// ===============================
// CORE CRUD OPERATIONS
// ===============================

// Create registers a user with a bcrypt-hashed password
func (s *userService) Create(ctx context.Context, req *CreateUserRequest) (*models.User, error) {
	if req != nil {
		req.Username = strings.TrimSpace(req.Username)
		req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	}
	if err := validation.ValidateStruct(req); err != nil {
		return nil, NewValidationError("invalid create user request", err)
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.Password), passwordCost)
	if err != nil {
		return nil, NewInternalError("failed to process password", err)
	}

	user := &models.User{
		Username:     req.Username,
		Email:        req.Email,
		PasswordHash: string(hashedPassword),
		University:   req.University,
		Major:        req.Major,
		Year:         req.Year,
	}

	if err := s.store.CreateUser(ctx, user); err != nil {
		if errors.Is(err, repositories.ErrDuplicate) {
			return nil, NewConflictError("username or email already taken", "USER_ALREADY_EXISTS")
		}
		return nil, storeError("create user", err)
	}

	return user, nil
}

// GetByID returns a user; the cached copy carries no password hash
func (s *userService) GetByID(ctx context.Context, id int64) (*models.User, error) {
	return cache.CacheResult(ctx, s.cache, cache.UserKey(id), 0, func() (*models.User, error) {
		user, err := s.store.GetUserByID(ctx, id)
		if err != nil {
			return nil, lookupError("user", id, err)
		}
		user.PasswordHash = ""
		return user, nil
	})
}

// GetByUsername returns a user by exact username
func (s *userService) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	user, err := s.store.GetUserByUsername(ctx, strings.TrimSpace(username))
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, NewNotFoundError("user not found").WithDetail("username", username)
		}
		return nil, storeError("load user", err)
	}
	return user, nil
}

// GetByEmail returns a user by email, ignoring case
func (s *userService) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	user, err := s.store.GetUserByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, NewNotFoundError("user not found")
		}
		return nil, storeError("load user", err)
	}
	return user, nil
}

// VerifyCredentials checks a password against the stored hash.
// Unknown emails and wrong passwords are indistinguishable to the caller.
func (s *userService) VerifyCredentials(ctx context.Context, email, password string) (*models.User, error) {
	user, err := s.GetByEmail(ctx, email)
	if err != nil {
		if IsNotFoundError(err) {
			return nil, NewUnauthorizedError("invalid email or password")
		}
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, NewUnauthorizedError("invalid email or password")
	}
	return user, nil
}

// ===============================
// PROFILE OPERATIONS
// ===============================

// UpdateProfile applies the non-nil profile fields
func (s *userService) UpdateProfile(ctx context.Context, req *UpdateProfileRequest) (*models.User, error) {
	if err := validation.ValidateStruct(req); err != nil {
		return nil, NewValidationError("invalid update profile request", err)
	}

	user, err := s.store.GetUserByID(ctx, req.UserID)
	if err != nil {
		return nil, targetError("user", req.UserID, err)
	}

	if req.AvatarURL != nil {
		user.AvatarURL = req.AvatarURL
	}
	if req.Bio != nil {
		user.Bio = req.Bio
	}
	if req.University != nil {
		user.University = req.University
	}
	if req.Major != nil {
		user.Major = req.Major
	}
	if req.Year != nil {
		user.Year = req.Year
	}

	if err := s.store.UpdateUserProfile(ctx, user); err != nil {
		return nil, targetError("user", req.UserID, err)
	}

	s.invalidator.User(ctx, user.ID)
	return user, nil
}

// GetProfile returns the user with follower, following and document counts
func (s *userService) GetProfile(ctx context.Context, id int64) (*models.UserProfile, error) {
	return cache.CacheResult(ctx, s.cache, cache.UserProfileKey(id), 0, func() (*models.UserProfile, error) {
		user, err := s.store.GetUserByID(ctx, id)
		if err != nil {
			return nil, lookupError("user", id, err)
		}

		profile := &models.UserProfile{User: user}
		if profile.FollowersCount, err = s.store.CountFollowers(ctx, id); err != nil {
			return nil, storeError("count followers", err)
		}
		if profile.FollowingCount, err = s.store.CountFollowing(ctx, id); err != nil {
			return nil, storeError("count following", err)
		}
		if profile.DocumentCount, err = s.store.CountDocumentsByUser(ctx, id); err != nil {
			return nil, storeError("count documents", err)
		}
		return profile, nil
	})
}
