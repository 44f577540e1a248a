package service

import (
	"context"
	"errors"
	"slices"
	"strings"
	"time"

	"amity/internal/featureflags"
	"amity/internal/models"
	"amity/internal/repository"
	"amity/internal/validation"

	"golang.org/x/crypto/bcrypt"
)

var (
	ErrEmailTaken         = models.NewValidationError("A user with that email already exists.")
	ErrInvalidCredentials = models.NewUnauthorizedError("Invalid credentials")
	ErrEmptySearch        = models.NewValidationError("Please provide a search query.")
)

// RegisterInput carries the fields accepted at sign-up.
type RegisterInput struct {
	Email     string `json:"email"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Password  string `json:"password"`
}

// UserService provides registration, authentication and the user directory.
type UserService struct {
	userRepo repository.UserRepository
	queries  *FriendQueryService
	flags    *featureflags.Manager
	hashCost int
}

// NewUserService returns a new UserService. flags may be nil.
func NewUserService(userRepo repository.UserRepository, queries *FriendQueryService, flags *featureflags.Manager) *UserService {
	return &UserService{
		userRepo: userRepo,
		queries:  queries,
		flags:    flags,
		hashCost: bcrypt.DefaultCost,
	}
}

// Register creates an active account with a bcrypt-hashed password.
func (s *UserService) Register(ctx context.Context, in RegisterInput) (*models.User, error) {
	email := models.NormalizeEmail(in.Email)
	if err := validation.ValidateEmail(email); err != nil {
		return nil, models.NewValidationError(err.Error())
	}
	if err := validation.ValidateName("first_name", in.FirstName); err != nil {
		return nil, models.NewValidationError(err.Error())
	}
	if err := validation.ValidateName("last_name", in.LastName); err != nil {
		return nil, models.NewValidationError(err.Error())
	}
	if err := validation.ValidatePassword(in.Password); err != nil {
		return nil, models.NewValidationError(err.Error())
	}

	existing, err := s.userRepo.GetByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, ErrEmailTaken
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), s.hashCost)
	if err != nil {
		return nil, models.NewInternalError(err)
	}

	user := &models.User{
		Email:     email,
		FirstName: strings.TrimSpace(in.FirstName),
		LastName:  strings.TrimSpace(in.LastName),
		Password:  string(hash),
		IsActive:  true,
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// Authenticate checks credentials and stamps last_login on success.
// Unknown emails, wrong passwords and inactive accounts fail identically.
func (s *UserService) Authenticate(ctx context.Context, email, password string) (*models.User, error) {
	user, err := s.userRepo.GetByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if user == nil || !user.IsActive {
		return nil, ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			return nil, ErrInvalidCredentials
		}
		return nil, models.NewInternalError(err)
	}

	now := time.Now().UTC()
	if err := s.userRepo.UpdateLastLogin(ctx, user.ID, now); err != nil {
		return nil, err
	}
	user.LastLogin = &now
	return user, nil
}

// ActiveUser loads a user who may still act, for token refresh.
func (s *UserService) ActiveUser(ctx context.Context, id uint) (*models.User, error) {
	user, err := s.userRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !user.IsActive {
		return nil, models.NewUnauthorizedError("User is inactive")
	}
	return user, nil
}

// Profile returns the public profile of a user.
func (s *UserService) Profile(ctx context.Context, id uint) (*models.UserProfile, error) {
	return s.userRepo.GetProfile(ctx, id)
}

// VisibleProfile returns a user's profile as seen by viewerID. Users separated
// from a non-staff viewer by a block in either direction are reported missing.
func (s *UserService) VisibleProfile(ctx context.Context, viewerID, id uint) (*models.UserProfile, error) {
	if viewerID != id {
		viewer, err := s.userRepo.GetByID(ctx, viewerID)
		if err != nil {
			return nil, err
		}
		if !viewer.IsStaff {
			hidden, err := s.queries.HiddenUserIDs(ctx, viewerID)
			if err != nil {
				return nil, err
			}
			if slices.Contains(hidden, id) {
				return nil, ErrUserNotFound
			}
		}
	}
	return s.userRepo.GetProfile(ctx, id)
}

// Search looks users up by email, first or last name. An exact email match
// short-circuits to a single result. Users separated from a non-staff viewer
// by a block in either direction are never returned.
func (s *UserService) Search(ctx context.Context, viewerID uint, query string, page models.PageParams) (*models.Page[models.UserProfile], error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, ErrEmptySearch
	}

	viewer, err := s.userRepo.GetByID(ctx, viewerID)
	if err != nil {
		return nil, err
	}
	var hidden []uint
	if !viewer.IsStaff {
		if hidden, err = s.queries.HiddenUserIDs(ctx, viewerID); err != nil {
			return nil, err
		}
	}

	match, err := s.userRepo.GetByEmail(ctx, query)
	if err != nil {
		return nil, err
	}
	if match != nil && !slices.Contains(hidden, match.ID) {
		return models.NewPage([]models.UserProfile{match.Profile()}, 1, models.PageParams{PageSize: page.PageSize})
	}

	users, total, err := s.userRepo.Search(ctx, repository.UserSearch{
		Query:      query,
		ExcludeIDs: hidden,
		FullText:   s.flags.Enabled(featureflags.FullTextSearch, viewerID),
		Page:       page,
	})
	if err != nil {
		return nil, err
	}
	profiles := make([]models.UserProfile, 0, len(users))
	for _, u := range users {
		profiles = append(profiles, u.Profile())
	}
	return models.NewPage(profiles, total, page)
}
