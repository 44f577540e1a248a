package repository

import (
	"context"
	"errors"
	"strings"
	"time"

	"amity/internal/cache"
	"amity/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// UserSearch filters the user directory.
type UserSearch struct {
	Query string
	// ExcludeIDs hides users from the result, e.g. because of blocks.
	ExcludeIDs []uint
	// FullText ranks matches with PostgreSQL full-text search. Ignored on other drivers.
	FullText bool
	Page     models.PageParams
}

// UserRepository defines persistence operations for users.
type UserRepository interface {
	GetByID(ctx context.Context, id uint) (*models.User, error)
	GetProfile(ctx context.Context, id uint) (*models.UserProfile, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	Exists(ctx context.Context, id uint) (bool, error)
	Create(ctx context.Context, user *models.User) error
	UpdateLastLogin(ctx context.Context, id uint, at time.Time) error
	Search(ctx context.Context, s UserSearch) ([]models.User, int64, error)
}

type userRepository struct {
	db    *gorm.DB
	cache *cache.Aside
}

// NewUserRepository returns a UserRepository. Profiles are cached through
// aside when it has a Redis client.
func NewUserRepository(db *gorm.DB, aside *cache.Aside) UserRepository {
	return &userRepository{db: db, cache: aside}
}

func (r *userRepository) GetByID(ctx context.Context, id uint) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).First(&user, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.NewNotFoundMessage(models.CodeUserNotFound, "User not found.")
		}
		return nil, translateError(err)
	}
	return &user, nil
}

func (r *userRepository) GetProfile(ctx context.Context, id uint) (*models.UserProfile, error) {
	var profile models.UserProfile
	err := r.cache.Fetch(ctx, cache.UserKey(id), &profile, cache.UserTTL, func() error {
		user, err := r.GetByID(ctx, id)
		if err != nil {
			return err
		}
		profile = user.Profile()
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &profile, nil
}

// GetByEmail looks a user up by normalized email. It returns nil, nil when absent.
func (r *userRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).
		Where("email = ?", models.NormalizeEmail(email)).
		First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, translateError(err)
	}
	return &user, nil
}

func (r *userRepository) Exists(ctx context.Context, id uint) (bool, error) {
	var n int64
	if err := r.db.WithContext(ctx).Model(&models.User{}).Where("id = ?", id).Count(&n).Error; err != nil {
		return false, translateError(err)
	}
	return n > 0, nil
}

func (r *userRepository) Create(ctx context.Context, user *models.User) error {
	if err := r.db.WithContext(ctx).Create(user).Error; err != nil {
		if isUniqueViolation(err) {
			return models.NewValidationError("A user with that email already exists.")
		}
		return translateError(err)
	}
	return nil
}

func (r *userRepository) UpdateLastLogin(ctx context.Context, id uint, at time.Time) error {
	if err := r.db.WithContext(ctx).Model(&models.User{}).
		Where("id = ?", id).
		UpdateColumn("last_login", at).Error; err != nil {
		return translateError(err)
	}
	return nil
}

// Search matches the query against email and names. Results are ranked by
// full-text relevance when enabled on PostgreSQL, otherwise ordered by name.
func (r *userRepository) Search(ctx context.Context, s UserSearch) ([]models.User, int64, error) {
	term := strings.TrimSpace(s.Query)
	like := containsPattern(term)
	fullText := s.FullText && r.db.Dialector.Name() == "postgres"

	base := r.db.WithContext(ctx).Model(&models.User{})
	if fullText {
		base = base.Where(
			"("+searchVector+" @@ plainto_tsquery('simple', ?) OR LOWER(email) LIKE ? ESCAPE '\\' OR LOWER(first_name) LIKE ? ESCAPE '\\' OR LOWER(last_name) LIKE ? ESCAPE '\\')",
			term, like, like, like,
		)
	} else {
		base = base.Where(
			"(LOWER(email) LIKE ? ESCAPE '\\' OR LOWER(first_name) LIKE ? ESCAPE '\\' OR LOWER(last_name) LIKE ? ESCAPE '\\')",
			like, like, like,
		)
	}
	if len(s.ExcludeIDs) > 0 {
		base = base.Where("id NOT IN ?", s.ExcludeIDs)
	}
	base = base.Session(&gorm.Session{})

	var total int64
	if err := base.Count(&total).Error; err != nil {
		return nil, 0, translateError(err)
	}

	query := base
	if fullText {
		query = query.Order(clause.OrderBy{Expression: clause.Expr{
			SQL:                "ts_rank(" + searchVector + ", plainto_tsquery('simple', ?)) DESC, id ASC",
			Vars:               []any{term},
			WithoutParentheses: true,
		}})
	} else {
		query = query.Order("first_name ASC, last_name ASC, id ASC")
	}

	var users []models.User
	if err := query.Scopes(paginate(s.Page)).Find(&users).Error; err != nil {
		return nil, 0, translateError(err)
	}
	return users, total, nil
}

// searchVector matches the expression indexed by the user_search migration.
const searchVector = "to_tsvector('simple', coalesce(first_name, '') || ' ' || coalesce(last_name, '') || ' ' || email)"
