package seed

import (
	"context"
	"fmt"
	"strings"

	"amity/internal/models"

	"github.com/brianvoe/gofakeit/v6"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// DefaultPassword is the password given to every seeded user.
const DefaultPassword = "Amity-Demo-Pass-1"

// Factory builds users with fake but plausible details and persists them.
type Factory struct {
	db    *gorm.DB
	faker *gofakeit.Faker
	hash  string
	seq   int
}

// NewFactory creates a Factory. A zero seed picks a random one.
// With skipBcrypt the stored password is a placeholder that cannot be used to log in.
func NewFactory(db *gorm.DB, seed int64, skipBcrypt bool) (*Factory, error) {
	hash := "!unusable"
	if !skipBcrypt {
		raw, err := bcrypt.GenerateFromPassword([]byte(DefaultPassword), bcrypt.DefaultCost)
		if err != nil {
			return nil, err
		}
		hash = string(raw)
	}
	return &Factory{db: db, faker: gofakeit.New(seed), hash: hash}, nil
}

// BuildUser returns an unsaved user. Overrides run after the fake fields are filled.
func (f *Factory) BuildUser(overrides ...func(*models.User)) *models.User {
	f.seq++
	first, last := f.faker.FirstName(), f.faker.LastName()
	user := &models.User{
		Email:     fmt.Sprintf("%s.%s.%d@%s", strings.ToLower(first), strings.ToLower(last), f.seq, f.faker.DomainName()),
		FirstName: first,
		LastName:  last,
		Password:  f.hash,
		IsActive:  true,
	}
	for _, override := range overrides {
		override(user)
	}
	user.Email = models.NormalizeEmail(user.Email)
	return user
}

// CreateUser builds and persists a user.
func (f *Factory) CreateUser(ctx context.Context, overrides ...func(*models.User)) (*models.User, error) {
	user := f.BuildUser(overrides...)
	if err := f.db.WithContext(ctx).Create(user).Error; err != nil {
		return nil, fmt.Errorf("create user %s: %w", user.Email, err)
	}
	return user, nil
}

// CreateUsers persists n users in batches.
func (f *Factory) CreateUsers(ctx context.Context, n, batchSize int) ([]*models.User, error) {
	if batchSize <= 0 {
		batchSize = 100
	}
	users := make([]*models.User, 0, n)
	for range n {
		users = append(users, f.BuildUser())
	}
	if len(users) == 0 {
		return users, nil
	}
	if err := f.db.WithContext(ctx).CreateInBatches(users, batchSize).Error; err != nil {
		return nil, fmt.Errorf("create users: %w", err)
	}
	return users, nil
}
