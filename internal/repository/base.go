package repository

import (
	"context"
	"strings"
	"time"

	"amity/internal/models"
	"amity/internal/observability"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// containsPattern builds a case-insensitive LIKE pattern for a literal substring.
func containsPattern(s string) string {
	return "%" + likeEscaper.Replace(strings.ToLower(strings.TrimSpace(s))) + "%"
}

// profileMatch filters rows whose joined user (by alias) matches the search
// term on email, first name or last name.
func profileMatch(db *gorm.DB, alias, search string) *gorm.DB {
	if strings.TrimSpace(search) == "" {
		return db
	}
	like := containsPattern(search)
	return db.Where(
		"(LOWER("+alias+".email) LIKE ? ESCAPE '\\' OR LOWER("+alias+".first_name) LIKE ? ESCAPE '\\' OR LOWER("+alias+".last_name) LIKE ? ESCAPE '\\')",
		like, like, like,
	)
}

// paginate applies limit/offset for the given page.
func paginate(p models.PageParams) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		n := p.Normalize()
		return db.Offset(n.Offset()).Limit(n.PageSize)
	}
}

// txRunner runs store transactions under a bounded timeout and records their duration.
type txRunner struct {
	db      *gorm.DB
	timeout time.Duration
}

func (r txRunner) run(ctx context.Context, operation string, fn func(tx *gorm.DB) error) error {
	defer observability.TrackTx(operation)()
	if r.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}
	return translateError(r.db.WithContext(ctx).Transaction(fn))
}

// lockPair takes row locks on both users in id order so that concurrent
// transactions touching the same pair serialize instead of interleaving.
// SQLite ignores the locking clause; its single writer gives the same effect.
func lockPair(tx *gorm.DB, a, b uint) error {
	var ids []uint
	return tx.Model(&models.User{}).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id IN ?", []uint{a, b}).
		Order("id").
		Pluck("id", &ids).Error
}
