package repositories

import (
	"errors"
	"strings"
	"time"

	"gorm.io/gorm"
)

var (
	ErrNotFound     = errors.New("record not found")
	ErrEmptyUpdate  = errors.New("no fields provided")
	ErrInvalidValue = errors.New("invalid field value")
)

const (
	DefaultLimit = 50
	MaxLimit     = 500
)

// ListQuery is an already validated list request.
type ListQuery struct {
	Search string
	Limit  int
	Offset int
}

// likeEscaper escapes LIKE wildcards with '!' which every supported dialect
// accepts as an ESCAPE character without string-literal quirks.
var likeEscaper = strings.NewReplacer("!", "!!", "%", "!%", "_", "!_")

// searchScope adds a case-insensitive substring match OR-ed across columns.
func searchScope(search string, columns ...string) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		search = strings.TrimSpace(search)
		if search == "" || len(columns) == 0 {
			return db
		}

		pattern := "%" + likeEscaper.Replace(strings.ToLower(search)) + "%"
		clauses := make([]string, len(columns))
		args := make([]any, len(columns))
		for i, col := range columns {
			clauses[i] = "LOWER(" + col + ") LIKE ? ESCAPE '!'"
			args[i] = pattern
		}
		return db.Where(strings.Join(clauses, " OR "), args...)
	}
}

func paginate(q ListQuery) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		limit := q.Limit
		if limit <= 0 {
			limit = DefaultLimit
		}
		if limit > MaxLimit {
			limit = MaxLimit
		}
		offset := q.Offset
		if offset < 0 {
			offset = 0
		}
		return db.Order("created_at DESC").Order("id DESC").Limit(limit).Offset(offset)
	}
}

type clock func() time.Time

func utcNow() time.Time {
	return time.Now().UTC()
}
