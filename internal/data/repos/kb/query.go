package kb

import (
	"strings"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/yungbote/careerkb-backend/internal/data/db"
)

// forUpdate adds a row lock on dialects that support one. SQLite serializes
// writers on its own.
func forUpdate(q *gorm.DB) *gorm.DB {
	if db.ForUpdate(q) {
		return q.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	return q
}

func likePattern(q string) string {
	q = strings.ToLower(strings.TrimSpace(q))
	q = strings.ReplaceAll(q, `\`, `\\`)
	q = strings.ReplaceAll(q, "%", `\%`)
	q = strings.ReplaceAll(q, "_", `\_`)
	return "%" + q + "%"
}

func clampLimit(limit, def, max int) int {
	if limit <= 0 {
		return def
	}
	if limit > max {
		return max
	}
	return limit
}
