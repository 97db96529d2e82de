package pagination

import (
  "context"
  "fmt"
  "strings"

  "gorm.io/gorm"

  "github.com/ninthgrid/ninthgrid-backend/internal/types"
)

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// Gorm pages over base, which should already carry the model and any scoping predicates.
// Count and fetch are issued as separate queries over the same predicate.
func Gorm[T any](ctx context.Context, base *gorm.DB, q types.PageQuery, filter Filter) (*types.Page[T], error) {
  p := Normalize(q)
  tx := applyFilter(base.WithContext(ctx), filter).Session(&gorm.Session{})

  var total int64
  if err := tx.Count(&total).Error; err != nil {
    return nil, fmt.Errorf("count page rows: %w", err)
  }

  rows := make([]T, 0, p.Limit)
  if err := tx.Order("created_at DESC").Limit(p.Limit).Offset(p.Offset).Find(&rows).Error; err != nil {
    return nil, fmt.Errorf("fetch page rows: %w", err)
  }
  return &types.Page[T]{Data: rows, Pagination: Meta(p, total)}, nil
}

func applyFilter(tx *gorm.DB, filter Filter) *gorm.DB {
  cols := filter.fields()
  if len(cols) == 0 {
    return tx
  }
  group := tx.Session(&gorm.Session{NewDB: true})
  for i, col := range cols {
    cond := fmt.Sprintf("LOWER(%s) LIKE ?", col)
    pattern := "%" + likeEscaper.Replace(strings.ToLower(filter[col])) + "%"
    if i == 0 {
      group = group.Where(cond, pattern)
    } else {
      group = group.Or(cond, pattern)
    }
  }
  return tx.Where(group)
}
