package pagination

import (
  "math"
  "sort"
  "strings"

  "github.com/ninthgrid/ninthgrid-backend/internal/types"
)

const (
  DefaultLimit = 10
  MaxLimit     = 100
  DefaultPage  = 1
)

// Params is a normalised page request: limit in [1, MaxLimit], page in [1, MaxPage(limit)].
type Params struct {
  Limit  int
  Page   int
  Offset int
}

func Normalize(q types.PageQuery) Params {
  limit := q.Limit
  if limit < 1 {
    limit = 1
  }
  if limit > MaxLimit {
    limit = MaxLimit
  }
  page := q.Page
  if page < 1 {
    page = DefaultPage
  }
  if maxPage := MaxPage(limit); page > maxPage {
    page = maxPage
  }
  return Params{Limit: limit, Page: page, Offset: (page - 1) * limit}
}

// MaxPage is the largest page whose end offset page*limit still fits in an int.
func MaxPage(limit int) int {
  return math.MaxInt / limit
}

func Meta(p Params, total int64) types.Pagination {
  pageCount := int(total / int64(p.Limit))
  if total%int64(p.Limit) != 0 {
    pageCount++
  }
  return types.Pagination{
    PageSize:    p.Limit,
    TotalCount:  total,
    PageCount:   pageCount,
    CurrentPage: p.Page,
    HasNext:     int64(p.Offset) < total-int64(p.Limit),
  }
}

// Filter maps field/column names to the substring each must contain; fields are OR-ed.
type Filter map[string]string

// SearchFilter applies one search term to every field.
func SearchFilter(term string, fields ...string) Filter {
  term = strings.TrimSpace(term)
  if term == "" {
    return nil
  }
  f := Filter{}
  for _, field := range fields {
    f[field] = term
  }
  return f
}

// fields returns the non-empty filter keys in a stable order.
func (f Filter) fields() []string {
  out := make([]string, 0, len(f))
  for k, v := range f {
    if v != "" {
      out = append(out, k)
    }
  }
  sort.Strings(out)
  return out
}

// Slice pages over an in-memory result set that is already filtered and ordered.
func Slice[T any](items []T, q types.PageQuery) *types.Page[T] {
  p := Normalize(q)
  total := int64(len(items))
  data := make([]T, 0, p.Limit)
  if p.Offset < len(items) {
    end := p.Offset + p.Limit
    if end > len(items) {
      end = len(items)
    }
    data = append(data, items[p.Offset:end]...)
  }
  return &types.Page[T]{Data: data, Pagination: Meta(p, total)}
}

// Matches reports whether any filtered field value contains its term, case-insensitively.
// An empty filter matches everything.
func (f Filter) Matches(values map[string]string) bool {
  keys := f.fields()
  if len(keys) == 0 {
    return true
  }
  for _, k := range keys {
    if strings.Contains(strings.ToLower(values[k]), strings.ToLower(f[k])) {
      return true
    }
  }
  return false
}
