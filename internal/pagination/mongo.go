package pagination

import (
  "context"
  "fmt"
  "regexp"

  "go.mongodb.org/mongo-driver/v2/bson"
  "go.mongodb.org/mongo-driver/v2/mongo"
  "go.mongodb.org/mongo-driver/v2/mongo/options"

  "github.com/ninthgrid/ninthgrid-backend/internal/types"
)

// DefaultSort is newest first.
var DefaultSort = bson.D{{Key: "created_at", Value: -1}}

// MongoFilter combines scope with the substring filter as an $or of case-insensitive regexes.
func MongoFilter(scope bson.M, filter Filter) bson.M {
  out := bson.M{}
  for k, v := range scope {
    out[k] = v
  }
  fields := filter.fields()
  if len(fields) == 0 {
    return out
  }
  or := make(bson.A, 0, len(fields))
  for _, f := range fields {
    or = append(or, bson.M{f: bson.M{"$regex": regexp.QuoteMeta(filter[f]), "$options": "i"}})
  }
  out["$or"] = or
  return out
}

// Mongo pages over coll; documents are decoded as D and converted to T.
func Mongo[D any, T any](ctx context.Context, coll *mongo.Collection, query bson.M, q types.PageQuery, sort bson.D, convert func(D) T) (*types.Page[T], error) {
  p := Normalize(q)
  if len(sort) == 0 {
    sort = DefaultSort
  }

  total, err := coll.CountDocuments(ctx, query)
  if err != nil {
    return nil, fmt.Errorf("count page documents: %w", err)
  }

  opts := options.Find().
    SetSkip(int64(p.Offset)).
    SetLimit(int64(p.Limit)).
    SetSort(sort)
  cursor, err := coll.Find(ctx, query, opts)
  if err != nil {
    return nil, fmt.Errorf("fetch page documents: %w", err)
  }
  var docs []D
  if err := cursor.All(ctx, &docs); err != nil {
    return nil, fmt.Errorf("decode page documents: %w", err)
  }

  data := make([]T, 0, len(docs))
  for _, d := range docs {
    data = append(data, convert(d))
  }
  return &types.Page[T]{Data: data, Pagination: Meta(p, total)}, nil
}
