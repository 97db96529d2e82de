package requestdata

import (
  "context"

  "github.com/ninthgrid/ninthgrid-backend/internal/types"
)

type key struct{}

var requestDataKey key

func WithRequestData(ctx context.Context, rd *RequestData) context.Context {
  return context.WithValue(ctx, requestDataKey, rd)
}

func GetRequestData(ctx context.Context) *RequestData {
  val := ctx.Value(requestDataKey)
  if rd, ok := val.(*RequestData); ok {
    return rd
  }
  return nil
}

// RequestData is created per request by AttachRequestContext; the bearer
// middleware fills in the caller on protected routes.
type RequestData struct {
  RequestID   string
  TokenString string
  UserID      string
  User        *types.User
}

// Authenticated is false for a nil receiver.
func (rd *RequestData) Authenticated() bool {
  return rd != nil && rd.UserID != ""
}
