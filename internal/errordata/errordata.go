package errordata

import (
	"context"
)

type key struct{}

var errorDataKey key

// ErrorData lets handlers hand the failure message to the request logger.
type ErrorData struct {
	Message string
	Kind    string
}

func WithErrorData(ctx context.Context) context.Context {
	ed := &ErrorData{}
	return context.WithValue(ctx, errorDataKey, ed)
}

func GetErrorData(ctx context.Context) *ErrorData {
	val := ctx.Value(errorDataKey)
	ed, ok := val.(*ErrorData)
	if !ok {
		return nil
	}
	return ed
}

func (ed *ErrorData) SetMessage(kind, msg string) {
	ed.Kind = kind
	ed.Message = msg
}

func (ed *ErrorData) HasMessage() bool {
	return ed.Message != ""
}
