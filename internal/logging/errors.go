package logging

import (
	"context"

	"github.com/samber/oops"
)

// LogError logs err at error level. For oops errors the code and the
// attached context are added as separate attributes.
func LogError(ctx context.Context, l Logger, msg string, err error) {
	oopsErr, ok := oops.AsOops(err)
	if !ok {
		l.Error(ctx, msg, "error", err)
		return
	}

	attrs := []any{"error", oopsErr.Error()}
	if code := oopsErr.Code(); code != nil && code != "" {
		attrs = append(attrs, "code", code)
	}
	if c := oopsErr.Context(); len(c) > 0 {
		attrs = append(attrs, "context", c)
	}
	l.Error(ctx, msg, attrs...)
}
