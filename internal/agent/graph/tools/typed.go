package tools

import (
	"context"
	"encoding/json"

	errx "github.com/Chative-support-router/server/internal/core/error"
	"github.com/go-playground/validator/v10"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// Typed decodes arguments into In and checks its validate tags before
// calling fn. Decode and validation errors are tool_validation_failure.
func Typed[In any](fn func(ctx context.Context, in *In) (any, error)) Executor {
	return func(ctx context.Context, args map[string]any) (any, error) {
		raw, err := json.Marshal(args)
		if err != nil {
			return nil, errx.Wrap(errx.KindToolValidation, err, "arguments are not serializable")
		}
		var in In
		if err := json.Unmarshal(raw, &in); err != nil {
			return nil, errx.Wrap(errx.KindToolValidation, err, "invalid arguments")
		}
		if err := validate.StructCtx(ctx, &in); err != nil {
			return nil, errx.Wrap(errx.KindToolValidation, err, "invalid arguments")
		}
		return fn(ctx, &in)
	}
}
