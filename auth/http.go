package auth

import (
	"github.com/goliatone/go-errors"
	"github.com/goliatone/go-print"
	"github.com/goliatone/go-router"

	"github.com/saudelab/clinica-api/middleware/jwtware"
)

// APIErrorHandler maps rich errors to JSON responses. Auth failures stay
// deliberately vague, validation failures report every failing field, and
// internal errors never leak details to the client.
type APIErrorHandler struct {
	Logger Logger
}

func NewAPIErrorHandler(logger Logger) *APIErrorHandler {
	h := &APIErrorHandler{Logger: logger}
	if h.Logger == nil {
		h.Logger = defLogger{}
	}
	return h
}

// Handle satisfies the router error handler signature.
func (h *APIErrorHandler) Handle(c router.Context, err error) error {
	// A request with no bearer token never reaches the token validator, so
	// the middleware reports it with its own sentinel. It is an
	// authentication failure, not a server fault.
	if errors.Is(err, jwtware.ErrJWTMissingOrMalformed) {
		err = ErrMissingCredential
	}

	var richErr *errors.Error
	if !errors.As(err, &richErr) {
		richErr = errors.Wrap(err, errors.CategoryInternal, "An unexpected server error occurred").
			WithCode(errors.CodeInternal)
	}

	switch richErr.Category {
	case errors.CategoryValidation:
		return h.respondValidation(c, richErr)
	case errors.CategoryAuth:
		return h.respond(c, statusOr(richErr, router.StatusUnauthorized), richErr)
	case errors.CategoryAuthz:
		return h.respond(c, statusOr(richErr, router.StatusForbidden), richErr)
	case errors.CategoryConflict:
		return h.respond(c, statusOr(richErr, router.StatusConflict), richErr)
	case errors.CategoryNotFound:
		return h.respond(c, statusOr(richErr, router.StatusNotFound), richErr)
	default:
		h.Logger.Error(
			"request failed",
			"error", richErr.Message,
			"category", richErr.Category,
			"details", print.MaybePrettyJSON(richErr.Metadata),
		)
		return c.JSON(router.StatusInternalServerError, map[string]any{
			"error": map[string]any{
				"message":   "An unexpected server error occurred",
				"text_code": "INTERNAL_ERROR",
			},
		})
	}
}

func (h *APIErrorHandler) respond(c router.Context, status int, richErr *errors.Error) error {
	return c.JSON(status, map[string]any{
		"error": map[string]any{
			"message":   richErr.Message,
			"text_code": richErr.TextCode,
		},
	})
}

func (h *APIErrorHandler) respondValidation(c router.Context, richErr *errors.Error) error {
	body := map[string]any{
		"error": map[string]any{
			"message":   richErr.Message,
			"text_code": richErr.TextCode,
		},
	}

	if fields, ok := richErr.Metadata["fields"]; ok {
		body["errors"] = fields
	}

	return c.JSON(statusOr(richErr, router.StatusBadRequest), body)
}

func statusOr(richErr *errors.Error, def int) int {
	if richErr.Code > 0 {
		return richErr.Code
	}
	return def
}
