package httputil

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	dErrors "credverify/pkg/domain-errors"
	"credverify/pkg/requestcontext"
)

// Sanitizer trims or rewrites fields after decoding.
type Sanitizer interface {
	Sanitize()
}

// Validator rejects a decoded body.
type Validator interface {
	Validate() error
}

// Decode reads the JSON body of r into a T, then runs Sanitize and Validate
// when T implements them. On failure the error response is already written
// and ok is false.
//
//	req, ok := httputil.Decode[IssueDegreeRequest](w, r, h.logger)
//	if !ok {
//	    return
//	}
func Decode[T any](w http.ResponseWriter, r *http.Request, logger *slog.Logger) (*T, bool) {
	ctx := r.Context()
	req := new(T)
	if err := json.NewDecoder(r.Body).Decode(req); err != nil {
		logger.WarnContext(ctx, "failed to decode request body",
			"error", err,
			"request_id", requestcontext.RequestID(ctx),
		)
		WriteError(w, bodyError(err))
		return nil, false
	}

	if s, ok := any(req).(Sanitizer); ok {
		s.Sanitize()
	}
	v, ok := any(req).(Validator)
	if !ok {
		return req, true
	}
	if err := v.Validate(); err != nil {
		logger.WarnContext(ctx, "invalid request",
			"error", err,
			"request_id", requestcontext.RequestID(ctx),
		)
		var domainErr *dErrors.Error
		if !errors.As(err, &domainErr) {
			err = dErrors.New(dErrors.CodeValidation, err.Error())
		}
		WriteError(w, err)
		return nil, false
	}
	return req, true
}

func bodyError(err error) error {
	var tooLarge *http.MaxBytesError
	switch {
	case errors.Is(err, io.EOF):
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	case errors.As(err, &tooLarge):
		return dErrors.New(dErrors.CodeBadRequest, "request body too large")
	default:
		return dErrors.New(dErrors.CodeBadRequest, "invalid request body")
	}
}
