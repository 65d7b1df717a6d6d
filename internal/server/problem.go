package server

import (
	"context"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"AgriGenie/internal/collector"
	"AgriGenie/internal/recorder"
)

// Problem types, RFC 7807.
const (
	TypeValidation = "/errors/validation"
	TypeNotFound   = "/errors/not-found"
	TypeUpstream   = "/errors/upstream"
	TypeTimeout    = "/errors/timeout"
	TypeInternal   = "/errors/internal"
)

// FieldError describes one rejected request field.
type FieldError struct {
	Field string `json:"field"`
	Rule  string `json:"rule"`
}

// Problem is an RFC 7807 problem details body.
type Problem struct {
	Type      string       `json:"type"`
	Title     string       `json:"title"`
	Status    int          `json:"status"`
	Detail    string       `json:"detail,omitempty"`
	Instance  string       `json:"instance,omitempty"`
	RequestID string       `json:"request_id,omitempty"`
	Errors    []FieldError `json:"errors,omitempty"`
}

// Render implements render.Renderer.
func (p *Problem) Render(w http.ResponseWriter, r *http.Request) error {
	render.Status(r, p.Status)
	return nil
}

// badRequest marks caller mistakes that are not struct validation failures.
type badRequest struct{ msg string }

func (e badRequest) Error() string { return e.msg }

// errUpstream marks failures of the market feed.
var errUpstream = errors.New("market feed unavailable")

func toProblem(err error, r *http.Request) *Problem {
	p := &Problem{Instance: r.URL.Path, Detail: err.Error()}

	var verrs validator.ValidationErrors
	var bad badRequest
	switch {
	case errors.As(err, &verrs):
		p.Type, p.Title, p.Status = TypeValidation, "Validation Failed", http.StatusBadRequest
		p.Detail = "request parameters failed validation"
		for _, fe := range verrs {
			p.Errors = append(p.Errors, FieldError{Field: fe.Field(), Rule: fe.Tag()})
		}
	case errors.As(err, &bad):
		p.Type, p.Title, p.Status = TypeValidation, "Bad Request", http.StatusBadRequest
	case errors.Is(err, collector.ErrNoRecords), errors.Is(err, recorder.ErrNotFound):
		p.Type, p.Title, p.Status = TypeNotFound, "Not Found", http.StatusNotFound
	case errors.Is(err, context.DeadlineExceeded):
		p.Type, p.Title, p.Status = TypeTimeout, "Request Timeout", http.StatusGatewayTimeout
	case errors.Is(err, errUpstream):
		p.Type, p.Title, p.Status = TypeUpstream, "Bad Gateway", http.StatusBadGateway
	default:
		p.Type, p.Title, p.Status = TypeInternal, "Internal Server Error", http.StatusInternalServerError
		p.Detail = "unexpected error"
	}
	return p
}

func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error) {
	p := toProblem(err, r)
	p.RequestID = middleware.GetReqID(r.Context())

	log := s.logger.Warn
	if p.Status >= http.StatusInternalServerError {
		log = s.logger.Error
	}
	log("request failed",
		zap.Error(err),
		zap.Int("status", p.Status),
		zap.String("request_id", p.RequestID),
		zap.String("method", r.Method),
		zap.String("path", r.URL.Path),
	)
	_ = render.Render(w, r, p)
}
