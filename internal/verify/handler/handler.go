// Package handler exposes the verification pipeline over HTTP.
package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"certverify/internal/credential"
	"certverify/internal/platform/middleware"
	"certverify/internal/transport/httputil"
	"certverify/internal/verify"
	dErrors "certverify/pkg/domain-errors"
)

// VerificationService is the pipeline surface the handler depends on.
type VerificationService interface {
	Verify(ctx context.Context, typ credential.Type, wallet string) (*verify.Verdict, error)
}

// Handler serves the credential verification endpoint.
type Handler struct {
	service VerificationService
	logger  *slog.Logger
}

func New(service VerificationService, logger *slog.Logger) *Handler {
	if service == nil {
		panic("handler: nil verification service")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{service: service, logger: logger}
}

// Routes mounts the verification endpoint on a fresh subrouter.
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Get("/", h.VerifyCredential)
	return r
}

// VerifyCredential handles GET /verify?type=<MSPO|LAND_DEED>&address=<wallet>.
// Any failure collapses to the single failure envelope the clients consume.
func (h *Handler) VerifyCredential(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := h.logger.With("request_id", middleware.GetRequestID(ctx))

	typ, err := credential.ParseType(r.URL.Query().Get("type"))
	if err != nil {
		logger.WarnContext(ctx, "rejected verification request", "error", err)
		httputil.WriteFailure(w, err.Error())
		return
	}

	wallet := r.URL.Query().Get("address")
	if wallet == "" {
		logger.WarnContext(ctx, "rejected verification request", "error", "missing address")
		httputil.WriteFailure(w, "wallet address is required")
		return
	}

	verdict, err := h.service.Verify(ctx, typ, wallet)
	if err != nil {
		logger.ErrorContext(ctx, "verification failed",
			"credential_type", typ,
			"wallet", wallet,
			"error", err,
		)
		httputil.WriteFailure(w, failureMessage(err))
		return
	}

	httputil.WriteSuccess(w, "Verification Status Generated.", map[string]any{
		"verificationStatus": verdict,
	})
}

// failureMessage surfaces the coded error's message in the failure envelope.
// Only the top-level domain message is exposed; wrapped causes may carry
// upstream URLs and stay in the logs.
func failureMessage(err error) string {
	var dErr *dErrors.Error
	if errors.As(err, &dErr) && dErr.Message != "" {
		return dErr.Message
	}
	return "Failed to generate verification status."
}
