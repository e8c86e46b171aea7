// Package handler exposes credential operations over HTTP: REST routes, plus
// the single-endpoint transaction gateway that existing clients submit
// "(operationName, args...)" calls to.
package handler

import (
	"context"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"credverify/internal/credential/models"
	dErrors "credverify/pkg/domain-errors"
	"credverify/pkg/platform/httputil"
	"credverify/pkg/requestcontext"
	"credverify/pkg/validation"
)

// Service is the credential service as the HTTP layer sees it.
type Service interface {
	RegisterUniversityKey(ctx context.Context, uni, publicKey string) error
	GetUniversityKey(ctx context.Context, uni string) (models.UniversityKey, error)
	RequestDegree(ctx context.Context, in models.StudentRequestInput) (string, error)
	RequestVerification(ctx context.Context, in models.VerifierRequestInput) (string, error)
	ListDegreeRequests(ctx context.Context, user string, role models.Role) ([]models.Record, error)
	ListVerificationRequests(ctx context.Context, user string, role models.Role) ([]models.Record, error)
	IssueDegree(ctx context.Context, in models.IssueDegreeInput) (string, error)
	CompleteVerificationRequest(ctx context.Context, key, degreeID string) error
	VerifyDegree(ctx context.Context, degreeID string) (bool, error)
	PatchRecord(ctx context.Context, key string, body []byte) (models.Record, error)
	CountDegreesIssued(ctx context.Context, uni string) (int, error)
	GetRecord(ctx context.Context, key string) (models.Record, error)
	GetUserRecords(ctx context.Context, user string) (models.Registry, error)
	RebuildRequestIndexes(ctx context.Context) (int, error)
}

type Handler struct {
	service Service
	logger  *slog.Logger
}

func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

func (h *Handler) Register(r chi.Router) {
	r.Post("/submitTransactionToBlockChain", h.HandleSubmitTransaction)

	r.Put("/universities/{uni}/public-key", h.HandleRegisterUniversityKey)
	r.Get("/universities/{uni}/public-key", h.HandleGetUniversityKey)

	r.Post("/degree-requests", h.HandleCreateDegreeRequest)
	r.Get("/degree-requests", h.HandleListDegreeRequests)
	r.Post("/verification-requests", h.HandleCreateVerificationRequest)
	r.Get("/verification-requests", h.HandleListVerificationRequests)
	r.Post("/verification-requests/complete", h.HandleCompleteVerificationRequest)

	r.Post("/degrees", h.HandleIssueDegree)
	r.Get("/degrees/count/{uni}", h.HandleCountDegrees)
	r.Get("/degrees/{degreeID}/verify", h.HandleVerifyDegree)

	r.Get("/records/{key}", h.HandleGetRecord)
	r.Patch("/records/{key}", h.HandlePatchRecord)
	r.Get("/users/{user}/records", h.HandleGetUserRecords)

	r.Post("/admin/reindex", h.HandleRebuildIndexes)
}

func (h *Handler) fail(w http.ResponseWriter, r *http.Request, msg string, err error) {
	ctx := r.Context()
	if !dErrors.HasCode(err, dErrors.CodeNotFound) {
		h.logger.ErrorContext(ctx, msg,
			"error", err,
			"request_id", requestcontext.RequestID(ctx),
		)
	}
	httputil.WriteError(w, err)
}

func (h *Handler) HandleRegisterUniversityKey(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	req, ok := httputil.Decode[RegisterKeyRequest](w, r, h.logger)
	if !ok {
		return
	}
	uni := chi.URLParam(r, "uni")
	if err := h.service.RegisterUniversityKey(ctx, uni, req.PublicKey); err != nil {
		h.fail(w, r, "register university key failed", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) HandleGetUniversityKey(w http.ResponseWriter, r *http.Request) {
	key, err := h.service.GetUniversityKey(r.Context(), chi.URLParam(r, "uni"))
	if err != nil {
		h.fail(w, r, "get university key failed", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, key)
}

func (h *Handler) HandleCreateDegreeRequest(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	req, ok := httputil.Decode[DegreeRequestRequest](w, r, h.logger)
	if !ok {
		return
	}
	key, err := h.service.RequestDegree(ctx, req.toInput())
	if err != nil {
		h.fail(w, r, "create degree request failed", err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, &KeyResponse{Key: key})
}

func (h *Handler) HandleListDegreeRequests(w http.ResponseWriter, r *http.Request) {
	h.listRequests(w, r, h.service.ListDegreeRequests)
}

func (h *Handler) HandleCreateVerificationRequest(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	req, ok := httputil.Decode[VerificationRequestRequest](w, r, h.logger)
	if !ok {
		return
	}
	key, err := h.service.RequestVerification(ctx, req.toInput())
	if err != nil {
		h.fail(w, r, "create verification request failed", err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, &KeyResponse{Key: key})
}

func (h *Handler) HandleListVerificationRequests(w http.ResponseWriter, r *http.Request) {
	h.listRequests(w, r, h.service.ListVerificationRequests)
}

type listFunc func(ctx context.Context, user string, role models.Role) ([]models.Record, error)

func (h *Handler) listRequests(w http.ResponseWriter, r *http.Request, list listFunc) {
	user := r.URL.Query().Get("user")
	if user == "" {
		httputil.WriteError(w, dErrors.New(dErrors.CodeInvalidInput, "user query parameter is required"))
		return
	}
	role, err := models.ParseRole(r.URL.Query().Get("role"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	records, err := list(r.Context(), user, role)
	if err != nil {
		h.fail(w, r, "list requests failed", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, nonNil(records))
}

func (h *Handler) HandleCompleteVerificationRequest(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	req, ok := httputil.Decode[CompleteVerificationRequest](w, r, h.logger)
	if !ok {
		return
	}
	if err := h.service.CompleteVerificationRequest(ctx, req.Key, req.DegreeID); err != nil {
		h.fail(w, r, "complete verification request failed", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) HandleIssueDegree(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	req, ok := httputil.Decode[IssueDegreeRequest](w, r, h.logger)
	if !ok {
		return
	}
	degreeID, err := h.service.IssueDegree(ctx, req.toInput())
	if err != nil {
		h.fail(w, r, "issue degree failed", err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, &DegreeResponse{DegreeID: degreeID})
}

func (h *Handler) HandleCountDegrees(w http.ResponseWriter, r *http.Request) {
	uni := chi.URLParam(r, "uni")
	n, err := h.service.CountDegreesIssued(r.Context(), uni)
	if err != nil {
		h.fail(w, r, "count degrees failed", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, &CountResponse{University: uni, Count: n})
}

func (h *Handler) HandleVerifyDegree(w http.ResponseWriter, r *http.Request) {
	degreeID := chi.URLParam(r, "degreeID")
	valid, err := h.service.VerifyDegree(r.Context(), degreeID)
	if err != nil {
		h.fail(w, r, "verify degree failed", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, &VerifyResponse{DegreeID: degreeID, Valid: valid})
}

func (h *Handler) HandleGetRecord(w http.ResponseWriter, r *http.Request) {
	rec, err := h.service.GetRecord(r.Context(), chi.URLParam(r, "key"))
	if err != nil {
		h.fail(w, r, "get record failed", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, rec)
}

func (h *Handler) HandlePatchRecord(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, validation.MaxBodySize+1))
	if err != nil || len(body) > validation.MaxBodySize {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}
	rec, err := h.service.PatchRecord(r.Context(), chi.URLParam(r, "key"), body)
	if err != nil {
		h.fail(w, r, "patch record failed", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, rec)
}

func (h *Handler) HandleGetUserRecords(w http.ResponseWriter, r *http.Request) {
	reg, err := h.service.GetUserRecords(r.Context(), chi.URLParam(r, "user"))
	if err != nil {
		h.fail(w, r, "get user records failed", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, reg)
}

func (h *Handler) HandleRebuildIndexes(w http.ResponseWriter, r *http.Request) {
	n, err := h.service.RebuildRequestIndexes(r.Context())
	if err != nil {
		h.fail(w, r, "rebuild request indexes failed", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, &ReindexResponse{Written: n})
}

func nonNil(records []models.Record) []models.Record {
	if records == nil {
		return []models.Record{}
	}
	return records
}
