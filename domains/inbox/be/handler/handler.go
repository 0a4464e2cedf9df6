package handler

import (
	"encoding/csv"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/prosektorweb/inbox-api/domains/inbox/be/entity"
	"github.com/prosektorweb/inbox-api/domains/inbox/be/service"
	platformauth "github.com/prosektorweb/inbox-api/platform/auth"
	"github.com/prosektorweb/inbox-api/platform/httpapi"
	"github.com/prosektorweb/inbox-api/platform/logging"
	"github.com/prosektorweb/inbox-api/platform/query"
	"github.com/prosektorweb/inbox-api/platform/requestid"
	"github.com/prosektorweb/inbox-api/platform/requesttrace"
	"github.com/prosektorweb/inbox-api/platform/tenant"
	"github.com/prosektorweb/inbox-api/platform/upload"
)

// Handler exposes the inbox HTTP surface. List, Export and MarkRead are
// factories: one Spec in, one http.HandlerFunc out.
type Handler struct {
	svc    service.Service
	logger *zap.Logger
}

// New constructs a Handler instance.
func New(svc service.Service, logger *zap.Logger) *Handler {
	if svc == nil {
		panic("inbox service is required")
	}
	if logger == nil {
		panic("logger is required")
	}

	return &Handler{svc: svc, logger: logger}
}

// Routes mounts every inbox entity plus the upload validation guard.
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()

	for _, sp := range entity.Catalog() {
		r.Get("/"+sp.Name, h.List(sp))
		r.Get("/"+sp.Name+"/export", h.Export(sp))
		r.Post("/"+sp.Name+"/{id}/read", h.MarkRead(sp))
	}

	r.Post("/uploads/validate", h.UploadValidate)

	return r
}

// List returns the paginated JSON handler for one entity.
func (h *Handler) List(sp entity.Spec) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		audit, space, ok := h.requestContext(w, r)
		if !ok {
			return
		}

		result, err := h.svc.List(r.Context(), audit, space, sp, r.URL.Query())
		if err != nil {
			h.writeError(w, r, err, sp.Name+":list")
			return
		}

		items := result.Items
		if items == nil {
			items = []entity.Row{}
		}

		httpapi.WriteData(w, r, http.StatusOK, httpapi.Paginated{
			Items:      items,
			Total:      result.TotalItems,
			TotalPages: result.TotalPages,
			Page:       result.Page,
			Limit:      result.Limit,
		})
	}
}

// Export returns the CSV attachment handler for one entity.
func (h *Handler) Export(sp entity.Spec) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		audit, space, ok := h.requestContext(w, r)
		if !ok {
			return
		}

		rows, err := h.svc.Export(r.Context(), audit, space, sp, r.URL.Query())
		if err != nil {
			h.writeError(w, r, err, sp.Name+":export")
			return
		}

		filename := sp.FilenamePrefix + "-" + time.Now().UTC().Format("2006-01-02") + ".csv"

		w.Header().Set("Content-Type", "text/csv; charset=utf-8")
		w.Header().Set("Content-Disposition", `attachment; filename="`+filename+`"`)
		if id, idOK := requestid.FromContext(r.Context()); idOK {
			w.Header().Set(requestid.Header, id)
		}
		w.WriteHeader(http.StatusOK)

		writer := csv.NewWriter(w)
		_ = writer.Write(sp.CSVHeader)
		for _, row := range rows {
			_ = writer.Write(sp.CSVRow(row))
		}
		writer.Flush()

		if err := writer.Error(); err != nil {
			// Headers are gone; all we can do is log with the request id.
			logging.FromRequest(r, h.logger).Error("stream csv export",
				zap.String("entity", sp.Name), zap.Error(err))
		}
	}
}

// MarkRead returns the mark-read handler for one entity.
func (h *Handler) MarkRead(sp entity.Spec) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		audit, space, ok := h.requestContext(w, r)
		if !ok {
			return
		}

		id, err := uuid.Parse(chi.URLParam(r, "id"))
		if err != nil {
			httpapi.WriteError(w, r, &httpapi.Error{
				Code:    httpapi.CodeValidation,
				Message: "one or more parameters are invalid",
				Details: map[string][]string{"id": {"id must be a valid UUID"}},
			})
			return
		}

		updated, err := h.svc.MarkRead(r.Context(), audit, space, sp, id)
		if err != nil {
			h.writeError(w, r, err, sp.Name+":read")
			return
		}

		httpapi.WriteData(w, r, http.StatusOK, map[string]string{"id": updated.String()})
	}
}

type summaryItem struct {
	Entity string `json:"entity"`
	Total  int    `json:"total"`
	Unread int    `json:"unread"`
}

// Summary serves the admin per-entity unread/total overview. Route-level
// middleware enforces the admin role before this runs.
func (h *Handler) Summary(w http.ResponseWriter, r *http.Request) {
	audit, space, ok := h.requestContext(w, r)
	if !ok {
		return
	}

	summaries, err := h.svc.Summary(r.Context(), audit, space)
	if err != nil {
		h.writeError(w, r, err, "inbox:summary")
		return
	}

	items := make([]summaryItem, 0, len(summaries))
	for _, s := range summaries {
		items = append(items, summaryItem{Entity: s.Entity, Total: s.Total, Unread: s.Unread})
	}

	httpapi.WriteData(w, r, http.StatusOK, map[string]any{"entities": items})
}

// UploadValidate sniffs the leading bytes of a prospective attachment and
// accepts or rejects it before anything touches storage. The declared
// Content-Type is checked against the actual signature.
func (h *Handler) UploadValidate(w http.ResponseWriter, r *http.Request) {
	if _, _, ok := h.requestContext(w, r); !ok {
		return
	}

	prefix := make([]byte, upload.SniffLen)
	n, err := io.ReadFull(r.Body, prefix)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		h.writeError(w, r, err, "inbox:uploads")
		return
	}

	kind, err := upload.Validate(r.Header.Get("Content-Type"), prefix[:n])
	if err != nil {
		httpapi.WriteError(w, r, &httpapi.Error{
			Code:    httpapi.CodeValidation,
			Message: "file is not an accepted type",
			Details: map[string][]string{"file": {err.Error()}},
		})
		return
	}

	httpapi.WriteData(w, r, http.StatusOK, map[string]string{"type": string(kind)})
}

// requestContext pulls the authenticated caller and tenant space off the
// request, writing the failure response itself when either is missing.
func (h *Handler) requestContext(w http.ResponseWriter, r *http.Request) (requesttrace.AuditInfo, tenant.Space, bool) {
	ctx := r.Context()

	if _, ok := platformauth.UserFromContext(ctx); !ok {
		httpapi.WriteError(w, r, &httpapi.Error{
			Code:    httpapi.CodeUnauthenticated,
			Message: "authentication required",
		})
		return requesttrace.AuditInfo{}, tenant.Space{}, false
	}

	space, ok := tenant.FromContext(ctx)
	if !ok {
		httpapi.WriteError(w, r, &httpapi.Error{
			Code:    httpapi.CodeForbidden,
			Message: "no tenant membership",
		})
		return requesttrace.AuditInfo{}, tenant.Space{}, false
	}

	return requesttrace.FromContextOrAnonymous(ctx), space, true
}

func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, err error, op string) {
	apiErr := classify(err)
	status := httpapi.StatusForCode(apiErr.Code)

	logger := logging.FromRequest(r, h.logger)
	fields := []zap.Field{zap.String("operation", op), zap.Int("status", status)}
	switch {
	case status >= http.StatusInternalServerError:
		logger.Error("inbox operation failed", append(fields, zap.Error(err))...)
	case status == http.StatusNotFound:
		logger.Info("inbox item not found", fields...)
	default:
		logger.Warn("inbox request rejected", append(fields, zap.Error(err))...)
	}

	httpapi.WriteError(w, r, apiErr)
}

// classify maps domain errors onto the fixed client-facing code vocabulary.
// Anything unrecognized is INTERNAL; the cause stays in the logs.
func classify(err error) *httpapi.Error {
	var validationErr *query.ValidationError
	var limited *service.RateLimitedError

	switch {
	case errors.As(err, &validationErr):
		return &httpapi.Error{
			Code:    httpapi.CodeValidation,
			Message: "one or more query parameters are invalid",
			Details: validationErr.Fields,
		}
	case errors.As(err, &limited):
		return &httpapi.Error{
			Code:       httpapi.CodeRateLimited,
			Message:    "rate limit exceeded, retry later",
			RetryAfter: limited.RetryAfter,
		}
	case errors.Is(err, service.ErrNotFound):
		return &httpapi.Error{
			Code:    httpapi.CodeNotFound,
			Message: "inbox item not found",
		}
	default:
		return &httpapi.Error{
			Code:    httpapi.CodeInternal,
			Message: "an unexpected error occurred",
		}
	}
}
