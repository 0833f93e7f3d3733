package http

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/jdufresne12/web-portal/pkg/httputil"
	"github.com/jdufresne12/web-portal/pkg/pagination"

	"github.com/jdufresne12/web-portal/internal/domain"
	"github.com/jdufresne12/web-portal/internal/repository"
	"github.com/jdufresne12/web-portal/internal/service"
)

// maxRecordBodySize caps a record body. Media binaries travel as drafts, so
// a record is small.
const maxRecordBodySize = 1 << 20

// SponsorHandler handles HTTP requests for sponsor and product records.
type SponsorHandler struct {
	service *service.SponsorService
	cookies cookieJar
	logger  *slog.Logger
}

// NewSponsorHandler creates a new sponsor HTTP handler.
func NewSponsorHandler(svc *service.SponsorService, cookies cookieJar, logger *slog.Logger) *SponsorHandler {
	return &SponsorHandler{
		service: svc,
		cookies: cookies,
		logger:  logger,
	}
}

// ListSponsors handles GET /api/v1/sponsors.
func (h *SponsorHandler) ListSponsors(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	status := domain.ParseStatusFilter(q.Get("status"))

	var t domain.SponsorType
	if raw := q.Get("category"); raw != "" {
		c, ok := domain.ParseCategory(raw)
		if !ok {
			writeInvalid(w, "INVALID_PARAMETER", "unknown category: "+raw)
			return
		}
		if _, err := h.service.FetchCategory(r.Context(), c); err != nil {
			writeServiceError(w, r, err, h.cookies, h.logger)
			return
		}
		t = c.Type()
	} else if !h.ensureLoaded(w, r) {
		return
	}

	items := h.service.List(r.Context(), t, status)
	params := pagination.FromRequest(r)
	httputil.WriteJSON(w, http.StatusOK,
		httputil.NewPaginatedResponse(pagination.Slice(items, params), len(items), params.Page, params.PerPage))
}

// GetStats handles GET /api/v1/sponsors/stats.
func (h *SponsorHandler) GetStats(w http.ResponseWriter, r *http.Request) {
	if !h.ensureLoaded(w, r) {
		return
	}
	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: h.service.Stats(r.Context())})
}

// GetSponsor handles GET /api/v1/sponsors/{id}.
func (h *SponsorHandler) GetSponsor(w http.ResponseWriter, r *http.Request) {
	if !h.ensureLoaded(w, r) {
		return
	}
	v, err := h.service.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeServiceError(w, r, err, h.cookies, h.logger)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: v})
}

// CreateSponsor handles POST /api/v1/sponsors.
func (h *SponsorHandler) CreateSponsor(w http.ResponseWriter, r *http.Request) {
	v, ok := h.decodeRecord(w, r)
	if !ok || !h.ensureLoaded(w, r) {
		return
	}

	res, err := h.service.Add(r.Context(), v)
	if err != nil {
		writeServiceError(w, r, err, h.cookies, h.logger)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, httputil.Response{Data: res})
}

// UpdateSponsor handles PUT /api/v1/sponsors/{id}.
func (h *SponsorHandler) UpdateSponsor(w http.ResponseWriter, r *http.Request) {
	v, ok := h.decodeRecord(w, r)
	if !ok || !h.ensureLoaded(w, r) {
		return
	}

	res, err := h.service.Edit(r.Context(), chi.URLParam(r, "id"), v)
	if err != nil {
		writeServiceError(w, r, err, h.cookies, h.logger)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: res})
}

// DeleteSponsor handles DELETE /api/v1/sponsors/{id}.
func (h *SponsorHandler) DeleteSponsor(w http.ResponseWriter, r *http.Request) {
	if !h.ensureLoaded(w, r) {
		return
	}
	res, err := h.service.Delete(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeServiceError(w, r, err, h.cookies, h.logger)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: res})
}

// Refresh handles POST /api/v1/sponsors/refresh.
func (h *SponsorHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	if err := h.service.Refresh(r.Context()); err != nil {
		writeServiceError(w, r, err, h.cookies, h.logger)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: h.service.Stats(r.Context())})
}

// ListUserLevels handles GET /api/v1/user-levels.
func (h *SponsorHandler) ListUserLevels(w http.ResponseWriter, r *http.Request) {
	levels, err := h.service.UserLevels(r.Context())
	if err != nil {
		writeServiceError(w, r, err, h.cookies, h.logger)
		return
	}
	if levels == nil {
		levels = []domain.UserLevelDTO{}
	}
	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: levels})
}

// ListReports handles GET /api/v1/mutation-reports.
func (h *SponsorHandler) ListReports(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := repository.ReportFilter{RecordID: q.Get("record_id")}
	if v := q.Get("failed"); v != "" {
		failed, err := strconv.ParseBool(v)
		if err != nil {
			writeInvalid(w, "INVALID_PARAMETER", "failed must be true or false")
			return
		}
		filter.FailedOnly = failed
	}

	params := pagination.FromRequest(r)
	reports, total, err := h.service.Reports(r.Context(), filter, params.Page, params.PerPage)
	if err != nil {
		writeServiceError(w, r, err, h.cookies, h.logger)
		return
	}
	httputil.WriteJSON(w, http.StatusOK,
		httputil.NewPaginatedResponse(reports, total, params.Page, params.PerPage))
}

// ensureLoaded fills the in-memory list on the first request that reads or
// mutates it. It writes the error response and returns false on failure.
func (h *SponsorHandler) ensureLoaded(w http.ResponseWriter, r *http.Request) bool {
	if err := h.service.EnsureLoaded(r.Context()); err != nil {
		writeServiceError(w, r, err, h.cookies, h.logger)
		return false
	}
	return true
}

func (h *SponsorHandler) decodeRecord(w http.ResponseWriter, r *http.Request) (domain.SponsorData, bool) {
	r.Body = http.MaxBytesReader(w, r.Body, maxRecordBodySize)

	var v domain.SponsorData
	if err := json.NewDecoder(r.Body).Decode(&v); err != nil {
		writeInvalid(w, "INVALID_INPUT", "invalid request body: "+err.Error())
		return domain.SponsorData{}, false
	}
	return v, true
}
