package http

import (
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/jdufresne12/web-portal/pkg/httputil"
	"github.com/jdufresne12/web-portal/pkg/validator"

	"github.com/jdufresne12/web-portal/internal/domain"
	"github.com/jdufresne12/web-portal/internal/service"
)

// DraftHandler handles media draft uploads and previews.
type DraftHandler struct {
	service *service.DraftService
	cookies cookieJar
	logger  *slog.Logger
}

// NewDraftHandler creates a new draft HTTP handler.
func NewDraftHandler(svc *service.DraftService, cookies cookieJar, logger *slog.Logger) *DraftHandler {
	return &DraftHandler{
		service: svc,
		cookies: cookies,
		logger:  logger,
	}
}

// draftForm holds the non-file fields of a draft upload.
type draftForm struct {
	Owner  string `form:"owner" validate:"required,oneof=sponsor product"`
	Tag    string `form:"tag" validate:"omitempty,oneof=Main Header Section1 Section2"`
	Order  int    `form:"order" validate:"gte=1"`
	Width  int    `form:"width" validate:"gte=0"`
	Height int    `form:"height" validate:"gte=0"`
}

func (f draftForm) kind() domain.RecordKind {
	if f.Owner == domain.KindProduct.String() {
		return domain.KindProduct
	}
	return domain.KindSponsor
}

// CreateDraft handles POST /api/v1/media/drafts (multipart/form-data).
func (h *DraftHandler) CreateDraft(w http.ResponseWriter, r *http.Request) {
	// Add 1MB overhead for form fields.
	r.Body = http.MaxBytesReader(w, r.Body, h.service.MaxBytes()+(1<<20))

	if err := r.ParseMultipartForm(32 << 20); err != nil {
		writeInvalid(w, "INVALID_INPUT", "failed to parse multipart form: "+err.Error())
		return
	}

	form, ok := parseDraftForm(w, r)
	if !ok {
		return
	}
	if err := validator.Validate(form); err != nil {
		httputil.WriteValidationError(w, err)
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		writeInvalid(w, "INVALID_INPUT", "file is required: "+err.Error())
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		writeInvalid(w, "INVALID_INPUT", "failed to read file: "+err.Error())
		return
	}

	tag, _ := domain.ParseTag(form.Tag)
	_, medium, err := h.service.Create(r.Context(), &service.CreateDraftInput{
		FileName: header.Filename,
		Data:     data,
		Owner:    form.kind(),
		Tag:      tag,
		Order:    form.Order,
		Width:    form.Width,
		Height:   form.Height,
	})
	if err != nil {
		writeServiceError(w, r, err, h.cookies, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusCreated, httputil.Response{Data: medium})
}

// PreviewDraft handles GET /api/v1/media/drafts/{id} and serves the bytes.
func (h *DraftHandler) PreviewDraft(w http.ResponseWriter, r *http.Request) {
	d, err := h.service.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeServiceError(w, r, err, h.cookies, h.logger)
		return
	}

	w.Header().Set("Content-Type", d.ContentType)
	w.Header().Set("Content-Length", strconv.Itoa(len(d.Data)))
	w.Header().Set("Cache-Control", "private, no-store")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(d.Data)
}

// ReleaseDraft handles DELETE /api/v1/media/drafts/{id}.
func (h *DraftHandler) ReleaseDraft(w http.ResponseWriter, r *http.Request) {
	if err := h.service.Release(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeServiceError(w, r, err, h.cookies, h.logger)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// GetProfile handles GET /api/v1/media/profiles?owner=&tag=.
func (h *DraftHandler) GetProfile(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	form := draftForm{Owner: q.Get("owner"), Tag: q.Get("tag"), Order: 1}
	if err := validator.Validate(form); err != nil {
		httputil.WriteValidationError(w, err)
		return
	}

	tag, _ := domain.ParseTag(form.Tag)
	p, err := h.service.Profile(form.kind(), tag)
	if err != nil {
		writeServiceError(w, r, err, h.cookies, h.logger)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: p})
}

func parseDraftForm(w http.ResponseWriter, r *http.Request) (draftForm, bool) {
	form := draftForm{Owner: r.FormValue("owner"), Tag: r.FormValue("tag")}
	fields := []struct {
		name string
		dst  *int
		def  int
	}{
		{"order", &form.Order, 1},
		{"width", &form.Width, 0},
		{"height", &form.Height, 0},
	}
	for _, f := range fields {
		raw := r.FormValue(f.name)
		if raw == "" {
			*f.dst = f.def
			continue
		}
		n, err := strconv.Atoi(raw)
		if err != nil {
			writeInvalid(w, "INVALID_PARAMETER", f.name+" must be an integer")
			return draftForm{}, false
		}
		*f.dst = n
	}
	return form, true
}
