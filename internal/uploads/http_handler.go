package uploads

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-playground/validator/v10"

	"github.com/moogship/moogship/internal/api"
	"github.com/moogship/moogship/internal/uploads/drivers"
)

// maxDirectPutBytes caps the body of a direct upload.
const maxDirectPutBytes = 32 << 20

type HTTPHandler struct {
	Service  *UploadService
	validate *validator.Validate
}

func NewHTTPHandler(service *UploadService) *HTTPHandler {
	return &HTTPHandler{Service: service, validate: validator.New()}
}

// HandlePresign handles POST /api/objects/upload: phase one of the
// two-phase attachment upload.
func (h *HTTPHandler) HandlePresign(w http.ResponseWriter, r *http.Request) {
	var req PresignRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.WriteError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	if err := h.validate.Struct(&req); err != nil {
		api.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	resp, err := h.Service.PresignUpload(r.Context(), req)
	if err != nil {
		slog.ErrorContext(r.Context(), "presign failed", "error", err)
		api.WriteError(w, http.StatusBadGateway, "failed to prepare upload")
		return
	}

	api.WriteJSON(w, http.StatusOK, resp)
}

// HandleDirectPut handles PUT /api/objects/{key}: phase two of the upload
// flow for the local storage backend, which has no native presigning. The
// key must carry the exp/sig token minted by the presign step.
func (h *HTTPHandler) HandleDirectPut(w http.ResponseWriter, r *http.Request) {
	key := r.PathValue("key")
	if !ValidObjectKey(key) {
		api.WriteError(w, http.StatusBadRequest, "invalid object key")
		return
	}

	body := http.MaxBytesReader(w, r.Body, maxDirectPutBytes)
	exp := r.URL.Query().Get("exp")
	sig := r.URL.Query().Get("sig")

	err := h.Service.Receive(r.Context(), key, exp, sig, body, r.Header.Get("Content-Type"))
	switch {
	case err == nil:
		w.WriteHeader(http.StatusNoContent)
	case errors.Is(err, drivers.ErrBadSignature), errors.Is(err, drivers.ErrExpiredURL):
		api.WriteError(w, http.StatusForbidden, "upload URL is invalid or expired")
	case errors.Is(err, ErrDirectPutUnsupported):
		api.WriteError(w, http.StatusNotFound, "direct upload not available")
	default:
		slog.ErrorContext(r.Context(), "direct upload failed", "key", key, "error", err)
		api.WriteError(w, http.StatusBadGateway, "upload failed")
	}
}

// HandleDownload handles GET /api/objects/{key}
func (h *HTTPHandler) HandleDownload(w http.ResponseWriter, r *http.Request) {
	key := r.PathValue("key")
	if !ValidObjectKey(key) {
		api.WriteError(w, http.StatusNotFound, "file not found")
		return
	}

	reader, contentType, err := h.Service.Download(r.Context(), key)
	if err != nil {
		api.WriteError(w, http.StatusNotFound, "file not found")
		return
	}
	defer reader.Close()

	w.Header().Set("Content-Type", contentType)
	if _, err := io.Copy(w, reader); err != nil {
		slog.ErrorContext(r.Context(), "failed to stream object", "key", key, "error", err)
	}
}
