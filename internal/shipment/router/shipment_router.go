package router

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/moogship/moogship/internal/api"
	"github.com/moogship/moogship/internal/auth"
	"github.com/moogship/moogship/internal/pricing"
	"github.com/moogship/moogship/internal/shipment/service"
	"github.com/moogship/moogship/internal/uploads"
)

// maxInvoiceSize caps invoice uploads at 16MB.
const maxInvoiceSize = 16 << 20

// ShipmentRouter exposes the shipment and package endpoints.
type ShipmentRouter struct {
	service  *service.ShipmentService
	storage  *uploads.UploadService
	validate *validator.Validate
}

func NewShipmentRouter(svc *service.ShipmentService, storage *uploads.UploadService) *ShipmentRouter {
	return &ShipmentRouter{
		service:  svc,
		storage:  storage,
		validate: validator.New(),
	}
}

// writeServiceError maps service errors onto the HTTP error envelope.
func writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, service.ErrNotFound):
		api.WriteError(w, http.StatusNotFound, "shipment not found")
	case errors.Is(err, service.ErrForbidden):
		api.WriteError(w, http.StatusForbidden, "access denied")
	case errors.Is(err, service.ErrNotEditable):
		api.WriteError(w, http.StatusConflict, "shipment can no longer be edited")
	case errors.Is(err, service.ErrCannotCancel):
		api.WriteError(w, http.StatusConflict, "shipment can no longer be cancelled")
	case errors.Is(err, service.ErrInvalidTransition):
		api.WriteError(w, http.StatusConflict, "invalid status transition")
	case errors.Is(err, service.ErrStaleRecalculation):
		api.WriteError(w, http.StatusConflict, "a newer recalculation already applied")
	case errors.Is(err, pricing.ErrServiceRequired):
		api.WriteError(w, http.StatusBadRequest, "service selection is required")
	case errors.Is(err, pricing.ErrNoRates), errors.Is(err, pricing.ErrNoOptions):
		api.WriteError(w, http.StatusUnprocessableEntity, err.Error())
	default:
		slog.Error("shipment operation failed", "error", err)
		api.WriteError(w, http.StatusInternalServerError, "internal error")
	}
}

func pathID(r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(r.PathValue("id"))
	return id, err == nil
}

// HandleCreate handles POST /api/shipments
func (rt *ShipmentRouter) HandleCreate(w http.ResponseWriter, r *http.Request) {
	authCtx := auth.GetAuthContext(r.Context())

	var req service.CreateInput
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.WriteError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	if err := rt.validate.Struct(&req); err != nil {
		api.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	shipment, err := rt.service.Create(r.Context(), authCtx.User, req)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	api.WriteJSON(w, http.StatusCreated, shipment)
}

// HandleList handles GET /api/shipments?status=&offset=&limit=
func (rt *ShipmentRouter) HandleList(w http.ResponseWriter, r *http.Request) {
	authCtx := auth.GetAuthContext(r.Context())

	var offset, limit *int
	if v := r.URL.Query().Get("offset"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			offset = &parsed
		}
	}
	if v := r.URL.Query().Get("limit"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			limit = &parsed
		}
	}

	shipments, err := rt.service.List(r.Context(), authCtx, r.URL.Query().Get("status"), offset, limit)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	api.WriteJSON(w, http.StatusOK, shipments)
}

// HandleGet handles GET /api/shipments/{id}
func (rt *ShipmentRouter) HandleGet(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		api.WriteError(w, http.StatusBadRequest, "invalid shipment ID")
		return
	}

	shipment, err := rt.service.Get(r.Context(), id, auth.GetAuthContext(r.Context()))
	if err != nil {
		writeServiceError(w, err)
		return
	}

	api.WriteJSON(w, http.StatusOK, shipment)
}

// HandleGetItems handles GET /api/shipments/{id}/items
func (rt *ShipmentRouter) HandleGetItems(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		api.WriteError(w, http.StatusBadRequest, "invalid shipment ID")
		return
	}

	items, err := rt.service.GetItems(r.Context(), id, auth.GetAuthContext(r.Context()))
	if err != nil {
		writeServiceError(w, err)
		return
	}

	api.WriteJSON(w, http.StatusOK, items)
}

// HandleUpdate handles PUT and PATCH /api/shipments/{id}.
// Both accept the same body; absent fields are left untouched, and the
// needsRecalculation hint reprices within the same transaction.
func (rt *ShipmentRouter) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		api.WriteError(w, http.StatusBadRequest, "invalid shipment ID")
		return
	}

	var req service.UpdateInput
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.WriteError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	if err := rt.validate.Struct(&req); err != nil {
		api.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	shipment, err := rt.service.Update(r.Context(), id, auth.GetAuthContext(r.Context()), req)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	api.WriteJSON(w, http.StatusOK, shipment)
}

// HandleCancel handles POST /api/shipments/{id}/cancel
func (rt *ShipmentRouter) HandleCancel(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		api.WriteError(w, http.StatusBadRequest, "invalid shipment ID")
		return
	}

	shipment, err := rt.service.Cancel(r.Context(), id, auth.GetAuthContext(r.Context()))
	if err != nil {
		writeServiceError(w, err)
		return
	}

	api.WriteJSON(w, http.StatusOK, shipment)
}

// HandleApprove handles POST /api/shipments/{id}/approve (admin)
func (rt *ShipmentRouter) HandleApprove(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		api.WriteError(w, http.StatusBadRequest, "invalid shipment ID")
		return
	}

	shipment, err := rt.service.Approve(r.Context(), id, auth.GetAuthContext(r.Context()))
	if err != nil {
		writeServiceError(w, err)
		return
	}

	api.WriteJSON(w, http.StatusOK, shipment)
}

// HandleReject handles POST /api/shipments/{id}/reject (admin)
func (rt *ShipmentRouter) HandleReject(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		api.WriteError(w, http.StatusBadRequest, "invalid shipment ID")
		return
	}

	shipment, err := rt.service.Reject(r.Context(), id, auth.GetAuthContext(r.Context()))
	if err != nil {
		writeServiceError(w, err)
		return
	}

	api.WriteJSON(w, http.StatusOK, shipment)
}

// HandleRecalculate handles POST /api/shipments/{id}/recalculate.
// Admin mode is restricted to admin users; an empty admin service selection
// is rejected before any pricing work happens.
func (rt *ShipmentRouter) HandleRecalculate(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		api.WriteError(w, http.StatusBadRequest, "invalid shipment ID")
		return
	}

	authCtx := auth.GetAuthContext(r.Context())

	var req service.RecalculateInput
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.WriteError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	if err := rt.validate.Struct(&req); err != nil {
		api.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}
	if req.Mode == service.ModeAdmin && !authCtx.IsAdmin() {
		api.WriteError(w, http.StatusForbidden, "admin access required")
		return
	}

	shipment, err := rt.service.Recalculate(r.Context(), id, authCtx, req)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	api.WriteJSON(w, http.StatusOK, shipment)
}

// HandleUpdatePackage handles PUT /api/packages/{id}
func (rt *ShipmentRouter) HandleUpdatePackage(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		api.WriteError(w, http.StatusBadRequest, "invalid package ID")
		return
	}

	var req service.PackageDimensionsInput
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.WriteError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	if err := rt.validate.Struct(&req); err != nil {
		api.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	result, err := rt.service.UpdatePackage(r.Context(), id, auth.GetAuthContext(r.Context()), req)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	api.WriteJSON(w, http.StatusOK, result)
}

// HandleUploadInvoice handles POST /api/shipments/{id}/upload-invoice (multipart)
func (rt *ShipmentRouter) HandleUploadInvoice(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		api.WriteError(w, http.StatusBadRequest, "invalid shipment ID")
		return
	}

	if err := r.ParseMultipartForm(maxInvoiceSize); err != nil {
		api.WriteError(w, http.StatusBadRequest, "failed to parse form")
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		api.WriteError(w, http.StatusBadRequest, "file is required")
		return
	}
	defer file.Close()

	shipment, err := rt.service.UploadInvoice(
		r.Context(), id, auth.GetAuthContext(r.Context()), rt.storage,
		header.Filename, file, header.Size, header.Header.Get("Content-Type"),
	)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	api.WriteJSON(w, http.StatusOK, shipment)
}

// HandleDeleteInvoice handles DELETE /api/shipments/{id}/delete-invoice
func (rt *ShipmentRouter) HandleDeleteInvoice(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		api.WriteError(w, http.StatusBadRequest, "invalid shipment ID")
		return
	}

	if err := rt.service.DeleteInvoice(r.Context(), id, auth.GetAuthContext(r.Context()), rt.storage); err != nil {
		writeServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
