package handler

import (
	"net/http"

	"github.com/straye-as/commission-api/internal/domain"
	"github.com/straye-as/commission-api/internal/service"
	"go.uber.org/zap"
)

type CommissionHandler struct {
	commissionService *service.CommissionService
	logger            *zap.Logger
}

func NewCommissionHandler(commissionService *service.CommissionService, logger *zap.Logger) *CommissionHandler {
	return &CommissionHandler{
		commissionService: commissionService,
		logger:            logger,
	}
}

// ListDue godoc
// @Summary List commissions due
// @Tags Commissions
// @Produce json
// @Success 200 {array} domain.CommissionDueDTO
// @Router /commissions/due [get]
func (h *CommissionHandler) ListDue(w http.ResponseWriter, r *http.Request) {
	dues, err := h.commissionService.ListDue(r.Context())
	if err != nil {
		respondServiceError(w, h.logger, err, "list commissions due")
		return
	}
	respondJSON(w, http.StatusOK, dues)
}

func (h *CommissionHandler) GetDue(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r, "id")
	if err != nil {
		respondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	due, err := h.commissionService.GetDue(r.Context(), id)
	if err != nil {
		respondServiceError(w, h.logger, err, "get commission due")
		return
	}
	respondJSON(w, http.StatusOK, due)
}

// UpsertDue godoc
// @Summary Calculate and save a commission due
// @Description Computes the commission for the user and customer and writes the due row, which is left unpaid
// @Tags Commissions
// @Accept json
// @Produce json
// @Param request body domain.UpsertDueRequest true "User, customer and optional build date"
// @Success 201 {object} domain.CommissionDueDTO
// @Failure 400 {object} domain.APIError
// @Failure 404 {object} domain.APIError
// @Router /commissions/due [post]
func (h *CommissionHandler) UpsertDue(w http.ResponseWriter, r *http.Request) {
	var req domain.UpsertDueRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	due, err := h.commissionService.UpsertDue(r.Context(), &req)
	if err != nil {
		respondServiceError(w, h.logger, err, "save commission due")
		return
	}
	respondJSON(w, http.StatusCreated, due)
}

// UpdateDue recomputes a due row from current data. The row becomes unpaid.
func (h *CommissionHandler) UpdateDue(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r, "id")
	if err != nil {
		respondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	var req domain.UpdateDueRequest
	if !decodeOptional(w, r, &req) {
		return
	}

	due, err := h.commissionService.UpdateDue(r.Context(), id, &req)
	if err != nil {
		respondServiceError(w, h.logger, err, "update commission due")
		return
	}
	respondJSON(w, http.StatusOK, due)
}

func (h *CommissionHandler) DeleteDue(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r, "id")
	if err != nil {
		respondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	due, err := h.commissionService.DeleteDue(r.Context(), id)
	if err != nil {
		respondServiceError(w, h.logger, err, "delete commission due")
		return
	}
	respondJSON(w, http.StatusOK, due)
}

// MarkPaid godoc
// @Summary Mark a commission due as paid
// @Description Flags the due row paid and writes its payment with a freshly computed amount. paidOn defaults to today.
// @Tags Commissions
// @Accept json
// @Produce json
// @Param id path int true "Commission due ID"
// @Param request body domain.MarkPaidRequest false "Optional paid date"
// @Success 200 {object} domain.CommissionPaymentDTO
// @Failure 404 {object} domain.APIError
// @Router /commissions/due/{id}/mark-paid [post]
func (h *CommissionHandler) MarkPaid(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r, "id")
	if err != nil {
		respondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	var req domain.MarkPaidRequest
	if !decodeOptional(w, r, &req) {
		return
	}

	payment, err := h.commissionService.MarkPaid(r.Context(), id, req.PaidOn.TimePtr())
	if err != nil {
		respondServiceError(w, h.logger, err, "mark commission paid")
		return
	}
	respondJSON(w, http.StatusOK, payment)
}

// ListPaid godoc
// @Summary List commission payments
// @Tags Commissions
// @Produce json
// @Success 200 {array} domain.CommissionPaymentDTO
// @Router /commissions/paid [get]
func (h *CommissionHandler) ListPaid(w http.ResponseWriter, r *http.Request) {
	payments, err := h.commissionService.ListPaid(r.Context())
	if err != nil {
		respondServiceError(w, h.logger, err, "list commission payments")
		return
	}
	respondJSON(w, http.StatusOK, payments)
}

func (h *CommissionHandler) GetPayment(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r, "id")
	if err != nil {
		respondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	payment, err := h.commissionService.GetPayment(r.Context(), id)
	if err != nil {
		respondServiceError(w, h.logger, err, "get commission payment")
		return
	}
	respondJSON(w, http.StatusOK, payment)
}

func (h *CommissionHandler) UpsertPayment(w http.ResponseWriter, r *http.Request) {
	var req domain.UpsertPaymentRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	payment, err := h.commissionService.UpsertPayment(r.Context(), &req)
	if err != nil {
		respondServiceError(w, h.logger, err, "save commission payment")
		return
	}
	respondJSON(w, http.StatusCreated, payment)
}

func (h *CommissionHandler) UpdatePayment(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r, "id")
	if err != nil {
		respondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	var req domain.UpdatePaymentRequest
	if !decodeOptional(w, r, &req) {
		return
	}

	payment, err := h.commissionService.UpdatePayment(r.Context(), id, &req)
	if err != nil {
		respondServiceError(w, h.logger, err, "update commission payment")
		return
	}
	respondJSON(w, http.StatusOK, payment)
}

func (h *CommissionHandler) DeletePayment(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r, "id")
	if err != nil {
		respondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	payment, err := h.commissionService.DeletePayment(r.Context(), id)
	if err != nil {
		respondServiceError(w, h.logger, err, "delete commission payment")
		return
	}
	respondJSON(w, http.StatusOK, payment)
}

// Preview godoc
// @Summary Compute a commission without saving it
// @Tags Commissions
// @Accept json
// @Produce json
// @Param request body domain.PreviewRequest true "User and customer"
// @Success 200 {object} domain.CommissionPreviewDTO
// @Router /commissions/preview [post]
func (h *CommissionHandler) Preview(w http.ResponseWriter, r *http.Request) {
	var req domain.PreviewRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	preview, err := h.commissionService.Preview(r.Context(), &req)
	if err != nil {
		respondServiceError(w, h.logger, err, "compute commission")
		return
	}
	respondJSON(w, http.StatusOK, preview)
}
