package handler

import (
	"context"
	"net/http"
	"strconv"

	"github.com/straye-as/commission-api/internal/domain"
	"github.com/straye-as/commission-api/internal/mapper"
	"github.com/straye-as/commission-api/internal/service"
	"go.uber.org/zap"
)

// Syncer runs one customer sync on demand
type Syncer interface {
	RunSync(ctx context.Context) (*domain.SyncResult, error)
}

type CustomerHandler struct {
	customerService *service.CustomerService
	syncer          Syncer
	logger          *zap.Logger
}

func NewCustomerHandler(customerService *service.CustomerService, syncer Syncer, logger *zap.Logger) *CustomerHandler {
	return &CustomerHandler{
		customerService: customerService,
		syncer:          syncer,
		logger:          logger,
	}
}

// List godoc
// @Summary List customers
// @Tags Customers
// @Produce json
// @Success 200 {array} domain.CustomerDTO
// @Router /customers [get]
func (h *CustomerHandler) List(w http.ResponseWriter, r *http.Request) {
	customers, err := h.customerService.List(r.Context())
	if err != nil {
		respondServiceError(w, h.logger, err, "list customers")
		return
	}
	respondJSON(w, http.StatusOK, customers)
}

// Search godoc
// @Summary Search a user's customers
// @Description Matches name, address or phone among customers the user holds a role on. Queries shorter than two characters return an empty list.
// @Tags Customers
// @Produce json
// @Param q query string true "Search text"
// @Param userId query int true "User ID"
// @Success 200 {array} domain.CustomerDTO
// @Failure 400 {object} domain.APIError
// @Router /customers/search [get]
func (h *CustomerHandler) Search(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("q")
	rawUserID := r.URL.Query().Get("userId")
	if query == "" || rawUserID == "" {
		respondWithError(w, http.StatusBadRequest, "Search query and userId are required")
		return
	}
	userID, err := strconv.ParseInt(rawUserID, 10, 64)
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "userId must be an integer")
		return
	}

	customers, err := h.customerService.Search(r.Context(), query, userID)
	if err != nil {
		respondServiceError(w, h.logger, err, "search customers")
		return
	}
	respondJSON(w, http.StatusOK, customers)
}

func (h *CustomerHandler) GetByID(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r, "id")
	if err != nil {
		respondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	customer, err := h.customerService.GetByID(r.Context(), id)
	if err != nil {
		respondServiceError(w, h.logger, err, "get customer")
		return
	}
	respondJSON(w, http.StatusOK, customer)
}

func (h *CustomerHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r, "id")
	if err != nil {
		respondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	customer, err := h.customerService.Delete(r.Context(), id)
	if err != nil {
		respondServiceError(w, h.logger, err, "delete customer")
		return
	}
	respondJSON(w, http.StatusOK, customer)
}

// Sync godoc
// @Summary Sync customers from the CRM
// @Description Imports every CRM job as a customer and recomputes its commissions. Responds 207 when some jobs failed.
// @Tags Customers
// @Produce json
// @Success 200 {object} domain.SyncResultDTO
// @Success 207 {object} domain.SyncResultDTO
// @Failure 409 {object} domain.APIError "Sync already running"
// @Failure 502 {object} domain.APIError "Job feed unavailable"
// @Router /customers/sync [post]
func (h *CustomerHandler) Sync(w http.ResponseWriter, r *http.Request) {
	result, err := h.syncer.RunSync(r.Context())
	if err != nil {
		respondServiceError(w, h.logger, err, "sync customers")
		return
	}

	status := http.StatusOK
	if result.Partial() {
		status = http.StatusMultiStatus
	}
	respondJSON(w, status, mapper.ToSyncResultDTO(result))
}
