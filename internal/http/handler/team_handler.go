package handler

import (
	"net/http"

	"github.com/straye-as/commission-api/internal/domain"
	"github.com/straye-as/commission-api/internal/service"
	"go.uber.org/zap"
)

type TeamHandler struct {
	teamService *service.TeamService
	logger      *zap.Logger
}

func NewTeamHandler(teamService *service.TeamService, logger *zap.Logger) *TeamHandler {
	return &TeamHandler{
		teamService: teamService,
		logger:      logger,
	}
}

func (h *TeamHandler) List(w http.ResponseWriter, r *http.Request) {
	teams, err := h.teamService.List(r.Context())
	if err != nil {
		respondServiceError(w, h.logger, err, "list teams")
		return
	}
	respondJSON(w, http.StatusOK, teams)
}

func (h *TeamHandler) GetByID(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r, "id")
	if err != nil {
		respondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	team, err := h.teamService.GetByID(r.Context(), id)
	if err != nil {
		respondServiceError(w, h.logger, err, "get team")
		return
	}
	respondJSON(w, http.StatusOK, team)
}

// GetByUser returns the team the user manages or belongs to
func (h *TeamHandler) GetByUser(w http.ResponseWriter, r *http.Request) {
	userID, err := parseID(r, "userId")
	if err != nil {
		respondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	team, err := h.teamService.GetByUserID(r.Context(), userID)
	if err != nil {
		respondServiceError(w, h.logger, err, "get team for user")
		return
	}
	respondJSON(w, http.StatusOK, team)
}

func (h *TeamHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req domain.TeamRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	team, err := h.teamService.Create(r.Context(), &req)
	if err != nil {
		respondServiceError(w, h.logger, err, "create team")
		return
	}
	respondJSON(w, http.StatusCreated, team)
}

func (h *TeamHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r, "id")
	if err != nil {
		respondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	var req domain.TeamRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	team, err := h.teamService.Update(r.Context(), id, &req)
	if err != nil {
		respondServiceError(w, h.logger, err, "update team")
		return
	}
	respondJSON(w, http.StatusOK, team)
}

func (h *TeamHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r, "id")
	if err != nil {
		respondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.teamService.Delete(r.Context(), id); err != nil {
		respondServiceError(w, h.logger, err, "delete team")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
