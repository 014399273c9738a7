package handler

import (
	"encoding/json"
	"net/http"

	"github.com/petrhn/arena-server/internal/api/apierr"
	"github.com/petrhn/arena-server/internal/api/middleware"
	"github.com/petrhn/arena-server/internal/api/request"
	"github.com/petrhn/arena-server/internal/api/response"
	"github.com/petrhn/arena-server/internal/model"
	"github.com/petrhn/arena-server/internal/services/progression"
)

// ProfileHandler serves the authenticated profile and progress endpoints.
// The auth middleware has already bound the caller's identity, so the
// player and its progression are available from the request context.
type ProfileHandler struct {
	progression *progression.Service
}

// NewProfileHandler creates a new ProfileHandler
func NewProfileHandler(progressionService *progression.Service) *ProfileHandler {
	return &ProfileHandler{progression: progressionService}
}

// Get handles GET /profile
func (h *ProfileHandler) Get(w http.ResponseWriter, r *http.Request) {
	player := middleware.MustGetPlayer(r.Context())
	prog := middleware.GetProgression(r.Context())

	response.JSON(w, http.StatusOK, response.ProfileFromModel(player, prog))
}

// UpdateProgress handles PUT /progress
func (h *ProfileHandler) UpdateProgress(w http.ResponseWriter, r *http.Request) {
	player := middleware.MustGetPlayer(r.Context())

	var update model.ProgressionUpdate
	if err := json.NewDecoder(r.Body).Decode(&update); err != nil {
		apierr.WriteError(w, apierr.NewInvalidRequestError("malformed JSON body"))
		return
	}

	prog, err := h.progression.Update(r.Context(), player.ID, &update)
	if err != nil {
		apierr.WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, response.ProfileFromModel(player, prog))
}

// Migrate handles POST /migrate: the ensure already ran during identity
// binding, so this applies the carried-over progress, if any, and
// acknowledges the migration.
func (h *ProfileHandler) Migrate(w http.ResponseWriter, r *http.Request) {
	player := middleware.MustGetPlayer(r.Context())
	prog := middleware.GetProgression(r.Context())

	var req request.MigrateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		apierr.WriteError(w, apierr.NewInvalidRequestError("malformed JSON body"))
		return
	}

	if req.Progress != nil && !req.Progress.Empty() {
		updated, err := h.progression.Update(r.Context(), player.ID, req.Progress)
		if err != nil {
			apierr.WriteError(w, err)
			return
		}
		prog = updated
	}

	response.JSON(w, http.StatusOK, response.Migrated{
		User:     response.UserFromModel(player),
		Progress: response.ProgressFromModel(prog),
		Migrated: true,
	})
}
