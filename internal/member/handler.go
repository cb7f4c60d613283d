package member

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/fkhayef/rewear/pkg/middleware"
	"github.com/fkhayef/rewear/pkg/response"
)

// Handler handles HTTP requests for member operations
type Handler struct {
	service *Service
}

// NewHandler creates a new member handler
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// Routes returns the router for authenticated member endpoints.
// Registration is wired separately in main because it happens before the
// caller has a token.
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Get("/me", h.Me)
	r.Get("/{id}", h.GetByID)

	return r
}

// Create handles POST /members
// @Summary      Register a member profile
// @Description  Create a member profile with the configured signup points grant
// @Tags         members
// @Accept       json
// @Produce      json
// @Param        request body CreateMemberRequest true "Member registration request"
// @Success      201 {object} response.APIResponse{data=MemberResponse}
// @Failure      409 {object} response.APIResponse
// @Failure      422 {object} response.APIResponse
// @Router       /members [post]
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateMemberRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request body")
		return
	}

	m, err := h.service.Create(r.Context(), &req)
	if err != nil {
		if errors.Is(err, ErrEmailAlreadyInUse) {
			response.Conflict(w, err.Error())
			return
		}
		if errors.Is(err, ErrValidation) {
			response.UnprocessableEntity(w, err.Error())
			return
		}
		response.InternalError(w, "Failed to create member")
		return
	}

	response.JSON(w, http.StatusCreated, m.ToResponse())
}

// Me handles GET /members/me
// @Summary      Get own profile
// @Tags         members
// @Produce      json
// @Success      200 {object} response.APIResponse{data=MemberResponse}
// @Failure      404 {object} response.APIResponse
// @Security     BearerAuth
// @Router       /members/me [get]
func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	memberID, ok := middleware.GetMemberID(r.Context())
	if !ok {
		response.Unauthorized(w, "Authentication required")
		return
	}

	m, err := h.service.GetByID(r.Context(), memberID)
	if err != nil {
		if errors.Is(err, ErrMemberNotFound) {
			response.NotFound(w, err.Error())
			return
		}
		response.InternalError(w, "Failed to get member")
		return
	}

	response.JSON(w, http.StatusOK, m.ToResponse())
}

// GetByID handles GET /members/{id}
// @Summary      Get member by ID
// @Tags         members
// @Produce      json
// @Param        id path int true "Member ID"
// @Success      200 {object} response.APIResponse{data=MemberResponse}
// @Failure      404 {object} response.APIResponse
// @Router       /members/{id} [get]
func (h *Handler) GetByID(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		response.BadRequest(w, "Invalid member ID")
		return
	}

	m, err := h.service.GetByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, ErrMemberNotFound) {
			response.NotFound(w, err.Error())
			return
		}
		response.InternalError(w, "Failed to get member")
		return
	}

	response.JSON(w, http.StatusOK, m.ToResponse())
}
