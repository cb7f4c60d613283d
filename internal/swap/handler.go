package swap

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/fkhayef/rewear/internal/ledger"
	"github.com/fkhayef/rewear/pkg/middleware"
	"github.com/fkhayef/rewear/pkg/response"
)

// Handler handles HTTP requests for swap operations
type Handler struct {
	service *Service
}

// NewHandler creates a new swap handler
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// Routes returns the router for swap endpoints
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Post("/", h.Create)
	r.Get("/", h.List)
	r.Get("/{id}", h.GetByID)
	r.Post("/{id}/decide", h.Decide)

	return r
}

// Create handles POST /swaps
// @Summary      Request a swap or redemption
// @Description  Open a negotiation against an approved item, by direct swap or points redemption
// @Tags         swaps
// @Accept       json
// @Produce      json
// @Param        request body CreateRequestRequest true "Swap request"
// @Success      201 {object} response.APIResponse{data=RequestResponse}
// @Failure      409 {object} response.APIResponse
// @Failure      422 {object} response.APIResponse
// @Security     BearerAuth
// @Router       /swaps [post]
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	actor, ok := middleware.GetActor(r.Context())
	if !ok {
		response.Unauthorized(w, "Authentication required")
		return
	}

	var req CreateRequestRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request body")
		return
	}

	created, err := h.service.CreateRequest(r.Context(), actor, &req)
	if err != nil {
		switch {
		case errors.Is(err, ErrInvalidKind):
			response.UnprocessableEntity(w, err.Error())
		case errors.Is(err, ErrSelfSwapForbidden):
			response.UnprocessableEntity(w, err.Error())
		case errors.Is(err, ErrItemNotAvailable):
			response.Conflict(w, err.Error())
		case errors.Is(err, ledger.ErrInsufficientFunds):
			response.Conflict(w, err.Error())
		default:
			response.InternalError(w, "Failed to create swap request")
		}
		return
	}

	response.JSON(w, http.StatusCreated, created.ToResponse())
}

// List handles GET /swaps
// @Summary      List own swap requests
// @Description  Requests where the caller is requester or item owner
// @Tags         swaps
// @Produce      json
// @Param        page query int false "Page number" default(1)
// @Param        per_page query int false "Items per page" default(20)
// @Success      200 {object} response.APIResponse{data=[]RequestResponse}
// @Security     BearerAuth
// @Router       /swaps [get]
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	memberID, ok := middleware.GetMemberID(r.Context())
	if !ok {
		response.Unauthorized(w, "Authentication required")
		return
	}

	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	perPage, _ := strconv.Atoi(r.URL.Query().Get("per_page"))

	if page < 1 {
		page = 1
	}
	if perPage < 1 {
		perPage = 20
	}

	requests, total, err := h.service.ListByMember(r.Context(), memberID, page, perPage)
	if err != nil {
		response.InternalError(w, "Failed to list swap requests")
		return
	}

	requestResponses := make([]*RequestResponse, len(requests))
	for i, req := range requests {
		requestResponses[i] = req.ToResponse()
	}

	totalPages := (total + perPage - 1) / perPage
	meta := &response.Meta{
		Page:       page,
		PerPage:    perPage,
		Total:      total,
		TotalPages: totalPages,
	}

	response.JSONWithMeta(w, http.StatusOK, requestResponses, meta)
}

// GetByID handles GET /swaps/{id}
// @Summary      Get swap request by ID
// @Tags         swaps
// @Produce      json
// @Param        id path int true "Swap request ID"
// @Success      200 {object} response.APIResponse{data=RequestResponse}
// @Failure      403 {object} response.APIResponse
// @Failure      404 {object} response.APIResponse
// @Security     BearerAuth
// @Router       /swaps/{id} [get]
func (h *Handler) GetByID(w http.ResponseWriter, r *http.Request) {
	actor, ok := middleware.GetActor(r.Context())
	if !ok {
		response.Unauthorized(w, "Authentication required")
		return
	}

	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		response.BadRequest(w, "Invalid swap request ID")
		return
	}

	req, err := h.service.GetByID(r.Context(), actor, id)
	if err != nil {
		switch {
		case errors.Is(err, ErrRequestNotFound):
			response.NotFound(w, err.Error())
		case errors.Is(err, ErrNotAuthorized):
			response.Forbidden(w, err.Error())
		default:
			response.InternalError(w, "Failed to get swap request")
		}
		return
	}

	response.JSON(w, http.StatusOK, req.ToResponse())
}

// Decide handles POST /swaps/{id}/decide
// @Summary      Decide a pending swap request
// @Description  Owner approves or rejects; approval settles the exchange in the same call
// @Tags         swaps
// @Accept       json
// @Produce      json
// @Param        id path int true "Swap request ID"
// @Param        request body DecideRequestRequest true "Decision"
// @Success      200 {object} response.APIResponse{data=RequestResponse}
// @Failure      403 {object} response.APIResponse
// @Failure      404 {object} response.APIResponse
// @Failure      409 {object} response.APIResponse
// @Security     BearerAuth
// @Router       /swaps/{id}/decide [post]
func (h *Handler) Decide(w http.ResponseWriter, r *http.Request) {
	actor, ok := middleware.GetActor(r.Context())
	if !ok {
		response.Unauthorized(w, "Authentication required")
		return
	}

	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		response.BadRequest(w, "Invalid swap request ID")
		return
	}

	var body DecideRequestRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		response.BadRequest(w, "Invalid request body")
		return
	}

	req, err := h.service.Decide(r.Context(), actor, id, body.Decision)
	if err != nil {
		switch {
		case errors.Is(err, ErrRequestNotFound):
			response.NotFound(w, err.Error())
		case errors.Is(err, ErrNotAuthorized):
			response.Forbidden(w, err.Error())
		case errors.Is(err, ErrInvalidDecision):
			response.UnprocessableEntity(w, err.Error())
		case errors.Is(err, ErrInvalidTransition):
			response.Conflict(w, err.Error())
		case errors.Is(err, ErrItemNotAvailable):
			response.Conflict(w, err.Error())
		case errors.Is(err, ledger.ErrInsufficientFunds):
			response.Conflict(w, err.Error())
		default:
			response.InternalError(w, "Failed to decide swap request")
		}
		return
	}

	response.JSON(w, http.StatusOK, req.ToResponse())
}
