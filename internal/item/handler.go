package item

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/fkhayef/rewear/pkg/middleware"
	"github.com/fkhayef/rewear/pkg/response"
)

// Handler handles HTTP requests for item operations
type Handler struct {
	service *Service
}

// NewHandler creates a new item handler
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// Routes returns the router for item endpoints
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Post("/", h.Submit)
	r.Get("/", h.List)
	r.Get("/{id}", h.GetByID)

	return r
}

// Submit handles POST /items
// @Summary      List a new item
// @Description  Submit a garment for moderation; it becomes visible once approved
// @Tags         items
// @Accept       json
// @Produce      json
// @Param        request body SubmitItemRequest true "Item submission request"
// @Success      201 {object} response.APIResponse{data=ItemResponse}
// @Failure      422 {object} response.APIResponse
// @Security     BearerAuth
// @Router       /items [post]
func (h *Handler) Submit(w http.ResponseWriter, r *http.Request) {
	actor, ok := middleware.GetActor(r.Context())
	if !ok {
		response.Unauthorized(w, "Authentication required")
		return
	}

	var req SubmitItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request body")
		return
	}

	it, err := h.service.Submit(r.Context(), actor, &req)
	if err != nil {
		if errors.Is(err, ErrValidation) {
			response.UnprocessableEntity(w, err.Error())
			return
		}
		response.InternalError(w, "Failed to submit item")
		return
	}

	response.JSON(w, http.StatusCreated, it.ToResponse())
}

// List handles GET /items
// @Summary      Browse items
// @Description  List items, approved ones by default; use mine=true for your own listings
// @Tags         items
// @Produce      json
// @Param        status query string false "Item status filter" default(approved)
// @Param        mine query bool false "Only own items"
// @Param        page query int false "Page number" default(1)
// @Param        per_page query int false "Items per page" default(20)
// @Success      200 {object} response.APIResponse{data=[]ItemResponse}
// @Security     BearerAuth
// @Router       /items [get]
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	actor, ok := middleware.GetActor(r.Context())
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

	filter := ListFilter{Status: StatusApproved}
	if r.URL.Query().Get("mine") == "true" {
		// Own dashboard view: every status, whatever moderation said.
		filter = ListFilter{OwnerID: actor.MemberID}
	}
	if s := r.URL.Query().Get("status"); s != "" {
		filter.Status = Status(s)
	}
	if filter.OwnerID == 0 && filter.Status != StatusApproved {
		// Non-approved listings are only browsable for your own items;
		// the moderation queue has its own admin surface.
		response.Forbidden(w, "Only approved items are browsable")
		return
	}

	items, total, err := h.service.List(r.Context(), filter, page, perPage)
	if err != nil {
		response.InternalError(w, "Failed to list items")
		return
	}

	itemResponses := make([]*ItemResponse, len(items))
	for i, it := range items {
		itemResponses[i] = it.ToResponse()
	}

	totalPages := (total + perPage - 1) / perPage
	meta := &response.Meta{
		Page:       page,
		PerPage:    perPage,
		Total:      total,
		TotalPages: totalPages,
	}

	response.JSONWithMeta(w, http.StatusOK, itemResponses, meta)
}

// GetByID handles GET /items/{id}
// @Summary      Get item by ID
// @Tags         items
// @Produce      json
// @Param        id path int true "Item ID"
// @Success      200 {object} response.APIResponse{data=ItemResponse}
// @Failure      404 {object} response.APIResponse
// @Security     BearerAuth
// @Router       /items/{id} [get]
func (h *Handler) GetByID(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		response.BadRequest(w, "Invalid item ID")
		return
	}

	it, err := h.service.GetByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, ErrItemNotFound) {
			response.NotFound(w, err.Error())
			return
		}
		response.InternalError(w, "Failed to get item")
		return
	}

	response.JSON(w, http.StatusOK, it.ToResponse())
}
