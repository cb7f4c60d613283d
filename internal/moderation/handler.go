package moderation

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/fkhayef/rewear/internal/item"
	"github.com/fkhayef/rewear/internal/member"
	"github.com/fkhayef/rewear/pkg/middleware"
	"github.com/fkhayef/rewear/pkg/response"
)

// Handler handles HTTP requests for the admin surface
type Handler struct {
	service *Service
}

// NewHandler creates a new moderation handler
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// Routes returns the router for admin endpoints
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Get("/stats", h.Stats)
	r.Get("/items/pending", h.PendingItems)
	r.Post("/items/{id}/approve", h.Approve)
	r.Post("/items/{id}/reject", h.Reject)
	r.Get("/members", h.Members)

	return r
}

// Stats handles GET /admin/stats
// @Summary      Platform aggregates
// @Tags         admin
// @Produce      json
// @Success      200 {object} response.APIResponse{data=Stats}
// @Failure      403 {object} response.APIResponse
// @Security     BearerAuth
// @Router       /admin/stats [get]
func (h *Handler) Stats(w http.ResponseWriter, r *http.Request) {
	actor, ok := middleware.GetActor(r.Context())
	if !ok {
		response.Unauthorized(w, "Authentication required")
		return
	}

	stats, err := h.service.GetStats(r.Context(), actor)
	if err != nil {
		if errors.Is(err, ErrNotAuthorized) {
			response.Forbidden(w, err.Error())
			return
		}
		response.InternalError(w, "Failed to get stats")
		return
	}

	response.JSON(w, http.StatusOK, stats)
}

// PendingItems handles GET /admin/items/pending
// @Summary      Moderation queue
// @Tags         admin
// @Produce      json
// @Param        page query int false "Page number" default(1)
// @Param        per_page query int false "Items per page" default(20)
// @Success      200 {object} response.APIResponse{data=[]item.ItemResponse}
// @Failure      403 {object} response.APIResponse
// @Security     BearerAuth
// @Router       /admin/items/pending [get]
func (h *Handler) PendingItems(w http.ResponseWriter, r *http.Request) {
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

	items, total, err := h.service.PendingItems(r.Context(), actor, page, perPage)
	if err != nil {
		if errors.Is(err, ErrNotAuthorized) {
			response.Forbidden(w, err.Error())
			return
		}
		response.InternalError(w, "Failed to list pending items")
		return
	}

	itemResponses := make([]*item.ItemResponse, len(items))
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

// Approve handles POST /admin/items/{id}/approve
// @Summary      Approve a pending item
// @Tags         admin
// @Produce      json
// @Param        id path int true "Item ID"
// @Success      200 {object} response.APIResponse{data=item.ItemResponse}
// @Failure      403 {object} response.APIResponse
// @Failure      404 {object} response.APIResponse
// @Failure      409 {object} response.APIResponse
// @Security     BearerAuth
// @Router       /admin/items/{id}/approve [post]
func (h *Handler) Approve(w http.ResponseWriter, r *http.Request) {
	h.review(w, r, item.DecisionApprove)
}

// Reject handles POST /admin/items/{id}/reject
// @Summary      Reject a pending item
// @Tags         admin
// @Produce      json
// @Param        id path int true "Item ID"
// @Success      200 {object} response.APIResponse{data=item.ItemResponse}
// @Failure      403 {object} response.APIResponse
// @Failure      404 {object} response.APIResponse
// @Failure      409 {object} response.APIResponse
// @Security     BearerAuth
// @Router       /admin/items/{id}/reject [post]
func (h *Handler) Reject(w http.ResponseWriter, r *http.Request) {
	h.review(w, r, item.DecisionReject)
}

func (h *Handler) review(w http.ResponseWriter, r *http.Request, decision item.Decision) {
	actor, ok := middleware.GetActor(r.Context())
	if !ok {
		response.Unauthorized(w, "Authentication required")
		return
	}

	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		response.BadRequest(w, "Invalid item ID")
		return
	}

	it, err := h.service.Review(r.Context(), actor, id, decision)
	if err != nil {
		switch {
		case errors.Is(err, ErrNotAuthorized) || errors.Is(err, item.ErrNotAuthorized):
			response.Forbidden(w, err.Error())
		case errors.Is(err, item.ErrItemNotFound):
			response.NotFound(w, err.Error())
		case errors.Is(err, item.ErrInvalidTransition):
			response.Conflict(w, err.Error())
		default:
			response.InternalError(w, "Failed to review item")
		}
		return
	}

	response.JSON(w, http.StatusOK, it.ToResponse())
}

// Members handles GET /admin/members
// @Summary      Recent member profiles
// @Tags         admin
// @Produce      json
// @Param        page query int false "Page number" default(1)
// @Param        per_page query int false "Items per page" default(20)
// @Success      200 {object} response.APIResponse{data=[]member.MemberResponse}
// @Failure      403 {object} response.APIResponse
// @Security     BearerAuth
// @Router       /admin/members [get]
func (h *Handler) Members(w http.ResponseWriter, r *http.Request) {
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

	members, total, err := h.service.Members(r.Context(), actor, page, perPage)
	if err != nil {
		if errors.Is(err, ErrNotAuthorized) {
			response.Forbidden(w, err.Error())
			return
		}
		response.InternalError(w, "Failed to list members")
		return
	}

	memberResponses := make([]*member.MemberResponse, len(members))
	for i, m := range members {
		memberResponses[i] = m.ToResponse()
	}

	totalPages := (total + perPage - 1) / perPage
	meta := &response.Meta{
		Page:       page,
		PerPage:    perPage,
		Total:      total,
		TotalPages: totalPages,
	}

	response.JSONWithMeta(w, http.StatusOK, memberResponses, meta)
}
