package ledger

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/fkhayef/rewear/pkg/middleware"
	"github.com/fkhayef/rewear/pkg/response"
)

// Handler handles HTTP requests for ledger reads. Mutations happen only
// through swap settlement; there is no endpoint for them.
type Handler struct {
	service *Service
}

// NewHandler creates a new ledger handler
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// Routes returns the router for ledger endpoints
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Get("/balance", h.Balance)
	r.Get("/entries", h.Entries)

	return r
}

// Balance handles GET /ledger/balance
// @Summary      Get own points balance
// @Tags         ledger
// @Produce      json
// @Success      200 {object} response.APIResponse
// @Security     BearerAuth
// @Router       /ledger/balance [get]
func (h *Handler) Balance(w http.ResponseWriter, r *http.Request) {
	memberID, ok := middleware.GetMemberID(r.Context())
	if !ok {
		response.Unauthorized(w, "Authentication required")
		return
	}

	balance, err := h.service.Balance(r.Context(), memberID)
	if err != nil {
		if errors.Is(err, ErrUnknownMember) {
			response.NotFound(w, err.Error())
			return
		}
		response.InternalError(w, "Failed to get balance")
		return
	}

	response.JSON(w, http.StatusOK, map[string]int{"points_balance": balance})
}

// Entries handles GET /ledger/entries
// @Summary      List own ledger history
// @Tags         ledger
// @Produce      json
// @Param        page query int false "Page number" default(1)
// @Param        per_page query int false "Items per page" default(20)
// @Success      200 {object} response.APIResponse{data=[]Entry}
// @Security     BearerAuth
// @Router       /ledger/entries [get]
func (h *Handler) Entries(w http.ResponseWriter, r *http.Request) {
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

	entries, total, err := h.service.Entries(r.Context(), memberID, page, perPage)
	if err != nil {
		response.InternalError(w, "Failed to list ledger entries")
		return
	}

	totalPages := (total + perPage - 1) / perPage
	meta := &response.Meta{
		Page:       page,
		PerPage:    perPage,
		Total:      total,
		TotalPages: totalPages,
	}

	response.JSONWithMeta(w, http.StatusOK, entries, meta)
}
