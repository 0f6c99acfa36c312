package httphandler

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/niksmo/home-catalog/internal/core/domain"
	"github.com/niksmo/home-catalog/internal/core/port"
)

// GET /api/obtener-productos-home (200 OK, failure status is configurable)
// GET /api/obtener-productos?page=&limit=&category=&subcategory=&featured=&sortBy=&sortOrder=
// (200 OK, 400 Bad Request on failure)

const contentTypeJSON = "application/json; charset=utf-8"

type HomeHandler struct {
	provider      port.HomeCatalogProvider
	failureStatus int
}

func RegisterHome(
	mux *http.ServeMux, provider port.HomeCatalogProvider, failureStatus int,
) {
	h := HomeHandler{provider, failureStatusOrDefault(failureStatus)}
	mux.HandleFunc("GET /api/obtener-productos-home", h.GetHome)
}

func (h HomeHandler) GetHome(w http.ResponseWriter, r *http.Request) {
	const op = "HomeHandler.GetHome"
	log := slog.With("op", op, "request_id", RequestIDFromContext(r.Context()))

	home, err := h.provider.HomeCatalog(r.Context())
	if err != nil {
		log.Error("failed to get home products", "err", err)
		writeJSON(w, h.failureStatus, FailureResponse{
			Success: false,
			Message: errorPrefix + err.Error(),
		})
		return
	}

	writeJSON(w, http.StatusOK, HomeResponse{
		Success: true,
		Message: homeOKMessage,
		Data:    home,
	})
	log.Debug("home products sent")
}

type ProductsHandler struct {
	lister port.ProductsLister
}

func RegisterProducts(mux *http.ServeMux, lister port.ProductsLister) {
	h := ProductsHandler{lister}
	mux.HandleFunc("GET /api/obtener-productos", h.GetProducts)
}

func (h ProductsHandler) GetProducts(w http.ResponseWriter, r *http.Request) {
	const op = "ProductsHandler.GetProducts"
	log := slog.With("op", op, "request_id", RequestIDFromContext(r.Context()))

	q := parseProductsQuery(r)
	page, err := h.lister.ListProducts(r.Context(), q)
	if err != nil {
		log.Error("failed to list products", "err", err)
		writeJSON(w, http.StatusBadRequest, ProductsFailureResponse{
			Success: false,
			Error:   true,
			Message: err.Error(),
		})
		return
	}

	writeJSON(w, http.StatusOK, ProductsResponse{
		Success:    true,
		Error:      false,
		Message:    productsOKMessage,
		Data:       page.Items,
		Pagination: page.Pagination,
	})
	log.Debug("products sent", "nProducts", len(page.Items))
}

// parseProductsQuery leaves unparsable numbers and unknown sort fields
// as they are, the service replaces them with defaults.
func parseProductsQuery(r *http.Request) domain.ProductsQuery {
	v := r.URL.Query()

	page, _ := strconv.Atoi(v.Get("page"))
	limit, _ := strconv.Atoi(v.Get("limit"))

	order := domain.SortDesc
	if strings.EqualFold(v.Get("sortOrder"), "asc") {
		order = domain.SortAsc
	}

	return domain.ProductsQuery{
		Page:        page,
		Limit:       limit,
		Category:    v.Get("category"),
		Subcategory: v.Get("subcategory"),
		Featured:    v.Get("featured") == "true",
		SortBy:      domain.SortField(v.Get("sortBy")),
		Order:       order,
	}
}

func failureStatusOrDefault(status int) int {
	if status < 100 || status > 599 {
		return http.StatusOK
	}
	return status
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	const op = "httphandler.writeJSON"

	w.Header().Set("Content-Type", contentTypeJSON)
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("failed to write response body", "op", op, "err", err)
	}
}
