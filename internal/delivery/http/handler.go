package http

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/chronos-watches/storefront/internal/auth"
	"github.com/chronos-watches/storefront/internal/entity"
	"github.com/chronos-watches/storefront/internal/filter"
	"github.com/chronos-watches/storefront/internal/repository"
	"github.com/chronos-watches/storefront/internal/service"
)

// Handler handles HTTP requests for the storefront.
type Handler struct {
	catalog  *service.CatalogService
	cart     *service.CartService
	verifier *auth.Verifier
	ready    func(ctx context.Context) error
}

func NewHandler(catalog *service.CatalogService, cart *service.CartService, verifier *auth.Verifier, ready func(ctx context.Context) error) *Handler {
	if ready == nil {
		ready = func(context.Context) error { return nil }
	}
	return &Handler{
		catalog:  catalog,
		cart:     cart,
		verifier: verifier,
		ready:    ready,
	}
}

func (h *Handler) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("/health", h.handleHealth).Methods(http.MethodGet)
	r.HandleFunc("/ready", h.handleReady).Methods(http.MethodGet)

	r.HandleFunc("/api/products", h.handleListProducts).Methods(http.MethodGet)
	r.HandleFunc("/api/products/{id:[0-9]+}", h.handleGetProduct).Methods(http.MethodGet)
	r.HandleFunc("/api/products/{id:[0-9]+}/related", h.handleGetRelated).Methods(http.MethodGet)
	r.HandleFunc("/api/brands", h.handleBrands).Methods(http.MethodGet)
	r.HandleFunc("/api/categories", h.handleCategories).Methods(http.MethodGet)

	r.HandleFunc("/api/products", h.requireAdmin(h.handleCreateProduct)).Methods(http.MethodPost)
	r.HandleFunc("/api/products/{id:[0-9]+}", h.requireAdmin(h.handleUpdateProduct)).Methods(http.MethodPut)
	r.HandleFunc("/api/products/{id:[0-9]+}", h.requireAdmin(h.handleDeleteProduct)).Methods(http.MethodDelete)

	r.HandleFunc("/api/carts", h.handleCreateCart).Methods(http.MethodPost)
	r.HandleFunc("/api/carts/{cartID}", h.handleGetCart).Methods(http.MethodGet)
	r.HandleFunc("/api/carts/{cartID}", h.handleClearCart).Methods(http.MethodDelete)
	r.HandleFunc("/api/carts/{cartID}/items", h.handleAddItem).Methods(http.MethodPost)
	r.HandleFunc("/api/carts/{cartID}/items", h.handleUpdateQuantity).Methods(http.MethodPut)
	r.HandleFunc("/api/carts/{cartID}/items", h.handleRemoveItem).Methods(http.MethodDelete)
}

func (h *Handler) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (h *Handler) handleReady(w http.ResponseWriter, r *http.Request) {
	if err := h.ready(r.Context()); err != nil {
		http.Error(w, "not ready", http.StatusServiceUnavailable)
		return
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}

// ProductListResponse carries the filtered products plus the chip
// descriptors for the active facets.
type ProductListResponse struct {
	Products      []entity.Product      `json:"products"`
	Total         int                   `json:"total"`
	ActiveFilters []filter.ActiveFilter `json:"activeFilters,omitempty"`
}

// handleListProducts serves the main catalog view. URL parameters seed the
// filter selection at page entry; a search query takes priority, then
// featured, then the facet filter path.
func (h *Handler) handleListProducts(w http.ResponseWriter, r *http.Request) {
	sel := filter.SelectionFromQuery(r.URL.Query())

	var (
		products []entity.Product
		err      error
	)
	switch {
	case sel.SearchQuery != "":
		products, err = h.catalog.Search(r.Context(), sel.SearchQuery)
	case sel.FeaturedOnly:
		products, err = h.catalog.GetFeatured(r.Context())
	default:
		products, err = h.catalog.List(r.Context(), sel)
	}
	if err != nil {
		h.replyCatalogError(w, "list products", err)
		return
	}

	writeJSON(w, http.StatusOK, ProductListResponse{
		Products:      products,
		Total:         len(products),
		ActiveFilters: filter.ActiveFilters(sel),
	})
}

func (h *Handler) handleGetProduct(w http.ResponseWriter, r *http.Request) {
	id, _ := strconv.Atoi(mux.Vars(r)["id"])

	product, err := h.catalog.GetByID(r.Context(), id)
	if err != nil {
		h.replyCatalogError(w, "get product", err)
		return
	}
	if product == nil {
		http.Error(w, "product not found", http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, product)
}

func (h *Handler) handleGetRelated(w http.ResponseWriter, r *http.Request) {
	id, _ := strconv.Atoi(mux.Vars(r)["id"])
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	related, err := h.catalog.GetRelated(r.Context(), id, limit)
	if err != nil {
		h.replyCatalogError(w, "get related", err)
		return
	}
	writeJSON(w, http.StatusOK, related)
}

func (h *Handler) handleBrands(w http.ResponseWriter, r *http.Request) {
	brands, err := h.catalog.Brands(r.Context())
	if err != nil {
		h.replyCatalogError(w, "list brands", err)
		return
	}
	writeJSON(w, http.StatusOK, brands)
}

func (h *Handler) handleCategories(w http.ResponseWriter, r *http.Request) {
	categories, err := h.catalog.Categories(r.Context())
	if err != nil {
		h.replyCatalogError(w, "list categories", err)
		return
	}
	writeJSON(w, http.StatusOK, categories)
}

func (h *Handler) handleCreateProduct(w http.ResponseWriter, r *http.Request) {
	var p entity.Product
	if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if p.ID <= 0 || p.Brand == "" || p.Model == "" || p.Price < 0 {
		http.Error(w, "id, brand, model and a non-negative price are required", http.StatusBadRequest)
		return
	}

	created, err := h.catalog.Create(r.Context(), p)
	if err != nil {
		h.replyCatalogError(w, "create product", err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

func (h *Handler) handleUpdateProduct(w http.ResponseWriter, r *http.Request) {
	id, _ := strconv.Atoi(mux.Vars(r)["id"])

	var upd repository.ProductUpdate
	if err := json.NewDecoder(r.Body).Decode(&upd); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if upd.Price != nil && *upd.Price < 0 {
		http.Error(w, "price must be non-negative", http.StatusBadRequest)
		return
	}
	if upd.StockCount != nil && *upd.StockCount < 0 {
		http.Error(w, "stockCount must be non-negative", http.StatusBadRequest)
		return
	}

	updated, err := h.catalog.Update(r.Context(), id, upd)
	if err != nil {
		h.replyCatalogError(w, "update product", err)
		return
	}
	if updated == nil {
		http.Error(w, "product not found", http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

func (h *Handler) handleDeleteProduct(w http.ResponseWriter, r *http.Request) {
	id, _ := strconv.Atoi(mux.Vars(r)["id"])

	err := h.catalog.Delete(r.Context(), id)
	if errors.Is(err, repository.ErrNotFound) {
		http.Error(w, "product not found", http.StatusNotFound)
		return
	}
	if err != nil {
		h.replyCatalogError(w, "delete product", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// CartResponse wraps the cart snapshot. Degraded is set when a mutation was
// applied but could not be persisted, so the client can show the new state
// together with a retry affordance.
type CartResponse struct {
	Cart      entity.Cart `json:"cart"`
	ItemCount int         `json:"itemCount"`
	Degraded  bool        `json:"degraded,omitempty"`
}

type cartItemRequest struct {
	ProductID    int    `json:"productId"`
	Quantity     int    `json:"quantity"`
	SelectedBand string `json:"selectedBand"`
}

func (h *Handler) handleCreateCart(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusCreated, map[string]string{"cartId": uuid.NewString()})
}

func (h *Handler) handleGetCart(w http.ResponseWriter, r *http.Request) {
	cart, err := h.cart.Get(r.Context(), mux.Vars(r)["cartID"])
	h.replyCart(w, cart, err)
}

func (h *Handler) handleAddItem(w http.ResponseWriter, r *http.Request) {
	var req cartItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if req.Quantity <= 0 {
		req.Quantity = 1
	}

	cart, err := h.cart.AddItem(r.Context(), mux.Vars(r)["cartID"], req.ProductID, req.Quantity, req.SelectedBand)
	if errors.Is(err, repository.ErrNotFound) {
		http.Error(w, "product not found", http.StatusNotFound)
		return
	}
	h.replyCart(w, cart, err)
}

func (h *Handler) handleUpdateQuantity(w http.ResponseWriter, r *http.Request) {
	var req cartItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	cart, err := h.cart.UpdateQuantity(r.Context(), mux.Vars(r)["cartID"], req.ProductID, req.Quantity, req.SelectedBand)
	h.replyCart(w, cart, err)
}

func (h *Handler) handleRemoveItem(w http.ResponseWriter, r *http.Request) {
	productID, _ := strconv.Atoi(r.URL.Query().Get("productId"))
	band := r.URL.Query().Get("selectedBand")

	cart, err := h.cart.RemoveItem(r.Context(), mux.Vars(r)["cartID"], productID, band)
	h.replyCart(w, cart, err)
}

func (h *Handler) handleClearCart(w http.ResponseWriter, r *http.Request) {
	cart, err := h.cart.Clear(r.Context(), mux.Vars(r)["cartID"])
	h.replyCart(w, cart, err)
}

// replyCart maps cart service outcomes onto HTTP. A persist failure still
// carries the recomputed cart, flagged degraded; a backend read failure is a
// 503 the client can retry.
func (h *Handler) replyCart(w http.ResponseWriter, cart entity.Cart, err error) {
	switch {
	case err == nil:
		writeJSON(w, http.StatusOK, CartResponse{Cart: cart, ItemCount: cart.ItemCount()})
	case errors.Is(err, repository.ErrCartPersist):
		slog.Warn("Cart mutation persisted nowhere", "err", err)
		writeJSON(w, http.StatusOK, CartResponse{Cart: cart, ItemCount: cart.ItemCount(), Degraded: true})
	default:
		slog.Error("Cart request failed", "err", err)
		http.Error(w, "cart temporarily unavailable", http.StatusServiceUnavailable)
	}
}

func (h *Handler) replyCatalogError(w http.ResponseWriter, op string, err error) {
	slog.Error("Catalog request failed", "op", op, "err", err)
	if errors.Is(err, repository.ErrBackendUnavailable) {
		http.Error(w, "catalog temporarily unavailable", http.StatusServiceUnavailable)
		return
	}
	http.Error(w, "internal server error", http.StatusInternalServerError)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
