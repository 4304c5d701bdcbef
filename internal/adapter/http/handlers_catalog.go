package adapthttp

import (
	"errors"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/namratazipy/testappios/internal/domain"
)

// handleProducts applies the view intents carried in the query string and
// returns the requested page of the derived catalog view.
func (s *Server) handleProducts(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	q := r.URL.Query()
	s.catalog.SetSearchText(q.Get("search"))
	s.catalog.SetCategory(q.Get("category"))
	if v := q.Get("sort"); v != "" {
		opt, err := domain.ParseSortOption(v)
		if err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}
		s.catalog.SetSortOption(opt)
	}

	page := intQuery(r, "page", 1)
	items := s.catalog.Page(page)
	if items == nil {
		items = []domain.Product{}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"items":    items,
		"page":     page,
		"pageSize": s.catalog.PageSize(),
		"total":    len(s.catalog.FilteredAndSorted()),
		"hasMore":  s.catalog.HasMore(),
		"loading":  s.catalog.Loading(),
	})
}

func (s *Server) handleProduct(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	id, err := uuid.Parse(strings.TrimPrefix(r.URL.Path, "/catalog/products/"))
	if err != nil {
		writeError(w, http.StatusBadRequest, errors.New("invalid product id"))
		return
	}
	p, err := s.catalog.ProductByID(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	if p == nil {
		writeError(w, http.StatusNotFound, errors.New("product not found"))
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (s *Server) handleCategories(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"categories": s.catalog.Categories()})
}

// handleVisible reports which product the user is looking at so the store
// can fetch more of the catalog when the view nears the end.
func (s *Server) handleVisible(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	var body struct {
		ProductID uuid.UUID `json:"productId"`
	}
	if err := parseJSON(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	// Resolve the deferred completion before answering so the response
	// reflects the post-fetch state.
	if err := <-s.catalog.LoadMoreIfNearEnd(r.Context(), body.ProductID); err != nil {
		writeError(w, http.StatusBadGateway, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"hasMore": s.catalog.HasMore(),
		"loaded":  len(s.catalog.Products()),
	})
}
