package adapthttp

import (
	"errors"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/namratazipy/testappios/internal/app"
	"github.com/namratazipy/testappios/internal/domain"
)

func (s *Server) handleCart(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	lines, err := s.cart.Lines(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	if lines == nil {
		lines = []domain.CartLine{}
	}
	total, err := s.cart.Total(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": lines, "total": total})
}

func (s *Server) handleCartAdd(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	var body struct {
		ProductID uuid.UUID `json:"productId"`
		Quantity  int       `json:"quantity"`
	}
	if err := parseJSON(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	// The store takes quantities as given; non-positive requests are
	// clamped to one unit here at the boundary.
	if body.Quantity < 1 {
		body.Quantity = 1
	}

	line, err := s.cart.AddQuantity(r.Context(), body.ProductID, body.Quantity)
	if errors.Is(err, app.ErrUnknownProduct) {
		writeError(w, http.StatusNotFound, err)
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, line)
}

func (s *Server) handleCartLine(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(strings.TrimPrefix(r.URL.Path, "/cart/items/"))
	if err != nil {
		writeError(w, http.StatusBadRequest, errors.New("invalid line id"))
		return
	}

	switch r.Method {
	case http.MethodPut:
		var body struct {
			Quantity int `json:"quantity"`
		}
		if err := parseJSON(r, &body); err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}
		if err := s.cart.SetQuantity(r.Context(), id, body.Quantity); err != nil {
			writeError(w, http.StatusInternalServerError, err)
			return
		}
	case http.MethodDelete:
		if err := s.cart.Remove(r.Context(), id); err != nil {
			writeError(w, http.StatusInternalServerError, err)
			return
		}
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"status": "ok"})
}
