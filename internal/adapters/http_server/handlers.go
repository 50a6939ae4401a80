package httpserver

import (
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"flex_reviews/internal/app"
	"flex_reviews/internal/domain"
)

type Handlers struct{ S *app.ReviewService }

type problem struct {
	Type   string `json:"type"`
	Title  string `json:"title"`
	Status int    `json:"status"`
	Detail string `json:"detail,omitempty"`
}

func (s *Server) MountHandlers(h *Handlers) {
	s.mux.Get("/healthz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(200); _, _ = w.Write([]byte("ok")) })
	s.mux.Get("/api/reviews", h.listReviews)
	s.mux.Get("/api/reviews/filtered", h.listFilteredReviews)
	s.mux.Get("/api/reviews/hostaway", h.listHostawayReviews)
	s.mux.Get("/api/reviews/google", h.listGoogleReviews)
	s.mux.Get("/api/reviews/selected", h.listSelectedReviews)
	s.mux.Post("/api/reviews/{id}/select", h.toggleSelection)
	s.mux.Get("/api/properties/performance", h.propertyPerformance)
	s.mux.Get("/api/integrations/google", h.googleIntegration)
	s.mux.Post("/api/filters", h.applyFilters)
	s.mux.Delete("/api/filters", h.resetFilters)
	s.mux.Post("/api/cache/clear", h.clearCache)
}

func writeProblem(w http.ResponseWriter, status int, title, detail string) {
	w.Header().Set("Content-Type", "application/problem+json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(problem{Type: "about:blank", Title: title, Status: status, Detail: detail}); err != nil {
		log.Error().Err(err).Msg("write JSON problem response failed")
	}
}

// calcETagAndBody marshals once and hashes once, returning both ETag and body.
func calcETagAndBody(v any) (string, []byte) {
	body, err := json.Marshal(v)
	if err != nil {
		log.Error().Err(err).Msg("failed to marshal object for ETag/body")
		return "", nil
	}
	sum := sha1.Sum(body)
	etag := `W/"` + hex.EncodeToString(sum[:]) + `"`
	return etag, body
}

// writeJSON renders v with an ETag and honors If-None-Match.
func writeJSON(w http.ResponseWriter, r *http.Request, v any) {
	etag, body := calcETagAndBody(v)
	if inm := r.Header.Get("If-None-Match"); inm != "" && inm == etag {
		w.Header().Set("ETag", etag)
		w.WriteHeader(http.StatusNotModified)
		return
	}
	w.Header().Set("ETag", etag)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(body); err != nil {
		log.Error().Err(err).Msg("failed to write response body")
	}
}

func (h *Handlers) listReviews(w http.ResponseWriter, r *http.Request) {
	reviews, err := h.S.GetAllReviews(r.Context())
	if err != nil {
		writeProblem(w, http.StatusBadGateway, "Fetch Failed", "failed to fetch reviews")
		return
	}
	writeJSON(w, r, reviews)
}

func (h *Handlers) listFilteredReviews(w http.ResponseWriter, r *http.Request) {
	reviews, err := h.S.GetFilteredReviews(r.Context())
	if err != nil {
		writeProblem(w, http.StatusBadGateway, "Fetch Failed", "failed to fetch reviews")
		return
	}
	writeJSON(w, r, reviews)
}

func (h *Handlers) listHostawayReviews(w http.ResponseWriter, r *http.Request) {
	reviews, err := h.S.GetHostawayReviews(r.Context())
	if err != nil {
		writeProblem(w, http.StatusBadGateway, "Fetch Failed", "failed to fetch hostaway reviews")
		return
	}
	writeJSON(w, r, reviews)
}

func (h *Handlers) listGoogleReviews(w http.ResponseWriter, r *http.Request) {
	reviews, err := h.S.GetGoogleReviews(r.Context())
	if err != nil {
		writeProblem(w, http.StatusBadGateway, "Fetch Failed", "failed to fetch google reviews")
		return
	}
	if reviews == nil {
		reviews = []domain.Review{}
	}
	writeJSON(w, r, reviews)
}

func (h *Handlers) listSelectedReviews(w http.ResponseWriter, r *http.Request) {
	reviews, err := h.S.GetSelectedReviews(r.Context())
	if err != nil {
		writeProblem(w, http.StatusBadGateway, "Fetch Failed", "failed to fetch reviews")
		return
	}
	writeJSON(w, r, reviews)
}

func (h *Handlers) toggleSelection(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		writeProblem(w, http.StatusBadRequest, "Invalid ID", "review id is required")
		return
	}
	selected := h.S.ToggleReviewSelection(id)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(map[string]any{"id": id, "selected": selected})
}

func (h *Handlers) propertyPerformance(w http.ResponseWriter, r *http.Request) {
	perf, err := h.S.GetPropertyPerformance(r.Context())
	if err != nil {
		writeProblem(w, http.StatusBadGateway, "Fetch Failed", "failed to compute property performance")
		return
	}
	writeJSON(w, r, perf)
}

func (h *Handlers) googleIntegration(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, r, h.S.GoogleIntegrationInfo())
}

func (h *Handlers) applyFilters(w http.ResponseWriter, r *http.Request) {
	var partial domain.Filters
	if err := json.NewDecoder(r.Body).Decode(&partial); err != nil {
		writeProblem(w, http.StatusBadRequest, "Invalid Filters", "body must be a JSON filter specification")
		return
	}
	h.S.ApplyFilters(partial)
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handlers) resetFilters(w http.ResponseWriter, r *http.Request) {
	h.S.ResetFilters()
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handlers) clearCache(w http.ResponseWriter, r *http.Request) {
	if err := h.S.ClearCache(r.Context()); err != nil {
		writeProblem(w, http.StatusInternalServerError, "Cache Error", "failed to clear review cache")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
