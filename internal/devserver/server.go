// Package devserver is a local stand-in for the remote product API: the
// /api/v1/products CRUD routes and the natural-language AI search endpoint,
// backed by the SQLite store.
package devserver

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/mux"

	"github.com/abelbrown/catalog/internal/logging"
	"github.com/abelbrown/catalog/internal/otel"
	"github.com/abelbrown/catalog/internal/product"
	"github.com/abelbrown/catalog/internal/store"
)

const maxBody = 1 << 20

// Server routes product API requests to a store.
type Server struct {
	*mux.Router
	store *store.Store
	log   *otel.Logger
}

// New creates a Server with all routes registered. log may be nil.
func New(st *store.Store, log *otel.Logger) *Server {
	s := &Server{
		Router: mux.NewRouter(),
		store:  st,
		log:    log,
	}

	s.HandleFunc("/health", s.health).Methods(http.MethodGet)

	api := s.PathPrefix("/api/v1").Subrouter()
	api.HandleFunc("/products", s.listProducts).Methods(http.MethodGet)
	api.HandleFunc("/products", s.createProduct).Methods(http.MethodPost)
	api.HandleFunc("/products/{id}", s.getProduct).Methods(http.MethodGet)
	api.HandleFunc("/products/{id}", s.updateProduct).Methods(http.MethodPut)
	api.HandleFunc("/products/{id}", s.deleteProduct).Methods(http.MethodDelete)
	api.HandleFunc("/product/ai-search", s.aiSearch).Methods(http.MethodPost)

	s.Use(s.logRequests)
	return s
}

type listResponse struct {
	Products []product.Product `json:"products"`
	Count    int               `json:"count"`
}

type searchRequest struct {
	UserQuery string `json:"user_query"`
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) listProducts(w http.ResponseWriter, r *http.Request) {
	products, err := s.store.List(r.Context())
	if err != nil {
		s.internalError(w, "Error retrieving products", err)
		return
	}
	respondJSON(w, http.StatusOK, listResponse{Products: products, Count: len(products)})
}

func (s *Server) getProduct(w http.ResponseWriter, r *http.Request) {
	id, ok := productID(w, r)
	if !ok {
		return
	}
	p, err := s.store.Get(r.Context(), id)
	if errors.Is(err, store.ErrNotFound) {
		respondError(w, http.StatusNotFound, "Product not found")
		return
	}
	if err != nil {
		s.internalError(w, "Error retrieving product", err)
		return
	}
	respondJSON(w, http.StatusOK, p)
}

func (s *Server) createProduct(w http.ResponseWriter, r *http.Request) {
	var in product.Input
	if !decode(w, r, &in) {
		return
	}
	if err := in.Validate(); err != nil {
		respondError(w, http.StatusUnprocessableEntity, validationDetail(err))
		return
	}

	p, err := s.store.Create(r.Context(), in)
	if err != nil {
		s.internalError(w, "Error creating product", err)
		return
	}
	respondJSON(w, http.StatusCreated, p)
}

func (s *Server) updateProduct(w http.ResponseWriter, r *http.Request) {
	id, ok := productID(w, r)
	if !ok {
		return
	}
	var patch store.Patch
	if !decode(w, r, &patch) {
		return
	}

	current, err := s.store.Get(r.Context(), id)
	if errors.Is(err, store.ErrNotFound) {
		respondError(w, http.StatusNotFound, "Product not found")
		return
	}
	if err != nil {
		s.internalError(w, "Error updating product", err)
		return
	}
	if err := patch.Apply(current).Input().Validate(); err != nil {
		respondError(w, http.StatusUnprocessableEntity, validationDetail(err))
		return
	}

	p, err := s.store.Update(r.Context(), id, patch)
	if errors.Is(err, store.ErrNotFound) {
		respondError(w, http.StatusNotFound, "Product not found")
		return
	}
	if err != nil {
		s.internalError(w, "Error updating product", err)
		return
	}
	respondJSON(w, http.StatusOK, p)
}

func (s *Server) deleteProduct(w http.ResponseWriter, r *http.Request) {
	id, ok := productID(w, r)
	if !ok {
		return
	}
	err := s.store.Delete(r.Context(), id)
	if errors.Is(err, store.ErrNotFound) {
		respondError(w, http.StatusNotFound, "Product not found")
		return
	}
	if err != nil {
		s.internalError(w, "Error deleting product", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) aiSearch(w http.ResponseWriter, r *http.Request) {
	var req searchRequest
	if !decode(w, r, &req) {
		return
	}
	query := strings.TrimSpace(req.UserQuery)
	if query == "" {
		respondError(w, http.StatusUnprocessableEntity, "user_query is required")
		return
	}

	filters := ParseQuery(query)
	products, err := s.store.Search(r.Context(), filters)
	if err != nil {
		s.internalError(w, "Error searching products", err)
		return
	}
	respondJSON(w, http.StatusOK, listResponse{Products: products, Count: len(products)})
}

func (s *Server) internalError(w http.ResponseWriter, detail string, err error) {
	logging.Error(detail, "err", err)
	respondError(w, http.StatusInternalServerError, detail+": "+err.Error())
}

// logRequests records one serve.request event per request.
func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)

		dur := time.Since(start)
		logging.Debug("request", "method", r.Method, "path", r.URL.Path, "status", rec.status, "dur", dur)
		level := otel.LevelInfo
		if rec.status >= 500 {
			level = otel.LevelError
		}
		s.log.Emit(otel.Event{
			Level: level,
			Kind:  otel.KindServeRequest,
			Comp:  "devserver",
			Dur:   dur,
			Msg:   r.Method + " " + r.URL.Path,
			Extra: map[string]any{"status": rec.status},
		})
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func productID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil || id <= 0 {
		respondError(w, http.StatusUnprocessableEntity, "Invalid product id")
		return 0, false
	}
	return id, true
}

func decode(w http.ResponseWriter, r *http.Request, v any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBody))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		respondError(w, http.StatusUnprocessableEntity, "Invalid request payload: "+err.Error())
		return false
	}
	return true
}

// validationDetail strips the sentinel prefix so the client shows only the
// problems.
func validationDetail(err error) string {
	return strings.TrimPrefix(err.Error(), product.ErrInvalid.Error()+": ")
}

// respondJSON sends a JSON response
func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// respondError sends an error in the {"detail": ...} shape clients expect.
func respondError(w http.ResponseWriter, status int, detail string) {
	respondJSON(w, status, map[string]string{"detail": detail})
}
