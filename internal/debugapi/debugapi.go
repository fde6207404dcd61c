// Package debugapi implements the optional read-only HTTP introspection
// surface of SPEC_FULL.md §6 (expansion): /healthz, /stats and
// /objects/{name}. It is grounded on services/tile-server/cmd/server/
// main.go's handler shape (gorilla/mux routing, a cors.Handler wrap,
// one struct holding every dependency the handlers close over) adapted
// from a tile cache's health/stats surface to a shmem store's.
package debugapi

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/rs/cors"

	"github.com/vistle-sys/vistle/internal/shmem"
	"github.com/vistle-sys/vistle/internal/vlog"
	"github.com/vistle-sys/vistle/internal/vversion"
)

// Server exposes a store's occupancy and entry contents over HTTP for
// out-of-process inspection tools. It never mutates the store.
type Server struct {
	store *shmem.Store
}

// New returns a debug API handler over store.
func New(store *shmem.Store) *Server {
	return &Server{store: store}
}

// Handler builds the routed, CORS-wrapped http.Handler.
func (s *Server) Handler() http.Handler {
	r := mux.NewRouter()
	r.HandleFunc("/healthz", s.healthHandler).Methods(http.MethodGet)
	r.HandleFunc("/stats", s.statsHandler).Methods(http.MethodGet)
	r.HandleFunc("/objects/{name}", s.objectHandler).Methods(http.MethodGet)

	c := cors.New(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{http.MethodGet},
	})
	return c.Handler(r)
}

func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"healthy": true,
		"version": vversion.String(),
		"store":   s.store.ID(),
	})
}

func (s *Server) statsHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.store.Stats())
}

// objectHandler returns a name's metadata-only lookup: kind (array or
// object), type tag (for objects), and references — never the array's
// raw bytes, so this surface stays safe to expose without a size cap.
func (s *Server) objectHandler(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["name"]
	arr, tag, isObject, found := s.store.Lookup(name)
	if !found {
		writeJSON(w, http.StatusNotFound, map[string]interface{}{"error": "not found", "name": name})
		return
	}

	resp := map[string]interface{}{"name": name, "is_object": isObject}
	if isObject {
		resp["tag"] = tag
		if refs, ok := s.store.ObjectRefs(name); ok {
			resp["refs"] = refs
		}
	} else {
		resp["element_type"] = arr.ElementType().String()
		resp["length"] = arr.Len()
		resp["byte_size"] = arr.ByteSize()
	}
	writeJSON(w, http.StatusOK, resp)
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		vlog.WithError(err).Warn("debugapi: failed to encode response")
	}
}
