package server

import (
	"encoding/json"
	"net/http"

	"solexplorer/internal/cache"
	"solexplorer/internal/cluster"
	"solexplorer/internal/largest"
	"solexplorer/internal/names"
	"solexplorer/internal/price"
	"solexplorer/internal/solana"
)

const maxBodySize = 1 << 16

// view is the read/trigger surface every feature exposes
type view[T any] interface {
	Read(key string) (cache.Entry[T], bool)
	RequestFetch(key string)
}

// entryResponse is the JSON body for a single cache entry
type entryResponse[T any] struct {
	Key    string            `json:"key"`
	Status cache.FetchStatus `json:"status"`
	Data   *T                `json:"data,omitempty"`
}

type errorResponse struct {
	Error string `json:"error"`
}

type clusterResponse struct {
	Cluster string `json:"cluster"`
	URL     string `json:"url"`
}

type switchClusterRequest struct {
	Cluster   string `json:"cluster"`
	CustomURL string `json:"customUrl"`
}

func (s *Server) routes() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /api/largest/{mint}", s.withAddress("mint", func(w http.ResponseWriter, r *http.Request, mint string) {
		serveEntry[largest.LargestAccounts](w, s.largest.View(), mint)
	}))
	mux.HandleFunc("POST /api/largest/{mint}/refresh", s.withAddress("mint", func(w http.ResponseWriter, r *http.Request, mint string) {
		refreshEntry[largest.LargestAccounts](w, s.largest.View(), mint)
	}))

	if s.names != nil {
		mux.HandleFunc("GET /api/domains/{owner}", s.withAddress("owner", s.userDomains(false)))
		mux.HandleFunc("POST /api/domains/{owner}/refresh", s.withAddress("owner", s.userDomains(true)))
		mux.HandleFunc("GET /api/domain-info/{domain}", func(w http.ResponseWriter, r *http.Request) {
			serveEntry[names.DomainInfo](w, s.names.DomainInfo(), r.PathValue("domain"))
		})
	}

	if s.poller != nil {
		mux.HandleFunc("GET /api/price/{coin}", func(w http.ResponseWriter, r *http.Request) {
			serveEntry[price.CoinInfo](w, s.poller, r.PathValue("coin"))
		})
	}

	mux.HandleFunc("GET /api/cluster", s.getCluster)
	mux.HandleFunc("POST /api/cluster", s.switchCluster)
	mux.Handle("GET /ws", s.wsHandler)

	return mux
}

// withAddress validates the base58 address in path parameter name
func (s *Server) withAddress(name string, fn func(http.ResponseWriter, *http.Request, string)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		addr := r.PathValue(name)
		if err := solana.ValidateAddress(addr); err != nil {
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
			return
		}
		fn(w, r, addr)
	}
}

func (s *Server) userDomains(refresh bool) func(http.ResponseWriter, *http.Request, string) {
	return func(w http.ResponseWriter, r *http.Request, owner string) {
		if !names.SupportsUserDomains(s.clusters.Current()) {
			writeJSON(w, http.StatusConflict, errorResponse{Error: names.ErrUnsupportedCluster.Error()})
			return
		}
		if refresh {
			refreshEntry[names.UserDomains](w, s.names.UserDomains(), owner)
			return
		}
		serveEntry[names.UserDomains](w, s.names.UserDomains(), owner)
	}
}

// serveEntry writes the entry for key. A key never fetched is requested and
// answered with 202 and its fetching entry.
func serveEntry[T any](w http.ResponseWriter, v view[T], key string) {
	if entry, ok := v.Read(key); ok {
		writeJSON(w, http.StatusOK, entryResponse[T]{Key: key, Status: entry.Status, Data: entry.Data})
		return
	}
	refreshEntry(w, v, key)
}

func refreshEntry[T any](w http.ResponseWriter, v view[T], key string) {
	v.RequestFetch(key)
	entry, ok := v.Read(key)
	if !ok {
		writeJSON(w, http.StatusNotFound, errorResponse{Error: "entry not available"})
		return
	}
	writeJSON(w, http.StatusAccepted, entryResponse[T]{Key: key, Status: entry.Status, Data: entry.Data})
}

func (s *Server) getCluster(w http.ResponseWriter, r *http.Request) {
	ep := s.clusters.Current()
	writeJSON(w, http.StatusOK, clusterResponse{Cluster: ep.Cluster.String(), URL: ep.URL})
}

func (s *Server) switchCluster(w http.ResponseWriter, r *http.Request) {
	var req switchClusterRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodySize)).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return
	}

	c, err := cluster.Parse(req.Cluster)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}
	ep, err := s.clusters.Switch(c, req.CustomURL)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}

	s.logger.Info().
		Str("cluster", ep.Cluster.String()).
		Str("url", ep.URL).
		Msg("cluster switched")

	writeJSON(w, http.StatusOK, clusterResponse{Cluster: ep.Cluster.String(), URL: ep.URL})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
