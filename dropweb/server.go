package dropweb

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/stakeworks/merkledrop/common"
	"github.com/stakeworks/merkledrop/distributor"
	"github.com/stakeworks/merkledrop/droperrors"
	"github.com/stakeworks/merkledrop/log"
)

// Server exposes the claim surface over HTTP next to the websocket
// event feed. Claims are submitted as the verbatim tuples from the
// published distribution file.
type Server struct {
	d   *distributor.Distributor
	hub *Hub
}

func NewServer(d *distributor.Distributor, hub *Hub) *Server {
	return &Server{d: d, hub: hub}
}

func (s *Server) Router() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", s.hub.ServeWs)
	mux.HandleFunc("/root", s.handleRoot)
	mux.HandleFunc("/claimed", s.handleClaimed)
	mux.HandleFunc("/claim", s.handleClaim)
	mux.HandleFunc("/claim/batch", s.handleClaimBatch)
	return mux
}

// Start blocks serving the API on the given port.
func (s *Server) Start(port int) error {
	addr := fmt.Sprintf(":%d", port)
	log.Info(log.WebMonitoring, "claim API listening", "addr", addr)
	return http.ListenAndServe(addr, s.Router())
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, err error) {
	writeJSON(w, http.StatusUnprocessableEntity, struct {
		Error  string `json:"error"`
		Detail string `json:"detail"`
	}{Error: droperrors.GetErrorName(err), Detail: err.Error()})
}

func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, struct {
		Root common.Hash `json:"root"`
	}{Root: s.d.Root()})
}

func (s *Server) handleClaimed(w http.ResponseWriter, r *http.Request) {
	account := common.HexToAddress(r.URL.Query().Get("account"))
	if account.IsZero() {
		writeJSON(w, http.StatusBadRequest, struct {
			Error string `json:"error"`
		}{Error: "account parameter required"})
		return
	}
	writeJSON(w, http.StatusOK, struct {
		Account common.Address `json:"account"`
		Claimed string         `json:"claimed"`
		Live    string         `json:"live_available"`
	}{
		Account: account,
		Claimed: s.d.EffectiveClaimed(account).Dec(),
		Live:    s.d.LiveAvailable(account).Dec(),
	})
}

// handleClaim runs a combined claim: the merkle leg when the tuple
// carries one, then the live leg when available.
func (s *Server) handleClaim(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "POST required", http.StatusMethodNotAllowed)
		return
	}
	var req distributor.ClaimRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, struct {
			Error string `json:"error"`
		}{Error: fmt.Sprintf("invalid claim payload: %v", err)})
		return
	}
	if err := s.d.ClaimCombined(req); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, struct {
		Claimed string `json:"claimed"`
	}{Claimed: s.d.EffectiveClaimed(req.Account).Dec()})
}

func (s *Server) handleClaimBatch(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "POST required", http.StatusMethodNotAllowed)
		return
	}
	var reqs []distributor.ClaimRequest
	if err := json.NewDecoder(r.Body).Decode(&reqs); err != nil {
		writeJSON(w, http.StatusBadRequest, struct {
			Error string `json:"error"`
		}{Error: fmt.Sprintf("invalid batch payload: %v", err)})
		return
	}
	if err := s.d.ClaimCombinedBatch(reqs); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, struct {
		Applied int `json:"applied"`
	}{Applied: len(reqs)})
}
