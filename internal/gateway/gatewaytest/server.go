// Package gatewaytest provides an in-memory stand-in for the management API of
// a Conduit gateway, for use in tests.
//
// The fake keeps the allowlist, the active device sessions, the downlink queue
// and the LoRa network settings in memory, enforces session tokens the way the
// appliance does and records every call it receives.
package gatewaytest

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
)

// Default credentials accepted by a new Server
const (
	DefaultUsername = "admin"
	DefaultPassword = "admin"
)

// Call is one request received by the fake gateway
type Call struct {
	Method string
	Path   string // relative to /api, without query
}

func (c Call) String() string {
	return c.Method + " " + c.Path
}

// Server is a fake gateway backed by httptest.Server
type Server struct {
	*httptest.Server

	Username string
	Password string

	mu          sync.Mutex
	token       string
	requireAuth bool
	whitelist   map[string]json.RawMessage
	active      []map[string]any
	queue       []map[string]any
	network     map[string]json.RawMessage
	commits     int
	calls       []Call
	failures    map[Call]string
}

// NewServer starts a fake gateway with an empty, enabled allowlist.
// Calls are accepted without a session token until RequireAuth is called.
func NewServer() *Server {
	whitelist := map[string]json.RawMessage{
		"devices": json.RawMessage("[]"),
		"enabled": json.RawMessage("true"),
	}
	network := map[string]json.RawMessage{
		"enabled":             json.RawMessage("true"),
		"packetForwarderMode": json.RawMessage("false"),
	}

	s := &Server{
		Username:  DefaultUsername,
		Password:  DefaultPassword,
		whitelist: whitelist,
		network:   network,
		failures:  map[Call]string{},
	}
	s.Server = httptest.NewServer(s.routes())
	return s
}

// APIURL returns the base URL clients should be pointed at
func (s *Server) APIURL() string {
	return s.URL + "/api"
}

func (s *Server) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	r.Route("/api", func(r chi.Router) {
		r.Use(s.recordCall)
		r.Use(s.injectFailure)

		r.Get("/login", s.handleLogin)

		r.Group(func(r chi.Router) {
			r.Use(s.authMiddleware)

			r.Get("/logout", s.handleLogout)
			r.Post("/command/save_apply", s.handleCommit)

			r.Get("/loraNetwork/whitelist", s.handleGetWhitelist)
			r.Put("/loraNetwork/whitelist", s.handlePutWhitelist)

			r.Get("/loraNetwork/lora", s.handleGetNetwork)
			r.Put("/loraNetwork/lora", s.handlePutNetwork)

			r.Get("/lora/devices", s.handleListActive)
			r.Delete("/lora/devices/{deveui}", s.handleDeleteActive)

			r.Get("/lora/packets/queue", s.handleListQueue)
			r.Delete("/lora/packets/queue/{deveui}", s.handleDeleteQueue)
		})
	})

	return r
}

// RequireAuth makes every call except login demand the token issued by login
func (s *Server) RequireAuth() {
	s.mu.Lock()
	s.requireAuth = true
	s.mu.Unlock()
}

// FailOn makes every call matching method and path answer with a fail envelope
// carrying message. An empty message produces an envelope without "error".
func (s *Server) FailOn(method, path, message string) {
	s.mu.Lock()
	s.failures[Call{Method: method, Path: path}] = message
	s.mu.Unlock()
}

// SetWhitelist replaces the allowlist with the given raw entries
func (s *Server) SetWhitelist(entries ...map[string]any) {
	raw, err := json.Marshal(normalise(entries))
	if err != nil {
		panic(err)
	}
	s.mu.Lock()
	s.whitelist["devices"] = raw
	s.mu.Unlock()
}

// Whitelist returns the allowlist entries and the enabled flag
func (s *Server) Whitelist() ([]map[string]any, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var entries []map[string]any
	if raw, ok := s.whitelist["devices"]; ok {
		_ = json.Unmarshal(raw, &entries)
	}
	var enabled bool
	if raw, ok := s.whitelist["enabled"]; ok {
		_ = json.Unmarshal(raw, &enabled)
	}
	return entries, enabled
}

// WhitelistEUIs returns the deveui of every allowlist entry, in order
func (s *Server) WhitelistEUIs() []string {
	entries, _ := s.Whitelist()
	return euisOf(entries)
}

// SetActive replaces the active device sessions
func (s *Server) SetActive(devices ...map[string]any) {
	s.mu.Lock()
	s.active = normalise(devices)
	s.mu.Unlock()
}

// ActiveEUIs returns the deveui of every active session, in order
func (s *Server) ActiveEUIs() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return euisOf(s.active)
}

// SetQueue replaces the downlink queue
func (s *Server) SetQueue(packets ...map[string]any) {
	s.mu.Lock()
	s.queue = normalise(packets)
	s.mu.Unlock()
}

// QueueEUIs returns the deveui of every queued packet, in order
func (s *Server) QueueEUIs() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return euisOf(s.queue)
}

// SetNetworkField sets one raw field of the LoRa network settings
func (s *Server) SetNetworkField(key string, value any) {
	raw, err := json.Marshal(value)
	if err != nil {
		panic(err)
	}
	s.mu.Lock()
	s.network[key] = raw
	s.mu.Unlock()
}

// NetworkField returns one raw field of the LoRa network settings
func (s *Server) NetworkField(key string) json.RawMessage {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.network[key]
}

// Commits returns how many times command/save_apply succeeded
func (s *Server) Commits() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.commits
}

// Calls returns every call received so far
func (s *Server) Calls() []Call {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Call(nil), s.calls...)
}

// Token returns the session token issued by the last login
func (s *Server) Token() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.token
}

// ========== Middleware ==========

func (s *Server) recordCall(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		s.calls = append(s.calls, Call{Method: r.Method, Path: apiPath(r)})
		s.mu.Unlock()
		next.ServeHTTP(w, r)
	})
}

func (s *Server) injectFailure(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		message, fail := s.failures[Call{Method: r.Method, Path: apiPath(r)}]
		s.mu.Unlock()

		if fail {
			body := map[string]any{"code": http.StatusBadRequest, "status": "fail"}
			if message != "" {
				body["error"] = message
			}
			respondJSON(w, http.StatusBadRequest, body)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) authMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		ok := !s.requireAuth || (s.token != "" && r.URL.Query().Get("token") == s.token)
		s.mu.Unlock()

		if !ok {
			respondError(w, http.StatusUnauthorized, "Unauthorized")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// ========== Handlers ==========

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	if q.Get("username") != s.Username || q.Get("password") != s.Password {
		respondError(w, http.StatusUnauthorized, "Invalid username or password")
		return
	}

	token := strings.ReplaceAll(uuid.NewString(), "-", "")
	s.mu.Lock()
	s.token = token
	s.mu.Unlock()

	respondResult(w, map[string]any{"token": token, "permission": "admin"})
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	s.token = ""
	s.mu.Unlock()
	respondResult(w, nil)
}

func (s *Server) handleCommit(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	s.commits++
	s.mu.Unlock()
	respondResult(w, nil)
}

func (s *Server) handleGetWhitelist(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	respondResult(w, s.whitelist)
}

func (s *Server) handlePutWhitelist(w http.ResponseWriter, r *http.Request) {
	doc, err := decodeObject(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	var devices []map[string]any
	if err := json.Unmarshal(doc["devices"], &devices); err != nil {
		respondError(w, http.StatusBadRequest, "devices must be a list")
		return
	}
	seen := map[string]bool{}
	for _, d := range devices {
		eui, _ := d["deveui"].(string)
		if seen[eui] {
			respondError(w, http.StatusBadRequest, "Duplicate deveui "+eui)
			return
		}
		seen[eui] = true
	}

	s.mu.Lock()
	s.whitelist = doc
	s.mu.Unlock()
	respondResult(w, nil)
}

func (s *Server) handleGetNetwork(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	respondResult(w, s.network)
}

func (s *Server) handlePutNetwork(w http.ResponseWriter, r *http.Request) {
	doc, err := decodeObject(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	s.mu.Lock()
	s.network = doc
	s.mu.Unlock()
	respondResult(w, nil)
}

func (s *Server) handleListActive(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	respondResult(w, orEmpty(s.active))
}

func (s *Server) handleDeleteActive(w http.ResponseWriter, r *http.Request) {
	eui := chi.URLParam(r, "deveui")

	s.mu.Lock()
	defer s.mu.Unlock()
	for i, d := range s.active {
		if d["deveui"] == eui {
			s.active = append(s.active[:i], s.active[i+1:]...)
			respondResult(w, nil)
			return
		}
	}
	respondError(w, http.StatusNotFound, "Device not found: "+eui)
}

func (s *Server) handleListQueue(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	respondResult(w, orEmpty(s.queue))
}

func (s *Server) handleDeleteQueue(w http.ResponseWriter, r *http.Request) {
	eui := chi.URLParam(r, "deveui")

	s.mu.Lock()
	defer s.mu.Unlock()
	kept := s.queue[:0]
	for _, p := range s.queue {
		if p["deveui"] != eui {
			kept = append(kept, p)
		}
	}
	s.queue = kept
	respondResult(w, nil)
}

// ========== Helper functions ==========

func apiPath(r *http.Request) string {
	return strings.TrimPrefix(r.URL.Path, "/api/")
}

func decodeObject(r *http.Request) (map[string]json.RawMessage, error) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		return nil, err
	}
	var doc map[string]json.RawMessage
	if err := json.Unmarshal(body, &doc); err != nil || doc == nil {
		return nil, fmt.Errorf("body must be a JSON object")
	}
	return doc, nil
}

func respondJSON(w http.ResponseWriter, status int, payload any) {
	response, err := json.Marshal(payload)
	if err != nil {
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(response)
}

func respondResult(w http.ResponseWriter, result any) {
	body := map[string]any{"code": http.StatusOK, "status": "success"}
	if result != nil {
		body["result"] = result
	}
	respondJSON(w, http.StatusOK, body)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]any{
		"code":   status,
		"status": "fail",
		"error":  message,
	})
}

// normalise round-trips entries through JSON so stored values have the
// same types a decoded request body would have
func normalise(entries []map[string]any) []map[string]any {
	raw, err := json.Marshal(entries)
	if err != nil {
		panic(err)
	}
	var out []map[string]any
	if err := json.Unmarshal(raw, &out); err != nil {
		panic(err)
	}
	return out
}

func orEmpty(entries []map[string]any) []map[string]any {
	if entries == nil {
		return []map[string]any{}
	}
	return entries
}

func euisOf(entries []map[string]any) []string {
	euis := make([]string, 0, len(entries))
	for _, e := range entries {
		eui, _ := e["deveui"].(string)
		euis = append(euis, eui)
	}
	return euis
}
