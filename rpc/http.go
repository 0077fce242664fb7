package rpc

import (
	"bytes"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/time/rate"

	"volatilitycats/native/cats"
	"volatilitycats/native/registry"
)

const (
	jsonRPCVersion  = "2.0"
	maxRequestBytes = 1 << 20 // 1 MiB

	mutationsPerSecond = 5
	mutationBurst      = 10
	limiterIdleTTL     = 15 * time.Minute
)

const (
	codeParseError     = -32700
	codeInvalidRequest = -32600
	codeMethodNotFound = -32601
	codeInvalidParams  = -32602
	codeUnauthorized   = -32001
	codeServerError    = -32000
	codeNotFound       = -32004
	codeCooldown       = -32030
	codePrecondition   = -32031
	codeRateLimited    = -32020
)

type clientLimiter struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// Server exposes the game engines over JSON-RPC. Read methods are open;
// mutating methods require the configured bearer token and are rate limited
// per client address.
type Server struct {
	engine   *cats.Engine
	registry *registry.Registry
	logger   *slog.Logger

	mu        sync.Mutex
	limiters  map[string]*clientLimiter
	authToken string
}

// NewServer wires the RPC surface over the given engines. An empty token
// disables every mutating method.
func NewServer(engine *cats.Engine, reg *registry.Registry, authToken string, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{
		engine:    engine,
		registry:  reg,
		logger:    logger,
		limiters:  make(map[string]*clientLimiter),
		authToken: strings.TrimSpace(authToken),
	}
}

// Router assembles the HTTP surface: the JSON-RPC endpoint plus operational
// endpoints for metrics and liveness.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Post("/rpc", s.handle)
	r.Handle("/metrics", promhttp.Handler())
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	return r
}

// Start serves the router until the listener fails.
func (s *Server) Start(addr string) error {
	s.logger.Info("starting JSON-RPC server", "addr", addr)
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Router(),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	return srv.ListenAndServe()
}

type RPCRequest struct {
	JSONRPC string            `json:"jsonrpc"`
	Method  string            `json:"method"`
	Params  []json.RawMessage `json:"params"`
	ID      int               `json:"id"`
}

type RPCResponse struct {
	JSONRPC string      `json:"jsonrpc"`
	ID      interface{} `json:"id"`
	Result  interface{} `json:"result,omitempty"`
	Error   *RPCError   `json:"error,omitempty"`
}

type RPCError struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

func writeError(w http.ResponseWriter, status int, id interface{}, code int, message string, data interface{}) {
	if status <= 0 {
		status = http.StatusBadRequest
	}
	if status != http.StatusOK {
		w.WriteHeader(status)
	}
	errObj := &RPCError{Code: code, Message: message}
	if data != nil {
		errObj.Data = data
	}
	resp := RPCResponse{JSONRPC: jsonRPCVersion, ID: id, Error: errObj}
	_ = json.NewEncoder(w).Encode(resp)
}

func writeResult(w http.ResponseWriter, id interface{}, result interface{}) {
	resp := RPCResponse{JSONRPC: jsonRPCVersion, ID: id, Result: result}
	_ = json.NewEncoder(w).Encode(resp)
}

// writeEngineError maps module sentinels onto RPC error codes so clients can
// distinguish preconditions from genuine server faults.
func writeEngineError(w http.ResponseWriter, id interface{}, err error) {
	code := codeServerError
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, cats.ErrCatNotFound),
		errors.Is(err, registry.ErrAssetNotFound):
		code = codeNotFound
		status = http.StatusOK
	case errors.Is(err, cats.ErrMissionCooldown),
		errors.Is(err, cats.ErrTeleportCooldown):
		code = codeCooldown
		status = http.StatusOK
	case errors.Is(err, cats.ErrPowerTooLow),
		errors.Is(err, cats.ErrTeleportPowerLow),
		errors.Is(err, cats.ErrAlreadyClaimed),
		errors.Is(err, cats.ErrNotAlive),
		errors.Is(err, cats.ErrSelfTransfer),
		errors.Is(err, registry.ErrAssetExists):
		code = codePrecondition
		status = http.StatusOK
	case errors.Is(err, cats.ErrNotTokenOwner),
		errors.Is(err, cats.ErrUnauthorized),
		errors.Is(err, registry.ErrUnauthorized):
		code = codeUnauthorized
		status = http.StatusOK
	case errors.Is(err, cats.ErrInvalidClan),
		errors.Is(err, cats.ErrInvalidMissionType),
		errors.Is(err, cats.ErrInvalidChain),
		errors.Is(err, registry.ErrInvalidAsset):
		code = codeInvalidParams
		status = http.StatusOK
	}
	writeError(w, status, id, code, err.Error(), nil)
}

func (s *Server) handle(w http.ResponseWriter, r *http.Request) {
	reader := http.MaxBytesReader(w, r.Body, maxRequestBytes)
	defer func() {
		_ = reader.Close()
	}()

	w.Header().Set("Content-Type", "application/json")

	body, err := io.ReadAll(reader)
	if err != nil {
		status := http.StatusBadRequest
		message := "failed to read request body"
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			status = http.StatusRequestEntityTooLarge
			message = fmt.Sprintf("request body exceeds %d bytes", maxRequestBytes)
		}
		writeError(w, status, nil, codeInvalidRequest, message, err.Error())
		return
	}
	if len(bytes.TrimSpace(body)) == 0 {
		writeError(w, http.StatusBadRequest, nil, codeInvalidRequest, "request body required", nil)
		return
	}

	req := &RPCRequest{}
	if err := json.Unmarshal(body, req); err != nil {
		writeError(w, http.StatusBadRequest, nil, codeParseError, "invalid JSON payload", err.Error())
		return
	}
	if req.JSONRPC != "" && req.JSONRPC != jsonRPCVersion {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidRequest, "unsupported jsonrpc version", req.JSONRPC)
		return
	}
	if req.Method == "" {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidRequest, "method required", nil)
		return
	}

	switch req.Method {
	case "cats_mint":
		s.mutating(w, r, req, s.handleMint)
	case "cats_runMission":
		s.mutating(w, r, req, s.handleRunMission)
	case "cats_claimReward":
		s.mutating(w, r, req, s.handleClaimReward)
	case "cats_teleport":
		s.mutating(w, r, req, s.handleTeleport)
	case "cats_transfer":
		s.mutating(w, r, req, s.handleTransfer)
	case "cats_setClanFeed":
		s.mutating(w, r, req, s.handleSetClanFeed)
	case "cats_getCat":
		s.handleGetCat(w, r, req)
	case "cats_getOracleImprint":
		s.handleGetOracleImprint(w, r, req)
	case "cats_getGameState":
		s.handleGetGameState(w, r, req)
	case "cats_getTeleportState":
		s.handleGetTeleportState(w, r, req)
	case "cats_getRemainingCooldown":
		s.handleGetRemainingCooldown(w, r, req)
	case "cats_listByOwner":
		s.handleListByOwner(w, r, req)
	case "cats_teleportConfig":
		s.handleTeleportConfig(w, r, req)
	case "cats_jackpotConfig":
		s.handleJackpotConfig(w, r, req)
	case "cats_jackpotBalance":
		s.handleJackpotBalance(w, r, req)
	case "cats_getJackpotState":
		s.handleGetJackpotState(w, r, req)
	case "cats_getClanFeed":
		s.handleGetClanFeed(w, r, req)
	case "cats_churrBalance":
		s.handleChurrBalance(w, r, req)
	case "registry_addAsset":
		s.mutating(w, r, req, s.handleRegistryAddAsset)
	case "registry_updateAsset":
		s.mutating(w, r, req, s.handleRegistryUpdateAsset)
	case "registry_setAssetEnabled":
		s.mutating(w, r, req, s.handleRegistrySetAssetEnabled)
	case "registry_getAsset":
		s.handleRegistryGetAsset(w, r, req)
	case "registry_getAllAssetIds":
		s.handleRegistryGetAllAssetIDs(w, r, req)
	default:
		writeError(w, http.StatusNotFound, req.ID, codeMethodNotFound, fmt.Sprintf("method %q not found", req.Method), nil)
	}
}

type handlerFunc func(w http.ResponseWriter, r *http.Request, req *RPCRequest)

// mutating gates a handler behind bearer auth and the per-client limiter.
func (s *Server) mutating(w http.ResponseWriter, r *http.Request, req *RPCRequest, next handlerFunc) {
	if authErr := s.requireAuth(r); authErr != nil {
		writeError(w, http.StatusUnauthorized, req.ID, authErr.Code, authErr.Message, authErr.Data)
		return
	}
	if !s.allowSource(clientSource(r), time.Now()) {
		writeError(w, http.StatusTooManyRequests, req.ID, codeRateLimited, "rate limit exceeded", nil)
		return
	}
	next(w, r, req)
}

func (s *Server) requireAuth(r *http.Request) *RPCError {
	if s.authToken == "" {
		return &RPCError{Code: codeUnauthorized, Message: "RPC authentication token not configured"}
	}
	header := r.Header.Get("Authorization")
	if header == "" {
		return &RPCError{Code: codeUnauthorized, Message: "missing Authorization header"}
	}
	if !strings.HasPrefix(header, "Bearer ") {
		return &RPCError{Code: codeUnauthorized, Message: "Authorization header must use Bearer scheme"}
	}
	token := strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
	if token == "" {
		return &RPCError{Code: codeUnauthorized, Message: "missing bearer token"}
	}
	if subtle.ConstantTimeCompare([]byte(token), []byte(s.authToken)) != 1 {
		return &RPCError{Code: codeUnauthorized, Message: "invalid RPC credentials"}
	}
	return nil
}

func clientSource(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

func (s *Server) allowSource(source string, now time.Time) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	entry, ok := s.limiters[source]
	if !ok {
		entry = &clientLimiter{limiter: rate.NewLimiter(rate.Limit(mutationsPerSecond), mutationBurst)}
		s.limiters[source] = entry
	}
	entry.lastSeen = now
	for key, stale := range s.limiters {
		if key != source && now.Sub(stale.lastSeen) > limiterIdleTTL {
			delete(s.limiters, key)
		}
	}
	return entry.limiter.Allow()
}
