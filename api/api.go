package api

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strconv"
	"time"

	ledgererrors "github.com/mezonai/simplechain/errors"
	"github.com/mezonai/simplechain/jsonx"
	"github.com/mezonai/simplechain/ledger"
	"github.com/mezonai/simplechain/logx"
	"github.com/mezonai/simplechain/monitoring"
	"github.com/mezonai/simplechain/ratelimit"
)

const maxBodyBytes = 1 << 20

type AddBlockReq struct {
	Body string `json:"body"`
}

type HeightResp struct {
	Height uint64 `json:"height"`
}

type BlockValidationResp struct {
	Height uint64 `json:"height"`
	Valid  bool   `json:"valid"`
}

type ChainValidationResp struct {
	Invalid []uint64 `json:"invalid"`
	Intact  bool     `json:"intact"`
}

type APIServer struct {
	Ledger     *ledger.Ledger
	ListenAddr string
	// nil means appends are not rate limited
	WriteLimiter *ratelimit.WriteLimiter
	server       *http.Server
}

func NewAPIServer(ld *ledger.Ledger, addr string) *APIServer {
	s := &APIServer{
		Ledger:     ld,
		ListenAddr: addr,
	}
	s.server = &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

// Handler returns the routing table; exposed so tests can drive it without a listener
func (s *APIServer) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /height", s.handleHeight)
	mux.HandleFunc("GET /blocks/{height}", s.handleGetBlock)
	mux.HandleFunc("POST /blocks", s.handleAddBlock)
	mux.HandleFunc("GET /blocks/{height}/validate", s.handleValidateBlock)
	mux.HandleFunc("GET /validate", s.handleValidateChain)
	monitoring.RegisterMetrics(mux)
	return mux
}

// Start blocks until the server stops. It returns nil after Shutdown.
func (s *APIServer) Start() error {
	logx.Info("API", "API listen on ", s.ListenAddr)
	if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logx.Error("API", "Server stopped: ", err)
		return err
	}
	return nil
}

func (s *APIServer) Shutdown(ctx context.Context) error {
	s.WriteLimiter.Stop()
	return s.server.Shutdown(ctx)
}

func (s *APIServer) handleHeight(w http.ResponseWriter, r *http.Request) {
	height, err := s.Ledger.GetBlockHeight()
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, HeightResp{Height: height})
}

func (s *APIServer) handleGetBlock(w http.ResponseWriter, r *http.Request) {
	height, ok := parseHeight(w, r)
	if !ok {
		return
	}
	blk, err := s.Ledger.GetBlock(height)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, blk)
}

func (s *APIServer) handleAddBlock(w http.ResponseWriter, r *http.Request) {
	defer r.Body.Close()
	clientIP := clientIPOf(r)
	if !s.WriteLimiter.AllowWrite(clientIP) {
		logx.Warn("API", fmt.Sprintf("Write rate limit exceeded for IP %s", clientIP))
		writeError(w, ledgererrors.NewError(ledgererrors.ErrCodeRateLimited, ledgererrors.ErrMsgRateLimited))
		return
	}
	raw, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		writeError(w, ledgererrors.NewError(ledgererrors.ErrCodeInvalidRequest, ledgererrors.ErrMsgInvalidRequest))
		return
	}

	// JSON {"body": "..."} is preferred; anything else is taken as the raw payload
	var req AddBlockReq
	if err := jsonx.Unmarshal(raw, &req); err != nil {
		req.Body = string(raw)
	}
	if req.Body == "" {
		writeError(w, ledgererrors.NewError(ledgererrors.ErrCodeInvalidRequest, ledgererrors.ErrMsgEmptyBody))
		return
	}

	blk, err := s.Ledger.AddBlock(req.Body)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, blk)
}

func (s *APIServer) handleValidateBlock(w http.ResponseWriter, r *http.Request) {
	height, ok := parseHeight(w, r)
	if !ok {
		return
	}
	valid, err := s.Ledger.ValidateBlock(height)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, BlockValidationResp{Height: height, Valid: valid})
}

func (s *APIServer) handleValidateChain(w http.ResponseWriter, r *http.Request) {
	invalid, err := s.Ledger.ValidateChain()
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, ChainValidationResp{Invalid: invalid, Intact: len(invalid) == 0})
}

func clientIPOf(r *http.Request) string {
	if ip, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return ip
	}
	return r.RemoteAddr
}

func parseHeight(w http.ResponseWriter, r *http.Request) (uint64, bool) {
	height, err := strconv.ParseUint(r.PathValue("height"), 10, 64)
	if err != nil {
		writeError(w, ledgererrors.NewError(ledgererrors.ErrCodeInvalidRequest, ledgererrors.ErrMsgInvalidHeight))
		return 0, false
	}
	return height, true
}

func statusFor(code ledgererrors.LedgerErrorCode) int {
	switch code {
	case ledgererrors.ErrCodeInvalidRequest:
		return http.StatusBadRequest
	case ledgererrors.ErrCodeNotFound:
		return http.StatusNotFound
	case ledgererrors.ErrCodeEmptyChain:
		return http.StatusConflict
	case ledgererrors.ErrCodeRateLimited:
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}

// writeError renders err as {"code","message"}. Internal details of store
// failures stay in the log.
func writeError(w http.ResponseWriter, err error) {
	resp := ledgererrors.LedgerError{Code: ledgererrors.ErrCodeInternal, Message: ledgererrors.ErrMsgInternal}
	var le *ledgererrors.LedgerError
	if errors.As(err, &le) {
		resp.Code = le.Code
		resp.Message = le.Message
	}
	status := statusFor(resp.Code)
	if status >= http.StatusInternalServerError {
		logx.Error("API", fmt.Sprintf("Request failed | code=%s | err=%v", resp.Code, err))
	}
	writeJSON(w, status, resp)
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := jsonx.NewEncoder(w).Encode(v); err != nil {
		logx.Warn("API", "Failed to write response: ", err)
	}
}
