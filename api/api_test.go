package api

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/mezonai/simplechain/block"
	"github.com/mezonai/simplechain/db"
	ledgererrors "github.com/mezonai/simplechain/errors"
	"github.com/mezonai/simplechain/hasher"
	"github.com/mezonai/simplechain/jsonx"
	"github.com/mezonai/simplechain/ledger"
	"github.com/mezonai/simplechain/ratelimit"
	"github.com/mezonai/simplechain/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T, initialize bool) (*APIServer, store.BlockStore) {
	bs, err := store.NewGenericBlockStore(db.NewMemoryProvider())
	require.NoError(t, err)
	ld := ledger.NewLedger(bs, hasher.SHA256())
	if initialize {
		require.NoError(t, ld.Initialize())
	}
	return NewAPIServer(ld, "127.0.0.1:0"), bs
}

func do(t *testing.T, s *APIServer, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	return rec
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) ledgererrors.LedgerError {
	var le ledgererrors.LedgerError
	require.NoError(t, jsonx.Unmarshal(rec.Body.Bytes(), &le))
	return le
}

func TestHeight(t *testing.T) {
	s, _ := newTestServer(t, true)

	rec := do(t, s, http.MethodGet, "/height", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var resp HeightResp
	require.NoError(t, jsonx.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, uint64(0), resp.Height)
}

func TestHeightOnEmptyChain(t *testing.T) {
	s, _ := newTestServer(t, false)

	rec := do(t, s, http.MethodGet, "/height", "")
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, ledgererrors.ErrCodeEmptyChain, decodeError(t, rec).Code)
}

func TestAddAndGetBlock(t *testing.T) {
	s, _ := newTestServer(t, true)

	rec := do(t, s, http.MethodPost, "/blocks", `{"body":"hello"}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	var created block.Block
	require.NoError(t, jsonx.Unmarshal(rec.Body.Bytes(), &created))
	assert.Equal(t, uint64(1), created.Height)
	assert.Equal(t, "hello", created.Body)

	rec = do(t, s, http.MethodPost, "/blocks", "plain text payload")
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = do(t, s, http.MethodGet, "/blocks/2", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var fetched block.Block
	require.NoError(t, jsonx.Unmarshal(rec.Body.Bytes(), &fetched))
	assert.Equal(t, "plain text payload", fetched.Body)
	assert.Equal(t, created.Hash, fetched.PreviousBlockHash)
}

func TestAddBlockRejectsEmptyBody(t *testing.T) {
	s, _ := newTestServer(t, true)

	for _, body := range []string{"", `{"body":""}`} {
		rec := do(t, s, http.MethodPost, "/blocks", body)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		le := decodeError(t, rec)
		assert.Equal(t, ledgererrors.ErrCodeInvalidRequest, le.Code)
		assert.Equal(t, ledgererrors.ErrMsgEmptyBody, le.Message)
	}
}

func TestGetBlockErrors(t *testing.T) {
	s, _ := newTestServer(t, true)

	rec := do(t, s, http.MethodGet, "/blocks/7", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, ledgererrors.ErrCodeNotFound, decodeError(t, rec).Code)

	rec = do(t, s, http.MethodGet, "/blocks/-1", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, ledgererrors.ErrMsgInvalidHeight, decodeError(t, rec).Message)
}

func TestValidateEndpoints(t *testing.T) {
	s, bs := newTestServer(t, true)
	do(t, s, http.MethodPost, "/blocks", `{"body":"A"}`)
	do(t, s, http.MethodPost, "/blocks", `{"body":"B"}`)

	rec := do(t, s, http.MethodGet, "/validate", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var chain ChainValidationResp
	require.NoError(t, jsonx.Unmarshal(rec.Body.Bytes(), &chain))
	assert.True(t, chain.Intact)
	assert.Empty(t, chain.Invalid)

	data, err := bs.Get(1)
	require.NoError(t, err)
	tampered, err := block.Decode(data)
	require.NoError(t, err)
	tampered.Body = "forged"
	require.NoError(t, bs.Put(1, tampered.Canonical()))

	rec = do(t, s, http.MethodGet, "/blocks/1/validate", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var single BlockValidationResp
	require.NoError(t, jsonx.Unmarshal(rec.Body.Bytes(), &single))
	assert.Equal(t, uint64(1), single.Height)
	assert.False(t, single.Valid)

	rec = do(t, s, http.MethodGet, "/validate", "")
	require.NoError(t, jsonx.Unmarshal(rec.Body.Bytes(), &chain))
	assert.False(t, chain.Intact)
	assert.Equal(t, []uint64{1}, chain.Invalid)

	rec = do(t, s, http.MethodGet, "/blocks/9/validate", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestMethodNotAllowed(t *testing.T) {
	s, _ := newTestServer(t, true)

	rec := do(t, s, http.MethodDelete, "/blocks/1", "")
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestMetricsRoute(t *testing.T) {
	s, _ := newTestServer(t, true)

	rec := do(t, s, http.MethodGet, "/metrics", "")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestAddBlockRateLimited(t *testing.T) {
	s, _ := newTestServer(t, true)
	s.WriteLimiter = ratelimit.NewWriteLimiter(1, 0, time.Minute)
	defer s.WriteLimiter.Stop()

	rec := do(t, s, http.MethodPost, "/blocks", `{"body":"A"}`)
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = do(t, s, http.MethodPost, "/blocks", `{"body":"B"}`)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, ledgererrors.ErrCodeRateLimited, decodeError(t, rec).Code)

	height, err := s.Ledger.GetBlockHeight()
	require.NoError(t, err)
	assert.Equal(t, uint64(1), height)
}
