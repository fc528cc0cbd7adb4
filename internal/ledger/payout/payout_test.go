package payout

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	e "github.com/earnlift/ledger/internal/ledger/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func TestPaySendsRequest(t *testing.T) {
	var got Request
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	gateway := NewHTTPGateway(server.URL, zaptest.NewLogger(t))
	err := gateway.Pay(context.Background(), Request{
		To:                   "alice",
		Amount:               891,
		SettlementPreference: "usdc",
		MinAcceptableOutput:  850,
	})
	require.NoError(t, err)
	assert.Equal(t, "alice", string(got.To))
	assert.Equal(t, int64(891), got.Amount)
	assert.Equal(t, "usdc", got.SettlementPreference)
}

func TestPayRetriesServerErrors(t *testing.T) {
	var calls atomic.Int64
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	gateway := NewHTTPGateway(server.URL, zaptest.NewLogger(t))
	err := gateway.Pay(context.Background(), Request{To: "alice", Amount: 100})
	require.NoError(t, err)
	assert.Equal(t, int64(3), calls.Load())
}

func TestPayUnsupportedTokenIsPermanent(t *testing.T) {
	var calls atomic.Int64
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusUnprocessableEntity)
	}))
	defer server.Close()

	gateway := NewHTTPGateway(server.URL, zaptest.NewLogger(t))
	err := gateway.Pay(context.Background(), Request{To: "alice", Amount: 100, SettlementPreference: "obscure"})
	assert.ErrorIs(t, err, e.ErrTokenNotSupported)
	assert.Equal(t, int64(1), calls.Load(), "no retry on a permanent rejection")
}

func TestPayForbiddenIsPermanent(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer server.Close()

	gateway := NewHTTPGateway(server.URL, zaptest.NewLogger(t))
	err := gateway.Pay(context.Background(), Request{To: "alice", Amount: 100})
	assert.ErrorIs(t, err, e.ErrTransferNotAllowed)
}

func TestPayExhaustsRetries(t *testing.T) {
	var calls atomic.Int64
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	gateway := NewHTTPGateway(server.URL, zaptest.NewLogger(t))
	err := gateway.Pay(context.Background(), Request{To: "alice", Amount: 100})
	require.Error(t, err)
	assert.Equal(t, int64(4), calls.Load(), "initial attempt plus three retries")
}
