// Package payout defines the settlement boundary of the ledger. The core
// never moves value itself: it finalizes all ledger state and then hands a
// Request to a Gateway, which owns transfers, token swaps and settlement
// preferences. A Gateway error aborts (and rolls back) the whole operation.
package payout

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v4"
	e "github.com/earnlift/ledger/internal/ledger/errors"
	"github.com/earnlift/ledger/internal/ledger/models"
	"go.uber.org/zap"
)

// Request describes one settlement. MinAcceptableOutput and Deadline are
// opaque to the ledger; they exist so a value-conversion step downstream can
// fail safely instead of settling at a stale rate.
type Request struct {
	To                   models.Identity `json:"to"`
	Amount               int64           `json:"amount"`
	SettlementPreference string          `json:"settlement_preference,omitempty"`
	MinAcceptableOutput  int64           `json:"min_acceptable_output,omitempty"`
	Deadline             time.Time       `json:"deadline,omitempty"`
}

// Gateway moves value to a recipient.
type Gateway interface {
	Pay(ctx context.Context, req Request) error
}

// HTTPGateway settles through an external settlement service. Transient
// failures are retried with exponential backoff; the request deadline bounds
// the whole attempt.
type HTTPGateway struct {
	endpoint string
	client   *http.Client
	logger   *zap.Logger
	maxTries uint64
}

func NewHTTPGateway(endpoint string, logger *zap.Logger) *HTTPGateway {
	return &HTTPGateway{
		endpoint: endpoint,
		client:   &http.Client{Timeout: 10 * time.Second},
		logger:   logger.Named("payout_gateway"),
		maxTries: 3,
	}
}

func (g *HTTPGateway) Pay(ctx context.Context, req Request) error {
	if !req.Deadline.IsZero() {
		var cancel context.CancelFunc
		ctx, cancel = context.WithDeadline(ctx, req.Deadline)
		defer cancel()
	}

	body, err := json.Marshal(req)
	if err != nil {
		return fmt.Errorf("failed to encode payout request: %w", err)
	}

	operation := func() error {
		return g.send(ctx, body)
	}
	policy := backoff.WithContext(backoff.WithMaxRetries(backoff.NewExponentialBackOff(), g.maxTries), ctx)
	if err := backoff.Retry(operation, policy); err != nil {
		g.logger.Error("Payout failed",
			zap.Error(err),
			zap.String("to", string(req.To)),
			zap.Int64("amount", req.Amount),
		)
		return err
	}
	return nil
}

func (g *HTTPGateway) send(ctx context.Context, body []byte) error {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, g.endpoint, bytes.NewReader(body))
	if err != nil {
		return backoff.Permanent(err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := g.client.Do(httpReq)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode < 300:
		return nil
	case resp.StatusCode == http.StatusUnprocessableEntity:
		// Settlement preference rejected; retrying cannot help.
		return backoff.Permanent(e.ErrTokenNotSupported)
	case resp.StatusCode == http.StatusForbidden:
		return backoff.Permanent(e.ErrTransferNotAllowed)
	case resp.StatusCode >= 500:
		return fmt.Errorf("settlement service unavailable: status %d", resp.StatusCode)
	default:
		return backoff.Permanent(fmt.Errorf("%w: status %d", e.ErrTransferNotAllowed, resp.StatusCode))
	}
}
