// Package receipts is the default receipt-ledger collaborator: it mints one
// immutable audit row per ledger transaction, inside the transaction that
// produced it, so a rolled-back operation leaves no receipt behind.
package receipts

import (
	"context"
	"fmt"

	"github.com/earnlift/ledger/internal/ledger/db"
	"github.com/earnlift/ledger/internal/ledger/models"
	"github.com/google/uuid"
)

type Ledger struct{}

func NewLedger() *Ledger {
	return &Ledger{}
}

// Record mints a receipt through the transactional repository of the
// in-flight operation.
func (l *Ledger) Record(ctx context.Context, tx *db.Repository, to models.Identity, kind models.TransactionKind, amount int64, externalRef string) (uuid.UUID, error) {
	receipt := &models.Receipt{
		ID:          uuid.New(),
		To:          to,
		Kind:        kind,
		Amount:      amount,
		ExternalRef: externalRef,
	}
	if err := tx.CreateReceipt(ctx, receipt); err != nil {
		return uuid.Nil, fmt.Errorf("failed to record receipt: %w", err)
	}
	return receipt.ID, nil
}
