/*
ledger.go - Per-user ticket ledger

INVARIANTS:
  - Append-only: Book adds a ticket id entry, never rewrites existing ones
  - PaidOff is the only mutable field; it flips false -> true exactly once
  - A ticket lives in exactly one user's ledger

  MarkPaid writes back only the targeted ticket entry, conditional on the
  ledger version it read, so a concurrent Book for the same user cannot be
  overwritten by a stale copy of the ledger.
*/
package booking

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
)

// Ledger returns every ticket of a user. A user without tickets has an empty ledger.
func (e *Engine) Ledger(ctx context.Context, userID UserID) (UserLedger, error) {
	ledger, _, err := e.loadLedger(ctx, userID)
	return ledger, err
}

func (e *Engine) loadLedger(ctx context.Context, userID UserID) (UserLedger, Document, error) {
	doc, err := e.store.Get(ctx, LedgerCollection, string(userID))
	if err != nil {
		return nil, Document{}, fmt.Errorf("load ledger %s: %w", userID, err)
	}
	ledger := make(UserLedger, len(doc.Fields))
	for id, raw := range doc.Fields {
		var t Ticket
		if err := json.Unmarshal(raw, &t); err != nil {
			return nil, Document{}, fmt.Errorf("decode ticket %s: %w", id, err)
		}
		ledger[TicketID(id)] = t
	}
	return ledger, doc, nil
}

// MarkPaid flips paidOff on one of the user's tickets.
// Returns *TicketNotFoundError if the ticket is not in the user's ledger.
// Confirming an already paid ticket is a no-op.
func (e *Engine) MarkPaid(ctx context.Context, userID UserID, ticketID TicketID) error {
	for attempt := 1; ; attempt++ {
		err := e.tryMarkPaid(ctx, userID, ticketID)
		if err == nil || !IsRetryable(err) || attempt >= e.commitAttempts {
			return err
		}
		e.logger.Debug("ledger changed during payment confirmation, retrying",
			"user", userID, "ticket", ticketID, "attempt", attempt)
	}
}

func (e *Engine) tryMarkPaid(ctx context.Context, userID UserID, ticketID TicketID) error {
	ledger, doc, err := e.loadLedger(ctx, userID)
	if err != nil {
		return err
	}
	ticket, ok := ledger[ticketID]
	if !ok {
		return &TicketNotFoundError{UserID: userID, TicketID: ticketID}
	}
	if ticket.PaidOff {
		return nil
	}

	ticket.PaidOff = true
	raw, err := json.Marshal(ticket)
	if err != nil {
		return fmt.Errorf("encode ticket: %w", err)
	}
	err = e.store.Commit(ctx, Write{
		Collection:   LedgerCollection,
		Key:          string(userID),
		Fields:       map[string]json.RawMessage{string(ticketID): raw},
		MatchVersion: doc.Version,
	})
	if err != nil {
		if errors.Is(err, ErrConcurrentModification) {
			return err
		}
		return fmt.Errorf("commit payment %s: %w", ticketID, err)
	}
	e.logger.Info("ticket paid", "user", userID, "ticket", ticketID)
	return nil
}
