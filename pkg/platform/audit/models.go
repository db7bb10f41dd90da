package audit

import (
	"context"
	"time"
)

// Event is emitted from domain logic to capture key actions. Keep it
// transport-agnostic so stores and sinks can fan out.
type Event struct {
	Timestamp      time.Time
	UserID         string
	RegistrationID string
	Action         Action
	Subject        string
	Detail         string
	RequestID      string
}

// Action identifies what happened. Stable strings; consumers key on them.
type Action string

const (
	ActionRecordAdded       Action = "record_added"
	ActionRecordRemoved     Action = "record_removed"
	ActionRoleChanged       Action = "role_changed"
	ActionSecretaryClaimed  Action = "secretary_claimed"
	ActionSecretaryRejected Action = "secretary_rejected"
	ActionSecretaryReleased Action = "secretary_released"
	ActionPaymentVerified   Action = "payment_verified"
	ActionAmountMismatch    Action = "amount_mismatch"
	ActionCreditsApplied    Action = "credits_applied"
	ActionCreditsDebited    Action = "credits_debited"
	ActionDocumentExported  Action = "document_exported"
	ActionUserCreated       Action = "user_created"
	ActionSessionCreated    Action = "session_created"
)

// Store persists audit events append-only.
type Store interface {
	Append(ctx context.Context, event Event) error
	ListByUser(ctx context.Context, userID string) ([]Event, error)
}
