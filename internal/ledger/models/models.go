// Package models defines the credit ledger types: one account per user with
// a credit balance and a submission usage count, plus an append-only
// transaction history.
package models

import (
	"time"

	"github.com/google/uuid"
)

// Account is a user's credit account. A user with no ledger activity has the
// zero account.
type Account struct {
	UserID        string    `json:"user_id"`
	CreditBalance float64   `json:"credit_balance"`
	UsageCount    int       `json:"usage_count"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// TransactionType is credit or debit.
type TransactionType string

const (
	TransactionCredit TransactionType = "credit"
	TransactionDebit  TransactionType = "debit"
)

// Transaction is one ledger entry. Reference and Provider are set on credits
// originating from a payment; debits carry the submission description.
type Transaction struct {
	ID          uuid.UUID       `json:"id"`
	UserID      string          `json:"user_id"`
	Type        TransactionType `json:"type"`
	Amount      float64         `json:"amount"`
	Description string          `json:"description"`
	Reference   string          `json:"reference,omitempty"`
	Provider    string          `json:"provider,omitempty"`
	CreatedAt   time.Time       `json:"created_at"`
}
