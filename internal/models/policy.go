package models

import (
	"database/sql"
	"time"
)

type Policy struct {
	ID             string         `db:"id"`
	UserID         string         `db:"user_id"`
	ProductID      string         `db:"product_id"`
	PremiumAmount  float64        `db:"premium_amount"`
	Status         string         `db:"status"`
	DecisionReason sql.NullString `db:"decision_reason"`
	CoverStartDate sql.NullTime   `db:"cover_start_date"`
	CreatedAt      time.Time      `db:"created_at"`
}

const (
	PolicyStatusPendingUnderwriting = "pending_underwriting"
	PolicyStatusPendingActivation   = "pending_activation"
	PolicyStatusActive              = "active"
	PolicyStatusDeclined            = "declined"
	PolicyStatusCancelled           = "cancelled"
)

type ReferralCode struct {
	ID        string    `db:"id"`
	Code      string    `db:"code"`
	AgentName string    `db:"agent_name"`
	Active    bool      `db:"active"`
	CreatedAt time.Time `db:"created_at"`
}
