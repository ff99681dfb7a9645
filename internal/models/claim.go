package models

import (
	"database/sql"
	"time"
)

type Claim struct {
	ID              string         `db:"id"`
	PolicyID        string         `db:"policy_id"`
	UserID          string         `db:"user_id"`
	BeneficiaryName string         `db:"beneficiary_name"`
	Details         string         `db:"details"`
	Status          string         `db:"status"`
	CancelReason    sql.NullString `db:"cancel_reason"`
	CreatedAt       time.Time      `db:"created_at"`
	UpdatedAt       time.Time      `db:"updated_at"`
}

const (
	ClaimStatusSubmitted   = "submitted"
	ClaimStatusUnderReview = "under_review"
	ClaimStatusApproved    = "approved"
	ClaimStatusPaid        = "paid"
	ClaimStatusRejected    = "rejected"
	ClaimStatusCancelled   = "cancelled"
)
