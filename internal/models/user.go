package models

import (
	"database/sql"
	"time"
)

type User struct {
	ID             string         `db:"id"`
	FirstName      string         `db:"first_name"`
	LastName       string         `db:"last_name"`
	PhoneNumber    string         `db:"phone_number"`
	Email          sql.NullString `db:"email"`
	IDNumber       sql.NullString `db:"id_number"`
	DateOfBirth    sql.NullString `db:"date_of_birth"`
	ReferralCode   sql.NullString `db:"referral_code"`
	ReferredBy     sql.NullString `db:"referred_by"`
	Status         string         `db:"status"`
	HashedPassword string         `db:"hashed_password"`
	CreatedAt      time.Time      `db:"created_at"`
	VerifiedAt     sql.NullTime   `db:"verified_at"`
	DeletedAt      sql.NullTime   `db:"deleted_at"`
}

const (
	UserAccountActiveStatus  = "active"
	UserAccountPendingStatus = "pending"
)
