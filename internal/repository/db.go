package repository

import (
	"context"
	"database/sql"
	"errors"
	"sync"
	"time"

	"github.com/zolani/khusela/assets"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/jmoiron/sqlx"

	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/lib/pq"
)

const defaultTimeout = 3 * time.Second

// Database exposes the per-entity repositories.
type Database interface {
	User() UserRepository
	Activity() ActivityRepository
	Product() ProductRepository
	Policy() PolicyRepository
	Claim() ClaimRepository
	Referral() ReferralRepository

	Close() error
	BeginTx(ctx context.Context, opts *sql.TxOptions) (*sqlx.Tx, error)
}

type DatabaseImpl struct {
	db           *sqlx.DB
	userRepo     UserRepository
	activityRepo ActivityRepository
	productRepo  ProductRepository
	policyRepo   PolicyRepository
	claimRepo    ClaimRepository
	referralRepo ReferralRepository

	mu sync.Mutex
}

// New initializes a database connection and runs migrations if enabled.
func New(dsn string, automigrate bool) (Database, error) {
	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()

	db, err := sqlx.ConnectContext(ctx, "postgres", "postgres://"+dsn)
	if err != nil {
		return nil, err
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(25)
	db.SetConnMaxIdleTime(5 * time.Minute)
	db.SetConnMaxLifetime(2 * time.Hour)

	if automigrate {
		iofsDriver, err := iofs.New(assets.EmbeddedFiles, "migrations")
		if err != nil {
			return nil, err
		}

		migrator, err := migrate.NewWithSourceInstance("iofs", iofsDriver, "postgres://"+dsn)
		if err != nil {
			return nil, err
		}

		if err := migrator.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
			return nil, err
		}
	}

	return &DatabaseImpl{db: db}, nil
}

func (d *DatabaseImpl) Close() error {
	return d.db.Close()
}

func (d *DatabaseImpl) BeginTx(ctx context.Context, opts *sql.TxOptions) (*sqlx.Tx, error) {
	return d.db.BeginTxx(ctx, opts)
}

func (d *DatabaseImpl) User() UserRepository {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.userRepo == nil {
		d.userRepo = NewUserRepository(d.db)
	}
	return d.userRepo
}

func (d *DatabaseImpl) Activity() ActivityRepository {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.activityRepo == nil {
		d.activityRepo = NewActivityRepository(d.db)
	}
	return d.activityRepo
}

func (d *DatabaseImpl) Product() ProductRepository {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.productRepo == nil {
		d.productRepo = NewProductRepository(d.db)
	}
	return d.productRepo
}

func (d *DatabaseImpl) Policy() PolicyRepository {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.policyRepo == nil {
		d.policyRepo = NewPolicyRepository(d.db)
	}
	return d.policyRepo
}

func (d *DatabaseImpl) Claim() ClaimRepository {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.claimRepo == nil {
		d.claimRepo = NewClaimRepository(d.db)
	}
	return d.claimRepo
}

func (d *DatabaseImpl) Referral() ReferralRepository {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.referralRepo == nil {
		d.referralRepo = NewReferralRepository(d.db)
	}
	return d.referralRepo
}
