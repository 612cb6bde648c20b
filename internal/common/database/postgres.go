// internal/common/database/postgres.go
package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"card-decision-workers/internal/common/config"

	_ "github.com/lib/pq"
)

// applicantSchema is the read model the fetch-applicant-record worker queries.
const applicantSchema = `
CREATE TABLE IF NOT EXISTS applicants (
    application_id          TEXT PRIMARY KEY,
    full_name               TEXT NOT NULL DEFAULT '',
    cnic                    TEXT NOT NULL DEFAULT '',
    date_of_birth           DATE,
    age                     INTEGER NOT NULL DEFAULT 0,
    employment_type         TEXT NOT NULL DEFAULT '',
    occupation              TEXT NOT NULL DEFAULT '',
    is_retired              BOOLEAN NOT NULL DEFAULT FALSE,
    net_monthly_income      NUMERIC(14,2) NOT NULL DEFAULT 0,
    gross_monthly_income    NUMERIC(14,2) NOT NULL DEFAULT 0,
    monthly_deductions      NUMERIC(14,2) NOT NULL DEFAULT 0,
    employment_tenure_years NUMERIC(5,2) NOT NULL DEFAULT 0,
    is_existing_customer    BOOLEAN NOT NULL DEFAULT FALSE,
    salary_transfer_flag    TEXT NOT NULL DEFAULT 'non_salary_transfer',
    current_address         JSONB NOT NULL DEFAULT '{}',
    office_address          JSONB NOT NULL DEFAULT '{}',
    cluster                 TEXT NOT NULL DEFAULT '',
    blacklisted             TEXT NOT NULL DEFAULT 'false',
    credit_card_30k_list    TEXT NOT NULL DEFAULT 'false',
    negative_list           TEXT NOT NULL DEFAULT 'false',
    eamvu_submitted         TEXT NOT NULL DEFAULT 'false',
    updated_at              TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS applicant_obligations (
    application_id         TEXT PRIMARY KEY REFERENCES applicants(application_id),
    existing_emis          NUMERIC(14,2) NOT NULL DEFAULT 0,
    credit_card_limit      NUMERIC(14,2) NOT NULL DEFAULT 0,
    outstanding_balance    NUMERIC(14,2) NOT NULL DEFAULT 0,
    proposed_loan_amount   NUMERIC(14,2) NOT NULL DEFAULT 0,
    proposed_tenure_months INTEGER NOT NULL DEFAULT 0,
    annual_interest_rate   NUMERIC(6,3) NOT NULL DEFAULT 0
);`

type PostgresClient struct {
	DB *sql.DB
}

func NewPostgres(cfg config.PostgresConfig) (*PostgresClient, error) {
	db, err := sql.Open("postgres", cfg.GetDSN())
	if err != nil {
		return nil, fmt.Errorf("failed to open postgres: %w", err)
	}

	db.SetMaxOpenConns(cfg.MaxConnections)
	db.SetMaxIdleConns(cfg.MaxIdle)
	db.SetConnMaxLifetime(5 * time.Minute)
	db.SetConnMaxIdleTime(5 * time.Minute)

	return &PostgresClient{DB: db}, nil
}

func (c *PostgresClient) Ping(ctx context.Context) error {
	return c.DB.PingContext(ctx)
}

// EnsureSchema creates the applicant tables when they do not exist yet.
func (c *PostgresClient) EnsureSchema(ctx context.Context) error {
	if _, err := c.DB.ExecContext(ctx, applicantSchema); err != nil {
		return fmt.Errorf("failed to create applicant schema: %w", err)
	}
	return nil
}

func (c *PostgresClient) Close() error {
	if c.DB == nil {
		return nil
	}
	return c.DB.Close()
}
