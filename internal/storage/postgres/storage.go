package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	domainErrors "github.com/finovel/loanledger/internal/domain/errors"
	"github.com/finovel/loanledger/internal/domain/model"
	"github.com/finovel/loanledger/internal/domain/repository"
)

// dbPool abstracts the pgx pool surface used by the repositories, so tests
// can substitute a mock pool.
type dbPool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Ping(ctx context.Context) error
	Close()
}

// Storage acts as repository facade backed by PostgreSQL.
type Storage struct {
	pool   dbPool
	logger *slog.Logger
}

var _ repository.Factory = (*Storage)(nil)

type userRepository struct {
	storage *Storage
}

type loanRepository struct {
	storage *Storage
}

type treasuryRepository struct {
	storage *Storage
}

type eventRepository struct {
	storage *Storage
}

// New creates storage with schema initialization.
func New(ctx context.Context, dsn string, logger *slog.Logger) (*Storage, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse dsn: %w", err)
	}

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("connect db: %w", err)
	}

	storage := &Storage{pool: pool, logger: logger}
	if err := storage.initSchema(ctx); err != nil {
		pool.Close()
		return nil, err
	}

	return storage, nil
}

// Close releases database resources.
func (s *Storage) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}

// Factory methods for domain repositories.
func (s *Storage) Users() repository.UserRepository {
	return &userRepository{storage: s}
}

func (s *Storage) Loans() repository.LoanRepository {
	return &loanRepository{storage: s}
}

func (s *Storage) Treasury() repository.TreasuryRepository {
	return &treasuryRepository{storage: s}
}

func (s *Storage) Events() repository.EventRepository {
	return &eventRepository{storage: s}
}

func (s *Storage) initSchema(ctx context.Context) error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS users (
            address TEXT PRIMARY KEY,
            credit_score INT NOT NULL,
            referral_count INT NOT NULL DEFAULT 0,
            xp INT NOT NULL DEFAULT 0,
            verified_methods TEXT[] NOT NULL DEFAULT '{}',
            sbt_token_ref TEXT,
            created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
            updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
        )`,
		`CREATE SEQUENCE IF NOT EXISTS loan_ids START 1`,
		`CREATE TABLE IF NOT EXISTS loans (
            id BIGINT PRIMARY KEY,
            borrower TEXT NOT NULL REFERENCES users(address),
            amount BIGINT NOT NULL,
            interest_rate_bps INT NOT NULL DEFAULT 0,
            status TEXT NOT NULL,
            repaid_amount BIGINT NOT NULL DEFAULT 0,
            issued_at TIMESTAMPTZ,
            due_at TIMESTAMPTZ,
            repaid_at TIMESTAMPTZ,
            duration_days INT NOT NULL,
            settlement_tx_hash TEXT,
            created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
            updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
        )`,
		`CREATE TABLE IF NOT EXISTS treasury (
            id SMALLINT PRIMARY KEY CHECK (id = 1),
            total_liquidity BIGINT NOT NULL DEFAULT 0,
            total_deposits BIGINT NOT NULL DEFAULT 0,
            total_withdrawals BIGINT NOT NULL DEFAULT 0,
            total_repayments BIGINT NOT NULL DEFAULT 0,
            updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
        )`,
		`CREATE TABLE IF NOT EXISTS events (
            id UUID PRIMARY KEY,
            kind TEXT NOT NULL,
            subject TEXT NOT NULL,
            tx_hash TEXT NOT NULL DEFAULT '',
            block_number BIGINT NOT NULL DEFAULT 0,
            payload JSONB,
            created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
        )`,
		`INSERT INTO treasury (id) VALUES (1) ON CONFLICT (id) DO NOTHING`,
		`CREATE INDEX IF NOT EXISTS idx_loans_borrower ON loans(borrower, id)`,
		`CREATE INDEX IF NOT EXISTS idx_loans_partial ON loans(id) WHERE status = 'REQUESTED' AND settlement_tx_hash IS NOT NULL`,
		`CREATE INDEX IF NOT EXISTS idx_events_subject ON events(subject, created_at DESC)`,
	}

	for _, stmt := range statements {
		if _, err := s.pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("init schema: %w", err)
		}
	}

	return nil
}

// --- UserRepository implementation ---

func (r *userRepository) Create(ctx context.Context, address string) (*model.User, error) {
	const query = `INSERT INTO users (address, credit_score) VALUES ($1, $2) RETURNING created_at, updated_at`
	u := model.User{Address: address, CreditScore: model.DefaultCreditScore}
	err := r.storage.pool.QueryRow(ctx, query, address, model.DefaultCreditScore).Scan(&u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return nil, domainErrors.ErrAlreadyExists
		}
		return nil, err
	}
	return &u, nil
}

func (r *userRepository) GetByAddress(ctx context.Context, address string) (*model.User, error) {
	const query = `SELECT address, credit_score, referral_count, xp, verified_methods, sbt_token_ref, created_at, updated_at
                   FROM users WHERE address=$1`
	var u model.User
	err := r.storage.pool.QueryRow(ctx, query, address).Scan(
		&u.Address, &u.CreditScore, &u.ReferralCount, &u.XP, &u.VerifiedMethods, &u.SBTTokenRef, &u.CreatedAt, &u.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domainErrors.ErrNotFound
		}
		return nil, err
	}
	return &u, nil
}

func (r *userRepository) Save(ctx context.Context, user *model.User) error {
	const query = `UPDATE users
                   SET credit_score=$2, referral_count=$3, xp=$4, verified_methods=$5, sbt_token_ref=$6, updated_at=NOW()
                   WHERE address=$1`
	tag, err := r.storage.pool.Exec(ctx, query,
		user.Address, user.CreditScore, user.ReferralCount, user.XP, user.VerifiedMethods, user.SBTTokenRef,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domainErrors.ErrNotFound
	}
	return nil
}

// --- LoanRepository implementation ---

func (r *loanRepository) NextID(ctx context.Context) (int64, error) {
	const query = `SELECT nextval('loan_ids')`
	var id int64
	if err := r.storage.pool.QueryRow(ctx, query).Scan(&id); err != nil {
		return 0, err
	}
	return id, nil
}

func (r *loanRepository) Create(ctx context.Context, loan *model.Loan) error {
	const query = `INSERT INTO loans (id, borrower, amount, interest_rate_bps, status, repaid_amount, duration_days, settlement_tx_hash)
                   VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
                   RETURNING created_at, updated_at`
	err := r.storage.pool.QueryRow(ctx, query,
		loan.ID, loan.Borrower, loan.Amount, loan.InterestRateBps, loan.Status, loan.RepaidAmount, loan.DurationDays, loan.SettlementTxHash,
	).Scan(&loan.CreatedAt, &loan.UpdatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return domainErrors.ErrAlreadyExists
		}
		return err
	}
	return nil
}

const loanColumns = `id, borrower, amount, interest_rate_bps, status, repaid_amount, issued_at, due_at, repaid_at, duration_days, settlement_tx_hash, created_at, updated_at`

func scanLoan(row pgx.Row) (*model.Loan, error) {
	var l model.Loan
	err := row.Scan(
		&l.ID, &l.Borrower, &l.Amount, &l.InterestRateBps, &l.Status, &l.RepaidAmount,
		&l.IssuedAt, &l.DueAt, &l.RepaidAt, &l.DurationDays, &l.SettlementTxHash, &l.CreatedAt, &l.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &l, nil
}

func (r *loanRepository) GetByID(ctx context.Context, loanID int64) (*model.Loan, error) {
	query := `SELECT ` + loanColumns + ` FROM loans WHERE id=$1`
	loan, err := scanLoan(r.storage.pool.QueryRow(ctx, query, loanID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domainErrors.ErrNotFound
		}
		return nil, err
	}
	return loan, nil
}

func (r *loanRepository) ListByBorrower(ctx context.Context, address string) ([]model.Loan, error) {
	query := `SELECT ` + loanColumns + ` FROM loans WHERE borrower=$1 ORDER BY id`
	return r.queryLoans(ctx, query, address)
}

func (r *loanRepository) ListPartialSettlements(ctx context.Context, limit int) ([]model.Loan, error) {
	query := `SELECT ` + loanColumns + ` FROM loans
              WHERE status='REQUESTED' AND settlement_tx_hash IS NOT NULL
              ORDER BY id LIMIT $1`
	return r.queryLoans(ctx, query, limit)
}

func (r *loanRepository) queryLoans(ctx context.Context, query string, args ...any) ([]model.Loan, error) {
	rows, err := r.storage.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []model.Loan
	for rows.Next() {
		loan, err := scanLoan(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *loan)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func (r *loanRepository) CountActiveByBorrower(ctx context.Context, address string) (int, error) {
	const query = `SELECT COUNT(*) FROM loans WHERE borrower=$1 AND status IN ('APPROVED', 'DISBURSED')`
	var count int
	if err := r.storage.pool.QueryRow(ctx, query, address).Scan(&count); err != nil {
		return 0, err
	}
	return count, nil
}

func (r *loanRepository) OutstandingPrincipal(ctx context.Context) (int64, error) {
	const query = `SELECT COALESCE(SUM(amount), 0) FROM loans WHERE status='DISBURSED'`
	var total int64
	if err := r.storage.pool.QueryRow(ctx, query).Scan(&total); err != nil {
		return 0, err
	}
	return total, nil
}

func (r *loanRepository) Save(ctx context.Context, loan *model.Loan) error {
	const query = `UPDATE loans
                   SET amount=$2, interest_rate_bps=$3, status=$4, repaid_amount=$5,
                       issued_at=$6, due_at=$7, repaid_at=$8, settlement_tx_hash=$9, updated_at=NOW()
                   WHERE id=$1`
	tag, err := r.storage.pool.Exec(ctx, query,
		loan.ID, loan.Amount, loan.InterestRateBps, loan.Status, loan.RepaidAmount,
		loan.IssuedAt, loan.DueAt, loan.RepaidAt, loan.SettlementTxHash,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domainErrors.ErrNotFound
	}
	return nil
}

// --- TreasuryRepository implementation ---

func (r *treasuryRepository) Get(ctx context.Context) (*model.Treasury, error) {
	const query = `SELECT total_liquidity, total_deposits, total_withdrawals, total_repayments, updated_at
                   FROM treasury WHERE id=1`
	var t model.Treasury
	err := r.storage.pool.QueryRow(ctx, query).Scan(
		&t.TotalLiquidity, &t.TotalDeposits, &t.TotalWithdrawals, &t.TotalRepayments, &t.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return &model.Treasury{}, nil
		}
		return nil, err
	}
	return &t, nil
}

func (r *treasuryRepository) Save(ctx context.Context, treasury *model.Treasury) error {
	const query = `INSERT INTO treasury (id, total_liquidity, total_deposits, total_withdrawals, total_repayments, updated_at)
                   VALUES (1, $1, $2, $3, $4, NOW())
                   ON CONFLICT (id) DO UPDATE
                   SET total_liquidity=EXCLUDED.total_liquidity,
                       total_deposits=EXCLUDED.total_deposits,
                       total_withdrawals=EXCLUDED.total_withdrawals,
                       total_repayments=EXCLUDED.total_repayments,
                       updated_at=NOW()`
	_, err := r.storage.pool.Exec(ctx, query,
		treasury.TotalLiquidity, treasury.TotalDeposits, treasury.TotalWithdrawals, treasury.TotalRepayments,
	)
	return err
}

// --- EventRepository implementation ---

func (r *eventRepository) Append(ctx context.Context, event *model.Event) error {
	payload, err := json.Marshal(event.Payload)
	if err != nil {
		return fmt.Errorf("encode payload: %w", err)
	}
	const query = `INSERT INTO events (id, kind, subject, tx_hash, block_number, payload)
                   VALUES ($1, $2, $3, $4, $5, $6)
                   RETURNING created_at`
	return r.storage.pool.QueryRow(ctx, query,
		event.ID, event.Kind, event.Subject, event.TxHash, event.BlockNumber, payload,
	).Scan(&event.CreatedAt)
}

func (r *eventRepository) ListBySubject(ctx context.Context, address string, limit int) ([]model.Event, error) {
	const query = `SELECT id, kind, subject, tx_hash, block_number, payload, created_at
                   FROM events WHERE subject=$1 ORDER BY created_at DESC LIMIT $2`
	rows, err := r.storage.pool.Query(ctx, query, address, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []model.Event
	for rows.Next() {
		var e model.Event
		var payload []byte
		if err := rows.Scan(&e.ID, &e.Kind, &e.Subject, &e.TxHash, &e.BlockNumber, &payload, &e.CreatedAt); err != nil {
			return nil, err
		}
		if len(payload) > 0 {
			if err := json.Unmarshal(payload, &e.Payload); err != nil {
				return nil, fmt.Errorf("decode payload: %w", err)
			}
		}
		result = append(result, e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

// HealthCheck verifies database connectivity.
func (s *Storage) HealthCheck(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	return s.pool.Ping(ctx)
}

// Logger returns storage logger.
func (s *Storage) Logger() *slog.Logger {
	return s.logger
}
