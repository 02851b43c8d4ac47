package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"painel/internal/core"

	_ "modernc.org/sqlite"
)

const driverName = "sqlite"

func init() {
	sqlx.BindDriver(driverName, sqlx.QUESTION)
}

var (
	companyColumns = "id, nome, ticker, link_ri, created_at, updated_at"
	recordColumns  string
	insertRecord   string
	updateRecord   string
)

func init() {
	names := make([]string, 0, len(core.Fields()))
	for _, f := range core.Fields() {
		names = append(names, string(f))
	}
	recordColumns = "id, company_id, year, quarter_number, quarter, " +
		strings.Join(names, ", ") + ", created_at, updated_at"

	params := make([]string, len(names))
	sets := make([]string, len(names))
	for i, n := range names {
		params[i] = ":" + n
		sets[i] = n + " = :" + n
	}
	insertRecord = "INSERT INTO financial_indicators (" + recordColumns + ") VALUES (" +
		":id, :company_id, :year, :quarter_number, :quarter, " +
		strings.Join(params, ", ") + ", :created_at, :updated_at)"
	updateRecord = "UPDATE financial_indicators SET year = :year, quarter_number = :quarter_number, quarter = :quarter, " +
		strings.Join(sets, ", ") + ", updated_at = :updated_at WHERE id = :id"
}

// SQLiteRepository persists companies and quarterly records.
type SQLiteRepository struct {
	db *sqlx.DB
}

// DSN returns the connection string for dbPath with the pragmas the
// repository relies on (cascading deletes need foreign_keys).
func DSN(dbPath string) string {
	return "file:" + dbPath +
		"?_pragma=foreign_keys(1)" +
		"&_pragma=busy_timeout(5000)" +
		"&_pragma=journal_mode(WAL)"
}

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	if err := RunMigrations(DSN(dbPath)); err != nil {
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	db, err := sqlx.Open(driverName, DSN(dbPath))
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	// A single writer avoids SQLITE_BUSY between pooled connections.
	db.SetMaxOpenConns(1)
	db.SetConnMaxIdleTime(5 * time.Minute)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	return &SQLiteRepository{db: db}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// Ping checks the database connection.
func (r *SQLiteRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

// ListCompanies returns every company ordered by name.
func (r *SQLiteRepository) ListCompanies(ctx context.Context) ([]core.Company, error) {
	var out []core.Company
	q := "SELECT " + companyColumns + " FROM companies ORDER BY nome, id"
	if err := r.db.SelectContext(ctx, &out, q); err != nil {
		return nil, fmt.Errorf("list companies: %w", err)
	}
	return out, nil
}

func (r *SQLiteRepository) GetCompany(ctx context.Context, id string) (core.Company, error) {
	var c core.Company
	q := "SELECT " + companyColumns + " FROM companies WHERE id = ?"
	if err := r.db.GetContext(ctx, &c, q, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return core.Company{}, fmt.Errorf("company %s: %w", id, core.ErrNotFound)
		}
		return core.Company{}, fmt.Errorf("get company %s: %w", id, err)
	}
	return c, nil
}

func (r *SQLiteRepository) CreateCompany(ctx context.Context, c core.Company) (core.Company, error) {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	c.CreatedAt, c.UpdatedAt = now, now

	q := "INSERT INTO companies (" + companyColumns + ") VALUES (:id, :nome, :ticker, :link_ri, :created_at, :updated_at)"
	if _, err := r.db.NamedExecContext(ctx, q, c); err != nil {
		return core.Company{}, fmt.Errorf("create company: %w", err)
	}

	slog.InfoContext(ctx, "Company saved to SQLite",
		"company_id", c.ID,
		"ticker", c.Ticker)
	return c, nil
}

func (r *SQLiteRepository) UpdateCompany(ctx context.Context, c core.Company) (core.Company, error) {
	c.UpdatedAt = time.Now().UTC()
	q := "UPDATE companies SET nome = :nome, ticker = :ticker, link_ri = :link_ri, updated_at = :updated_at WHERE id = :id"
	res, err := r.db.NamedExecContext(ctx, q, c)
	if err != nil {
		return core.Company{}, fmt.Errorf("update company %s: %w", c.ID, err)
	}
	if err := expectRow(res, "company", c.ID); err != nil {
		return core.Company{}, err
	}
	return r.GetCompany(ctx, c.ID)
}

// DeleteCompany removes a company; its records go with it (ON DELETE CASCADE).
func (r *SQLiteRepository) DeleteCompany(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, "DELETE FROM companies WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("delete company %s: %w", id, err)
	}
	if err := expectRow(res, "company", id); err != nil {
		return err
	}
	slog.InfoContext(ctx, "Company deleted from SQLite", "company_id", id)
	return nil
}

// ListRecords returns a company's records, most recent quarter first.
func (r *SQLiteRepository) ListRecords(ctx context.Context, companyID string) ([]core.QuarterlyRecord, error) {
	var out []core.QuarterlyRecord
	q := "SELECT " + recordColumns + " FROM financial_indicators WHERE company_id = ? ORDER BY year DESC, quarter_number DESC"
	if err := r.db.SelectContext(ctx, &out, q, companyID); err != nil {
		return nil, fmt.Errorf("list records for company %s: %w", companyID, err)
	}
	return out, nil
}

func (r *SQLiteRepository) GetRecord(ctx context.Context, id string) (core.QuarterlyRecord, error) {
	var rec core.QuarterlyRecord
	q := "SELECT " + recordColumns + " FROM financial_indicators WHERE id = ?"
	if err := r.db.GetContext(ctx, &rec, q, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return core.QuarterlyRecord{}, fmt.Errorf("record %s: %w", id, core.ErrNotFound)
		}
		return core.QuarterlyRecord{}, fmt.Errorf("get record %s: %w", id, err)
	}
	return rec, nil
}

func (r *SQLiteRepository) CreateRecord(ctx context.Context, rec core.QuarterlyRecord) (core.QuarterlyRecord, error) {
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	rec.CreatedAt, rec.UpdatedAt = now, now

	if _, err := r.db.NamedExecContext(ctx, insertRecord, rec); err != nil {
		return core.QuarterlyRecord{}, fmt.Errorf("create record %s: %w", rec.Quarter, classify(err, rec.CompanyID))
	}

	slog.InfoContext(ctx, "Quarterly record saved to SQLite",
		"record_id", rec.ID,
		"company_id", rec.CompanyID,
		"quarter", rec.Quarter,
		"values", rec.Count())
	return rec, nil
}

func (r *SQLiteRepository) UpdateRecord(ctx context.Context, rec core.QuarterlyRecord) (core.QuarterlyRecord, error) {
	rec.UpdatedAt = time.Now().UTC()
	res, err := r.db.NamedExecContext(ctx, updateRecord, rec)
	if err != nil {
		return core.QuarterlyRecord{}, fmt.Errorf("update record %s: %w", rec.ID, classify(err, rec.CompanyID))
	}
	if err := expectRow(res, "record", rec.ID); err != nil {
		return core.QuarterlyRecord{}, err
	}
	return r.GetRecord(ctx, rec.ID)
}

func (r *SQLiteRepository) DeleteRecord(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, "DELETE FROM financial_indicators WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("delete record %s: %w", id, err)
	}
	if err := expectRow(res, "record", id); err != nil {
		return err
	}
	slog.InfoContext(ctx, "Quarterly record deleted from SQLite", "record_id", id)
	return nil
}

func expectRow(res sql.Result, kind, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s %s rows affected: %w", kind, id, err)
	}
	if n == 0 {
		return fmt.Errorf("%s %s: %w", kind, id, core.ErrNotFound)
	}
	return nil
}

// classify maps SQLite constraint failures onto domain errors.
func classify(err error, companyID string) error {
	msg := err.Error()
	switch {
	case strings.Contains(msg, "UNIQUE constraint failed"):
		return fmt.Errorf("%w: %v", core.ErrDuplicateQuarter, err)
	case strings.Contains(msg, "FOREIGN KEY constraint failed"):
		return fmt.Errorf("company %s: %w", companyID, core.ErrNotFound)
	}
	return err
}
