package storage

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"time"

	"github.com/golang-migrate/migrate/v4"
	migratesqlite "github.com/golang-migrate/migrate/v4/database/sqlite3"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	_ "github.com/mattn/go-sqlite3"

	"medremind.app/cloud/models"
)

// ErrNotFound is returned by mutations that target a missing record.
var ErrNotFound = errors.New("record not found")

//go:embed migrations/*.sql
var migrationsFS embed.FS

type SQLiteStorage struct {
	db   *sql.DB
	path string
}

func NewSQLiteStorage(path string) (*SQLiteStorage, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	storage := &SQLiteStorage{
		db:   db,
		path: path,
	}

	if err := storage.migrate(); err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return storage, nil
}

// migrate applies the versioned schema migrations. Re-running against an
// up-to-date database is a no-op.
func (s *SQLiteStorage) migrate() error {
	source, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("failed to load migrations: %w", err)
	}

	driver, err := migratesqlite.WithInstance(s.db, &migratesqlite.Config{})
	if err != nil {
		return fmt.Errorf("failed to init migration driver: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", source, "sqlite3", driver)
	if err != nil {
		return fmt.Errorf("failed to init migrations: %w", err)
	}

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return err
	}
	return nil
}

func (s *SQLiteStorage) CreateCustomer(ctx context.Context, customer *models.Customer) error {
	query := `INSERT INTO customers (name, contact, start_date, is_active) VALUES (?, ?, ?, ?)`

	result, err := s.db.ExecContext(ctx, query,
		customer.Name,
		customer.Contact,
		customer.StartDate.Format(models.DateFormat),
		boolToInt(customer.Active),
	)
	if err != nil {
		return fmt.Errorf("failed to create customer: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to read customer id: %w", err)
	}
	customer.ID = id

	return nil
}

func (s *SQLiteStorage) GetCustomer(ctx context.Context, id int64) (*models.Customer, error) {
	query := `SELECT id, name, contact, start_date, is_active FROM customers WHERE id = ?`
	return s.scanCustomer(s.db.QueryRowContext(ctx, query, id))
}

func (s *SQLiteStorage) FindCustomerByName(ctx context.Context, name string) (*models.Customer, error) {
	query := `SELECT id, name, contact, start_date, is_active FROM customers WHERE name = ?`
	return s.scanCustomer(s.db.QueryRowContext(ctx, query, name))
}

func (s *SQLiteStorage) scanCustomer(row *sql.Row) (*models.Customer, error) {
	var customer models.Customer
	var startDate string
	var active int

	err := row.Scan(&customer.ID, &customer.Name, &customer.Contact, &startDate, &active)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	customer.StartDate, err = time.Parse(models.DateFormat, startDate)
	if err != nil {
		return nil, fmt.Errorf("invalid start date %q: %w", startDate, err)
	}
	customer.Active = active != 0

	return &customer, nil
}

func (s *SQLiteStorage) UpdateCustomer(ctx context.Context, customer *models.Customer) error {
	query := `UPDATE customers SET name = ?, contact = ?, start_date = ? WHERE id = ?`

	result, err := s.db.ExecContext(ctx, query,
		customer.Name,
		customer.Contact,
		customer.StartDate.Format(models.DateFormat),
		customer.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update customer: %w", err)
	}

	return requireAffected(result)
}

func (s *SQLiteStorage) SetCustomerActive(ctx context.Context, id int64, active bool) error {
	result, err := s.db.ExecContext(ctx, `UPDATE customers SET is_active = ? WHERE id = ?`, boolToInt(active), id)
	if err != nil {
		return fmt.Errorf("failed to update customer status: %w", err)
	}
	return requireAffected(result)
}

func (s *SQLiteStorage) ListCustomers(ctx context.Context, includeInactive bool) ([]models.Customer, error) {
	query := `SELECT id, name, contact, start_date, is_active FROM customers`
	if !includeInactive {
		query += ` WHERE is_active = 1`
	}
	query += ` ORDER BY name COLLATE NOCASE ASC`

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query customers: %w", err)
	}
	defer rows.Close()

	customers := []models.Customer{}
	for rows.Next() {
		var customer models.Customer
		var startDate string
		var active int

		if err := rows.Scan(&customer.ID, &customer.Name, &customer.Contact, &startDate, &active); err != nil {
			return nil, fmt.Errorf("failed to scan customer: %w", err)
		}

		customer.StartDate, err = time.Parse(models.DateFormat, startDate)
		if err != nil {
			return nil, fmt.Errorf("invalid start date %q: %w", startDate, err)
		}
		customer.Active = active != 0

		customers = append(customers, customer)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating customers: %w", err)
	}

	return customers, nil
}

func (s *SQLiteStorage) CreateDoseLog(ctx context.Context, log *models.DoseLog) error {
	query := `INSERT INTO dose_logs (customer_id, taken_date, interval_weeks, extra_weeks, note) VALUES (?, ?, ?, ?, ?)`

	result, err := s.db.ExecContext(ctx, query,
		log.CustomerID,
		log.TakenDate.Format(models.DateFormat),
		log.IntervalWeeks,
		log.ExtraWeeks,
		log.Note,
	)
	if err != nil {
		return fmt.Errorf("failed to create dose log: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to read dose log id: %w", err)
	}
	log.ID = id

	return nil
}

func (s *SQLiteStorage) GetDoseLog(ctx context.Context, id int64) (*models.DoseLog, error) {
	query := `SELECT id, customer_id, taken_date, interval_weeks, extra_weeks, note FROM dose_logs WHERE id = ?`

	var log models.DoseLog
	var takenDate string

	err := s.db.QueryRowContext(ctx, query, id).Scan(
		&log.ID,
		&log.CustomerID,
		&takenDate,
		&log.IntervalWeeks,
		&log.ExtraWeeks,
		&log.Note,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	log.TakenDate, err = time.Parse(models.DateFormat, takenDate)
	if err != nil {
		return nil, fmt.Errorf("invalid taken date %q: %w", takenDate, err)
	}

	return &log, nil
}

func (s *SQLiteStorage) UpdateDoseLog(ctx context.Context, log *models.DoseLog) error {
	query := `UPDATE dose_logs SET taken_date = ?, interval_weeks = ?, extra_weeks = ?, note = ? WHERE id = ?`

	result, err := s.db.ExecContext(ctx, query,
		log.TakenDate.Format(models.DateFormat),
		log.IntervalWeeks,
		log.ExtraWeeks,
		log.Note,
		log.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update dose log: %w", err)
	}

	return requireAffected(result)
}

func (s *SQLiteStorage) DeleteDoseLog(ctx context.Context, id int64) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM dose_logs WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete dose log: %w", err)
	}
	return requireAffected(result)
}

func (s *SQLiteStorage) ListDoseLogs(ctx context.Context, customerID int64) ([]models.DoseLog, error) {
	query := `SELECT id, customer_id, taken_date, interval_weeks, extra_weeks, note
	          FROM dose_logs WHERE customer_id = ? ORDER BY taken_date DESC`

	rows, err := s.db.QueryContext(ctx, query, customerID)
	if err != nil {
		return nil, fmt.Errorf("failed to query dose logs: %w", err)
	}
	defer rows.Close()

	logs := []models.DoseLog{}
	for rows.Next() {
		var log models.DoseLog
		var takenDate string

		if err := rows.Scan(&log.ID, &log.CustomerID, &takenDate, &log.IntervalWeeks, &log.ExtraWeeks, &log.Note); err != nil {
			return nil, fmt.Errorf("failed to scan dose log: %w", err)
		}

		log.TakenDate, err = time.Parse(models.DateFormat, takenDate)
		if err != nil {
			return nil, fmt.Errorf("invalid taken date %q: %w", takenDate, err)
		}

		logs = append(logs, log)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating dose logs: %w", err)
	}

	return logs, nil
}

func (s *SQLiteStorage) HasNotification(ctx context.Context, customerID int64, milestone string, dueDate time.Time) (bool, error) {
	query := `SELECT 1 FROM notification_logs WHERE customer_id = ? AND milestone = ? AND due_date = ? LIMIT 1`

	var one int
	err := s.db.QueryRowContext(ctx, query, customerID, milestone, dueDate.Format(models.DateFormat)).Scan(&one)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func (s *SQLiteStorage) CreateNotification(ctx context.Context, log *models.NotificationLog) error {
	if log.SentAt.IsZero() {
		log.SentAt = time.Now().UTC()
	}

	query := `INSERT INTO notification_logs (customer_id, milestone, due_date, sent_at) VALUES (?, ?, ?, ?)`

	result, err := s.db.ExecContext(ctx, query,
		log.CustomerID,
		log.Milestone,
		log.DueDate.Format(models.DateFormat),
		log.SentAt.Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("failed to record notification: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to read notification id: %w", err)
	}
	log.ID = id

	return nil
}

func (s *SQLiteStorage) Close() error {
	return s.db.Close()
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func requireAffected(result sql.Result) error {
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}
