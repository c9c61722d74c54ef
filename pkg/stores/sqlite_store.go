package stores

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/jmoiron/sqlx"

	// SQLite driver
	_ "modernc.org/sqlite"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

const driverName = "sqlite"

func init() {
	// sqlx does not know the modernc driver name.
	sqlx.BindDriver(driverName, sqlx.QUESTION)
}

// MemoryPath opens a private in-memory database.
const MemoryPath = ":memory:"

// DefaultPollInterval is how often a file-backed store looks for writes made
// through other connections.
const DefaultPollInterval = 500 * time.Millisecond

// SQLiteStore implements the Store interface using SQLite
type SQLiteStore struct {
	db       *sqlx.DB
	cfg      Config
	notifier *notifier

	stopPoll context.CancelFunc
	polling  sync.WaitGroup
}

// Config holds SQLite store configuration
type Config struct {
	Path         string
	MaxOpenConns int
	BusyTimeout  time.Duration

	// PollInterval is how often writes committed by other connections or
	// processes are looked for while someone is subscribed.
	PollInterval time.Duration
}

// NewSQLiteStore creates a new SQLite store instance
func NewSQLiteStore(cfg Config) (*SQLiteStore, error) {
	if cfg.Path == "" {
		return nil, fmt.Errorf("database path is required")
	}

	if cfg.MaxOpenConns <= 0 {
		cfg.MaxOpenConns = 4
	}
	if cfg.BusyTimeout <= 0 {
		cfg.BusyTimeout = 5 * time.Second
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = DefaultPollInterval
	}
	// Every connection to :memory: is its own database.
	if cfg.Path == MemoryPath {
		cfg.MaxOpenConns = 1
	}

	return &SQLiteStore{
		cfg:      cfg,
		notifier: newNotifier(),
	}, nil
}

// Path returns the database file path.
func (s *SQLiteStore) Path() string {
	return s.cfg.Path
}

// Init opens the connection pool with WAL journaling, foreign keys and
// immediate write transactions.
func (s *SQLiteStore) Init(ctx context.Context) error {
	dsn := fmt.Sprintf("%s?_pragma=busy_timeout(%d)&_pragma=journal_mode(WAL)&_pragma=foreign_keys(1)&_pragma=synchronous(NORMAL)&_txlock=immediate",
		s.cfg.Path, s.cfg.BusyTimeout.Milliseconds())

	db, err := sqlx.Open(driverName, dsn)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(s.cfg.MaxOpenConns)
	db.SetMaxIdleConns(s.cfg.MaxOpenConns)
	if s.cfg.Path != MemoryPath {
		db.SetConnMaxLifetime(30 * time.Minute)
	}

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return fmt.Errorf("failed to ping database: %w", err)
	}

	s.db = db

	// A store opened on an already migrated file starts from its current
	// versions. A fresh file gets its baseline from Migrate.
	_ = s.observe(ctx, s.db, false)

	// Nothing outside this pool can write to a private in-memory database.
	if s.cfg.Path != MemoryPath {
		pollCtx, cancel := context.WithCancel(context.Background())
		s.stopPoll = cancel
		s.polling.Add(1)
		go s.poll(pollCtx)
	}
	return nil
}

// Close closes every subscription and the database connection.
func (s *SQLiteStore) Close() error {
	if s.stopPoll != nil {
		s.stopPoll()
		s.polling.Wait()
		s.stopPoll = nil
	}
	s.notifier.closeAll()
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// Migrate runs database migrations.
func (s *SQLiteStore) Migrate(_ context.Context) error {
	if s.db == nil {
		return fmt.Errorf("database not initialized")
	}

	sourceDriver, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("failed to create migration source: %w", err)
	}

	driver, err := sqlite.WithInstance(s.db.DB, &sqlite.Config{})
	if err != nil {
		return fmt.Errorf("failed to create database driver: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", sourceDriver, driverName, driver)
	if err != nil {
		return fmt.Errorf("failed to create migration instance: %w", err)
	}

	// m.Close would close the shared *sql.DB, so it is not called.
	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	if err := s.observe(context.Background(), s.db, false); err != nil {
		return err
	}
	return nil
}

// SaveCompanyInfo replaces the company record.
func (s *SQLiteStore) SaveCompanyInfo(ctx context.Context, info *CompanyInfoEntity) error {
	if s.db == nil {
		return fmt.Errorf("database not initialized")
	}

	row := *info
	row.ID = CompanyInfoEntityID
	row.UpdatedAt = time.Now().Unix()

	query := `
		INSERT INTO company_info (id, name, founder, founded, employees, launch_sites, valuation, updated_at)
		VALUES (:id, :name, :founder, :founded, :employees, :launch_sites, :valuation, :updated_at)
		ON CONFLICT (id) DO UPDATE SET
			name = excluded.name,
			founder = excluded.founder,
			founded = excluded.founded,
			employees = excluded.employees,
			launch_sites = excluded.launch_sites,
			valuation = excluded.valuation,
			updated_at = excluded.updated_at
	`

	if _, err := s.db.NamedExecContext(ctx, query, &row); err != nil {
		return fmt.Errorf("failed to save company info: %w", err)
	}

	info.ID = row.ID
	info.UpdatedAt = row.UpdatedAt
	s.committed(ctx, s.db, TableCompanyInfo)
	return nil
}

// GetCompanyInfo returns the company record or ErrNotFound.
func (s *SQLiteStore) GetCompanyInfo(ctx context.Context) (*CompanyInfoEntity, error) {
	if s.db == nil {
		return nil, fmt.Errorf("database not initialized")
	}

	query := `
		SELECT id, name, founder, founded, employees, launch_sites, valuation, updated_at
		FROM company_info
		WHERE id = ?
	`

	info := &CompanyInfoEntity{}
	err := s.db.GetContext(ctx, info, query, CompanyInfoEntityID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get company info: %w", err)
	}

	return info, nil
}

// ReplaceLaunches deletes every launch and inserts launches in one
// transaction. A failed replacement leaves the previous snapshot intact.
func (s *SQLiteStore) ReplaceLaunches(ctx context.Context, launches []LaunchEntity) (err error) {
	if s.db == nil {
		return fmt.Errorf("database not initialized")
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if _, err = tx.ExecContext(ctx, `DELETE FROM launches`); err != nil {
		return fmt.Errorf("failed to clear launches: %w", err)
	}

	if len(launches) > 0 {
		stmt, perr := tx.PrepareNamedContext(ctx, `
			INSERT OR REPLACE INTO launches (
				mission_name, upcoming, launch_year, launch_date_unix, launch_success,
				rocket_name, rocket_type, mission_patch_image, wikipedia_link, video_link
			) VALUES (
				:mission_name, :upcoming, :launch_year, :launch_date_unix, :launch_success,
				:rocket_name, :rocket_type, :mission_patch_image, :wikipedia_link, :video_link
			)
		`)
		if perr != nil {
			err = perr
			return fmt.Errorf("failed to prepare launch insert: %w", err)
		}
		defer stmt.Close()

		for i := range launches {
			if _, err = stmt.ExecContext(ctx, &launches[i]); err != nil {
				return fmt.Errorf("failed to insert launch %s: %w", launches[i].MissionName, err)
			}
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit launches: %w", err)
	}

	s.committed(ctx, s.db, TableLaunches)
	return nil
}

// ListLaunches returns every launch in insertion order.
func (s *SQLiteStore) ListLaunches(ctx context.Context) ([]LaunchEntity, error) {
	if s.db == nil {
		return nil, fmt.Errorf("database not initialized")
	}

	query := `
		SELECT mission_name, upcoming, launch_year, launch_date_unix, launch_success,
		       rocket_name, rocket_type, mission_patch_image, wikipedia_link, video_link
		FROM launches
		ORDER BY rowid
	`

	launches := []LaunchEntity{}
	if err := s.db.SelectContext(ctx, &launches, query); err != nil {
		return nil, fmt.Errorf("failed to list launches: %w", err)
	}

	return launches, nil
}

// Subscribe registers for change notifications on table. Writes made through
// this store are signalled on commit; writes made by other connections or
// processes are signalled within the poll interval.
func (s *SQLiteStore) Subscribe(table Table) (<-chan struct{}, func()) {
	// Catch up on outside writes first, so the poller does not report them to
	// a subscriber that is about to read the current rows anyway.
	if s.db != nil && s.cfg.Path != MemoryPath {
		_ = s.observe(context.Background(), s.db, true)
	}
	return s.notifier.subscribe(table)
}

type tableVersion struct {
	Name    Table `db:"name"`
	Version int64 `db:"version"`
}

// observe reads the per-table write counters maintained by triggers and
// signals subscribers of every table that changed since the last reading.
func (s *SQLiteStore) observe(ctx context.Context, q sqlx.QueryerContext, publish bool) error {
	var rows []tableVersion
	if err := sqlx.SelectContext(ctx, q, &rows, `SELECT name, version FROM table_versions`); err != nil {
		return fmt.Errorf("failed to read table versions: %w", err)
	}

	versions := make(map[Table]int64, len(rows))
	for _, r := range rows {
		versions[r.Name] = r.Version
	}
	s.notifier.advance(versions, publish)
	return nil
}

// committed signals a write made through this store. When the counters cannot
// be read the tables are signalled directly.
func (s *SQLiteStore) committed(ctx context.Context, q sqlx.QueryerContext, tables ...Table) {
	if err := s.observe(context.WithoutCancel(ctx), q, true); err == nil {
		return
	}
	for _, table := range tables {
		s.notifier.publish(table)
	}
}

// poll picks up writes committed outside this store while anyone is
// subscribed.
func (s *SQLiteStore) poll(ctx context.Context) {
	defer s.polling.Done()

	ticker := time.NewTicker(s.cfg.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if !s.notifier.active() {
				continue
			}
			// Read errors are retried on the next tick.
			_ = s.observe(ctx, s.db, true)
		}
	}
}

// Backup writes a consistent copy of the database to path, which must not
// exist yet.
func (s *SQLiteStore) Backup(ctx context.Context, path string) error {
	if s.db == nil {
		return fmt.Errorf("database not initialized")
	}
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("backup target %s already exists", path)
	}

	if _, err := s.db.ExecContext(ctx, `VACUUM INTO ?`, path); err != nil {
		return fmt.Errorf("failed to back up database: %w", err)
	}
	return nil
}

// Restore replaces both snapshots with the contents of a backup made by
// Backup. Subscribers of both tables are notified.
func (s *SQLiteStore) Restore(ctx context.Context, path string) (err error) {
	if s.db == nil {
		return fmt.Errorf("database not initialized")
	}
	if _, err := os.Stat(path); err != nil {
		return fmt.Errorf("backup source: %w", err)
	}

	// ATTACH is per connection, so everything runs on one.
	conn, err := s.db.Connx(ctx)
	if err != nil {
		return fmt.Errorf("failed to acquire connection: %w", err)
	}
	defer conn.Close()

	if _, err := conn.ExecContext(ctx, `ATTACH DATABASE ? AS backup`, path); err != nil {
		return fmt.Errorf("failed to attach backup: %w", err)
	}
	defer func() {
		if _, derr := conn.ExecContext(context.Background(), `DETACH DATABASE backup`); derr != nil && err == nil {
			err = fmt.Errorf("failed to detach backup: %w", derr)
		}
	}()

	tx, err := conn.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	statements := []string{
		`DELETE FROM main.company_info`,
		`INSERT INTO main.company_info SELECT * FROM backup.company_info`,
		`DELETE FROM main.launches`,
		`INSERT INTO main.launches SELECT * FROM backup.launches ORDER BY rowid`,
	}
	for _, stmt := range statements {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("failed to restore backup: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit restore: %w", err)
	}

	// The pool may have a single connection, and conn is still held.
	s.committed(ctx, conn, TableCompanyInfo, TableLaunches)
	return nil
}

// HealthCheck verifies the database connection is healthy
func (s *SQLiteStore) HealthCheck(ctx context.Context) error {
	if s.db == nil {
		return fmt.Errorf("database not initialized")
	}

	return s.db.PingContext(ctx)
}
