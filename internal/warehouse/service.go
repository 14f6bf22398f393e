// Package warehouse wraps the embedded DuckDB database that holds the raw, staged and
// derived tables of a pipeline run.
package warehouse

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	_ "github.com/marcboeker/go-duckdb"

	"github.com/Honar-Abdi/Order-to-Insight/internal/common"
	"github.com/Honar-Abdi/Order-to-Insight/pkg/errors"
)

// DriverName is the database/sql driver registered by go-duckdb
const DriverName = "duckdb"

// DefaultInsertBatchSize bounds the rows bound into one INSERT statement
const DefaultInsertBatchSize = 500

// Config holds warehouse settings
type Config struct {
	Path            string
	InsertBatchSize int
}

// Service provides warehouse operations over a single DuckDB file
type Service struct {
	db        *sql.DB
	config    Config
	connected bool
}

// NewService creates a new warehouse service
func NewService(config Config) *Service {
	return &Service{config: config}
}

// NewServiceFromDB wraps an already opened handle, e.g. a sqlmock connection in tests
func NewServiceFromDB(db *sql.DB, config Config) *Service {
	return &Service{db: db, config: config, connected: db != nil}
}

// Connect opens the database file, creating its directory when needed
func (s *Service) Connect(ctx context.Context) error {
	if s.connected {
		return nil
	}

	if err := common.EnsureParentDir(s.config.Path); err != nil {
		return errors.ConnectionError("Failed to prepare warehouse directory", s.config.Path, err)
	}

	db, err := sql.Open(DriverName, s.config.Path)
	if err != nil {
		return errors.ConnectionError("Failed to open warehouse", s.config.Path, err)
	}

	// DuckDB allows a single writer per file; one connection keeps every statement on it.
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return errors.ConnectionError("Failed to connect to warehouse", s.config.Path, err)
	}

	s.db = db
	s.connected = true
	return nil
}

// Close closes the database connection
func (s *Service) Close() error {
	if !s.connected {
		return nil
	}
	if err := s.db.Close(); err != nil {
		return errors.Wrap(err, errors.ErrCodeConnectionFailed, "Failed to close warehouse")
	}
	s.connected = false
	return nil
}

// Path returns the database file location
func (s *Service) Path() string {
	return s.config.Path
}

func (s *Service) ensureConnected() error {
	if !s.connected {
		return errors.New(errors.ErrCodeNotConnected, "Not connected to warehouse").
			WithSuggestions("Call Connect() before executing SQL")
	}
	return nil
}

// inTx runs fn inside one transaction; any failure rolls the whole unit back.
func (s *Service) inTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	if err := s.ensureConnected(); err != nil {
		return err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeSQLTransaction, "Failed to begin transaction")
	}

	txHandler := errors.NewTransactionHandler(tx.Rollback)
	if err := txHandler.Execute(func() error { return fn(tx) }); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return errors.Wrap(err, errors.ErrCodeSQLTransaction, "Failed to commit transaction")
	}
	return nil
}

// ExecuteSQL executes one or more semicolon separated statements in a single transaction
func (s *Service) ExecuteSQL(ctx context.Context, sqlText string) error {
	statements := splitStatements(sqlText)

	return s.inTx(ctx, func(tx *sql.Tx) error {
		for i, stmt := range statements {
			if _, err := tx.ExecContext(ctx, stmt); err != nil {
				return errors.SQLError(
					fmt.Sprintf("Failed to execute statement %d", i+1),
					stmt,
					err,
				).WithContext("statement_index", i+1).
					WithContext("total_statements", len(statements))
			}
		}
		return nil
	})
}

// LoadCSV replaces table with the auto-typed content of a headered CSV file
func (s *Service) LoadCSV(ctx context.Context, table, path string) error {
	stmt := fmt.Sprintf(
		"CREATE OR REPLACE TABLE %s AS SELECT * FROM read_csv_auto(%s, header = true)",
		table, quoteLiteral(path),
	)

	return s.inTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return errors.SQLError(fmt.Sprintf("Failed to load %s", table), stmt, err).
				WithContext("table", table).
				WithContext("path", path)
		}
		return nil
	})
}

// ReplaceTable atomically swaps table def for rows. Readers see either the previous
// contents or the complete new contents.
func (s *Service) ReplaceTable(ctx context.Context, def TableDef, rows [][]interface{}) error {
	batch := s.config.InsertBatchSize
	if batch <= 0 {
		batch = DefaultInsertBatchSize
	}

	return s.inTx(ctx, func(tx *sql.Tx) error {
		create := def.CreateSQL()
		if _, err := tx.ExecContext(ctx, create); err != nil {
			return errors.SQLError(fmt.Sprintf("Failed to create table %s", def.Name), create, err).
				WithContext("table", def.Name)
		}

		for start := 0; start < len(rows); start += batch {
			end := min(start+batch, len(rows))
			chunk := rows[start:end]

			args := make([]interface{}, 0, len(chunk)*len(def.Columns))
			for i, row := range chunk {
				if len(row) != len(def.Columns) {
					return errors.New(errors.ErrCodeInternal,
						fmt.Sprintf("Row %d of %s has %d values, expected %d", start+i, def.Name, len(row), len(def.Columns)))
				}
				args = append(args, row...)
			}

			insert := def.InsertSQL(len(chunk))
			if _, err := tx.ExecContext(ctx, insert, args...); err != nil {
				return errors.SQLError(fmt.Sprintf("Failed to insert into %s", def.Name), insert, err).
					WithContext("table", def.Name).
					WithContext("batch_start", start)
			}
		}
		return nil
	})
}

// TableExists reports whether a table or view named name exists
func (s *Service) TableExists(ctx context.Context, name string) (bool, error) {
	if err := s.ensureConnected(); err != nil {
		return false, err
	}

	const query = "SELECT COUNT(*) FROM information_schema.tables WHERE table_name = ?"
	var n int64
	if err := s.db.QueryRowContext(ctx, query, name).Scan(&n); err != nil {
		return false, errors.SQLError("Failed to inspect catalog", query, err)
	}
	return n > 0, nil
}

// RequireTables fails with ErrCodeSQLObjectNotFound when any of names is missing.
// hint names the command that builds them.
func (s *Service) RequireTables(ctx context.Context, hint string, names ...string) error {
	var missing []string
	for _, name := range names {
		ok, err := s.TableExists(ctx, name)
		if err != nil {
			return err
		}
		if !ok {
			missing = append(missing, name)
		}
	}
	if len(missing) == 0 {
		return nil
	}

	err := errors.New(errors.ErrCodeSQLObjectNotFound,
		fmt.Sprintf("Required table(s) missing: %s", strings.Join(missing, ", "))).
		WithContext("warehouse", s.config.Path).
		WithContext("missing", missing)
	if hint != "" {
		_ = err.WithSuggestions(fmt.Sprintf("Run '%s' first", hint))
	}
	return err
}

// splitStatements splits on semicolons outside quoted strings and drops empty statements
func splitStatements(sqlText string) []string {
	var statements []string
	var current strings.Builder
	inString := false
	stringChar := rune(0)

	flush := func() {
		if stmt := strings.TrimSpace(current.String()); stmt != "" {
			statements = append(statements, stmt)
		}
		current.Reset()
	}

	for _, char := range sqlText {
		switch {
		case inString:
			if char == stringChar {
				inString = false
			}
		case char == '\'' || char == '"':
			inString = true
			stringChar = char
		case char == ';':
			flush()
			continue
		}
		current.WriteRune(char)
	}
	flush()

	return statements
}

func quoteLiteral(value string) string {
	return "'" + strings.ReplaceAll(value, "'", "''") + "'"
}
