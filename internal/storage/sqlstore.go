package storage

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"strings"

	"github.com/google/uuid"

	"github.com/allisson/ledger/internal/database"
	"github.com/allisson/ledger/internal/fieldcrypt"

	apperrors "github.com/allisson/ledger/internal/errors"
)

// Dialect selects the SQL placeholder style.
type Dialect string

const (
	// DialectPostgreSQL uses $1, $2, ... placeholders.
	DialectPostgreSQL Dialect = "postgresql"

	// DialectMySQL uses ? placeholders.
	DialectMySQL Dialect = "mysql"
)

// SQLStore is a generic record store over database/sql. It implements
// fieldcrypt.Store so the encryption layer can wrap it, and participates in
// transactions carried on the context by database.TxManager.
type SQLStore struct {
	db       *sql.DB
	registry *Registry
	dialect  Dialect
}

// NewSQLStore creates a SQLStore for the given dialect and model registry.
func NewSQLStore(db *sql.DB, registry *Registry, dialect Dialect) *SQLStore {
	return &SQLStore{
		db:       db,
		registry: registry,
		dialect:  dialect,
	}
}

// Create inserts a record, generating a UUIDv7 id when absent, and returns
// the stored row.
func (s *SQLStore) Create(ctx context.Context, model string, record fieldcrypt.Record) (fieldcrypt.Record, error) {
	m, err := s.registry.Get(model)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to create record")
	}

	record = record.Clone()
	id, ok := record[m.IDColumn].(string)
	if !ok || id == "" {
		generated, err := uuid.NewV7()
		if err != nil {
			return nil, apperrors.Wrap(err, "failed to generate record id")
		}
		id = generated.String()
		record[m.IDColumn] = id
	}

	columns, values := s.recordColumns(m, record)
	placeholders := make([]string, len(columns))
	for i := range columns {
		placeholders[i] = s.placeholder(i + 1)
	}

	query := fmt.Sprintf(
		"INSERT INTO %s (%s) VALUES (%s)",
		m.Table, strings.Join(columns, ", "), strings.Join(placeholders, ", "),
	)

	querier := database.GetTx(ctx, s.db)
	if _, err := querier.ExecContext(ctx, query, values...); err != nil {
		if isUniqueViolation(err) {
			return nil, apperrors.Wrap(apperrors.ErrConflict, "record already exists")
		}
		return nil, apperrors.Wrap(err, "failed to create record")
	}

	return s.FindByID(ctx, model, id)
}

// CreateMany inserts records one by one in input order. Callers needing
// atomicity run it inside a TxManager transaction.
func (s *SQLStore) CreateMany(ctx context.Context, model string, records []fieldcrypt.Record) ([]fieldcrypt.Record, error) {
	stored := make([]fieldcrypt.Record, 0, len(records))
	for _, record := range records {
		row, err := s.Create(ctx, model, record)
		if err != nil {
			return nil, err
		}
		stored = append(stored, row)
	}
	return stored, nil
}

// Update applies the record's columns to the row with the given id and
// returns the stored row.
func (s *SQLStore) Update(ctx context.Context, model, id string, record fieldcrypt.Record) (fieldcrypt.Record, error) {
	m, err := s.registry.Get(model)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to update record")
	}

	record = record.Clone()
	delete(record, m.IDColumn)

	columns, values := s.recordColumns(m, record)
	if len(columns) == 0 {
		return s.FindByID(ctx, model, id)
	}

	assignments := make([]string, len(columns))
	for i, column := range columns {
		assignments[i] = fmt.Sprintf("%s = %s", column, s.placeholder(i+1))
	}
	values = append(values, id)

	query := fmt.Sprintf(
		"UPDATE %s SET %s WHERE %s = %s",
		m.Table, strings.Join(assignments, ", "), m.IDColumn, s.placeholder(len(columns)+1),
	)

	querier := database.GetTx(ctx, s.db)
	result, err := querier.ExecContext(ctx, query, values...)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, apperrors.Wrap(apperrors.ErrConflict, "record already exists")
		}
		return nil, apperrors.Wrap(err, "failed to update record")
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to update record")
	}
	if affected == 0 {
		if _, err := s.FindByID(ctx, model, id); err != nil {
			return nil, err
		}
	}

	return s.FindByID(ctx, model, id)
}

// Upsert updates the row matching the filter or inserts the create record
// when no row matches.
func (s *SQLStore) Upsert(ctx context.Context, model string, filter fieldcrypt.Filter, create, update fieldcrypt.Record) (fieldcrypt.Record, error) {
	existing, err := s.FindMany(ctx, model, filter, 0, 1)
	if err != nil {
		return nil, err
	}

	if len(existing) == 0 {
		return s.Create(ctx, model, create)
	}

	m, err := s.registry.Get(model)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to upsert record")
	}
	id, ok := existing[0][m.IDColumn].(string)
	if !ok {
		return nil, apperrors.New("failed to upsert record: row has no id")
	}
	return s.Update(ctx, model, id, update)
}

// FindByID fetches one row by id.
func (s *SQLStore) FindByID(ctx context.Context, model, id string) (fieldcrypt.Record, error) {
	m, err := s.registry.Get(model)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to find record")
	}

	query := fmt.Sprintf(
		"SELECT %s FROM %s WHERE %s = %s",
		strings.Join(m.Columns, ", "), m.Table, m.IDColumn, s.placeholder(1),
	)

	querier := database.GetTx(ctx, s.db)
	rows, err := querier.QueryContext(ctx, query, id)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to find record")
	}
	defer rows.Close()

	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return nil, apperrors.Wrap(err, "failed to find record")
		}
		return nil, apperrors.Wrap(apperrors.ErrNotFound, "record not found")
	}

	record, err := scanRecord(rows, m.Columns)
	if err != nil {
		return nil, err
	}
	return record, rows.Err()
}

// FindMany fetches rows matching the filter, ordered by id for stable
// pagination.
func (s *SQLStore) FindMany(ctx context.Context, model string, filter fieldcrypt.Filter, offset, limit int) ([]fieldcrypt.Record, error) {
	m, err := s.registry.Get(model)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to find records")
	}

	var (
		conditions []string
		values     []any
	)
	for _, column := range sortedFilterColumns(filter) {
		if !m.HasColumn(column) {
			return nil, apperrors.New(fmt.Sprintf("unknown filter column %q", column))
		}
		conditions = append(conditions, fmt.Sprintf("%s = %s", column, s.placeholder(len(values)+1)))
		values = append(values, filter[column])
	}

	query := fmt.Sprintf("SELECT %s FROM %s", strings.Join(m.Columns, ", "), m.Table)
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += fmt.Sprintf(" ORDER BY %s LIMIT %s OFFSET %s",
		m.IDColumn, s.placeholder(len(values)+1), s.placeholder(len(values)+2),
	)
	values = append(values, limit, offset)

	querier := database.GetTx(ctx, s.db)
	rows, err := querier.QueryContext(ctx, query, values...)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to find records")
	}
	defer rows.Close()

	records := make([]fieldcrypt.Record, 0)
	for rows.Next() {
		record, err := scanRecord(rows, m.Columns)
		if err != nil {
			return nil, err
		}
		records = append(records, record)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.Wrap(err, "failed to find records")
	}
	return records, nil
}

// Delete removes the row with the given id.
func (s *SQLStore) Delete(ctx context.Context, model, id string) error {
	m, err := s.registry.Get(model)
	if err != nil {
		return apperrors.Wrap(err, "failed to delete record")
	}

	query := fmt.Sprintf("DELETE FROM %s WHERE %s = %s", m.Table, m.IDColumn, s.placeholder(1))

	querier := database.GetTx(ctx, s.db)
	result, err := querier.ExecContext(ctx, query, id)
	if err != nil {
		return apperrors.Wrap(err, "failed to delete record")
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return apperrors.Wrap(err, "failed to delete record")
	}
	if affected == 0 {
		return apperrors.Wrap(apperrors.ErrNotFound, "record not found")
	}
	return nil
}

// recordColumns extracts the model columns present in the record, in the
// model's declared order so generated SQL is deterministic.
func (s *SQLStore) recordColumns(m Model, record fieldcrypt.Record) ([]string, []any) {
	var (
		columns []string
		values  []any
	)
	for _, column := range m.Columns {
		value, ok := record[column]
		if !ok {
			continue
		}
		columns = append(columns, column)
		values = append(values, value)
	}
	return columns, values
}

func (s *SQLStore) placeholder(n int) string {
	if s.dialect == DialectPostgreSQL {
		return fmt.Sprintf("$%d", n)
	}
	return "?"
}

func sortedFilterColumns(filter fieldcrypt.Filter) []string {
	columns := make([]string, 0, len(filter))
	for column := range filter {
		columns = append(columns, column)
	}
	sort.Strings(columns)
	return columns
}

// scanRecord reads the current row into a Record, converting driver []byte
// values to strings so text columns compare naturally.
func scanRecord(rows *sql.Rows, columns []string) (fieldcrypt.Record, error) {
	values := make([]any, len(columns))
	pointers := make([]any, len(columns))
	for i := range values {
		pointers[i] = &values[i]
	}

	if err := rows.Scan(pointers...); err != nil {
		return nil, apperrors.Wrap(err, "failed to scan record")
	}

	record := make(fieldcrypt.Record, len(columns))
	for i, column := range columns {
		switch v := values[i].(type) {
		case []byte:
			record[column] = string(v)
		default:
			record[column] = v
		}
	}
	return record, nil
}

// isUniqueViolation checks if the error is a unique constraint violation in
// either backend's wording.
func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	// PostgreSQL: "duplicate key value violates unique constraint"
	// MySQL: "Error 1062: Duplicate entry"
	return strings.Contains(msg, "duplicate key") ||
		strings.Contains(msg, "unique constraint") ||
		strings.Contains(msg, "duplicate entry") ||
		strings.Contains(msg, "1062")
}
