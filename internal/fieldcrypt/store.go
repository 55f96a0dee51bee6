package fieldcrypt

import (
	"context"
)

// Record is a model row as a mapping of column name to value. String values
// of configured fields are stored encrypted; nil values represent NULL.
type Record map[string]any

// Clone returns a shallow copy of the record.
func (r Record) Clone() Record {
	clone := make(Record, len(r))
	for key, value := range r {
		clone[key] = value
	}
	return clone
}

// Filter narrows FindMany results by exact column equality.
type Filter map[string]any

// Store is the persistence surface the interception layer wraps. The SQL
// implementation lives in internal/storage; EncryptingStore decorates any
// implementation with transparent field encryption.
type Store interface {
	// Create inserts a record and returns the stored row.
	Create(ctx context.Context, model string, record Record) (Record, error)

	// CreateMany inserts several records and returns the stored rows.
	CreateMany(ctx context.Context, model string, records []Record) ([]Record, error)

	// Update applies the record's columns to the row with the given id and
	// returns the stored row.
	Update(ctx context.Context, model, id string, record Record) (Record, error)

	// Upsert updates the row matching the filter or, when absent, inserts the
	// create record. Returns the stored row.
	Upsert(ctx context.Context, model string, filter Filter, create, update Record) (Record, error)

	// FindByID fetches one row by id.
	FindByID(ctx context.Context, model, id string) (Record, error)

	// FindMany fetches rows matching the filter with offset/limit pagination.
	FindMany(ctx context.Context, model string, filter Filter, offset, limit int) ([]Record, error)

	// Delete removes the row with the given id.
	Delete(ctx context.Context, model, id string) error
}
