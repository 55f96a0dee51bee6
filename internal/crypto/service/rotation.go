package service

import (
	"sort"

	cryptoDomain "github.com/allisson/ledger/internal/crypto/domain"
)

// RotationRecord is one record to rotate: an identifier plus a mapping of
// field name to current stored value. A nil value represents a NULL column
// and passes through unchanged.
type RotationRecord struct {
	ID     string
	Fields map[string]*string
}

// RotationFailure describes one record that could not be rotated. The message
// never contains field values; the correlation id links to the audit log.
type RotationFailure struct {
	ID            string
	Message       string
	CorrelationID string
}

// RotationSummary aggregates the outcome of a batch rotation.
// Success + Failed always equals the number of input records, and
// len(Errors) always equals Failed.
type RotationSummary struct {
	Success int
	Failed  int
	Errors  []RotationFailure
}

// BatchResult holds the successfully rotated records and the batch summary.
// len(Records) always equals Summary.Success.
type BatchResult struct {
	Records []RotationRecord
	Summary RotationSummary
}

// Rotator re-encrypts stored values from an old key to a new key.
type Rotator struct {
	cipher FieldCipher
}

// NewRotator creates a Rotator using the given cipher engine.
func NewRotator(cipher FieldCipher) *Rotator {
	return &Rotator{cipher: cipher}
}

// RotateBatch rotates every encrypted field value of every record from oldKey
// to newKey.
//
// Records are processed sequentially in input order. Within a record, nil
// values and values that do not look encrypted pass through unchanged; not
// every field is necessarily encrypted in every record. When any field of a
// record fails to rotate, the whole record is excluded from the output, a
// failure entry is appended to the summary, and processing continues with the
// remaining records: one malformed or wrong-key record never halts or poisons
// rotation of the rest of the batch.
func (r *Rotator) RotateBatch(
	oldKey, newKey string,
	records []RotationRecord,
	modelName string,
) BatchResult {
	result := BatchResult{
		Records: make([]RotationRecord, 0, len(records)),
		Summary: RotationSummary{Errors: []RotationFailure{}},
	}

	for _, record := range records {
		rotated, err := r.rotateRecord(oldKey, newKey, record, modelName)
		if err != nil {
			result.Summary.Failed++
			result.Summary.Errors = append(result.Summary.Errors, RotationFailure{
				ID:            record.ID,
				Message:       err.Error(),
				CorrelationID: cryptoDomain.CorrelationIDFromError(err),
			})
			continue
		}

		result.Summary.Success++
		result.Records = append(result.Records, rotated)
	}

	return result
}

// rotateRecord rotates all encrypted fields of a single record, returning a
// new record and leaving the input untouched. Field names are processed in
// sorted order so failures are reproducible.
func (r *Rotator) rotateRecord(
	oldKey, newKey string,
	record RotationRecord,
	modelName string,
) (RotationRecord, error) {
	fieldNames := make([]string, 0, len(record.Fields))
	for name := range record.Fields {
		fieldNames = append(fieldNames, name)
	}
	sort.Strings(fieldNames)

	rotated := RotationRecord{
		ID:     record.ID,
		Fields: make(map[string]*string, len(record.Fields)),
	}

	for _, name := range fieldNames {
		value := record.Fields[name]

		if value == nil {
			rotated.Fields[name] = nil
			continue
		}

		if !r.cipher.IsEncrypted(*value) {
			rotated.Fields[name] = value
			continue
		}

		newValue, err := r.cipher.RotateKey(oldKey, newKey, *value, name, modelName)
		if err != nil {
			return RotationRecord{}, err
		}
		rotated.Fields[name] = &newValue
	}

	return rotated, nil
}
