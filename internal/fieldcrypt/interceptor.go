package fieldcrypt

import (
	"context"

	"github.com/allisson/ledger/internal/crypto/service"
)

// EncryptingStore decorates a Store with transparent field encryption. It is
// the single point where persisted data and the cipher engine meet: callers
// above it and the storage implementation below it only ever see the shapes
// they expect, plaintext above and envelopes below.
//
// Writes encrypt configured string fields that are non-nil and not already
// encrypted, so double-encryption cannot happen even if a caller passes an
// envelope back in. Reads decrypt configured fields on every returned row,
// including rows nested under keys that name a configured model. Models
// absent from the config pass through in both directions.
type EncryptingStore struct {
	store  Store
	cipher service.FieldCipher
	config *Config
}

// NewEncryptingStore wraps a Store with field encryption driven by the given
// cipher and field configuration.
func NewEncryptingStore(store Store, cipher service.FieldCipher, config *Config) *EncryptingStore {
	return &EncryptingStore{
		store:  store,
		cipher: cipher,
		config: config,
	}
}

// Create encrypts configured fields, inserts the record, and decrypts the
// stored row before returning it.
func (s *EncryptingStore) Create(ctx context.Context, model string, record Record) (Record, error) {
	encrypted, err := s.encryptRecord(model, record)
	if err != nil {
		return nil, err
	}

	stored, err := s.store.Create(ctx, model, encrypted)
	if err != nil {
		return nil, err
	}
	return s.decryptRecord(model, stored)
}

// CreateMany encrypts configured fields of every record before insertion.
// Encryption is all-or-nothing: one bad record aborts the whole call before
// anything is written.
func (s *EncryptingStore) CreateMany(ctx context.Context, model string, records []Record) ([]Record, error) {
	encrypted := make([]Record, 0, len(records))
	for _, record := range records {
		out, err := s.encryptRecord(model, record)
		if err != nil {
			return nil, err
		}
		encrypted = append(encrypted, out)
	}

	stored, err := s.store.CreateMany(ctx, model, encrypted)
	if err != nil {
		return nil, err
	}
	return s.decryptRecords(model, stored)
}

// Update encrypts configured fields of the changed columns and decrypts the
// stored row before returning it.
func (s *EncryptingStore) Update(ctx context.Context, model, id string, record Record) (Record, error) {
	encrypted, err := s.encryptRecord(model, record)
	if err != nil {
		return nil, err
	}

	stored, err := s.store.Update(ctx, model, id, encrypted)
	if err != nil {
		return nil, err
	}
	return s.decryptRecord(model, stored)
}

// Upsert encrypts configured fields of both the create and the update record;
// whichever branch the underlying store takes persists envelopes.
func (s *EncryptingStore) Upsert(ctx context.Context, model string, filter Filter, create, update Record) (Record, error) {
	encryptedCreate, err := s.encryptRecord(model, create)
	if err != nil {
		return nil, err
	}
	encryptedUpdate, err := s.encryptRecord(model, update)
	if err != nil {
		return nil, err
	}

	stored, err := s.store.Upsert(ctx, model, filter, encryptedCreate, encryptedUpdate)
	if err != nil {
		return nil, err
	}
	return s.decryptRecord(model, stored)
}

// FindByID fetches one row and decrypts its configured fields.
func (s *EncryptingStore) FindByID(ctx context.Context, model, id string) (Record, error) {
	stored, err := s.store.FindByID(ctx, model, id)
	if err != nil {
		return nil, err
	}
	return s.decryptRecord(model, stored)
}

// FindMany fetches rows and decrypts the configured fields of each.
func (s *EncryptingStore) FindMany(ctx context.Context, model string, filter Filter, offset, limit int) ([]Record, error) {
	stored, err := s.store.FindMany(ctx, model, filter, offset, limit)
	if err != nil {
		return nil, err
	}
	return s.decryptRecords(model, stored)
}

// Delete removes the row. Nothing to encrypt or decrypt.
func (s *EncryptingStore) Delete(ctx context.Context, model, id string) error {
	return s.store.Delete(ctx, model, id)
}

// encryptRecord returns a copy of the record with every configured non-nil
// string field replaced by its envelope. Values that already look encrypted
// pass through unchanged. The input record is never mutated.
func (s *EncryptingStore) encryptRecord(model string, record Record) (Record, error) {
	if record == nil || !s.config.HasModel(model) {
		return record, nil
	}

	out := record.Clone()
	for field, value := range record {
		if !s.config.IsEncryptedField(model, field) {
			continue
		}

		plaintext, ok := stringValue(value)
		if !ok {
			continue
		}
		if s.cipher.IsEncrypted(plaintext) {
			continue
		}

		envelope, err := s.cipher.Encrypt(plaintext, field, model)
		if err != nil {
			return nil, err
		}
		out[field] = envelope
	}
	return out, nil
}

// decryptRecord returns a copy of the record with every configured field
// decrypted. Values under keys that name a configured model, whether a nested
// record or a list of records, are decrypted recursively so read shapes with
// embedded relations come back in plaintext too.
func (s *EncryptingStore) decryptRecord(model string, record Record) (Record, error) {
	if record == nil {
		return nil, nil
	}

	out := record.Clone()
	for field, value := range record {
		switch nested := value.(type) {
		case Record:
			if s.config.HasModel(field) {
				decrypted, err := s.decryptRecord(field, nested)
				if err != nil {
					return nil, err
				}
				out[field] = decrypted
			}
			continue
		case map[string]any:
			if s.config.HasModel(field) {
				decrypted, err := s.decryptRecord(field, Record(nested))
				if err != nil {
					return nil, err
				}
				out[field] = decrypted
			}
			continue
		case []Record:
			if s.config.HasModel(field) {
				decrypted, err := s.decryptRecords(field, nested)
				if err != nil {
					return nil, err
				}
				out[field] = decrypted
			}
			continue
		}

		if !s.config.IsEncryptedField(model, field) {
			continue
		}

		stored, ok := stringValue(value)
		if !ok {
			continue
		}
		if !s.cipher.IsEncrypted(stored) {
			continue
		}

		plaintext, err := s.cipher.Decrypt(stored, field, model)
		if err != nil {
			return nil, err
		}
		out[field] = plaintext
	}
	return out, nil
}

func (s *EncryptingStore) decryptRecords(model string, records []Record) ([]Record, error) {
	out := make([]Record, 0, len(records))
	for _, record := range records {
		decrypted, err := s.decryptRecord(model, record)
		if err != nil {
			return nil, err
		}
		out = append(out, decrypted)
	}
	return out, nil
}

// stringValue unwraps the value types a record field may carry. A nil value
// or nil pointer reports false, leaving NULL columns untouched.
func stringValue(value any) (string, bool) {
	switch v := value.(type) {
	case string:
		return v, true
	case *string:
		if v == nil {
			return "", false
		}
		return *v, true
	default:
		return "", false
	}
}
