package commands

import (
	"context"
	"fmt"
	"log/slog"
	"sort"

	cryptoDomain "github.com/allisson/ledger/internal/crypto/domain"
	cryptoService "github.com/allisson/ledger/internal/crypto/service"
	"github.com/allisson/ledger/internal/database"
	"github.com/allisson/ledger/internal/fieldcrypt"
)

// RunRotateFieldKey re-encrypts every configured encrypted field from oldKey
// to newKey, model by model, in batches.
//
// Each batch is rotated in memory first and the survivors are persisted in a
// single transaction. Records that fail to rotate are logged with their
// correlation id and left untouched in storage; the run continues with the
// rest of the batch. The command returns an error only for malformed keys and
// infrastructure failures, never for individual bad records, and reports the
// per-model and total counts through the logger.
func RunRotateFieldKey(
	ctx context.Context,
	store fieldcrypt.Store,
	txManager database.TxManager,
	rotator *cryptoService.Rotator,
	fieldConfig *fieldcrypt.Config,
	logger *slog.Logger,
	oldKey, newKey string,
	batchSize int,
) error {
	if batchSize <= 0 {
		return fmt.Errorf("batch-size must be greater than 0")
	}

	// Both keys are validated before any row is read.
	if _, err := cryptoDomain.ParseKey(oldKey); err != nil {
		return fmt.Errorf("invalid old key: %w", err)
	}
	if _, err := cryptoDomain.ParseKey(newKey); err != nil {
		return fmt.Errorf("invalid new key: %w", err)
	}

	models := fieldConfig.Models()
	sort.Strings(models)

	totalSuccess := 0
	totalFailed := 0

	for _, model := range models {
		fields := fieldConfig.Fields(model)
		sort.Strings(fields)

		offset := 0
		for {
			records, err := store.FindMany(ctx, model, fieldcrypt.Filter{}, offset, batchSize)
			if err != nil {
				return fmt.Errorf("failed to list %s records: %w", model, err)
			}
			if len(records) == 0 {
				break
			}

			batch, err := buildRotationBatch(model, fields, records)
			if err != nil {
				return err
			}

			result := rotator.RotateBatch(oldKey, newKey, batch, model)

			if err := persistRotatedRecords(ctx, store, txManager, model, result.Records); err != nil {
				return err
			}

			for _, failure := range result.Summary.Errors {
				logger.Warn("record rotation failed",
					slog.String("model", model),
					slog.String("record_id", failure.ID),
					slog.String("message", failure.Message),
					slog.String("correlation_id", failure.CorrelationID),
				)
			}

			totalSuccess += result.Summary.Success
			totalFailed += result.Summary.Failed
			logger.Info("rotated batch",
				slog.String("model", model),
				slog.Int("success", result.Summary.Success),
				slog.Int("failed", result.Summary.Failed),
			)

			if len(records) < batchSize {
				break
			}
			offset += len(records)
		}
	}

	logger.Info("field key rotation completed",
		slog.Int("total_success", totalSuccess),
		slog.Int("total_failed", totalFailed),
	)
	return nil
}

// buildRotationBatch converts stored records into rotation input, keeping
// only the configured fields. Non-string column values are skipped.
func buildRotationBatch(
	model string,
	fields []string,
	records []fieldcrypt.Record,
) ([]cryptoService.RotationRecord, error) {
	batch := make([]cryptoService.RotationRecord, 0, len(records))

	for _, record := range records {
		id, ok := record["id"].(string)
		if !ok || id == "" {
			return nil, fmt.Errorf("%s record without id cannot be rotated", model)
		}

		rotationFields := make(map[string]*string, len(fields))
		for _, field := range fields {
			value, exists := record[field]
			if !exists || value == nil {
				rotationFields[field] = nil
				continue
			}
			stored, ok := value.(string)
			if !ok {
				continue
			}
			rotationFields[field] = &stored
		}

		batch = append(batch, cryptoService.RotationRecord{ID: id, Fields: rotationFields})
	}

	return batch, nil
}

// persistRotatedRecords writes the rotated field values back in a single
// transaction so a batch is stored completely or not at all.
func persistRotatedRecords(
	ctx context.Context,
	store fieldcrypt.Store,
	txManager database.TxManager,
	model string,
	records []cryptoService.RotationRecord,
) error {
	if len(records) == 0 {
		return nil
	}

	return txManager.WithTx(ctx, func(ctx context.Context) error {
		for _, record := range records {
			update := make(fieldcrypt.Record, len(record.Fields))
			for name, value := range record.Fields {
				if value == nil {
					update[name] = nil
					continue
				}
				update[name] = *value
			}

			if _, err := store.Update(ctx, model, record.ID, update); err != nil {
				return fmt.Errorf("failed to persist rotated %s record %s: %w", model, record.ID, err)
			}
		}
		return nil
	})
}
