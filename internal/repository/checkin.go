package repository

import (
	"context"
	"fmt"
	"log"

	"github.com/aws/aws-xray-sdk-go/xray"
	"github.com/uma-arai/sbcntr-stay/internal/model"
)

// CheckInRepository はチェックイン記録のアーカイブを担当するインターフェースです
type CheckInRepository interface {
	CreateCheckIns(ctx context.Context, runID string, records []model.CheckInRecord) error
}

type CheckInRepositoryImpl struct {
	db *DB
}

func NewCheckInRepository(db *DB) *CheckInRepositoryImpl {
	return &CheckInRepositoryImpl{db: db}
}

type checkInRow struct {
	RunID string `db:"run_id"`
	model.CheckInRecord
}

// CreateCheckIns はチェックイン記録を実行IDと共に保存します
func (r *CheckInRepositoryImpl) CreateCheckIns(ctx context.Context, runID string, records []model.CheckInRecord) error {
	ctx, seg := xray.BeginSubsegment(ctx, "CheckInRepository.CreateCheckIns")
	defer seg.Close(nil)

	query := `
		INSERT INTO check_ins (
			run_id,
			booking_id,
			property_id,
			fee,
			checked_in_at
		) VALUES (
			:run_id,
			:booking_id,
			:property_id,
			:fee,
			:checked_in_at
		)
	`

	tx, err := r.db.BeginTx(ctx)
	if err != nil {
		seg.Close(err)
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	for _, record := range records {
		// PERF: bulk insertにしたほうがパフォーマンス上は望ましい
		_, err = tx.NamedExecContext(ctx, query, checkInRow{RunID: runID, CheckInRecord: record})
		if err != nil {
			if rbErr := tx.Rollback(); rbErr != nil {
				log.Printf("rollback failed: %v, original error: %v", rbErr, err)
			}
			seg.Close(err)
			return fmt.Errorf("failed to create check-in record for booking %d: %w", record.BookingID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		seg.Close(err)
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}
