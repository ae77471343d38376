package repository

import (
	"context"
	"database/sql"
	"fmt"
	"log"

	"github.com/aws/aws-xray-sdk-go/xray"
	"github.com/jmoiron/sqlx"
)

// schema はアーカイブ用テーブルの定義です
// セッション状態の復元には使いません
const schema = `
CREATE TABLE IF NOT EXISTS notifications (
	id         SERIAL PRIMARY KEY,
	run_id     TEXT NOT NULL,
	user_id    TEXT NOT NULL,
	title      TEXT NOT NULL,
	message    TEXT NOT NULL,
	is_read    BOOLEAN NOT NULL DEFAULT FALSE,
	type       TEXT NOT NULL,
	created_at TIMESTAMPTZ NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL
);
CREATE TABLE IF NOT EXISTS check_ins (
	run_id        TEXT NOT NULL,
	booking_id    INTEGER NOT NULL,
	property_id   INTEGER NOT NULL,
	fee           INTEGER NOT NULL,
	checked_in_at TIMESTAMPTZ NOT NULL,
	PRIMARY KEY (run_id, booking_id)
);`

type DB struct {
	*sqlx.DB
}

// Close closes the database connection
func (db *DB) Close() error {
	_, seg := xray.BeginSegment(context.Background(), "DB.Close")
	defer seg.Close(nil)

	return db.DB.Close()
}

// BeginTx starts a new transaction
func (db *DB) BeginTx(ctx context.Context) (*sqlx.Tx, error) {
	ctx, seg := xray.BeginSubsegment(ctx, "DB.BeginTx")
	defer seg.Close(nil)

	return db.DB.BeginTxx(ctx, nil)
}

// ExecContext wraps sqlx.DB.ExecContext with X-Ray tracing
func (db *DB) ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error) {
	ctx, seg := xray.BeginSubsegment(ctx, "DB.Exec")
	if seg == nil {
		return db.DB.ExecContext(ctx, query, args...)
	}
	defer seg.Close(nil)

	// クエリをメタデータとして追加
	if err := seg.AddMetadata("query", query); err != nil {
		log.Printf("Failed to add query metadata: %v", err)
	}

	result, err := db.DB.ExecContext(ctx, query, args...)
	if err != nil {
		seg.Close(err)
		return nil, err
	}

	return result, nil
}

// EnsureSchema はアーカイブ用テーブルがなければ作成します
func (db *DB) EnsureSchema(ctx context.Context) error {
	if _, err := db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("failed to ensure schema: %w", err)
	}
	return nil
}
