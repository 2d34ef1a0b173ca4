package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/pgvector/pgvector-go"

	"github.com/kozaktomas/facepoke/internal/database"
	"github.com/kozaktomas/facepoke/internal/expression"
)

// HistoryRepository provides PostgreSQL-backed edit history with pgvector
// similarity search over expression snapshots.
type HistoryRepository struct {
	pool *Pool
}

// NewHistoryRepository creates a new PostgreSQL history repository
func NewHistoryRepository(pool *Pool) *HistoryRepository {
	return &HistoryRepository{pool: pool}
}

// SaveEdit stores one accepted edit and the accumulated expression snapshot
// it produced, in a single transaction.
func (r *HistoryRepository) SaveEdit(ctx context.Context, sessionID string, edit expression.Edit, snapshot []float32) error {
	var params []byte
	if len(edit.Params) > 0 {
		var err error
		params, err = json.Marshal(edit.Params)
		if err != nil {
			return fmt.Errorf("marshal edit params: %w", err)
		}
	}

	tx, err := r.pool.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO edits (session_id, landmark_group, x, y, z, distance, params)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, sessionID, string(edit.Group), edit.Vector.X, edit.Vector.Y, edit.Vector.Z, edit.Distance, nullableJSON(params))
	if err != nil {
		return fmt.Errorf("insert edit: %w", err)
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO expression_snapshots (session_id, params)
		VALUES ($1, $2::vector)
	`, sessionID, pgvector.NewVector(snapshot))
	if err != nil {
		return fmt.Errorf("insert expression snapshot: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// DeleteSession removes all history for a session.
func (r *HistoryRepository) DeleteSession(ctx context.Context, sessionID string) error {
	if _, err := r.pool.Exec(ctx, "DELETE FROM edits WHERE session_id = $1", sessionID); err != nil {
		return fmt.Errorf("delete edits: %w", err)
	}
	if _, err := r.pool.Exec(ctx, "DELETE FROM expression_snapshots WHERE session_id = $1", sessionID); err != nil {
		return fmt.Errorf("delete expression snapshots: %w", err)
	}
	return nil
}

// ListEdits returns the session's edits in application order.
func (r *HistoryRepository) ListEdits(ctx context.Context, sessionID string, limit int) ([]database.StoredEdit, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, session_id, landmark_group, x, y, z, distance, params, created_at
		FROM edits
		WHERE session_id = $1
		ORDER BY id
		LIMIT $2
	`, sessionID, limit)
	if err != nil {
		return nil, fmt.Errorf("query edits: %w", err)
	}
	defer rows.Close()

	var edits []database.StoredEdit
	for rows.Next() {
		var e database.StoredEdit
		var params sql.NullString

		if err := rows.Scan(&e.ID, &e.SessionID, &e.Group, &e.X, &e.Y, &e.Z, &e.Distance, &params, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan edit: %w", err)
		}
		if params.Valid {
			if err := json.Unmarshal([]byte(params.String), &e.Params); err != nil {
				return nil, fmt.Errorf("unmarshal edit params: %w", err)
			}
		}
		edits = append(edits, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate edits: %w", err)
	}
	return edits, nil
}

// FindSimilarExpressions finds stored snapshots closest to the given param
// vector by cosine distance.
func (r *HistoryRepository) FindSimilarExpressions(ctx context.Context, vector []float32, limit int) ([]database.ExpressionSnapshot, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, session_id, params, params <=> $1::vector AS distance, created_at
		FROM expression_snapshots
		ORDER BY distance
		LIMIT $2
	`, pgvector.NewVector(vector), limit)
	if err != nil {
		return nil, fmt.Errorf("query similar expressions: %w", err)
	}
	defer rows.Close()

	var snapshots []database.ExpressionSnapshot
	for rows.Next() {
		var s database.ExpressionSnapshot
		var vec pgvector.Vector

		if err := rows.Scan(&s.ID, &s.SessionID, &vec, &s.Distance, &s.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan expression snapshot: %w", err)
		}
		s.Vector = vec.Slice()
		snapshots = append(snapshots, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate expression snapshots: %w", err)
	}
	return snapshots, nil
}

// nullableJSON maps empty JSON to SQL NULL.
func nullableJSON(b []byte) any {
	if len(b) == 0 {
		return nil
	}
	return string(b)
}

// Verify interface compliance
var _ database.HistoryWriter = (*HistoryRepository)(nil)
var _ database.HistoryReader = (*HistoryRepository)(nil)
