// Package database defines the storage interfaces for edit history.
// Persistence is optional: with no database configured the service runs
// with history disabled and every interface value stays nil.
package database

import (
	"context"
	"time"

	"github.com/kozaktomas/facepoke/internal/expression"
)

// StoredEdit is one accepted edit as persisted.
type StoredEdit struct {
	ID        int64              `json:"id"`
	SessionID string             `json:"session_id"`
	Group     string             `json:"group"`
	X         float64            `json:"x"`
	Y         float64            `json:"y"`
	Z         float64            `json:"z"`
	Distance  float64            `json:"distance"`
	Params    map[string]float64 `json:"params,omitempty"`
	CreatedAt time.Time          `json:"created_at"`
}

// ExpressionSnapshot is the accumulated expression after an edit, stored
// with its dense param vector so past expressions can be searched by
// similarity.
type ExpressionSnapshot struct {
	ID        int64     `json:"id"`
	SessionID string    `json:"session_id"`
	Vector    []float32 `json:"vector"`
	Distance  float64   `json:"distance,omitempty"` // similarity distance in search results
	CreatedAt time.Time `json:"created_at"`
}

// HistoryWriter records accepted edits. Recording is best-effort from the
// session's point of view: a storage failure never blocks composition.
type HistoryWriter interface {
	SaveEdit(ctx context.Context, sessionID string, edit expression.Edit, snapshot []float32) error
	DeleteSession(ctx context.Context, sessionID string) error
}

// HistoryReader serves the history API.
type HistoryReader interface {
	ListEdits(ctx context.Context, sessionID string, limit int) ([]StoredEdit, error)
	FindSimilarExpressions(ctx context.Context, vector []float32, limit int) ([]ExpressionSnapshot, error)
}
