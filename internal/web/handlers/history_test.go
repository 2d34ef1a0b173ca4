package handlers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/kozaktomas/facepoke/internal/database"
	"github.com/kozaktomas/facepoke/internal/expression"
)

type fakeHistoryReader struct {
	edits     []database.StoredEdit
	snapshots []database.ExpressionSnapshot
	lastQuery []float32
}

func (f *fakeHistoryReader) ListEdits(_ context.Context, _ string, _ int) ([]database.StoredEdit, error) {
	return f.edits, nil
}

func (f *fakeHistoryReader) FindSimilarExpressions(_ context.Context, params []float32, _ int) ([]database.ExpressionSnapshot, error) {
	f.lastQuery = params
	return f.snapshots, nil
}

func TestHistoryUnavailable(t *testing.T) {
	manager, sess := setupSessionManager(t)
	handler := NewHistoryHandler(manager, nil)

	req := requestWithChiParams(httptest.NewRequest(http.MethodGet, "/api/v1/sessions/"+sess.ID+"/history", nil),
		map[string]string{"id": sess.ID})
	recorder := httptest.NewRecorder()

	handler.List(recorder, req)

	assertStatusCode(t, recorder, http.StatusServiceUnavailable)
	assertJSONError(t, recorder, "edit history is not configured")
}

func TestHistoryList(t *testing.T) {
	manager, sess := setupSessionManager(t)
	reader := &fakeHistoryReader{
		edits: []database.StoredEdit{
			{SessionID: sess.ID, Group: "lips", Distance: 0.4},
		},
	}
	handler := NewHistoryHandler(manager, reader)

	req := requestWithChiParams(httptest.NewRequest(http.MethodGet, "/api/v1/sessions/"+sess.ID+"/history", nil),
		map[string]string{"id": sess.ID})
	recorder := httptest.NewRecorder()

	handler.List(recorder, req)

	assertStatusCode(t, recorder, http.StatusOK)

	var result struct {
		Edits []database.StoredEdit `json:"edits"`
	}
	parseJSONResponse(t, recorder, &result)
	if len(result.Edits) != 1 || result.Edits[0].Group != "lips" {
		t.Errorf("unexpected edits: %+v", result.Edits)
	}
}

func TestSimilarEmptyExpression(t *testing.T) {
	manager, sess := setupSessionManager(t)
	handler := NewHistoryHandler(manager, &fakeHistoryReader{})

	req := requestWithChiParams(httptest.NewRequest(http.MethodGet, "/api/v1/sessions/"+sess.ID+"/similar", nil),
		map[string]string{"id": sess.ID})
	recorder := httptest.NewRecorder()

	handler.Similar(recorder, req)

	assertStatusCode(t, recorder, http.StatusBadRequest)
	assertJSONError(t, recorder, "expression is empty")
}

func TestSimilarQueriesCurrentExpression(t *testing.T) {
	manager, sess := setupSessionManager(t)
	reader := &fakeHistoryReader{
		snapshots: []database.ExpressionSnapshot{{SessionID: sess.ID, Distance: 0.02}},
	}
	handler := NewHistoryHandler(manager, reader)

	if _, err := sess.ApplyEdit("lips", expression.Vector{X: 0.3}, nil, expression.ModePrimary); err != nil {
		t.Fatalf("ApplyEdit: %v", err)
	}

	req := requestWithChiParams(httptest.NewRequest(http.MethodGet, "/api/v1/sessions/"+sess.ID+"/similar", nil),
		map[string]string{"id": sess.ID})
	recorder := httptest.NewRecorder()

	handler.Similar(recorder, req)

	assertStatusCode(t, recorder, http.StatusOK)
	if len(reader.lastQuery) != len(expression.ParamVector(sess.Accumulate())) {
		t.Errorf("unexpected query vector: %v", reader.lastQuery)
	}

	var result struct {
		Snapshots []database.ExpressionSnapshot `json:"snapshots"`
	}
	parseJSONResponse(t, recorder, &result)
	if len(result.Snapshots) != 1 {
		t.Errorf("expected 1 snapshot, got %d", len(result.Snapshots))
	}
}
