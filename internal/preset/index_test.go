package preset

import (
	"testing"

	"github.com/kozaktomas/facepoke/internal/expression"
)

func TestEmotionIndexFindsExactPreset(t *testing.T) {
	idx := NewEmotionIndex()

	for _, p := range All() {
		matches, err := idx.Nearest(p.Accumulate(), 1)
		if err != nil {
			t.Fatalf("Nearest(%s): %v", p.Name, err)
		}
		if len(matches) == 0 {
			t.Fatalf("Nearest(%s): no matches", p.Name)
		}
		if matches[0].Name != p.Name {
			t.Errorf("Nearest(%s): got %s", p.Name, matches[0].Name)
		}
		if matches[0].Distance > 1e-6 {
			t.Errorf("Nearest(%s): expected near-zero distance, got %v", p.Name, matches[0].Distance)
		}
	}
}

func TestEmotionIndexScaledExpression(t *testing.T) {
	idx := NewEmotionIndex()

	// Cosine distance ignores magnitude, so a half-strength angry face
	// still reads as angry.
	angry, _ := Lookup("Angry")
	params := make(expression.Params)
	for name, value := range angry.Accumulate() {
		params[name] = value / 2
	}

	matches, err := idx.Nearest(params, 3)
	if err != nil {
		t.Fatalf("Nearest: %v", err)
	}
	if matches[0].Name != "Angry" {
		t.Errorf("expected Angry, got %s", matches[0].Name)
	}
}

func TestEmotionIndexEmptyExpression(t *testing.T) {
	idx := NewEmotionIndex()
	if _, err := idx.Nearest(expression.Params{}, 1); err == nil {
		t.Error("expected error for empty expression")
	}
}
