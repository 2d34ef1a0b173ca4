package preset

import (
	"errors"
	"math"
	"sync"

	"github.com/coder/hnsw"

	"github.com/kozaktomas/facepoke/internal/expression"
)

// indexMaxNeighbors is small because the catalog is tiny; the index exists
// for the lookup API, not for scale.
const indexMaxNeighbors = 8

// Match is one result of a nearest-emotion query.
type Match struct {
	Name     string  `json:"name"`
	Distance float64 `json:"distance"`
}

// EmotionIndex answers "which canned emotion does this expression resemble"
// by nearest-neighbor search over each preset's accumulated param vector.
type EmotionIndex struct {
	graph *hnsw.Graph[string]
	mu    sync.RWMutex
}

// NewEmotionIndex builds the index from the embedded catalog.
func NewEmotionIndex() *EmotionIndex {
	g := hnsw.NewGraph[string]()
	g.M = indexMaxNeighbors
	g.Ml = 1.0 / float64(indexMaxNeighbors)
	g.Distance = hnsw.CosineDistance

	for _, p := range All() {
		g.Add(hnsw.MakeNode(p.Name, expression.ParamVector(p.Accumulate())))
	}

	return &EmotionIndex{graph: g}
}

// Nearest returns up to k presets closest to the accumulated params, best
// first. A zero expression has no direction to compare, so it matches
// nothing.
func (idx *EmotionIndex) Nearest(params expression.Params, k int) ([]Match, error) {
	query := expression.ParamVector(params)
	if isZeroVector(query) {
		return nil, errors.New("expression is empty")
	}

	idx.mu.RLock()
	defer idx.mu.RUnlock()

	neighbors := idx.graph.Search(query, k)
	matches := make([]Match, 0, len(neighbors))
	for _, n := range neighbors {
		matches = append(matches, Match{
			Name:     n.Key,
			Distance: float64(hnsw.CosineDistance(query, n.Value)),
		})
	}
	return matches, nil
}

func isZeroVector(v []float32) bool {
	var sum float64
	for _, c := range v {
		sum += float64(c) * float64(c)
	}
	return math.Sqrt(sum) == 0
}
