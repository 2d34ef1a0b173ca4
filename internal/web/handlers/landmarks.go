package handlers

import (
	"net/http"

	"github.com/kozaktomas/facepoke/internal/landmark"
)

// landmarkInfo describes one catalog entry for the API.
type landmarkInfo struct {
	Group  landmark.Group   `json:"group"`
	Params []landmark.Param `json:"params"`
}

// ListLandmarks returns the landmark catalog: every editable region and the
// semantic parameters it accepts.
func ListLandmarks(w http.ResponseWriter, r *http.Request) {
	groups := landmark.Groups()
	out := make([]landmarkInfo, 0, len(groups))
	for _, g := range groups {
		params, err := landmark.ParamsAccepted(g)
		if err != nil {
			respondError(w, http.StatusInternalServerError, "failed to read landmark catalog")
			return
		}
		out = append(out, landmarkInfo{Group: g, Params: params})
	}
	respondJSON(w, http.StatusOK, map[string]any{"landmarks": out})
}
