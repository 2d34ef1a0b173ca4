package expression

import "fmt"

// Mode tags how an edit merges into the expression state. It is a closed
// set; new merge semantics get a new constant and a case in State.Apply
// without touching call sites.
type Mode string

const (
	// ModePrimary replaces any previous edit for the same group
	// (last-write-wins). This is the only mode the interaction layer
	// produces today.
	ModePrimary Mode = "PRIMARY"
)

// ParseMode validates a raw mode tag. An empty tag defaults to PRIMARY so
// interaction payloads can omit it.
func ParseMode(raw string) (Mode, error) {
	switch raw {
	case "", string(ModePrimary):
		return ModePrimary, nil
	default:
		return "", fmt.Errorf("unsupported action mode %q", raw)
	}
}
