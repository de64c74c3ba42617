package layout

import "fmt"

// GridError reports a tile set that violates the uniform-grid assumption,
// most commonly a tile whose dimensions disagree with the rest.
type GridError struct {
	Path   string // offending tile, when one is identifiable
	Reason string
}

func (e *GridError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("grid layout: %s: %s", e.Path, e.Reason)
	}
	return fmt.Sprintf("grid layout: %s", e.Reason)
}
