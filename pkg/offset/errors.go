package offset

import "fmt"

// OffsetError reports that the grid offset could not be resolved:
// insufficient adjacency data, or an estimate inconsistent with tile
// dimensions.
type OffsetError struct {
	Reason string
}

func (e *OffsetError) Error() string {
	return fmt.Sprintf("offset estimation: %s", e.Reason)
}
