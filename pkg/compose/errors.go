package compose

import "fmt"

// ComposeError reports a failure to produce the output mosaic, such as a
// canvas exceeding the memory budget or an unsupported output format.
type ComposeError struct {
	Reason string
}

func (e *ComposeError) Error() string {
	return fmt.Sprintf("compose mosaic: %s", e.Reason)
}
