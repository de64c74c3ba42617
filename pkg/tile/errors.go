package tile

import "fmt"

// CatalogError reports a directory that cannot produce a usable tile
// catalog: unreadable, empty of matching tiles, or naming-ambiguous.
type CatalogError struct {
	Dir    string
	Reason string
}

func (e *CatalogError) Error() string {
	return fmt.Sprintf("tile catalog %s: %s", e.Dir, e.Reason)
}
