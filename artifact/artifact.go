// Package artifact contains concrete implementations of core.ArtifactStore.
//
// The canonical interface lives in the core package to keep domain contracts
// central. Implementation packages like this one provide storage backends
// that can be swapped without touching calling code; the runtime uses the
// store to archive delegation outputs and anything tools choose to persist.
package artifact

import "fmt"

// ErrNotFound is returned when no artifact exists for the given
// conversation / id pair.
var ErrNotFound = fmt.Errorf("artifact not found")
