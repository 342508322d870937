package rules

import (
	"github.com/harborwatch/fleetcheck-engine/pkg/models"
)

// ComputeOperational rolls per-requirement checklist states up into a
// resource's operational flag.
//
// For a resource without requirements the flag is the inspector's hint
// verbatim. Otherwise the flag is the AND over all declared
// requirements, where a requirement absent from the payload or recorded
// with any state other than "ok" counts as failing. The hint can still
// force a passing rollup to false (a general observation may fail the
// resource), but it can never turn a failing rollup true.
func ComputeOperational(requirements []string, payload models.ChecklistPayload, hint bool) bool {
	if len(requirements) == 0 {
		return hint
	}

	for _, name := range requirements {
		entry, ok := payload[name]
		if !ok || entry.State != models.ChecklistOK {
			return false
		}
	}

	return hint
}
