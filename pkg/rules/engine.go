// Package rules holds the pure evaluation logic of the engine: rule
// contract evaluation against vessel attributes and checklist rollup.
// Nothing here touches storage or keeps state, so every function is
// safe to call concurrently.
package rules

import (
	"github.com/harborwatch/fleetcheck-engine/pkg/jsonutil"
	"github.com/harborwatch/fleetcheck-engine/pkg/models"
)

// Evaluate derives (quantity, visible) for one resource definition from
// a vessel's attributes.
//
// A nil contract yields (0, true). A missing or nil attribute yields
// the contract's fallback pair. Otherwise conditions are tried in
// declaration order and the first satisfied one wins; a condition whose
// comparison cannot be made (uncoercible attribute value, unknown
// operator) is skipped rather than failing. Evaluation never errors:
// malformed input only ever degrades to a conservative default.
func Evaluate(attrs map[string]any, c *models.RuleContract) (int, bool) {
	if c == nil {
		return 0, true
	}

	raw, ok := attrs[c.Attribute]
	if !ok || raw == nil {
		return c.FallbackQuantity, c.FallbackVisible
	}

	for _, cond := range c.Conditions {
		v, ok := jsonutil.ToNumber(raw)
		if !ok {
			continue
		}
		if holds(cond.Operator, v, cond.Value) {
			return cond.ResultQuantity, cond.ResultVisible
		}
	}

	return c.FallbackQuantity, c.FallbackVisible
}

func holds(op string, attr, threshold float64) bool {
	switch op {
	case models.OpLess:
		return attr < threshold
	case models.OpLessEqual:
		return attr <= threshold
	case models.OpEqual:
		return attr == threshold
	case models.OpGreaterEqual:
		return attr >= threshold
	case models.OpGreater:
		return attr > threshold
	default:
		return false
	}
}
