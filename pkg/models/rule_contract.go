package models

import (
	"bytes"
	"encoding/json"

	"github.com/harborwatch/fleetcheck-engine/pkg/jsonutil"
)

// Comparison operators supported by rule conditions. Anything else in a
// stored contract is treated as never matching.
const (
	OpLess         = "<"
	OpLessEqual    = "<="
	OpEqual        = "=="
	OpGreaterEqual = ">="
	OpGreater      = ">"
)

// RuleCondition is one ordered condition of a rule contract. The first
// condition whose comparison holds decides the evaluation result.
type RuleCondition struct {
	Operator       string  `json:"operador"`
	Value          float64 `json:"valor"`
	ResultQuantity int     `json:"resultado_cantidad"`
	ResultVisible  bool    `json:"resultado_visible"`
}

// RuleContract maps one vessel attribute to a required quantity and
// visibility through an ordered condition list. The wire form is the
// JSONB contract stored on a resource definition; field names are the
// stored vocabulary and are kept verbatim.
type RuleContract struct {
	Attribute        string          `json:"atributo"`
	Conditions       []RuleCondition `json:"condiciones"`
	FallbackQuantity int             `json:"fallback_cantidad"`
	FallbackVisible  bool            `json:"fallback_visible"`
}

// wireCondition tolerates sloppy stored values: valor may arrive as a
// quoted number, and anything non-numeric drops the single condition
// instead of the whole contract.
type wireCondition struct {
	Operator       string                  `json:"operador"`
	Value          jsonutil.FlexibleNumber `json:"valor"`
	ResultQuantity int                     `json:"resultado_cantidad"`
	ResultVisible  bool                    `json:"resultado_visible"`
}

type wireContract struct {
	Attribute        string          `json:"atributo"`
	Conditions       []wireCondition `json:"condiciones"`
	FallbackQuantity int             `json:"fallback_cantidad"`
	FallbackVisible  bool            `json:"fallback_visible"`
}

// ParseRuleContract decodes a stored JSONB contract into its typed
// form. It never fails: empty, null, or unparseable documents yield
// nil, which evaluation treats as the absent-contract case. A
// parseable contract with a missing attribute is kept: its attribute
// never resolves, so evaluation degrades to the contract's own
// fallback pair rather than the absent-contract default. Individual
// conditions with non-numeric comparison values are dropped at load
// time.
func ParseRuleContract(raw []byte) *RuleContract {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return nil
	}

	var w wireContract
	if err := json.Unmarshal(raw, &w); err != nil {
		return nil
	}

	c := &RuleContract{
		Attribute:        w.Attribute,
		FallbackQuantity: w.FallbackQuantity,
		FallbackVisible:  w.FallbackVisible,
	}
	for _, wc := range w.Conditions {
		if !wc.Value.Valid {
			continue
		}
		c.Conditions = append(c.Conditions, RuleCondition{
			Operator:       wc.Operator,
			Value:          wc.Value.Value,
			ResultQuantity: wc.ResultQuantity,
			ResultVisible:  wc.ResultVisible,
		})
	}
	return c
}
