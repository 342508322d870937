package rules

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/harborwatch/fleetcheck-engine/pkg/models"
)

func TestComputeOperational_AllRequirementsPass(t *testing.T) {
	payload := models.ChecklistPayload{
		"pressure gauge": {State: models.ChecklistOK},
		"seal intact":    {State: models.ChecklistOK},
	}

	assert.True(t, ComputeOperational([]string{"pressure gauge", "seal intact"}, payload, true))
}

func TestComputeOperational_FailedRequirementForcesFalse(t *testing.T) {
	payload := models.ChecklistPayload{
		"pressure gauge": {State: models.ChecklistOK},
		"seal intact":    {State: models.ChecklistFail, Remark: "seal broken"},
	}

	assert.False(t, ComputeOperational([]string{"pressure gauge", "seal intact"}, payload, true))
}

func TestComputeOperational_MissingRequirementCountsAsFailing(t *testing.T) {
	payload := models.ChecklistPayload{
		"pressure gauge": {State: models.ChecklistOK},
	}

	assert.False(t, ComputeOperational([]string{"pressure gauge", "seal intact"}, payload, true))
}

func TestComputeOperational_ExtraPayloadEntriesAreIgnored(t *testing.T) {
	payload := models.ChecklistPayload{
		"pressure gauge": {State: models.ChecklistOK},
		"unrelated":      {State: models.ChecklistFail},
	}

	assert.True(t, ComputeOperational([]string{"pressure gauge"}, payload, true))
}

func TestComputeOperational_UnknownStateCountsAsFailing(t *testing.T) {
	payload := models.ChecklistPayload{
		"pressure gauge": {State: "pendiente"},
	}

	assert.False(t, ComputeOperational([]string{"pressure gauge"}, payload, true))
}

func TestComputeOperational_HintCanForceFalseButNeverTrue(t *testing.T) {
	passing := models.ChecklistPayload{
		"pressure gauge": {State: models.ChecklistOK},
	}
	failing := models.ChecklistPayload{
		"pressure gauge": {State: models.ChecklistFail},
	}

	// General observation fails the resource even though every
	// requirement passed.
	assert.False(t, ComputeOperational([]string{"pressure gauge"}, passing, false))
	// A failing rollup cannot be overridden upward.
	assert.False(t, ComputeOperational([]string{"pressure gauge"}, failing, true))
}

func TestComputeOperational_NoRequirementsUsesHintVerbatim(t *testing.T) {
	assert.True(t, ComputeOperational(nil, models.ChecklistPayload{}, true))
	assert.False(t, ComputeOperational(nil, models.ChecklistPayload{}, false))

	// Payload content is irrelevant without declared requirements.
	payload := models.ChecklistPayload{"anything": {State: models.ChecklistFail}}
	assert.True(t, ComputeOperational([]string{}, payload, true))
}
