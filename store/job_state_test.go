package store

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestJobState(t *testing.T) {
	assert := assert.New(t)

	states := []JobState{JobCreated, JobRunning, JobCompleted, JobPartiallyFailed, JobFailed}
	for _, state := range states {
		assert.Equal(state, MapJobState(state.String()))
	}

	assert.Equal(JobState(0), MapJobState("NOT_A_STATE"))

	// JSON round trip
	b, err := json.Marshal(JobPartiallyFailed)
	assert.Nil(err)
	assert.Equal(`"PARTIALLY_FAILED"`, string(b))

	var state JobState
	assert.Nil(json.Unmarshal(b, &state))
	assert.Equal(JobPartiallyFailed, state)

	assert.True(JobCompleted.IsEnded())
	assert.True(JobFailed.IsEnded())
	assert.False(JobRunning.IsEnded())
}
