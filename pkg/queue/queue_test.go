package queue

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/feichai0017/diagnosis-extractor/internal/models"
)

func TestSummaryFromTaskInfo(t *testing.T) {
	requested := time.Date(2026, 10, 1, 9, 0, 0, 0, time.UTC)
	payload, err := json.Marshal(RunRequest{RunID: "r1", InputDir: "./uploads", OutputCSV: "out.csv", RequestedAt: requested})
	require.NoError(t, err)

	tests := []struct {
		state asynq.TaskState
		want  models.RunStatus
	}{
		{asynq.TaskStatePending, models.RunPending},
		{asynq.TaskStateScheduled, models.RunPending},
		{asynq.TaskStateActive, models.RunRunning},
		{asynq.TaskStateCompleted, models.RunCompleted},
		{asynq.TaskStateArchived, models.RunFailed},
	}
	for _, tt := range tests {
		summary := summaryFromTaskInfo(&asynq.TaskInfo{ID: "r1", State: tt.state, Payload: payload, LastErr: "boom"})
		assert.Equal(t, tt.want, summary.Status, tt.state.String())
		assert.Equal(t, "./uploads", summary.InputDir)
		assert.Equal(t, requested, summary.StartedAt)
	}

	failed := summaryFromTaskInfo(&asynq.TaskInfo{ID: "r1", State: asynq.TaskStateArchived, LastErr: "boom"})
	assert.Equal(t, []string{"boom"}, failed.Errors)
}

func TestSummaryKey(t *testing.T) {
	assert.Equal(t, "batch_run:abc", summaryKey("abc"))
}
