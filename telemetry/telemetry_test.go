package telemetry

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sundownlabs/teardown/types"
)

func TestNewLoggerComponent(t *testing.T) {
	logger := NewLogger("scheduler")
	require.NotNil(t, logger)
}

func TestLogAttemptFields(t *testing.T) {
	var buf bytes.Buffer
	logger := &Logger{Logger: zerolog.New(&buf)}

	logger.LogAttempt(context.Background(), types.Attempt{
		Resource:      types.ResourceRecord{Type: types.TypeS3Bucket, ID: "b1"},
		Phase:         1,
		Status:        types.StatusSucceeded,
		Reason:        "already absent",
		AttemptNumber: 1,
		StartedAt:     time.Now(),
	})

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "s3_bucket", entry["resource_type"])
	assert.Equal(t, "b1", entry["resource_id"])
	assert.Equal(t, "succeeded", entry["status"])
	assert.Equal(t, "already absent", entry["reason"])
}

func TestLogAttemptFailureLevel(t *testing.T) {
	var buf bytes.Buffer
	logger := &Logger{Logger: zerolog.New(&buf)}

	logger.LogAttempt(context.Background(), types.Attempt{
		Resource: types.ResourceRecord{Type: types.TypeVPC, ID: "vpc-1"},
		Status:   types.StatusFailed,
		Error:    "access denied",
	})

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "warn", entry["level"])
}

func TestRecordHelpersBeforeInit(t *testing.T) {
	// Instruments are nil until InitOTEL runs; helpers must not panic.
	ctx := context.Background()
	RecordAttempt(ctx, "succeeded", "s3_bucket", "us-east-1")
	RecordClassification(ctx, "preserve")
	RecordPhaseDuration(ctx, 1, 0.5)
}
