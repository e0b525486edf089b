package testutil_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/turtacn/CaseIntel/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/CaseIntel/internal/testutil"
)

func TestMockLogger(t *testing.T) {
	logger := testutil.NewMockLogger()

	logger.Info("test info", logging.String("key", "value"))

	messages := logger.GetMessages()
	assert.Len(t, messages, 1)
	assert.Equal(t, "info", messages[0].Level)
	assert.Equal(t, "test info", messages[0].Message)
	assert.Equal(t, "value", messages[0].Field("key"))

	logger.Clear()
	assert.Len(t, logger.GetMessages(), 0)

	logger.Error("test error")
	assert.True(t, logger.HasMessage("error", "test error"))
	assert.False(t, logger.HasMessage("info", "test info"))
}

func TestMockLogger_WithSharesRecord(t *testing.T) {
	logger := testutil.NewMockLogger()
	child := logger.With(logging.Stage("extract"))

	child.Warn("case skipped", logging.CaseID(7))

	msgs := logger.GetMessages()
	assert.Len(t, msgs, 1)
	assert.Equal(t, "extract", msgs[0].Field(logging.KeyStage))
	assert.Equal(t, int64(7), msgs[0].Field(logging.KeyCaseID))
	assert.Equal(t, 1, logger.Count("warn", "case skipped"))
}

//Personal.AI order the ending
