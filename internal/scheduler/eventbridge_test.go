package scheduler

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestScheduleName(t *testing.T) {
	assert.Equal(t, "taskhunt-stop-abc123", scheduleName("abc123"))
}

func TestAtExpressionRendersUTCWithoutZone(t *testing.T) {
	loc := time.FixedZone("CET", 60*60)
	fireAt := time.Date(2023, 3, 1, 13, 30, 0, 0, loc)

	assert.Equal(t, "at(2023-03-01T12:30:00)", atExpression(fireAt))
}
