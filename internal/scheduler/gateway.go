package scheduler

import (
	"context"
	"errors"
	"time"
)

// ErrScheduleNotFound marks a delete against a schedule that no longer
// exists. Callers treat it as benign: the timer already fired or was never
// created.
var ErrScheduleNotFound = errors.New("schedule not found")

// Target identifies what the external scheduler invokes when the timer
// fires.
type Target struct {
	Arn     string `json:"arn"`
	RoleArn string `json:"roleArn"`
}

// Gateway registers and cancels one-shot timers that force a running game to
// end. Create returns an opaque handle for the registered schedule.
type Gateway interface {
	Create(ctx context.Context, gameId string, fireAt time.Time, target Target, payload map[string]any) (string, error)
	Delete(ctx context.Context, gameId string) error
}
