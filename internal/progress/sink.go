package progress

import (
	"context"

	"github.com/kozichsergey/SmetaAI/constants"
)

// Sink receives progress of a long-running task. Implementations must be safe for
// concurrent use.
type Sink interface {
	Start(ctx context.Context, task constants.TaskName, message string)
	Update(ctx context.Context, percent int, message string)
	Complete(ctx context.Context, message string)
	Fail(ctx context.Context, message string)
}

// Noop discards every report.
type Noop struct{}

func (Noop) Start(context.Context, constants.TaskName, string) {}
func (Noop) Update(context.Context, int, string)               {}
func (Noop) Complete(context.Context, string)                  {}
func (Noop) Fail(context.Context, string)                      {}

var _ Sink = Noop{}
