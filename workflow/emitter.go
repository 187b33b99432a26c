package workflow

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// Emitter receives workflow lifecycle notifications. It is defined here
// and implemented by the engine on top of the extension registry.
type Emitter interface {
	EmitWorkflowStarted(ctx context.Context, s *State)
	EmitStepSubmitted(ctx context.Context, s *State, index int)
	EmitReconciliationFailed(ctx context.Context, s *State, total decimal.Decimal)
	EmitWorkflowCompleted(ctx context.Context, s *State, res *Result, elapsed time.Duration)
	EmitWorkflowAbandoned(ctx context.Context, s *State)
}

type nopEmitter struct{}

func (nopEmitter) EmitWorkflowStarted(context.Context, *State) {}
func (nopEmitter) EmitStepSubmitted(context.Context, *State, int) {}
func (nopEmitter) EmitReconciliationFailed(context.Context, *State, decimal.Decimal) {}
func (nopEmitter) EmitWorkflowCompleted(context.Context, *State, *Result, time.Duration) {}
func (nopEmitter) EmitWorkflowAbandoned(context.Context, *State) {}
