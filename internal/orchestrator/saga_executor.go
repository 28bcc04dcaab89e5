package orchestrator

import (
	"context"
	"errors"
	"fmt"

	"github.com/compozy/releasepipe/internal/domain"
	"github.com/compozy/releasepipe/internal/repository"
	"github.com/google/uuid"
	"github.com/sethvargo/go-retry"
	"go.uber.org/zap"
)

// ErrHalt is returned by a step to stop the saga early. The step is recorded
// as completed and the saga finishes without error.
var ErrHalt = errors.New("saga halted")

// CompensateFunc undoes a completed operation from its rollback data.
type CompensateFunc func(ctx context.Context, rollbackData map[string]any) error

// SagaStep represents a single step in the saga workflow
type SagaStep struct {
	Name   string
	Type   domain.OperationType
	Plugin string
	// Retryable steps are retried with exponential backoff
	Retryable bool
	Execute   func(ctx context.Context) (rollbackData map[string]any, err error)
	// Compensate overrides the compensation registered for Type
	Compensate CompensateFunc

	id string
}

// SagaExecutor manages the execution of saga workflows with rollback support
type SagaExecutor struct {
	sessionID      string
	stateRepo      repository.StateRepository
	state          *domain.RollbackState
	steps          []SagaStep
	compensations  map[domain.OperationType]CompensateFunc
	enableRollback bool
	halted         bool
	logger         *zap.Logger
}

// NewSagaExecutor creates a new saga executor. Without rollback the state is
// neither persisted nor compensated.
func NewSagaExecutor(stateRepo repository.StateRepository, enableRollback bool, logger *zap.Logger) *SagaExecutor {
	sessionID := uuid.New().String()
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SagaExecutor{
		sessionID:      sessionID,
		stateRepo:      stateRepo,
		state:          domain.NewRollbackState(sessionID),
		steps:          []SagaStep{},
		compensations:  map[domain.OperationType]CompensateFunc{},
		enableRollback: enableRollback,
		logger:         logger.With(zap.String("session", sessionID)),
	}
}

// LoadExistingSaga loads an existing saga from state. An empty session ID
// selects the most recent session.
func LoadExistingSaga(
	ctx context.Context,
	stateRepo repository.StateRepository,
	sessionID string,
	logger *zap.Logger,
) (*SagaExecutor, error) {
	var (
		state *domain.RollbackState
		err   error
	)
	if sessionID == "" {
		state, err = stateRepo.LoadLatest(ctx)
	} else {
		state, err = stateRepo.Load(ctx, sessionID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load saga state: %w", err)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SagaExecutor{
		sessionID:      state.SessionID,
		stateRepo:      stateRepo,
		state:          state,
		steps:          []SagaStep{},
		compensations:  map[domain.OperationType]CompensateFunc{},
		enableRollback: true,
		logger:         logger.With(zap.String("session", state.SessionID)),
	}, nil
}

// AddStep adds a step to the saga
func (s *SagaExecutor) AddStep(step SagaStep) {
	step.id = s.state.AddOperation(step.Type, step.Name, step.Plugin)
	s.steps = append(s.steps, step)
}

// RegisterCompensation sets the compensation used for every operation of the
// given type that has no step-level Compensate, including replayed sessions.
func (s *SagaExecutor) RegisterCompensation(opType domain.OperationType, fn CompensateFunc) {
	s.compensations[opType] = fn
}

// Execute runs the saga workflow with automatic rollback on failure
func (s *SagaExecutor) Execute(ctx context.Context) error {
	s.state.Status = domain.WorkflowStatusRunning
	s.persist(ctx, "initial")
	for i := range s.steps {
		step := &s.steps[i]
		err := s.executeStep(ctx, step)
		if errors.Is(err, ErrHalt) {
			s.halted = true
			s.logger.Debug("Saga halted", zap.String("step", step.Name))
			break
		}
		if err != nil {
			if !s.enableRollback {
				return fmt.Errorf("step '%s' failed: %w", step.Name, err)
			}
			s.persist(ctx, "before rollback")
			rollbackCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), RollbackTimeout)
			rollbackErr := s.rollback(rollbackCtx)
			cancel()
			if rollbackErr != nil {
				return fmt.Errorf("step '%s' failed: %w, rollback also failed: %v",
					step.Name, err, rollbackErr)
			}
			return fmt.Errorf("step '%s' failed: %w", step.Name, err)
		}
	}
	s.state.Status = domain.WorkflowStatusCompleted
	s.persist(ctx, "final")
	return nil
}

// executeStep executes a single saga step, retrying it when allowed
func (s *SagaExecutor) executeStep(ctx context.Context, step *SagaStep) error {
	s.state.MarkOperationStarted(step.id)
	s.persist(ctx, "operation started")
	var rollbackData map[string]any
	run := func(runCtx context.Context) error {
		if err := runCtx.Err(); err != nil {
			return err
		}
		data, err := step.Execute(runCtx)
		rollbackData = data
		return err
	}
	var err error
	if step.Retryable {
		strategy := retry.WithMaxRetries(DefaultRetryCount, retry.NewExponential(DefaultRetryDelay))
		err = retry.Do(ctx, strategy, func(retryCtx context.Context) error {
			execErr := run(retryCtx)
			if execErr == nil || errors.Is(execErr, ErrHalt) {
				return execErr
			}
			s.logger.Warn("Step failed, retrying", zap.String("step", step.Name), zap.Error(execErr))
			return retry.RetryableError(execErr)
		})
	} else {
		err = run(ctx)
	}
	if err != nil && !errors.Is(err, ErrHalt) {
		s.state.MarkOperationFailed(step.id, err, rollbackData)
		return err
	}
	s.state.MarkOperationCompleted(step.id, rollbackData)
	s.persist(ctx, "operation completed")
	return err
}

// Rollback compensates completed operations, and failed ones that recorded
// partial changes, newest first
func (s *SagaExecutor) Rollback(ctx context.Context) error {
	return s.rollback(ctx)
}

func (s *SagaExecutor) rollback(ctx context.Context) error {
	s.logger.Info("Starting rollback")
	ops := s.state.GetCompensableOperations()
	if len(ops) == 0 {
		s.logger.Info("No operations to roll back")
		s.state.Status = domain.WorkflowStatusRolledBack
		s.persist(ctx, "after rollback")
		return nil
	}
	for _, op := range ops {
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("rollback canceled: %w", err)
		}
		compensate := s.compensationFor(op)
		if compensate == nil {
			continue
		}
		s.logger.Info("Rolling back", zap.String("operation", op.ID), zap.String("name", op.Name))
		if err := s.executeCompensation(ctx, compensate, op.RollbackData); err != nil {
			s.logger.Error("Failed to roll back", zap.String("operation", op.ID), zap.Error(err))
			return fmt.Errorf("rollback failed for %s: %w", op.Name, err)
		}
		s.state.MarkOperationRolledBack(op.ID)
		s.persist(ctx, "during rollback")
	}
	s.state.Status = domain.WorkflowStatusRolledBack
	s.persist(ctx, "after rollback")
	s.logger.Info("Rollback completed")
	return nil
}

func (s *SagaExecutor) compensationFor(op domain.OperationRecord) CompensateFunc {
	for i := range s.steps {
		if s.steps[i].id == op.ID && s.steps[i].Compensate != nil {
			return s.steps[i].Compensate
		}
	}
	return s.compensations[op.Type]
}

// executeCompensation executes a compensating action with retry
func (s *SagaExecutor) executeCompensation(
	ctx context.Context,
	compensate CompensateFunc,
	rollbackData map[string]any,
) error {
	retryStrategy := retry.WithMaxRetries(DefaultRetryCount, retry.NewExponential(DefaultRetryDelay))
	return retry.Do(ctx, retryStrategy, func(retryCtx context.Context) error {
		if err := retryCtx.Err(); err != nil {
			return err
		}
		if err := compensate(retryCtx, rollbackData); err != nil {
			return retry.RetryableError(err)
		}
		return nil
	})
}

// persist saves the state when rollback is enabled. Failures are logged only.
func (s *SagaExecutor) persist(ctx context.Context, stage string) {
	if !s.enableRollback {
		return
	}
	if err := s.stateRepo.Save(ctx, s.state); err != nil {
		s.logger.Warn("Failed to save rollback state", zap.String("stage", stage), zap.Error(err))
	}
}

// GetState returns the current saga state
func (s *SagaExecutor) GetState() *domain.RollbackState {
	return s.state
}

// SessionID identifies the persisted session.
func (s *SagaExecutor) SessionID() string {
	return s.sessionID
}

// Halted reports whether a step stopped the saga early.
func (s *SagaExecutor) Halted() bool {
	return s.halted
}

// SetRelease records the version and tag being released
func (s *SagaExecutor) SetRelease(version, gitTag string) {
	s.state.Version = version
	s.state.GitTag = gitTag
}

// SetBranch records the branch being released
func (s *SagaExecutor) SetBranch(branch string) {
	s.state.Branch = branch
}
