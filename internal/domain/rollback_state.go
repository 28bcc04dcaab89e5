package domain

import (
	"fmt"
	"time"
)

// WorkflowStatus represents the overall status of a release workflow
type WorkflowStatus string

const (
	WorkflowStatusPending    WorkflowStatus = "pending"
	WorkflowStatusRunning    WorkflowStatus = "running"
	WorkflowStatusCompleted  WorkflowStatus = "completed"
	WorkflowStatusFailed     WorkflowStatus = "failed"
	WorkflowStatusRolledBack WorkflowStatus = "rolled_back"
)

// OperationStatus represents the status of an individual operation
type OperationStatus string

const (
	OperationStatusPending    OperationStatus = "pending"
	OperationStatusRunning    OperationStatus = "running"
	OperationStatusCompleted  OperationStatus = "completed"
	OperationStatusFailed     OperationStatus = "failed"
	OperationStatusRolledBack OperationStatus = "rolled_back"
)

// OperationType identifies the lifecycle phase an operation belongs to
type OperationType string

const (
	OperationTypeVerifyConditions OperationType = "verify_conditions"
	OperationTypeAnalyzeCommits   OperationType = "analyze_commits"
	OperationTypeVerifyRelease    OperationType = "verify_release"
	OperationTypeGenerateNotes    OperationType = "generate_notes"
	OperationTypePrepare          OperationType = "prepare"
	OperationTypeCreateTag        OperationType = "create_tag"
	OperationTypePushTag          OperationType = "push_tag"
	OperationTypePublish          OperationType = "publish"
)

// RollbackState represents the state of a release workflow for rollback purposes
type RollbackState struct {
	SessionID  string            `json:"session_id"`
	StartedAt  time.Time         `json:"started_at"`
	UpdatedAt  time.Time         `json:"updated_at"`
	Version    string            `json:"version"`
	GitTag     string            `json:"git_tag"`
	Branch     string            `json:"branch"`
	Operations []OperationRecord `json:"operations"`
	Status     WorkflowStatus    `json:"status"`
	Error      string            `json:"error,omitempty"`
}

// OperationRecord represents a single plugin invocation in the workflow
type OperationRecord struct {
	ID           string          `json:"id"`
	Name         string          `json:"name"`
	Type         OperationType   `json:"type"`
	Plugin       string          `json:"plugin,omitempty"`
	Status       OperationStatus `json:"status"`
	StartedAt    time.Time       `json:"started_at"`
	CompletedAt  *time.Time      `json:"completed_at,omitempty"`
	RollbackData map[string]any  `json:"rollback_data,omitempty"`
	Error        string          `json:"error,omitempty"`
}

// NewRollbackState creates a new rollback state
func NewRollbackState(sessionID string) *RollbackState {
	now := time.Now()
	return &RollbackState{
		SessionID:  sessionID,
		StartedAt:  now,
		UpdatedAt:  now,
		Operations: []OperationRecord{},
		Status:     WorkflowStatusPending,
	}
}

// AddOperation appends a pending operation and returns its ID. IDs are
// positional so several operations may share a type.
func (rs *RollbackState) AddOperation(opType OperationType, name, plugin string) string {
	op := OperationRecord{
		ID:        fmt.Sprintf("%03d_%s", len(rs.Operations), opType),
		Name:      name,
		Type:      opType,
		Plugin:    plugin,
		Status:    OperationStatusPending,
		StartedAt: time.Now(),
	}
	rs.Operations = append(rs.Operations, op)
	rs.UpdatedAt = time.Now()
	return op.ID
}

// Operation returns the record with the given ID, or nil.
func (rs *RollbackState) Operation(id string) *OperationRecord {
	for i := range rs.Operations {
		if rs.Operations[i].ID == id {
			return &rs.Operations[i]
		}
	}
	return nil
}

// GetCompensableOperations returns, newest first, the completed operations
// and the failed ones that left rollback data behind.
func (rs *RollbackState) GetCompensableOperations() []OperationRecord {
	var ops []OperationRecord
	for i := len(rs.Operations) - 1; i >= 0; i-- {
		op := rs.Operations[i]
		switch {
		case op.Status == OperationStatusCompleted:
			ops = append(ops, op)
		case op.Status == OperationStatusFailed && len(op.RollbackData) > 0:
			ops = append(ops, op)
		}
	}
	return ops
}

// MarkOperationStarted marks an operation as started
func (rs *RollbackState) MarkOperationStarted(id string) {
	if op := rs.Operation(id); op != nil && op.Status == OperationStatusPending {
		op.Status = OperationStatusRunning
		op.StartedAt = time.Now()
		rs.UpdatedAt = time.Now()
	}
}

// MarkOperationCompleted marks an operation as completed with rollback data
func (rs *RollbackState) MarkOperationCompleted(id string, rollbackData map[string]any) {
	now := time.Now()
	if op := rs.Operation(id); op != nil && op.Status == OperationStatusRunning {
		op.Status = OperationStatusCompleted
		op.CompletedAt = &now
		op.RollbackData = rollbackData
		rs.UpdatedAt = now
	}
}

// MarkOperationRolledBack marks a compensated operation
func (rs *RollbackState) MarkOperationRolledBack(id string) {
	if op := rs.Operation(id); op != nil &&
		(op.Status == OperationStatusCompleted || op.Status == OperationStatusFailed) {
		op.Status = OperationStatusRolledBack
		rs.UpdatedAt = time.Now()
	}
}

// MarkOperationFailed marks an operation as failed. rollbackData holds
// whatever the operation changed before failing.
func (rs *RollbackState) MarkOperationFailed(id string, err error, rollbackData map[string]any) {
	now := time.Now()
	if op := rs.Operation(id); op != nil && op.Status == OperationStatusRunning {
		op.Status = OperationStatusFailed
		op.CompletedAt = &now
		op.Error = err.Error()
		op.RollbackData = rollbackData
		rs.UpdatedAt = now
	}
	rs.Status = WorkflowStatusFailed
	rs.Error = err.Error()
}
