package models

import "encoding/json"

// UnitStatus is the disposition state of a unit. All values except
// StatusReviewing are server-authoritative; StatusReviewing is a transient
// client-only state held while a review action is in flight.
type UnitStatus string

const (
	StatusSubmitted   UnitStatus = "submitted"
	StatusAccepted    UnitStatus = "accepted"
	StatusRejected    UnitStatus = "rejected"
	StatusSoftBlocked UnitStatus = "soft_blocked"
	StatusHardBlocked UnitStatus = "hard_blocked"
	StatusExpired     UnitStatus = "expired"
	StatusReviewing   UnitStatus = "reviewing"
)

// Actionable reports whether a reviewer may still issue a disposition for a
// unit in this status.
func (s UnitStatus) Actionable() bool {
	return s == StatusSubmitted || s == StatusExpired
}

// UnitData carries the worker-facing input and the produced output. Both are
// opaque to the engine and rendered as-is.
type UnitData struct {
	Inputs  json.RawMessage `json:"inputs"`
	Outputs json.RawMessage `json:"outputs"`
}

// Unit is one row of reviewable work belonging to a task run.
type Unit struct {
	UnitID       string     `json:"unit_id"`
	AssignmentID string     `json:"assignment_id"`
	WorkerID     string     `json:"worker_id"`
	TaskRunID    string     `json:"task_run_id"`
	Status       UnitStatus `json:"status"`
	Data         UnitData   `json:"data"`
}

// UnitsPayload is the body of a successful units fetch. Units stays raw so the
// store can tell an absent field apart from an empty sequence.
type UnitsPayload struct {
	Units json.RawMessage `json:"units"`
}

type UnitsResponse = APIResponse[UnitsPayload]

type ActionResponse = APIResponse[bool]
