// Package execinfrapb holds the wire-ish identifiers and statistics
// structures shared between the leader and its workers, grounded on
// execinfrapb.FlowID/DistSQLRemoteFlowInfo and component_stats.go.
package execinfrapb

import "github.com/google/uuid"

// FlowID identifies one invocation of the parallel plan, shared by the
// leader and all of its workers.
type FlowID struct {
	uuid.UUID
}

// MakeFlowID generates a fresh FlowID.
func MakeFlowID() FlowID {
	return FlowID{UUID: uuid.New()}
}

// WorkerID identifies a single launched worker within a FlowID.
type WorkerID int32
