package bridgefast

import "context"

// SnapshotCallback receives decoded websocket snapshot messages.
type SnapshotCallback func(msg *SnapshotMessage)

// StateCallback observes websocket lifecycle transitions.
type StateCallback func(state WebSocketState)

// WSClient is the snapshot stream contract used by the daemon.
type WSClient interface {
	Connect(ctx context.Context) error
	OnSnapshot(cb SnapshotCallback) int
	RemoveSnapshotCallback(id int)
	OnStateChange(cb StateCallback) int
	RemoveStateCallback(id int)
	Close(ctx context.Context) error
}
