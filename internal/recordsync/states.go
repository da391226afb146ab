package recordsync

// State is a step of a sync cycle, a cycle records every state it visits.
type State string

const (
	StateIdle                      State = "idle"
	StateCheckingMaintenanceWindow State = "checking_maintenance_window"
	StateAuthenticating            State = "authenticating"
	StateFetchingPlayerData        State = "fetching_player_data"
	StateDecidingSyncKind          State = "deciding_sync_kind"
	StateFullSync                  State = "full_sync"
	StateIncrementalSync           State = "incremental_sync"
	StateNoOp                      State = "noop"
	StatePersistingSnapshot        State = "persisting_snapshot"
	StateDone                      State = "done"
	StateFailed                    State = "failed"
)
