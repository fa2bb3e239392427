package shared

// Asynq task types
const (
	TypePublishSnapshot = "snapshot:publish"
)

// Asynq queue names
const (
	QueueSnapshot = "snapshot"
	QueueDefault  = "default"
)

// SnapshotFormat selects the artifact serialization strategy
type SnapshotFormat string

const (
	FormatJSON   SnapshotFormat = "json"
	FormatSQLite SnapshotFormat = "sqlite"
)

// Ext returns the file extension used in blob paths
func (f SnapshotFormat) Ext() string {
	switch f {
	case FormatSQLite:
		return "db.gz"
	default:
		return "json.gz"
	}
}
