package job

import (
	"context"
	"encoding/json"
	"time"

	"barcatalog-backend/internal/domains/snapshot"
	"barcatalog-backend/internal/domains/snapshot/service"
	"barcatalog-backend/pkg/logger"

	"github.com/hibiken/asynq"
	"github.com/rs/zerolog/log"
)

// PublishSnapshotPayload is intentionally empty: the run takes no
// input parameters. Kept as a struct for forward compatibility.
type PublishSnapshotPayload struct {
	RequestedAt time.Time `json:"requestedAt,omitempty"`
}

type PublishSnapshotHandler struct {
	pipeline snapshot.Pipeline
}

func NewPublishSnapshotHandler(pipeline snapshot.Pipeline) *PublishSnapshotHandler {
	return &PublishSnapshotHandler{pipeline: pipeline}
}

// ProcessTask runs the full pipeline. Returning an error lets the
// host's retry/alerting policy react; an overlapping run is benign
// and is logged but not retried.
func (h *PublishSnapshotHandler) ProcessTask(ctx context.Context, task *asynq.Task) error {
	var payload PublishSnapshotPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		logger.Error("Unmarshal fail due to ", err)
		return err
	}

	meta, err := h.pipeline.Run(ctx)
	if err != nil {
		if service.IsRunInProgress(err) {
			log.Warn().Msg("Skipping publish: another pipeline run holds the lock")
			return nil
		}
		logger.Error("Snapshot publish run failed", err)
		return err
	}

	log.Info().
		Str("snapshot_version", meta.SnapshotVersion).
		Str("schema_version", meta.SchemaVersion).
		Str("blob_path", meta.BlobPath).
		Int("drinks", meta.Counts.Drinks).
		Msg("Snapshot published")

	return nil
}
