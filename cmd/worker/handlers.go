package main

import (
	"github.com/hibiken/asynq"

	snapshotJob "barcatalog-backend/internal/domains/snapshot/job"
	"barcatalog-backend/internal/shared"
	"barcatalog-backend/pkg/container"
)

// HandlerRegistry holds all job handlers
type HandlerRegistry struct {
	publishSnapshot *snapshotJob.PublishSnapshotHandler
}

// initializeHandlers creates all job handlers with their dependencies
func initializeHandlers(c *container.Container) *HandlerRegistry {
	return &HandlerRegistry{
		publishSnapshot: snapshotJob.NewPublishSnapshotHandler(c.Pipeline),
	}
}

// RegisterHandlers registers all handlers with the mux
func (h *HandlerRegistry) RegisterHandlers(mux *asynq.ServeMux) {
	mux.HandleFunc(shared.TypePublishSnapshot, h.publishSnapshot.ProcessTask)
}
