package handlers

import (
	"time"

	"media-streamer/internal/database"
	"media-streamer/internal/memory"
	"media-streamer/internal/startup"
	"media-streamer/internal/streaming"
	"media-streamer/internal/transcoder"
)

type Handlers struct {
	db        *database.Database
	service   *transcoder.Service
	registry  *streaming.Registry
	memory    *memory.Monitor
	config    *startup.Config
	startTime time.Time
}

func New(db *database.Database, service *transcoder.Service, registry *streaming.Registry, monitor *memory.Monitor, config *startup.Config) *Handlers {
	return &Handlers{
		db:        db,
		service:   service,
		registry:  registry,
		memory:    monitor,
		config:    config,
		startTime: time.Now(),
	}
}
