package handlers

import (
	"time"

	"media-browser/internal/database"
	"media-browser/internal/dispatch"
	"media-browser/internal/events"
	"media-browser/internal/media"
	"media-browser/internal/queue"
	"media-browser/internal/reconciler"
	"media-browser/internal/scanner"
	"media-browser/internal/startup"
)

// Handlers carries the wired services behind the HTTP API.
type Handlers struct {
	db         *database.Database
	scanner    *scanner.Scanner
	reconciler *reconciler.Reconciler
	dispatcher *dispatch.Dispatcher
	queue      *queue.Queue
	bus        *events.Bus
	thumbs     *media.Thumbnailer
	startTime  time.Time
}

// New wires the handler set.
func New(
	db *database.Database,
	scan *scanner.Scanner,
	rec *reconciler.Reconciler,
	disp *dispatch.Dispatcher,
	q *queue.Queue,
	bus *events.Bus,
	thumbs *media.Thumbnailer,
	_ *startup.Config,
) *Handlers {
	return &Handlers{
		db:         db,
		scanner:    scan,
		reconciler: rec,
		dispatcher: disp,
		queue:      q,
		bus:        bus,
		thumbs:     thumbs,
		startTime:  time.Now(),
	}
}
