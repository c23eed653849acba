package audit

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
)

// Recorder writes auth events best-effort: a failing audit sink must never
// break a login or signup, so errors are logged and swallowed.
type Recorder struct {
	repo   Repository
	logger *slog.Logger
}

// NewRecorder builds a best-effort audit recorder.
func NewRecorder(repo Repository, logger *slog.Logger) *Recorder {
	return &Recorder{repo: repo, logger: logger}
}

// Record fills in identity and timestamp and persists the event.
func (r *Recorder) Record(ctx context.Context, event Event) {
	if r == nil || r.repo == nil {
		return
	}
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.CreatedAt.IsZero() {
		event.CreatedAt = time.Now().UTC()
	}
	if err := r.repo.Record(ctx, event); err != nil {
		r.logger.Warn("audit record failed",
			slog.String("kind", event.Kind),
			slog.Any("error", err),
		)
	}
}
