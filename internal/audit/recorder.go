// Package audit records workflow actions to the append-only audit log.
//
// Every state transition that matters to an operator review (who approved
// a leave, who issued a code, whether the approval SMS went out) lands
// here. The log is written and never read by the application itself.
package audit

import (
	"context"
	"log/slog"

	"github.com/graceworks/shelterops/internal/model"
	"github.com/graceworks/shelterops/internal/repository"
)

// Recorder appends workflow actions to the audit log.
type Recorder interface {
	// Record appends one entry. Failures are logged and swallowed; a
	// missed audit row must never fail the workflow that produced it.
	Record(ctx context.Context, entry model.AuditEntry)
}

type recorder struct {
	repo repository.AuditRepository
}

// NewRecorder creates a Recorder backed by the audit repository.
func NewRecorder(repo repository.AuditRepository) *recorder {
	return &recorder{repo: repo}
}

func (r *recorder) Record(ctx context.Context, entry model.AuditEntry) {
	if err := r.repo.Append(ctx, &entry); err != nil {
		slog.Error("failed to append audit entry",
			"entity_type", entry.EntityType,
			"action_type", entry.ActionType,
			"error", err,
		)
	}
}

// compile-time interface check
var _ Recorder = (*recorder)(nil)
