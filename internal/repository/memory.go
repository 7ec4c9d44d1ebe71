package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/arosling/stageside/internal/domain"
	apperrors "github.com/arosling/stageside/internal/errors"
)

// MemorySequenceRepository is an in-memory domain.SequenceRepository used in
// debug mode and in tests. It mirrors the Postgres implementation's
// semantics, including atomic sequence creation.
type MemorySequenceRepository struct {
	mu        sync.RWMutex
	sequences map[string]*domain.EmailSequence
	emails    map[string][]*domain.ScheduledEmail
}

// NewMemorySequenceRepository creates an empty in-memory repository.
func NewMemorySequenceRepository() *MemorySequenceRepository {
	return &MemorySequenceRepository{
		sequences: make(map[string]*domain.EmailSequence),
		emails:    make(map[string][]*domain.ScheduledEmail),
	}
}

// CreateSequence atomically records a sequence and its emails.
func (r *MemorySequenceRepository) CreateSequence(ctx context.Context, seq *domain.EmailSequence, emails []*domain.ScheduledEmail) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.sequences[seq.SequenceID]; exists {
		return apperrors.New(apperrors.CodeConflict, "sequence already exists")
	}
	cp := *seq
	r.sequences[seq.SequenceID] = &cp
	stored := make([]*domain.ScheduledEmail, len(emails))
	for i, e := range emails {
		ec := *e
		stored[i] = &ec
	}
	r.emails[seq.SequenceID] = stored
	return nil
}

// GetSequence retrieves a sequence by id.
func (r *MemorySequenceRepository) GetSequence(ctx context.Context, sequenceID string) (*domain.EmailSequence, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	seq, ok := r.sequences[sequenceID]
	if !ok {
		return nil, apperrors.NotFound("sequence")
	}
	cp := *seq
	return &cp, nil
}

// UpdateSequence updates an existing sequence.
func (r *MemorySequenceRepository) UpdateSequence(ctx context.Context, seq *domain.EmailSequence) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.sequences[seq.SequenceID]; !ok {
		return apperrors.NotFound("sequence")
	}
	cp := *seq
	r.sequences[seq.SequenceID] = &cp
	return nil
}

// ListSequences pages through sequences newest-first.
func (r *MemorySequenceRepository) ListSequences(ctx context.Context, limit, offset int) ([]*domain.EmailSequence, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	all := make([]*domain.EmailSequence, 0, len(r.sequences))
	for _, seq := range r.sequences {
		cp := *seq
		all = append(all, &cp)
	}
	sort.Slice(all, func(i, j int) bool {
		return all[i].CreatedAt.After(all[j].CreatedAt)
	})
	if offset >= len(all) {
		return nil, nil
	}
	end := offset + limit
	if end > len(all) {
		end = len(all)
	}
	return all[offset:end], nil
}

// GetEmails retrieves a sequence's emails in send-time order.
func (r *MemorySequenceRepository) GetEmails(ctx context.Context, sequenceID string) ([]*domain.ScheduledEmail, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	emails, ok := r.emails[sequenceID]
	if !ok {
		return nil, apperrors.NotFound("sequence")
	}
	out := make([]*domain.ScheduledEmail, len(emails))
	for i, e := range emails {
		cp := *e
		out[i] = &cp
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].SendTime.Before(out[j].SendTime)
	})
	return out, nil
}

// UpdateEmail updates a scheduled email.
func (r *MemorySequenceRepository) UpdateEmail(ctx context.Context, email *domain.ScheduledEmail) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, e := range r.emails[email.SequenceID] {
		if e.ID == email.ID {
			cp := *email
			r.emails[email.SequenceID][i] = &cp
			return nil
		}
	}
	return apperrors.NotFound("scheduled email")
}

// CancelPending cancels every still-scheduled email of a sequence.
func (r *MemorySequenceRepository) CancelPending(ctx context.Context, sequenceID string, now time.Time) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.sequences[sequenceID]; !ok {
		return 0, apperrors.NotFound("sequence")
	}
	cancelled := 0
	for _, e := range r.emails[sequenceID] {
		if e.Status == domain.EmailScheduled {
			e.Status = domain.EmailCancelled
			e.UpdatedAt = now
			cancelled++
		}
	}
	return cancelled, nil
}

// GetDueEmails retrieves scheduled emails whose send time has passed.
func (r *MemorySequenceRepository) GetDueEmails(ctx context.Context, now time.Time, limit int) ([]*domain.ScheduledEmail, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var due []*domain.ScheduledEmail
	for _, emails := range r.emails {
		for _, e := range emails {
			if e.Status == domain.EmailScheduled && !e.SendTime.After(now) {
				cp := *e
				due = append(due, &cp)
			}
		}
	}
	sort.Slice(due, func(i, j int) bool {
		return due[i].SendTime.Before(due[j].SendTime)
	})
	if limit > 0 && len(due) > limit {
		due = due[:limit]
	}
	return due, nil
}

// GetStuckEmails retrieves emails stuck mid-dispatch.
func (r *MemorySequenceRepository) GetStuckEmails(ctx context.Context, olderThan time.Duration, now time.Time) ([]*domain.ScheduledEmail, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	cutoff := now.Add(-olderThan)
	var stuck []*domain.ScheduledEmail
	for _, emails := range r.emails {
		for _, e := range emails {
			if e.Status == domain.EmailSending && e.UpdatedAt.Before(cutoff) {
				cp := *e
				stuck = append(stuck, &cp)
			}
		}
	}
	return stuck, nil
}

// GetEmail retrieves a single scheduled email.
func (r *MemorySequenceRepository) GetEmail(ctx context.Context, id uuid.UUID) (*domain.ScheduledEmail, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, emails := range r.emails {
		for _, e := range emails {
			if e.ID == id {
				cp := *e
				return &cp, nil
			}
		}
	}
	return nil, apperrors.NotFound("scheduled email")
}

// CountEmailsByStatus returns per-status counts for a sequence.
func (r *MemorySequenceRepository) CountEmailsByStatus(ctx context.Context, sequenceID string) (map[domain.EmailStatus]int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if _, ok := r.sequences[sequenceID]; !ok {
		return nil, apperrors.NotFound("sequence")
	}
	counts := make(map[domain.EmailStatus]int)
	for _, e := range r.emails[sequenceID] {
		counts[e.Status]++
	}
	return counts, nil
}
