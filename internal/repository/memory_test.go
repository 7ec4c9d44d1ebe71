package repository

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/arosling/stageside/internal/domain"
	apperrors "github.com/arosling/stageside/internal/errors"
)

var testBase = time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)

func seedSequence(t *testing.T, repo *MemorySequenceRepository, id string, createdAt time.Time, sendTimes ...time.Time) []*domain.ScheduledEmail {
	t.Helper()
	seq := &domain.EmailSequence{
		SequenceID:  id,
		Email:       "emma@example.com",
		Name:        "Emma",
		ServiceType: domain.ServiceTeaching,
		Status:      domain.SequenceActive,
		TotalEmails: len(sendTimes),
		CreatedAt:   createdAt,
		UpdatedAt:   createdAt,
	}
	emails := make([]*domain.ScheduledEmail, len(sendTimes))
	for i, st := range sendTimes {
		emails[i] = &domain.ScheduledEmail{
			ID:           uuid.New(),
			SequenceID:   id,
			TemplateType: domain.StageOrder[i%len(domain.StageOrder)],
			Recipient:    "emma@example.com",
			Subject:      "Hello",
			TextContent:  "Hello",
			HTMLContent:  "<p>Hello</p>",
			SendTime:     st,
			Status:       domain.EmailScheduled,
			MaxAttempts:  3,
			CreatedAt:    createdAt,
			UpdatedAt:    createdAt,
		}
	}
	if err := repo.CreateSequence(context.Background(), seq, emails); err != nil {
		t.Fatalf("CreateSequence failed: %v", err)
	}
	return emails
}

func TestCreateSequence_Conflict(t *testing.T) {
	repo := NewMemorySequenceRepository()
	seedSequence(t, repo, "seq_a", testBase, testBase)

	seq := &domain.EmailSequence{SequenceID: "seq_a"}
	err := repo.CreateSequence(context.Background(), seq, nil)
	if apperrors.CodeOf(err) != apperrors.CodeConflict {
		t.Errorf("code = %s, expected conflict", apperrors.CodeOf(err))
	}
}

func TestGetSequence_ReturnsCopy(t *testing.T) {
	repo := NewMemorySequenceRepository()
	seedSequence(t, repo, "seq_a", testBase, testBase)

	got, err := repo.GetSequence(context.Background(), "seq_a")
	if err != nil {
		t.Fatalf("GetSequence failed: %v", err)
	}
	got.Status = domain.SequenceCancelled

	again, _ := repo.GetSequence(context.Background(), "seq_a")
	if again.Status != domain.SequenceActive {
		t.Error("stored sequence was mutated through a returned copy")
	}
}

func TestGetSequence_NotFound(t *testing.T) {
	repo := NewMemorySequenceRepository()
	_, err := repo.GetSequence(context.Background(), "seq_missing")
	if apperrors.CodeOf(err) != apperrors.CodeNotFound {
		t.Errorf("code = %s, expected not found", apperrors.CodeOf(err))
	}
}

func TestListSequences_NewestFirstPaged(t *testing.T) {
	repo := NewMemorySequenceRepository()
	seedSequence(t, repo, "seq_old", testBase, testBase)
	seedSequence(t, repo, "seq_mid", testBase.Add(time.Hour), testBase)
	seedSequence(t, repo, "seq_new", testBase.Add(2*time.Hour), testBase)

	page, err := repo.ListSequences(context.Background(), 2, 0)
	if err != nil {
		t.Fatalf("ListSequences failed: %v", err)
	}
	if len(page) != 2 || page[0].SequenceID != "seq_new" || page[1].SequenceID != "seq_mid" {
		t.Errorf("unexpected first page: %v", sequenceIDs(page))
	}

	page, _ = repo.ListSequences(context.Background(), 2, 2)
	if len(page) != 1 || page[0].SequenceID != "seq_old" {
		t.Errorf("unexpected second page: %v", sequenceIDs(page))
	}

	if page, _ = repo.ListSequences(context.Background(), 2, 10); page != nil {
		t.Errorf("expected empty page past the end, got %v", sequenceIDs(page))
	}
}

func sequenceIDs(seqs []*domain.EmailSequence) []string {
	ids := make([]string, len(seqs))
	for i, s := range seqs {
		ids[i] = s.SequenceID
	}
	return ids
}

func TestGetEmails_SendTimeOrder(t *testing.T) {
	repo := NewMemorySequenceRepository()
	seedSequence(t, repo, "seq_a", testBase,
		testBase.Add(48*time.Hour), testBase, testBase.Add(24*time.Hour))

	emails, err := repo.GetEmails(context.Background(), "seq_a")
	if err != nil {
		t.Fatalf("GetEmails failed: %v", err)
	}
	for i := 1; i < len(emails); i++ {
		if emails[i].SendTime.Before(emails[i-1].SendTime) {
			t.Errorf("emails out of send-time order at %d", i)
		}
	}
}

func TestUpdateEmail(t *testing.T) {
	repo := NewMemorySequenceRepository()
	emails := seedSequence(t, repo, "seq_a", testBase, testBase)

	e := emails[0]
	e.MarkSending(testBase.Add(time.Minute))
	if err := repo.UpdateEmail(context.Background(), e); err != nil {
		t.Fatalf("UpdateEmail failed: %v", err)
	}

	got, err := repo.GetEmail(context.Background(), e.ID)
	if err != nil {
		t.Fatalf("GetEmail failed: %v", err)
	}
	if got.Status != domain.EmailSending || got.Attempts != 1 {
		t.Errorf("stored email = (%s, %d)", got.Status, got.Attempts)
	}

	unknown := &domain.ScheduledEmail{ID: uuid.New(), SequenceID: "seq_a"}
	if err := repo.UpdateEmail(context.Background(), unknown); apperrors.CodeOf(err) != apperrors.CodeNotFound {
		t.Errorf("code = %s, expected not found", apperrors.CodeOf(err))
	}
}

func TestCancelPending_SkipsSent(t *testing.T) {
	repo := NewMemorySequenceRepository()
	emails := seedSequence(t, repo, "seq_a", testBase, testBase, testBase.Add(24*time.Hour))

	sent := emails[0]
	sent.MarkSent(testBase)
	if err := repo.UpdateEmail(context.Background(), sent); err != nil {
		t.Fatalf("UpdateEmail failed: %v", err)
	}

	n, err := repo.CancelPending(context.Background(), "seq_a", testBase.Add(time.Hour))
	if err != nil {
		t.Fatalf("CancelPending failed: %v", err)
	}
	if n != 1 {
		t.Errorf("cancelled %d emails, expected 1", n)
	}

	counts, _ := repo.CountEmailsByStatus(context.Background(), "seq_a")
	if counts[domain.EmailSent] != 1 || counts[domain.EmailCancelled] != 1 {
		t.Errorf("counts = %v", counts)
	}
}

func TestGetDueEmails(t *testing.T) {
	repo := NewMemorySequenceRepository()
	seedSequence(t, repo, "seq_a", testBase,
		testBase.Add(-2*time.Hour), testBase.Add(-time.Hour), testBase.Add(time.Hour))

	due, err := repo.GetDueEmails(context.Background(), testBase, 10)
	if err != nil {
		t.Fatalf("GetDueEmails failed: %v", err)
	}
	if len(due) != 2 {
		t.Fatalf("due = %d, expected 2", len(due))
	}
	if due[0].SendTime.After(due[1].SendTime) {
		t.Error("due emails not in send-time order")
	}

	// Limit truncates from the front of the ordered list.
	due, _ = repo.GetDueEmails(context.Background(), testBase, 1)
	if len(due) != 1 || !due[0].SendTime.Equal(testBase.Add(-2*time.Hour)) {
		t.Errorf("limited fetch returned %d emails", len(due))
	}
}

func TestGetStuckEmails(t *testing.T) {
	repo := NewMemorySequenceRepository()
	emails := seedSequence(t, repo, "seq_a", testBase, testBase, testBase)

	old := emails[0]
	old.Status = domain.EmailSending
	old.UpdatedAt = testBase.Add(-time.Hour)
	if err := repo.UpdateEmail(context.Background(), old); err != nil {
		t.Fatalf("UpdateEmail failed: %v", err)
	}

	stuck, err := repo.GetStuckEmails(context.Background(), 5*time.Minute, testBase)
	if err != nil {
		t.Fatalf("GetStuckEmails failed: %v", err)
	}
	if len(stuck) != 1 || stuck[0].ID != old.ID {
		t.Errorf("stuck = %d emails", len(stuck))
	}
}
