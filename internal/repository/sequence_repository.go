package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/arosling/stageside/internal/domain"
	apperrors "github.com/arosling/stageside/internal/errors"
)

// SequenceRepository implements domain.SequenceRepository using PostgreSQL.
type SequenceRepository struct {
	pool *pgxpool.Pool
}

// NewSequenceRepository creates a new SequenceRepository.
func NewSequenceRepository(pool *pgxpool.Pool) *SequenceRepository {
	return &SequenceRepository{pool: pool}
}

const sequenceColumns = `
	sequence_id, email, name, service_type, status, total_emails, tags,
	created_at, updated_at, cancelled_at, cancel_reason`

const emailColumns = `
	id, sequence_id, template_type, recipient, subject, html_content,
	text_content, tags, send_time, status, attempts, max_attempts,
	last_error, sent_at, created_at, updated_at`

// CreateSequence atomically records a sequence with all of its emails.
func (r *SequenceRepository) CreateSequence(ctx context.Context, seq *domain.EmailSequence, emails []*domain.ScheduledEmail) error {
	ctx, cancel := scoped(ctx, txTimeout)
	defer cancel()

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return apperrors.DatabaseError("repository.CreateSequence", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	_, err = tx.Exec(ctx, `
		INSERT INTO email_sequences (`+sequenceColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		seq.SequenceID,
		seq.Email,
		seq.Name,
		seq.ServiceType,
		seq.Status,
		seq.TotalEmails,
		seq.Tags,
		seq.CreatedAt,
		seq.UpdatedAt,
		seq.CancelledAt,
		seq.CancelReason,
	)
	if err != nil {
		return apperrors.DatabaseError("repository.CreateSequence", fmt.Errorf("insert sequence: %w", err))
	}

	for _, e := range emails {
		_, err = tx.Exec(ctx, `
			INSERT INTO scheduled_emails (`+emailColumns+`)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)`,
			e.ID,
			e.SequenceID,
			e.TemplateType,
			e.Recipient,
			e.Subject,
			e.HTMLContent,
			e.TextContent,
			e.Tags,
			e.SendTime,
			e.Status,
			e.Attempts,
			e.MaxAttempts,
			e.LastError,
			e.SentAt,
			e.CreatedAt,
			e.UpdatedAt,
		)
		if err != nil {
			return apperrors.DatabaseError("repository.CreateSequence", fmt.Errorf("insert email %s: %w", e.TemplateType, err))
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return apperrors.DatabaseError("repository.CreateSequence", fmt.Errorf("commit: %w", err))
	}
	return nil
}

// GetSequence retrieves a sequence by its identifier.
func (r *SequenceRepository) GetSequence(ctx context.Context, sequenceID string) (*domain.EmailSequence, error) {
	ctx, cancel := scoped(ctx, lookupTimeout)
	defer cancel()

	row := r.pool.QueryRow(ctx, `
		SELECT `+sequenceColumns+`
		FROM email_sequences
		WHERE sequence_id = $1`,
		sequenceID,
	)
	return scanSequence(row)
}

// UpdateSequence updates an existing sequence record.
func (r *SequenceRepository) UpdateSequence(ctx context.Context, seq *domain.EmailSequence) error {
	ctx, cancel := scoped(ctx, writeTimeout)
	defer cancel()

	result, err := r.pool.Exec(ctx, `
		UPDATE email_sequences SET
			status = $2,
			total_emails = $3,
			tags = $4,
			updated_at = $5,
			cancelled_at = $6,
			cancel_reason = $7
		WHERE sequence_id = $1`,
		seq.SequenceID,
		seq.Status,
		seq.TotalEmails,
		seq.Tags,
		seq.UpdatedAt,
		seq.CancelledAt,
		seq.CancelReason,
	)
	if err != nil {
		return apperrors.DatabaseError("repository.UpdateSequence", err)
	}
	if result.RowsAffected() == 0 {
		return apperrors.NotFound("sequence")
	}
	return nil
}

// ListSequences retrieves sequences newest-first.
func (r *SequenceRepository) ListSequences(ctx context.Context, limit, offset int) ([]*domain.EmailSequence, error) {
	ctx, cancel := scoped(ctx, scanTimeout)
	defer cancel()

	rows, err := r.pool.Query(ctx, `
		SELECT `+sequenceColumns+`
		FROM email_sequences
		ORDER BY created_at DESC
		LIMIT $1 OFFSET $2`,
		limit, offset,
	)
	if err != nil {
		return nil, apperrors.DatabaseError("repository.ListSequences", err)
	}
	defer rows.Close()

	var sequences []*domain.EmailSequence
	for rows.Next() {
		seq, err := scanSequence(rows)
		if err != nil {
			return nil, err
		}
		sequences = append(sequences, seq)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.DatabaseError("repository.ListSequences", err)
	}
	return sequences, nil
}

// GetEmails retrieves a sequence's emails in send-time order.
func (r *SequenceRepository) GetEmails(ctx context.Context, sequenceID string) ([]*domain.ScheduledEmail, error) {
	ctx, cancel := scoped(ctx, scanTimeout)
	defer cancel()

	return r.queryEmails(ctx, `
		SELECT `+emailColumns+`
		FROM scheduled_emails
		WHERE sequence_id = $1
		ORDER BY send_time ASC`,
		sequenceID,
	)
}

// UpdateEmail updates an existing scheduled email.
func (r *SequenceRepository) UpdateEmail(ctx context.Context, email *domain.ScheduledEmail) error {
	ctx, cancel := scoped(ctx, writeTimeout)
	defer cancel()

	result, err := r.pool.Exec(ctx, `
		UPDATE scheduled_emails SET
			send_time = $2,
			status = $3,
			attempts = $4,
			last_error = $5,
			sent_at = $6,
			updated_at = $7
		WHERE id = $1`,
		email.ID,
		email.SendTime,
		email.Status,
		email.Attempts,
		email.LastError,
		email.SentAt,
		email.UpdatedAt,
	)
	if err != nil {
		return apperrors.DatabaseError("repository.UpdateEmail", err)
	}
	if result.RowsAffected() == 0 {
		return apperrors.NotFound("scheduled email")
	}
	return nil
}

// CancelPending marks every still-scheduled email of a sequence cancelled.
// The transition is one-way: sent and in-flight emails are untouched.
func (r *SequenceRepository) CancelPending(ctx context.Context, sequenceID string, now time.Time) (int, error) {
	ctx, cancel := scoped(ctx, writeTimeout)
	defer cancel()

	result, err := r.pool.Exec(ctx, `
		UPDATE scheduled_emails SET
			status = $3,
			updated_at = $2
		WHERE sequence_id = $1 AND status = $4`,
		sequenceID, now, domain.EmailCancelled, domain.EmailScheduled,
	)
	if err != nil {
		return 0, apperrors.DatabaseError("repository.CancelPending", err)
	}
	return int(result.RowsAffected()), nil
}

// GetDueEmails retrieves scheduled emails whose send time has passed.
func (r *SequenceRepository) GetDueEmails(ctx context.Context, now time.Time, limit int) ([]*domain.ScheduledEmail, error) {
	ctx, cancel := scoped(ctx, scanTimeout)
	defer cancel()

	return r.queryEmails(ctx, `
		SELECT `+emailColumns+`
		FROM scheduled_emails
		WHERE status = 'scheduled' AND send_time <= $1
		ORDER BY send_time ASC
		LIMIT $2`,
		now, limit,
	)
}

// GetStuckEmails retrieves emails stuck in 'sending' longer than olderThan.
func (r *SequenceRepository) GetStuckEmails(ctx context.Context, olderThan time.Duration, now time.Time) ([]*domain.ScheduledEmail, error) {
	ctx, cancel := scoped(ctx, scanTimeout)
	defer cancel()

	return r.queryEmails(ctx, `
		SELECT `+emailColumns+`
		FROM scheduled_emails
		WHERE status = 'sending' AND updated_at < $1
		ORDER BY updated_at ASC`,
		now.Add(-olderThan),
	)
}

// GetEmail retrieves a single scheduled email.
func (r *SequenceRepository) GetEmail(ctx context.Context, id uuid.UUID) (*domain.ScheduledEmail, error) {
	ctx, cancel := scoped(ctx, lookupTimeout)
	defer cancel()

	row := r.pool.QueryRow(ctx, `
		SELECT `+emailColumns+`
		FROM scheduled_emails
		WHERE id = $1`,
		id,
	)
	return scanEmail(row)
}

// CountEmailsByStatus returns per-status counts for a sequence.
func (r *SequenceRepository) CountEmailsByStatus(ctx context.Context, sequenceID string) (map[domain.EmailStatus]int, error) {
	ctx, cancel := scoped(ctx, lookupTimeout)
	defer cancel()

	rows, err := r.pool.Query(ctx, `
		SELECT status, COUNT(*) AS count
		FROM scheduled_emails
		WHERE sequence_id = $1
		GROUP BY status`,
		sequenceID,
	)
	if err != nil {
		return nil, apperrors.DatabaseError("repository.CountEmailsByStatus", err)
	}
	defer rows.Close()

	counts := make(map[domain.EmailStatus]int)
	for rows.Next() {
		var status string
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return nil, apperrors.DatabaseError("repository.CountEmailsByStatus", err)
		}
		counts[domain.EmailStatus(status)] = count
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.DatabaseError("repository.CountEmailsByStatus", err)
	}
	return counts, nil
}

func (r *SequenceRepository) queryEmails(ctx context.Context, query string, args ...any) ([]*domain.ScheduledEmail, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, apperrors.DatabaseError("repository.queryEmails", err)
	}
	defer rows.Close()

	var emails []*domain.ScheduledEmail
	for rows.Next() {
		email, err := scanEmail(rows)
		if err != nil {
			return nil, err
		}
		emails = append(emails, email)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.DatabaseError("repository.queryEmails", err)
	}
	return emails, nil
}

func scanSequence(row pgx.Row) (*domain.EmailSequence, error) {
	var seq domain.EmailSequence
	err := row.Scan(
		&seq.SequenceID,
		&seq.Email,
		&seq.Name,
		&seq.ServiceType,
		&seq.Status,
		&seq.TotalEmails,
		&seq.Tags,
		&seq.CreatedAt,
		&seq.UpdatedAt,
		&seq.CancelledAt,
		&seq.CancelReason,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NotFound("sequence")
		}
		return nil, apperrors.DatabaseError("repository.scanSequence", err)
	}
	return &seq, nil
}

func scanEmail(row pgx.Row) (*domain.ScheduledEmail, error) {
	var e domain.ScheduledEmail
	err := row.Scan(
		&e.ID,
		&e.SequenceID,
		&e.TemplateType,
		&e.Recipient,
		&e.Subject,
		&e.HTMLContent,
		&e.TextContent,
		&e.Tags,
		&e.SendTime,
		&e.Status,
		&e.Attempts,
		&e.MaxAttempts,
		&e.LastError,
		&e.SentAt,
		&e.CreatedAt,
		&e.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NotFound("scheduled email")
		}
		return nil, apperrors.DatabaseError("repository.scanEmail", err)
	}
	return &e, nil
}
