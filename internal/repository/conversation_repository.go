package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"syllabus-gap/internal/database"
	"syllabus-gap/internal/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

type ConversationRepository interface {
	Get(ctx context.Context, id uuid.UUID) (domain.Conversation, error)
	// GetOrCreate loads the conversation with id, creating it as active when
	// it does not exist. The instruction is recorded either way.
	GetOrCreate(ctx context.Context, id uuid.UUID, instruction string) (domain.Conversation, error)
	UpdateSearchState(ctx context.Context, id uuid.UUID, constraints domain.Constraint, status domain.ConversationStatus) error
	Delete(ctx context.Context, id uuid.UUID) error
	DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
}

type PostgresConversationRepository struct {
	db database.DB
}

func NewPostgresConversationRepository(db database.DB) *PostgresConversationRepository {
	return &PostgresConversationRepository{db: db}
}

const conversationColumns = `id, created_at, updated_at, COALESCE(user_instruction_last, ''), parsed_constraints_json, status`

func (r *PostgresConversationRepository) Get(ctx context.Context, id uuid.UUID) (domain.Conversation, error) {
	row := r.db.QueryRow(ctx, `SELECT `+conversationColumns+` FROM conversations WHERE id = $1`, id)
	conv, err := scanConversation(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Conversation{}, ErrNotFound
		}
		return domain.Conversation{}, err
	}
	return conv, nil
}

func (r *PostgresConversationRepository) GetOrCreate(ctx context.Context, id uuid.UUID, instruction string) (domain.Conversation, error) {
	if id == uuid.Nil {
		return domain.Conversation{}, fmt.Errorf("nil conversation id")
	}
	row := r.db.QueryRow(ctx,
		`INSERT INTO conversations (id, user_instruction_last, status)
		 VALUES ($1, $2, $3)
		 ON CONFLICT (id) DO UPDATE SET
			user_instruction_last = EXCLUDED.user_instruction_last,
			updated_at = now()
		 RETURNING `+conversationColumns,
		id, nullableText(instruction), string(domain.StatusActive),
	)
	return scanConversation(row)
}

func (r *PostgresConversationRepository) UpdateSearchState(ctx context.Context, id uuid.UUID, constraints domain.Constraint, status domain.ConversationStatus) error {
	if !status.Valid() {
		return fmt.Errorf("invalid status %q", status)
	}
	b, err := json.Marshal(constraints)
	if err != nil {
		return err
	}
	n, err := r.db.Exec(ctx,
		`UPDATE conversations
		 SET parsed_constraints_json = $2::jsonb, status = $3, updated_at = now()
		 WHERE id = $1`,
		id, string(b), string(status),
	)
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *PostgresConversationRepository) Delete(ctx context.Context, id uuid.UUID) error {
	n, err := r.db.Exec(ctx, `DELETE FROM conversations WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteOlderThan removes stale conversations; sources and topics go with
// them through ON DELETE CASCADE.
func (r *PostgresConversationRepository) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	return r.db.Exec(ctx, `DELETE FROM conversations WHERE created_at < $1`, cutoff.UTC())
}

func scanConversation(row database.Row) (domain.Conversation, error) {
	var (
		conv   domain.Conversation
		raw    []byte
		status string
	)
	if err := row.Scan(&conv.ID, &conv.CreatedAt, &conv.UpdatedAt, &conv.UserInstructionLast, &raw, &status); err != nil {
		return domain.Conversation{}, err
	}
	conv.Status = domain.ConversationStatus(status)
	if len(raw) > 0 {
		var c domain.Constraint
		if err := json.Unmarshal(raw, &c); err != nil {
			return domain.Conversation{}, fmt.Errorf("decode parsed_constraints_json: %w", err)
		}
		conv.ParsedConstraints = &c
	}
	return conv, nil
}
