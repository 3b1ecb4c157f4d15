package repository

import (
	"context"
	"errors"
	"strings"
	"time"

	"syllabus-gap/internal/database"
	"syllabus-gap/internal/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

type JobSourceRepository interface {
	GetByContentHash(ctx context.Context, hash string) (domain.JobSource, error)
	// Create inserts src and sets its ID. It returns ErrDuplicateContent when
	// another row already holds the same content hash.
	Create(ctx context.Context, src *domain.JobSource) error
	ListByConversation(ctx context.Context, conversationID uuid.UUID) ([]domain.JobSource, error)
}

type PostgresJobSourceRepository struct {
	db database.DB
}

func NewPostgresJobSourceRepository(db database.DB) *PostgresJobSourceRepository {
	return &PostgresJobSourceRepository{db: db}
}

const jobSourceColumns = `id, conversation_id, url, COALESCE(source_site, ''), COALESCE(title, ''),
	COALESCE(company, ''), COALESCE(role, ''), date_posted, fetched_at, COALESCE(snippet, ''),
	COALESCE(raw_text, ''), access_status, COALESCE(content_hash, '')`

func (r *PostgresJobSourceRepository) GetByContentHash(ctx context.Context, hash string) (domain.JobSource, error) {
	hash = strings.TrimSpace(hash)
	if hash == "" {
		return domain.JobSource{}, ErrNotFound
	}
	row := r.db.QueryRow(ctx, `SELECT `+jobSourceColumns+` FROM job_sources WHERE content_hash = $1 LIMIT 1`, hash)
	src, err := scanJobSource(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.JobSource{}, ErrNotFound
		}
		return domain.JobSource{}, err
	}
	return src, nil
}

func (r *PostgresJobSourceRepository) Create(ctx context.Context, src *domain.JobSource) error {
	if src.FetchedAt.IsZero() {
		src.FetchedAt = time.Now().UTC()
	}
	row := r.db.QueryRow(ctx,
		`INSERT INTO job_sources (
			conversation_id, url, source_site, title, company, role, date_posted,
			fetched_at, snippet, raw_text, access_status, content_hash
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12)
		ON CONFLICT (content_hash) DO NOTHING
		RETURNING id`,
		src.ConversationID,
		src.URL,
		nullableText(src.SourceSite),
		nullableText(src.Title),
		nullableText(src.Company),
		nullableText(src.Role),
		src.DatePosted,
		src.FetchedAt,
		nullableText(src.Snippet),
		nullableText(src.RawText),
		string(src.AccessStatus),
		nullableText(src.ContentHash),
	)
	if err := row.Scan(&src.ID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrDuplicateContent
		}
		if database.IsUniqueViolation(err) {
			return ErrDuplicateContent
		}
		return err
	}
	return nil
}

func (r *PostgresJobSourceRepository) ListByConversation(ctx context.Context, conversationID uuid.UUID) ([]domain.JobSource, error) {
	rows, err := r.db.Query(ctx,
		`SELECT `+jobSourceColumns+` FROM job_sources WHERE conversation_id = $1 ORDER BY id`,
		conversationID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]domain.JobSource, 0)
	for rows.Next() {
		src, err := scanJobSource(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, src)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

func scanJobSource(row database.Row) (domain.JobSource, error) {
	var (
		s      domain.JobSource
		status string
	)
	err := row.Scan(
		&s.ID, &s.ConversationID, &s.URL, &s.SourceSite, &s.Title,
		&s.Company, &s.Role, &s.DatePosted, &s.FetchedAt, &s.Snippet,
		&s.RawText, &status, &s.ContentHash,
	)
	if err != nil {
		return domain.JobSource{}, err
	}
	s.AccessStatus = domain.AccessStatus(status)
	return s, nil
}
