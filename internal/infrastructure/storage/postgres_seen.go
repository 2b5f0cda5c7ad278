package storage

import (
	"context"
	"database/sql"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/lib/pq"

	"DigestMailer/internal/domain"
	"DigestMailer/internal/ports"
)

const createTableSQL = `
CREATE TABLE IF NOT EXISTS seen_articles (
    subscriber   TEXT NOT NULL,
    article_id   TEXT NOT NULL,
    title        TEXT NOT NULL DEFAULT '',
    link         TEXT NOT NULL DEFAULT '',
    published_at TIMESTAMPTZ,
    delivered_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    PRIMARY KEY (subscriber, article_id)
)`

// PostgresSeenStore persists delivered article ids per subscriber.
//
// Concurrent runs for the same subscriber are serialized with a session
// advisory lock held on a dedicated connection from the first FilterNew
// until Release, so two overlapping runs cannot both observe an article
// as unseen.
type PostgresSeenStore struct {
	db         *sql.DB
	subscriber string
	builder    sq.StatementBuilderType
	conn       *sql.Conn
}

var _ ports.SeenStore = (*PostgresSeenStore)(nil)

// NewPostgresSeenStore wires a sql.DB and ensures the table exists.
func NewPostgresSeenStore(ctx context.Context, db *sql.DB, subscriber string) (*PostgresSeenStore, error) {
	store := &PostgresSeenStore{
		db:         db,
		subscriber: subscriber,
		builder:    sq.StatementBuilder.PlaceholderFormat(sq.Dollar),
	}

	if db != nil {
		if _, err := db.ExecContext(ctx, createTableSQL); err != nil {
			return nil, fmt.Errorf("create seen_articles: %w", err)
		}
	}

	return store, nil
}

// FilterNew returns the articles whose id has not been delivered yet,
// preserving relative order. Read-only; the seen-set is not mutated.
func (s *PostgresSeenStore) FilterNew(ctx context.Context, articles []domain.Article) ([]domain.Article, error) {
	if s.db == nil || len(articles) == 0 {
		return articles, nil
	}

	if err := s.acquire(ctx); err != nil {
		return nil, err
	}

	ids := make([]string, len(articles))
	for i, art := range articles {
		ids[i] = art.ID
	}

	query, args, err := s.builder.
		Select("article_id").
		From("seen_articles").
		Where(sq.Eq{"subscriber": s.subscriber}).
		Where("article_id = ANY(?)", pq.StringArray(ids)).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build filter query: %w", err)
	}

	rows, err := s.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query seen: %w", err)
	}
	defer rows.Close()

	seen := make(map[string]bool)
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan id: %w", err)
		}
		seen[id] = true
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration: %w", err)
	}

	fresh := make([]domain.Article, 0, len(articles))
	for _, art := range articles {
		if !seen[art.ID] {
			fresh = append(fresh, art)
		}
	}

	return fresh, nil
}

// Commit marks the articles as delivered. Idempotent: replays after a
// crash between delivery and commit insert nothing new.
func (s *PostgresSeenStore) Commit(ctx context.Context, articles []domain.Article) error {
	if s.db == nil || len(articles) == 0 {
		return nil
	}

	if err := s.acquire(ctx); err != nil {
		return err
	}

	insert := s.builder.
		Insert("seen_articles").
		Columns("subscriber", "article_id", "title", "link", "published_at")
	for _, art := range articles {
		insert = insert.Values(s.subscriber, art.ID, art.Title, art.WebLink, publishedOrNil(art))
	}
	insert = insert.Suffix("ON CONFLICT (subscriber, article_id) DO NOTHING")

	query, args, err := insert.ToSql()
	if err != nil {
		return fmt.Errorf("build commit query: %w", err)
	}

	if _, err := s.conn.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("commit seen: %w", err)
	}

	return nil
}

// Release drops the advisory lock and the run connection. Called on every
// run path, including skips and failures.
func (s *PostgresSeenStore) Release(ctx context.Context) error {
	if s.conn == nil {
		return nil
	}

	_, unlockErr := s.conn.ExecContext(ctx, "SELECT pg_advisory_unlock(hashtext($1))", s.subscriber)
	closeErr := s.conn.Close()
	s.conn = nil

	if unlockErr != nil {
		return fmt.Errorf("advisory unlock: %w", unlockErr)
	}
	if closeErr != nil {
		return fmt.Errorf("close conn: %w", closeErr)
	}

	return nil
}

func (s *PostgresSeenStore) acquire(ctx context.Context) error {
	if s.conn != nil {
		return nil
	}

	conn, err := s.db.Conn(ctx)
	if err != nil {
		return fmt.Errorf("acquire conn: %w", err)
	}

	if _, err := conn.ExecContext(ctx, "SELECT pg_advisory_lock(hashtext($1))", s.subscriber); err != nil {
		_ = conn.Close()
		return fmt.Errorf("advisory lock: %w", err)
	}

	s.conn = conn
	return nil
}

func publishedOrNil(art domain.Article) any {
	if art.PublishedAt.IsZero() {
		return nil
	}
	return art.PublishedAt
}
