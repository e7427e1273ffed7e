package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"persona-engine/internal/domain"
)

const pgSessionSchema = `
	CREATE TABLE IF NOT EXISTS persona_sessions (
		story_id       TEXT PRIMARY KEY,
		character_id   TEXT NOT NULL,
		decision_count INTEGER NOT NULL,
		snapshot       JSONB NOT NULL,
		updated_at     TIMESTAMPTZ NOT NULL
	)
`

type pgxDB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// PgSessionStore guarda un snapshot JSONB por historia.
type PgSessionStore struct {
	db pgxDB
}

func NewPgSessionStore(pool *pgxpool.Pool) *PgSessionStore {
	return &PgSessionStore{db: pool}
}

// EnsureSchema crea la tabla si no existe.
func (r *PgSessionStore) EnsureSchema(ctx context.Context) error {
	_, err := r.db.Exec(ctx, pgSessionSchema)
	return err
}

// Persist hace upsert; nunca pisa un snapshot con mas decisiones que el entrante.
func (r *PgSessionStore) Persist(ctx context.Context, storyID string, snapshot domain.SessionSnapshot) error {
	id, err := normalizeStoryID(storyID)
	if err != nil {
		return err
	}
	payload, err := encodeSnapshot(snapshot)
	if err != nil {
		return err
	}

	const query = `
		INSERT INTO persona_sessions (story_id, character_id, decision_count, snapshot, updated_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (story_id)
		DO UPDATE SET
			character_id = EXCLUDED.character_id,
			decision_count = EXCLUDED.decision_count,
			snapshot = EXCLUDED.snapshot,
			updated_at = EXCLUDED.updated_at
		WHERE persona_sessions.decision_count <= EXCLUDED.decision_count
	`
	_, err = r.db.Exec(ctx, query,
		id,
		snapshot.Session.CharacterID,
		snapshot.Session.DecisionCount,
		payload,
		snapshot.SavedAt,
	)
	if err != nil {
		return storeError("upsert session", id, err)
	}
	return nil
}

func (r *PgSessionStore) Load(ctx context.Context, storyID string) (domain.SessionSnapshot, error) {
	id, err := normalizeStoryID(storyID)
	if err != nil {
		return domain.SessionSnapshot{}, err
	}
	const query = `
		SELECT snapshot
		FROM persona_sessions
		WHERE story_id = $1
	`
	var payload []byte
	err = r.db.QueryRow(ctx, query, id).Scan(&payload)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.SessionSnapshot{}, domain.ErrNotFound
	}
	if err != nil {
		return domain.SessionSnapshot{}, storeError("select session", id, err)
	}
	return decodeSnapshot(payload)
}

func (r *PgSessionStore) Delete(ctx context.Context, storyID string) error {
	id, err := normalizeStoryID(storyID)
	if err != nil {
		return err
	}
	const query = `DELETE FROM persona_sessions WHERE story_id = $1`
	if _, err := r.db.Exec(ctx, query, id); err != nil {
		return storeError("delete session", id, err)
	}
	return nil
}
