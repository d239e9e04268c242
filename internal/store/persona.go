package store

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	pgvector "github.com/pgvector/pgvector-go"

	"github.com/voxpopai/personacore/internal/domain"
)

// ErrNotFound is returned when a requested row does not exist.
var ErrNotFound = errors.New("not found")

// PersonaStore persists persona profiles in Postgres with the base
// vector in a pgvector column.
type PersonaStore struct {
	db *pgxpool.Pool
}

var _ domain.PersonaStore = (*PersonaStore)(nil)

func NewPersonaStore(db *pgxpool.Pool) *PersonaStore {
	return &PersonaStore{db: db}
}

func (s *PersonaStore) Create(ctx context.Context, p *domain.Persona) error {
	return s.db.QueryRow(ctx,
		`INSERT INTO personas (name, source, segment, vector)
		 VALUES ($1, $2, $3, $4)
		 RETURNING id, created_at, updated_at`,
		p.Name, p.Source, p.Segment, toPgVector(p.Vector),
	).Scan(&p.ID, &p.CreatedAt, &p.UpdatedAt)
}

func (s *PersonaStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.Persona, error) {
	p := &domain.Persona{}
	var vec pgvector.Vector
	err := s.db.QueryRow(ctx,
		`SELECT id, name, source, segment, vector, created_at, updated_at
		 FROM personas WHERE id = $1`,
		id,
	).Scan(&p.ID, &p.Name, &p.Source, &p.Segment, &vec, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	p.Vector = fromPgVector(vec)
	return p, nil
}

func (s *PersonaStore) UpdateVector(ctx context.Context, id uuid.UUID, v domain.Vector) error {
	tag, err := s.db.Exec(ctx,
		`UPDATE personas SET vector = $2, updated_at = NOW() WHERE id = $1`,
		id, toPgVector(v),
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *PersonaStore) List(ctx context.Context, limit int) ([]domain.Persona, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := s.db.Query(ctx,
		`SELECT id, name, source, segment, created_at, updated_at
		 FROM personas ORDER BY created_at DESC LIMIT $1`,
		limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var personas []domain.Persona
	for rows.Next() {
		var p domain.Persona
		if err := rows.Scan(&p.ID, &p.Name, &p.Source, &p.Segment, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, err
		}
		personas = append(personas, p)
	}
	return personas, rows.Err()
}

func (s *PersonaStore) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := s.db.Exec(ctx, `DELETE FROM personas WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func toPgVector(v domain.Vector) pgvector.Vector {
	out := make([]float32, len(v))
	for i, x := range v {
		out[i] = float32(x)
	}
	return pgvector.NewVector(out)
}

func fromPgVector(v pgvector.Vector) domain.Vector {
	data := v.Slice()
	out := make(domain.Vector, len(data))
	for i, x := range data {
		out[i] = float64(x)
	}
	return out
}
