package postgresql

import (
	"context"
	"database/sql"

	internal_errors "github.com/eralogue/eralogue/internal/errors"
	"github.com/eralogue/eralogue/internal/persona"
)

func (s *Store) GetPersonas() ([]*persona.Persona, error) {
	ctxTimeout, cancel := context.WithTimeout(context.Background(), s.rt)
	defer cancel()

	rows, err := s.db.QueryContext(ctxTimeout, "SELECT id, name, title, era, description, image_url, category, prompt, created_at, updated_at FROM personas ORDER BY name")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	personas := []*persona.Persona{}
	for rows.Next() {
		var p persona.Persona
		if err := rows.Scan(
			&p.Id,
			&p.Name,
			&p.Title,
			&p.Era,
			&p.Description,
			&p.ImageUrl,
			&p.Category,
			&p.Prompt,
			&p.CreatedAt,
			&p.UpdatedAt,
		); err != nil {
			return nil, err
		}
		personas = append(personas, &p)
	}

	return personas, nil
}

func (s *Store) GetUpdatedPersonas(updatedAt int64) ([]*persona.Persona, error) {
	ctxTimeout, cancel := context.WithTimeout(context.Background(), s.rt)
	defer cancel()

	rows, err := s.db.QueryContext(ctxTimeout, "SELECT id, name, title, era, description, image_url, category, prompt, created_at, updated_at FROM personas WHERE updated_at >= $1", updatedAt)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	personas := []*persona.Persona{}
	for rows.Next() {
		var p persona.Persona
		if err := rows.Scan(
			&p.Id,
			&p.Name,
			&p.Title,
			&p.Era,
			&p.Description,
			&p.ImageUrl,
			&p.Category,
			&p.Prompt,
			&p.CreatedAt,
			&p.UpdatedAt,
		); err != nil {
			return nil, err
		}
		personas = append(personas, &p)
	}

	return personas, nil
}

func (s *Store) GetPersona(id string) (*persona.Persona, error) {
	ctxTimeout, cancel := context.WithTimeout(context.Background(), s.rt)
	defer cancel()

	var p persona.Persona
	err := s.db.QueryRowContext(ctxTimeout, "SELECT id, name, title, era, description, image_url, category, prompt, created_at, updated_at FROM personas WHERE id = $1", id).Scan(
		&p.Id,
		&p.Name,
		&p.Title,
		&p.Era,
		&p.Description,
		&p.ImageUrl,
		&p.Category,
		&p.Prompt,
		&p.CreatedAt,
		&p.UpdatedAt,
	)

	if err != nil {
		if err == sql.ErrNoRows {
			return nil, internal_errors.NewNotFoundError("persona is not found")
		}

		return nil, err
	}

	return &p, nil
}

func (s *Store) UpsertPersona(p *persona.Persona) (*persona.Persona, error) {
	ctxTimeout, cancel := context.WithTimeout(context.Background(), s.wt)
	defer cancel()

	query := `
	INSERT INTO personas (id, name, title, era, description, image_url, category, prompt, created_at, updated_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	ON CONFLICT (id) DO UPDATE SET
		name = EXCLUDED.name,
		title = EXCLUDED.title,
		era = EXCLUDED.era,
		description = EXCLUDED.description,
		image_url = EXCLUDED.image_url,
		category = EXCLUDED.category,
		prompt = EXCLUDED.prompt,
		updated_at = EXCLUDED.updated_at
	RETURNING id, name, title, era, description, image_url, category, prompt, created_at, updated_at`

	var inserted persona.Persona
	err := s.db.QueryRowContext(ctxTimeout, query,
		p.Id,
		p.Name,
		p.Title,
		p.Era,
		p.Description,
		p.ImageUrl,
		p.Category,
		p.Prompt,
		p.CreatedAt,
		p.UpdatedAt,
	).Scan(
		&inserted.Id,
		&inserted.Name,
		&inserted.Title,
		&inserted.Era,
		&inserted.Description,
		&inserted.ImageUrl,
		&inserted.Category,
		&inserted.Prompt,
		&inserted.CreatedAt,
		&inserted.UpdatedAt,
	)

	if err != nil {
		return nil, err
	}

	return &inserted, nil
}

func (s *Store) UpdatePersona(id string, up *persona.UpdatePersona) (*persona.Persona, error) {
	existing, err := s.GetPersona(id)
	if err != nil {
		return nil, err
	}

	if up.Name != nil {
		existing.Name = *up.Name
	}
	if up.Title != nil {
		existing.Title = *up.Title
	}
	if up.Era != nil {
		existing.Era = *up.Era
	}
	if up.Description != nil {
		existing.Description = *up.Description
	}
	if up.ImageUrl != nil {
		existing.ImageUrl = *up.ImageUrl
	}
	if up.Category != nil {
		existing.Category = *up.Category
	}
	if up.Prompt != nil {
		existing.Prompt = *up.Prompt
	}
	existing.UpdatedAt = up.UpdatedAt

	return s.UpsertPersona(existing)
}

func (s *Store) DeletePersona(id string) error {
	ctxTimeout, cancel := context.WithTimeout(context.Background(), s.wt)
	defer cancel()

	_, err := s.db.ExecContext(ctxTimeout, "DELETE FROM personas WHERE id = $1", id)
	return err
}
