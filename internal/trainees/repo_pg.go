package trainees

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
)

type PGRepo struct {
	DB *sql.DB
}

const uniqueViolation = "23505"

func (r *PGRepo) Create(ctx context.Context, t Trainee) error {
	const query = `
INSERT INTO trainees (id, first_name, last_name, email, image_url, thumbnail_url, version, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, 1, now(), now())`
	_, err := r.DB.ExecContext(ctx, query,
		t.ID,
		t.FirstName,
		t.LastName,
		t.Email,
		nullableString(t.ImageURL),
		nullableString(t.ThumbnailURL),
	)
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		return ErrConflict
	}
	return err
}

func (r *PGRepo) GetByID(ctx context.Context, id string) (Trainee, error) {
	const query = `
SELECT id, first_name, last_name, email, image_url, thumbnail_url, version, created_at, updated_at
FROM trainees
WHERE id = $1
LIMIT 1`
	var t Trainee
	var imageURL sql.NullString
	var thumbnailURL sql.NullString
	err := r.DB.QueryRowContext(ctx, query, id).Scan(
		&t.ID,
		&t.FirstName,
		&t.LastName,
		&t.Email,
		&imageURL,
		&thumbnailURL,
		&t.Version,
		&t.CreatedAt,
		&t.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Trainee{}, ErrNotFound
		}
		return Trainee{}, err
	}
	t.ImageURL = imageURL.String
	t.ThumbnailURL = thumbnailURL.String
	return t, nil
}

// Update writes the mutable fields only when the stored version still
// matches. A miss is disambiguated into ErrNotFound or ErrConflict.
func (r *PGRepo) Update(ctx context.Context, t Trainee) (Trainee, error) {
	const query = `
UPDATE trainees
SET first_name = $3,
    last_name = $4,
    email = $5,
    image_url = $6,
    thumbnail_url = $7,
    version = version + 1,
    updated_at = now()
WHERE id = $1 AND version = $2
RETURNING version, created_at, updated_at`
	err := r.DB.QueryRowContext(ctx, query,
		t.ID,
		t.Version,
		t.FirstName,
		t.LastName,
		t.Email,
		nullableString(t.ImageURL),
		nullableString(t.ThumbnailURL),
	).Scan(&t.Version, &t.CreatedAt, &t.UpdatedAt)
	if err == nil {
		return t, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return Trainee{}, err
	}

	var exists bool
	if err := r.DB.QueryRowContext(ctx, `SELECT EXISTS (SELECT 1 FROM trainees WHERE id = $1)`, t.ID).Scan(&exists); err != nil {
		return Trainee{}, err
	}
	if !exists {
		return Trainee{}, ErrNotFound
	}
	return Trainee{}, ErrConflict
}

func nullableString(value string) any {
	if value == "" {
		return nil
	}
	return value
}
