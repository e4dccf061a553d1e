package trainees

import "context"

// Repo persists trainees. Update is a compare-and-swap on Version: it fails
// with ErrConflict when the stored version differs from t.Version and
// returns the trainee with its new version otherwise.
type Repo interface {
	Create(ctx context.Context, t Trainee) error
	GetByID(ctx context.Context, id string) (Trainee, error)
	Update(ctx context.Context, t Trainee) (Trainee, error)
}
