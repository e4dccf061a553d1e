package trainees

import (
	"context"
	"strings"
	"sync"
	"time"
)

type MemoryRepo struct {
	mu       sync.RWMutex
	trainees map[string]Trainee
}

func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{trainees: make(map[string]Trainee)}
}

func (r *MemoryRepo) Create(ctx context.Context, t Trainee) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.trainees[t.ID]; ok {
		return ErrConflict
	}
	for _, existing := range r.trainees {
		if strings.EqualFold(existing.Email, t.Email) {
			return ErrConflict
		}
	}
	now := time.Now().UTC()
	t.CreatedAt = now
	t.UpdatedAt = now
	t.Version = 1
	r.trainees[t.ID] = t
	return nil
}

func (r *MemoryRepo) GetByID(ctx context.Context, id string) (Trainee, error) {
	if err := ctx.Err(); err != nil {
		return Trainee{}, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.trainees[id]
	if !ok {
		return Trainee{}, ErrNotFound
	}
	return t, nil
}

func (r *MemoryRepo) Update(ctx context.Context, t Trainee) (Trainee, error) {
	if err := ctx.Err(); err != nil {
		return Trainee{}, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	existing, ok := r.trainees[t.ID]
	if !ok {
		return Trainee{}, ErrNotFound
	}
	if existing.Version != t.Version {
		return Trainee{}, ErrConflict
	}
	t.CreatedAt = existing.CreatedAt
	t.UpdatedAt = time.Now().UTC()
	t.Version = existing.Version + 1
	r.trainees[t.ID] = t
	return t, nil
}
