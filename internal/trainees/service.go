package trainees

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"

	"github.com/google/uuid"
)

type Service struct {
	Repo Repo
}

func NewService(repo Repo) *Service {
	return &Service{Repo: repo}
}

// CreateInput carries the fields accepted when registering a trainee.
type CreateInput struct {
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Email     string `json:"email"`
}

func (s *Service) Create(ctx context.Context, in CreateInput) (Trainee, error) {
	if s == nil || s.Repo == nil {
		return Trainee{}, errors.New("trainees service not configured")
	}
	in.FirstName = strings.TrimSpace(in.FirstName)
	in.LastName = strings.TrimSpace(in.LastName)
	in.Email = strings.TrimSpace(in.Email)
	if in.FirstName == "" || in.LastName == "" {
		return Trainee{}, fmt.Errorf("%w: first and last name are required", ErrInvalidInput)
	}
	if _, err := mail.ParseAddress(in.Email); err != nil {
		return Trainee{}, fmt.Errorf("%w: invalid email", ErrInvalidInput)
	}

	t := Trainee{
		ID:        uuid.NewString(),
		FirstName: in.FirstName,
		LastName:  in.LastName,
		Email:     strings.ToLower(in.Email),
	}
	if err := s.Repo.Create(ctx, t); err != nil {
		return Trainee{}, err
	}
	return s.Repo.GetByID(ctx, t.ID)
}

func (s *Service) GetByID(ctx context.Context, id string) (Trainee, error) {
	if s == nil || s.Repo == nil {
		return Trainee{}, errors.New("trainees service not configured")
	}
	if strings.TrimSpace(id) == "" {
		return Trainee{}, fmt.Errorf("%w: trainee id is required", ErrInvalidInput)
	}
	return s.Repo.GetByID(ctx, id)
}
