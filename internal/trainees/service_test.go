package trainees

import (
	"context"
	"errors"
	"testing"
)

func TestServiceCreateNormalizes(t *testing.T) {
	svc := NewService(NewMemoryRepo())
	got, err := svc.Create(context.Background(), CreateInput{FirstName: " Jane ", LastName: "Doe", Email: "Jane.Doe@Example.COM"})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if got.ID == "" || got.FirstName != "Jane" || got.Email != "jane.doe@example.com" {
		t.Fatalf("unexpected trainee %+v", got)
	}
	if got.HasProfilePicture() {
		t.Fatalf("new trainee should have no picture")
	}
}

func TestServiceCreateValidation(t *testing.T) {
	tests := []struct {
		name string
		in   CreateInput
	}{
		{name: "missing first name", in: CreateInput{LastName: "Doe", Email: "jane@example.com"}},
		{name: "missing last name", in: CreateInput{FirstName: "Jane", Email: "jane@example.com"}},
		{name: "bad email", in: CreateInput{FirstName: "Jane", LastName: "Doe", Email: "not-an-email"}},
	}
	svc := NewService(NewMemoryRepo())
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := svc.Create(context.Background(), tt.in); !errors.Is(err, ErrInvalidInput) {
				t.Fatalf("expected ErrInvalidInput, got %v", err)
			}
		})
	}
}

func TestServiceCreateDuplicateEmail(t *testing.T) {
	svc := NewService(NewMemoryRepo())
	ctx := context.Background()
	in := CreateInput{FirstName: "Jane", LastName: "Doe", Email: "jane@example.com"}
	if _, err := svc.Create(ctx, in); err != nil {
		t.Fatalf("Create: %v", err)
	}
	in.Email = "JANE@example.com"
	if _, err := svc.Create(ctx, in); !errors.Is(err, ErrConflict) {
		t.Fatalf("expected ErrConflict, got %v", err)
	}
}

func TestServiceGetByIDRequiresID(t *testing.T) {
	svc := NewService(NewMemoryRepo())
	if _, err := svc.GetByID(context.Background(), " "); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
	if _, err := svc.GetByID(context.Background(), "missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
