package trainees

import "time"

type Trainee struct {
	ID           string    `json:"id"`
	FirstName    string    `json:"firstName"`
	LastName     string    `json:"lastName"`
	Email        string    `json:"email"`
	ImageURL     string    `json:"imageURL,omitempty"`
	ThumbnailURL string    `json:"thumbnailURL,omitempty"`
	Version      int64     `json:"version"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// HasProfilePicture reports whether both picture URLs are set.
func (t Trainee) HasProfilePicture() bool {
	return t.ImageURL != "" && t.ThumbnailURL != ""
}
