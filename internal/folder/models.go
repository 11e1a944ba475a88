package folder

import (
	"encoding/json"
	"time"

	"punsj/pkg/domain"
)

// Folder is owned one-to-one by a person and shares the person's identifier.
// Buckets is only populated by LoadFullFolder.
type Folder struct {
	ID        domain.FolderID `json:"id"`
	PersonID  domain.PersonID `json:"person_id"`
	CreatedAt time.Time       `json:"created_at"`

	Buckets []*Bucket `json:"-"`
}

// Bucket groups a folder's applications for one benefit type.
type Bucket struct {
	ID          domain.BucketID    `json:"id"`
	FolderID    domain.FolderID    `json:"folder_id"`
	BenefitType domain.BenefitType `json:"benefit_type"`
	CreatedAt   time.Time          `json:"created_at"`

	Applications []*Application `json:"-"`
}

// Application is one work-in-progress or submitted application. The payload is the
// benefit-specific draft as sent by the case worker and is opaque to this package.
type Application struct {
	ID           domain.ApplicationID   `json:"id"`
	BucketID     domain.BucketID        `json:"bucket_id"`
	PersonID     domain.PersonID        `json:"person_id"`
	Payload      json.RawMessage        `json:"payload,omitempty"`
	Journalposts []domain.JournalpostID `json:"journalposts"`
	Sent         bool                   `json:"sent"`
	EditedBy     string                 `json:"edited_by,omitempty"`
	CreatedAt    time.Time              `json:"created_at"`
	UpdatedAt    time.Time              `json:"updated_at"`
}

// Bucket returns the folder's bucket for benefit, or nil.
func (f *Folder) Bucket(benefit domain.BenefitType) *Bucket {
	if f == nil {
		return nil
	}
	for _, b := range f.Buckets {
		if b.BenefitType == benefit {
			return b
		}
	}
	return nil
}
