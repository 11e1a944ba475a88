package person

import (
	"time"

	"punsj/pkg/domain"
)

// Person is created lazily the first time a national id is referenced and never deleted.
type Person struct {
	ID         domain.PersonID   `json:"id"`
	NationalID domain.NationalID `json:"national_id"`
	ActorID    domain.ActorID    `json:"actor_id"`
	CreatedAt  time.Time         `json:"created_at"`
}
