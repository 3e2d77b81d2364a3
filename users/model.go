// Package users provides the user_data table model and its seeding and
// streaming pipeline: CSV batch import, row streaming, lazy pagination, and
// streaming aggregates.
//
// The package is a collaborator of the middleware stack, not part of it: it
// talks to the database through bun directly and is exercised by the seed
// CLI and by operations composed with the middleware package.
package users

import (
	"time"

	"github.com/uptrace/bun"
)

// User is one row of the user_data table.
type User struct {
	bun.BaseModel `bun:"table:user_data"`

	ID        string    `bun:"user_id,pk"`
	Name      string    `bun:"name,notnull"`
	Email     string    `bun:"email,notnull"`
	Age       int       `bun:"age,notnull"`
	CreatedAt time.Time `bun:"created_at,nullzero,default:current_timestamp"`
	UpdatedAt time.Time `bun:"updated_at,nullzero,default:current_timestamp"`
}
