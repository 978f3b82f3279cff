package models

import (
	"time"

	"github.com/uptrace/bun"
)

// Person is a registered library account. Username is immutable after
// creation; Version is bumped on every role change.
type Person struct {
	bun.BaseModel `bun:"table:people,alias:p"`

	ID           int64     `bun:"id,pk,autoincrement"`
	Username     string    `bun:"username,notnull,unique"`
	PasswordHash string    `bun:"password_hash,notnull"`
	FullName     string    `bun:"full_name,notnull"`
	YearOfBirth  int       `bun:"year_of_birth,notnull"`
	Version      int       `bun:"version,notnull,default:1"`
	CreatedAt    time.Time `bun:"created_at,notnull,default:current_timestamp"`
	UpdatedAt    time.Time `bun:"updated_at,notnull,default:current_timestamp"`

	Roles []Role `bun:"m2m:person_roles,join:Person=Role"`
	Books []Book `bun:"rel:has-many,join:id=person_id"`
}

// RoleNames returns the names of the loaded roles.
func (p *Person) RoleNames() []string {
	if p == nil {
		return nil
	}
	names := make([]string, 0, len(p.Roles))
	for _, r := range p.Roles {
		names = append(names, r.Name)
	}
	return names
}

// HasRole reports whether the loaded role set contains name.
func (p *Person) HasRole(name string) bool {
	if p == nil {
		return false
	}
	for _, r := range p.Roles {
		if r.Name == name {
			return true
		}
	}
	return false
}
