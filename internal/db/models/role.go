package models

import "github.com/uptrace/bun"

// Well-known role names seeded by the migrations.
const (
	RoleUser  = "ROLE_USER"
	RoleAdmin = "ROLE_ADMIN"
)

// Role is immutable reference data.
type Role struct {
	bun.BaseModel `bun:"table:roles,alias:r"`

	ID   int64  `bun:"id,pk,autoincrement"`
	Name string `bun:"name,notnull,unique"`
}

// PersonRole is the many-to-many join between people and roles.
type PersonRole struct {
	bun.BaseModel `bun:"table:person_roles,alias:pr"`

	PersonID int64   `bun:"person_id,pk"`
	Person   *Person `bun:"rel:belongs-to,join:person_id=id"`
	RoleID   int64   `bun:"role_id,pk"`
	Role     *Role   `bun:"rel:belongs-to,join:role_id=id"`
}

// Register registers join models with bun. It must run before any m2m query.
func Register(db *bun.DB) {
	db.RegisterModel((*PersonRole)(nil))
}
