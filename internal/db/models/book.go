package models

import (
	"time"

	"github.com/uptrace/bun"
)

// LoanPeriod is how long a book may be held before it is reported as expired.
const LoanPeriod = 864000000 * time.Millisecond

// Book is a catalog entry, optionally held by a person.
type Book struct {
	bun.BaseModel `bun:"table:books,alias:b"`

	ID          int64      `bun:"id,pk,autoincrement"`
	PersonID    *int64     `bun:"person_id"`
	Owner       *Person    `bun:"rel:belongs-to,join:person_id=id"`
	Title       string     `bun:"title,notnull"`
	Author      string     `bun:"author,notnull"`
	ReleaseYear int        `bun:"release_year,notnull"`
	TakeTime    *time.Time `bun:"take_time"`
	CreatedAt   time.Time  `bun:"created_at,notnull,default:current_timestamp"`
	UpdatedAt   time.Time  `bun:"updated_at,notnull,default:current_timestamp"`

	// Expired is computed, never stored.
	Expired bool `bun:"-"`
}

// MarkExpired sets Expired when the book has been held longer than LoanPeriod.
func (b *Book) MarkExpired(now time.Time) {
	if b.TakeTime == nil || b.PersonID == nil {
		b.Expired = false
		return
	}
	held := now.Sub(*b.TakeTime)
	if held < 0 {
		held = -held
	}
	b.Expired = held > LoanPeriod
}

// MarkAllExpired applies MarkExpired to every book.
func MarkAllExpired(books []Book, now time.Time) {
	for i := range books {
		books[i].MarkExpired(now)
	}
}
