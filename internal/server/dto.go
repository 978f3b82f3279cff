package server

import (
	"github.com/vcubone/library-boot/internal/db/models"
)

type credentialsRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type registrationRequest struct {
	Username    string `json:"username"`
	Password    string `json:"password"`
	FullName    string `json:"fullName"`
	YearOfBirth int    `json:"yearOfBirth"`
}

type profileRequest struct {
	FullName    string `json:"fullName"`
	YearOfBirth int    `json:"yearOfBirth"`
}

type passwordRequest struct {
	Password string `json:"password"`
}

type roleRequest struct {
	Name string `json:"name"`
}

type bookRequest struct {
	Title       string `json:"title"`
	Author      string `json:"author"`
	ReleaseYear int    `json:"releaseYear"`
}

type tokenResponse struct {
	Token string `json:"jwt-token"`
}

type personResponse struct {
	ID          int64          `json:"id,omitempty"`
	Username    string         `json:"username,omitempty"`
	FullName    string         `json:"fullName,omitempty"`
	YearOfBirth int            `json:"yearOfBirth,omitempty"`
	Roles       []string       `json:"roles,omitempty"`
	Books       []bookResponse `json:"books,omitempty"`
}

type bookResponse struct {
	ID          int64           `json:"id"`
	Title       string          `json:"title"`
	Author      string          `json:"author"`
	ReleaseYear int             `json:"releaseYear"`
	Expired     bool            `json:"expired"`
	Owner       *personResponse `json:"owner,omitempty"`
}

type roleResponse struct {
	Name string `json:"name"`
}

func toPerson(p *models.Person) personResponse {
	out := personResponse{
		ID:          p.ID,
		Username:    p.Username,
		FullName:    p.FullName,
		YearOfBirth: p.YearOfBirth,
		Roles:       p.RoleNames(),
	}
	if len(p.Books) > 0 {
		out.Books = toBooks(p.Books)
	}
	return out
}

func toPeople(people []models.Person) []personResponse {
	out := make([]personResponse, 0, len(people))
	for i := range people {
		out = append(out, toPerson(&people[i]))
	}
	return out
}

func toBook(b *models.Book) bookResponse {
	out := bookResponse{
		ID:          b.ID,
		Title:       b.Title,
		Author:      b.Author,
		ReleaseYear: b.ReleaseYear,
		Expired:     b.Expired,
	}
	if b.Owner != nil {
		owner := personResponse{ID: b.Owner.ID, FullName: b.Owner.FullName, YearOfBirth: b.Owner.YearOfBirth}
		out.Owner = &owner
	}
	return out
}

func toBooks(books []models.Book) []bookResponse {
	out := make([]bookResponse, 0, len(books))
	for i := range books {
		out = append(out, toBook(&books[i]))
	}
	return out
}

func toRoles(roles []models.Role) []roleResponse {
	out := make([]roleResponse, 0, len(roles))
	for _, r := range roles {
		out = append(out, roleResponse{Name: r.Name})
	}
	return out
}
