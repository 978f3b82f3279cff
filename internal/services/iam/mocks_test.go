package iam

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/vcubone/library-boot/internal/db/models"
	"github.com/vcubone/library-boot/internal/repository"
)

// mockPersonRepository is an in-memory PersonRepository for resolver tests.
type mockPersonRepository struct {
	mu      sync.Mutex
	people  map[int64]*models.Person
	nextID  int64
	failAll error
}

func newMockPersonRepository() *mockPersonRepository {
	return &mockPersonRepository{people: make(map[int64]*models.Person), nextID: 1}
}

func (m *mockPersonRepository) add(username, hash string, version int, roles ...string) *models.Person {
	m.mu.Lock()
	defer m.mu.Unlock()

	p := &models.Person{ID: m.nextID, Username: username, PasswordHash: hash, Version: version}
	for i, r := range roles {
		p.Roles = append(p.Roles, models.Role{ID: int64(i + 1), Name: r})
	}
	m.people[p.ID] = p
	m.nextID++
	return p
}

func (m *mockPersonRepository) Create(ctx context.Context, person *models.Person, roleNames []string) error {
	return errors.New("not implemented")
}

func (m *mockPersonRepository) GetByID(ctx context.Context, id int64) (*models.Person, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failAll != nil {
		return nil, m.failAll
	}
	p, ok := m.people[id]
	if !ok {
		return nil, fmt.Errorf("person %d: %w", id, repository.ErrNotFound)
	}
	cp := *p
	return &cp, nil
}

func (m *mockPersonRepository) GetByUsername(ctx context.Context, username string) (*models.Person, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failAll != nil {
		return nil, m.failAll
	}
	for _, p := range m.people {
		if p.Username == username {
			cp := *p
			return &cp, nil
		}
	}
	return nil, fmt.Errorf("person %q: %w", username, repository.ErrNotFound)
}

func (m *mockPersonRepository) ExistsByUsername(ctx context.Context, username string) (bool, error) {
	_, err := m.GetByUsername(ctx, username)
	return err == nil, nil
}

func (m *mockPersonRepository) List(ctx context.Context) ([]models.Person, error) {
	return nil, errors.New("not implemented")
}

func (m *mockPersonRepository) UpdateProfile(ctx context.Context, person *models.Person) error {
	return errors.New("not implemented")
}

func (m *mockPersonRepository) SetPasswordHash(ctx context.Context, id int64, passwordHash string) error {
	return errors.New("not implemented")
}

func (m *mockPersonRepository) AddRole(ctx context.Context, personID int64, roleID int64) (int, error) {
	return 0, errors.New("not implemented")
}

func (m *mockPersonRepository) RemoveRole(ctx context.Context, personID int64, roleID int64) (bool, int, error) {
	return false, 0, errors.New("not implemented")
}

func (m *mockPersonRepository) CurrentVersion(ctx context.Context, id int64) (int, error) {
	p, err := m.GetByID(ctx, id)
	if err != nil {
		return 0, err
	}
	return p.Version, nil
}

func (m *mockPersonRepository) Delete(ctx context.Context, id int64) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.people[id]
	delete(m.people, id)
	return ok, nil
}

// grant appends a role and bumps the version, like the store does.
func (m *mockPersonRepository) grant(id int64, role string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p := m.people[id]
	p.Roles = append(p.Roles, models.Role{ID: int64(len(p.Roles) + 1), Name: role})
	p.Version++
}

// plainHasher compares passwords verbatim and counts comparisons.
type plainHasher struct {
	mu          sync.Mutex
	comparisons int
}

func (h *plainHasher) Hash(password string) (string, error) { return "plain:" + password, nil }

func (h *plainHasher) Compare(hash, password string) error {
	h.mu.Lock()
	h.comparisons++
	h.mu.Unlock()
	if hash != "plain:"+password {
		return errors.New("mismatch")
	}
	return nil
}
