package middleware

import (
	"context"
	"fmt"
	"sync"

	"github.com/vcubone/library-boot/internal/db/models"
	"github.com/vcubone/library-boot/internal/repository"
)

// mockPersonRepository implements the reads the resolver performs.
type mockPersonRepository struct {
	repository.PersonRepository

	mu     sync.Mutex
	people map[int64]*models.Person
	reads  int
}

func newMockPersonRepository() *mockPersonRepository {
	return &mockPersonRepository{people: make(map[int64]*models.Person)}
}

func (m *mockPersonRepository) put(id int64, username string, version int, roles ...string) *models.Person {
	m.mu.Lock()
	defer m.mu.Unlock()
	p := &models.Person{ID: id, Username: username, Version: version}
	for i, r := range roles {
		p.Roles = append(p.Roles, models.Role{ID: int64(i + 1), Name: r})
	}
	m.people[id] = p
	return p
}

func (m *mockPersonRepository) remove(id int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.people, id)
}

func (m *mockPersonRepository) GetByID(ctx context.Context, id int64) (*models.Person, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.reads++
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
	for _, p := range m.people {
		if p.Username == username {
			cp := *p
			return &cp, nil
		}
	}
	return nil, fmt.Errorf("person %q: %w", username, repository.ErrNotFound)
}

func (m *mockPersonRepository) CurrentVersion(ctx context.Context, id int64) (int, error) {
	p, err := m.GetByID(ctx, id)
	if err != nil {
		return 0, err
	}
	return p.Version, nil
}

type plainHasher struct{}

func (plainHasher) Hash(password string) (string, error) { return "plain:" + password, nil }

func (plainHasher) Compare(hash, password string) error {
	if hash != "plain:"+password {
		return fmt.Errorf("mismatch")
	}
	return nil
}
