package people

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/vcubone/library-boot/internal/db/models"
	"github.com/vcubone/library-boot/internal/repository"
)

var seededRoles = []models.Role{{ID: 1, Name: models.RoleUser}, {ID: 2, Name: models.RoleAdmin}}

type mockRoleRepository struct{}

func (mockRoleRepository) GetByName(ctx context.Context, name string) (*models.Role, error) {
	for _, r := range seededRoles {
		if r.Name == name {
			cp := r
			return &cp, nil
		}
	}
	return nil, fmt.Errorf("role %q: %w", name, repository.ErrNotFound)
}

func (mockRoleRepository) List(ctx context.Context) ([]models.Role, error) {
	return append([]models.Role(nil), seededRoles...), nil
}

func roleByID(id int64) models.Role {
	for _, r := range seededRoles {
		if r.ID == id {
			return r
		}
	}
	return models.Role{}
}

// mockPersonRepository mirrors the versioning rules of the bun repository.
type mockPersonRepository struct {
	mu     sync.Mutex
	people map[int64]*models.Person
	nextID int64
}

func newMockPersonRepository() *mockPersonRepository {
	return &mockPersonRepository{people: make(map[int64]*models.Person), nextID: 1}
}

func (m *mockPersonRepository) Create(ctx context.Context, person *models.Person, roleNames []string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, p := range m.people {
		if p.Username == person.Username {
			return fmt.Errorf("duplicate username %q", person.Username)
		}
	}
	person.ID = m.nextID
	m.nextID++
	cp := *person
	cp.Roles = nil
	for _, name := range roleNames {
		for _, r := range seededRoles {
			if r.Name == name {
				cp.Roles = append(cp.Roles, r)
			}
		}
	}
	m.people[cp.ID] = &cp
	return nil
}

func (m *mockPersonRepository) get(id int64) (*models.Person, error) {
	p, ok := m.people[id]
	if !ok {
		return nil, fmt.Errorf("person %d: %w", id, repository.ErrNotFound)
	}
	return p, nil
}

func (m *mockPersonRepository) GetByID(ctx context.Context, id int64) (*models.Person, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, err := m.get(id)
	if err != nil {
		return nil, err
	}
	cp := *p
	cp.Roles = append([]models.Role(nil), p.Roles...)
	return &cp, nil
}

func (m *mockPersonRepository) GetByUsername(ctx context.Context, username string) (*models.Person, error) {
	m.mu.Lock()
	var id int64
	for _, p := range m.people {
		if p.Username == username {
			id = p.ID
		}
	}
	m.mu.Unlock()
	if id == 0 {
		return nil, fmt.Errorf("person %q: %w", username, repository.ErrNotFound)
	}
	return m.GetByID(ctx, id)
}

func (m *mockPersonRepository) ExistsByUsername(ctx context.Context, username string) (bool, error) {
	_, err := m.GetByUsername(ctx, username)
	return err == nil, nil
}

func (m *mockPersonRepository) List(ctx context.Context) ([]models.Person, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]models.Person, 0, len(m.people))
	for _, p := range m.people {
		out = append(out, *p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *mockPersonRepository) UpdateProfile(ctx context.Context, person *models.Person) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, err := m.get(person.ID)
	if err != nil {
		return err
	}
	p.FullName = person.FullName
	p.YearOfBirth = person.YearOfBirth
	return nil
}

func (m *mockPersonRepository) SetPasswordHash(ctx context.Context, id int64, passwordHash string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, err := m.get(id)
	if err != nil {
		return err
	}
	p.PasswordHash = passwordHash
	return nil
}

func (m *mockPersonRepository) AddRole(ctx context.Context, personID int64, roleID int64) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, err := m.get(personID)
	if err != nil {
		return 0, err
	}
	held := false
	for _, r := range p.Roles {
		if r.ID == roleID {
			held = true
		}
	}
	if !held {
		p.Roles = append(p.Roles, roleByID(roleID))
	}
	p.Version++
	return p.Version, nil
}

func (m *mockPersonRepository) RemoveRole(ctx context.Context, personID int64, roleID int64) (bool, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, err := m.get(personID)
	if err != nil {
		return false, 0, err
	}
	for i, r := range p.Roles {
		if r.ID == roleID {
			p.Roles = append(p.Roles[:i], p.Roles[i+1:]...)
			p.Version++
			return true, p.Version, nil
		}
	}
	return false, p.Version, nil
}

func (m *mockPersonRepository) CurrentVersion(ctx context.Context, id int64) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, err := m.get(id)
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

// mockBookRepository implements only what the people service reads.
type mockBookRepository struct {
	repository.BookRepository
	byOwner map[int64][]models.Book
}

func (m *mockBookRepository) ListByOwner(ctx context.Context, personID int64) ([]models.Book, error) {
	return append([]models.Book(nil), m.byOwner[personID]...), nil
}

type plainHasher struct{}

func (plainHasher) Hash(password string) (string, error) { return "plain:" + password, nil }

func (plainHasher) Compare(hash, password string) error {
	if hash != "plain:"+password {
		return fmt.Errorf("mismatch")
	}
	return nil
}

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}
