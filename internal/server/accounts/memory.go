package accounts

import (
	"context"
	"sync"
	"time"

	"github.com/dmitrijs2005/gophauth/internal/common"
	"github.com/google/uuid"
)

// MemoryDirectory keeps accounts in process memory. It is safe for
// concurrent use and enforces the same uniqueness rules as the database.
type MemoryDirectory struct {
	mu         sync.RWMutex
	byID       map[uuid.UUID]Account
	byUsername map[string]uuid.UUID
	byEmail    map[string]uuid.UUID
	now        func() time.Time
}

func NewMemoryDirectory() *MemoryDirectory {
	return &MemoryDirectory{
		byID:       make(map[uuid.UUID]Account),
		byUsername: make(map[string]uuid.UUID),
		byEmail:    make(map[string]uuid.UUID),
		now:        time.Now,
	}
}

func (d *MemoryDirectory) FindByUsernameOrEmail(_ context.Context, value string) (*Account, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	if id, ok := d.byUsername[value]; ok {
		return d.get(id)
	}
	if id, ok := d.byEmail[value]; ok {
		return d.get(id)
	}
	return nil, common.ErrorNotFound
}

func (d *MemoryDirectory) FindByID(_ context.Context, id uuid.UUID) (*Account, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.get(id)
}

func (d *MemoryDirectory) FindByUsername(_ context.Context, username string) (*Account, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	id, ok := d.byUsername[username]
	if !ok {
		return nil, common.ErrorNotFound
	}
	return d.get(id)
}

func (d *MemoryDirectory) ExistsByUsernameOrEmail(_ context.Context, username, email string) (bool, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	_, u := d.byUsername[username]
	_, e := d.byEmail[email]
	return u || e, nil
}

func (d *MemoryDirectory) Insert(_ context.Context, account *Account) (*Account, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if _, ok := d.byUsername[account.Username]; ok {
		return nil, common.ErrorAlreadyExists
	}
	if _, ok := d.byEmail[account.Email]; ok {
		return nil, common.ErrorAlreadyExists
	}

	stored := *account
	if stored.ID == uuid.Nil {
		stored.ID = uuid.New()
	}
	if _, ok := d.byID[stored.ID]; ok {
		return nil, common.ErrorAlreadyExists
	}

	now := d.now().UTC()
	stored.CreatedAt = now
	stored.UpdatedAt = now

	d.byID[stored.ID] = stored
	d.byUsername[stored.Username] = stored.ID
	d.byEmail[stored.Email] = stored.ID

	out := stored
	return &out, nil
}

// Update never changes username, email or the password hash.
func (d *MemoryDirectory) Update(_ context.Context, account *Account) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	stored, ok := d.byID[account.ID]
	if !ok {
		return common.ErrorNotFound
	}

	stored.FirstName = account.FirstName
	stored.LastName = account.LastName
	stored.IsActive = account.IsActive
	stored.IsVerified = account.IsVerified
	if account.LastLogin != nil {
		t := *account.LastLogin
		stored.LastLogin = &t
	} else {
		stored.LastLogin = nil
	}
	stored.UpdatedAt = d.now().UTC()
	d.byID[stored.ID] = stored

	account.UpdatedAt = stored.UpdatedAt
	return nil
}

// Len reports how many accounts are stored.
func (d *MemoryDirectory) Len() int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return len(d.byID)
}

func (d *MemoryDirectory) get(id uuid.UUID) (*Account, error) {
	a, ok := d.byID[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	if a.LastLogin != nil {
		t := *a.LastLogin
		a.LastLogin = &t
	}
	return &a, nil
}

// MemoryStore serves a single MemoryDirectory to every session. WithTx does
// not roll back writes made before fn fails.
type MemoryStore struct {
	dir *MemoryDirectory
}

func NewMemoryStore(dir *MemoryDirectory) *MemoryStore {
	if dir == nil {
		dir = NewMemoryDirectory()
	}
	return &MemoryStore{dir: dir}
}

func (s *MemoryStore) Directory() *MemoryDirectory { return s.dir }

func (s *MemoryStore) WithSession(ctx context.Context, fn func(ctx context.Context, dir Directory) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return fn(ctx, s.dir)
}

func (s *MemoryStore) WithTx(ctx context.Context, fn func(ctx context.Context, dir Directory) error) error {
	return s.WithSession(ctx, fn)
}
