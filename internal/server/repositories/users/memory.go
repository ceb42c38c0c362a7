package users

import (
	"context"
	"sync"
	"time"

	"github.com/dmitrijs2005/gatekeeper/internal/common"
	"github.com/dmitrijs2005/gatekeeper/internal/server/models"
)

// MemoryRepository keeps users in process memory. The mutex stands in for
// the unique index a database would provide.
type MemoryRepository struct {
	mu      sync.Mutex
	byEmail map[string]models.User
	nextID  int64
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{byEmail: make(map[string]models.User), nextID: 1}
}

func (r *MemoryRepository) Create(ctx context.Context, user *models.User) (*models.User, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.byEmail[user.Email]; ok {
		return nil, conflictOn(emailUniqueConstraint)
	}

	user.ID = r.nextID
	user.CreatedAt = time.Now().UTC()
	r.nextID++
	r.byEmail[user.Email] = cloneUser(*user)

	return user, nil
}

func (r *MemoryRepository) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	u, ok := r.byEmail[email]
	if !ok {
		return nil, common.ErrorNotFound
	}
	out := cloneUser(u)
	return &out, nil
}

func cloneUser(u models.User) models.User {
	if u.FirstName != nil {
		v := *u.FirstName
		u.FirstName = &v
	}
	if u.LastName != nil {
		v := *u.LastName
		u.LastName = &v
	}
	return u
}
