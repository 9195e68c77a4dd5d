package ports

import (
	"context"

	"github.com/blogcom/account-api/internal/core/domain"
)

// UserRepository is the credential store. Lookups that match nothing return
// domain.ErrUserNotFound; writes that would break the unique email or
// username constraint return domain.ErrEmailExists or domain.ErrUsernameTaken
// and leave the stored record untouched.
type UserRepository interface {
	FindByID(ctx context.Context, id string) (*domain.User, error)
	FindByEmail(ctx context.Context, email string) (*domain.User, error)
	FindByUsername(ctx context.Context, username string) (*domain.User, error)
	Create(ctx context.Context, user *domain.User) (*domain.User, error)
	Save(ctx context.Context, user *domain.User) (*domain.User, error)
}
