package orm

import (
	"context"

	"github.com/geocoder89/warehouse/internal/domain/user"
	"github.com/geocoder89/warehouse/internal/observability"
	"gorm.io/gorm"
)

type UsersRepo struct {
	db   *gorm.DB
	prom *observability.Prom
}

var userOutcome = isDomainErr(user.ErrNotFound, user.ErrUsernameTaken)

func (r *UsersRepo) Create(ctx context.Context, u user.User) (user.User, error) {
	err := r.prom.ObserveDB(backendName, "users.create", func() error {
		m := userModelFrom(u)
		return mapErr(r.db.WithContext(ctx).Create(&m).Error, user.ErrNotFound, user.ErrUsernameTaken)
	}, userOutcome)

	if err != nil {
		return user.User{}, err
	}
	return u, nil
}

func (r *UsersRepo) GetByID(ctx context.Context, id string) (user.User, error) {
	return r.first(ctx, "users.get_by_id", "id = ?", id)
}

func (r *UsersRepo) GetByUsername(ctx context.Context, username string) (user.User, error) {
	return r.first(ctx, "users.get_by_username", "username = ?", username)
}

func (r *UsersRepo) first(ctx context.Context, op, cond string, arg any) (user.User, error) {
	var m userModel

	err := r.prom.ObserveDB(backendName, op, func() error {
		return mapErr(r.db.WithContext(ctx).Where(cond, arg).First(&m).Error, user.ErrNotFound, user.ErrUsernameTaken)
	}, userOutcome)

	if err != nil {
		return user.User{}, err
	}
	return m.toDomain(), nil
}
