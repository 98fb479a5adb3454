package hosted

import (
	"context"
	"errors"
	"net/http"
	"net/url"

	"github.com/geocoder89/warehouse/internal/domain/user"
)

const usersTable = "users"

type UsersRepo struct {
	c *Client
}

var userOutcome = isDomainErr(user.ErrNotFound, user.ErrUsernameTaken)

func (r *UsersRepo) Create(ctx context.Context, u user.User) (user.User, error) {
	row := userRow{
		ID:           u.ID,
		Username:     u.Username,
		PasswordHash: u.PasswordHash,
		Role:         string(u.Role),
		CreatedAt:    u.CreatedAt,
		UpdatedAt:    u.UpdatedAt,
	}

	err := r.c.prom.ObserveDB(backendName, "users.create", func() error {
		var rows []userRow
		_, err := r.c.do(ctx, http.MethodPost, usersTable, nil, row, "return=representation", &rows)
		return mapUserErr(err)
	}, userOutcome)

	if err != nil {
		return user.User{}, err
	}
	return u, nil
}

func (r *UsersRepo) GetByID(ctx context.Context, id string) (user.User, error) {
	return r.one(ctx, "users.get_by_id", "id", id)
}

func (r *UsersRepo) GetByUsername(ctx context.Context, username string) (user.User, error) {
	return r.one(ctx, "users.get_by_username", "username", username)
}

func (r *UsersRepo) one(ctx context.Context, op, column, value string) (user.User, error) {
	q := url.Values{}
	q.Set("select", "*")
	q.Set(column, eq(value))
	q.Set("limit", "1")

	var rows []userRow
	err := r.c.prom.ObserveDB(backendName, op, func() error {
		_, err := r.c.do(ctx, http.MethodGet, usersTable, q, nil, "", &rows)
		if err == nil && len(rows) == 0 {
			err = errNoRows
		}
		return mapUserErr(err)
	}, userOutcome)

	if err != nil {
		return user.User{}, err
	}
	return rows[0].toDomain(), nil
}

func mapUserErr(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, errNoRows):
		return user.ErrNotFound
	case errors.Is(err, errConflict):
		return user.ErrUsernameTaken
	default:
		return err
	}
}
