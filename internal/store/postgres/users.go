// internal/store/postgres/users.go
package postgres

import (
	"context"
	"database/sql"
	stderrors "errors"
	"fmt"
	"strings"

	"careescapes-workers/internal/common/errors"
	"careescapes-workers/internal/models"

	"github.com/google/uuid"
)

const userColumns = `user_id, first_name, last_name, email_id, COALESCE(mobile, ''), two_factor_auth`

func scanUser(row interface{ Scan(...interface{}) error }) (*models.User, error) {
	var u models.User
	if err := row.Scan(&u.UserID, &u.FirstName, &u.LastName, &u.EmailID, &u.Mobile, &u.TwoFactorAuth); err != nil {
		return nil, err
	}
	return &u, nil
}

func (s *Store) CreateUser(ctx context.Context, user models.NewUser) (*models.User, error) {
	ctx, cancel := s.pg.WithQueryTimeout(ctx)
	defer cancel()

	var exists bool
	err := s.pg.DB.QueryRowContext(ctx, `
		SELECT EXISTS(SELECT 1 FROM users WHERE email_id = $1)`, user.EmailID).Scan(&exists)
	if err != nil {
		return nil, mapQueryError("user_exists", err)
	}
	if exists {
		return nil, errors.NewDuplicateRecordError("User with this email already exists")
	}

	row := s.pg.DB.QueryRowContext(ctx, `
		INSERT INTO users (user_id, first_name, last_name, email_id, mobile, two_factor_auth)
		VALUES ($1, $2, $3, $4, NULLIF($5, ''), false)
		RETURNING `+userColumns,
		uuid.New().String(), user.FirstName, user.LastName, user.EmailID, user.Mobile,
	)
	created, err := scanUser(row)
	if err != nil {
		return nil, mapQueryError("user_create", err)
	}
	return created, nil
}

func (s *Store) GetUser(ctx context.Context, userID string) (*models.User, error) {
	ctx, cancel := s.pg.WithQueryTimeout(ctx)
	defer cancel()

	u, err := scanUser(s.pg.DB.QueryRowContext(ctx, `
		SELECT `+userColumns+`
		FROM users
		WHERE user_id = $1`, userID))
	if stderrors.Is(err, sql.ErrNoRows) {
		return nil, errors.NewResourceNotFoundError("User", "")
	}
	if err != nil {
		return nil, mapQueryError("user_get", err)
	}
	return u, nil
}

// FindUserByName does a case-insensitive substring match on both names.
func (s *Store) FindUserByName(ctx context.Context, firstName, lastName string) ([]models.User, error) {
	ctx, cancel := s.pg.WithQueryTimeout(ctx)
	defer cancel()

	rows, err := s.pg.DB.QueryContext(ctx, `
		SELECT `+userColumns+`
		FROM users
		WHERE first_name ILIKE $1 AND last_name ILIKE $2`,
		"%"+firstName+"%", "%"+lastName+"%")
	if err != nil {
		return nil, mapQueryError("user_find_by_name", err)
	}
	defer rows.Close()

	var users []models.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, mapQueryError("user_find_by_name", err)
		}
		users = append(users, *u)
	}
	if err := rows.Err(); err != nil {
		return nil, mapQueryError("user_find_by_name", err)
	}
	return users, nil
}

// UpdateUser applies the non-empty fields of update and returns the stored row.
func (s *Store) UpdateUser(ctx context.Context, userID string, update models.UserUpdate) (*models.User, error) {
	if update.IsEmpty() {
		return s.GetUser(ctx, userID)
	}

	var sets []string
	var args []interface{}
	add := func(column, value string) {
		if value == "" {
			return
		}
		args = append(args, value)
		sets = append(sets, fmt.Sprintf("%s = $%d", column, len(args)))
	}
	add("first_name", update.FirstName)
	add("last_name", update.LastName)
	add("email_id", update.EmailID)
	add("mobile", update.Mobile)
	args = append(args, userID)

	query := fmt.Sprintf(`
		UPDATE users SET %s
		WHERE user_id = $%d
		RETURNING `+userColumns, strings.Join(sets, ", "), len(args))

	ctx, cancel := s.pg.WithQueryTimeout(ctx)
	defer cancel()

	u, err := scanUser(s.pg.DB.QueryRowContext(ctx, query, args...))
	if stderrors.Is(err, sql.ErrNoRows) {
		return nil, errors.NewResourceNotFoundError("User", "")
	}
	if err != nil {
		return nil, mapQueryError("user_update", err)
	}
	return u, nil
}
