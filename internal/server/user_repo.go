package server

import (
	"context"
	"database/sql"

	"github.com/google/uuid"

	"github.com/hgdelgado/timedeck/internal/models"
)

type UserRepo struct {
	db *sql.DB
}

func NewUserRepo(db *sql.DB) *UserRepo {
	return &UserRepo{db: db}
}

func (r *UserRepo) Create(ctx context.Context, userName, email, passwordHash string, roles []string) (*models.User, error) {
	id := uuid.New().String()

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		"INSERT INTO users (id, user_name, email, password_hash) VALUES (?, ?, ?, ?)",
		id, userName, email, passwordHash,
	); err != nil {
		return nil, err
	}

	for _, role := range roles {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO user_roles (user_id, role_id)
			SELECT ?, id FROM roles WHERE name = ?
		`, id, role); err != nil {
			return nil, err
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}

	return r.GetByID(ctx, id)
}

func (r *UserRepo) GetByID(ctx context.Context, id string) (*models.User, error) {
	var u models.User
	err := r.db.QueryRowContext(ctx,
		"SELECT id, user_name, email FROM users WHERE id = ?", id,
	).Scan(&u.ID, &u.UserName, &u.Email)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	if u.Roles, err = r.rolesOf(ctx, id); err != nil {
		return nil, err
	}
	return &u, nil
}

// GetByEmail also returns the password hash for login verification.
func (r *UserRepo) GetByEmail(ctx context.Context, email string) (*models.User, string, error) {
	var u models.User
	var hash string
	err := r.db.QueryRowContext(ctx,
		"SELECT id, user_name, email, password_hash FROM users WHERE email = ?", email,
	).Scan(&u.ID, &u.UserName, &u.Email, &hash)

	if err == sql.ErrNoRows {
		return nil, "", nil
	}
	if err != nil {
		return nil, "", err
	}

	if u.Roles, err = r.rolesOf(ctx, u.ID); err != nil {
		return nil, "", err
	}
	return &u, hash, nil
}

func (r *UserRepo) GetAll(ctx context.Context) ([]models.User, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT id, user_name, email FROM users ORDER BY user_name")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var users []models.User
	for rows.Next() {
		var u models.User
		if err := rows.Scan(&u.ID, &u.UserName, &u.Email); err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range users {
		if users[i].Roles, err = r.rolesOf(ctx, users[i].ID); err != nil {
			return nil, err
		}
	}
	return users, nil
}

func (r *UserRepo) GetPage(ctx context.Context, page, pageSize int) ([]models.User, int, error) {
	var total int
	if err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM users").Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := r.db.QueryContext(ctx,
		"SELECT id, user_name, email FROM users ORDER BY user_name LIMIT ? OFFSET ?",
		pageSize, (page-1)*pageSize)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var users []models.User
	for rows.Next() {
		var u models.User
		if err := rows.Scan(&u.ID, &u.UserName, &u.Email); err != nil {
			return nil, 0, err
		}
		users = append(users, u)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}

	for i := range users {
		if users[i].Roles, err = r.rolesOf(ctx, users[i].ID); err != nil {
			return nil, 0, err
		}
	}
	return users, total, nil
}

// Update replaces profile fields; a non-nil roles slice replaces the role
// assignment as well.
func (r *UserRepo) Update(ctx context.Context, update models.UserUpdate) (*models.User, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		"UPDATE users SET user_name = ?, email = ? WHERE id = ?",
		update.UserName, update.Email, update.ID,
	); err != nil {
		return nil, err
	}

	if update.Roles != nil {
		if _, err := tx.ExecContext(ctx,
			"DELETE FROM user_roles WHERE user_id = ?", update.ID); err != nil {
			return nil, err
		}
		for _, role := range update.Roles {
			if _, err := tx.ExecContext(ctx, `
				INSERT INTO user_roles (user_id, role_id)
				SELECT ?, id FROM roles WHERE name = ?
			`, update.ID, role); err != nil {
				return nil, err
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}

	return r.GetByID(ctx, update.ID)
}

func (r *UserRepo) Delete(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx, "DELETE FROM users WHERE id = ?", id)
	return err
}

func (r *UserRepo) rolesOf(ctx context.Context, userID string) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT r.name
		FROM user_roles ur
		JOIN roles r ON r.id = ur.role_id
		WHERE ur.user_id = ?
		ORDER BY r.name
	`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	roles := []string{}
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		roles = append(roles, name)
	}
	return roles, rows.Err()
}
