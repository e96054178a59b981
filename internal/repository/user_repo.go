package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"tour-booking-api/internal/model"
	"tour-booking-api/internal/query"
	"tour-booking-api/pkg/apierror"
)

// userColumns is the projection universe for the generic surface. Credential
// columns are deliberately absent so no query parameter can reach them.
var userColumns = []string{
	"id", "name", "email", "photo", "role", "created_at", "updated_at", "schema_version",
}

var UserQuery = query.Options{
	Filterable: map[string]bool{
		"name": true, "email": true, "role": true, "created_at": true,
	},
	Columns: userColumns,
	Hidden:  []string{"schema_version"},
}

const credentialColumns = `id, name, email, photo, role, password_hash,
	password_changed_at, password_reset_token, password_reset_expires,
	active, created_at, updated_at`

type UserRepository struct {
	pool *pgxpool.Pool
}

func NewUserRepository(pool *pgxpool.Pool) *UserRepository {
	return &UserRepository{pool: pool}
}

func userTargets(u *model.User) map[string]any {
	return map[string]any{
		"id":             &u.ID,
		"name":           &u.Name,
		"email":          &u.Email,
		"photo":          &u.Photo,
		"role":           &u.Role,
		"created_at":     &u.CreatedAt,
		"updated_at":     &u.UpdatedAt,
		"schema_version": &u.SchemaVersion,
	}
}

func (r *UserRepository) scanCredentialRow(row pgx.Row) (*model.User, error) {
	var u model.User
	err := row.Scan(&u.ID, &u.Name, &u.Email, &u.Photo, &u.Role, &u.PasswordHash,
		&u.PasswordChangedAt, &u.PasswordResetToken, &u.PasswordResetExpires,
		&u.Active, &u.CreatedAt, &u.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, model.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan user credentials: %w", err)
	}
	return &u, nil
}

// Credential store adapter, used by the auth and password services.

// LoadByEmail returns the full credential record for an active user. Inactive
// users are invisible on every read path.
func (r *UserRepository) LoadByEmail(ctx context.Context, email string) (*model.User, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT `+credentialColumns+` FROM users
		 WHERE lower(email) = lower($1) AND active`, strings.TrimSpace(email))
	return r.scanCredentialRow(row)
}

func (r *UserRepository) LoadByID(ctx context.Context, id string) (*model.User, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT `+credentialColumns+` FROM users WHERE id = $1 AND active`, id)
	return r.scanCredentialRow(row)
}

// LoadByResetTokenHash matches a stored reset-token hash that has not yet
// expired. The miss reason (unknown vs expired) is not distinguished.
func (r *UserRepository) LoadByResetTokenHash(ctx context.Context, tokenHash string) (*model.User, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT `+credentialColumns+` FROM users
		 WHERE password_reset_token = $1
		   AND password_reset_expires > now()
		   AND active`, tokenHash)
	u, err := r.scanCredentialRow(row)
	if errors.Is(err, model.ErrNotFound) {
		return nil, model.ErrResetTokenInvalid
	}
	return u, err
}

func (r *UserRepository) Create(ctx context.Context, u *model.User) (*model.User, error) {
	u.Name = strings.TrimSpace(u.Name)
	u.Email = strings.ToLower(strings.TrimSpace(u.Email))
	if u.Role == "" {
		u.Role = model.RoleUser
	}
	if err := validate.Struct(u); err != nil {
		return nil, err
	}

	row := r.pool.QueryRow(ctx, `
		INSERT INTO users (name, email, photo, role, password_hash)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING `+credentialColumns,
		u.Name, u.Email, u.Photo, u.Role, u.PasswordHash)

	created, err := r.scanCredentialRow(row)
	if err != nil {
		return nil, fmt.Errorf("create user: %w", err)
	}
	return created, nil
}

// SetResetToken stores the hash and expiry of a fresh reset token,
// overwriting any prior unconsumed one.
func (r *UserRepository) SetResetToken(ctx context.Context, userID string, tokenHash string, expires time.Time) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE users
		SET password_reset_token = $2, password_reset_expires = $3, updated_at = now()
		WHERE id = $1`, userID, tokenHash, expires)
	if err != nil {
		return fmt.Errorf("set reset token: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return model.ErrNotFound
	}
	return nil
}

func (r *UserRepository) ClearResetToken(ctx context.Context, userID string) error {
	_, err := r.pool.Exec(ctx, `
		UPDATE users
		SET password_reset_token = NULL, password_reset_expires = NULL, updated_at = now()
		WHERE id = $1`, userID)
	if err != nil {
		return fmt.Errorf("clear reset token: %w", err)
	}
	return nil
}

// ResetPassword consumes a reset token: the token-hash predicate makes the
// update atomic, so a token can be spent exactly once even under concurrent
// attempts.
func (r *UserRepository) ResetPassword(ctx context.Context, userID string, tokenHash string, passwordHash string, changedAt time.Time) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE users
		SET password_hash = $3, password_changed_at = $4,
		    password_reset_token = NULL, password_reset_expires = NULL,
		    updated_at = now()
		WHERE id = $1 AND password_reset_token = $2`,
		userID, tokenHash, passwordHash, changedAt)
	if err != nil {
		return fmt.Errorf("reset password: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return model.ErrResetTokenInvalid
	}
	return nil
}

func (r *UserRepository) UpdatePassword(ctx context.Context, userID string, passwordHash string, changedAt time.Time) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE users
		SET password_hash = $2, password_changed_at = $3, updated_at = now()
		WHERE id = $1 AND active`, userID, passwordHash, changedAt)
	if err != nil {
		return fmt.Errorf("update password: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return model.ErrNotFound
	}
	return nil
}

func (r *UserRepository) UpdateProfile(ctx context.Context, userID string, req model.UpdateMeRequest) (*model.User, error) {
	if req.Email != nil {
		normalized := strings.ToLower(strings.TrimSpace(*req.Email))
		req.Email = &normalized
	}
	if err := validate.Struct(&req); err != nil {
		return nil, err
	}

	row := r.pool.QueryRow(ctx, `
		UPDATE users
		SET name  = COALESCE($2, name),
		    email = COALESCE($3, email),
		    photo = COALESCE($4, photo),
		    updated_at = now()
		WHERE id = $1 AND active
		RETURNING `+credentialColumns,
		userID, req.Name, req.Email, req.Photo)
	return r.scanCredentialRow(row)
}

// Deactivate soft-deletes: the record stays but vanishes from every read.
func (r *UserRepository) Deactivate(ctx context.Context, userID string) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE users SET active = false, updated_at = now() WHERE id = $1`, userID)
	if err != nil {
		return fmt.Errorf("deactivate user: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return model.ErrNotFound
	}
	return nil
}

// Generic resource surface, routed on the admin collection only.

func (r *UserRepository) Find(ctx context.Context, spec *query.Spec, scope query.Scope) ([]model.User, error) {
	cols := spec.Columns()
	where, args := spec.Where(scope, 1)
	if where == "" {
		where = " WHERE active"
	} else {
		where += " AND active"
	}

	sql := "SELECT " + strings.Join(cols, ", ") + " FROM users" +
		where + spec.OrderBy() + spec.LimitOffset()

	rows, err := r.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	defer rows.Close()

	users := make([]model.User, 0)
	for rows.Next() {
		var u model.User
		dests, err := scanTargets(userTargets(&u), cols)
		if err != nil {
			return nil, err
		}
		if err := rows.Scan(dests...); err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

func (r *UserRepository) FindByID(ctx context.Context, id string, _ []string) (model.User, error) {
	var u model.User
	dests, err := scanTargets(userTargets(&u), userColumns)
	if err != nil {
		return model.User{}, err
	}

	err = r.pool.QueryRow(ctx,
		"SELECT "+strings.Join(userColumns, ", ")+" FROM users WHERE id = $1 AND active", id).
		Scan(dests...)
	if errors.Is(err, pgx.ErrNoRows) {
		return model.User{}, apierror.Newf(404, "No user found with id %s", id)
	}
	if err != nil {
		return model.User{}, fmt.Errorf("find user by id: %w", err)
	}
	return u, nil
}

// Insert is deliberately unrouted for users; account creation always goes
// through signup so the password lifecycle cannot be bypassed.
func (r *UserRepository) Insert(_ context.Context, _ *model.User) (model.User, error) {
	return model.User{}, apierror.New("This route is not defined. Please use /signup instead", 400)
}

func (r *UserRepository) Update(ctx context.Context, id string, patch map[string]any) (model.User, error) {
	u, err := r.FindByID(ctx, id, nil)
	if err != nil {
		return model.User{}, err
	}
	// FindByID only ever returns active users.
	u.Active = true

	for field, value := range patch {
		switch field {
		case "name":
			u.Name, err = patchString(field, value)
		case "email":
			var email string
			email, err = patchString(field, value)
			u.Email = strings.ToLower(strings.TrimSpace(email))
		case "photo":
			u.Photo, err = patchString(field, value)
		case "role":
			var role string
			role, err = patchString(field, value)
			if err == nil && !model.Role(role).Valid() {
				return model.User{}, apierror.Newf(400, "invalid role %q", role)
			}
			u.Role = model.Role(role)
		case "active":
			u.Active, err = patchBool(field, value)
		case "password", "password_confirm", "password_hash":
			return model.User{}, apierror.New("This route is not for password updates. Please use /updatePassword", 400)
		default:
			return model.User{}, apierror.Newf(400, "field %q cannot be updated", field)
		}
		if err != nil {
			return model.User{}, err
		}
	}
	if err := validate.Struct(&u); err != nil {
		return model.User{}, err
	}

	tag, err := r.pool.Exec(ctx, `
		UPDATE users
		SET name = $2, email = $3, photo = $4, role = $5, active = $6, updated_at = now()
		WHERE id = $1`,
		u.ID, u.Name, u.Email, u.Photo, u.Role, u.Active)
	if err != nil {
		return model.User{}, fmt.Errorf("update user: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return model.User{}, apierror.Newf(404, "No user found with id %s", id)
	}
	return u, nil
}

func (r *UserRepository) Delete(ctx context.Context, id string) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete user: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apierror.Newf(404, "No user found with id %s", id)
	}
	return nil
}
