package repositories

import (
	"database/sql"
	"time"

	"wordnest/internal/models"
)

type UserRepository interface {
	Create(user *models.User) error
	GetByID(id int) (*models.User, error)
	GetByEmail(email string) (*models.User, error)
	Update(user *models.User) error
	Delete(id int) error
	List(limit, offset int) ([]*models.User, error)
	ExistsByEmail(email string) (bool, error)
	GetCountByRole(roleID int) (int, error)

	// refresh helpers
	UpdateRefresh(userID int, token string, expiresAt time.Time) error
	RotateRefresh(oldToken, newToken string, newExpiresAt time.Time) (*models.User, error)
	ClearRefresh(userID int) error
	GetByRefreshToken(token string) (*models.User, error)

	// telegram helpers
	UpdateTelegramLink(userID int, chatID int64, enable bool) error
}

type userRepository struct {
	DB *sql.DB
}

func NewUserRepository(db *sql.DB) UserRepository {
	return &userRepository{DB: db}
}

const userColumns = `
	id, first_name, email, password_hash, role_id, is_active, created_at,
	refresh_token, refresh_expires_at, refresh_revoked,
	COALESCE(telegram_chat_id,0), COALESCE(notify_telegram,TRUE)
`

func (r *userRepository) Create(user *models.User) error {
	const q = `
		INSERT INTO users (
			first_name, email, password_hash, role_id, is_active, created_at,
			refresh_token, refresh_expires_at, refresh_revoked,
			telegram_chat_id, notify_telegram
		)
		VALUES ($1,$2,$3,$4,$5,NOW(),NULL,NULL,FALSE,$6,$7)
		RETURNING id, created_at
	`
	return r.DB.QueryRow(q,
		user.FirstName,
		user.Email,
		user.PasswordHash,
		user.RoleID,
		user.IsActive,
		user.TelegramChatID,
		user.NotifyTelegram,
	).Scan(&user.ID, &user.CreatedAt)
}

func (r *userRepository) scanUser(row *sql.Row) (*models.User, error) {
	u := &models.User{}
	var (
		rt       sql.NullString
		rte      sql.NullTime
		rr       sql.NullBool
		tgChatID sql.NullInt64
		tgNotify sql.NullBool
	)
	err := row.Scan(
		&u.ID, &u.FirstName, &u.Email, &u.PasswordHash, &u.RoleID, &u.IsActive, &u.CreatedAt,
		&rt, &rte, &rr,
		&tgChatID, &tgNotify,
	)
	if err != nil {
		return nil, err
	}
	if rt.Valid {
		s := rt.String
		u.RefreshToken = &s
	}
	if rte.Valid {
		t := rte.Time
		u.RefreshExpiresAt = &t
	}
	if rr.Valid {
		u.RefreshRevoked = rr.Bool
	}
	if tgChatID.Valid {
		u.TelegramChatID = tgChatID.Int64
	}
	if tgNotify.Valid {
		u.NotifyTelegram = tgNotify.Bool
	}
	return u, nil
}

func (r *userRepository) GetByID(id int) (*models.User, error) {
	const q = `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	return r.scanUser(r.DB.QueryRow(q, id))
}

func (r *userRepository) GetByEmail(email string) (*models.User, error) {
	const q = `SELECT ` + userColumns + ` FROM users WHERE email = $1`
	u, err := r.scanUser(r.DB.QueryRow(q, email))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return u, err
}

func (r *userRepository) Update(user *models.User) error {
	const q = `
		UPDATE users
		SET first_name=$1, email=$2, password_hash=$3, role_id=$4, is_active=$5,
			telegram_chat_id=$6, notify_telegram=$7
		WHERE id=$8
	`
	_, err := r.DB.Exec(q,
		user.FirstName, user.Email, user.PasswordHash, user.RoleID, user.IsActive,
		user.TelegramChatID, user.NotifyTelegram,
		user.ID,
	)
	return err
}

func (r *userRepository) Delete(id int) error {
	_, err := r.DB.Exec(`DELETE FROM users WHERE id=$1`, id)
	return err
}

func (r *userRepository) List(limit, offset int) ([]*models.User, error) {
	const q = `
		SELECT id, first_name, email, role_id, is_active, created_at
		FROM users
		ORDER BY id
		LIMIT $1 OFFSET $2
	`
	rows, err := r.DB.Query(q, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var res []*models.User
	for rows.Next() {
		u := &models.User{}
		if err := rows.Scan(&u.ID, &u.FirstName, &u.Email, &u.RoleID, &u.IsActive, &u.CreatedAt); err != nil {
			return nil, err
		}
		res = append(res, u)
	}
	return res, rows.Err()
}

func (r *userRepository) ExistsByEmail(email string) (bool, error) {
	var exists bool
	err := r.DB.QueryRow(`SELECT EXISTS(SELECT 1 FROM users WHERE email=$1)`, email).Scan(&exists)
	return exists, err
}

func (r *userRepository) GetCountByRole(roleID int) (int, error) {
	var c int
	err := r.DB.QueryRow(`SELECT COUNT(*) FROM users WHERE role_id = $1`, roleID).Scan(&c)
	return c, err
}

// ===== refresh helpers =====

func (r *userRepository) UpdateRefresh(userID int, token string, expiresAt time.Time) error {
	const q = `
		UPDATE users
		SET refresh_token=$1, refresh_expires_at=$2, refresh_revoked=FALSE
		WHERE id=$3
	`
	_, err := r.DB.Exec(q, token, expiresAt, userID)
	return err
}

func (r *userRepository) RotateRefresh(oldToken, newToken string, newExpiresAt time.Time) (*models.User, error) {
	const q = `
		UPDATE users
		SET refresh_token=$1, refresh_expires_at=$2, refresh_revoked=FALSE
		WHERE refresh_token=$3
		RETURNING ` + userColumns
	u, err := r.scanUser(r.DB.QueryRow(q, newToken, newExpiresAt, oldToken))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return u, err
}

func (r *userRepository) ClearRefresh(userID int) error {
	_, err := r.DB.Exec(`
		UPDATE users
		SET refresh_token=NULL, refresh_expires_at=NULL, refresh_revoked=TRUE
		WHERE id=$1
	`, userID)
	return err
}

func (r *userRepository) GetByRefreshToken(token string) (*models.User, error) {
	const q = `SELECT ` + userColumns + ` FROM users WHERE refresh_token = $1`
	u, err := r.scanUser(r.DB.QueryRow(q, token))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return u, err
}

// ===== telegram helpers =====

func (r *userRepository) UpdateTelegramLink(userID int, chatID int64, enable bool) error {
	_, err := r.DB.Exec(`
		UPDATE users
		SET telegram_chat_id=$1, notify_telegram=$2
		WHERE id=$3
	`, chatID, enable, userID)
	return err
}
