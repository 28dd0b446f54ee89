package repositories

import (
	"database/sql"
	"fmt"
	"time"

	"wordnest/internal/models"
)

type VerificationCodeRepository interface {
	Create(code *models.VerificationCode) error
	// DeleteUnused — убирает невыкупленные коды пары (email, purpose)
	// перед выдачей нового. Удаление намеренно НЕ трогает коды другого
	// назначения: запрос на регистрацию не гасит код входа.
	DeleteUnused(email, purpose string) error
	// Consume — атомарно выкупает код: одна строка UPDATE с условиями
	// is_used=FALSE и created_at >= cutoff, повторный выкуп невозможен.
	Consume(email, code, purpose string, cutoff time.Time) (*models.VerificationCode, error)
	// HasUnused — есть ли невыкупленный код с таким значением
	// (независимо от возраста); нужен, чтобы отличить протухший код
	// от неверного.
	HasUnused(email, code, purpose string) (bool, error)
}

type verificationCodeRepository struct {
	DB *sql.DB
}

func NewVerificationCodeRepository(db *sql.DB) VerificationCodeRepository {
	return &verificationCodeRepository{DB: db}
}

func (r *verificationCodeRepository) Create(code *models.VerificationCode) error {
	const q = `
		INSERT INTO verification_codes (email, code, purpose, created_at, is_used)
		VALUES ($1, $2, $3, $4, FALSE)
		RETURNING id
	`
	if err := r.DB.QueryRow(q, code.Email, code.Code, code.Purpose, code.CreatedAt).Scan(&code.ID); err != nil {
		return fmt.Errorf("create verification code: %w", err)
	}
	return nil
}

func (r *verificationCodeRepository) DeleteUnused(email, purpose string) error {
	const q = `
		DELETE FROM verification_codes
		WHERE email = $1 AND purpose = $2 AND is_used = FALSE
	`
	if _, err := r.DB.Exec(q, email, purpose); err != nil {
		return fmt.Errorf("delete unused codes: %w", err)
	}
	return nil
}

func (r *verificationCodeRepository) Consume(email, code, purpose string, cutoff time.Time) (*models.VerificationCode, error) {
	const q = `
		UPDATE verification_codes
		SET is_used = TRUE
		WHERE email = $1 AND code = $2 AND purpose = $3
			AND is_used = FALSE AND created_at >= $4
		RETURNING id, email, code, purpose, created_at, is_used
	`
	var v models.VerificationCode
	err := r.DB.QueryRow(q, email, code, purpose, cutoff).Scan(
		&v.ID, &v.Email, &v.Code, &v.Purpose, &v.CreatedAt, &v.IsUsed,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("consume verification code: %w", err)
	}
	return &v, nil
}

func (r *verificationCodeRepository) HasUnused(email, code, purpose string) (bool, error) {
	const q = `
		SELECT EXISTS(
			SELECT 1 FROM verification_codes
			WHERE email = $1 AND code = $2 AND purpose = $3 AND is_used = FALSE
		)
	`
	var exists bool
	if err := r.DB.QueryRow(q, email, code, purpose).Scan(&exists); err != nil {
		return false, fmt.Errorf("check unused code: %w", err)
	}
	return exists, nil
}
