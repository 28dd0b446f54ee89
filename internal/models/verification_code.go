package models

import "time"

// Назначение кода подтверждения.
const (
	PurposeRegister = "register"
	PurposeLogin    = "login"
)

// VerificationCode — одноразовый код, отправленный на email.
// Валиден 10 минут с момента создания, на пару (email, purpose)
// актуален только последний невыкупленный код.
type VerificationCode struct {
	ID        int64     `json:"id"`
	Email     string    `json:"email"`
	Code      string    `json:"-"` // 6 цифр, наружу не отдаём
	Purpose   string    `json:"purpose"`
	CreatedAt time.Time `json:"created_at"`
	IsUsed    bool      `json:"is_used"`
}
