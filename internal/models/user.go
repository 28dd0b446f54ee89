package models

import "time"

type User struct {
	ID           int    `json:"id"`
	FirstName    string `json:"first_name"`
	Email        string `json:"email"`
	PasswordHash string `json:"-"` // не отдаём наружу
	RoleID       int    `json:"role_id"`
	IsActive     bool   `json:"is_active"`

	CreatedAt time.Time `json:"created_at"`

	// refresh-хранение в БД
	RefreshToken     *string    `json:"-"` // храним opaque строку
	RefreshExpiresAt *time.Time `json:"-"` // срок действия
	RefreshRevoked   bool       `json:"-"` // если понадобится отозвать

	// Telegram — куда слать уведомления о домашних заданиях
	TelegramChatID int64 `json:"-"`
	NotifyTelegram bool  `json:"-"`
}

type LoginRequest struct {
	Password string `json:"password"`
}
