package session

import (
	"context"
	"encoding/json"
	"errors"
)

// Ключи состояния внутри сессии.
const (
	KeyAuthFlow = "auth_flow"
	KeyQuizRun  = "quiz_run"
)

var ErrNotFound = errors.New("session key not found")

// Store — хранилище сессионного состояния, ограниченное TTL.
// Значения привязаны к sessionID браузерной сессии.
type Store interface {
	Get(ctx context.Context, sessionID, key string) ([]byte, error)
	Set(ctx context.Context, sessionID, key string, value []byte) error
	Pop(ctx context.Context, sessionID, key string) ([]byte, error)
	Clear(ctx context.Context, sessionID string) error
}

// Стадии авторизации.
const (
	StageInitial  = "initial"
	StageCodeSent = "code_sent"
	StageVerified = "verified"
)

// AuthFlow — состояние машины авторизации в сессии.
// Комбинации стадий и полей фиксированы: email/purpose появляются
// начиная с code_sent, verified возможен только после проверки кода.
type AuthFlow struct {
	Stage    string `json:"stage"`
	Email    string `json:"email,omitempty"`
	Purpose  string `json:"purpose,omitempty"`
	Verified bool   `json:"verified"`
}

// QuizItem — один вопрос: слово и режим, в котором его спрашиваем.
type QuizItem struct {
	WordID int64  `json:"word_id"`
	Mode   string `json:"mode"`
}

// QuizRun — состояние прохождения теста в сессии.
// 0 <= CurrentIndex <= len(Items); равенство означает завершение.
type QuizRun struct {
	TestSessionID int64      `json:"test_session_id"`
	Items         []QuizItem `json:"items"`
	CurrentIndex  int        `json:"current_index"`
}

// GetJSON — читает и декодирует значение; (false, nil) если ключа нет.
func GetJSON(ctx context.Context, s Store, sessionID, key string, v any) (bool, error) {
	raw, err := s.Get(ctx, sessionID, key)
	if errors.Is(err, ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return false, err
	}
	return true, nil
}

func SetJSON(ctx context.Context, s Store, sessionID, key string, v any) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return s.Set(ctx, sessionID, key, raw)
}
