package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"math/rand"
	"net/mail"
	"strings"
	"sync"
	"time"

	"wordnest/internal/authz"
	"wordnest/internal/models"
	"wordnest/internal/repositories"
	"wordnest/internal/session"
)

var (
	ErrInvalidCode        = errors.New("invalid verification code")
	ErrCodeExpired        = errors.New("verification code expired")
	ErrAccountNotFound    = errors.New("account not found")
	ErrAccountDisabled    = errors.New("account disabled")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrStaleSession       = errors.New("stale or missing auth session")
	ErrDispatchFailed     = errors.New("failed to dispatch verification code")
)

const defaultCodeTTL = 10 * time.Minute

// FieldError — ошибка валидации, привязанная к полю формы.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

type ValidationErrors []FieldError

func (e ValidationErrors) Error() string {
	msgs := make([]string, 0, len(e))
	for _, fe := range e {
		msgs = append(msgs, fe.Field+": "+fe.Message)
	}
	return "validation: " + strings.Join(msgs, "; ")
}

// RegistrationInput — поля завершения регистрации.
type RegistrationInput struct {
	FirstName string `json:"first_name"`
	Password1 string `json:"password1"`
	Password2 string `json:"password2"`
	Role      string `json:"role"`
}

// VerificationService — машина состояний авторизации через код на email:
// initial -> code_sent -> verified -> регистрация или вход.
// Состояние живёт в сессионном хранилище и ограничено его TTL.
type VerificationService struct {
	codes    repositories.VerificationCodeRepository
	users    repositories.UserRepository
	email    EmailService
	auth     AuthService
	sessions session.Store

	codeTTL time.Duration
	now     func() time.Time

	// генератор кода инжектируется для воспроизводимых тестов
	rngMu sync.Mutex
	rng   *rand.Rand
}

func NewVerificationService(
	codes repositories.VerificationCodeRepository,
	users repositories.UserRepository,
	email EmailService,
	auth AuthService,
	sessions session.Store,
	rng *rand.Rand,
) *VerificationService {
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &VerificationService{
		codes:    codes,
		users:    users,
		email:    email,
		auth:     auth,
		sessions: sessions,
		codeTTL:  defaultCodeTTL,
		now:      time.Now,
		rng:      rng,
	}
}

func (s *VerificationService) generateCode() string {
	s.rngMu.Lock()
	defer s.rngMu.Unlock()
	return fmt.Sprintf("%06d", s.rng.Intn(1000000))
}

// RequestCode — initial -> code_sent. Гасит прежние невыкупленные коды
// той же пары (email, purpose), выдаёт и отправляет новый.
func (s *VerificationService) RequestCode(ctx context.Context, sessionID, email, purpose string) error {
	email = strings.ToLower(strings.TrimSpace(email))
	var errs ValidationErrors
	if _, err := mail.ParseAddress(email); err != nil || email == "" {
		errs = append(errs, FieldError{Field: "email", Message: "введите корректный email"})
	}
	if purpose != models.PurposeRegister && purpose != models.PurposeLogin {
		errs = append(errs, FieldError{Field: "purpose", Message: "недопустимое назначение кода"})
	}
	if len(errs) > 0 {
		return errs
	}

	if err := s.codes.DeleteUnused(email, purpose); err != nil {
		return err
	}

	code := &models.VerificationCode{
		Email:     email,
		Code:      s.generateCode(),
		Purpose:   purpose,
		CreatedAt: s.now(),
	}
	if err := s.codes.Create(code); err != nil {
		return err
	}

	flow := session.AuthFlow{
		Stage:   session.StageCodeSent,
		Email:   email,
		Purpose: purpose,
	}
	if err := session.SetJSON(ctx, s.sessions, sessionID, session.KeyAuthFlow, flow); err != nil {
		return err
	}

	if err := s.email.SendVerificationCode(email, code.Code, purpose); err != nil {
		log.Printf("[auth][code] dispatch failed email=%q: %v", email, err)
		return fmt.Errorf("%w: %v", ErrDispatchFailed, err)
	}
	log.Printf("[auth][code] sent email=%q purpose=%s", email, purpose)
	return nil
}

// ConfirmCode — code_sent -> verified. Выкуп кода атомарный: одна
// условная UPDATE-строка, второй выкуп того же кода невозможен.
func (s *VerificationService) ConfirmCode(ctx context.Context, sessionID, code string) error {
	flow, err := s.flow(ctx, sessionID)
	if err != nil {
		return err
	}
	if flow.Stage != session.StageCodeSent {
		return ErrStaleSession
	}

	code = strings.TrimSpace(code)
	if code == "" {
		return ValidationErrors{{Field: "code", Message: "введите код подтверждения"}}
	}

	cutoff := s.now().Add(-s.codeTTL)
	consumed, err := s.codes.Consume(flow.Email, code, flow.Purpose, cutoff)
	if err != nil {
		return err
	}
	if consumed == nil {
		// отличаем протухший код от неверного
		stale, err := s.codes.HasUnused(flow.Email, code, flow.Purpose)
		if err != nil {
			return err
		}
		if stale {
			return ErrCodeExpired
		}
		return ErrInvalidCode
	}

	flow.Stage = session.StageVerified
	flow.Verified = true
	if err := session.SetJSON(ctx, s.sessions, sessionID, session.KeyAuthFlow, flow); err != nil {
		return err
	}
	log.Printf("[auth][confirm] OK email=%q purpose=%s", flow.Email, flow.Purpose)
	return nil
}

// Resend — повторная выдача кода; допустим с любой стадии, где известен email.
func (s *VerificationService) Resend(ctx context.Context, sessionID string) error {
	flow, err := s.flow(ctx, sessionID)
	if err != nil {
		return err
	}
	if flow.Email == "" {
		return ErrStaleSession
	}
	return s.RequestCode(ctx, sessionID, flow.Email, flow.Purpose)
}

// CompleteRegistration — verified(register) -> создание аккаунта.
// При успехе состояние сессии очищается.
func (s *VerificationService) CompleteRegistration(ctx context.Context, sessionID string, input RegistrationInput) (*models.User, error) {
	flow, err := s.flow(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if !flow.Verified || flow.Purpose != models.PurposeRegister {
		return nil, ErrStaleSession
	}

	var errs ValidationErrors
	if strings.TrimSpace(input.FirstName) == "" {
		errs = append(errs, FieldError{Field: "first_name", Message: "введите имя"})
	}
	if input.Password1 == "" {
		errs = append(errs, FieldError{Field: "password1", Message: "введите пароль"})
	}
	if input.Password1 != input.Password2 {
		errs = append(errs, FieldError{Field: "password2", Message: "пароли не совпадают"})
	}
	roleID, ok := authz.RoleFromName(input.Role)
	if !ok {
		errs = append(errs, FieldError{Field: "role", Message: "роль должна быть student или teacher"})
	}
	if len(errs) > 0 {
		return nil, errs
	}

	exists, err := s.users.ExistsByEmail(flow.Email)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, ValidationErrors{{Field: "email", Message: "пользователь с таким email уже зарегистрирован"}}
	}

	hash, err := s.auth.HashPassword(input.Password1)
	if err != nil {
		return nil, err
	}

	user := &models.User{
		FirstName:      strings.TrimSpace(input.FirstName),
		Email:          flow.Email,
		PasswordHash:   hash,
		RoleID:         roleID,
		IsActive:       true,
		NotifyTelegram: true,
	}
	if err := s.users.Create(user); err != nil {
		return nil, err
	}

	if err := s.sessions.Clear(ctx, sessionID); err != nil {
		log.Printf("[auth][register] clear session failed: %v", err)
	}

	if err := s.email.SendWelcomeEmail(user.Email, user.FirstName); err != nil {
		// не валим регистрацию из-за письма
		log.Printf("[auth][register] welcome email failed email=%q: %v", user.Email, err)
	}

	log.Printf("[auth][register] success userID=%d email=%q role=%s", user.ID, user.Email, input.Role)
	return user, nil
}

// CompleteLogin — verified(login) -> проверка пароля по email сессии.
func (s *VerificationService) CompleteLogin(ctx context.Context, sessionID, password string) (*models.User, error) {
	flow, err := s.flow(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if !flow.Verified || flow.Purpose != models.PurposeLogin {
		return nil, ErrStaleSession
	}

	user, err := s.users.GetByEmail(flow.Email)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrAccountNotFound
	}
	if !user.IsActive {
		return nil, ErrAccountDisabled
	}
	if !s.auth.CheckPassword(user.PasswordHash, strings.TrimSpace(password)) {
		return nil, ErrInvalidCredentials
	}

	if err := s.sessions.Clear(ctx, sessionID); err != nil {
		log.Printf("[auth][login] clear session failed: %v", err)
	}
	log.Printf("[auth][login] success userID=%d", user.ID)
	return user, nil
}

// Reset — сброс машины в initial с любой стадии.
func (s *VerificationService) Reset(ctx context.Context, sessionID string) error {
	_, err := s.sessions.Pop(ctx, sessionID, session.KeyAuthFlow)
	if errors.Is(err, session.ErrNotFound) {
		return nil
	}
	return err
}

func (s *VerificationService) flow(ctx context.Context, sessionID string) (session.AuthFlow, error) {
	var flow session.AuthFlow
	ok, err := session.GetJSON(ctx, s.sessions, sessionID, session.KeyAuthFlow, &flow)
	if err != nil {
		return flow, err
	}
	if !ok {
		return flow, ErrStaleSession
	}
	return flow, nil
}
