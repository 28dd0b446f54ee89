package services

import (
	"context"
	"errors"
	"math/rand"
	"testing"
	"time"

	"wordnest/internal/authz"
	"wordnest/internal/models"
	"wordnest/internal/session"
)

// ===== фейки =====

type fakeCodeRepo struct {
	codes []*models.VerificationCode
	seq   int64
}

func (f *fakeCodeRepo) Create(c *models.VerificationCode) error {
	f.seq++
	c.ID = f.seq
	cp := *c
	f.codes = append(f.codes, &cp)
	return nil
}

func (f *fakeCodeRepo) DeleteUnused(email, purpose string) error {
	kept := f.codes[:0]
	for _, c := range f.codes {
		if c.Email == email && c.Purpose == purpose && !c.IsUsed {
			continue
		}
		kept = append(kept, c)
	}
	f.codes = kept
	return nil
}

func (f *fakeCodeRepo) Consume(email, code, purpose string, cutoff time.Time) (*models.VerificationCode, error) {
	for _, c := range f.codes {
		if c.Email == email && c.Code == code && c.Purpose == purpose && !c.IsUsed && !c.CreatedAt.Before(cutoff) {
			c.IsUsed = true
			cp := *c
			return &cp, nil
		}
	}
	return nil, nil
}

func (f *fakeCodeRepo) HasUnused(email, code, purpose string) (bool, error) {
	for _, c := range f.codes {
		if c.Email == email && c.Code == code && c.Purpose == purpose && !c.IsUsed {
			return true, nil
		}
	}
	return false, nil
}

// last — последний выданный код пары (email, purpose).
func (f *fakeCodeRepo) last(email, purpose string) string {
	for i := len(f.codes) - 1; i >= 0; i-- {
		if f.codes[i].Email == email && f.codes[i].Purpose == purpose {
			return f.codes[i].Code
		}
	}
	return ""
}

type fakeUserRepo struct {
	users []*models.User
	seq   int
}

func (f *fakeUserRepo) Create(u *models.User) error {
	f.seq++
	u.ID = f.seq
	u.CreatedAt = time.Now()
	f.users = append(f.users, u)
	return nil
}

func (f *fakeUserRepo) GetByID(id int) (*models.User, error) {
	for _, u := range f.users {
		if u.ID == id {
			return u, nil
		}
	}
	return nil, nil
}

func (f *fakeUserRepo) GetByEmail(email string) (*models.User, error) {
	for _, u := range f.users {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, nil
}

func (f *fakeUserRepo) Update(u *models.User) error { return nil }
func (f *fakeUserRepo) Delete(id int) error         { return nil }

func (f *fakeUserRepo) List(limit, offset int) ([]*models.User, error) { return f.users, nil }

func (f *fakeUserRepo) ExistsByEmail(email string) (bool, error) {
	u, _ := f.GetByEmail(email)
	return u != nil, nil
}

func (f *fakeUserRepo) GetCountByRole(roleID int) (int, error) { return 0, nil }

func (f *fakeUserRepo) UpdateRefresh(userID int, token string, expiresAt time.Time) error { return nil }
func (f *fakeUserRepo) RotateRefresh(oldToken, newToken string, newExpiresAt time.Time) (*models.User, error) {
	return nil, nil
}
func (f *fakeUserRepo) ClearRefresh(userID int) error                   { return nil }
func (f *fakeUserRepo) GetByRefreshToken(token string) (*models.User, error) { return nil, nil }

func (f *fakeUserRepo) UpdateTelegramLink(userID int, chatID int64, enable bool) error { return nil }

type fakeEmail struct {
	sentCodes    []string
	welcomeTo    []string
	homeworkTo   []string
	failDispatch bool
}

func (f *fakeEmail) SendVerificationCode(email, code, purpose string) error {
	if f.failDispatch {
		return errors.New("smtp down")
	}
	f.sentCodes = append(f.sentCodes, code)
	return nil
}

func (f *fakeEmail) SendWelcomeEmail(email, firstName string) error {
	f.welcomeTo = append(f.welcomeTo, email)
	return nil
}

func (f *fakeEmail) SendHomeworkEmail(email, title string, dueDate time.Time) error {
	f.homeworkTo = append(f.homeworkTo, email)
	return nil
}

// ===== фикстура =====

type verifyFixture struct {
	svc   *VerificationService
	codes *fakeCodeRepo
	users *fakeUserRepo
	email *fakeEmail
	store *session.MemoryStore
	clock *time.Time
}

func newVerifyFixture(t *testing.T) *verifyFixture {
	t.Helper()
	now := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)
	f := &verifyFixture{
		codes: &fakeCodeRepo{},
		users: &fakeUserRepo{},
		email: &fakeEmail{},
		clock: &now,
	}
	f.store = session.NewMemoryStoreWithClock(10*time.Minute, func() time.Time { return *f.clock })
	f.svc = NewVerificationService(
		f.codes, f.users, f.email, NewAuthService(), f.store,
		rand.New(rand.NewSource(1)),
	)
	f.svc.now = func() time.Time { return *f.clock }
	return f
}

func (f *verifyFixture) advance(d time.Duration) {
	*f.clock = f.clock.Add(d)
}

const sid = "sess-1"

// ===== тесты =====

func TestRequestCodeSendsSixDigits(t *testing.T) {
	f := newVerifyFixture(t)
	ctx := context.Background()

	if err := f.svc.RequestCode(ctx, sid, "User@Example.com", models.PurposeRegister); err != nil {
		t.Fatalf("RequestCode: %v", err)
	}
	if len(f.email.sentCodes) != 1 {
		t.Fatalf("expected 1 sent code, got %d", len(f.email.sentCodes))
	}
	code := f.email.sentCodes[0]
	if len(code) != 6 {
		t.Fatalf("expected 6-digit code, got %q", code)
	}

	var flow session.AuthFlow
	ok, err := session.GetJSON(ctx, f.store, sid, session.KeyAuthFlow, &flow)
	if err != nil || !ok {
		t.Fatalf("flow not stored: ok=%v err=%v", ok, err)
	}
	if flow.Stage != session.StageCodeSent {
		t.Fatalf("expected stage code_sent, got %q", flow.Stage)
	}
	if flow.Email != "user@example.com" {
		t.Fatalf("email not normalized: %q", flow.Email)
	}
}

func TestRequestCodeRejectsBadInput(t *testing.T) {
	f := newVerifyFixture(t)
	ctx := context.Background()

	err := f.svc.RequestCode(ctx, sid, "not-an-email", models.PurposeRegister)
	var verrs ValidationErrors
	if !errors.As(err, &verrs) {
		t.Fatalf("expected ValidationErrors, got %v", err)
	}

	err = f.svc.RequestCode(ctx, sid, "user@example.com", "password_reset")
	if !errors.As(err, &verrs) {
		t.Fatalf("expected ValidationErrors for bad purpose, got %v", err)
	}
}

func TestReissueInvalidatesPreviousCode(t *testing.T) {
	f := newVerifyFixture(t)
	ctx := context.Background()

	if err := f.svc.RequestCode(ctx, sid, "user@example.com", models.PurposeLogin); err != nil {
		t.Fatalf("RequestCode: %v", err)
	}
	first := f.codes.last("user@example.com", models.PurposeLogin)

	if err := f.svc.Resend(ctx, sid); err != nil {
		t.Fatalf("Resend: %v", err)
	}
	second := f.codes.last("user@example.com", models.PurposeLogin)
	if first == second {
		t.Fatalf("resend returned the same code")
	}

	if err := f.svc.ConfirmCode(ctx, sid, first); !errors.Is(err, ErrInvalidCode) {
		t.Fatalf("old code should be invalid, got %v", err)
	}
	if err := f.svc.ConfirmCode(ctx, sid, second); err != nil {
		t.Fatalf("new code should confirm: %v", err)
	}
}

func TestConfirmCodeIsSingleUse(t *testing.T) {
	f := newVerifyFixture(t)
	ctx := context.Background()

	if err := f.svc.RequestCode(ctx, sid, "user@example.com", models.PurposeRegister); err != nil {
		t.Fatalf("RequestCode: %v", err)
	}
	code := f.codes.last("user@example.com", models.PurposeRegister)
	if err := f.svc.ConfirmCode(ctx, sid, code); err != nil {
		t.Fatalf("first confirm: %v", err)
	}

	// вторая сессия с тем же кодом: стадия code_sent, но код уже выкуплен
	flow := session.AuthFlow{Stage: session.StageCodeSent, Email: "user@example.com", Purpose: models.PurposeRegister}
	if err := session.SetJSON(ctx, f.store, "sess-2", session.KeyAuthFlow, flow); err != nil {
		t.Fatal(err)
	}
	if err := f.svc.ConfirmCode(ctx, "sess-2", code); !errors.Is(err, ErrInvalidCode) {
		t.Fatalf("used code should be invalid, got %v", err)
	}
}

func TestConfirmCodeExpired(t *testing.T) {
	f := newVerifyFixture(t)
	ctx := context.Background()

	if err := f.svc.RequestCode(ctx, sid, "user@example.com", models.PurposeLogin); err != nil {
		t.Fatalf("RequestCode: %v", err)
	}
	code := f.codes.last("user@example.com", models.PurposeLogin)

	f.advance(9 * time.Minute)
	if err := f.svc.ConfirmCode(ctx, sid, code); err != nil {
		t.Fatalf("code should still be valid at 9m: %v", err)
	}

	// вторая попытка с новым кодом, но спустя больше 10 минут
	f2 := newVerifyFixture(t)
	if err := f2.svc.RequestCode(ctx, sid, "user@example.com", models.PurposeLogin); err != nil {
		t.Fatalf("RequestCode: %v", err)
	}
	code2 := f2.codes.last("user@example.com", models.PurposeLogin)
	f2.advance(9 * time.Minute)
	// сессию держим живой, а код стареет дальше
	var flow session.AuthFlow
	if ok, _ := session.GetJSON(ctx, f2.store, sid, session.KeyAuthFlow, &flow); !ok {
		t.Fatal("flow missing")
	}
	_ = session.SetJSON(ctx, f2.store, sid, session.KeyAuthFlow, flow)
	f2.advance(2 * time.Minute)

	if err := f2.svc.ConfirmCode(ctx, sid, code2); !errors.Is(err, ErrCodeExpired) {
		t.Fatalf("expected ErrCodeExpired, got %v", err)
	}
}

func TestConfirmCodeWrongValue(t *testing.T) {
	f := newVerifyFixture(t)
	ctx := context.Background()

	if err := f.svc.RequestCode(ctx, sid, "user@example.com", models.PurposeRegister); err != nil {
		t.Fatalf("RequestCode: %v", err)
	}
	if err := f.svc.ConfirmCode(ctx, sid, "000000"); !errors.Is(err, ErrInvalidCode) {
		t.Fatalf("expected ErrInvalidCode, got %v", err)
	}
}

func TestConfirmWithoutSession(t *testing.T) {
	f := newVerifyFixture(t)
	if err := f.svc.ConfirmCode(context.Background(), "unknown", "123456"); !errors.Is(err, ErrStaleSession) {
		t.Fatalf("expected ErrStaleSession, got %v", err)
	}
}

func TestRegistrationFullFlow(t *testing.T) {
	f := newVerifyFixture(t)
	ctx := context.Background()

	if err := f.svc.RequestCode(ctx, sid, "new@example.com", models.PurposeRegister); err != nil {
		t.Fatalf("RequestCode: %v", err)
	}
	code := f.codes.last("new@example.com", models.PurposeRegister)
	if err := f.svc.ConfirmCode(ctx, sid, code); err != nil {
		t.Fatalf("ConfirmCode: %v", err)
	}

	user, err := f.svc.CompleteRegistration(ctx, sid, RegistrationInput{
		FirstName: "Аня",
		Password1: "secret123",
		Password2: "secret123",
		Role:      "student",
	})
	if err != nil {
		t.Fatalf("CompleteRegistration: %v", err)
	}
	if user.ID == 0 || user.Email != "new@example.com" {
		t.Fatalf("unexpected user: %+v", user)
	}
	if user.RoleID != authz.RoleStudent {
		t.Fatalf("expected student role, got %d", user.RoleID)
	}
	if !NewAuthService().CheckPassword(user.PasswordHash, "secret123") {
		t.Fatal("password hash does not match")
	}
	if len(f.email.welcomeTo) != 1 {
		t.Fatalf("welcome email not sent")
	}

	// сессия авторизации очищена
	var flow session.AuthFlow
	if ok, _ := session.GetJSON(ctx, f.store, sid, session.KeyAuthFlow, &flow); ok {
		t.Fatal("auth flow should be cleared after registration")
	}
}

func TestRegistrationRequiresVerifiedRegisterFlow(t *testing.T) {
	f := newVerifyFixture(t)
	ctx := context.Background()

	// verified, но purpose=login
	flow := session.AuthFlow{Stage: session.StageVerified, Email: "u@example.com", Purpose: models.PurposeLogin, Verified: true}
	if err := session.SetJSON(ctx, f.store, sid, session.KeyAuthFlow, flow); err != nil {
		t.Fatal(err)
	}
	_, err := f.svc.CompleteRegistration(ctx, sid, RegistrationInput{
		FirstName: "A", Password1: "x", Password2: "x", Role: "student",
	})
	if !errors.Is(err, ErrStaleSession) {
		t.Fatalf("expected ErrStaleSession, got %v", err)
	}
}

func TestRegistrationValidation(t *testing.T) {
	f := newVerifyFixture(t)
	ctx := context.Background()

	flow := session.AuthFlow{Stage: session.StageVerified, Email: "u@example.com", Purpose: models.PurposeRegister, Verified: true}
	if err := session.SetJSON(ctx, f.store, sid, session.KeyAuthFlow, flow); err != nil {
		t.Fatal(err)
	}

	_, err := f.svc.CompleteRegistration(ctx, sid, RegistrationInput{
		FirstName: "",
		Password1: "a",
		Password2: "b",
		Role:      "admin",
	})
	var verrs ValidationErrors
	if !errors.As(err, &verrs) {
		t.Fatalf("expected ValidationErrors, got %v", err)
	}
	if len(verrs) != 3 {
		t.Fatalf("expected 3 field errors, got %d: %v", len(verrs), verrs)
	}
}

func TestLoginFlow(t *testing.T) {
	f := newVerifyFixture(t)
	ctx := context.Background()

	hash, _ := NewAuthService().HashPassword("secret123")
	f.users.Create(&models.User{
		FirstName: "Боря", Email: "b@example.com",
		PasswordHash: hash, RoleID: authz.RoleStudent, IsActive: true,
	})

	if err := f.svc.RequestCode(ctx, sid, "b@example.com", models.PurposeLogin); err != nil {
		t.Fatalf("RequestCode: %v", err)
	}
	code := f.codes.last("b@example.com", models.PurposeLogin)
	if err := f.svc.ConfirmCode(ctx, sid, code); err != nil {
		t.Fatalf("ConfirmCode: %v", err)
	}

	if _, err := f.svc.CompleteLogin(ctx, sid, "wrong"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}

	user, err := f.svc.CompleteLogin(ctx, sid, "secret123")
	if err != nil {
		t.Fatalf("CompleteLogin: %v", err)
	}
	if user.Email != "b@example.com" {
		t.Fatalf("unexpected user: %+v", user)
	}
}

func TestLoginUnknownAndDisabledAccount(t *testing.T) {
	f := newVerifyFixture(t)
	ctx := context.Background()

	flow := session.AuthFlow{Stage: session.StageVerified, Email: "ghost@example.com", Purpose: models.PurposeLogin, Verified: true}
	_ = session.SetJSON(ctx, f.store, sid, session.KeyAuthFlow, flow)
	if _, err := f.svc.CompleteLogin(ctx, sid, "x"); !errors.Is(err, ErrAccountNotFound) {
		t.Fatalf("expected ErrAccountNotFound, got %v", err)
	}

	hash, _ := NewAuthService().HashPassword("pw")
	f.users.Create(&models.User{Email: "off@example.com", PasswordHash: hash, IsActive: false})
	flow.Email = "off@example.com"
	_ = session.SetJSON(ctx, f.store, sid, session.KeyAuthFlow, flow)
	if _, err := f.svc.CompleteLogin(ctx, sid, "pw"); !errors.Is(err, ErrAccountDisabled) {
		t.Fatalf("expected ErrAccountDisabled, got %v", err)
	}
}

func TestResetClearsFlow(t *testing.T) {
	f := newVerifyFixture(t)
	ctx := context.Background()

	if err := f.svc.RequestCode(ctx, sid, "user@example.com", models.PurposeRegister); err != nil {
		t.Fatalf("RequestCode: %v", err)
	}
	if err := f.svc.Reset(ctx, sid); err != nil {
		t.Fatalf("Reset: %v", err)
	}
	if err := f.svc.ConfirmCode(ctx, sid, "123456"); !errors.Is(err, ErrStaleSession) {
		t.Fatalf("expected ErrStaleSession after reset, got %v", err)
	}
	// повторный сброс пустой сессии — не ошибка
	if err := f.svc.Reset(ctx, sid); err != nil {
		t.Fatalf("Reset on empty session: %v", err)
	}
}
