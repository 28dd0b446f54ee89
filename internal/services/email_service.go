package services

import (
	"fmt"
	"time"

	"gopkg.in/gomail.v2"
)

type EmailService interface {
	SendVerificationCode(email, code, purpose string) error
	SendWelcomeEmail(email, firstName string) error
	SendHomeworkEmail(email, title string, dueDate time.Time) error
}

type emailService struct {
	dialer *gomail.Dialer
	from   string
}

func NewEmailService(smtpHost string, smtpPort int, smtpUser, smtpPassword, fromEmail string) EmailService {
	dialer := gomail.NewDialer(smtpHost, smtpPort, smtpUser, smtpPassword)
	return &emailService{
		dialer: dialer,
		from:   fromEmail,
	}
}

func (s *emailService) SendVerificationCode(email, code, purpose string) error {
	m := gomail.NewMessage()
	m.SetHeader("From", s.from)
	m.SetHeader("To", email)

	action := "входа"
	if purpose == "register" {
		action = "регистрации"
	}
	m.SetHeader("Subject", "Код подтверждения WordNest")

	body := fmt.Sprintf(`
		<h3>Подтверждение email</h3>
		<p>Ваш код для %s: <strong>%s</strong></p>
		<p>Код действителен в течение 10 минут.</p>
		<p>Если вы не запрашивали код, просто проигнорируйте это письмо.</p>
	`, action, code)

	m.SetBody("text/html", body)

	if err := s.dialer.DialAndSend(m); err != nil {
		return fmt.Errorf("failed to send verification email: %w", err)
	}

	return nil
}

func (s *emailService) SendWelcomeEmail(email, firstName string) error {
	m := gomail.NewMessage()
	m.SetHeader("From", s.from)
	m.SetHeader("To", email)
	m.SetHeader("Subject", "Добро пожаловать в WordNest!")

	body := fmt.Sprintf(`
		<h2>Добро пожаловать, %s!</h2>
		<p>Ваш аккаунт создан. Добавляйте слова в словарь и проходите тесты.</p>
		<p>Команда WordNest</p>
	`, firstName)

	m.SetBody("text/html", body)

	if err := s.dialer.DialAndSend(m); err != nil {
		return fmt.Errorf("failed to send welcome email: %w", err)
	}

	return nil
}

func (s *emailService) SendHomeworkEmail(email, title string, dueDate time.Time) error {
	m := gomail.NewMessage()
	m.SetHeader("From", s.from)
	m.SetHeader("To", email)
	m.SetHeader("Subject", "Новое домашнее задание")

	body := fmt.Sprintf(`
		<h3>Вам назначено домашнее задание</h3>
		<p><strong>%s</strong></p>
		<p>Срок выполнения: %s</p>
	`, title, dueDate.Format("02.01.2006 15:04"))

	m.SetBody("text/html", body)

	if err := s.dialer.DialAndSend(m); err != nil {
		return fmt.Errorf("failed to send homework email: %w", err)
	}

	return nil
}
