package services

import (
	"fmt"
	"log"
	"time"

	"wordnest/internal/pdf"
	"wordnest/internal/repositories"
)

// ReportService — PDF-отчёты: результаты теста и общий прогресс.
type ReportService struct {
	users     repositories.UserRepository
	words     repositories.WordRepository
	tests     repositories.TestSessionRepository
	dashboard *StatsService
	generator pdf.Generator
	now       func() time.Time
}

func NewReportService(
	users repositories.UserRepository,
	words repositories.WordRepository,
	tests repositories.TestSessionRepository,
	dashboard *StatsService,
	generator pdf.Generator,
) *ReportService {
	return &ReportService{
		users:     users,
		words:     words,
		tests:     tests,
		dashboard: dashboard,
		generator: generator,
		now:       time.Now,
	}
}

// TestReport — PDF по завершённому тесту; возвращает путь к файлу.
func (s *ReportService) TestReport(userID int, testID int64) (string, error) {
	user, err := s.users.GetByID(userID)
	if err != nil {
		return "", err
	}
	if user == nil {
		return "", ErrUserNotFound
	}

	ts, err := s.tests.GetByID(userID, testID)
	if err != nil {
		return "", err
	}
	if ts == nil {
		return "", ErrNoActiveTest
	}
	if !ts.IsCompleted {
		return "", ErrNoActiveTest
	}

	answers, err := s.tests.ListAnswers(testID)
	if err != nil {
		return "", err
	}
	breakdown, err := s.tests.CategoryBreakdown(testID)
	if err != nil {
		return "", err
	}

	reportAnswers := make([]pdf.ReportAnswer, 0, len(answers))
	for _, a := range answers {
		ra := pdf.ReportAnswer{UserAnswer: a.UserAnswer, IsCorrect: a.IsCorrect}
		word, err := s.words.GetByID(userID, a.WordID)
		if err != nil {
			return "", err
		}
		if word != nil {
			ra.Prompt = word.EnglishWord
			ra.Expected = word.RussianTranslation
		} else {
			// слово могли удалить после теста
			ra.Prompt = fmt.Sprintf("слово #%d", a.WordID)
		}
		reportAnswers = append(reportAnswers, ra)
	}

	path, err := s.generator.GenerateTestReport(pdf.TestReportData{
		UserName:  user.FirstName,
		Session:   ts,
		Answers:   reportAnswers,
		Breakdown: breakdown,
	})
	if err != nil {
		return "", err
	}
	log.Printf("[report][test] userID=%d testID=%d path=%s", userID, testID, path)
	return path, nil
}

// ProgressReport — PDF со сводкой прогресса пользователя.
func (s *ReportService) ProgressReport(userID int) (string, error) {
	user, err := s.users.GetByID(userID)
	if err != nil {
		return "", err
	}
	if user == nil {
		return "", ErrUserNotFound
	}

	d, err := s.dashboard.Dashboard(userID)
	if err != nil {
		return "", err
	}

	path, err := s.generator.GenerateProgressReport(pdf.ProgressReportData{
		UserName:       user.FirstName,
		TotalWords:     d.TotalWords,
		WordsLearned:   d.WordsLearned,
		NeedPractice:   d.NeedPractice,
		TestsCompleted: d.TestsCompleted,
		AverageSuccess: d.AverageSuccess,
		CurrentStreak:  d.CurrentStreak,
		BestStreak:     d.BestStreak,
		GeneratedAt:    s.now(),
		Filename:       fmt.Sprintf("progress_user_%d.pdf", userID),
	})
	if err != nil {
		return "", err
	}
	log.Printf("[report][progress] userID=%d path=%s", userID, path)
	return path, nil
}
