package services

import (
	"time"

	"wordnest/internal/models"
	"wordnest/internal/repositories"
)

// Dashboard — сводка прогресса пользователя.
type Dashboard struct {
	TotalWords     int  `json:"total_words"`
	WordsLearned   int  `json:"words_learned"`
	NeedPractice   int  `json:"need_practice"`
	TestsCompleted int  `json:"tests_completed"`
	AverageSuccess int  `json:"average_success"`
	CurrentStreak  int  `json:"current_streak"`
	BestStreak     int  `json:"best_streak"`
	StudiedToday   bool `json:"studied_today"`
}

// StatsService — агрегация статистики изучения.
type StatsService struct {
	words repositories.WordRepository
	tests repositories.TestSessionRepository
	stats repositories.StatisticsRepository
	now   func() time.Time
}

func NewStatsService(
	words repositories.WordRepository,
	tests repositories.TestSessionRepository,
	stats repositories.StatisticsRepository,
) *StatsService {
	return &StatsService{words: words, tests: tests, stats: stats, now: time.Now}
}

func (s *StatsService) Dashboard(userID int) (*Dashboard, error) {
	total, err := s.words.Count(userID)
	if err != nil {
		return nil, err
	}
	learned, err := s.words.CountLearned(userID)
	if err != nil {
		return nil, err
	}
	needPractice, err := s.words.CountNeedPractice(userID)
	if err != nil {
		return nil, err
	}
	completed, err := s.tests.CountCompleted(userID)
	if err != nil {
		return nil, err
	}
	avg, err := s.tests.AverageSuccessRate(userID)
	if err != nil {
		return nil, err
	}
	st, err := s.stats.Get(userID)
	if err != nil {
		return nil, err
	}

	studiedToday := st.StudiedOn(s.now())

	return &Dashboard{
		TotalWords:     total,
		WordsLearned:   learned,
		NeedPractice:   needPractice,
		TestsCompleted: completed,
		AverageSuccess: avg,
		CurrentStreak:  st.CurrentStreak,
		BestStreak:     st.BestStreak,
		StudiedToday:   studiedToday,
	}, nil
}

// RecordStudy — отметка учебной активности за сегодня (серия дней).
func (s *StatsService) RecordStudy(userID int) (*models.WordStatistics, error) {
	st, err := s.stats.Get(userID)
	if err != nil {
		return nil, err
	}
	st.UpdateStreak(s.now())
	if err := s.stats.Upsert(st); err != nil {
		return nil, err
	}
	return st, nil
}

func (s *StatsService) Get(userID int) (*models.WordStatistics, error) {
	return s.stats.Get(userID)
}
