package models

import "time"

// WordStatistics — накопительная статистика изучения слов пользователя.
type WordStatistics struct {
	UserID          int        `json:"user_id"`
	TotalWordsAdded int        `json:"total_words_added"`
	WordsLearned    int        `json:"words_learned"`
	TestsCompleted  int        `json:"tests_completed"`
	CurrentStreak   int        `json:"current_streak"`
	BestStreak      int        `json:"best_streak"`
	LastStudyDate   *time.Time `json:"last_study_date,omitempty"`
}

// dayStart — полночь календарного дня t в его часовом поясе. Обрезка
// через Truncate здесь не годится: она режет по суткам от эпохи UTC и
// смещает границу дня для других поясов.
func dayStart(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// StudiedOn — занимался ли пользователь в календарный день момента t.
func (s *WordStatistics) StudiedOn(t time.Time) bool {
	return s.LastStudyDate != nil && dayStart(*s.LastStudyDate).Equal(dayStart(t))
}

// UpdateStreak — пересчитывает серию дней изучения на дату today.
// Тот же день — без изменений, вчера — серия +1, пропуск — серия с начала.
func (s *WordStatistics) UpdateStreak(today time.Time) {
	today = dayStart(today)
	switch {
	case s.LastStudyDate == nil:
		s.CurrentStreak = 1
	case dayStart(*s.LastStudyDate).Equal(today):
		// уже занимались сегодня
	case dayStart(*s.LastStudyDate).Equal(today.AddDate(0, 0, -1)):
		s.CurrentStreak++
	default:
		s.CurrentStreak = 1
	}
	d := today
	s.LastStudyDate = &d
	if s.CurrentStreak > s.BestStreak {
		s.BestStreak = s.CurrentStreak
	}
}

// CategoryResult — разбивка результатов теста по категориям.
type CategoryResult struct {
	CategoryID   int64  `json:"category_id"`
	CategoryName string `json:"category_name"`
	Correct      int    `json:"correct"`
	Total        int    `json:"total"`
	Percentage   int    `json:"percentage"`
}
