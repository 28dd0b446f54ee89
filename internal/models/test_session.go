package models

import "time"

// Режимы вопросов.
const (
	ModeEnToRu = "en_to_ru"
	ModeRuToEn = "ru_to_en"
	ModeMixed  = "mixed" // только как режим теста, не вопроса
)

// Методы выбора слов для теста.
const (
	SelectionRandom         = "random"
	SelectionLeastPracticed = "least_practiced"
	SelectionNewest         = "newest"
	SelectionMostDifficult  = "most_difficult"
)

// TestSession — одна попытка прохождения теста.
// После завершения total_words == correct_answers + incorrect_answers.
type TestSession struct {
	ID               int64      `json:"id"`
	UserID           int        `json:"user_id"`
	CategoryIDs      []int64    `json:"category_ids"`
	TotalWords       int        `json:"total_words"`
	CorrectAnswers   int        `json:"correct_answers"`
	IncorrectAnswers int        `json:"incorrect_answers"`
	StartTime        time.Time  `json:"start_time"`
	EndTime          *time.Time `json:"end_time,omitempty"`
	IsCompleted      bool       `json:"is_completed"`
	DurationSeconds  int        `json:"duration_seconds"`
}

// SuccessRate — процент правильных ответов.
func (s *TestSession) SuccessRate() int {
	if s.TotalWords == 0 {
		return 0
	}
	return s.CorrectAnswers * 100 / s.TotalWords
}

// TestAnswer — один ответ внутри сессии. После создания не меняется.
type TestAnswer struct {
	ID          int64     `json:"id"`
	TestSession int64     `json:"test_session_id"`
	WordID      int64     `json:"word_id"`
	UserAnswer  string    `json:"user_answer"`
	IsCorrect   bool      `json:"is_correct"`
	AnswerTime  time.Time `json:"answer_time"`
}
