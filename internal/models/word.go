package models

import "time"

// Уровни сложности слова (как в настройках пользователя).
const (
	DifficultyBeginner          = "beginner"
	DifficultyElementary        = "elementary"
	DifficultyIntermediate      = "intermediate"
	DifficultyUpperIntermediate = "upper_intermediate"
	DifficultyAdvanced          = "advanced"
	DifficultyProficiency       = "proficiency"
)

func IsValidDifficulty(level string) bool {
	switch level {
	case DifficultyBeginner, DifficultyElementary, DifficultyIntermediate,
		DifficultyUpperIntermediate, DifficultyAdvanced, DifficultyProficiency:
		return true
	}
	return false
}

// Word — слово в личном словаре пользователя.
// english_word уникален в пределах пользователя.
type Word struct {
	ID                 int64   `json:"id"`
	UserID             int     `json:"user_id"`
	EnglishWord        string  `json:"english_word"`
	RussianTranslation string  `json:"russian_translation"`
	Transcription      *string `json:"transcription,omitempty"`
	Definition         *string `json:"definition,omitempty"`
	ExampleSentence    *string `json:"example_sentence,omitempty"`
	CategoryID         int64   `json:"category_id"`
	DifficultyLevel    string  `json:"difficulty_level"`

	// Статистика изучения
	IsLearned      bool       `json:"is_learned"`
	TimesPracticed int        `json:"times_practiced"`
	LastPracticed  *time.Time `json:"last_practiced,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Category — именованная категория словаря пользователя.
type Category struct {
	ID        int64     `json:"id"`
	UserID    int       `json:"user_id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`

	WordsCount int `json:"words_count,omitempty"` // заполняется в выборках со счётчиком
}

// WordFilter — параметры выборки слов для списков и тестов.
type WordFilter struct {
	CategoryIDs     []int64
	Search          string
	DifficultyLevel string
	OnlyUnlearned   bool
	Limit           int
	Offset          int
}
