package services

import (
	"errors"
	"log"
	"strings"

	"wordnest/internal/models"
	"wordnest/internal/repositories"
)

var (
	ErrCategoryNotFound = errors.New("category not found")
	ErrCategoryExists   = errors.New("category already exists")
	ErrDuplicateWord    = errors.New("word already in dictionary")
	ErrCategoryNotEmpty = errors.New("category is not empty")
)

// WordInput — поля создания и редактирования слова.
type WordInput struct {
	EnglishWord        string  `json:"english_word"`
	RussianTranslation string  `json:"russian_translation"`
	Transcription      *string `json:"transcription"`
	Definition         *string `json:"definition"`
	ExampleSentence    *string `json:"example_sentence"`
	CategoryID         int64   `json:"category_id"`
	DifficultyLevel    string  `json:"difficulty_level"`
}

// WordService — личный словарь: слова и категории пользователя.
type WordService struct {
	words      repositories.WordRepository
	categories repositories.CategoryRepository
	stats      repositories.StatisticsRepository
}

func NewWordService(
	words repositories.WordRepository,
	categories repositories.CategoryRepository,
	stats repositories.StatisticsRepository,
) *WordService {
	return &WordService{words: words, categories: categories, stats: stats}
}

func (s *WordService) validateInput(input WordInput) error {
	var errs ValidationErrors
	if strings.TrimSpace(input.EnglishWord) == "" {
		errs = append(errs, FieldError{Field: "english_word", Message: "введите слово"})
	}
	if strings.TrimSpace(input.RussianTranslation) == "" {
		errs = append(errs, FieldError{Field: "russian_translation", Message: "введите перевод"})
	}
	if input.CategoryID == 0 {
		errs = append(errs, FieldError{Field: "category_id", Message: "выберите категорию"})
	}
	if !models.IsValidDifficulty(input.DifficultyLevel) {
		errs = append(errs, FieldError{Field: "difficulty_level", Message: "недопустимый уровень сложности"})
	}
	if len(errs) > 0 {
		return errs
	}
	return nil
}

// AddWord — создаёт слово в словаре. english_word уникален без учёта
// регистра в пределах пользователя.
func (s *WordService) AddWord(userID int, input WordInput) (*models.Word, error) {
	if err := s.validateInput(input); err != nil {
		return nil, err
	}

	cat, err := s.categories.GetByID(userID, input.CategoryID)
	if err != nil {
		return nil, err
	}
	if cat == nil {
		return nil, ErrCategoryNotFound
	}

	english := strings.TrimSpace(input.EnglishWord)
	exists, err := s.words.ExistsEnglish(userID, english)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, ErrDuplicateWord
	}

	word := &models.Word{
		UserID:             userID,
		EnglishWord:        english,
		RussianTranslation: strings.TrimSpace(input.RussianTranslation),
		Transcription:      input.Transcription,
		Definition:         input.Definition,
		ExampleSentence:    input.ExampleSentence,
		CategoryID:         input.CategoryID,
		DifficultyLevel:    input.DifficultyLevel,
	}
	if err := s.words.Create(word); err != nil {
		return nil, err
	}

	if err := s.bumpStats(userID, func(st *models.WordStatistics) { st.TotalWordsAdded++ }); err != nil {
		log.Printf("[words][add] stats update failed userID=%d: %v", userID, err)
	}
	return word, nil
}

func (s *WordService) GetWord(userID int, id int64) (*models.Word, error) {
	word, err := s.words.GetByID(userID, id)
	if err != nil {
		return nil, err
	}
	if word == nil {
		return nil, ErrWordNotFound
	}
	return word, nil
}

func (s *WordService) UpdateWord(userID int, id int64, input WordInput) (*models.Word, error) {
	if err := s.validateInput(input); err != nil {
		return nil, err
	}
	word, err := s.GetWord(userID, id)
	if err != nil {
		return nil, err
	}

	cat, err := s.categories.GetByID(userID, input.CategoryID)
	if err != nil {
		return nil, err
	}
	if cat == nil {
		return nil, ErrCategoryNotFound
	}

	english := strings.TrimSpace(input.EnglishWord)
	if !strings.EqualFold(english, word.EnglishWord) {
		exists, err := s.words.ExistsEnglish(userID, english)
		if err != nil {
			return nil, err
		}
		if exists {
			return nil, ErrDuplicateWord
		}
	}

	word.EnglishWord = english
	word.RussianTranslation = strings.TrimSpace(input.RussianTranslation)
	word.Transcription = input.Transcription
	word.Definition = input.Definition
	word.ExampleSentence = input.ExampleSentence
	word.CategoryID = input.CategoryID
	word.DifficultyLevel = input.DifficultyLevel
	if err := s.words.Update(word); err != nil {
		return nil, err
	}
	return word, nil
}

func (s *WordService) DeleteWord(userID int, id int64) error {
	if _, err := s.GetWord(userID, id); err != nil {
		return err
	}
	return s.words.Delete(userID, id)
}

func (s *WordService) ListWords(userID int, filter models.WordFilter) ([]*models.Word, error) {
	return s.words.List(userID, filter)
}

// SetLearned — отметка «выучено»; счётчик выученных в статистике
// двигается вместе с ней.
func (s *WordService) SetLearned(userID int, id int64, learned bool) error {
	word, err := s.GetWord(userID, id)
	if err != nil {
		return err
	}
	if word.IsLearned == learned {
		return nil
	}
	if err := s.words.SetLearned(userID, id, learned); err != nil {
		return err
	}
	delta := 1
	if !learned {
		delta = -1
	}
	if err := s.bumpStats(userID, func(st *models.WordStatistics) {
		st.WordsLearned += delta
		if st.WordsLearned < 0 {
			st.WordsLearned = 0
		}
	}); err != nil {
		log.Printf("[words][learned] stats update failed userID=%d: %v", userID, err)
	}
	return nil
}

// CreateCategory — имя уникально без учёта регистра в пределах пользователя.
func (s *WordService) CreateCategory(userID int, name string) (*models.Category, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, ValidationErrors{{Field: "name", Message: "введите название категории"}}
	}
	existing, err := s.categories.GetByName(userID, name)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, ErrCategoryExists
	}
	cat := &models.Category{UserID: userID, Name: name}
	if err := s.categories.Create(cat); err != nil {
		return nil, err
	}
	return cat, nil
}

func (s *WordService) RenameCategory(userID int, id int64, name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return ValidationErrors{{Field: "name", Message: "введите название категории"}}
	}
	cat, err := s.categories.GetByID(userID, id)
	if err != nil {
		return err
	}
	if cat == nil {
		return ErrCategoryNotFound
	}
	other, err := s.categories.GetByName(userID, name)
	if err != nil {
		return err
	}
	if other != nil && other.ID != id {
		return ErrCategoryExists
	}
	return s.categories.Rename(userID, id, name)
}

func (s *WordService) DeleteCategory(userID int, id int64) error {
	cat, err := s.categories.GetByID(userID, id)
	if err != nil {
		return err
	}
	if cat == nil {
		return ErrCategoryNotFound
	}
	words, err := s.words.List(userID, models.WordFilter{CategoryIDs: []int64{id}, Limit: 1})
	if err != nil {
		return err
	}
	if len(words) > 0 {
		return ErrCategoryNotEmpty
	}
	return s.categories.Delete(userID, id)
}

func (s *WordService) ListCategories(userID int) ([]*models.Category, error) {
	return s.categories.ListWithCounts(userID)
}

func (s *WordService) bumpStats(userID int, apply func(*models.WordStatistics)) error {
	st, err := s.stats.Get(userID)
	if err != nil {
		return err
	}
	apply(st)
	return s.stats.Upsert(st)
}
