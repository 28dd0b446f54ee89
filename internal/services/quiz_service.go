package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"math/rand"
	"strings"
	"sync"
	"time"

	"wordnest/internal/models"
	"wordnest/internal/repositories"
	"wordnest/internal/session"
)

var (
	ErrNotEnoughWords = errors.New("not enough words for test")
	ErrNoActiveTest   = errors.New("no active test in session")
	ErrTestFinished   = errors.New("test already finished")
	ErrWordNotFound   = errors.New("word not found")
)

const (
	MinTestWords   = 5
	MaxTestWords   = 50
	historyDefault = 20
)

// QuizConfig — параметры запуска теста.
type QuizConfig struct {
	CategoryIDs     []int64 `json:"category_ids"`
	WordCount       int     `json:"word_count"`
	Mode            string  `json:"mode"`
	SelectionMethod string  `json:"selection_method"`
	IncludeLearned  bool    `json:"include_learned"`
}

// Question — текущий вопрос теста. Подсказки только в режиме en_to_ru.
type Question struct {
	Number        int     `json:"number"`
	Total         int     `json:"total"`
	Mode          string  `json:"mode"`
	Prompt        string  `json:"prompt"`
	Transcription *string `json:"transcription,omitempty"`
	Definition    *string `json:"definition,omitempty"`
}

// AnswerResult — исход проверки одного ответа.
type AnswerResult struct {
	Correct       bool      `json:"correct"`
	CorrectAnswer string    `json:"correct_answer"`
	Finished      bool      `json:"finished"`
	Next          *Question `json:"next,omitempty"`
}

// TestResults — итог завершённого теста.
type TestResults struct {
	Session   *models.TestSession      `json:"session"`
	Answers   []*models.TestAnswer     `json:"answers"`
	Breakdown []*models.CategoryResult `json:"breakdown"`
}

// TestHistory — история прохождений и сводные показатели.
type TestHistory struct {
	Sessions       []*models.TestSession `json:"sessions"`
	TotalCompleted int                   `json:"total_completed"`
	AverageSuccess int                   `json:"average_success"`
}

// QuizService — движок тестирования: подбор слов, порядок вопросов,
// проверка ответов и фиксация результатов. Ход теста живёт в сессии,
// итоги — в БД.
type QuizService struct {
	words repositories.WordRepository
	tests repositories.TestSessionRepository
	stats repositories.StatisticsRepository

	sessions session.Store
	now      func() time.Time

	rngMu sync.Mutex
	rng   *rand.Rand
}

func NewQuizService(
	words repositories.WordRepository,
	tests repositories.TestSessionRepository,
	stats repositories.StatisticsRepository,
	sessions session.Store,
	rng *rand.Rand,
) *QuizService {
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &QuizService{
		words:    words,
		tests:    tests,
		stats:    stats,
		sessions: sessions,
		now:      time.Now,
		rng:      rng,
	}
}

func (s *QuizService) shuffle(n int, swap func(i, j int)) {
	s.rngMu.Lock()
	defer s.rngMu.Unlock()
	s.rng.Shuffle(n, swap)
}

func (s *QuizService) validateConfig(cfg QuizConfig) error {
	var errs ValidationErrors
	if len(cfg.CategoryIDs) == 0 {
		errs = append(errs, FieldError{Field: "category_ids", Message: "выберите хотя бы одну категорию"})
	}
	if cfg.WordCount < MinTestWords || cfg.WordCount > MaxTestWords {
		errs = append(errs, FieldError{
			Field:   "word_count",
			Message: fmt.Sprintf("количество слов от %d до %d", MinTestWords, MaxTestWords),
		})
	}
	switch cfg.Mode {
	case models.ModeEnToRu, models.ModeRuToEn, models.ModeMixed:
	default:
		errs = append(errs, FieldError{Field: "mode", Message: "недопустимый режим теста"})
	}
	switch cfg.SelectionMethod {
	case models.SelectionRandom, models.SelectionLeastPracticed,
		models.SelectionNewest, models.SelectionMostDifficult:
	default:
		errs = append(errs, FieldError{Field: "selection_method", Message: "недопустимый метод выбора слов"})
	}
	if len(errs) > 0 {
		return errs
	}
	return nil
}

// Start — создаёт TestSession, строит порядок вопросов и кладёт ход
// теста в сессию. Если слов меньше запрошенного, тест идёт по тем,
// что есть; при пустой выборке — ErrNotEnoughWords.
func (s *QuizService) Start(ctx context.Context, sessionID string, userID int, cfg QuizConfig) (*Question, error) {
	if err := s.validateConfig(cfg); err != nil {
		return nil, err
	}

	limit := cfg.WordCount
	if cfg.SelectionMethod == models.SelectionRandom {
		// при случайном выборе тянем всех кандидатов и мешаем сами
		limit = 0
	}
	words, err := s.words.FetchForTest(userID, cfg.CategoryIDs, cfg.IncludeLearned, cfg.SelectionMethod, limit)
	if err != nil {
		return nil, err
	}
	if cfg.SelectionMethod == models.SelectionRandom {
		s.shuffle(len(words), func(i, j int) { words[i], words[j] = words[j], words[i] })
		if len(words) > cfg.WordCount {
			words = words[:cfg.WordCount]
		}
	}
	if len(words) == 0 {
		return nil, ErrNotEnoughWords
	}

	items := s.buildItems(words, cfg.Mode)

	ts := &models.TestSession{
		UserID:      userID,
		CategoryIDs: cfg.CategoryIDs,
		TotalWords:  len(items),
	}
	if err := s.tests.Create(ts); err != nil {
		return nil, err
	}

	run := session.QuizRun{
		TestSessionID: ts.ID,
		Items:         items,
		CurrentIndex:  0,
	}
	if err := session.SetJSON(ctx, s.sessions, sessionID, session.KeyQuizRun, run); err != nil {
		return nil, err
	}

	log.Printf("[quiz][start] userID=%d sessionID=%d words=%d mode=%s method=%s",
		userID, ts.ID, len(items), cfg.Mode, cfg.SelectionMethod)
	return s.question(ctx, sessionID, userID, run)
}

// buildItems — порядок вопросов. В смешанном режиме направления
// выдаются поровну: перекос не больше одного вопроса.
func (s *QuizService) buildItems(words []*models.Word, mode string) []session.QuizItem {
	items := make([]session.QuizItem, 0, len(words))
	if mode != models.ModeMixed {
		for _, w := range words {
			items = append(items, session.QuizItem{WordID: w.ID, Mode: mode})
		}
		return items
	}

	half := (len(words) + 1) / 2
	bag := make([]string, 0, half*2)
	for i := 0; i < half; i++ {
		bag = append(bag, models.ModeEnToRu, models.ModeRuToEn)
	}
	s.shuffle(len(bag), func(i, j int) { bag[i], bag[j] = bag[j], bag[i] })
	for i, w := range words {
		items = append(items, session.QuizItem{WordID: w.ID, Mode: bag[i]})
	}
	return items
}

// Question — текущий вопрос активного теста.
func (s *QuizService) Question(ctx context.Context, sessionID string, userID int) (*Question, error) {
	run, err := s.run(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	return s.question(ctx, sessionID, userID, run)
}

func (s *QuizService) question(ctx context.Context, sessionID string, userID int, run session.QuizRun) (*Question, error) {
	if run.CurrentIndex >= len(run.Items) {
		return nil, ErrTestFinished
	}
	item := run.Items[run.CurrentIndex]
	word, err := s.words.GetByID(userID, item.WordID)
	if err != nil {
		return nil, err
	}
	if word == nil {
		return nil, s.dropRun(ctx, sessionID, item.WordID)
	}

	q := &Question{
		Number: run.CurrentIndex + 1,
		Total:  len(run.Items),
		Mode:   item.Mode,
	}
	// подсказка зависит от направления: транскрипция при переводе с
	// английского, определение — при переводе на английский
	if item.Mode == models.ModeEnToRu {
		q.Prompt = word.EnglishWord
		q.Transcription = word.Transcription
	} else {
		q.Prompt = word.RussianTranslation
		q.Definition = word.Definition
	}
	return q, nil
}

// dropRun — слово удалили во время теста, продолжать нечего: ход
// снимается с сессии, тест начинается заново с выбора категорий.
func (s *QuizService) dropRun(ctx context.Context, sessionID string, wordID int64) error {
	log.Printf("[quiz][run] word missing wordID=%d, dropping run", wordID)
	if _, err := s.sessions.Pop(ctx, sessionID, session.KeyQuizRun); err != nil && !errors.Is(err, session.ErrNotFound) {
		return err
	}
	return ErrStaleSession
}

// SubmitAnswer — проверяет ответ на текущий вопрос, записывает его и
// переводит тест к следующему вопросу. Последний ответ завершает тест.
func (s *QuizService) SubmitAnswer(ctx context.Context, sessionID string, userID int, answer string) (*AnswerResult, error) {
	run, err := s.run(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if run.CurrentIndex >= len(run.Items) {
		return nil, ErrTestFinished
	}

	answer = strings.TrimSpace(answer)
	if answer == "" {
		return nil, ValidationErrors{{Field: "answer", Message: "введите ответ"}}
	}

	item := run.Items[run.CurrentIndex]
	word, err := s.words.GetByID(userID, item.WordID)
	if err != nil {
		return nil, err
	}
	if word == nil {
		return nil, s.dropRun(ctx, sessionID, item.WordID)
	}

	canonical := word.RussianTranslation
	if item.Mode == models.ModeRuToEn {
		canonical = word.EnglishWord
	}
	correct := matchAnswer(answer, canonical)

	if err := s.tests.CreateAnswer(&models.TestAnswer{
		TestSession: run.TestSessionID,
		WordID:      word.ID,
		UserAnswer:  answer,
		IsCorrect:   correct,
	}); err != nil {
		return nil, err
	}
	if err := s.tests.IncrementResult(run.TestSessionID, correct); err != nil {
		return nil, err
	}
	if err := s.words.MarkPracticed(word.ID); err != nil {
		log.Printf("[quiz][answer] mark practiced failed wordID=%d: %v", word.ID, err)
	}

	run.CurrentIndex++
	if err := session.SetJSON(ctx, s.sessions, sessionID, session.KeyQuizRun, run); err != nil {
		return nil, err
	}

	res := &AnswerResult{
		Correct:       correct,
		CorrectAnswer: canonical,
	}

	if run.CurrentIndex >= len(run.Items) {
		res.Finished = true
		if err := s.finalize(userID, run.TestSessionID); err != nil {
			return nil, err
		}
		return res, nil
	}

	next, err := s.question(ctx, sessionID, userID, run)
	if err != nil {
		return nil, err
	}
	res.Next = next
	return res, nil
}

func (s *QuizService) finalize(userID int, testID int64) error {
	ts, err := s.tests.GetByID(userID, testID)
	if err != nil {
		return err
	}
	if ts == nil {
		return ErrNoActiveTest
	}

	end := s.now()
	duration := int(end.Sub(ts.StartTime).Seconds())
	if err := s.tests.Finalize(testID, end, duration); err != nil {
		return err
	}

	stats, err := s.stats.Get(userID)
	if err != nil {
		return err
	}
	stats.TestsCompleted++
	stats.UpdateStreak(end)
	if err := s.stats.Upsert(stats); err != nil {
		return err
	}

	log.Printf("[quiz][finish] userID=%d sessionID=%d duration=%ds", userID, testID, duration)
	return nil
}

// Results — итоги завершённого теста; ход теста снимается с сессии.
func (s *QuizService) Results(ctx context.Context, sessionID string, userID int) (*TestResults, error) {
	run, err := s.run(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if run.CurrentIndex < len(run.Items) {
		return nil, ErrNoActiveTest
	}

	ts, err := s.tests.GetByID(userID, run.TestSessionID)
	if err != nil {
		return nil, err
	}
	if ts == nil {
		return nil, ErrNoActiveTest
	}
	answers, err := s.tests.ListAnswers(run.TestSessionID)
	if err != nil {
		return nil, err
	}
	breakdown, err := s.tests.CategoryBreakdown(run.TestSessionID)
	if err != nil {
		return nil, err
	}

	if _, err := s.sessions.Pop(ctx, sessionID, session.KeyQuizRun); err != nil && !errors.Is(err, session.ErrNotFound) {
		return nil, err
	}

	return &TestResults{Session: ts, Answers: answers, Breakdown: breakdown}, nil
}

// History — последние завершённые тесты и сводка.
func (s *QuizService) History(userID int) (*TestHistory, error) {
	sessions, err := s.tests.History(userID, historyDefault)
	if err != nil {
		return nil, err
	}
	total, err := s.tests.CountCompleted(userID)
	if err != nil {
		return nil, err
	}
	avg, err := s.tests.AverageSuccessRate(userID)
	if err != nil {
		return nil, err
	}
	return &TestHistory{Sessions: sessions, TotalCompleted: total, AverageSuccess: avg}, nil
}

func (s *QuizService) run(ctx context.Context, sessionID string) (session.QuizRun, error) {
	var run session.QuizRun
	ok, err := session.GetJSON(ctx, s.sessions, sessionID, session.KeyQuizRun, &run)
	if err != nil {
		return run, err
	}
	if !ok {
		// ход теста протух или процесс перезапускался: тест начинается заново
		return run, ErrStaleSession
	}
	return run, nil
}

// matchAnswer — строгая проверка: точное совпадение без учёта регистра
// с каноническим значением или любой из альтернатив, перечисленных
// через запятую или точку с запятой. Частичные совпадения не засчитываются.
func matchAnswer(answer, canonical string) bool {
	answer = strings.TrimSpace(answer)
	if strings.EqualFold(answer, strings.TrimSpace(canonical)) {
		return true
	}
	for _, alt := range strings.FieldsFunc(canonical, func(r rune) bool {
		return r == ',' || r == ';'
	}) {
		if strings.EqualFold(answer, strings.TrimSpace(alt)) {
			return true
		}
	}
	return false
}
