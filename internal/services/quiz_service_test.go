package services

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"sort"
	"strings"
	"testing"
	"time"

	"wordnest/internal/models"
	"wordnest/internal/session"
)

// ===== фейки =====

type fakeWordRepo struct {
	words     map[int64]*models.Word
	practiced map[int64]int
}

func newFakeWordRepo() *fakeWordRepo {
	return &fakeWordRepo{words: map[int64]*models.Word{}, practiced: map[int64]int{}}
}

func (f *fakeWordRepo) add(id int64, userID int, categoryID int64, english, russian string) *models.Word {
	w := &models.Word{
		ID: id, UserID: userID, CategoryID: categoryID,
		EnglishWord: english, RussianTranslation: russian,
		DifficultyLevel: models.DifficultyBeginner,
	}
	f.words[id] = w
	return w
}

func (f *fakeWordRepo) Create(w *models.Word) error {
	if w.ID == 0 {
		w.ID = int64(len(f.words) + 1)
	}
	f.words[w.ID] = w
	return nil
}

func (f *fakeWordRepo) GetByID(userID int, id int64) (*models.Word, error) {
	w, ok := f.words[id]
	if !ok || w.UserID != userID {
		return nil, nil
	}
	return w, nil
}

func (f *fakeWordRepo) Update(w *models.Word) error       { return nil }
func (f *fakeWordRepo) Delete(userID int, id int64) error { delete(f.words, id); return nil }

func (f *fakeWordRepo) List(userID int, filter models.WordFilter) ([]*models.Word, error) {
	var res []*models.Word
	for _, w := range f.words {
		if w.UserID != userID {
			continue
		}
		if len(filter.CategoryIDs) > 0 {
			found := false
			for _, id := range filter.CategoryIDs {
				if w.CategoryID == id {
					found = true
					break
				}
			}
			if !found {
				continue
			}
		}
		res = append(res, w)
		if filter.Limit > 0 && len(res) >= filter.Limit {
			break
		}
	}
	return res, nil
}

func (f *fakeWordRepo) Count(userID int) (int, error)             { return len(f.words), nil }
func (f *fakeWordRepo) CountLearned(userID int) (int, error)      { return 0, nil }
func (f *fakeWordRepo) CountNeedPractice(userID int) (int, error) { return 0, nil }

func (f *fakeWordRepo) ExistsEnglish(userID int, englishWord string) (bool, error) {
	for _, w := range f.words {
		if w.UserID == userID && strings.EqualFold(w.EnglishWord, englishWord) {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeWordRepo) SetLearned(userID int, id int64, learned bool) error {
	if w, ok := f.words[id]; ok && w.UserID == userID {
		w.IsLearned = learned
	}
	return nil
}

func (f *fakeWordRepo) FetchForTest(userID int, categoryIDs []int64, includeLearned bool, method string, limit int) ([]*models.Word, error) {
	inCat := func(id int64) bool {
		for _, c := range categoryIDs {
			if c == id {
				return true
			}
		}
		return false
	}
	var res []*models.Word
	for _, w := range f.words {
		if w.UserID != userID || !inCat(w.CategoryID) {
			continue
		}
		if !includeLearned && w.IsLearned {
			continue
		}
		res = append(res, w)
	}
	switch method {
	case models.SelectionLeastPracticed:
		sort.Slice(res, func(i, j int) bool { return res[i].TimesPracticed < res[j].TimesPracticed })
	default:
		sort.Slice(res, func(i, j int) bool { return res[i].ID < res[j].ID })
	}
	if limit > 0 && len(res) > limit {
		res = res[:limit]
	}
	return res, nil
}

func (f *fakeWordRepo) MarkPracticed(id int64) error {
	f.practiced[id]++
	if w, ok := f.words[id]; ok {
		w.TimesPracticed++
	}
	return nil
}

func (f *fakeWordRepo) CopyCategory(categoryID int64, fromUserID, toUserID int, toCategoryID int64) (int, error) {
	copied := 0
	for _, w := range f.words {
		if w.UserID != fromUserID || w.CategoryID != categoryID {
			continue
		}
		exists := false
		for _, o := range f.words {
			if o.UserID == toUserID && o.EnglishWord == w.EnglishWord {
				exists = true
				break
			}
		}
		if exists {
			continue
		}
		id := int64(len(f.words) + 1000)
		f.words[id] = &models.Word{
			ID: id, UserID: toUserID, CategoryID: toCategoryID,
			EnglishWord: w.EnglishWord, RussianTranslation: w.RussianTranslation,
			DifficultyLevel: w.DifficultyLevel,
		}
		copied++
	}
	return copied, nil
}

type fakeTestRepo struct {
	sessions map[int64]*models.TestSession
	answers  []*models.TestAnswer
	seq      int64
	now      func() time.Time
}

func newFakeTestRepo(now func() time.Time) *fakeTestRepo {
	return &fakeTestRepo{sessions: map[int64]*models.TestSession{}, now: now}
}

func (f *fakeTestRepo) Create(s *models.TestSession) error {
	f.seq++
	s.ID = f.seq
	s.StartTime = f.now()
	cp := *s
	f.sessions[s.ID] = &cp
	return nil
}

func (f *fakeTestRepo) GetByID(userID int, id int64) (*models.TestSession, error) {
	s, ok := f.sessions[id]
	if !ok || s.UserID != userID {
		return nil, nil
	}
	cp := *s
	return &cp, nil
}

func (f *fakeTestRepo) IncrementResult(id int64, correct bool) error {
	s := f.sessions[id]
	if correct {
		s.CorrectAnswers++
	} else {
		s.IncorrectAnswers++
	}
	return nil
}

func (f *fakeTestRepo) Finalize(id int64, endTime time.Time, durationSeconds int) error {
	s := f.sessions[id]
	s.EndTime = &endTime
	s.IsCompleted = true
	s.DurationSeconds = durationSeconds
	return nil
}

func (f *fakeTestRepo) History(userID int, limit int) ([]*models.TestSession, error) {
	var res []*models.TestSession
	for _, s := range f.sessions {
		if s.UserID == userID && s.IsCompleted {
			res = append(res, s)
		}
	}
	return res, nil
}

func (f *fakeTestRepo) CountCompleted(userID int) (int, error) {
	n := 0
	for _, s := range f.sessions {
		if s.UserID == userID && s.IsCompleted {
			n++
		}
	}
	return n, nil
}

func (f *fakeTestRepo) AverageSuccessRate(userID int) (int, error) {
	sum, n := 0, 0
	for _, s := range f.sessions {
		if s.UserID == userID && s.IsCompleted {
			sum += s.SuccessRate()
			n++
		}
	}
	if n == 0 {
		return 0, nil
	}
	return sum / n, nil
}

func (f *fakeTestRepo) CreateAnswer(a *models.TestAnswer) error {
	a.ID = int64(len(f.answers) + 1)
	a.AnswerTime = f.now()
	cp := *a
	f.answers = append(f.answers, &cp)
	return nil
}

func (f *fakeTestRepo) ListAnswers(sessionID int64) ([]*models.TestAnswer, error) {
	var res []*models.TestAnswer
	for _, a := range f.answers {
		if a.TestSession == sessionID {
			res = append(res, a)
		}
	}
	return res, nil
}

func (f *fakeTestRepo) CategoryBreakdown(sessionID int64) ([]*models.CategoryResult, error) {
	return nil, nil
}

type fakeStatsRepo struct {
	byUser map[int]*models.WordStatistics
}

func newFakeStatsRepo() *fakeStatsRepo {
	return &fakeStatsRepo{byUser: map[int]*models.WordStatistics{}}
}

func (f *fakeStatsRepo) Get(userID int) (*models.WordStatistics, error) {
	if st, ok := f.byUser[userID]; ok {
		cp := *st
		return &cp, nil
	}
	return &models.WordStatistics{UserID: userID}, nil
}

func (f *fakeStatsRepo) Upsert(st *models.WordStatistics) error {
	cp := *st
	f.byUser[st.UserID] = &cp
	return nil
}

// ===== фикстура =====

type quizFixture struct {
	svc   *QuizService
	words *fakeWordRepo
	tests *fakeTestRepo
	stats *fakeStatsRepo
	store *session.MemoryStore
	clock *time.Time
}

func newQuizFixture(t *testing.T) *quizFixture {
	t.Helper()
	now := time.Date(2025, 3, 10, 15, 0, 0, 0, time.UTC)
	f := &quizFixture{
		words: newFakeWordRepo(),
		stats: newFakeStatsRepo(),
		clock: &now,
	}
	f.tests = newFakeTestRepo(func() time.Time { return *f.clock })
	f.store = session.NewMemoryStoreWithClock(10*time.Minute, func() time.Time { return *f.clock })
	f.svc = NewQuizService(f.words, f.tests, f.stats, f.store, rand.New(rand.NewSource(42)))
	f.svc.now = func() time.Time { return *f.clock }
	return f
}

func (f *quizFixture) seed(n int, categoryID int64) {
	for i := 1; i <= n; i++ {
		f.words.add(int64(i), 1, categoryID, fmt.Sprintf("word%d", i), fmt.Sprintf("слово%d", i))
	}
}

func validConfig() QuizConfig {
	return QuizConfig{
		CategoryIDs:     []int64{1},
		WordCount:       5,
		Mode:            models.ModeEnToRu,
		SelectionMethod: models.SelectionRandom,
	}
}

// ===== тесты =====

func TestMatchAnswer(t *testing.T) {
	cases := []struct {
		answer    string
		canonical string
		want      bool
	}{
		{"бежать", "бежать, убегать", true},
		{"убегать", "бежать, убегать", true},
		{"УБЕГАТЬ", "бежать, убегать", true},
		{"  бежать  ", "бежать, убегать", true},
		{"бежать, убегать", "бежать, убегать", true},
		{"беж", "бежать, убегать", false},
		{"бегать", "бежать, убегать", false},
		{"to run", "to run; to flee", true},
		{"to flee", "to run; to flee", true},
		{"run", "to run; to flee", false},
		{"Run", "run", true},
	}
	for _, tc := range cases {
		if got := matchAnswer(tc.answer, tc.canonical); got != tc.want {
			t.Errorf("matchAnswer(%q, %q) = %v, want %v", tc.answer, tc.canonical, got, tc.want)
		}
	}
}

func TestStartValidatesConfig(t *testing.T) {
	f := newQuizFixture(t)
	ctx := context.Background()
	f.seed(10, 1)

	bad := []QuizConfig{
		{CategoryIDs: nil, WordCount: 10, Mode: models.ModeEnToRu, SelectionMethod: models.SelectionRandom},
		{CategoryIDs: []int64{1}, WordCount: 4, Mode: models.ModeEnToRu, SelectionMethod: models.SelectionRandom},
		{CategoryIDs: []int64{1}, WordCount: 51, Mode: models.ModeEnToRu, SelectionMethod: models.SelectionRandom},
		{CategoryIDs: []int64{1}, WordCount: 10, Mode: "backwards", SelectionMethod: models.SelectionRandom},
		{CategoryIDs: []int64{1}, WordCount: 10, Mode: models.ModeEnToRu, SelectionMethod: "alphabetical"},
	}
	for i, cfg := range bad {
		var verrs ValidationErrors
		if _, err := f.svc.Start(ctx, sid, 1, cfg); !errors.As(err, &verrs) {
			t.Errorf("case %d: expected ValidationErrors, got %v", i, err)
		}
	}
}

func TestStartNotEnoughWords(t *testing.T) {
	f := newQuizFixture(t)
	if _, err := f.svc.Start(context.Background(), sid, 1, validConfig()); !errors.Is(err, ErrNotEnoughWords) {
		t.Fatalf("expected ErrNotEnoughWords, got %v", err)
	}
}

func TestStartTruncatesRandomSelection(t *testing.T) {
	f := newQuizFixture(t)
	ctx := context.Background()
	f.seed(20, 1)

	cfg := validConfig()
	cfg.WordCount = 10
	q, err := f.svc.Start(ctx, sid, 1, cfg)
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	if q.Total != 10 {
		t.Fatalf("expected 10 questions, got %d", q.Total)
	}
	if q.Number != 1 {
		t.Fatalf("expected first question, got %d", q.Number)
	}

	ts := f.tests.sessions[1]
	if ts.TotalWords != 10 {
		t.Fatalf("session total_words = %d", ts.TotalWords)
	}
}

func TestStartUsesAvailableWhenFewer(t *testing.T) {
	f := newQuizFixture(t)
	ctx := context.Background()
	f.seed(7, 1)

	cfg := validConfig()
	cfg.WordCount = 20
	q, err := f.svc.Start(ctx, sid, 1, cfg)
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	if q.Total != 7 {
		t.Fatalf("expected all 7 available words, got %d", q.Total)
	}
}

func TestMixedModeIsBalanced(t *testing.T) {
	f := newQuizFixture(t)
	ctx := context.Background()
	f.seed(11, 1)

	cfg := validConfig()
	cfg.WordCount = 11
	cfg.Mode = models.ModeMixed
	if _, err := f.svc.Start(ctx, sid, 1, cfg); err != nil {
		t.Fatalf("Start: %v", err)
	}

	var run session.QuizRun
	ok, err := session.GetJSON(ctx, f.store, sid, session.KeyQuizRun, &run)
	if err != nil || !ok {
		t.Fatalf("quiz run not stored: ok=%v err=%v", ok, err)
	}
	enToRu, ruToEn := 0, 0
	for _, item := range run.Items {
		switch item.Mode {
		case models.ModeEnToRu:
			enToRu++
		case models.ModeRuToEn:
			ruToEn++
		default:
			t.Fatalf("unexpected item mode %q", item.Mode)
		}
	}
	if diff := enToRu - ruToEn; diff < -1 || diff > 1 {
		t.Fatalf("unbalanced mixed bag: en_to_ru=%d ru_to_en=%d", enToRu, ruToEn)
	}
}

func TestSubmitAnswerRejectsEmpty(t *testing.T) {
	f := newQuizFixture(t)
	ctx := context.Background()
	f.seed(5, 1)

	if _, err := f.svc.Start(ctx, sid, 1, validConfig()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	var verrs ValidationErrors
	if _, err := f.svc.SubmitAnswer(ctx, sid, 1, "   "); !errors.As(err, &verrs) {
		t.Fatalf("expected ValidationErrors for empty answer, got %v", err)
	}

	// вопрос не сдвинулся
	q, err := f.svc.Question(ctx, sid, 1)
	if err != nil {
		t.Fatalf("Question: %v", err)
	}
	if q.Number != 1 {
		t.Fatalf("empty answer must not advance, got question %d", q.Number)
	}
}

func TestQuizFullRun(t *testing.T) {
	f := newQuizFixture(t)
	ctx := context.Background()
	f.seed(5, 1)

	q, err := f.svc.Start(ctx, sid, 1, validConfig())
	if err != nil {
		t.Fatalf("Start: %v", err)
	}

	// отвечаем: на чётных вопросах правильно, на нечётных — нет
	for i := 0; i < 5; i++ {
		answer := "мимо"
		if i%2 == 0 {
			answer = q.Prompt // prompt = word%d, а верный ответ слово%d
			// берём перевод напрямую из фейка
			for _, w := range f.words.words {
				if w.EnglishWord == q.Prompt {
					answer = w.RussianTranslation
				}
			}
		}
		res, err := f.svc.SubmitAnswer(ctx, sid, 1, answer)
		if err != nil {
			t.Fatalf("SubmitAnswer %d: %v", i, err)
		}
		wantCorrect := i%2 == 0
		if res.Correct != wantCorrect {
			t.Fatalf("answer %d: correct=%v, want %v", i, res.Correct, wantCorrect)
		}
		if i < 4 {
			if res.Finished || res.Next == nil {
				t.Fatalf("answer %d: expected next question", i)
			}
			q = res.Next
		} else {
			if !res.Finished || res.Next != nil {
				t.Fatalf("last answer must finish the test: %+v", res)
			}
		}
	}

	ts := f.tests.sessions[1]
	if !ts.IsCompleted {
		t.Fatal("session not finalized")
	}
	if ts.CorrectAnswers != 3 || ts.IncorrectAnswers != 2 {
		t.Fatalf("score = %d/%d, want 3/2", ts.CorrectAnswers, ts.IncorrectAnswers)
	}
	if got := ts.CorrectAnswers + ts.IncorrectAnswers; got != ts.TotalWords {
		t.Fatalf("answers %d != total_words %d", got, ts.TotalWords)
	}
	if len(f.tests.answers) != 5 {
		t.Fatalf("expected 5 persisted answers, got %d", len(f.tests.answers))
	}
	for id, n := range f.words.practiced {
		if n != 1 {
			t.Fatalf("word %d practiced %d times, want 1", id, n)
		}
	}

	// статистика: тест засчитан, серия началась
	st, _ := f.stats.Get(1)
	if st.TestsCompleted != 1 {
		t.Fatalf("tests_completed = %d", st.TestsCompleted)
	}
	if st.CurrentStreak != 1 {
		t.Fatalf("current_streak = %d", st.CurrentStreak)
	}

	// итоги доступны и снимают тест с сессии
	results, err := f.svc.Results(ctx, sid, 1)
	if err != nil {
		t.Fatalf("Results: %v", err)
	}
	if results.Session.SuccessRate() != 60 {
		t.Fatalf("success rate = %d, want 60", results.Session.SuccessRate())
	}
	if len(results.Answers) != 5 {
		t.Fatalf("results answers = %d", len(results.Answers))
	}
	if _, err := f.svc.Question(ctx, sid, 1); !errors.Is(err, ErrStaleSession) {
		t.Fatalf("expected ErrStaleSession after results, got %v", err)
	}
}

func TestQuestionWithoutActiveTest(t *testing.T) {
	f := newQuizFixture(t)
	if _, err := f.svc.Question(context.Background(), sid, 1); !errors.Is(err, ErrStaleSession) {
		t.Fatalf("expected ErrStaleSession, got %v", err)
	}
}

func TestReverseModePromptsRussian(t *testing.T) {
	f := newQuizFixture(t)
	ctx := context.Background()
	f.seed(5, 1)
	for _, w := range f.words.words {
		tr, def := "[trnscr]", "a definition"
		w.Transcription = &tr
		w.Definition = &def
	}

	cfg := validConfig()
	cfg.Mode = models.ModeRuToEn
	q, err := f.svc.Start(ctx, sid, 1, cfg)
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	if q.Mode != models.ModeRuToEn {
		t.Fatalf("mode = %q", q.Mode)
	}
	// подсказка обратного направления — определение, не транскрипция
	if q.Definition == nil {
		t.Fatal("reverse mode must carry definition hint")
	}
	if q.Transcription != nil {
		t.Fatal("reverse mode must not carry transcription")
	}

	// правильный ответ — английское слово
	var expected string
	for _, w := range f.words.words {
		if w.RussianTranslation == q.Prompt {
			expected = w.EnglishWord
		}
	}
	res, err := f.svc.SubmitAnswer(ctx, sid, 1, expected)
	if err != nil {
		t.Fatalf("SubmitAnswer: %v", err)
	}
	if !res.Correct {
		t.Fatalf("expected correct answer %q for prompt %q", expected, q.Prompt)
	}
}

func TestForwardModeHintIsTranscription(t *testing.T) {
	f := newQuizFixture(t)
	ctx := context.Background()
	f.seed(5, 1)
	for _, w := range f.words.words {
		tr, def := "[trnscr]", "a definition"
		w.Transcription = &tr
		w.Definition = &def
	}

	q, err := f.svc.Start(ctx, sid, 1, validConfig())
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	if q.Transcription == nil {
		t.Fatal("forward mode must carry transcription hint")
	}
	if q.Definition != nil {
		t.Fatal("forward mode must not carry definition")
	}
}

func TestDeletedWordDropsRun(t *testing.T) {
	f := newQuizFixture(t)
	ctx := context.Background()
	f.seed(5, 1)

	if _, err := f.svc.Start(ctx, sid, 1, validConfig()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	for id := range f.words.words {
		delete(f.words.words, id)
	}

	// слово исчезло во время теста: ход снимается, тест не зависает
	if _, err := f.svc.SubmitAnswer(ctx, sid, 1, "ответ"); !errors.Is(err, ErrStaleSession) {
		t.Fatalf("expected ErrStaleSession, got %v", err)
	}

	// новый тест можно начать сразу, не дожидаясь истечения сессии
	f.seed(5, 1)
	if _, err := f.svc.Start(ctx, sid, 1, validConfig()); err != nil {
		t.Fatalf("restart: %v", err)
	}
}

func TestHistoryAggregates(t *testing.T) {
	f := newQuizFixture(t)
	ctx := context.Background()
	f.seed(5, 1)

	for i := 0; i < 2; i++ {
		q, err := f.svc.Start(ctx, sid, 1, validConfig())
		if err != nil {
			t.Fatalf("Start: %v", err)
		}
		for j := 0; j < 5; j++ {
			answer := "мимо"
			if i == 0 {
				for _, w := range f.words.words {
					if w.EnglishWord == q.Prompt {
						answer = w.RussianTranslation
					}
				}
			}
			res, err := f.svc.SubmitAnswer(ctx, sid, 1, answer)
			if err != nil {
				t.Fatalf("SubmitAnswer: %v", err)
			}
			if res.Next != nil {
				q = res.Next
			}
		}
		if _, err := f.svc.Results(ctx, sid, 1); err != nil {
			t.Fatalf("Results: %v", err)
		}
	}

	hist, err := f.svc.History(1)
	if err != nil {
		t.Fatalf("History: %v", err)
	}
	if hist.TotalCompleted != 2 {
		t.Fatalf("total_completed = %d", hist.TotalCompleted)
	}
	// первый тест 100%, второй 0% -> среднее 50%
	if hist.AverageSuccess != 50 {
		t.Fatalf("average_success = %d, want 50", hist.AverageSuccess)
	}
}
