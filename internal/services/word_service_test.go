package services

import (
	"errors"
	"testing"

	"wordnest/internal/models"
)

type wordFixture struct {
	svc   *WordService
	words *fakeWordRepo
	cats  *fakeCategoryRepo
	stats *fakeStatsRepo

	userID int
	catID  int64
}

func newWordFixture(t *testing.T) *wordFixture {
	t.Helper()
	f := &wordFixture{
		words:  newFakeWordRepo(),
		cats:   newFakeCategoryRepo(),
		stats:  newFakeStatsRepo(),
		userID: 1,
	}
	cat := &models.Category{UserID: f.userID, Name: "Базовые"}
	_ = f.cats.Create(cat)
	f.catID = cat.ID
	f.svc = NewWordService(f.words, f.cats, f.stats)
	return f
}

func (f *wordFixture) input(english, russian string) WordInput {
	return WordInput{
		EnglishWord:        english,
		RussianTranslation: russian,
		CategoryID:         f.catID,
		DifficultyLevel:    models.DifficultyBeginner,
	}
}

func TestAddWord(t *testing.T) {
	f := newWordFixture(t)

	word, err := f.svc.AddWord(f.userID, f.input("  apple ", " яблоко "))
	if err != nil {
		t.Fatalf("AddWord: %v", err)
	}
	if word.EnglishWord != "apple" || word.RussianTranslation != "яблоко" {
		t.Fatalf("input not trimmed: %+v", word)
	}
	st, _ := f.stats.Get(f.userID)
	if st.TotalWordsAdded != 1 {
		t.Fatalf("TotalWordsAdded = %d, want 1", st.TotalWordsAdded)
	}
}

func TestAddWordRejectsDuplicate(t *testing.T) {
	f := newWordFixture(t)

	if _, err := f.svc.AddWord(f.userID, f.input("apple", "яблоко")); err != nil {
		t.Fatalf("AddWord: %v", err)
	}
	// дубликат без учёта регистра
	if _, err := f.svc.AddWord(f.userID, f.input("Apple", "яблоко")); !errors.Is(err, ErrDuplicateWord) {
		t.Fatalf("expected ErrDuplicateWord, got %v", err)
	}
}

func TestAddWordValidation(t *testing.T) {
	f := newWordFixture(t)

	var verrs ValidationErrors
	_, err := f.svc.AddWord(f.userID, WordInput{DifficultyLevel: "expert"})
	if !errors.As(err, &verrs) {
		t.Fatalf("expected ValidationErrors, got %v", err)
	}
	if len(verrs) != 4 {
		t.Fatalf("expected 4 field errors, got %d: %v", len(verrs), verrs)
	}

	// несуществующая категория
	in := f.input("apple", "яблоко")
	in.CategoryID = 999
	if _, err := f.svc.AddWord(f.userID, in); !errors.Is(err, ErrCategoryNotFound) {
		t.Fatalf("expected ErrCategoryNotFound, got %v", err)
	}
}

func TestUpdateWordKeepsOwnName(t *testing.T) {
	f := newWordFixture(t)

	word, err := f.svc.AddWord(f.userID, f.input("apple", "яблоко"))
	if err != nil {
		t.Fatalf("AddWord: %v", err)
	}
	// смена регистра своего же слова — не дубликат
	in := f.input("APPLE", "яблоко (фрукт)")
	updated, err := f.svc.UpdateWord(f.userID, word.ID, in)
	if err != nil {
		t.Fatalf("UpdateWord: %v", err)
	}
	if updated.EnglishWord != "APPLE" || updated.RussianTranslation != "яблоко (фрукт)" {
		t.Fatalf("unexpected word: %+v", updated)
	}
}

func TestSetLearnedMovesCounter(t *testing.T) {
	f := newWordFixture(t)

	word, err := f.svc.AddWord(f.userID, f.input("apple", "яблоко"))
	if err != nil {
		t.Fatalf("AddWord: %v", err)
	}

	if err := f.svc.SetLearned(f.userID, word.ID, true); err != nil {
		t.Fatalf("SetLearned: %v", err)
	}
	st, _ := f.stats.Get(f.userID)
	if st.WordsLearned != 1 {
		t.Fatalf("WordsLearned = %d, want 1", st.WordsLearned)
	}

	// повтор той же отметки счётчик не двигает
	if err := f.svc.SetLearned(f.userID, word.ID, true); err != nil {
		t.Fatalf("SetLearned repeat: %v", err)
	}
	st, _ = f.stats.Get(f.userID)
	if st.WordsLearned != 1 {
		t.Fatalf("WordsLearned after repeat = %d, want 1", st.WordsLearned)
	}

	if err := f.svc.SetLearned(f.userID, word.ID, false); err != nil {
		t.Fatalf("SetLearned unset: %v", err)
	}
	st, _ = f.stats.Get(f.userID)
	if st.WordsLearned != 0 {
		t.Fatalf("WordsLearned after unset = %d, want 0", st.WordsLearned)
	}
}

func TestCategoryLifecycle(t *testing.T) {
	f := newWordFixture(t)

	cat, err := f.svc.CreateCategory(f.userID, "Глаголы")
	if err != nil {
		t.Fatalf("CreateCategory: %v", err)
	}
	if _, err := f.svc.CreateCategory(f.userID, "Глаголы"); !errors.Is(err, ErrCategoryExists) {
		t.Fatalf("expected ErrCategoryExists, got %v", err)
	}

	if err := f.svc.RenameCategory(f.userID, cat.ID, "Фразовые глаголы"); err != nil {
		t.Fatalf("RenameCategory: %v", err)
	}
	// переименование в занятое имя
	if err := f.svc.RenameCategory(f.userID, cat.ID, "Базовые"); !errors.Is(err, ErrCategoryExists) {
		t.Fatalf("expected ErrCategoryExists, got %v", err)
	}

	// непустая категория не удаляется
	if _, err := f.svc.AddWord(f.userID, f.input("run", "бежать")); err != nil {
		t.Fatalf("AddWord: %v", err)
	}
	if err := f.svc.DeleteCategory(f.userID, f.catID); !errors.Is(err, ErrCategoryNotEmpty) {
		t.Fatalf("expected ErrCategoryNotEmpty, got %v", err)
	}
	if err := f.svc.DeleteCategory(f.userID, cat.ID); err != nil {
		t.Fatalf("DeleteCategory: %v", err)
	}
}
