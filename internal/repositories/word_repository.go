package repositories

import (
	"database/sql"
	"fmt"

	"github.com/lib/pq"

	"wordnest/internal/models"
)

type WordRepository interface {
	Create(word *models.Word) error
	GetByID(userID int, id int64) (*models.Word, error)
	Update(word *models.Word) error
	Delete(userID int, id int64) error
	List(userID int, filter models.WordFilter) ([]*models.Word, error)
	Count(userID int) (int, error)
	CountLearned(userID int) (int, error)
	CountNeedPractice(userID int) (int, error)
	ExistsEnglish(userID int, englishWord string) (bool, error)
	SetLearned(userID int, id int64, learned bool) error

	// FetchForTest — выборка слов для теста: фильтр по категориям и
	// флагу изученности, порядок по методу выбора, обрезка до limit.
	FetchForTest(userID int, categoryIDs []int64, includeLearned bool, method string, limit int) ([]*models.Word, error)
	// MarkPracticed — атомарный инкремент счётчика повторений.
	MarkPracticed(id int64) error
	// CopyCategory — копирует слова категории в словарь другого
	// пользователя, пропуская уже имеющиеся english_word.
	CopyCategory(categoryID int64, fromUserID, toUserID int, toCategoryID int64) (int, error)
}

type wordRepository struct {
	DB *sql.DB
}

func NewWordRepository(db *sql.DB) WordRepository {
	return &wordRepository{DB: db}
}

const wordColumns = `
	id, user_id, english_word, russian_translation, transcription, definition,
	example_sentence, category_id, difficulty_level, is_learned, times_practiced,
	last_practiced, created_at, updated_at
`

func (r *wordRepository) Create(word *models.Word) error {
	const q = `
		INSERT INTO words (
			user_id, english_word, russian_translation, transcription, definition,
			example_sentence, category_id, difficulty_level, is_learned,
			times_practiced, last_practiced, created_at, updated_at
		)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,FALSE,0,NULL,NOW(),NOW())
		RETURNING id, created_at, updated_at
	`
	if err := r.DB.QueryRow(q,
		word.UserID, word.EnglishWord, word.RussianTranslation,
		word.Transcription, word.Definition, word.ExampleSentence,
		word.CategoryID, word.DifficultyLevel,
	).Scan(&word.ID, &word.CreatedAt, &word.UpdatedAt); err != nil {
		return fmt.Errorf("create word: %w", err)
	}
	return nil
}

func scanWord(scan func(dest ...any) error) (*models.Word, error) {
	w := &models.Word{}
	var (
		transcription sql.NullString
		definition    sql.NullString
		example       sql.NullString
		lastPracticed sql.NullTime
	)
	if err := scan(
		&w.ID, &w.UserID, &w.EnglishWord, &w.RussianTranslation,
		&transcription, &definition, &example,
		&w.CategoryID, &w.DifficultyLevel, &w.IsLearned, &w.TimesPracticed,
		&lastPracticed, &w.CreatedAt, &w.UpdatedAt,
	); err != nil {
		return nil, err
	}
	if transcription.Valid {
		s := transcription.String
		w.Transcription = &s
	}
	if definition.Valid {
		s := definition.String
		w.Definition = &s
	}
	if example.Valid {
		s := example.String
		w.ExampleSentence = &s
	}
	if lastPracticed.Valid {
		t := lastPracticed.Time
		w.LastPracticed = &t
	}
	return w, nil
}

func (r *wordRepository) GetByID(userID int, id int64) (*models.Word, error) {
	const q = `SELECT ` + wordColumns + ` FROM words WHERE id = $1 AND user_id = $2`
	w, err := scanWord(r.DB.QueryRow(q, id, userID).Scan)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get word: %w", err)
	}
	return w, nil
}

func (r *wordRepository) Update(word *models.Word) error {
	const q = `
		UPDATE words
		SET english_word=$1, russian_translation=$2, transcription=$3,
			definition=$4, example_sentence=$5, category_id=$6,
			difficulty_level=$7, is_learned=$8, updated_at=NOW()
		WHERE id=$9 AND user_id=$10
	`
	if _, err := r.DB.Exec(q,
		word.EnglishWord, word.RussianTranslation, word.Transcription,
		word.Definition, word.ExampleSentence, word.CategoryID,
		word.DifficultyLevel, word.IsLearned,
		word.ID, word.UserID,
	); err != nil {
		return fmt.Errorf("update word: %w", err)
	}
	return nil
}

func (r *wordRepository) Delete(userID int, id int64) error {
	if _, err := r.DB.Exec(`DELETE FROM words WHERE id=$1 AND user_id=$2`, id, userID); err != nil {
		return fmt.Errorf("delete word: %w", err)
	}
	return nil
}

func (r *wordRepository) List(userID int, filter models.WordFilter) ([]*models.Word, error) {
	q := `SELECT ` + wordColumns + ` FROM words WHERE user_id = $1`
	args := []any{userID}

	if len(filter.CategoryIDs) > 0 {
		args = append(args, pq.Array(filter.CategoryIDs))
		q += fmt.Sprintf(" AND category_id = ANY($%d)", len(args))
	}
	if filter.Search != "" {
		args = append(args, "%"+filter.Search+"%")
		q += fmt.Sprintf(" AND (english_word ILIKE $%d OR russian_translation ILIKE $%d)", len(args), len(args))
	}
	if filter.DifficultyLevel != "" {
		args = append(args, filter.DifficultyLevel)
		q += fmt.Sprintf(" AND difficulty_level = $%d", len(args))
	}
	if filter.OnlyUnlearned {
		q += " AND is_learned = FALSE"
	}
	q += " ORDER BY created_at DESC"
	if filter.Limit > 0 {
		args = append(args, filter.Limit)
		q += fmt.Sprintf(" LIMIT $%d", len(args))
	}
	if filter.Offset > 0 {
		args = append(args, filter.Offset)
		q += fmt.Sprintf(" OFFSET $%d", len(args))
	}

	rows, err := r.DB.Query(q, args...)
	if err != nil {
		return nil, fmt.Errorf("list words: %w", err)
	}
	defer rows.Close()

	var res []*models.Word
	for rows.Next() {
		w, err := scanWord(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("scan word: %w", err)
		}
		res = append(res, w)
	}
	return res, rows.Err()
}

func (r *wordRepository) Count(userID int) (int, error) {
	var c int
	err := r.DB.QueryRow(`SELECT COUNT(*) FROM words WHERE user_id=$1`, userID).Scan(&c)
	return c, err
}

func (r *wordRepository) CountLearned(userID int) (int, error) {
	var c int
	err := r.DB.QueryRow(`SELECT COUNT(*) FROM words WHERE user_id=$1 AND is_learned=TRUE`, userID).Scan(&c)
	return c, err
}

func (r *wordRepository) CountNeedPractice(userID int) (int, error) {
	const q = `
		SELECT COUNT(*) FROM words
		WHERE user_id=$1
			AND (last_practiced IS NULL OR last_practiced < NOW() - INTERVAL '7 days')
	`
	var c int
	err := r.DB.QueryRow(q, userID).Scan(&c)
	return c, err
}

func (r *wordRepository) ExistsEnglish(userID int, englishWord string) (bool, error) {
	const q = `
		SELECT EXISTS(
			SELECT 1 FROM words WHERE user_id=$1 AND LOWER(english_word)=LOWER($2)
		)
	`
	var exists bool
	err := r.DB.QueryRow(q, userID, englishWord).Scan(&exists)
	return exists, err
}

func (r *wordRepository) SetLearned(userID int, id int64, learned bool) error {
	const q = `
		UPDATE words SET is_learned=$1, updated_at=NOW()
		WHERE id=$2 AND user_id=$3
	`
	_, err := r.DB.Exec(q, learned, id, userID)
	return err
}

func (r *wordRepository) FetchForTest(userID int, categoryIDs []int64, includeLearned bool, method string, limit int) ([]*models.Word, error) {
	q := `SELECT ` + wordColumns + ` FROM words WHERE user_id = $1 AND category_id = ANY($2)`
	args := []any{userID, pq.Array(categoryIDs)}

	if !includeLearned {
		q += " AND is_learned = FALSE"
	}

	switch method {
	case models.SelectionLeastPracticed:
		q += " ORDER BY times_practiced ASC"
	case models.SelectionNewest:
		q += " ORDER BY created_at DESC"
	case models.SelectionMostDifficult:
		q += ` AND difficulty_level IN ('advanced', 'proficiency') ORDER BY times_practiced ASC`
	default:
		// случайный порядок даёт сервис своим генератором, здесь —
		// стабильный порядок и полный кандидатный набор
		q += " ORDER BY id"
	}

	if limit > 0 {
		args = append(args, limit)
		q += fmt.Sprintf(" LIMIT $%d", len(args))
	}

	rows, err := r.DB.Query(q, args...)
	if err != nil {
		return nil, fmt.Errorf("fetch words for test: %w", err)
	}
	defer rows.Close()

	var res []*models.Word
	for rows.Next() {
		w, err := scanWord(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("scan test word: %w", err)
		}
		res = append(res, w)
	}
	return res, rows.Err()
}

func (r *wordRepository) MarkPracticed(id int64) error {
	const q = `
		UPDATE words
		SET times_practiced = times_practiced + 1, last_practiced = NOW()
		WHERE id = $1
	`
	if _, err := r.DB.Exec(q, id); err != nil {
		return fmt.Errorf("mark practiced: %w", err)
	}
	return nil
}

func (r *wordRepository) CopyCategory(categoryID int64, fromUserID, toUserID int, toCategoryID int64) (int, error) {
	const q = `
		INSERT INTO words (
			user_id, english_word, russian_translation, transcription, definition,
			example_sentence, category_id, difficulty_level, is_learned,
			times_practiced, last_practiced, created_at, updated_at
		)
		SELECT $1, w.english_word, w.russian_translation, w.transcription, w.definition,
			w.example_sentence, $2, w.difficulty_level, FALSE, 0, NULL, NOW(), NOW()
		FROM words w
		WHERE w.category_id = $3 AND w.user_id = $4
			AND NOT EXISTS (
				SELECT 1 FROM words e
				WHERE e.user_id = $1 AND LOWER(e.english_word) = LOWER(w.english_word)
			)
	`
	res, err := r.DB.Exec(q, toUserID, toCategoryID, categoryID, fromUserID)
	if err != nil {
		return 0, fmt.Errorf("copy category words: %w", err)
	}
	n, _ := res.RowsAffected()
	return int(n), nil
}
