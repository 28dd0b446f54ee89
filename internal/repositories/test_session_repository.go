package repositories

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/lib/pq"

	"wordnest/internal/models"
)

type TestSessionRepository interface {
	Create(session *models.TestSession) error
	GetByID(userID int, id int64) (*models.TestSession, error)
	// IncrementResult — атомарный инкремент счётчика правильных или
	// неправильных ответов.
	IncrementResult(id int64, correct bool) error
	Finalize(id int64, endTime time.Time, durationSeconds int) error
	History(userID int, limit int) ([]*models.TestSession, error)
	CountCompleted(userID int) (int, error)
	// AverageSuccessRate — средний процент успешности по завершённым тестам.
	AverageSuccessRate(userID int) (int, error)

	CreateAnswer(answer *models.TestAnswer) error
	ListAnswers(sessionID int64) ([]*models.TestAnswer, error)
	// CategoryBreakdown — правильные/всего по категориям слов сессии.
	CategoryBreakdown(sessionID int64) ([]*models.CategoryResult, error)
}

type testSessionRepository struct {
	DB *sql.DB
}

func NewTestSessionRepository(db *sql.DB) TestSessionRepository {
	return &testSessionRepository{DB: db}
}

func (r *testSessionRepository) Create(session *models.TestSession) error {
	const q = `
		INSERT INTO test_sessions (
			user_id, category_ids, total_words, correct_answers, incorrect_answers,
			start_time, end_time, is_completed, duration_seconds
		)
		VALUES ($1, $2, $3, 0, 0, NOW(), NULL, FALSE, 0)
		RETURNING id, start_time
	`
	if err := r.DB.QueryRow(q, session.UserID, pq.Array(session.CategoryIDs), session.TotalWords).
		Scan(&session.ID, &session.StartTime); err != nil {
		return fmt.Errorf("create test session: %w", err)
	}
	return nil
}

func (r *testSessionRepository) GetByID(userID int, id int64) (*models.TestSession, error) {
	const q = `
		SELECT id, user_id, category_ids, total_words, correct_answers, incorrect_answers,
			start_time, end_time, is_completed, duration_seconds
		FROM test_sessions
		WHERE id = $1 AND user_id = $2
	`
	s := &models.TestSession{}
	var endTime sql.NullTime
	err := r.DB.QueryRow(q, id, userID).Scan(
		&s.ID, &s.UserID, pq.Array(&s.CategoryIDs), &s.TotalWords,
		&s.CorrectAnswers, &s.IncorrectAnswers,
		&s.StartTime, &endTime, &s.IsCompleted, &s.DurationSeconds,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get test session: %w", err)
	}
	if endTime.Valid {
		t := endTime.Time
		s.EndTime = &t
	}
	return s, nil
}

func (r *testSessionRepository) IncrementResult(id int64, correct bool) error {
	q := `UPDATE test_sessions SET incorrect_answers = incorrect_answers + 1 WHERE id = $1`
	if correct {
		q = `UPDATE test_sessions SET correct_answers = correct_answers + 1 WHERE id = $1`
	}
	if _, err := r.DB.Exec(q, id); err != nil {
		return fmt.Errorf("increment test result: %w", err)
	}
	return nil
}

func (r *testSessionRepository) Finalize(id int64, endTime time.Time, durationSeconds int) error {
	const q = `
		UPDATE test_sessions
		SET end_time = $1, is_completed = TRUE, duration_seconds = $2
		WHERE id = $3
	`
	if _, err := r.DB.Exec(q, endTime, durationSeconds, id); err != nil {
		return fmt.Errorf("finalize test session: %w", err)
	}
	return nil
}

func (r *testSessionRepository) History(userID int, limit int) ([]*models.TestSession, error) {
	const q = `
		SELECT id, user_id, category_ids, total_words, correct_answers, incorrect_answers,
			start_time, end_time, is_completed, duration_seconds
		FROM test_sessions
		WHERE user_id = $1 AND is_completed = TRUE
		ORDER BY start_time DESC
		LIMIT $2
	`
	rows, err := r.DB.Query(q, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("test history: %w", err)
	}
	defer rows.Close()

	var res []*models.TestSession
	for rows.Next() {
		s := &models.TestSession{}
		var endTime sql.NullTime
		if err := rows.Scan(
			&s.ID, &s.UserID, pq.Array(&s.CategoryIDs), &s.TotalWords,
			&s.CorrectAnswers, &s.IncorrectAnswers,
			&s.StartTime, &endTime, &s.IsCompleted, &s.DurationSeconds,
		); err != nil {
			return nil, fmt.Errorf("scan test session: %w", err)
		}
		if endTime.Valid {
			t := endTime.Time
			s.EndTime = &t
		}
		res = append(res, s)
	}
	return res, rows.Err()
}

func (r *testSessionRepository) CountCompleted(userID int) (int, error) {
	var c int
	err := r.DB.QueryRow(
		`SELECT COUNT(*) FROM test_sessions WHERE user_id=$1 AND is_completed=TRUE`, userID,
	).Scan(&c)
	return c, err
}

func (r *testSessionRepository) AverageSuccessRate(userID int) (int, error) {
	const q = `
		SELECT COALESCE(AVG(correct_answers * 100.0 / NULLIF(total_words, 0)), 0)
		FROM test_sessions
		WHERE user_id = $1 AND is_completed = TRUE
	`
	var avg float64
	if err := r.DB.QueryRow(q, userID).Scan(&avg); err != nil {
		return 0, fmt.Errorf("average success rate: %w", err)
	}
	return int(avg), nil
}

func (r *testSessionRepository) CreateAnswer(answer *models.TestAnswer) error {
	const q = `
		INSERT INTO test_answers (test_session_id, word_id, user_answer, is_correct, answer_time)
		VALUES ($1, $2, $3, $4, NOW())
		RETURNING id, answer_time
	`
	if err := r.DB.QueryRow(q,
		answer.TestSession, answer.WordID, answer.UserAnswer, answer.IsCorrect,
	).Scan(&answer.ID, &answer.AnswerTime); err != nil {
		return fmt.Errorf("create test answer: %w", err)
	}
	return nil
}

func (r *testSessionRepository) ListAnswers(sessionID int64) ([]*models.TestAnswer, error) {
	const q = `
		SELECT id, test_session_id, word_id, user_answer, is_correct, answer_time
		FROM test_answers
		WHERE test_session_id = $1
		ORDER BY answer_time
	`
	rows, err := r.DB.Query(q, sessionID)
	if err != nil {
		return nil, fmt.Errorf("list test answers: %w", err)
	}
	defer rows.Close()

	var res []*models.TestAnswer
	for rows.Next() {
		a := &models.TestAnswer{}
		if err := rows.Scan(&a.ID, &a.TestSession, &a.WordID, &a.UserAnswer, &a.IsCorrect, &a.AnswerTime); err != nil {
			return nil, fmt.Errorf("scan test answer: %w", err)
		}
		res = append(res, a)
	}
	return res, rows.Err()
}

func (r *testSessionRepository) CategoryBreakdown(sessionID int64) ([]*models.CategoryResult, error) {
	const q = `
		SELECT c.id, c.name,
			COUNT(*) FILTER (WHERE a.is_correct) AS correct,
			COUNT(*) AS total
		FROM test_answers a
		JOIN words w ON w.id = a.word_id
		JOIN categories c ON c.id = w.category_id
		WHERE a.test_session_id = $1
		GROUP BY c.id, c.name
		ORDER BY c.name
	`
	rows, err := r.DB.Query(q, sessionID)
	if err != nil {
		return nil, fmt.Errorf("category breakdown: %w", err)
	}
	defer rows.Close()

	var res []*models.CategoryResult
	for rows.Next() {
		cr := &models.CategoryResult{}
		if err := rows.Scan(&cr.CategoryID, &cr.CategoryName, &cr.Correct, &cr.Total); err != nil {
			return nil, fmt.Errorf("scan breakdown: %w", err)
		}
		if cr.Total > 0 {
			cr.Percentage = cr.Correct * 100 / cr.Total
		}
		res = append(res, cr)
	}
	return res, rows.Err()
}
