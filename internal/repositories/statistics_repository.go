package repositories

import (
	"database/sql"
	"fmt"

	"wordnest/internal/models"
)

type StatisticsRepository interface {
	// Get — статистика пользователя; нулевая запись, если её ещё нет.
	Get(userID int) (*models.WordStatistics, error)
	Upsert(stats *models.WordStatistics) error
}

type statisticsRepository struct {
	DB *sql.DB
}

func NewStatisticsRepository(db *sql.DB) StatisticsRepository {
	return &statisticsRepository{DB: db}
}

func (r *statisticsRepository) Get(userID int) (*models.WordStatistics, error) {
	const q = `
		SELECT user_id, total_words_added, words_learned, tests_completed,
			current_streak, best_streak, last_study_date
		FROM word_statistics
		WHERE user_id = $1
	`
	s := &models.WordStatistics{}
	var lastStudy sql.NullTime
	err := r.DB.QueryRow(q, userID).Scan(
		&s.UserID, &s.TotalWordsAdded, &s.WordsLearned, &s.TestsCompleted,
		&s.CurrentStreak, &s.BestStreak, &lastStudy,
	)
	if err == sql.ErrNoRows {
		return &models.WordStatistics{UserID: userID}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get statistics: %w", err)
	}
	if lastStudy.Valid {
		t := lastStudy.Time
		s.LastStudyDate = &t
	}
	return s, nil
}

func (r *statisticsRepository) Upsert(stats *models.WordStatistics) error {
	const q = `
		INSERT INTO word_statistics (user_id, total_words_added, words_learned,
			tests_completed, current_streak, best_streak, last_study_date)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (user_id) DO UPDATE SET
			total_words_added = EXCLUDED.total_words_added,
			words_learned = EXCLUDED.words_learned,
			tests_completed = EXCLUDED.tests_completed,
			current_streak = EXCLUDED.current_streak,
			best_streak = EXCLUDED.best_streak,
			last_study_date = EXCLUDED.last_study_date
	`
	if _, err := r.DB.Exec(q,
		stats.UserID, stats.TotalWordsAdded, stats.WordsLearned,
		stats.TestsCompleted, stats.CurrentStreak, stats.BestStreak, stats.LastStudyDate,
	); err != nil {
		return fmt.Errorf("upsert statistics: %w", err)
	}
	return nil
}
