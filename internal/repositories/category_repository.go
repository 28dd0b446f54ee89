package repositories

import (
	"database/sql"
	"fmt"

	"wordnest/internal/models"
)

type CategoryRepository interface {
	Create(category *models.Category) error
	GetByID(userID int, id int64) (*models.Category, error)
	GetByName(userID int, name string) (*models.Category, error)
	Rename(userID int, id int64, name string) error
	Delete(userID int, id int64) error
	// ListWithCounts — категории пользователя со счётчиком слов.
	ListWithCounts(userID int) ([]*models.Category, error)
}

type categoryRepository struct {
	DB *sql.DB
}

func NewCategoryRepository(db *sql.DB) CategoryRepository {
	return &categoryRepository{DB: db}
}

func (r *categoryRepository) Create(category *models.Category) error {
	const q = `
		INSERT INTO categories (user_id, name, created_at)
		VALUES ($1, $2, NOW())
		RETURNING id, created_at
	`
	if err := r.DB.QueryRow(q, category.UserID, category.Name).Scan(&category.ID, &category.CreatedAt); err != nil {
		return fmt.Errorf("create category: %w", err)
	}
	return nil
}

func (r *categoryRepository) GetByID(userID int, id int64) (*models.Category, error) {
	const q = `SELECT id, user_id, name, created_at FROM categories WHERE id = $1 AND user_id = $2`
	c := &models.Category{}
	err := r.DB.QueryRow(q, id, userID).Scan(&c.ID, &c.UserID, &c.Name, &c.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get category: %w", err)
	}
	return c, nil
}

func (r *categoryRepository) GetByName(userID int, name string) (*models.Category, error) {
	const q = `SELECT id, user_id, name, created_at FROM categories WHERE user_id = $1 AND LOWER(name) = LOWER($2)`
	c := &models.Category{}
	err := r.DB.QueryRow(q, userID, name).Scan(&c.ID, &c.UserID, &c.Name, &c.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get category by name: %w", err)
	}
	return c, nil
}

func (r *categoryRepository) Rename(userID int, id int64, name string) error {
	if _, err := r.DB.Exec(`UPDATE categories SET name=$1 WHERE id=$2 AND user_id=$3`, name, id, userID); err != nil {
		return fmt.Errorf("rename category: %w", err)
	}
	return nil
}

func (r *categoryRepository) Delete(userID int, id int64) error {
	if _, err := r.DB.Exec(`DELETE FROM categories WHERE id=$1 AND user_id=$2`, id, userID); err != nil {
		return fmt.Errorf("delete category: %w", err)
	}
	return nil
}

func (r *categoryRepository) ListWithCounts(userID int) ([]*models.Category, error) {
	const q = `
		SELECT c.id, c.user_id, c.name, c.created_at, COUNT(w.id)
		FROM categories c
		LEFT JOIN words w ON w.category_id = c.id
		WHERE c.user_id = $1
		GROUP BY c.id
		ORDER BY c.name
	`
	rows, err := r.DB.Query(q, userID)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	defer rows.Close()

	var res []*models.Category
	for rows.Next() {
		c := &models.Category{}
		if err := rows.Scan(&c.ID, &c.UserID, &c.Name, &c.CreatedAt, &c.WordsCount); err != nil {
			return nil, fmt.Errorf("scan category: %w", err)
		}
		res = append(res, c)
	}
	return res, rows.Err()
}
