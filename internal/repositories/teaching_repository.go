package repositories

import (
	"database/sql"
	"fmt"
	"time"

	"wordnest/internal/models"
)

type TeachingRepository interface {
	// запросы на обучение
	CreateRequest(req *models.TutoringRequest) error
	GetRequest(id int64) (*models.TutoringRequest, error)
	UpdateRequestStatus(id int64, status, response string) error
	HasOpenRequest(teacherID, studentID int) (bool, error)
	ListRequestsForTeacher(teacherID int) ([]*models.TutoringRequest, error)
	ListRequestsForStudent(studentID int) ([]*models.TutoringRequest, error)

	// связи учитель-ученик
	CreateLink(teacherID, studentID int) error
	HasActiveLink(teacherID, studentID int) (bool, error)
	DeactivateLink(teacherID, studentID int) error
	ListStudents(teacherID int) ([]*models.TeacherStudentLink, error)
	ListTeachers(studentID int) ([]*models.TeacherStudentLink, error)

	// домашние задания
	CreateHomework(hw *models.Homework) error
	GetHomework(id int64) (*models.Homework, error)
	CompleteHomework(id int64, studentID int, completedAt time.Time) error
	SetHomeworkFeedback(id int64, teacherID int, feedback string) error
	ListHomeworkForStudent(studentID int) ([]*models.Homework, error)
	ListHomeworkForTeacher(teacherID int) ([]*models.Homework, error)

	// передача категорий
	CreateShareRequest(req *models.CategoryShareRequest) error
	GetShareRequest(id int64) (*models.CategoryShareRequest, error)
	UpdateShareStatus(id int64, status, response string) error
	ListShareRequestsForStudent(studentID int) ([]*models.CategoryShareRequest, error)
}

type teachingRepository struct {
	DB *sql.DB
}

func NewTeachingRepository(db *sql.DB) TeachingRepository {
	return &teachingRepository{DB: db}
}

// ===== запросы на обучение =====

func (r *teachingRepository) CreateRequest(req *models.TutoringRequest) error {
	const q = `
		INSERT INTO tutoring_requests (teacher_id, student_id, initiated_by, status, message, response, created_at, updated_at)
		VALUES ($1, $2, $3, 'pending', $4, '', NOW(), NOW())
		RETURNING id, created_at, updated_at
	`
	if err := r.DB.QueryRow(q, req.TeacherID, req.StudentID, req.InitiatedBy, req.Message).
		Scan(&req.ID, &req.CreatedAt, &req.UpdatedAt); err != nil {
		return fmt.Errorf("create tutoring request: %w", err)
	}
	req.Status = models.RequestPending
	return nil
}

func (r *teachingRepository) GetRequest(id int64) (*models.TutoringRequest, error) {
	const q = `
		SELECT id, teacher_id, student_id, initiated_by, status, message, response, created_at, updated_at
		FROM tutoring_requests WHERE id = $1
	`
	req := &models.TutoringRequest{}
	err := r.DB.QueryRow(q, id).Scan(
		&req.ID, &req.TeacherID, &req.StudentID, &req.InitiatedBy,
		&req.Status, &req.Message, &req.Response, &req.CreatedAt, &req.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get tutoring request: %w", err)
	}
	return req, nil
}

func (r *teachingRepository) UpdateRequestStatus(id int64, status, response string) error {
	const q = `
		UPDATE tutoring_requests
		SET status=$1, response=$2, updated_at=NOW()
		WHERE id=$3
	`
	if _, err := r.DB.Exec(q, status, response, id); err != nil {
		return fmt.Errorf("update tutoring request: %w", err)
	}
	return nil
}

func (r *teachingRepository) HasOpenRequest(teacherID, studentID int) (bool, error) {
	const q = `
		SELECT EXISTS(
			SELECT 1 FROM tutoring_requests
			WHERE teacher_id=$1 AND student_id=$2 AND status='pending'
		)
	`
	var exists bool
	err := r.DB.QueryRow(q, teacherID, studentID).Scan(&exists)
	return exists, err
}

func (r *teachingRepository) listRequests(q string, id int) ([]*models.TutoringRequest, error) {
	rows, err := r.DB.Query(q, id)
	if err != nil {
		return nil, fmt.Errorf("list tutoring requests: %w", err)
	}
	defer rows.Close()

	var res []*models.TutoringRequest
	for rows.Next() {
		req := &models.TutoringRequest{}
		if err := rows.Scan(
			&req.ID, &req.TeacherID, &req.StudentID, &req.InitiatedBy,
			&req.Status, &req.Message, &req.Response, &req.CreatedAt, &req.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan tutoring request: %w", err)
		}
		res = append(res, req)
	}
	return res, rows.Err()
}

func (r *teachingRepository) ListRequestsForTeacher(teacherID int) ([]*models.TutoringRequest, error) {
	const q = `
		SELECT id, teacher_id, student_id, initiated_by, status, message, response, created_at, updated_at
		FROM tutoring_requests WHERE teacher_id = $1 ORDER BY created_at DESC
	`
	return r.listRequests(q, teacherID)
}

func (r *teachingRepository) ListRequestsForStudent(studentID int) ([]*models.TutoringRequest, error) {
	const q = `
		SELECT id, teacher_id, student_id, initiated_by, status, message, response, created_at, updated_at
		FROM tutoring_requests WHERE student_id = $1 ORDER BY created_at DESC
	`
	return r.listRequests(q, studentID)
}

// ===== связи =====

func (r *teachingRepository) CreateLink(teacherID, studentID int) error {
	const q = `
		INSERT INTO teacher_student_links (teacher_id, student_id, started_at, is_active, notes)
		VALUES ($1, $2, NOW(), TRUE, '')
		ON CONFLICT (teacher_id, student_id)
		DO UPDATE SET is_active = TRUE, started_at = NOW()
	`
	if _, err := r.DB.Exec(q, teacherID, studentID); err != nil {
		return fmt.Errorf("create teacher-student link: %w", err)
	}
	return nil
}

func (r *teachingRepository) HasActiveLink(teacherID, studentID int) (bool, error) {
	const q = `
		SELECT EXISTS(
			SELECT 1 FROM teacher_student_links
			WHERE teacher_id=$1 AND student_id=$2 AND is_active=TRUE
		)
	`
	var exists bool
	err := r.DB.QueryRow(q, teacherID, studentID).Scan(&exists)
	return exists, err
}

func (r *teachingRepository) DeactivateLink(teacherID, studentID int) error {
	const q = `
		UPDATE teacher_student_links SET is_active=FALSE
		WHERE teacher_id=$1 AND student_id=$2
	`
	if _, err := r.DB.Exec(q, teacherID, studentID); err != nil {
		return fmt.Errorf("deactivate link: %w", err)
	}
	return nil
}

func (r *teachingRepository) listLinks(q string, id int) ([]*models.TeacherStudentLink, error) {
	rows, err := r.DB.Query(q, id)
	if err != nil {
		return nil, fmt.Errorf("list links: %w", err)
	}
	defer rows.Close()

	var res []*models.TeacherStudentLink
	for rows.Next() {
		l := &models.TeacherStudentLink{}
		if err := rows.Scan(&l.ID, &l.TeacherID, &l.StudentID, &l.StartedAt, &l.IsActive, &l.Notes); err != nil {
			return nil, fmt.Errorf("scan link: %w", err)
		}
		res = append(res, l)
	}
	return res, rows.Err()
}

func (r *teachingRepository) ListStudents(teacherID int) ([]*models.TeacherStudentLink, error) {
	const q = `
		SELECT id, teacher_id, student_id, started_at, is_active, notes
		FROM teacher_student_links
		WHERE teacher_id = $1 AND is_active = TRUE
		ORDER BY started_at DESC
	`
	return r.listLinks(q, teacherID)
}

func (r *teachingRepository) ListTeachers(studentID int) ([]*models.TeacherStudentLink, error) {
	const q = `
		SELECT id, teacher_id, student_id, started_at, is_active, notes
		FROM teacher_student_links
		WHERE student_id = $1 AND is_active = TRUE
		ORDER BY started_at DESC
	`
	return r.listLinks(q, studentID)
}

// ===== домашние задания =====

func (r *teachingRepository) CreateHomework(hw *models.Homework) error {
	const q = `
		INSERT INTO homework (teacher_id, student_id, title, description, due_date,
			is_completed, completed_at, teacher_feedback, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, FALSE, NULL, '', NOW(), NOW())
		RETURNING id, created_at, updated_at
	`
	if err := r.DB.QueryRow(q, hw.TeacherID, hw.StudentID, hw.Title, hw.Description, hw.DueDate).
		Scan(&hw.ID, &hw.CreatedAt, &hw.UpdatedAt); err != nil {
		return fmt.Errorf("create homework: %w", err)
	}
	return nil
}

func (r *teachingRepository) GetHomework(id int64) (*models.Homework, error) {
	const q = `
		SELECT id, teacher_id, student_id, title, description, due_date,
			is_completed, completed_at, teacher_feedback, created_at, updated_at
		FROM homework WHERE id = $1
	`
	hw := &models.Homework{}
	var completedAt sql.NullTime
	err := r.DB.QueryRow(q, id).Scan(
		&hw.ID, &hw.TeacherID, &hw.StudentID, &hw.Title, &hw.Description, &hw.DueDate,
		&hw.IsCompleted, &completedAt, &hw.TeacherFeedback, &hw.CreatedAt, &hw.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get homework: %w", err)
	}
	if completedAt.Valid {
		t := completedAt.Time
		hw.CompletedAt = &t
	}
	return hw, nil
}

func (r *teachingRepository) CompleteHomework(id int64, studentID int, completedAt time.Time) error {
	const q = `
		UPDATE homework
		SET is_completed=TRUE, completed_at=$1, updated_at=NOW()
		WHERE id=$2 AND student_id=$3
	`
	if _, err := r.DB.Exec(q, completedAt, id, studentID); err != nil {
		return fmt.Errorf("complete homework: %w", err)
	}
	return nil
}

func (r *teachingRepository) SetHomeworkFeedback(id int64, teacherID int, feedback string) error {
	const q = `
		UPDATE homework
		SET teacher_feedback=$1, updated_at=NOW()
		WHERE id=$2 AND teacher_id=$3
	`
	if _, err := r.DB.Exec(q, feedback, id, teacherID); err != nil {
		return fmt.Errorf("set homework feedback: %w", err)
	}
	return nil
}

func (r *teachingRepository) listHomework(q string, id int) ([]*models.Homework, error) {
	rows, err := r.DB.Query(q, id)
	if err != nil {
		return nil, fmt.Errorf("list homework: %w", err)
	}
	defer rows.Close()

	var res []*models.Homework
	for rows.Next() {
		hw := &models.Homework{}
		var completedAt sql.NullTime
		if err := rows.Scan(
			&hw.ID, &hw.TeacherID, &hw.StudentID, &hw.Title, &hw.Description, &hw.DueDate,
			&hw.IsCompleted, &completedAt, &hw.TeacherFeedback, &hw.CreatedAt, &hw.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan homework: %w", err)
		}
		if completedAt.Valid {
			t := completedAt.Time
			hw.CompletedAt = &t
		}
		res = append(res, hw)
	}
	return res, rows.Err()
}

func (r *teachingRepository) ListHomeworkForStudent(studentID int) ([]*models.Homework, error) {
	const q = `
		SELECT id, teacher_id, student_id, title, description, due_date,
			is_completed, completed_at, teacher_feedback, created_at, updated_at
		FROM homework WHERE student_id = $1 ORDER BY created_at DESC
	`
	return r.listHomework(q, studentID)
}

func (r *teachingRepository) ListHomeworkForTeacher(teacherID int) ([]*models.Homework, error) {
	const q = `
		SELECT id, teacher_id, student_id, title, description, due_date,
			is_completed, completed_at, teacher_feedback, created_at, updated_at
		FROM homework WHERE teacher_id = $1 ORDER BY created_at DESC
	`
	return r.listHomework(q, teacherID)
}

// ===== передача категорий =====

func (r *teachingRepository) CreateShareRequest(req *models.CategoryShareRequest) error {
	const q = `
		INSERT INTO category_share_requests (teacher_id, student_id, category_id, status, message, response, created_at, updated_at)
		VALUES ($1, $2, $3, 'pending', $4, '', NOW(), NOW())
		RETURNING id, created_at, updated_at
	`
	if err := r.DB.QueryRow(q, req.TeacherID, req.StudentID, req.CategoryID, req.Message).
		Scan(&req.ID, &req.CreatedAt, &req.UpdatedAt); err != nil {
		return fmt.Errorf("create share request: %w", err)
	}
	req.Status = models.RequestPending
	return nil
}

func (r *teachingRepository) GetShareRequest(id int64) (*models.CategoryShareRequest, error) {
	const q = `
		SELECT id, teacher_id, student_id, category_id, status, message, response, created_at, updated_at
		FROM category_share_requests WHERE id = $1
	`
	req := &models.CategoryShareRequest{}
	err := r.DB.QueryRow(q, id).Scan(
		&req.ID, &req.TeacherID, &req.StudentID, &req.CategoryID,
		&req.Status, &req.Message, &req.Response, &req.CreatedAt, &req.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get share request: %w", err)
	}
	return req, nil
}

func (r *teachingRepository) UpdateShareStatus(id int64, status, response string) error {
	const q = `
		UPDATE category_share_requests
		SET status=$1, response=$2, updated_at=NOW()
		WHERE id=$3
	`
	if _, err := r.DB.Exec(q, status, response, id); err != nil {
		return fmt.Errorf("update share request: %w", err)
	}
	return nil
}

func (r *teachingRepository) ListShareRequestsForStudent(studentID int) ([]*models.CategoryShareRequest, error) {
	const q = `
		SELECT id, teacher_id, student_id, category_id, status, message, response, created_at, updated_at
		FROM category_share_requests WHERE student_id = $1 ORDER BY created_at DESC
	`
	rows, err := r.DB.Query(q, studentID)
	if err != nil {
		return nil, fmt.Errorf("list share requests: %w", err)
	}
	defer rows.Close()

	var res []*models.CategoryShareRequest
	for rows.Next() {
		req := &models.CategoryShareRequest{}
		if err := rows.Scan(
			&req.ID, &req.TeacherID, &req.StudentID, &req.CategoryID,
			&req.Status, &req.Message, &req.Response, &req.CreatedAt, &req.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan share request: %w", err)
		}
		res = append(res, req)
	}
	return res, rows.Err()
}
