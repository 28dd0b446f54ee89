package models

import "time"

// Статусы запросов (наставничество, передача категорий).
const (
	RequestPending   = "pending"
	RequestAccepted  = "accepted"
	RequestRejected  = "rejected"
	RequestCancelled = "cancelled"
)

// Кто инициировал запрос на обучение.
const (
	InitiatorTeacher = "teacher"
	InitiatorStudent = "student"
)

// TutoringRequest — запрос на обучение между учителем и учеником.
// Пара (teacher, student) уникальна среди незакрытых запросов.
type TutoringRequest struct {
	ID          int64     `json:"id"`
	TeacherID   int       `json:"teacher_id"`
	StudentID   int       `json:"student_id"`
	InitiatedBy string    `json:"initiated_by"` // teacher | student
	Status      string    `json:"status"`
	Message     string    `json:"message"`
	Response    string    `json:"response"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// TeacherStudentLink — активная связь учитель-ученик.
type TeacherStudentLink struct {
	ID        int64     `json:"id"`
	TeacherID int       `json:"teacher_id"`
	StudentID int       `json:"student_id"`
	StartedAt time.Time `json:"started_at"`
	IsActive  bool      `json:"is_active"`
	Notes     string    `json:"notes"`
}

// Homework — домашнее задание от учителя ученику.
type Homework struct {
	ID              int64      `json:"id"`
	TeacherID       int        `json:"teacher_id"`
	StudentID       int        `json:"student_id"`
	Title           string     `json:"title"`
	Description     string     `json:"description"`
	DueDate         time.Time  `json:"due_date"`
	IsCompleted     bool       `json:"is_completed"`
	CompletedAt     *time.Time `json:"completed_at,omitempty"`
	TeacherFeedback string     `json:"teacher_feedback"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
}

// CategoryShareRequest — запрос учителя на передачу категории слов ученику.
// При принятии слова категории копируются в словарь ученика.
type CategoryShareRequest struct {
	ID         int64     `json:"id"`
	TeacherID  int       `json:"teacher_id"`
	StudentID  int       `json:"student_id"`
	CategoryID int64     `json:"category_id"`
	Status     string    `json:"status"`
	Message    string    `json:"message"`
	Response   string    `json:"response"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}
