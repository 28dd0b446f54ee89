package services

import (
	"errors"
	"log"
	"strings"
	"time"

	"wordnest/internal/authz"
	"wordnest/internal/models"
	"wordnest/internal/repositories"
)

var (
	ErrUserNotFound     = errors.New("user not found")
	ErrNotTeacher       = errors.New("user is not a teacher")
	ErrNotStudent       = errors.New("user is not a student")
	ErrRequestNotFound  = errors.New("request not found")
	ErrRequestClosed    = errors.New("request already closed")
	ErrRequestExists    = errors.New("open request already exists")
	ErrNoActiveLink     = errors.New("no active teacher-student link")
	ErrHomeworkNotFound = errors.New("homework not found")
	ErrForeignRequest   = errors.New("request belongs to another user")
)

// HomeworkInput — поля нового домашнего задания.
type HomeworkInput struct {
	StudentID   int       `json:"student_id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	DueDate     time.Time `json:"due_date"`
}

// TeachingService — наставничество: запросы учитель-ученик, связи,
// домашние задания и передача категорий слов.
type TeachingService struct {
	teaching   repositories.TeachingRepository
	users      repositories.UserRepository
	categories repositories.CategoryRepository
	words      repositories.WordRepository
	email      EmailService
	telegram   *TelegramService
	now        func() time.Time
}

func NewTeachingService(
	teaching repositories.TeachingRepository,
	users repositories.UserRepository,
	categories repositories.CategoryRepository,
	words repositories.WordRepository,
	email EmailService,
	telegram *TelegramService,
) *TeachingService {
	return &TeachingService{
		teaching:   teaching,
		users:      users,
		categories: categories,
		words:      words,
		email:      email,
		telegram:   telegram,
		now:        time.Now,
	}
}

func (s *TeachingService) pair(teacherID, studentID int) (*models.User, *models.User, error) {
	teacher, err := s.users.GetByID(teacherID)
	if err != nil {
		return nil, nil, err
	}
	if teacher == nil {
		return nil, nil, ErrUserNotFound
	}
	if !authz.IsTeacher(teacher.RoleID) {
		return nil, nil, ErrNotTeacher
	}
	student, err := s.users.GetByID(studentID)
	if err != nil {
		return nil, nil, err
	}
	if student == nil {
		return nil, nil, ErrUserNotFound
	}
	if authz.IsTeacher(student.RoleID) {
		return nil, nil, ErrNotStudent
	}
	return teacher, student, nil
}

// RequestTutoring — открывает запрос на обучение. Инициатором может
// быть любая сторона; открытый запрос между той же парой — только один.
func (s *TeachingService) RequestTutoring(initiatorID, teacherID, studentID int, message string) (*models.TutoringRequest, error) {
	if _, _, err := s.pair(teacherID, studentID); err != nil {
		return nil, err
	}
	initiatedBy := models.InitiatorStudent
	switch initiatorID {
	case teacherID:
		initiatedBy = models.InitiatorTeacher
	case studentID:
	default:
		return nil, ErrForeignRequest
	}

	open, err := s.teaching.HasOpenRequest(teacherID, studentID)
	if err != nil {
		return nil, err
	}
	if open {
		return nil, ErrRequestExists
	}
	linked, err := s.teaching.HasActiveLink(teacherID, studentID)
	if err != nil {
		return nil, err
	}
	if linked {
		return nil, ErrRequestExists
	}

	req := &models.TutoringRequest{
		TeacherID:   teacherID,
		StudentID:   studentID,
		InitiatedBy: initiatedBy,
		Message:     strings.TrimSpace(message),
	}
	if err := s.teaching.CreateRequest(req); err != nil {
		return nil, err
	}
	log.Printf("[teaching][request] id=%d teacher=%d student=%d by=%s", req.ID, teacherID, studentID, initiatedBy)
	return req, nil
}

// RespondTutoring — ответ получателя запроса. Принятие создаёт
// активную связь учитель-ученик.
func (s *TeachingService) RespondTutoring(userID int, requestID int64, accept bool, response string) error {
	req, err := s.teaching.GetRequest(requestID)
	if err != nil {
		return err
	}
	if req == nil {
		return ErrRequestNotFound
	}
	if req.Status != models.RequestPending {
		return ErrRequestClosed
	}
	// отвечает противоположная инициатору сторона
	recipient := req.TeacherID
	if req.InitiatedBy == models.InitiatorTeacher {
		recipient = req.StudentID
	}
	if userID != recipient {
		return ErrForeignRequest
	}

	status := models.RequestRejected
	if accept {
		status = models.RequestAccepted
	}
	if err := s.teaching.UpdateRequestStatus(requestID, status, strings.TrimSpace(response)); err != nil {
		return err
	}
	if accept {
		if err := s.teaching.CreateLink(req.TeacherID, req.StudentID); err != nil {
			return err
		}
	}
	log.Printf("[teaching][respond] id=%d status=%s", requestID, status)
	return nil
}

// CancelTutoring — инициатор снимает свой открытый запрос.
func (s *TeachingService) CancelTutoring(userID int, requestID int64) error {
	req, err := s.teaching.GetRequest(requestID)
	if err != nil {
		return err
	}
	if req == nil {
		return ErrRequestNotFound
	}
	if req.Status != models.RequestPending {
		return ErrRequestClosed
	}
	initiator := req.StudentID
	if req.InitiatedBy == models.InitiatorTeacher {
		initiator = req.TeacherID
	}
	if userID != initiator {
		return ErrForeignRequest
	}
	return s.teaching.UpdateRequestStatus(requestID, models.RequestCancelled, "")
}

func (s *TeachingService) ListRequests(userID, roleID int) ([]*models.TutoringRequest, error) {
	if authz.IsTeacher(roleID) {
		return s.teaching.ListRequestsForTeacher(userID)
	}
	return s.teaching.ListRequestsForStudent(userID)
}

func (s *TeachingService) EndTutoring(teacherID, studentID int) error {
	linked, err := s.teaching.HasActiveLink(teacherID, studentID)
	if err != nil {
		return err
	}
	if !linked {
		return ErrNoActiveLink
	}
	return s.teaching.DeactivateLink(teacherID, studentID)
}

func (s *TeachingService) ListStudents(teacherID int) ([]*models.TeacherStudentLink, error) {
	return s.teaching.ListStudents(teacherID)
}

func (s *TeachingService) ListTeachers(studentID int) ([]*models.TeacherStudentLink, error) {
	return s.teaching.ListTeachers(studentID)
}

// AssignHomework — задание ученику с активной связью. Уведомления —
// письмо и, если привязан чат, телеграм; их сбой задание не отменяет.
func (s *TeachingService) AssignHomework(teacherID int, input HomeworkInput) (*models.Homework, error) {
	var errs ValidationErrors
	if strings.TrimSpace(input.Title) == "" {
		errs = append(errs, FieldError{Field: "title", Message: "введите тему задания"})
	}
	if input.DueDate.Before(s.now()) {
		errs = append(errs, FieldError{Field: "due_date", Message: "срок сдачи уже прошёл"})
	}
	if len(errs) > 0 {
		return nil, errs
	}

	teacher, student, err := s.pair(teacherID, input.StudentID)
	if err != nil {
		return nil, err
	}
	linked, err := s.teaching.HasActiveLink(teacherID, input.StudentID)
	if err != nil {
		return nil, err
	}
	if !linked {
		return nil, ErrNoActiveLink
	}

	hw := &models.Homework{
		TeacherID:   teacherID,
		StudentID:   input.StudentID,
		Title:       strings.TrimSpace(input.Title),
		Description: strings.TrimSpace(input.Description),
		DueDate:     input.DueDate,
	}
	if err := s.teaching.CreateHomework(hw); err != nil {
		return nil, err
	}

	if err := s.email.SendHomeworkEmail(student.Email, hw.Title, hw.DueDate); err != nil {
		log.Printf("[teaching][homework] email failed studentID=%d: %v", student.ID, err)
	}
	if student.NotifyTelegram && student.TelegramChatID != 0 {
		if err := s.telegram.NotifyHomework(
			student.TelegramChatID, teacher.FirstName, hw.Title, hw.DueDate.Format("02.01.2006"),
		); err != nil {
			log.Printf("[teaching][homework] telegram failed studentID=%d: %v", student.ID, err)
		}
	}

	log.Printf("[teaching][homework] id=%d teacher=%d student=%d", hw.ID, teacherID, input.StudentID)
	return hw, nil
}

func (s *TeachingService) CompleteHomework(studentID int, homeworkID int64) error {
	hw, err := s.teaching.GetHomework(homeworkID)
	if err != nil {
		return err
	}
	if hw == nil || hw.StudentID != studentID {
		return ErrHomeworkNotFound
	}
	return s.teaching.CompleteHomework(homeworkID, studentID, s.now())
}

func (s *TeachingService) ReviewHomework(teacherID int, homeworkID int64, feedback string) error {
	hw, err := s.teaching.GetHomework(homeworkID)
	if err != nil {
		return err
	}
	if hw == nil || hw.TeacherID != teacherID {
		return ErrHomeworkNotFound
	}
	return s.teaching.SetHomeworkFeedback(homeworkID, teacherID, strings.TrimSpace(feedback))
}

func (s *TeachingService) ListHomework(userID, roleID int) ([]*models.Homework, error) {
	if authz.IsTeacher(roleID) {
		return s.teaching.ListHomeworkForTeacher(userID)
	}
	return s.teaching.ListHomeworkForStudent(userID)
}

// ShareCategory — учитель предлагает ученику свою категорию слов.
func (s *TeachingService) ShareCategory(teacherID, studentID int, categoryID int64, message string) (*models.CategoryShareRequest, error) {
	if _, _, err := s.pair(teacherID, studentID); err != nil {
		return nil, err
	}
	linked, err := s.teaching.HasActiveLink(teacherID, studentID)
	if err != nil {
		return nil, err
	}
	if !linked {
		return nil, ErrNoActiveLink
	}
	cat, err := s.categories.GetByID(teacherID, categoryID)
	if err != nil {
		return nil, err
	}
	if cat == nil {
		return nil, ErrCategoryNotFound
	}

	req := &models.CategoryShareRequest{
		TeacherID:  teacherID,
		StudentID:  studentID,
		CategoryID: categoryID,
		Message:    strings.TrimSpace(message),
	}
	if err := s.teaching.CreateShareRequest(req); err != nil {
		return nil, err
	}
	return req, nil
}

// RespondShare — ответ ученика. Принятие копирует слова категории в
// словарь ученика: создаётся (или переиспользуется) одноимённая
// категория, уже имеющиеся english_word пропускаются.
func (s *TeachingService) RespondShare(studentID int, requestID int64, accept bool, response string) (int, error) {
	req, err := s.teaching.GetShareRequest(requestID)
	if err != nil {
		return 0, err
	}
	if req == nil {
		return 0, ErrRequestNotFound
	}
	if req.StudentID != studentID {
		return 0, ErrForeignRequest
	}
	if req.Status != models.RequestPending {
		return 0, ErrRequestClosed
	}

	if !accept {
		return 0, s.teaching.UpdateShareStatus(requestID, models.RequestRejected, strings.TrimSpace(response))
	}

	srcCat, err := s.categories.GetByID(req.TeacherID, req.CategoryID)
	if err != nil {
		return 0, err
	}
	if srcCat == nil {
		return 0, ErrCategoryNotFound
	}

	dstCat, err := s.categories.GetByName(studentID, srcCat.Name)
	if err != nil {
		return 0, err
	}
	if dstCat == nil {
		dstCat = &models.Category{UserID: studentID, Name: srcCat.Name}
		if err := s.categories.Create(dstCat); err != nil {
			return 0, err
		}
	}

	copied, err := s.words.CopyCategory(req.CategoryID, req.TeacherID, studentID, dstCat.ID)
	if err != nil {
		return 0, err
	}
	if err := s.teaching.UpdateShareStatus(requestID, models.RequestAccepted, strings.TrimSpace(response)); err != nil {
		return 0, err
	}
	log.Printf("[teaching][share] id=%d copied=%d student=%d", requestID, copied, studentID)
	return copied, nil
}

func (s *TeachingService) ListShareRequests(studentID int) ([]*models.CategoryShareRequest, error) {
	return s.teaching.ListShareRequestsForStudent(studentID)
}
