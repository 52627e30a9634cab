package services

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/knowway/knowway-backend/models"
)

type QuestionInput struct {
	Question     string   `json:"question"`
	Options      []string `json:"options"`
	CorrectIndex *int     `json:"correctIndex"`
}

type SaveQuizInput struct {
	Title        string          `json:"title"`
	PassingScore *int            `json:"passingScore"`
	Questions    []QuestionInput `json:"questions"`
}

// Answers maps question id to the chosen option index. A nil index means
// the question was skipped.
type Answers map[string]*int

type SubmitResult struct {
	Score        int    `json:"score"`
	Passed       bool   `json:"passed"`
	PassingScore int    `json:"passingScore"`
	Correct      int    `json:"correct"`
	Total        int    `json:"total"`
	Message      string `json:"message"`
}

type QuizService struct {
	db    *gorm.DB
	roles *RoleResolver
}

func NewQuizService(db *gorm.DB, roles *RoleResolver) *QuizService {
	return &QuizService{db: db, roles: roles}
}

// GetQuiz returns nil, nil when the course has no quiz.
func (s *QuizService) GetQuiz(courseID uint) (*models.Quiz, error) {
	var quizzes []models.Quiz
	err := s.db.Preload("Questions", func(db *gorm.DB) *gorm.DB {
		return db.Order("order_index ASC, id ASC")
	}).Where("course_id = ?", courseID).Limit(1).Find(&quizzes).Error
	if err != nil {
		return nil, NewInternal(err)
	}
	if len(quizzes) == 0 {
		return nil, nil
	}
	if quizzes[0].Questions == nil {
		quizzes[0].Questions = []models.QuizQuestion{}
	}
	return &quizzes[0], nil
}

// SaveQuiz creates or replaces the course quiz and all of its questions.
func (s *QuizService) SaveQuiz(requesterID, courseID uint, in SaveQuizInput) (uint, error) {
	var course models.Course
	if err := s.db.Select("id", "user_id").First(&course, courseID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, NewNotFound("Course not found")
		}
		return 0, NewInternal(err)
	}
	if course.UserID != requesterID && !s.roles.IsSuperAdmin(requesterID) {
		return 0, NewForbidden("Not authorized")
	}

	title := strings.TrimSpace(in.Title)
	if title == "" {
		title = models.DefaultQuizTitle
	}
	passing := models.DefaultPassingScore
	if in.PassingScore != nil && *in.PassingScore != 0 {
		passing = *in.PassingScore
	}
	if passing < 1 || passing > 100 {
		return 0, NewValidation("Passing score must be between 1 and 100")
	}
	questions, err := buildQuestions(in.Questions)
	if err != nil {
		return 0, err
	}

	var quizID uint
	err = s.db.Transaction(func(tx *gorm.DB) error {
		var existing []models.Quiz
		if err := tx.Where("course_id = ?", courseID).Limit(1).Find(&existing).Error; err != nil {
			return err
		}
		if len(existing) > 0 {
			quizID = existing[0].ID
			if err := tx.Model(&models.Quiz{}).Where("id = ?", quizID).
				Updates(map[string]interface{}{"title": title, "passing_score": passing}).Error; err != nil {
				return err
			}
			if err := tx.Where("quiz_id = ?", quizID).Delete(&models.QuizQuestion{}).Error; err != nil {
				return err
			}
		} else {
			quiz := models.Quiz{CourseID: courseID, Title: title, PassingScore: passing}
			if err := tx.Omit("Questions").Create(&quiz).Error; err != nil {
				if errors.Is(err, gorm.ErrDuplicatedKey) {
					return NewConflict("Quiz was created concurrently, please retry")
				}
				return err
			}
			quizID = quiz.ID
		}
		if len(questions) == 0 {
			return nil
		}
		for i := range questions {
			questions[i].QuizID = quizID
		}
		return tx.Create(&questions).Error
	})
	if err != nil {
		return 0, wrapTx(err)
	}
	return quizID, nil
}

func buildQuestions(in []QuestionInput) ([]models.QuizQuestion, error) {
	out := make([]models.QuizQuestion, 0, len(in))
	for i, q := range in {
		text := strings.TrimSpace(q.Question)
		if text == "" {
			return nil, NewValidation(fmt.Sprintf("Question %d needs text", i+1))
		}
		options := make([]string, 0, len(q.Options))
		for _, opt := range q.Options {
			options = append(options, strings.TrimSpace(opt))
		}
		if len(options) < 2 {
			return nil, NewValidation(fmt.Sprintf("Question %d needs at least 2 options", i+1))
		}
		if q.CorrectIndex == nil || *q.CorrectIndex < 0 || *q.CorrectIndex >= len(options) {
			return nil, NewValidation(fmt.Sprintf("Question %d has an invalid correct answer", i+1))
		}
		out = append(out, models.QuizQuestion{
			Question:     text,
			Options:      datatypes.NewJSONSlice(options),
			CorrectIndex: *q.CorrectIndex,
			OrderIndex:   i,
		})
	}
	return out, nil
}

// SubmitQuiz scores an attempt. A pass is sticky: a later failed attempt is
// recorded but never clears quiz_passed.
func (s *QuizService) SubmitQuiz(quizID, userID uint, answers Answers) (*SubmitResult, error) {
	var result *SubmitResult
	err := s.db.Transaction(func(tx *gorm.DB) error {
		var quiz models.Quiz
		if err := tx.First(&quiz, quizID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return NewNotFound("Quiz not found")
			}
			return err
		}
		if _, err := findEnrollment(tx, userID, quiz.CourseID); err != nil {
			if IsKind(err, KindNotFound) {
				return NewForbidden("Not enrolled in this course")
			}
			return err
		}

		var questions []models.QuizQuestion
		if err := tx.Select("id", "correct_index").Where("quiz_id = ?", quizID).Find(&questions).Error; err != nil {
			return err
		}
		if len(questions) == 0 {
			return NewValidation("Quiz has no questions")
		}

		correct := 0
		for _, q := range questions {
			if picked, ok := answers[strconv.FormatUint(uint64(q.ID), 10)]; ok && picked != nil && *picked == q.CorrectIndex {
				correct++
			}
		}
		score := percent(correct, len(questions))
		passed := score >= quiz.PassingScore

		raw, err := json.Marshal(answers)
		if err != nil {
			return err
		}
		attempt := models.QuizAttempt{
			UserID:   userID,
			QuizID:   quizID,
			CourseID: quiz.CourseID,
			Score:    score,
			Passed:   passed,
			Answers:  datatypes.JSON(raw),
		}
		if err := tx.Create(&attempt).Error; err != nil {
			return err
		}

		if passed {
			if err := tx.Model(&models.Enrollment{}).
				Where("user_id = ? AND course_id = ?", userID, quiz.CourseID).
				Updates(map[string]interface{}{"quiz_passed": true, "quiz_score": score}).Error; err != nil {
				return err
			}
		}

		msg := "Congratulations! You passed!"
		if !passed {
			msg = fmt.Sprintf("You need %d%% to pass. Try again!", quiz.PassingScore)
		}
		result = &SubmitResult{
			Score:        score,
			Passed:       passed,
			PassingScore: quiz.PassingScore,
			Correct:      correct,
			Total:        len(questions),
			Message:      msg,
		}
		return nil
	})
	if err != nil {
		return nil, wrapTx(err)
	}
	return result, nil
}

func (s *QuizService) Attempts(userID, courseID uint) ([]models.QuizAttempt, error) {
	attempts := make([]models.QuizAttempt, 0)
	if err := s.db.Where("user_id = ? AND course_id = ?", userID, courseID).
		Order("completed_at DESC, id DESC").Find(&attempts).Error; err != nil {
		return nil, NewInternal(err)
	}
	return attempts, nil
}
