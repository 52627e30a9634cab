package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/knowway/knowway-backend/services"
	"github.com/knowway/knowway-backend/utils"
)

type QuizController struct {
	quizzes *services.QuizService
	log     *utils.Logger
}

func NewQuizController(quizzes *services.QuizService, log *utils.Logger) *QuizController {
	return &QuizController{quizzes: quizzes, log: log}
}

// GetByCourse returns {quiz: null} when the course has none.
func (qc *QuizController) GetByCourse(c *gin.Context) {
	courseID, ok := idParam(c, "courseId")
	if !ok {
		return
	}
	quiz, err := qc.quizzes.GetQuiz(courseID)
	if err != nil {
		respondError(c, qc.log, err)
		return
	}
	respondSuccess(c, http.StatusOK, gin.H{"quiz": quiz})
}

type submitQuizRequest struct {
	Answers services.Answers `json:"answers"`
}

func (qc *QuizController) Submit(c *gin.Context) {
	quizID, ok := idParam(c, "quizId")
	if !ok {
		return
	}
	var req submitQuizRequest
	if !bindJSON(c, &req) {
		return
	}
	result, err := qc.quizzes.SubmitQuiz(quizID, currentUser(c), req.Answers)
	if err != nil {
		respondError(c, qc.log, err)
		return
	}
	respondSuccess(c, http.StatusOK, gin.H{
		"score":        result.Score,
		"passed":       result.Passed,
		"passingScore": result.PassingScore,
		"correct":      result.Correct,
		"total":        result.Total,
		"message":      result.Message,
	})
}

func (qc *QuizController) Attempts(c *gin.Context) {
	courseID, ok := idParam(c, "courseId")
	if !ok {
		return
	}
	attempts, err := qc.quizzes.Attempts(currentUser(c), courseID)
	if err != nil {
		respondError(c, qc.log, err)
		return
	}
	respondSuccess(c, http.StatusOK, gin.H{"attempts": attempts})
}

// Save serves both POST and PUT; the quiz is replaced wholesale.
func (qc *QuizController) Save(c *gin.Context) {
	courseID, ok := idParam(c, "courseId")
	if !ok {
		return
	}
	var input services.SaveQuizInput
	if !bindJSON(c, &input) {
		return
	}
	quizID, err := qc.quizzes.SaveQuiz(currentUser(c), courseID, input)
	if err != nil {
		respondError(c, qc.log, err)
		return
	}
	respondSuccess(c, http.StatusOK, gin.H{"message": "Quiz saved successfully", "quizId": quizID})
}
