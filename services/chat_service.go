package services

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"gorm.io/gorm"

	"github.com/knowway/knowway-backend/models"
	"github.com/knowway/knowway-backend/utils"
)

const chatHistoryLimit = 100

type ChatMessageView struct {
	ID        uint      `json:"id"`
	CourseID  uint      `json:"course_id"`
	Message   string    `json:"message"`
	CreatedAt time.Time `json:"created_at"`
	UserID    uint      `json:"user_id"`
	Username  string    `json:"username"`
	IsOwn     bool      `json:"isOwn"`
}

// ChatPublisher pushes freshly stored messages to live subscribers.
type ChatPublisher interface {
	PublishChat(ctx context.Context, msg ChatMessageView) error
}

type ChatService struct {
	db        *gorm.DB
	publisher ChatPublisher
	log       *utils.Logger
}

func NewChatService(db *gorm.DB, publisher ChatPublisher, log *utils.Logger) *ChatService {
	if log == nil {
		log = utils.NopLogger()
	}
	return &ChatService{db: db, publisher: publisher, log: log.With("service", "ChatService")}
}

// CheckAccess is the enrollment gate shared by the REST and websocket paths.
func (s *ChatService) CheckAccess(courseID, userID uint) error {
	if _, err := findEnrollment(s.db, userID, courseID); err != nil {
		if IsKind(err, KindNotFound) {
			return NewForbidden("You must be enrolled to access chat")
		}
		return err
	}
	return nil
}

// GetMessages returns the latest messages, oldest first.
func (s *ChatService) GetMessages(courseID, userID uint) ([]ChatMessageView, error) {
	if err := s.CheckAccess(courseID, userID); err != nil {
		return nil, err
	}

	rows := make([]ChatMessageView, 0)
	err := s.db.Table("course_messages").
		Select("course_messages.id, course_messages.course_id, course_messages.message, course_messages.created_at, "+
			"course_messages.user_id, COALESCE(users.username, 'Unknown') AS username").
		Joins("LEFT JOIN users ON users.id = course_messages.user_id").
		Where("course_messages.course_id = ?", courseID).
		Order("course_messages.created_at DESC, course_messages.id DESC").
		Limit(chatHistoryLimit).
		Scan(&rows).Error
	if err != nil {
		return nil, NewInternal(err)
	}

	for i, j := 0, len(rows)-1; i < j; i, j = i+1, j-1 {
		rows[i], rows[j] = rows[j], rows[i]
	}
	for i := range rows {
		rows[i].IsOwn = rows[i].UserID == userID
	}
	return rows, nil
}

func (s *ChatService) SendMessage(ctx context.Context, courseID, userID uint, text string) (*ChatMessageView, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, NewValidation("Message is required")
	}
	if utf8.RuneCountInString(text) > models.MaxChatMessageLength {
		return nil, NewValidation(fmt.Sprintf("Message too long (max %d characters)", models.MaxChatMessageLength))
	}
	if err := s.CheckAccess(courseID, userID); err != nil {
		return nil, err
	}

	msg := models.ChatMessage{CourseID: courseID, UserID: userID, Message: text}
	if err := s.db.Create(&msg).Error; err != nil {
		return nil, NewInternal(err)
	}

	username := "Unknown"
	var user models.User
	if err := s.db.Select("id", "username").First(&user, userID).Error; err == nil {
		username = user.Username
	}

	view := &ChatMessageView{
		ID:        msg.ID,
		CourseID:  courseID,
		Message:   msg.Message,
		CreatedAt: msg.CreatedAt,
		UserID:    userID,
		Username:  username,
		IsOwn:     true,
	}

	if s.publisher != nil {
		// live delivery is best effort; the message is already stored
		if err := s.publisher.PublishChat(ctx, *view); err != nil {
			s.log.Warn("publish chat message failed", "course_id", courseID, "message_id", msg.ID, "error", err)
		}
	}
	return view, nil
}
