package services

import (
	"context"
	"crypto/subtle"
	"net/url"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/knowway/knowway-backend/models"
	"github.com/knowway/knowway-backend/utils"
)

// WebhookTokenHeader carries the shared secret in both directions.
const WebhookTokenHeader = "X-Webhook-Token"

// maxScrapedTitle is in characters, matching the size:255 column.
const maxScrapedTitle = 255

const (
	defaultScrapeCategory = "general"
	defaultScrapeLimit    = 20
	maxScrapeLimit        = 100
)

type ScrapedInput struct {
	Title     string `json:"title"`
	Content   string `json:"content"`
	SourceURL string `json:"source_url"`
	Category  string `json:"category"`
	UserID    *uint  `json:"userId"`
}

// ScrapedItem adds the username of whoever triggered the scrape.
type ScrapedItem struct {
	models.ScrapedData
	ScrapedBy *string `json:"scraped_by"`
}

type ScrapedList struct {
	Data       []ScrapedItem `json:"data"`
	Total      int64         `json:"total"`
	Pagination Pagination    `json:"pagination"`
}

type ScrapingService struct {
	db      *gorm.DB
	trigger ScrapeTrigger
	secret  string
	log     *utils.Logger
}

func NewScrapingService(db *gorm.DB, trigger ScrapeTrigger, secret string, log *utils.Logger) *ScrapingService {
	if log == nil {
		log = utils.NopLogger()
	}
	return &ScrapingService{db: db, trigger: trigger, secret: secret, log: log.With("service", "ScrapingService")}
}

func (s *ScrapingService) Trigger(ctx context.Context, userID uint, rawURL, category string) error {
	rawURL = strings.TrimSpace(rawURL)
	if rawURL == "" {
		return NewValidation("URL is required")
	}
	u, err := url.ParseRequestURI(rawURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return NewValidation("URL must be a valid http(s) address")
	}
	category = strings.TrimSpace(category)
	if category == "" {
		category = defaultScrapeCategory
	}
	if s.trigger == nil {
		return NewUpstream("Scraping webhook is not configured", errWebhookNotConfigured)
	}

	err = s.trigger.Trigger(ctx, ScrapeJob{
		URL:       rawURL,
		Category:  category,
		UserID:    userID,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	})
	if err != nil {
		s.log.Warn("scraping trigger failed", "user_id", userID, "error", err)
		return NewUpstream("Failed to trigger scraping workflow", err)
	}
	return nil
}

// VerifyWebhook accepts everything when no secret is configured.
func (s *ScrapingService) VerifyWebhook(token string) error {
	if s.secret == "" {
		return nil
	}
	if subtle.ConstantTimeCompare([]byte(token), []byte(s.secret)) != 1 {
		return NewUnauthorized("Invalid webhook token")
	}
	return nil
}

func (s *ScrapingService) Receive(in ScrapedInput) (*models.ScrapedData, error) {
	row := models.ScrapedData{
		Title:     strings.TrimSpace(in.Title),
		Content:   in.Content,
		SourceURL: strings.TrimSpace(in.SourceURL),
		Category:  strings.TrimSpace(in.Category),
		UserID:    in.UserID,
	}
	if row.Title == "" {
		row.Title = "Untitled"
	}
	if r := []rune(row.Title); len(r) > maxScrapedTitle {
		row.Title = string(r[:maxScrapedTitle])
	}
	if row.Category == "" {
		row.Category = defaultScrapeCategory
	}
	if row.UserID != nil && *row.UserID == 0 {
		row.UserID = nil
	}
	if err := s.db.Create(&row).Error; err != nil {
		return nil, NewInternal(err)
	}
	return &row, nil
}

func (s *ScrapingService) List(category string, page, limit int) (*ScrapedList, error) {
	p := NewPage(page, limit, defaultScrapeLimit, maxScrapeLimit)
	base := func() *gorm.DB {
		q := s.db.Table("scraped_data")
		if category != "" {
			q = q.Where("scraped_data.category = ?", category)
		}
		return q
	}

	var total int64
	if err := base().Count(&total).Error; err != nil {
		return nil, NewInternal(err)
	}
	items := make([]ScrapedItem, 0)
	if err := base().
		Select("scraped_data.*, users.username AS scraped_by").
		Joins("LEFT JOIN users ON users.id = scraped_data.user_id").
		Order("scraped_data.scraped_at DESC, scraped_data.id DESC").
		Limit(p.Limit).Offset(p.Offset()).
		Scan(&items).Error; err != nil {
		return nil, NewInternal(err)
	}
	return &ScrapedList{Data: items, Total: total, Pagination: p.Paginate(total)}, nil
}

func (s *ScrapingService) Mine(userID uint) ([]models.ScrapedData, error) {
	rows := make([]models.ScrapedData, 0)
	if err := s.db.Where("user_id = ?", userID).
		Order("scraped_at DESC, id DESC").Find(&rows).Error; err != nil {
		return nil, NewInternal(err)
	}
	return rows, nil
}

// Delete only removes rows the caller owns; anything else looks missing.
func (s *ScrapingService) Delete(userID, id uint) error {
	res := s.db.Where("id = ? AND user_id = ?", id, userID).Delete(&models.ScrapedData{})
	if res.Error != nil {
		return NewInternal(res.Error)
	}
	if res.RowsAffected == 0 {
		return NewNotFound("Not found or unauthorized")
	}
	return nil
}
