package models

import (
	"time"
)

// ScrapedData rows arrive from the scraping workflow webhook.
type ScrapedData struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Title     string    `gorm:"size:255;not null" json:"title"`
	Content   string    `gorm:"type:text" json:"content"`
	SourceURL string    `gorm:"type:text" json:"source_url"`
	Category  string    `gorm:"size:100;index;default:'general'" json:"category"`
	UserID    *uint     `gorm:"index" json:"user_id"`
	ScrapedAt time.Time `gorm:"autoCreateTime;index" json:"scraped_at"`
}

func (ScrapedData) TableName() string { return "scraped_data" }

// SearchLog is written by the external search workflow; read-only here.
type SearchLog struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	Query        string    `gorm:"type:text;not null" json:"query"`
	ResultsCount int       `gorm:"not null;default:0" json:"results_count"`
	UserID       *uint     `gorm:"index" json:"user_id"`
	CreatedAt    time.Time `gorm:"autoCreateTime;index" json:"created_at"`
}
