package models

// Category is referenced by courses through CategoryID. Code is a slug.
type Category struct {
	ID   uint   `gorm:"primaryKey" json:"id"`
	Code string `gorm:"size:100;uniqueIndex;not null" json:"code"`
	Name string `gorm:"size:100;not null" json:"name"`
}
