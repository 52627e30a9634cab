package services

import (
	"gorm.io/gorm"

	"github.com/knowway/knowway-backend/models"
)

type SearchLogList struct {
	Logs       []models.SearchLog `json:"logs"`
	Pagination Pagination         `json:"pagination"`
}

type SearchLogService struct {
	db    *gorm.DB
	roles *RoleResolver
}

func NewSearchLogService(db *gorm.DB, roles *RoleResolver) *SearchLogService {
	return &SearchLogService{db: db, roles: roles}
}

func (s *SearchLogService) List(requesterID uint, page, limit int) (*SearchLogList, error) {
	if !s.roles.IsSuperAdmin(requesterID) {
		return nil, NewForbidden("Access denied. Super admin only.")
	}
	p := NewPage(page, limit, 20, 100)

	var total int64
	if err := s.db.Model(&models.SearchLog{}).Count(&total).Error; err != nil {
		return nil, NewInternal(err)
	}
	logs := make([]models.SearchLog, 0)
	if err := s.db.Order("created_at DESC, id DESC").
		Limit(p.Limit).Offset(p.Offset()).Find(&logs).Error; err != nil {
		return nil, NewInternal(err)
	}
	return &SearchLogList{Logs: logs, Pagination: p.Paginate(total)}, nil
}
