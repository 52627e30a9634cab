package services

import (
	"gorm.io/gorm"

	"github.com/knowway/knowway-backend/models"
)

// BootstrapAdminID is the account that always resolves to super_admin,
// whatever its stored role says.
const BootstrapAdminID uint = 1

// RoleResolver computes effective roles. Every privilege check goes through it.
type RoleResolver struct {
	db *gorm.DB
}

func NewRoleResolver(db *gorm.DB) *RoleResolver {
	return &RoleResolver{db: db}
}

func (r *RoleResolver) Resolve(userID uint) models.UserRole {
	return ResolveEffectiveRole(r.db, userID)
}

func (r *RoleResolver) IsSuperAdmin(userID uint) bool {
	return r.Resolve(userID) == models.RoleSuperAdmin
}

// ResolveEffectiveRole falls back to learner when the user cannot be read.
func ResolveEffectiveRole(db *gorm.DB, userID uint) models.UserRole {
	var user models.User
	if err := db.Select("id", "role").First(&user, userID).Error; err != nil {
		user = models.User{ID: userID}
	}
	return effectiveRole(&user)
}

// effectiveRole holds the only bootstrap comparison.
func effectiveRole(u *models.User) models.UserRole {
	if u.ID == BootstrapAdminID {
		return models.RoleSuperAdmin
	}
	if !u.Role.Valid() {
		return models.RoleLearner
	}
	return u.Role
}
