package server

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/bookhub-dev/bookhub/internal/models"
)

// UpdateRoleRequest changes a user's role
type UpdateRoleRequest struct {
	Email string `json:"email_id" binding:"required,email"`
	Role  string `json:"role" binding:"required,oneof=admin visitor"`
}

// UserDetail represents user information returned in responses
type UserDetail struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email_id"`
	Role      string    `json:"role"`
	Confirmed bool      `json:"confirmed"`
	CreatedAt time.Time `json:"created_at"`
}

// @Summary List users
// @Description List all users (admin only)
// @Tags users
// @Produce json
// @Security BearerAuth
// @Success 200 {object} map[string]interface{}
// @Router /api/list-users [get]
func (s *Server) listUsers(c *gin.Context) {
	var users []models.User
	if err := s.db.Order("created_at DESC").Find(&users).Error; err != nil {
		s.logger.Error().Err(err).Msg("Failed to list users")
		internalError(c)
		return
	}

	userDetails := make([]UserDetail, len(users))
	for i, user := range users {
		userDetails[i] = UserDetail{
			ID:        user.ID,
			Name:      user.Name,
			Email:     user.Email,
			Role:      user.Role,
			Confirmed: user.Confirmed,
			CreatedAt: user.CreatedAt,
		}
	}

	c.JSON(http.StatusOK, gin.H{"users": userDetails})
}

// @Summary Update a user's role
// @Description Promote or demote a user (admin only)
// @Tags users
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body UpdateRoleRequest true "Role update"
// @Success 200 {object} map[string]interface{}
// @Router /api/update-role [post]
func (s *Server) updateRole(c *gin.Context) {
	var req UpdateRoleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	session, _ := GetSessionData(c)

	// An admin demoting themselves would lock everyone out of user management
	if req.Email == session.Email && req.Role != models.RoleAdmin {
		envelope(c, http.StatusBadRequest, "You cannot change your own role")
		return
	}

	var user models.User
	if err := s.db.Where("email = ?", req.Email).First(&user).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			envelope(c, http.StatusNotFound, "User not found")
			return
		}
		s.logger.Error().Err(err).Msg("Failed to find user")
		internalError(c)
		return
	}

	if err := s.db.Model(&user).Update("role", req.Role).Error; err != nil {
		s.logger.Error().Err(err).Msg("Failed to update role")
		internalError(c)
		return
	}

	s.logger.Info().
		Str("email", req.Email).
		Str("role", req.Role).
		Str("updated_by", session.Email).
		Msg("User role updated")

	envelope(c, http.StatusOK, "Role updated successfully")
}
