package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"locktheday/internal/models"
	"locktheday/internal/repositories"
	"locktheday/internal/telemetry"
)

// AdminHandler manages the admin and superadmin surfaces. Route-level role
// middleware is the authoritative gate; the superadmin-only handlers still
// re-check nothing here because the middleware already did.
type AdminHandler struct {
	profileRepo repositories.ProfileRepository
	capsuleRepo repositories.CapsuleRepository
	roleRepo    repositories.RoleRepository
	audit       *telemetry.AuditEmitter
}

// NewAdminHandler builds an AdminHandler.
func NewAdminHandler(
	profileRepo repositories.ProfileRepository,
	capsuleRepo repositories.CapsuleRepository,
	roleRepo repositories.RoleRepository,
	audit *telemetry.AuditEmitter,
) *AdminHandler {
	return &AdminHandler{
		profileRepo: profileRepo,
		capsuleRepo: capsuleRepo,
		roleRepo:    roleRepo,
		audit:       audit,
	}
}

// Stats returns account and capsule counts.
func (h *AdminHandler) Stats(c *gin.Context) {
	users, err := h.profileRepo.Count(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load stats"})
		return
	}
	total, public, err := h.capsuleRepo.Count(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load stats"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"users":            users,
		"capsules":         total,
		"public_capsules":  public,
		"private_capsules": total - public,
	})
}

// ListUsers returns every account with its role.
func (h *AdminHandler) ListUsers(c *gin.Context) {
	users, err := h.roleRepo.ListUsersWithRoles(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load users"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"users": users})
}

// DeleteCapsule removes a capsule as a moderation action.
func (h *AdminHandler) DeleteCapsule(c *gin.Context) {
	capsuleID, err := strconv.Atoi(c.Param("capsule_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid capsule id"})
		return
	}

	if err := h.capsuleRepo.Delete(c.Request.Context(), capsuleID); err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, repositories.ErrCapsuleNotFound) {
			status = http.StatusNotFound
		}
		c.JSON(status, gin.H{"error": "capsule not found"})
		return
	}

	h.audit.Emit(c.Request.Context(), "WARN",
		fmt.Sprintf("capsule %d removed by moderation", capsuleID),
		requestIDFromContext(c), actorIDFromContext(c))
	c.Status(http.StatusNoContent)
}

// UpdateRole sets another user's role. Superadmin only (enforced by
// middleware); every mutation lands in the append-only role_changes log.
func (h *AdminHandler) UpdateRole(c *gin.Context) {
	targetID, err := strconv.Atoi(c.Param("user_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid user id"})
		return
	}

	var req struct {
		Role string `json:"role" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if !models.ValidRole(req.Role) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unknown role"})
		return
	}

	if _, err := h.profileRepo.GetByID(c.Request.Context(), targetID); err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, repositories.ErrProfileNotFound) {
			status = http.StatusNotFound
		}
		c.JSON(status, gin.H{"error": "user not found"})
		return
	}

	actorID := c.GetInt("userID")
	change, err := h.roleRepo.SetRole(c.Request.Context(), targetID, req.Role, actorID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not update role"})
		return
	}

	h.audit.Emit(c.Request.Context(), "WARN",
		fmt.Sprintf("role of user %d changed %s -> %s", targetID, change.OldRole, change.NewRole),
		requestIDFromContext(c), actorIDFromContext(c))
	c.JSON(http.StatusOK, change)
}

// DeleteUser removes an account. Superadmin only.
func (h *AdminHandler) DeleteUser(c *gin.Context) {
	targetID, err := strconv.Atoi(c.Param("user_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid user id"})
		return
	}
	if targetID == c.GetInt("userID") {
		c.JSON(http.StatusBadRequest, gin.H{"error": "cannot delete your own account"})
		return
	}

	if err := h.profileRepo.Delete(c.Request.Context(), targetID); err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, repositories.ErrProfileNotFound) {
			status = http.StatusNotFound
		}
		c.JSON(status, gin.H{"error": "user not found"})
		return
	}

	h.audit.Emit(c.Request.Context(), "WARN",
		fmt.Sprintf("account %d deleted", targetID),
		requestIDFromContext(c), actorIDFromContext(c))
	c.Status(http.StatusNoContent)
}

// RoleChanges returns the append-only role mutation log.
func (h *AdminHandler) RoleChanges(c *gin.Context) {
	changes, err := h.roleRepo.ListRoleChanges(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load role changes"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"changes": changes})
}
