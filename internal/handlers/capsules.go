package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"locktheday/internal/models"
	"locktheday/internal/observability"
	"locktheday/internal/repositories"
	"locktheday/internal/storage"
	"locktheday/internal/telemetry"
	"locktheday/internal/ws"
)

// CapsuleHandler manages capsule creation, reading and sharing.
type CapsuleHandler struct {
	capsuleRepo repositories.CapsuleRepository
	shareRepo   repositories.ShareRepository
	friendRepo  repositories.FriendRepository
	profileRepo repositories.ProfileRepository
	uploader    storage.Uploader
	hub         *ws.Hub
	audit       *telemetry.AuditEmitter
	now         func() time.Time
}

// NewCapsuleHandler builds a CapsuleHandler.
func NewCapsuleHandler(
	capsuleRepo repositories.CapsuleRepository,
	shareRepo repositories.ShareRepository,
	friendRepo repositories.FriendRepository,
	profileRepo repositories.ProfileRepository,
	uploader storage.Uploader,
	hub *ws.Hub,
	audit *telemetry.AuditEmitter,
) *CapsuleHandler {
	return &CapsuleHandler{
		capsuleRepo: capsuleRepo,
		shareRepo:   shareRepo,
		friendRepo:  friendRepo,
		profileRepo: profileRepo,
		uploader:    uploader,
		hub:         hub,
		audit:       audit,
		now:         time.Now,
	}
}

// Create handles POST /capsules. The share token is minted here, once, and
// is never reassigned for the life of the capsule.
func (h *CapsuleHandler) Create(c *gin.Context) {
	userID := c.GetInt("userID")

	var req struct {
		Title       string    `json:"title"`
		Content     string    `json:"content"`
		ContentType string    `json:"content_type" binding:"required"`
		UnlockAt    time.Time `json:"unlock_at" binding:"required"`
		IsPrivate   bool      `json:"is_private"`
		FileURL     string    `json:"file_url"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if !models.ValidContentType(req.ContentType) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unknown content type"})
		return
	}
	if !req.UnlockAt.After(h.now()) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unlock date must be in the future"})
		return
	}
	switch req.ContentType {
	case models.ContentTypeText, models.ContentTypeDrawing:
		if strings.TrimSpace(req.Content) == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "content is required"})
			return
		}
	case models.ContentTypeImage:
		if req.FileURL == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "file upload is required for image capsules"})
			return
		}
	}

	capsule, err := h.capsuleRepo.CreateCapsule(c.Request.Context(), models.Capsule{
		OwnerID:     userID,
		Title:       strings.TrimSpace(req.Title),
		Content:     req.Content,
		ContentType: req.ContentType,
		UnlockAt:    req.UnlockAt,
		IsPrivate:   req.IsPrivate,
		ShareToken:  uuid.NewString(),
		FileURL:     req.FileURL,
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not create capsule"})
		return
	}

	observability.IncCapsuleCreated(capsule.ContentType)
	c.JSON(http.StatusCreated, capsule)
}

// Upload handles POST /capsules/upload: stores an image payload and returns
// the public URL to reference from a subsequent create.
func (h *CapsuleHandler) Upload(c *gin.Context) {
	userID := c.GetInt("userID")

	file, header, err := c.Request.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "file is required"})
		return
	}
	defer file.Close()

	key := fmt.Sprintf("%d/%s-%s", userID, uuid.NewString(), header.Filename)
	url, err := h.uploader.Upload(c.Request.Context(), key, file)
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": "upload failed"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{"file_url": url})
}

// ListPublic handles GET /capsules/public. Private capsules are filtered in
// the query; locked ones are redacted, never omitted and never an error.
func (h *CapsuleHandler) ListPublic(c *gin.Context) {
	capsules, err := h.capsuleRepo.ListPublic(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load capsules"})
		return
	}

	now := h.now()
	result := make([]any, 0, len(capsules))
	for _, capsule := range capsules {
		if capsule.IsLocked(now) {
			result = append(result, capsule.Redacted(now))
		} else {
			result = append(result, capsule)
		}
	}
	c.JSON(http.StatusOK, gin.H{"capsules": result})
}

// ListMine handles GET /capsules/mine.
func (h *CapsuleHandler) ListMine(c *gin.Context) {
	userID := c.GetInt("userID")
	capsules, err := h.capsuleRepo.ListOwn(c.Request.Context(), userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load capsules"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"capsules": capsules})
}

// Get handles GET /capsules/:capsule_id. Resolution order: owner, grant by
// identity, share token, public+unlocked. Viewers outside all four get the
// redacted projection with HTTP 200.
func (h *CapsuleHandler) Get(c *gin.Context) {
	capsuleID, err := strconv.Atoi(c.Param("capsule_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid capsule id"})
		return
	}

	capsule, err := h.capsuleRepo.GetCapsule(c.Request.Context(), capsuleID)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, repositories.ErrCapsuleNotFound) {
			status = http.StatusNotFound
		}
		c.JSON(status, gin.H{"error": "capsule not found"})
		return
	}

	userID := c.GetInt("userID")
	hasGrant := false
	if userID != 0 && userID != capsule.OwnerID {
		hasGrant, err = h.shareRepo.HasGrant(c.Request.Context(), capsuleID, userID)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to resolve access"})
			return
		}
	}

	now := h.now()
	if capsule.CanView(userID, c.Query("token"), hasGrant, now) {
		c.JSON(http.StatusOK, capsule)
		return
	}
	c.JSON(http.StatusOK, capsule.Redacted(now))
}

// GetByToken handles GET /capsules/token/:share_token for anonymous link
// access. A valid token alone grants the full view.
func (h *CapsuleHandler) GetByToken(c *gin.Context) {
	token := c.Param("share_token")
	capsule, err := h.capsuleRepo.GetByShareToken(c.Request.Context(), token)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, repositories.ErrCapsuleNotFound) {
			status = http.StatusNotFound
		}
		c.JSON(status, gin.H{"error": "capsule not found"})
		return
	}
	c.JSON(http.StatusOK, capsule)
}

// Share handles POST /capsules/:capsule_id/share. Owner only.
func (h *CapsuleHandler) Share(c *gin.Context) {
	capsuleID, err := strconv.Atoi(c.Param("capsule_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid capsule id"})
		return
	}

	var req struct {
		Method         string `json:"method" binding:"required"`
		RecipientEmail string `json:"recipient_email"`
		FriendID       int    `json:"friend_id"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	userID := c.GetInt("userID")
	capsule, err := h.capsuleRepo.GetCapsule(c.Request.Context(), capsuleID)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, repositories.ErrCapsuleNotFound) {
			status = http.StatusNotFound
		}
		c.JSON(status, gin.H{"error": "capsule not found"})
		return
	}
	if capsule.OwnerID != userID {
		c.JSON(http.StatusForbidden, gin.H{"error": "only the owner can share a capsule"})
		return
	}

	grant := models.SharedCapsule{CapsuleID: capsuleID, SharedBy: userID, SharedVia: req.Method}

	switch req.Method {
	case models.SharedViaEmail:
		email := strings.TrimSpace(strings.ToLower(req.RecipientEmail))
		if email == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "recipient email is required"})
			return
		}
		grant.RecipientEmail = &email

	case models.SharedViaFriend:
		if req.FriendID == 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "friend id is required"})
			return
		}
		friends, err := h.friendRepo.AreFriends(c.Request.Context(), userID, req.FriendID)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to validate friendship"})
			return
		}
		if !friends {
			c.JSON(http.StatusBadRequest, gin.H{"error": "recipient is not an accepted friend"})
			return
		}
		friendID := req.FriendID
		grant.RecipientFriendID = &friendID
		// Email recorded for bookkeeping; access is granted by identity.
		if friend, err := h.profileRepo.GetByID(c.Request.Context(), req.FriendID); err == nil {
			grant.RecipientEmail = &friend.Email
		}

	case models.SharedViaLink:
		// Nothing to bind; the capsule's immutable token gates access.

	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "unknown share method"})
		return
	}

	created, err := h.shareRepo.CreateShare(c.Request.Context(), grant)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not share capsule"})
		return
	}

	if req.Method == models.SharedViaFriend {
		h.hub.Broadcast(req.FriendID, models.FeedEvent{
			Type:      "capsule_shared",
			CapsuleID: capsuleID,
			FromID:    userID,
		})
	}

	// Email delivery is an external, at-least-effort consumer of this event.
	_ = observability.PublishEvent(c.Request.Context(), "capsules.shared", observability.EventEnvelope{
		EventType: "capsule_events",
		EventName: "capsule_shared",
		Payload: map[string]interface{}{
			"capsule_id":      capsuleID,
			"shared_by":       userID,
			"shared_via":      req.Method,
			"recipient_email": grant.RecipientEmail,
		},
	}, observability.BuildHeaders(requestIDFromContext(c), traceIDFromContext(c)))

	c.JSON(http.StatusCreated, gin.H{
		"share":       created,
		"share_token": capsule.ShareToken,
	})
}

// SharedWithMe handles GET /capsules/shared-with-me. Grant holders bypass
// both privacy and the lock, so capsules are returned in full.
func (h *CapsuleHandler) SharedWithMe(c *gin.Context) {
	userID := c.GetInt("userID")
	shares, err := h.shareRepo.ListForRecipient(c.Request.Context(), userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load shared capsules"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"shared": shares})
}
