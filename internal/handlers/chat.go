package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"locktheday/internal/models"
	"locktheday/internal/repositories"
	"locktheday/internal/ws"
)

// ChatHandler manages direct messages between friends.
type ChatHandler struct {
	messageRepo repositories.MessageRepository
	friendRepo  repositories.FriendRepository
	hub         *ws.Hub
}

// NewChatHandler builds a ChatHandler.
func NewChatHandler(messageRepo repositories.MessageRepository, friendRepo repositories.FriendRepository, hub *ws.Hub) *ChatHandler {
	return &ChatHandler{messageRepo: messageRepo, friendRepo: friendRepo, hub: hub}
}

// Conversation returns the message history with a friend. Chat requires an
// accepted edge between the parties.
func (h *ChatHandler) Conversation(c *gin.Context) {
	friendID, ok := h.friendParam(c)
	if !ok {
		return
	}

	userID := c.GetInt("userID")
	msgs, err := h.messageRepo.Conversation(c.Request.Context(), userID, friendID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load messages"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"messages": msgs})
}

// Send stores a message and pushes it to the receiver's feed.
func (h *ChatHandler) Send(c *gin.Context) {
	friendID, ok := h.friendParam(c)
	if !ok {
		return
	}

	var req struct {
		Content string `json:"content" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	content := strings.TrimSpace(req.Content)
	if content == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "message content is empty"})
		return
	}

	userID := c.GetInt("userID")
	msg, err := h.messageRepo.CreateMessage(c.Request.Context(), userID, friendID, content)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to send message"})
		return
	}

	h.hub.Broadcast(friendID, models.FeedEvent{Type: "message", Message: &msg})
	c.JSON(http.StatusCreated, msg)
}

// MarkRead stamps the friend's messages to the caller as read. The stamp is
// set once per message and never cleared.
func (h *ChatHandler) MarkRead(c *gin.Context) {
	friendID, ok := h.friendParam(c)
	if !ok {
		return
	}

	userID := c.GetInt("userID")
	count, err := h.messageRepo.MarkRead(c.Request.Context(), friendID, userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to mark messages read"})
		return
	}

	if count > 0 {
		h.hub.Broadcast(friendID, models.FeedEvent{Type: "message_read", FromID: userID})
	}
	c.JSON(http.StatusOK, gin.H{"marked": count})
}

// UnreadCount returns how many unread messages the caller has across all
// conversations.
func (h *ChatHandler) UnreadCount(c *gin.Context) {
	userID := c.GetInt("userID")
	count, err := h.messageRepo.CountUnread(c.Request.Context(), userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to count unread messages"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"unread": count})
}

// friendParam parses the friend id and enforces the accepted-friendship
// gate shared by every chat endpoint.
func (h *ChatHandler) friendParam(c *gin.Context) (int, bool) {
	friendID, err := strconv.Atoi(c.Param("friend_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid friend id"})
		return 0, false
	}

	userID := c.GetInt("userID")
	friends, err := h.friendRepo.AreFriends(c.Request.Context(), userID, friendID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to verify friendship"})
		return 0, false
	}
	if !friends {
		c.JSON(http.StatusForbidden, gin.H{"error": "users are not friends"})
		return 0, false
	}
	return friendID, true
}
