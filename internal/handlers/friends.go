package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"locktheday/internal/models"
	"locktheday/internal/repositories"
	"locktheday/internal/ws"
)

// FriendHandler manages friendship edges.
type FriendHandler struct {
	friendRepo  repositories.FriendRepository
	profileRepo repositories.ProfileRepository
	hub         *ws.Hub
}

// NewFriendHandler builds a FriendHandler.
func NewFriendHandler(friendRepo repositories.FriendRepository, profileRepo repositories.ProfileRepository, hub *ws.Hub) *FriendHandler {
	return &FriendHandler{friendRepo: friendRepo, profileRepo: profileRepo, hub: hub}
}

// List returns the caller's accepted friends.
func (h *FriendHandler) List(c *gin.Context) {
	userID := c.GetInt("userID")
	friends, err := h.friendRepo.ListFriends(c.Request.Context(), userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load friends"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"friends": friends})
}

// ListRequests returns pending requests addressed to the caller.
func (h *FriendHandler) ListRequests(c *gin.Context) {
	userID := c.GetInt("userID")
	requests, err := h.friendRepo.ListIncoming(c.Request.Context(), userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load requests"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"requests": requests})
}

// SendRequest creates a pending edge toward another user.
func (h *FriendHandler) SendRequest(c *gin.Context) {
	var req struct {
		AddresseeID int `json:"addressee_id" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	userID := c.GetInt("userID")
	if req.AddresseeID == userID {
		c.JSON(http.StatusBadRequest, gin.H{"error": "cannot befriend yourself"})
		return
	}

	if _, err := h.profileRepo.GetByID(c.Request.Context(), req.AddresseeID); err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, repositories.ErrProfileNotFound) {
			status = http.StatusNotFound
		}
		c.JSON(status, gin.H{"error": "user not found"})
		return
	}

	edge, err := h.friendRepo.CreateRequest(c.Request.Context(), userID, req.AddresseeID)
	if err != nil {
		if errors.Is(err, repositories.ErrDuplicateRequest) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "a request already exists between you"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not send request"})
		return
	}

	h.hub.Broadcast(req.AddresseeID, models.FeedEvent{Type: "friend_request", FromID: userID})
	c.JSON(http.StatusCreated, edge)
}

// Respond lets the addressee accept or decline a pending request. Only the
// addressee may act on it; a decline removes the edge entirely so a future
// request between the pair is not blocked.
func (h *FriendHandler) Respond(c *gin.Context) {
	requestID, err := strconv.Atoi(c.Param("request_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request id"})
		return
	}

	var req struct {
		Action string `json:"action" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if req.Action != "accept" && req.Action != "decline" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "action must be accept or decline"})
		return
	}

	userID := c.GetInt("userID")
	edge, err := h.friendRepo.GetEdge(c.Request.Context(), requestID)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, repositories.ErrRequestNotFound) {
			status = http.StatusNotFound
		}
		c.JSON(status, gin.H{"error": "request not found"})
		return
	}
	if edge.AddresseeID != userID {
		c.JSON(http.StatusForbidden, gin.H{"error": "only the addressee can respond"})
		return
	}
	if edge.Status != models.FriendStatusPending {
		c.JSON(http.StatusBadRequest, gin.H{"error": "request is not pending"})
		return
	}

	if req.Action == "accept" {
		accepted, err := h.friendRepo.Accept(c.Request.Context(), requestID)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "could not accept request"})
			return
		}
		h.hub.Broadcast(edge.RequesterID, models.FeedEvent{Type: "friend_accepted", FromID: userID})
		c.JSON(http.StatusOK, accepted)
		return
	}

	if err := h.friendRepo.DeleteEdge(c.Request.Context(), requestID); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not decline request"})
		return
	}
	c.Status(http.StatusNoContent)
}

// Cancel lets the requester withdraw their own pending request.
func (h *FriendHandler) Cancel(c *gin.Context) {
	requestID, err := strconv.Atoi(c.Param("request_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request id"})
		return
	}

	userID := c.GetInt("userID")
	edge, err := h.friendRepo.GetEdge(c.Request.Context(), requestID)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, repositories.ErrRequestNotFound) {
			status = http.StatusNotFound
		}
		c.JSON(status, gin.H{"error": "request not found"})
		return
	}
	if edge.RequesterID != userID {
		c.JSON(http.StatusForbidden, gin.H{"error": "only the requester can cancel"})
		return
	}
	if edge.Status != models.FriendStatusPending {
		c.JSON(http.StatusBadRequest, gin.H{"error": "request is not pending"})
		return
	}

	if err := h.friendRepo.DeleteEdge(c.Request.Context(), requestID); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not cancel request"})
		return
	}
	c.Status(http.StatusNoContent)
}

// Unfriend removes the accepted edge between the caller and a friend.
func (h *FriendHandler) Unfriend(c *gin.Context) {
	friendID, err := strconv.Atoi(c.Param("friend_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid friend id"})
		return
	}

	userID := c.GetInt("userID")
	if err := h.friendRepo.DeleteAccepted(c.Request.Context(), userID, friendID); err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, repositories.ErrRequestNotFound) {
			status = http.StatusNotFound
		}
		c.JSON(status, gin.H{"error": "friendship not found"})
		return
	}
	c.Status(http.StatusNoContent)
}
