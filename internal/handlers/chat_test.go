package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"locktheday/internal/mocks"
	"locktheday/internal/models"
	"locktheday/internal/ws"
)

func setupChatRouter(handler *ChatHandler) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(func(c *gin.Context) {
		c.Set("userID", 1)
		c.Next()
	})
	r.GET("/messages/:friend_id", handler.Conversation)
	r.POST("/messages/:friend_id", handler.Send)
	r.POST("/messages/:friend_id/read", handler.MarkRead)
	r.GET("/me/unread-messages", handler.UnreadCount)
	return r
}

func TestConversationRequiresFriendship(t *testing.T) {
	messageRepo := new(mocks.MessageRepositoryMock)
	friendRepo := new(mocks.FriendRepositoryMock)
	handler := NewChatHandler(messageRepo, friendRepo, ws.NewHub())
	router := setupChatRouter(handler)

	friendRepo.On("AreFriends", mock.Anything, 1, 2).Return(false, nil).Once()

	req := httptest.NewRequest(http.MethodGet, "/messages/2", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusForbidden, rec.Code)
	messageRepo.AssertNotCalled(t, "Conversation")
	friendRepo.AssertExpectations(t)
}

func TestConversationSuccess(t *testing.T) {
	messageRepo := new(mocks.MessageRepositoryMock)
	friendRepo := new(mocks.FriendRepositoryMock)
	handler := NewChatHandler(messageRepo, friendRepo, ws.NewHub())
	router := setupChatRouter(handler)

	friendRepo.On("AreFriends", mock.Anything, 1, 2).Return(true, nil).Once()
	messageRepo.On("Conversation", mock.Anything, 1, 2).Return([]models.Message{
		{ID: 1, SenderID: 2, ReceiverID: 1, Content: "hello"},
	}, nil).Once()

	req := httptest.NewRequest(http.MethodGet, "/messages/2", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "hello")
	messageRepo.AssertExpectations(t)
}

func TestSendMessageSuccess(t *testing.T) {
	messageRepo := new(mocks.MessageRepositoryMock)
	friendRepo := new(mocks.FriendRepositoryMock)
	handler := NewChatHandler(messageRepo, friendRepo, ws.NewHub())
	router := setupChatRouter(handler)

	friendRepo.On("AreFriends", mock.Anything, 1, 2).Return(true, nil).Once()
	messageRepo.On("CreateMessage", mock.Anything, 1, 2, "hi there").Return(models.Message{
		ID: 5, SenderID: 1, ReceiverID: 2, Content: "hi there",
	}, nil).Once()

	req := httptest.NewRequest(http.MethodPost, "/messages/2", bytes.NewBufferString(`{"content":"hi there"}`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code)
	messageRepo.AssertExpectations(t)
	friendRepo.AssertExpectations(t)
}

func TestSendMessageRejectsBlankContent(t *testing.T) {
	messageRepo := new(mocks.MessageRepositoryMock)
	friendRepo := new(mocks.FriendRepositoryMock)
	handler := NewChatHandler(messageRepo, friendRepo, ws.NewHub())
	router := setupChatRouter(handler)

	friendRepo.On("AreFriends", mock.Anything, 1, 2).Return(true, nil).Once()

	req := httptest.NewRequest(http.MethodPost, "/messages/2", bytes.NewBufferString(`{"content":"   "}`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	messageRepo.AssertNotCalled(t, "CreateMessage")
}

func TestMarkReadStampsIncomingMessages(t *testing.T) {
	messageRepo := new(mocks.MessageRepositoryMock)
	friendRepo := new(mocks.FriendRepositoryMock)
	handler := NewChatHandler(messageRepo, friendRepo, ws.NewHub())
	router := setupChatRouter(handler)

	friendRepo.On("AreFriends", mock.Anything, 1, 2).Return(true, nil).Once()
	messageRepo.On("MarkRead", mock.Anything, 2, 1).Return(3, nil).Once()

	req := httptest.NewRequest(http.MethodPost, "/messages/2/read", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var resp map[string]any
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.EqualValues(t, 3, resp["marked"])
	messageRepo.AssertExpectations(t)
}

func TestUnreadCount(t *testing.T) {
	messageRepo := new(mocks.MessageRepositoryMock)
	handler := NewChatHandler(messageRepo, new(mocks.FriendRepositoryMock), ws.NewHub())
	router := setupChatRouter(handler)

	messageRepo.On("CountUnread", mock.Anything, 1).Return(4, nil).Once()

	req := httptest.NewRequest(http.MethodGet, "/me/unread-messages", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var resp map[string]any
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.EqualValues(t, 4, resp["unread"])
	messageRepo.AssertExpectations(t)
}

func TestMarkReadIdempotentWhenNothingUnread(t *testing.T) {
	messageRepo := new(mocks.MessageRepositoryMock)
	friendRepo := new(mocks.FriendRepositoryMock)
	handler := NewChatHandler(messageRepo, friendRepo, ws.NewHub())
	router := setupChatRouter(handler)

	friendRepo.On("AreFriends", mock.Anything, 1, 2).Return(true, nil).Once()
	messageRepo.On("MarkRead", mock.Anything, 2, 1).Return(0, nil).Once()

	req := httptest.NewRequest(http.MethodPost, "/messages/2/read", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	messageRepo.AssertExpectations(t)
}
