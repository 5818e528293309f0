package handlers

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"locktheday/internal/mocks"
	"locktheday/internal/models"
	"locktheday/internal/repositories"
	"locktheday/internal/ws"
)

func setupCapsuleRouter(handler *CapsuleHandler, userID int) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(func(c *gin.Context) {
		if userID != 0 {
			c.Set("userID", userID)
		}
		c.Next()
	})
	r.POST("/capsules", handler.Create)
	r.GET("/capsules/public", handler.ListPublic)
	r.GET("/capsules/mine", handler.ListMine)
	r.GET("/capsules/shared-with-me", handler.SharedWithMe)
	r.GET("/capsules/token/:share_token", handler.GetByToken)
	r.GET("/capsules/:capsule_id", handler.Get)
	r.POST("/capsules/:capsule_id/share", handler.Share)
	return r
}

func newCapsuleHandler(capsuleRepo *mocks.CapsuleRepositoryMock, shareRepo *mocks.ShareRepositoryMock, friendRepo *mocks.FriendRepositoryMock, profileRepo *mocks.ProfileRepositoryMock) *CapsuleHandler {
	return NewCapsuleHandler(capsuleRepo, shareRepo, friendRepo, profileRepo, new(mocks.UploaderMock), ws.NewHub(), nil)
}

func TestCreateCapsuleSuccess(t *testing.T) {
	capsuleRepo := new(mocks.CapsuleRepositoryMock)
	handler := newCapsuleHandler(capsuleRepo, new(mocks.ShareRepositoryMock), new(mocks.FriendRepositoryMock), new(mocks.ProfileRepositoryMock))
	router := setupCapsuleRouter(handler, 1)

	unlockAt := time.Now().Add(24 * time.Hour).UTC()
	capsuleRepo.On("CreateCapsule", mock.Anything, mock.MatchedBy(func(c models.Capsule) bool {
		return c.OwnerID == 1 && c.ContentType == models.ContentTypeText && c.ShareToken != ""
	})).Return(models.Capsule{ID: 5, OwnerID: 1, ContentType: models.ContentTypeText, UnlockAt: unlockAt}, nil).Once()

	body := fmt.Sprintf(`{"title":"hi","content":"later","content_type":"text","unlock_at":%q}`, unlockAt.Format(time.RFC3339))
	req := httptest.NewRequest(http.MethodPost, "/capsules", bytes.NewBufferString(body))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code)
	capsuleRepo.AssertExpectations(t)
}

func TestCreateCapsuleRejectsPastUnlock(t *testing.T) {
	capsuleRepo := new(mocks.CapsuleRepositoryMock)
	handler := newCapsuleHandler(capsuleRepo, new(mocks.ShareRepositoryMock), new(mocks.FriendRepositoryMock), new(mocks.ProfileRepositoryMock))
	router := setupCapsuleRouter(handler, 1)

	past := time.Now().Add(-time.Hour).UTC().Format(time.RFC3339)
	body := fmt.Sprintf(`{"content":"x","content_type":"text","unlock_at":%q}`, past)
	req := httptest.NewRequest(http.MethodPost, "/capsules", bytes.NewBufferString(body))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	capsuleRepo.AssertNotCalled(t, "CreateCapsule")
}

func TestCreateCapsuleRejectsUnknownType(t *testing.T) {
	handler := newCapsuleHandler(new(mocks.CapsuleRepositoryMock), new(mocks.ShareRepositoryMock), new(mocks.FriendRepositoryMock), new(mocks.ProfileRepositoryMock))
	router := setupCapsuleRouter(handler, 1)

	future := time.Now().Add(time.Hour).UTC().Format(time.RFC3339)
	body := fmt.Sprintf(`{"content":"x","content_type":"video","unlock_at":%q}`, future)
	req := httptest.NewRequest(http.MethodPost, "/capsules", bytes.NewBufferString(body))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCreateImageCapsuleRequiresFileURL(t *testing.T) {
	handler := newCapsuleHandler(new(mocks.CapsuleRepositoryMock), new(mocks.ShareRepositoryMock), new(mocks.FriendRepositoryMock), new(mocks.ProfileRepositoryMock))
	router := setupCapsuleRouter(handler, 1)

	future := time.Now().Add(time.Hour).UTC().Format(time.RFC3339)
	body := fmt.Sprintf(`{"content_type":"image","unlock_at":%q}`, future)
	req := httptest.NewRequest(http.MethodPost, "/capsules", bytes.NewBufferString(body))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestListPublicRedactsLockedCapsules(t *testing.T) {
	capsuleRepo := new(mocks.CapsuleRepositoryMock)
	handler := newCapsuleHandler(capsuleRepo, new(mocks.ShareRepositoryMock), new(mocks.FriendRepositoryMock), new(mocks.ProfileRepositoryMock))
	now := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)
	handler.now = func() time.Time { return now }
	router := setupCapsuleRouter(handler, 0)

	capsuleRepo.On("ListPublic", mock.Anything).Return([]models.Capsule{
		{ID: 1, Content: "open", UnlockAt: now.Add(-time.Hour)},
		{ID: 2, Content: "sealed", UnlockAt: now.Add(time.Hour)},
	}, nil).Once()

	req := httptest.NewRequest(http.MethodGet, "/capsules/public", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var resp struct {
		Capsules []map[string]any `json:"capsules"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	require.Len(t, resp.Capsules, 2)
	assert.Equal(t, "open", resp.Capsules[0]["content"])
	_, hasContent := resp.Capsules[1]["content"]
	assert.False(t, hasContent)
	assert.Equal(t, true, resp.Capsules[1]["locked"])
	capsuleRepo.AssertExpectations(t)
}

func TestGetCapsuleOwnerSeesLockedContent(t *testing.T) {
	capsuleRepo := new(mocks.CapsuleRepositoryMock)
	shareRepo := new(mocks.ShareRepositoryMock)
	handler := newCapsuleHandler(capsuleRepo, shareRepo, new(mocks.FriendRepositoryMock), new(mocks.ProfileRepositoryMock))
	router := setupCapsuleRouter(handler, 1)

	capsuleRepo.On("GetCapsule", mock.Anything, 9).Return(models.Capsule{
		ID: 9, OwnerID: 1, Content: "secret", UnlockAt: time.Now().Add(time.Hour),
	}, nil).Once()

	req := httptest.NewRequest(http.MethodGet, "/capsules/9", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var resp map[string]any
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, "secret", resp["content"])
	shareRepo.AssertNotCalled(t, "HasGrant")
	capsuleRepo.AssertExpectations(t)
}

func TestGetCapsuleStrangerGetsRedacted200(t *testing.T) {
	capsuleRepo := new(mocks.CapsuleRepositoryMock)
	shareRepo := new(mocks.ShareRepositoryMock)
	handler := newCapsuleHandler(capsuleRepo, shareRepo, new(mocks.FriendRepositoryMock), new(mocks.ProfileRepositoryMock))
	router := setupCapsuleRouter(handler, 2)

	capsuleRepo.On("GetCapsule", mock.Anything, 9).Return(models.Capsule{
		ID: 9, OwnerID: 1, Content: "secret", UnlockAt: time.Now().Add(time.Hour),
	}, nil).Once()
	shareRepo.On("HasGrant", mock.Anything, 9, 2).Return(false, nil).Once()

	req := httptest.NewRequest(http.MethodGet, "/capsules/9", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var resp map[string]any
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	_, hasContent := resp["content"]
	assert.False(t, hasContent)
	assert.Equal(t, true, resp["locked"])
	capsuleRepo.AssertExpectations(t)
	shareRepo.AssertExpectations(t)
}

func TestGetCapsulePrivateStaysRedactedAfterUnlock(t *testing.T) {
	capsuleRepo := new(mocks.CapsuleRepositoryMock)
	shareRepo := new(mocks.ShareRepositoryMock)
	handler := newCapsuleHandler(capsuleRepo, shareRepo, new(mocks.FriendRepositoryMock), new(mocks.ProfileRepositoryMock))
	now := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)
	handler.now = func() time.Time { return now }
	router := setupCapsuleRouter(handler, 2)

	capsuleRepo.On("GetCapsule", mock.Anything, 9).Return(models.Capsule{
		ID: 9, OwnerID: 1, Content: "secret", IsPrivate: true, UnlockAt: now.Add(-time.Hour),
	}, nil).Once()
	shareRepo.On("HasGrant", mock.Anything, 9, 2).Return(false, nil).Once()

	req := httptest.NewRequest(http.MethodGet, "/capsules/9", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var resp map[string]any
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	_, hasContent := resp["content"]
	assert.False(t, hasContent)
	assert.Equal(t, false, resp["locked"])
}

func TestGetCapsuleGrantHolderSeesContent(t *testing.T) {
	capsuleRepo := new(mocks.CapsuleRepositoryMock)
	shareRepo := new(mocks.ShareRepositoryMock)
	handler := newCapsuleHandler(capsuleRepo, shareRepo, new(mocks.FriendRepositoryMock), new(mocks.ProfileRepositoryMock))
	router := setupCapsuleRouter(handler, 2)

	capsuleRepo.On("GetCapsule", mock.Anything, 9).Return(models.Capsule{
		ID: 9, OwnerID: 1, Content: "secret", IsPrivate: true, UnlockAt: time.Now().Add(time.Hour),
	}, nil).Once()
	shareRepo.On("HasGrant", mock.Anything, 9, 2).Return(true, nil).Once()

	req := httptest.NewRequest(http.MethodGet, "/capsules/9", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var resp map[string]any
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, "secret", resp["content"])
}

func TestGetCapsuleNotFound(t *testing.T) {
	capsuleRepo := new(mocks.CapsuleRepositoryMock)
	handler := newCapsuleHandler(capsuleRepo, new(mocks.ShareRepositoryMock), new(mocks.FriendRepositoryMock), new(mocks.ProfileRepositoryMock))
	router := setupCapsuleRouter(handler, 1)

	capsuleRepo.On("GetCapsule", mock.Anything, 404).Return(models.Capsule{}, repositories.ErrCapsuleNotFound).Once()

	req := httptest.NewRequest(http.MethodGet, "/capsules/404", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestGetByTokenReturnsFullCapsule(t *testing.T) {
	capsuleRepo := new(mocks.CapsuleRepositoryMock)
	handler := newCapsuleHandler(capsuleRepo, new(mocks.ShareRepositoryMock), new(mocks.FriendRepositoryMock), new(mocks.ProfileRepositoryMock))
	router := setupCapsuleRouter(handler, 0)

	capsuleRepo.On("GetByShareToken", mock.Anything, "tok-123").Return(models.Capsule{
		ID: 3, OwnerID: 1, Content: "secret", IsPrivate: true, UnlockAt: time.Now().Add(time.Hour),
	}, nil).Once()

	req := httptest.NewRequest(http.MethodGet, "/capsules/token/tok-123", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var resp map[string]any
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, "secret", resp["content"])
	capsuleRepo.AssertExpectations(t)
}

func TestShareForbiddenForNonOwner(t *testing.T) {
	capsuleRepo := new(mocks.CapsuleRepositoryMock)
	shareRepo := new(mocks.ShareRepositoryMock)
	handler := newCapsuleHandler(capsuleRepo, shareRepo, new(mocks.FriendRepositoryMock), new(mocks.ProfileRepositoryMock))
	router := setupCapsuleRouter(handler, 2)

	capsuleRepo.On("GetCapsule", mock.Anything, 9).Return(models.Capsule{ID: 9, OwnerID: 1}, nil).Once()

	req := httptest.NewRequest(http.MethodPost, "/capsules/9/share", bytes.NewBufferString(`{"method":"link"}`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusForbidden, rec.Code)
	shareRepo.AssertNotCalled(t, "CreateShare")
}

func TestShareByLinkReturnsToken(t *testing.T) {
	capsuleRepo := new(mocks.CapsuleRepositoryMock)
	shareRepo := new(mocks.ShareRepositoryMock)
	handler := newCapsuleHandler(capsuleRepo, shareRepo, new(mocks.FriendRepositoryMock), new(mocks.ProfileRepositoryMock))
	router := setupCapsuleRouter(handler, 1)

	capsuleRepo.On("GetCapsule", mock.Anything, 9).Return(models.Capsule{ID: 9, OwnerID: 1, ShareToken: "tok-abc"}, nil).Once()
	shareRepo.On("CreateShare", mock.Anything, mock.MatchedBy(func(s models.SharedCapsule) bool {
		return s.CapsuleID == 9 && s.SharedBy == 1 && s.SharedVia == models.SharedViaLink
	})).Return(models.SharedCapsule{ID: 1, CapsuleID: 9, SharedVia: models.SharedViaLink}, nil).Once()

	req := httptest.NewRequest(http.MethodPost, "/capsules/9/share", bytes.NewBufferString(`{"method":"link"}`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code)
	var resp map[string]any
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, "tok-abc", resp["share_token"])
	shareRepo.AssertExpectations(t)
}

func TestShareWithFriendRequiresAcceptedEdge(t *testing.T) {
	capsuleRepo := new(mocks.CapsuleRepositoryMock)
	friendRepo := new(mocks.FriendRepositoryMock)
	shareRepo := new(mocks.ShareRepositoryMock)
	handler := newCapsuleHandler(capsuleRepo, shareRepo, friendRepo, new(mocks.ProfileRepositoryMock))
	router := setupCapsuleRouter(handler, 1)

	capsuleRepo.On("GetCapsule", mock.Anything, 9).Return(models.Capsule{ID: 9, OwnerID: 1}, nil).Once()
	friendRepo.On("AreFriends", mock.Anything, 1, 5).Return(false, nil).Once()

	req := httptest.NewRequest(http.MethodPost, "/capsules/9/share", bytes.NewBufferString(`{"method":"friend","friend_id":5}`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	shareRepo.AssertNotCalled(t, "CreateShare")
	friendRepo.AssertExpectations(t)
}

func TestShareByEmailNormalizesRecipient(t *testing.T) {
	capsuleRepo := new(mocks.CapsuleRepositoryMock)
	shareRepo := new(mocks.ShareRepositoryMock)
	handler := newCapsuleHandler(capsuleRepo, shareRepo, new(mocks.FriendRepositoryMock), new(mocks.ProfileRepositoryMock))
	router := setupCapsuleRouter(handler, 1)

	capsuleRepo.On("GetCapsule", mock.Anything, 9).Return(models.Capsule{ID: 9, OwnerID: 1, ShareToken: "tok"}, nil).Once()
	shareRepo.On("CreateShare", mock.Anything, mock.MatchedBy(func(s models.SharedCapsule) bool {
		return s.RecipientEmail != nil && *s.RecipientEmail == "pal@example.com"
	})).Return(models.SharedCapsule{ID: 2}, nil).Once()

	body := `{"method":"email","recipient_email":"  Pal@Example.COM "}`
	req := httptest.NewRequest(http.MethodPost, "/capsules/9/share", bytes.NewBufferString(body))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code)
	shareRepo.AssertExpectations(t)
}

func TestSharedWithMeListsGrants(t *testing.T) {
	shareRepo := new(mocks.ShareRepositoryMock)
	handler := newCapsuleHandler(new(mocks.CapsuleRepositoryMock), shareRepo, new(mocks.FriendRepositoryMock), new(mocks.ProfileRepositoryMock))
	router := setupCapsuleRouter(handler, 1)

	shareRepo.On("ListForRecipient", mock.Anything, 1).Return([]repositories.SharedCapsuleView{
		{SharedCapsule: models.SharedCapsule{ID: 1, CapsuleID: 4}},
	}, nil).Once()

	req := httptest.NewRequest(http.MethodGet, "/capsules/shared-with-me", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	shareRepo.AssertExpectations(t)
}
