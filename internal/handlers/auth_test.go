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

	"locktheday/internal/auth"
	"locktheday/internal/mocks"
	"locktheday/internal/models"
	"locktheday/internal/repositories"
)

func setupAuthRouter(handler *AuthHandler) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.POST("/auth/register", handler.Register)
	r.POST("/auth/login", handler.Login)
	r.GET("/me", func(c *gin.Context) {
		c.Set("userID", 1)
		handler.Me(c)
	})
	r.GET("/users/search", func(c *gin.Context) {
		c.Set("userID", 1)
		handler.SearchUsers(c)
	})
	return r
}

func TestRegisterSuccess(t *testing.T) {
	profileRepo := new(mocks.ProfileRepositoryMock)
	handler := NewAuthHandler(profileRepo, auth.NewJWT("test-secret"))
	router := setupAuthRouter(handler)

	profileRepo.On("CreateProfile", mock.Anything, "new@example.com", mock.Anything, "New User").
		Return(models.Profile{ID: 3, Email: "new@example.com"}, nil).Once()

	body := `{"email":"New@Example.com","password":"longenough","full_name":"New User"}`
	req := httptest.NewRequest(http.MethodPost, "/auth/register", bytes.NewBufferString(body))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code)
	var resp map[string]any
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.NotEmpty(t, resp["token"])
	profileRepo.AssertExpectations(t)
}

func TestRegisterShortPasswordRejected(t *testing.T) {
	profileRepo := new(mocks.ProfileRepositoryMock)
	handler := NewAuthHandler(profileRepo, auth.NewJWT("test-secret"))
	router := setupAuthRouter(handler)

	body := `{"email":"a@b.com","password":"short"}`
	req := httptest.NewRequest(http.MethodPost, "/auth/register", bytes.NewBufferString(body))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	profileRepo.AssertNotCalled(t, "CreateProfile")
}

func TestRegisterDuplicateEmailConflict(t *testing.T) {
	profileRepo := new(mocks.ProfileRepositoryMock)
	handler := NewAuthHandler(profileRepo, auth.NewJWT("test-secret"))
	router := setupAuthRouter(handler)

	profileRepo.On("CreateProfile", mock.Anything, "taken@example.com", mock.Anything, "").
		Return(models.Profile{}, repositories.ErrEmailTaken).Once()

	body := `{"email":"taken@example.com","password":"longenough"}`
	req := httptest.NewRequest(http.MethodPost, "/auth/register", bytes.NewBufferString(body))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusConflict, rec.Code)
	profileRepo.AssertExpectations(t)
}

func TestLoginSuccess(t *testing.T) {
	profileRepo := new(mocks.ProfileRepositoryMock)
	handler := NewAuthHandler(profileRepo, auth.NewJWT("test-secret"))
	router := setupAuthRouter(handler)

	hash, err := auth.HashPassword("correct-horse")
	require.NoError(t, err)
	profileRepo.On("GetByEmail", mock.Anything, "me@example.com").
		Return(models.Profile{ID: 1, Email: "me@example.com", PasswordHash: hash}, nil).Once()

	body := `{"email":"me@example.com","password":"correct-horse"}`
	req := httptest.NewRequest(http.MethodPost, "/auth/login", bytes.NewBufferString(body))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var resp map[string]any
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.NotEmpty(t, resp["token"])
}

func TestLoginWrongPassword(t *testing.T) {
	profileRepo := new(mocks.ProfileRepositoryMock)
	handler := NewAuthHandler(profileRepo, auth.NewJWT("test-secret"))
	router := setupAuthRouter(handler)

	hash, err := auth.HashPassword("correct-horse")
	require.NoError(t, err)
	profileRepo.On("GetByEmail", mock.Anything, "me@example.com").
		Return(models.Profile{ID: 1, PasswordHash: hash}, nil).Once()

	body := `{"email":"me@example.com","password":"wrong"}`
	req := httptest.NewRequest(http.MethodPost, "/auth/login", bytes.NewBufferString(body))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestLoginUnknownEmail(t *testing.T) {
	profileRepo := new(mocks.ProfileRepositoryMock)
	handler := NewAuthHandler(profileRepo, auth.NewJWT("test-secret"))
	router := setupAuthRouter(handler)

	profileRepo.On("GetByEmail", mock.Anything, "ghost@example.com").
		Return(models.Profile{}, repositories.ErrProfileNotFound).Once()

	body := `{"email":"ghost@example.com","password":"whatever1"}`
	req := httptest.NewRequest(http.MethodPost, "/auth/login", bytes.NewBufferString(body))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestSearchUsersEmptyQuery(t *testing.T) {
	profileRepo := new(mocks.ProfileRepositoryMock)
	handler := NewAuthHandler(profileRepo, auth.NewJWT("test-secret"))
	router := setupAuthRouter(handler)

	req := httptest.NewRequest(http.MethodGet, "/users/search", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	profileRepo.AssertNotCalled(t, "Search")
}

func TestSearchUsersExcludesCaller(t *testing.T) {
	profileRepo := new(mocks.ProfileRepositoryMock)
	handler := NewAuthHandler(profileRepo, auth.NewJWT("test-secret"))
	router := setupAuthRouter(handler)

	profileRepo.On("Search", mock.Anything, "bob", 1).Return([]models.Profile{
		{ID: 2, Email: "bob@example.com"},
	}, nil).Once()

	req := httptest.NewRequest(http.MethodGet, "/users/search?q=bob", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "bob@example.com")
	profileRepo.AssertExpectations(t)
}
