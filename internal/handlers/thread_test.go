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

	"chat-backend/internal/mocks"
	"chat-backend/internal/models"
	"chat-backend/internal/repositories"
)

func setupThreadRouter(handler *ThreadHandler) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(func(c *gin.Context) {
		c.Set("userID", 1)
		c.Next()
	})
	r.POST("/threads", handler.CreateThread)
	r.GET("/threads", handler.ListThreads)
	r.DELETE("/threads/:thread_id", handler.DeleteThread)
	return r
}

func TestCreateThreadNew(t *testing.T) {
	threadRepo := new(mocks.ThreadRepositoryMock)
	userRepo := new(mocks.UserRepositoryMock)
	handler := NewThreadHandler(threadRepo, userRepo, nil, 20)
	router := setupThreadRouter(handler)

	userRepo.On("GetUser", mock.Anything, 2).Return(models.User{ID: 2, Username: "bob"}, nil).Once()
	threadRepo.On("ResolveOrCreate", mock.Anything, 1, 2).Return(models.Thread{ID: 10, User1ID: 1, User2ID: 2}, true, nil).Once()

	req := httptest.NewRequest(http.MethodPost, "/threads", bytes.NewBufferString(`{"participants":[1,2]}`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code)
	var resp struct {
		ID           int   `json:"id"`
		Participants []int `json:"participants"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, 10, resp.ID)
	assert.Equal(t, []int{1, 2}, resp.Participants)

	threadRepo.AssertExpectations(t)
	userRepo.AssertExpectations(t)
}

func TestCreateThreadExisting(t *testing.T) {
	threadRepo := new(mocks.ThreadRepositoryMock)
	userRepo := new(mocks.UserRepositoryMock)
	handler := NewThreadHandler(threadRepo, userRepo, nil, 20)
	router := setupThreadRouter(handler)

	userRepo.On("GetUser", mock.Anything, 2).Return(models.User{ID: 2}, nil).Once()
	threadRepo.On("ResolveOrCreate", mock.Anything, 1, 2).Return(models.Thread{ID: 10, User1ID: 1, User2ID: 2}, false, nil).Once()

	req := httptest.NewRequest(http.MethodPost, "/threads", bytes.NewBufferString(`{"participants":[2,1]}`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	threadRepo.AssertExpectations(t)
}

func TestCreateThreadWrongParticipantCount(t *testing.T) {
	handler := NewThreadHandler(new(mocks.ThreadRepositoryMock), new(mocks.UserRepositoryMock), nil, 20)
	router := setupThreadRouter(handler)

	for _, body := range []string{`{"participants":[1]}`, `{"participants":[1,2,3]}`} {
		req := httptest.NewRequest(http.MethodPost, "/threads", bytes.NewBufferString(body))
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		require.Equal(t, http.StatusBadRequest, rec.Code)
	}
}

func TestCreateThreadDuplicateParticipant(t *testing.T) {
	handler := NewThreadHandler(new(mocks.ThreadRepositoryMock), new(mocks.UserRepositoryMock), nil, 20)
	router := setupThreadRouter(handler)

	req := httptest.NewRequest(http.MethodPost, "/threads", bytes.NewBufferString(`{"participants":[1,1]}`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCreateThreadRequesterNotIncluded(t *testing.T) {
	handler := NewThreadHandler(new(mocks.ThreadRepositoryMock), new(mocks.UserRepositoryMock), nil, 20)
	router := setupThreadRouter(handler)

	req := httptest.NewRequest(http.MethodPost, "/threads", bytes.NewBufferString(`{"participants":[2,3]}`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCreateThreadUnknownParticipant(t *testing.T) {
	userRepo := new(mocks.UserRepositoryMock)
	handler := NewThreadHandler(new(mocks.ThreadRepositoryMock), userRepo, nil, 20)
	router := setupThreadRouter(handler)

	userRepo.On("GetUser", mock.Anything, 99).Return(models.User{}, repositories.ErrUserNotFound).Once()

	req := httptest.NewRequest(http.MethodPost, "/threads", bytes.NewBufferString(`{"participants":[1,99]}`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	userRepo.AssertExpectations(t)
}

func TestListThreadsSuccess(t *testing.T) {
	threadRepo := new(mocks.ThreadRepositoryMock)
	handler := NewThreadHandler(threadRepo, new(mocks.UserRepositoryMock), nil, 20)
	router := setupThreadRouter(handler)

	threadRepo.On("ListForUser", mock.Anything, 1, 20, 0).Return([]models.Thread{{ID: 3, User1ID: 1, User2ID: 2}}, 1, nil).Once()

	req := httptest.NewRequest(http.MethodGet, "/threads", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var resp map[string]any
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.EqualValues(t, 1, resp["count"])
	threadRepo.AssertExpectations(t)
}

func TestListThreadsPagination(t *testing.T) {
	threadRepo := new(mocks.ThreadRepositoryMock)
	handler := NewThreadHandler(threadRepo, new(mocks.UserRepositoryMock), nil, 20)
	router := setupThreadRouter(handler)

	threadRepo.On("ListForUser", mock.Anything, 1, 5, 10).Return([]models.Thread(nil), 12, nil).Once()

	req := httptest.NewRequest(http.MethodGet, "/threads?page=3&page_size=5", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	threadRepo.AssertExpectations(t)
}

func TestListThreadsRepoError(t *testing.T) {
	threadRepo := new(mocks.ThreadRepositoryMock)
	handler := NewThreadHandler(threadRepo, new(mocks.UserRepositoryMock), nil, 20)
	router := setupThreadRouter(handler)

	threadRepo.On("ListForUser", mock.Anything, 1, 20, 0).Return([]models.Thread(nil), 0, assert.AnError).Once()

	req := httptest.NewRequest(http.MethodGet, "/threads", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusInternalServerError, rec.Code)
	threadRepo.AssertExpectations(t)
}

func TestDeleteThreadSuccess(t *testing.T) {
	threadRepo := new(mocks.ThreadRepositoryMock)
	handler := NewThreadHandler(threadRepo, new(mocks.UserRepositoryMock), nil, 20)
	router := setupThreadRouter(handler)

	threadRepo.On("DeleteForUser", mock.Anything, 5, 1).Return(nil).Once()

	req := httptest.NewRequest(http.MethodDelete, "/threads/5", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusNoContent, rec.Code)
	threadRepo.AssertExpectations(t)
}

func TestDeleteThreadNotFound(t *testing.T) {
	threadRepo := new(mocks.ThreadRepositoryMock)
	handler := NewThreadHandler(threadRepo, new(mocks.UserRepositoryMock), nil, 20)
	router := setupThreadRouter(handler)

	threadRepo.On("DeleteForUser", mock.Anything, 77, 1).Return(repositories.ErrThreadNotFound).Once()

	req := httptest.NewRequest(http.MethodDelete, "/threads/77", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusNotFound, rec.Code)
	threadRepo.AssertExpectations(t)
}

func TestDeleteThreadInvalidID(t *testing.T) {
	handler := NewThreadHandler(new(mocks.ThreadRepositoryMock), new(mocks.UserRepositoryMock), nil, 20)
	router := setupThreadRouter(handler)

	req := httptest.NewRequest(http.MethodDelete, "/threads/abc", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
}
