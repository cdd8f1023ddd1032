package server

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tourismcam/internal/models"
)

func TestCommentLifecycle(t *testing.T) {
	_, app := newTestServer(t)
	author := registerUser(t, app, "author@example.com", "Author")
	demo := registerUser(t, app, "demo@example.com", "Demo")
	p := createPost(t, app, author.Token, models.CreatePostRequest{Caption: "Lake Nyos"})
	base := fmt.Sprintf("/api/posts/%d/comments", p.ID)

	resp := doJSON(t, app, http.MethodPost, base, models.CommentRequest{Content: "nice"}, demo.Token)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var created models.CommentResponse
	decode(t, resp, &created)
	assert.Equal(t, 1, created.CommentsCount)
	assert.Equal(t, demo.User.Username, created.Comment.Username)

	resp = doJSON(t, app, http.MethodGet, fmt.Sprintf("/api/posts/%d", p.ID), nil, "")
	var post models.Post
	decode(t, resp, &post)
	assert.Equal(t, 1, post.CommentsCount)
	require.Len(t, post.RecentComments, 1)
	assert.Equal(t, "nice", post.RecentComments[0].Content)

	commentPath := fmt.Sprintf("%s/%d", base, created.Comment.ID)
	resp = doJSON(t, app, http.MethodPut, commentPath, models.UpdateCommentRequest{Content: "very nice"}, demo.Token)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var edited models.CommentResponse
	decode(t, resp, &edited)
	assert.True(t, edited.Comment.IsEdited)

	resp = doJSON(t, app, http.MethodGet, base, nil, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var list models.CommentListResponse
	decode(t, resp, &list)
	require.Len(t, list.Comments, 1)
	assert.Equal(t, "very nice", list.Comments[0].Content)

	resp = doJSON(t, app, http.MethodDelete, commentPath, nil, demo.Token)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var deleted models.CommentDeleteResponse
	decode(t, resp, &deleted)
	assert.Equal(t, 0, deleted.CommentsCount)

	resp = doJSON(t, app, http.MethodPut, fmt.Sprintf("%s/abc", base), models.UpdateCommentRequest{Content: "x"}, demo.Token)
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	var bad models.ErrorResponse
	decode(t, resp, &bad)
	assert.Equal(t, "Invalid comment ID", bad.Error)
}

func TestUserEndpoints(t *testing.T) {
	_, app := newTestServer(t)
	ada := registerUser(t, app, "ada@example.com", "Ada Lovelace")
	createPost(t, app, ada.Token, models.CreatePostRequest{Caption: "Bafut palace"})

	resp := doJSON(t, app, http.MethodGet, fmt.Sprintf("/api/users/%d", ada.User.ID), nil, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var profile models.UserResponse
	decode(t, resp, &profile)
	assert.Equal(t, 1, profile.User.PostCount)

	resp = doJSON(t, app, http.MethodGet, fmt.Sprintf("/api/users/%d/posts", ada.User.ID), nil, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var posts models.PostListResponse
	decode(t, resp, &posts)
	assert.Len(t, posts.Posts, 1)

	resp = doJSON(t, app, http.MethodGet, "/api/users/search?q=lovelace", nil, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var found models.UserListResponse
	decode(t, resp, &found)
	require.Len(t, found.Users, 1)

	resp = doJSON(t, app, http.MethodGet, "/api/users/404", nil, "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestPageGate(t *testing.T) {
	_, app := newTestServer(t)

	resp := doJSON(t, app, http.MethodGet, "/upload", nil, "")
	assert.Equal(t, http.StatusFound, resp.StatusCode)
	assert.Equal(t, "/login?redirect=%2Fupload", resp.Header.Get("Location"))
}
