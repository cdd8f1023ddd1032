package service

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tourismcam/internal/models"
)

func TestCommentService_AddComment(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, "")
	author := f.register(t, "author@example.com", "Author").User
	demo := f.register(t, "demo@example.com", "Demo").User
	p := f.post(t, author.ID, "Waza park", "Far North")

	resp, err := f.comments.AddComment(ctx, demo.ID, p.ID, models.CommentRequest{Content: "nice"})
	require.NoError(t, err)
	assert.Equal(t, p.CommentsCount+1, resp.CommentsCount)
	assert.Equal(t, "nice", resp.Comment.Content)
	assert.Equal(t, demo.Username, resp.Comment.Username)

	post, err := f.posts.GetPost(ctx, p.ID, author.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, post.CommentsCount)
	require.Len(t, post.RecentComments, 1)

	t.Run("validation", func(t *testing.T) {
		_, err := f.comments.AddComment(ctx, demo.ID, p.ID, models.CommentRequest{Content: "   "})
		assertValidationError(t, err)
		_, err = f.comments.AddComment(ctx, demo.ID, p.ID, models.CommentRequest{Content: strings.Repeat("x", 1001)})
		assertValidationError(t, err)
	})

	t.Run("missing post", func(t *testing.T) {
		_, err := f.comments.AddComment(ctx, demo.ID, 9999, models.CommentRequest{Content: "hi"})
		assertCode(t, err, models.CodeNotFound)
	})

	t.Run("reply to a comment on another post", func(t *testing.T) {
		other := f.post(t, author.ID, "Other", "Bamenda")
		parent := resp.Comment.ID
		_, err := f.comments.AddComment(ctx, demo.ID, other.ID, models.CommentRequest{Content: "hi", ParentCommentID: &parent})
		assertValidationError(t, err)
	})
}

func TestCommentService_EditAndDelete(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, "")
	author := f.register(t, "author@example.com", "Author").User
	commenter := f.register(t, "commenter@example.com", "Commenter").User
	stranger := f.register(t, "stranger@example.com", "Stranger").User
	p := f.post(t, author.ID, "Dja reserve", "East")

	c, err := f.comments.AddComment(ctx, commenter.ID, p.ID, models.CommentRequest{Content: "first"})
	require.NoError(t, err)

	_, err = f.comments.EditComment(ctx, author.ID, p.ID, c.Comment.ID, models.UpdateCommentRequest{Content: "hijack"})
	assertCode(t, err, models.CodeForbidden)

	edited, err := f.comments.EditComment(ctx, commenter.ID, p.ID, c.Comment.ID, models.UpdateCommentRequest{Content: "edited"})
	require.NoError(t, err)
	assert.Equal(t, "edited", edited.Comment.Content)
	assert.True(t, edited.Comment.IsEdited)
	assert.Equal(t, 1, edited.CommentsCount)

	_, err = f.comments.EditComment(ctx, commenter.ID, p.ID+1, c.Comment.ID, models.UpdateCommentRequest{Content: "x"})
	assertCode(t, err, models.CodeNotFound)

	_, err = f.comments.DeleteComment(ctx, stranger.ID, p.ID, c.Comment.ID)
	assertCode(t, err, models.CodeForbidden)

	del, err := f.comments.DeleteComment(ctx, author.ID, p.ID, c.Comment.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, del.CommentsCount)
	assert.Equal(t, c.Comment.ID, del.CommentID)

	list, err := f.comments.ListComments(ctx, p.ID, 10, 0, 0)
	require.NoError(t, err)
	assert.Empty(t, list.Comments)
}
