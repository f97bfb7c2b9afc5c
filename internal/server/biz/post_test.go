package biz

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var postColumns = []string{
	"id", "slug", "author_id", "title", "excerpt", "body", "cover_url",
	"published", "published_at", "created_at", "updated_at",
}

func TestCreatePostRecordsAuthor(t *testing.T) {
	database, mock := newMockDB(t)
	svc := NewPostService(PostServiceParams{DB: database})

	now := time.Now()

	mock.ExpectBegin()
	expectIdentity(mock, "7", "editor")
	mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO posts`)).
		WithArgs("maintenance-tips", int64(7), "Maintenance Tips", "", "Check the seals.", "").
		WillReturnRows(sqlmock.NewRows(postColumns).
			AddRow(1, "maintenance-tips", 7, "Maintenance Tips", "", "Check the seals.", "", false, nil, now, now))
	mock.ExpectCommit()

	post, err := svc.CreatePost(editorContext(), CreatePostInput{
		Title: "Maintenance Tips",
		Body:  "Check the seals.",
	})
	require.NoError(t, err)
	assert.Equal(t, "maintenance-tips", post.Slug)
	require.NotNil(t, post.AuthorID)
	assert.Equal(t, int64(7), *post.AuthorID)
	assert.False(t, post.Published)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCreatePostRejectsEmptyTitle(t *testing.T) {
	database, _ := newMockDB(t)
	svc := NewPostService(PostServiceParams{DB: database})

	_, err := svc.CreatePost(context.Background(), CreatePostInput{Title: " "})

	var vErr *ValidationError
	require.ErrorAs(t, err, &vErr)
	assert.Equal(t, "title", vErr.Field)
}

func TestGetPostBySlugNotFound(t *testing.T) {
	database, mock := newMockDB(t)
	svc := NewPostService(PostServiceParams{DB: database})

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(`FROM posts p WHERE p.slug = $1`)).
		WithArgs("missing").
		WillReturnError(sql.ErrNoRows)
	mock.ExpectRollback()

	_, _, err := svc.GetPostBySlug(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestAddCommentOnMissingPostIsNotFound(t *testing.T) {
	database, mock := newMockDB(t)
	svc := NewPostService(PostServiceParams{DB: database})

	// The insert selects the post id by slug; no matching post yields no row.
	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO comments`)).
		WithArgs("missing", "Ada", "Nice post").
		WillReturnError(sql.ErrNoRows)
	mock.ExpectRollback()

	_, err := svc.AddComment(context.Background(), "missing", CreateCommentInput{
		AuthorName: "Ada",
		Body:       "Nice post",
	})
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestAddCommentStartsUnapproved(t *testing.T) {
	database, mock := newMockDB(t)
	svc := NewPostService(PostServiceParams{DB: database})

	now := time.Now()

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO comments`)).
		WithArgs("maintenance-tips", "Ada", "Nice post").
		WillReturnRows(sqlmock.NewRows([]string{"id", "post_id", "author_name", "body", "approved", "created_at"}).
			AddRow(5, 1, "Ada", "Nice post", false, now))
	mock.ExpectCommit()

	comment, err := svc.AddComment(context.Background(), "maintenance-tips", CreateCommentInput{
		AuthorName: "Ada",
		Body:       "Nice post",
	})
	require.NoError(t, err)
	assert.False(t, comment.Approved)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestLikePostIsIdempotentPerVisitor(t *testing.T) {
	database, mock := newMockDB(t)
	svc := NewPostService(PostServiceParams{DB: database})

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT id FROM posts WHERE slug = $1`)).
		WithArgs("maintenance-tips").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(1))
	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO post_likes`)).
		WithArgs(int64(1), "visitor-a").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT count(*) FROM post_likes WHERE post_id = $1`)).
		WithArgs(int64(1)).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(3))
	mock.ExpectCommit()

	count, err := svc.LikePost(context.Background(), "maintenance-tips", "visitor-a")
	require.NoError(t, err)
	assert.Equal(t, int64(3), count)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestLikePostRequiresVisitor(t *testing.T) {
	database, _ := newMockDB(t)
	svc := NewPostService(PostServiceParams{DB: database})

	_, err := svc.LikePost(context.Background(), "maintenance-tips", "")

	var vErr *ValidationError
	require.ErrorAs(t, err, &vErr)
	assert.Equal(t, "visitorID", vErr.Field)
}

func TestApproveCommentNotFound(t *testing.T) {
	database, mock := newMockDB(t)
	svc := NewPostService(PostServiceParams{DB: database})

	mock.ExpectBegin()
	expectIdentity(mock, "7", "editor")
	mock.ExpectExec(regexp.QuoteMeta(`UPDATE comments SET approved = true WHERE id = $1`)).
		WithArgs(int64(99)).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	err := svc.ApproveComment(editorContext(), 99)
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, mock.ExpectationsWereMet())
}
