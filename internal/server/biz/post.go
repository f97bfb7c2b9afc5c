package biz

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"strings"

	"go.uber.org/fx"

	"github.com/mercatohq/mercato/internal/contexts"
	"github.com/mercatohq/mercato/internal/objects"
	"github.com/mercatohq/mercato/internal/server/db"
)

type PostServiceParams struct {
	fx.In

	DB *db.DB
}

func NewPostService(params PostServiceParams) *PostService {
	return &PostService{db: params.DB}
}

type PostService struct {
	db *db.DB
}

type CreatePostInput struct {
	Title    string
	Slug     string
	Excerpt  string
	Body     string
	CoverURL string
}

type UpdatePostInput struct {
	Title    *string
	Slug     *string
	Excerpt  *string
	Body     *string
	CoverURL *string
}

type CreateCommentInput struct {
	AuthorName string
	Body       string
}

func (s *PostService) CreatePost(ctx context.Context, input CreatePostInput) (*objects.PostInfo, error) {
	input.Title = strings.TrimSpace(input.Title)
	if input.Title == "" {
		return nil, invalid("title", "must not be empty")
	}

	if input.Slug == "" {
		input.Slug = Slugify(input.Title)
	} else if input.Slug != Slugify(input.Slug) {
		return nil, invalid("slug", "must contain only lowercase letters, digits and dashes")
	}

	ident, _ := contexts.GetIdentity(ctx)

	var authorID *int64

	if ident != nil {
		if id, err := strconv.ParseInt(ident.SubjectID, 10, 64); err == nil {
			authorID = &id
		}
	}

	info, err := db.Run(ctx, s.db, ident, func(ctx context.Context, tx *sql.Tx) (*objects.PostInfo, error) {
		var p objects.PostInfo

		err := tx.QueryRowContext(ctx,
			`INSERT INTO posts (slug, author_id, title, excerpt, body, cover_url)
			 VALUES ($1, $2, $3, $4, $5, $6)
			 RETURNING id, slug, author_id, title, excerpt, body, cover_url, published, published_at, created_at, updated_at`,
			input.Slug, authorID, input.Title, input.Excerpt, input.Body, input.CoverURL,
		).Scan(&p.ID, &p.Slug, &p.AuthorID, &p.Title, &p.Excerpt, &p.Body, &p.CoverURL,
			&p.Published, &p.PublishedAt, &p.CreatedAt, &p.UpdatedAt)
		if err != nil {
			return nil, fmt.Errorf("insert post: %w", err)
		}

		return &p, nil
	})
	if err != nil {
		return nil, storeError(ctx, err)
	}

	return info, nil
}

func (s *PostService) UpdatePost(ctx context.Context, id int64, input UpdatePostInput) (*objects.PostInfo, error) {
	if input.Slug != nil {
		if *input.Slug == "" || *input.Slug != Slugify(*input.Slug) {
			return nil, invalid("slug", "must contain only lowercase letters, digits and dashes")
		}
	}

	ident, _ := contexts.GetIdentity(ctx)

	info, err := db.Run(ctx, s.db, ident, func(ctx context.Context, tx *sql.Tx) (*objects.PostInfo, error) {
		var p objects.PostInfo

		err := tx.QueryRowContext(ctx,
			`UPDATE posts SET
				title      = COALESCE($2, title),
				slug       = COALESCE($3, slug),
				excerpt    = COALESCE($4, excerpt),
				body       = COALESCE($5, body),
				cover_url  = COALESCE($6, cover_url),
				updated_at = now()
			 WHERE id = $1
			 RETURNING id, slug, author_id, title, excerpt, body, cover_url, published, published_at, created_at, updated_at`,
			id, input.Title, input.Slug, input.Excerpt, input.Body, input.CoverURL,
		).Scan(&p.ID, &p.Slug, &p.AuthorID, &p.Title, &p.Excerpt, &p.Body, &p.CoverURL,
			&p.Published, &p.PublishedAt, &p.CreatedAt, &p.UpdatedAt)
		if err != nil {
			return nil, fmt.Errorf("update post: %w", err)
		}

		return &p, nil
	})
	if err != nil {
		return nil, storeError(ctx, err)
	}

	return info, nil
}

// SetPostPublished publishes or unpublishes a post, stamping published_at on
// the first publish.
func (s *PostService) SetPostPublished(ctx context.Context, id int64, published bool) (*objects.PostInfo, error) {
	ident, _ := contexts.GetIdentity(ctx)

	info, err := db.Run(ctx, s.db, ident, func(ctx context.Context, tx *sql.Tx) (*objects.PostInfo, error) {
		var p objects.PostInfo

		err := tx.QueryRowContext(ctx,
			`UPDATE posts SET
				published    = $2,
				published_at = CASE WHEN $2 AND published_at IS NULL THEN now() ELSE published_at END,
				updated_at   = now()
			 WHERE id = $1
			 RETURNING id, slug, author_id, title, excerpt, body, cover_url, published, published_at, created_at, updated_at`,
			id, published,
		).Scan(&p.ID, &p.Slug, &p.AuthorID, &p.Title, &p.Excerpt, &p.Body, &p.CoverURL,
			&p.Published, &p.PublishedAt, &p.CreatedAt, &p.UpdatedAt)
		if err != nil {
			return nil, fmt.Errorf("publish post: %w", err)
		}

		return &p, nil
	})
	if err != nil {
		return nil, storeError(ctx, err)
	}

	return info, nil
}

func (s *PostService) DeletePost(ctx context.Context, id int64) error {
	ident, _ := contexts.GetIdentity(ctx)

	err := s.db.InTx(ctx, ident, func(ctx context.Context, tx *sql.Tx) error {
		result, err := tx.ExecContext(ctx, `DELETE FROM posts WHERE id = $1`, id)
		if err != nil {
			return fmt.Errorf("delete post: %w", err)
		}

		affected, err := result.RowsAffected()
		if err != nil {
			return err
		}

		if affected == 0 {
			return ErrNotFound
		}

		return nil
	})
	if err != nil {
		return storeError(ctx, err)
	}

	return nil
}

// GetPostBySlug returns one post with its like count and approved comments,
// subject to the caller's row visibility.
func (s *PostService) GetPostBySlug(ctx context.Context, postSlug string) (*objects.PostInfo, []objects.CommentInfo, error) {
	ident, _ := contexts.GetIdentity(ctx)

	type result struct {
		post     objects.PostInfo
		comments []objects.CommentInfo
	}

	res, err := db.Run(ctx, s.db, ident, func(ctx context.Context, tx *sql.Tx) (*result, error) {
		var r result

		err := tx.QueryRowContext(ctx,
			`SELECT p.id, p.slug, p.author_id, p.title, p.excerpt, p.body, p.cover_url, p.published, p.published_at,
				(SELECT count(*) FROM post_likes l WHERE l.post_id = p.id),
				p.created_at, p.updated_at
			 FROM posts p WHERE p.slug = $1`,
			postSlug,
		).Scan(&r.post.ID, &r.post.Slug, &r.post.AuthorID, &r.post.Title, &r.post.Excerpt, &r.post.Body,
			&r.post.CoverURL, &r.post.Published, &r.post.PublishedAt, &r.post.LikeCount,
			&r.post.CreatedAt, &r.post.UpdatedAt)
		if err != nil {
			return nil, fmt.Errorf("select post: %w", err)
		}

		rows, err := tx.QueryContext(ctx,
			`SELECT id, post_id, author_name, body, approved, created_at
			 FROM comments WHERE post_id = $1 ORDER BY created_at`,
			r.post.ID,
		)
		if err != nil {
			return nil, fmt.Errorf("select comments: %w", err)
		}
		defer rows.Close()

		for rows.Next() {
			var c objects.CommentInfo
			if err := rows.Scan(&c.ID, &c.PostID, &c.AuthorName, &c.Body, &c.Approved, &c.CreatedAt); err != nil {
				return nil, err
			}

			r.comments = append(r.comments, c)
		}

		return &r, rows.Err()
	})
	if err != nil {
		return nil, nil, storeError(ctx, err)
	}

	return &res.post, res.comments, nil
}

// ListPosts returns the posts visible to the caller, newest first.
func (s *PostService) ListPosts(ctx context.Context) ([]objects.PostInfo, error) {
	ident, _ := contexts.GetIdentity(ctx)

	posts, err := db.Run(ctx, s.db, ident, func(ctx context.Context, tx *sql.Tx) ([]objects.PostInfo, error) {
		rows, err := tx.QueryContext(ctx,
			`SELECT p.id, p.slug, p.author_id, p.title, p.excerpt, p.cover_url, p.published, p.published_at,
				(SELECT count(*) FROM post_likes l WHERE l.post_id = p.id),
				p.created_at, p.updated_at
			 FROM posts p
			 ORDER BY p.published_at DESC NULLS LAST, p.id DESC`,
		)
		if err != nil {
			return nil, fmt.Errorf("select posts: %w", err)
		}
		defer rows.Close()

		var out []objects.PostInfo

		for rows.Next() {
			var p objects.PostInfo
			if err := rows.Scan(&p.ID, &p.Slug, &p.AuthorID, &p.Title, &p.Excerpt, &p.CoverURL,
				&p.Published, &p.PublishedAt, &p.LikeCount, &p.CreatedAt, &p.UpdatedAt); err != nil {
				return nil, err
			}

			out = append(out, p)
		}

		return out, rows.Err()
	})
	if err != nil {
		return nil, storeError(ctx, err)
	}

	return posts, nil
}

// AddComment records an unapproved comment on a published post. Guests may
// comment; moderation happens before the comment becomes visible.
func (s *PostService) AddComment(ctx context.Context, postSlug string, input CreateCommentInput) (*objects.CommentInfo, error) {
	input.AuthorName = strings.TrimSpace(input.AuthorName)
	if input.AuthorName == "" {
		return nil, invalid("authorName", "must not be empty")
	}

	if strings.TrimSpace(input.Body) == "" {
		return nil, invalid("body", "must not be empty")
	}

	ident, _ := contexts.GetIdentity(ctx)

	info, err := db.Run(ctx, s.db, ident, func(ctx context.Context, tx *sql.Tx) (*objects.CommentInfo, error) {
		var c objects.CommentInfo

		err := tx.QueryRowContext(ctx,
			`INSERT INTO comments (post_id, author_name, body)
			 SELECT id, $2, $3 FROM posts WHERE slug = $1
			 RETURNING id, post_id, author_name, body, approved, created_at`,
			postSlug, input.AuthorName, input.Body,
		).Scan(&c.ID, &c.PostID, &c.AuthorName, &c.Body, &c.Approved, &c.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("insert comment: %w", err)
		}

		return &c, nil
	})
	if err != nil {
		return nil, storeError(ctx, err)
	}

	return info, nil
}

// LikePost records one like per visitor per post. Repeats are idempotent.
func (s *PostService) LikePost(ctx context.Context, postSlug, visitorID string) (int64, error) {
	if visitorID == "" {
		return 0, invalid("visitorID", "must not be empty")
	}

	ident, _ := contexts.GetIdentity(ctx)

	count, err := db.Run(ctx, s.db, ident, func(ctx context.Context, tx *sql.Tx) (int64, error) {
		var postID int64
		if err := tx.QueryRowContext(ctx, `SELECT id FROM posts WHERE slug = $1`, postSlug).Scan(&postID); err != nil {
			return 0, fmt.Errorf("select post: %w", err)
		}

		_, err := tx.ExecContext(ctx,
			`INSERT INTO post_likes (post_id, visitor_id) VALUES ($1, $2) ON CONFLICT DO NOTHING`,
			postID, visitorID,
		)
		if err != nil {
			return 0, fmt.Errorf("insert like: %w", err)
		}

		var count int64
		if err := tx.QueryRowContext(ctx, `SELECT count(*) FROM post_likes WHERE post_id = $1`, postID).Scan(&count); err != nil {
			return 0, fmt.Errorf("count likes: %w", err)
		}

		return count, nil
	})
	if err != nil {
		return 0, storeError(ctx, err)
	}

	return count, nil
}

// PendingComments lists unapproved comments for moderation.
func (s *PostService) PendingComments(ctx context.Context) ([]objects.CommentInfo, error) {
	ident, _ := contexts.GetIdentity(ctx)

	comments, err := db.Run(ctx, s.db, ident, func(ctx context.Context, tx *sql.Tx) ([]objects.CommentInfo, error) {
		rows, err := tx.QueryContext(ctx,
			`SELECT id, post_id, author_name, body, approved, created_at
			 FROM comments WHERE NOT approved ORDER BY created_at`,
		)
		if err != nil {
			return nil, fmt.Errorf("select pending comments: %w", err)
		}
		defer rows.Close()

		var out []objects.CommentInfo

		for rows.Next() {
			var c objects.CommentInfo
			if err := rows.Scan(&c.ID, &c.PostID, &c.AuthorName, &c.Body, &c.Approved, &c.CreatedAt); err != nil {
				return nil, err
			}

			out = append(out, c)
		}

		return out, rows.Err()
	})
	if err != nil {
		return nil, storeError(ctx, err)
	}

	return comments, nil
}

// ApproveComment marks a comment as visible.
func (s *PostService) ApproveComment(ctx context.Context, id int64) error {
	return s.setCommentState(ctx, `UPDATE comments SET approved = true WHERE id = $1`, id)
}

// DeleteComment removes a comment.
func (s *PostService) DeleteComment(ctx context.Context, id int64) error {
	return s.setCommentState(ctx, `DELETE FROM comments WHERE id = $1`, id)
}

func (s *PostService) setCommentState(ctx context.Context, query string, id int64) error {
	ident, _ := contexts.GetIdentity(ctx)

	err := s.db.InTx(ctx, ident, func(ctx context.Context, tx *sql.Tx) error {
		result, err := tx.ExecContext(ctx, query, id)
		if err != nil {
			return fmt.Errorf("moderate comment: %w", err)
		}

		affected, err := result.RowsAffected()
		if err != nil {
			return err
		}

		if affected == 0 {
			return ErrNotFound
		}

		return nil
	})
	if err != nil {
		return storeError(ctx, err)
	}

	return nil
}
