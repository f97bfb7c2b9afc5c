package objects

import "time"

type PostInfo struct {
	ID          int64      `json:"id"`
	Slug        string     `json:"slug"`
	AuthorID    *int64     `json:"authorID,omitempty"`
	Title       string     `json:"title"`
	Excerpt     string     `json:"excerpt"`
	Body        string     `json:"body,omitempty"`
	CoverURL    string     `json:"coverURL"`
	Published   bool       `json:"published"`
	PublishedAt *time.Time `json:"publishedAt,omitempty"`
	LikeCount   int64      `json:"likeCount"`
	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt"`
}

type CommentInfo struct {
	ID         int64     `json:"id"`
	PostID     int64     `json:"postID"`
	AuthorName string    `json:"authorName"`
	Body       string    `json:"body"`
	Approved   bool      `json:"approved"`
	CreatedAt  time.Time `json:"createdAt"`
}
