package models

import "time"

// DateLayout is the format of Post.Date.
const DateLayout = "2006-01-02"

type Post struct {
	ID          int64     `db:"id" json:"id"`
	UserID      int64     `db:"user_id" json:"user_id"`
	Title       string    `db:"title" json:"title"`
	Image       string    `db:"image" json:"image"`
	Description string    `db:"description" json:"description"`
	Likes       int64     `db:"likes" json:"likes"`
	Comments    int64     `db:"comments" json:"comments"`
	Date        string    `db:"date" json:"date"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
}

type PostWithAuthor struct {
	Post
	AuthorName  string `db:"author_name" json:"author_name"`
	AuthorImage string `db:"author_image" json:"author_image"`
}

type Comment struct {
	ID          int64     `db:"id" json:"id"`
	PostID      int64     `db:"post_id" json:"post_id"`
	UserID      int64     `db:"user_id" json:"user_id"`
	Body        string    `db:"body" json:"body"`
	CommentedOn string    `db:"commented_on" json:"commented_on"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
}

type CommentWithAuthor struct {
	Comment
	AuthorName  string `db:"author_name" json:"author_name"`
	AuthorImage string `db:"author_image" json:"author_image"`
}

type Like struct {
	ID     int64 `db:"id" json:"id"`
	PostID int64 `db:"post_id" json:"post_id"`
	UserID int64 `db:"user_id" json:"user_id"`
}
