package models

import "time"

const (
	FriendRequestPending  = "pending"
	FriendRequestAccepted = "accepted"
)

type FriendRequest struct {
	ID         int64     `db:"id" json:"id"`
	FromUserID int64     `db:"from_user_id" json:"from_user_id"`
	ToUserID   int64     `db:"to_user_id" json:"to_user_id"`
	Status     string    `db:"status" json:"status"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
}

// FriendRequestView is an edge joined with the other party's public fields.
type FriendRequestView struct {
	FriendRequest
	OtherName  string `db:"other_name" json:"other_name"`
	OtherImage string `db:"other_image" json:"other_image"`
}
