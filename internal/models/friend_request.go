package models

import "time"

// FriendRequestStatus defines the state of a friend request.
type FriendRequestStatus string

const (
	// StatusPending means the request has been sent but not yet answered.
	StatusPending FriendRequestStatus = "pending"

	// StatusAccepted means the recipient accepted; the two accounts are friends.
	StatusAccepted FriendRequestStatus = "accepted"

	// StatusDeclined means the recipient declined. Terminal.
	StatusDeclined FriendRequestStatus = "declined"

	// StatusCanceled means the sender withdrew the pending request. Terminal.
	StatusCanceled FriendRequestStatus = "canceled"
)

// FriendRequest is a directed edge between two accounts. The unique index on
// (from, to) is the storage-level backstop against two concurrent sends for
// the same ordered pair; application checks run inside the same transaction
// as the write.
type FriendRequest struct {
	ID            uint                `gorm:"primaryKey"`
	FromAccountID uint                `gorm:"not null;uniqueIndex:uq_friend_request_one_direction"`
	ToAccountID   uint                `gorm:"not null;uniqueIndex:uq_friend_request_one_direction;index"`
	Status        FriendRequestStatus `gorm:"type:varchar(10);not null;default:'pending';index"`
	CreatedAt     time.Time
	RespondedAt   *time.Time // set exactly once, on the transition out of pending

	FromAccount Account `gorm:"foreignKey:FromAccountID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;"`
	ToAccount   Account `gorm:"foreignKey:ToAccountID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;"`
}
