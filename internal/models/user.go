package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"

	UserEntity = "user"
)

var validRoles = map[string]bool{
	string(RoleUser):  true,
	string(RoleAdmin): true,
}

func IsValidRole(role string) bool {
	return validRoles[role]
}

type User struct {
	ID            primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Name          string             `bson:"name" json:"name"`
	Email         string             `bson:"email" json:"email"`
	Password      string             `bson:"password" json:"-"`
	Role          Role               `bson:"role" json:"role"`
	BorrowedBooks []BorrowRecord     `bson:"borrowedBooks" json:"borrowedBooks"`
	CreatedAt     time.Time          `bson:"createdAt" json:"createdAt"`
}

// BorrowRecord is append-only on the user document. A record is never
// removed; Returned flips to true exactly once and the record is
// immutable after that.
type BorrowRecord struct {
	BookID       primitive.ObjectID `bson:"bookId" json:"bookId"`
	BorrowedDate time.Time          `bson:"borrowedDate" json:"borrowedDate"`
	DueDate      time.Time          `bson:"dueDate" json:"dueDate"`
	Returned     bool               `bson:"returned" json:"returned"`
}

// ActiveBorrows returns the records still out on loan, in insertion order.
func (u *User) ActiveBorrows() []BorrowRecord {
	var active []BorrowRecord
	for _, rec := range u.BorrowedBooks {
		if !rec.Returned {
			active = append(active, rec)
		}
	}
	return active
}

// HasActiveBorrow reports whether the user currently holds the given book.
func (u *User) HasActiveBorrow(bookID primitive.ObjectID) bool {
	for _, rec := range u.BorrowedBooks {
		if !rec.Returned && rec.BookID == bookID {
			return true
		}
	}
	return false
}
