package borrowing

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"shelftrack/internal/constants"
	"shelftrack/internal/inventory"
	"shelftrack/internal/models"
	"shelftrack/internal/utils"
)

var (
	ErrUserNotFound    = errors.New("user not found")
	ErrLimitExceeded   = errors.New("you can only borrow 3 books at a time")
	ErrDuplicateBorrow = errors.New("you have already borrowed this book")
	ErrNotBorrowed     = errors.New("you have not borrowed this book")
)

// Coordinator owns per-user borrow records and mediates copy-count changes
// against the inventory ledger.
type Coordinator struct {
	Users       *mongo.Collection
	Ledger      *inventory.Ledger
	AuditLogger utils.AuditLogger
	BorrowLimit int
	LoanDays    int
}

func NewCoordinator(users *mongo.Collection, ledger *inventory.Ledger, logger utils.AuditLogger, borrowLimit, loanDays int) *Coordinator {
	return &Coordinator{
		Users:       users,
		Ledger:      ledger,
		AuditLogger: logger,
		BorrowLimit: borrowLimit,
		LoanDays:    loanDays,
	}
}

// Borrow checks the user's active-borrow count and duplicate holdings, takes
// one copy off the ledger, then appends the borrow record. The record push
// re-checks the duplicate rule in its filter, so two concurrent borrows of
// the same book by the same user cannot both land.
func (c *Coordinator) Borrow(ctx context.Context, userID, bookID primitive.ObjectID) error {
	var user models.User
	err := c.Users.FindOne(ctx, bson.M{"_id": userID}).Decode(&user)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return ErrUserNotFound
	}
	if err != nil {
		return err
	}

	if len(user.ActiveBorrows()) >= c.BorrowLimit {
		return ErrLimitExceeded
	}
	if user.HasActiveBorrow(bookID) {
		return ErrDuplicateBorrow
	}

	if _, err := c.Ledger.GetBook(ctx, bookID); err != nil {
		return err
	}
	if err := c.Ledger.DecrementAvailable(ctx, bookID); err != nil {
		return err
	}

	now := time.Now()
	record := models.BorrowRecord{
		BookID:       bookID,
		BorrowedDate: now,
		DueDate:      now.AddDate(0, 0, c.LoanDays),
		Returned:     false,
	}

	result, err := c.Users.UpdateOne(ctx,
		bson.M{
			"_id": userID,
			"borrowedBooks": bson.M{
				"$not": bson.M{"$elemMatch": bson.M{"bookId": bookID, "returned": false}},
			},
		},
		bson.M{"$push": bson.M{"borrowedBooks": record}},
	)
	if err != nil || result.MatchedCount == 0 {
		// The ledger copy was already taken; put it back and report the
		// partial write either way.
		report := bson.M{
			"userId": userID.Hex(),
			"bookId": bookID.Hex(),
			"error":  errString(err),
		}
		if compErr := c.Ledger.IncrementAvailable(ctx, bookID); compErr != nil {
			report["compensation"] = compErr.Error()
		} else {
			report["compensation"] = "copy restored"
		}
		c.AuditLogger.LogInconsistency(ctx, constants.Borrow, report)
		if err != nil {
			return err
		}
		return ErrDuplicateBorrow
	}

	c.AuditLogger.Log(ctx, models.UserEntity, constants.Borrow, record)
	return nil
}

// Return finalizes the single active record for (user, book) with one
// positional update, then puts the copy back on the ledger.
func (c *Coordinator) Return(ctx context.Context, userID, bookID primitive.ObjectID) error {
	result, err := c.Users.UpdateOne(ctx,
		bson.M{
			"_id":           userID,
			"borrowedBooks": bson.M{"$elemMatch": bson.M{"bookId": bookID, "returned": false}},
		},
		bson.M{"$set": bson.M{"borrowedBooks.$.returned": true}},
	)
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return ErrNotBorrowed
	}

	if err := c.Ledger.IncrementAvailable(ctx, bookID); err != nil {
		// The record is already finalized. A deleted book leaves nothing to
		// increment, which is the tolerated orphaned-reference case; anything
		// else is a genuine partial write.
		if errors.Is(err, inventory.ErrBookNotFound) {
			c.AuditLogger.Log(ctx, models.BookEntity, constants.Return, bson.M{
				"bookId": bookID.Hex(),
				"note":   "returned a deleted book, no counters to restore",
			})
			return nil
		}
		c.AuditLogger.LogInconsistency(ctx, constants.Return, bson.M{
			"userId": userID.Hex(),
			"bookId": bookID.Hex(),
			"error":  err.Error(),
		})
		return err
	}

	c.AuditLogger.Log(ctx, models.UserEntity, constants.Return, bson.M{
		"userId": userID.Hex(),
		"bookId": bookID.Hex(),
	})
	return nil
}

// BookRef is the subset of book fields shown alongside a borrow record.
type BookRef struct {
	ID       primitive.ObjectID `json:"id"`
	Title    string             `json:"title"`
	Author   string             `json:"author"`
	ISBN     string             `json:"isbn"`
	ImageURL string             `json:"imageUrl"`
}

// ResolvedRecord is a borrow record with its book resolved for display.
// Book is null when the referenced book has since been deleted.
type ResolvedRecord struct {
	models.BorrowRecord
	Book *BookRef `json:"book"`
}

// ListActive returns the user's unreturned records, in insertion order.
func (c *Coordinator) ListActive(ctx context.Context, userID primitive.ObjectID) ([]ResolvedRecord, error) {
	return c.list(ctx, userID, true)
}

// ListHistory returns every record the user ever created, active or
// returned, in insertion order.
func (c *Coordinator) ListHistory(ctx context.Context, userID primitive.ObjectID) ([]ResolvedRecord, error) {
	return c.list(ctx, userID, false)
}

func (c *Coordinator) list(ctx context.Context, userID primitive.ObjectID, activeOnly bool) ([]ResolvedRecord, error) {
	var user models.User
	err := c.Users.FindOne(ctx, bson.M{"_id": userID}).Decode(&user)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}

	records := user.BorrowedBooks
	if activeOnly {
		records = user.ActiveBorrows()
	}
	if len(records) == 0 {
		return []ResolvedRecord{}, nil
	}

	ids := make([]primitive.ObjectID, 0, len(records))
	for _, rec := range records {
		ids = append(ids, rec.BookID)
	}

	cursor, err := c.Ledger.Books.Find(ctx, bson.M{"_id": bson.M{"$in": ids}})
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var books []models.Book
	if err := cursor.All(ctx, &books); err != nil {
		return nil, err
	}

	refs := make(map[primitive.ObjectID]*BookRef, len(books))
	for _, b := range books {
		refs[b.ID] = &BookRef{
			ID:       b.ID,
			Title:    b.Title,
			Author:   b.Author,
			ISBN:     b.ISBN,
			ImageURL: b.ImageURL,
		}
	}

	resolved := make([]ResolvedRecord, 0, len(records))
	for _, rec := range records {
		resolved = append(resolved, ResolvedRecord{
			BorrowRecord: rec,
			Book:         refs[rec.BookID],
		})
	}
	return resolved, nil
}

// ListUsers returns every user without the password hash, for the admin
// console.
func (c *Coordinator) ListUsers(ctx context.Context) ([]models.User, error) {
	cursor, err := c.Users.Find(ctx, bson.M{})
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	users := []models.User{}
	if err := cursor.All(ctx, &users); err != nil {
		return nil, err
	}
	for i := range users {
		users[i].Password = ""
	}
	return users, nil
}

// UserStats summarizes the user base for the admin dashboard.
type UserStats struct {
	TotalUsers   int64 `json:"totalUsers"`
	AdminUsers   int64 `json:"adminUsers"`
	RegularUsers int64 `json:"regularUsers"`
}

func (c *Coordinator) UserStats(ctx context.Context) (*UserStats, error) {
	total, err := c.Users.CountDocuments(ctx, bson.M{})
	if err != nil {
		return nil, err
	}
	admins, err := c.Users.CountDocuments(ctx, bson.M{"role": models.RoleAdmin})
	if err != nil {
		return nil, err
	}
	regular, err := c.Users.CountDocuments(ctx, bson.M{"role": models.RoleUser})
	if err != nil {
		return nil, err
	}
	return &UserStats{
		TotalUsers:   total,
		AdminUsers:   admins,
		RegularUsers: regular,
	}, nil
}

func errString(err error) string {
	if err == nil {
		return "push matched no user document"
	}
	return err.Error()
}
