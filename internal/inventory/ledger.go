package inventory

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"shelftrack/internal/models"
)

var (
	ErrBookNotFound  = errors.New("book not found")
	ErrDuplicateISBN = errors.New("a book with this ISBN already exists")
	ErrUnavailable   = errors.New("book is not available")
)

// Ledger owns the books collection and keeps every book's copy counters and
// availability flag consistent across creates, edits, borrows and returns.
type Ledger struct {
	Books *mongo.Collection
}

func NewLedger(books *mongo.Collection) *Ledger {
	return &Ledger{Books: books}
}

// CreateBook validates the metadata, initializes the copy counters and
// inserts the book. The ISBN unique index turns a collision into
// ErrDuplicateISBN.
func (l *Ledger) CreateBook(ctx context.Context, book models.Book) (*models.Book, error) {
	if book.ImageURL == "" {
		book.ImageURL = models.DefaultImageURL
	}
	if err := book.Validate(); err != nil {
		return nil, err
	}

	now := time.Now()
	book.ID = primitive.NewObjectID()
	book.AvailableCopies = book.TotalCopies
	book.Availability = book.TotalCopies > 0
	book.CreatedAt = now
	book.UpdatedAt = now

	if _, err := l.Books.InsertOne(ctx, book); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil, ErrDuplicateISBN
		}
		return nil, err
	}
	return &book, nil
}

func (l *Ledger) GetBook(ctx context.Context, id primitive.ObjectID) (*models.Book, error) {
	var book models.Book
	err := l.Books.FindOne(ctx, bson.M{"_id": id}).Decode(&book)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrBookNotFound
	}
	if err != nil {
		return nil, err
	}
	return &book, nil
}

// BookUpdate carries the fields an admin may edit. Nil means "leave as is".
type BookUpdate struct {
	Title           *string `json:"title"`
	Author          *string `json:"author"`
	ISBN            *string `json:"isbn"`
	Category        *string `json:"category"`
	PublicationYear *int    `json:"publicationYear"`
	ImageURL        *string `json:"imageUrl"`
	Description     *string `json:"description"`
	TotalCopies     *int    `json:"totalCopies"`
}

// UpdateBook merges the update into the stored book, revalidates the whole
// document, and writes it back. When totalCopies changes the available count
// is recomputed with the clamped delta and the availability flag follows it,
// even if other fields change in the same request.
func (l *Ledger) UpdateBook(ctx context.Context, id primitive.ObjectID, update BookUpdate) (*models.Book, error) {
	old, err := l.GetBook(ctx, id)
	if err != nil {
		return nil, err
	}

	book := *old
	if update.Title != nil {
		book.Title = *update.Title
	}
	if update.Author != nil {
		book.Author = *update.Author
	}
	if update.ISBN != nil {
		book.ISBN = *update.ISBN
	}
	if update.Category != nil {
		book.Category = *update.Category
	}
	if update.PublicationYear != nil {
		book.PublicationYear = *update.PublicationYear
	}
	if update.ImageURL != nil {
		book.ImageURL = *update.ImageURL
	}
	if update.Description != nil {
		book.Description = *update.Description
	}
	if update.TotalCopies != nil {
		book.TotalCopies = *update.TotalCopies
		book.AvailableCopies = RecomputeAvailableCopies(old.TotalCopies, old.AvailableCopies, *update.TotalCopies)
		book.Availability = book.AvailableCopies > 0
	}

	if err := book.Validate(); err != nil {
		return nil, err
	}
	book.UpdatedAt = time.Now()

	result, err := l.Books.ReplaceOne(ctx, bson.M{"_id": id}, book)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil, ErrDuplicateISBN
		}
		return nil, err
	}
	if result.MatchedCount == 0 {
		return nil, ErrBookNotFound
	}
	return &book, nil
}

// DeleteBook removes the book. Borrow records referencing it are left in
// place; listings resolve them to a null book.
func (l *Ledger) DeleteBook(ctx context.Context, id primitive.ObjectID) error {
	result, err := l.Books.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if result.DeletedCount == 0 {
		return ErrBookNotFound
	}
	return nil
}

// DecrementAvailable takes one copy off the shelf. The filter requires a
// positive available count, so a race on the last copy resolves inside Mongo
// and the counter can never go below zero. Counter and availability flag
// change in the same pipeline update; either both land or neither does.
func (l *Ledger) DecrementAvailable(ctx context.Context, id primitive.ObjectID) error {
	result, err := l.Books.UpdateOne(ctx,
		bson.M{"_id": id, "availableCopies": bson.M{"$gt": 0}},
		bson.A{
			bson.M{"$set": bson.M{"availableCopies": bson.M{"$add": bson.A{"$availableCopies", -1}}}},
			bson.M{"$set": bson.M{"availability": bson.M{"$gt": bson.A{"$availableCopies", 0}}}},
		},
	)
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return ErrUnavailable
	}
	return nil
}

// IncrementAvailable puts a copy back. Increments only ever pair with a
// prior decrement, so the count cannot exceed totalCopies.
func (l *Ledger) IncrementAvailable(ctx context.Context, id primitive.ObjectID) error {
	result, err := l.Books.UpdateOne(ctx,
		bson.M{"_id": id},
		bson.M{
			"$inc": bson.M{"availableCopies": 1},
			"$set": bson.M{"availability": true},
		},
	)
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return ErrBookNotFound
	}
	return nil
}

// QueryFilter narrows the catalog listing. Search matches title, author or
// category; Category and Author narrow further on their own fields. All
// matches are case-insensitive substring matches.
type QueryFilter struct {
	Search   string
	Category string
	Author   string
	Page     int64
	Limit    int64
}

// Query returns one page of matching books, newest first, plus the total
// match count ignoring pagination.
func (l *Ledger) Query(ctx context.Context, filter QueryFilter) ([]models.Book, int64, error) {
	query := bson.M{}

	if filter.Search != "" {
		regex := primitive.Regex{Pattern: filter.Search, Options: "i"}
		query["$or"] = bson.A{
			bson.M{"title": regex},
			bson.M{"author": regex},
			bson.M{"category": regex},
		}
	}
	if filter.Category != "" {
		query["category"] = primitive.Regex{Pattern: filter.Category, Options: "i"}
	}
	if filter.Author != "" {
		query["author"] = primitive.Regex{Pattern: filter.Author, Options: "i"}
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	limit := filter.Limit
	if limit < 1 {
		limit = 10
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "createdAt", Value: -1}}).
		SetSkip((page - 1) * limit).
		SetLimit(limit)

	cursor, err := l.Books.Find(ctx, query, opts)
	if err != nil {
		return nil, 0, err
	}
	defer cursor.Close(ctx)

	var books []models.Book
	if err := cursor.All(ctx, &books); err != nil {
		return nil, 0, err
	}

	total, err := l.Books.CountDocuments(ctx, query)
	if err != nil {
		return nil, 0, err
	}
	return books, total, nil
}

// Stats summarizes the catalog for the admin dashboard.
type Stats struct {
	TotalBooks     int64 `json:"totalBooks"`
	AvailableBooks int64 `json:"availableBooks"`
	BorrowedBooks  int64 `json:"borrowedBooks"`
}

func (l *Ledger) Stats(ctx context.Context) (*Stats, error) {
	total, err := l.Books.CountDocuments(ctx, bson.M{})
	if err != nil {
		return nil, err
	}
	available, err := l.Books.CountDocuments(ctx, bson.M{"availability": true})
	if err != nil {
		return nil, err
	}
	return &Stats{
		TotalBooks:     total,
		AvailableBooks: available,
		BorrowedBooks:  total - available,
	}, nil
}

// EnsureIndexes creates the unique ISBN index backing ErrDuplicateISBN.
func (l *Ledger) EnsureIndexes(ctx context.Context) error {
	_, err := l.Books.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "isbn", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	return err
}
