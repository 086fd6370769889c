package models

import (
	"fmt"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	BookEntity = "book"

	DefaultImageURL = "https://via.placeholder.com/300x400?text=No+Image"

	MaxTitleLen        = 100
	MaxAuthorLen       = 50
	MaxCategoryLen     = 30
	MaxDescriptionLen  = 500
	MinPublicationYear = 1000
)

type Book struct {
	ID              primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Title           string             `bson:"title" json:"title"`
	Author          string             `bson:"author" json:"author"`
	ISBN            string             `bson:"isbn" json:"isbn"`
	Category        string             `bson:"category" json:"category"`
	PublicationYear int                `bson:"publicationYear" json:"publicationYear"`
	ImageURL        string             `bson:"imageUrl" json:"imageUrl"`
	Description     string             `bson:"description" json:"description"`
	Availability    bool               `bson:"availability" json:"availability"`
	TotalCopies     int                `bson:"totalCopies" json:"totalCopies"`
	AvailableCopies int                `bson:"availableCopies" json:"availableCopies"`
	CreatedAt       time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt       time.Time          `bson:"updatedAt" json:"updatedAt"`
}

// FieldViolation is one failed validation check on a named field.
type FieldViolation struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationError collects every violation found in a single pass.
type ValidationError struct {
	Violations []FieldViolation `json:"violations"`
}

func (e *ValidationError) Error() string {
	msgs := make([]string, 0, len(e.Violations))
	for _, v := range e.Violations {
		msgs = append(msgs, v.Field+": "+v.Message)
	}
	return "validation failed: " + strings.Join(msgs, ", ")
}

// Validate checks every bound on the book's metadata and returns all
// violations at once, or nil when the book is well-formed.
func (b *Book) Validate() error {
	var violations []FieldViolation

	add := func(field, msg string) {
		violations = append(violations, FieldViolation{Field: field, Message: msg})
	}

	if strings.TrimSpace(b.Title) == "" {
		add("title", "title is required")
	} else if len(b.Title) > MaxTitleLen {
		add("title", fmt.Sprintf("title cannot be more than %d characters", MaxTitleLen))
	}

	if strings.TrimSpace(b.Author) == "" {
		add("author", "author is required")
	} else if len(b.Author) > MaxAuthorLen {
		add("author", fmt.Sprintf("author cannot be more than %d characters", MaxAuthorLen))
	}

	if strings.TrimSpace(b.ISBN) == "" {
		add("isbn", "isbn is required")
	}

	if strings.TrimSpace(b.Category) == "" {
		add("category", "category is required")
	} else if len(b.Category) > MaxCategoryLen {
		add("category", fmt.Sprintf("category cannot be more than %d characters", MaxCategoryLen))
	}

	if len(b.Description) > MaxDescriptionLen {
		add("description", fmt.Sprintf("description cannot be more than %d characters", MaxDescriptionLen))
	}

	if b.PublicationYear < MinPublicationYear {
		add("publicationYear", "publication year must be valid")
	} else if b.PublicationYear > time.Now().Year() {
		add("publicationYear", "publication year cannot be in the future")
	}

	if b.TotalCopies < 1 {
		add("totalCopies", "total copies must be at least 1")
	}

	if len(violations) > 0 {
		return &ValidationError{Violations: violations}
	}
	return nil
}
