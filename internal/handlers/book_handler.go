package handlers

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"shelftrack/internal/constants"
	"shelftrack/internal/inventory"
	"shelftrack/internal/models"
	"shelftrack/internal/utils"
)

type BookHandler struct {
	Ledger      *inventory.Ledger
	AuditLogger utils.AuditLogger
}

func NewBookHandler(ledger *inventory.Ledger, logger utils.AuditLogger) *BookHandler {
	return &BookHandler{Ledger: ledger, AuditLogger: logger}
}

// GET /api/books
func (h *BookHandler) GetBooks(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	q := r.URL.Query()
	filter := inventory.QueryFilter{
		Search:   q.Get("search"),
		Category: q.Get("category"),
		Author:   q.Get("author"),
		Page:     parseInt64(q.Get("page"), 1),
		Limit:    parseInt64(q.Get("limit"), 10),
	}

	books, total, err := h.Ledger.Query(ctx, filter)
	if err != nil {
		utils.JSONError(w, "Failed to fetch books", http.StatusInternalServerError)
		return
	}
	if books == nil {
		books = []models.Book{}
	}

	utils.Respond(w, http.StatusOK, map[string]any{
		"count": len(books),
		"total": total,
		"books": books,
	})
}

// GET /api/books/{id}
func (h *BookHandler) GetBook(w http.ResponseWriter, r *http.Request) {
	id, err := primitive.ObjectIDFromHex(mux.Vars(r)["id"])
	if err != nil {
		utils.JSONError(w, "Invalid book id", http.StatusBadRequest)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	book, err := h.Ledger.GetBook(ctx, id)
	if errors.Is(err, inventory.ErrBookNotFound) {
		utils.JSONError(w, "Book not found", http.StatusNotFound)
		return
	}
	if err != nil {
		utils.JSONError(w, "Failed to fetch book", http.StatusInternalServerError)
		return
	}

	utils.Respond(w, http.StatusOK, map[string]any{"book": book})
}

// POST /api/books
func (h *BookHandler) CreateBook(w http.ResponseWriter, r *http.Request) {
	var book models.Book
	if err := utils.DecodeBody(r, &book); err != nil {
		utils.JSONError(w, "Invalid JSON payload", http.StatusBadRequest)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	created, err := h.Ledger.CreateBook(ctx, book)
	if err != nil {
		var vErr *models.ValidationError
		switch {
		case errors.As(err, &vErr):
			utils.JSONError(w, vErr.Error(), http.StatusBadRequest)
		case errors.Is(err, inventory.ErrDuplicateISBN):
			utils.JSONError(w, err.Error(), http.StatusBadRequest)
		default:
			utils.JSONError(w, "Insert failed: "+err.Error(), http.StatusInternalServerError)
		}
		return
	}

	h.AuditLogger.Log(ctx, models.BookEntity, constants.Create, created)

	utils.Respond(w, http.StatusCreated, map[string]any{"book": created})
}

// PUT /api/books/{id}
func (h *BookHandler) UpdateBook(w http.ResponseWriter, r *http.Request) {
	id, err := primitive.ObjectIDFromHex(mux.Vars(r)["id"])
	if err != nil {
		utils.JSONError(w, "Invalid book id", http.StatusBadRequest)
		return
	}

	var update inventory.BookUpdate
	if err := utils.DecodeBody(r, &update); err != nil {
		utils.JSONError(w, "Invalid JSON payload", http.StatusBadRequest)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	book, err := h.Ledger.UpdateBook(ctx, id, update)
	if err != nil {
		var vErr *models.ValidationError
		switch {
		case errors.Is(err, inventory.ErrBookNotFound):
			utils.JSONError(w, "Book not found", http.StatusNotFound)
		case errors.As(err, &vErr):
			utils.JSONError(w, vErr.Error(), http.StatusBadRequest)
		case errors.Is(err, inventory.ErrDuplicateISBN):
			utils.JSONError(w, err.Error(), http.StatusBadRequest)
		default:
			utils.JSONError(w, "Update failed: "+err.Error(), http.StatusInternalServerError)
		}
		return
	}

	h.AuditLogger.Log(ctx, models.BookEntity, constants.Update, book)

	utils.Respond(w, http.StatusOK, map[string]any{"book": book})
}

// DELETE /api/books/{id}
func (h *BookHandler) DeleteBook(w http.ResponseWriter, r *http.Request) {
	id, err := primitive.ObjectIDFromHex(mux.Vars(r)["id"])
	if err != nil {
		utils.JSONError(w, "Invalid book id", http.StatusBadRequest)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	if err := h.Ledger.DeleteBook(ctx, id); err != nil {
		if errors.Is(err, inventory.ErrBookNotFound) {
			utils.JSONError(w, "Book not found", http.StatusNotFound)
			return
		}
		utils.JSONError(w, "Delete failed", http.StatusInternalServerError)
		return
	}

	h.AuditLogger.Log(ctx, models.BookEntity, constants.Delete, id.Hex())

	utils.Respond(w, http.StatusOK, map[string]any{"message": "Book deleted successfully"})
}

// GET /api/books/stats
func (h *BookHandler) GetBookStats(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	stats, err := h.Ledger.Stats(ctx)
	if err != nil {
		utils.JSONError(w, "Failed to fetch stats", http.StatusInternalServerError)
		return
	}

	utils.Respond(w, http.StatusOK, map[string]any{"stats": stats})
}

func parseInt64(s string, fallback int64) int64 {
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil || n < 1 {
		return fallback
	}
	return n
}
