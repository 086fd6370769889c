package handlers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"shelftrack/internal/borrowing"
	"shelftrack/internal/inventory"
	"shelftrack/internal/middleware"
	"shelftrack/internal/utils"
)

type UserHandler struct {
	Coordinator *borrowing.Coordinator
}

func NewUserHandler(coordinator *borrowing.Coordinator) *UserHandler {
	return &UserHandler{Coordinator: coordinator}
}

type borrowRequest struct {
	BookID string `json:"bookId"`
}

// POST /api/users/borrow
func (h *UserHandler) BorrowBook(w http.ResponseWriter, r *http.Request) {
	userID, ok := authedUserID(w, r)
	if !ok {
		return
	}

	var req borrowRequest
	if err := utils.DecodeBody(r, &req); err != nil {
		utils.JSONError(w, "Invalid JSON payload", http.StatusBadRequest)
		return
	}
	bookID, err := primitive.ObjectIDFromHex(req.BookID)
	if err != nil {
		utils.JSONError(w, "Invalid book id", http.StatusBadRequest)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	if err := h.Coordinator.Borrow(ctx, userID, bookID); err != nil {
		switch {
		case errors.Is(err, inventory.ErrBookNotFound):
			utils.JSONError(w, "Book not found", http.StatusNotFound)
		case errors.Is(err, borrowing.ErrUserNotFound):
			utils.JSONError(w, "User not found", http.StatusNotFound)
		case errors.Is(err, borrowing.ErrLimitExceeded),
			errors.Is(err, borrowing.ErrDuplicateBorrow),
			errors.Is(err, inventory.ErrUnavailable):
			utils.JSONError(w, err.Error(), http.StatusBadRequest)
		default:
			utils.JSONError(w, "Borrow failed: "+err.Error(), http.StatusInternalServerError)
		}
		return
	}

	utils.Respond(w, http.StatusOK, map[string]any{"message": "Book borrowed successfully"})
}

// POST /api/users/return
func (h *UserHandler) ReturnBook(w http.ResponseWriter, r *http.Request) {
	userID, ok := authedUserID(w, r)
	if !ok {
		return
	}

	var req borrowRequest
	if err := utils.DecodeBody(r, &req); err != nil {
		utils.JSONError(w, "Invalid JSON payload", http.StatusBadRequest)
		return
	}
	bookID, err := primitive.ObjectIDFromHex(req.BookID)
	if err != nil {
		utils.JSONError(w, "Invalid book id", http.StatusBadRequest)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	if err := h.Coordinator.Return(ctx, userID, bookID); err != nil {
		if errors.Is(err, borrowing.ErrNotBorrowed) {
			utils.JSONError(w, err.Error(), http.StatusBadRequest)
			return
		}
		utils.JSONError(w, "Return failed: "+err.Error(), http.StatusInternalServerError)
		return
	}

	utils.Respond(w, http.StatusOK, map[string]any{"message": "Book returned successfully"})
}

// GET /api/users/borrowed
func (h *UserHandler) GetBorrowedBooks(w http.ResponseWriter, r *http.Request) {
	userID, ok := authedUserID(w, r)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	records, err := h.Coordinator.ListActive(ctx, userID)
	if err != nil {
		if errors.Is(err, borrowing.ErrUserNotFound) {
			utils.JSONError(w, "User not found", http.StatusNotFound)
			return
		}
		utils.JSONError(w, "Failed to fetch borrowed books", http.StatusInternalServerError)
		return
	}

	utils.Respond(w, http.StatusOK, map[string]any{"borrowedBooks": records})
}

// GET /api/users/history
func (h *UserHandler) GetBorrowingHistory(w http.ResponseWriter, r *http.Request) {
	userID, ok := authedUserID(w, r)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	records, err := h.Coordinator.ListHistory(ctx, userID)
	if err != nil {
		if errors.Is(err, borrowing.ErrUserNotFound) {
			utils.JSONError(w, "User not found", http.StatusNotFound)
			return
		}
		utils.JSONError(w, "Failed to fetch history", http.StatusInternalServerError)
		return
	}

	utils.Respond(w, http.StatusOK, map[string]any{"history": records})
}

// GET /api/users
func (h *UserHandler) GetUsers(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	users, err := h.Coordinator.ListUsers(ctx)
	if err != nil {
		utils.JSONError(w, "Failed to fetch users", http.StatusInternalServerError)
		return
	}

	utils.Respond(w, http.StatusOK, map[string]any{"users": users})
}

// GET /api/users/stats
func (h *UserHandler) GetUserStats(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	stats, err := h.Coordinator.UserStats(ctx)
	if err != nil {
		utils.JSONError(w, "Failed to fetch stats", http.StatusInternalServerError)
		return
	}

	utils.Respond(w, http.StatusOK, map[string]any{"stats": stats})
}

func authedUserID(w http.ResponseWriter, r *http.Request) (primitive.ObjectID, bool) {
	hexID, ok := middleware.UserIDFromRequest(r)
	if !ok {
		utils.JSONError(w, "Not authorized, no token", http.StatusUnauthorized)
		return primitive.NilObjectID, false
	}
	userID, err := primitive.ObjectIDFromHex(hexID)
	if err != nil {
		utils.JSONError(w, "Not authorized, token failed", http.StatusUnauthorized)
		return primitive.NilObjectID, false
	}
	return userID, true
}
