package handlers

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"golang.org/x/crypto/bcrypt"

	"shelftrack/internal/models"
	"shelftrack/internal/utils"
)

type AuthHandler struct {
	Users *mongo.Collection
}

func NewAuthHandler(users *mongo.Collection) *AuthHandler {
	return &AuthHandler{Users: users}
}

type registerRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Role     string `json:"role"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// POST /api/auth/register
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := utils.DecodeBody(r, &req); err != nil {
		utils.JSONError(w, "Invalid JSON payload", http.StatusBadRequest)
		return
	}

	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if req.Name == "" || req.Email == "" || len(req.Password) < 6 {
		utils.JSONError(w, "Please provide name, email and a password of at least 6 characters", http.StatusBadRequest)
		return
	}
	if req.Role == "" {
		req.Role = string(models.RoleUser)
	}
	if !models.IsValidRole(req.Role) {
		utils.JSONError(w, "Invalid role", http.StatusBadRequest)
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		utils.JSONError(w, "Registration failed", http.StatusInternalServerError)
		return
	}

	user := models.User{
		ID:            primitive.NewObjectID(),
		Name:          req.Name,
		Email:         req.Email,
		Password:      string(hash),
		Role:          models.Role(req.Role),
		BorrowedBooks: []models.BorrowRecord{},
		CreatedAt:     time.Now(),
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	if _, err := h.Users.InsertOne(ctx, user); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			utils.JSONError(w, "A user with this email already exists", http.StatusBadRequest)
			return
		}
		utils.JSONError(w, "Registration failed", http.StatusInternalServerError)
		return
	}

	token, err := utils.GenerateJWT(user.ID.Hex(), string(user.Role))
	if err != nil {
		utils.JSONError(w, "Token generation failed", http.StatusInternalServerError)
		return
	}

	user.Password = ""
	utils.Respond(w, http.StatusCreated, map[string]any{
		"token": token,
		"user":  user,
	})
}

// POST /api/auth/login
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := utils.DecodeBody(r, &req); err != nil {
		utils.JSONError(w, "Invalid JSON payload", http.StatusBadRequest)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	var user models.User
	err := h.Users.FindOne(ctx, bson.M{"email": strings.ToLower(strings.TrimSpace(req.Email))}).Decode(&user)
	if errors.Is(err, mongo.ErrNoDocuments) {
		utils.JSONError(w, "Invalid credentials", http.StatusUnauthorized)
		return
	}
	if err != nil {
		utils.JSONError(w, "Login failed", http.StatusInternalServerError)
		return
	}

	if bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password)) != nil {
		utils.JSONError(w, "Invalid credentials", http.StatusUnauthorized)
		return
	}

	token, err := utils.GenerateJWT(user.ID.Hex(), string(user.Role))
	if err != nil {
		utils.JSONError(w, "Token generation failed", http.StatusInternalServerError)
		return
	}

	user.Password = ""
	utils.Respond(w, http.StatusOK, map[string]any{
		"token": token,
		"user":  user,
	})
}
