package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/integration/mtest"

	"shelftrack/internal/borrowing"
	"shelftrack/internal/handlers"
	"shelftrack/internal/inventory"
	"shelftrack/internal/middleware"
	"shelftrack/internal/utils"
)

func newUserRouter(mt *mtest.T) *mux.Router {
	ledger := inventory.NewLedger(mt.Coll)
	coordinator := borrowing.NewCoordinator(mt.Coll, ledger, utils.AuditLogger{Collection: mt.Coll}, 3, 14)
	handler := handlers.NewUserHandler(coordinator)

	router := mux.NewRouter()
	router.HandleFunc("/api/users/borrow", handler.BorrowBook).Methods("POST")
	router.HandleFunc("/api/users/return", handler.ReturnBook).Methods("POST")
	router.HandleFunc("/api/users/borrowed", handler.GetBorrowedBooks).Methods("GET")
	router.HandleFunc("/api/users/stats", handler.GetUserStats).Methods("GET")
	return router
}

func authedRequest(method, target string, body []byte, userID primitive.ObjectID) *http.Request {
	var req *http.Request
	if body != nil {
		req = httptest.NewRequest(method, target, bytes.NewReader(body))
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	ctx := context.WithValue(req.Context(), middleware.ContextUserID, userID.Hex())
	return req.WithContext(ctx)
}

func activeRecords(n int) bson.A {
	now := time.Now()
	records := bson.A{}
	for i := 0; i < n; i++ {
		records = append(records, bson.D{
			{Key: "bookId", Value: primitive.NewObjectID()},
			{Key: "borrowedDate", Value: now},
			{Key: "dueDate", Value: now.AddDate(0, 0, 14)},
			{Key: "returned", Value: false},
		})
	}
	return records
}

func TestUserHandler_BorrowBook(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))
	if mt.Client != nil {
		defer mt.Client.Disconnect(context.Background())
	}

	mt.Run("missing identity returns 401", func(mt *mtest.T) {
		body, _ := json.Marshal(map[string]string{"bookId": primitive.NewObjectID().Hex()})
		req := httptest.NewRequest(http.MethodPost, "/api/users/borrow", bytes.NewReader(body))
		w := httptest.NewRecorder()

		newUserRouter(mt).ServeHTTP(w, req)

		if w.Code != http.StatusUnauthorized {
			t.Errorf("expected status Unauthorized, got %v", w.Code)
		}
	})

	mt.Run("invalid book id returns 400", func(mt *mtest.T) {
		body, _ := json.Marshal(map[string]string{"bookId": "garbage"})
		req := authedRequest(http.MethodPost, "/api/users/borrow", body, primitive.NewObjectID())
		w := httptest.NewRecorder()

		newUserRouter(mt).ServeHTTP(w, req)

		if w.Code != http.StatusBadRequest {
			t.Errorf("expected status BadRequest, got %v", w.Code)
		}
	})

	mt.Run("fourth active borrow returns 400", func(mt *mtest.T) {
		userID := primitive.NewObjectID()
		mt.AddMockResponses(
			mtest.CreateCursorResponse(0, "test.users", mtest.FirstBatch, bson.D{
				{Key: "_id", Value: userID},
				{Key: "role", Value: "user"},
				{Key: "borrowedBooks", Value: activeRecords(3)},
			}),
		)

		body, _ := json.Marshal(map[string]string{"bookId": primitive.NewObjectID().Hex()})
		req := authedRequest(http.MethodPost, "/api/users/borrow", body, userID)
		w := httptest.NewRecorder()

		newUserRouter(mt).ServeHTTP(w, req)

		if w.Code != http.StatusBadRequest {
			t.Fatalf("expected status BadRequest, got %v", w.Code)
		}

		var resp struct {
			Success bool   `json:"success"`
			Message string `json:"message"`
		}
		if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
			t.Fatalf("bad response body: %v", err)
		}
		if resp.Message != borrowing.ErrLimitExceeded.Error() {
			t.Errorf("unexpected message: %s", resp.Message)
		}
	})

	mt.Run("missing book returns 404", func(mt *mtest.T) {
		userID := primitive.NewObjectID()
		mt.AddMockResponses(
			mtest.CreateCursorResponse(0, "test.users", mtest.FirstBatch, bson.D{
				{Key: "_id", Value: userID},
				{Key: "role", Value: "user"},
				{Key: "borrowedBooks", Value: bson.A{}},
			}),
			mtest.CreateCursorResponse(0, "test.books", mtest.FirstBatch),
		)

		body, _ := json.Marshal(map[string]string{"bookId": primitive.NewObjectID().Hex()})
		req := authedRequest(http.MethodPost, "/api/users/borrow", body, userID)
		w := httptest.NewRecorder()

		newUserRouter(mt).ServeHTTP(w, req)

		if w.Code != http.StatusNotFound {
			t.Errorf("expected status NotFound, got %v", w.Code)
		}
	})
}

func TestUserHandler_ReturnBook(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))
	if mt.Client != nil {
		defer mt.Client.Disconnect(context.Background())
	}

	mt.Run("return without an active record returns 400", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateSuccessResponse())

		body, _ := json.Marshal(map[string]string{"bookId": primitive.NewObjectID().Hex()})
		req := authedRequest(http.MethodPost, "/api/users/return", body, primitive.NewObjectID())
		w := httptest.NewRecorder()

		newUserRouter(mt).ServeHTTP(w, req)

		if w.Code != http.StatusBadRequest {
			t.Fatalf("expected status BadRequest, got %v", w.Code)
		}

		var resp struct {
			Message string `json:"message"`
		}
		if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
			t.Fatalf("bad response body: %v", err)
		}
		if resp.Message != borrowing.ErrNotBorrowed.Error() {
			t.Errorf("unexpected message: %s", resp.Message)
		}
	})
}

func TestUserHandler_GetBorrowedBooks(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))
	if mt.Client != nil {
		defer mt.Client.Disconnect(context.Background())
	}

	mt.Run("empty shelf returns an empty list", func(mt *mtest.T) {
		userID := primitive.NewObjectID()
		mt.AddMockResponses(
			mtest.CreateCursorResponse(0, "test.users", mtest.FirstBatch, bson.D{
				{Key: "_id", Value: userID},
				{Key: "role", Value: "user"},
				{Key: "borrowedBooks", Value: bson.A{}},
			}),
		)

		req := authedRequest(http.MethodGet, "/api/users/borrowed", nil, userID)
		w := httptest.NewRecorder()

		newUserRouter(mt).ServeHTTP(w, req)

		if w.Code != http.StatusOK {
			t.Fatalf("expected status OK, got %v", w.Code)
		}

		var resp struct {
			Success       bool                       `json:"success"`
			BorrowedBooks []borrowing.ResolvedRecord `json:"borrowedBooks"`
		}
		if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
			t.Fatalf("bad response body: %v", err)
		}
		if resp.BorrowedBooks == nil || len(resp.BorrowedBooks) != 0 {
			t.Errorf("expected empty list, got %v", resp.BorrowedBooks)
		}
	})
}

func TestUserHandler_GetUserStats(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))
	if mt.Client != nil {
		defer mt.Client.Disconnect(context.Background())
	}

	mt.Run("reports totals by role", func(mt *mtest.T) {
		mt.AddMockResponses(
			mtest.CreateCursorResponse(0, "test.users", mtest.FirstBatch, bson.D{{Key: "n", Value: int32(9)}}),
			mtest.CreateCursorResponse(0, "test.users", mtest.FirstBatch, bson.D{{Key: "n", Value: int32(2)}}),
			mtest.CreateCursorResponse(0, "test.users", mtest.FirstBatch, bson.D{{Key: "n", Value: int32(7)}}),
		)

		req := authedRequest(http.MethodGet, "/api/users/stats", nil, primitive.NewObjectID())
		w := httptest.NewRecorder()

		newUserRouter(mt).ServeHTTP(w, req)

		if w.Code != http.StatusOK {
			t.Fatalf("expected status OK, got %v", w.Code)
		}

		var resp struct {
			Success bool                `json:"success"`
			Stats   borrowing.UserStats `json:"stats"`
		}
		if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
			t.Fatalf("bad response body: %v", err)
		}
		if resp.Stats.TotalUsers != 9 || resp.Stats.AdminUsers != 2 || resp.Stats.RegularUsers != 7 {
			t.Errorf("unexpected stats: %+v", resp.Stats)
		}
	})
}
