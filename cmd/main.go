package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/gorilla/mux"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"shelftrack/configs"
	"shelftrack/internal/borrowing"
	"shelftrack/internal/daemon"
	"shelftrack/internal/db"
	"shelftrack/internal/handlers"
	"shelftrack/internal/inventory"
	"shelftrack/internal/middleware"
	"shelftrack/internal/utils"
)

func main() {
	cfg := configs.LoadConfig()
	db.Connect(cfg.MongoURI)
	utils.InitJwtSecret(cfg.JWTSecret)

	bookColl := db.GetCollection(cfg.DBName, "books")
	userColl := db.GetCollection(cfg.DBName, "users")
	auditColl := db.GetCollection(cfg.DBName, "audit_logs")

	ledger := inventory.NewLedger(bookColl)
	auditLogger := utils.AuditLogger{Collection: auditColl}
	coordinator := borrowing.NewCoordinator(userColl, ledger, auditLogger, cfg.BorrowLimit, cfg.LoanPeriodDays)

	ensureIndexes(ledger, userColl)

	bookHandler := handlers.NewBookHandler(ledger, auditLogger)
	userHandler := handlers.NewUserHandler(coordinator)
	authHandler := handlers.NewAuthHandler(userColl)

	r := mux.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.JSONMiddleware)
	r.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, "OK")
	})

	authed := func(h http.HandlerFunc) http.Handler {
		return middleware.JWTAuthMiddleware(h)
	}
	admin := func(h http.HandlerFunc) http.Handler {
		return middleware.JWTAuthMiddleware(middleware.AdminOnly(h))
	}

	api := r.PathPrefix("/api").Subrouter()

	api.HandleFunc("/auth/register", authHandler.Register).Methods("POST")
	api.HandleFunc("/auth/login", authHandler.Login).Methods("POST")

	// /books/stats must register before /books/{id}.
	api.Handle("/books/stats", admin(bookHandler.GetBookStats)).Methods("GET")
	api.HandleFunc("/books", bookHandler.GetBooks).Methods("GET")
	api.Handle("/books", admin(bookHandler.CreateBook)).Methods("POST")
	api.HandleFunc("/books/{id}", bookHandler.GetBook).Methods("GET")
	api.Handle("/books/{id}", admin(bookHandler.UpdateBook)).Methods("PUT")
	api.Handle("/books/{id}", admin(bookHandler.DeleteBook)).Methods("DELETE")

	api.Handle("/users/borrow", authed(userHandler.BorrowBook)).Methods("POST")
	api.Handle("/users/return", authed(userHandler.ReturnBook)).Methods("POST")
	api.Handle("/users/borrowed", authed(userHandler.GetBorrowedBooks)).Methods("GET")
	api.Handle("/users/history", authed(userHandler.GetBorrowingHistory)).Methods("GET")
	api.Handle("/users/stats", admin(userHandler.GetUserStats)).Methods("GET")
	api.Handle("/users", admin(userHandler.GetUsers)).Methods("GET")

	logExporter := daemon.LogExporter{Coll: auditColl}
	logExporter.InitLogExporter()

	var server = http.Server{
		Addr:    ":" + cfg.Port,
		Handler: r,
	}

	go func() {
		log.Println("Server starting on port", cfg.Port)
		log.Fatal(server.ListenAndServe())
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt)
	<-stop

	log.Println("Shutting down gracefully...")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Fatalf("Graceful shutdown failed: %v", err)
	}
	if err := db.Disconnect(ctx); err != nil {
		log.Printf("Mongo disconnect failed: %v", err)
	}
	log.Println("Server shut down.")
}

func ensureIndexes(ledger *inventory.Ledger, userColl *mongo.Collection) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := ledger.EnsureIndexes(ctx); err != nil {
		log.Fatalf("Book index creation failed: %v", err)
	}
	_, err := userColl.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "email", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		log.Fatalf("User index creation failed: %v", err)
	}
}
