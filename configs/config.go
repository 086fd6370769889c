package configs

import (
	"fmt"
	"log"
	"os"

	"github.com/joho/godotenv"
)

type Config struct {
	Port           string
	MongoURI       string
	DBName         string
	JWTSecret      string
	BorrowLimit    int
	LoanPeriodDays int
}

func LoadConfig() Config {
	err := godotenv.Load()
	if err != nil {
		log.Println("No .env file found, using environment variables")
	}

	borrowLimit := 3
	if val := os.Getenv("BORROW_LIMIT"); val != "" {
		if _, err := fmt.Sscanf(val, "%d", &borrowLimit); err != nil {
			log.Fatalf("Invalid BORROW_LIMIT: %v", err)
		}
	}

	loanPeriodDays := 14
	if val := os.Getenv("LOAN_PERIOD_DAYS"); val != "" {
		if _, err := fmt.Sscanf(val, "%d", &loanPeriodDays); err != nil {
			log.Fatalf("Invalid LOAN_PERIOD_DAYS: %v", err)
		}
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = "5000"
	}

	return Config{
		Port:           port,
		MongoURI:       os.Getenv("MONGO_URI"),
		DBName:         os.Getenv("DB_NAME"),
		JWTSecret:      os.Getenv("JWT_SECRET"),
		BorrowLimit:    borrowLimit,
		LoanPeriodDays: loanPeriodDays,
	}
}
