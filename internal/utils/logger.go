package utils

import (
	"context"
	"log"
	"time"

	"go.mongodb.org/mongo-driver/mongo"

	"shelftrack/internal/models"
)

// AuditLogger appends domain events to the audit_logs collection. Audit
// writes never fail the operation they describe; a failed append goes to the
// process log instead.
type AuditLogger struct {
	Collection *mongo.Collection
}

func (l *AuditLogger) Log(ctx context.Context, entity, action string, data any) {
	entry := models.AuditLog{
		Timestamp: time.Now(),
		Entity:    entity,
		Action:    action,
		RequestID: RequestIDFromContext(ctx),
		Data:      data,
	}
	if _, err := l.Collection.InsertOne(ctx, entry); err != nil {
		log.Printf("audit log append failed (%s/%s): %v", entity, action, err)
	}
}

// LogInconsistency records a partial write, e.g. a ledger decrement whose
// paired borrow-record append failed. These entries are what an operator
// reconciles from.
func (l *AuditLogger) LogInconsistency(ctx context.Context, action string, data any) {
	l.Log(ctx, models.InconsistencyEntity, action, data)
	log.Printf("INCONSISTENCY %s: %+v", action, data)
}
