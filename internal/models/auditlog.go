package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

const InconsistencyEntity = "inconsistency"

type AuditLog struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Timestamp time.Time          `bson:"timestamp" json:"timestamp"`
	Entity    string             `bson:"entity" json:"entity"`
	Action    string             `bson:"action" json:"action"`
	RequestID string             `bson:"request_id" json:"request_id"`
	Data      any                `bson:"data" json:"data"`
	Exported  bool               `bson:"exported" json:"exported"`
}
