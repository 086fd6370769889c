package daemon

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"shelftrack/internal/models"
	"shelftrack/internal/utils"
)

// LogExporter drains unexported audit entries on a fixed interval.
type LogExporter struct {
	Coll *mongo.Collection
}

func (l *LogExporter) InitLogExporter() {
	go func() {
		for {
			res, _ := l.Coll.Find(context.Background(), bson.M{"exported": false})

			var logs []models.AuditLog
			if res != nil {
				_ = res.All(context.Background(), &logs)
			}

			if len(logs) > 0 {
				_ = utils.ExportData(logs)
				exportedIds := make([]primitive.ObjectID, 0, len(logs))
				for _, entry := range logs {
					exportedIds = append(exportedIds, entry.ID)
				}

				l.Coll.UpdateMany(context.Background(),
					bson.M{"_id": bson.M{"$in": exportedIds}},
					bson.M{"$set": bson.M{"exported": true}})
			}
			time.Sleep(30 * time.Second)
		}
	}()
}
