package utils

import (
	"fmt"

	"shelftrack/internal/models"
)

// ExportData ships a batch of audit entries to the external sink. Stdout is
// the stand-in until the sink is wired up.
func ExportData(logs []models.AuditLog) error {
	for _, entry := range logs {
		fmt.Println(entry.Timestamp, entry.Entity, entry.Action, entry.Data)
	}
	return nil
}
