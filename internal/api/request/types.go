package request

import "github.com/petrhn/arena-server/internal/model"

// The progress update endpoint decodes its body straight into
// model.ProgressionUpdate, the typed partial-update structure validated
// by the progression service before any storage access.

// MigrateRequest is the request body for migrating a guest profile
type MigrateRequest struct {
	Progress *model.ProgressionUpdate `json:"progress"`
}
