package store

import (
	"time"

	"github.com/google/uuid"

	"chatline/pkg/logger"
	"chatline/pkg/models"
)

var demoUsers = []models.User{
	{FullName: "Alex Johnson", Email: "alex.johnson.demo@chatline.dev"},
	{FullName: "Emma Williams", Email: "emma.williams.demo@chatline.dev"},
	{FullName: "Michael Chen", Email: "michael.chen.demo@chatline.dev"},
	{FullName: "Sophie Martinez", Email: "sophie.martinez.demo@chatline.dev"},
	{FullName: "David Thompson", Email: "david.thompson.demo@chatline.dev"},
}

// SeedDemoUsersIfNeeded populates the user directory with demo accounts so
// fresh deployments have someone to talk to. It does nothing when any user
// already exists.
func SeedDemoUsersIfNeeded() (int, error) {
	existing, err := ListUsers("")
	if err != nil {
		return 0, err
	}
	if len(existing) > 0 {
		return 0, nil
	}
	now := time.Now().UTC().UnixNano()
	for _, u := range demoUsers {
		u.ID = uuid.NewString()
		u.CreatedAt = now
		if err := SaveUser(u); err != nil {
			return 0, err
		}
	}
	logger.Info("demo_users_seeded", "count", len(demoUsers))
	return len(demoUsers), nil
}
