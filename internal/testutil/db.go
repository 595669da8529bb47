package testutil

import (
	"testing"
	"time"

	"clubhub/internal/config"
	"clubhub/internal/db"
	"clubhub/internal/models"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// NewTestDB opens a migrated in-memory sqlite database that is closed when
// the test completes.
func NewTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	conn, err := db.Open(config.DatabaseConfig{
		Driver:      "sqlite",
		DSN:         ":memory:",
		AutoMigrate: true,
	})
	if err != nil {
		t.Fatalf("opening test db: %v", err)
	}

	t.Cleanup(func() {
		sqlDB, err := conn.DB()
		if err == nil {
			sqlDB.Close()
		}
	})
	return conn
}

// CreateUser inserts a user whose password is "password".
func CreateUser(t *testing.T, conn *gorm.DB, username string, isAdmin bool) models.User {
	t.Helper()

	hash, err := bcrypt.GenerateFromPassword([]byte("password"), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("hashing password: %v", err)
	}
	u := models.User{
		Username: username,
		Email:    username + "@example.com",
		Password: string(hash),
		IsAdmin:  isAdmin,
	}
	if err := conn.Create(&u).Error; err != nil {
		t.Fatalf("creating user %s: %v", username, err)
	}
	return u
}

// CreateClub inserts a club and one membership per entry of roles
// (username -> role).
func CreateClub(t *testing.T, conn *gorm.DB, name string, roles map[string]string) {
	t.Helper()

	if err := conn.Create(&models.Club{Name: name}).Error; err != nil {
		t.Fatalf("creating club %s: %v", name, err)
	}
	for username, role := range roles {
		m := models.Membership{Username: username, ClubName: name, Role: role}
		if err := conn.Create(&m).Error; err != nil {
			t.Fatalf("adding %s to %s: %v", username, name, err)
		}
	}
}

// Viewer loads the viewer for username the same way the auth middleware does.
func Viewer(t *testing.T, conn *gorm.DB, username string) *models.Viewer {
	t.Helper()

	var u models.User
	if err := conn.Where("username = ?", username).First(&u).Error; err != nil {
		t.Fatalf("loading user %s: %v", username, err)
	}
	var memberships []models.Membership
	if err := conn.Where("username = ?", username).Find(&memberships).Error; err != nil {
		t.Fatalf("loading memberships of %s: %v", username, err)
	}
	return &models.Viewer{Username: u.Username, IsAdmin: u.IsAdmin, Memberships: memberships}
}

// Clock returns a function yielding strictly increasing timestamps one
// second apart, starting at start.
func Clock(start time.Time) func() time.Time {
	next := start
	return func() time.Time {
		now := next
		next = next.Add(time.Second)
		return now
	}
}
