package repository

import (
	"testing"

	"unihub/internal/database"
	"unihub/internal/models"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := database.Migrate(db); err != nil {
		t.Fatalf("migrate sqlite: %v", err)
	}
	return db
}

func createTestUser(t *testing.T, db *gorm.DB, username string) *models.User {
	t.Helper()
	user := &models.User{
		Username:     username,
		Email:        username + "@example.edu",
		PasswordHash: "hash",
		Role:         models.RoleMember,
	}
	if err := db.Create(user).Error; err != nil {
		t.Fatalf("create user %s: %v", username, err)
	}
	return user
}

func createTestCommunity(t *testing.T, db *gorm.DB, name string, creator *models.User) *models.Community {
	t.Helper()
	community := &models.Community{
		Name:        name,
		Description: "a community for " + name,
		CreatedByID: creator.ID,
	}
	repo := NewCommunityRepository(db)
	if err := repo.Create(t.Context(), community); err != nil {
		t.Fatalf("create community %s: %v", name, err)
	}
	return community
}
