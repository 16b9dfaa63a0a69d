package seed

import (
	"fmt"
	"log"

	"unihub/internal/models"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// Options configures the demo seeder.
type Options struct {
	NumUsers    int
	NumPosts    int
	ShouldClean bool
}

// Fixtures ensures the canonical development accounts and communities exist.
// It is idempotent and safe to run at every startup.
func Fixtures(db *gorm.DB) error {
	fixtureUsers := []struct {
		username string
		password string
		role     models.Role
		first    string
		last     string
	}{
		{"user1", "user123", models.RoleMember, "Sam", "Student"},
		{"admin", "admin123", models.RoleAdmin, "Ada", "Admin"},
	}

	users := make(map[string]*models.User, len(fixtureUsers))
	for _, f := range fixtureUsers {
		hash, err := bcrypt.GenerateFromPassword([]byte(f.password), bcrypt.DefaultCost)
		if err != nil {
			return err
		}
		user := &models.User{
			Username:     f.username,
			Email:        fmt.Sprintf("%s@example.edu", f.username),
			PasswordHash: string(hash),
			Role:         f.role,
			FirstName:    f.first,
			LastName:     f.last,
		}
		if err := db.Where(models.User{Username: f.username}).
			Attrs(*user).
			FirstOrCreate(user).Error; err != nil {
			return fmt.Errorf("fixture user %s: %w", f.username, err)
		}
		users[f.username] = user
	}

	fixtureCommunities := []struct {
		name        string
		description string
	}{
		{"Campus Life", "Everything happening on and around campus."},
		{"Study Groups", "Find people to study with."},
	}

	creator := users["user1"]
	for _, f := range fixtureCommunities {
		community := &models.Community{
			Name:          f.name,
			Description:   f.description,
			CommunityType: "public",
			CreatedByID:   creator.ID,
		}
		if err := db.Where(models.Community{Name: f.name}).
			Attrs(*community).
			FirstOrCreate(community).Error; err != nil {
			return fmt.Errorf("fixture community %s: %w", f.name, err)
		}
		membership := &models.Membership{UserID: creator.ID, CommunityID: community.ID}
		if err := db.Where(*membership).FirstOrCreate(membership).Error; err != nil {
			return fmt.Errorf("fixture membership %s: %w", f.name, err)
		}
	}

	return nil
}

// Seed populates the database with generated demo data.
func Seed(db *gorm.DB, opts Options) error {
	log.Printf("Seeding database with %d users and %d posts...", opts.NumUsers, opts.NumPosts)

	if opts.ShouldClean {
		if err := clearData(db); err != nil {
			return fmt.Errorf("failed to clear existing data: %w", err)
		}
	}

	if err := Fixtures(db); err != nil {
		return fmt.Errorf("failed to create fixtures: %w", err)
	}

	factory := NewFactory(db)

	users := make([]*models.User, 0, opts.NumUsers)
	for i := 0; i < opts.NumUsers; i++ {
		user, err := factory.CreateUser()
		if err != nil {
			return fmt.Errorf("failed to create user: %w", err)
		}
		users = append(users, user)
	}
	log.Printf("created %d users", len(users))

	if len(users) == 0 {
		return nil
	}

	numCommunities := len(users)/4 + 1
	communities := make([]*models.Community, 0, numCommunities)
	for i := 0; i < numCommunities; i++ {
		creator := users[factory.r.Intn(len(users))]
		community, err := factory.CreateCommunity(creator)
		if err != nil {
			return fmt.Errorf("failed to create community: %w", err)
		}
		communities = append(communities, community)
	}
	log.Printf("created %d communities", len(communities))

	// Every user joins a few communities so the feeds have content.
	for _, user := range users {
		for _, community := range communities {
			if factory.r.Intn(3) == 0 {
				if err := factory.Join(user, community); err != nil {
					return fmt.Errorf("failed to join community: %w", err)
				}
			}
		}
	}

	posts := make([]*models.Post, 0, opts.NumPosts)
	for i := 0; i < opts.NumPosts; i++ {
		author := users[factory.r.Intn(len(users))]
		community := communities[factory.r.Intn(len(communities))]
		if err := factory.Join(author, community); err != nil {
			return fmt.Errorf("failed to join community: %w", err)
		}
		post, err := factory.CreatePost(author, community)
		if err != nil {
			return fmt.Errorf("failed to create post: %w", err)
		}
		posts = append(posts, post)
	}
	log.Printf("created %d posts", len(posts))

	for _, post := range posts {
		for _, user := range users {
			if factory.r.Intn(5) == 0 {
				if err := factory.LikePost(user, post); err != nil {
					return fmt.Errorf("failed to like post: %w", err)
				}
			}
		}
	}

	log.Println("database seeding completed")
	return nil
}

func clearData(db *gorm.DB) error {
	for _, model := range []any{
		&models.PostLike{}, &models.Post{}, &models.Membership{},
		&models.Community{}, &models.VerificationToken{}, &models.User{},
	} {
		if err := db.Where("1 = 1").Delete(model).Error; err != nil {
			return err
		}
	}
	return nil
}
