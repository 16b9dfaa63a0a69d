// Package seed creates demo and fixture data for development and testing.
package seed

import (
	"fmt"
	"math/rand"
	"time"

	"unihub/internal/models"

	"github.com/brianvoe/gofakeit/v6"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// Factory builds domain entities and persists them to the database.
type Factory struct {
	db *gorm.DB
	r  *rand.Rand
}

// NewFactory creates a Factory bound to the provided Gorm DB.
func NewFactory(db *gorm.DB) *Factory {
	gofakeit.Seed(time.Now().UnixNano())
	return &Factory{
		db: db,
		r:  rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// demoPassword is shared by all generated users so any of them can be used to
// log in during development.
const demoPassword = "password123"

func (f *Factory) CreateUser(overrides ...func(*models.User)) (*models.User, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(demoPassword), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	first := gofakeit.FirstName()
	last := gofakeit.LastName()
	base := gofakeit.Username()
	// usernames are capped at 30 characters; leave room for the suffix
	if len(base) > 24 {
		base = base[:24]
	}
	user := &models.User{
		Username:     fmt.Sprintf("%s%d", base, f.r.Intn(10000)),
		Email:        gofakeit.Email(),
		PasswordHash: string(hash),
		Role:         models.RoleMember,
		FirstName:    first,
		LastName:     last,
		Bio:          gofakeit.Sentence(8),
		AvatarURL:    fmt.Sprintf("https://i.pravatar.cc/150?u=%s%s", first, last),
	}
	for _, override := range overrides {
		override(user)
	}
	if err := f.db.Create(user).Error; err != nil {
		return nil, err
	}
	return user, nil
}

func (f *Factory) CreateCommunity(creator *models.User, overrides ...func(*models.Community)) (*models.Community, error) {
	community := &models.Community{
		// community names are unique; the numeric suffix avoids collisions
		Name:          fmt.Sprintf("%s %s %d", gofakeit.BuzzWord(), gofakeit.NounAbstract(), f.r.Intn(100000)),
		Description:   gofakeit.Sentence(10),
		CommunityType: "public",
		CreatedByID:   creator.ID,
	}
	for _, override := range overrides {
		override(community)
	}

	err := f.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(community).Error; err != nil {
			return err
		}
		return tx.Create(&models.Membership{
			UserID:      creator.ID,
			CommunityID: community.ID,
		}).Error
	})
	if err != nil {
		return nil, err
	}
	return community, nil
}

func (f *Factory) CreatePost(author *models.User, community *models.Community, overrides ...func(*models.Post)) (*models.Post, error) {
	post := &models.Post{
		Text:        gofakeit.Paragraph(1, 3, 8, " "),
		UserID:      author.ID,
		CommunityID: community.ID,
	}

	// Spread posts over the last couple of weeks so feeds look lived-in.
	daysBack := f.r.Intn(14)
	minsBack := f.r.Intn(24 * 60)
	post.CreatedAt = time.Now().
		Add(-time.Duration(daysBack)*24*time.Hour - time.Duration(minsBack)*time.Minute)

	for _, override := range overrides {
		override(post)
	}
	if err := f.db.Create(post).Error; err != nil {
		return nil, err
	}
	return post, nil
}

func (f *Factory) Join(user *models.User, community *models.Community) error {
	return f.db.Where(models.Membership{
		UserID:      user.ID,
		CommunityID: community.ID,
	}).FirstOrCreate(&models.Membership{
		UserID:      user.ID,
		CommunityID: community.ID,
	}).Error
}

func (f *Factory) LikePost(user *models.User, post *models.Post) error {
	return f.db.Where(models.PostLike{
		UserID: user.ID,
		PostID: post.ID,
	}).FirstOrCreate(&models.PostLike{
		UserID: user.ID,
		PostID: post.ID,
	}).Error
}
