package mongo

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/blogcom/account-api/internal/core/domain"
)

const (
	usersCollection = "users"

	emailIndex    = "uniq_email"
	usernameIndex = "uniq_username"
)

// UserRepository implements ports.UserRepository on the users collection.
// Field names follow the documents already written by the web platform.
type UserRepository struct {
	coll *mongo.Collection
}

func NewUserRepository(db *mongo.Database) *UserRepository {
	return &UserRepository{coll: db.Collection(usersCollection)}
}

type mongoSocialLinks struct {
	Youtube   string `bson:"youtube"`
	Instagram string `bson:"instagram"`
	Facebook  string `bson:"facebook"`
	X         string `bson:"X"`
	Github    string `bson:"github"`
	Website   string `bson:"website"`
}

type mongoAccountInfo struct {
	TotalPosts int64 `bson:"total_post"`
	TotalReads int64 `bson:"total_reads"`
	GoogleAuth bool  `bson:"google_auth"`
}

type mongoUser struct {
	ID           primitive.ObjectID `bson:"_id,omitempty"`
	Username     string             `bson:"username"`
	Fullname     string             `bson:"fullname"`
	Email        string             `bson:"email"`
	Password     string             `bson:"password"`
	Bio          string             `bson:"bio,omitempty"`
	ProfilePhoto string             `bson:"profilePhoto"`
	IsVerified   bool               `bson:"isVerified"`
	VerifyOTP    string             `bson:"verifyOTP,omitempty"`
	OTPExpiry    *time.Time         `bson:"otpExpiry,omitempty"`
	SocialLinks  mongoSocialLinks   `bson:"social_links"`
	AccountInfo  mongoAccountInfo   `bson:"account_info"`
	CreatedAt    time.Time          `bson:"createdAt"`
	UpdatedAt    time.Time          `bson:"updatedAt"`
}

// EnsureIndexes creates the unique indexes the store relies on for
// concurrent signups.
func (r *UserRepository) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "email", Value: 1}},
			Options: options.Index().SetName(emailIndex).SetUnique(true),
		},
		{
			Keys:    bson.D{{Key: "username", Value: 1}},
			Options: options.Index().SetName(usernameIndex).SetUnique(true),
		},
	}

	if _, err := r.coll.Indexes().CreateMany(ctx, indexes); err != nil {
		return fmt.Errorf("create user indexes: %w", err)
	}
	return nil
}

func (r *UserRepository) Create(ctx context.Context, user *domain.User) (*domain.User, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	doc := toMongoUser(user)
	doc.ID = primitive.NilObjectID

	res, err := r.coll.InsertOne(ctx, doc)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil, duplicateKeyError(err)
		}
		return nil, fmt.Errorf("insert user: %w", err)
	}

	oid, ok := res.InsertedID.(primitive.ObjectID)
	if !ok {
		return nil, fmt.Errorf("insert user: unexpected id type %T", res.InsertedID)
	}

	created := user.Clone()
	created.ID = oid.Hex()
	return created, nil
}

func (r *UserRepository) Save(ctx context.Context, user *domain.User) (*domain.User, error) {
	oid, err := primitive.ObjectIDFromHex(user.ID)
	if err != nil {
		return nil, domain.ErrUserNotFound
	}

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	doc := toMongoUser(user)
	doc.ID = oid

	res, err := r.coll.ReplaceOne(ctx, bson.M{"_id": oid}, doc)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil, duplicateKeyError(err)
		}
		return nil, fmt.Errorf("replace user: %w", err)
	}
	if res.MatchedCount == 0 {
		return nil, domain.ErrUserNotFound
	}
	return user.Clone(), nil
}

func (r *UserRepository) FindByID(ctx context.Context, id string) (*domain.User, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, domain.ErrUserNotFound
	}
	return r.findOne(ctx, bson.M{"_id": oid})
}

func (r *UserRepository) FindByEmail(ctx context.Context, email string) (*domain.User, error) {
	return r.findOne(ctx, bson.M{"email": email})
}

func (r *UserRepository) FindByUsername(ctx context.Context, username string) (*domain.User, error) {
	return r.findOne(ctx, bson.M{"username": username})
}

func (r *UserRepository) findOne(ctx context.Context, filter bson.M) (*domain.User, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var mu mongoUser
	if err := r.coll.FindOne(ctx, filter).Decode(&mu); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrUserNotFound
		}
		return nil, fmt.Errorf("find user: %w", err)
	}
	return mu.toDomain(), nil
}

// duplicateKeyError maps a duplicate-key failure to the violated constraint.
func duplicateKeyError(err error) error {
	msg := err.Error()
	switch {
	case strings.Contains(msg, usernameIndex), strings.Contains(msg, "username"):
		return domain.ErrUsernameTaken
	case strings.Contains(msg, emailIndex), strings.Contains(msg, "email"):
		return domain.ErrEmailExists
	default:
		return fmt.Errorf("%w: %v", domain.ErrEmailExists, err)
	}
}

func toMongoUser(u *domain.User) mongoUser {
	doc := mongoUser{
		Username:     u.Username,
		Fullname:     u.Fullname,
		Email:        u.Email,
		Password:     u.PasswordHash,
		Bio:          u.Bio,
		ProfilePhoto: u.ProfilePhoto,
		IsVerified:   u.IsVerified,
		SocialLinks: mongoSocialLinks{
			Youtube:   u.SocialLinks.Youtube,
			Instagram: u.SocialLinks.Instagram,
			Facebook:  u.SocialLinks.Facebook,
			X:         u.SocialLinks.X,
			Github:    u.SocialLinks.Github,
			Website:   u.SocialLinks.Website,
		},
		AccountInfo: mongoAccountInfo{
			TotalPosts: u.AccountInfo.TotalPosts,
			TotalReads: u.AccountInfo.TotalReads,
			GoogleAuth: u.AccountInfo.GoogleAuth,
		},
		CreatedAt: u.CreatedAt.UTC(),
		UpdatedAt: u.UpdatedAt.UTC(),
	}
	if u.OTP != nil {
		exp := u.OTP.ExpiresAt.UTC()
		doc.VerifyOTP = u.OTP.Code
		doc.OTPExpiry = &exp
	}
	return doc
}

func (mu mongoUser) toDomain() *domain.User {
	u := &domain.User{
		ID:           mu.ID.Hex(),
		Username:     mu.Username,
		Fullname:     mu.Fullname,
		Email:        mu.Email,
		PasswordHash: mu.Password,
		Bio:          mu.Bio,
		ProfilePhoto: mu.ProfilePhoto,
		IsVerified:   mu.IsVerified,
		SocialLinks: domain.SocialLinks{
			Youtube:   mu.SocialLinks.Youtube,
			Instagram: mu.SocialLinks.Instagram,
			Facebook:  mu.SocialLinks.Facebook,
			X:         mu.SocialLinks.X,
			Github:    mu.SocialLinks.Github,
			Website:   mu.SocialLinks.Website,
		},
		AccountInfo: domain.AccountInfo{
			TotalPosts: mu.AccountInfo.TotalPosts,
			TotalReads: mu.AccountInfo.TotalReads,
			GoogleAuth: mu.AccountInfo.GoogleAuth,
		},
		CreatedAt: mu.CreatedAt.UTC(),
		UpdatedAt: mu.UpdatedAt.UTC(),
	}
	if mu.VerifyOTP != "" && mu.OTPExpiry != nil {
		u.OTP = &domain.OTPChallenge{Code: mu.VerifyOTP, ExpiresAt: mu.OTPExpiry.UTC()}
	}
	return u
}
