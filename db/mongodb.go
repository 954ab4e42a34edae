package db

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/Avishkar-x/Video-Streaming/apperrors"
	"github.com/Avishkar-x/Video-Streaming/models"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

// verify MongoDB implements database interface in compile time
var _ Database = (*MongoDB)(nil)

const (
	USER_COLL = "users"
)

type MongoDB struct {
	client *mongo.Client
	db     string
}

func NewMongo(ctx context.Context, conn string, db string) (*MongoDB, error) {
	client, err := mongo.Connect(options.Client().ApplyURI(conn))
	if err != nil {
		return nil, err
	}

	if err := client.Ping(ctx, nil); err != nil {
		return nil, err
	}

	return &MongoDB{client: client, db: db}, nil
}

func (m *MongoDB) users() *mongo.Collection {
	return m.client.Database(m.db).Collection(USER_COLL)
}

// EnsureIndexes creates the unique indexes backing the username and email
// uniqueness invariant.
func (m *MongoDB) EnsureIndexes(ctx context.Context) error {
	unique := options.Index().SetUnique(true)
	_, err := m.users().Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "username", Value: 1}}, Options: unique},
		{Keys: bson.D{{Key: "email", Value: 1}}, Options: unique},
	})

	return err
}

func (m *MongoDB) CreateUser(ctx context.Context, user CreateUser) (models.User, error) {
	now := time.Now().Unix()
	dbuser := models.User{
		ID:         bson.NewObjectID(),
		CreatedAt:  now,
		UpdatedAt:  now,
		FullName:   user.FullName,
		Email:      normalize(user.Email),
		Username:   normalize(user.Username),
		Avatar:     user.Avatar,
		CoverImage: user.CoverImage,
		Password:   user.PwdHash,
	}

	_, err := m.users().InsertOne(ctx, dbuser)
	if mongo.IsDuplicateKeyError(err) {
		return models.User{}, apperrors.ErrUserExists
	}
	if err != nil {
		return models.User{}, err
	}

	return dbuser, nil
}

func (m *MongoDB) GetUser(ctx context.Context, id bson.ObjectID) (models.User, error) {
	var user models.User
	err := m.users().FindOne(ctx, bson.D{{Key: "_id", Value: id}}).Decode(&user)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return models.User{}, apperrors.ErrUserNotFound
	}

	return user, err
}

// FindByUsernameOrEmail matches the identifier against either the username
// or the email field, case-insensitively.
func (m *MongoDB) FindByUsernameOrEmail(ctx context.Context, identifier string) (models.User, error) {
	identifier = normalize(identifier)

	var user models.User
	err := m.users().FindOne(ctx, bson.D{{Key: "$or", Value: bson.A{
		bson.D{{Key: "username", Value: identifier}},
		bson.D{{Key: "email", Value: identifier}},
	}}}).Decode(&user)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return models.User{}, apperrors.ErrUserNotFound
	}

	return user, err
}

func (m *MongoDB) UsernameOrEmailExists(ctx context.Context, username, email string) (bool, error) {
	count, err := m.users().CountDocuments(ctx, bson.D{{Key: "$or", Value: bson.A{
		bson.D{{Key: "username", Value: normalize(username)}},
		bson.D{{Key: "email", Value: normalize(email)}},
	}}})
	if err != nil {
		return false, err
	}

	return count > 0, nil
}

func (m *MongoDB) SetRefreshToken(ctx context.Context, id bson.ObjectID, token string) error {
	return m.setByID(ctx, id, bson.D{{Key: "refresh_token", Value: token}})
}

// RotateRefreshToken is a compare-and-swap on the stored token: the filter
// matches on both _id and the old token value, so two racing rotations can
// never both succeed.
func (m *MongoDB) RotateRefreshToken(ctx context.Context, id bson.ObjectID, oldToken, newToken string) (bool, error) {
	res, err := m.users().UpdateOne(ctx,
		bson.D{
			{Key: "_id", Value: id},
			{Key: "refresh_token", Value: oldToken},
		},
		bson.D{{Key: "$set", Value: bson.D{
			{Key: "refresh_token", Value: newToken},
			{Key: "updated_at", Value: time.Now().Unix()},
		}}},
	)
	if err != nil {
		return false, err
	}

	return res.MatchedCount > 0, nil
}

func (m *MongoDB) ClearRefreshToken(ctx context.Context, id bson.ObjectID) error {
	_, err := m.users().UpdateOne(ctx,
		bson.D{{Key: "_id", Value: id}},
		bson.D{
			{Key: "$unset", Value: bson.D{{Key: "refresh_token", Value: ""}}},
			{Key: "$set", Value: bson.D{{Key: "updated_at", Value: time.Now().Unix()}}},
		},
	)

	return err
}

func (m *MongoDB) UpdatePassword(ctx context.Context, id bson.ObjectID, passwordHash string) error {
	return m.setByID(ctx, id, bson.D{{Key: "password", Value: passwordHash}})
}

func (m *MongoDB) UpdateAccount(ctx context.Context, id bson.ObjectID, fullName, email string) (models.User, error) {
	return m.findAndSet(ctx, id, bson.D{
		{Key: "full_name", Value: fullName},
		{Key: "email", Value: normalize(email)},
	})
}

func (m *MongoDB) UpdateAvatar(ctx context.Context, id bson.ObjectID, url string) (models.User, error) {
	return m.findAndSet(ctx, id, bson.D{{Key: "avatar", Value: url}})
}

func (m *MongoDB) UpdateCoverImage(ctx context.Context, id bson.ObjectID, url string) (models.User, error) {
	return m.findAndSet(ctx, id, bson.D{{Key: "cover_image", Value: url}})
}

func (m *MongoDB) setByID(ctx context.Context, id bson.ObjectID, fields bson.D) error {
	fields = append(fields, bson.E{Key: "updated_at", Value: time.Now().Unix()})

	res, err := m.users().UpdateOne(ctx,
		bson.D{{Key: "_id", Value: id}},
		bson.D{{Key: "$set", Value: fields}},
	)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return apperrors.ErrUserNotFound
	}

	return nil
}

func (m *MongoDB) findAndSet(ctx context.Context, id bson.ObjectID, fields bson.D) (models.User, error) {
	fields = append(fields, bson.E{Key: "updated_at", Value: time.Now().Unix()})

	var user models.User
	err := m.users().FindOneAndUpdate(ctx,
		bson.D{{Key: "_id", Value: id}},
		bson.D{{Key: "$set", Value: fields}},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&user)
	if mongo.IsDuplicateKeyError(err) {
		return models.User{}, apperrors.ErrUserExists
	}
	if errors.Is(err, mongo.ErrNoDocuments) {
		return models.User{}, apperrors.ErrUserNotFound
	}

	return user, err
}

func normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
