package db

import (
	"context"

	"github.com/Avishkar-x/Video-Streaming/models"
	"go.mongodb.org/mongo-driver/v2/bson"
)

// Database persists user records. It is the only owner of user documents;
// all refresh-token state transitions go through it as single atomic
// updates.
type Database interface {
	EnsureIndexes(ctx context.Context) error

	CreateUser(ctx context.Context, user CreateUser) (models.User, error)
	GetUser(ctx context.Context, id bson.ObjectID) (models.User, error)
	FindByUsernameOrEmail(ctx context.Context, identifier string) (models.User, error)
	UsernameOrEmailExists(ctx context.Context, username, email string) (bool, error)

	// SetRefreshToken overwrites the stored refresh token, invalidating any
	// previously issued one.
	SetRefreshToken(ctx context.Context, id bson.ObjectID, token string) error
	// RotateRefreshToken replaces the stored token only if it still equals
	// oldToken, in one atomic update. It reports whether the swap happened.
	RotateRefreshToken(ctx context.Context, id bson.ObjectID, oldToken, newToken string) (bool, error)
	ClearRefreshToken(ctx context.Context, id bson.ObjectID) error

	UpdatePassword(ctx context.Context, id bson.ObjectID, passwordHash string) error
	UpdateAccount(ctx context.Context, id bson.ObjectID, fullName, email string) (models.User, error)
	UpdateAvatar(ctx context.Context, id bson.ObjectID, url string) (models.User, error)
	UpdateCoverImage(ctx context.Context, id bson.ObjectID, url string) (models.User, error)
}

// CreateUser carries the fields of a new user document. PwdHash must
// already be hashed; the store never sees plaintext passwords.
type CreateUser struct {
	FullName   string
	Email      string
	Username   string
	PwdHash    string
	Avatar     string
	CoverImage string
}
