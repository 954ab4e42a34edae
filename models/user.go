package models

import (
	"go.mongodb.org/mongo-driver/v2/bson"
)

type User struct {
	ID        bson.ObjectID `json:"id" bson:"_id"`
	CreatedAt int64         `json:"-" bson:"created_at"`
	UpdatedAt int64         `json:"-" bson:"updated_at"`

	FullName   string `json:"full_name" bson:"full_name"`
	Email      string `json:"email" bson:"email"`
	Username   string `json:"username" bson:"username"`
	Avatar     string `json:"avatar" bson:"avatar"`
	CoverImage string `json:"cover_image,omitempty" bson:"cover_image,omitempty"`

	// Password holds the bcrypt hash, never the plaintext.
	Password string `json:"-" bson:"password"`
	// RefreshToken is the single outstanding refresh token for this user.
	// Empty means logged out.
	RefreshToken string `json:"-" bson:"refresh_token,omitempty"`
}

// PublicUser is the stripped view of a user record that is safe to send
// to clients: no password hash, no refresh token.
type PublicUser struct {
	ID         bson.ObjectID `json:"id"`
	FullName   string        `json:"full_name"`
	Email      string        `json:"email"`
	Username   string        `json:"username"`
	Avatar     string        `json:"avatar"`
	CoverImage string        `json:"cover_image,omitempty"`
}

// Public strips the credential fields from the record.
func (u User) Public() PublicUser {
	return PublicUser{
		ID:         u.ID,
		FullName:   u.FullName,
		Email:      u.Email,
		Username:   u.Username,
		Avatar:     u.Avatar,
		CoverImage: u.CoverImage,
	}
}

// ParseUserID converts the hex form carried in token claims back into an
// ObjectID.
func ParseUserID(id string) (bson.ObjectID, error) {
	return bson.ObjectIDFromHex(id)
}
