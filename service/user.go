package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/Avishkar-x/Video-Streaming/apperrors"
	"github.com/Avishkar-x/Video-Streaming/blob"
	"github.com/Avishkar-x/Video-Streaming/db"
	"github.com/Avishkar-x/Video-Streaming/forms"
	"github.com/Avishkar-x/Video-Streaming/kv"
	"github.com/Avishkar-x/Video-Streaming/models"
	"go.mongodb.org/mongo-driver/v2/bson"
	"golang.org/x/crypto/bcrypt"
)

// userCacheTTL bounds how stale a cached public view may get.
const userCacheTTL = 5 * time.Minute

// FileUpload is an incoming media file, decoupled from the HTTP layer.
type FileUpload struct {
	Reader      io.Reader
	Size        int64
	ContentType string
	Filename    string
}

// UserService owns the session lifecycle: registration, login, token
// rotation, logout and profile updates. Whether a user is logged in is
// carried entirely by the refresh_token field on the user document: empty
// means logged out, and the stored value is the only refresh token the
// service will honor.
type UserService struct {
	db     db.Database
	tokens *TokenService
	blob   blob.Uploader
	cache  kv.KeyValueStore
}

func NewUserService(database db.Database, tokens *TokenService, uploader blob.Uploader, cache kv.KeyValueStore) *UserService {
	return &UserService{
		db:     database,
		tokens: tokens,
		blob:   uploader,
		cache:  cache,
	}
}

// Register creates a new account. The avatar is mandatory and must be
// uploaded before the record is written, so a failed upload never leaves a
// user behind; conversely, if the insert fails the uploaded assets are
// removed best effort.
func (s *UserService) Register(ctx context.Context, form forms.RegisterForm, avatar, cover *FileUpload) (models.PublicUser, error) {
	if avatar == nil {
		return models.PublicUser{}, apperrors.ErrValidation
	}

	exists, err := s.db.UsernameOrEmailExists(ctx, form.Username, form.Email)
	if err != nil {
		return models.PublicUser{}, fmt.Errorf("failed to check existing users: %w", err)
	}
	if exists {
		return models.PublicUser{}, apperrors.ErrUserExists
	}

	avatarURL, avatarKey, err := s.blob.Upload(ctx, avatar.Reader, avatar.Size, avatar.ContentType, avatar.Filename)
	if err != nil {
		slog.Error("avatar upload failed", "error", err, "username", form.Username)
		return models.PublicUser{}, apperrors.ErrUploadFailed
	}

	// the cover image is optional; a failed upload degrades to no cover
	var coverURL, coverKey string
	if cover != nil {
		coverURL, coverKey, err = s.blob.Upload(ctx, cover.Reader, cover.Size, cover.ContentType, cover.Filename)
		if err != nil {
			slog.Warn("cover image upload failed, continuing without", "error", err, "username", form.Username)
			coverURL, coverKey = "", ""
		}
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(form.Password), bcrypt.DefaultCost)
	if err != nil {
		s.removeOrphans(ctx, avatarKey, coverKey)
		return models.PublicUser{}, fmt.Errorf("failed to hash password: %w", err)
	}

	user, err := s.db.CreateUser(ctx, db.CreateUser{
		FullName:   form.FullName,
		Email:      form.Email,
		Username:   form.Username,
		PwdHash:    string(hashedPassword),
		Avatar:     avatarURL,
		CoverImage: coverURL,
	})
	if err != nil {
		s.removeOrphans(ctx, avatarKey, coverKey)
		if errors.Is(err, apperrors.ErrUserExists) {
			return models.PublicUser{}, err
		}
		return models.PublicUser{}, fmt.Errorf("failed to create user: %w", err)
	}

	slog.Info("user registered", "user_id", user.ID.Hex(), "username", user.Username)

	return user.Public(), nil
}

// Login verifies the credentials and starts a session. The freshly issued
// refresh token overwrites whatever was stored before, so at most one
// session per user is ever active.
func (s *UserService) Login(ctx context.Context, form forms.LoginForm) (models.PublicUser, models.TokenPair, error) {
	identifier := form.Identifier()
	if identifier == "" {
		return models.PublicUser{}, models.TokenPair{}, apperrors.ErrValidation
	}

	user, err := s.db.FindByUsernameOrEmail(ctx, identifier)
	if err != nil {
		return models.PublicUser{}, models.TokenPair{}, err
	}

	if bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(form.Password)) != nil {
		return models.PublicUser{}, models.TokenPair{}, apperrors.ErrInvalidCredentials
	}

	pair, err := s.issuePair(user.ID)
	if err != nil {
		return models.PublicUser{}, models.TokenPair{}, err
	}

	if err := s.db.SetRefreshToken(ctx, user.ID, pair.RefreshToken); err != nil {
		return models.PublicUser{}, models.TokenPair{}, fmt.Errorf("failed to persist refresh token: %w", err)
	}

	slog.Info("user logged in", "user_id", user.ID.Hex())

	return user.Public(), pair, nil
}

// Refresh exchanges a valid refresh token for a new pair. The presented
// token must equal the stored one byte for byte, and the swap to the new
// token is a single conditional update, so replayed or concurrently raced
// tokens lose. A mismatch leaves the stored token untouched: a stale
// replay must not lock out the legitimate session.
func (s *UserService) Refresh(ctx context.Context, presented string) (models.TokenPair, error) {
	if presented == "" {
		return models.TokenPair{}, apperrors.ErrUnauthorized
	}

	idHex, err := s.tokens.VerifyRefreshToken(presented)
	if err != nil {
		return models.TokenPair{}, apperrors.ErrUnauthorized
	}

	id, err := models.ParseUserID(idHex)
	if err != nil {
		return models.TokenPair{}, apperrors.ErrUnauthorized
	}

	user, err := s.db.GetUser(ctx, id)
	if err != nil {
		return models.TokenPair{}, apperrors.ErrUnauthorized
	}

	if user.RefreshToken == "" || user.RefreshToken != presented {
		return models.TokenPair{}, apperrors.ErrUnauthorized
	}

	pair, err := s.issuePair(id)
	if err != nil {
		return models.TokenPair{}, err
	}

	rotated, err := s.db.RotateRefreshToken(ctx, id, presented, pair.RefreshToken)
	if err != nil {
		return models.TokenPair{}, fmt.Errorf("failed to rotate refresh token: %w", err)
	}
	if !rotated {
		// lost the race against a concurrent refresh
		return models.TokenPair{}, apperrors.ErrUnauthorized
	}

	slog.Debug("refresh token rotated", "user_id", idHex)

	return pair, nil
}

// Logout clears the stored refresh token. Calling it for an already
// logged-out user is a no-op, not an error.
func (s *UserService) Logout(ctx context.Context, id bson.ObjectID) error {
	if err := s.db.ClearRefreshToken(ctx, id); err != nil {
		return fmt.Errorf("failed to clear refresh token: %w", err)
	}

	s.invalidate(id)
	slog.Info("user logged out", "user_id", id.Hex())

	return nil
}

// ChangePassword re-hashes and stores the new password after checking the
// old one. The current refresh token is left alone, so the active session
// survives the change.
func (s *UserService) ChangePassword(ctx context.Context, id bson.ObjectID, oldPassword, newPassword string) error {
	user, err := s.db.GetUser(ctx, id)
	if err != nil {
		return err
	}

	if bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(oldPassword)) != nil {
		return apperrors.ErrInvalidCredentials
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	return s.db.UpdatePassword(ctx, id, string(hashed))
}

// UpdateAccount replaces the editable profile fields.
func (s *UserService) UpdateAccount(ctx context.Context, id bson.ObjectID, form forms.UpdateAccountForm) (models.PublicUser, error) {
	user, err := s.db.UpdateAccount(ctx, id, form.FullName, form.Email)
	if err != nil {
		return models.PublicUser{}, err
	}

	s.invalidate(id)

	return user.Public(), nil
}

// UpdateAvatar uploads the new avatar and swaps the reference on the record.
func (s *UserService) UpdateAvatar(ctx context.Context, id bson.ObjectID, file *FileUpload) (models.PublicUser, error) {
	return s.updateImage(ctx, id, file, s.db.UpdateAvatar)
}

// UpdateCoverImage uploads the new cover image and swaps the reference on
// the record.
func (s *UserService) UpdateCoverImage(ctx context.Context, id bson.ObjectID, file *FileUpload) (models.PublicUser, error) {
	return s.updateImage(ctx, id, file, s.db.UpdateCoverImage)
}

func (s *UserService) updateImage(ctx context.Context, id bson.ObjectID, file *FileUpload,
	update func(context.Context, bson.ObjectID, string) (models.User, error)) (models.PublicUser, error) {

	if file == nil {
		return models.PublicUser{}, apperrors.ErrValidation
	}

	url, key, err := s.blob.Upload(ctx, file.Reader, file.Size, file.ContentType, file.Filename)
	if err != nil {
		slog.Error("image upload failed", "error", err, "user_id", id.Hex())
		return models.PublicUser{}, apperrors.ErrUploadFailed
	}

	user, err := update(ctx, id, url)
	if err != nil {
		s.removeOrphans(ctx, key)
		return models.PublicUser{}, err
	}

	s.invalidate(id)

	return user.Public(), nil
}

// ResolveUser returns the stripped view for an authenticated subject,
// serving from the cache when possible. The cache is never authoritative
// for token validity, only for the view itself.
func (s *UserService) ResolveUser(ctx context.Context, id bson.ObjectID) (models.PublicUser, error) {
	key := cacheKey(id)

	if cached, err := s.cache.Get(key); err == nil {
		var view models.PublicUser
		if err := json.Unmarshal([]byte(cached), &view); err == nil {
			return view, nil
		}
	}

	user, err := s.db.GetUser(ctx, id)
	if err != nil {
		return models.PublicUser{}, err
	}

	view := user.Public()
	if encoded, err := json.Marshal(view); err == nil {
		if err := s.cache.Set(key, string(encoded), userCacheTTL); err != nil {
			slog.Warn("failed to cache user view", "error", err, "user_id", id.Hex())
		}
	}

	return view, nil
}

func (s *UserService) issuePair(id bson.ObjectID) (models.TokenPair, error) {
	access, err := s.tokens.IssueAccessToken(id.Hex())
	if err != nil {
		return models.TokenPair{}, err
	}

	refresh, err := s.tokens.IssueRefreshToken(id.Hex())
	if err != nil {
		return models.TokenPair{}, err
	}

	return models.TokenPair{AccessToken: access, RefreshToken: refresh}, nil
}

// removeOrphans deletes uploaded objects that never made it onto a user
// record. Best effort: a failure here only logs.
func (s *UserService) removeOrphans(ctx context.Context, keys ...string) {
	for _, key := range keys {
		if key == "" {
			continue
		}
		if err := s.blob.Delete(ctx, key); err != nil {
			slog.Warn("failed to remove orphaned upload", "error", err, "key", key)
		}
	}
}

func (s *UserService) invalidate(id bson.ObjectID) {
	if _, err := s.cache.Del(cacheKey(id)); err != nil {
		slog.Debug("cache invalidation miss", "user_id", id.Hex(), "error", err)
	}
}

func cacheKey(id bson.ObjectID) string {
	return "user:" + id.Hex()
}
