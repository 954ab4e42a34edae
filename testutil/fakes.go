// Package testutil provides in-memory stand-ins for the service's
// collaborators: the document store, the blob uploader and the key-value
// cache.
package testutil

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/Avishkar-x/Video-Streaming/apperrors"
	"github.com/Avishkar-x/Video-Streaming/db"
	"github.com/Avishkar-x/Video-Streaming/models"
	"go.mongodb.org/mongo-driver/v2/bson"
)

// FakeDB is an in-memory db.Database. Its refresh-token operations are
// atomic under a mutex, matching the single-document atomicity the real
// store provides.
type FakeDB struct {
	mu    sync.Mutex
	users map[bson.ObjectID]models.User

	// CreateErr, when set, makes CreateUser fail after all other checks.
	CreateErr error
}

var _ db.Database = (*FakeDB)(nil)

func NewFakeDB() *FakeDB {
	return &FakeDB{users: make(map[bson.ObjectID]models.User)}
}

func (f *FakeDB) EnsureIndexes(ctx context.Context) error { return nil }

func (f *FakeDB) CreateUser(ctx context.Context, user db.CreateUser) (models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	username := normalize(user.Username)
	email := normalize(user.Email)
	for _, u := range f.users {
		if u.Username == username || u.Email == email {
			return models.User{}, apperrors.ErrUserExists
		}
	}

	if f.CreateErr != nil {
		return models.User{}, f.CreateErr
	}

	now := time.Now().Unix()
	dbuser := models.User{
		ID:         bson.NewObjectID(),
		CreatedAt:  now,
		UpdatedAt:  now,
		FullName:   user.FullName,
		Email:      email,
		Username:   username,
		Avatar:     user.Avatar,
		CoverImage: user.CoverImage,
		Password:   user.PwdHash,
	}
	f.users[dbuser.ID] = dbuser

	return dbuser, nil
}

func (f *FakeDB) GetUser(ctx context.Context, id bson.ObjectID) (models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	user, ok := f.users[id]
	if !ok {
		return models.User{}, apperrors.ErrUserNotFound
	}

	return user, nil
}

func (f *FakeDB) FindByUsernameOrEmail(ctx context.Context, identifier string) (models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	identifier = normalize(identifier)
	for _, u := range f.users {
		if u.Username == identifier || u.Email == identifier {
			return u, nil
		}
	}

	return models.User{}, apperrors.ErrUserNotFound
}

func (f *FakeDB) UsernameOrEmailExists(ctx context.Context, username, email string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	for _, u := range f.users {
		if u.Username == normalize(username) || u.Email == normalize(email) {
			return true, nil
		}
	}

	return false, nil
}

func (f *FakeDB) SetRefreshToken(ctx context.Context, id bson.ObjectID, token string) error {
	return f.update(id, func(u *models.User) { u.RefreshToken = token })
}

func (f *FakeDB) RotateRefreshToken(ctx context.Context, id bson.ObjectID, oldToken, newToken string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	user, ok := f.users[id]
	if !ok || user.RefreshToken != oldToken {
		return false, nil
	}

	user.RefreshToken = newToken
	f.users[id] = user

	return true, nil
}

func (f *FakeDB) ClearRefreshToken(ctx context.Context, id bson.ObjectID) error {
	_ = f.update(id, func(u *models.User) { u.RefreshToken = "" })
	return nil
}

func (f *FakeDB) UpdatePassword(ctx context.Context, id bson.ObjectID, passwordHash string) error {
	return f.update(id, func(u *models.User) { u.Password = passwordHash })
}

func (f *FakeDB) UpdateAccount(ctx context.Context, id bson.ObjectID, fullName, email string) (models.User, error) {
	return f.updateAndGet(id, func(u *models.User) {
		u.FullName = fullName
		u.Email = normalize(email)
	})
}

func (f *FakeDB) UpdateAvatar(ctx context.Context, id bson.ObjectID, url string) (models.User, error) {
	return f.updateAndGet(id, func(u *models.User) { u.Avatar = url })
}

func (f *FakeDB) UpdateCoverImage(ctx context.Context, id bson.ObjectID, url string) (models.User, error) {
	return f.updateAndGet(id, func(u *models.User) { u.CoverImage = url })
}

// Stored returns a copy of the stored user record for assertions.
func (f *FakeDB) Stored(id bson.ObjectID) (models.User, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()

	user, ok := f.users[id]

	return user, ok
}

// Count returns the number of stored users.
func (f *FakeDB) Count() int {
	f.mu.Lock()
	defer f.mu.Unlock()

	return len(f.users)
}

// Overwrite replaces a stored record directly, bypassing the interface.
func (f *FakeDB) Overwrite(user models.User) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.users[user.ID] = user
}

func (f *FakeDB) update(id bson.ObjectID, fn func(*models.User)) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	user, ok := f.users[id]
	if !ok {
		return apperrors.ErrUserNotFound
	}

	fn(&user)
	user.UpdatedAt = time.Now().Unix()
	f.users[id] = user

	return nil
}

func (f *FakeDB) updateAndGet(id bson.ObjectID, fn func(*models.User)) (models.User, error) {
	if err := f.update(id, fn); err != nil {
		return models.User{}, err
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	return f.users[id], nil
}

func normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// FakeUploader is an in-memory blob.Uploader that records uploads and
// deletions.
type FakeUploader struct {
	mu      sync.Mutex
	n       int
	Keys    []string
	Deleted []string

	// FailOn lists filenames whose upload should fail.
	FailOn map[string]bool
}

func NewFakeUploader() *FakeUploader {
	return &FakeUploader{FailOn: make(map[string]bool)}
}

func (f *FakeUploader) Upload(ctx context.Context, r io.Reader, size int64, contentType, filename string) (string, string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.FailOn[filename] {
		return "", "", errors.New("upload rejected")
	}

	f.n++
	key := fmt.Sprintf("obj-%d", f.n)
	f.Keys = append(f.Keys, key)

	return "https://blobs.test/" + key, key, nil
}

func (f *FakeUploader) Delete(ctx context.Context, key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.Deleted = append(f.Deleted, key)

	return nil
}

// UploadCount returns how many uploads succeeded.
func (f *FakeUploader) UploadCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()

	return f.n
}

// FakeKV is an in-memory kv.KeyValueStore that ignores expiry.
type FakeKV struct {
	mu   sync.Mutex
	data map[string]string
}

func NewFakeKV() *FakeKV {
	return &FakeKV{data: make(map[string]string)}
}

func (f *FakeKV) Set(key, value string, exp time.Duration) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.data[key] = value

	return nil
}

func (f *FakeKV) Get(key string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	value, ok := f.data[key]
	if !ok {
		return "", errors.New("key not found")
	}

	return value, nil
}

func (f *FakeKV) Del(key string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if _, ok := f.data[key]; !ok {
		return "", errors.New("delete cmd failed")
	}
	delete(f.data, key)

	return key, nil
}
