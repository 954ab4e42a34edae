package controllers

import (
	"io"
	"net/http"

	"github.com/Avishkar-x/Video-Streaming/config"
	"github.com/Avishkar-x/Video-Streaming/forms"
	"github.com/Avishkar-x/Video-Streaming/models"
	"github.com/Avishkar-x/Video-Streaming/service"
	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/v2/bson"
)

// UserController handles user-related HTTP requests and responses
type UserController struct {
	users *service.UserService
	cfg   *config.Config
}

// NewUserController creates and returns a new UserController instance
func NewUserController(users *service.UserService, cfg *config.Config) *UserController {
	return &UserController{users: users, cfg: cfg}
}

var userForm = new(forms.UserForm)

// getUserID extracts and returns the user ID from the Gin context
func getUserID(c *gin.Context) bson.ObjectID {
	//MustGet returns the value for the given key if it exists, otherwise it panics.
	return c.MustGet(ctxUserIDKey).(bson.ObjectID)
}

// Register handles new user registration: multipart text fields plus a
// mandatory avatar file part and an optional cover image part.
func (ctrl UserController) Register(c *gin.Context) {
	var registerForm forms.RegisterForm

	if err := c.ShouldBind(&registerForm); err != nil {
		respondError(c, http.StatusBadRequest, userForm.Message(err))
		return
	}

	avatar, closeAvatar, err := fileUpload(c, "avatar")
	if err != nil || avatar == nil {
		respondError(c, http.StatusBadRequest, "Avatar is necessary")
		return
	}
	defer closeAvatar.Close()

	cover, closeCover, err := fileUpload(c, "coverImage")
	if err != nil {
		cover = nil
	}
	if cover != nil {
		defer closeCover.Close()
	}

	user, err := ctrl.users.Register(c.Request.Context(), registerForm, avatar, cover)
	if err != nil {
		respondAppError(c, err)
		return
	}

	respond(c, http.StatusCreated, user, "Profile creation successful")
}

// Login authenticates by username or email and starts a session. The
// issued pair is set as httpOnly cookies and echoed in the body.
func (ctrl UserController) Login(c *gin.Context) {
	var loginForm forms.LoginForm

	if err := c.ShouldBind(&loginForm); err != nil {
		respondError(c, http.StatusBadRequest, userForm.Message(err))
		return
	}

	if loginForm.Identifier() == "" {
		respondError(c, http.StatusBadRequest, "username or email is required")
		return
	}

	user, pair, err := ctrl.users.Login(c.Request.Context(), loginForm)
	if err != nil {
		respondAppError(c, err)
		return
	}

	setAuthCookies(c, pair, ctrl.cfg)
	respond(c, http.StatusOK, gin.H{
		"user":          user,
		"access_token":  pair.AccessToken,
		"refresh_token": pair.RefreshToken,
	}, "User logged in successfully")
}

// Logout ends the session and clears both cookies.
func (ctrl UserController) Logout(c *gin.Context) {
	if err := ctrl.users.Logout(c.Request.Context(), getUserID(c)); err != nil {
		respondAppError(c, err)
		return
	}

	clearAuthCookies(c, ctrl.cfg)
	respond(c, http.StatusOK, nil, "User logged out")
}

// ChangePassword verifies the old password and stores a new hash.
func (ctrl UserController) ChangePassword(c *gin.Context) {
	var form forms.ChangePasswordForm

	if err := c.ShouldBind(&form); err != nil {
		respondError(c, http.StatusBadRequest, userForm.Message(err))
		return
	}

	if err := ctrl.users.ChangePassword(c.Request.Context(), getUserID(c), form.OldPassword, form.NewPassword); err != nil {
		respondAppError(c, err)
		return
	}

	respond(c, http.StatusOK, nil, "Password changed successfully")
}

// UpdateAccount replaces the full name and email of the caller.
func (ctrl UserController) UpdateAccount(c *gin.Context) {
	var form forms.UpdateAccountForm

	if err := c.ShouldBind(&form); err != nil {
		respondError(c, http.StatusBadRequest, userForm.Message(err))
		return
	}

	user, err := ctrl.users.UpdateAccount(c.Request.Context(), getUserID(c), form)
	if err != nil {
		respondAppError(c, err)
		return
	}

	respond(c, http.StatusOK, user, "Account details updated successfully")
}

// UpdateAvatar replaces the caller's avatar with the uploaded file.
func (ctrl UserController) UpdateAvatar(c *gin.Context) {
	file, closeFile, err := fileUpload(c, "avatar")
	if err != nil || file == nil {
		respondError(c, http.StatusBadRequest, "Avatar file is missing")
		return
	}
	defer closeFile.Close()

	user, err := ctrl.users.UpdateAvatar(c.Request.Context(), getUserID(c), file)
	if err != nil {
		respondAppError(c, err)
		return
	}

	respond(c, http.StatusOK, user, "Avatar updated successfully")
}

// UpdateCoverImage replaces the caller's cover image with the uploaded file.
func (ctrl UserController) UpdateCoverImage(c *gin.Context) {
	file, closeFile, err := fileUpload(c, "coverImage")
	if err != nil || file == nil {
		respondError(c, http.StatusBadRequest, "Cover image file is missing")
		return
	}
	defer closeFile.Close()

	user, err := ctrl.users.UpdateCoverImage(c.Request.Context(), getUserID(c), file)
	if err != nil {
		respondAppError(c, err)
		return
	}

	respond(c, http.StatusOK, user, "Cover image updated successfully")
}

// CurrentUser returns the authenticated user's stripped view.
func (ctrl UserController) CurrentUser(c *gin.Context) {
	respond(c, http.StatusOK, c.MustGet(ctxUserKey).(models.PublicUser), "Current user fetched successfully")
}

// fileUpload opens the named multipart file part. A missing part is
// returned as a nil upload so callers decide whether it is mandatory.
func fileUpload(c *gin.Context, field string) (*service.FileUpload, io.Closer, error) {
	fh, err := c.FormFile(field)
	if err != nil {
		return nil, nil, nil
	}

	f, err := fh.Open()
	if err != nil {
		return nil, nil, err
	}

	return &service.FileUpload{
		Reader:      f,
		Size:        fh.Size,
		ContentType: fh.Header.Get("Content-Type"),
		Filename:    fh.Filename,
	}, f, nil
}
