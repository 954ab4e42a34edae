package controllers_test

import (
	"bytes"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/Avishkar-x/Video-Streaming/config"
	"github.com/Avishkar-x/Video-Streaming/controllers"
	"github.com/Avishkar-x/Video-Streaming/forms"
	"github.com/Avishkar-x/Video-Streaming/service"
	"github.com/Avishkar-x/Video-Streaming/testutil"
	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type envelope struct {
	StatusCode int            `json:"statusCode"`
	Data       map[string]any `json:"data"`
	Message    string         `json:"message"`
	Success    bool           `json:"success"`
	Errors     []string       `json:"errors"`
}

func setupRouter(t *testing.T) (*gin.Engine, *testutil.FakeDB) {
	t.Helper()

	gin.SetMode(gin.TestMode)
	binding.Validator = new(forms.DefaultValidator)

	cfg := &config.Config{
		AccessTokenSecret:  "access-secret",
		RefreshTokenSecret: "refresh-secret",
		AccessTokenTTL:     time.Minute,
		RefreshTokenTTL:    time.Hour,
	}

	fdb := testutil.NewFakeDB()
	tokens := service.NewTokenService(cfg)
	users := service.NewUserService(fdb, tokens, testutil.NewFakeUploader(), testutil.NewFakeKV())

	auth := controllers.NewAuthController(users, tokens, cfg)
	user := controllers.NewUserController(users, cfg)

	r := gin.New()
	group := r.Group("/api/v1/users")
	group.POST("/register", user.Register)
	group.POST("/login", user.Login)
	group.POST("/refresh", auth.Refresh)

	authed := group.Group("", auth.RequireAuth())
	authed.POST("/logout", user.Logout)
	authed.POST("/change-password", user.ChangePassword)
	authed.PATCH("/account", user.UpdateAccount)
	authed.PATCH("/avatar", user.UpdateAvatar)
	authed.GET("/current-user", user.CurrentUser)

	return r, fdb
}

func registerBody(t *testing.T, fields map[string]string, files map[string]string) (io.Reader, string) {
	t.Helper()

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for name, value := range fields {
		require.NoError(t, w.WriteField(name, value))
	}
	for part, filename := range files {
		fw, err := w.CreateFormFile(part, filename)
		require.NoError(t, err)
		_, err = fw.Write([]byte("image-bytes"))
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())

	return &buf, w.FormDataContentType()
}

func doRequest(r *gin.Engine, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) envelope {
	t.Helper()

	var env envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))

	return env
}

func registerAlice(t *testing.T, r *gin.Engine) envelope {
	t.Helper()

	body, contentType := registerBody(t, map[string]string{
		"full_name": "Alice Smith",
		"email":     "alice@x.com",
		"username":  "alice",
		"password":  "pw123",
	}, map[string]string{"avatar": "avatar.png"})

	req := httptest.NewRequest(http.MethodPost, "/api/v1/users/register", body)
	req.Header.Set("Content-Type", contentType)
	rec := doRequest(r, req)

	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	return decode(t, rec)
}

func loginAlice(t *testing.T, r *gin.Engine) (*httptest.ResponseRecorder, []*http.Cookie) {
	t.Helper()

	form := url.Values{"username": {"alice"}, "password": {"pw123"}}
	req := httptest.NewRequest(http.MethodPost, "/api/v1/users/login", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := doRequest(r, req)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	return rec, rec.Result().Cookies()
}

func cookieByName(cookies []*http.Cookie, name string) *http.Cookie {
	for _, c := range cookies {
		if c.Name == name {
			return c
		}
	}

	return nil
}

func TestRegister_Success(t *testing.T) {
	r, _ := setupRouter(t)

	env := registerAlice(t, r)
	assert.True(t, env.Success)
	assert.Equal(t, "alice", env.Data["username"])
	// the stripped view never carries credentials
	assert.NotContains(t, env.Data, "password")
	assert.NotContains(t, env.Data, "refresh_token")
}

func TestRegister_MissingAvatar(t *testing.T) {
	r, _ := setupRouter(t)

	body, contentType := registerBody(t, map[string]string{
		"full_name": "Alice Smith",
		"email":     "alice@x.com",
		"username":  "alice",
		"password":  "pw123",
	}, nil)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/users/register", body)
	req.Header.Set("Content-Type", contentType)
	rec := doRequest(r, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.False(t, decode(t, rec).Success)
}

func TestRegister_BlankFullName(t *testing.T) {
	r, _ := setupRouter(t)

	body, contentType := registerBody(t, map[string]string{
		"full_name": "   ",
		"email":     "alice@x.com",
		"username":  "alice",
		"password":  "pw123",
	}, map[string]string{"avatar": "avatar.png"})

	req := httptest.NewRequest(http.MethodPost, "/api/v1/users/register", body)
	req.Header.Set("Content-Type", contentType)
	rec := doRequest(r, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRegister_Duplicate(t *testing.T) {
	r, _ := setupRouter(t)

	registerAlice(t, r)

	body, contentType := registerBody(t, map[string]string{
		"full_name": "Alice Clone",
		"email":     "alice@x.com",
		"username":  "alice2",
		"password":  "pw123",
	}, map[string]string{"avatar": "avatar.png"})

	req := httptest.NewRequest(http.MethodPost, "/api/v1/users/register", body)
	req.Header.Set("Content-Type", contentType)
	rec := doRequest(r, req)

	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.False(t, decode(t, rec).Success)
}

func TestLogin_SetsCookiesAndEchoesTokens(t *testing.T) {
	r, _ := setupRouter(t)
	registerAlice(t, r)

	rec, cookies := loginAlice(t, r)

	access := cookieByName(cookies, "accessToken")
	refresh := cookieByName(cookies, "refreshToken")
	require.NotNil(t, access)
	require.NotNil(t, refresh)
	assert.True(t, access.HttpOnly)
	assert.True(t, refresh.HttpOnly)

	env := decode(t, rec)
	assert.True(t, env.Success)
	assert.Equal(t, access.Value, env.Data["access_token"])
	assert.Equal(t, refresh.Value, env.Data["refresh_token"])
	user := env.Data["user"].(map[string]any)
	assert.Equal(t, "alice", user["username"])
}

func TestLogin_Failures(t *testing.T) {
	r, _ := setupRouter(t)
	registerAlice(t, r)

	form := url.Values{"username": {"alice"}, "password": {"wrong"}}
	req := httptest.NewRequest(http.MethodPost, "/api/v1/users/login", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	assert.Equal(t, http.StatusUnauthorized, doRequest(r, req).Code)

	form = url.Values{"username": {"nobody"}, "password": {"pw123"}}
	req = httptest.NewRequest(http.MethodPost, "/api/v1/users/login", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	assert.Equal(t, http.StatusNotFound, doRequest(r, req).Code)
}

func TestProtectedRoute_RequiresToken(t *testing.T) {
	r, _ := setupRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/users/current-user", nil)
	rec := doRequest(r, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	req = httptest.NewRequest(http.MethodGet, "/api/v1/users/current-user", nil)
	req.Header.Set("Authorization", "Bearer bogus")
	assert.Equal(t, http.StatusUnauthorized, doRequest(r, req).Code)
}

func TestCurrentUser_BearerHeader(t *testing.T) {
	r, _ := setupRouter(t)
	registerAlice(t, r)

	rec, _ := loginAlice(t, r)
	env := decode(t, rec)
	access := env.Data["access_token"].(string)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/users/current-user", nil)
	req.Header.Set("Authorization", "Bearer "+access)
	rec2 := doRequest(r, req)

	require.Equal(t, http.StatusOK, rec2.Code)
	assert.Equal(t, "alice", decode(t, rec2).Data["username"])
}

// A schemeless Authorization header is never treated as a token, even
// when its value happens to be a valid one.
func TestCurrentUser_RequiresBearerScheme(t *testing.T) {
	r, _ := setupRouter(t)
	registerAlice(t, r)

	rec, _ := loginAlice(t, r)
	access := decode(t, rec).Data["access_token"].(string)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/users/current-user", nil)
	req.Header.Set("Authorization", access)
	assert.Equal(t, http.StatusUnauthorized, doRequest(r, req).Code)

	req = httptest.NewRequest(http.MethodGet, "/api/v1/users/current-user", nil)
	req.Header.Set("Authorization", "Basic "+access)
	assert.Equal(t, http.StatusUnauthorized, doRequest(r, req).Code)
}

/// TestSessionLifecycle walks the full token lifecycle: login, refresh,
// replay of the rotated-out token, logout, and refresh after logout.
func TestSessionLifecycle(t *testing.T) {
	r, _ := setupRouter(t)
	registerAlice(t, r)

	_, cookies := loginAlice(t, r)
	refresh := cookieByName(cookies, "refreshToken")
	require.NotNil(t, refresh)

	// refresh via cookie succeeds and rotates the pair
	req := httptest.NewRequest(http.MethodPost, "/api/v1/users/refresh", nil)
	req.AddCookie(refresh)
	rec := doRequest(r, req)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rotated := cookieByName(rec.Result().Cookies(), "refreshToken")
	require.NotNil(t, rotated)
	assert.NotEqual(t, refresh.Value, rotated.Value)

	// replaying the superseded token is rejected
	req = httptest.NewRequest(http.MethodPost, "/api/v1/users/refresh", nil)
	req.AddCookie(refresh)
	assert.Equal(t, http.StatusUnauthorized, doRequest(r, req).Code)

	// refresh works with the token in the body as well
	form := url.Values{"refresh_token": {rotated.Value}}
	req = httptest.NewRequest(http.MethodPost, "/api/v1/users/refresh", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec = doRequest(r, req)
	require.Equal(t, http.StatusOK, rec.Code)
	current := cookieByName(rec.Result().Cookies(), "refreshToken")
	access := cookieByName(rec.Result().Cookies(), "accessToken")
	require.NotNil(t, current)
	require.NotNil(t, access)

	// logout clears both cookies
	req = httptest.NewRequest(http.MethodPost, "/api/v1/users/logout", nil)
	req.AddCookie(access)
	rec = doRequest(r, req)
	require.Equal(t, http.StatusOK, rec.Code)
	for _, name := range []string{"accessToken", "refreshToken"} {
		cleared := cookieByName(rec.Result().Cookies(), name)
		require.NotNil(t, cleared)
		assert.Empty(t, cleared.Value)
	}

	// the last issued refresh token died with the session
	req = httptest.NewRequest(http.MethodPost, "/api/v1/users/refresh", nil)
	req.AddCookie(current)
	assert.Equal(t, http.StatusUnauthorized, doRequest(r, req).Code)
}

func TestChangePassword_Flow(t *testing.T) {
	r, _ := setupRouter(t)
	registerAlice(t, r)

	rec, _ := loginAlice(t, r)
	access := decode(t, rec).Data["access_token"].(string)

	body := `{"old_password":"wrong","new_password":"newpw456"}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/users/change-password", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+access)
	assert.Equal(t, http.StatusUnauthorized, doRequest(r, req).Code)

	body = `{"old_password":"pw123","new_password":"newpw456"}`
	req = httptest.NewRequest(http.MethodPost, "/api/v1/users/change-password", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+access)
	assert.Equal(t, http.StatusOK, doRequest(r, req).Code)

	// only the new password logs in now
	form := url.Values{"username": {"alice"}, "password": {"pw123"}}
	req = httptest.NewRequest(http.MethodPost, "/api/v1/users/login", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	assert.Equal(t, http.StatusUnauthorized, doRequest(r, req).Code)

	form = url.Values{"username": {"alice"}, "password": {"newpw456"}}
	req = httptest.NewRequest(http.MethodPost, "/api/v1/users/login", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	assert.Equal(t, http.StatusOK, doRequest(r, req).Code)
}

func TestUpdateAccount_Flow(t *testing.T) {
	r, _ := setupRouter(t)
	registerAlice(t, r)

	rec, _ := loginAlice(t, r)
	access := decode(t, rec).Data["access_token"].(string)

	req := httptest.NewRequest(http.MethodPatch, "/api/v1/users/account", strings.NewReader(`{"full_name":"Alice B.","email":"alice.b@x.com"}`))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+access)
	rec2 := doRequest(r, req)

	require.Equal(t, http.StatusOK, rec2.Code)
	env := decode(t, rec2)
	assert.Equal(t, "Alice B.", env.Data["full_name"])
	assert.Equal(t, "alice.b@x.com", env.Data["email"])

	// both fields are mandatory
	req = httptest.NewRequest(http.MethodPatch, "/api/v1/users/account", strings.NewReader(`{"full_name":"Alice B."}`))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+access)
	assert.Equal(t, http.StatusBadRequest, doRequest(r, req).Code)
}

func TestUpdateAvatar_Flow(t *testing.T) {
	r, _ := setupRouter(t)
	env := registerAlice(t, r)
	originalAvatar := env.Data["avatar"].(string)

	rec, _ := loginAlice(t, r)
	access := decode(t, rec).Data["access_token"].(string)

	body, contentType := registerBody(t, nil, map[string]string{"avatar": "new-avatar.png"})
	req := httptest.NewRequest(http.MethodPatch, "/api/v1/users/avatar", body)
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Authorization", "Bearer "+access)
	rec2 := doRequest(r, req)

	require.Equal(t, http.StatusOK, rec2.Code, rec2.Body.String())
	assert.NotEqual(t, originalAvatar, decode(t, rec2).Data["avatar"])

	// a missing file part is a validation error
	req = httptest.NewRequest(http.MethodPatch, "/api/v1/users/avatar", nil)
	req.Header.Set("Authorization", "Bearer "+access)
	assert.Equal(t, http.StatusBadRequest, doRequest(r, req).Code)
}
