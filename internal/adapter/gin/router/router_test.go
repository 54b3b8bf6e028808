package router

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/glebarez/sqlite"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"profile-service/internal/adapter/db/postgres"
	"profile-service/internal/adapter/gin/handler"
	"profile-service/internal/adapter/memory"
	"profile-service/internal/adapter/mirror"
	"profile-service/internal/adapter/remote"
	"profile-service/internal/adapter/repository/cached"
	"profile-service/internal/usecase/profile"
	"profile-service/internal/usecase/record"
	"profile-service/pkg/logger"
)

func setupAPI(t *testing.T) *gin.Engine {
	gin.SetMode(gin.TestMode)
	log := zaptest.NewLogger(t)

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	repo := postgres.NewRecordRepoPG(db, log)
	require.NoError(t, repo.Migrate(context.Background()))

	uc := record.New(cached.NewCachedRecordRepository(repo, nil, log), log)
	return SetupAPIRouter(handler.NewProfileHandler(uc, log), nil, APIOptions{ServiceName: "profile-api"}, log)
}

func serve(r http.Handler, method, path string, body string, header map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	for k, v := range header {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestAPIRouter_Health(t *testing.T) {
	r := setupAPI(t)

	w := serve(r, http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"healthy","service":"profile-api"}`, w.Body.String())
	assert.NotEmpty(t, w.Header().Get(logger.RequestIDHeader))
}

func TestAPIRouter_EchoesRequestID(t *testing.T) {
	r := setupAPI(t)

	w := serve(r, http.MethodGet, "/health", "", map[string]string{logger.RequestIDHeader: "req-42"})
	assert.Equal(t, "req-42", w.Header().Get(logger.RequestIDHeader))
}

func TestAPIRouter_CORS(t *testing.T) {
	r := setupAPI(t)

	w := serve(r, http.MethodGet, "/v1/profiles", "", map[string]string{"Origin": "http://localhost:3000"})
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))

	w = serve(r, http.MethodOptions, "/v1/profiles", "", map[string]string{
		"Origin":                        "http://localhost:3000",
		"Access-Control-Request-Method": http.MethodPut,
	})
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Contains(t, w.Header().Get("Access-Control-Allow-Methods"), http.MethodPut)
}

func TestCORSConfig(t *testing.T) {
	cfg := corsConfig([]string{"https://app.example.com"})
	assert.False(t, cfg.AllowAllOrigins)
	assert.Equal(t, []string{"https://app.example.com"}, cfg.AllowOrigins)

	cfg = corsConfig([]string{"https://app.example.com", "*"})
	assert.True(t, cfg.AllowAllOrigins)
	assert.Empty(t, cfg.AllowOrigins)

	assert.True(t, corsConfig(nil).AllowAllOrigins)
}

func TestAPIRouter_ProfileCollection(t *testing.T) {
	r := setupAPI(t)
	jsonHeader := map[string]string{"Content-Type": "application/json"}

	w := serve(r, http.MethodPost, "/v1/profiles", `{"username":"Alice","name":"Alice","email":"alice@b.com","age":30}`, jsonHeader)
	require.Equal(t, http.StatusCreated, w.Code)

	var created handler.ProfileResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))
	require.NotEmpty(t, created.ID)

	w = serve(r, http.MethodGet, "/v1/profiles?username=Alice", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var listed []handler.ProfileResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &listed))
	require.Len(t, listed, 1)
	assert.Equal(t, created.ID, listed[0].ID)

	w = serve(r, http.MethodGet, "/v1/profiles?username=Bob", "", nil)
	assert.Equal(t, "[]", w.Body.String())

	w = serve(r, http.MethodPut, "/v1/profiles/"+created.ID, `{"name":"Alicia","email":"alice@b.com"}`, jsonHeader)
	require.Equal(t, http.StatusOK, w.Code)
	var replaced handler.ProfileResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &replaced))
	assert.Equal(t, "Alice", replaced.Username)
	assert.Equal(t, "Alicia", replaced.Name)
	assert.Nil(t, replaced.Age)

	w = serve(r, http.MethodDelete, "/v1/profiles/"+created.ID, "", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = serve(r, http.MethodGet, "/v1/profiles/"+created.ID, "", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestAPIRouter_UnknownRoute(t *testing.T) {
	r := setupAPI(t)

	w := serve(r, http.MethodGet, "/v2/things", "", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.JSONEq(t, `{"error":"not_found","message":"route not found"}`, w.Body.String())
}

type webFixture struct {
	web    *gin.Engine
	api    *gin.Engine
	mirror *mirror.RedisMirror
	redis  *miniredis.Miniredis
}

func setupWeb(t *testing.T) *webFixture {
	api := setupAPI(t)
	srv := httptest.NewServer(api)
	t.Cleanup(srv.Close)

	log := zaptest.NewLogger(t)

	mr := miniredis.RunT(t)
	rdb := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	m := mirror.NewRedisMirror(rdb, "profile", log)

	client := remote.NewClient(remote.Config{BaseURL: srv.URL + "/v1/profiles", MatchEmail: true}, log)
	fv, err := profile.NewFormValidator("")
	require.NoError(t, err)
	uc := profile.New(client, memory.NewProfileStore(), m, fv, log)

	web, err := SetupWebRouter(handler.NewPageHandler(uc, log), "profile-web", log)
	require.NoError(t, err)

	return &webFixture{web: web, api: api, mirror: m, redis: mr}
}

func submit(r http.Handler, form url.Values) *httptest.ResponseRecorder {
	return serve(r, http.MethodPost, handler.PathForm, form.Encode(), map[string]string{
		"Content-Type": "application/x-www-form-urlencoded",
	})
}

func remoteRecords(t *testing.T, api http.Handler, query string) []handler.ProfileResponse {
	w := serve(api, http.MethodGet, "/v1/profiles?"+query, "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var out []handler.ProfileResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	return out
}

func TestWebRouter_ProfileLifecycle(t *testing.T) {
	f := setupWeb(t)
	ctx := context.Background()

	w := serve(f.web, http.MethodGet, "/", "", nil)
	assert.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, handler.PathForm, w.Header().Get("Location"))

	// create
	w = submit(f.web, url.Values{"name": {"Alice"}, "email": {"alice@b.com"}, "age": {"30"}})
	require.Equal(t, http.StatusSeeOther, w.Code)
	assert.Equal(t, "/profile-page?notice=created", w.Header().Get("Location"))

	w = serve(f.web, http.MethodGet, "/profile-page?notice=created", "", nil)
	body := w.Body.String()
	assert.Contains(t, body, profile.NoticeCreated)
	assert.Contains(t, body, "Name: Alice")
	assert.Contains(t, body, "Age: 30")
	assert.Contains(t, body, "welcome, Alice")

	records := remoteRecords(t, f.api, "username=Alice")
	require.Len(t, records, 1)
	id := records[0].ID

	mirrored, err := f.mirror.Load(ctx)
	require.NoError(t, err)
	require.NotNil(t, mirrored)
	assert.Equal(t, id, mirrored.ID)

	// update keeps the remote record
	w = submit(f.web, url.Values{"name": {"Alice"}, "email": {"alice@b.com"}})
	assert.Equal(t, "/profile-page?notice=updated", w.Header().Get("Location"))

	records = remoteRecords(t, f.api, "username=Alice")
	require.Len(t, records, 1)
	assert.Equal(t, id, records[0].ID)
	assert.Nil(t, records[0].Age)

	w = serve(f.web, http.MethodGet, handler.PathProfile, "", nil)
	assert.Contains(t, w.Body.String(), "Age: Not Provided")

	// delete
	w = serve(f.web, http.MethodPost, handler.PathDelete, "", nil)
	assert.Contains(t, w.Body.String(), "Confirm Delete")
	assert.Len(t, remoteRecords(t, f.api, "username=Alice"), 1)

	w = serve(f.web, http.MethodPost, handler.PathDeleteConfirm, "", nil)
	assert.Equal(t, http.StatusSeeOther, w.Code)
	assert.Equal(t, handler.PathForm, w.Header().Get("Location"))

	assert.Empty(t, remoteRecords(t, f.api, "username=Alice"))
	assert.False(t, f.redis.Exists("profile"))

	w = serve(f.web, http.MethodGet, handler.PathProfile, "", nil)
	assert.Contains(t, w.Body.String(), "No profile found !!")
}

func TestWebRouter_ValidationNeverReachesRemote(t *testing.T) {
	f := setupWeb(t)

	w := submit(f.web, url.Values{"name": {"Al"}, "email": {"alice@b.com"}})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), profile.MsgNameTooShort)
	assert.Empty(t, remoteRecords(t, f.api, "username=Al"))
}

func TestWebRouter_ResubmitMatchesStoredName(t *testing.T) {
	tests := []struct {
		label string
		name  string
		email string
	}{
		{"trailing blank", "Alice ", "alice@b.com"},
		{"leading blanks", "  Alice", "alice@b.com"},
		{"angle brackets", "Bob <3", "bob@b.com"},
	}

	for _, tt := range tests {
		t.Run(tt.label, func(t *testing.T) {
			f := setupWeb(t)
			form := url.Values{"name": {tt.name}, "email": {tt.email}}
			query := url.Values{"email": {tt.email}}.Encode()

			w := submit(f.web, form)
			require.Equal(t, http.StatusSeeOther, w.Code)
			assert.Equal(t, "/profile-page?notice=created", w.Header().Get("Location"))

			records := remoteRecords(t, f.api, query)
			require.Len(t, records, 1)
			assert.Equal(t, tt.name, records[0].Username)

			w = submit(f.web, form)
			require.Equal(t, http.StatusSeeOther, w.Code)
			assert.Equal(t, "/profile-page?notice=updated", w.Header().Get("Location"))

			again := remoteRecords(t, f.api, query)
			require.Len(t, again, 1)
			assert.Equal(t, records[0].ID, again[0].ID)

			byName := remoteRecords(t, f.api, url.Values{"username": {tt.name}}.Encode())
			require.Len(t, byName, 1)
			assert.Equal(t, records[0].ID, byName[0].ID)
		})
	}
}

func TestWebRouter_FormRejectsWhatRemoteRejects(t *testing.T) {
	tests := []struct {
		name string
		form url.Values
		msg  string
	}{
		{"trailing dot in local part", url.Values{"name": {"Alice"}, "email": {"a.@b.com"}}, profile.MsgInvalidEmail},
		{"consecutive dots", url.Values{"name": {"Alice"}, "email": {"a..b@b.com"}}, profile.MsgInvalidEmail},
		{"name too long", url.Values{"name": {strings.Repeat("a", 255)}, "email": {"alice@b.com"}}, profile.MsgNameTooLong},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := setupWeb(t)

			w := submit(f.web, tt.form)
			assert.Equal(t, http.StatusBadRequest, w.Code)
			assert.Contains(t, w.Body.String(), tt.msg)
			assert.Empty(t, remoteRecords(t, f.api, ""))
		})
	}
}

func TestWebRouter_AcceptedFormIsStored(t *testing.T) {
	for _, form := range []url.Values{
		{"name": {"Alice"}, "email": {"a%b@b.com"}},
		{"name": {strings.Repeat("ë", 254)}, "email": {"alice@b.com"}},
	} {
		f := setupWeb(t)

		w := submit(f.web, form)
		require.Equal(t, http.StatusSeeOther, w.Code, form.Encode())
		assert.Equal(t, "/profile-page?notice=created", w.Header().Get("Location"))
		assert.Len(t, remoteRecords(t, f.api, ""), 1)
	}
}

func TestWebRouter_LogoutKeepsRemoteRecord(t *testing.T) {
	f := setupWeb(t)

	submit(f.web, url.Values{"name": {"Alice"}, "email": {"alice@b.com"}})
	require.True(t, f.redis.Exists("profile"))

	w := serve(f.web, http.MethodPost, handler.PathLogout, "", nil)
	assert.Equal(t, http.StatusSeeOther, w.Code)

	assert.False(t, f.redis.Exists("profile"))
	assert.Len(t, remoteRecords(t, f.api, "username=Alice"), 1)

	w = serve(f.web, http.MethodGet, handler.PathForm, "", nil)
	assert.Contains(t, w.Body.String(), "Create Profile")
	assert.Contains(t, w.Body.String(), ">Login</a>")
}

func TestWebRouter_NotFound(t *testing.T) {
	f := setupWeb(t)

	w := serve(f.web, http.MethodGet, "/nope", "", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, w.Body.String(), "Oops! Page not found.")
}
