package handlers_test

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/anonto42/inkwell/backend/internal/middleware"
	"github.com/anonto42/inkwell/backend/internal/models"
	"github.com/anonto42/inkwell/backend/internal/realtime"
	"github.com/anonto42/inkwell/backend/internal/router"
	"github.com/anonto42/inkwell/backend/pkg/broker"
	"github.com/anonto42/inkwell/backend/validators"
	"github.com/golang-jwt/jwt/v4"
	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

const testSecret = "handlers-test-secret"

type testApp struct {
	e        *echo.Echo
	db       *gorm.DB
	broker   *broker.Manager
	registry *realtime.Registry
}

func quietLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

func newTestApp(t *testing.T, heartbeat time.Duration) *testApp {
	t.Helper()
	log := quietLogger()

	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	db, err := gorm.Open(sqlite.Open(fmt.Sprintf("file:%s?mode=memory&cache=shared", name)), &gorm.Config{
		TranslateError: true,
		Logger:         gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	require.NoError(t, router.Migrate(db))

	m := broker.NewManager(log)
	require.NoError(t, m.Connect(context.Background(), true, ""))
	t.Cleanup(func() { _ = m.Disconnect() })

	registry := realtime.NewRegistry(log)
	listener := realtime.NewListener(m, registry, log)
	listener.Start(context.Background())
	t.Cleanup(listener.Stop)
	require.Eventually(t, func() bool {
		n, err := m.Client().PubSubNumPat(context.Background()).Result()
		return err == nil && n == 1
	}, 2*time.Second, 10*time.Millisecond)

	e := echo.New()
	e.Validator = validators.NewValidator()
	router.SetupRoutes(e, router.Dependencies{
		DB:         db,
		Broker:     m,
		Registry:   registry,
		Publisher:  realtime.NewPublisher(m, log),
		StreamAuth: middleware.NewJWTStreamAuthenticator(testSecret),
		JWTSecret:  testSecret,
		Heartbeat:  heartbeat,
		QueueSize:  8,
		Log:        log,
	})

	return &testApp{e: e, db: db, broker: m, registry: registry}
}

func (a *testApp) createUser(t *testing.T, name string) models.User {
	t.Helper()
	u := models.User{FullName: name, Email: strings.ToLower(name) + "@example.com"}
	require.NoError(t, a.db.Create(&u).Error)
	return u
}

func tokenFor(t *testing.T, u models.User) string {
	t.Helper()
	claims := &models.JwtCustomClaims{
		UserID: u.ID,
		Email:  u.Email,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
	s, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testSecret))
	require.NoError(t, err)
	return s
}

func (a *testApp) do(t *testing.T, as models.User, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set(echo.HeaderAuthorization, "Bearer "+tokenFor(t, as))
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	a.e.ServeHTTP(rec, req)
	return rec
}

func (a *testApp) createBlog(t *testing.T, author models.User, title string) models.Blog {
	t.Helper()
	rec := a.do(t, author, http.MethodPost, "/api/v1/blogs", fmt.Sprintf(`{"title":%q,"content":"body"}`, title))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var blog models.Blog
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &blog))
	return blog
}

type notificationPage struct {
	Total  int64            `json:"total"`
	Limit  int              `json:"limit"`
	Offset int              `json:"offset"`
	Data   []map[string]any `json:"data"`
}

func (a *testApp) listNotifications(t *testing.T, as models.User, query string) notificationPage {
	t.Helper()
	rec := a.do(t, as, http.MethodGet, "/api/v1/notifications"+query, "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var page notificationPage
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &page))
	return page
}

func detail(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body["detail"]
}

func TestFollowerGetsNewBlogNotification(t *testing.T) {
	app := newTestApp(t, time.Minute)
	a, b := app.createUser(t, "Alice"), app.createUser(t, "Bob")

	rec := app.do(t, a, http.MethodPost, fmt.Sprintf("/api/v1/users/%d/follow", b.ID), "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	blog := app.createBlog(t, b, "Concurrency in Go")

	page := app.listNotifications(t, a, "")
	assert.Equal(t, int64(1), page.Total)
	assert.Equal(t, 10, page.Limit)
	assert.Equal(t, 0, page.Offset)
	require.Len(t, page.Data, 1)
	assert.Equal(t, "new_blog", page.Data[0]["notification_type"])
	assert.Equal(t, float64(b.ID), page.Data[0]["triggered_by_user_id"])
	assert.Equal(t, float64(blog.ID), page.Data[0]["blog_id"])
	assert.Equal(t, "Bob uploaded new blog Concurrency in Go", page.Data[0]["message"])
}

func TestNewBlogFansOutToEveryFollower(t *testing.T) {
	app := newTestApp(t, time.Minute)
	author := app.createUser(t, "Author")
	followers := []models.User{app.createUser(t, "F1"), app.createUser(t, "F2"), app.createUser(t, "F3")}
	for _, f := range followers {
		require.Equal(t, http.StatusOK, app.do(t, f, http.MethodPost, fmt.Sprintf("/api/v1/users/%d/follow", author.ID), "").Code)
	}

	blog := app.createBlog(t, author, "Fan out")

	var count int64
	require.NoError(t, app.db.Model(&models.Notification{}).
		Where("notification_type = ? AND blog_id = ?", models.NotificationNewBlog, blog.ID).Count(&count).Error)
	assert.Equal(t, int64(len(followers)), count)
	for _, f := range followers {
		assert.Equal(t, int64(1), app.listNotifications(t, f, "").Total)
	}
}

func TestLikeThenUnlikeLeavesNoNotification(t *testing.T) {
	app := newTestApp(t, time.Minute)
	a, b := app.createUser(t, "Alice"), app.createUser(t, "Bob")
	blog := app.createBlog(t, b, "Mine")
	path := fmt.Sprintf("/api/v1/blogs/%d/like", blog.ID)

	rec := app.do(t, a, http.MethodPost, path, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "added to liked blogs", detail(t, rec))
	assert.Equal(t, int64(1), app.listNotifications(t, b, "").Total)

	rec = app.do(t, a, http.MethodPost, path, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "removed from liked blogs", detail(t, rec))
	assert.Equal(t, int64(0), app.listNotifications(t, b, "").Total)
}

func TestRelikeKeepsSingleNotification(t *testing.T) {
	app := newTestApp(t, time.Minute)
	a, b := app.createUser(t, "Alice"), app.createUser(t, "Bob")
	blog := app.createBlog(t, b, "Mine")
	path := fmt.Sprintf("/api/v1/blogs/%d/like", blog.ID)

	for i := 0; i < 5; i++ {
		require.Equal(t, http.StatusOK, app.do(t, a, http.MethodPost, path, "").Code)
		page := app.listNotifications(t, b, "")
		assert.LessOrEqual(t, page.Total, int64(1))
	}

	page := app.listNotifications(t, b, "")
	assert.Equal(t, int64(1), page.Total)
	require.Len(t, page.Data, 1)
	assert.Equal(t, "like", page.Data[0]["notification_type"])
	assert.Equal(t, "Alice liked your blog Mine", page.Data[0]["message"])
}

func TestSelfActionsDoNotNotify(t *testing.T) {
	app := newTestApp(t, time.Minute)
	b := app.createUser(t, "Bob")
	blog := app.createBlog(t, b, "Mine")

	require.Equal(t, http.StatusOK, app.do(t, b, http.MethodPost, fmt.Sprintf("/api/v1/blogs/%d/like", blog.ID), "").Code)
	require.Equal(t, http.StatusCreated, app.do(t, b, http.MethodPost, fmt.Sprintf("/api/v1/blogs/%d/comments", blog.ID), `{"content":"note to self"}`).Code)

	rec := app.do(t, b, http.MethodPost, fmt.Sprintf("/api/v1/users/%d/follow", b.ID), "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	var count int64
	require.NoError(t, app.db.Model(&models.Notification{}).Where("owner_id = triggered_by_user_id").Count(&count).Error)
	assert.Zero(t, count)
}

func TestFollowRules(t *testing.T) {
	app := newTestApp(t, time.Minute)
	a, b := app.createUser(t, "Alice"), app.createUser(t, "Bob")
	path := fmt.Sprintf("/api/v1/users/%d/follow", b.ID)

	require.Equal(t, http.StatusOK, app.do(t, a, http.MethodPost, path, "").Code)
	assert.Equal(t, http.StatusConflict, app.do(t, a, http.MethodPost, path, "").Code)

	require.Equal(t, http.StatusOK, app.do(t, a, http.MethodDelete, path, "").Code)
	assert.Equal(t, http.StatusNotFound, app.do(t, a, http.MethodDelete, path, "").Code)

	// following again does not repeat the notification
	require.Equal(t, http.StatusOK, app.do(t, a, http.MethodPost, path, "").Code)
	page := app.listNotifications(t, b, "")
	assert.Equal(t, int64(1), page.Total)
	assert.Equal(t, "follow", page.Data[0]["notification_type"])
	assert.Nil(t, page.Data[0]["blog_id"])

	assert.Equal(t, http.StatusNotFound, app.do(t, a, http.MethodPost, "/api/v1/users/999/follow", "").Code)
}

func TestCommentNotifiesAuthor(t *testing.T) {
	app := newTestApp(t, time.Minute)
	a, b := app.createUser(t, "Alice"), app.createUser(t, "Bob")
	blog := app.createBlog(t, b, "Mine")

	rec := app.do(t, a, http.MethodPost, fmt.Sprintf("/api/v1/blogs/%d/comments", blog.ID), `{"content":"great read"}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	page := app.listNotifications(t, b, "")
	require.Equal(t, int64(1), page.Total)
	assert.Equal(t, "comment", page.Data[0]["notification_type"])

	rec = app.do(t, a, http.MethodPost, fmt.Sprintf("/api/v1/blogs/%d/comments", blog.ID), `{"content":""}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestMarkAsRead(t *testing.T) {
	app := newTestApp(t, time.Minute)
	a, b := app.createUser(t, "Alice"), app.createUser(t, "Bob")
	require.Equal(t, http.StatusOK, app.do(t, a, http.MethodPost, fmt.Sprintf("/api/v1/users/%d/follow", b.ID), "").Code)
	id := uint(app.listNotifications(t, b, "").Data[0]["id"].(float64))
	path := fmt.Sprintf("/api/v1/notifications/%d/mark_as_read", id)

	assert.Equal(t, http.StatusForbidden, app.do(t, a, http.MethodPost, path, "").Code)
	assert.Equal(t, http.StatusNotFound, app.do(t, b, http.MethodPost, fmt.Sprintf("/api/v1/notifications/%d/mark_as_read", id+50), "").Code)
	assert.Equal(t, http.StatusBadRequest, app.do(t, b, http.MethodPost, "/api/v1/notifications/abc/mark_as_read", "").Code)

	rec := app.do(t, b, http.MethodPost, path, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Marked notification as read", detail(t, rec))

	rec = app.do(t, b, http.MethodPost, path, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Already marked as read", detail(t, rec))

	assert.Equal(t, http.StatusForbidden, app.do(t, a, http.MethodPost, path, "").Code)
}

func TestUnreadCountAndReadAll(t *testing.T) {
	app := newTestApp(t, time.Minute)
	b := app.createUser(t, "Bob")
	for _, name := range []string{"Ann", "Cat", "Dan"} {
		u := app.createUser(t, name)
		require.Equal(t, http.StatusOK, app.do(t, u, http.MethodPost, fmt.Sprintf("/api/v1/users/%d/follow", b.ID), "").Code)
	}

	rec := app.do(t, b, http.MethodGet, "/api/v1/notifications/unread-count", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"count":3}`, rec.Body.String())

	require.Equal(t, http.StatusOK, app.do(t, b, http.MethodPut, "/api/v1/notifications/read-all", "").Code)

	rec = app.do(t, b, http.MethodGet, "/api/v1/notifications/unread-count", "")
	assert.JSONEq(t, `{"count":0}`, rec.Body.String())
}

func TestListNotificationsQuery(t *testing.T) {
	app := newTestApp(t, time.Minute)
	b := app.createUser(t, "Bob")
	for _, name := range []string{"Ann", "Cat", "Dan"} {
		u := app.createUser(t, name)
		require.Equal(t, http.StatusOK, app.do(t, u, http.MethodPost, fmt.Sprintf("/api/v1/users/%d/follow", b.ID), "").Code)
	}

	page := app.listNotifications(t, b, "?limit=2&offset=0")
	assert.Equal(t, int64(3), page.Total)
	assert.Len(t, page.Data, 2)

	page = app.listNotifications(t, b, "?limit=2&offset=2")
	assert.Len(t, page.Data, 1)

	page = app.listNotifications(t, b, "?search=cat")
	require.Equal(t, int64(1), page.Total)
	assert.Equal(t, "Cat started following you", page.Data[0]["message"])

	// no upper bound on the page size
	page = app.listNotifications(t, b, "?limit=500")
	assert.Equal(t, 500, page.Limit)
	assert.Len(t, page.Data, 3)

	assert.Equal(t, http.StatusBadRequest, app.do(t, b, http.MethodGet, "/api/v1/notifications?limit=0", "").Code)
	assert.Equal(t, http.StatusBadRequest, app.do(t, b, http.MethodGet, "/api/v1/notifications?offset=-1", "").Code)
	assert.Equal(t, http.StatusBadRequest, app.do(t, b, http.MethodGet, "/api/v1/notifications?limit=abc", "").Code)
}

func TestProtectedRoutesRequireToken(t *testing.T) {
	app := newTestApp(t, time.Minute)

	rec := httptest.NewRecorder()
	app.e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/notifications", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestHealthReportsBroker(t *testing.T) {
	app := newTestApp(t, time.Minute)

	rec := httptest.NewRecorder()
	app.e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"broker":"up"`)

	require.NoError(t, app.broker.Disconnect())
	rec = httptest.NewRecorder()
	app.e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}
