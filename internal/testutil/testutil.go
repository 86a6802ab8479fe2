package testutil

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"regexp"
	"testing"
	"time"

	"devqa/internal/config"
	"devqa/internal/db"
	"devqa/internal/models"
	"devqa/internal/utils"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// TestPassword is the plain password of every user made by CreateTestUser.
const TestPassword = "password123"

var unsafeName = regexp.MustCompile(`[^A-Za-z0-9_]`)

// SetupTestDB opens a private in-memory sqlite database with the full schema.
// Each test gets its own database, named after the test.
func SetupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := "file:" + unsafeName.ReplaceAllString(t.Name(), "_") +
		"?mode=memory&cache=shared&_pragma=foreign_keys(1)"
	database, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err, "open test database")

	sqlDB, err := database.DB()
	require.NoError(t, err)
	// one connection keeps the shared in-memory database free of lock errors
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	require.NoError(t, db.Migrate(database), "migrate test database")
	return database
}

// TestConfig returns a configuration suitable for handler tests.
func TestConfig(t *testing.T) config.Config {
	t.Helper()
	return config.Config{
		Port:          5000,
		JWTSecret:     "test-secret",
		TokenTTL:      time.Hour,
		CORSOrigin:    "http://localhost:5173",
		LogLevel:      "silent",
		GinMode:       "test",
		AcceptMode:    config.AcceptExclusive,
		UploadDir:     t.TempDir(),
		AvatarStorage: "local",
	}
}

// CreateTestUser inserts a user named username with TestPassword.
func CreateTestUser(t *testing.T, database *gorm.DB, username string) models.User {
	t.Helper()

	hash, err := utils.HashPassword(TestPassword)
	require.NoError(t, err)

	user := models.User{
		Username: username,
		Email:    username + "@example.com",
		Password: hash,
	}
	require.NoError(t, database.Create(&user).Error, "create test user")
	return user
}

// CreateTestQuestion inserts a question without tags.
func CreateTestQuestion(t *testing.T, database *gorm.DB, authorID uint, title string) models.Question {
	t.Helper()

	question := models.Question{
		Title:    title,
		Content:  "Some question body that is long enough to be valid.",
		Domain:   "Other",
		AuthorID: authorID,
	}
	require.NoError(t, database.Create(&question).Error, "create test question")
	return question
}

// CreateTestAnswer inserts an answer to questionID.
func CreateTestAnswer(t *testing.T, database *gorm.DB, authorID, questionID uint) models.Answer {
	t.Helper()

	answer := models.Answer{
		Content:    "An answer.",
		AuthorID:   authorID,
		QuestionID: questionID,
	}
	require.NoError(t, database.Create(&answer).Error, "create test answer")
	return answer
}

// MakeRequest creates an HTTP test request, JSON-encoding body when set.
func MakeRequest(method, path string, body interface{}, headers map[string]string) *http.Request {
	var req *http.Request
	if body != nil {
		jsonBody, _ := json.Marshal(body)
		req = httptest.NewRequest(method, path, bytes.NewReader(jsonBody))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}

	for k, v := range headers {
		req.Header.Set(k, v)
	}

	return req
}

// Bearer returns the Authorization header for token.
func Bearer(token string) map[string]string {
	return map[string]string{"Authorization": "Bearer " + token}
}

// AssertStatus checks that the response has the expected status code.
func AssertStatus(t *testing.T, w *httptest.ResponseRecorder, expected int) {
	t.Helper()
	require.Equal(t, expected, w.Code, "body: %s", w.Body.String())
}

// AssertJSON decodes the response body into v.
func AssertJSON(t *testing.T, w *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), v), "decode body: %s", w.Body.String())
}
