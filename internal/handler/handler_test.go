package handler_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"chirp/config"
	"chirp/internal/auth"
	"chirp/internal/database"
	"chirp/internal/models"
	"chirp/internal/repository"
	"chirp/internal/router"

	"github.com/gin-gonic/gin"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type testEnv struct {
	cfg    *config.Config
	db     *gorm.DB
	engine *gin.Engine
}

func newEnv(t *testing.T) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)
	cfg := config.Load()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := database.AutoMigrate(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return &testEnv{cfg: cfg, db: db, engine: router.Setup(cfg, db, nil)}
}

func (e *testEnv) token(t *testing.T, externalID, email, username string) string {
	t.Helper()
	token, err := auth.GenerateToken(&e.cfg.JWT, externalID, email, username)
	if err != nil {
		t.Fatalf("GenerateToken: %v", err)
	}
	return token
}

// register creates a user record the way the identity sync would, and
// returns it with a matching bearer token.
func (e *testEnv) register(t *testing.T, externalID, username string) (*models.User, string) {
	t.Helper()
	repo := repository.NewUserRepository(e.db)
	u, err := repo.CreateOrUpdate(externalID, username+"@example.com", username, "")
	if err != nil {
		t.Fatalf("register %s: %v", username, err)
	}
	return u, e.token(t, externalID, u.Email, username)
}

func (e *testEnv) do(t *testing.T, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	e.engine.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, into interface{}) {
	t.Helper()
	if err := json.Unmarshal(rec.Body.Bytes(), into); err != nil {
		t.Fatalf("decode response %q: %v", rec.Body.String(), err)
	}
}

func wantStatus(t *testing.T, rec *httptest.ResponseRecorder, want int) {
	t.Helper()
	if rec.Code != want {
		t.Fatalf("status: want %d, got %d (body %s)", want, rec.Code, rec.Body.String())
	}
}

// startConversation creates (or reuses) a conversation over the API and
// returns its ID.
func (e *testEnv) startConversation(t *testing.T, token string, participantIDs []uint, isGroup bool) uint {
	t.Helper()
	rec := e.do(t, http.MethodPost, "/api/v1/conversations", token, gin.H{
		"participant_ids": participantIDs,
		"is_group":        isGroup,
	})
	if rec.Code != http.StatusCreated && rec.Code != http.StatusOK {
		t.Fatalf("create conversation: %d (%s)", rec.Code, rec.Body.String())
	}
	var resp struct {
		ConversationID uint `json:"conversation_id"`
	}
	decode(t, rec, &resp)
	return resp.ConversationID
}
