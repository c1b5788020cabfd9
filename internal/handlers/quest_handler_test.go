package handlers

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/glebarez/sqlite"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"quest-market/internal/auth"
	"quest-market/internal/database"
	"quest-market/internal/middleware"
	"quest-market/internal/repository"
	"quest-market/internal/services"
)

func setupRouter(t *testing.T, completePerMinute, completeBurst int) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	auth.InitJWT("test-secret")

	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	db, err := gorm.Open(sqlite.Open(fmt.Sprintf("file:%s?mode=memory&cache=shared", name)), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, database.Migrate(db))

	repo := repository.NewRepository(db)
	ledger := services.NewLedgerService(repo)
	svc := Services{
		Users:    services.NewUserService(repo, decimal.NewFromInt(450)),
		Quests:   services.NewQuestService(repo, ledger),
		Ledger:   ledger,
		Messages: services.NewMessageService(repo),
	}

	router := gin.New()
	RegisterRoutes(router, svc, middleware.NewRateLimiter(completePerMinute, completeBurst))
	return router
}

func doJSON(t *testing.T, router *gin.Engine, method, path string, body interface{}, headers ...string) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}

	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func registerUser(t *testing.T, router *gin.Engine, username string) {
	t.Helper()

	w := doJSON(t, router, http.MethodPost, "/auth/register", gin.H{
		"name":     username,
		"username": username,
		"email":    username + "@campus.edu",
		"password": "secret",
		"dob":      "2002-02-02",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
}

func createQuest(t *testing.T, router *gin.Engine, poster string, reward int) map[string]interface{} {
	t.Helper()

	w := doJSON(t, router, http.MethodPost, "/quests", gin.H{
		"title":       "Return library book",
		"description": "Due today",
		"reward":      reward,
		"xp":          25,
		"urgency":     "urgent",
		"location":    "Main library",
		"deadline":    "Tonight",
		"postedBy":    poster,
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var quest map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &quest))
	return quest
}

func decodeMap(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return out
}

func TestQuestRoutes_Lifecycle(t *testing.T) {
	router := setupRouter(t, 6, 3)
	registerUser(t, router, "alice")
	registerUser(t, router, "bob")

	quest := createQuest(t, router, "alice", 100)
	id := quest["id"].(string)
	otp, ok := quest["otp"].(string)
	require.True(t, ok, "creator must see the otp")
	assert.Len(t, otp, 4)
	assert.Equal(t, "open", quest["status"])
	assert.Equal(t, float64(100), quest["reward"])

	w := doJSON(t, router, http.MethodGet, "/auth/me?username=alice", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, float64(350), decodeMap(t, w)["balance"])

	w = doJSON(t, router, http.MethodPut, "/quests/"+id+"/accept", gin.H{"heroUsername": "bob"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	accepted := decodeMap(t, w)["quest"].(map[string]interface{})
	assert.Equal(t, "active", accepted["status"])
	assert.NotContains(t, accepted, "otp")

	w = doJSON(t, router, http.MethodPost, "/quests/"+id+"/complete", gin.H{"heroUsername": "bob", "otp": otp})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = doJSON(t, router, http.MethodGet, "/auth/me?username=bob", nil)
	require.Equal(t, http.StatusOK, w.Code)
	bob := decodeMap(t, w)
	assert.Equal(t, float64(550), bob["balance"])
	assert.Equal(t, float64(25), bob["xp"])
	assert.NotContains(t, bob, "passwordHash")

	w = doJSON(t, router, http.MethodPost, "/quests/"+id+"/rate", gin.H{"rating": 4})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, 4.0, decodeMap(t, w)["newRating"])

	w = doJSON(t, router, http.MethodPost, "/quests/"+id+"/rate", gin.H{"rating": 2})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doJSON(t, router, http.MethodGet, "/users/bob/transactions", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var entries []map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &entries))
	require.Len(t, entries, 1)
	assert.Equal(t, "credit", entries[0]["type"])
	assert.Equal(t, float64(100), entries[0]["amount"])
}

func TestQuestRoutes_ListRedactsOTP(t *testing.T) {
	router := setupRouter(t, 6, 3)
	registerUser(t, router, "alice")
	registerUser(t, router, "bob")
	createQuest(t, router, "alice", 10)
	createQuest(t, router, "bob", 10)

	for _, path := range []string{"/quests", "/quests?username=carol"} {
		w := doJSON(t, router, http.MethodGet, path, nil)
		require.Equal(t, http.StatusOK, w.Code)
		assert.NotContains(t, w.Body.String(), `"otp"`, path)
	}

	w := doJSON(t, router, http.MethodGet, "/quests?username=alice", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var quests []map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &quests))
	require.Len(t, quests, 2)
	for _, q := range quests {
		if q["postedBy"] == "alice" {
			assert.Contains(t, q, "otp")
		} else {
			assert.NotContains(t, q, "otp")
		}
	}
}

func TestQuestRoutes_ErrorStatuses(t *testing.T) {
	router := setupRouter(t, 60, 10)
	registerUser(t, router, "alice")
	registerUser(t, router, "bob")
	registerUser(t, router, "carol")

	quest := createQuest(t, router, "alice", 50)
	id := quest["id"].(string)

	tests := []struct {
		name   string
		method string
		path   string
		body   interface{}
		want   int
	}{
		{"create over balance", http.MethodPost, "/quests", gin.H{"title": "x", "reward": 1000, "postedBy": "alice"}, http.StatusBadRequest},
		{"create unknown poster", http.MethodPost, "/quests", gin.H{"title": "x", "reward": 5, "postedBy": "ghost"}, http.StatusNotFound},
		{"create bad urgency", http.MethodPost, "/quests", gin.H{"title": "x", "reward": 5, "urgency": "asap", "postedBy": "alice"}, http.StatusBadRequest},
		{"get unknown quest", http.MethodGet, "/quests/00000000-0000-0000-0000-000000000000", nil, http.StatusNotFound},
		{"get malformed id", http.MethodGet, "/quests/not-a-quest", nil, http.StatusNotFound},
		{"self accept", http.MethodPut, "/quests/" + id + "/accept", gin.H{"heroUsername": "alice"}, http.StatusForbidden},
		{"complete open quest", http.MethodPost, "/quests/" + id + "/complete", gin.H{"heroUsername": "bob", "otp": "1234"}, http.StatusBadRequest},
		{"resign unassigned", http.MethodPut, "/quests/" + id + "/resign", gin.H{"heroUsername": "bob"}, http.StatusForbidden},
		{"cancel not owner", http.MethodDelete, "/quests/" + id, gin.H{"username": "bob"}, http.StatusForbidden},
		{"rate unassigned", http.MethodPost, "/quests/" + id + "/rate", gin.H{"rating": 3}, http.StatusNotFound},
		{"rate out of range", http.MethodPost, "/quests/" + id + "/rate", gin.H{"rating": 9}, http.StatusBadRequest},
		{"accept missing body", http.MethodPut, "/quests/" + id + "/accept", gin.H{}, http.StatusBadRequest},
		{"accept", http.MethodPut, "/quests/" + id + "/accept", gin.H{"heroUsername": "bob"}, http.StatusOK},
		{"accept taken", http.MethodPut, "/quests/" + id + "/accept", gin.H{"heroUsername": "carol"}, http.StatusBadRequest},
		{"self accept taken", http.MethodPut, "/quests/" + id + "/accept", gin.H{"heroUsername": "alice"}, http.StatusBadRequest},
		{"complete wrong hero", http.MethodPost, "/quests/" + id + "/complete", gin.H{"heroUsername": "carol", "otp": "1234"}, http.StatusForbidden},
		{"cancel active", http.MethodDelete, "/quests/" + id, gin.H{"username": "alice"}, http.StatusBadRequest},
		{"transactions unknown user", http.MethodGet, "/users/ghost/transactions", nil, http.StatusNotFound},
		{"me without username", http.MethodGet, "/auth/me", nil, http.StatusBadRequest},
		{"me unknown user", http.MethodGet, "/auth/me?username=ghost", nil, http.StatusNotFound},
	}

	for _, tt := range tests {
		w := doJSON(t, router, tt.method, tt.path, tt.body)
		assert.Equal(t, tt.want, w.Code, "%s: %s", tt.name, w.Body.String())
		if w.Code >= 400 {
			assert.Contains(t, decodeMap(t, w), "error", tt.name)
		}
	}
}

func TestQuestRoutes_CancelRefunds(t *testing.T) {
	router := setupRouter(t, 6, 3)
	registerUser(t, router, "alice")

	quest := createQuest(t, router, "alice", 80)

	w := doJSON(t, router, http.MethodDelete, "/quests/"+quest["id"].(string), gin.H{"username": "alice"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = doJSON(t, router, http.MethodGet, "/auth/me?username=alice", nil)
	assert.Equal(t, float64(450), decodeMap(t, w)["balance"])

	w = doJSON(t, router, http.MethodGet, "/quests/"+quest["id"].(string), nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestQuestRoutes_RefResolvesToQuest(t *testing.T) {
	router := setupRouter(t, 6, 3)
	registerUser(t, router, "alice")

	quest := createQuest(t, router, "alice", 10)
	ref := quest["ref"].(string)
	require.NotEmpty(t, ref)

	w := doJSON(t, router, http.MethodGet, "/quests/"+ref, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, quest["id"], decodeMap(t, w)["id"])
}

func TestQuestRoutes_CompleteIsRateLimited(t *testing.T) {
	router := setupRouter(t, 1, 2)
	registerUser(t, router, "alice")
	registerUser(t, router, "bob")

	quest := createQuest(t, router, "alice", 10)
	id := quest["id"].(string)
	w := doJSON(t, router, http.MethodPut, "/quests/"+id+"/accept", gin.H{"heroUsername": "bob"})
	require.Equal(t, http.StatusOK, w.Code)

	wrong := "0000"
	for i := 0; i < 2; i++ {
		w = doJSON(t, router, http.MethodPost, "/quests/"+id+"/complete", gin.H{"heroUsername": "bob", "otp": wrong})
		assert.Equal(t, http.StatusBadRequest, w.Code)
	}

	// Bucket is empty now, even the right OTP is refused until it refills
	w = doJSON(t, router, http.MethodPost, "/quests/"+id+"/complete", gin.H{"heroUsername": "bob", "otp": quest["otp"]})
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
}

func TestQuestRoutes_BearerActorMustMatch(t *testing.T) {
	router := setupRouter(t, 6, 3)
	registerUser(t, router, "alice")
	registerUser(t, router, "bob")

	w := doJSON(t, router, http.MethodPost, "/auth/login", gin.H{"email": "bob@campus.edu", "password": "secret"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	token := decodeMap(t, w)["token"].(string)
	require.NotEmpty(t, token)

	quest := createQuest(t, router, "alice", 10)
	id := quest["id"].(string)

	// bob's token cannot act as alice
	w = doJSON(t, router, http.MethodDelete, "/quests/"+id, gin.H{"username": "alice"}, "Authorization", "Bearer "+token)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = doJSON(t, router, http.MethodGet, "/quests?username=alice", nil, "Authorization", "Bearer "+token)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = doJSON(t, router, http.MethodPut, "/quests/"+id+"/accept", gin.H{"heroUsername": "bob"}, "Authorization", "Bearer "+token)
	assert.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = doJSON(t, router, http.MethodGet, "/users/alice/transactions", nil, "Authorization", "Bearer "+token)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = doJSON(t, router, http.MethodGet, "/users/bob/transactions", nil, "Authorization", "Bearer "+token)
	assert.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = doJSON(t, router, http.MethodGet, "/quests", nil, "Authorization", "Bearer garbage")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAuthRoutes(t *testing.T) {
	router := setupRouter(t, 6, 3)
	registerUser(t, router, "alice")

	w := doJSON(t, router, http.MethodPost, "/auth/register", gin.H{
		"name": "Alice", "username": "alice", "email": "alice@campus.edu", "password": "secret", "dob": "2002-02-02",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doJSON(t, router, http.MethodPost, "/auth/login", gin.H{"email": "alice@campus.edu", "password": "nope"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doJSON(t, router, http.MethodPost, "/auth/login", gin.H{"email": "alice@campus.edu", "password": "secret"})
	require.Equal(t, http.StatusOK, w.Code)
	body := decodeMap(t, w)
	user := body["user"].(map[string]interface{})
	assert.Equal(t, "alice", user["username"])
	assert.NotContains(t, user, "passwordHash")

	username, err := auth.ValidateToken(body["token"].(string))
	require.NoError(t, err)
	assert.Equal(t, "alice", username)
}

func TestMessageRoutes(t *testing.T) {
	router := setupRouter(t, 6, 3)
	registerUser(t, router, "alice")
	quest := createQuest(t, router, "alice", 10)
	id := quest["id"].(string)

	w := doJSON(t, router, http.MethodPost, "/quests/"+id+"/messages", gin.H{"sender": "bob", "text": "where are you?"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	w = doJSON(t, router, http.MethodPost, "/quests/"+id+"/messages", gin.H{"sender": "alice", "text": "front desk"})
	require.Equal(t, http.StatusOK, w.Code)

	w = doJSON(t, router, http.MethodPost, "/quests/00000000-0000-0000-0000-000000000000/messages", gin.H{"sender": "bob", "text": "hi"})
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = doJSON(t, router, http.MethodGet, "/quests/"+id+"/messages", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var messages []map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &messages))
	require.Len(t, messages, 2)
	assert.Equal(t, "where are you?", messages[0]["text"])
	assert.Equal(t, "front desk", messages[1]["text"])
}

func TestHealthAndMetrics(t *testing.T) {
	router := setupRouter(t, 6, 3)

	w := doJSON(t, router, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = doJSON(t, router, http.MethodGet, "/metrics", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "quest_market_http_requests_total")
}
