package services

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"quest-market/internal/database"
	"quest-market/internal/models"
	"quest-market/internal/repository"
)

// testEnv wires the services against a private in-memory database
type testEnv struct {
	db       *gorm.DB
	repo     *repository.Repository
	users    *UserService
	ledger   *LedgerService
	quests   *QuestService
	messages *MessageService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	// Each test gets its own named in-memory database; one connection keeps it
	// alive and serialises writers like the production SQLite setup.
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", name)

	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
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
	ledger := NewLedgerService(repo)
	return &testEnv{
		db:       db,
		repo:     repo,
		users:    NewUserService(repo, decimal.NewFromInt(450)),
		ledger:   ledger,
		quests:   NewQuestService(repo, ledger),
		messages: NewMessageService(repo),
	}
}

func (e *testEnv) register(t *testing.T, username string) *models.User {
	t.Helper()

	user, err := e.users.Register(context.Background(), &models.RegisterRequest{
		Name:     strings.ToUpper(username[:1]) + username[1:],
		Username: username,
		Email:    username + "@campus.edu",
		Password: "secret",
		DOB:      "2003-04-05",
	})
	require.NoError(t, err)
	return user
}

func (e *testEnv) user(t *testing.T, username string) *models.User {
	t.Helper()

	user, err := e.repo.GetUserByUsername(context.Background(), username)
	require.NoError(t, err)
	return user
}

func (e *testEnv) quest(t *testing.T, req *models.CreateQuestRequest) *models.Quest {
	t.Helper()

	quest, err := e.quests.CreateQuest(context.Background(), req)
	require.NoError(t, err)
	return quest
}

func questRequest(poster string, reward int64, xp int64) *models.CreateQuestRequest {
	return &models.CreateQuestRequest{
		Title:       "Pick up lab notes",
		Description: "Grab my notes from the chem lab",
		Reward:      decimal.NewFromInt(reward),
		XP:          xp,
		Urgency:     models.QuestUrgencyMedium,
		Location:    "Science block",
		Deadline:    "Today 5pm",
		PostedBy:    poster,
	}
}

// requireLedgerMatches checks that replaying the ledger gives the stored balance
func (e *testEnv) requireLedgerMatches(t *testing.T, username string) {
	t.Helper()

	replayed, err := e.ledger.Reconstruct(context.Background(), username)
	require.NoError(t, err)
	stored := e.user(t, username).Balance
	require.True(t, replayed.Equal(stored), "ledger replay %s != balance %s for %s", replayed, stored, username)
}

func requireDecimal(t *testing.T, want string, got decimal.Decimal) {
	t.Helper()
	require.True(t, decimal.RequireFromString(want).Equal(got), "want %s, got %s", want, got)
}
