package chatstore

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// setupTestDB creates an in-memory SQLite database for testing.
func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err, "failed to open test database")

	require.NoError(t, db.AutoMigrate(&ChatMessage{}), "failed to migrate test database")
	return db
}

// seedMessages inserts n messages for a stream with ascending timestamps
// starting at base.
func seedMessages(t *testing.T, repo *Repository, streamKey string, base int64, n int) {
	t.Helper()

	for i := 0; i < n; i++ {
		ts := base + int64(i)*1000
		err := repo.Save(&ChatMessage{
			MessageID: fmt.Sprintf("%d-session", ts),
			StreamKey: streamKey,
			Username:  fmt.Sprintf("user%d", i%3),
			Message:   fmt.Sprintf("message %d", i),
			Timestamp: ts,
		})
		require.NoError(t, err)
	}
}

func TestRepository_SaveAndHistory(t *testing.T) {
	repo := NewRepository(setupTestDB(t))

	ts := time.Now().UnixMilli()
	err := repo.Save(&ChatMessage{
		MessageID: fmt.Sprintf("%d-abc", ts),
		StreamKey: "s1",
		Username:  "alice",
		Message:   "hi",
		Timestamp: ts,
	})
	require.NoError(t, err)

	messages, err := repo.History("s1", HistoryOptions{})
	require.NoError(t, err)
	require.Len(t, messages, 1)

	assert.Equal(t, "alice", messages[0].Username)
	assert.Equal(t, "hi", messages[0].Message)
	assert.Equal(t, ts, messages[0].Timestamp)
	assert.False(t, messages[0].CreatedAt.IsZero(), "CreatedAt should be assigned on insert")
}

func TestRepository_HistoryOrderingAndRoundTrip(t *testing.T) {
	repo := NewRepository(setupTestDB(t))

	const n = 20
	base := int64(1_700_000_000_000)
	seedMessages(t, repo, "s1", base, n)

	messages, err := repo.History("s1", HistoryOptions{Limit: n})
	require.NoError(t, err)
	require.Len(t, messages, n, "limit=N should return exactly the N persisted messages")

	for i := 1; i < len(messages); i++ {
		assert.LessOrEqual(t, messages[i-1].Timestamp, messages[i].Timestamp,
			"history must be ordered by timestamp ascending")
	}
}

func TestRepository_HistoryLimitOffset(t *testing.T) {
	repo := NewRepository(setupTestDB(t))

	base := int64(1_700_000_000_000)
	seedMessages(t, repo, "s1", base, 10)

	messages, err := repo.History("s1", HistoryOptions{Limit: 3, Offset: 4})
	require.NoError(t, err)
	require.Len(t, messages, 3)

	// Offset skips the 4 oldest messages.
	assert.Equal(t, base+4*1000, messages[0].Timestamp)
}

func TestRepository_HistoryDateRange(t *testing.T) {
	repo := NewRepository(setupTestDB(t))

	base := int64(1_700_000_000_000)
	seedMessages(t, repo, "s1", base, 10)

	start := base + 2*1000
	end := base + 6*1000
	messages, err := repo.History("s1", HistoryOptions{StartDate: start, EndDate: end})
	require.NoError(t, err)
	require.Len(t, messages, 5)

	assert.Equal(t, start, messages[0].Timestamp)
	assert.Equal(t, end, messages[len(messages)-1].Timestamp)
}

func TestRepository_HistoryIsolatedPerStream(t *testing.T) {
	repo := NewRepository(setupTestDB(t))

	base := int64(1_700_000_000_000)
	seedMessages(t, repo, "s1", base, 3)
	seedMessages(t, repo, "s2", base, 5)

	messages, err := repo.History("s1", HistoryOptions{})
	require.NoError(t, err)
	assert.Len(t, messages, 3)

	messages, err = repo.History("unknown", HistoryOptions{})
	require.NoError(t, err)
	assert.Empty(t, messages)
}

func TestRepository_Stats(t *testing.T) {
	repo := NewRepository(setupTestDB(t))

	base := int64(1_700_000_000_000)
	seedMessages(t, repo, "s1", base, 9) // usernames cycle user0..user2

	stats, err := repo.Stats("s1")
	require.NoError(t, err)

	assert.Equal(t, 9, stats.TotalMessages)
	assert.Equal(t, base, stats.FirstMessage)
	assert.Equal(t, base+8*1000, stats.LastMessage)
	assert.Equal(t, 3, stats.UniqueUsers)
}

func TestRepository_StatsEmptyStream(t *testing.T) {
	repo := NewRepository(setupTestDB(t))

	stats, err := repo.Stats("nothing-here")
	require.NoError(t, err)

	assert.Equal(t, 0, stats.TotalMessages)
	assert.Equal(t, int64(0), stats.FirstMessage)
	assert.Equal(t, int64(0), stats.LastMessage)
}

func TestRepository_StreamsWithChat(t *testing.T) {
	repo := NewRepository(setupTestDB(t))

	base := int64(1_700_000_000_000)
	seedMessages(t, repo, "older", base, 2)
	seedMessages(t, repo, "newer", base+1_000_000, 4)

	summaries, err := repo.StreamsWithChat()
	require.NoError(t, err)
	require.Len(t, summaries, 2)

	// Most recently active stream first.
	assert.Equal(t, "newer", summaries[0].StreamKey)
	assert.Equal(t, 4, summaries[0].MessageCount)
	assert.Equal(t, "older", summaries[1].StreamKey)
	assert.Equal(t, 2, summaries[1].MessageCount)
}

func TestRepository_Search(t *testing.T) {
	repo := NewRepository(setupTestDB(t))

	base := int64(1_700_000_000_000)
	for i, text := range []string{"hello world", "goodbye", "hello again", "unrelated"} {
		require.NoError(t, repo.Save(&ChatMessage{
			MessageID: fmt.Sprintf("%d-x", base+int64(i)),
			StreamKey: "s1",
			Username:  "alice",
			Message:   text,
			Timestamp: base + int64(i)*1000,
		}))
	}

	messages, err := repo.Search("s1", "hello")
	require.NoError(t, err)
	require.Len(t, messages, 2)

	// Newest match first.
	assert.Equal(t, "hello again", messages[0].Message)
	assert.Equal(t, "hello world", messages[1].Message)
}

func TestRepository_DeleteOlderThan(t *testing.T) {
	repo := NewRepository(setupTestDB(t))

	base := int64(1_700_000_000_000)
	seedMessages(t, repo, "s1", base, 10)

	cutoff := base + 5*1000
	deleted, err := repo.DeleteOlderThan(cutoff)
	require.NoError(t, err)
	assert.Equal(t, int64(5), deleted)

	remaining, err := repo.History("s1", HistoryOptions{})
	require.NoError(t, err)
	require.Len(t, remaining, 5)
	assert.Equal(t, cutoff, remaining[0].Timestamp)

	// Nothing left to remove below the cutoff.
	deleted, err = repo.DeleteOlderThan(cutoff)
	require.NoError(t, err)
	assert.Equal(t, int64(0), deleted)
}
