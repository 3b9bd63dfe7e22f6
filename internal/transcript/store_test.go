package transcript

import (
	"context"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/TheRajesh1612/Aura-ChatBot/internal/models"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(context.Background(), filepath.Join(t.TempDir(), "transcripts.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

// clock returns a now func that advances a minute per call
func clock(start time.Time) func() time.Time {
	current := start
	return func() time.Time {
		current = current.Add(time.Minute)
		return current
	}
}

func TestProfile(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	p, err := store.LoadProfile(ctx)
	require.NoError(t, err)
	assert.Nil(t, p)

	require.NoError(t, store.SaveProfile(ctx, Profile{Email: "amy@example.com", SessionToken: "tok-1", ServerURL: "http://localhost:3000"}))
	require.NoError(t, store.SaveProfile(ctx, Profile{Email: "bob@example.com", SessionToken: "tok-2", ServerURL: "http://localhost:3000"}))

	p, err = store.LoadProfile(ctx)
	require.NoError(t, err)
	require.NotNil(t, p)
	assert.Equal(t, "bob@example.com", p.Email)
	assert.Equal(t, "tok-2", p.SessionToken)

	require.NoError(t, store.ClearProfile(ctx))
	p, err = store.LoadProfile(ctx)
	require.NoError(t, err)
	assert.Nil(t, p)
}

func TestReopenKeepsData(t *testing.T) {
	path := filepath.Join(t.TempDir(), "transcripts.db")
	ctx := context.Background()

	store, err := Open(ctx, path)
	require.NoError(t, err)
	chatID := store.NewChat()
	_, err = store.AppendExchange(ctx, "amy@example.com", chatID, "hi", "You said: hi. Wait I'm thinking...")
	require.NoError(t, err)
	require.NoError(t, store.Close())

	store, err = Open(ctx, path)
	require.NoError(t, err)
	defer store.Close()

	messages, err := store.Messages(ctx, "amy@example.com", chatID)
	require.NoError(t, err)
	assert.Len(t, messages, 2)
}

func TestAppendExchange(t *testing.T) {
	store := openTestStore(t)
	store.now = clock(time.Date(2025, 3, 9, 23, 0, 0, 0, time.UTC))
	ctx := context.Background()

	chatID := store.NewChat()
	longQuestion := strings.Repeat("q", 45)
	longAnswer := strings.Repeat("a", 80)

	summary, err := store.AppendExchange(ctx, "amy@example.com", chatID, longQuestion, longAnswer)
	require.NoError(t, err)
	assert.Equal(t, strings.Repeat("q", 30), summary.Title)
	assert.Equal(t, strings.Repeat("a", 50), summary.Preview)
	assert.Equal(t, "2025-03-09", summary.Date)

	summary, err = store.AppendExchange(ctx, "amy@example.com", chatID, "second question", "")
	require.NoError(t, err)
	assert.Equal(t, strings.Repeat("q", 30), summary.Title, "title is fixed by the first message")
	assert.Equal(t, NoResponse, summary.Preview)

	messages, err := store.Messages(ctx, "amy@example.com", chatID)
	require.NoError(t, err)
	require.Len(t, messages, 4)
	assert.Equal(t, longQuestion, messages[0].Text)
	assert.Equal(t, models.SenderUser, messages[0].Sender)
	assert.Equal(t, longAnswer, messages[1].Text)
	assert.Equal(t, models.SenderBot, messages[1].Sender)
	assert.Equal(t, "second question", messages[2].Text)
	assert.Equal(t, NoResponse, messages[3].Text)

	summaries, err := store.Summaries(ctx, "amy@example.com")
	require.NoError(t, err)
	require.Len(t, summaries, 1, "one summary per chat")
}

func TestAppendExchangeTitleRunes(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	summary, err := store.AppendExchange(ctx, "amy@example.com", store.NewChat(), strings.Repeat("é", 40), "ok")
	require.NoError(t, err)
	assert.Equal(t, strings.Repeat("é", 30), summary.Title)

	summary, err = store.AppendExchange(ctx, "amy@example.com", store.NewChat(), "  ", "ok")
	require.NoError(t, err)
	assert.Equal(t, DefaultTitle, summary.Title)

	_, err = store.AppendExchange(ctx, "", "chat", "hi", "ok")
	assert.Error(t, err)
}

func TestSummariesLatestFirstAndPerUser(t *testing.T) {
	store := openTestStore(t)
	store.now = clock(time.Date(2025, 3, 9, 12, 0, 0, 0, time.UTC))
	ctx := context.Background()

	first := store.NewChat()
	second := store.NewChat()
	_, err := store.AppendExchange(ctx, "amy@example.com", first, "first", "r1")
	require.NoError(t, err)
	_, err = store.AppendExchange(ctx, "amy@example.com", second, "second", "r2")
	require.NoError(t, err)
	_, err = store.AppendExchange(ctx, "bob@example.com", store.NewChat(), "bob's", "r3")
	require.NoError(t, err)

	summaries, err := store.Summaries(ctx, "amy@example.com")
	require.NoError(t, err)
	require.Len(t, summaries, 2)
	assert.Equal(t, second, summaries[0].ID)
	assert.Equal(t, first, summaries[1].ID)

	// Continuing an older chat moves it to the top
	_, err = store.AppendExchange(ctx, "amy@example.com", first, "again", "r4")
	require.NoError(t, err)
	summaries, err = store.Summaries(ctx, "amy@example.com")
	require.NoError(t, err)
	assert.Equal(t, first, summaries[0].ID)

	// Transcripts are keyed by user as well as chat
	messages, err := store.Messages(ctx, "bob@example.com", first)
	require.NoError(t, err)
	assert.Empty(t, messages)
}

func TestDeleteChat(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	chatID := store.NewChat()
	_, err := store.AppendExchange(ctx, "amy@example.com", chatID, "hi", "hello")
	require.NoError(t, err)

	assert.ErrorIs(t, store.DeleteChat(ctx, "bob@example.com", chatID), ErrChatNotFound)

	require.NoError(t, store.DeleteChat(ctx, "amy@example.com", chatID))

	messages, err := store.Messages(ctx, "amy@example.com", chatID)
	require.NoError(t, err)
	assert.Empty(t, messages)

	summaries, err := store.Summaries(ctx, "amy@example.com")
	require.NoError(t, err)
	assert.Empty(t, summaries)

	assert.ErrorIs(t, store.DeleteChat(ctx, "amy@example.com", chatID), ErrChatNotFound)
}
