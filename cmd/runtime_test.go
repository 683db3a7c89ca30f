package cmd

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/abhisek/mathibot/internal/chat"
	"github.com/abhisek/mathibot/internal/mode"
	"github.com/abhisek/mathibot/internal/store"
)

const sampleLessons = `[
  {"unidad": 1, "leccion": "2", "titulo": "Fracciones equivalentes", "teoria": "Dos fracciones son equivalentes si representan la misma parte."},
  {"unidad": 2, "leccion": "1", "titulo": "Ecuaciones lineales", "teoria": "Una ecuacion lineal tiene la forma ax + b = c."}
]`

func testCommand(t *testing.T) (*cobra.Command, string) {
	t.Helper()
	db := filepath.Join(t.TempDir(), "mathibot.db")
	c := &cobra.Command{}
	c.Flags().String("db", db, "")
	return c, db
}

func useConfig(t *testing.T, body string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "mathibot.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	configPath = path
	t.Cleanup(func() { configPath = "" })
}

func TestOpenRuntimeMemorySessions(t *testing.T) {
	t.Setenv("MATHIBOT_LLM_PROVIDER", "mock")
	useConfig(t, "sessions:\n  driver: memory\n")
	c, _ := testCommand(t)

	rt, err := openRuntime(c, zap.NewNop())
	require.NoError(t, err)
	defer rt.Close()

	ctx := context.Background()
	require.NoError(t, rt.probe(ctx))
	assert.NotNil(t, rt.sqlLessons)
	assert.Nil(t, rt.semantic)

	resp, err := rt.chat.Send(ctx, chat.Request{UserID: "ana", Message: "2+2"})
	require.NoError(t, err)
	assert.True(t, resp.Fallback)
	assert.Contains(t, resp.Answer, "**4**")

	keys, err := rt.sessions.Keys(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"ana"}, keys)
}

func TestOpenRuntimeRedisSessions(t *testing.T) {
	mr := miniredis.RunT(t)
	t.Setenv("MATHIBOT_LLM_PROVIDER", "mock")
	useConfig(t, "sessions:\n  driver: redis\n  redis:\n    addr: "+mr.Addr()+"\n")
	c, _ := testCommand(t)

	rt, err := openRuntime(c, zap.NewNop())
	require.NoError(t, err)
	defer rt.Close()

	ctx := context.Background()
	require.NoError(t, rt.probe(ctx))

	_, err = rt.chat.Send(ctx, chat.Request{UserID: "ana", ChatID: "c1", Message: "3*5"})
	require.NoError(t, err)
	assert.True(t, mr.Exists("mathibot:session:ana:c1"))
}

func TestProbeFailsWithoutRedis(t *testing.T) {
	mr := miniredis.RunT(t)
	addr := mr.Addr()
	mr.Close()

	t.Setenv("MATHIBOT_LLM_PROVIDER", "mock")
	useConfig(t, "sessions:\n  driver: redis\n  redis:\n    addr: "+addr+"\n")
	c, _ := testCommand(t)

	rt, err := openRuntime(c, zap.NewNop())
	require.NoError(t, err)
	defer rt.Close()

	err = rt.probe(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "redis ping")
}

func TestOpenRuntimeRejectsBadConfig(t *testing.T) {
	useConfig(t, "sessions:\n  driver: etcd\n")
	c, _ := testCommand(t)

	_, err := openRuntime(c, zap.NewNop())
	require.Error(t, err)
}

func TestChatConfigFromFile(t *testing.T) {
	t.Setenv("MATHIBOT_LLM_PROVIDER", "mock")
	useConfig(t, `chat:
  history_messages: 6
  max_context: 3
variant:
  shift_ratio: 0.3
guided:
  truncate_at: 120
`)
	c, _ := testCommand(t)

	rt, err := openRuntime(c, zap.NewNop())
	require.NoError(t, err)
	defer rt.Close()

	cc := rt.chatConfig()
	assert.Equal(t, 6, cc.HistoryMessages)
	assert.Equal(t, 3, cc.MaxContext)
	assert.InDelta(t, 0.3, cc.ShiftRatio, 1e-9)
	assert.Equal(t, 120, cc.TruncateAt)
}

func TestLessonTurnAfterImport(t *testing.T) {
	t.Setenv("MATHIBOT_LLM_PROVIDER", "mock")
	useConfig(t, "")
	c, _ := testCommand(t)

	rt, err := openRuntime(c, zap.NewNop())
	require.NoError(t, err)
	defer rt.Close()

	ctx := context.Background()
	file := filepath.Join(t.TempDir(), "lessons.json")
	require.NoError(t, os.WriteFile(file, []byte(sampleLessons), 0o644))
	data, err := readInput(file)
	require.NoError(t, err)

	items, err := decodeLessons(data)
	require.NoError(t, err)
	n, err := rt.sqlLessons.Upsert(ctx, items)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	resp, err := rt.chat.Send(ctx, chat.Request{
		UserID:     "ana",
		Message:    "explicame la unidad 1 leccion 2",
		Mode:       "leccion",
		LessonOnly: true,
	})
	require.NoError(t, err)
	assert.Equal(t, mode.Leccion, resp.Mode)
	assert.True(t, resp.UsedContext)
	require.Len(t, resp.ContextItems, 1)
	assert.Equal(t, "Fracciones equivalentes", resp.ContextItems[0].Title)
}

func TestLessonsImportCommand(t *testing.T) {
	t.Setenv("MATHIBOT_LLM_PROVIDER", "mock")
	useConfig(t, "")
	db := filepath.Join(t.TempDir(), "mathibot.db")
	file := filepath.Join(t.TempDir(), "lessons.json")
	require.NoError(t, os.WriteFile(file, []byte(sampleLessons), 0o644))

	rootCmd.SetArgs([]string{"lessons", "import", file, "--db", db, "--log-file", filepath.Join(t.TempDir(), "mathibot.log")})
	t.Cleanup(func() {
		rootCmd.SetArgs(nil)
		logFile = ""
	})
	require.NoError(t, rootCmd.Execute())

	s, err := store.Open(db)
	require.NoError(t, err)
	defer s.Close()
	var count int
	require.NoError(t, s.DB().QueryRow("SELECT COUNT(*) FROM lessons").Scan(&count))
	assert.Equal(t, 2, count)
}
