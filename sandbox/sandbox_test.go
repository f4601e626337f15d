package sandbox

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/swizzylabs/swizzy-cli/storage"
	"github.com/swizzylabs/swizzy-cli/workbook"
)

func testExecutor(t *testing.T) (*Executor, storage.Store) {
	t.Helper()
	store, err := storage.NewDirStore(t.TempDir())
	require.NoError(t, err)
	return New(store), store
}

func TestRunSimpleExpression(t *testing.T) {
	e, _ := testExecutor(t)

	res := e.Run(context.Background(), `{"total": sum(input_data.values)}`, map[string]any{
		"values": []any{1, 2, 3},
	})
	require.True(t, res.Success, "error: %s", res.Error)

	out, ok := res.Output.(map[string]any)
	require.True(t, ok)
	assert.EqualValues(t, 6, out["total"])
}

func TestRunScriptErrorConvention(t *testing.T) {
	e, _ := testExecutor(t)

	res := e.Run(context.Background(), `{"error": "column missing"}`, nil)
	assert.False(t, res.Success)
	assert.Equal(t, KindScriptError, res.Kind)
	assert.Equal(t, "column missing", res.Error)
}

func TestRunUnknownSymbolIsViolation(t *testing.T) {
	e, _ := testExecutor(t)

	// Obfuscated filesystem references survive the sanitizer but still
	// fail: the symbol is simply not in scope.
	res := e.Run(context.Background(), `op3n("/etc/passwd")`, nil)
	assert.False(t, res.Success)
	assert.Equal(t, KindSandboxViolation, res.Kind)
}

func TestCapabilityAbsenceIsStructural(t *testing.T) {
	// Even with the sanitizer bypassed entirely, a denied primitive is
	// unreachable because it was never injected into the scope.
	e, _ := testExecutor(t)
	env := NewEnv(nil, nil)

	res := e.Run(context.Background(), `osOpen("x")`, nil)
	assert.Equal(t, KindSandboxViolation, res.Kind)

	// The scope holds exactly the declared capabilities.
	assert.NotNil(t, env.ReadFile)
	assert.NotNil(t, env.EncodeBase64)
}

func TestSanitizeDropsDeniedLines(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"import dropped", "import os\n1 + 1", "1 + 1"},
		{"from dropped", "from pathlib import Path\n2", "2"},
		{"subprocess dropped", "subprocess.run(['rm'])\n3", "3"},
		{"eval dropped", "eval(code)\n4", "4"},
		{"mixed case denied dropped", "Import OS\n5", "5"},
		{"uppercase eval dropped", "EVAL(code)\n6", "6"},
		{"clean kept", "len(input_data.rows)", "len(input_data.rows)"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Sanitize(tt.in))
		})
	}
}

func TestRunFullySanitizedScript(t *testing.T) {
	e, _ := testExecutor(t)

	res := e.Run(context.Background(), "import os", nil)
	assert.False(t, res.Success)
	assert.Equal(t, KindSandboxViolation, res.Kind)
}

func TestRunTimeout(t *testing.T) {
	e, _ := testExecutor(t)
	e.Timeout = 50 * time.Millisecond

	// Nested closures burn time without materializing large ranges, so
	// the wall clock trips before any evaluator resource limit does.
	start := time.Now()
	res := e.Run(context.Background(), `sum(map(1..10000, {sum(map(1..10000, {#}))}))`, nil)
	assert.False(t, res.Success)
	assert.Equal(t, KindTimeout, res.Kind)
	assert.Less(t, time.Since(start), 5*time.Second)
}

func TestFileCapabilities(t *testing.T) {
	e, store := testExecutor(t)

	res := e.Run(context.Background(), `write_file("report.txt", "hello")`, nil)
	require.True(t, res.Success, "error: %s", res.Error)
	handle := res.Output.(string)

	data, err := store.Download(handle)
	require.NoError(t, err)
	assert.Equal(t, "hello", string(data))

	res = e.Run(context.Background(), `read_file(input_data.handle)`, map[string]any{"handle": handle})
	require.True(t, res.Success, "error: %s", res.Error)
	assert.Equal(t, "hello", res.Output)
}

func TestJSONCapabilities(t *testing.T) {
	e, _ := testExecutor(t)

	res := e.Run(context.Background(), `read_json(write_json("data.json", {"n": 41}))`, nil)
	require.True(t, res.Success, "error: %s", res.Error)

	out := res.Output.(map[string]any)
	assert.Equal(t, 41.0, out["n"])
}

func TestExcelCapabilities(t *testing.T) {
	e, store := testExecutor(t)

	w := workbook.New()
	sheet := w.FirstSheet()
	require.NoError(t, w.SetRange(sheet, "A1:B2", [][]any{
		{"name", "score"},
		{"a", 7.0},
	}))
	data, err := w.SaveBytes()
	require.NoError(t, err)
	handle, err := store.Upload("scores.xlsx", data)
	require.NoError(t, err)

	res := e.Run(context.Background(), `read_excel(input_data.handle)`, map[string]any{"handle": handle})
	require.True(t, res.Success, "error: %s", res.Error)
	rows := res.Output.([][]any)
	require.Len(t, rows, 2)
	assert.Equal(t, "name", rows[0][0])
	assert.Equal(t, 7.0, rows[1][1])

	res = e.Run(context.Background(), `write_excel("out.xlsx", [["h"], ["v"]])`, nil)
	require.True(t, res.Success, "error: %s", res.Error)

	saved, err := store.Download(res.Output.(string))
	require.NoError(t, err)
	loaded, err := workbook.Load(saved)
	require.NoError(t, err)
	defer loaded.Close()
	v, err := loaded.GetCell(loaded.FirstSheet(), 1, 0)
	require.NoError(t, err)
	assert.Equal(t, "v", v)
}

func TestBase64Capabilities(t *testing.T) {
	e, _ := testExecutor(t)

	res := e.Run(context.Background(), `decode_base64(encode_base64("round trip"))`, nil)
	require.True(t, res.Success, "error: %s", res.Error)
	assert.Equal(t, "round trip", res.Output)
}

func TestDocxRoundTrip(t *testing.T) {
	data, err := docxBytes("first line\nsecond line")
	require.NoError(t, err)

	text, err := docxText(data)
	require.NoError(t, err)
	assert.Equal(t, "first line\nsecond line", text)

	_, err = docxText([]byte("not a zip archive"))
	assert.Error(t, err)
}

func TestRunMissingFileIsRuntimeError(t *testing.T) {
	e, _ := testExecutor(t)

	res := e.Run(context.Background(), `read_file("no-such-handle")`, nil)
	assert.False(t, res.Success)
	assert.Equal(t, KindRuntimeError, res.Kind)
	assert.NotEmpty(t, res.Error)
}
