package server

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"

	"github.com/swizzylabs/swizzy-cli/sandbox"
	"github.com/swizzylabs/swizzy-cli/storage"
)

func dialTestServer(t *testing.T) (*websocket.Conn, storage.Store) {
	t.Helper()
	store, err := storage.NewDirStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewDirStore: %v", err)
	}
	srv := New(store, sandbox.New(store), nil)

	ts := httptest.NewServer(srv)
	t.Cleanup(ts.Close)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	t.Cleanup(cancel)

	conn, _, err := websocket.Dial(ctx, "ws"+strings.TrimPrefix(ts.URL, "http"), nil)
	if err != nil {
		t.Fatalf("Dial: %v", err)
	}
	t.Cleanup(func() { conn.CloseNow() })
	return conn, store
}

func call(t *testing.T, conn *websocket.Conn, method string, params any) Response {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	rawParams, err := json.Marshal(params)
	if err != nil {
		t.Fatalf("marshal params: %v", err)
	}
	req := Request{
		JSONRPC: jsonRPCVersion,
		ID:      json.RawMessage(`1`),
		Method:  method,
		Params:  rawParams,
	}
	if err := wsjson.Write(ctx, conn, req); err != nil {
		t.Fatalf("write: %v", err)
	}
	var resp Response
	if err := wsjson.Read(ctx, conn, &resp); err != nil {
		t.Fatalf("read: %v", err)
	}
	return resp
}

func TestMethodNotFound(t *testing.T) {
	conn, _ := dialTestServer(t)

	resp := call(t, conn, "xlsx.transmogrify", map[string]any{})
	if resp.Error == nil {
		t.Fatalf("expected error response")
	}
	if !strings.Contains(resp.Error.Message, "method not found") {
		t.Errorf("message = %q", resp.Error.Message)
	}
}

func TestScriptRun(t *testing.T) {
	conn, _ := dialTestServer(t)

	resp := call(t, conn, "script.run", map[string]any{
		"script":     "sum(input_data.values)",
		"input_data": map[string]any{"values": []int{2, 3, 4}},
	})
	if resp.Error != nil {
		t.Fatalf("error: %s", resp.Error.Message)
	}
	result := resp.Result.(map[string]any)
	if result["success"] != true {
		t.Fatalf("result = %v", result)
	}
	if result["output"] != 9.0 {
		t.Errorf("output = %v", result["output"])
	}
}

func TestCreateApplyAnalyze(t *testing.T) {
	conn, _ := dialTestServer(t)

	created := call(t, conn, "xlsx.create", map[string]any{
		"name": "sales.xlsx",
		"spec": map[string]any{
			"sheets": []map[string]any{{
				"name": "Sales",
				"data": [][]any{
					{"region", "amount"},
					{"East", 100},
					{"West", 300},
				},
			}},
		},
	})
	if created.Error != nil {
		t.Fatalf("create: %s", created.Error.Message)
	}
	handle := created.Result.(map[string]any)["handle"].(string)

	applied := call(t, conn, "xlsx.apply", map[string]any{
		"handle": handle,
		"operations": []map[string]any{
			{"operation": "update_cell", "sheet": "Sales", "cell": "B2", "value": 150},
		},
	})
	if applied.Error != nil {
		t.Fatalf("apply: %s", applied.Error.Message)
	}
	if applied.Result.(map[string]any)["saved"] != true {
		t.Errorf("apply result = %v", applied.Result)
	}

	analyzed := call(t, conn, "xlsx.analyze", map[string]any{
		"handle": handle,
		"operations": []map[string]any{
			{"type": "summary_stats", "sheet": "Sales", "target": "B2:B3", "metrics": []string{"sum"}},
		},
	})
	if analyzed.Error != nil {
		t.Fatalf("analyze: %s", analyzed.Error.Message)
	}
	results := analyzed.Result.(map[string]any)["results"].(map[string]any)
	op := results["operation_0"].(map[string]any)
	stats := op["results"].(map[string]any)
	if stats["sum"] != 450.0 {
		t.Errorf("sum = %v, apply not visible to analyze", stats["sum"])
	}
}

func TestApplyAtomicSkipsSaveOnError(t *testing.T) {
	conn, store := dialTestServer(t)

	created := call(t, conn, "xlsx.create", map[string]any{
		"name": "doc.xlsx",
		"spec": map[string]any{
			"sheets": []map[string]any{{"name": "S", "data": [][]any{{"a"}}}},
		},
	})
	if created.Error != nil {
		t.Fatalf("create: %s", created.Error.Message)
	}
	handle := created.Result.(map[string]any)["handle"].(string)
	before, err := store.Download(handle)
	if err != nil {
		t.Fatalf("download: %v", err)
	}

	applied := call(t, conn, "xlsx.apply", map[string]any{
		"handle": handle,
		"atomic": true,
		"operations": []map[string]any{
			{"operation": "update_cell", "sheet": "S", "cell": "A2", "value": "x"},
			{"operation": "delete_row", "sheet": "S", "row_index": -1},
		},
	})
	if applied.Error != nil {
		t.Fatalf("apply: %s", applied.Error.Message)
	}
	if applied.Result.(map[string]any)["saved"] != false {
		t.Fatalf("expected saved=false, got %v", applied.Result)
	}

	after, err := store.Download(handle)
	if err != nil {
		t.Fatalf("download: %v", err)
	}
	if len(before) != len(after) || string(before) != string(after) {
		t.Errorf("file changed despite atomic failure")
	}
}
