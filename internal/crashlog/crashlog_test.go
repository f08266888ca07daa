package crashlog

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/oleksandr38kebab342/anty-detect-browser/internal/db"
)

type memSink struct {
	mu   sync.Mutex
	rows []db.InsertErrorLogParams
}

func (m *memSink) InsertErrorLog(_ context.Context, arg db.InsertErrorLogParams) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rows = append(m.rows, arg)
	return nil
}

func TestLogPanicPersistsStack(t *testing.T) {
	sink := &memSink{}
	Init(sink)
	t.Cleanup(func() { Init(nil) })

	LogPanic("launch", "boom", map[string]string{"profile_id": "p1"})

	if len(sink.rows) != 1 {
		t.Fatalf("rows = %d, want 1", len(sink.rows))
	}
	row := sink.rows[0]
	if row.Level != "panic" || row.Message != "boom" || row.Module != "launch" {
		t.Errorf("unexpected row %+v", row)
	}
	if !strings.Contains(row.Stacktrace, "goroutine") {
		t.Errorf("stacktrace missing: %q", row.Stacktrace)
	}
	if row.Context != `{"profile_id":"p1"}` {
		t.Errorf("context = %q", row.Context)
	}
}

func TestLogErrorIgnoresNil(t *testing.T) {
	sink := &memSink{}
	Init(sink)
	t.Cleanup(func() { Init(nil) })

	LogError("check", nil, nil)
	LogError("check", errors.New("dial failed"), nil)
	LogWarn("check", "slow", nil)

	if len(sink.rows) != 2 {
		t.Fatalf("rows = %d, want 2", len(sink.rows))
	}
	if sink.rows[0].Level != "error" || sink.rows[1].Level != "warn" {
		t.Errorf("levels = %s, %s", sink.rows[0].Level, sink.rows[1].Level)
	}
}

func TestWithoutInit(t *testing.T) {
	Init(nil)
	LogPanic("x", "y", nil)
	LogError("x", errors.New("y"), nil)
	LogWarn("x", "y", nil)
}
