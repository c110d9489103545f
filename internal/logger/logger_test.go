package logger_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/fd1az/amm-quoter/internal/apperror"
	"github.com/fd1az/amm-quoter/internal/logger"
)

func decodeLines(t *testing.T, buf *bytes.Buffer) []map[string]any {
	t.Helper()
	var out []map[string]any
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		if line == "" {
			continue
		}
		var m map[string]any
		if err := json.Unmarshal([]byte(line), &m); err != nil {
			t.Fatalf("invalid json line %q: %v", line, err)
		}
		out = append(out, m)
	}
	return out
}

func TestLogger_LevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	log := logger.New(&buf, logger.LevelWarn, "quoter", nil)

	log.Debug(context.Background(), "hidden")
	log.Info(context.Background(), "hidden")
	log.Warn(context.Background(), "shown", "block", 42)

	lines := decodeLines(t, &buf)
	if len(lines) != 1 {
		t.Fatalf("got %d lines, want 1", len(lines))
	}
	if lines[0]["msg"] != "shown" {
		t.Errorf("msg = %v", lines[0]["msg"])
	}
	if lines[0]["service"] != "quoter" {
		t.Errorf("service = %v", lines[0]["service"])
	}
	if lines[0]["block"] != float64(42) {
		t.Errorf("block = %v", lines[0]["block"])
	}
	if file, _ := lines[0]["file"].(string); !strings.HasPrefix(file, "logger_test.go:") {
		t.Errorf("file = %v, want caller location", lines[0]["file"])
	}
}

func TestLogger_TraceIDAndWith(t *testing.T) {
	var buf bytes.Buffer
	log := logger.New(&buf, logger.LevelDebug, "quoter", func(context.Context) string { return "abc123" })

	log.With("pool", "0xpool").Info(context.Background(), "snapshot")

	lines := decodeLines(t, &buf)
	if lines[0]["trace_id"] != "abc123" {
		t.Errorf("trace_id = %v", lines[0]["trace_id"])
	}
	if lines[0]["pool"] != "0xpool" {
		t.Errorf("pool = %v", lines[0]["pool"])
	}
}

func TestLogger_ExpandsAppErrors(t *testing.T) {
	var buf bytes.Buffer
	log := logger.New(&buf, logger.LevelDebug, "quoter", nil)

	log.Error(context.Background(), "quote failed",
		"error", apperror.New(apperror.CodeEmptyPool, apperror.WithContext("reserveIn=0")),
		"plain", errors.New("boom"))

	lines := decodeLines(t, &buf)
	appErr, ok := lines[0]["error"].(map[string]any)
	if !ok {
		t.Fatalf("error field = %v, want group", lines[0]["error"])
	}
	if appErr["context"] != "reserveIn=0" {
		t.Errorf("context = %v", appErr["context"])
	}
	if appErr["code"] != string(apperror.CodeEmptyPool) {
		t.Errorf("code = %v", appErr["code"])
	}
	if lines[0]["plain"] != "boom" {
		t.Errorf("plain = %v", lines[0]["plain"])
	}
}

func TestParseLevel(t *testing.T) {
	cases := map[string]logger.Level{
		"debug": logger.LevelDebug,
		"warn":  logger.LevelWarn,
		"error": logger.LevelError,
		"info":  logger.LevelInfo,
		"":      logger.LevelInfo,
	}
	for in, want := range cases {
		if got := logger.ParseLevel(in); got != want {
			t.Errorf("ParseLevel(%q) = %v, want %v", in, got, want)
		}
	}
}
