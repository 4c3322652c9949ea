package logger

import (
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"layup-scheduler/config"
)

func TestNewLogger_Formats(t *testing.T) {
	for _, format := range []string{"json", "console"} {
		l, err := NewLogger(&config.LogConfig{Level: "warn", Format: format})
		if err != nil {
			t.Fatalf("格式 %s 期望成功，实际: %v", format, err)
		}
		if l.Core().Enabled(zapcore.InfoLevel) {
			t.Errorf("格式 %s: warn 级别下不应输出 info", format)
		}
	}
}

func TestNewLogger_InvalidLevel(t *testing.T) {
	if _, err := NewLogger(&config.LogConfig{Level: "loud", Format: "json"}); err == nil {
		t.Error("期望无效级别报错，实际成功")
	}
}

func TestForRun_AttachesFields(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)

	ForRun(zap.New(core), "run-1", "dry").Info("完成")

	entries := logs.All()
	if len(entries) != 1 {
		t.Fatalf("期望1条日志，实际: %d", len(entries))
	}
	fields := entries[0].ContextMap()
	if fields["run_id"] != "run-1" || fields["mode"] != "dry" {
		t.Errorf("期望携带 run_id/mode 字段，实际: %v", fields)
	}
}
