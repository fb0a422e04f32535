package logger

import (
	"errors"
	"testing"

	"github.com/ThreeDotsLabs/watermill"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/sunilprojects/smart-campus-resource-management/config"
)

func TestNewLogger_InvalidLevel(t *testing.T) {
	if _, err := NewLogger(&config.LogConfig{Level: "loud", Format: "json"}); err == nil {
		t.Fatal("无效日志级别应返回错误")
	}
}

func TestNewLogger_Console(t *testing.T) {
	l, err := NewLogger(&config.LogConfig{Level: "debug", Format: "console"})
	if err != nil {
		t.Fatalf("NewLogger 应成功: %v", err)
	}
	if !l.Core().Enabled(zap.DebugLevel) {
		t.Error("期望 debug 级别已启用")
	}
}

func TestWatermillAdapter_FieldsAndErrors(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	adapter := NewWatermillAdapter(zap.New(core)).With(watermill.LogFields{"topic": "t1"})

	adapter.Error("发布失败", errors.New("boom"), watermill.LogFields{"uuid": "m1"})
	adapter.Trace("trace 消息", nil)

	entries := logs.All()
	if len(entries) != 2 {
		t.Fatalf("期望 2 条日志，实际=%d", len(entries))
	}
	ctx := entries[0].ContextMap()
	if ctx["topic"] != "t1" || ctx["uuid"] != "m1" || ctx["error"] != "boom" {
		t.Errorf("字段不符合预期: %v", ctx)
	}
	if entries[1].Level != zap.DebugLevel {
		t.Errorf("trace 应降为 debug，实际=%s", entries[1].Level)
	}
}
