package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"mining-scheduler/config"
	"mining-scheduler/pkg/common"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// AlertCore forwards marked log entries to a Telegram chat so operators
// hear about scheduler failures without a full alerting stack.
type AlertCore struct {
	cfg      *config.Config
	core     zapcore.Core
	minLevel zapcore.Level
}

// WithAlert wraps the logger's core with an AlertCore when alerting is enabled.
func (l *Logger) WithAlert(cfg *config.Config) *Logger {
	if !cfg.Alert.Enabled {
		return l
	}

	minLevel := zapcore.ErrorLevel
	if err := minLevel.UnmarshalText([]byte(cfg.Alert.MinLevel)); err != nil {
		minLevel = zapcore.ErrorLevel
	}

	wrapped := l.Logger.WithOptions(zap.WrapCore(func(core zapcore.Core) zapcore.Core {
		return &AlertCore{cfg: cfg, core: core, minLevel: minLevel}
	}))
	return &Logger{wrapped}
}

// ErrorContextWithAlert logs an error and marks it for the alert hook.
func (l *Logger) ErrorContextWithAlert(ctx context.Context, msg string, fields ...zap.Field) {
	fields = append(fields, zap.Bool(common.KEY_LOG_HOOK_SEND_ALERT, true))
	l.FromContext(ctx).Error(msg, fields...)
}

func (a *AlertCore) Enabled(lvl zapcore.Level) bool {
	return a.core.Enabled(lvl)
}

func (a *AlertCore) With(fields []zapcore.Field) zapcore.Core {
	return &AlertCore{
		cfg:      a.cfg,
		core:     a.core.With(fields),
		minLevel: a.minLevel,
	}
}

func (a *AlertCore) Check(entry zapcore.Entry, checkedEntry *zapcore.CheckedEntry) *zapcore.CheckedEntry {
	if a.Enabled(entry.Level) {
		return a.core.Check(entry, checkedEntry).AddCore(entry, a)
	}
	return checkedEntry
}

func (a *AlertCore) Write(entry zapcore.Entry, fields []zapcore.Field) error {
	shouldSend := false
	for _, f := range fields {
		if f.Key == common.KEY_LOG_HOOK_SEND_ALERT && f.Type == zapcore.BoolType && f.Integer == 1 {
			shouldSend = true
			break
		}
	}
	if entry.Level >= a.minLevel && shouldSend {
		go a.sendTelegramAlert(entry, fields) // async so logging never blocks
	}
	return a.core.Write(entry, fields)
}

func (a *AlertCore) Sync() error {
	return a.core.Sync()
}

func (a *AlertCore) sendTelegramAlert(entry zapcore.Entry, fields []zapcore.Field) {
	enc := zapcore.NewMapObjectEncoder()
	for _, f := range fields {
		f.AddTo(enc)
	}

	fieldStr := ""
	for k, v := range enc.Fields {
		fieldStr += fmt.Sprintf("• %s: %v\n", k, v)
	}

	timestamp := entry.Time.Format("2006-01-02 15:04:05")

	message := fmt.Sprintf(
		"🚨 *%s Alert*\n\n*Message:* %s\n\n*Fields:*\n%s\n*Time:* %s",
		entry.Level.CapitalString(),
		entry.Message,
		fieldStr,
		timestamp,
	)

	token := a.cfg.Alert.TelegramBotToken
	chatID := a.cfg.Alert.TelegramChatID
	url := fmt.Sprintf("https://api.telegram.org/bot%s/sendMessage", token)

	payload := map[string]interface{}{
		"chat_id":    chatID,
		"text":       message,
		"parse_mode": "Markdown",
	}

	jsonBody, _ := json.Marshal(payload)
	http.Post(url, "application/json", bytes.NewBuffer(jsonBody))
}
