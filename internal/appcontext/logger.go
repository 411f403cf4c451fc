package appcontext

import (
	"os"
	"time"

	"github.com/rs/zerolog"
)

// NewLogger level 設在 global，設定檔重新載入時可以直接調整
// 開發模式輸出易讀格式
func NewLogger(level string, development bool) *zerolog.Logger {
	zerolog.SetGlobalLevel(ParseLevel(level))

	var logger zerolog.Logger
	if development {
		logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339})
	} else {
		logger = zerolog.New(os.Stdout)
	}
	logger = logger.With().Timestamp().Logger()
	return &logger
}

// ParseLevel 無法解析時使用 info
func ParseLevel(level string) zerolog.Level {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil || level == "" {
		return zerolog.InfoLevel
	}
	return lvl
}
