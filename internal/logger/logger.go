package logger

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/sirupsen/logrus"
)

// Log is the process-wide logger. It writes to stderr until InitLogger
// redirects it.
var Log = logrus.New()

// CustomFormatter renders entries as "[TIME] [LEVEL] [FILE:LINE] MSG".
type CustomFormatter struct{}

// Format implements logrus.Formatter.
func (f *CustomFormatter) Format(entry *logrus.Entry) ([]byte, error) {
	var fileLine string
	if entry.HasCaller() {
		fileName := filepath.Base(entry.Caller.File)
		fileLine = fmt.Sprintf("%s:%d", fileName, entry.Caller.Line)
	}

	level := strings.ToUpper(entry.Level.String())
	if len(level) > 4 {
		level = level[:4]
	}

	timeStr := entry.Time.Format("2006-01-02 15:04:05")

	var b strings.Builder
	fmt.Fprintf(&b, "[%s] [%s] [%s] %s", timeStr, level, fileLine, entry.Message)
	for _, key := range sortedKeys(entry.Data) {
		fmt.Fprintf(&b, " %s=%v", key, entry.Data[key])
	}
	b.WriteByte('\n')

	return []byte(b.String()), nil
}

// InitLogger configures Log. With an empty filePath entries go to stderr,
// otherwise only to the file: the dashboard owns the terminal.
func InitLogger(levelStr string, filePath string) (io.Closer, error) {
	Log = logrus.New()
	Log.SetReportCaller(true)
	Log.SetFormatter(&CustomFormatter{})

	level, err := logrus.ParseLevel(levelStr)
	if err != nil {
		level = logrus.InfoLevel
	}
	Log.SetLevel(level)

	if filePath == "" {
		Log.SetOutput(os.Stderr)
		return io.NopCloser(nil), nil
	}

	logDir := filepath.Dir(filePath)
	if logDir != "." {
		if err := os.MkdirAll(logDir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create log directory: %w", err)
		}
	}

	file, err := os.OpenFile(filePath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o666)
	if err != nil {
		return nil, err
	}
	Log.SetOutput(file)

	return file, nil
}

func sortedKeys(fields logrus.Fields) []string {
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
