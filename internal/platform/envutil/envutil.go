package envutil

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/yungbote/gardenbarter-backend/internal/platform/logger"
)

// String returns the trimmed value of name, or def when unset or blank.
func String(name, def string, log *logger.Logger) string {
	val, ok := lookup(name)
	if !ok {
		debug(log, name, "Environment variable not found, using default", "default", masked(name, def))
		return def
	}
	debug(log, name, "Environment variable found, using environment", "value", masked(name, val))
	return val
}

func Int(name string, def int, log *logger.Logger) int {
	val, ok := lookup(name)
	if !ok {
		debug(log, name, "Environment variable not found, using default", "default", def)
		return def
	}
	i, err := strconv.Atoi(val)
	if err != nil {
		debug(log, name, "Environment variable could not be parsed as int, using default", "provided", val, "default", def, "error", err)
		return def
	}
	return i
}

func Bool(name string, def bool, log *logger.Logger) bool {
	val, ok := lookup(name)
	if !ok {
		return def
	}
	switch strings.ToLower(val) {
	case "1", "true", "yes", "on":
		return true
	case "0", "false", "no", "off":
		return false
	default:
		debug(log, name, "Environment variable could not be parsed as bool, using default", "provided", val, "default", def)
		return def
	}
}

// Seconds reads an integer number of seconds as a duration.
func Seconds(name string, def time.Duration, log *logger.Logger) time.Duration {
	secs := Int(name, int(def/time.Second), log)
	if secs <= 0 {
		return def
	}
	return time.Duration(secs) * time.Second
}

func lookup(name string) (string, bool) {
	val, ok := os.LookupEnv(name)
	if !ok {
		return "", false
	}
	val = strings.TrimSpace(val)
	return val, val != ""
}

func debug(log *logger.Logger, name, msg string, kv ...interface{}) {
	if log == nil {
		return
	}
	log.With("env_var", name).Debug(msg, kv...)
}

func masked(name, val string) string {
	n := strings.ToUpper(name)
	if strings.Contains(n, "SECRET") || strings.Contains(n, "PASSWORD") || strings.Contains(n, "DSN") {
		if val == "" {
			return ""
		}
		return "[set]"
	}
	return val
}
