package plugin

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Option helpers for factories. Plugin options come from YAML, so numbers may
// arrive as int or float64 and durations as strings.

// String returns cfg[key] when it is a non-empty string, otherwise def.
func String(cfg map[string]any, key, def string) string {
	if v, ok := cfg[key].(string); ok && v != "" {
		return v
	}
	return def
}

// Secret returns cfg[key] or, when unset, the value of envVar.
func Secret(cfg map[string]any, key, envVar string) string {
	if v, ok := cfg[key].(string); ok && v != "" {
		return v
	}
	return os.Getenv(envVar)
}

// Int returns cfg[key] as an int, or def when unset.
func Int(cfg map[string]any, key string, def int) (int, error) {
	switch v := cfg[key].(type) {
	case nil:
		return def, nil
	case int:
		return v, nil
	case int64:
		return int(v), nil
	case float64:
		return int(v), nil
	case string:
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return 0, fmt.Errorf("option %s: %w", key, err)
		}
		return n, nil
	default:
		return 0, fmt.Errorf("option %s: unexpected type %T", key, v)
	}
}

// Duration returns cfg[key] as a duration. Strings use time.ParseDuration;
// bare numbers are seconds.
func Duration(cfg map[string]any, key string, def time.Duration) (time.Duration, error) {
	switch v := cfg[key].(type) {
	case nil:
		return def, nil
	case time.Duration:
		return v, nil
	case int:
		return time.Duration(v) * time.Second, nil
	case float64:
		return time.Duration(v * float64(time.Second)), nil
	case string:
		d, err := time.ParseDuration(strings.TrimSpace(v))
		if err != nil {
			return 0, fmt.Errorf("option %s: %w", key, err)
		}
		return d, nil
	default:
		return 0, fmt.Errorf("option %s: unexpected type %T", key, v)
	}
}

// Strings returns cfg[key] as a string list. A single string is split on commas.
func Strings(cfg map[string]any, key string) ([]string, error) {
	switch v := cfg[key].(type) {
	case nil:
		return nil, nil
	case []string:
		return v, nil
	case string:
		var out []string
		for _, s := range strings.Split(v, ",") {
			if s = strings.TrimSpace(s); s != "" {
				out = append(out, s)
			}
		}
		return out, nil
	case []any:
		out := make([]string, 0, len(v))
		for i, item := range v {
			s, ok := item.(string)
			if !ok {
				return nil, fmt.Errorf("option %s[%d]: unexpected type %T", key, i, item)
			}
			out = append(out, s)
		}
		return out, nil
	default:
		return nil, fmt.Errorf("option %s: unexpected type %T", key, v)
	}
}
