package logger

import (
	"log/slog"
	"path/filepath"
	"strings"
)

// pathKeys are attribute keys whose values are file system paths.
var pathKeys = map[string]bool{
	"path":     true,
	"file":     true,
	"dir":      true,
	"save_dir": true,
	"data_dir": true,
}

// shortenPaths replaces the home directory prefix of path attributes with
// "~". Save directories live under the user's home, so full paths would
// put the account name in every line.
func shortenPaths(a slog.Attr, home string) slog.Attr {
	if a.Value.Kind() == slog.KindGroup {
		attrs := a.Value.Group()
		out := make([]slog.Attr, len(attrs))
		for i, attr := range attrs {
			out[i] = shortenPaths(attr, home)
		}
		return slog.Attr{Key: a.Key, Value: slog.GroupValue(out...)}
	}
	if home == "" || !pathKeys[a.Key] || a.Value.Kind() != slog.KindString {
		return a
	}
	return slog.String(a.Key, ShortenPath(a.Value.String(), home))
}

// ShortenPath returns path with the home prefix replaced by "~".
func ShortenPath(path, home string) string {
	if home == "" {
		return path
	}
	home = filepath.Clean(home)
	if path == home {
		return "~"
	}
	if rest, ok := strings.CutPrefix(path, home+string(filepath.Separator)); ok {
		return "~" + string(filepath.Separator) + rest
	}
	return path
}
