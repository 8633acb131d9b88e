package logger

import (
	"log/slog"
	"strings"
)

const redacted = "[REDACTED]"

var sensitiveKeys = map[string]bool{
	"password":           true,
	"passwordconfirm":    true,
	"currentpassword":    true,
	"token":              true,
	"jwt":                true,
	"secret":             true,
	"authorization":      true,
	"cookie":             true,
	"passwordresettoken": true,
}

func redact(a slog.Attr) slog.Attr {
	key := strings.ToLower(strings.ReplaceAll(a.Key, "_", ""))
	if sensitiveKeys[key] {
		return slog.String(a.Key, redacted)
	}
	if a.Value.Kind() == slog.KindString && strings.HasPrefix(a.Value.String(), "Bearer ") {
		return slog.String(a.Key, "Bearer "+redacted)
	}
	return a
}
