package logging

import (
	"log/slog"
	"regexp"
)

var (
	// Notion インテグレーションシークレット（旧形式 secret_ と新形式 ntn_）
	notionSecretPattern = regexp.MustCompile(`\b(secret|ntn)_[A-Za-z0-9]{20,}`)

	// Authorization ヘッダーがエラーに含まれた場合
	bearerPattern = regexp.MustCompile(`(?i)bearer\s+[A-Za-z0-9._~+/=-]+`)

	// URL 内の認証情報
	userinfoPattern = regexp.MustCompile(`://([^:/@\s]+):([^@\s]+)@`)
)

// Redact masks integration secrets, bearer tokens and URL passwords in msg.
func Redact(msg string) string {
	msg = bearerPattern.ReplaceAllString(msg, "Bearer ****")
	msg = notionSecretPattern.ReplaceAllString(msg, "${1}_****")
	return userinfoPattern.ReplaceAllString(msg, "://$1:****@")
}

// redactErrors is a slog ReplaceAttr hook. Error values and "error" strings
// are written in redacted form.
func redactErrors(_ []string, a slog.Attr) slog.Attr {
	switch a.Value.Kind() {
	case slog.KindAny:
		if err, ok := a.Value.Any().(error); ok && err != nil {
			return slog.String(a.Key, Redact(err.Error()))
		}
	case slog.KindString:
		if a.Key == "error" {
			return slog.String(a.Key, Redact(a.Value.String()))
		}
	}
	return a
}
