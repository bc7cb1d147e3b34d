package respond

import "knowledge-site/internal/observability/logging"

// SanitizeError は機密情報をマスクしたエラーメッセージを返す
func SanitizeError(err error) string {
	if err == nil {
		return ""
	}
	return logging.Redact(err.Error())
}
