package respond

import (
	"regexp"
)

var (
	// apiKey=... in request URLs (NewsAPI takes the key as a query parameter)
	apiKeyParamPattern = regexp.MustCompile(`(?i)(api_?key=)[^&\s"']+`)
	// X-Api-Key: ... / Authorization: Bearer ...
	apiKeyHeaderPattern = regexp.MustCompile(`(?i)(x-api-key:\s*)\S+`)
	bearerPattern       = regexp.MustCompile(`(?i)(bearer\s+)[a-z0-9\-_.=]+`)
	// sk-... style keys. 既にマスク済みの文字列 (*) にはマッチしない
	secretKeyPattern = regexp.MustCompile(`sk-[a-zA-Z0-9]{10,}`)

	// DSN 内のパスワード
	dbPasswordPattern = regexp.MustCompile(`://([^:/]+):([^@]+)@`)
)

// SanitizeError は機密情報をマスクしたエラーメッセージを返す
func SanitizeError(err error) string {
	if err == nil {
		return ""
	}
	return SanitizeString(err.Error())
}

// SanitizeString masks credentials in an arbitrary log string.
func SanitizeString(msg string) string {
	msg = apiKeyParamPattern.ReplaceAllString(msg, "${1}****")
	msg = apiKeyHeaderPattern.ReplaceAllString(msg, "${1}****")
	msg = bearerPattern.ReplaceAllString(msg, "${1}****")
	msg = secretKeyPattern.ReplaceAllString(msg, "sk-****")
	msg = dbPasswordPattern.ReplaceAllString(msg, "://$1:****@")
	return msg
}
