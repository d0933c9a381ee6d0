package utils

import (
	"fmt"

	"github.com/getsentry/sentry-go"
	"github.com/sirupsen/logrus"
)

// GenerateRateLimitKey creates a unique key for rate limiting
func GenerateRateLimitKey(scope, subject, path string) string {
	return fmt.Sprintf("rl:%s:%s:%s", scope, subject, path)
}

// LogEvent logs an event with structured data
func LogEvent(eventType string, data map[string]interface{}) {
	logrus.WithFields(logrus.Fields(data)).Info(eventType)
}

// CaptureError reports an unexpected failure to Sentry and logs it. Call
// sites still return a generic message to the client.
func CaptureError(err error, tags map[string]string) {
	logrus.WithError(err).WithFields(fieldsFromTags(tags)).Error("internal error")
	sentry.WithScope(func(scope *sentry.Scope) {
		for k, v := range tags {
			scope.SetTag(k, v)
		}
		sentry.CaptureException(err)
	})
}

func fieldsFromTags(tags map[string]string) logrus.Fields {
	fields := logrus.Fields{}
	for k, v := range tags {
		fields[k] = v
	}
	return fields
}

// Pointer returns a pointer to the given value
func Pointer[T any](v T) *T {
	return &v
}
