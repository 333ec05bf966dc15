package logger

import (
	"strings"

	"github.com/sirupsen/logrus"
)

const redacted = "[redacted]"

// secretFields never reach an output in clear text, whatever component logs them.
var secretFields = map[string]struct{}{
	"access_token":  {},
	"app_secret":    {},
	"authorization": {},
	"otp":           {},
	"token":         {},
}

type redactHook struct{}

func (redactHook) Levels() []logrus.Level {
	return logrus.AllLevels
}

func (redactHook) Fire(entry *logrus.Entry) error {
	for k, v := range entry.Data {
		if _, ok := secretFields[strings.ToLower(k)]; !ok {
			continue
		}
		if s, ok := v.(string); ok && s == "" {
			continue
		}
		entry.Data[k] = redacted
	}
	return nil
}
