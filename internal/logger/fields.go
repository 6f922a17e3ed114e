package logger

import (
	"time"

	"go.uber.org/zap"
)

// Field is a structured log field. It wraps a zap.Field so that typed values
// reach the encoder without boxing through interface{}.
type Field struct {
	zap zap.Field
}

// Key returns the field key.
func (f Field) Key() string {
	return f.zap.Key
}

// String creates a string field.
func String(key, value string) Field {
	return Field{zap: zap.String(key, value)}
}

// Int creates an int field.
func Int(key string, value int) Field {
	return Field{zap: zap.Int(key, value)}
}

// Int64 creates an int64 field.
func Int64(key string, value int64) Field {
	return Field{zap: zap.Int64(key, value)}
}

// Float64 creates a float64 field.
func Float64(key string, value float64) Field {
	return Field{zap: zap.Float64(key, value)}
}

// Bool creates a bool field.
func Bool(key string, value bool) Field {
	return Field{zap: zap.Bool(key, value)}
}

// Time creates a time field.
func Time(key string, value time.Time) Field {
	return Field{zap: zap.Time(key, value)}
}

// Duration creates a duration field.
func Duration(key string, value time.Duration) Field {
	return Field{zap: zap.Duration(key, value)}
}

// Error creates an error field under the standard "error" key.
func Error(err error) Field {
	return Field{zap: zap.Error(err)}
}

// Strings creates a string-slice field.
func Strings(key string, values []string) Field {
	return Field{zap: zap.Strings(key, values)}
}

// Any creates a field with reflection-based encoding. Prefer the typed
// constructors on hot paths.
func Any(key string, value any) Field {
	return Field{zap: zap.Any(key, value)}
}

func fieldsToZap(fields []Field) []zap.Field {
	zapFields := make([]zap.Field, len(fields))
	for i, field := range fields {
		zapFields[i] = field.zap
	}

	return zapFields
}
