package logger

import (
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
)

func TestInitSelectsFormatterFromFormat(t *testing.T) {
	Init("debug", "text")
	assert.IsType(t, &logrus.TextFormatter{}, Log.Formatter)
	assert.Equal(t, logrus.DebugLevel, Log.GetLevel())

	Init("warn", "json")
	assert.IsType(t, &logrus.JSONFormatter{}, Log.Formatter)
	assert.Equal(t, logrus.WarnLevel, Log.GetLevel())
}

func TestInitFallsBackOnUnknownValues(t *testing.T) {
	Init("loud", "")
	assert.IsType(t, &logrus.JSONFormatter{}, Log.Formatter)
	assert.Equal(t, logrus.InfoLevel, Log.GetLevel())
}
