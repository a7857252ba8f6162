package logger_test

import (
	"bytes"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"

	"github.com/canonical/vnicdb/shared/logger"
)

func TestAddContext(t *testing.T) {
	buf := &bytes.Buffer{}
	target := logrus.New()
	target.SetOutput(buf)
	target.Formatter = &logrus.TextFormatter{DisableTimestamp: true, DisableColors: true}

	old := logger.Log
	defer func() { logger.Log = old }()

	logger.Log = logger.NewLogrus(target)
	l := logger.AddContext(logger.Ctx{"vm": "vm1"})
	l.Warn("Overwriting MAC", logger.Ctx{"nic": "eth0"})

	out := buf.String()
	assert.Contains(t, out, "level=warning")
	assert.Contains(t, out, `msg="Overwriting MAC"`)
	assert.Contains(t, out, "vm=vm1")
	assert.Contains(t, out, "nic=eth0")
}
