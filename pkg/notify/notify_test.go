package notify

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/canal-io/canal/entity"
)

const logLevelEnvName = "LOG_LEVEL"

func TestNotify(t *testing.T) {

	sender := "someSender"
	instance := "someId"
	channel := "someChannelId"
	expectedMessage := "some stuff happened, foo=11"
	fmtstr := "some stuff happened, foo=%d"
	fmtval := 11
	ch := make(entity.NotifyChan, 3)
	curLvl := os.Getenv(logLevelEnvName)
	os.Setenv(logLevelEnvName, entity.NotifyLevelStrDebug)

	notifier := New(ch, nil, 2, sender, instance, channel)

	// Test DEBUG
	notifier.Notify(entity.NotifyLevelDebug, fmtstr, fmtval)
	event := <-ch
	expectedEvent := entity.NotificationEvent{
		Level:    "DEBUG",
		Sender:   sender,
		Instance: instance,
		Channel:  channel,
		Message:  expectedMessage,
		Func:     "notify.TestNotify",
	}
	event.Timestamp = ""
	assert.Equal(t, expectedEvent, event)

	// Test INFO
	notifier.Notify(entity.NotifyLevelInfo, fmtstr, fmtval)
	event = <-ch
	expectedEvent.Level = "INFO"
	event.Timestamp = ""
	assert.Equal(t, expectedEvent, event)

	// Test WARN
	notifier.Notify(entity.NotifyLevelWarn, fmtstr, fmtval)
	event = <-ch
	expectedEvent.Level = "WARN"
	event.Timestamp = ""
	assert.Equal(t, "notify_test.go", filepath.Base(event.File))
	assert.Greater(t, event.Line, 0)
	event.File, event.Line = "", 0
	assert.Equal(t, expectedEvent, event)

	// Test ERROR
	notifier.Notify(entity.NotifyLevelError, fmtstr, fmtval)
	event = <-ch
	expectedEvent.Level = "ERROR"
	event.Timestamp = ""
	assert.Greater(t, event.Line, 0)
	assert.NotEmpty(t, event.StackTrace)
	event.File, event.Line, event.StackTrace = "", 0, ""
	assert.Equal(t, expectedEvent, event)

	os.Setenv(logLevelEnvName, curLvl)
}

func TestMinLogLevel(t *testing.T) {

	sender := "someSender"
	instance := "someId"
	channel := "someChannelId"
	ch := make(entity.NotifyChan, 3)
	curLvl := os.Getenv(logLevelEnvName)

	// Empty os env var --> min level INFO
	os.Setenv(logLevelEnvName, "")
	notifier := New(ch, nil, 2, sender, instance, channel)
	assert.Equal(t, entity.NotifyLevelInfo, notifier.minNotifyLevel)

	// Invalid os env var --> min level INFO
	os.Setenv(logLevelEnvName, "SOME_INVALID_LEVEL")
	notifier = New(ch, nil, 2, sender, instance, channel)
	assert.Equal(t, entity.NotifyLevelInfo, notifier.minNotifyLevel)

	// Valid levels
	os.Setenv(logLevelEnvName, entity.NotifyLevelStrInfo)
	notifier = New(ch, nil, 2, sender, instance, channel)
	assert.Equal(t, entity.NotifyLevelInfo, notifier.minNotifyLevel)

	os.Setenv(logLevelEnvName, entity.NotifyLevelStrWarn)
	notifier = New(ch, nil, 2, sender, instance, channel)
	assert.Equal(t, entity.NotifyLevelWarn, notifier.minNotifyLevel)

	os.Setenv(logLevelEnvName, entity.NotifyLevelStrError)
	notifier = New(ch, nil, 2, sender, instance, channel)
	assert.Equal(t, entity.NotifyLevelError, notifier.minNotifyLevel)

	// Events below min level are dropped
	notifier.Notify(entity.NotifyLevelInfo, "should not appear")
	assert.Empty(t, ch)

	os.Setenv(logLevelEnvName, curLvl)
}
