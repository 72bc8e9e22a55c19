package logging

import (
	"errors"
	"testing"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type watermillLine struct {
	level  string
	msg    string
	fields watermill.LogFields
	err    error
}

type recordingWatermillLogger struct {
	lines  *[]watermillLine
	fields watermill.LogFields
}

func newRecordingWatermillLogger() *recordingWatermillLogger {
	return &recordingWatermillLogger{lines: &[]watermillLine{}}
}

func (r *recordingWatermillLogger) record(level, msg string, err error, fields watermill.LogFields) {
	*r.lines = append(*r.lines, watermillLine{level: level, msg: msg, fields: r.fields.Add(fields), err: err})
}

func (r *recordingWatermillLogger) Error(msg string, err error, fields watermill.LogFields) {
	r.record("error", msg, err, fields)
}

func (r *recordingWatermillLogger) Info(msg string, fields watermill.LogFields) {
	r.record("info", msg, nil, fields)
}

func (r *recordingWatermillLogger) Debug(msg string, fields watermill.LogFields) {
	r.record("debug", msg, nil, fields)
}

func (r *recordingWatermillLogger) Trace(msg string, fields watermill.LogFields) {
	r.record("trace", msg, nil, fields)
}

func (r *recordingWatermillLogger) With(fields watermill.LogFields) watermill.LoggerAdapter {
	return &recordingWatermillLogger{lines: r.lines, fields: r.fields.Add(fields)}
}

func TestWatermillServiceLoggerDelegates(t *testing.T) {
	base := newRecordingWatermillLogger()
	logger := NewWatermillServiceLogger(base).With(LogFields{"identity": "Y"})

	logger.Debug("Handlers updated", LogFields{"methods": []string{"add"}})
	logger.Info("Starting relay endpoint", nil)
	logger.Trace("Ignoring message for another address", LogFields{"to": "Z"})
	logger.Error("Stray response", errors.New("boom"), LogFields{"id": "99"})

	lines := *base.lines
	require.Len(t, lines, 4)
	for _, line := range lines {
		assert.Equal(t, "Y", line.fields["identity"])
	}
	assert.Equal(t, "debug", lines[0].level)
	assert.Equal(t, "trace", lines[2].level)
	assert.Equal(t, "Z", lines[2].fields["to"])
	assert.Equal(t, "error", lines[3].level)
	assert.EqualError(t, lines[3].err, "boom")
	assert.Equal(t, "99", lines[3].fields["id"])
}

func TestWatermillAdapterFeedsServiceLogger(t *testing.T) {
	entry := newFakeEntry()
	adapter := NewWatermillAdapter(NewEntryServiceLogger(entry))

	adapter.With(watermill.LogFields{"handler": "relay"}).Info("Adding handler", watermill.LogFields{"topic": "relay.Y"})
	adapter.Error("Handler returned error", errors.New("boom"), nil)

	logs := entry.recorder.logs
	require.Len(t, logs, 2)
	assert.Equal(t, "info", logs[0].level)
	assert.Equal(t, LogFields{"handler": "relay", "topic": "relay.Y"}, logs[0].fields)
	assert.Equal(t, "error", logs[1].level)
	assert.EqualError(t, logs[1].err, "boom")
}

func TestWatermillAdaptersUnwrapEachOther(t *testing.T) {
	base := newRecordingWatermillLogger()
	assert.Same(t, base, NewWatermillAdapter(NewWatermillServiceLogger(base)))

	logger := NewEntryServiceLogger(newFakeEntry())
	assert.Equal(t, logger, NewWatermillServiceLogger(NewWatermillAdapter(logger)))
}

func TestWatermillAdaptersPanicOnNil(t *testing.T) {
	assert.Panics(t, func() { NewWatermillServiceLogger(nil) })
	assert.Panics(t, func() { NewWatermillAdapter(nil) })
}
