package audit

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"credverify/pkg/requestcontext"
)

type recordingEmitter struct {
	events []Event
	err    error
}

func (m *recordingEmitter) Emit(_ context.Context, event Event) error {
	if m.err != nil {
		return m.err
	}
	m.events = append(m.events, event)
	return nil
}

type LoggerSuite struct {
	suite.Suite
	logs    *bytes.Buffer
	emitter *recordingEmitter
	logger  *Logger
}

func TestLoggerSuite(t *testing.T) {
	suite.Run(t, new(LoggerSuite))
}

func (s *LoggerSuite) SetupTest() {
	s.logs = &bytes.Buffer{}
	s.emitter = &recordingEmitter{}
	s.logger = NewLogger(slog.New(slog.NewJSONHandler(s.logs, nil)), s.emitter)
}

func (s *LoggerSuite) TestEnrichesFromContext() {
	now := time.Date(2024, 2, 2, 10, 0, 0, 0, time.UTC)
	ctx := requestcontext.WithTime(requestcontext.WithRequestID(context.Background(), "req-9"), now)

	s.logger.Log(ctx, Event{Action: string(ActionDegreeIssued), Subject: "alice", Resource: "universityDegree_UniA_1"})

	s.Require().Len(s.emitter.events, 1)
	s.Equal("req-9", s.emitter.events[0].RequestID)
	s.Equal(now, s.emitter.events[0].Timestamp)
	s.Contains(s.logs.String(), `"log_type":"audit"`)
	s.Contains(s.logs.String(), `"resource":"universityDegree_UniA_1"`)
}

func (s *LoggerSuite) TestEmitFailureIsLoggedNotReturned() {
	s.emitter.err = errors.New("sink down")

	s.logger.Log(context.Background(), Event{Action: string(ActionDegreeVerified)})

	s.Contains(s.logs.String(), "failed to emit audit event")
}

func (s *LoggerSuite) TestNilEmitterOnlyLogs() {
	logger := NewLogger(slog.New(slog.NewJSONHandler(s.logs, nil)), nil)
	logger.Log(context.Background(), Event{Action: string(ActionRecordPatched)})
	s.Contains(s.logs.String(), string(ActionRecordPatched))
}
