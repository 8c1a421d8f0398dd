package userauth

import (
	"context"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	logtest "github.com/sirupsen/logrus/hooks/test"
)

func drain(sink interface{ Events() <-chan AuditEvent }, n int, t *testing.T) []AuditEvent {
	t.Helper()

	out := make([]AuditEvent, 0, n)
	timeout := time.After(2 * time.Second)
	for len(out) < n {
		select {
		case ev := <-sink.Events():
			out = append(out, ev)
		case <-timeout:
			t.Fatalf("timed out after %d of %d events", len(out), n)
		}
	}
	return out
}

func TestEngineEmitsAuditEvents(t *testing.T) {
	sink := NewChannelSink(16)
	e := newTestEngine(t, func(c *Config) {
		c.Audit.Enabled = true
		c.Audit.DropIfFull = false
	}, func(b *Builder) { b.WithAuditSink(sink) })

	ctx := WithUserAgent(WithClientIP(context.Background(), "192.0.2.10"), "test-agent")
	reg, err := e.Register(ctx, RegisterRequest{Email: "a@x.com", Password: "pw", Name: "Ann"})
	if err != nil {
		t.Fatalf("register failed: %v", err)
	}
	_, _ = e.Login(ctx, "a@x.com", "wrong")
	_, _ = e.Login(ctx, "nobody@x.com", "pw")

	events := drain(sink, 3, t)

	if events[0].EventType != auditEventRegisterSuccess || !events[0].Success || events[0].UserID != reg.User.ID {
		t.Fatalf("unexpected register event: %+v", events[0])
	}
	if events[0].IP != "192.0.2.10" || events[0].Metadata["user_agent"] != "test-agent" {
		t.Fatalf("expected request context in event: %+v", events[0])
	}
	if !events[0].Timestamp.Equal(e.clock.Now()) {
		t.Fatalf("expected engine clock timestamp, got %v", events[0].Timestamp)
	}

	for _, ev := range events[1:] {
		if ev.EventType != auditEventLoginFailure || ev.Success || ev.Error != string(auditErrInvalidCredentials) {
			t.Fatalf("unexpected login failure event: %+v", ev)
		}
	}
	if events[1].Metadata["reason"] != "password_mismatch" || events[2].Metadata["reason"] != "user_not_found" {
		t.Fatalf("expected internal reasons in audit metadata: %+v / %+v", events[1].Metadata, events[2].Metadata)
	}
}

func TestEngineAuditToLogrus(t *testing.T) {
	logger, hook := logtest.NewNullLogger()
	e := newTestEngine(t, func(c *Config) {
		c.Audit.Enabled = true
		c.Audit.DropIfFull = false
	}, func(b *Builder) { b.WithAuditSink(NewLogrusSink(logger)) })

	mustRegister(t, e, "a@x.com", "pw", "Ann", "")
	e.Close()

	entry := hook.LastEntry()
	if entry == nil {
		t.Fatal("expected an audit log entry")
	}
	if entry.Level != logrus.InfoLevel || entry.Data["event_type"] != auditEventRegisterSuccess {
		t.Fatalf("unexpected entry: %v %+v", entry.Level, entry.Data)
	}
}

func TestAuditDisabledByDefault(t *testing.T) {
	sink := NewChannelSink(4)
	e := newTestEngine(t, nil, func(b *Builder) { b.WithAuditSink(sink) })

	mustRegister(t, e, "a@x.com", "pw", "Ann", "")
	select {
	case ev := <-sink.Events():
		t.Fatalf("unexpected event with auditing disabled: %+v", ev)
	default:
	}
}

func TestBackendFailureIsLogged(t *testing.T) {
	logger, hook := logtest.NewNullLogger()
	engine, err := New().
		WithConfig(testConfig()).
		WithUserStore(brokenStore{err: context.DeadlineExceeded}).
		WithLogger(logger).
		Build()
	if err != nil {
		t.Fatalf("build failed: %v", err)
	}
	defer engine.Close()

	_, _ = engine.GetByID(context.Background(), "id")

	entry := hook.LastEntry()
	if entry == nil || entry.Level != logrus.ErrorLevel {
		t.Fatalf("expected an error entry, got %+v", entry)
	}
	if entry.Data["op"] != "get_by_id" || entry.Data[logrus.ErrorKey] != context.DeadlineExceeded {
		t.Fatalf("unexpected fields: %+v", entry.Data)
	}
}

func TestAuditErrorCodes(t *testing.T) {
	cases := map[error]AuditErrorCode{
		nil:                    "",
		ErrValidation:          auditErrValidation,
		ErrDuplicateEmail:      auditErrDuplicate,
		ErrInvalidCredentials:  auditErrInvalidCredentials,
		ErrInvalidToken:        auditErrInvalidToken,
		ErrForbidden:           auditErrForbidden,
		ErrRegisterRateLimited: auditErrRateLimited,
		ErrUnavailable:         auditErrUnavailable,
		context.Canceled:       auditErrInternal,
	}
	for err, want := range cases {
		if got := auditErrorCode(err); got != want {
			t.Fatalf("auditErrorCode(%v) = %q, want %q", err, got, want)
		}
	}
}
