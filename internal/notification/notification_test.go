package notification

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/sunilprojects/smart-campus-resource-management/config"
	"github.com/sunilprojects/smart-campus-resource-management/internal/model"
)

type sentMail struct {
	to, subject, body string
}

type recordingSender struct {
	mu   sync.Mutex
	sent []sentMail
	fail map[string]bool
}

func (s *recordingSender) Send(_ context.Context, to, subject, body string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.fail[to] {
		return errors.New("smtp unavailable")
	}
	s.sent = append(s.sent, sentMail{to, subject, body})
	return nil
}

type memEmailLogs struct {
	mu   sync.Mutex
	logs []model.EmailLog
}

func (m *memEmailLogs) Create(_ context.Context, l *model.EmailLog) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.logs = append(m.logs, *l)
	return nil
}

func (m *memEmailLogs) CountSince(context.Context, time.Time, string) (int64, error) { return 0, nil }

func (m *memEmailLogs) List(context.Context, int, int) ([]model.EmailLog, int64, error) {
	return nil, 0, nil
}

func (m *memEmailLogs) snapshot() []model.EmailLog {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]model.EmailLog(nil), m.logs...)
}

func newTestBus(t *testing.T) *Bus {
	t.Helper()
	bus, err := NewBus(&config.NotificationConfig{Driver: "gochannel", Buffer: 16}, watermill.NopLogger{})
	require.NoError(t, err)
	t.Cleanup(func() { _ = bus.Close() })
	return bus
}

func TestWorker_DeliversAndLogs(t *testing.T) {
	bus := newTestBus(t)
	sender := &recordingSender{fail: map[string]bool{"broken@campus.edu": true}}
	logs := &memEmailLogs{}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done, err := NewWorker(bus.Subscriber, "notifications", sender, logs, zap.NewNop()).Start(ctx)
	require.NoError(t, err)

	pub := NewPublisher(bus.Publisher, "notifications")
	require.NoError(t, pub.Notify(ctx, Event{
		Kind:         KindMaintenanceCancelled,
		Recipient:    "alice@campus.edu",
		BookingID:    "b1",
		ResourceName: "Chem Lab",
		Date:         "2024-06-01",
		StartTime:    "09:30",
		EndTime:      "10:30",
		Reason:       "Resource scheduled for maintenance: HVAC",
	}))
	require.NoError(t, pub.Notify(ctx, Event{Kind: KindBookingConfirmed, Recipient: "broken@campus.edu"}))

	require.Eventually(t, func() bool { return len(logs.snapshot()) == 2 }, 2*time.Second, 10*time.Millisecond)

	got := logs.snapshot()
	assert.Equal(t, model.EmailStatusSent, got[0].Status)
	assert.Equal(t, "alice@campus.edu", got[0].Recipient)
	require.NotNil(t, got[0].BookingID)
	assert.Equal(t, "b1", *got[0].BookingID)
	assert.Equal(t, model.EmailStatusFailed, got[1].Status)
	assert.Contains(t, got[1].ErrorMessage, "smtp unavailable")

	require.Len(t, sender.sent, 1)
	assert.Contains(t, sender.sent[0].body, "Resource scheduled for maintenance: HVAC")

	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("ctx 取消后 Worker 应退出")
	}
}

func TestWorker_SkipsMalformedPayload(t *testing.T) {
	bus := newTestBus(t)
	logs := &memEmailLogs{}
	sender := &recordingSender{}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	_, err := NewWorker(bus.Subscriber, "n", sender, logs, zap.NewNop()).Start(ctx)
	require.NoError(t, err)

	require.NoError(t, bus.Publisher.Publish("n", message.NewMessage(watermill.NewUUID(), []byte("{not json"))))
	require.NoError(t, NewPublisher(bus.Publisher, "n").Notify(ctx, Event{Kind: KindWelcome, Recipient: "bob@campus.edu"}))

	require.Eventually(t, func() bool { return len(logs.snapshot()) == 1 }, 2*time.Second, 10*time.Millisecond)
	assert.Equal(t, string(KindWelcome), logs.snapshot()[0].Kind)
}

func TestRender(t *testing.T) {
	cases := map[Kind]string{
		KindWelcome:              "Welcome",
		KindBookingConfirmed:     "Booking Confirmed",
		KindBookingCancelled:     "Booking Cancelled",
		KindMaintenanceCancelled: "Maintenance",
		KindBookingCompleted:     "Completed",
		KindBookingNoShow:        "Missed",
	}
	for kind, want := range cases {
		subject, body := Render(Event{Kind: kind, RecipientName: "Alice", ResourceName: "Lab"})
		assert.Contains(t, subject, want, "kind=%s", kind)
		assert.True(t, strings.HasPrefix(body, "Dear Alice"), "kind=%s", kind)
	}
}
