package notify

import (
	"context"
	"encoding/json"
	"html"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSendReminder(t *testing.T) {
	var body map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer re_test", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"id":"email_1"}`))
	}))
	defer srv.Close()

	s := NewResend("re_test", "", WithEndpoint(srv.URL))
	got := s.SendReminder(context.Background(), Reminder{To: "sam@example.com", Amount: 42.5})
	assert.Equal(t, Delivery{OK: true, Delivered: true}, got)

	assert.Equal(t, DefaultFrom, body["from"])
	assert.Equal(t, []any{"sam@example.com"}, body["to"])
	assert.Equal(t, "Friendly reminder to settle up", body["subject"])
	assert.Contains(t, body["html"], "$42.50")
	assert.Contains(t, body["html"], html.EscapeString(defaultNote))
}

func TestSendReminderWithoutKey(t *testing.T) {
	got := NewResend("", "").SendReminder(context.Background(), Reminder{To: "sam@example.com", Amount: 1})
	assert.Equal(t, Delivery{OK: true, Delivered: false}, got)
}

func TestSendReminderFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
	}))
	defer srv.Close()

	got := NewResend("re_test", "", WithEndpoint(srv.URL)).SendReminder(context.Background(), Reminder{To: "sam@example.com", Amount: 1})
	assert.Equal(t, Delivery{OK: false, Delivered: false}, got)
}

func TestReminderHTMLEscapesNote(t *testing.T) {
	out := ReminderHTML(Reminder{Amount: 10, Note: "<b>pay</b> me"})
	assert.Contains(t, out, "&lt;b&gt;pay&lt;/b&gt; me")
	assert.Contains(t, out, "$10.00")
}
