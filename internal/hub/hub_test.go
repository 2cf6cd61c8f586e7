package hub

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"

	"github.com/zillah777/fixia.com.ar-sub001/internal/model"
)

const testSecret = "test-secret"

type fakeReader struct {
	list   []model.Notification
	unread int
}

func (f *fakeReader) ListByUser(_ context.Context, _ uint64, since *time.Time) ([]model.Notification, error) {
	if since == nil {
		return f.list, nil
	}
	var out []model.Notification
	for _, n := range f.list {
		if n.CreatedAt.After(*since) {
			out = append(out, n)
		}
	}
	return out, nil
}

func (f *fakeReader) UnreadCount(context.Context, uint64) (int, error) {
	return f.unread, nil
}

func signToken(t *testing.T, userID uint64) string {
	t.Helper()
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": float64(userID),
		"exp": time.Now().Add(time.Hour).Unix(),
	})
	signed, err := tok.SignedString([]byte(testSecret))
	require.NoError(t, err)
	return signed
}

func startHub(t *testing.T, store NotificationReader) (*Hub, *httptest.Server) {
	t.Helper()
	h := New(store)
	ctx, cancel := context.WithCancel(context.Background())
	go func() { _ = h.Run(ctx) }()

	e := echo.New()
	e.GET("/ws", ServeWS(h, testSecret))
	srv := httptest.NewServer(e)

	t.Cleanup(func() {
		srv.Close()
		cancel()
	})
	return h, srv
}

func dial(t *testing.T, srv *httptest.Server, token string) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws?access_token=" + token
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func readFrame(t *testing.T, conn *websocket.Conn) Frame {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	var frame Frame
	require.NoError(t, conn.ReadJSON(&frame))
	return frame
}

func TestConnectSendsConfirmationAndUnreadCount(t *testing.T) {
	_, srv := startHub(t, &fakeReader{unread: 3})
	conn := dial(t, srv, signToken(t, 42))

	frame := readFrame(t, conn)
	require.Equal(t, FrameConnectionConfirmed, frame.Type)

	frame = readFrame(t, conn)
	require.Equal(t, FrameUnreadCount, frame.Type)
	var p UnreadCountPayload
	require.NoError(t, json.Unmarshal(frame.Data, &p))
	require.Equal(t, 3, p.Count)
}

func TestConnectRejectsBadToken(t *testing.T) {
	_, srv := startHub(t, &fakeReader{})
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws?access_token=garbage"
	_, resp, err := websocket.DefaultDialer.Dial(url, nil)
	require.Error(t, err)
	require.NotNil(t, resp)
	require.Equal(t, 401, resp.StatusCode)
}

func TestPushNotification(t *testing.T) {
	h, srv := startHub(t, &fakeReader{})
	conn := dial(t, srv, signToken(t, 42))

	readFrame(t, conn) // connection-confirmed
	readFrame(t, conn) // unread-count

	require.Eventually(t, func() bool { return h.Connected(42) }, 2*time.Second, 10*time.Millisecond)

	h.PushNotification(42, &model.Notification{ID: 7, UserID: 42, Type: model.NotificationOrder, Title: "confirmed"})
	h.PushUnreadCount(42, 1)

	frame := readFrame(t, conn)
	require.Equal(t, FrameNotificationNew, frame.Type)
	var p NotificationPayload
	require.NoError(t, json.Unmarshal(frame.Data, &p))
	require.Equal(t, uint64(7), p.Notification.ID)

	frame = readFrame(t, conn)
	require.Equal(t, FrameUnreadCount, frame.Type)

	// Pushes for a user without a channel are dropped silently.
	h.PushNotification(99, &model.Notification{ID: 8, UserID: 99})
}

func TestSyncRequestRepliesWithFeed(t *testing.T) {
	store := &fakeReader{
		list: []model.Notification{
			{ID: 2, UserID: 42, CreatedAt: time.Now().UTC()},
			{ID: 1, UserID: 42, CreatedAt: time.Now().UTC().Add(-time.Hour), Read: true},
		},
		unread: 1,
	}
	_, srv := startHub(t, store)
	conn := dial(t, srv, signToken(t, 42))

	readFrame(t, conn) // connection-confirmed
	readFrame(t, conn) // unread-count

	payload, _ := json.Marshal(SyncRequestPayload{})
	require.NoError(t, conn.WriteJSON(Frame{Type: FrameSyncRequest, Data: payload}))

	frame := readFrame(t, conn)
	require.Equal(t, FrameSyncResponse, frame.Type)
	var p SyncResponsePayload
	require.NoError(t, json.Unmarshal(frame.Data, &p))
	require.Len(t, p.Notifications, 2)
	require.Equal(t, 1, p.UnreadCount)
	require.False(t, p.SyncedAt.IsZero())

	// An incremental sync only replays what is newer than the cursor.
	since := time.Now().UTC().Add(-time.Minute)
	payload, _ = json.Marshal(SyncRequestPayload{LastSyncTime: &since})
	require.NoError(t, conn.WriteJSON(Frame{Type: FrameSyncRequest, Data: payload}))

	frame = readFrame(t, conn)
	require.Equal(t, FrameSyncResponse, frame.Type)
	require.NoError(t, json.Unmarshal(frame.Data, &p))
	require.Len(t, p.Notifications, 1)
	require.Equal(t, uint64(2), p.Notifications[0].ID)
}

func TestPingPong(t *testing.T) {
	_, srv := startHub(t, &fakeReader{})
	conn := dial(t, srv, signToken(t, 42))

	readFrame(t, conn)
	readFrame(t, conn)

	require.NoError(t, conn.WriteJSON(Frame{Type: FramePing}))
	frame := readFrame(t, conn)
	require.Equal(t, FramePong, frame.Type)
}

func TestSecondConnectionReplacesFirst(t *testing.T) {
	h, srv := startHub(t, &fakeReader{})
	token := signToken(t, 42)

	first := dial(t, srv, token)
	readFrame(t, first)
	readFrame(t, first)
	require.Eventually(t, func() bool { return h.Connected(42) }, 2*time.Second, 10*time.Millisecond)

	second := dial(t, srv, token)
	readFrame(t, second)
	readFrame(t, second)

	// The replaced connection is closed by the hub.
	require.NoError(t, first.SetReadDeadline(time.Now().Add(5*time.Second)))
	for {
		var frame Frame
		if err := first.ReadJSON(&frame); err != nil {
			break
		}
	}

	// Pushes land on the surviving connection.
	h.PushNotification(42, &model.Notification{ID: 9, UserID: 42})
	frame := readFrame(t, second)
	require.Equal(t, FrameNotificationNew, frame.Type)
}

func TestPushRacingReconnect(t *testing.T) {
	h, srv := startHub(t, &fakeReader{})
	token := signToken(t, 42)

	// Hammer the user's channel from several goroutines while the same
	// user reconnects over and over. Replacing a connection must never
	// make a concurrent push panic.
	stop := make(chan struct{})
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				select {
				case <-stop:
					return
				default:
					h.PushNotification(42, &model.Notification{ID: 1, UserID: 42})
					h.PushUnreadCount(42, 1)
				}
			}
		}()
	}

	for i := 0; i < 25; i++ {
		conn := dial(t, srv, token)
		conn.Close()
	}

	close(stop)
	wg.Wait()
}
