package websocket

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/zack-george/instanthspro/internal/domain"
	"github.com/zack-george/instanthspro/internal/store/memory"
	"github.com/zack-george/instanthspro/pkg/auth"
)

const testSecret = "ws-test-secret"

func signToken(t *testing.T, userID string) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, auth.Claims{
		UserID: userID,
		Email:  userID + "@example.com",
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	})
	signed, err := token.SignedString([]byte(testSecret))
	require.NoError(t, err)
	return signed
}

func newTestServer(t *testing.T) (*memory.Store, *httptest.Server) {
	t.Helper()
	st := memory.NewStore(nil)
	validator, err := auth.NewValidator(testSecret)
	require.NoError(t, err)

	server := NewServer(st, validator, []string{"*"}, zap.NewNop())
	ts := httptest.NewServer(http.HandlerFunc(server.HandleWebSocket))
	t.Cleanup(ts.Close)
	return st, ts
}

func wsURL(ts *httptest.Server, token string) string {
	return "ws" + strings.TrimPrefix(ts.URL, "http") + "?token=" + token
}

// awaitSnapshot reads messages until one satisfies the predicate.
func awaitSnapshot(t *testing.T, conn *websocket.Conn, ok func(snapshotMessage) bool) snapshotMessage {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		conn.SetReadDeadline(deadline)
		_, data, err := conn.ReadMessage()
		require.NoError(t, err)
		var msg snapshotMessage
		require.NoError(t, json.Unmarshal(data, &msg))
		if ok(msg) {
			return msg
		}
	}
	t.Fatal("timed out waiting for snapshot")
	return snapshotMessage{}
}

func TestHandleWebSocket(t *testing.T) {
	t.Run("rejects missing token", func(t *testing.T) {
		_, ts := newTestServer(t)
		resp, err := http.Get(ts.URL)
		require.NoError(t, err)
		defer resp.Body.Close()
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	})

	t.Run("rejects bad token", func(t *testing.T) {
		_, ts := newTestServer(t)
		_, resp, err := websocket.DefaultDialer.Dial(wsURL(ts, "garbage"), nil)
		require.Error(t, err)
		require.NotNil(t, resp)
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	})

	t.Run("streams snapshots after writes", func(t *testing.T) {
		st, ts := newTestServer(t)

		conn, _, err := websocket.DefaultDialer.Dial(wsURL(ts, signToken(t, "user-1")), nil)
		require.NoError(t, err)
		defer conn.Close()

		// First contact lazily creates the zero balance profile. The
		// profile and gallery pumps race on delivery order, so read
		// until the expected state shows up.
		msg := awaitSnapshot(t, conn, func(m snapshotMessage) bool {
			return m.Profile != nil
		})
		assert.Equal(t, "snapshot", msg.Type)
		assert.Equal(t, 0, msg.Profile.Credits)

		require.NoError(t, st.UpdateCredits(context.Background(), "user-1", 100))
		msg = awaitSnapshot(t, conn, func(m snapshotMessage) bool {
			return m.Profile != nil && m.Profile.Credits == 100
		})
		assert.Equal(t, "user-1", msg.Profile.IdentityID)

		require.NoError(t, st.AppendGeneration(context.Background(),
			domain.NewGenerationRecord("user-1", []string{"img-a"})))
		msg = awaitSnapshot(t, conn, func(m snapshotMessage) bool {
			return len(m.Gallery) == 1
		})
		assert.Equal(t, []string{"img-a"}, msg.Gallery)
	})
}
