package realtime

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/coder/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ripple/cmd/identity"
	authapi "ripple/cmd/internal/auth/api"
	"ripple/cmd/internal/auth/session"
)

// fakeVerifier admits exactly one user/token pair.
type fakeVerifier struct {
	userID  string
	token   string
	infraUp bool
}

func (f *fakeVerifier) Verify(_ context.Context, _ time.Time, userID, clientToken string) (identity.Account, error) {
	if !f.infraUp {
		return identity.Account{}, errors.New("connection refused")
	}
	if userID != f.userID || clientToken != f.token {
		return identity.Account{}, session.ErrSessionInvalid
	}
	return identity.Account{ID: userID, Name: "Feed User", Role: identity.RoleStandard}, nil
}

func newTestGateway(t *testing.T) (*Hub, *fakeVerifier, *httptest.Server) {
	t.Helper()

	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	hub := NewHub(log)
	t.Cleanup(hub.Close)

	verifier := &fakeVerifier{
		userID:  "01FEED",
		token:   strings.Repeat("f", 64),
		infraUp: true,
	}

	gw, err := NewGateway(log, hub, verifier, DefaultGatewayConfig())
	require.NoError(t, err)

	srv := httptest.NewServer(gw)
	t.Cleanup(srv.Close)
	return hub, verifier, srv
}

func TestGateway_RejectsBeforeUpgrade(t *testing.T) {
	_, verifier, srv := newTestGateway(t)

	get := func(t *testing.T, url string) (int, string) {
		t.Helper()
		resp, err := http.Get(url)
		require.NoError(t, err)
		defer resp.Body.Close()

		var body struct {
			Error string `json:"error"`
		}
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
		return resp.StatusCode, body.Error
	}

	t.Run("missing credentials", func(t *testing.T) {
		status, code := get(t, srv.URL)
		assert.Equal(t, http.StatusUnauthorized, status)
		assert.Equal(t, "credentials_missing", code)
	})

	t.Run("bad token", func(t *testing.T) {
		status, code := get(t, srv.URL+"?user_id=01FEED&client_token=wrong-token-wrong-token-wrong-tok")
		assert.Equal(t, http.StatusUnauthorized, status)
		assert.Equal(t, "invalid_token", code)
	})

	t.Run("verifier outage is a server fault", func(t *testing.T) {
		verifier.infraUp = false
		defer func() { verifier.infraUp = true }()

		status, code := get(t, srv.URL+"?user_id=01FEED&client_token="+verifier.token)
		assert.Equal(t, http.StatusInternalServerError, status)
		assert.Equal(t, "server_error", code)
	})
}

func TestGateway_StreamsPublishedEvents(t *testing.T) {
	hub, verifier, srv := newTestGateway(t)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.Dial(ctx, wsURL, &websocket.DialOptions{
		HTTPHeader: http.Header{
			authapi.HeaderUserID:      []string{verifier.userID},
			authapi.HeaderClientToken: []string{verifier.token},
		},
	})
	require.NoError(t, err)
	defer conn.Close(websocket.StatusNormalClosure, "done")

	// Wait until the server side has subscribed before publishing.
	require.Eventually(t, func() bool {
		return hub.Subscribers() == 1
	}, 2*time.Second, 10*time.Millisecond)

	hub.Notify("post.created", map[string]string{"id": "01P", "title": "hello"})

	_, data, err := conn.Read(ctx)
	require.NoError(t, err)

	var ev struct {
		Kind string            `json:"kind"`
		Data map[string]string `json:"data"`
		At   time.Time         `json:"at"`
	}
	require.NoError(t, json.Unmarshal(data, &ev))
	assert.Equal(t, "post.created", ev.Kind)
	assert.Equal(t, "01P", ev.Data["id"])
	assert.False(t, ev.At.IsZero())
}

func TestGateway_QueryParamCredentials(t *testing.T) {
	hub, verifier, srv := newTestGateway(t)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http") +
		"?user_id=" + verifier.userID + "&client_token=" + verifier.token
	conn, _, err := websocket.Dial(ctx, wsURL, nil)
	require.NoError(t, err)
	defer conn.Close(websocket.StatusNormalClosure, "done")

	require.Eventually(t, func() bool {
		return hub.Subscribers() == 1
	}, 2*time.Second, 10*time.Millisecond)

	hub.Notify("comment.created", map[string]string{"id": "01C"})

	_, data, err := conn.Read(ctx)
	require.NoError(t, err)
	assert.Contains(t, string(data), "comment.created")
}
