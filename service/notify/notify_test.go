package notify

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Xushengqwer/identity_link/config"
	"github.com/Xushengqwer/identity_link/testsupport"
)

type stubSender struct {
	name  string
	err   error
	calls int
}

func (s *stubSender) Name() string { return s.name }

func (s *stubSender) Send(context.Context, Message) error {
	s.calls++
	return s.err
}

func TestChain_FallsThroughToFirstSuccess(t *testing.T) {
	logger := testsupport.NewLogger(t)
	first := &stubSender{name: "first", err: errors.New("down")}
	second := &stubSender{name: "second"}
	third := &stubSender{name: "third"}

	channel, err := NewChain(logger, first, second, third).Send(context.Background(), Message{To: "a@x.com"})
	require.NoError(t, err)
	assert.Equal(t, "second", channel)
	assert.Equal(t, 1, first.calls)
	assert.Equal(t, 1, second.calls)
	assert.Equal(t, 0, third.calls)
}

func TestChain_AllFail(t *testing.T) {
	logger := testsupport.NewLogger(t)
	a := &stubSender{name: "a", err: errors.New("a down")}
	b := &stubSender{name: "b", err: errors.New("b down")}

	_, err := NewChain(logger, a, b).Send(context.Background(), Message{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "a down")
	assert.Contains(t, err.Error(), "b down")
}

func TestBuildChain_ConsoleAlwaysSucceeds(t *testing.T) {
	chain := BuildChain(config.NotifyConfig{}, testsupport.NewLogger(t))
	channel, err := chain.Send(context.Background(), Message{Kind: "password_reset", To: "a@x.com"})
	require.NoError(t, err)
	assert.Equal(t, "console", channel)
}

func TestWebhookSender_SignsBody(t *testing.T) {
	var (
		gotSig  string
		gotBody []byte
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotSig = r.Header.Get(SignatureHeader)
		gotBody, _ = io.ReadAll(r.Body)
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	sender := NewWebhookSender(config.WebhookConfig{URL: srv.URL, Secret: "s3cret"})
	require.NoError(t, sender.Send(context.Background(), Message{Kind: "password_reset", To: "a@x.com"}))

	var decoded Message
	require.NoError(t, json.Unmarshal(gotBody, &decoded))
	assert.Equal(t, "a@x.com", decoded.To)

	mac := hmac.New(sha256.New, []byte("s3cret"))
	mac.Write(gotBody)
	assert.Equal(t, hex.EncodeToString(mac.Sum(nil)), gotSig)
}

func TestWebhookSender_Non2xxIsError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	err := NewWebhookSender(config.WebhookConfig{URL: srv.URL}).Send(context.Background(), Message{})
	assert.Error(t, err)
}
