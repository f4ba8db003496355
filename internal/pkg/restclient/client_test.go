package restclient

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/valyala/fasthttp"
)

func TestPostJSON(t *testing.T) {
	var gotBody, gotType string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b, _ := io.ReadAll(r.Body)
		gotBody = string(b)
		gotType = r.Header.Get("Content-Type")
		w.WriteHeader(http.StatusTeapot)
		_, _ = w.Write([]byte(`{"detail":"short and stout"}`))
	}))
	defer srv.Close()

	resp, err := New("test").PostJSON(context.Background(), srv.URL, []byte(`{"a":1}`), 0)
	require.NoError(t, err)
	assert.Equal(t, http.StatusTeapot, resp.Status)
	assert.False(t, resp.OK())
	assert.JSONEq(t, `{"detail":"short and stout"}`, string(resp.Body))
	assert.Equal(t, `{"a":1}`, gotBody)
	assert.Equal(t, "application/json", gotType)
}

func TestPostJSON_Timeout(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-release
	}))
	defer srv.Close()
	defer close(release)

	_, err := New("test").PostJSON(context.Background(), srv.URL, nil, 50*time.Millisecond)
	assert.ErrorIs(t, err, fasthttp.ErrTimeout)
}

func TestPostJSON_Cancelled(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-release
	}))
	defer srv.Close()
	defer close(release)

	ctx, cancel := context.WithCancel(context.Background())
	time.AfterFunc(20*time.Millisecond, cancel)

	_, err := New("test").PostJSON(ctx, srv.URL, nil, 0)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestRequestDeadline(t *testing.T) {
	_, bounded := requestDeadline(context.Background(), 0)
	assert.False(t, bounded)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	ctxDeadline, _ := ctx.Deadline()

	got, bounded := requestDeadline(ctx, time.Hour)
	assert.True(t, bounded)
	assert.Equal(t, ctxDeadline, got)

	got, bounded = requestDeadline(ctx, time.Millisecond)
	assert.True(t, bounded)
	assert.True(t, got.Before(ctxDeadline))
}
