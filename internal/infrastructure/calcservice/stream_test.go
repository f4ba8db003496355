package calcservice

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/PolicyEngine/ACA-Calc/internal/domain"
)

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
}

// chunkedBody отдаёт тело ровно теми кусками, которыми его задали.
type chunkedBody struct {
	chunks [][]byte
	err    error
}

func (b *chunkedBody) Read(p []byte) (int, error) {
	for len(b.chunks) > 0 && len(b.chunks[0]) == 0 {
		b.chunks = b.chunks[1:]
	}
	if len(b.chunks) == 0 {
		if b.err != nil {
			return 0, b.err
		}
		return 0, io.EOF
	}
	n := copy(p, b.chunks[0])
	b.chunks[0] = b.chunks[0][n:]
	return n, nil
}

func (b *chunkedBody) Close() error { return nil }

type roundTripFunc func(*http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(r *http.Request) (*http.Response, error) { return f(r) }

func chunkedClient(status int, body *chunkedBody) *http.Client {
	return &http.Client{Transport: roundTripFunc(func(r *http.Request) (*http.Response, error) {
		return &http.Response{
			StatusCode: status,
			Header:     http.Header{"Content-Type": {"text/event-stream"}},
			Body:       body,
			Request:    r,
		}, nil
	})}
}

func testRequest() domain.CalculationRequest {
	return domain.CalculationRequest{
		AgeHead:  45,
		State:    "PA",
		County:   "Lebanon County",
		Policies: domain.Policies{IRA: true},
	}
}

const completeRecord = `data: {"step":"complete","progress":100,"result":{"income":[0,30000,60000],"ptc_baseline":[7000,3500,0],"ptc_ira":[7000,4200,900],"ptc_700fpl":[7000,4200,1100],"fpl":15650,"slcsp":7100}}` + "\n\n"

func wantResult() *domain.CalculationResult {
	return &domain.CalculationResult{
		Income:      []float64{0, 30000, 60000},
		PTCBaseline: []float64{7000, 3500, 0},
		PTCIRA:      []float64{7000, 4200, 900},
		PTC700FPL:   []float64{7000, 4200, 1100},
		FPL:         15650,
		SLCSP:       7100,
	}
}

const progressRecords = "data: {\"step\":\"setup\",\"progress\":10,\"message\":\"Setting up household...\"}\n\n" +
	"data: {\"step\":\"reforms\",\"progress\":55,\"message\":\"Réformes…\"}\r\n\r\n"

var wantProgress = []domain.ProgressEvent{
	{Percent: 10, Message: "Setting up household..."},
	{Percent: 55, Message: "Réformes…"},
}

func collect() (*[]domain.ProgressEvent, func(domain.ProgressEvent)) {
	var got []domain.ProgressEvent
	return &got, func(p domain.ProgressEvent) { got = append(got, p) }
}

func TestStream_Success(t *testing.T) {
	var gotPath, gotAccept string
	var gotBody []byte
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotAccept = r.Header.Get("Accept")
		gotBody, _ = io.ReadAll(r.Body)
		w.Header().Set("Content-Type", "text/event-stream")
		for _, rec := range []string{progressRecords, completeRecord} {
			_, _ = io.WriteString(w, rec)
			w.(http.Flusher).Flush()
		}
	}))
	defer srv.Close()

	tr := NewStreamTransport(Config{BaseURL: srv.URL + "/"}, nil, newTestLogger())
	got, onProgress := collect()

	res, err := tr.Stream(context.Background(), testRequest(), onProgress)
	require.NoError(t, err)
	assert.Equal(t, wantResult(), res)
	assert.Equal(t, wantProgress, *got)
	assert.Equal(t, "/api/calculate-stream", gotPath)
	assert.Equal(t, "text/event-stream", gotAccept)
	assert.JSONEq(t, `{"age_head":45,"dependent_ages":[],"state":"PA","county":"Lebanon County","show_ira":true,"show_700fpl":false}`, string(gotBody))
}

// Разрез чанков в любом месте потока даёт те же события и тот же результат.
func TestStream_EverySplitOffset(t *testing.T) {
	raw := []byte(progressRecords + completeRecord)
	for k := 1; k < len(raw); k++ {
		body := &chunkedBody{chunks: [][]byte{append([]byte(nil), raw[:k]...), append([]byte(nil), raw[k:]...)}}
		tr := NewStreamTransport(Config{BaseURL: "http://calc.test"}, chunkedClient(http.StatusOK, body), newTestLogger())
		got, onProgress := collect()

		res, err := tr.Stream(context.Background(), testRequest(), onProgress)
		require.NoError(t, err, "split at %d", k)
		assert.Equal(t, wantResult(), res, "split at %d", k)
		assert.Equal(t, wantProgress, *got, "split at %d", k)
	}
}

func TestStream_SmallReadBuffer(t *testing.T) {
	raw := []byte(progressRecords + completeRecord)
	tr := NewStreamTransport(Config{BaseURL: "http://calc.test", ChunkSize: 3},
		chunkedClient(http.StatusOK, &chunkedBody{chunks: [][]byte{raw}}), newTestLogger())
	got, onProgress := collect()

	res, err := tr.Stream(context.Background(), testRequest(), onProgress)
	require.NoError(t, err)
	assert.Equal(t, wantResult(), res)
	assert.Equal(t, wantProgress, *got)
}

func TestStream_Outcomes(t *testing.T) {
	tests := []struct {
		name     string
		status   int
		body     string
		readErr  error
		check    func(t *testing.T, err error)
		progress int
	}{
		{
			name:     "битая запись пропускается",
			status:   http.StatusOK,
			body:     "data: {oops\n\n" + progressRecords + completeRecord,
			progress: 2,
			check:    func(t *testing.T, err error) { assert.NoError(t, err) },
		},
		{
			name:     "ошибка в потоке",
			status:   http.StatusOK,
			body:     progressRecords + `data: {"step":"error","error":"Calculation error: county not found"}` + "\n\n",
			progress: 2,
			check: func(t *testing.T, err error) {
				var se *domain.StreamError
				require.ErrorAs(t, err, &se)
				assert.Equal(t, "Calculation error: county not found", se.Message)
				assert.True(t, domain.Recoverable(err))
			},
		},
		{
			name:     "поток закрылся без результата",
			status:   http.StatusOK,
			body:     progressRecords,
			progress: 2,
			check:    func(t *testing.T, err error) { assert.ErrorIs(t, err, domain.ErrStreamIncomplete) },
		},
		{
			name:     "поток оборвался посреди записи",
			status:   http.StatusOK,
			body:     progressRecords + `data: {"step":"complete","res`,
			progress: 2,
			check:    func(t *testing.T, err error) { assert.ErrorIs(t, err, domain.ErrStreamIncomplete) },
		},
		{
			name:     "обрыв соединения при чтении",
			status:   http.StatusOK,
			body:     progressRecords,
			readErr:  io.ErrUnexpectedEOF,
			progress: 2,
			check: func(t *testing.T, err error) {
				var ne *domain.NetworkError
				require.ErrorAs(t, err, &ne)
				assert.ErrorIs(t, err, io.ErrUnexpectedEOF)
			},
		},
		{
			name:   "сервис отклонил запрос",
			status: http.StatusBadRequest,
			body:   `{"detail":"County not found: Narnia County"}`,
			check: func(t *testing.T, err error) {
				var cf *domain.CalculationFailed
				require.ErrorAs(t, err, &cf)
				assert.Equal(t, http.StatusBadRequest, cf.Status)
				assert.Equal(t, "County not found: Narnia County", cf.Detail)
				assert.False(t, domain.Recoverable(err))
			},
		},
		{
			name:   "сервис недоступен",
			status: http.StatusServiceUnavailable,
			body:   "upstream down",
			check: func(t *testing.T, err error) {
				var ne *domain.NetworkError
				require.ErrorAs(t, err, &ne)
				assert.True(t, domain.Recoverable(err))
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			body := &chunkedBody{chunks: [][]byte{[]byte(tt.body)}, err: tt.readErr}
			tr := NewStreamTransport(Config{BaseURL: "http://calc.test"}, chunkedClient(tt.status, body), newTestLogger())
			got, onProgress := collect()

			_, err := tr.Stream(context.Background(), testRequest(), onProgress)
			tt.check(t, err)
			assert.Len(t, *got, tt.progress)
		})
	}
}

func TestStream_TransportFailure(t *testing.T) {
	client := &http.Client{Transport: roundTripFunc(func(*http.Request) (*http.Response, error) {
		return nil, errors.New("connection refused")
	})}
	tr := NewStreamTransport(Config{BaseURL: "http://calc.test"}, client, newTestLogger())

	_, err := tr.Stream(context.Background(), testRequest(), nil)
	var ne *domain.NetworkError
	require.ErrorAs(t, err, &ne)
	assert.Equal(t, "stream", ne.Op)
	assert.True(t, domain.Recoverable(err))
}

// Собственный таймаут транспорта — восстановимый сетевой сбой, отмена вызывающим — нет.
func TestStream_TimeoutAndCancel(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		_, _ = io.WriteString(w, progressRecords)
		w.(http.Flusher).Flush()
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(release)

	t.Run("таймаут", func(t *testing.T) {
		tr := NewStreamTransport(Config{BaseURL: srv.URL, StreamTimeout: 100 * time.Millisecond}, nil, newTestLogger())
		got, onProgress := collect()

		_, err := tr.Stream(context.Background(), testRequest(), onProgress)
		var ne *domain.NetworkError
		require.ErrorAs(t, err, &ne)
		assert.True(t, domain.Recoverable(err))
		assert.Equal(t, wantProgress, *got)
	})

	t.Run("отмена", func(t *testing.T) {
		tr := NewStreamTransport(Config{BaseURL: srv.URL}, nil, newTestLogger())
		ctx, cancel := context.WithCancel(context.Background())
		_, onProgress := collect()
		time.AfterFunc(100*time.Millisecond, cancel)

		_, err := tr.Stream(ctx, testRequest(), onProgress)
		assert.ErrorIs(t, err, context.Canceled)
		assert.False(t, domain.Recoverable(err))
	})
}
