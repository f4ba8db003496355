// Package restclient — блокирующий JSON POST поверх fasthttp с учётом context.Context.
package restclient

import (
	"context"
	"time"

	"github.com/valyala/fasthttp"
)

// Response — статус и копия тела ответа.
type Response struct {
	Status int
	Body   []byte
}

// OK сообщает о статусе 2xx.
func (r Response) OK() bool {
	return r.Status >= 200 && r.Status < 300
}

// Client выполняет запросы через общий fasthttp.Client.
type Client struct {
	hc *fasthttp.Client
}

// New создаёт клиент. name попадает в User-Agent.
func New(name string) *Client {
	return &Client{hc: &fasthttp.Client{
		Name:                     name,
		NoDefaultUserAgentHeader: name == "",
		MaxIdleConnDuration:      30 * time.Second,
	}}
}

type reply struct {
	resp Response
	err  error
}

// PostJSON отправляет body на url. timeout > 0 ограничивает запрос; дедлайн ctx, если он раньше, тоже учитывается.
// При отмене ctx возвращается ctx.Err(), запрос дорабатывает в фоне и освобождает свои буферы сам.
func (c *Client) PostJSON(ctx context.Context, url string, body []byte, timeout time.Duration) (Response, error) {
	if err := ctx.Err(); err != nil {
		return Response{}, err
	}
	deadline, bounded := requestDeadline(ctx, timeout)

	done := make(chan reply, 1)
	go func() {
		req := fasthttp.AcquireRequest()
		resp := fasthttp.AcquireResponse()
		defer fasthttp.ReleaseRequest(req)
		defer fasthttp.ReleaseResponse(resp)

		req.SetRequestURI(url)
		req.Header.SetMethod(fasthttp.MethodPost)
		req.Header.SetContentType("application/json")
		req.Header.Set("Accept", "application/json")
		req.SetBody(body)

		var err error
		if bounded {
			err = c.hc.DoDeadline(req, resp, deadline)
		} else {
			err = c.hc.Do(req, resp)
		}
		if err != nil {
			done <- reply{err: err}
			return
		}
		done <- reply{resp: Response{
			Status: resp.StatusCode(),
			Body:   append([]byte(nil), resp.Body()...),
		}}
	}()

	select {
	case <-ctx.Done():
		return Response{}, ctx.Err()
	case r := <-done:
		return r.resp, r.err
	}
}

func requestDeadline(ctx context.Context, timeout time.Duration) (time.Time, bool) {
	deadline, bounded := ctx.Deadline()
	if timeout > 0 {
		if own := time.Now().Add(timeout); !bounded || own.Before(deadline) {
			return own, true
		}
	}
	return deadline, bounded
}
