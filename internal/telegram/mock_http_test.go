package telegram

import (
	"bytes"
	"io"
	"net/http"

	"github.com/cenkalti/backoff/v4"
)

type roundTripFunc func(*http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(req *http.Request) (*http.Response, error) {
	return f(req)
}

func newTestClient(maxRetries uint64, fn roundTripFunc) *Client {
	return &Client{
		inner:      &http.Client{Transport: fn},
		baseURL:    "https://tg.example",
		token:      "123:secret",
		maxRetries: maxRetries,
		newBackOff: func() backoff.BackOff { return &backoff.ZeroBackOff{} },
	}
}

func jsonResponse(status int, body string) *http.Response {
	return &http.Response{
		StatusCode: status,
		Body:       io.NopCloser(bytes.NewReader([]byte(body))),
		Header:     make(http.Header),
	}
}
