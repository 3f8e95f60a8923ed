package quotes_test

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"pricetool/internal/fx/quotes"
)

func stubResponse(code int, body string) *http.Response {
	return &http.Response{StatusCode: code, Body: io.NopCloser(bytes.NewBufferString(body))}
}

func TestPairPrice(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	httpClient := NewMockHTTPClient(ctrl)

	httpClient.EXPECT().
		Do(gomock.Any()).
		DoAndReturn(func(req *http.Request) (*http.Response, error) {
			q := req.URL.Query()
			require.Equal(t, "USD", q.Get("base"))
			require.Equal(t, "TWD", q.Get("symbols"))
			return stubResponse(http.StatusOK, `{"base":"USD","date":"2026-08-25","rates":{"TWD":32.15}}`), nil
		}).
		Times(1)

	client, err := quotes.NewClient("", quotes.WithHTTPClient(httpClient))
	require.NoError(t, err)

	price, at, err := client.PairPrice(context.Background(), "USD", "TWD")
	require.NoError(t, err)
	require.Equal(t, 32.15, price)
	require.Equal(t, time.Date(2026, 8, 25, 0, 0, 0, 0, time.UTC), at)
}

func TestPairPrice_MissingRate(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	httpClient := NewMockHTTPClient(ctrl)

	httpClient.EXPECT().
		Do(gomock.Any()).
		Return(stubResponse(http.StatusOK, `{"base":"USD","rates":{}}`), nil).
		Times(1)

	client, err := quotes.NewClient("", quotes.WithHTTPClient(httpClient))
	require.NoError(t, err)

	_, _, err = client.PairPrice(context.Background(), "USD", "TWD")
	require.Error(t, err)
}

func TestPairPrice_StatusMapping(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name string
		code int
		want string
	}{
		{"forbidden", http.StatusForbidden, "unauthorized"},
		{"rate limited", http.StatusTooManyRequests, "rate limited"},
		{"bad request", http.StatusBadRequest, "bad request"},
		{"server error", http.StatusInternalServerError, "unexpected status"},
	}
	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			ctrl := gomock.NewController(t)
			httpClient := NewMockHTTPClient(ctrl)
			httpClient.EXPECT().
				Do(gomock.Any()).
				Return(stubResponse(tc.code, ``), nil).
				Times(1)

			client, err := quotes.NewClient("", quotes.WithHTTPClient(httpClient))
			require.NoError(t, err)

			_, _, err = client.PairPrice(context.Background(), "USD", "TWD")
			require.ErrorContains(t, err, tc.want)
		})
	}
}

func TestPairPrice_MalformedBody(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	httpClient := NewMockHTTPClient(ctrl)
	httpClient.EXPECT().
		Do(gomock.Any()).
		Return(stubResponse(http.StatusOK, `<html>not json</html>`), nil).
		Times(1)

	client, err := quotes.NewClient("", quotes.WithHTTPClient(httpClient))
	require.NoError(t, err)

	_, _, err = client.PairPrice(context.Background(), "USD", "TWD")
	require.Error(t, err)
}
