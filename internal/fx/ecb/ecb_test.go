package ecb

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"pricetool/internal/httpx"
)

const sampleFeed = `<?xml version="1.0" encoding="UTF-8"?>
<gesmes:Envelope xmlns:gesmes="http://www.gesmes.org/xml/2002-08-01" xmlns="http://www.ecb.int/vocabulary/2002-08-01/eurofxref">
  <gesmes:subject>Reference rates</gesmes:subject>
  <Cube>
    <Cube time="2026-08-25">
      <Cube currency="USD" rate="1.0871"/>
      <Cube currency="JPY" rate="160.23"/>
      <Cube currency="GBP" rate="0.8513"/>
    </Cube>
  </Cube>
</gesmes:Envelope>`

func newClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return New(Config{URL: srv.URL}, httpx.New(5*time.Second))
}

func TestReferenceRates(t *testing.T) {
	t.Parallel()

	c := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/xml")
		_, _ = w.Write([]byte(sampleFeed))
	})

	rates, day, err := c.ReferenceRates(context.Background())
	require.NoError(t, err)
	require.Equal(t, 1.0871, rates["USD"])
	require.Equal(t, 160.23, rates["JPY"])
	require.Equal(t, 0.8513, rates["GBP"])
	require.Equal(t, time.Date(2026, 8, 25, 0, 0, 0, 0, time.UTC), day)
}

func TestReferenceRates_EmptyFeed(t *testing.T) {
	t.Parallel()

	c := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`<Envelope><Cube><Cube time="2026-08-25"></Cube></Cube></Envelope>`))
	})

	_, _, err := c.ReferenceRates(context.Background())
	require.Error(t, err)
}

func TestReferenceRates_Non2xxStatus(t *testing.T) {
	t.Parallel()

	c := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	})

	_, _, err := c.ReferenceRates(context.Background())
	require.Error(t, err)
}

func TestReferenceRates_MalformedXML(t *testing.T) {
	t.Parallel()

	c := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"not":"xml"}`))
	})

	_, _, err := c.ReferenceRates(context.Background())
	require.Error(t, err)
}
