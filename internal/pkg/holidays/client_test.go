package holidays

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/cmlabs-hris/payroll-compliance-engine/internal/config"
	"github.com/cmlabs-hris/payroll-compliance-engine/internal/pkg/apperror"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient(config.CalendarConfig{HolidaySourceURL: srv.URL + "/", HolidaySourceTimeout: 2 * time.Second})
}

func TestPublicHolidays(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v3/PublicHolidays/2025/IN", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[
			{"date":"2025-01-26","localName":"गणतंत्र दिवस","name":"Republic Day","countryCode":"IN"},
			{"date":"2025-08-15","localName":"स्वतंत्रता दिवस","name":"","countryCode":"IN"},
			{"date":"2025-08-15","localName":"Independence Day","name":"Independence Day","countryCode":"IN"}
		]`))
	})

	got, err := client.PublicHolidays(context.Background(), "in", 2025)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, time.Date(2025, time.January, 26, 0, 0, 0, 0, time.UTC), got[0].Date)
	assert.Equal(t, "Republic Day", got[0].Name)
	assert.Equal(t, "स्वतंत्रता दिवस", got[1].Name)
}

func TestPublicHolidays_NoContent(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})

	got, err := client.PublicHolidays(context.Background(), "ZZ", 2025)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestPublicHolidays_UpstreamErrors(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
	}{
		{
			name: "server error",
			handler: func(w http.ResponseWriter, r *http.Request) {
				http.Error(w, "maintenance", http.StatusServiceUnavailable)
			},
		},
		{
			name: "malformed body",
			handler: func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte(`{"not":"a list"`))
			},
		},
		{
			name: "bad date",
			handler: func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte(`[{"date":"26/01/2025","name":"Republic Day"}]`))
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := newTestClient(t, tt.handler)
			_, err := client.PublicHolidays(context.Background(), "IN", 2025)
			require.Error(t, err)
			assert.ErrorIs(t, err, apperror.ErrUpstreamUnavailable)
		})
	}
}

func TestPublicHolidays_Unreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	srv.Close()
	client := NewClient(config.CalendarConfig{HolidaySourceURL: srv.URL, HolidaySourceTimeout: time.Second})

	_, err := client.PublicHolidays(context.Background(), "IN", 2025)
	assert.ErrorIs(t, err, apperror.ErrUpstreamUnavailable)
}
