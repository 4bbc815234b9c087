package remote

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"attendance.agent/internal/core/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSubmitCheckInDecodesResult(t *testing.T) {
	var received CheckInRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/attendance/check-in", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&received))
		json.NewEncoder(w).Encode(map[string]interface{}{
			"attendanceId":    "att-77",
			"isValidLocation": false,
			"checkTime":       time.Now().UTC(),
		})
	}))
	defer srv.Close()

	client := NewHTTPClient(srv.URL)
	result, err := client.SubmitCheckIn(context.Background(), CheckInRequest{
		AttemptID: "a-1",
		SiteID:    7,
		RoleType:  model.RoleSecurity,
		Sample:    model.PositionSample{Latitude: -6.2, Longitude: 106.816666, AccuracyMeters: 12},
		Evidence:  EvidencePayload{Data: []byte{0xFF, 0xD8}, MIMEType: "image/jpeg", CapturedFromCamera: true},
	})
	require.NoError(t, err)

	// Soft-fail: an out-of-geofence submission still yields an id.
	assert.Equal(t, "att-77", result.AttendanceID)
	assert.False(t, result.IsValidLocation)

	assert.Equal(t, int64(7), received.SiteID)
	assert.Equal(t, model.RoleSecurity, received.RoleType)
	assert.Equal(t, "image/jpeg", received.Evidence.MIMEType)
}

func TestRejectionCarriesServerMessageVerbatim(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusConflict)
		json.NewEncoder(w).Encode(map[string]string{"message": "an open attendance record already exists for this role"})
	}))
	defer srv.Close()

	client := NewHTTPClient(srv.URL)
	_, err := client.SubmitCheckIn(context.Background(), CheckInRequest{})

	var rejection *RejectionError
	require.ErrorAs(t, err, &rejection)
	assert.Equal(t, http.StatusConflict, rejection.StatusCode)
	assert.Equal(t, "an open attendance record already exists for this role", rejection.Message)
}

func TestConnectivityFailureIsTransportError(t *testing.T) {
	client := NewHTTPClient("http://127.0.0.1:1")

	_, err := client.SubmitCheckOut(context.Background(), CheckOutRequest{AttendanceID: "att-1"})

	var transport *TransportError
	assert.ErrorAs(t, err, &transport)
}

func TestFetchCurrentStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/attendance/status", r.URL.Path)
		assert.Equal(t, "SECURITY", r.URL.Query().Get("role"))
		json.NewEncoder(w).Encode(map[string]interface{}{
			"status": "ON_SHIFT",
			"openRecord": map[string]interface{}{
				"id":       "att-5",
				"siteId":   7,
				"roleType": "SECURITY",
			},
		})
	}))
	defer srv.Close()

	client := NewHTTPClient(srv.URL)
	snap, err := client.FetchCurrentStatus(context.Background(), model.RoleSecurity)
	require.NoError(t, err)
	assert.Equal(t, model.StatusOnShift, snap.Status)
	require.NotNil(t, snap.OpenRecord)
	assert.Equal(t, "att-5", snap.OpenRecord.ID)
	assert.Equal(t, model.RecordOpen, snap.OpenRecord.Status())
}

func TestStatusBreakerOpensAfterRepeatedFailures(t *testing.T) {
	var hits int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	client := NewHTTPClient(srv.URL)

	for i := 0; i < 10; i++ {
		_, err := client.FetchCurrentStatus(context.Background(), model.RoleSecurity)
		require.Error(t, err)
	}

	// Once tripped, the breaker answers without touching the backend.
	assert.Less(t, hits, 10)

	_, err := client.FetchCurrentStatus(context.Background(), model.RoleSecurity)
	var transport *TransportError
	assert.ErrorAs(t, err, &transport)
}
