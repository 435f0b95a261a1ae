package google

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"surfside/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"
)

func setupMockServer(t *testing.T) (*http.ServeMux, *SheetsService) {
	t.Helper()
	mux := http.NewServeMux()
	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)

	srv, err := sheets.NewService(context.Background(), option.WithEndpoint(server.URL), option.WithoutAuthentication())
	require.NoError(t, err)
	return mux, newSheetsService(srv, "bookings_tid", nil)
}

func testBooking(id string) *models.Booking {
	return &models.Booking{
		ID:        id,
		Customer:  models.Customer{FullName: "Deniz Yılmaz", Phone: "05321234567"},
		Activity:  models.ActivityCoastalRowing,
		Date:      "2026-07-15",
		Time:      "10:00",
		Duration:  1,
		Status:    models.StatusPending,
		UpdatedAt: time.Now(),
	}
}

func TestTestConnection(t *testing.T) {
	mux, s := setupMockServer(t)
	mux.HandleFunc("/v4/spreadsheets/bookings_tid/values/Bookings!A1", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(sheets.ValueRange{Values: [][]interface{}{{"ID"}}})
	})
	assert.NoError(t, s.TestConnection(context.Background()))
}

func TestWarmUpCache(t *testing.T) {
	mux, s := setupMockServer(t)
	mux.HandleFunc("/v4/spreadsheets/bookings_tid/values/Bookings!A:A", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(sheets.ValueRange{
			Values: [][]interface{}{{"ID"}, {"b-1"}, {}, {"b-2"}},
		})
	})
	require.NoError(t, s.WarmUpCache(context.Background()))

	row, ok := s.getCachedRow("b-1")
	assert.True(t, ok)
	assert.Equal(t, 2, row)
	row, ok = s.getCachedRow("b-2")
	assert.True(t, ok)
	assert.Equal(t, 4, row)
	_, ok = s.getCachedRow("ID")
	assert.False(t, ok, "header must not be cached")
}

func TestUpsertBookingAppendsUnknownRow(t *testing.T) {
	mux, s := setupMockServer(t)
	mux.HandleFunc("/v4/spreadsheets/bookings_tid/values/Bookings!A:A", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(sheets.ValueRange{Values: [][]interface{}{{"ID"}}})
	})
	var appended [][]interface{}
	mux.HandleFunc("/v4/spreadsheets/bookings_tid/values/Bookings!A:A:append", func(w http.ResponseWriter, r *http.Request) {
		var vr sheets.ValueRange
		_ = json.NewDecoder(r.Body).Decode(&vr)
		appended = vr.Values
		_ = json.NewEncoder(w).Encode(sheets.AppendValuesResponse{
			Updates: &sheets.UpdateValuesResponse{UpdatedRange: "Bookings!A10:K10"},
		})
	})

	require.NoError(t, s.UpsertBooking(context.Background(), testBooking("b-9")))

	require.Len(t, appended, 1)
	assert.Equal(t, "b-9", appended[0][0])
	assert.Equal(t, "Deniz Küreği", appended[0][4])
	assert.Equal(t, "Beklemede", appended[0][8])

	row, ok := s.getCachedRow("b-9")
	assert.True(t, ok)
	assert.Equal(t, 10, row)
}

func TestUpsertBookingUpdatesCachedRow(t *testing.T) {
	mux, s := setupMockServer(t)
	s.setCachedRow("b-1", 2)

	var calls int32
	mux.HandleFunc("/v4/spreadsheets/bookings_tid/values/Bookings!A2:K2", func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		assert.Equal(t, http.MethodPut, r.Method)
		_ = json.NewEncoder(w).Encode(sheets.UpdateValuesResponse{})
	})

	require.NoError(t, s.UpsertBooking(context.Background(), testBooking("b-1")))
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestUpsertBookingNil(t *testing.T) {
	_, s := setupMockServer(t)
	assert.Error(t, s.UpsertBooking(context.Background(), nil))
}

func TestDeleteBooking(t *testing.T) {
	mux, s := setupMockServer(t)
	s.setCachedRow("b-3", 3)
	mux.HandleFunc("/v4/spreadsheets/bookings_tid/values/Bookings!A3:K3:clear", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(sheets.ClearValuesResponse{})
	})

	require.NoError(t, s.DeleteBooking(context.Background(), "b-3"))
	_, ok := s.getCachedRow("b-3")
	assert.False(t, ok)
}

func TestDeleteBookingWithoutRow(t *testing.T) {
	mux, s := setupMockServer(t)
	mux.HandleFunc("/v4/spreadsheets/bookings_tid/values/Bookings!A:A", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(sheets.ValueRange{Values: [][]interface{}{{"ID"}, {"other"}}})
	})
	assert.NoError(t, s.DeleteBooking(context.Background(), "missing"))
}

func TestUpdateBookingStatus(t *testing.T) {
	mux, s := setupMockServer(t)
	s.setCachedRow("b-1", 5)

	var req sheets.BatchUpdateValuesRequest
	mux.HandleFunc("/v4/spreadsheets/bookings_tid/values:batchUpdate", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewDecoder(r.Body).Decode(&req)
		_ = json.NewEncoder(w).Encode(sheets.BatchUpdateValuesResponse{})
	})

	require.NoError(t, s.UpdateBookingStatus(context.Background(), "b-1", models.StatusConfirmed))
	require.Len(t, req.Data, 2)
	assert.Equal(t, "Bookings!I5", req.Data[0].Range)
	assert.Equal(t, "Onaylandı", req.Data[0].Values[0][0])
	assert.Equal(t, "Bookings!K5", req.Data[1].Range)
}

func TestUpdateBookingStatusUnknownRow(t *testing.T) {
	mux, s := setupMockServer(t)
	mux.HandleFunc("/v4/spreadsheets/bookings_tid/values/Bookings!A:A", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(sheets.ValueRange{})
	})
	err := s.UpdateBookingStatus(context.Background(), "nope", models.StatusConfirmed)
	assert.ErrorIs(t, err, ErrRowNotFound)
}

func TestReplaceBookingsSheet(t *testing.T) {
	mux, s := setupMockServer(t)
	mux.HandleFunc("/v4/spreadsheets/bookings_tid/values/Bookings!A2:Z:clear", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(sheets.ClearValuesResponse{})
	})
	var written sheets.ValueRange
	mux.HandleFunc("/v4/spreadsheets/bookings_tid/values/Bookings!A1", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewDecoder(r.Body).Decode(&written)
		_ = json.NewEncoder(w).Encode(sheets.UpdateValuesResponse{})
	})

	bookings := []*models.Booking{testBooking("b-1"), testBooking("b-2")}
	require.NoError(t, s.ReplaceBookingsSheet(context.Background(), bookings))

	require.Len(t, written.Values, 3)
	assert.Equal(t, "ID", written.Values[0][0])
	row, _ := s.getCachedRow("b-2")
	assert.Equal(t, 3, row)
}

func TestRowFromRange(t *testing.T) {
	row, ok := rowFromRange("Bookings!A10:K10")
	assert.True(t, ok)
	assert.Equal(t, 10, row)

	row, ok = rowFromRange("B7")
	assert.True(t, ok)
	assert.Equal(t, 7, row)

	_, ok = rowFromRange("Bookings!A:A")
	assert.False(t, ok)
}

func TestServiceAccountEmail(t *testing.T) {
	path := filepath.Join(t.TempDir(), "creds.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"client_email":"bot@surfside.iam.gserviceaccount.com"}`), 0o600))

	email, err := ServiceAccountEmail(path)
	require.NoError(t, err)
	assert.Equal(t, "bot@surfside.iam.gserviceaccount.com", email)

	_, err = ServiceAccountEmail(filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)
}
