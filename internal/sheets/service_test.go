package sheets

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/option"

	"cmrdocs/internal/analysis"
	"cmrdocs/pkg/models"
)

func TestExtractSpreadsheetID(t *testing.T) {
	tests := []struct {
		name    string
		url     string
		want    string
		wantErr bool
	}{
		{
			name: "edit url",
			url:  "https://docs.google.com/spreadsheets/d/1AbC-d_EF2/edit#gid=0",
			want: "1AbC-d_EF2",
		},
		{
			name: "bare url",
			url:  "https://docs.google.com/spreadsheets/d/xyz123",
			want: "xyz123",
		},
		{
			name:    "not a sheet",
			url:     "https://example.com/docs/1",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := extractSpreadsheetID(tt.url)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestLastColumn(t *testing.T) {
	assert.Len(t, Headers, 26)
	assert.Equal(t, "Z", lastColumn())
}

func TestRows(t *testing.T) {
	at := time.Date(2024, 3, 1, 9, 30, 0, 0, time.UTC)

	var rec models.DocumentRecord
	rec.CMR.Exporter.Name = "ACME LLC"
	rec.CMR.VIN = "1M8GDM9AXKP042788"
	rec.CMR.GrossWeightKg = "450.5"
	rec.Invoice.InvoiceNo = "INV-7"
	rec.Invoice.TotalAmount = "1234.00"

	entries := []Entry{
		{
			Filename: "a.pdf",
			Status:   "ok",
			Result:   &analysis.Result{Status: "ok", Analysis: rec, Cached: true, Hash: "abc", Provider: "vision"},
		},
		{
			Filename: "b.png",
			Status:   "error",
			Err:      errors.New("provider failed"),
		},
	}

	rows := Rows(entries, at)
	require.Len(t, rows, 2)

	for _, row := range rows {
		assert.Len(t, row, len(Headers))
	}

	ok := rows[0]
	assert.Equal(t, "a.pdf", ok[0])
	assert.Equal(t, "ok", ok[1])
	assert.Equal(t, "vision", ok[2])
	assert.Equal(t, "true", ok[3])
	assert.Equal(t, "abc", ok[4])
	assert.Equal(t, "ACME LLC", ok[indexOf(t, "CMR Exporter")])
	assert.Equal(t, "1M8GDM9AXKP042788", ok[indexOf(t, "CMR VIN")])
	assert.Equal(t, "450.5", ok[indexOf(t, "Gross Weight (kg)")])
	assert.Equal(t, "INV-7", ok[indexOf(t, "Invoice No")])
	assert.Equal(t, "1234.00", ok[indexOf(t, "Total Amount")])
	assert.Equal(t, "", ok[indexOf(t, "Error")])
	assert.Equal(t, "2024-03-01 09:30:00", ok[indexOf(t, "Processed At")])

	failed := rows[1]
	assert.Equal(t, "b.png", failed[0])
	assert.Equal(t, "", failed[indexOf(t, "CMR VIN")])
	assert.Equal(t, "provider failed", failed[indexOf(t, "Error")])
}

func indexOf(t *testing.T, header string) int {
	t.Helper()
	for i, h := range Headers {
		if h == header {
			return i
		}
	}
	t.Fatalf("no header %q", header)
	return -1
}

// fakeSheets records the REST calls the service makes.
type fakeSheets struct {
	mu         sync.Mutex
	calls      []string
	existing   string
	hasHeaders bool
	appended   [][]any
}

func (f *fakeSheets) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	path := r.URL.Path
	body, _ := io.ReadAll(r.Body)
	w.Header().Set("Content-Type", "application/json")

	switch {
	case r.Method == http.MethodGet && strings.HasSuffix(path, "/spreadsheets/sheet-1"):
		f.calls = append(f.calls, "get")
		var sheetsList []map[string]any
		if f.existing != "" {
			sheetsList = append(sheetsList, map[string]any{
				"properties": map[string]any{"title": f.existing, "sheetId": 7},
			})
		}
		_ = json.NewEncoder(w).Encode(map[string]any{"spreadsheetId": "sheet-1", "sheets": sheetsList})

	case r.Method == http.MethodPost && strings.HasSuffix(path, ":batchUpdate"):
		var req struct {
			Requests []map[string]json.RawMessage `json:"requests"`
		}
		_ = json.Unmarshal(body, &req)
		if len(req.Requests) > 0 {
			if _, ok := req.Requests[0]["addSheet"]; ok {
				f.calls = append(f.calls, "addSheet")
				_ = json.NewEncoder(w).Encode(map[string]any{
					"replies": []any{map[string]any{"addSheet": map[string]any{"properties": map[string]any{"sheetId": 9}}}},
				})
				return
			}
		}
		f.calls = append(f.calls, "format")
		_, _ = w.Write([]byte(`{}`))

	case r.Method == http.MethodGet && strings.Contains(path, "/values/"):
		f.calls = append(f.calls, "getHeaders")
		if f.hasHeaders {
			_, _ = w.Write([]byte(`{"values":[["File"]]}`))
			return
		}
		_, _ = w.Write([]byte(`{}`))

	case r.Method == http.MethodPut && strings.Contains(path, "/values/"):
		f.calls = append(f.calls, "putHeaders")
		f.hasHeaders = true
		_, _ = w.Write([]byte(`{}`))

	case r.Method == http.MethodPost && strings.HasSuffix(path, ":append"):
		f.calls = append(f.calls, "append")
		var vr struct {
			Values [][]any `json:"values"`
		}
		_ = json.Unmarshal(body, &vr)
		f.appended = append(f.appended, vr.Values...)
		_ = json.NewEncoder(w).Encode(map[string]any{"updates": map[string]any{"updatedRows": len(vr.Values)}})

	default:
		http.Error(w, "unexpected "+r.Method+" "+path, http.StatusNotFound)
	}
}

func newTestService(t *testing.T, fake *fakeSheets) *Service {
	t.Helper()

	srv := httptest.NewServer(fake)
	t.Cleanup(srv.Close)

	svc, err := NewSheetsServiceWithOptions(context.Background(),
		"https://docs.google.com/spreadsheets/d/sheet-1/edit",
		option.WithEndpoint(srv.URL+"/"),
		option.WithHTTPClient(srv.Client()),
	)
	require.NoError(t, err)
	return svc
}

func TestWriteResultsCreatesSheet(t *testing.T) {
	fake := &fakeSheets{}
	svc := newTestService(t, fake)

	entries := []Entry{
		{Filename: "a.pdf", Status: "ok", Result: &analysis.Result{Status: "ok", Provider: "vision"}},
		{Filename: "b.pdf", Status: "error", Err: errors.New("boom")},
	}
	require.NoError(t, svc.WriteResults(context.Background(), entries, "CMR_Analysis"))

	assert.Equal(t, []string{"get", "addSheet", "getHeaders", "putHeaders", "format", "append"}, fake.calls)
	require.Len(t, fake.appended, 2)
	assert.Equal(t, "a.pdf", fake.appended[0][0])
	assert.Equal(t, "boom", fake.appended[1][len(Headers)-2])
}

func TestWriteResultsExistingSheet(t *testing.T) {
	fake := &fakeSheets{existing: "CMR_Analysis", hasHeaders: true}
	svc := newTestService(t, fake)

	require.NoError(t, svc.WriteResults(context.Background(), []Entry{{Filename: "a.pdf", Status: "ok"}}, "CMR_Analysis"))

	assert.Equal(t, []string{"get", "getHeaders", "append"}, fake.calls)
	assert.Len(t, fake.appended, 1)
}

func TestNewSheetsServiceErrors(t *testing.T) {
	_, err := NewSheetsServiceWithOptions(context.Background(), "not a url", option.WithoutAuthentication())
	assert.Error(t, err)

	_, err = NewSheetsService(context.Background(), "https://docs.google.com/spreadsheets/d/x", []byte("{"))
	assert.Error(t, err)
}
