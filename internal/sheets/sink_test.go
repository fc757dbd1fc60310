package sheets

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"google.golang.org/api/option"

	"github.com/dvloznov/transfer-tracker/internal/pipeline"
)

func ptr[T any](v T) *T { return &v }

func TestRow(t *testing.T) {
	processedAt := time.Date(2025, 3, 14, 12, 30, 0, 0, time.UTC)
	tr := pipeline.Transfer{
		Amount:            ptr(int64(2500000)),
		CUIT:              ptr("20123456789"),
		CBU:               ptr("0170099220000067797370"),
		RecipientName:     ptr("Juan Perez"),
		Date:              ptr("14/03/2025"),
		TransactionNumber: ptr("000123"),
		Bank:              ptr("BBVA"),
		TransferType:      pipeline.Invoiced,
	}

	row := Row(tr, processedAt)
	if len(row) != len(Header) {
		t.Fatalf("Row() has %d cells, want %d", len(row), len(Header))
	}

	want := map[int]interface{}{
		0:  "2025-03-14T12:30:00Z",
		1:  "'14/03/2025",
		2:  "2500000",
		3:  "'20123456789",
		4:  "",
		5:  "'Juan Perez",
		7:  "'000123",
		8:  "'0170099220000067797370",
		10: "'BBVA",
		13: "Con Factura",
	}
	for i, w := range want {
		if row[i] != w {
			t.Errorf("Row()[%d] (%v) = %v, want %v", i, Header[i], row[i], w)
		}
	}
}

func TestRow_FormulaLikeText(t *testing.T) {
	tr := pipeline.Transfer{
		RecipientName: ptr("=HYPERLINK(\"http://x\")"),
		SenderName:    ptr("+54 9 11"),
		Alias:         ptr("-alias-"),
		Reference:     ptr("@IMPORTRANGE"),
		Date:          ptr("05/03/2024"),
	}
	row := Row(tr, time.Unix(0, 0))

	for _, i := range []int{1, 5, 6, 9, 12} {
		cell, _ := row[i].(string)
		if !strings.HasPrefix(cell, "'") {
			t.Errorf("Row()[%d] (%v) = %q, want a text cell", i, Header[i], cell)
		}
	}
	if row[1] != "'05/03/2024" {
		t.Errorf("date cell = %v, want '05/03/2024", row[1])
	}
	if row[12] != "'@IMPORTRANGE" {
		t.Errorf("reference cell = %v", row[12])
	}
}

func TestRow_EmptyTransfer(t *testing.T) {
	row := Row(pipeline.Transfer{}, time.Unix(0, 0))
	for i := 1; i < len(row)-1; i++ {
		if row[i] != "" {
			t.Errorf("Row()[%d] = %v, want empty cell", i, row[i])
		}
	}
	if row[len(row)-1] != "Barrani" {
		t.Errorf("type cell = %v, want Barrani", row[len(row)-1])
	}
}

func TestSink_Append(t *testing.T) {
	var gotPath, gotQuery string
	var gotBody sheetsValueRange

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotQuery = r.URL.RawQuery
		if r.Method != http.MethodPost {
			t.Errorf("method = %s, want POST", r.Method)
		}
		if err := json.NewDecoder(r.Body).Decode(&gotBody); err != nil {
			t.Errorf("decode body: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"spreadsheetId":"sheet-1","updates":{"updatedRows":1}}`))
	}))
	defer srv.Close()

	sink, err := NewSink(context.Background(), "", "sheet-1", "Sheet1!A:N",
		option.WithEndpoint(srv.URL+"/"),
		option.WithHTTPClient(srv.Client()),
	)
	if err != nil {
		t.Fatalf("NewSink() error = %v", err)
	}
	sink.now = func() time.Time { return time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC) }

	err = sink.Append(context.Background(), pipeline.Transfer{Amount: ptr(int64(8765000))})
	if err != nil {
		t.Fatalf("Append() error = %v", err)
	}

	if !strings.Contains(gotPath, "sheet-1") || !strings.HasSuffix(gotPath, ":append") {
		t.Errorf("path = %q, want values append for sheet-1", gotPath)
	}
	if !strings.Contains(gotQuery, "valueInputOption=USER_ENTERED") {
		t.Errorf("query = %q, want USER_ENTERED", gotQuery)
	}
	if len(gotBody.Values) != 1 || gotBody.Values[0][2] != "8765000" {
		t.Errorf("body values = %v", gotBody.Values)
	}
}

func TestSink_AppendError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":{"code":403,"message":"The caller does not have permission"}}`, http.StatusForbidden)
	}))
	defer srv.Close()

	sink, err := NewSink(context.Background(), "", "sheet-1", "Sheet1!A:N",
		option.WithEndpoint(srv.URL+"/"),
		option.WithHTTPClient(srv.Client()),
	)
	if err != nil {
		t.Fatalf("NewSink() error = %v", err)
	}

	if err := sink.Append(context.Background(), pipeline.Transfer{}); err == nil {
		t.Fatal("Append() error = nil, want error on 403")
	}
}

type sheetsValueRange struct {
	Values [][]interface{} `json:"values"`
}
