package google

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"budget/internal/core"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	goption "google.golang.org/api/option"
)

// fakeSheets emulates the values endpoints of the Sheets API for one tab.
type fakeSheets struct {
	mu      sync.Mutex
	values  [][]any
	clears  int
	updates int
}

func (f *fakeSheets) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")
	switch {
	case r.Method == http.MethodPost && strings.HasSuffix(r.URL.Path, ":clear"):
		f.values = nil
		f.clears++
		_, _ = w.Write([]byte(`{}`))
	case r.Method == http.MethodPut:
		var body struct {
			Values [][]any `json:"values"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		f.values = body.Values
		f.updates++
		_ = json.NewEncoder(w).Encode(map[string]any{"updatedRows": len(body.Values)})
	case r.Method == http.MethodGet:
		_ = json.NewEncoder(w).Encode(map[string]any{"values": f.values})
	default:
		http.Error(w, "unexpected request", http.StatusNotFound)
	}
}

func newTestClient(t *testing.T, fake *fakeSheets) *Client {
	t.Helper()
	srv := httptest.NewServer(fake)
	t.Cleanup(srv.Close)

	c, err := NewClient(context.Background(), Options{SpreadsheetID: "sheet-id"},
		goption.WithEndpoint(srv.URL+"/"),
		goption.WithoutAuthentication())
	require.NoError(t, err)
	return c
}

func sample() []core.Transaction {
	return []core.Transaction{
		{ID: 1704067200003, Type: core.Expense, Amount: core.Money{Cents: 2005}, Category: "Transport", Note: "", Date: core.NewDate(2024, 2, 1)},
		{ID: 1704067200002, Type: core.Expense, Amount: core.Money{Cents: 3000}, Category: "Food", Note: "groceries, weekly", Date: core.NewDate(2024, 1, 10)},
		{ID: 1704067200001, Type: core.Income, Amount: core.Money{Cents: 10000}, Category: "Salary", Note: "", Date: core.NewDate(2024, 1, 5)},
	}
}

func TestNewClientRequiresSpreadsheetID(t *testing.T) {
	_, err := NewClient(context.Background(), Options{})
	assert.ErrorIs(t, err, ErrMissingSpreadsheetID)
}

func TestNewClientRequiresCredentials(t *testing.T) {
	t.Setenv("GOOGLE_APPLICATION_CREDENTIALS", "")
	_, err := NewClient(context.Background(), Options{SpreadsheetID: "x"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing service account credentials")
}

func TestNewClientUnreadableCredentialsFile(t *testing.T) {
	_, err := NewClient(context.Background(), Options{SpreadsheetID: "x", CredentialsFile: t.TempDir() + "/missing.json"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "read service account file")
}

func TestReplaceAndListRoundTrip(t *testing.T) {
	fake := &fakeSheets{values: [][]any{{"stale"}}}
	c := newTestClient(t, fake)
	ctx := context.Background()

	require.NoError(t, c.ReplaceTransactions(ctx, sample()))
	assert.Equal(t, 1, fake.clears)
	assert.Equal(t, 1, fake.updates)
	require.Len(t, fake.values, 4)
	assert.Equal(t, []any{"ID", "Date", "Type", "Category", "Note", "Amount"}, fake.values[0])

	got, err := c.ListTransactions(ctx)
	require.NoError(t, err)
	assert.Equal(t, sample(), got)
}

func TestReplaceWithNoTransactionsWritesHeader(t *testing.T) {
	fake := &fakeSheets{}
	c := newTestClient(t, fake)

	require.NoError(t, c.ReplaceTransactions(context.Background(), nil))
	assert.Len(t, fake.values, 1)
}

func TestClientWithoutService(t *testing.T) {
	c := &Client{spreadsheetID: "x"}
	assert.Error(t, c.ReplaceTransactions(context.Background(), sample()))
	_, err := c.ListTransactions(context.Background())
	assert.Error(t, err)
}

func TestRangeQuotesSheetName(t *testing.T) {
	c := &Client{sheetName: "Bob's 2024"}
	assert.Equal(t, "'Bob''s 2024'!A:F", c.rangeFor(columns))
}
