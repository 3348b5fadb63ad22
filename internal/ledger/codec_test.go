package ledger

import (
	"testing"

	"budget/internal/core"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeEmptyIsArray(t *testing.T) {
	data, err := Encode(nil)
	require.NoError(t, err)
	assert.Equal(t, "[]", string(data))
}

func TestEncodeLayout(t *testing.T) {
	txs := []core.Transaction{{
		ID:       1704067200000,
		Type:     core.Expense,
		Amount:   core.Money{Cents: 4250},
		Category: "Food",
		Note:     "lunch",
		Date:     core.NewDate(2024, 1, 1),
	}}
	data, err := Encode(txs)
	require.NoError(t, err)
	assert.JSONEq(t, `[{"id":1704067200000,"type":"expense","amount":42.5,"category":"Food","note":"lunch","date":"2024-01-01"}]`, string(data))
}

func TestDecodeRejectsNonArray(t *testing.T) {
	for _, payload := range []string{`{"transactions":[]}`, `"x"`, `[1,`, ``} {
		_, _, err := Decode([]byte(payload))
		assert.Error(t, err, payload)
	}
}

func TestDecodeNullIsEmpty(t *testing.T) {
	txs, skipped, err := Decode([]byte(`null`))
	require.NoError(t, err)
	assert.Empty(t, txs)
	assert.Empty(t, skipped)
}

func TestDecodeAcceptsStringAmountsAndTimestamps(t *testing.T) {
	txs, skipped, err := Decode([]byte(`[
		{"id":1,"type":"income","amount":"12.30","category":"Salary","note":"","date":"2024-02-03T10:00:00Z"}
	]`))
	require.NoError(t, err)
	assert.Empty(t, skipped)
	require.Len(t, txs, 1)
	assert.Equal(t, int64(1230), txs[0].Amount.Cents)
	assert.Equal(t, "2024-02-03", txs[0].Date.String())
}
