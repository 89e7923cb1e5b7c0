package models

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGroupIDVariants(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{"string id", `{"id":"g-1","name":"Flatmates"}`, "g-1"},
		{"numeric id", `{"id":42,"name":"Flatmates"}`, "42"},
		{"groupId alias", `{"groupId":"g-7","name":"Goa Trip"}`, "g-7"},
		{"id wins over alias", `{"id":"g-1","groupId":"g-2"}`, "g-1"},
		{"no id", `{"name":"Orphan"}`, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var g Group
			require.NoError(t, json.Unmarshal([]byte(tt.body), &g))
			assert.Equal(t, tt.want, g.ID)
		})
	}
}

func TestGroupKeepsNestedFields(t *testing.T) {
	body := `{
		"id": 3,
		"name": "Office Lunch",
		"createdAt": "2025-03-01T12:30:00",
		"members": [{"name":"A","email":"a@x.com"}],
		"expenses": [{"description":"Dosa","amount":120.5,"category":"food"}]
	}`

	var g Group
	require.NoError(t, json.Unmarshal([]byte(body), &g))
	assert.Equal(t, "Office Lunch", g.Name)
	require.Len(t, g.Members, 1)
	assert.Equal(t, "a@x.com", g.Members[0].Email)
	require.Len(t, g.Expenses, 1)
	assert.True(t, g.Expenses[0].Amount.Equal(decimal.RequireFromString("120.5")))
	assert.Equal(t, time.Date(2025, 3, 1, 12, 30, 0, 0, time.UTC), g.CreatedAt.Time)
}

func TestTimestampLayouts(t *testing.T) {
	want := time.Date(2024, 11, 5, 9, 15, 30, 0, time.UTC)

	tests := []struct {
		name string
		body string
		want time.Time
	}{
		{"rfc3339", `"2024-11-05T09:15:30Z"`, want},
		{"local date-time", `"2024-11-05T09:15:30"`, want},
		{"fractional", `"2024-11-05T09:15:30.000"`, want},
		{"space separated", `"2024-11-05 09:15:30"`, want},
		{"date only", `"2024-11-05"`, time.Date(2024, 11, 5, 0, 0, 0, 0, time.UTC)},
		{"epoch millis", "1730798130000", want},
		{"null", "null", time.Time{}},
		{"empty", `""`, time.Time{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var ts Timestamp
			require.NoError(t, json.Unmarshal([]byte(tt.body), &ts))
			assert.True(t, tt.want.Equal(ts.Time), "got %v want %v", ts.Time, tt.want)
		})
	}

	var ts Timestamp
	assert.Error(t, json.Unmarshal([]byte(`"yesterday"`), &ts))
}

func TestTimestampDisplay(t *testing.T) {
	assert.Equal(t, "N/A", Timestamp{}.Display())
	ts := Timestamp{Time: time.Date(2025, 1, 9, 0, 0, 0, 0, time.UTC)}
	assert.Equal(t, "Jan 9, 2025", ts.Display())
}

func TestAmountEncodesAsNumber(t *testing.T) {
	payload := NewExpense{
		Description: "Chai",
		Amount:      Amount(decimal.RequireFromString("50.50")),
		Category:    "food",
		PaidByEmail: "a@x.com",
	}

	data, err := json.Marshal(payload)
	require.NoError(t, err)
	assert.JSONEq(t, `{"description":"Chai","amount":50.5,"category":"food","paidByEmail":"a@x.com"}`, string(data))
}

func TestAmountDecodesStringsAndNumbers(t *testing.T) {
	var b []Balance
	require.NoError(t, json.Unmarshal([]byte(`[{"fromUser":"A","toUser":"B","amount":"10.25"},{"fromUser":"B","toUser":"C","amount":3}]`), &b))
	require.Len(t, b, 2)
	assert.Equal(t, "10.25", b[0].Amount.String())
	assert.Equal(t, "3", b[1].Amount.String())
}
