package generate

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Honar-Abdi/Order-to-Insight/pkg/errors"
)

var anchor = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

func messyOptions(t *testing.T, n int) Options {
	t.Helper()
	profile, err := LookupProfile("messy")
	require.NoError(t, err)
	return Options{Orders: n, Seed: 42, Profile: profile, Anchor: anchor}
}

func TestLookupProfile(t *testing.T) {
	clean, err := LookupProfile("clean")
	require.NoError(t, err)
	assert.False(t, clean.BadAmount)
	assert.False(t, clean.OrphanEvent)

	_, err = LookupProfile("chaotic")
	require.Error(t, err)
	assert.Equal(t, errors.ErrCodeValidationFailed, errors.GetErrorCode(err))
	assert.Contains(t, err.Error(), "generate.profile")
	assert.Contains(t, err.Error(), "available: clean, messy")
	assert.Equal(t, []string{"clean", "messy"}, ProfileNames())
}

func TestOrdersDeterministic(t *testing.T) {
	opts := messyOptions(t, 1000)
	assert.Equal(t, Orders(opts), Orders(opts))

	other := opts
	other.Seed = 7
	assert.NotEqual(t, Orders(opts), Orders(other))
}

func TestOrdersShape(t *testing.T) {
	clean, err := LookupProfile("clean")
	require.NoError(t, err)
	orders := Orders(Options{Orders: 1000, Seed: 42, Profile: clean, Anchor: anchor})
	require.Len(t, orders, 1000)

	assert.Equal(t, "O100000", orders[0].OrderID)
	assert.Equal(t, "C10000", orders[0].CustomerID)
	assert.Equal(t, anchor, orders[0].CreatedAt)
	assert.Equal(t, "C10001", orders[801].CustomerID)
	assert.Equal(t, anchor.Add(7*time.Minute), orders[1].CreatedAt)
	assert.Equal(t, 1.5, orders[1].Amount)

	counts := map[string]int{}
	for _, o := range orders {
		counts[o.Status]++
		assert.Equal(t, "EUR", o.Currency)
		assert.GreaterOrEqual(t, o.Amount, 0.0)
		assert.NotEmpty(t, o.CustomerID)
	}
	assert.Equal(t, 80, counts["cancelled"])
	assert.Equal(t, 28, counts["refunded"])
	assert.Equal(t, 892, counts["completed"])
}

func TestOrdersMessyDefects(t *testing.T) {
	orders := Orders(messyOptions(t, 1000))

	negative, missingCustomer := 0, 0
	for _, o := range orders {
		if o.Amount < 0 {
			negative++
		}
		if o.CustomerID == "" {
			missingCustomer++
		}
	}
	assert.Equal(t, 10, negative)
	assert.Equal(t, 5, missingCustomer)
}

func TestEventsClean(t *testing.T) {
	clean, err := LookupProfile("clean")
	require.NoError(t, err)
	opts := Options{Orders: 300, Seed: 1, Profile: clean, Anchor: anchor}
	orders := Orders(opts)
	events := Events(orders, opts)

	byOrder := map[string][]Event{}
	ids := map[string]bool{}
	for _, e := range events {
		byOrder[e.OrderID] = append(byOrder[e.OrderID], e)
		assert.False(t, ids[e.EventID], "event ids are unique")
		ids[e.EventID] = true
	}

	for _, o := range orders {
		types := map[string]bool{}
		for _, e := range byOrder[o.OrderID] {
			types[e.EventType] = true
		}
		assert.True(t, types["order_created"], o.OrderID)
		switch o.Status {
		case "completed":
			assert.True(t, types["payment_confirmed"], o.OrderID)
			assert.True(t, types["order_shipped"], o.OrderID)
		case "refunded":
			assert.True(t, types["payment_confirmed"], o.OrderID)
			assert.False(t, types["order_shipped"], o.OrderID)
		case "cancelled":
			assert.True(t, types["order_cancelled"], o.OrderID)
			assert.False(t, types["order_shipped"], o.OrderID)
			assert.False(t, types["payment_confirmed"], o.OrderID)
		}
	}
	assert.Len(t, byOrder, len(orders), "clean data has no orphan events")
}

func TestEventsMessyDefects(t *testing.T) {
	opts := messyOptions(t, 2000)
	orders := Orders(opts)
	events := Events(orders, opts)

	assert.Equal(t, events[4].EventID, events[5].EventID)

	last := events[len(events)-1]
	assert.Equal(t, OrphanOrderID, last.OrderID)
	assert.Equal(t, anchor.AddDate(0, 0, 59), last.Timestamp)

	statusOf := map[string]string{}
	expectedShippedCancelled := 0
	for _, o := range orders {
		statusOf[o.OrderID] = o.Status
		if o.Status == "cancelled" && orderNumber(o.OrderID)%53 == 0 {
			expectedShippedCancelled++
		}
	}
	shippedCancelled := 0
	for _, e := range events {
		if e.EventType == "order_shipped" && statusOf[e.OrderID] == "cancelled" {
			shippedCancelled++
			assert.Equal(t, 0, orderNumber(e.OrderID)%53)
		}
		if e.EventType == "payment_confirmed" {
			assert.NotEqual(t, 0, orderNumber(e.OrderID)%37, "messy data drops payments of every 37th order")
		}
	}
	assert.Equal(t, expectedShippedCancelled, shippedCancelled)
	assert.Greater(t, len(events), len(orders))
}

func TestDefaultAnchor(t *testing.T) {
	now := time.Date(2024, 3, 1, 15, 30, 0, 0, time.UTC)
	assert.Equal(t, time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), DefaultAnchor(now))
}

func TestWriteCSV(t *testing.T) {
	dir := t.TempDir()
	orders := []Order{
		{OrderID: "O100000", CustomerID: "C10000", CreatedAt: anchor, Amount: 1.5, Currency: "EUR", Status: "completed"},
		{OrderID: "O100001", CreatedAt: anchor.Add(7 * time.Minute), Amount: -10, Currency: "EUR", Status: "cancelled"},
	}
	events := []Event{
		{EventID: "E00000001", OrderID: "O100000", EventType: "order_created", Timestamp: anchor.Add(5 * time.Second), SourceSystem: "web"},
	}

	ordersPath, eventsPath, err := WriteCSV(dir, orders, events)
	require.NoError(t, err)

	rows := readAll(t, ordersPath)
	require.Len(t, rows, 3)
	assert.Equal(t, OrderHeader, rows[0])
	assert.Equal(t, []string{"O100000", "C10000", "2024-01-01 00:00:00", "1.50", "EUR", "completed"}, rows[1])
	assert.Equal(t, "", rows[2][1])
	assert.Equal(t, "-10.00", rows[2][3])

	rows = readAll(t, eventsPath)
	require.Len(t, rows, 2)
	assert.Equal(t, EventHeader, rows[0])
	assert.Equal(t, []string{"E00000001", "O100000", "order_created", "2024-01-01 00:00:05", "web"}, rows[1])
}

func TestWriteCSVUnwritableDirectory(t *testing.T) {
	blocker := filepath.Join(t.TempDir(), "not-a-dir")
	require.NoError(t, os.WriteFile(blocker, []byte("x"), 0o644))

	_, _, err := WriteCSV(blocker, nil, nil)
	assert.Error(t, err)
}

func readAll(t *testing.T, path string) [][]string {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	rows, err := csv.NewReader(strings.NewReader(string(data))).ReadAll()
	require.NoError(t, err)
	return rows
}
