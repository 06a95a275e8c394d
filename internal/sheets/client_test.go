package sheets

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"stockbook/internal/models"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const fixture = `{
  "Stocks": [["Symbol","Name","Sector"],[1120,"Al Rajhi Bank","Banks"],["2222","Saudi Aramco",""]],
  "Trades": [["Date","Type","Symbol","","Qty","Price"],
             ["2024-01-02","شراء",1120,"",100,10],
             ["2024-03-02","بيع","1120","","50","20"],
             ["2024-03-03","شراء","2222","","abc",30],
             ["2024-03-04","gift","2222","",1,1]],
  "Dividends": [["Date","Symbol","","Amount"],["2024-04-01",1120,"","50.25"]],
  "Bonus": [["Date","Symbol","","Qty"],["2024-05-01","2222","",""]]
}`

func TestFetch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		_, _ = io.WriteString(w, fixture)
	}))
	defer srv.Close()

	c := NewClient(srv.Client(), srv.URL, logrus.New())
	snap, err := c.Fetch(context.Background())
	require.NoError(t, err)

	require.Len(t, snap.Stocks, 2)
	assert.Equal(t, models.Symbol("1120"), snap.Stocks[0].Symbol)
	assert.Equal(t, "Al Rajhi Bank", snap.Stocks[0].Name)

	require.Len(t, snap.Trades, 3)
	assert.Equal(t, models.TradeBuy, snap.Trades[0].Type)
	assert.Equal(t, models.TradeSell, snap.Trades[1].Type)
	assert.True(t, snap.Trades[1].Quantity.Equal(decimal.NewFromInt(50)))
	assert.True(t, snap.Trades[2].Quantity.IsZero(), "malformed quantity reads as zero")

	require.Len(t, snap.Dividends, 1)
	assert.True(t, snap.Dividends[0].Amount.Equal(decimal.RequireFromString("50.25")))
	require.Len(t, snap.Bonus, 1)
	assert.True(t, snap.Bonus[0].Quantity.IsZero())
	assert.False(t, snap.FetchedAt.IsZero())
}

func TestFetch_ErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	_, err := NewClient(srv.Client(), srv.URL, logrus.New()).Fetch(context.Background())
	assert.Error(t, err)
}

func TestFetch_TruncatedBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, fixture[:80])
	}))
	defer srv.Close()

	_, err := NewClient(srv.Client(), srv.URL, logrus.New()).Fetch(context.Background())
	assert.Error(t, err)
}

func TestAppend(t *testing.T) {
	var got createRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_, _ = io.WriteString(w, `{"status":"success"}`)
	}))
	defer srv.Close()

	c := NewClient(srv.Client(), srv.URL, logrus.New())
	tr := models.Trade{
		Date: "2024-06-01", Type: models.TradeSell, Symbol: "1120",
		Quantity: decimal.NewFromInt(5), UnitPrice: decimal.RequireFromString("21.5"),
	}
	require.NoError(t, c.Append(context.Background(), models.AppendRequest{Record: tr}))

	assert.Equal(t, "CREATE", got.Action)
	assert.Equal(t, "Trades", got.SheetName)
	assert.Equal(t, Row{"2024-06-01", "بيع", "1120", "", "5", "21.5"}, got.RowData)
}

func TestAppend_ErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	err := NewClient(srv.Client(), srv.URL, logrus.New()).
		Append(context.Background(), models.AppendRequest{Record: models.Stock{Symbol: "1", Name: "x"}})
	assert.Error(t, err)
}
