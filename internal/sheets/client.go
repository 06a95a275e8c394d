// Package sheets talks to the spreadsheet web app that stores the portfolio
// records.
package sheets

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"stockbook/internal/models"

	"github.com/sirupsen/logrus"
)

type Client struct {
	url  string
	http *http.Client
	log  *logrus.Logger
	now  func() time.Time
}

func NewClient(c *http.Client, url string, log *logrus.Logger) *Client {
	return &Client{url: url, http: c, log: log, now: time.Now}
}

type payload struct {
	Stocks    []Row `json:"Stocks"`
	Trades    []Row `json:"Trades"`
	Dividends []Row `json:"Dividends"`
	Bonus     []Row `json:"Bonus"`
}

type createRequest struct {
	Action    string `json:"action"`
	SheetName string `json:"sheetName"`
	RowData   Row    `json:"rowData"`
}

// Fetch downloads all four sheets in one request. A snapshot is returned
// only when the whole response decoded.
func (c *Client) Fetch(ctx context.Context) (models.Snapshot, error) {
	start := time.Now()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url, nil)
	if err != nil {
		return models.Snapshot{}, fmt.Errorf("build request: %w", err)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return models.Snapshot{}, fmt.Errorf("get sheets: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return models.Snapshot{}, fmt.Errorf("get sheets: responded with %v http code", resp.StatusCode)
	}

	var p payload
	dec := json.NewDecoder(resp.Body)
	dec.UseNumber()
	if err := dec.Decode(&p); err != nil {
		return models.Snapshot{}, fmt.Errorf("decode sheets: %w", err)
	}

	var rep DecodeReport
	snap := models.Snapshot{FetchedAt: c.now().UTC()}
	var r DecodeReport
	snap.Stocks, r = DecodeStocks(dataRows(p.Stocks))
	rep.add(r)
	snap.Trades, r = DecodeTrades(dataRows(p.Trades))
	rep.add(r)
	snap.Dividends, r = DecodeDividends(dataRows(p.Dividends))
	rep.add(r)
	snap.Bonus, r = DecodeBonus(dataRows(p.Bonus))
	rep.add(r)

	if rep.Malformed > 0 || rep.Skipped > 0 {
		c.log.Warnf("sheets: %d malformed numeric cells read as zero, %d rows skipped", rep.Malformed, rep.Skipped)
	}
	c.log.Debugf("sheets: fetched %d stocks, %d trades, %d dividends, %d bonus in %s",
		len(snap.Stocks), len(snap.Trades), len(snap.Dividends), len(snap.Bonus), time.Since(start))
	return snap, nil
}

// Append sends one new row to the web app. The row becomes visible on a
// later Fetch.
func (c *Client) Append(ctx context.Context, ar models.AppendRequest) error {
	row, err := EncodeRow(ar.Record)
	if err != nil {
		return err
	}
	body, err := json.Marshal(createRequest{
		Action:    "CREATE",
		SheetName: string(ar.Record.Collection()),
		RowData:   row,
	})
	if err != nil {
		return fmt.Errorf("marshal create request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("post %s row: %w", ar.Record.Collection(), err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("post %s row: responded with %v http code", ar.Record.Collection(), resp.StatusCode)
	}
	c.log.Infof("sheets: appended row to %s", ar.Record.Collection())
	return nil
}

// dataRows drops the header row every sheet starts with.
func dataRows(rows []Row) []Row {
	if len(rows) == 0 {
		return nil
	}
	return rows[1:]
}
