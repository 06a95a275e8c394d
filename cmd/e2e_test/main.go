package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"time"
)

var baseURL = "http://localhost:8080"

func main() {
	if v := os.Getenv("BASE_URL"); v != "" {
		baseURL = v
	}
	// Wait for server to start
	time.Sleep(2 * time.Second)

	// 1. Health Check
	checkEndpoint("GET", "/health", nil, 200)

	// 2. Create a fresh stock
	symbol := fmt.Sprintf("E2E%d", time.Now().Unix()%100000)
	checkEndpoint("POST", "/stocks", map[string]string{"symbol": symbol, "name": "E2E Test Co", "sector": "Testing"}, 201)

	// 3. Buy, then try to oversell
	checkEndpoint("POST", "/trades", map[string]any{"type": "Buy", "symbol": symbol, "quantity": 100, "unit_price": 10}, 201)
	checkEndpoint("POST", "/trades", map[string]any{"type": "Sell", "symbol": symbol, "quantity": 500, "unit_price": 10}, 422)
	checkEndpoint("POST", "/trades", map[string]any{"type": "Sell", "symbol": symbol, "quantity": 50, "unit_price": 20}, 201)

	// 4. Dividend and bonus
	checkEndpoint("POST", "/dividends", map[string]any{"symbol": symbol, "amount": 25}, 201)
	checkEndpoint("POST", "/bonus", map[string]any{"symbol": symbol, "quantity": 5}, 201)

	// 5. Verify metrics
	metrics := getMetrics(symbol)
	if metrics["current_qty"] != "55" {
		log.Fatalf("expected current_qty 55, got %v", metrics["current_qty"])
	}
	if metrics["realized_pl"] != "497.412314" {
		log.Fatalf("expected realized_pl 497.412314, got %v", metrics["realized_pl"])
	}

	// 6. Dashboard and lists
	checkEndpoint("GET", "/dashboard", nil, 200)
	checkEndpoint("GET", "/trades", nil, 200)
	checkEndpoint("POST", "/refresh", nil, 200)

	fmt.Println("ALL TESTS PASSED")
}

func checkEndpoint(method, path string, body interface{}, expectedStatus int) []byte {
	fmt.Printf("Testing %s %s...\n", method, path)
	var bodyReader io.Reader
	if body != nil {
		jsonBody, _ := json.Marshal(body)
		bodyReader = bytes.NewBuffer(jsonBody)
	}

	req, _ := http.NewRequest(method, baseURL+path, bodyReader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		log.Fatalf("Request failed: %v", err)
	}
	defer resp.Body.Close()

	respBody, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != expectedStatus {
		log.Fatalf("Expected status %d, got %d. Body: %s", expectedStatus, resp.StatusCode, string(respBody))
	}
	fmt.Printf("Response: %s\n", string(respBody))
	return respBody
}

func getMetrics(symbol string) map[string]any {
	body := checkEndpoint("GET", "/stocks/"+symbol+"/metrics", nil, 200)
	var res struct {
		Metrics map[string]any `json:"metrics"`
	}
	if err := json.Unmarshal(body, &res); err != nil {
		log.Fatalf("decode metrics: %v", err)
	}
	return res.Metrics
}
