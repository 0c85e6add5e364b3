// Command smoke drives a running server through classify, persist and
// influence scoring.
package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"
)

func main() {
	baseURL := os.Getenv("SMOKE_BASE_URL")
	if baseURL == "" {
		baseURL = "http://localhost:8080"
	}

	fmt.Println("Starting smoke test...")

	if !sendRequest(baseURL, http.MethodGet, "/healthz", nil) {
		fmt.Println("FAILED: health check")
		os.Exit(1)
	}

	run := time.Now().Unix()
	items := make([]map[string]any, 0, 12)
	for i := 0; i < 12; i++ {
		items = append(items, map[string]any{
			"id":        fmt.Sprintf("smoke-%d-%d", run, i),
			"platform":  "tiktok",
			"text":      fmt.Sprintf("slicked back bun, dewy skin, gold hoops #%d", i),
			"hashtags":  []string{"#cleangirl", "#minimalmakeup"},
			"timestamp": time.Now().Add(-time.Duration(i) * time.Hour).Format(time.RFC3339),
			"creator":   map[string]any{"username": fmt.Sprintf("creator%d", i%4)},
			"engagement": map[string]any{
				"likes": 100 * (i + 1), "shares": i, "comments": 2 * i,
			},
		})
	}

	fmt.Println("1. Classifying and persisting batch...")
	if !sendRequest(baseURL, http.MethodPost, "/v1/content/classify?persist=true", map[string]any{"items": items}) {
		fmt.Println("FAILED: classify")
		os.Exit(1)
	}
	fmt.Println("PASSED: classify")

	fmt.Println("2. Looking for emerging archetypes...")
	if !sendRequest(baseURL, http.MethodPost, "/v1/archetypes/emerging", map[string]any{"items": items}) {
		fmt.Println("FAILED: emerging")
		os.Exit(1)
	}
	fmt.Println("PASSED: emerging")

	fmt.Println("3. Updating influence scores...")
	if !sendRequest(baseURL, http.MethodPost, "/v1/archetypes/influence", nil) {
		fmt.Println("FAILED: influence")
		os.Exit(1)
	}
	fmt.Println("PASSED: influence")
}

func sendRequest(baseURL, method, endpoint string, payload any) bool {
	var body io.Reader
	if payload != nil {
		jsonBytes, _ := json.Marshal(payload)
		body = bytes.NewBuffer(jsonBytes)
	}

	req, err := http.NewRequest(method, baseURL+endpoint, body)
	if err != nil {
		fmt.Printf("Error creating request: %v\n", err)
		return false
	}
	req.Header.Set("Content-Type", "application/json")

	client := &http.Client{Timeout: 5 * time.Minute}
	resp, err := client.Do(req)
	if err != nil {
		fmt.Printf("Error sending request: %v\n", err)
		return false
	}
	defer resp.Body.Close()

	respBody, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusOK {
		fmt.Printf("Request failed with status %d: %s\n", resp.StatusCode, string(respBody))
		return false
	}
	fmt.Printf("Response: %s\n", string(respBody))
	return true
}
