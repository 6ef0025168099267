// Command webhook_replay signs recorded Stripe events with the local webhook
// secret and posts them to a running API, reporting how each one was handled.
package main

import (
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/stripe/stripe-go/v76/webhook"

	"github.com/noah-isme/coursehub-api/pkg/config"
)

type replayResult struct {
	File     string
	EventID  string
	Type     string
	Status   int
	Body     string
	Duration time.Duration
	Error    error
}

func main() {
	var (
		baseURL string
		secret  string
		dir     string
		repeat  int
		timeout time.Duration
	)

	flag.StringVar(&baseURL, "base", "http://localhost:8080/api/v1", "API base URL")
	flag.StringVar(&secret, "secret", "", "Webhook signing secret (defaults to STRIPE_WEBHOOK_SECRET)")
	flag.StringVar(&dir, "events", filepath.Join("scripts", "webhook_replay", "testdata"), "Directory of event JSON files")
	flag.IntVar(&repeat, "repeat", 1, "Deliveries per event, to exercise deduplication")
	flag.DurationVar(&timeout, "timeout", 5*time.Second, "HTTP client timeout")
	flag.Parse()

	if secret == "" {
		cfg, err := config.Load()
		if err != nil {
			log.Fatalf("failed to load config: %v", err)
		}
		secret = cfg.Stripe.WebhookSecret
	}
	if secret == "" {
		log.Fatal("no webhook secret: pass -secret or set STRIPE_WEBHOOK_SECRET")
	}

	files, err := loadEvents(dir)
	if err != nil {
		log.Fatalf("failed to load events: %v", err)
	}

	client := resty.New().
		SetBaseURL(strings.TrimRight(baseURL, "/")).
		SetTimeout(timeout)

	var (
		results  []replayResult
		failures int
	)
	for _, file := range files {
		for i := 0; i < repeat; i++ {
			res := replay(client, secret, file)
			if res.Error != nil || res.Status != 200 {
				failures++
			}
			results = append(results, res)
		}
	}

	printReport(results)
	fmt.Printf("Delivered: %d, Failed: %d\n", len(results), failures)
	if failures > 0 {
		os.Exit(1)
	}
}

func loadEvents(dir string) ([]string, error) {
	files, err := filepath.Glob(filepath.Join(dir, "*.json"))
	if err != nil {
		return nil, err
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("no event files in %s", dir)
	}
	sort.Strings(files)
	return files, nil
}

func replay(client *resty.Client, secret, file string) replayResult {
	res := replayResult{File: filepath.Base(file)}

	payload, err := os.ReadFile(file)
	if err != nil {
		res.Error = err
		return res
	}
	var head struct {
		ID   string `json:"id"`
		Type string `json:"type"`
	}
	if err := json.Unmarshal(payload, &head); err != nil {
		res.Error = fmt.Errorf("decode event: %w", err)
		return res
	}
	if head.ID == "" {
		res.Error = errors.New("event has no id")
		return res
	}
	res.EventID, res.Type = head.ID, head.Type

	signed := webhook.GenerateTestSignedPayload(&webhook.UnsignedPayload{
		Payload:   payload,
		Secret:    secret,
		Timestamp: time.Now(),
	})

	start := time.Now()
	resp, err := client.R().
		SetHeader("Content-Type", "application/json").
		SetHeader("Stripe-Signature", signed.Header).
		SetBody(payload).
		Post("/webhooks/stripe")
	res.Duration = time.Since(start)
	if err != nil {
		res.Error = err
		return res
	}
	res.Status = resp.StatusCode()
	res.Body = strings.TrimSpace(resp.String())
	return res
}

func printReport(results []replayResult) {
	fmt.Println("Webhook Replay Report")
	fmt.Println("=====================")
	for _, res := range results {
		status := "OK"
		if res.Error != nil {
			status = "ERROR"
		} else if res.Status != 200 {
			status = "REJECTED"
		}
		fmt.Printf("[%s] %s %s (%s)\n", status, res.File, res.Type, res.EventID)
		if res.Error != nil {
			fmt.Printf("  Error: %v\n", res.Error)
			continue
		}
		fmt.Printf("  Status: %d (%s) %s\n", res.Status, res.Duration, res.Body)
	}
}
