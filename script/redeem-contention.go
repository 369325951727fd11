package main

import (
	"bytes"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"net/http"
	"os"
	"slices"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
)

// SessionRequest is the profile posted to the session endpoint
type SessionRequest struct {
	Provider string `json:"provider"`
	Sub      string `json:"sub"`
	Email    string `json:"email"`
	Name     string `json:"name"`
}

// SessionResponse carries the issued token
type SessionResponse struct {
	Token string `json:"token"`
}

// IssueRequest creates the contended voucher
type IssueRequest struct {
	CreditAmount int64 `json:"creditAmount"`
	MaxUses      int64 `json:"maxUses"`
}

// IssueResponse returns the created voucher
type IssueResponse struct {
	Key struct {
		Code string `json:"code"`
	} `json:"key"`
}

// RedeemResult contains metrics for a single redemption
type RedeemResult struct {
	StatusCode   int
	ResponseTime time.Duration
	Error        error
}

// TestStats contains aggregated test statistics
type TestStats struct {
	Redeemers     int
	Uses          int64
	TotalTime     time.Duration
	ResponseTimes []time.Duration
	StatusCounts  map[int]int
	ErrorCounts   map[string]int
	Lock          sync.Mutex
}

type client struct {
	baseURL     string
	internalKey string
	http        *http.Client
}

func main() {
	redeemers := flag.Int("n", 50, "Number of accounts racing for the voucher")
	uses := flag.Int64("uses", 1, "Number of uses on the contended voucher")
	credits := flag.Int64("credits", 10, "Credits granted per redemption")
	baseURL := flag.String("url", "http://localhost:8080", "Base URL for the API")
	internalKey := flag.String("key", os.Getenv("CL_INTERNAL_KEY"), "Internal key for the session endpoint")
	adminEmail := flag.String("admin", "admin@example.com", "Email on the admin allow-list")
	flag.Parse()

	if *internalKey == "" {
		fmt.Println("An internal key is required (-key or CL_INTERNAL_KEY)")
		os.Exit(2)
	}

	c := &client{
		baseURL:     *baseURL,
		internalKey: *internalKey,
		http:        &http.Client{Timeout: 10 * time.Second},
	}
	ctx := context.Background()

	adminToken, err := c.signIn(ctx, *adminEmail)
	if err != nil {
		fmt.Printf("Admin sign-in failed: %v\n", err)
		os.Exit(1)
	}

	code, err := c.issue(ctx, adminToken, *credits, *uses)
	if err != nil {
		fmt.Printf("Voucher issue failed: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Contended voucher:   %s (%d uses, %d credits)\n", code, *uses, *credits)
	fmt.Printf("Redeemers:           %d\n", *redeemers)

	// Sign everyone in first so the race is only between redemptions
	runID := time.Now().UnixNano()
	tokens := make([]string, *redeemers)
	signIns, signInCtx := errgroup.WithContext(ctx)
	signIns.SetLimit(16)
	for i := range tokens {
		signIns.Go(func() error {
			token, err := c.signIn(signInCtx, fmt.Sprintf("redeemer-%d-%d@example.com", runID, i))
			if err != nil {
				return err
			}
			tokens[i] = token
			return nil
		})
	}
	if err := signIns.Wait(); err != nil {
		fmt.Printf("Redeemer sign-in failed: %v\n", err)
		os.Exit(1)
	}

	stats := &TestStats{
		Redeemers:     *redeemers,
		Uses:          *uses,
		ResponseTimes: make([]time.Duration, 0, *redeemers),
		StatusCounts:  make(map[int]int),
		ErrorCounts:   make(map[string]int),
	}

	start := make(chan struct{})
	var race errgroup.Group
	for _, token := range tokens {
		race.Go(func() error {
			<-start
			stats.record(c.redeem(ctx, token, code))
			return nil
		})
	}

	fmt.Println("Test running...")
	startTime := time.Now()
	close(start)
	_ = race.Wait()
	stats.TotalTime = time.Since(startTime)

	printResults(stats)
}

func (s *TestStats) record(result RedeemResult) {
	s.Lock.Lock()
	defer s.Lock.Unlock()

	s.ResponseTimes = append(s.ResponseTimes, result.ResponseTime)
	if result.Error != nil {
		s.ErrorCounts[result.Error.Error()]++
		return
	}
	s.StatusCounts[result.StatusCode]++
}

func (c *client) signIn(ctx context.Context, email string) (string, error) {
	var resp SessionResponse
	status, err := c.post(ctx, "/api/auth/session", "", SessionRequest{
		Provider: "load-test",
		Sub:      email,
		Email:    email,
		Name:     email,
	}, &resp)
	if err != nil {
		return "", err
	}
	if status != http.StatusOK {
		return "", fmt.Errorf("HTTP status code %d", status)
	}
	return resp.Token, nil
}

func (c *client) issue(ctx context.Context, token string, credits, uses int64) (string, error) {
	var resp IssueResponse
	status, err := c.post(ctx, "/api/admin/keys", token, IssueRequest{CreditAmount: credits, MaxUses: uses}, &resp)
	if err != nil {
		return "", err
	}
	if status != http.StatusCreated {
		return "", fmt.Errorf("HTTP status code %d (is the admin email on the allow-list?)", status)
	}
	return resp.Key.Code, nil
}

func (c *client) redeem(ctx context.Context, token, code string) RedeemResult {
	startTime := time.Now()
	status, err := c.post(ctx, "/api/redeem", token, map[string]string{"code": code}, nil)
	return RedeemResult{
		StatusCode:   status,
		ResponseTime: time.Since(startTime),
		Error:        err,
	}
}

func (c *client) post(ctx context.Context, path, token string, body, out any) (int, error) {
	jsonData, err := json.Marshal(body)
	if err != nil {
		return 0, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(jsonData))
	if err != nil {
		return 0, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Internal-Key", c.internalKey)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	if out != nil && resp.StatusCode < 300 {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return resp.StatusCode, err
		}
	}
	return resp.StatusCode, nil
}

func printResults(stats *TestStats) {
	var avgResponseTime, p50, p90, p99 time.Duration
	if len(stats.ResponseTimes) > 0 {
		sortedTimes := slices.Clone(stats.ResponseTimes)
		slices.Sort(sortedTimes)

		var total time.Duration
		for _, d := range sortedTimes {
			total += d
		}
		avgResponseTime = total / time.Duration(len(sortedTimes))
		p50 = sortedTimes[len(sortedTimes)*50/100]
		p90 = sortedTimes[len(sortedTimes)*90/100]
		p99 = sortedTimes[len(sortedTimes)*99/100]
	}

	succeeded := stats.StatusCounts[http.StatusOK]
	exhausted := stats.StatusCounts[http.StatusBadRequest]

	fmt.Println("\n================= TEST RESULTS =================")
	fmt.Printf("Redemptions:         %d\n", stats.Redeemers)
	fmt.Printf("Succeeded (200):     %d\n", succeeded)
	fmt.Printf("Exhausted (400):     %d\n", exhausted)
	fmt.Printf("Total Test Time:     %.2f seconds\n", stats.TotalTime.Seconds())

	fmt.Println("\n----------------- RESPONSE TIMES -----------------")
	fmt.Printf("Average Response:    %v\n", avgResponseTime)
	fmt.Printf("P50 Response:        %v\n", p50)
	fmt.Printf("P90 Response:        %v\n", p90)
	fmt.Printf("P99 Response:        %v\n", p99)

	fmt.Println("\n----------------- STATUS DISTRIBUTION -----------------")
	for status, count := range stats.StatusCounts {
		fmt.Printf("HTTP %d: %d\n", status, count)
	}

	if len(stats.ErrorCounts) > 0 {
		fmt.Println("\n----------------- ERROR DISTRIBUTION -----------------")
		for errMsg, count := range stats.ErrorCounts {
			fmt.Printf("%-40s: %d\n", errMsg, count)
		}
	}

	expected := min(int(stats.Uses), stats.Redeemers)
	fmt.Println("\n================= CONCLUSION =================")
	if succeeded == expected && succeeded+exhausted == stats.Redeemers {
		fmt.Printf("✅ Voucher applied exactly %d time(s), every other redemption refused\n", succeeded)
	} else {
		fmt.Printf("❌ Expected %d successful redemption(s), got %d (refused %d of %d)\n",
			expected, succeeded, exhausted, stats.Redeemers)
		os.Exit(1)
	}
	fmt.Println("================================================")
}
