package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"math/rand"
	"net/http"
	"os"
	"strings"
	"sync"
	"sync/atomic"
	"time"
)

type LoadTestResult struct {
	TotalRequests       int64
	SuccessfulRequests  int64
	FailedRequests      int64
	TotalDuration       time.Duration
	AverageResponseTime time.Duration
	MinResponseTime     time.Duration
	MaxResponseTime     time.Duration
	RequestsPerSecond   float64
	RateLimited         int64
	LogMismatches       int64
	// accepted counts successful posts per user id.
	accepted map[string]int
}

type RequestResult struct {
	UserID     string
	Success    bool
	Duration   time.Duration
	Error      error
	StatusCode int
}

type createdUser struct {
	ID       string `json:"id"`
	Username string `json:"username"`
}

type logResult struct {
	Count int `json:"count"`
}

var client = &http.Client{Timeout: 30 * time.Second}

func main() {
	log.Println("Starting Load Test")

	baseURL := os.Getenv("LOAD_TEST_URL")
	if baseURL == "" {
		baseURL = "http://localhost:3000"
	}
	totalRequests := 5000
	numUsers := 10
	concurrentWorkers := 100

	// For quick test
	if len(os.Args) > 1 && os.Args[1] == "quick" {
		totalRequests = 50
		concurrentWorkers = 10
		log.Println("QUICK TEST MODE: 50 requests, 10 concurrent workers")
	}

	users, err := createUsers(baseURL, numUsers)
	if err != nil {
		log.Fatalf("Failed to create users: %v", err)
	}
	log.Printf("Created %d users", len(users))

	result := runLoadTest(baseURL, totalRequests, users, concurrentWorkers)
	if result.RateLimited > 0 {
		log.Printf("%d requests were rate limited; start the server with RATE_LIMIT_PER_MINUTE=0 for a full run", result.RateLimited)
	}
	result.LogMismatches = verifyLogs(baseURL, users, result.accepted)

	printResults(result)
}

func createUsers(baseURL string, count int) ([]createdUser, error) {
	users := make([]createdUser, 0, count)
	for i := 0; i < count; i++ {
		body, _ := json.Marshal(map[string]string{"username": fmt.Sprintf("loadtest_user_%d", i+1)})
		resp, err := client.Post(baseURL+"/api/users", "application/json", bytes.NewReader(body))
		if err != nil {
			return nil, err
		}
		var user createdUser
		err = json.NewDecoder(resp.Body).Decode(&user)
		resp.Body.Close()
		if err != nil {
			return nil, fmt.Errorf("failed to decode user: %w", err)
		}
		if resp.StatusCode != http.StatusOK {
			return nil, fmt.Errorf("create user returned %d", resp.StatusCode)
		}
		users = append(users, user)
	}
	return users, nil
}

func runLoadTest(baseURL string, totalRequests int, users []createdUser, concurrentWorkers int) LoadTestResult {
	var (
		successfulRequests int64
		failedRequests     int64
		rateLimited        int64
		totalDuration      int64
		minResponseTime    int64 = 1<<63 - 1
		maxResponseTime    int64
		mu                 sync.Mutex
		accepted           = make(map[string]int)
	)

	requestChan := make(chan string, totalRequests)
	resultChan := make(chan RequestResult, totalRequests)

	// Start workers
	var wg sync.WaitGroup
	for i := 0; i < concurrentWorkers; i++ {
		wg.Add(1)
		go func(workerID int) {
			defer wg.Done()
			rng := rand.New(rand.NewSource(time.Now().UnixNano() + int64(workerID)))
			for userID := range requestChan {
				resultChan <- addExercise(baseURL, userID, rng)
			}
		}(i)
	}

	// Start result collector
	collected := make(chan struct{})
	go func() {
		defer close(collected)
		for result := range resultChan {
			if result.Success {
				atomic.AddInt64(&successfulRequests, 1)
			} else {
				atomic.AddInt64(&failedRequests, 1)
			}
			if result.StatusCode == http.StatusTooManyRequests {
				atomic.AddInt64(&rateLimited, 1)
			}

			duration := int64(result.Duration)
			atomic.AddInt64(&totalDuration, duration)

			mu.Lock()
			if result.Success {
				accepted[result.UserID]++
			}
			if duration < minResponseTime {
				minResponseTime = duration
			}
			if duration > maxResponseTime {
				maxResponseTime = duration
			}
			mu.Unlock()
		}
	}()

	startTime := time.Now()
	log.Printf("Starting %d requests with %d concurrent workers...", totalRequests, concurrentWorkers)

	for i := 0; i < totalRequests; i++ {
		requestChan <- users[i%len(users)].ID
	}

	close(requestChan)
	wg.Wait()
	close(resultChan)
	<-collected

	duration := time.Since(startTime)

	successful := atomic.LoadInt64(&successfulRequests)
	failed := atomic.LoadInt64(&failedRequests)
	total := atomic.LoadInt64(&totalDuration)

	mu.Lock()
	minTime := minResponseTime
	maxTime := maxResponseTime
	mu.Unlock()

	avgTime := time.Duration(0)
	if successful > 0 {
		avgTime = time.Duration(total / successful)
	}

	return LoadTestResult{
		TotalRequests:       int64(totalRequests),
		SuccessfulRequests:  successful,
		FailedRequests:      failed,
		TotalDuration:       duration,
		AverageResponseTime: avgTime,
		MinResponseTime:     time.Duration(minTime),
		MaxResponseTime:     time.Duration(maxTime),
		RequestsPerSecond:   float64(totalRequests) / duration.Seconds(),
		RateLimited:         atomic.LoadInt64(&rateLimited),
		accepted:            accepted,
	}
}

func addExercise(baseURL, userID string, rng *rand.Rand) RequestResult {
	startTime := time.Now()

	date := time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 0, rng.Intn(365))
	body, _ := json.Marshal(map[string]string{
		"description": "load test exercise",
		"duration":    fmt.Sprint(rng.Intn(90) + 1),
		"date":        date.Format("2006-01-02"),
	})

	resp, err := client.Post(baseURL+"/api/users/"+userID+"/exercises", "application/json", bytes.NewReader(body))
	duration := time.Since(startTime)
	if err != nil {
		return RequestResult{UserID: userID, Success: false, Duration: duration, Error: err}
	}
	defer resp.Body.Close()

	if _, err := io.Copy(io.Discard, resp.Body); err != nil {
		return RequestResult{UserID: userID, Success: false, Duration: duration, Error: err, StatusCode: resp.StatusCode}
	}

	success := resp.StatusCode >= 200 && resp.StatusCode < 300
	return RequestResult{
		UserID:     userID,
		Success:    success,
		Duration:   duration,
		StatusCode: resp.StatusCode,
	}
}

// verifyLogs checks each user's log count against the number of exercises
// the server accepted for that user, and returns how many users disagree.
func verifyLogs(baseURL string, users []createdUser, accepted map[string]int) int64 {
	var mismatches int64
	for _, user := range users {
		expected := accepted[user.ID]

		resp, err := client.Get(baseURL + "/api/users/" + user.ID + "/logs")
		if err != nil {
			log.Printf("Failed to fetch logs for %s: %v", user.ID, err)
			mismatches++
			continue
		}
		var result logResult
		err = json.NewDecoder(resp.Body).Decode(&result)
		resp.Body.Close()
		if err != nil || result.Count != expected {
			log.Printf("User %s: expected %d exercises, got %d (err=%v)", user.ID, expected, result.Count, err)
			mismatches++
		}
	}
	return mismatches
}

func printResults(result LoadTestResult) {
	fmt.Println("\n" + strings.Repeat("=", 60))
	fmt.Println("LOAD TEST RESULTS")
	fmt.Println(strings.Repeat("=", 60))
	fmt.Printf("Total Requests:        %d\n", result.TotalRequests)
	fmt.Printf("Successful Requests:   %d (%.2f%%)\n", result.SuccessfulRequests,
		float64(result.SuccessfulRequests)/float64(result.TotalRequests)*100)
	fmt.Printf("Failed Requests:       %d (%.2f%%)\n", result.FailedRequests,
		float64(result.FailedRequests)/float64(result.TotalRequests)*100)
	fmt.Printf("Total Duration:        %v\n", result.TotalDuration)
	fmt.Printf("Requests Per Second:   %.2f\n", result.RequestsPerSecond)
	fmt.Printf("Average Response Time: %v\n", result.AverageResponseTime)
	fmt.Printf("Min Response Time:     %v\n", result.MinResponseTime)
	fmt.Printf("Max Response Time:     %v\n", result.MaxResponseTime)
	fmt.Printf("Rate Limited (429):    %d\n", result.RateLimited)
	fmt.Printf("Log Count Mismatches:  %d\n", result.LogMismatches)
	fmt.Println(strings.Repeat("=", 60))
}
