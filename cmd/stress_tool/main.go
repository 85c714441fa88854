package main

import (
	"flag"
	"fmt"
	"net/http"
	"sort"
	"strings"
	"sync"
	"time"
)

type result struct {
	status  int
	latency time.Duration
}

const browserUA = "Mozilla/5.0 (Macintosh; Intel Mac OS X 14_4) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.4 Safari/605.1.15"

func main() {
	target := flag.String("target", "http://localhost:8080", "Dispatcher base URL")
	concurrency := flag.Int("c", 10, "Concurrency level (number of goroutines)")
	requests := flag.Int("n", 100, "Total number of requests")
	mode := flag.String("mode", "cli", "Client mix: cli, browser, mixed, traversal")
	paths := flag.String("p", "/,/vps,/local", "Comma-separated paths to rotate through")
	flag.Parse()

	routes := strings.Split(*paths, ",")

	fmt.Printf("Starting scriptedge Stress Test\n")
	fmt.Printf("Target:      %s\n", *target)
	fmt.Printf("Concurrency: %d routines\n", *concurrency)
	fmt.Printf("Requests:    %d total\n", *requests)
	fmt.Printf("Mode:        %s\n", *mode)
	fmt.Printf("----------------------------------\n")

	results := make(chan result, *requests)
	var wg sync.WaitGroup

	reqPerRoutine := *requests / *concurrency
	startTime := time.Now()

	for i := 0; i < *concurrency; i++ {
		wg.Add(1)
		go func(worker int) {
			defer wg.Done()
			client := &http.Client{Timeout: 10 * time.Second}
			for j := 0; j < reqPerRoutine; j++ {
				seq := worker*reqPerRoutine + j
				url := strings.TrimRight(*target, "/") + strings.TrimSpace(routes[seq%len(routes)])
				ua := "curl/8.4.0"
				switch *mode {
				case "browser":
					ua = browserUA
				case "mixed":
					if seq%2 == 1 {
						ua = browserUA
					}
				case "traversal":
					url = strings.TrimRight(*target, "/") + "/scripts/%2e%2e/%2e%2e/etc/passwd"
				}

				req, err := http.NewRequest(http.MethodGet, url, nil)
				if err != nil {
					results <- result{}
					continue
				}
				req.Header.Set("User-Agent", ua)

				reqStart := time.Now()
				resp, err := client.Do(req)
				duration := time.Since(reqStart)
				if err != nil {
					results <- result{status: 0, latency: duration}
					continue
				}
				results <- result{status: resp.StatusCode, latency: duration}
				resp.Body.Close()
			}
		}(i)
	}

	wg.Wait()
	close(results)

	totalDuration := time.Since(startTime)

	var latencies []time.Duration
	statusCodes := make(map[int]int)
	var totalLatency time.Duration

	for res := range results {
		statusCodes[res.status]++
		latencies = append(latencies, res.latency)
		totalLatency += res.latency
	}

	sort.Slice(latencies, func(i, j int) bool {
		return latencies[i] < latencies[j]
	})

	totalReqs := len(latencies)
	if totalReqs == 0 {
		fmt.Println("No requests completed.")
		return
	}

	fmt.Printf("\n--- Throughput & Timing ---\n")
	fmt.Printf("Total Time:     %v\n", totalDuration)
	fmt.Printf("Requests/sec:   %.2f\n", float64(totalReqs)/totalDuration.Seconds())
	fmt.Printf("Avg Latency:    %v\n", totalLatency/time.Duration(totalReqs))
	fmt.Printf("Min Latency:    %v\n", latencies[0])
	fmt.Printf("Max Latency:    %v\n", latencies[totalReqs-1])

	fmt.Printf("\n--- Latency Percentiles ---\n")
	for _, q := range []float64{0.5, 0.9, 0.95, 0.99} {
		fmt.Printf("  p%.0f: %v\n", q*100, latencies[int(float64(totalReqs)*q)])
	}

	fmt.Printf("\n--- Outcome Summary ---\n")
	codes := make([]int, 0, len(statusCodes))
	for code := range statusCodes {
		codes = append(codes, code)
	}
	sort.Ints(codes)
	for _, code := range codes {
		label := "Unknown"
		switch code {
		case 200:
			label = "Served (script or landing)"
		case 400:
			label = "Rejected (path guard)"
		case 403:
			label = "Blocked (GeoIP)"
		case 404:
			label = "Script not found"
		case 429:
			label = "Shed (rate limit)"
		case 500:
			label = "Upstream fetch error"
		case 0:
			label = "Connection dropped"
		}
		fmt.Printf("  [%d] %-26s : %d\n", code, label, statusCodes[code])
	}
	fmt.Printf("----------------------------------\n")
}
