package main

import (
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"scriptedge/buildinfo"
)

const browserUA = "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0 Safari/537.36"

func main() {
	target := flag.String("t", "http://localhost:8080", "Dispatcher base URL")
	paths := flag.String("p", "/,/vps,/local", "Comma-separated paths to probe")
	count := flag.Int("c", 1, "Rounds to send")
	interval := flag.Duration("i", 1*time.Second, "Interval between rounds")
	flag.Parse()

	fmt.Printf("PING scriptedge %s:\n", *target)

	client := &http.Client{Timeout: 10 * time.Second}
	agents := []struct{ name, ua string }{
		{"curl", "curl/8.4.0"},
		{"browser", browserUA},
	}

	sent, ok := 0, 0
	for i := 0; i < *count; i++ {
		for _, p := range strings.Split(*paths, ",") {
			for _, a := range agents {
				sent++
				url := strings.TrimRight(*target, "/") + strings.TrimSpace(p)
				req, err := http.NewRequest(http.MethodGet, url, nil)
				if err != nil {
					fmt.Printf("%-8s %-10s FAILED (%v)\n", a.name, p, err)
					continue
				}
				req.Header.Set("User-Agent", a.ua)

				start := time.Now()
				resp, err := client.Do(req)
				duration := time.Since(start)
				if err != nil {
					fmt.Printf("%-8s %-10s FAILED (%v)\n", a.name, p, err)
					continue
				}
				n, _ := io.Copy(io.Discard, resp.Body)
				resp.Body.Close()
				fmt.Printf("%-8s %-10s status=%d type=%q bytes=%d time=%v\n",
					a.name, p, resp.StatusCode, resp.Header.Get("Content-Type"), n, duration)
				if resp.StatusCode == http.StatusOK {
					ok++
				}
			}
		}
		if i < *count-1 {
			time.Sleep(*interval)
		}
	}

	fmt.Printf("\n--- %s (ping %s) ---\n", *target, buildinfo.Version)
	fmt.Println(summary(sent, ok))
	if ok == 0 {
		os.Exit(1)
	}
}

func summary(sent, ok int) string {
	if sent == 0 {
		return "No requests sent."
	}
	return fmt.Sprintf("%d requests, %d ok, %.1f%% failed", sent, ok, float64(sent-ok)/float64(sent)*100)
}
