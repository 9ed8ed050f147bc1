package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log"
	"math/rand"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/pflag"
	"liyu1981.xyz/robot-fleet-service/pkg/client"
	"liyu1981.xyz/robot-fleet-service/pkg/models"
)

var (
	maxSubscribers int
	maxRobots      int
	httpHostPort   string
	apiToken       string
	duration       time.Duration
)

var rnd *rand.Rand = rand.New(rand.NewSource(time.Now().UnixNano()))

func main() {
	pflag.IntVar(&maxSubscribers, "subscribers", 1000, "number of socket connections to open")
	pflag.IntVar(&maxRobots, "robots", 100, "number of robots to create and watch")
	pflag.StringVar(&httpHostPort, "addr", "127.0.0.1:1080", "host:port of the fleet service")
	pflag.StringVar(&apiToken, "token", "", "bearer token when the service requires one")
	pflag.DurationVar(&duration, "duration", 30*time.Second, "how long to collect updates")
	pflag.Parse()

	resp, err := http.Get(fmt.Sprintf("http://%s/healthz", httpHostPort))
	if err != nil {
		log.Fatal("Failed to connect to HTTP server:", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		log.Fatal("HTTP server not available")
	}

	fmt.Printf("http server verified\n")

	robotIDs := make([]string, maxRobots)
	for i := range maxRobots {
		robotIDs[i] = createRobot(i)
		fmt.Printf("\rcreated robot %v", i+1)
	}
	fmt.Printf("\ncreated %v robots\n", maxRobots)

	var received atomic.Int64
	var connected atomic.Int64

	startTime := time.Now()
	watchers := make([]*client.Watcher, 0, maxSubscribers)
	for range maxSubscribers {
		// one connection per subscriber, as separate dashboards would have
		shared := client.NewShared(fmt.Sprintf("ws://%s/api/ws", httpHostPort))
		var wasConnected atomic.Bool
		var prev client.State
		var mu sync.Mutex

		w := client.NewWatcher(shared, robotIDs[rnd.Intn(len(robotIDs))], client.WithOnChange(func(state client.State) {
			if state.Connection == client.Connected && wasConnected.CompareAndSwap(false, true) {
				connected.Add(1)
			}
			mu.Lock()
			defer mu.Unlock()
			// only status pushes change state while connected
			if prev.Connection == client.Connected && state.Connection == client.Connected && state != prev {
				received.Add(1)
			}
			prev = state
		}))
		w.Mount()
		watchers = append(watchers, w)
	}

	fmt.Printf("mounted %v watchers in %v\n", maxSubscribers, time.Since(startTime))

	done := make(chan os.Signal, 1)
	signal.Notify(done, syscall.SIGINT, syscall.SIGTERM)

	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()
	deadline := time.After(duration)

loop:
	for {
		select {
		case <-ticker.C:
			fmt.Printf("\rconnected=%v updates=%v", connected.Load(), received.Load())
		case <-deadline:
			break loop
		case <-done:
			break loop
		}
	}

	usedTime := time.Since(startTime)
	for _, w := range watchers {
		w.Unmount()
	}

	fmt.Printf(
		"\nreceived %v status updates over %v subscribers: used time=%v seconds, throughput=%v updates/second\n",
		received.Load(), maxSubscribers, usedTime.Seconds(), float64(received.Load())/usedTime.Seconds(),
	)
}

func createRobot(i int) string {
	payload := map[string]string{
		"name":         fmt.Sprintf("bench-%d", i),
		"serialNumber": "BENCH-" + uuid.NewString(),
		"firmware":     "bench",
	}
	jsonData, _ := json.Marshal(payload)

	req, _ := http.NewRequest(http.MethodPost, fmt.Sprintf("http://%s/api/robots", httpHostPort), bytes.NewBuffer(jsonData))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-User-ID", "benchmark")
	if apiToken != "" {
		req.Header.Set("Authorization", "Bearer "+apiToken)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		log.Fatal("Failed to create robot:", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated {
		log.Fatalf("Failed to create robot: status %v", resp.StatusCode)
	}

	var robot models.Robot
	if err := json.NewDecoder(resp.Body).Decode(&robot); err != nil {
		log.Fatal("Failed to decode robot:", err)
	}
	return robot.ID
}
