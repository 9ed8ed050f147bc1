package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
	"liyu1981.xyz/robot-fleet-service/pkg/client"
)

func main() {
	var (
		url    string
		asJSON bool
	)

	pflag.StringVarP(&url, "url", "u", "ws://127.0.0.1:1080/api/ws", "socket endpoint of the fleet service")
	pflag.BoolVar(&asJSON, "json", false, "print each state change as a JSON line")
	pflag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s [flags] ROBOT_ID...\n\nFollow the live status of one or more robots.\n\n", os.Args[0])
		pflag.PrintDefaults()
	}
	pflag.Parse()

	robotIDs := pflag.Args()
	if len(robotIDs) == 0 {
		pflag.Usage()
		os.Exit(2)
	}

	// optional; GO_ENV=production keeps client logs off stdout
	_ = godotenv.Load()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var out sync.Mutex
	show := func(robotID string, state client.State) {
		out.Lock()
		defer out.Unlock()

		if asJSON {
			line, _ := json.Marshal(struct {
				RobotID string `json:"robotId"`
				client.State
			}{robotID, state})
			fmt.Println(string(line))
			return
		}
		fmt.Printf("%-36s %-12s battery=%3d%% status=%-11s health=%s\n",
			robotID, state.Connection, state.BatteryLevel, state.Status, state.HealthStatus)
	}

	shared := client.NewShared(url)
	watchers := make([]*client.Watcher, 0, len(robotIDs))
	for _, robotID := range robotIDs {
		w := client.NewWatcher(shared, robotID, client.WithOnChange(func(state client.State) {
			show(robotID, state)
		}))
		w.Mount()
		watchers = append(watchers, w)
	}

	<-ctx.Done()

	for _, w := range watchers {
		w.Unmount()
	}
}
