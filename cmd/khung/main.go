// khung prints, for every configured pool, which purchase window is live
// right now. The admin tooling uses the same resolution to know which
// session's limits it is editing.
package main

import (
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"

	"thaipool/internal/config"
	"thaipool/internal/schedule"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load("")
	if err != nil {
		fmt.Fprintf(os.Stderr, "config load failed: %v\n", err)
		os.Exit(1)
	}

	pools, err := cfg.Schedules()
	if err != nil {
		fmt.Fprintf(os.Stderr, "invalid pool schedule: %v\n", err)
		os.Exit(1)
	}
	if len(pools) == 0 {
		fmt.Println("no pools configured")
		return
	}

	now := time.Now()
	at := schedule.ClockOf(now)
	fmt.Printf("time of day: %s\n", at)

	for _, pool := range pools {
		idx, window, err := pool.Active(at)
		if err != nil {
			fmt.Printf("%-20s no active window\n", pool.Name)
			continue
		}
		label := fmt.Sprintf("window %d", idx+1)
		if pool.FestivalEnabled && pool.Festival != nil && idx == len(pool.EffectiveWindows())-1 {
			label = "festival window"
		}
		fmt.Printf("%-20s %s active (%s)\n", pool.Name, label, window)
	}
}
