package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/yungbote/nutriplan-backend/internal/app"
	"github.com/yungbote/nutriplan-backend/internal/platform/shutdown"
)

func main() {
	var (
		systems = flag.String("systems", "", "comma separated system ids to rebuild")
		version = flag.String("version", "", "profile version label (default: UTC date, e.g. 2026-10-18)")
	)
	flag.Parse()

	if os.Getenv("APP_ENV") != "production" {
		_ = godotenv.Load()
	}

	ids := splitList(*systems)
	if len(ids) == 0 {
		fmt.Fprintln(os.Stderr, "usage: rebuild_profiles -systems smae_mx[,other] [-version v]")
		os.Exit(2)
	}
	v := strings.TrimSpace(*version)
	if v == "" {
		v = time.Now().UTC().Format("2006-01-02")
	}

	ctx, stop := shutdown.NotifyContext(context.Background())
	defer stop()

	a, err := app.NewWorker(ctx)
	if err != nil {
		fmt.Printf("failed to initialize app: %v\n", err)
		os.Exit(1)
	}
	defer a.Close()

	failed := 0
	for _, id := range ids {
		res, err := a.Services.BucketProfile.Rebuild(ctx, id, v)
		if err != nil {
			failed++
			a.Log.Error("Rebuild failed", "system_id", id, "profile_version", v, "error", err)
			continue
		}
		fmt.Printf("%s %s: %d foods, %d groups, %d subgroups\n", res.SystemID, res.ProfileVersion, res.Foods, res.Groups, res.Subgroups)
	}
	if failed > 0 {
		a.Close()
		os.Exit(1)
	}
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
