package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/yungbote/groupbuy-backend/internal/app"
	"github.com/yungbote/groupbuy-backend/internal/jobs/closer"
)

func main() {
	once := flag.Bool("once", false, "run a single sweep and exit")
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := app.New(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to init app: %v\n", err)
		os.Exit(1)
	}
	defer a.Close()

	var locker closer.Locker
	if a.Redis != nil {
		locker = closer.NewRedsyncLocker(a.Redis)
	}
	sched, err := closer.NewScheduler(a.Log, a.Services.Closer, locker, a.Cfg.Closer())
	if err != nil {
		a.Log.Error("Failed to build closer", "error", err)
		a.Close()
		os.Exit(1)
	}

	if *once {
		if !sched.RunOnce(ctx) {
			a.Close()
			os.Exit(1)
		}
		return
	}

	sched.Start(context.Background())
	<-ctx.Done()
	sched.Stop()
}
