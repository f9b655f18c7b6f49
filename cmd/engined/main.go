package main

import (
	"flag"
	"fmt"
	"net/http"
	_ "net/http/pprof"
	"os"
	"os/signal"
	"syscall"

	"github.com/nats-io/nats.go"
	"go.uber.org/zap"

	"github.com/openexec/execution-engine/config"
	"github.com/openexec/execution-engine/pkg/account"
	"github.com/openexec/execution-engine/pkg/engine"
	"github.com/openexec/execution-engine/pkg/engine/report"
	redis_wrapper "github.com/openexec/execution-engine/pkg/infra/redis"
	"github.com/openexec/execution-engine/pkg/logging"
	"github.com/openexec/execution-engine/pkg/venue/sim"
)

func main() {
	var configFile string
	flag.StringVar(&configFile, "config-file", "", "Specify config file path")
	flag.Parse()

	go func() {
		http.ListenAndServe("localhost:6060", nil)
	}()

	cfg, err := config.Load(configFile)
	if err != nil {
		panic(err)
	}

	flush, err := logging.Init(cfg.LogLevel)
	if err != nil {
		panic(err)
	}
	defer flush()

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)

	// Account state: redis-backed when configured, in-memory otherwise.
	var acct account.AccountState = account.NewStatic()
	if cfg.Redis != nil {
		client, err := redis_wrapper.InitRedis(cfg.Redis)
		if err != nil {
			zap.S().Errorf("init redis fail with err: %v", err)
			panic(err)
		}
		acct = account.NewRedis(client)
	}

	reporters := []report.Reporter{report.NewLogReporter()}
	if cfg.Nats != nil {
		nc, err := nats.Connect(cfg.Nats.Addr)
		if err != nil {
			zap.S().Errorf("connect nats fail with err: %v", err)
			panic(err)
		}
		defer nc.Close()

		js, err := nc.JetStream()
		if err != nil {
			panic(err)
		}
		_, _ = js.AddStream(&nats.StreamConfig{
			Name:     cfg.Nats.Stream,
			Subjects: []string{cfg.Nats.Stream + ".*"},
		})
		reporters = append(reporters, report.NewNATSReporter(js, cfg.Nats.Subject))
	}

	eng := engine.New(cfg.ToEngineConfig(), sim.New(), acct, nil, reporters...)
	fmt.Println("Execution engine started. Press Ctrl+C to exit.")

	<-sigs
	fmt.Println("Shutting down...")

	eng.Stop()

	fmt.Println("Exited cleanly.")
}
