package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	_ "github.com/lib/pq"
	"github.com/nats-io/nats.go"
	"go.uber.org/zap"

	"github.com/openexec/execution-engine/config"
	"github.com/openexec/execution-engine/pkg/engine/repo"
	"github.com/openexec/execution-engine/pkg/engine/report"
	"github.com/openexec/execution-engine/pkg/engine/worker"
	postgres_wrapper "github.com/openexec/execution-engine/pkg/infra/postgres"
	"github.com/openexec/execution-engine/pkg/logging"
)

func main() {
	var configFile string
	flag.StringVar(&configFile, "config-file", "", "Specify config file path")
	flag.Parse()

	cfg, err := config.Load(configFile)
	if err != nil {
		panic(err)
	}

	flush, err := logging.Init(cfg.LogLevel)
	if err != nil {
		panic(err)
	}
	defer flush()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	addr := nats.DefaultURL
	subject := report.DefaultSubject
	durable := "order_event_worker"
	stream := "ORDER"
	if cfg.Nats != nil {
		if cfg.Nats.Addr != "" {
			addr = cfg.Nats.Addr
		}
		if cfg.Nats.Subject != "" {
			subject = cfg.Nats.Subject
		}
		if cfg.Nats.Durable != "" {
			durable = cfg.Nats.Durable
		}
		if cfg.Nats.Stream != "" {
			stream = cfg.Nats.Stream
		}
	}

	nc, err := nats.Connect(addr)
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
		Name:     stream,
		Subjects: []string{stream + ".*"},
	})

	db, err := postgres_wrapper.InitPostgres(cfg.EngineDB)
	if err != nil {
		zap.S().Errorf("init db fail with err: %v", err)
		panic(err)
	}

	sqlRepo := repo.NewRepo(db)

	w := worker.NewWorker(sqlRepo)
	go func() {
		if err := w.StartConsumer(ctx, js, subject, durable); err != nil && ctx.Err() == nil {
			zap.S().Errorf("consumer stopped with err: %v", err)
		}
	}()

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	<-sigs
	cancel()
}
