package main

import (
	"flag"
	"net/http"
	_ "net/http/pprof"
	"os"
	"os/signal"
	"syscall"

	"github.com/BurntSushi/toml"
	"github.com/pingcap/log"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/pingcap-incubator/tinytso/tso/config"
	"github.com/pingcap-incubator/tinytso/tso/panicker"
	"github.com/pingcap-incubator/tinytso/tso/retry"
	"github.com/pingcap-incubator/tinytso/tso/server"
)

var (
	configPath = flag.String("config", "", "config file path")
	dbPath     = flag.String("db-path", "", "data directory")
	statusAddr = flag.String("status-addr", "", "status server address")
)

func main() {
	flag.Parse()
	conf := loadConfig()
	if *dbPath != "" {
		conf.DBPath = *dbPath
	}
	if *statusAddr != "" {
		conf.StatusAddr = *statusAddr
	}

	tsoServer, err := server.NewServer(conf, retry.LoggingReplyProcessor{}, panicker.SystemExitPanicker{})
	if err != nil {
		log.Fatal("start tinytso server failed", zap.Error(err))
	}

	http.Handle("/metrics", promhttp.Handler())
	http.HandleFunc("/status", func(writer http.ResponseWriter, request *http.Request) {
		writer.WriteHeader(http.StatusOK)
	})
	go func() {
		log.Info("status server listening", zap.String("addr", conf.StatusAddr))
		if err := http.ListenAndServe(conf.StatusAddr, nil); err != nil {
			log.Fatal("status server failed", zap.Error(err))
		}
	}()

	log.Info("tinytso server started",
		zap.Uint64("last-ts", tsoServer.Oracle.Last()), zap.String("db-path", conf.DBPath))

	waitSignal()

	if err := tsoServer.Close(); err != nil {
		log.Fatal("close tinytso server failed", zap.Error(err))
	}
	log.Info("server stopped")
}

func loadConfig() *config.Config {
	conf := config.NewDefaultConfig()
	if *configPath != "" {
		if _, err := toml.DecodeFile(*configPath, conf); err != nil {
			log.Fatal("decode config file failed", zap.String("path", *configPath), zap.Error(err))
		}
	}
	return conf
}

func waitSignal() {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh,
		syscall.SIGHUP,
		syscall.SIGINT,
		syscall.SIGTERM,
		syscall.SIGQUIT)
	sig := <-sigCh
	log.Info("got signal to exit", zap.String("signal", sig.String()))
}
