package main

import (
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"hali/pkg/api"
	"hali/pkg/config"
	"hali/pkg/core"
	"hali/pkg/network"
)

func main() {
	configPath := flag.String("config", "", "Path to YAML config (default: configs/hali.yaml)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("[HaliDB] Config load failed: %v", err)
	}

	log.Printf("[HaliDB] Starting (compression_level=%.2f, data=%s)",
		cfg.Index.CompressionLevel, cfg.Storage.Path)

	store := core.NewStore(cfg)

	go func() {
		tcp := network.NewTCPServer(store)
		if err := tcp.Start(cfg.Server.TCPAddr); err != nil {
			log.Fatalf("[TCP] Server failed: %v", err)
		}
	}()

	go func() {
		httpSrv := api.NewServer(store)
		httpSrv.Start(cfg.Server.Addr)
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig

	log.Println("[HaliDB] Shutting down...")
	store.Close()
}
