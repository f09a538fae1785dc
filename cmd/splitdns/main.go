package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/dnsscience/splitdns/internal/config"
	"github.com/dnsscience/splitdns/internal/netutil"
	"github.com/dnsscience/splitdns/internal/proxy"
)

func main() {
	flags, err := config.ParseArgs("splitdns", os.Args[1:])
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error parsing arguments: %v\n", err)
		os.Exit(1)
	}

	cfg, log, err := config.Resolve(flags)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error resolving configuration: %v\n", err)
		os.Exit(1)
	}

	log.Infof("listening on %s, forwarding to %s", cfg.ListenAddr, cfg.UpstreamAddr)
	log.Infof("policy gateway v4=%s", netutil.IPv4.IntToText(cfg.GatewayV4))
	if cfg.GatewayV6 != nil {
		log.Infof("policy gateway v6=%s", netutil.IPv6.IntToText(*cfg.GatewayV6))
	}

	p, err := proxy.New(cfg, log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error starting proxy: %v\n", err)
		os.Exit(1)
	}
	defer p.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		log.Infof("received shutdown signal")
		cancel()
	}()

	if err := p.Run(ctx); err != nil && err != context.Canceled {
		fmt.Fprintf(os.Stderr, "Error running proxy: %v\n", err)
		os.Exit(1)
	}
}
