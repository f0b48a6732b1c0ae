package main

import (
	"github.com/mcdev12/gemtable/go/internal/config"
	"github.com/mcdev12/gemtable/go/internal/inspector"
)

func setupInspector(cfg config.Config, services *Services) *inspector.Server {
	var nats inspector.Connectivity
	if services.Publisher != nil {
		nats = services.Publisher
	}
	handler := inspector.NewHandler(services.Client, nats)
	return inspector.NewServer(cfg.Inspector.Addr, cfg.Inspector.AllowedOrigins, handler)
}
