package cmd

import (
	"log/slog"
	"net/http"

	"github.com/pulsedash/automation/pkg/actions/logreport"
	"github.com/pulsedash/automation/pkg/actions/metrics"
	"github.com/pulsedash/automation/pkg/actions/publisher"
	"github.com/pulsedash/automation/pkg/registry"
)

// NewRegistry builds the action registry with the built-in collaborators.
// Without a gateway URL the content node falls back to the log reporter, so
// local development never posts anywhere.
func NewRegistry(logger *slog.Logger, gatewayURL string) *registry.Registry {
	reg := registry.NewRegistry(logger)

	if gatewayURL != "" {
		reg.RegisterAction(publisher.NewActionFactory(gatewayURL, http.DefaultClient))
	} else {
		reg.RegisterAction(logreport.NewActionFactory())
	}

	reg.RegisterAction(metrics.NewActionFactory(metrics.NewStaticSource()))

	return reg
}
