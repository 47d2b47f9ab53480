// Package agent orchestrates catalog curation: keeping per-experiment
// datastores current and folding them into the versioned master
// catalog.
package agent

import (
	"github.com/meridian-labs/climecat/internal/cliconfig"
	"github.com/meridian-labs/climecat/pkg/log"
	"github.com/meridian-labs/climecat/pkg/ncfile"
)

// Agent carries the shared dependencies of the curation flows.
type Agent struct {
	cfg    cliconfig.Config
	open   ncfile.Opener
	logger log.Logger
}

// New builds an agent. open decodes model output files; the agent
// never decodes them itself.
func New(cfg cliconfig.Config, open ncfile.Opener, logger log.Logger) *Agent {
	if logger == nil {
		logger = log.NewNoopLogger()
	}
	return &Agent{cfg: cfg, open: open, logger: logger}
}
