package proposer

import (
	"fmt"
	"sort"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/hashicorp/go-hclog"

	"github.com/scan-io-git/remedy/internal/llm"
	"github.com/scan-io-git/remedy/pkg/shared/config"
)

// Tier is one escalation level bound to a proposer backend.
type Tier struct {
	Level    int
	Name     string
	Model    string
	Timeout  time.Duration
	Proposer Proposer
}

// TiersFromConfig builds the escalation ladder, ordered by level.
func TiersFromConfig(cfg *config.Config, http *resty.Client, logger hclog.Logger) ([]Tier, error) {
	if logger == nil {
		logger = hclog.NewNullLogger()
	}

	tiers := make([]Tier, 0, len(cfg.Tiers))
	for _, t := range cfg.Tiers {
		endpoint := config.SetThen(t.Endpoint, config.DefaultEndpoint)
		client := llm.New(http, endpoint, llm.APIKeyFromEnv(t.APIKeyEnv), logger.Named("llm"))

		chat, err := NewChat(client, t.Model, t.Prompt, t.Temperature, logger.Named(t.Name))
		if err != nil {
			return nil, fmt.Errorf("tier %q: %w", t.Name, err)
		}
		tiers = append(tiers, Tier{
			Level:    t.Level,
			Name:     t.Name,
			Model:    t.Model,
			Timeout:  t.Timeout,
			Proposer: chat,
		})
	}

	sort.SliceStable(tiers, func(i, j int) bool { return tiers[i].Level < tiers[j].Level })
	return tiers, nil
}
