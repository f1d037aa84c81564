package strategy

import (
	"context"
	"fmt"

	"mining-scheduler/config"
	"mining-scheduler/internal/dto"
	"mining-scheduler/internal/model"
	"mining-scheduler/pkg/logger"
)

type githubPayloadStrategy struct {
	cfg *config.Config
	log *logger.Logger
}

func NewGithubPayloadStrategy(cfg *config.Config, log *logger.Logger) PayloadBuilder {
	return &githubPayloadStrategy{cfg: cfg, log: log}
}

func (s *githubPayloadStrategy) GetKind() SourceKind {
	return SourceKindGithub
}

// Build lists the github organizations to crawl. Companies without a github
// mapping fall back to their symbol, which the module treats as an org guess.
func (s *githubPayloadStrategy) Build(ctx context.Context, source *model.DataSource, companies []model.Company) (interface{}, error) {
	if len(companies) == 0 {
		return nil, fmt.Errorf("no companies configured for data source %d", source.ID)
	}

	orgs := make([]string, 0, len(companies))
	for _, company := range companies {
		orgs = append(orgs, company.IdentifierFor(string(SourceKindGithub)))
	}

	return dto.GithubTriggerPayload{Organizations: orgs}, nil
}
