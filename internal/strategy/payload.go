package strategy

import (
	"context"

	"mining-scheduler/config"
	"mining-scheduler/internal/model"
	"mining-scheduler/pkg/logger"
)

type SourceKind string

const (
	SourceKindAffinity SourceKind = "affinity"
	SourceKindGithub   SourceKind = "github"
	SourceKindReddit   SourceKind = "reddit"
)

// PayloadBuilder builds the dispatch body for one source kind. A nil payload
// is valid and means the trigger call is a plain GET.
type PayloadBuilder interface {
	Build(ctx context.Context, source *model.DataSource, companies []model.Company) (interface{}, error)
	GetKind() SourceKind
}

// NewPayloadBuilders assembles the builder registry. Source kinds without an
// entry dispatch with no body; absence of a builder is configuration, not an
// error.
func NewPayloadBuilders(cfg *config.Config, log *logger.Logger) map[SourceKind]PayloadBuilder {
	builders := make(map[SourceKind]PayloadBuilder)
	builders[SourceKindAffinity] = NewAffinityPayloadStrategy(cfg, log)
	builders[SourceKindGithub] = NewGithubPayloadStrategy(cfg, log)
	return builders
}
