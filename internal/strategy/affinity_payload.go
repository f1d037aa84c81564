package strategy

import (
	"context"
	"encoding/json"
	"fmt"

	"mining-scheduler/config"
	"mining-scheduler/internal/dto"
	"mining-scheduler/internal/model"
	"mining-scheduler/pkg/logger"
)

type affinityPayloadStrategy struct {
	cfg *config.Config
	log *logger.Logger
}

func NewAffinityPayloadStrategy(cfg *config.Config, log *logger.Logger) PayloadBuilder {
	return &affinityPayloadStrategy{cfg: cfg, log: log}
}

func (s *affinityPayloadStrategy) GetKind() SourceKind {
	return SourceKindAffinity
}

// Build sends the affinity module the full company list. The source's
// additional_params ride along unchanged; the module owns their meaning.
func (s *affinityPayloadStrategy) Build(ctx context.Context, source *model.DataSource, companies []model.Company) (interface{}, error) {
	if len(companies) == 0 {
		return nil, fmt.Errorf("no companies configured for data source %d", source.ID)
	}

	refs := make([]dto.CompanyRef, 0, len(companies))
	for _, company := range companies {
		refs = append(refs, dto.CompanyRef{
			Name:       company.Name,
			Identifier: company.IdentifierFor(string(SourceKindAffinity)),
		})
	}

	payload := dto.AffinityTriggerPayload{Companies: refs}

	if len(source.AdditionalParams) > 0 {
		var params map[string]interface{}
		if err := json.Unmarshal(source.AdditionalParams, &params); err != nil {
			s.log.WarnContext(ctx, "Ignoring unparsable additional params",
				logger.IntField("data_source_id", int(source.ID)),
				logger.ErrorField(err),
			)
		} else {
			payload.Params = params
		}
	}

	return payload, nil
}
