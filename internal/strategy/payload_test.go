package strategy

import (
	"context"
	"testing"

	"mining-scheduler/config"
	"mining-scheduler/internal/dto"
	"mining-scheduler/internal/model"
	"mining-scheduler/pkg/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/datatypes"
)

func testLogger() *logger.Logger {
	return &logger.Logger{Logger: zap.NewNop()}
}

func TestNewPayloadBuilders_RegistersKnownKinds(t *testing.T) {
	builders := NewPayloadBuilders(&config.Config{}, testLogger())

	assert.Contains(t, builders, SourceKindAffinity)
	assert.Contains(t, builders, SourceKindGithub)
	// reddit triggers with a plain GET; no builder is registered for it.
	assert.NotContains(t, builders, SourceKindReddit)
}

func TestAffinityPayload_IncludesCompaniesAndParams(t *testing.T) {
	builder := NewAffinityPayloadStrategy(&config.Config{}, testLogger())
	source := &model.DataSource{
		ID:               1,
		SourceKind:       string(SourceKindAffinity),
		AdditionalParams: datatypes.JSON([]byte(`{"depth":2,"list_name":"portfolio"}`)),
	}
	companies := []model.Company{
		{Name: "Acme Corp", Symbol: "ACME", ExternalIDs: datatypes.JSON([]byte(`{"affinity":"acme-123"}`))},
		{Name: "Globex", Symbol: "GLBX"},
	}

	raw, err := builder.Build(context.Background(), source, companies)
	require.NoError(t, err)

	payload, ok := raw.(dto.AffinityTriggerPayload)
	require.True(t, ok)
	require.Len(t, payload.Companies, 2)
	assert.Equal(t, "acme-123", payload.Companies[0].Identifier, "explicit mapping wins")
	assert.Equal(t, "GLBX", payload.Companies[1].Identifier, "symbol is the fallback")
	assert.Equal(t, "portfolio", payload.Params["list_name"])
}

func TestAffinityPayload_UnparsableParamsAreIgnored(t *testing.T) {
	builder := NewAffinityPayloadStrategy(&config.Config{}, testLogger())
	source := &model.DataSource{
		ID:               1,
		AdditionalParams: datatypes.JSON([]byte(`{broken`)),
	}

	raw, err := builder.Build(context.Background(), source, []model.Company{{Name: "Acme", Symbol: "ACME"}})
	require.NoError(t, err)

	payload := raw.(dto.AffinityTriggerPayload)
	assert.Nil(t, payload.Params)
	assert.Len(t, payload.Companies, 1)
}

func TestAffinityPayload_NoCompaniesIsAnError(t *testing.T) {
	builder := NewAffinityPayloadStrategy(&config.Config{}, testLogger())

	_, err := builder.Build(context.Background(), &model.DataSource{ID: 7}, nil)
	assert.Error(t, err)
}

func TestGithubPayload_ListsOrganizations(t *testing.T) {
	builder := NewGithubPayloadStrategy(&config.Config{}, testLogger())
	companies := []model.Company{
		{Name: "Acme Corp", Symbol: "ACME", ExternalIDs: datatypes.JSON([]byte(`{"github":"acme-inc"}`))},
		{Name: "Globex", Symbol: "GLBX"},
	}

	raw, err := builder.Build(context.Background(), &model.DataSource{ID: 2}, companies)
	require.NoError(t, err)

	payload, ok := raw.(dto.GithubTriggerPayload)
	require.True(t, ok)
	assert.Equal(t, []string{"acme-inc", "GLBX"}, payload.Organizations)
}

func TestGithubPayload_NoCompaniesIsAnError(t *testing.T) {
	builder := NewGithubPayloadStrategy(&config.Config{}, testLogger())

	_, err := builder.Build(context.Background(), &model.DataSource{ID: 2}, nil)
	assert.Error(t, err)
}
