package main

import (
	"context"
	"enricher/internal/config"
	"enricher/internal/dispatch"
	"enricher/internal/domainset"
	"enricher/pkg/domain"
	"enricher/pkg/enrichment/hudsonrock"
	"enricher/pkg/logger"
	"net/http"

	"go.uber.org/zap"
)

// loadDomains reads and validates the input list. An unreadable or malformed
// input is fatal.
func loadDomains(ctx context.Context, cfg *config.Config) (*domainset.Set, []domain.Batch) {
	raw, err := domainset.Load(cfg.Files.Input)
	if err != nil {
		logger.Fatal(ctx, "could not load domain list", zap.String("path", cfg.Files.Input), zap.Error(err))
	}

	valid, _ := domainset.Build(ctx, raw)

	return valid, dispatch.MakeBatches(valid.Domains(), cfg.Dispatch.BatchSize)
}

func newClient(ctx context.Context, cfg *config.Config) *hudsonrock.Client {
	client, err := hudsonrock.New(&http.Client{}, hudsonrock.Options{
		URLTemplate:       cfg.API.URLTemplate,
		APIKey:            cfg.API.Key,
		ContentType:       cfg.API.ContentType,
		SearchType:        cfg.API.SearchType,
		ThirdPartyDomains: cfg.ThirdPartyDomains(),
		LookbackDays:      cfg.API.LookbackDays,
	})
	if err != nil {
		logger.Fatal(ctx, "could not create enrichment client", zap.Error(err))
	}

	return client
}
