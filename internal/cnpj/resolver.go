package cnpj

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"regexp"
	"time"

	apperrors "nexconsult/internal/errors"
	"nexconsult/internal/logger"
	"nexconsult/internal/metrics"
	"nexconsult/internal/models"
	"nexconsult/internal/version"
)

const defaultTimeout = 10 * time.Second

var nonDigits = regexp.MustCompile(`[^0-9]`)

// CleanCNPJ strips every non-digit character from a CNPJ string.
func CleanCNPJ(s string) string {
	return nonDigits.ReplaceAllString(s, "")
}

// Resolver looks a CNPJ up across an ordered chain of registry providers,
// returning the first profile that normalizes to a usable result.
type Resolver struct {
	providers  []Provider
	httpClient *http.Client
	userAgent  string
	now        func() time.Time
}

// ResolverConfig holds configuration for the resolver. Zero values fall
// back to the default provider chain, a 10 second per-provider timeout,
// the project User-Agent and the system clock.
type ResolverConfig struct {
	Providers []Provider
	Timeout   time.Duration
	UserAgent string
	Clock     func() time.Time
}

// NewResolver creates a resolver over the configured provider chain.
func NewResolver(config ResolverConfig) *Resolver {
	if config.Providers == nil {
		config.Providers = DefaultProviders()
	}
	if config.Timeout == 0 {
		config.Timeout = defaultTimeout
	}
	if config.UserAgent == "" {
		config.UserAgent = version.UserAgent()
	}
	if config.Clock == nil {
		config.Clock = time.Now
	}

	return &Resolver{
		providers:  config.Providers,
		httpClient: &http.Client{Timeout: config.Timeout},
		userAgent:  config.UserAgent,
		now:        config.Clock,
	}
}

// Lookup resolves a CNPJ into a canonical company profile. Provider
// failures are absorbed: one pass over the chain, no retries, first usable
// normalization wins. The returned profile always carries Success, Source
// and the lookup timestamp; it is never an error.
func (r *Resolver) Lookup(ctx context.Context, identifier string) models.CNPJData {
	cleaned := CleanCNPJ(identifier)
	if len(cleaned) != 14 {
		return models.CNPJData{
			Error:        "CNPJ must contain exactly 14 digits",
			Source:       "validation",
			CNPJ:         cleaned,
			ConsultadoEm: r.now(),
		}
	}

	for _, p := range r.providers {
		data, err := r.fetchJSON(ctx, p.Name, fmt.Sprintf(p.Endpoint, cleaned))
		if err != nil {
			logger.Warn("Provider lookup failed", "provider", p.Name, "cnpj", cleaned, "error", err)
			metrics.RecordProviderLookup(p.Name, "error")
			continue
		}
		if len(data) == 0 {
			logger.Debug("Provider returned empty body", "provider", p.Name, "cnpj", cleaned)
			metrics.RecordProviderLookup(p.Name, "empty")
			continue
		}
		if p.isError != nil && p.isError(data) {
			logger.Debug("Provider reported an error body", "provider", p.Name, "cnpj", cleaned)
			metrics.RecordProviderLookup(p.Name, "error_body")
			continue
		}

		profile := p.normalize(data)
		if profile.RazaoSocial == "" {
			logger.Debug("Provider response had no legal name", "provider", p.Name, "cnpj", cleaned)
			metrics.RecordProviderLookup(p.Name, "unusable")
			continue
		}

		profile.Success = true
		profile.Source = p.Name
		profile.Oficial = p.Oficial
		profile.CNPJ = cleaned
		profile.ConsultadoEm = r.now()
		metrics.RecordProviderLookup(p.Name, "success")
		logger.Info("CNPJ resolved", "provider", p.Name, "cnpj", cleaned, "razao_social", profile.RazaoSocial)
		return profile
	}

	logger.Warn("All providers exhausted", "cnpj", cleaned)
	return models.CNPJData{
		Error:        "no provider could resolve this CNPJ",
		Source:       "all_providers_failed",
		CNPJ:         cleaned,
		ConsultadoEm: r.now(),
	}
}

// fetchJSON issues a single GET with identifying headers and decodes the
// body as a JSON object. Any transport, status or decode problem is an
// error for the caller to absorb.
func (r *Resolver) fetchJSON(ctx context.Context, provider, url string) (map[string]any, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", r.userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := r.httpClient.Do(req)
	if err != nil {
		return nil, apperrors.Wrap(err, "request failed")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, apperrors.ProviderError{
			Provider:   provider,
			StatusCode: resp.StatusCode,
			Message:    "unexpected status",
		}
	}

	var data map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&data); err != nil {
		return nil, apperrors.Wrap(err, "failed to decode response")
	}
	return data, nil
}
