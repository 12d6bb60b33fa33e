package service

import (
	"context"
	"fmt"
	"io"
	"net/http"

	"github.com/denizolgu/chancepool/internal/config"
	"github.com/denizolgu/chancepool/internal/domain"
)

// OracleService asks the external outcome oracle whether a wager won.
// The oracle contract is deliberately tiny: GET the configured URL, read the
// body, and the exact string "1" means a win.  Anything else, including "1"
// with trailing whitespace, is a loss.
type OracleService struct {
	client *http.Client
	cfg    *config.OracleConfig
}

// NewOracleService constructs an OracleService from the given config.
func NewOracleService(cfg *config.Config) *OracleService {
	return &OracleService{
		client: &http.Client{Timeout: cfg.Oracle.FetchTimeout},
		cfg:    &cfg.Oracle,
	}
}

// FetchOutcome queries the oracle once and returns whether the wager won.
// Transport failures, non-200 responses, and unreadable bodies all surface
// as domain.ErrOracleFetch so callers can retry on the next scan.
func (o *OracleService) FetchOutcome(ctx context.Context) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, o.client.Timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, o.cfg.URL, nil)
	if err != nil {
		return false, fmt.Errorf("oracle_service.FetchOutcome: build request: %w", err)
	}

	resp, err := o.client.Do(req)
	if err != nil {
		return false, fmt.Errorf("%w: %s", domain.ErrOracleFetch, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return false, fmt.Errorf("%w: unexpected status %d", domain.ErrOracleFetch, resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return false, fmt.Errorf("%w: read body: %s", domain.ErrOracleFetch, err)
	}

	return string(body) == "1", nil
}
