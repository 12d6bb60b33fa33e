package scheduler

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/denizolgu/chancepool/internal/config"
	"github.com/denizolgu/chancepool/internal/domain"
	"github.com/denizolgu/chancepool/internal/service"
	"github.com/google/uuid"
)

// APISubmitter delivers settlements as signed requests to the settlement
// endpoint.  It authenticates as the node's configured settler account, so
// the submission passes the same roster check as any external settler.
type APISubmitter struct {
	client  *http.Client
	auth    *service.AuthService
	baseURL string
	settler uuid.UUID
}

// NewAPISubmitter creates an APISubmitter.
func NewAPISubmitter(auth *service.AuthService, cfg *config.Config) *APISubmitter {
	return &APISubmitter{
		client:  &http.Client{Timeout: 10 * time.Second},
		auth:    auth,
		baseURL: cfg.Coordinator.APIBaseURL,
		settler: cfg.Coordinator.SettlerAccount,
	}
}

// CanSign reports whether a settler identity is configured for this node.
func (a *APISubmitter) CanSign() bool {
	return a.settler != uuid.Nil
}

// Submit signs a token for the node's settler account and POSTs the
// settlement.  The API's error envelope is mapped back to domain errors so
// the coordinator can tell "already settled" from a real failure.
func (a *APISubmitter) Submit(ctx context.Context, bettor uuid.UUID, netWager domain.Amount, didWin bool) error {
	if !a.CanSign() {
		return domain.ErrNoSigningKey
	}

	token, err := a.auth.IssueToken(a.settler)
	if err != nil {
		return fmt.Errorf("submitter: sign token: %w", err)
	}

	payload := struct {
		Bettor   string `json:"bettor"`
		NetWager string `json:"net_wager"`
		Won      bool   `json:"won"`
	}{
		Bettor:   bettor.String(),
		NetWager: netWager.String(),
		Won:      didWin,
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("submitter: marshal: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		a.baseURL+"/api/wagers/settle", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("submitter: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := a.client.Do(req)
	if err != nil {
		return fmt.Errorf("submitter: post: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusOK {
		return nil
	}
	if resp.StatusCode == http.StatusNotFound {
		return domain.ErrBetNotFound
	}

	msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
	return fmt.Errorf("submitter: status %d: %s", resp.StatusCode, msg)
}
