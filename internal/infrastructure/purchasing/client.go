package purchasing

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/wms/backend/internal/infrastructure/config"
)

// Client sends purchase drafts to the purchasing system over HTTP
type Client struct {
	baseURL string
	apiKey  string
	http    *http.Client
	logger  *zap.Logger
}

// NewClient creates a purchasing client
func NewClient(cfg config.PurchasingConfig, logger *zap.Logger) *Client {
	return &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:  cfg.APIKey,
		http:    &http.Client{Timeout: cfg.Timeout},
		logger:  logger,
	}
}

type draftRequest struct {
	OrganizationID uuid.UUID       `json:"organization_id"`
	VendorID       uuid.UUID       `json:"vendor_id"`
	ItemID         uuid.UUID       `json:"item_id"`
	Quantity       int             `json:"quantity"`
	UnitCost       decimal.Decimal `json:"unit_cost"`
}

type draftResponse struct {
	DraftID string `json:"draft_id"`
}

// CreateDraft implements replenishment.PurchaseDraftCreator
func (c *Client) CreateDraft(ctx context.Context, organizationID, vendorID, itemID uuid.UUID, quantity int, unitCost decimal.Decimal) (string, error) {
	body, err := json.Marshal(draftRequest{
		OrganizationID: organizationID,
		VendorID:       vendorID,
		ItemID:         itemID,
		Quantity:       quantity,
		UnitCost:       unitCost,
	})
	if err != nil {
		return "", fmt.Errorf("failed to marshal draft request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseURL+"/api/v1/purchase-drafts", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("failed to build draft request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("purchasing request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated && resp.StatusCode != http.StatusOK {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return "", fmt.Errorf("purchasing returned status %d: %s", resp.StatusCode, string(raw))
	}

	var draft draftResponse
	if err := json.NewDecoder(resp.Body).Decode(&draft); err != nil {
		return "", fmt.Errorf("failed to decode draft response: %w", err)
	}
	if draft.DraftID == "" {
		return "", fmt.Errorf("purchasing returned an empty draft id")
	}

	c.logger.Info("purchase draft created",
		zap.String("draft_id", draft.DraftID),
		zap.String("item_id", itemID.String()),
		zap.Int("quantity", quantity))
	return draft.DraftID, nil
}

// LocalDraftCreator mints draft IDs without an external purchasing
// system, for development and single-system deployments. The draft
// lifecycle is then driven entirely through the callback endpoints.
type LocalDraftCreator struct {
	logger *zap.Logger
}

// NewLocalDraftCreator creates a local draft creator
func NewLocalDraftCreator(logger *zap.Logger) *LocalDraftCreator {
	return &LocalDraftCreator{logger: logger}
}

// CreateDraft implements replenishment.PurchaseDraftCreator
func (l *LocalDraftCreator) CreateDraft(_ context.Context, organizationID, vendorID, itemID uuid.UUID, quantity int, _ decimal.Decimal) (string, error) {
	draftID := "PD-" + uuid.NewString()
	l.logger.Info("purchase draft recorded locally",
		zap.String("draft_id", draftID),
		zap.String("organization_id", organizationID.String()),
		zap.String("vendor_id", vendorID.String()),
		zap.String("item_id", itemID.String()),
		zap.Int("quantity", quantity))
	return draftID, nil
}
