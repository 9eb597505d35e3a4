// internal/partners/crm.go
package partners

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"loanbridge/internal/models"
)

// CRMClient pushes approved loan deals into the partner CRM.
type CRMClient struct {
	apiKey     string
	oauthToken string
	baseURL    string
	httpClient *http.Client
}

// Deal is the CRM record created for an approved application.
type Deal struct {
	ID            string  `json:"id,omitempty"`
	ApplicationID string  `json:"Application_ID"`
	Amount        int64   `json:"Amount"`
	TenureMonths  int     `json:"Tenure_Months"`
	InterestRate  float64 `json:"Interest_Rate"`
	ContactEmail  string  `json:"Contact_Email,omitempty"`
	ContactMobile string  `json:"Contact_Mobile,omitempty"`
	Source        string  `json:"Lead_Source,omitempty"`
}

type createDealResponse struct {
	Data []struct {
		Code    string `json:"code"`
		Details struct {
			ID string `json:"id"`
		} `json:"details"`
		Message string `json:"message"`
		Status  string `json:"status"`
	} `json:"data"`
}

func NewCRMClient(baseURL, apiKey, oauthToken string) *CRMClient {
	return &CRMClient{
		apiKey:     apiKey,
		oauthToken: oauthToken,
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// PushApprovedDeal creates a Deal record for an approved application and
// returns the CRM record ID.
func (c *CRMClient) PushApprovedDeal(ctx context.Context, user *models.User, app *models.LoanApplication) (string, error) {
	url := fmt.Sprintf("%s/Deals", c.baseURL)

	deal := Deal{
		ApplicationID: app.ID,
		Amount:        app.Amount,
		TenureMonths:  app.TenureMonths,
		InterestRate:  app.InterestRate,
		ContactEmail:  user.Email,
		ContactMobile: user.Mobile,
		Source:        "loanbridge",
	}

	payload := map[string]interface{}{
		"data": []Deal{deal},
	}

	jsonData, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("failed to marshal deal: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", url, bytes.NewReader(jsonData))
	if err != nil {
		return "", fmt.Errorf("failed to create CRM request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Zoho-oauthtoken "+c.oauthToken)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("CRM request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("CRM request returned %d: %s", resp.StatusCode, string(body))
	}

	var parsed createDealResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return "", fmt.Errorf("failed to decode CRM response: %w", err)
	}
	if len(parsed.Data) == 0 {
		return "", fmt.Errorf("CRM response contained no records")
	}
	return parsed.Data[0].Details.ID, nil
}
