// Package workflow hands submitted applications to the review workflow
// engine. Publishing is best effort: the intake request never fails because
// the broker is down.
package workflow

import (
	"context"
	"fmt"
	"time"

	"github.com/camunda/zeebe/clients/go/v8/pkg/zbc"

	"loanbridge/internal/common/logger"
	"loanbridge/internal/models"
)

// Publisher starts one review process instance per submitted application.
type Publisher struct {
	client         zbc.Client
	processID      string
	requestTimeout time.Duration
	logger         logger.Logger
}

// NewPublisher connects to the Zeebe gateway and verifies the topology.
func NewPublisher(brokerAddress, processID string, requestTimeout time.Duration, log logger.Logger) (*Publisher, error) {
	client, err := zbc.NewClient(&zbc.ClientConfig{
		GatewayAddress:         brokerAddress,
		UsePlaintextConnection: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Zeebe client: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if _, err := client.NewTopologyCommand().Send(ctx); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to Zeebe broker at %s: %w", brokerAddress, err)
	}

	return &Publisher{
		client:         client,
		processID:      processID,
		requestTimeout: requestTimeout,
		logger:         log.WithFields(map[string]interface{}{"component": "workflow"}),
	}, nil
}

// StartReview creates a process instance carrying the application facts the
// review workflow needs. Errors are returned so the caller can log them,
// but intake treats them as non-fatal.
func (p *Publisher) StartReview(ctx context.Context, app *models.LoanApplication) error {
	vars := map[string]interface{}{
		"applicationId": app.ID,
		"userId":        app.UserID,
		"amount":        app.Amount,
		"tenureMonths":  app.TenureMonths,
		"interestRate":  app.InterestRate,
		"purpose":       app.Purpose,
	}

	cmd, err := p.client.NewCreateInstanceCommand().
		BPMNProcessId(p.processID).
		LatestVersion().
		VariablesFromMap(vars)
	if err != nil {
		return fmt.Errorf("failed to build create-instance command: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, p.requestTimeout)
	defer cancel()

	resp, err := cmd.Send(ctx)
	if err != nil {
		return fmt.Errorf("failed to start review process: %w", err)
	}

	p.logger.Info("review process started", map[string]interface{}{
		"applicationId":      app.ID,
		"processInstanceKey": resp.GetProcessInstanceKey(),
	})
	return nil
}

// Close releases the gRPC connection.
func (p *Publisher) Close() error {
	return p.client.Close()
}
