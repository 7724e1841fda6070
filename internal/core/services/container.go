package services

import (
	"context"
	"fmt"

	portsrepo "github.com/SscSPs/buchungsjournal/internal/core/ports/repositories"
	portssvc "github.com/SscSPs/buchungsjournal/internal/core/ports/services"
)

// NewServiceContainer creates a new service container with properly initialized dependencies
func NewServiceContainer(ctx context.Context, repos portsrepo.RepositoryProvider, publisher portssvc.EventPublisher) (*portssvc.ServiceContainer, error) {
	options := []LedgerOption{}
	if publisher != nil {
		options = append(options, WithEventPublisher(publisher))
	}

	ledger, err := OpenLedgerService(ctx, repos.JournalRepo, options...)
	if err != nil {
		return nil, fmt.Errorf("failed to open ledger: %w", err)
	}

	return &portssvc.ServiceContainer{
		Ledger: ledger,
	}, nil
}
