package blockchain

import (
	"context"
	"fmt"
	"sync"
)

// ClientFactory caches chain clients per RPC URL
type ClientFactory struct {
	suiClients    map[string]*SuiClient
	solanaClients map[string]*SolanaClient
	mu            sync.RWMutex
}

// NewClientFactory creates a new client factory
func NewClientFactory() *ClientFactory {
	return &ClientFactory{
		suiClients:    make(map[string]*SuiClient),
		solanaClients: make(map[string]*SolanaClient),
	}
}

// GetSuiClient returns the cached Sui client for rpcURL, dialing one on first use.
// Options only apply to the first call for a URL.
func (f *ClientFactory) GetSuiClient(ctx context.Context, rpcURL string, opts SuiOptions) (*SuiClient, error) {
	f.mu.RLock()
	client, ok := f.suiClients[rpcURL]
	f.mu.RUnlock()
	if ok {
		return client, nil
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	// Double check
	if client, ok := f.suiClients[rpcURL]; ok {
		return client, nil
	}

	newClient, err := NewSuiClient(ctx, rpcURL, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to create Sui client: %w", err)
	}

	f.suiClients[rpcURL] = newClient
	return newClient, nil
}

// GetSolanaClient returns the cached Solana client for rpcURL.
func (f *ClientFactory) GetSolanaClient(rpcURL string, opts SolanaOptions) *SolanaClient {
	f.mu.RLock()
	client, ok := f.solanaClients[rpcURL]
	f.mu.RUnlock()
	if ok {
		return client
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	if client, ok := f.solanaClients[rpcURL]; ok {
		return client
	}
	newClient := NewSolanaClient(rpcURL, opts)
	f.solanaClients[rpcURL] = newClient
	return newClient
}

// Close closes every cached client
func (f *ClientFactory) Close() {
	f.mu.Lock()
	defer f.mu.Unlock()
	for url, c := range f.suiClients {
		c.Close()
		delete(f.suiClients, url)
	}
	for url, c := range f.solanaClients {
		_ = c.Close()
		delete(f.solanaClients, url)
	}
}
