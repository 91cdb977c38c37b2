// Package wallet defines the wallet/provider boundary consumed by the
// execution engine. A connected wallet is a precondition for every bridge
// node; the engine checks it before any adapter call.
package wallet

import "context"

// Signer can authorize a transaction payload on behalf of the wallet owner.
type Signer interface {
	// SignTransaction signs an opaque transaction payload. Implementations
	// may prompt the user; a declined prompt returns an error containing
	// "user rejected".
	SignTransaction(ctx context.Context, payload []byte) ([]byte, error)
}

// Provider exposes wallet connection state to the engine.
type Provider interface {
	// IsConnected reports whether a wallet session is active.
	IsConnected() bool
	// Address returns the connected account address, empty when
	// disconnected.
	Address() string
	// ChainID returns the chain the wallet is currently on, used for
	// network-mismatch detection. Empty when disconnected.
	ChainID() string
	// Signer returns the signing handle, nil when disconnected.
	Signer() Signer
}

// Static is a fixed, always-connected provider for headless deployments
// where the service holds its own key material reference.
type Static struct {
	Account string
	Chain   string
	Sign    Signer
}

func (s *Static) IsConnected() bool { return s.Account != "" }
func (s *Static) Address() string   { return s.Account }
func (s *Static) ChainID() string   { return s.Chain }
func (s *Static) Signer() Signer    { return s.Sign }

// Disconnected is a provider with no active session. Useful as a default
// and in tests exercising precondition failures.
type Disconnected struct{}

func (Disconnected) IsConnected() bool { return false }
func (Disconnected) Address() string   { return "" }
func (Disconnected) ChainID() string   { return "" }
func (Disconnected) Signer() Signer    { return nil }
