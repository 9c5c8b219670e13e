// Package account holds the identity being tracked and the L1 signer that
// may act on its behalf.
package account

import (
	"math/big"
	"sync"

	"github.com/ethereum/go-ethereum/common"
)

// Signer is the account/signer collaborator. ChainID is the network the
// signer's provider reported when it was connected; it is never re-queried.
type Signer interface {
	Address() common.Address
	ChainID() *big.Int
}

// Context is the active account and its L1 signer.
type Context struct {
	mu            sync.RWMutex
	account       common.Address
	signer        Signer
	originChainID *big.Int
}

func NewContext(originChainID *big.Int) *Context {
	return &Context{originChainID: originChainID}
}

func (c *Context) SetAccount(account common.Address) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.account = account
}

func (c *Context) Account() common.Address {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.account
}

// SetOriginSigner replaces the signer. A nil signer clears it.
func (c *Context) SetOriginSigner(signer Signer) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.signer = signer
}

func (c *Context) OriginSigner() Signer {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.signer
}

// IsValidForOrigin reports whether a signer is present and connected to the
// configured origin chain. An invalid context only disables deposits.
func (c *Context) IsValidForOrigin() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return validForChain(c.signer, c.originChainID)
}

// CanDeposit reports whether the signer is valid for the origin chain and
// controls the tracked account. Deposits are credited to the sender, so a
// signer for another address would deposit outside the tracked set.
func (c *Context) CanDeposit() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if !validForChain(c.signer, c.originChainID) {
		return false
	}
	return c.account != (common.Address{}) && c.signer.Address() == c.account
}

func validForChain(signer Signer, chainID *big.Int) bool {
	if signer == nil || chainID == nil {
		return false
	}
	id := signer.ChainID()
	return id != nil && id.Cmp(chainID) == 0
}
