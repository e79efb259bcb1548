package localnet

import (
	"github.com/Abdullah1738/user-pda/offchain/solana"
	"github.com/Abdullah1738/user-pda/program/system"
)

// overlay buffers the writes of one execution so a failure leaves the bank
// untouched.
type overlay struct {
	base    map[solana.Pubkey]system.Account
	dirty   map[solana.Pubkey]system.Account
	created []solana.CreateAccountParams
}

func newOverlay(base map[solana.Pubkey]system.Account) *overlay {
	return &overlay{base: base, dirty: make(map[solana.Pubkey]system.Account)}
}

func (o *overlay) Account(pk solana.Pubkey) (system.Account, bool) {
	if a, ok := o.dirty[pk]; ok {
		return a.Clone(), true
	}
	a, ok := o.base[pk]
	return a.Clone(), ok
}

func (o *overlay) SetAccount(pk solana.Pubkey, a system.Account) {
	o.dirty[pk] = a.Clone()
}

func (o *overlay) commit() {
	for pk, a := range o.dirty {
		o.base[pk] = a
	}
}
