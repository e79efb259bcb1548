package userpda

import (
	"context"
	"errors"

	"github.com/Abdullah1738/user-pda/program/runtime"
)

// Invoke asks the host to run the system CreateAccount for req, vouching for
// req.NewAccount with proof. Host and service errors are returned unwrapped.
func Invoke(ctx context.Context, host runtime.Host, req AccountCreationRequest, accounts []runtime.AccountInfo, proof ProofOfDerivation) error {
	if host == nil {
		return errors.New("nil host")
	}
	return host.InvokeSigned(ctx, req.Instruction(), accounts, [][][]byte{proof.SignerSeeds()})
}
