package userpda_test

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"github.com/Abdullah1738/user-pda/internal/localnet"
	"github.com/Abdullah1738/user-pda/offchain/solana"
	"github.com/Abdullah1738/user-pda/program/runtime"
	"github.com/Abdullah1738/user-pda/program/runtime/mocks"
	"github.com/Abdullah1738/user-pda/program/system"
	"github.com/Abdullah1738/user-pda/program/userpda"
)

// =============================================================================
// Processor against a mocked host
// =============================================================================

type ProcessorSuite struct {
	suite.Suite
	ctx      context.Context
	ctrl     *gomock.Controller
	host     *mocks.MockHost
	logs     *bytes.Buffer
	derives  int
	proc     *userpda.Processor
	payer    solana.Pubkey
	accounts []runtime.AccountInfo
	derived  userpda.DerivedAddress
}

func TestProcessorSuite(t *testing.T) {
	suite.Run(t, new(ProcessorSuite))
}

func (s *ProcessorSuite) SetupTest() {
	s.ctx = context.Background()
	s.ctrl = gomock.NewController(s.T())
	s.host = mocks.NewMockHost(s.ctrl)
	s.logs = &bytes.Buffer{}
	s.derives = 0
	s.proc = userpda.NewProcessor(
		userpda.WithLogger(zerolog.New(s.logs)),
		userpda.WithDeriver(func(seeds [][]byte, programID solana.Pubkey) (solana.Pubkey, uint8, error) {
			s.derives++
			return solana.FindProgramAddress(seeds, programID)
		}),
	)

	s.payer = userKey(0x21)
	var err error
	s.derived, _, err = userpda.DeriveUserAddress(s.payer, testProgramID)
	s.Require().NoError(err)
	s.accounts = []runtime.AccountInfo{
		{Key: s.payer, IsSigner: true, IsWritable: true},
		{Key: s.derived.Address, IsWritable: true},
		{Key: solana.SystemProgramID},
	}
}

func (s *ProcessorSuite) TearDownTest() {
	s.ctrl.Finish()
}

func (s *ProcessorSuite) expectedInstruction() solana.Instruction {
	return solana.SystemCreateAccount(solana.CreateAccountParams{
		From:     s.payer,
		New:      s.derived.Address,
		Lamports: userpda.AccountLamports,
		Space:    userpda.AccountSpace,
		Owner:    testProgramID,
	})
}

func (s *ProcessorSuite) expectedSeeds() [][][]byte {
	return [][][]byte{{s.payer[:], []byte("user"), {s.derived.Bump}}}
}

func (s *ProcessorSuite) TestInvokesSystemProgramWithProof() {
	s.host.EXPECT().
		InvokeSigned(gomock.Any(), s.expectedInstruction(), s.accounts, s.expectedSeeds()).
		Return(nil)

	s.Require().NoError(s.proc.Process(s.ctx, s.host, testProgramID, s.accounts, nil))
	s.Equal(1, s.derives)
	s.Contains(s.logs.String(), s.derived.Address.Base58())
	s.Contains(s.logs.String(), `"message":"derived user account address"`)
}

func (s *ProcessorSuite) TestIgnoresInstructionData() {
	s.host.EXPECT().
		InvokeSigned(gomock.Any(), s.expectedInstruction(), s.accounts, s.expectedSeeds()).
		Return(nil)

	s.Require().NoError(s.proc.Process(s.ctx, s.host, testProgramID, s.accounts, []byte{0xde, 0xad}))
}

func (s *ProcessorSuite) TestExtraAccountsIgnored() {
	accounts := append(append([]runtime.AccountInfo{}, s.accounts...), runtime.AccountInfo{Key: userKey(0x77)})
	s.host.EXPECT().
		InvokeSigned(gomock.Any(), s.expectedInstruction(), accounts, s.expectedSeeds()).
		Return(nil)

	s.Require().NoError(s.proc.Process(s.ctx, s.host, testProgramID, accounts, nil))
}

func (s *ProcessorSuite) TestMissingAccountBeforeDerivation() {
	for n := 0; n < userpda.RequiredAccounts; n++ {
		err := s.proc.Process(s.ctx, s.host, testProgramID, s.accounts[:n], nil)
		s.Require().ErrorIs(err, userpda.ErrMissingAccount)
	}
	s.Equal(0, s.derives)
	s.Empty(s.logs.String())
}

func (s *ProcessorSuite) TestServiceErrorPropagatesUnchanged() {
	serviceErr := errors.New("service exploded")
	s.host.EXPECT().InvokeSigned(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Return(serviceErr)

	err := s.proc.Process(s.ctx, s.host, testProgramID, s.accounts, nil)
	s.Require().Same(serviceErr, err)
}

func (s *ProcessorSuite) TestDerivationExhaustedAborts() {
	proc := userpda.NewProcessor(userpda.WithDeriver(func([][]byte, solana.Pubkey) (solana.Pubkey, uint8, error) {
		return solana.Pubkey{}, 0, solana.ErrAddressDerivationExhausted
	}))

	err := proc.Process(s.ctx, s.host, testProgramID, s.accounts, nil)
	s.Require().ErrorIs(err, solana.ErrAddressDerivationExhausted)
}

func (s *ProcessorSuite) TestZeroPayerIsInvalidParameters() {
	accounts := append([]runtime.AccountInfo{}, s.accounts...)
	accounts[0].Key = solana.Pubkey{}

	err := s.proc.Process(s.ctx, s.host, testProgramID, accounts, nil)
	s.Require().ErrorIs(err, userpda.ErrInvalidParameters)
}

func (s *ProcessorSuite) TestInvokeRequiresHost() {
	req, err := userpda.BuildCreationRequest(s.payer, s.derived.Address, testProgramID)
	s.Require().NoError(err)
	s.Error(userpda.Invoke(s.ctx, nil, req, s.accounts, userpda.ProofOfDerivation{}))
}

// =============================================================================
// Processor deployed on the local host
// =============================================================================

type LocalnetSuite struct {
	suite.Suite
	ctx   context.Context
	bank  *localnet.Bank
	payer solana.Pubkey
	pda   solana.Pubkey
}

func TestLocalnetSuite(t *testing.T) {
	suite.Run(t, new(LocalnetSuite))
}

func (s *LocalnetSuite) SetupTest() {
	s.ctx = context.Background()
	s.bank = localnet.New()
	s.Require().NoError(s.bank.Deploy(testProgramID, userpda.NewProcessor().Entrypoint()))

	s.payer = userKey(0x42)
	s.Require().NoError(s.bank.Airdrop(s.payer, 5_000_000_000))
	derived, _, err := userpda.DeriveUserAddress(s.payer, testProgramID)
	s.Require().NoError(err)
	s.pda = derived.Address
}

func (s *LocalnetSuite) invocation(target solana.Pubkey) solana.Instruction {
	return solana.Instruction{
		ProgramID: testProgramID,
		Accounts: []solana.AccountMeta{
			{Pubkey: s.payer, IsSigner: true, IsWritable: true},
			{Pubkey: target, IsWritable: true},
			{Pubkey: solana.SystemProgramID},
		},
	}
}

func (s *LocalnetSuite) TestCreatesFundedEightByteAccount() {
	s.Require().NoError(s.bank.Execute(s.ctx, s.invocation(s.pda)))

	acct, ok := s.bank.Account(s.pda)
	s.Require().True(ok)
	s.Equal(testProgramID, acct.Owner)
	s.Len(acct.Data, 8)
	s.Equal(uint64(1_000_000_000), acct.Lamports)
	s.Equal(uint64(4_000_000_000), s.bank.Balance(s.payer))
}

func (s *LocalnetSuite) TestSecondInvocationAlreadyExists() {
	s.Require().NoError(s.bank.Execute(s.ctx, s.invocation(s.pda)))
	first, _ := s.bank.Account(s.pda)
	payerAfterFirst := s.bank.Balance(s.payer)

	err := s.bank.Execute(s.ctx, s.invocation(s.pda))
	s.Require().ErrorIs(err, system.ErrAccountAlreadyExists)

	second, _ := s.bank.Account(s.pda)
	s.Equal(first, second)
	s.Equal(payerAfterFirst, s.bank.Balance(s.payer))
}

func (s *LocalnetSuite) TestTargetNotDerivedFromPayerIsAuthorityMismatch() {
	otherUser := userKey(0x43)
	otherPDA, _, err := userpda.DeriveUserAddress(otherUser, testProgramID)
	s.Require().NoError(err)

	for _, target := range []solana.Pubkey{otherPDA.Address, userKey(0x99)} {
		err := s.bank.Execute(s.ctx, s.invocation(target))
		s.Require().ErrorIs(err, system.ErrAuthorityMismatch)
		_, ok := s.bank.Account(target)
		s.False(ok)
	}
	s.Equal(uint64(5_000_000_000), s.bank.Balance(s.payer))
}

func (s *LocalnetSuite) TestTamperedProofIsAuthorityMismatch() {
	tamperedID := userKey(0x10)
	_, proof, err := userpda.DeriveUserAddress(s.payer, tamperedID)
	s.Require().NoError(err)

	tampered := map[string]userpda.ProofOfDerivation{
		"bump":     {Seeds: proof.Seeds, Bump: proof.Bump - 1},
		"seed tag": {Seeds: [][]byte{s.payer[:], []byte("usr")}, Bump: proof.Bump},
		"order":    {Seeds: [][]byte{[]byte("user"), s.payer[:]}, Bump: proof.Bump},
	}
	for name, bad := range tampered {
		s.Require().NoError(s.bank.Deploy(tamperedID, func(ctx context.Context, host runtime.Host, programID solana.Pubkey, accounts []runtime.AccountInfo, data []byte) error {
			req, err := userpda.BuildCreationRequest(accounts[0].Key, accounts[1].Key, programID)
			if err != nil {
				return err
			}
			return userpda.Invoke(ctx, host, req, accounts, bad)
		}))

		derived, _, err := userpda.DeriveUserAddress(s.payer, tamperedID)
		s.Require().NoError(err)
		ix := s.invocation(derived.Address)
		ix.ProgramID = tamperedID

		err = s.bank.Execute(s.ctx, ix)
		s.Require().ErrorIs(err, system.ErrAuthorityMismatch, name)
		_, ok := s.bank.Account(derived.Address)
		s.False(ok, name)
	}
}

func (s *LocalnetSuite) TestTwoAccountsIsMissingAccount() {
	ix := s.invocation(s.pda)
	ix.Accounts = ix.Accounts[:2]

	err := s.bank.Execute(s.ctx, ix)
	s.Require().ErrorIs(err, userpda.ErrMissingAccount)
	_, ok := s.bank.Account(s.pda)
	s.False(ok)
}

func (s *LocalnetSuite) TestInsufficientFunds() {
	poor := userKey(0x44)
	s.Require().NoError(s.bank.Airdrop(poor, 999_999_999))
	derived, _, err := userpda.DeriveUserAddress(poor, testProgramID)
	s.Require().NoError(err)
	ix := s.invocation(derived.Address)
	ix.Accounts[0].Pubkey = poor

	err = s.bank.Execute(s.ctx, ix)
	s.Require().ErrorIs(err, system.ErrInsufficientFunds)
	s.Equal(uint64(999_999_999), s.bank.Balance(poor))
}
