package ledger_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"credverify/internal/ledger"
	"credverify/internal/ledger/memory"
	dErrors "credverify/pkg/domain-errors"
)

type LedgerSuite struct {
	suite.Suite
	ctx    context.Context
	store  *memory.Store
	ledger *ledger.Ledger
}

func TestLedgerSuite(t *testing.T) {
	suite.Run(t, new(LedgerSuite))
}

func (s *LedgerSuite) SetupTest() {
	s.ctx = context.Background()
	s.store = memory.New()
	s.ledger = ledger.New(s.store)
}

func (s *LedgerSuite) seed(key, value string) {
	s.Require().NoError(s.ledger.Invoke(s.ctx, func(ctx context.Context, stub ledger.Stub) error {
		return stub.PutState(ctx, key, []byte(value))
	}))
}

func (s *LedgerSuite) TestInvokeCommitsWrites() {
	s.seed("a", "1")
	s.Equal(1, s.store.Len())
}

func (s *LedgerSuite) TestInvokeErrorDiscardsWrites() {
	boom := errors.New("boom")
	err := s.ledger.Invoke(s.ctx, func(ctx context.Context, stub ledger.Stub) error {
		s.Require().NoError(stub.PutState(ctx, "a", []byte("1")))
		return boom
	})
	s.ErrorIs(err, boom)
	s.Zero(s.store.Len())
}

func (s *LedgerSuite) TestInvokeRejectsCancelledContext() {
	ctx, cancel := context.WithCancel(s.ctx)
	cancel()

	called := false
	err := s.ledger.Invoke(ctx, func(context.Context, ledger.Stub) error {
		called = true
		return nil
	})
	s.False(called)
	s.True(dErrors.HasCode(err, dErrors.CodeTimeout))
}

func (s *LedgerSuite) TestInvokeAppliesDefaultDeadline() {
	l := ledger.New(s.store, ledger.WithTimeout(time.Minute))
	err := l.Invoke(s.ctx, func(ctx context.Context, _ ledger.Stub) error {
		_, ok := ctx.Deadline()
		s.True(ok)
		return nil
	})
	s.NoError(err)
}

func (s *LedgerSuite) TestGetStateSeesOwnWrites() {
	s.seed("a", "old")

	tx := s.ledger.Begin()
	s.Require().NoError(tx.PutState(s.ctx, "a", []byte("new")))
	got, err := tx.GetState(s.ctx, "a")
	s.Require().NoError(err)
	s.Equal("new", string(got))

	s.Require().NoError(tx.DelState(s.ctx, "a"))
	got, err = tx.GetState(s.ctx, "a")
	s.Require().NoError(err)
	s.Nil(got)
}

func (s *LedgerSuite) TestGetStateMissingKeyReturnsNil() {
	tx := s.ledger.Begin()
	got, err := tx.GetState(s.ctx, "absent")
	s.Require().NoError(err)
	s.Nil(got)
}

func (s *LedgerSuite) TestEmptyKeyRejected() {
	tx := s.ledger.Begin()
	_, err := tx.GetState(s.ctx, "")
	s.Error(err)
	s.Error(tx.PutState(s.ctx, "", []byte("x")))
	s.Error(tx.DelState(s.ctx, ""))
}

func (s *LedgerSuite) TestRangeOverlaysBufferedWrites() {
	s.seed("k1", "committed")
	s.seed("k3", "committed")

	tx := s.ledger.Begin()
	s.Require().NoError(tx.PutState(s.ctx, "k2", []byte("buffered")))
	s.Require().NoError(tx.DelState(s.ctx, "k3"))
	s.Require().NoError(tx.PutState(s.ctx, "z-outside", []byte("x")))

	kvs, err := tx.GetStateByRange(s.ctx, "k", "l")
	s.Require().NoError(err)
	s.Require().Len(kvs, 2)
	s.Equal("k1", kvs[0].Key)
	s.Equal("k2", kvs[1].Key)
	s.Equal("buffered", string(kvs[1].Value))
}

func (s *LedgerSuite) TestChangeSetRecordsFirstReadVersion() {
	s.seed("a", "1")

	tx := s.ledger.Begin()
	_, err := tx.GetState(s.ctx, "a")
	s.Require().NoError(err)
	_, err = tx.GetState(s.ctx, "missing")
	s.Require().NoError(err)
	_, err = tx.GetStateByRange(s.ctx, "a", "b")
	s.Require().NoError(err)

	cs := tx.ChangeSet()
	s.Require().Len(cs.Reads, 2)
	s.Equal("a", cs.Reads[0].Key)
	s.NotZero(cs.Reads[0].Version)
	s.Equal(ledger.KeyVersion{Key: "missing"}, cs.Reads[1])
	s.Require().Len(cs.Ranges, 1)
	s.Len(cs.Ranges[0].Observed, 1)
}

func (s *LedgerSuite) TestReadOnlyCommitAlwaysSucceeds() {
	s.seed("a", "1")
	tx := s.ledger.Begin()
	_, err := tx.GetState(s.ctx, "a")
	s.Require().NoError(err)

	s.seed("a", "2")
	s.NoError(tx.Commit(s.ctx))
}

func (s *LedgerSuite) TestClosedTxRejectsUse() {
	tx := s.ledger.Begin()
	tx.Discard()
	_, err := tx.GetState(s.ctx, "a")
	s.Error(err)
	s.Error(tx.Commit(s.ctx))
}

func TestPrefixRange(t *testing.T) {
	start, end := ledger.PrefixRange("RequestStudentToUni_alice_")
	assert.Equal(t, "RequestStudentToUni_alice_", start)
	assert.Equal(t, "RequestStudentToUni_alice`", end)

	assert.True(t, ledger.InRange("RequestStudentToUni_alice_UniA", start, end))
	assert.False(t, ledger.InRange("RequestStudentToUni_alicex_UniA", start, end))

	_, end = ledger.PrefixRange("a\xff")
	assert.Equal(t, "b", end)
	_, end = ledger.PrefixRange("")
	assert.Equal(t, "", end)
}

func TestEmptyRange(t *testing.T) {
	assert.True(t, ledger.EmptyRange("b", "a"))
	assert.True(t, ledger.EmptyRange("a", "a"))
	assert.False(t, ledger.EmptyRange("a", "b"))
	assert.False(t, ledger.EmptyRange("z", ""))
}

func TestConflictWrapsSentinel(t *testing.T) {
	err := dErrors.FromSentinel(ledger.ErrConflict, "commit")
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeConflict))
}
