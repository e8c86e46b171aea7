// Package ledgertest holds a behavioural suite every ledger.Backend must pass.
// Backend packages embed BackendSuite in their own tests and supply a factory.
package ledgertest

import (
	"context"
	"errors"

	"github.com/stretchr/testify/suite"

	"credverify/internal/ledger"
	"credverify/pkg/platform/sentinel"
)

// BackendSuite exercises commit atomicity, ordering and conflict detection.
type BackendSuite struct {
	suite.Suite

	// NewBackend returns an empty backend. Called before every test.
	NewBackend func() ledger.Backend

	ctx     context.Context
	backend ledger.Backend
	ledger  *ledger.Ledger
}

func (s *BackendSuite) SetupTest() {
	s.Require().NotNil(s.NewBackend, "NewBackend must be set")
	s.ctx = context.Background()
	s.backend = s.NewBackend()
	s.ledger = ledger.New(s.backend)
}

func (s *BackendSuite) put(kvs ...string) {
	s.Require().Zero(len(kvs)%2, "put takes key/value pairs")
	err := s.ledger.Invoke(s.ctx, func(ctx context.Context, stub ledger.Stub) error {
		for i := 0; i < len(kvs); i += 2 {
			if err := stub.PutState(ctx, kvs[i], []byte(kvs[i+1])); err != nil {
				return err
			}
		}
		return nil
	})
	s.Require().NoError(err)
}

func (s *BackendSuite) keys(entries []ledger.Entry) []string {
	out := make([]string, 0, len(entries))
	for _, e := range entries {
		out = append(out, e.Key)
	}
	return out
}

func (s *BackendSuite) TestGetMissingKey() {
	_, found, err := s.backend.Get(s.ctx, "absent")
	s.Require().NoError(err)
	s.False(found)
}

func (s *BackendSuite) TestCommitThenGet() {
	s.put("alpha", `{"a":1}`)

	entry, found, err := s.backend.Get(s.ctx, "alpha")
	s.Require().NoError(err)
	s.Require().True(found)
	s.Equal(`{"a":1}`, string(entry.Value))
	s.NotZero(entry.Version)
}

func (s *BackendSuite) TestVersionsIncreaseAcrossCommits() {
	s.put("alpha", "1")
	first, _, err := s.backend.Get(s.ctx, "alpha")
	s.Require().NoError(err)

	s.put("alpha", "2")
	second, _, err := s.backend.Get(s.ctx, "alpha")
	s.Require().NoError(err)

	s.Greater(second.Version, first.Version)
	s.Equal("2", string(second.Value))
}

func (s *BackendSuite) TestRangeIsLexicalAndHalfOpen() {
	s.put(
		"universityDegree_UniA_2", "b",
		"universityDegree_UniA_10", "c",
		"universityDegree_UniA_1", "a",
		"universityDegree_UniB_1", "z",
	)

	entries, err := s.backend.Range(s.ctx, "universityDegree_UniA_1", "universityDegree_UniA_9999999999")
	s.Require().NoError(err)
	s.Equal([]string{
		"universityDegree_UniA_1",
		"universityDegree_UniA_10",
		"universityDegree_UniA_2",
	}, s.keys(entries))

	entries, err = s.backend.Range(s.ctx, "universityDegree_UniA_10", "universityDegree_UniA_2")
	s.Require().NoError(err)
	s.Equal([]string{"universityDegree_UniA_10"}, s.keys(entries))
}

func (s *BackendSuite) TestRangeUnboundedEnd() {
	s.put("a", "1", "b", "2", "c", "3")

	entries, err := s.backend.Range(s.ctx, "b", "")
	s.Require().NoError(err)
	s.Equal([]string{"b", "c"}, s.keys(entries))
}

func (s *BackendSuite) TestRangeEmptyWhenStartNotBeforeEnd() {
	s.put("a", "1", "b", "2")

	entries, err := s.backend.Range(s.ctx, "b", "a")
	s.Require().NoError(err)
	s.Empty(entries)
}

func (s *BackendSuite) TestDeleteRemovesFromGetAndRange() {
	s.put("a", "1", "b", "2")

	err := s.ledger.Invoke(s.ctx, func(ctx context.Context, stub ledger.Stub) error {
		return stub.DelState(ctx, "a")
	})
	s.Require().NoError(err)

	_, found, err := s.backend.Get(s.ctx, "a")
	s.Require().NoError(err)
	s.False(found)

	entries, err := s.backend.Range(s.ctx, "", "")
	s.Require().NoError(err)
	s.Equal([]string{"b"}, s.keys(entries))
}

// Invariant: a change set whose point read went stale is rejected and writes nothing.
func (s *BackendSuite) TestStaleReadConflicts() {
	s.put("counter", "1")

	tx1 := s.ledger.Begin()
	tx2 := s.ledger.Begin()
	_, err := tx1.GetState(s.ctx, "counter")
	s.Require().NoError(err)
	_, err = tx2.GetState(s.ctx, "counter")
	s.Require().NoError(err)

	s.Require().NoError(tx1.PutState(s.ctx, "counter", []byte("2")))
	s.Require().NoError(tx2.PutState(s.ctx, "counter", []byte("3")))
	s.Require().NoError(tx2.PutState(s.ctx, "side-effect", []byte("x")))

	s.Require().NoError(tx1.Commit(s.ctx))
	err = tx2.Commit(s.ctx)
	s.Require().Error(err)
	s.True(errors.Is(err, ledger.ErrConflict))
	s.True(errors.Is(err, sentinel.ErrConflict))

	entry, _, err := s.backend.Get(s.ctx, "counter")
	s.Require().NoError(err)
	s.Equal("2", string(entry.Value))
	_, found, err := s.backend.Get(s.ctx, "side-effect")
	s.Require().NoError(err)
	s.False(found, "a rejected commit must not apply any write")
}

// Invariant: reading an absent key and racing another creator of it conflicts.
func (s *BackendSuite) TestAbsentReadConflictsWithCreate() {
	tx1 := s.ledger.Begin()
	tx2 := s.ledger.Begin()
	for _, tx := range []*ledger.Tx{tx1, tx2} {
		v, err := tx.GetState(s.ctx, "degree")
		s.Require().NoError(err)
		s.Require().Nil(v)
		s.Require().NoError(tx.PutState(s.ctx, "degree", []byte("mine")))
	}

	s.Require().NoError(tx1.Commit(s.ctx))
	s.ErrorIs(tx2.Commit(s.ctx), ledger.ErrConflict)
}

// Invariant: a key inserted into a range another invocation scanned is a phantom.
func (s *BackendSuite) TestPhantomInsertConflicts() {
	s.put("universityDegree_UniA_1", "{}")

	tx1 := s.ledger.Begin()
	tx2 := s.ledger.Begin()
	for _, tx := range []*ledger.Tx{tx1, tx2} {
		kvs, err := tx.GetStateByRange(s.ctx, "universityDegree_UniA_1", "universityDegree_UniA_9999999999")
		s.Require().NoError(err)
		s.Require().Len(kvs, 1)
	}
	s.Require().NoError(tx1.PutState(s.ctx, "universityDegree_UniA_2", []byte("{}")))
	s.Require().NoError(tx2.PutState(s.ctx, "universityDegree_UniA_2", []byte(`{"other":true}`)))

	s.Require().NoError(tx1.Commit(s.ctx))
	s.ErrorIs(tx2.Commit(s.ctx), ledger.ErrConflict)
}

func (s *BackendSuite) TestDisjointWritersBothCommit() {
	tx1 := s.ledger.Begin()
	tx2 := s.ledger.Begin()
	_, err := tx1.GetState(s.ctx, "left")
	s.Require().NoError(err)
	_, err = tx2.GetState(s.ctx, "right")
	s.Require().NoError(err)
	s.Require().NoError(tx1.PutState(s.ctx, "left", []byte("1")))
	s.Require().NoError(tx2.PutState(s.ctx, "right", []byte("1")))

	s.NoError(tx1.Commit(s.ctx))
	s.NoError(tx2.Commit(s.ctx))
}
