package keys

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "credverify/pkg/domain-errors"
)

func TestConstructors(t *testing.T) {
	tests := []struct {
		name string
		fn   func() (string, error)
		want string
	}{
		{"university key", func() (string, error) { return UniversityPublicKey("StateU") }, "universityPublicKeys_StateU"},
		{"student request", func() (string, error) { return StudentRequest("UniA", "alice") }, "RequestStudentToUni_UniA_alice"},
		{"verifier request", func() (string, error) { return VerifierRequest("alice", "acme") }, "RequestVerifierToStudent_alice_acme"},
		{"degree", func() (string, error) { return Degree("StateU", 12) }, "universityDegree_StateU_12"},
		{"records", func() (string, error) { return Records("alice") }, "records_alice"},
		{"counter", func() (string, error) { return DegreeCounter("StateU") }, "universityDegreeCounter_StateU"},
		{"student index", func() (string, error) { return StudentRequestIndex("alice", "UniA") }, "RequestStudentToUniByRequestor_alice_UniA"},
		{"verifier index", func() (string, error) { return VerifierRequestIndex("acme", "alice") }, "RequestVerifierToStudentByRequestor_acme_alice"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.fn()
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestEncodeRejectsAmbiguousOwners(t *testing.T) {
	_, err := StudentRequest("Uni_A", "alice")
	assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))

	_, err = Records("  ")
	assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))

	_, err = Degree("StateU", 0)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))

	_, err = Key{Kind: KindRecords, Owners: []string{"a", "b"}}.Encode()
	assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))

	_, err = Key{Kind: "bogus", Owners: []string{"a"}}.Encode()
	assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
}

func TestParsePicksLongestKind(t *testing.T) {
	k, err := Parse("universityDegreeCounter_StateU")
	require.NoError(t, err)
	assert.Equal(t, KindDegreeCounter, k.Kind)
	assert.Equal(t, []string{"StateU"}, k.Owners)

	k, err = Parse("RequestStudentToUniByRequestor_alice_UniA")
	require.NoError(t, err)
	assert.Equal(t, KindStudentRequestIndex, k.Kind)
}

func TestParseDegree(t *testing.T) {
	k, err := ParseDegree("universityDegree_StateU_7")
	require.NoError(t, err)
	assert.Equal(t, "StateU", k.University())
	seq, err := k.Sequence()
	require.NoError(t, err)
	assert.Equal(t, 7, seq)
	assert.Equal(t, "universityDegree_StateU_7", k.String())

	for _, raw := range []string{
		"records_alice",
		"universityDegree_StateU",
		"universityDegree_StateU_x",
		"universityDegree_State_U_1",
		"universityDegree__1",
		"nonsense",
	} {
		_, err := ParseDegree(raw)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeMalformed), raw)
	}
}

func TestIndexMapping(t *testing.T) {
	req, err := Parse("RequestVerifierToStudent_alice_acme")
	require.NoError(t, err)

	idx, ok := IndexFor(req)
	require.True(t, ok)
	assert.Equal(t, "RequestVerifierToStudentByRequestor_acme_alice", idx.String())

	back, ok := RequestFromIndex(idx)
	require.True(t, ok)
	assert.Equal(t, req, back)

	_, ok = IndexFor(Key{Kind: KindRecords, Owners: []string{"alice"}})
	assert.False(t, ok)
}

func TestDegreeScanRange(t *testing.T) {
	start, end := DegreeScanRange("UniA")
	assert.Equal(t, "universityDegree_UniA_1", start)
	assert.Equal(t, "universityDegree_UniA_9999999999", end)
}
