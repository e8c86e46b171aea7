// Package keys encodes and parses the composite ledger keys that identify every
// credential record. A key is its kind followed by a fixed number of owner names,
// joined by an underscore.
package keys

import (
	"fmt"
	"strconv"
	"strings"

	"credverify/internal/ledger"
	dErrors "credverify/pkg/domain-errors"
)

// Separator joins the kind and owner components of a key.
const Separator = "_"

// Kind identifies the entity a key addresses.
type Kind string

const (
	KindUniversityPublicKey  Kind = "universityPublicKeys"
	KindStudentRequest       Kind = "RequestStudentToUni"
	KindVerifierRequest      Kind = "RequestVerifierToStudent"
	KindDegree               Kind = "universityDegree"
	KindRecords              Kind = "records"
	KindDegreeCounter        Kind = "universityDegreeCounter"
	KindStudentRequestIndex  Kind = "RequestStudentToUniByRequestor"
	KindVerifierRequestIndex Kind = "RequestVerifierToStudentByRequestor"
)

var arity = map[Kind]int{
	KindUniversityPublicKey:  1,
	KindStudentRequest:       2,
	KindVerifierRequest:      2,
	KindDegree:               2,
	KindRecords:              1,
	KindDegreeCounter:        1,
	KindStudentRequestIndex:  2,
	KindVerifierRequestIndex: 2,
}

// Prefix returns the range-scan prefix shared by every key of kind.
func (k Kind) Prefix() string {
	return string(k) + Separator
}

// IsRequest reports whether kind addresses a workflow request record.
func (k Kind) IsRequest() bool {
	return k == KindStudentRequest || k == KindVerifierRequest
}

// Key is a structured ledger key.
type Key struct {
	Kind   Kind
	Owners []string
}

// String returns the canonical encoding. It does not validate; use Encode for
// keys built from user input.
func (k Key) String() string {
	return string(k.Kind) + Separator + strings.Join(k.Owners, Separator)
}

// Encode validates k and returns its canonical encoding.
func (k Key) Encode() (string, error) {
	n, ok := arity[k.Kind]
	if !ok {
		return "", dErrors.New(dErrors.CodeInvalidInput, fmt.Sprintf("unknown key kind %q", k.Kind))
	}
	if len(k.Owners) != n {
		return "", dErrors.New(dErrors.CodeInvalidInput,
			fmt.Sprintf("%s key needs %d owner(s), got %d", k.Kind, n, len(k.Owners)))
	}
	for _, owner := range k.Owners {
		if err := ValidateOwner(owner); err != nil {
			return "", err
		}
	}
	return k.String(), nil
}

// Owner returns the i-th owner component, or "" when out of range.
func (k Key) Owner(i int) string {
	if i < 0 || i >= len(k.Owners) {
		return ""
	}
	return k.Owners[i]
}

// University returns the issuing university of a degree key.
func (k Key) University() string {
	if k.Kind != KindDegree {
		return ""
	}
	return k.Owner(0)
}

// Sequence returns the sequence number of a degree key.
func (k Key) Sequence() (int, error) {
	if k.Kind != KindDegree {
		return 0, dErrors.New(dErrors.CodeMalformed, fmt.Sprintf("%s key has no sequence", k.Kind))
	}
	seq, err := strconv.Atoi(k.Owner(1))
	if err != nil || seq < 1 {
		return 0, dErrors.New(dErrors.CodeMalformed, fmt.Sprintf("invalid degree sequence %q", k.Owner(1)))
	}
	return seq, nil
}

// ValidateOwner rejects names that would make a key ambiguous.
func ValidateOwner(owner string) error {
	if strings.TrimSpace(owner) == "" {
		return dErrors.New(dErrors.CodeInvalidInput, "owner name must not be empty")
	}
	if strings.Contains(owner, Separator) {
		return dErrors.New(dErrors.CodeInvalidInput,
			fmt.Sprintf("owner name %q must not contain %q", owner, Separator))
	}
	return nil
}

// Parse splits raw into its kind and owners.
//
// Kind names share prefixes (universityDegree vs universityDegreeCounter), so the
// longest kind whose prefix matches wins.
func Parse(raw string) (Key, error) {
	var kind Kind
	for k := range arity {
		if strings.HasPrefix(raw, k.Prefix()) && len(k) > len(kind) {
			kind = k
		}
	}
	if kind == "" {
		return Key{}, dErrors.New(dErrors.CodeMalformed, fmt.Sprintf("unrecognised key %q", raw))
	}
	rest := strings.TrimPrefix(raw, kind.Prefix())
	owners := strings.Split(rest, Separator)
	if len(owners) != arity[kind] {
		return Key{}, dErrors.New(dErrors.CodeMalformed,
			fmt.Sprintf("%s key %q needs %d owner(s)", kind, raw, arity[kind]))
	}
	for _, owner := range owners {
		if owner == "" {
			return Key{}, dErrors.New(dErrors.CodeMalformed, fmt.Sprintf("key %q has an empty owner", raw))
		}
	}
	return Key{Kind: kind, Owners: owners}, nil
}

// ParseDegree parses raw and requires it to be a degree key.
func ParseDegree(raw string) (Key, error) {
	k, err := Parse(raw)
	if err != nil {
		return Key{}, err
	}
	if k.Kind != KindDegree {
		return Key{}, dErrors.New(dErrors.CodeMalformed, fmt.Sprintf("%q is not a degree id", raw))
	}
	if _, err := k.Sequence(); err != nil {
		return Key{}, err
	}
	return k, nil
}

func encode(kind Kind, owners ...string) (string, error) {
	return Key{Kind: kind, Owners: owners}.Encode()
}

func UniversityPublicKey(uni string) (string, error) {
	return encode(KindUniversityPublicKey, uni)
}

// StudentRequest is keyed recipient first: the university, then the student.
func StudentRequest(uni, student string) (string, error) {
	return encode(KindStudentRequest, uni, student)
}

// VerifierRequest is keyed recipient first: the student, then the verifier.
func VerifierRequest(student, verifier string) (string, error) {
	return encode(KindVerifierRequest, student, verifier)
}

func Degree(uni string, seq int) (string, error) {
	if seq < 1 {
		return "", dErrors.New(dErrors.CodeInvalidInput, fmt.Sprintf("degree sequence must be positive, got %d", seq))
	}
	return encode(KindDegree, uni, strconv.Itoa(seq))
}

func Records(user string) (string, error) {
	return encode(KindRecords, user)
}

func DegreeCounter(uni string) (string, error) {
	return encode(KindDegreeCounter, uni)
}

func StudentRequestIndex(student, uni string) (string, error) {
	return encode(KindStudentRequestIndex, student, uni)
}

func VerifierRequestIndex(verifier, student string) (string, error) {
	return encode(KindVerifierRequestIndex, verifier, student)
}

// IndexKind returns the requestor index kind for a request kind.
func IndexKind(request Kind) (Kind, bool) {
	switch request {
	case KindStudentRequest:
		return KindStudentRequestIndex, true
	case KindVerifierRequest:
		return KindVerifierRequestIndex, true
	default:
		return "", false
	}
}

// RequestFromIndex maps a requestor index key back to the primary request key.
func RequestFromIndex(index Key) (Key, bool) {
	switch index.Kind {
	case KindStudentRequestIndex:
		return Key{Kind: KindStudentRequest, Owners: []string{index.Owner(1), index.Owner(0)}}, true
	case KindVerifierRequestIndex:
		return Key{Kind: KindVerifierRequest, Owners: []string{index.Owner(1), index.Owner(0)}}, true
	default:
		return Key{}, false
	}
}

// IndexFor maps a primary request key to its requestor index key.
func IndexFor(request Key) (Key, bool) {
	kind, ok := IndexKind(request.Kind)
	if !ok {
		return Key{}, false
	}
	return Key{Kind: kind, Owners: []string{request.Owner(1), request.Owner(0)}}, true
}

// DegreeScanRange is the legacy range covering every degree of uni.
func DegreeScanRange(uni string) (string, string) {
	base := KindDegree.Prefix() + uni + Separator
	return base + "1", base + "9999999999"
}

// PrefixRange returns the half-open range covering every key that starts with prefix.
func PrefixRange(prefix string) (string, string) {
	return ledger.PrefixRange(prefix)
}
