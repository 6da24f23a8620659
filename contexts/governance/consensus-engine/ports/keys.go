package ports

import (
	"fmt"
	"strconv"
	"strings"
)

type KeyKind string

const (
	KeyAdmin         KeyKind = "admin"
	KeyConfig        KeyKind = "config"
	KeyFees          KeyKind = "fees"
	KeySubjectSeq    KeyKind = "subject_seq"
	KeySubject       KeyKind = "subject"
	KeyBallot        KeyKind = "ballot"
	KeySubjectVoters KeyKind = "subject_voters"
	KeyVoterHistory  KeyKind = "voter_history"
	KeyProfile       KeyKind = "profile"
	KeyRole          KeyKind = "role"
	KeyTargetIndex   KeyKind = "target_index"
	KeyContentStatus KeyKind = "content_status"
	KeyRelease       KeyKind = "release"
	KeyOutboxSeq     KeyKind = "outbox_seq"
	KeyOutbox        KeyKind = "outbox"
)

var keyKinds = map[KeyKind]struct{}{
	KeyAdmin: {}, KeyConfig: {}, KeyFees: {}, KeySubjectSeq: {}, KeySubject: {},
	KeyBallot: {}, KeySubjectVoters: {}, KeyVoterHistory: {}, KeyProfile: {},
	KeyRole: {}, KeyTargetIndex: {}, KeyContentStatus: {}, KeyRelease: {},
	KeyOutboxSeq: {}, KeyOutbox: {},
}

func (k KeyKind) Valid() bool {
	_, ok := keyKinds[k]
	return ok
}

// Key addresses one ledger value. Singletons leave ID and Address empty;
// composite keys such as ballots use both.
type Key struct {
	Kind    KeyKind
	ID      uint64
	Address string
}

// String renders the canonical storage form. IDs are zero padded so lexical
// order equals numeric order inside a kind.
func (k Key) String() string {
	return fmt.Sprintf("%s/%020d/%s", k.Kind, k.ID, k.Address)
}

// Prefix is the common prefix of every key of a kind.
func (k KeyKind) Prefix() string {
	return string(k) + "/"
}

func ParseKey(raw string) (Key, error) {
	parts := strings.SplitN(raw, "/", 3)
	if len(parts) != 3 {
		return Key{}, fmt.Errorf("malformed ledger key %q", raw)
	}
	kind := KeyKind(parts[0])
	if !kind.Valid() {
		return Key{}, fmt.Errorf("unknown ledger key kind %q", parts[0])
	}
	id, err := strconv.ParseUint(parts[1], 10, 64)
	if err != nil {
		return Key{}, fmt.Errorf("malformed ledger key id %q: %w", raw, err)
	}
	return Key{Kind: kind, ID: id, Address: parts[2]}, nil
}

func AdminKey() Key { return Key{Kind: KeyAdmin} }
func ConfigKey() Key { return Key{Kind: KeyConfig} }
func FeesKey() Key { return Key{Kind: KeyFees} }
func SubjectSeqKey() Key { return Key{Kind: KeySubjectSeq} }
func OutboxSeqKey() Key { return Key{Kind: KeyOutboxSeq} }
func SubjectKey(id uint64) Key { return Key{Kind: KeySubject, ID: id} }
func SubjectVotersKey(id uint64) Key { return Key{Kind: KeySubjectVoters, ID: id} }
func ReleaseKey(id uint64) Key { return Key{Kind: KeyRelease, ID: id} }
func OutboxKey(seq uint64) Key { return Key{Kind: KeyOutbox, ID: seq} }

func BallotKey(subjectID uint64, voter string) Key {
	return Key{Kind: KeyBallot, ID: subjectID, Address: voter}
}

func VoterHistoryKey(voter string) Key { return Key{Kind: KeyVoterHistory, Address: voter} }
func ProfileKey(voter string) Key { return Key{Kind: KeyProfile, Address: voter} }
func RoleKey(address string) Key { return Key{Kind: KeyRole, Address: address} }
func ContentStatusKey(target string) Key { return Key{Kind: KeyContentStatus, Address: target} }

// TargetIndexKey maps (kind, target) to the subject opened for it.
func TargetIndexKey(kind string, target string) Key {
	return Key{Kind: KeyTargetIndex, Address: kind + ":" + target}
}
