package ports

import (
	"sort"
	"testing"
)

func TestKeyRoundTrip(t *testing.T) {
	keys := []Key{
		AdminKey(),
		SubjectKey(42),
		BallotKey(42, "0xabc"),
		VoterHistoryKey("0xabc"),
		TargetIndexKey("flag", "review/7"),
		OutboxKey(18446744073709551615),
	}
	for _, key := range keys {
		parsed, err := ParseKey(key.String())
		if err != nil {
			t.Fatalf("parse %q failed: %v", key.String(), err)
		}
		if parsed != key {
			t.Fatalf("expected %+v, got %+v", key, parsed)
		}
	}
}

func TestKeyOrderingMatchesNumericOrder(t *testing.T) {
	raw := []string{OutboxKey(10).String(), OutboxKey(9).String(), OutboxKey(100).String()}
	sort.Strings(raw)
	want := []string{OutboxKey(9).String(), OutboxKey(10).String(), OutboxKey(100).String()}
	for i := range raw {
		if raw[i] != want[i] {
			t.Fatalf("unexpected order %v", raw)
		}
	}
}

func TestParseKeyRejectsMalformed(t *testing.T) {
	for _, raw := range []string{"", "subject", "subject/12", "vault/00000000000000000001/", "subject/x/"} {
		if _, err := ParseKey(raw); err == nil {
			t.Fatalf("expected %q to be rejected", raw)
		}
	}
}
