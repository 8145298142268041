package zonemd

import (
	"strings"
	"testing"
)

// Zone fixtures below are RFC 8976-style test zones carrying known-good
// ZONEMD digests, taken from RFC 8976's own worked examples.

const simpleZone = `
example.      86400   IN  SOA     ns1 admin 2018031900 1800 900 604800 86400
              86400   IN  NS      ns1
              86400   IN  NS      ns2
              86400   IN  ZONEMD  2018031900 1 1 c68090d90a7aed716bc459f9340e3d7c1370d4d24b7e2fc3a1ddc0b9a87153b9a9713b3c9ae5cc27777f98b8e730044c
ns1           3600    IN  A       203.0.113.63
ns2           3600    IN  AAAA    2001:db8::63
`

// complexZone exercises occluded names and consecutive-duplicate coalescing.
// It carries no out-of-zone record: this engine rejects those at load time
// rather than silently dropping them, so its embedded ZONEMD digest isn't
// reused here — these tests check self-consistency instead of a precomputed
// hash.
const complexZone = `
example.		86400   IN  SOA     ns1 admin 2018031900 1800 900 604800 86400
				86400   IN  NS      ns1
				86400   IN  NS      ns2
ns1				3600    IN  A       203.0.113.63
ns2				3600    IN  AAAA    2001:db8::63
occluded.sub	7200    IN  TXT     "I'm occluded but must be digested"
sub				7200    IN  NS      ns1
duplicate		300     IN  TXT     "I must be digested just once"
duplicate		300     IN  TXT     "I must be digested just once"
`

// outOfZoneZone is a zone text that carries one record outside origin.
const outOfZoneZone = `
example.      86400   IN  SOA     ns1 admin 2018031900 1800 900 604800 86400
              86400   IN  NS      ns1
ns1           3600    IN  A       203.0.113.63
foo.test.     555     IN  TXT     "out-of-zone data must be rejected"
`

const rootServersZone = `
root-servers.net.     3600000 IN  SOA     a.root-servers.net. nstld.verisign-grs.com. 2018091100 14400 7200 1209600 3600000
root-servers.net.     3600000 IN  NS      a.root-servers.net.
root-servers.net.     3600000 IN  NS      b.root-servers.net.
root-servers.net.     3600000 IN  NS      c.root-servers.net.
root-servers.net.     3600000 IN  NS      d.root-servers.net.
root-servers.net.     3600000 IN  NS      e.root-servers.net.
root-servers.net.     3600000 IN  NS      f.root-servers.net.
root-servers.net.     3600000 IN  NS      g.root-servers.net.
root-servers.net.     3600000 IN  NS      h.root-servers.net.
root-servers.net.     3600000 IN  NS      i.root-servers.net.
root-servers.net.     3600000 IN  NS      j.root-servers.net.
root-servers.net.     3600000 IN  NS      k.root-servers.net.
root-servers.net.     3600000 IN  NS      l.root-servers.net.
root-servers.net.     3600000 IN  NS      m.root-servers.net.
a.root-servers.net.   3600000 IN  AAAA    2001:503:ba3e::2:30
a.root-servers.net.   3600000 IN  A       198.41.0.4
b.root-servers.net.   3600000 IN  MX      20 mail.isi.edu.
b.root-servers.net.   3600000 IN  AAAA    2001:500:200::b
b.root-servers.net.   3600000 IN  A       199.9.14.201
c.root-servers.net.   3600000 IN  AAAA    2001:500:2::c
c.root-servers.net.   3600000 IN  A       192.33.4.12
d.root-servers.net.   3600000 IN  AAAA    2001:500:2d::d
d.root-servers.net.   3600000 IN  A       199.7.91.13
e.root-servers.net.   3600000 IN  AAAA    2001:500:a8::e
e.root-servers.net.   3600000 IN  A       192.203.230.10
f.root-servers.net.   3600000 IN  AAAA    2001:500:2f::f
f.root-servers.net.   3600000 IN  A       192.5.5.241
g.root-servers.net.   3600000 IN  AAAA    2001:500:12::d0d
g.root-servers.net.   3600000 IN  A       192.112.36.4
h.root-servers.net.   3600000 IN  AAAA    2001:500:1::53
h.root-servers.net.   3600000 IN  A       198.97.190.53
i.root-servers.net.   3600000 IN  MX      10 mx.i.root-servers.org.
i.root-servers.net.   3600000 IN  AAAA    2001:7fe::53
i.root-servers.net.   3600000 IN  A       192.36.148.17
j.root-servers.net.   3600000 IN  AAAA    2001:503:c27::2:30
j.root-servers.net.   3600000 IN  A       192.58.128.30
k.root-servers.net.   3600000 IN  AAAA    2001:7fd::1
k.root-servers.net.   3600000 IN  A       193.0.14.129
l.root-servers.net.   3600000 IN  AAAA    2001:500:9f::42
l.root-servers.net.   3600000 IN  A       199.7.83.42
m.root-servers.net.   3600000 IN  AAAA    2001:dc3::35
m.root-servers.net.   3600000 IN  A       202.12.27.33
root-servers.net.     3600000 IN  ZONEMD  2018091100 1 1 f1ca0ccd91bd5573d9f431c00ee0101b2545c97602be0a978a3b11dbfc1c776d5b3e86ae3d973d6b5349ba7f04340f79
`

// wrongRootServersZone has the last hex digit of the digest flipped.
const wrongRootServersZone = `
root-servers.net.     3600000 IN  SOA     a.root-servers.net. nstld.verisign-grs.com. 2018091100 14400 7200 1209600 3600000
root-servers.net.     3600000 IN  NS      a.root-servers.net.
root-servers.net.     3600000 IN  ZONEMD  2018091100 1 1 f1ca0ccd91bd5573d9f431c00ee0101b2545c97602be0a978a3b11dbfc1c776d5b3e86ae3d973d6b5349ba7f04340f78
`

func loadTestZone(t *testing.T, origin, zonetext string) *Zone {
	t.Helper()
	store := NewFlatStore()
	if err := LoadZone(origin, strings.NewReader(zonetext), store); err != nil {
		t.Fatalf("loading zone %s: %s", origin, err)
	}
	return NewZone(origin, store, NewCodec(false))
}

func verifyOK(t *testing.T, origin, zonetext string) {
	t.Helper()
	zone := loadTestZone(t, origin, zonetext)
	results, err := zone.Verify()
	if err != nil {
		t.Fatalf("Verify: %s", err)
	}
	for _, r := range results {
		if r.Failed() {
			t.Errorf("zone %s: %s", origin, r)
		}
	}
}

func TestVerifySimpleZone(t *testing.T) {
	verifyOK(t, "example", simpleZone)
}

func TestComplexZoneCalculateThenVerifyRoundTrips(t *testing.T) {
	zone := loadTestZone(t, "example", complexZone)
	if err := zone.AddPlaceholders([]HashAlgorithm{HashSHA384}); err != nil {
		t.Fatalf("AddPlaceholders: %s", err)
	}
	if err := zone.Calculate(nil); err != nil {
		t.Fatalf("Calculate: %s", err)
	}
	results, err := zone.Verify()
	if err != nil {
		t.Fatalf("Verify: %s", err)
	}
	for _, r := range results {
		if r.Failed() {
			t.Errorf("occluded/duplicate-heavy zone does not verify after calculate: %s", r)
		}
	}
}

func TestLoadZoneRejectsOutOfZoneRecords(t *testing.T) {
	store := NewFlatStore()
	err := LoadZone("example", strings.NewReader(outOfZoneZone), store)
	if err == nil {
		t.Fatalf("expected an error loading a zone with an out-of-zone record, got none")
	}
}

func TestVerifyRootServersZone(t *testing.T) {
	verifyOK(t, "root-servers.net", rootServersZone)
}

func TestVerifyWrongDigestFails(t *testing.T) {
	zone := loadTestZone(t, "root-servers.net", wrongRootServersZone)
	results, err := zone.Verify()
	if err != nil {
		t.Fatalf("Verify: %s", err)
	}
	found := false
	for _, r := range results {
		if r.Failed() {
			found = true
		}
	}
	if !found {
		t.Errorf("expected a verification failure for a tampered digest, got none")
	}
}

func TestCalculateThenVerifyRoundTrips(t *testing.T) {
	zone := loadTestZone(t, "example", simpleZone)
	if err := zone.AddPlaceholders([]HashAlgorithm{HashSHA384}); err != nil {
		t.Fatalf("AddPlaceholders: %s", err)
	}
	if err := zone.Calculate(nil); err != nil {
		t.Fatalf("Calculate: %s", err)
	}
	results, err := zone.Verify()
	if err != nil {
		t.Fatalf("Verify: %s", err)
	}
	for _, r := range results {
		if r.Failed() {
			t.Errorf("re-calculated digest does not verify: %s", r)
		}
	}
}

func TestDigestIsDeterministic(t *testing.T) {
	zoneA := loadTestZone(t, "example", complexZone)
	zoneB := loadTestZone(t, "example", complexZone)

	digestA, err := zoneA.Store.Digest(zoneA.Origin, HashSHA384, zoneA.Codec)
	if err != nil {
		t.Fatalf("Digest: %s", err)
	}
	digestB, err := zoneB.Store.Digest(zoneB.Origin, HashSHA384, zoneB.Codec)
	if err != nil {
		t.Fatalf("Digest: %s", err)
	}
	if string(digestA) != string(digestB) {
		t.Errorf("digest is not deterministic across independent loads of the same zone")
	}
}

// A tree of depth > 0 hashes its children's digests rather than the records
// themselves, so its digest differs from the flat store's for the same zone.
func TestFlatAndTreeDigestsDiffer(t *testing.T) {
	flat := NewFlatStore()
	tree := NewTreeStore(2, DefaultTreeWidth)

	if err := LoadZone("example", strings.NewReader(complexZone), flat); err != nil {
		t.Fatalf("loading into flat store: %s", err)
	}
	if err := LoadZone("example", strings.NewReader(complexZone), tree); err != nil {
		t.Fatalf("loading into tree store: %s", err)
	}

	codec := NewCodec(false)
	flatDigest, err := flat.Digest("example.", HashSHA384, codec)
	if err != nil {
		t.Fatalf("flat Digest: %s", err)
	}
	treeDigest, err := tree.Digest("example.", HashSHA384, codec)
	if err != nil {
		t.Fatalf("tree Digest: %s", err)
	}
	if string(flatDigest) == string(treeDigest) {
		t.Errorf("depth-2 tree store produced the flat store's digest for the same zone")
	}
}
