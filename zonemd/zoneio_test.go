package zonemd

import (
	"strings"
	"testing"

	"github.com/miekg/dns"
)

func TestZoneSOARejectsZoneWithoutSOA(t *testing.T) {
	store := NewFlatStore()
	zonetext := `
example. 3600 IN NS ns1.example.
ns1.example. 3600 IN A 192.0.2.1
`
	if err := LoadZone("example", strings.NewReader(zonetext), store); err != nil {
		t.Fatalf("LoadZone: %s", err)
	}
	zone := NewZone("example", store, NewCodec(false))
	if _, err := zone.soa(); err == nil {
		t.Errorf("expected an error for a zone with no SOA record")
	}
}

func TestWriteZoneOutputReloadsSameRecordCount(t *testing.T) {
	store := NewFlatStore()
	if err := LoadZone("example", strings.NewReader(simpleZone), store); err != nil {
		t.Fatalf("LoadZone: %s", err)
	}
	zone := NewZone("example", store, NewCodec(false))

	var buf strings.Builder
	if err := WriteZone(&buf, zone); err != nil {
		t.Fatalf("WriteZone: %s", err)
	}

	reloaded := NewFlatStore()
	if err := LoadZone("example", strings.NewReader(buf.String()), reloaded); err != nil {
		t.Fatalf("re-parsing written zone: %s\n--- output ---\n%s", err, buf.String())
	}
	if len(reloaded.AllRecords()) != len(store.AllRecords()) {
		t.Errorf("round-tripping through WriteZone lost or gained records")
	}
}

func TestApplyUpdateRejectsOutOfZoneRecords(t *testing.T) {
	store := NewFlatStore()
	if err := LoadZone("example", strings.NewReader(simpleZone), store); err != nil {
		t.Fatalf("LoadZone: %s", err)
	}
	zone := NewZone("example", store, NewCodec(false))

	update := `add foo.test. 300 IN TXT "nope"` + "\n"
	if err := ApplyUpdate(strings.NewReader(update), zone); err == nil {
		t.Errorf("expected an error applying an update record outside the zone")
	}
}

func TestApplyUpdateSkipsBlankAndCommentLines(t *testing.T) {
	store := NewFlatStore()
	if err := LoadZone("example", strings.NewReader(simpleZone), store); err != nil {
		t.Fatalf("LoadZone: %s", err)
	}
	zone := NewZone("example", store, NewCodec(false))

	update := "\n; a comment\nadd extra.example. 300 IN TXT \"x\"\n"
	if err := ApplyUpdate(strings.NewReader(update), zone); err != nil {
		t.Fatalf("ApplyUpdate: %s", err)
	}
	if _, ok := store.Owner("extra.example."); !ok {
		t.Errorf("expected the add line to take effect despite surrounding blank/comment lines")
	}
}

func TestDigestWireBytesZeroizesApexZONEMD(t *testing.T) {
	rr, _ := dns.NewRR(`example. 3600 IN ZONEMD 1 1 1 aabbccdd`)
	codec := NewCodec(false)
	wire, err := digestWireBytes([]dns.RR{rr}, "example.", codec)
	if err != nil {
		t.Fatalf("digestWireBytes: %s", err)
	}
	if len(wire) != 1 {
		t.Fatalf("expected the apex ZONEMD record to remain (zeroized), got %d records", len(wire))
	}
	_, _, digest, err := codec.Unpack(wire[0])
	if err != nil {
		t.Fatalf("Unpack: %s", err)
	}
	for _, b := range digest {
		if b != 0 {
			t.Fatalf("expected a zeroized digest field, got %x", digest)
		}
	}
}
