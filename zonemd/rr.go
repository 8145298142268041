package zonemd

import (
	"encoding/binary"
	"encoding/hex"
	"fmt"

	"github.com/miekg/dns"
)

// HashAlgorithm identifies a ZONEMD digest algorithm (RFC 8976 section 3).
type HashAlgorithm uint8

const (
	// HashSHA384 is the only digest algorithm this engine can produce.
	// Algorithm 2 (SHA-512) is recognized by name but cannot be computed
	// here; Verify reports it as unsupported and skips it rather than
	// treating it as a mismatch.
	HashSHA384 HashAlgorithm = 1
	HashSHA512 HashAlgorithm = 2
)

// digestSize returns the output length of alg, or 0 if unknown.
func digestSize(alg HashAlgorithm) int {
	switch alg {
	case HashSHA384:
		return 48
	case HashSHA512:
		return 64
	default:
		return 0
	}
}

// MaxPlaceholders bounds how many times -p may be given in one run.
const MaxPlaceholders = 10

// rdataCodec packs and unpacks ZONEMD RDATA. Exactly one implementation is
// chosen for a process run (see NewCodec), per the design note that the
// probe-vs-opaque decision belongs in a single policy object rather than
// scattered conditionals.
type rdataCodec interface {
	// New builds a ZONEMD record with the given field values.
	New(owner string, ttl uint32, serial uint32, alg HashAlgorithm, digest []byte) dns.RR
	// Unpack extracts the four RDATA fields from rr, which must have been
	// produced by this codec (or be a same-shaped record from a zone file).
	Unpack(rr dns.RR) (serial uint32, alg HashAlgorithm, digest []byte, err error)
	// WithDigest returns a clone of rr with only the digest field replaced.
	WithDigest(rr dns.RR, digest []byte) dns.RR
}

// NewCodec selects the RDATA encoding policy for this run. legacy forces the
// opaque RFC3597-style encoding used by DNS libraries that predate native
// ZONEMD support; the default uses the typed dns.ZONEMD record.
func NewCodec(legacy bool) rdataCodec {
	if legacy {
		return opaqueCodec{}
	}
	return typedCodec{}
}

// typedCodec uses the collaborator library's native ZONEMD type.
type typedCodec struct{}

func (typedCodec) New(owner string, ttl uint32, serial uint32, alg HashAlgorithm, digest []byte) dns.RR {
	return &dns.ZONEMD{
		Hdr: dns.RR_Header{
			Name:   owner,
			Rrtype: dns.TypeZONEMD,
			Class:  dns.ClassINET,
			Ttl:    ttl,
		},
		Serial: serial,
		Scheme: 0, // reserved parameter, written as zero (as opaqueCodec does)
		Hash:   uint8(alg),
		Digest: fmt.Sprintf("%x", digest),
	}
}

func (typedCodec) Unpack(rr dns.RR) (uint32, HashAlgorithm, []byte, error) {
	z, ok := rr.(*dns.ZONEMD)
	if !ok {
		return 0, 0, nil, fmt.Errorf("zonemd: record at %s is not a ZONEMD RR", rr.Header().Name)
	}
	digest, err := decodeHex(z.Digest)
	if err != nil {
		return 0, 0, nil, fmt.Errorf("zonemd: malformed digest field: %w", err)
	}
	return z.Serial, HashAlgorithm(z.Hash), digest, nil
}

func (c typedCodec) WithDigest(rr dns.RR, digest []byte) dns.RR {
	z := rr.(*dns.ZONEMD)
	clone := *z
	clone.Digest = fmt.Sprintf("%x", digest)
	return &clone
}

// opaqueCodec packs the four fields into a single unknown-type RDATA blob,
// for interoperating with libraries that don't know the native ZONEMD type:
// 4 bytes serial, 1 byte algorithm, 1 byte reserved parameter, then digest.
type opaqueCodec struct{}

func (opaqueCodec) New(owner string, ttl uint32, serial uint32, alg HashAlgorithm, digest []byte) dns.RR {
	rdata := packOpaque(serial, alg, digest)
	return &dns.RFC3597{
		Hdr: dns.RR_Header{
			Name:   owner,
			Rrtype: dns.TypeZONEMD,
			Class:  dns.ClassINET,
			Ttl:    ttl,
		},
		Rdata: hex.EncodeToString(rdata),
	}
}

func packOpaque(serial uint32, alg HashAlgorithm, digest []byte) []byte {
	buf := make([]byte, 4+1+1+len(digest))
	binary.BigEndian.PutUint32(buf[0:4], serial)
	buf[4] = byte(alg)
	buf[5] = 0 // reserved parameter
	copy(buf[6:], digest)
	return buf
}

func (opaqueCodec) Unpack(rr dns.RR) (uint32, HashAlgorithm, []byte, error) {
	r, ok := rr.(*dns.RFC3597)
	if !ok {
		return 0, 0, nil, fmt.Errorf("zonemd: record at %s is not an opaque RDATA RR", rr.Header().Name)
	}
	raw, err := decodeHex(r.Rdata)
	if err != nil {
		return 0, 0, nil, fmt.Errorf("zonemd: malformed opaque rdata: %w", err)
	}
	if len(raw) < 6 {
		return 0, 0, nil, fmt.Errorf("zonemd: opaque rdata too short (%d bytes)", len(raw))
	}
	serial := binary.BigEndian.Uint32(raw[0:4])
	alg := HashAlgorithm(raw[4])
	digest := raw[6:]
	return serial, alg, digest, nil
}

func (c opaqueCodec) WithDigest(rr dns.RR, digest []byte) dns.RR {
	serial, alg, _, err := c.Unpack(rr)
	if err != nil {
		// Caller is responsible for ensuring rr round-trips; surface a
		// zeroed record rather than panicking.
		serial, alg = 0, 0
	}
	clone := c.New(rr.Header().Name, rr.Header().Ttl, serial, alg, digest)
	return clone
}

func decodeHex(s string) ([]byte, error) {
	return hex.DecodeString(s)
}
