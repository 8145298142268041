package zonemd

import (
	"strings"

	"github.com/miekg/dns"
)

// digestWireBytes returns the records that participate in a digest
// computation, in the order and form that gets hashed (packWire turns each
// into its wire bytes), after:
//
//   - sorting into canonical order,
//   - coalescing consecutive exact duplicates (RFC 8976 section 3.3),
//   - zeroizing the digest field of any apex ZONEMD record matching codec,
//     so the record covers itself,
//   - excluding RRSIGs whose type-covered is ZONEMD (the signature over the
//     digest record cannot itself be part of what it signs).
//
// rrs is sorted in place; the returned slice shares no backing array with
// any RR's own fields (zeroized clones are substituted, not mutated in place).
func digestWireBytes(rrs []dns.RR, apex string, codec rdataCodec) ([]dns.RR, error) {
	sortCanonical(rrs)

	out := make([]dns.RR, 0, len(rrs))
	var prev dns.RR
	for _, rr := range rrs {
		if prev != nil && equalRR(prev, rr) {
			continue
		}
		prev = rr

		if sig, ok := rr.(*dns.RRSIG); ok && sig.TypeCovered == dns.TypeZONEMD {
			continue
		}

		if rr.Header().Rrtype == dns.TypeZONEMD && strings.EqualFold(rr.Header().Name, apex) {
			_, _, digest, err := codec.Unpack(rr)
			if err != nil {
				return nil, err
			}
			zero := make([]byte, len(digest))
			out = append(out, codec.WithDigest(rr, zero))
			continue
		}

		out = append(out, rr)
	}
	return out, nil
}

// packWire encodes rr to wire form for hashing, using a fresh buffer sized
// to the largest message a zone record can need.
func packWire(rr dns.RR) ([]byte, error) {
	buf := make([]byte, dns.MaxMsgSize)
	n, err := dns.PackRR(rr, buf, 0, nil, false)
	if err != nil {
		return nil, err
	}
	return buf[:n], nil
}
