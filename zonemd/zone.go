package zonemd

import (
	"fmt"

	"github.com/miekg/dns"
)

// Zone binds a record store to the apex name it digests and the RDATA
// encoding policy in effect for this run.
type Zone struct {
	Origin string
	Store  Store
	Codec  rdataCodec
}

// NewZone constructs a Zone over an already-selected store backend.
func NewZone(origin string, store Store, codec rdataCodec) *Zone {
	return &Zone{Origin: dns.Fqdn(origin), Store: store, Codec: codec}
}

// soa returns the zone's apex SOA record, the source of the serial number
// that a ZONEMD placeholder embeds.
func (z *Zone) soa() (*dns.SOA, error) {
	rrs := z.Store.ApexRecords(z.Origin, dns.TypeSOA)
	if len(rrs) != 1 {
		return nil, fmt.Errorf("zonemd: zone %s must have exactly one apex SOA record, found %d", z.Origin, len(rrs))
	}
	soa, ok := rrs[0].(*dns.SOA)
	if !ok {
		return nil, fmt.Errorf("zonemd: apex SOA record at %s has the wrong RR type", z.Origin)
	}
	return soa, nil
}

// apexDigestRecords returns the ZONEMD (or opaque-equivalent) records
// currently at the apex.
func (z *Zone) apexDigestRecords() []dns.RR {
	return z.Store.ApexRecords(z.Origin, dns.TypeZONEMD)
}

// apexDigestRRSIGs returns the RRSIGs at the apex whose type-covered is
// ZONEMD, i.e. the signatures over the digest RRset.
func (z *Zone) apexDigestRRSIGs() []dns.RR {
	var out []dns.RR
	for _, rr := range z.Store.ApexRecords(z.Origin, dns.TypeRRSIG) {
		if sig, ok := rr.(*dns.RRSIG); ok && sig.TypeCovered == dns.TypeZONEMD {
			out = append(out, rr)
		}
	}
	return out
}
