package zonemd

import "github.com/miekg/dns"

// OwnerData holds every record kept under one owner name, grouped by type.
type OwnerData struct {
	Name    string
	RRtypes map[uint16][]dns.RR
}

func newOwnerData(name string) *OwnerData {
	return &OwnerData{Name: name, RRtypes: make(map[uint16][]dns.RR)}
}

func (o *OwnerData) insert(rr dns.RR) {
	t := rr.Header().Rrtype
	for _, existing := range o.RRtypes[t] {
		if equalRR(existing, rr) {
			return
		}
	}
	o.RRtypes[t] = append(o.RRtypes[t], rr)
}

func (o *OwnerData) remove(rr dns.RR) bool {
	t := rr.Header().Rrtype
	list := o.RRtypes[t]
	for i, existing := range list {
		if equalRR(existing, rr) {
			o.RRtypes[t] = append(list[:i:i], list[i+1:]...)
			if len(o.RRtypes[t]) == 0 {
				delete(o.RRtypes, t)
			}
			return true
		}
	}
	return false
}

func (o *OwnerData) all() []dns.RR {
	out := make([]dns.RR, 0)
	for _, list := range o.RRtypes {
		out = append(out, list...)
	}
	return out
}

func (o *OwnerData) empty() bool {
	return len(o.RRtypes) == 0
}

// Store holds a zone's records and can produce the digest of everything it
// holds. The flat and tree variants implement the same interface so the rest
// of the engine doesn't care which backend was selected at construction.
type Store interface {
	Insert(rr dns.RR) error
	Remove(rr dns.RR) error
	Owner(name string) (*OwnerData, bool)
	ApexRecords(apex string, rrtype uint16) []dns.RR
	AllRecords() []dns.RR
	Digest(apex string, alg HashAlgorithm, codec rdataCodec) ([]byte, error)
}
