package zonemd

import (
	"strings"

	"github.com/miekg/dns"
	"github.com/twotwotwo/sorts"
)

// canonicalLabels splits and lowercases a name into the label sequence used
// for RFC 4034 section 6.1 ordering: compare from the least significant
// (rightmost) label first.
func canonicalLabels(name string) []string {
	raw := dns.SplitDomainName(dns.Fqdn(name))
	labels := make([]string, len(raw))
	for i, l := range raw {
		labels[i] = strings.ToLower(l)
	}
	return labels
}

// canonicalNameLess reports whether a sorts before b in canonical DNS name
// order (RFC 4034 6.1): compare label by label starting at the rightmost
// (most significant) label; a name that is a proper prefix of another (once
// aligned from the right) sorts first.
func canonicalNameLess(a, b string) bool {
	la := canonicalLabels(a)
	lb := canonicalLabels(b)
	i, j := len(la)-1, len(lb)-1
	for i >= 0 && j >= 0 {
		if la[i] != lb[j] {
			return la[i] < lb[j]
		}
		i--
		j--
	}
	return len(la) < len(lb)
}

// rrList implements sort.Interface over canonical (owner, type, rdata) order.
// wires[i] is the wire RDATA of rrs[i], precomputed up front so Less only
// ever reads: sorts.Quicksort calls Less concurrently from multiple
// goroutines once the slice is large enough, and a lazily-filled shared map
// would race under that.
type rrList struct {
	rrs   []dns.RR
	wires [][]byte
}

func newRRList(rrs []dns.RR) *rrList {
	wires := make([][]byte, len(rrs))
	buf := make([]byte, dns.MaxMsgSize)
	for i, rr := range rrs {
		n, err := dns.PackRR(rr, buf, 0, nil, false)
		if err != nil {
			wires[i] = nil
			continue
		}
		// Skip the uncompressed owner name and the fixed 10-byte
		// type/class/TTL/RDLENGTH header, keeping only the RDATA.
		off := 0
		for off < n && buf[off] != 0 {
			off += int(buf[off]) + 1
		}
		off += 1 + 10
		if off > n {
			off = n
		}
		wires[i] = append([]byte(nil), buf[off:n]...)
	}
	return &rrList{rrs: rrs, wires: wires}
}

func (l *rrList) Len() int { return len(l.rrs) }

func (l *rrList) Swap(i, j int) {
	l.rrs[i], l.rrs[j] = l.rrs[j], l.rrs[i]
	l.wires[i], l.wires[j] = l.wires[j], l.wires[i]
}

func (l *rrList) Less(i, j int) bool {
	a, b := l.rrs[i], l.rrs[j]
	an, bn := a.Header().Name, b.Header().Name
	if an != bn {
		return canonicalNameLess(an, bn)
	}
	at, bt := a.Header().Rrtype, b.Header().Rrtype
	if at != bt {
		return at < bt
	}
	return string(l.wires[i]) < string(l.wires[j])
}

// sortCanonical sorts rrs in place into canonical zone order (owner, then
// type, then RDATA), using a parallel quicksort since zones can hold a large
// number of records.
func sortCanonical(rrs []dns.RR) {
	sorts.Quicksort(newRRList(rrs))
}

// equalRR reports whether two records are exact duplicates: same owner,
// class, type, TTL-independent RDATA. TTL is intentionally excluded from the
// comparison per RFC 8976's duplicate-record handling.
func equalRR(a, b dns.RR) bool {
	ah, bh := a.Header(), b.Header()
	if ah.Name != bh.Name || ah.Rrtype != bh.Rrtype || ah.Class != bh.Class {
		return false
	}
	return dns.IsDuplicate(a, b)
}
