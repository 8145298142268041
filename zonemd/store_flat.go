package zonemd

import (
	"fmt"
	"strings"

	"github.com/miekg/dns"
	cmap "github.com/orcaman/concurrent-map/v2"
)

// FlatStore indexes every owner name in the zone in a single concurrent map.
// Nothing here runs concurrently; the concurrent map is used purely as the
// owner-indexed container type, not for parallel access.
type FlatStore struct {
	owners cmap.ConcurrentMap[string, *OwnerData]
}

// NewFlatStore constructs an empty flat zone store.
func NewFlatStore() *FlatStore {
	return &FlatStore{owners: cmap.New[*OwnerData]()}
}

func ownerKey(name string) string {
	return strings.ToLower(dns.Fqdn(name))
}

func (s *FlatStore) Insert(rr dns.RR) error {
	key := ownerKey(rr.Header().Name)
	od, ok := s.owners.Get(key)
	if !ok {
		od = newOwnerData(rr.Header().Name)
		s.owners.Set(key, od)
	}
	od.insert(rr)
	return nil
}

func (s *FlatStore) Remove(rr dns.RR) error {
	key := ownerKey(rr.Header().Name)
	od, ok := s.owners.Get(key)
	if !ok {
		return fmt.Errorf("zonemd: no records at owner %s", rr.Header().Name)
	}
	if !od.remove(rr) {
		return fmt.Errorf("zonemd: record not found for removal at %s", rr.Header().Name)
	}
	if od.empty() {
		s.owners.Remove(key)
	}
	return nil
}

func (s *FlatStore) Owner(name string) (*OwnerData, bool) {
	return s.owners.Get(ownerKey(name))
}

func (s *FlatStore) ownerByKey(key string) (*OwnerData, bool) {
	return s.owners.Get(key)
}

func (s *FlatStore) ApexRecords(apex string, rrtype uint16) []dns.RR {
	od, ok := s.Owner(apex)
	if !ok {
		return nil
	}
	return od.RRtypes[rrtype]
}

func (s *FlatStore) AllRecords() []dns.RR {
	out := make([]dns.RR, 0, s.owners.Count())
	for item := range s.owners.IterBuffered() {
		out = append(out, item.Val.all()...)
	}
	return out
}

// Digest hashes the whole zone in one pass: canonical sort, duplicate
// coalescing, ZONEMD zeroization and RRSIG-over-ZONEMD exclusion, then a
// single hash.Write per remaining record.
func (s *FlatStore) Digest(apex string, alg HashAlgorithm, codec rdataCodec) ([]byte, error) {
	wire, err := digestWireBytes(s.AllRecords(), apex, codec)
	if err != nil {
		return nil, err
	}
	h, err := newHasher(alg)
	if err != nil {
		return nil, err
	}
	for _, rr := range wire {
		b, err := packWire(rr)
		if err != nil {
			return nil, err
		}
		h.Write(b)
	}
	return h.Sum(nil), nil
}
