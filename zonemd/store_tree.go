package zonemd

import (
	"strings"

	"github.com/miekg/dns"
)

// DefaultTreeWidth is the branching factor used when none is configured.
const DefaultTreeWidth = 13

// treeNode is one node of the fixed-arity digest tree. It deliberately
// carries no parent back-reference: all ancestor-dirtying happens top-down
// during insert/remove, along the same path that routed the record, so
// nothing needs to walk upward later.
type treeNode struct {
	depth  int
	kids   []*treeNode     // len == width once allocated; nil entries are empty subtrees
	owners map[string]bool // leaf only: owner keys routed to this bucket
	digest []byte          // cached digest, valid when !dirty
	dirty  bool
}

// TreeStore is the incremental, tree-structured zone store. Records are kept
// in an embedded FlatStore for owner lookups and (unordered) enumeration;
// the tree only tracks which owner buckets are dirty and caches
// their digests, recomputing only the stale subtree on each Digest call.
type TreeStore struct {
	flat     *FlatStore
	root     *treeNode
	maxDepth int
	width    int
}

// NewTreeStore builds an empty tree-structured store with the given maximum
// depth and branching width. A maxDepth of 0 degenerates to a single leaf,
// i.e. the same single-pass behavior as FlatStore, just routed through the
// tree machinery.
func NewTreeStore(maxDepth, width int) *TreeStore {
	if width < 1 {
		width = 1
	}
	if maxDepth < 0 {
		maxDepth = 0
	}
	return &TreeStore{
		flat:     NewFlatStore(),
		root:     &treeNode{depth: 0},
		maxDepth: maxDepth,
		width:    width,
	}
}

// wireNameLower returns the lowercased wire encoding of name, used as the
// routing key: the on-the-wire label-length-prefixed form, not the
// presentation string, so that e.g. "Foo.EXAMPLE." and "foo.example." always
// land in the same bucket and escaped presentation forms never perturb
// routing.
func wireNameLower(name string) []byte {
	lower := strings.ToLower(dns.Fqdn(name))
	buf := make([]byte, 255)
	n, err := dns.PackDomainName(lower, buf, 0, nil, false)
	if err != nil {
		return []byte(lower)
	}
	return buf[:n]
}

// branchIndex is the routing function: branch = wire[depth % len(wire)] % width.
func branchIndex(depth int, wire []byte, width int) int {
	if len(wire) == 0 {
		return 0
	}
	pos := depth % len(wire)
	return int(wire[pos]) % width
}

// pathTo walks (optionally creating) the path from the root to the leaf
// bucket for wire, returning every node visited including the root and the
// leaf. This is the one and only traversal that may allocate tree nodes;
// digest computation never allocates.
func (t *TreeStore) pathTo(wire []byte, create bool) []*treeNode {
	path := make([]*treeNode, 0, t.maxDepth+1)
	node := t.root
	path = append(path, node)
	for depth := 0; depth < t.maxDepth; depth++ {
		branch := branchIndex(depth, wire, t.width)
		if node.kids == nil {
			if !create {
				return nil
			}
			node.kids = make([]*treeNode, t.width)
		}
		if node.kids[branch] == nil {
			if !create {
				return nil
			}
			node.kids[branch] = &treeNode{depth: depth + 1}
		}
		node = node.kids[branch]
		path = append(path, node)
	}
	return path
}

// onMutate is the single mutating lookup in this store: it records which
// leaf bucket name now belongs to (or removes it, if the owner has no
// records left) and marks every node on the path dirty up to the root. Only
// this function ever sets dirty, so a read-only digest recomputation pass
// can never accidentally invalidate a clean cached digest.
func (t *TreeStore) onMutate(name string) {
	wire := wireNameLower(name)
	path := t.pathTo(wire, true)
	leaf := path[len(path)-1]
	key := ownerKey(name)
	if leaf.owners == nil {
		leaf.owners = make(map[string]bool)
	}
	if _, stillPresent := t.flat.Owner(name); stillPresent {
		leaf.owners[key] = true
	} else {
		delete(leaf.owners, key)
	}
	for _, n := range path {
		n.dirty = true
	}
}

func (t *TreeStore) Insert(rr dns.RR) error {
	if err := t.flat.Insert(rr); err != nil {
		return err
	}
	t.onMutate(rr.Header().Name)
	return nil
}

func (t *TreeStore) Remove(rr dns.RR) error {
	if err := t.flat.Remove(rr); err != nil {
		return err
	}
	t.onMutate(rr.Header().Name)
	return nil
}

func (t *TreeStore) Owner(name string) (*OwnerData, bool) { return t.flat.Owner(name) }

func (t *TreeStore) ApexRecords(apex string, rrtype uint16) []dns.RR {
	return t.flat.ApexRecords(apex, rrtype)
}

func (t *TreeStore) AllRecords() []dns.RR { return t.flat.AllRecords() }

// Digest recomputes only the dirty part of the tree: a clean node returns
// its cached digest; a dirty leaf re-hashes its bucket's records; a dirty
// internal node re-hashes its children's (possibly still-cached) digests in
// branch-index order.
func (t *TreeStore) Digest(apex string, alg HashAlgorithm, codec rdataCodec) ([]byte, error) {
	return t.nodeDigest(t.root, apex, alg, codec)
}

func (t *TreeStore) nodeDigest(node *treeNode, apex string, alg HashAlgorithm, codec rdataCodec) ([]byte, error) {
	if !node.dirty && node.digest != nil {
		return node.digest, nil
	}

	h, err := newHasher(alg)
	if err != nil {
		return nil, err
	}

	if node.depth == t.maxDepth {
		rrs := make([]dns.RR, 0)
		for key := range node.owners {
			if od, ok := t.flat.ownerByKey(key); ok {
				rrs = append(rrs, od.all()...)
			}
		}
		wire, err := digestWireBytes(rrs, apex, codec)
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
	} else {
		for _, kid := range node.kids {
			if kid == nil {
				continue
			}
			d, err := t.nodeDigest(kid, apex, alg, codec)
			if err != nil {
				return nil, err
			}
			h.Write(d)
		}
	}

	node.digest = h.Sum(nil)
	node.dirty = false
	return node.digest, nil
}
