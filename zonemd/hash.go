package zonemd

import (
	"crypto/sha512"
	"fmt"
	"hash"
)

// newHasher returns the hash.Hash implementing alg, or an error if this
// engine cannot compute it. SHA-512 (algorithm 2) is a recognized ZONEMD
// algorithm that verify can report as present-but-unsupported; it is not
// wired to a hash.Hash here since nothing in the retrieved corpus exercises
// it and the spec only requires SHA-384 support end to end.
func newHasher(alg HashAlgorithm) (hash.Hash, error) {
	switch alg {
	case HashSHA384:
		return sha512.New384(), nil
	default:
		return nil, fmt.Errorf("zonemd: unsupported digest algorithm %d", alg)
	}
}

// algorithmSupported reports whether this engine can actually compute alg's
// digest, as opposed to merely recognizing its RDATA length (digestSize).
// SHA-512 (algorithm 2) is a real ZONEMD algorithm whose size is known but
// which nothing in the retrieved corpus exercises computing.
func algorithmSupported(alg HashAlgorithm) bool {
	_, err := newHasher(alg)
	return err == nil
}
