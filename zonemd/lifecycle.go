package zonemd

import (
	"bytes"
	"encoding/hex"
	"fmt"
)

// AddPlaceholders removes any existing apex digest records and inserts one
// zeroed placeholder per requested algorithm, each carrying the zone's
// current SOA serial. Duplicate algorithms are folded to their first
// occurrence; at most MaxPlaceholders may be requested in one call.
//
// Remove-then-rebuild rather than patch-in-place keeps a rerun idempotent
// regardless of what digest records were already present.
func (z *Zone) AddPlaceholders(algorithms []HashAlgorithm) error {
	if len(algorithms) == 0 {
		return fmt.Errorf("zonemd: at least one algorithm is required to add placeholders")
	}
	if len(algorithms) > MaxPlaceholders {
		return fmt.Errorf("zonemd: at most %d placeholder algorithms are allowed, got %d", MaxPlaceholders, len(algorithms))
	}

	seen := make(map[HashAlgorithm]bool, len(algorithms))
	dedup := make([]HashAlgorithm, 0, len(algorithms))
	for _, alg := range algorithms {
		if seen[alg] {
			continue
		}
		seen[alg] = true
		dedup = append(dedup, alg)
	}

	soa, err := z.soa()
	if err != nil {
		return err
	}

	for _, rr := range z.apexDigestRecords() {
		if err := z.Store.Remove(rr); err != nil {
			return err
		}
	}

	for _, alg := range dedup {
		size := digestSize(alg)
		if size == 0 {
			return fmt.Errorf("zonemd: unknown digest algorithm %d", alg)
		}
		placeholder := z.Codec.New(z.Origin, soa.Hdr.Ttl, soa.Serial, alg, make([]byte, size))
		if err := z.Store.Insert(placeholder); err != nil {
			return err
		}
	}
	return nil
}

// Calculate recomputes the digest for every apex digest record and replaces
// only its digest field; the embedded serial, algorithm and parameter are
// kept as they are. If signer is non-nil it is used to (re-)sign the apex digest
// RRset afterward, replacing any prior RRSIGs covering ZONEMD.
func (z *Zone) Calculate(signer *Signer) error {
	soa, err := z.soa()
	if err != nil {
		return err
	}

	records := z.apexDigestRecords()
	if len(records) == 0 {
		return fmt.Errorf("zonemd: zone %s has no apex digest record to calculate; run AddPlaceholders first", z.Origin)
	}

	for _, rr := range records {
		_, alg, _, err := z.Codec.Unpack(rr)
		if err != nil {
			return err
		}
		digest, err := z.Store.Digest(z.Origin, alg, z.Codec)
		if err != nil {
			return err
		}
		updated := z.Codec.WithDigest(rr, digest)
		if err := z.Store.Remove(rr); err != nil {
			return err
		}
		if err := z.Store.Insert(updated); err != nil {
			return err
		}
	}
	_ = soa // serial already embedded by AddPlaceholders; Calculate only patches digests

	if signer != nil {
		if err := signer.SignDigestRRset(z); err != nil {
			return err
		}
	}
	return nil
}

// VerifyResult reports the outcome of verifying every apex digest record.
type VerifyResult struct {
	Algorithm     HashAlgorithm
	SerialMatches bool
	DigestMatches bool
	Unsupported   bool
	Expected      []byte
	Got           []byte
}

// Verify recomputes the digest for every apex digest record and compares it
// (and the embedded serial) against what's stored, without mutating the
// zone. A record whose algorithm this engine cannot compute is reported as
// unsupported and does not count as a failure: unknown algorithms are
// skipped rather than treated as mismatches.
func (z *Zone) Verify() ([]VerifyResult, error) {
	soa, err := z.soa()
	if err != nil {
		return nil, err
	}

	records := z.apexDigestRecords()
	if len(records) == 0 {
		return nil, fmt.Errorf("zonemd: zone %s has no apex digest record to verify", z.Origin)
	}

	results := make([]VerifyResult, 0, len(records))
	for _, rr := range records {
		serial, alg, expected, err := z.Codec.Unpack(rr)
		if err != nil {
			return nil, err
		}
		if !algorithmSupported(alg) {
			results = append(results, VerifyResult{Algorithm: alg, Unsupported: true})
			continue
		}
		got, err := z.Store.Digest(z.Origin, alg, z.Codec)
		if err != nil {
			return nil, err
		}
		results = append(results, VerifyResult{
			Algorithm:     alg,
			SerialMatches: serial == soa.Serial,
			DigestMatches: bytes.Equal(expected, got),
			Expected:      expected,
			Got:           got,
		})
	}
	return results, nil
}

// Failed reports whether any supported result mismatched, for the CLI's
// exit-code decision.
func (r VerifyResult) Failed() bool {
	return !r.Unsupported && (!r.SerialMatches || !r.DigestMatches)
}

func (r VerifyResult) String() string {
	if r.Unsupported {
		return fmt.Sprintf("algorithm %d: unsupported, skipped", r.Algorithm)
	}
	if r.Failed() {
		return fmt.Sprintf("algorithm %d: FAILED (serial match=%v, expected digest %s, got %s)",
			r.Algorithm, r.SerialMatches, hex.EncodeToString(r.Expected), hex.EncodeToString(r.Got))
	}
	return fmt.Sprintf("algorithm %d: OK", r.Algorithm)
}
