package zonemd

import (
	"crypto"
	"crypto/ecdsa"
	"crypto/ed25519"
	"crypto/elliptic"
	"encoding/base64"
	"fmt"
	"math/big"
	"os"
	"strings"
	"time"

	"github.com/miekg/dns"
	"golang.org/x/exp/rand"
	"gopkg.in/yaml.v3"
)

// defaultSigLifetime is the RRSIG validity window used when no explicit
// lifetime is configured: 30 days.
const defaultSigLifetime = 30 * 24 * 3600

// bindPrivateKey is the subset of BIND's private-key-format fields this
// engine understands. The format happens to be valid YAML (plain
// "Key: value" scalars), so yaml.Unmarshal works directly against the file
// without a bespoke parser.
type bindPrivateKey struct {
	Format     string `yaml:"Private-key-format"`
	Algorithm  string `yaml:"Algorithm"`
	PrivateKey string `yaml:"PrivateKey"`
}

// Signer holds a loaded zone-signing key, ready to sign the apex digest
// RRset.
type Signer struct {
	Key      *dns.DNSKEY
	signer   crypto.Signer
	Lifetime uint32 // seconds
}

// LoadSigner reads a BIND-format key pair (origin.key / origin.private) and
// prepares a Signer able to sign with it: read the public half to learn the
// algorithm and key tag, derive the sibling .private filename, and build a
// crypto.Signer from its key material.
func LoadSigner(pubkeyFile string) (*Signer, error) {
	pubBytes, err := os.ReadFile(pubkeyFile)
	if err != nil {
		return nil, fmt.Errorf("zonemd: reading public key %s: %w", pubkeyFile, err)
	}
	rr, err := dns.NewRR(string(pubBytes))
	if err != nil {
		return nil, fmt.Errorf("zonemd: parsing public key %s: %w", pubkeyFile, err)
	}
	dnskey, ok := rr.(*dns.DNSKEY)
	if !ok {
		return nil, fmt.Errorf("zonemd: %s does not contain a DNSKEY record", pubkeyFile)
	}

	privFile := strings.TrimSuffix(pubkeyFile, ".key") + ".private"
	privBytes, err := os.ReadFile(privFile)
	if err != nil {
		return nil, fmt.Errorf("zonemd: reading private key %s: %w", privFile, err)
	}

	var bpk bindPrivateKey
	if err := yaml.Unmarshal(privBytes, &bpk); err != nil {
		return nil, fmt.Errorf("zonemd: parsing private key %s: %w", privFile, err)
	}

	cs, err := bpk.cryptoSigner(dnskey.Algorithm)
	if err != nil {
		return nil, fmt.Errorf("zonemd: %s: %w", privFile, err)
	}

	return &Signer{Key: dnskey, signer: cs, Lifetime: defaultSigLifetime}, nil
}

// cryptoSigner builds a crypto.Signer from the key's base64 PrivateKey
// field. Only the single-scalar key formats (ED25519, ECDSA) are supported;
// RSA's multi-field private key format (Modulus/PrivateExponent/Prime1/...)
// isn't, since nothing in the retrieved corpus exercises RSA zone-signing
// key parsing to ground it against.
func (bpk bindPrivateKey) cryptoSigner(algorithm uint8) (crypto.Signer, error) {
	keyBytes, err := base64.StdEncoding.DecodeString(strings.TrimSpace(bpk.PrivateKey))
	if err != nil {
		return nil, fmt.Errorf("decoding PrivateKey field: %w", err)
	}

	switch algorithm {
	case dns.ED25519:
		if len(keyBytes) != ed25519.SeedSize {
			return nil, fmt.Errorf("ED25519 private key has wrong length %d", len(keyBytes))
		}
		return ed25519.NewKeyFromSeed(keyBytes), nil

	case dns.ECDSAP256SHA256, dns.ECDSAP384SHA384:
		curve := elliptic.P256()
		if algorithm == dns.ECDSAP384SHA384 {
			curve = elliptic.P384()
		}
		priv := new(ecdsa.PrivateKey)
		priv.PublicKey.Curve = curve
		priv.D = new(big.Int).SetBytes(keyBytes)
		priv.PublicKey.X, priv.PublicKey.Y = curve.ScalarBaseMult(keyBytes)
		return priv, nil

	default:
		return nil, fmt.Errorf("unsupported signing algorithm %d (only ED25519 and ECDSA are supported)", algorithm)
	}
}

// sigLifetime computes RRSIG inception/expiration with up to 60 seconds of
// jitter at each end, so resigning a zone repeatedly doesn't produce
// identical signature validity windows every time.
func sigLifetime(now time.Time, lifetime uint32) (inception, expiration uint32) {
	incJitter := uint32(rand.Intn(61))
	expJitter := uint32(rand.Intn(61))
	inception = uint32(now.Unix()) - incJitter
	expiration = inception + lifetime + expJitter
	return inception, expiration
}

// SignDigestRRset (re-)signs the apex digest RRset, removing any prior
// RRSIGs that covered ZONEMD, building one fresh RRSIG, and inserting it.
func (s *Signer) SignDigestRRset(z *Zone) error {
	rrset := z.apexDigestRecords()
	if len(rrset) == 0 {
		return fmt.Errorf("zonemd: no apex digest records to sign")
	}

	for _, old := range z.apexDigestRRSIGs() {
		if err := z.Store.Remove(old); err != nil {
			return err
		}
	}

	inception, expiration := sigLifetime(time.Now(), s.Lifetime)
	ttl := rrset[0].Header().Ttl

	rrsig := &dns.RRSIG{
		Hdr:         dns.RR_Header{Name: z.Origin, Rrtype: dns.TypeRRSIG, Class: dns.ClassINET, Ttl: ttl},
		TypeCovered: dns.TypeZONEMD,
		Algorithm:   s.Key.Algorithm,
		OrigTtl:     ttl,
		Expiration:  expiration,
		Inception:   inception,
		KeyTag:      s.Key.KeyTag(),
		SignerName:  s.Key.Hdr.Name,
	}
	if err := rrsig.Sign(s.signer, rrset); err != nil {
		return fmt.Errorf("zonemd: signing apex digest RRset: %w", err)
	}
	return z.Store.Insert(rrsig)
}
