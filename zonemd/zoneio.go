package zonemd

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/miekg/dns"
)

// LoadZoneFile reads path into store, rejecting any record outside origin:
// dns.NewZoneParser over a buffered reader, SetIncludeAllowed(true), drain
// with Next() until it returns false, then check zp.Err().
func LoadZoneFile(origin, path string, store Store) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("zonemd: opening zone file %s: %w", path, err)
	}
	defer f.Close()
	return LoadZone(origin, f, store)
}

// LoadZone is LoadZoneFile's reader-based core, kept separate so tests can
// feed zone text without touching the filesystem.
func LoadZone(origin string, r io.Reader, store Store) error {
	apex := dns.Fqdn(origin)
	zp := dns.NewZoneParser(bufio.NewReader(r), apex, "")
	zp.SetIncludeAllowed(true)

	for rr, ok := zp.Next(); ok; rr, ok = zp.Next() {
		if !dns.IsSubDomain(apex, rr.Header().Name) {
			return fmt.Errorf("zonemd: record %s is outside zone %s", rr.Header().Name, apex)
		}
		if err := store.Insert(rr); err != nil {
			return err
		}
	}
	if err := zp.Err(); err != nil {
		return fmt.Errorf("zonemd: parsing zone %s: %w", apex, err)
	}
	return nil
}

// WriteZone writes every record in z's store to w in canonical order, one
// record per line in zone presentation format.
func WriteZone(w io.Writer, z *Zone) error {
	rrs := z.Store.AllRecords()
	sortCanonical(rrs)
	for _, rr := range rrs {
		if _, err := fmt.Fprintln(w, rr.String()); err != nil {
			return err
		}
	}
	return nil
}

// WriteZoneFile is WriteZone's filesystem-backed convenience wrapper.
func WriteZoneFile(path string, z *Zone) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("zonemd: creating output file %s: %w", path, err)
	}
	defer f.Close()
	return WriteZone(f, z)
}

// ApplyUpdateFile reads an incremental update file and applies it to z's
// store: lines are "add <RR>" or "del <RR>", one per line, blank lines and
// lines starting with ';' are ignored. del is the symmetric opposite of add:
// it removes the first record matching the given owner/type/RDATA exactly
// (via equalRR), and it is an error if no such record exists.
func ApplyUpdateFile(path string, z *Zone) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("zonemd: opening update file %s: %w", path, err)
	}
	defer f.Close()
	return ApplyUpdate(f, z)
}

// ApplyUpdate is ApplyUpdateFile's reader-based core.
func ApplyUpdate(r io.Reader, z *Zone) error {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), dns.MaxMsgSize)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, ";") {
			continue
		}
		op, rest, ok := strings.Cut(line, " ")
		if !ok {
			return fmt.Errorf("zonemd: update file line %d: malformed line %q", lineNo, line)
		}
		rest = strings.TrimSpace(rest)

		rr, err := dns.NewRR(rest)
		if err != nil {
			return fmt.Errorf("zonemd: update file line %d: parsing record %q: %w", lineNo, rest, err)
		}
		if !dns.IsSubDomain(z.Origin, rr.Header().Name) {
			return fmt.Errorf("zonemd: update file line %d: record %s is outside zone %s", lineNo, rr.Header().Name, z.Origin)
		}

		switch op {
		case "add":
			if err := z.Store.Insert(rr); err != nil {
				return fmt.Errorf("zonemd: update file line %d: %w", lineNo, err)
			}
		case "del":
			if err := z.Store.Remove(rr); err != nil {
				return fmt.Errorf("zonemd: update file line %d: %w", lineNo, err)
			}
		default:
			return fmt.Errorf("zonemd: update file line %d: unknown operation %q", lineNo, op)
		}
	}
	return scanner.Err()
}
