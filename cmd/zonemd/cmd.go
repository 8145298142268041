package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/andreasschulze/ldns-zone-digest/zonemd"
)

var opts zonemd.Options
var algorithmInts []int

// enteredRun distinguishes a usage/argument-parsing error that cobra raises
// on its own (wrong positional count, unknown flag) from an error produced
// by run() itself, so Execute can map the former to the usage exit code too.
var enteredRun bool

var rootCmd = &cobra.Command{
	Use:   "zonemd ORIGIN [ZONEFILE]",
	Short: "Compute, insert, verify, and re-sign ZONEMD zone digests",
	Long:  "Compute, insert, verify, and re-sign ZONEMD zone digests.\nIf ZONEFILE is omitted, the zone is read from standard input.",
	Args:  cobra.RangeArgs(1, 2),
	RunE:  run,
}

func init() {
	flags := rootCmd.Flags()
	flags.BoolVarP(&opts.Calculate, "calculate", "c", false, "calculate digest(s) and patch apex records")
	flags.BoolVarP(&opts.Verify, "verify", "v", false, "verify digest(s); nonzero exit on mismatch")
	flags.IntSliceVarP(&algorithmInts, "placeholder", "p", nil, "add a placeholder apex digest of this algorithm (repeatable, up to 10)")
	flags.StringVarP(&opts.KeyFile, "key", "z", "", "zone-signing key file; enables resigning of digest RRSIGs")
	flags.StringVarP(&opts.UpdateFile, "update", "u", "", "apply an incremental update file after initial load")
	flags.StringVarP(&opts.OutFile, "output", "o", "", "write the resulting zone to this file")
	flags.BoolVarP(&opts.Timing, "timing", "t", false, "print elapsed-time breakdown to stdout")
	flags.BoolVarP(&opts.Quiet, "quiet", "q", false, "quiet mode (errors only)")
	flags.IntVarP(&opts.TreeDepth, "depth", "D", 0, "tree depth; 0 (default) selects the flat store")
	flags.IntVarP(&opts.TreeWidth, "width", "W", zonemd.DefaultTreeWidth, "tree width (tree variant only)")
	flags.BoolVar(&opts.LegacyRData, "legacy-rdata", false, "force opaque RDATA encoding for the digest record")
	flags.StringVar(&opts.LogFile, "logfile", "", "rotate logs to this file via lumberjack instead of stderr")
}

// Execute runs the root command, translating a returned error's kind into
// its corresponding process exit code. An error raised by cobra itself
// before run() is ever entered (unknown flag, wrong positional count) is a
// usage error and exits 2, same as a usage error raised by run().
func Execute() int {
	if err := rootCmd.Execute(); err != nil {
		if !enteredRun {
			return zonemd.ErrUsage.ExitCode()
		}
		return zonemd.ExitCode(err)
	}
	return 0
}

func run(cmd *cobra.Command, args []string) error {
	enteredRun = true

	opts.Origin = args[0]
	if len(args) > 1 {
		opts.ZoneFile = args[1]
	}

	algorithms := make([]zonemd.HashAlgorithm, len(algorithmInts))
	for i, v := range algorithmInts {
		if v < 0 || v > 255 {
			return zonemd.NewError(zonemd.ErrUsage, "algorithm %d is out of range", v)
		}
		algorithms[i] = zonemd.HashAlgorithm(v)
	}
	opts.Placeholders = make([]uint8, len(algorithmInts))
	for i, v := range algorithmInts {
		opts.Placeholders[i] = uint8(v)
	}

	if err := opts.Validate(); err != nil {
		return zonemd.NewError(zonemd.ErrUsage, "%s", err)
	}

	logger := zonemd.SetupLogging(opts.LogFile, opts.Quiet)

	var timings []string
	start := time.Now()
	mark := func(label string) {
		if !opts.Timing {
			return
		}
		timings = append(timings, fmt.Sprintf("%s: %s", label, time.Since(start)))
		start = time.Now()
	}

	var store zonemd.Store
	if opts.UsesTree() {
		store = zonemd.NewTreeStore(opts.TreeDepth, opts.TreeWidth)
	} else {
		store = zonemd.NewFlatStore()
	}
	codec := zonemd.NewCodec(opts.LegacyRData)
	zone := zonemd.NewZone(opts.Origin, store, codec)

	if opts.ZoneFile == "" {
		if err := zonemd.LoadZone(opts.Origin, os.Stdin, store); err != nil {
			return zonemd.NewError(zonemd.ErrIO, "%s", err)
		}
	} else if err := zonemd.LoadZoneFile(opts.Origin, opts.ZoneFile, store); err != nil {
		return zonemd.NewError(zonemd.ErrIO, "%s", err)
	}
	mark("load")

	var signer *zonemd.Signer
	if opts.KeyFile != "" {
		s, err := zonemd.LoadSigner(opts.KeyFile)
		if err != nil {
			return zonemd.NewError(zonemd.ErrSchema, "%s", err)
		}
		signer = s
	}

	if len(algorithms) > 0 {
		if err := zone.AddPlaceholders(algorithms); err != nil {
			return zonemd.NewError(zonemd.ErrSchema, "%s", err)
		}
	}
	mark("placeholders")

	if opts.Calculate {
		if err := zone.Calculate(signer); err != nil {
			return zonemd.NewError(zonemd.ErrSchema, "%s", err)
		}
	}
	mark("calculate")

	if opts.Verify {
		results, err := zone.Verify()
		if err != nil {
			return zonemd.NewError(zonemd.ErrSchema, "%s", err)
		}
		failed := false
		for _, r := range results {
			if !opts.Quiet {
				logger.Println(r.String())
			}
			if r.Failed() {
				failed = true
			}
		}
		if failed {
			return zonemd.NewError(zonemd.ErrDigestMismatch, "zone %s failed verification", opts.Origin)
		}
	}
	mark("verify")

	if opts.UpdateFile != "" {
		if err := zonemd.ApplyUpdateFile(opts.UpdateFile, zone); err != nil {
			return zonemd.NewError(zonemd.ErrIO, "%s", err)
		}
		if opts.Calculate {
			if err := zone.Calculate(signer); err != nil {
				return zonemd.NewError(zonemd.ErrSchema, "%s", err)
			}
		}
	}
	mark("update")

	if opts.OutFile != "" {
		if err := zonemd.WriteZoneFile(opts.OutFile, zone); err != nil {
			return zonemd.NewError(zonemd.ErrIO, "%s", err)
		}
	}

	if opts.Timing {
		for _, t := range timings {
			fmt.Println(t)
		}
	}

	return nil
}
