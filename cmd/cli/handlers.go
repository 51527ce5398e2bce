package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/tunetrace/tunetrace/internal/audio"
	"github.com/tunetrace/tunetrace/internal/storage"
	"github.com/tunetrace/tunetrace/pkg/logger"
	"github.com/tunetrace/tunetrace/pkg/tunetrace"
)

// splitArgs separates the first positional argument from the flags that
// follow it.
func splitArgs(args []string) (string, []string) {
	var positional string
	var flagArgs []string
	for i, arg := range args {
		if !strings.HasPrefix(arg, "-") && positional == "" {
			positional = arg
		} else {
			flagArgs = append(flagArgs, args[i:]...)
			break
		}
	}
	return positional, flagArgs
}

func handleScan() {
	log := logger.GetLogger()

	wavPath, flagArgs := splitArgs(os.Args[2:])
	if wavPath == "" {
		fmt.Println("usage: tunetrace scan <audio.wav> -fp <trigger.fp> [flags]")
		os.Exit(1)
	}

	scanCmd := flag.NewFlagSet("scan", flag.ExitOnError)
	fpPath := scanCmd.String("fp", "", "Trigger fingerprint file (required)")
	offset := scanCmd.Int64("offset", 0, "Absolute stream offset of the buffer start, in ms")
	duration := scanCmd.Int64("duration", 0, "Buffer duration in seconds (default: derived from the WAV)")
	fpRate := scanCmd.Int64("fprate", 0, "Fingerprint rate in Hz (default: the WAV sample rate)")
	workers := scanCmd.Int("workers", 0, "Parallel window collection workers (0 = sequential)")
	debug := scanCmd.Bool("debug", false, "Keep scratch files and dump probe windows")
	save := scanCmd.Bool("save", false, "Persist the scan result to the database")
	asJSON := scanCmd.Bool("json", false, "Print the result as JSON")
	scanCmd.Parse(flagArgs)

	if *fpPath == "" {
		fmt.Println("scan: -fp <trigger.fp> is required")
		os.Exit(1)
	}

	samples, sampleRate, err := audio.ReadWAV(wavPath)
	if err != nil {
		log.Fatalf("reading %s: %v", wavPath, err)
	}
	trigger, err := os.ReadFile(*fpPath)
	if err != nil {
		log.Fatalf("reading %s: %v", *fpPath, err)
	}

	if *duration == 0 {
		*duration = int64(len(samples)) / int64(sampleRate)
	}
	if *fpRate == 0 {
		*fpRate = int64(sampleRate)
	}

	log.Infof("scanning %s: %s of PCM (%s), trigger fingerprint %s",
		wavPath,
		humanize.Bytes(uint64(2*len(samples))),
		(time.Duration(*duration) * time.Second).String(),
		humanize.Bytes(uint64(len(trigger))))

	opts := []tunetrace.Option{
		tunetrace.WithRootDir(rootDir),
		tunetrace.WithToolPath(toolPath),
		tunetrace.WithDebug(*debug),
		tunetrace.WithWorkers(*workers),
	}
	if *save {
		db, err := storage.NewClient(dbPath)
		if err != nil {
			log.Fatalf("opening database: %v", err)
		}
		opts = append(opts, tunetrace.WithStorage(db))
	}

	service, err := tunetrace.NewService(opts...)
	if err != nil {
		log.Fatalf("creating service: %v", err)
	}
	defer service.Close()

	result, err := service.Scan(context.Background(), &tunetrace.ScanRequest{
		SourceURL:          wavPath,
		DataOffset:         *offset,
		Samples:            samples,
		Size:               int64(len(samples)),
		SampleRate:         int64(sampleRate),
		Duration:           *duration,
		FingerprintRate:    *fpRate,
		TriggerFingerprint: trigger,
		TriggerSize:        int64(len(trigger)),
	})
	if err != nil {
		log.Fatalf("scan failed: %v", err)
	}

	if *asJSON {
		out, err := json.MarshalIndent(result, "", "  ")
		if err != nil {
			log.Fatalf("encoding result: %v", err)
		}
		fmt.Println(string(out))
		return
	}

	fmt.Printf("found %s trigger(s)\n", humanize.Comma(result.TagCounts))
	for i, tag := range result.LiveTags {
		desc := tag.Description
		if len(desc) > 48 {
			desc = desc[:48] + "..."
		}
		fmt.Printf("  %2d. position=%dms frame=%d score=%.3f similarity=%.3f payload=%s\n",
			i+1, tag.DataPosition, tag.MostSimilarFramePosition, tag.Score, tag.Similarity, desc)
	}
}

func handleFetch() {
	log := logger.GetLogger()

	url, flagArgs := splitArgs(os.Args[2:])
	if url == "" {
		fmt.Println("usage: tunetrace fetch <url> [-dir out]")
		os.Exit(1)
	}

	fetchCmd := flag.NewFlagSet("fetch", flag.ExitOnError)
	outDir := fetchCmd.String("dir", "audio", "Output directory")
	rate := fetchCmd.Int("rate", 11025, "Output WAV sample rate")
	fetchCmd.Parse(flagArgs)

	ctx := context.Background()
	rawPath, err := audio.FetchAudio(ctx, url, *outDir)
	if err != nil {
		log.Fatalf("fetching %s: %v", url, err)
	}
	wavPath, err := audio.ConvertToWAV(ctx, rawPath, *outDir, *rate)
	if err != nil {
		log.Fatalf("converting %s: %v", rawPath, err)
	}

	info, err := os.Stat(wavPath)
	if err != nil {
		log.Fatalf("stat %s: %v", wavPath, err)
	}
	fmt.Printf("saved %s (%s)\n", wavPath, humanize.Bytes(uint64(info.Size())))
}

func handleList() {
	log := logger.GetLogger()

	db, err := storage.NewClient(dbPath)
	if err != nil {
		log.Fatalf("opening database: %v", err)
	}
	defer db.Close()

	scans, err := db.ListScans()
	if err != nil {
		log.Fatalf("listing scans: %v", err)
	}
	if len(scans) == 0 {
		fmt.Println("no stored scans")
		return
	}
	for _, rec := range scans {
		fmt.Printf("%s  %-24s %2d tag(s)  %s\n",
			rec.ID, rec.Source, rec.TagCount, humanize.Time(rec.CreatedAt))
	}
}

func handleShow() {
	log := logger.GetLogger()

	id, _ := splitArgs(os.Args[2:])
	if id == "" {
		fmt.Println("usage: tunetrace show <scan-id>")
		os.Exit(1)
	}

	db, err := storage.NewClient(dbPath)
	if err != nil {
		log.Fatalf("opening database: %v", err)
	}
	defer db.Close()

	rec, err := db.GetScan(id)
	if err != nil {
		log.Fatalf("loading scan %s: %v", id, err)
	}
	fmt.Printf("scan %s\n", rec.ID)
	fmt.Printf("  source:           %s\n", rec.Source)
	fmt.Printf("  data offset:      %dms\n", rec.DataOffset)
	fmt.Printf("  duration:         %ds\n", rec.Duration)
	fmt.Printf("  sample rate:      %dHz\n", rec.SampleRate)
	fmt.Printf("  fingerprint rate: %dHz\n", rec.FingerprintRate)
	fmt.Printf("  created:          %s\n", humanize.Time(rec.CreatedAt))
	for i, tag := range rec.Tags {
		fmt.Printf("  %2d. position=%dms frame=%d score=%.3f similarity=%.3f\n",
			i+1, tag.DataPosition, tag.MostSimilarFramePosition, tag.Score, tag.Similarity)
	}
}

func handleDelete() {
	log := logger.GetLogger()

	id, _ := splitArgs(os.Args[2:])
	if id == "" {
		fmt.Println("usage: tunetrace delete <scan-id>")
		os.Exit(1)
	}

	db, err := storage.NewClient(dbPath)
	if err != nil {
		log.Fatalf("opening database: %v", err)
	}
	defer db.Close()

	if err := db.DeleteScan(id); err != nil {
		log.Fatalf("deleting scan %s: %v", id, err)
	}
	fmt.Printf("deleted scan %s\n", id)
}
