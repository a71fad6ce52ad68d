package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sort"

	"synth-depth-go/internal/config"
	"synth-depth-go/internal/ingest"
	"synth-depth-go/internal/processing"
)

func main() {
	path := flag.String("path", "", "Path to CBOR frame container or directory")
	limit := flag.Int("limit", 5, "Max number of frames to describe")
	flag.Parse()

	if *path == "" {
		log.Fatal("missing -path")
	}

	files, err := listFiles(*path)
	if err != nil {
		log.Fatalf("list files: %v", err)
	}

	calib := config.DefaultCalibration()
	var frameCount, emptyCount, failedCount int

	for _, file := range files {
		data, err := os.ReadFile(file)
		if err != nil {
			log.Printf("read %s: %v", file, err)
			failedCount++
			continue
		}

		frame, err := ingest.DecodeFrame(data)
		if err != nil {
			log.Printf("decode %s: %v", file, err)
			failedCount++
			continue
		}
		frameCount++

		img, stats, err := processing.NormalizeDepth(frame, calib)
		if err != nil {
			log.Printf("normalize %s: %v", file, err)
			failedCount++
			continue
		}
		if img == nil {
			emptyCount++
		}
		if frameCount <= *limit {
			fmt.Printf("frame: %s\n", file)
			fmt.Printf("  dims: %dx%d\n", frame.Rows, frame.Cols)
			fmt.Printf("  categories: %v\n", categoryCounts(frame.Category))
			fmt.Printf("  foreground: %d max: %.4f mean_depth: %.4f\n", stats.ForegroundPixels, stats.Max, stats.MeanDepth)
		}
	}

	fmt.Printf("summary: frames=%d empty=%d failed=%d\n", frameCount, emptyCount, failedCount)
}

func categoryCounts(category []int32) map[int32]int {
	counts := map[int32]int{}
	for _, c := range category {
		counts[c]++
	}
	return counts
}

func listFiles(path string) ([]string, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, err
	}
	if !info.IsDir() {
		return []string{path}, nil
	}

	entries, err := os.ReadDir(path)
	if err != nil {
		return nil, err
	}
	var files []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if filepath.Ext(entry.Name()) == ".cbor" {
			files = append(files, filepath.Join(path, entry.Name()))
		}
	}
	sort.Strings(files)
	return files, nil
}
