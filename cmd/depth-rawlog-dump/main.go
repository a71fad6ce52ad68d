package main

import (
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"time"

	"github.com/fxamacker/cbor/v2"

	"synth-depth-go/internal/ingest"
	"synth-depth-go/internal/output"
)

func main() {
	var (
		path   = flag.String("path", "", "Path to rawlog .bin file")
		limit  = flag.Int("limit", 1, "Number of records to dump")
		frames = flag.Bool("frames", false, "Decode records as depth frames and print their shape only")
	)
	flag.Parse()

	if *path == "" {
		log.Fatal("path is required")
	}

	f, err := os.Open(*path)
	if err != nil {
		log.Fatalf("open rawlog: %v", err)
	}
	defer f.Close()

	reader, err := output.NewRawLogReader(f)
	if err != nil {
		log.Fatalf("%v", err)
	}

	for count := 0; *limit <= 0 || count < *limit; count++ {
		rec, err := reader.Next()
		if errors.Is(err, io.EOF) {
			return
		}
		if err != nil {
			log.Fatalf("read record: %v", err)
		}
		log.Printf("record %d timestamp=%s size=%d", count, rec.Timestamp.Format(time.RFC3339Nano), len(rec.Payload))
		if len(rec.Payload) == 0 {
			continue
		}

		if *frames {
			frame, err := ingest.DecodeFrame(rec.Payload)
			if err != nil {
				log.Printf("record %d: frame decode error: %v", count, err)
				continue
			}
			fmt.Printf("frame %d: %dx%d\n", frame.Index, frame.Rows, frame.Cols)
			continue
		}

		var decoded any
		if err := cbor.Unmarshal(rec.Payload, &decoded); err != nil {
			log.Printf("record %d: CBOR decode error: %v", count, err)
			continue
		}
		pretty, err := json.MarshalIndent(output.NormalizeJSONValue(decoded), "", "  ")
		if err != nil {
			log.Printf("record %d: JSON encode error: %v", count, err)
			continue
		}
		fmt.Println(string(pretty))
	}
}
