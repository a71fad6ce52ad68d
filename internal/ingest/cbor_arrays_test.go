package ingest

import (
	"errors"
	"reflect"
	"testing"

	"github.com/fxamacker/cbor/v2"

	"synth-depth-go/internal/compression"
)

func TestDecodeMultiDimArrayUint8(t *testing.T) {
	value := cbor.Tag{
		Number: tagMultiDimArray,
		Content: []any{
			[]any{2, 2},
			cbor.Tag{
				Number:  tagUint8,
				Content: []byte{1, 2, 3, 4},
			},
		},
	}

	got, err := decodeMultiDimArray(value)
	if err != nil {
		t.Fatalf("decodeMultiDimArray error: %v", err)
	}
	if got.rows != 2 || got.cols != 2 {
		t.Fatalf("unexpected shape %dx%d", got.rows, got.cols)
	}

	want := []uint8{1, 2, 3, 4}
	if !reflect.DeepEqual(got.data, want) {
		t.Fatalf("decodeMultiDimArray mismatch: got %#v want %#v", got.data, want)
	}

	category, err := categoryValues(got)
	if err != nil {
		t.Fatalf("categoryValues: %v", err)
	}
	if !reflect.DeepEqual(category, []int32{1, 2, 3, 4}) {
		t.Fatalf("unexpected widened values %#v", category)
	}
}

func TestDecodeMultiDimArrayDimensionMismatch(t *testing.T) {
	value := cbor.Tag{
		Number: tagMultiDimArray,
		Content: []any{
			[]any{2, 3},
			cbor.Tag{Number: tagUint8, Content: []byte{1, 2, 3, 4}},
		},
	}
	if _, err := decodeMultiDimArray(value); !errors.Is(err, errDimensionMismatch) {
		t.Fatalf("expected dimension mismatch, got %v", err)
	}
}

func TestDecodeCompressedFloat32(t *testing.T) {
	tag, err := encodeFloat32Matrix(1, 3, []float32{8.1, 9.1, 0.5}, compression.AlgorithmZstd)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	payload, err := cbor.Marshal(tag)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var decoded any
	if err := cbor.Unmarshal(payload, &decoded); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}

	m, err := decodeMultiDimArray(decoded)
	if err != nil {
		t.Fatalf("decodeMultiDimArray: %v", err)
	}
	depth, err := depthValues(m)
	if err != nil {
		t.Fatalf("depthValues: %v", err)
	}
	if !reflect.DeepEqual(depth, []float32{8.1, 9.1, 0.5}) {
		t.Fatalf("unexpected depth %#v", depth)
	}
}

func TestCategoryValuesRejectsFloats(t *testing.T) {
	if _, err := categoryValues(matrix{rows: 1, cols: 1, data: []float32{1}}); err == nil {
		t.Fatalf("expected error for float category map")
	}
}
