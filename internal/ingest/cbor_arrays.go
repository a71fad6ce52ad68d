package ingest

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"

	"github.com/fxamacker/cbor/v2"

	"synth-depth-go/internal/compression"
)

// RFC 8746 typed array tags plus the compressed-payload wrapper.
const (
	tagMultiDimArray = 40
	tagUint8         = 64
	tagUint16LE      = 69
	tagUint32LE      = 70
	tagSint8         = 72
	tagSint16LE      = 77
	tagSint32LE      = 78
	tagFloat32LE     = 85
	tagFloat64LE     = 86
	tagCompressed    = 56500
)

var errDimensionMismatch = errors.New("dimension mismatch")

type matrix struct {
	rows int
	cols int
	data any
}

func decodeMultiDimArray(value any) (matrix, error) {
	tag, ok := value.(cbor.Tag)
	if !ok || tag.Number != tagMultiDimArray {
		return matrix{}, fmt.Errorf("expected multidim tag 40")
	}

	items, ok := tag.Content.([]any)
	if !ok || len(items) != 2 {
		return matrix{}, fmt.Errorf("invalid multidim array content")
	}

	dimsRaw, ok := items[0].([]any)
	if !ok || len(dimsRaw) != 2 {
		return matrix{}, fmt.Errorf("invalid multidim dimensions")
	}

	rows, err := toInt(dimsRaw[0])
	if err != nil {
		return matrix{}, err
	}
	cols, err := toInt(dimsRaw[1])
	if err != nil {
		return matrix{}, err
	}
	if rows < 0 || cols < 0 {
		return matrix{}, fmt.Errorf("negative dimensions %dx%d", rows, cols)
	}

	flat, n, err := decodeTypedArray(items[1])
	if err != nil {
		return matrix{}, err
	}
	if n != rows*cols {
		return matrix{}, fmt.Errorf("%w: %dx%d with %d elements", errDimensionMismatch, rows, cols, n)
	}
	return matrix{rows: rows, cols: cols, data: flat}, nil
}

func decodeTypedArray(value any) (any, int, error) {
	tag, ok := value.(cbor.Tag)
	if !ok {
		return nil, 0, fmt.Errorf("expected typed array tag")
	}

	elemSize, err := elementSize(tag.Number)
	if err != nil {
		return nil, 0, err
	}
	data, err := extractBytes(tag, elemSize)
	if err != nil {
		return nil, 0, err
	}
	if len(data)%elemSize != 0 {
		return nil, 0, fmt.Errorf("typed array length %d not a multiple of %d", len(data), elemSize)
	}
	n := len(data) / elemSize

	switch tag.Number {
	case tagUint8:
		return data, n, nil
	case tagUint16LE:
		return bytesToUint16(data), n, nil
	case tagUint32LE:
		return bytesToUint32(data), n, nil
	case tagSint8:
		out := make([]int8, n)
		for i, b := range data {
			out[i] = int8(b)
		}
		return out, n, nil
	case tagSint16LE:
		out := make([]int16, n)
		for i, v := range bytesToUint16(data) {
			out[i] = int16(v)
		}
		return out, n, nil
	case tagSint32LE:
		out := make([]int32, n)
		for i, v := range bytesToUint32(data) {
			out[i] = int32(v)
		}
		return out, n, nil
	case tagFloat32LE:
		return bytesToFloat32(data), n, nil
	default:
		return bytesToFloat64(data), n, nil
	}
}

func elementSize(tag uint64) (int, error) {
	switch tag {
	case tagUint8, tagSint8:
		return 1, nil
	case tagUint16LE, tagSint16LE:
		return 2, nil
	case tagUint32LE, tagSint32LE, tagFloat32LE:
		return 4, nil
	case tagFloat64LE:
		return 8, nil
	default:
		return 0, fmt.Errorf("unsupported typed array tag %d", tag)
	}
}

func extractBytes(tag cbor.Tag, elemSize int) ([]byte, error) {
	switch v := tag.Content.(type) {
	case []byte:
		return v, nil
	case cbor.Tag:
		if v.Number != tagCompressed {
			return nil, fmt.Errorf("unsupported nested tag %d", v.Number)
		}
		return decompressPayload(v, elemSize)
	default:
		return nil, fmt.Errorf("unsupported typed array content %T", v)
	}
}

func decompressPayload(tag cbor.Tag, elemSize int) ([]byte, error) {
	items, ok := tag.Content.([]any)
	if !ok || len(items) != 3 {
		return nil, errors.New("invalid compressed tag content")
	}
	algorithm, ok := items[0].(string)
	if !ok {
		return nil, errors.New("invalid compression algorithm")
	}
	declared, err := toInt(items[1])
	if err != nil {
		return nil, err
	}
	if declared != elemSize {
		return nil, fmt.Errorf("compressed element size %d does not match typed array size %d", declared, elemSize)
	}
	encoded, ok := items[2].([]byte)
	if !ok {
		return nil, errors.New("invalid compressed payload")
	}
	return compression.Decompress(encoded, algorithm, elemSize)
}

func depthValues(m matrix) ([]float32, error) {
	switch v := m.data.(type) {
	case []float32:
		return v, nil
	case []float64:
		out := make([]float32, len(v))
		for i, f := range v {
			out[i] = float32(f)
		}
		return out, nil
	default:
		return nil, fmt.Errorf("depth must be a float array, got %T", v)
	}
}

func categoryValues(m matrix) ([]int32, error) {
	switch v := m.data.(type) {
	case []int32:
		return v, nil
	case []uint8:
		return widen(v), nil
	case []int8:
		return widen(v), nil
	case []uint16:
		return widen(v), nil
	case []int16:
		return widen(v), nil
	case []uint32:
		out := make([]int32, len(v))
		for i, n := range v {
			if n > math.MaxInt32 {
				return nil, fmt.Errorf("category id %d overflows int32", n)
			}
			out[i] = int32(n)
		}
		return out, nil
	default:
		return nil, fmt.Errorf("category map must be an integer array, got %T", v)
	}
}

func widen[T uint8 | int8 | uint16 | int16](values []T) []int32 {
	out := make([]int32, len(values))
	for i, v := range values {
		out[i] = int32(v)
	}
	return out
}

func encodeFloat32Matrix(rows, cols int, values []float32, algorithm string) (cbor.Tag, error) {
	data := make([]byte, len(values)*4)
	for i, v := range values {
		binary.LittleEndian.PutUint32(data[i*4:], math.Float32bits(v))
	}
	return multiDim(rows, cols, tagFloat32LE, 4, data, algorithm)
}

func encodeInt32Matrix(rows, cols int, values []int32, algorithm string) (cbor.Tag, error) {
	data := make([]byte, len(values)*4)
	for i, v := range values {
		binary.LittleEndian.PutUint32(data[i*4:], uint32(v))
	}
	return multiDim(rows, cols, tagSint32LE, 4, data, algorithm)
}

func multiDim(rows, cols int, typedTag uint64, elemSize int, data []byte, algorithm string) (cbor.Tag, error) {
	if rows*cols*elemSize != len(data) {
		return cbor.Tag{}, errDimensionMismatch
	}
	var content any = data
	if algorithm != "" {
		encoded, err := compression.Compress(data, algorithm)
		if err != nil {
			return cbor.Tag{}, err
		}
		content = cbor.Tag{
			Number:  tagCompressed,
			Content: []any{algorithm, elemSize, encoded},
		}
	}
	return cbor.Tag{
		Number: tagMultiDimArray,
		Content: []any{
			[]any{rows, cols},
			cbor.Tag{Number: typedTag, Content: content},
		},
	}, nil
}

func bytesToUint16(data []byte) []uint16 {
	out := make([]uint16, len(data)/2)
	for i := 0; i < len(out); i++ {
		out[i] = binary.LittleEndian.Uint16(data[i*2 : i*2+2])
	}
	return out
}

func bytesToUint32(data []byte) []uint32 {
	out := make([]uint32, len(data)/4)
	for i := 0; i < len(out); i++ {
		out[i] = binary.LittleEndian.Uint32(data[i*4 : i*4+4])
	}
	return out
}

func bytesToFloat32(data []byte) []float32 {
	out := make([]float32, len(data)/4)
	for i := 0; i < len(out); i++ {
		bits := binary.LittleEndian.Uint32(data[i*4 : i*4+4])
		out[i] = math.Float32frombits(bits)
	}
	return out
}

func bytesToFloat64(data []byte) []float64 {
	out := make([]float64, len(data)/8)
	for i := 0; i < len(out); i++ {
		bits := binary.LittleEndian.Uint64(data[i*8 : i*8+8])
		out[i] = math.Float64frombits(bits)
	}
	return out
}
