package framemux

import (
	"encoding/json"
	"fmt"
	"math"

	"github.com/fxamacker/cbor/v2"

	"github.com/ridhuanjoe/treadmill-gaitlab/internal/pose"
)

// Wire encodings accepted on the ingest path.
const (
	EncodingJSON = "json"
	EncodingCBOR = "cbor"
)

// DecodeFrame decodes a single frame payload. JSON payloads start with '{';
// anything else is treated as CBOR.
func DecodeFrame(payload []byte) (*pose.Frame, error) {
	if len(payload) == 0 {
		return nil, fmt.Errorf("empty frame payload")
	}

	var f pose.Frame
	var err error
	if payload[0] == '{' {
		err = json.Unmarshal(payload, &f)
	} else {
		err = cbor.Unmarshal(payload, &f)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to decode frame: %w", err)
	}

	if err := ValidateFrame(&f); err != nil {
		return nil, err
	}
	return &f, nil
}

// ValidateFrame rejects frames the engine cannot time or scale. Missing or
// short landmark slices pass: the gate treats absent landmarks as invisible.
func ValidateFrame(f *pose.Frame) error {
	if math.IsNaN(f.TimestampMs) || math.IsInf(f.TimestampMs, 0) {
		return fmt.Errorf("frame timestamp is not finite")
	}
	if f.PixelHeight <= 0 {
		return fmt.Errorf("frame pixel height %v is not positive", f.PixelHeight)
	}
	if len(f.Landmarks) > pose.LandmarkCount {
		return fmt.Errorf("frame carries %d landmarks, expected at most %d", len(f.Landmarks), pose.LandmarkCount)
	}
	return nil
}
