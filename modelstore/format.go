// Package modelstore reads and writes trained models as three lines of
// text: the topology as JSON, the weight specification as JSON and the raw
// weight bytes in base64.
package modelstore

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/pkg/errors"
)

// WeightSpec describes one tensor inside the weight buffer.
type WeightSpec struct {
	Name  string `json:"name"`
	Shape []int  `json:"shape"`
	DType string `json:"dtype"`
}

// Artifacts is everything needed to rebuild a model.
type Artifacts struct {
	Topology    json.RawMessage
	WeightSpecs []WeightSpec
	// WeightData must hold exactly one contiguous buffer to be serialized.
	WeightData [][]byte
}

// Saveable is a model that can export its artifacts.
type Saveable interface {
	Artifacts() (Artifacts, error)
}

// SerializationError reports malformed or unsupported model text.
type SerializationError struct {
	Op  string
	Err error
}

func (e *SerializationError) Error() string {
	return fmt.Sprintf("%s model: %v", e.Op, e.Err)
}

func (e *SerializationError) Unwrap() error {
	return e.Err
}

// Serialize encodes a as three newline-joined lines.
func Serialize(a Artifacts) (string, error) {
	if len(a.WeightData) != 1 {
		return "", &SerializationError{
			Op:  "serialize",
			Err: errors.Errorf("weight data must be a single contiguous buffer, got %d buffers", len(a.WeightData)),
		}
	}

	// The format is line based so the topology must fit on one line.
	var topology bytes.Buffer
	if err := json.Compact(&topology, a.Topology); err != nil {
		return "", &SerializationError{Op: "serialize", Err: errors.Wrap(err, "invalid topology")}
	}

	specs, err := json.Marshal(a.WeightSpecs)
	if err != nil {
		return "", &SerializationError{Op: "serialize", Err: errors.Wrap(err, "invalid weight specs")}
	}

	lines := []string{
		topology.String(),
		string(specs),
		base64.StdEncoding.EncodeToString(a.WeightData[0]),
	}
	return strings.Join(lines, "\n"), nil
}

// Deserialize parses text produced by Serialize. A single trailing newline
// is tolerated.
func Deserialize(text string) (Artifacts, error) {
	text = strings.TrimSuffix(text, "\n")
	lines := strings.Split(text, "\n")
	if len(lines) != 3 {
		return Artifacts{}, &SerializationError{
			Op:  "deserialize",
			Err: errors.Errorf("expected 3 lines, got %d", len(lines)),
		}
	}

	var a Artifacts
	topology := strings.TrimSuffix(lines[0], "\r")
	if !json.Valid([]byte(topology)) {
		return Artifacts{}, &SerializationError{Op: "deserialize", Err: errors.New("topology is not valid JSON")}
	}
	a.Topology = json.RawMessage(topology)

	if err := json.Unmarshal([]byte(lines[1]), &a.WeightSpecs); err != nil {
		return Artifacts{}, &SerializationError{Op: "deserialize", Err: errors.Wrap(err, "invalid weight specs")}
	}

	weights, err := base64.StdEncoding.DecodeString(strings.TrimSpace(lines[2]))
	if err != nil {
		return Artifacts{}, &SerializationError{Op: "deserialize", Err: errors.Wrap(err, "invalid weight data")}
	}
	a.WeightData = [][]byte{weights}

	return a, nil
}
