package nn

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"math"

	"github.com/pkg/errors"

	"github.com/diamondburned/shotgun-ai/modelstore"
)

// ClassName identifies the topology format in serialized models.
const ClassName = "Sequential"

const dtypeFloat32 = "float32"

// Topology is the JSON stored on the first line of a serialized model.
type Topology struct {
	ClassName string        `json:"class_name"`
	InputDim  int           `json:"input_dim"`
	Layers    []LayerConfig `json:"layers"`
}

var _ modelstore.Saveable = (*Network)(nil)

// Artifacts implements modelstore.Saveable. Every kernel and bias is
// written in layer order as little endian float32 into one buffer.
func (n *Network) Artifacts() (modelstore.Artifacts, error) {
	n.mu.Lock()
	defer n.mu.Unlock()

	topology, err := json.Marshal(Topology{
		ClassName: ClassName,
		InputDim:  n.inputDim,
		Layers:    n.configs,
	})
	if err != nil {
		return modelstore.Artifacts{}, errors.Wrap(err, "marshal topology")
	}

	var specs []modelstore.WeightSpec
	var buf []byte
	for i, l := range n.layers {
		name := fmt.Sprintf("dense_%d", i)
		specs = append(specs,
			modelstore.WeightSpec{Name: name + "/kernel", Shape: []int{l.in, l.units}, DType: dtypeFloat32},
			modelstore.WeightSpec{Name: name + "/bias", Shape: []int{l.units}, DType: dtypeFloat32},
		)
		buf = appendFloats(buf, l.kernel)
		buf = appendFloats(buf, l.bias)
	}

	return modelstore.Artifacts{
		Topology:    topology,
		WeightSpecs: specs,
		WeightData:  [][]byte{buf},
	}, nil
}

func appendFloats(buf []byte, values []float32) []byte {
	for _, v := range values {
		buf = binary.LittleEndian.AppendUint32(buf, math.Float32bits(v))
	}
	return buf
}

// FromArtifacts rebuilds a network exported with Artifacts. Options may
// change the learning rate; layers always come from the topology.
func FromArtifacts(a modelstore.Artifacts, options ...Option) (*Network, error) {
	var topology Topology
	if err := json.Unmarshal(a.Topology, &topology); err != nil {
		return nil, errors.Wrap(err, "decode topology")
	}
	if topology.ClassName != ClassName {
		return nil, errors.Errorf("unsupported topology %q", topology.ClassName)
	}
	if len(a.WeightData) != 1 {
		return nil, errors.Errorf("expected one weight buffer, got %d", len(a.WeightData))
	}

	options = append(options, WithLayers(topology.Layers...))
	n, err := build(topology.InputDim, options...)
	if err != nil {
		return nil, errors.Wrap(err, "build network")
	}

	if len(a.WeightSpecs) != 2*len(n.layers) {
		return nil, errors.Errorf("expected %d weight specs, got %d", 2*len(n.layers), len(a.WeightSpecs))
	}

	data := a.WeightData[0]
	for i, l := range n.layers {
		for k, dst := range [][]float32{l.kernel, l.bias} {
			spec := a.WeightSpecs[2*i+k]
			if spec.DType != dtypeFloat32 {
				return nil, errors.Errorf("%s: unsupported dtype %q", spec.Name, spec.DType)
			}
			if product(spec.Shape) != len(dst) {
				return nil, errors.Errorf("%s: shape %v does not match layer", spec.Name, spec.Shape)
			}
			if len(data) < 4*len(dst) {
				return nil, errors.Errorf("%s: weight data truncated", spec.Name)
			}
			for j := range dst {
				dst[j] = math.Float32frombits(binary.LittleEndian.Uint32(data[4*j:]))
			}
			data = data[4*len(dst):]
		}
	}
	if len(data) != 0 {
		return nil, errors.Errorf("%d trailing bytes in weight data", len(data))
	}

	return n, nil
}

func product(shape []int) int {
	p := 1
	for _, d := range shape {
		p *= d
	}
	return p
}
