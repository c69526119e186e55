// Package nn implements a small dense feed-forward network that satisfies
// ai.Predictor. It is trained one sample at a time with Adam on a mean
// squared error loss, mirroring the models the shotgun AI has always used.
package nn

import (
	"math"
	"sync"

	"github.com/pkg/errors"
	"golang.org/x/exp/rand"

	"github.com/diamondburned/shotgun-ai/ai"
)

// LayerConfig describes one dense layer.
type LayerConfig struct {
	Units      int    `json:"units"`
	Activation string `json:"activation"`
}

// DefaultLayers is a linear hidden layer of seven units followed by a
// softmax over the five moves.
var DefaultLayers = []LayerConfig{
	{Units: 7, Activation: Linear},
	{Units: 5, Activation: Softmax},
}

// Adam hyperparameters.
const (
	DefaultLearningRate = 0.001
	beta1               = 0.9
	beta2               = 0.999
	epsilon             = 1e-7
)

type Option func(n *Network)

// WithLayers replaces DefaultLayers.
func WithLayers(layers ...LayerConfig) Option {
	return func(n *Network) {
		if len(layers) > 0 {
			n.configs = layers
		}
	}
}

// WithSeed seeds weight initialization.
func WithSeed(seed uint64) Option {
	return func(n *Network) {
		n.seed = seed
	}
}

func WithLearningRate(lr float64) Option {
	return func(n *Network) {
		if lr > 0 {
			n.learningRate = lr
		}
	}
}

type dense struct {
	in, units  int
	activation string
	// kernel is row major with shape [in, units].
	kernel []float32
	bias   []float32

	// Adam moments.
	mk, vk []float64
	mb, vb []float64
}

func newDense(in int, cfg LayerConfig) *dense {
	return &dense{
		in:         in,
		units:      cfg.Units,
		activation: cfg.Activation,
		kernel:     make([]float32, in*cfg.Units),
		bias:       make([]float32, cfg.Units),
		mk:         make([]float64, in*cfg.Units),
		vk:         make([]float64, in*cfg.Units),
		mb:         make([]float64, cfg.Units),
		vb:         make([]float64, cfg.Units),
	}
}

// forward writes the pre-activation into z and the activation into a.
func (d *dense) forward(x, z, a []float64) {
	for j := 0; j < d.units; j++ {
		sum := float64(d.bias[j])
		for i := 0; i < d.in; i++ {
			sum += x[i] * float64(d.kernel[i*d.units+j])
		}
		z[j] = sum
	}
	activate(d.activation, z, a)
}

// Network is a dense network. It is safe for concurrent use.
type Network struct {
	mu sync.Mutex

	inputDim     int
	configs      []LayerConfig
	layers       []*dense
	seed         uint64
	learningRate float64
	step         int
}

var _ ai.Predictor = (*Network)(nil)

// New returns a freshly initialized network taking inputDim features.
func New(inputDim int, options ...Option) (*Network, error) {
	n, err := build(inputDim, options...)
	if err != nil {
		return nil, err
	}

	rng := rand.New(rand.NewSource(n.seed))
	for _, l := range n.layers {
		limit := math.Sqrt(6 / float64(l.in+l.units))
		for i := range l.kernel {
			l.kernel[i] = float32((rng.Float64()*2 - 1) * limit)
		}
	}
	return n, nil
}

func build(inputDim int, options ...Option) (*Network, error) {
	n := &Network{
		inputDim:     inputDim,
		configs:      DefaultLayers,
		seed:         1,
		learningRate: DefaultLearningRate,
	}
	for _, option := range options {
		option(n)
	}

	if inputDim <= 0 {
		return nil, errors.Errorf("input dimension must be positive, got %d", inputDim)
	}

	in := inputDim
	for i, cfg := range n.configs {
		if cfg.Units <= 0 {
			return nil, errors.Errorf("layer %d: units must be positive, got %d", i, cfg.Units)
		}
		if err := validActivation(cfg.Activation); err != nil {
			return nil, errors.Wrapf(err, "layer %d", i)
		}
		n.layers = append(n.layers, newDense(in, cfg))
		in = cfg.Units
	}
	return n, nil
}

// InputDim returns the number of input features.
func (n *Network) InputDim() int {
	return n.inputDim
}

// OutputDim returns the width of the last layer.
func (n *Network) OutputDim() int {
	return n.layers[len(n.layers)-1].units
}

// Predict implements ai.Predictor.
func (n *Network) Predict(input []float64) ([]float64, error) {
	n.mu.Lock()
	defer n.mu.Unlock()

	if len(input) != n.inputDim {
		return nil, errors.Errorf("input has %d features, want %d", len(input), n.inputDim)
	}
	_, as := n.forward(input)
	out := as[len(as)-1]
	return append([]float64(nil), out...), nil
}

// forward returns the pre-activations and activations of every layer.
// as[0] is the input.
func (n *Network) forward(input []float64) (zs, as [][]float64) {
	as = append(as, input)
	x := input
	for _, l := range n.layers {
		z := make([]float64, l.units)
		a := make([]float64, l.units)
		l.forward(x, z, a)
		zs = append(zs, z)
		as = append(as, a)
		x = a
	}
	return zs, as
}

// Train implements ai.Predictor. Each epoch is one Adam step on the sample.
func (n *Network) Train(input, target []float64, opts ai.TrainOptions) error {
	n.mu.Lock()
	defer n.mu.Unlock()

	if len(input) != n.inputDim {
		return errors.Errorf("input has %d features, want %d", len(input), n.inputDim)
	}
	if len(target) != n.OutputDim() {
		return errors.Errorf("target has %d values, want %d", len(target), n.OutputDim())
	}
	if opts.Epochs <= 0 {
		return errors.Errorf("epochs must be positive, got %d", opts.Epochs)
	}

	weight := sampleWeight(target, opts.ClassWeights)
	for e := 0; e < opts.Epochs; e++ {
		n.fit(input, target, weight)
	}
	return nil
}

// sampleWeight looks up the weight of the target's class.
func sampleWeight(target []float64, classWeights map[int]float64) float64 {
	if len(classWeights) == 0 {
		return 1
	}
	class := 0
	for i, v := range target {
		if v > target[class] {
			class = i
		}
	}
	if w, ok := classWeights[class]; ok {
		return w
	}
	return 1
}

func (n *Network) fit(input, target []float64, weight float64) {
	zs, as := n.forward(input)

	out := as[len(as)-1]
	grad := make([]float64, len(out))
	for i := range out {
		grad[i] = 2 * (out[i] - target[i]) / float64(len(out)) * weight
	}

	n.step++
	lr := n.learningRate * math.Sqrt(1-math.Pow(beta2, float64(n.step))) / (1 - math.Pow(beta1, float64(n.step)))

	for li := len(n.layers) - 1; li >= 0; li-- {
		l := n.layers[li]
		x := as[li]
		backward(l.activation, zs[li], as[li+1], grad)

		// Gradient for the previous layer, taken before the update.
		var prev []float64
		if li > 0 {
			prev = make([]float64, l.in)
			for i := 0; i < l.in; i++ {
				for j := 0; j < l.units; j++ {
					prev[i] += float64(l.kernel[i*l.units+j]) * grad[j]
				}
			}
		}

		for i := 0; i < l.in; i++ {
			for j := 0; j < l.units; j++ {
				k := i*l.units + j
				l.kernel[k] = adam(l.kernel[k], x[i]*grad[j], &l.mk[k], &l.vk[k], lr)
			}
		}
		for j := 0; j < l.units; j++ {
			l.bias[j] = adam(l.bias[j], grad[j], &l.mb[j], &l.vb[j], lr)
		}

		grad = prev
	}
}

func adam(p float32, g float64, m, v *float64, lr float64) float32 {
	*m = beta1**m + (1-beta1)*g
	*v = beta2**v + (1-beta2)*g*g
	return float32(float64(p) - lr**m/(math.Sqrt(*v)+epsilon))
}
