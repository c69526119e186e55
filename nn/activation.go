package nn

import (
	"math"

	"github.com/pkg/errors"
)

// Activation names accepted in layer configs.
const (
	Linear  = "linear"
	ReLU    = "relu"
	Sigmoid = "sigmoid"
	Tanh    = "tanh"
	Softmax = "softmax"
)

func validActivation(name string) error {
	switch name {
	case Linear, ReLU, Sigmoid, Tanh, Softmax:
		return nil
	default:
		return errors.Errorf("unknown activation %q", name)
	}
}

// activate writes the activation of z into a.
func activate(name string, z, a []float64) {
	switch name {
	case ReLU:
		for i, v := range z {
			a[i] = math.Max(0, v)
		}
	case Sigmoid:
		for i, v := range z {
			a[i] = 1 / (1 + math.Exp(-v))
		}
	case Tanh:
		for i, v := range z {
			a[i] = math.Tanh(v)
		}
	case Softmax:
		hi := math.Inf(-1)
		for _, v := range z {
			hi = math.Max(hi, v)
		}
		sum := 0.0
		for i, v := range z {
			a[i] = math.Exp(v - hi)
			sum += a[i]
		}
		for i := range a {
			a[i] /= sum
		}
	default:
		copy(a, z)
	}
}

// backward turns the gradient with respect to the activation output into
// the gradient with respect to the pre-activation, in place.
func backward(name string, z, a, grad []float64) {
	switch name {
	case ReLU:
		for i := range grad {
			if z[i] <= 0 {
				grad[i] = 0
			}
		}
	case Sigmoid:
		for i := range grad {
			grad[i] *= a[i] * (1 - a[i])
		}
	case Tanh:
		for i := range grad {
			grad[i] *= 1 - a[i]*a[i]
		}
	case Softmax:
		dot := 0.0
		for i := range grad {
			dot += grad[i] * a[i]
		}
		for i := range grad {
			grad[i] = a[i] * (grad[i] - dot)
		}
	}
}
