package nn

import (
	"errors"
	"fmt"

	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/mat"

	"connect4evo/internal/model"
)

const DefaultActivation = "sigmoid"

var (
	ErrTopology  = errors.New("malformed network topology")
	ErrInputSize = errors.New("input size mismatch")
)

// Layer is one fully connected layer: out = act(Weights·in + Bias).
type Layer struct {
	Weights *mat.Dense
	Bias    *mat.VecDense
}

func (l Layer) In() int {
	_, c := l.Weights.Dims()
	return c
}

func (l Layer) Out() int {
	r, _ := l.Weights.Dims()
	return r
}

// Network is a fixed-topology feed-forward network. It doubles as the
// evolvable genome.
type Network struct {
	ID         string
	Activation string
	Layers     []Layer

	act ActivationFunc
}

// New validates that consecutive layers chain and resolves the activation.
func New(id, activation string, layers []Layer) (*Network, error) {
	if len(layers) == 0 {
		return nil, fmt.Errorf("%w: no layers", ErrTopology)
	}
	for i, layer := range layers {
		if layer.Weights == nil || layer.Bias == nil {
			return nil, fmt.Errorf("%w: layer %d missing weights or bias", ErrTopology, i)
		}
		if layer.Bias.Len() != layer.Out() {
			return nil, fmt.Errorf("%w: layer %d bias=%d out=%d", ErrTopology, i, layer.Bias.Len(), layer.Out())
		}
		if i > 0 && layers[i-1].Out() != layer.In() {
			return nil, fmt.Errorf("%w: layer %d out=%d but layer %d in=%d", ErrTopology, i-1, layers[i-1].Out(), i, layer.In())
		}
	}
	if activation == "" {
		activation = DefaultActivation
	}
	act, err := GetActivation(activation)
	if err != nil {
		return nil, err
	}
	return &Network{ID: id, Activation: activation, Layers: layers, act: act}, nil
}

// NewZero builds a network with all weights and biases at zero. sizes lists
// the width of every layer boundary, input first.
func NewZero(id string, sizes []int) (*Network, error) {
	if len(sizes) < 2 {
		return nil, fmt.Errorf("%w: need at least input and output sizes, got %v", ErrTopology, sizes)
	}
	layers := make([]Layer, 0, len(sizes)-1)
	for i := 1; i < len(sizes); i++ {
		in, out := sizes[i-1], sizes[i]
		if in <= 0 || out <= 0 {
			return nil, fmt.Errorf("%w: non-positive layer size in %v", ErrTopology, sizes)
		}
		layers = append(layers, Layer{
			Weights: mat.NewDense(out, in, nil),
			Bias:    mat.NewVecDense(out, nil),
		})
	}
	return New(id, DefaultActivation, layers)
}

// NewRandom starts from zero and applies one mutation of the given scale.
func NewRandom(id string, sizes []int, scale float64, rng *rand.Rand) (*Network, error) {
	n, err := NewZero(id, sizes)
	if err != nil {
		return nil, err
	}
	n.Mutate(scale, rng)
	return n, nil
}

func (n *Network) InputSize() int  { return n.Layers[0].In() }
func (n *Network) OutputSize() int { return n.Layers[len(n.Layers)-1].Out() }

// Sizes returns the layer boundary widths, input first.
func (n *Network) Sizes() []int {
	sizes := make([]int, 0, len(n.Layers)+1)
	sizes = append(sizes, n.InputSize())
	for _, layer := range n.Layers {
		sizes = append(sizes, layer.Out())
	}
	return sizes
}

// CheckShape verifies the network maps in inputs to out outputs.
func (n *Network) CheckShape(in, out int) error {
	if n.InputSize() != in || n.OutputSize() != out {
		return fmt.Errorf("%w: network %s is %dx%d, want %dx%d", ErrTopology, n.ID, n.InputSize(), n.OutputSize(), in, out)
	}
	return nil
}

func (n *Network) Forward(input []float64) ([]float64, error) {
	if len(input) != n.InputSize() {
		return nil, fmt.Errorf("%w: got=%d want=%d", ErrInputSize, len(input), n.InputSize())
	}
	x := mat.NewVecDense(len(input), append([]float64(nil), input...))
	for _, layer := range n.Layers {
		next := mat.NewVecDense(layer.Out(), nil)
		next.MulVec(layer.Weights, x)
		next.AddVec(next, layer.Bias)
		for i := 0; i < next.Len(); i++ {
			next.SetVec(i, n.act(next.AtVec(i)))
		}
		x = next
	}
	out := make([]float64, x.Len())
	for i := range out {
		out[i] = x.AtVec(i)
	}
	return out, nil
}

// Choose returns the index of the largest output; ties go to the lowest index.
func (n *Network) Choose(input []float64) (int, error) {
	out, err := n.Forward(input)
	if err != nil {
		return -1, err
	}
	return ArgMax(out)
}

// Mutate adds rate*U(-1,1) independently to every weight and bias.
func (n *Network) Mutate(rate float64, rng *rand.Rand) {
	for _, layer := range n.Layers {
		rows, cols := layer.Weights.Dims()
		for r := 0; r < rows; r++ {
			for c := 0; c < cols; c++ {
				layer.Weights.Set(r, c, layer.Weights.At(r, c)+rate*uniform(rng))
			}
		}
		for i := 0; i < layer.Bias.Len(); i++ {
			layer.Bias.SetVec(i, layer.Bias.AtVec(i)+rate*uniform(rng))
		}
	}
}

func uniform(rng *rand.Rand) float64 {
	return rng.Float64()*2 - 1
}

// Clone deep-copies every layer so the copy mutates independently.
func (n *Network) Clone(id string) *Network {
	layers := make([]Layer, len(n.Layers))
	for i, layer := range n.Layers {
		w := mat.DenseCopyOf(layer.Weights)
		b := mat.NewVecDense(layer.Bias.Len(), nil)
		b.CloneFromVec(layer.Bias)
		layers[i] = Layer{Weights: w, Bias: b}
	}
	return &Network{ID: id, Activation: n.Activation, Layers: layers, act: n.act}
}

// Genome flattens the network into its persisted schema.
func (n *Network) Genome() model.Genome {
	layers := make([]model.Layer, len(n.Layers))
	for i, layer := range n.Layers {
		rows, cols := layer.Weights.Dims()
		weights := make([]float64, 0, rows*cols)
		for r := 0; r < rows; r++ {
			weights = append(weights, mat.Row(nil, r, layer.Weights)...)
		}
		bias := make([]float64, layer.Bias.Len())
		for j := range bias {
			bias[j] = layer.Bias.AtVec(j)
		}
		layers[i] = model.Layer{In: cols, Out: rows, Weights: weights, Bias: bias}
	}
	activation := n.Activation
	if activation == DefaultActivation {
		activation = ""
	}
	return model.Genome{
		VersionedRecord: model.Current(),
		ID:              n.ID,
		Activation:      activation,
		Layers:          layers,
	}
}

// FromGenome rebuilds a network, rejecting any dimension mismatch.
func FromGenome(g model.Genome) (*Network, error) {
	layers := make([]Layer, len(g.Layers))
	for i, l := range g.Layers {
		if l.In <= 0 || l.Out <= 0 {
			return nil, fmt.Errorf("%w: genome %s layer %d has size %dx%d", ErrTopology, g.ID, i, l.Out, l.In)
		}
		if len(l.Weights) != l.In*l.Out {
			return nil, fmt.Errorf("%w: genome %s layer %d has %d weights, want %d", ErrTopology, g.ID, i, len(l.Weights), l.In*l.Out)
		}
		if len(l.Bias) != l.Out {
			return nil, fmt.Errorf("%w: genome %s layer %d has %d biases, want %d", ErrTopology, g.ID, i, len(l.Bias), l.Out)
		}
		layers[i] = Layer{
			Weights: mat.NewDense(l.Out, l.In, append([]float64(nil), l.Weights...)),
			Bias:    mat.NewVecDense(l.Out, append([]float64(nil), l.Bias...)),
		}
	}
	return New(g.ID, g.Activation, layers)
}
