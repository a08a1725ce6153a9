package nn

import (
	"encoding/json"
	"fmt"

	deep "github.com/patrikeh/go-deep"
)

// DeepExport is the on-disk form written by MarshalDeep. Weights follows
// go-deep's [layer][neuron][synapse] layout with the bias synapse last.
type DeepExport struct {
	ID         string        `json:"id"`
	Inputs     int           `json:"inputs"`
	Layout     []int         `json:"layout"`
	Activation string        `json:"activation"`
	Mode       string        `json:"mode"`
	Weights    [][][]float64 `json:"weights"`
}

// ToDeep builds an equivalent go-deep network. Only sigmoid networks have a
// go-deep counterpart since binary mode fixes the output activation.
func (n *Network) ToDeep() (*deep.Neural, error) {
	if n.Activation != DefaultActivation {
		return nil, fmt.Errorf("go-deep export supports %s only, network %s uses %s", DefaultActivation, n.ID, n.Activation)
	}
	sizes := n.Sizes()
	nd := deep.NewNeural(&deep.Config{
		Inputs:     sizes[0],
		Layout:     sizes[1:],
		Activation: deep.ActivationSigmoid,
		Mode:       deep.ModeBinary,
		Weight:     deep.NewUniform(0.5, 0),
		Bias:       true,
	})

	weights := nd.Dump().Weights
	if len(weights) != len(n.Layers) {
		return nil, fmt.Errorf("%w: go-deep built %d layers, want %d", ErrTopology, len(weights), len(n.Layers))
	}
	for i, layer := range n.Layers {
		in := layer.In()
		if len(weights[i]) != layer.Out() {
			return nil, fmt.Errorf("%w: go-deep layer %d has %d neurons, want %d", ErrTopology, i, len(weights[i]), layer.Out())
		}
		for j := range weights[i] {
			if len(weights[i][j]) != in+1 {
				return nil, fmt.Errorf("%w: go-deep neuron %d/%d has %d synapses, want %d", ErrTopology, i, j, len(weights[i][j]), in+1)
			}
			for k := 0; k < in; k++ {
				weights[i][j][k] = layer.Weights.At(j, k)
			}
			weights[i][j][in] = layer.Bias.AtVec(j)
		}
	}
	nd.ApplyWeights(weights)
	return nd, nil
}

// MarshalDeep serializes the go-deep rendition of n as indented JSON.
func (n *Network) MarshalDeep() ([]byte, error) {
	nd, err := n.ToDeep()
	if err != nil {
		return nil, err
	}
	sizes := n.Sizes()
	return json.MarshalIndent(DeepExport{
		ID:         n.ID,
		Inputs:     sizes[0],
		Layout:     sizes[1:],
		Activation: n.Activation,
		Mode:       "binary",
		Weights:    nd.Dump().Weights,
	}, "", "  ")
}
