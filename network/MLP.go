package network

import (
	"bytes"
	"encoding/gob"
	"fmt"

	G "gorgonia.org/gorgonia"
	"gorgonia.org/tensor"
)

// mlp implements a multi-layered perceptron. The network has a fixed
// input batch size and predicts Outputs() values for each row in the
// batch.
type mlp struct {
	g         *G.ExprGraph
	layers    []Layer
	input     *G.Node
	numOutput int
	numInputs int
	batchSize int

	// Data needed for gobbing
	hiddenSizes []int
	biases      []bool
	activations []*Activation

	learnables G.Nodes
	model      []G.ValueGrad

	prediction *G.Node
	predVal    G.Value
}

// NewMLP creates and returns a new multi-layered perceptron with
// outputs output nodes. The graph parameter g is populated with the
// MLP.
//
// The MLP has number of layers equal to len(hiddenSizes) + 1. A final
// linear layer is always added so that given any input, the network
// predicts outputs values. The final layer contains a bias unit and no
// activation. For index i, hiddenSizes[i] is the number of nodes in
// hidden layer i; biases[i] is true if hidden layer i contains a bias
// unit; and activations[i] is the activation function for hidden
// layer i. The parameter init determines the weight initialization
// scheme.
func NewMLP(features, batch, outputs int, g *G.ExprGraph,
	hiddenSizes []int, biases []bool, init G.InitWFn,
	activations []*Activation) (NeuralNet, error) {
	// Ensure one activation per hidden layer
	if len(hiddenSizes) != len(activations) {
		msg := "newmlp: invalid number of activations\n\twant(%d)" +
			"\n\thave(%d)"
		return nil, fmt.Errorf(msg, len(hiddenSizes), len(activations))
	}

	// Ensure one bias flag per hidden layer
	if len(hiddenSizes) != len(biases) {
		msg := "newmlp: invalid number of biases\n\twant(%d)\n\thave(%d)"
		return nil, fmt.Errorf(msg, len(hiddenSizes), len(biases))
	}

	if features <= 0 {
		return nil, fmt.Errorf("newmlp: features must be positive")
	}
	if batch <= 0 {
		return nil, fmt.Errorf("newmlp: batch size must be positive")
	}
	if outputs <= 0 {
		return nil, fmt.Errorf("newmlp: outputs must be positive")
	}

	// Set up the input node
	input := G.NewMatrix(g, tensor.Float64, G.WithShape(batch, features),
		G.WithName("input"), G.WithInit(G.Zeroes()))

	// Add a final linear layer so that the network predicts outputs
	// values per input row
	hiddenSizes = append(hiddenSizes, outputs)
	biases = append(biases, true)
	activations = append(activations, Identity())

	layers := addfcLayers(g, hiddenSizes, biases, activations, init,
		features)

	network := mlp{
		g:           g,
		layers:      layers,
		input:       input,
		numOutput:   outputs,
		numInputs:   features,
		batchSize:   batch,
		hiddenSizes: hiddenSizes,
		biases:      biases,
		activations: activations,
		learnables:  nil,
		model:       nil,
	}

	_, err := network.fwd(input)
	if err != nil {
		return nil, fmt.Errorf("newmlp: could not compute forward pass: %v",
			err)
	}

	return &network, nil
}

// Graph returns the computational graph of the mlp.
func (e *mlp) Graph() *G.ExprGraph {
	return e.g
}

// Clone clones an mlp
func (e *mlp) Clone() (NeuralNet, error) {
	return e.CloneWithBatch(e.batchSize)
}

// CloneWithBatch clones an mlp to a new computational graph with a new
// input batch size.
func (e *mlp) CloneWithBatch(batchSize int) (NeuralNet, error) {
	if batchSize <= 0 {
		return nil, fmt.Errorf("clonewithbatch: batch size must be positive")
	}

	graph := G.NewGraph()
	input := G.NewMatrix(
		graph,
		tensor.Float64,
		G.WithShape(batchSize, e.numInputs),
		G.WithName("input"),
		G.WithInit(G.Zeroes()),
	)

	return e.cloneWithInputTo(input, graph)
}

// cloneWithInputTo clones an mlp to a new computational graph with a
// specific node as its input node.
func (e *mlp) cloneWithInputTo(input *G.Node,
	graph *G.ExprGraph) (NeuralNet, error) {
	if input.Graph() != graph {
		return nil, fmt.Errorf("clonewithinputto: input must share the " +
			"cloned network's graph")
	}
	if !input.IsMatrix() {
		return nil, fmt.Errorf("clonewithinputto: input must be a matrix " +
			"node")
	}

	// Copy fully connected layers
	l := make([]Layer, len(e.layers))
	for i := range e.layers {
		l[i] = e.layers[i].CloneTo(graph)
	}

	network := mlp{
		g:           graph,
		layers:      l,
		input:       input,
		numOutput:   e.numOutput,
		numInputs:   e.numInputs,
		batchSize:   input.Shape()[0],
		hiddenSizes: e.hiddenSizes,
		biases:      e.biases,
		activations: e.activations,
	}

	_, err := network.fwd(input)
	if err != nil {
		return nil, fmt.Errorf("clonewithinputto: could not compute "+
			"forward pass: %v", err)
	}

	return &network, nil
}

// BatchSize returns the number of input rows the mlp takes as input
func (e *mlp) BatchSize() int {
	return e.batchSize
}

// Features returns the number of features in a single input row
func (e *mlp) Features() int {
	return e.numInputs
}

// Outputs returns the number of values predicted per input row
func (e *mlp) Outputs() int {
	return e.numOutput
}

// SetInput sets the value of the input node before running the forward
// pass.
func (e *mlp) SetInput(input []float64) error {
	if len(input) != e.numInputs*e.batchSize {
		return fmt.Errorf("setinput: invalid number of inputs\n\twant(%v)"+
			"\n\thave(%v)", e.numInputs*e.batchSize, len(input))
	}
	inputTensor := tensor.New(
		tensor.WithBacking(input),
		tensor.WithShape(e.input.Shape()...),
	)
	return G.Let(e.input, inputTensor)
}

// Set sets the weights of an mlp to be equal to the weights of another
// NeuralNet with the same architecture
func (dest *mlp) Set(source NeuralNet) error {
	sourceNodes := source.Learnables()
	nodes := dest.Learnables()
	if len(nodes) != len(sourceNodes) {
		return fmt.Errorf("set: source and destination networks have a "+
			"different number of learnables\n\twant(%v)\n\thave(%v)",
			len(nodes), len(sourceNodes))
	}
	for i, destLearnable := range nodes {
		sourceLearnable := sourceNodes[i].Clone()
		err := G.Let(destLearnable, sourceLearnable.(*G.Node).Value())
		if err != nil {
			return err
		}
	}
	return nil
}

// Learnables returns the learnable nodes in an mlp
func (e *mlp) Learnables() G.Nodes {
	// Lazy instantiation
	if e.learnables == nil {
		e.learnables = e.computeLearnables()
	}
	return e.learnables
}

func (e *mlp) computeLearnables() G.Nodes {
	learnables := make([]*G.Node, 0, 2*len(e.layers))
	for i := range e.layers {
		learnables = append(learnables, e.layers[i].Weights())
		if bias := e.layers[i].Bias(); bias != nil {
			learnables = append(learnables, bias)
		}
	}
	return G.Nodes(learnables)
}

// Model returns the learnable nodes with their gradients.
func (e *mlp) Model() []G.ValueGrad {
	// Lazy instantiation
	if e.model == nil {
		e.model = e.computeModel()
	}
	return e.model
}

func (e *mlp) computeModel() []G.ValueGrad {
	model := make([]G.ValueGrad, 0, 2*len(e.layers))
	for _, node := range e.Learnables() {
		model = append(model, node)
	}
	return model
}

// fwd performs the forward pass of the mlp on the input node
func (e *mlp) fwd(input *G.Node) (*G.Node, error) {
	inputShape := input.Shape()[len(input.Shape())-1]
	if inputShape%e.numInputs != 0 {
		return nil, fmt.Errorf("fwd: invalid shape for input to neural "+
			"net:\n\twant(%v)\n\thave(%v)", e.numInputs, inputShape)
	}

	pred := input
	var err error
	for i, l := range e.layers {
		if pred, err = l.fwd(pred); err != nil {
			return nil, fmt.Errorf("fwd: could not compute forward pass "+
				"of layer %v: %v", i, err)
		}
	}

	e.prediction = pred
	G.Read(e.prediction, &e.predVal)

	return pred, nil
}

// Output returns the value of the mlp's predictions after the graph
// has been run.
func (e *mlp) Output() []G.Value {
	return []G.Value{e.predVal}
}

// Prediction returns the node of the computational graph that stores
// the output of the mlp
func (e *mlp) Prediction() []*G.Node {
	return []*G.Node{e.prediction}
}

// GobEncode implements the gob.GobEncoder interface. The network's
// architecture and weight values are encoded; the computational graph
// is reconstructed on decoding.
func (e *mlp) GobEncode() ([]byte, error) {
	var buf bytes.Buffer
	enc := gob.NewEncoder(&buf)

	err := enc.Encode(e.numOutput)
	if err != nil {
		return nil, fmt.Errorf("gobencode: could not encode number of " +
			"outputs")
	}

	err = enc.Encode(e.numInputs)
	if err != nil {
		return nil, fmt.Errorf("gobencode: could not encode number of " +
			"inputs")
	}

	err = enc.Encode(e.batchSize)
	if err != nil {
		return nil, fmt.Errorf("gobencode: could not encode batch size")
	}

	err = enc.Encode(e.hiddenSizes)
	if err != nil {
		return nil, fmt.Errorf("gobencode: could not encode hidden sizes")
	}

	err = enc.Encode(e.biases)
	if err != nil {
		return nil, fmt.Errorf("gobencode: could not encode biases")
	}

	err = enc.Encode(e.activations)
	if err != nil {
		return nil, fmt.Errorf("gobencode: could not encode activations")
	}

	// Store the weight values of each learnable node
	for _, learnable := range e.Learnables() {
		weights, ok := learnable.Value().(*tensor.Dense)
		if !ok {
			return nil, fmt.Errorf("gobencode: learnable %v does not "+
				"store a dense tensor", learnable.Name())
		}

		err = enc.Encode([]int(weights.Shape()))
		if err != nil {
			return nil, fmt.Errorf("gobencode: could not encode shape of "+
				"learnable %v: %v", learnable.Name(), err)
		}

		// Single-element tensors store their data as a bare float64
		var data []float64
		switch raw := weights.Data().(type) {
		case []float64:
			data = raw
		case float64:
			data = []float64{raw}
		default:
			return nil, fmt.Errorf("gobencode: learnable %v does not "+
				"store float64 weights", learnable.Name())
		}

		err = enc.Encode(data)
		if err != nil {
			return nil, fmt.Errorf("gobencode: could not encode weights "+
				"of learnable %v: %v", learnable.Name(), err)
		}
	}

	return buf.Bytes(), nil
}

// GobDecode implements the gob.GobDecoder interface
func (e *mlp) GobDecode(in []byte) error {
	buf := bytes.NewReader(in)
	dec := gob.NewDecoder(buf)

	var numOutputs int
	err := dec.Decode(&numOutputs)
	if err != nil {
		return fmt.Errorf("gobdecode: could not decode number of outputs")
	}

	var numInputs int
	err = dec.Decode(&numInputs)
	if err != nil {
		return fmt.Errorf("gobdecode: could not decode number of inputs")
	}

	var batchSize int
	err = dec.Decode(&batchSize)
	if err != nil {
		return fmt.Errorf("gobdecode: could not decode batch size")
	}

	var hiddenSizes []int
	err = dec.Decode(&hiddenSizes)
	if err != nil {
		return fmt.Errorf("gobdecode: could not decode hidden sizes")
	}

	var biases []bool
	err = dec.Decode(&biases)
	if err != nil {
		return fmt.Errorf("gobdecode: could not decode biases")
	}

	var activations []*Activation
	err = dec.Decode(&activations)
	if err != nil {
		return fmt.Errorf("gobdecode: could not decode activations")
	}

	// The final linear layer is re-added by NewMLP
	hiddenSizes = hiddenSizes[:len(hiddenSizes)-1]
	biases = biases[:len(biases)-1]
	activations = activations[:len(activations)-1]

	g := G.NewGraph()
	newNet, err := NewMLP(numInputs, batchSize, numOutputs, g, hiddenSizes,
		biases, G.Zeroes(), activations)
	if err != nil {
		return fmt.Errorf("gobdecode: could not construct new MLP: %v", err)
	}
	newMLP := newNet.(*mlp)

	// Fill the new MLP's layers with the stored weight values
	for _, learnable := range newMLP.Learnables() {
		var shape []int
		err = dec.Decode(&shape)
		if err != nil {
			return fmt.Errorf("gobdecode: could not decode shape of "+
				"learnable %v: %v", learnable.Name(), err)
		}

		var data []float64
		err = dec.Decode(&data)
		if err != nil {
			return fmt.Errorf("gobdecode: could not decode weights of "+
				"learnable %v: %v", learnable.Name(), err)
		}

		weights := tensor.New(
			tensor.WithShape(shape...),
			tensor.WithBacking(data),
		)
		err = G.Let(learnable, weights)
		if err != nil {
			return fmt.Errorf("gobdecode: could not set weights of "+
				"learnable %v: %v", learnable.Name(), err)
		}
	}

	*e = *newMLP
	return nil
}
