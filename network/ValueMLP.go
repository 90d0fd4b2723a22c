package network

import (
	"encoding/gob"
	"fmt"
	"os"

	"github.com/golang/glog"
	G "gorgonia.org/gorgonia"
	"gorgonia.org/tensor"
)

// valueMLP is a ValueFunction implemented as an MLP trained by
// gradient descent on the mean squared error between its predictions
// and the fit targets.
//
// Two copies of the network are kept. The training network has an
// input batch size of maxBatch and its graph holds the loss and
// gradients. The prediction network has an input batch size of 1 and
// only ever runs the forward pass. Batches given to Fit may hold up to
// maxBatch rows. Shorter batches are padded with zero rows which are
// masked out of the loss, so that a single compiled graph serves every
// batch size. After each fit, the prediction network's weights are set
// to those of the training network.
type valueMLP struct {
	features int
	maxBatch int

	trainNet NeuralNet
	targets  *G.Node
	mask     *G.Node
	costVal  G.Value
	trainVM  G.VM
	solver   G.Solver

	predNet NeuralNet
	predVM  G.VM
}

// NewValueMLP creates and returns a new ValueFunction implemented as
// a multi-layered perceptron with a single output node.
//
// The returned ValueFunction accepts feature vectors of length
// features and can be fit on batches of up to maxBatch training
// examples at a time. The parameters hiddenSizes, biases, init, and
// activations determine the network architecture in the same way as
// for NewMLP. The solver determines how the network weights are
// updated on each call to Fit.
func NewValueMLP(features, maxBatch int, hiddenSizes []int, biases []bool,
	init G.InitWFn, activations []*Activation,
	solver G.Solver) (ValueFunction, error) {
	if solver == nil {
		return nil, fmt.Errorf("newvaluemlp: no solver given")
	}

	v := &valueMLP{
		features: features,
		maxBatch: maxBatch,
		solver:   solver,
	}

	g := G.NewGraph()
	trainNet, err := NewMLP(features, maxBatch, 1, g, hiddenSizes, biases,
		init, activations)
	if err != nil {
		return nil, fmt.Errorf("newvaluemlp: could not create training "+
			"network: %v", err)
	}

	prediction := trainNet.Prediction()[0]
	targets := G.NewMatrix(
		g,
		tensor.Float64,
		G.WithShape(prediction.Shape()...),
		G.WithName("target"),
	)
	mask := G.NewMatrix(
		g,
		tensor.Float64,
		G.WithShape(prediction.Shape()...),
		G.WithName("mask"),
	)

	// Mean squared error over the unmasked rows only
	losses := G.Must(G.Sub(prediction, targets))
	losses = G.Must(G.Square(losses))
	losses = G.Must(G.HadamardProd(losses, mask))
	cost := G.Must(G.HadamardDiv(G.Must(G.Sum(losses)), G.Must(G.Sum(mask))))
	G.Read(cost, &v.costVal)

	_, err = G.Grad(cost, trainNet.Learnables()...)
	if err != nil {
		return nil, fmt.Errorf("newvaluemlp: could not compute gradient: %v",
			err)
	}

	predNet, err := trainNet.CloneWithBatch(1)
	if err != nil {
		return nil, fmt.Errorf("newvaluemlp: could not create prediction "+
			"network: %v", err)
	}

	v.trainNet = trainNet
	v.targets = targets
	v.mask = mask
	v.trainVM = G.NewTapeMachine(g, G.BindDualValues(trainNet.Learnables()...))
	v.predNet = predNet
	v.predVM = G.NewTapeMachine(predNet.Graph())

	return v, nil
}

// Features returns the length of the feature vectors the valueMLP
// accepts.
func (v *valueMLP) Features() int {
	return v.features
}

// Predict returns the predicted value of each feature vector in
// inputs.
func (v *valueMLP) Predict(inputs []float64) ([]float64, error) {
	if len(inputs) == 0 || len(inputs)%v.features != 0 {
		return nil, fmt.Errorf("predict: invalid number of inputs"+
			"\n\twant(a positive multiple of %v)\n\thave(%v)", v.features,
			len(inputs))
	}

	rows := len(inputs) / v.features
	values := make([]float64, rows)
	for i := 0; i < rows; i++ {
		row := inputs[i*v.features : (i+1)*v.features]
		if err := v.predNet.SetInput(row); err != nil {
			return nil, fmt.Errorf("predict: could not set network input: "+
				"%v", err)
		}
		if err := v.predVM.RunAll(); err != nil {
			return nil, fmt.Errorf("predict: could not run prediction "+
				"network: %v", err)
		}
		value := v.predNet.Output()[0].Data().([]float64)
		v.predVM.Reset()

		if len(value) != 1 {
			return nil, fmt.Errorf("predict: expected a single predicted "+
				"value per row but got %v", len(value))
		}
		values[i] = value[0]
	}

	return values, nil
}

// Fit runs a single gradient descent step on the mean squared error
// between the network's predictions for inputs and targets.
func (v *valueMLP) Fit(inputs, targets []float64) error {
	if len(targets) == 0 {
		return fmt.Errorf("fit: no training examples given")
	}
	if len(targets) > v.maxBatch {
		return fmt.Errorf("fit: got %v training examples but the batch "+
			"limit is %v", len(targets), v.maxBatch)
	}
	if len(inputs) != len(targets)*v.features {
		return fmt.Errorf("fit: invalid number of inputs\n\twant(%v)"+
			"\n\thave(%v)", len(targets)*v.features, len(inputs))
	}

	// Pad the batch up to the training network's input size. Padded
	// rows are masked out of the loss.
	batchInputs := make([]float64, v.maxBatch*v.features)
	copy(batchInputs, inputs)
	batchTargets := make([]float64, v.maxBatch)
	copy(batchTargets, targets)
	batchMask := make([]float64, v.maxBatch)
	for i := range targets {
		batchMask[i] = 1.0
	}

	if err := v.trainNet.SetInput(batchInputs); err != nil {
		return fmt.Errorf("fit: could not set network input: %v", err)
	}

	targetsTensor := tensor.NewDense(
		tensor.Float64,
		v.targets.Shape(),
		tensor.WithBacking(batchTargets),
	)
	if err := G.Let(v.targets, targetsTensor); err != nil {
		return fmt.Errorf("fit: could not set update targets: %v", err)
	}

	maskTensor := tensor.NewDense(
		tensor.Float64,
		v.mask.Shape(),
		tensor.WithBacking(batchMask),
	)
	if err := G.Let(v.mask, maskTensor); err != nil {
		return fmt.Errorf("fit: could not set batch mask: %v", err)
	}

	if err := v.trainVM.RunAll(); err != nil {
		return fmt.Errorf("fit: could not run training network: %v", err)
	}
	if err := v.solver.Step(v.trainNet.Model()); err != nil {
		return fmt.Errorf("fit: could not step solver: %v", err)
	}
	v.trainVM.Reset()

	glog.V(1).Infof("fit %v examples, cost %v", len(targets), v.costVal)

	// Keep the prediction network in sync with the training network
	if err := v.predNet.Set(v.trainNet); err != nil {
		return fmt.Errorf("fit: could not update prediction network: %v",
			err)
	}
	return nil
}

// Save serializes the valueMLP's weights to the file at path.
func (v *valueMLP) Save(path string) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("save: could not create file %v: %v", path, err)
	}
	defer file.Close()

	enc := gob.NewEncoder(file)
	if err := enc.Encode(v.trainNet); err != nil {
		return fmt.Errorf("save: could not encode network: %v", err)
	}
	return nil
}

// Load fills the valueMLP with weights previously saved at path.
func (v *valueMLP) Load(path string) error {
	file, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("load: could not open file %v: %v", path, err)
	}
	defer file.Close()

	saved := new(mlp)
	dec := gob.NewDecoder(file)
	if err := dec.Decode(saved); err != nil {
		return fmt.Errorf("load: could not decode network: %v", err)
	}

	if saved.Features() != v.features {
		return fmt.Errorf("load: saved network takes %v features but "+
			"expected %v", saved.Features(), v.features)
	}
	if saved.Outputs() != 1 {
		return fmt.Errorf("load: saved network predicts %v values per "+
			"input row but expected 1", saved.Outputs())
	}

	if err := v.trainNet.Set(saved); err != nil {
		return fmt.Errorf("load: could not set training network weights: %v",
			err)
	}
	if err := v.predNet.Set(saved); err != nil {
		return fmt.Errorf("load: could not set prediction network "+
			"weights: %v", err)
	}
	return nil
}
