// Package network implements neural networks that approximate
// functions of state feature vectors, along with the graph machinery
// needed to construct, clone, train, and serialize such networks.
package network

import (
	G "gorgonia.org/gorgonia"
)

// NeuralNet represents a function approximator implemented as an
// artificial neural network on a Gorgonia computational graph.
//
// A NeuralNet only ever defines the forward pass of the network. Any
// code that trains a NeuralNet is responsible for adding the loss and
// gradients to the network's graph and for running the resulting
// graph on a VM.
type NeuralNet interface {
	// Graph returns the computational graph that the network is
	// defined on.
	Graph() *G.ExprGraph

	// Clone clones the network to a new computational graph. The
	// clone shares no nodes with the original network, but its
	// weights are initialized to those of the original network.
	Clone() (NeuralNet, error)

	// CloneWithBatch clones the network to a new computational graph,
	// changing the batch size of the input the cloned network accepts.
	CloneWithBatch(int) (NeuralNet, error)

	// BatchSize returns the number of rows in the network's input.
	BatchSize() int

	// Features returns the number of features in a single input row.
	Features() int

	// Outputs returns the number of values the network predicts for
	// each input row.
	Outputs() int

	// SetInput sets the value of the network's input node. The input
	// is interpreted as BatchSize() rows of Features() columns,
	// flattened in row-major order.
	SetInput([]float64) error

	// Set sets the weights of the network to be equal to those of
	// another network with the same architecture.
	Set(NeuralNet) error

	// Learnables returns the nodes of the network that can be learned.
	Learnables() G.Nodes

	// Model returns the learnable nodes with their gradients, in the
	// form needed by a Gorgonia solver.
	Model() []G.ValueGrad

	// Output returns the values of the network's predictions after
	// the graph has been run.
	Output() []G.Value

	// Prediction returns the nodes of the computational graph that
	// store the network's predictions.
	Prediction() []*G.Node
}
