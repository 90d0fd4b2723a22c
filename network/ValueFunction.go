package network

// ValueFunction is a learned mapping from feature vectors to scalar
// values. A ValueFunction hides the network and update rule that it
// uses. Callers only ever see feature vectors in and values out.
type ValueFunction interface {
	// Features returns the length of the feature vectors the
	// ValueFunction accepts.
	Features() int

	// Predict returns the predicted value of each feature vector in
	// inputs. The inputs are one or more rows of Features() columns,
	// flattened in row-major order, and one value is returned per row.
	Predict(inputs []float64) ([]float64, error)

	// Fit updates the ValueFunction so that its predictions for each
	// feature vector in inputs move toward the corresponding value in
	// targets. The inputs are len(targets) rows of Features() columns,
	// flattened in row-major order.
	Fit(inputs, targets []float64) error

	// Save serializes the ValueFunction's weights to the file at path.
	Save(path string) error

	// Load fills the ValueFunction with weights previously saved at
	// path. The saved weights must be for a network of the same
	// architecture.
	Load(path string) error
}
