//go:build !onnx
// +build !onnx

package inference

// ListExecutionProviders is a stub when the package is built without ONNX support.
func ListExecutionProviders(opts ONNXOptions) ([]string, error) {
	return nil, ErrONNXUnavailable
}
