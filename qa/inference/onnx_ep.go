package inference

import (
	"os"
	"strconv"
	"strings"
)

// ONNXOptions configures the ONNX Runtime session.
type ONNXOptions struct {
	// ExecutionProvider is "cpu", "cuda", "tensorrt", "coreml" or "dml".
	ExecutionProvider string
	// DeviceID is used by DirectML and CUDA.
	DeviceID          int
	SharedLibraryPath string
	IntraOpThreads    int
}

// provider returns the normalised execution provider name.
func (o ONNXOptions) provider() string {
	return strings.ToLower(strings.TrimSpace(o.ExecutionProvider))
}

// libraryPath prefers the configured path, then ONNXRUNTIME_SHARED_LIBRARY_PATH.
func (o ONNXOptions) libraryPath() string {
	if o.SharedLibraryPath != "" {
		return o.SharedLibraryPath
	}
	return os.Getenv("ONNXRUNTIME_SHARED_LIBRARY_PATH")
}

// cudaOptions are the provider options passed to the CUDA execution provider.
func (o ONNXOptions) cudaOptions() map[string]string {
	return map[string]string{"device_id": strconv.Itoa(o.DeviceID)}
}
