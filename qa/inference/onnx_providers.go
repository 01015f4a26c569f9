//go:build onnx
// +build onnx

package inference

import (
	"fmt"

	ort "github.com/yalue/onnxruntime_go"
)

// ListExecutionProviders returns the execution providers this build can try.
// CPU is always available. The configured provider is reported only when its
// options can be created for opts.DeviceID.
func ListExecutionProviders(opts ONNXOptions) ([]string, error) {
	if err := initRuntime(opts); err != nil {
		return nil, err
	}
	out := []string{"cpu"}
	switch opts.provider() {
	case "cuda":
		cu, err := ort.NewCUDAProviderOptions()
		if err != nil {
			return out, nil
		}
		err = cu.Update(opts.cudaOptions())
		_ = cu.Destroy()
		if err != nil {
			return out, nil
		}
		out = append(out, "cuda")
	case "tensorrt":
		trt, err := ort.NewTensorRTProviderOptions()
		if err != nil {
			return out, nil
		}
		_ = trt.Destroy()
		out = append(out, "tensorrt")
	case "coreml", "dml":
		out = append(out, opts.provider())
	}
	return out, nil
}

func initRuntime(opts ONNXOptions) error {
	if ort.IsInitialized() {
		return nil
	}
	if p := opts.libraryPath(); p != "" {
		ort.SetSharedLibraryPath(p)
	}
	if err := ort.InitializeEnvironment(); err != nil {
		return fmt.Errorf("initialize onnx runtime: %w", err)
	}
	return nil
}
