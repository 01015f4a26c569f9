//go:build onnx
// +build onnx

package inference

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/ZanzyTHEbar/bertqa/qa/tokenizer"

	ort "github.com/yalue/onnxruntime_go"
)

// onnxScorer runs a SQuAD fine-tuned BERT exported to ONNX. The session is
// opened on first use and reused for every call.
type onnxScorer struct {
	modelPath   string
	opts        ONNXOptions
	mu          sync.Mutex
	session     *ort.DynamicAdvancedSession
	inputs      []boundInput
	outputNames []string
	// packed is set when the model emits one [1, seq, 2] "logits" output
	// instead of separate start/end outputs.
	packed bool
}

func newONNXScorer(modelPath string, opts ONNXOptions) Scorer {
	return &onnxScorer{modelPath: modelPath, opts: opts}
}

func (s *onnxScorer) ensureSession() error {
	if s.session != nil {
		return nil
	}
	if s.modelPath == "" {
		return fmt.Errorf("onnx model path is required")
	}
	if err := initRuntime(s.opts); err != nil {
		return err
	}
	ins, outs, err := ort.GetInputOutputInfo(s.modelPath)
	if err != nil {
		return fmt.Errorf("get IO info: %w", err)
	}

	described := make([]modelInput, len(ins))
	for i, ii := range ins {
		described[i] = modelInput{Name: ii.Name, Int64: ii.DataType == ort.TensorElementDataTypeInt64}
	}
	inputs, err := resolveInputs(described)
	if err != nil {
		return err
	}
	inputNames := make([]string, len(inputs))
	for i, in := range inputs {
		inputNames[i] = in.Name
	}

	var startName, endName, packedName string
	for _, oi := range outs {
		if oi.DataType != ort.TensorElementDataTypeFloat {
			continue
		}
		n := strings.ToLower(oi.Name)
		switch {
		case strings.Contains(n, "start"):
			startName = oi.Name
		case strings.Contains(n, "end"):
			endName = oi.Name
		case packedName == "":
			packedName = oi.Name
		}
	}
	var outputNames []string
	switch {
	case startName != "" && endName != "":
		outputNames = []string{startName, endName}
	case packedName != "":
		outputNames = []string{packedName}
		s.packed = true
	default:
		return fmt.Errorf("could not determine ONNX start/end logits outputs")
	}

	opts, err := s.sessionOptions()
	if err != nil {
		return err
	}
	defer opts.Destroy()
	session, err := ort.NewDynamicAdvancedSession(s.modelPath, inputNames, outputNames, opts)
	if err != nil {
		return fmt.Errorf("create onnx session: %w", err)
	}
	s.session = session
	s.inputs = inputs
	s.outputNames = outputNames
	return nil
}

func (s *onnxScorer) sessionOptions() (*ort.SessionOptions, error) {
	o, err := ort.NewSessionOptions()
	if err != nil {
		return nil, fmt.Errorf("session options: %w", err)
	}
	if s.opts.IntraOpThreads > 0 {
		if err := o.SetIntraOpNumThreads(s.opts.IntraOpThreads); err != nil {
			o.Destroy()
			return nil, fmt.Errorf("set intra-op threads: %w", err)
		}
	}
	// A provider that fails to attach leaves the session on CPU.
	switch s.opts.provider() {
	case "cuda":
		if cu, e := ort.NewCUDAProviderOptions(); e == nil {
			_ = cu.Update(s.opts.cudaOptions())
			_ = o.AppendExecutionProviderCUDA(cu)
			_ = cu.Destroy()
		}
	case "tensorrt":
		if trt, e := ort.NewTensorRTProviderOptions(); e == nil {
			_ = o.AppendExecutionProviderTensorRT(trt)
			_ = trt.Destroy()
		}
	case "coreml":
		_ = o.AppendExecutionProviderCoreMLV2(map[string]string{})
	case "dml":
		_ = o.AppendExecutionProviderDirectML(s.opts.DeviceID)
	}
	return o, nil
}

func (s *onnxScorer) Score(ctx context.Context, enc *tokenizer.Encoding) (*Logits, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.ensureSession(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	seq := enc.Len()
	shape := ort.NewShape(1, int64(seq))
	inVals := make([]ort.Value, len(s.inputs))
	for i, in := range s.inputs {
		var data []int64
		switch in.Role {
		case roleIDs:
			data = enc.InputIDs
		case roleMask:
			data = enc.AttentionMask
		default:
			data = enc.TypeIDs
		}
		// Tensors may not alias the encoding, which stays immutable.
		t, err := ort.NewTensor(shape, append([]int64(nil), data...))
		if err != nil {
			return nil, fmt.Errorf("%s tensor: %w", in.Name, err)
		}
		defer t.Destroy()
		inVals[i] = t
	}

	outs := make([]ort.Value, len(s.outputNames))
	if err := s.session.Run(inVals, outs); err != nil {
		return nil, fmt.Errorf("onnx run: %w", err)
	}
	defer func() {
		for _, v := range outs {
			if v != nil {
				v.Destroy()
			}
		}
	}()

	var logits *Logits
	if s.packed {
		data, err := floatData(outs[0])
		if err != nil {
			return nil, err
		}
		if len(data) != 2*seq {
			return nil, fmt.Errorf("%w: packed output has %d values for %d tokens", ErrShapeMismatch, len(data), seq)
		}
		logits = &Logits{Start: make([]float32, seq), End: make([]float32, seq)}
		for i := 0; i < seq; i++ {
			logits.Start[i] = data[2*i]
			logits.End[i] = data[2*i+1]
		}
	} else {
		start, err := floatData(outs[0])
		if err != nil {
			return nil, err
		}
		end, err := floatData(outs[1])
		if err != nil {
			return nil, err
		}
		logits = &Logits{Start: start, End: end}
	}
	if err := logits.CheckShape(seq); err != nil {
		return nil, err
	}
	return logits, nil
}

func (s *onnxScorer) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.session == nil {
		return nil
	}
	err := s.session.Destroy()
	s.session = nil
	return err
}

// floatData copies a float32 output tensor out of runtime-owned memory.
func floatData(v ort.Value) ([]float32, error) {
	t, ok := v.(*ort.Tensor[float32])
	if !ok {
		return nil, fmt.Errorf("unexpected output type %T", v)
	}
	return append([]float32(nil), t.GetData()...), nil
}
