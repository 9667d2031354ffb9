package similarity

import (
	"context"
	"fmt"
	"os"
	"sync"

	ort "github.com/yalue/onnxruntime_go"

	"github.com/platinummonkey/tabscore/internal/logger"
)

// DefaultMaxSequenceLength is the BERT position limit
const DefaultMaxSequenceLength = 512

var (
	ortEnvOnce sync.Once
	ortEnvErr  error
)

// initORT initializes ONNX Runtime once, optionally from a custom library
func initORT(libraryPath string) error {
	ortEnvOnce.Do(func() {
		if libraryPath != "" {
			ort.SetSharedLibraryPath(libraryPath)
		}
		ortEnvErr = ort.InitializeEnvironment()
	})
	return ortEnvErr
}

// ONNXEmbedder mean-pools the last hidden state of a local BERT model
type ONNXEmbedder struct {
	session   *ort.DynamicAdvancedSession
	tokenizer *WordPiece
	maxLen    int
	logger    *logger.Logger

	mu     sync.Mutex
	closed bool
}

// NewONNXEmbedder loads a BERT-style model exported with inputs input_ids,
// attention_mask and token_type_ids and output last_hidden_state
func NewONNXEmbedder(modelPath, vocabPath, libraryPath string, maxLen int, log *logger.Logger) (*ONNXEmbedder, error) {
	if log == nil {
		log = logger.Get()
	}
	if maxLen <= 0 {
		maxLen = DefaultMaxSequenceLength
	}

	if _, err := os.Stat(modelPath); err != nil {
		return nil, fmt.Errorf("model file: %w", err)
	}

	tokenizer, err := LoadWordPiece(vocabPath)
	if err != nil {
		return nil, err
	}

	if err := initORT(libraryPath); err != nil {
		return nil, fmt.Errorf("initializing ONNX runtime: %w", err)
	}

	options, err := ort.NewSessionOptions()
	if err != nil {
		return nil, fmt.Errorf("creating session options: %w", err)
	}
	defer func() { _ = options.Destroy() }()

	session, err := ort.NewDynamicAdvancedSession(
		modelPath,
		[]string{"input_ids", "attention_mask", "token_type_ids"},
		[]string{"last_hidden_state"},
		options,
	)
	if err != nil {
		return nil, fmt.Errorf("creating session: %w", err)
	}

	log.WithFields("model", modelPath, "max_len", maxLen).Info("Loaded ONNX embedding model")

	return &ONNXEmbedder{
		session:   session,
		tokenizer: tokenizer,
		maxLen:    maxLen,
		logger:    log,
	}, nil
}

// Embed runs each text through the model on its own, so no padding enters
// the mean
func (o *ONNXEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	vectors := make([][]float32, len(texts))
	for i, t := range texts {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		v, err := o.embedOne(t)
		if err != nil {
			return nil, fmt.Errorf("text %d: %w", i, err)
		}
		vectors[i] = v
	}
	return vectors, nil
}

func (o *ONNXEmbedder) embedOne(text string) ([]float32, error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.closed {
		return nil, fmt.Errorf("session is closed")
	}

	ids := o.tokenizer.Encode(text, o.maxLen)
	seqLen := int64(len(ids))
	mask := make([]int64, seqLen)
	types := make([]int64, seqLen)
	for i := range mask {
		mask[i] = 1
	}

	shape := ort.NewShape(1, seqLen)

	idsTensor, err := ort.NewTensor(shape, ids)
	if err != nil {
		return nil, fmt.Errorf("creating input_ids tensor: %w", err)
	}
	defer func() { _ = idsTensor.Destroy() }()

	maskTensor, err := ort.NewTensor(shape, mask)
	if err != nil {
		return nil, fmt.Errorf("creating attention_mask tensor: %w", err)
	}
	defer func() { _ = maskTensor.Destroy() }()

	typesTensor, err := ort.NewTensor(shape, types)
	if err != nil {
		return nil, fmt.Errorf("creating token_type_ids tensor: %w", err)
	}
	defer func() { _ = typesTensor.Destroy() }()

	outputs := []ort.Value{nil}
	if err := o.session.Run([]ort.Value{idsTensor, maskTensor, typesTensor}, outputs); err != nil {
		return nil, fmt.Errorf("running inference: %w", err)
	}
	if outputs[0] == nil {
		return nil, fmt.Errorf("no output produced")
	}
	defer func() { _ = outputs[0].Destroy() }()

	hidden, ok := outputs[0].(*ort.Tensor[float32])
	if !ok {
		return nil, fmt.Errorf("unexpected output tensor type")
	}

	dims := hidden.GetShape()
	if len(dims) != 3 || dims[0] != 1 {
		return nil, fmt.Errorf("unexpected output shape %v", dims)
	}

	return meanPool(hidden.GetData(), int(dims[1]), int(dims[2])), nil
}

// meanPool averages a [seq, hidden] row-major matrix over the sequence
func meanPool(data []float32, seq, hidden int) []float32 {
	out := make([]float32, hidden)
	if seq == 0 {
		return out
	}

	sums := make([]float64, hidden)
	for t := 0; t < seq; t++ {
		row := data[t*hidden : (t+1)*hidden]
		for j, v := range row {
			sums[j] += float64(v)
		}
	}
	for j := range out {
		out[j] = float32(sums[j] / float64(seq))
	}
	return out
}

// Name returns the provider name
func (o *ONNXEmbedder) Name() string {
	return string(ProviderONNX)
}

// Close releases ONNX resources
func (o *ONNXEmbedder) Close() error {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.closed {
		return nil
	}

	o.closed = true
	if o.session != nil {
		return o.session.Destroy()
	}
	return nil
}
