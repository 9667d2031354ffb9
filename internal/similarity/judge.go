package similarity

import (
	"context"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/platinummonkey/tabscore/internal/logger"
)

const judgePrompt = `You compare two cells of a financial table, one read from a PDF and one from a reference annotation.
Rate how closely they express the same content on a scale from 0 to 1, where 1 means identical meaning
and 0 means unrelated. Ignore differences in whitespace, thousands separators and leader dots.
Reply with the number only.

Extracted: %q
Reference: %q`

var scorePattern = regexp.MustCompile(`[-+]?\d*\.?\d+`)

// JudgeScorer asks a Claude model to rate text similarity
type JudgeScorer struct {
	client      anthropic.Client
	model       string
	temperature float64
	placeholder string
	logger      *logger.Logger
}

type judgeOptions struct {
	request     []option.RequestOption
	placeholder string
}

// JudgeOption configures a JudgeScorer
type JudgeOption func(*judgeOptions)

// WithJudgeBaseURL points the judge at a different API host
func WithJudgeBaseURL(url string) JudgeOption {
	return func(o *judgeOptions) {
		o.request = append(o.request, option.WithBaseURL(url))
	}
}

// WithJudgePlaceholder sets the text sent in place of an empty cell
func WithJudgePlaceholder(p string) JudgeOption {
	return func(o *judgeOptions) {
		if p != "" {
			o.placeholder = p
		}
	}
}

// NewJudgeScorer creates an Anthropic judge
func NewJudgeScorer(apiKey, model string, temperature float64, maxRetries int, log *logger.Logger, extra ...JudgeOption) *JudgeScorer {
	if log == nil {
		log = logger.Get()
	}

	o := &judgeOptions{
		request: []option.RequestOption{
			option.WithAPIKey(apiKey),
			option.WithMaxRetries(maxRetries),
		},
		placeholder: DefaultPlaceholder,
	}
	for _, e := range extra {
		e(o)
	}

	return &JudgeScorer{
		client:      anthropic.NewClient(o.request...),
		model:       model,
		temperature: temperature,
		placeholder: o.placeholder,
		logger:      log,
	}
}

// Name returns the provider name
func (j *JudgeScorer) Name() string {
	return string(ProviderAnthropic)
}

// Compute returns the judged similarity of a and b in [0, 1]. Two blank
// texts score 1 without a request.
func (j *JudgeScorer) Compute(ctx context.Context, a, b string) (float64, error) {
	blankA, blankB := strings.TrimSpace(a) == "", strings.TrimSpace(b) == ""
	if blankA && blankB {
		return 1, nil
	}
	if blankA {
		a = j.placeholder
	}
	if blankB {
		b = j.placeholder
	}

	resp, err := j.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     anthropic.Model(j.model),
		MaxTokens: 16,
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(fmt.Sprintf(judgePrompt, a, b))),
		},
		Temperature: anthropic.Float(j.temperature),
	})
	if err != nil {
		return 0, fmt.Errorf("%w: anthropic API error: %w", ErrExternalService, err)
	}

	var content string
	for _, block := range resp.Content {
		if block.Type == "text" {
			content = block.Text
			break
		}
	}

	score, err := parseScore(content)
	if err != nil {
		j.logger.WithFields("content", content).Debug("Failed to parse judge response")
		return 0, fmt.Errorf("%w: %v", ErrExternalService, err)
	}

	return score, nil
}

// ComputeBatch judges each pair in turn
func (j *JudgeScorer) ComputeBatch(ctx context.Context, pairs []Pair) ([]float64, error) {
	scores := make([]float64, len(pairs))
	for i, p := range pairs {
		s, err := j.Compute(ctx, p.A, p.B)
		if err != nil {
			return nil, fmt.Errorf("pair %d: %w", i, err)
		}
		scores[i] = s
	}
	return scores, nil
}

// parseScore reads the first number in the reply and clamps it to [0, 1]
func parseScore(content string) (float64, error) {
	m := scorePattern.FindString(content)
	if m == "" {
		return 0, fmt.Errorf("no score in judge response %q", content)
	}

	v, err := strconv.ParseFloat(m, 64)
	if err != nil {
		return 0, fmt.Errorf("parse judge score %q: %w", m, err)
	}

	return math.Max(0, math.Min(1, v)), nil
}
