package textract

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/textract"
	"github.com/aws/aws-sdk-go-v2/service/textract/types"

	"github.com/feichai0017/diagnosis-extractor/internal/models"
	"github.com/feichai0017/diagnosis-extractor/pkg/logger"
)

const BackendName = "textract"

// API is the part of the Textract client the processor uses.
type API interface {
	AnalyzeDocument(ctx context.Context, params *textract.AnalyzeDocumentInput, optFns ...func(*textract.Options)) (*textract.AnalyzeDocumentOutput, error)
}

type Processor struct {
	client API
	logger logger.Logger
	config *Config
}

type Config struct {
	Region        string
	Endpoint      string
	AccessKey     string
	SecretKey     string
	MinConfidence float32
	FeatureTypes  []types.FeatureType
}

func NewProcessor(ctx context.Context, cfg *Config, log logger.Logger) (*Processor, error) {
	creds := credentials.NewStaticCredentialsProvider(
		cfg.AccessKey,
		cfg.SecretKey,
		"",
	)

	awsCfg, err := config.LoadDefaultConfig(ctx,
		config.WithRegion(cfg.Region),
		config.WithCredentialsProvider(creds),
	)
	if err != nil {
		return nil, fmt.Errorf("unable to load AWS config: %w", err)
	}

	client := textract.NewFromConfig(awsCfg, func(o *textract.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
	})

	return NewProcessorWithClient(client, cfg, log), nil
}

func NewProcessorWithClient(client API, cfg *Config, log logger.Logger) *Processor {
	if len(cfg.FeatureTypes) == 0 {
		cfg.FeatureTypes = []types.FeatureType{types.FeatureTypeForms}
	}
	return &Processor{
		client: client,
		logger: log.Named(BackendName),
		config: cfg,
	}
}

func (p *Processor) Name() string { return BackendName }

func (p *Processor) Close() error {
	// textract client doesn't need special cleanup
	return nil
}

// Analyze runs a synchronous AnalyzeDocument call. The call returns once
// the analysis is complete, so there is nothing to poll.
func (p *Processor) Analyze(ctx context.Context, reader io.Reader) (*models.AnalysisResult, error) {
	data, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}

	output, err := p.client.AnalyzeDocument(ctx, &textract.AnalyzeDocumentInput{
		Document: &types.Document{
			Bytes: data,
		},
		FeatureTypes: p.config.FeatureTypes,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to analyze document: %w", err)
	}

	result := &models.AnalysisResult{
		Backend: BackendName,
		ModelID: "analyze-document",
	}
	if output.DocumentMetadata != nil && output.DocumentMetadata.Pages != nil {
		result.Pages = int(*output.DocumentMetadata.Pages)
	}

	lines := p.lineText(output.Blocks)
	if len(lines) > 0 {
		content := strings.Join(lines, "\n")
		result.Content = &content
	}

	p.logger.Debug("Textract analysis finished",
		logger.Int("blocks", len(output.Blocks)),
		logger.Int("lines", len(lines)),
	)

	return result, nil
}

// lineText keeps LINE blocks in reading order, dropping those under the
// confidence floor.
func (p *Processor) lineText(blocks []types.Block) []string {
	var texts []string
	for _, block := range blocks {
		if block.BlockType != types.BlockTypeLine || block.Text == nil {
			continue
		}
		if block.Confidence != nil && *block.Confidence < p.config.MinConfidence {
			continue
		}
		texts = append(texts, *block.Text)
	}
	return texts
}
