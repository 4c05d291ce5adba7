package textract

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/textract"
	"github.com/aws/aws-sdk-go-v2/service/textract/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/feichai0017/diagnosis-extractor/pkg/logger"
)

type fakeTextract struct {
	input  *textract.AnalyzeDocumentInput
	output *textract.AnalyzeDocumentOutput
	err    error
}

func (f *fakeTextract) AnalyzeDocument(ctx context.Context, params *textract.AnalyzeDocumentInput, optFns ...func(*textract.Options)) (*textract.AnalyzeDocumentOutput, error) {
	f.input = params
	return f.output, f.err
}

func line(text string, confidence float32) types.Block {
	return types.Block{
		BlockType:  types.BlockTypeLine,
		Text:       aws.String(text),
		Confidence: aws.Float32(confidence),
	}
}

func TestAnalyzeJoinsLines(t *testing.T) {
	fake := &fakeTextract{output: &textract.AnalyzeDocumentOutput{
		DocumentMetadata: &types.DocumentMetadata{Pages: aws.Int32(1)},
		Blocks: []types.Block{
			{BlockType: types.BlockTypePage},
			line("Findings: normal.", 99),
			{BlockType: types.BlockTypeWord, Text: aws.String("Findings:")},
			line("smudge", 10),
			line("Provisional diagnosis: Acute appendicitis RE)", 95),
		},
	}}
	p := NewProcessorWithClient(fake, &Config{MinConfidence: 50}, logger.NewTestLogger())

	result, err := p.Analyze(context.Background(), strings.NewReader("png-bytes"))
	require.NoError(t, err)

	assert.Equal(t, "Findings: normal.\nProvisional diagnosis: Acute appendicitis RE)", result.Text())
	assert.Equal(t, 1, result.Pages)
	assert.Equal(t, []byte("png-bytes"), fake.input.Document.Bytes)
	assert.Equal(t, []types.FeatureType{types.FeatureTypeForms}, fake.input.FeatureTypes)
}

func TestAnalyzeWithoutLinesHasNoContent(t *testing.T) {
	fake := &fakeTextract{output: &textract.AnalyzeDocumentOutput{}}
	p := NewProcessorWithClient(fake, &Config{}, logger.NewTestLogger())

	result, err := p.Analyze(context.Background(), strings.NewReader("x"))
	require.NoError(t, err)
	assert.Nil(t, result.Content)
}

func TestAnalyzeWrapsServiceError(t *testing.T) {
	boom := errors.New("throttled")
	p := NewProcessorWithClient(&fakeTextract{err: boom}, &Config{}, logger.NewTestLogger())

	_, err := p.Analyze(context.Background(), strings.NewReader("x"))
	assert.ErrorIs(t, err, boom)
}
