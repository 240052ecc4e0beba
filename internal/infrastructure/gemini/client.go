package gemini

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/generative-ai-go/genai"
	"go.uber.org/zap"
	"google.golang.org/api/option"

	"github.com/yourusername/mobit-catalog/internal/domain/repository"
)

const defaultModel = "gemini-2.0-flash"

type geminiClient struct {
	client  *genai.Client
	model   *genai.GenerativeModel
	timeout time.Duration
	logger  *zap.Logger
}

// NewGeminiClient Gemini-backed description generator
func NewGeminiClient(ctx context.Context, apiKey, modelName string, logger *zap.Logger) (repository.DescriptionGenerator, func() error, error) {
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	if modelName == "" {
		modelName = defaultModel
	}
	model := client.GenerativeModel(modelName)

	// short, factual answers
	model.SetTemperature(0.2)
	model.SetTopK(20)
	model.SetTopP(0.9)
	model.SetMaxOutputTokens(256)

	model.SystemInstruction = &genai.Content{
		Parts: []genai.Part{
			genai.Text(`Você cataloga produtos de uma loja de acessórios eletrônicos.
Responda em português com UMA linha curta (no máximo 80 caracteres) descrevendo
o produto das fotos: tipo, característica principal e medida quando visível.
Não invente marcas que não aparecem nas fotos. Sem aspas, sem ponto final.`),
		},
	}

	return &geminiClient{
		client:  client,
		model:   model,
		timeout: 30 * time.Second,
		logger:  logger,
	}, client.Close, nil
}

// DescribeProduct asks the model for a one-line description
func (g *geminiClient) DescribeProduct(ctx context.Context, code string, images []repository.ImageBlob) (string, error) {
	if len(images) == 0 {
		return "", fmt.Errorf("no images to describe for product %s", code)
	}

	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	parts := make([]genai.Part, 0, len(images)+1)
	parts = append(parts, genai.Text(fmt.Sprintf("Código do produto: %s", code)))
	for _, img := range images {
		parts = append(parts, genai.ImageData(img.Format, img.Data))
	}

	start := time.Now()
	resp, err := g.model.GenerateContent(ctx, parts...)
	if err != nil {
		return "", fmt.Errorf("gemini generate: %w", err)
	}

	text := responseText(resp)
	if text == "" {
		return "", fmt.Errorf("gemini returned an empty description for product %s", code)
	}

	g.logger.Info("description generated",
		zap.String("code", code),
		zap.Int("images", len(images)),
		zap.Duration("took", time.Since(start)))
	return text, nil
}

func responseText(resp *genai.GenerateContentResponse) string {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return ""
	}
	var sb strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if t, ok := part.(genai.Text); ok {
			sb.WriteString(string(t))
		}
	}
	return strings.TrimSpace(sb.String())
}
