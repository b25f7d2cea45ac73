package vision

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/ndexpress/nd-express/internal/config"
)

var (
	ErrNotConfigured  = errors.New("vision service not configured")
	ErrInvalidImage   = errors.New("invalid image payload")
	ErrImageTooLarge  = errors.New("image too large")
	ErrUpstream       = errors.New("vision provider error")
	ErrUnparsableScan = errors.New("could not parse extraction result")
)

// Images above this size are refused before any upstream call.
const maxImageBytes = 10 << 20

const extractionPrompt = `Extraia os dados deste recibo e responda APENAS com JSON:
{"description": "...", "value": 0.00, "date": "YYYY-MM-DD", "establishment": "...", "category": "Alimentação|Deslocamento|Hospedagem|Outros", "confidence": 0}`

// Extraction is the structured result read from a receipt image.
type Extraction struct {
	Description   string  `json:"description"`
	Value         float64 `json:"value"`
	Date          string  `json:"date"`
	Establishment string  `json:"establishment"`
	Category      string  `json:"category"`
	Confidence    int     `json:"confidence"`
}

type Service struct {
	config *config.VisionConfig
	log    *zap.Logger
	client *http.Client
}

func NewService(cfg *config.VisionConfig, log *zap.Logger) *Service {
	return &Service{
		config: cfg,
		log:    log,
		client: &http.Client{Timeout: cfg.Timeout},
	}
}

// Enabled reports whether an upstream provider is configured.
func (s *Service) Enabled() bool {
	return s.config.APIKey != "" && s.config.Endpoint != ""
}

type chatRequest struct {
	Model    string        `json:"model"`
	Messages []chatMessage `json:"messages"`
}

type chatMessage struct {
	Role    string        `json:"role"`
	Content []contentPart `json:"content"`
}

type contentPart struct {
	Type     string    `json:"type"`
	Text     string    `json:"text,omitempty"`
	ImageURL *imageURL `json:"image_url,omitempty"`
}

type imageURL struct {
	URL string `json:"url"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error"`
}

// Analyze sends the receipt image to the vision provider and parses the
// structured extraction out of its reply. The payload is validated locally
// before anything goes upstream.
func (s *Service) Analyze(ctx context.Context, imageBase64 string) (*Extraction, error) {
	if !s.Enabled() {
		return nil, ErrNotConfigured
	}

	raw := stripDataURL(imageBase64)
	data, err := base64.StdEncoding.DecodeString(raw)
	if err != nil || len(data) == 0 {
		return nil, ErrInvalidImage
	}
	if len(data) > maxImageBytes {
		return nil, ErrImageTooLarge
	}
	mime, ok := sniffImage(data)
	if !ok {
		return nil, ErrInvalidImage
	}

	body, err := json.Marshal(chatRequest{
		Model: s.config.Model,
		Messages: []chatMessage{
			{
				Role: "user",
				Content: []contentPart{
					{Type: "text", Text: extractionPrompt},
					{Type: "image_url", ImageURL: &imageURL{
						URL: fmt.Sprintf("data:%s;base64,%s", mime, raw),
					}},
				},
			},
		},
	})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.config.Endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+s.config.APIKey)

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUpstream, err)
	}
	defer resp.Body.Close()

	var parsed chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("%w: bad response body", ErrUpstream)
	}
	if resp.StatusCode != http.StatusOK {
		msg := resp.Status
		if parsed.Error != nil {
			msg = parsed.Error.Message
		}
		s.log.Warn("vision provider rejected request",
			zap.Int("status", resp.StatusCode),
			zap.String("message", msg))
		return nil, fmt.Errorf("%w: %s", ErrUpstream, msg)
	}
	if len(parsed.Choices) == 0 {
		return nil, fmt.Errorf("%w: empty completion", ErrUpstream)
	}

	extraction, err := parseExtraction(parsed.Choices[0].Message.Content)
	if err != nil {
		return nil, err
	}
	return extraction, nil
}

// parseExtraction reads the JSON object out of the model reply, tolerating
// markdown code fences around it.
func parseExtraction(content string) (*Extraction, error) {
	trimmed := strings.TrimSpace(content)
	trimmed = strings.TrimPrefix(trimmed, "```json")
	trimmed = strings.TrimPrefix(trimmed, "```")
	trimmed = strings.TrimSuffix(trimmed, "```")
	trimmed = strings.TrimSpace(trimmed)

	start := strings.Index(trimmed, "{")
	end := strings.LastIndex(trimmed, "}")
	if start < 0 || end <= start {
		return nil, ErrUnparsableScan
	}

	var out Extraction
	if err := json.Unmarshal([]byte(trimmed[start:end+1]), &out); err != nil {
		return nil, ErrUnparsableScan
	}
	if out.Confidence < 0 {
		out.Confidence = 0
	}
	if out.Confidence > 100 {
		out.Confidence = 100
	}
	return &out, nil
}

func sniffImage(data []byte) (string, bool) {
	switch {
	case len(data) > 2 && data[0] == 0xFF && data[1] == 0xD8:
		return "image/jpeg", true
	case len(data) > 8 && bytes.HasPrefix(data, []byte("\x89PNG\r\n\x1a\n")):
		return "image/png", true
	case len(data) > 12 && bytes.HasPrefix(data, []byte("RIFF")) && bytes.Equal(data[8:12], []byte("WEBP")):
		return "image/webp", true
	}
	return "", false
}

func stripDataURL(raw string) string {
	if i := strings.Index(raw, ";base64,"); i >= 0 && strings.HasPrefix(raw, "data:") {
		return raw[i+len(";base64,"):]
	}
	return raw
}
