package providers

import "context"

// NopProvider is a Provider double that answers every Chat/ChatStream call
// with a fixed response, useful for exercising the turn engine without a
// live LLM credential.
type NopProvider struct {
	Model    string
	Response ChatResponse
}

// NewNopProvider returns a NopProvider that always responds with text.
func NewNopProvider(model, text string) *NopProvider {
	return &NopProvider{
		Model:    model,
		Response: ChatResponse{Content: text, FinishReason: "stop"},
	}
}

func (p *NopProvider) Chat(ctx context.Context, req ChatRequest) (*ChatResponse, error) {
	resp := p.Response
	return &resp, nil
}

func (p *NopProvider) ChatStream(ctx context.Context, req ChatRequest, onChunk func(StreamChunk)) (*ChatResponse, error) {
	if p.Response.Content != "" {
		onChunk(StreamChunk{Content: p.Response.Content})
	}
	onChunk(StreamChunk{Done: true})
	resp := p.Response
	return &resp, nil
}

func (p *NopProvider) DefaultModel() string { return p.Model }

func (p *NopProvider) Name() string { return "nop" }
