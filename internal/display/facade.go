// Package display defines the bound output surface a Loop streams its
// replies and tool-call notices to. The console implementation lives in its
// own package so this one stays a pure port.
package display

import "context"

// Facade is implemented by whatever is bound as a Loop's output sink.
type Facade interface {
	// Stream forwards one chunk of assistant-visible text for tabID.
	Stream(ctx context.Context, tabID, text string)
	// ToolCall reports that action tag ran, for a progress indicator.
	ToolCall(ctx context.Context, tabID, tag string)
}
