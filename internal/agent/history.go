package agent

import (
	"fmt"
	"sort"
	"strings"
)

// buildSystemPrompt assembles the message-0 system prompt from the agent's
// profile, its working directory, and the action tags it may invoke.
// Rebuilt on every turn so it always reflects the current workspace and
// personality — rebuilding unconditionally is simpler than diffing the
// three inputs and costs one extra SetSystemMessage call per turn.
func buildSystemPrompt(p *Profile, workspace string, tags []string) string {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("You are %s.\n", p.Name))
	if p.Responsibility != "" {
		sb.WriteString(p.Responsibility + "\n")
	}
	if p.Personality != "" {
		sb.WriteString("\n" + p.Personality + "\n")
	}

	sb.WriteString("\nWorking directory: " + workspace + "\n")

	sorted := append([]string(nil), tags...)
	sort.Strings(sorted)
	if len(sorted) > 0 {
		sb.WriteString("\nAvailable actions: ")
		sb.WriteString(strings.Join(sorted, ", "))
		sb.WriteString("\n")
	}

	sb.WriteString("\nEmit actions as XML tags directly in your reply, e.g. <read path=\"...\"/>. ")
	sb.WriteString("Never wrap an action tag in a code fence — a fenced tag is not recognised and executes nothing. ")
	sb.WriteString("Call <end-task message=\"...\"/> once the task is done.\n")

	return sb.String()
}
