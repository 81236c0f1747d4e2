// Package actions implements the action tag parser and executor registry:
// the assistant's text is scanned for structured tags (<read>, <edit>,
// <bash>, …), each recognised tag becomes an Action, and the executor
// registry dispatches each Action to the executor registered for its tag.
package actions

// Action is one parsed tag: a type name plus its raw attributes and body.
type Action struct {
	Tag    string
	Attrs  map[string]string
	Body   string
	Raw    string // the exact source text this action was parsed from
	Offset int    // byte offset in the source text where the tag starts
}

// KnownTags is the recognised action tag vocabulary. A tag outside this
// set is reported as malformed rather than executed.
var KnownTags = map[string]bool{
	"bash": true, "read": true, "edit": true, "multi-edit": true,
	"write": true, "glob": true, "grep": true, "ls": true, "git": true,
	"fetch": true, "search": true, "format": true, "typecheck": true,
	"schedule": true, "notify": true, "skill": true, "skill-install": true,
	"say-message": true, "end-task": true, "continue-task": true,
	"agent-send": true, "telegram-config": true, "discord-config": true,
}

// Warning describes a tag-shaped span that did not parse as a valid action:
// either an unknown tag name, or a malformed open/close pairing.
type Warning struct {
	Tag     string
	Raw     string
	Message string
}
