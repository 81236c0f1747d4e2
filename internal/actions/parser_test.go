package actions

import "testing"

func TestParse_SelfClosing(t *testing.T) {
	actions, warnings := Parse(`before <read path="a.go"/> after`)
	if len(warnings) != 0 {
		t.Fatalf("unexpected warnings: %+v", warnings)
	}
	if len(actions) != 1 || actions[0].Tag != "read" || actions[0].Attrs["path"] != "a.go" {
		t.Fatalf("unexpected actions: %+v", actions)
	}
}

func TestParse_PairedWithNestedSubTags(t *testing.T) {
	text := `<edit path="f.ts"><search>= 1</search><replace>= 2</replace></edit>`
	actions, warnings := Parse(text)
	if len(warnings) != 0 {
		t.Fatalf("unexpected warnings: %+v", warnings)
	}
	if len(actions) != 1 {
		t.Fatalf("expected one action, got %d", len(actions))
	}
	a := actions[0]
	if a.Attrs["path"] != "f.ts" {
		t.Fatalf("expected path attribute, got %+v", a.Attrs)
	}
	search, ok := SubTag(a.Body, "search")
	if !ok || search != "= 1" {
		t.Fatalf("expected search sub-tag '= 1', got %q ok=%v", search, ok)
	}
	replace, ok := SubTag(a.Body, "replace")
	if !ok || replace != "= 2" {
		t.Fatalf("expected replace sub-tag '= 2', got %q ok=%v", replace, ok)
	}
}

func TestParse_FencedTagsAreNotExecuted(t *testing.T) {
	text := "Here's how it works:\n```\n<bash cmd=\"rm -rf /\"/>\n```\nNow the real one: <bash cmd=\"echo hi\"/>"
	actions, _ := Parse(text)
	if len(actions) != 1 {
		t.Fatalf("expected exactly 1 executable action, got %d: %+v", len(actions), actions)
	}
	if actions[0].Attrs["cmd"] != "echo hi" {
		t.Fatalf("expected the unfenced bash action, got %+v", actions[0])
	}
}

func TestParse_UnknownTagIsWarningNotAction(t *testing.T) {
	actions, warnings := Parse(`<frobnicate path="x"/>`)
	if len(actions) != 0 {
		t.Fatalf("expected no actions for an unknown tag, got %+v", actions)
	}
	if len(warnings) != 1 || warnings[0].Tag != "frobnicate" {
		t.Fatalf("expected one warning for the unknown tag, got %+v", warnings)
	}
}

func TestParse_QuotedAttributeWithEscapedQuote(t *testing.T) {
	actions, _ := Parse(`<bash cmd="echo \"hi\""/>`)
	if len(actions) != 1 {
		t.Fatalf("expected one action, got %+v", actions)
	}
	if actions[0].Attrs["cmd"] != `echo "hi"` {
		t.Fatalf("expected unescaped quotes in attribute, got %q", actions[0].Attrs["cmd"])
	}
}

func TestParse_MissingClosingTagIsWarning(t *testing.T) {
	actions, warnings := Parse(`<edit path="f.ts">no closing tag here`)
	if len(actions) != 0 {
		t.Fatalf("expected no actions, got %+v", actions)
	}
	if len(warnings) != 1 {
		t.Fatalf("expected one warning, got %+v", warnings)
	}
}

func TestParse_OrderPreserved(t *testing.T) {
	text := `<read path="a"/> some text <read path="b"/>`
	actions, _ := Parse(text)
	if len(actions) != 2 || actions[0].Attrs["path"] != "a" || actions[1].Attrs["path"] != "b" {
		t.Fatalf("expected actions in source order, got %+v", actions)
	}
}
