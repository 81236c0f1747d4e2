package agent

import "testing"

func TestSaveLoadProfile_RoundTrips(t *testing.T) {
	home := t.TempDir()
	want := &Profile{ID: "librarian", Name: "Librarian", Responsibility: "Indexes docs.", ToolIDs: []string{"read", "bash"}}

	if err := SaveProfile(home, want); err != nil {
		t.Fatalf("SaveProfile: %v", err)
	}

	got, err := LoadProfile(home, "librarian")
	if err != nil {
		t.Fatalf("LoadProfile: %v", err)
	}
	if got.Name != want.Name || got.Responsibility != want.Responsibility || len(got.ToolIDs) != 2 {
		t.Fatalf("round trip mismatch: got %+v, want %+v", got, want)
	}
}

func TestLoadProfile_RejectsPathTraversal(t *testing.T) {
	home := t.TempDir()
	if _, err := LoadProfile(home, "../escape"); err == nil {
		t.Fatal("expected error for path-traversal agent id")
	}
}

func TestListProfiles_ReturnsAllSaved(t *testing.T) {
	home := t.TempDir()
	_ = SaveProfile(home, &Profile{ID: "a", Name: "A"})
	_ = SaveProfile(home, &Profile{ID: "b", Name: "B"})

	profiles, err := ListProfiles(home)
	if err != nil {
		t.Fatalf("ListProfiles: %v", err)
	}
	if len(profiles) != 2 {
		t.Fatalf("expected 2 profiles, got %d", len(profiles))
	}
}

func TestProfile_AllowsTool(t *testing.T) {
	unrestricted := &Profile{}
	if !unrestricted.AllowsTool("anything") {
		t.Error("empty ToolIDs should allow any tool")
	}

	restricted := &Profile{ToolIDs: []string{"read", "bash"}}
	if !restricted.AllowsTool("read") {
		t.Error("expected read to be allowed")
	}
	if restricted.AllowsTool("write") {
		t.Error("expected write to be denied")
	}
}
