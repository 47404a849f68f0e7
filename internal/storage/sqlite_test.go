package storage

import (
	"errors"
	"testing"
)

func testStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(":memory:")
	if err != nil {
		t.Fatalf("Open(:memory:): %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestMigrationsApplyOnce(t *testing.T) {
	s := testStore(t)

	// Re-running against an open store is a no-op.
	if err := s.migrate(); err != nil {
		t.Fatalf("second migrate: %v", err)
	}
}

func TestInteractions_AppendAndList(t *testing.T) {
	s := testStore(t)

	for _, i := range []Interaction{
		{ID: "i1", UserID: "u1", SessionID: "s1", Type: "chat", ModelUsed: "mistral", ResponseTimeMs: 120},
		{ID: "i2", UserID: "u1", SessionID: "s1", Type: "chat_fallback", ModelUsed: "fallback"},
		{ID: "i3", UserID: "u2", Type: "analysis_generation", ModelUsed: "mistral"},
	} {
		if err := s.SaveInteraction(i); err != nil {
			t.Fatalf("SaveInteraction(%s): %v", i.ID, err)
		}
	}

	all, err := s.RecentInteractions(10)
	if err != nil {
		t.Fatalf("RecentInteractions: %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("got %d interactions, want 3", len(all))
	}

	mine, err := s.InteractionsForUser("u1", 10)
	if err != nil {
		t.Fatalf("InteractionsForUser: %v", err)
	}
	if len(mine) != 2 {
		t.Errorf("got %d interactions for u1, want 2", len(mine))
	}
	for _, i := range mine {
		if i.UserID != "u1" {
			t.Errorf("unexpected user %q", i.UserID)
		}
	}
}

func TestBumpAPIUsage_Increments(t *testing.T) {
	s := testStore(t)

	for range 3 {
		if err := s.BumpAPIUsage("abc123", "/chat/message"); err != nil {
			t.Fatalf("BumpAPIUsage: %v", err)
		}
	}

	n, err := s.APIUsageCount("abc123", "/chat/message")
	if err != nil {
		t.Fatalf("APIUsageCount: %v", err)
	}
	if n != 3 {
		t.Errorf("count = %d, want 3", n)
	}

	if _, err := s.APIUsageCount("abc123", "/other"); !errors.Is(err, ErrNotFound) {
		t.Errorf("unknown endpoint: err = %v, want ErrNotFound", err)
	}
}

func TestKnowledge_DuplicateContentIgnored(t *testing.T) {
	s := testStore(t)

	doc := KnowledgeDoc{ID: "k1", SourceFile: "guide.md", Content: "Drink eight cups of water daily.", ContentHash: "h1"}
	if err := s.SaveKnowledgeDoc(doc); err != nil {
		t.Fatalf("SaveKnowledgeDoc: %v", err)
	}
	// Same hash, different id: must be silently skipped.
	doc.ID = "k2"
	if err := s.SaveKnowledgeDoc(doc); err != nil {
		t.Fatalf("SaveKnowledgeDoc duplicate: %v", err)
	}

	n, err := s.CountKnowledgeDocs()
	if err != nil {
		t.Fatalf("CountKnowledgeDocs: %v", err)
	}
	if n != 1 {
		t.Errorf("doc count = %d, want 1", n)
	}
}

func TestSearchKnowledge_Substring(t *testing.T) {
	s := testStore(t)

	docs := []KnowledgeDoc{
		{ID: "k1", SourceFile: "a.txt", Content: "Hydration matters for energy.", ContentHash: "h1"},
		{ID: "k2", SourceFile: "b.txt", Content: "Protein supports muscle recovery.", ContentHash: "h2"},
	}
	for _, d := range docs {
		if err := s.SaveKnowledgeDoc(d); err != nil {
			t.Fatalf("SaveKnowledgeDoc: %v", err)
		}
	}

	hits, err := s.SearchKnowledge("Hydration", 5)
	if err != nil {
		t.Fatalf("SearchKnowledge: %v", err)
	}
	if len(hits) != 1 || hits[0].ID != "k1" {
		t.Errorf("hits = %+v, want single k1", hits)
	}
}

func TestTrainingExamples_RoundTrip(t *testing.T) {
	s := testStore(t)

	ex := TrainingExample{ID: "t1", Question: "How much water?", Answer: "About 8 cups.", Category: "hydration"}
	if err := s.SaveTrainingExample(ex); err != nil {
		t.Fatalf("SaveTrainingExample: %v", err)
	}

	got, err := s.ListTrainingExamples(10)
	if err != nil {
		t.Fatalf("ListTrainingExamples: %v", err)
	}
	if len(got) != 1 || got[0].Question != ex.Question || got[0].Category != "hydration" {
		t.Errorf("got %+v", got)
	}
}

func TestSettings_CRUDAndSoftDelete(t *testing.T) {
	s := testStore(t)

	set := Setting{
		ID: "st1", Name: "default", ModelName: "mistral",
		Temperature: 0.7, MaxTokens: 2000, ContextWindow: 10,
		ResponseStyle: "professional", IncludeSources: true, MaxResponseLength: 500,
	}
	if err := s.CreateSetting(set); err != nil {
		t.Fatalf("CreateSetting: %v", err)
	}

	got, err := s.GetSetting("st1")
	if err != nil {
		t.Fatalf("GetSetting: %v", err)
	}
	if got.Name != "default" || !got.IsActive || !got.IncludeSources {
		t.Errorf("got %+v", got)
	}

	byName, err := s.GetSettingByName("default")
	if err != nil || byName.ID != "st1" {
		t.Errorf("GetSettingByName: %+v, %v", byName, err)
	}

	got.Temperature = 0.3
	got.ResponseStyle = "friendly"
	if err := s.UpdateSetting(got); err != nil {
		t.Fatalf("UpdateSetting: %v", err)
	}
	updated, _ := s.GetSetting("st1")
	if updated.Temperature != 0.3 || updated.ResponseStyle != "friendly" {
		t.Errorf("update not applied: %+v", updated)
	}

	if err := s.DeactivateSetting("st1"); err != nil {
		t.Fatalf("DeactivateSetting: %v", err)
	}
	active, err := s.ListSettings()
	if err != nil {
		t.Fatalf("ListSettings: %v", err)
	}
	if len(active) != 0 {
		t.Errorf("deactivated setting still listed: %+v", active)
	}
	// Row still exists, only hidden.
	if _, err := s.GetSetting("st1"); err != nil {
		t.Errorf("soft-deleted setting should still be fetchable: %v", err)
	}
}

func TestSettings_NotFound(t *testing.T) {
	s := testStore(t)

	if _, err := s.GetSetting("nope"); !errors.Is(err, ErrNotFound) {
		t.Errorf("GetSetting err = %v, want ErrNotFound", err)
	}
	if err := s.UpdateSetting(Setting{ID: "nope"}); !errors.Is(err, ErrNotFound) {
		t.Errorf("UpdateSetting err = %v, want ErrNotFound", err)
	}
	if err := s.DeactivateSetting("nope"); !errors.Is(err, ErrNotFound) {
		t.Errorf("DeactivateSetting err = %v, want ErrNotFound", err)
	}
}

func TestSessions_CreateListTouch(t *testing.T) {
	s := testStore(t)

	if err := s.CreateSession(ChatSession{ID: "sess1", UserID: "u1"}); err != nil {
		t.Fatalf("CreateSession: %v", err)
	}

	got, err := s.GetSession("sess1")
	if err != nil {
		t.Fatalf("GetSession: %v", err)
	}
	if got.Title != "New Chat" || got.MessageCount != 0 || !got.IsActive {
		t.Errorf("got %+v", got)
	}

	if err := s.TouchSession("sess1"); err != nil {
		t.Fatalf("TouchSession: %v", err)
	}
	if err := s.TouchSession("sess1"); err != nil {
		t.Fatalf("TouchSession: %v", err)
	}
	got, _ = s.GetSession("sess1")
	if got.MessageCount != 2 {
		t.Errorf("message count = %d, want 2", got.MessageCount)
	}

	// Touching an unknown session is not an error.
	if err := s.TouchSession("client-invented"); err != nil {
		t.Errorf("TouchSession unknown: %v", err)
	}

	list, err := s.ListSessions("u1")
	if err != nil {
		t.Fatalf("ListSessions: %v", err)
	}
	if len(list) != 1 || list[0].ID != "sess1" {
		t.Errorf("list = %+v", list)
	}
}
