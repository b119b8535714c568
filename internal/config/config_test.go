package config

import "testing"

func TestLoad_Defaults(t *testing.T) {
	for _, key := range []string{"PORT", "WORKER_COUNT", "TODO_KEYWORDS", "DEFAULT_SEARCH_LIMIT", "DEFAULT_SNIPPET_SIZE"} {
		t.Setenv(key, "")
	}
	cfg := Load()
	if cfg.Port != "8090" {
		t.Errorf("port = %q", cfg.Port)
	}
	if cfg.WorkerCount != 4 || cfg.DefaultSearchLimit != 10 || cfg.DefaultSnippetSize != 100 {
		t.Errorf("defaults = %+v", cfg)
	}
	if len(cfg.TodoKeywords) != 1 || cfg.TodoKeywords[0] != "TODO" {
		t.Errorf("todo keywords = %v", cfg.TodoKeywords)
	}
}

func TestLoad_Env(t *testing.T) {
	t.Setenv("ORG_DIR", "/notes")
	t.Setenv("EXTRA_DIRS", "/a, /b")
	t.Setenv("TODO_KEYWORDS", "TODO,NEXT,WAIT")
	t.Setenv("STRICT_PARSE", "true")
	t.Setenv("DEFAULT_SEARCH_LIMIT", "25")

	cfg := Load()
	if cfg.OrgDir != "/notes" {
		t.Errorf("org dir = %q", cfg.OrgDir)
	}
	if got := cfg.Roots(); len(got) != 3 || got[1] != "/a" || got[2] != "/b" {
		t.Errorf("roots = %v", got)
	}
	if len(cfg.TodoKeywords) != 3 {
		t.Errorf("todo keywords = %v", cfg.TodoKeywords)
	}
	if !cfg.StrictParse || cfg.DefaultSearchLimit != 25 {
		t.Errorf("cfg = %+v", cfg)
	}
}

func TestValidate(t *testing.T) {
	if err := (Config{}).Validate(); err == nil {
		t.Error("expected error without ORG_DIR")
	}
	if err := (Config{OrgDir: "/notes"}).Validate(); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}
