package config

import "testing"

func setRequired(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/chorus_test")
	t.Setenv("JWT_SECRET", "secret")
	t.Setenv("TASK_SIGNING_SECRET", "task-secret")
}

func TestLoadDefaults(t *testing.T) {
	setRequired(t)

	cfg, err := Load()
	if err != nil {
		t.Fatal(err)
	}

	if cfg.FlagThreshold != 0.5 || cfg.BlockThreshold != 0.7 {
		t.Fatalf("thresholds = %v/%v", cfg.FlagThreshold, cfg.BlockThreshold)
	}
	if cfg.CleanupBatchLimit != 100 {
		t.Fatalf("batch limit = %d", cfg.CleanupBatchLimit)
	}
	if cfg.GraceDays != 7 {
		t.Fatalf("grace days = %d", cfg.GraceDays)
	}
	if cfg.MaxActorsPerPost != 5 {
		t.Fatalf("max actors = %d", cfg.MaxActorsPerPost)
	}
	if len(cfg.ReactionVocab) == 0 {
		t.Fatal("reaction vocabulary must have a default")
	}
	if cfg.TaskAuthDisabled {
		t.Fatal("bypass must default off")
	}
}

func TestBypassIgnoredInProduction(t *testing.T) {
	setRequired(t)
	t.Setenv("TASK_AUTH_DISABLED", "true")
	t.Setenv("ENVIRONMENT", "production")

	cfg, err := Load()
	if err != nil {
		t.Fatal(err)
	}
	if cfg.TaskAuthDisabled {
		t.Fatal("bypass flag must never apply in production")
	}
}

func TestBypassHonoredOutsideProduction(t *testing.T) {
	setRequired(t)
	t.Setenv("TASK_AUTH_DISABLED", "true")
	t.Setenv("ENVIRONMENT", "development")

	cfg, err := Load()
	if err != nil {
		t.Fatal(err)
	}
	if !cfg.TaskAuthDisabled {
		t.Fatal("bypass should apply in development")
	}
}

func TestListParsing(t *testing.T) {
	setRequired(t)
	t.Setenv("DENYLIST", "badterm, worse term ,")

	cfg, err := Load()
	if err != nil {
		t.Fatal(err)
	}
	if len(cfg.Denylist) != 2 || cfg.Denylist[0] != "badterm" || cfg.Denylist[1] != "worse term" {
		t.Fatalf("denylist = %q", cfg.Denylist)
	}
}
