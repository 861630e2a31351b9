package xfeed

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
)

func TestFeatureFlagPrecedence(t *testing.T) {
	f := newFeatureFlags(flagOverrides{
		Global: map[string]any{
			"articles_preview_enabled": false, // flips a compiled default
			"brand_new_required_flag":  true,  // adds an unknown flag
		},
		Sets: map[string]map[string]any{
			"search": {
				"brand_new_required_flag": false, // per-family beats global
			},
		},
	})

	search := f.Build("search")
	if search["articles_preview_enabled"] != false {
		t.Fatal("global override should flip compiled default")
	}
	if search["brand_new_required_flag"] != false {
		t.Fatal("per-family override should beat global")
	}

	detail := f.Build("detail")
	if detail["brand_new_required_flag"] != true {
		t.Fatal("global override should apply to families without their own override")
	}
	if detail["vibe_api_enabled"] != true {
		t.Fatal("family template should apply on top of core")
	}
}

func TestFeatureFlagBuildIsolation(t *testing.T) {
	f := newFeatureFlags(flagOverrides{})
	a := f.Build("timeline")
	a["responsive_web_edit_tweet_api_enabled"] = false

	b := f.Build("timeline")
	if b["responsive_web_edit_tweet_api_enabled"] != true {
		t.Fatal("Build must return a fresh map each call")
	}
}

func TestLoadFlagOverrides(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "features.json")

	// Missing file: empty overrides, no error.
	ov := loadFlagOverrides(path)
	if len(ov.Global) != 0 || len(ov.Sets) != 0 {
		t.Fatal("missing file should yield empty overrides")
	}

	want := flagOverrides{
		Global: map[string]any{"x": true},
		Sets:   map[string]map[string]any{"bookmarks": {"y": float64(3)}},
	}
	data, _ := json.Marshal(want)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatal(err)
	}
	ov = loadFlagOverrides(path)
	if ov.Global["x"] != true {
		t.Fatalf("global not loaded: %v", ov.Global)
	}
	if ov.Sets["bookmarks"]["y"] != float64(3) {
		t.Fatalf("set not loaded: %v", ov.Sets)
	}

	// Malformed file: ignored, not fatal.
	if err := os.WriteFile(path, []byte("{broken"), 0o644); err != nil {
		t.Fatal(err)
	}
	ov = loadFlagOverrides(path)
	if len(ov.Global) != 0 {
		t.Fatal("malformed file should yield empty overrides")
	}
}
