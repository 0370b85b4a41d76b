package main

import "testing"

func TestSourceURL(t *testing.T) {
	got := sourceURL("https://example.com/assets.git", "harbor", "v1.2.0")
	want := "git::https://example.com/assets.git//packs/harbor?ref=v1.2.0"
	if got != want {
		t.Errorf("sourceURL = %q, want %q", got, want)
	}
}
