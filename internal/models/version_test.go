package models

import "testing"

func TestParseVersion(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{name: "simple triple", input: "1.2.3", wantErr: false},
		{name: "multi digit", input: "6.9.67", wantErr: false},
		{name: "zero components", input: "0.0.0", wantErr: false},
		{name: "v prefix rejected", input: "v1.2.3", wantErr: true},
		{name: "two components", input: "1.2", wantErr: true},
		{name: "four components", input: "1.2.3.4", wantErr: true},
		{name: "prerelease suffix", input: "1.2.3-rc1", wantErr: true},
		{name: "empty", input: "", wantErr: true},
		{name: "trailing dot", input: "1.2.", wantErr: true},
		{name: "embedded in text", input: "version 1.2.3", wantErr: true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			v, err := ParseVersion(tc.input)
			if tc.wantErr {
				if err == nil {
					t.Fatalf("expected error for %q, got version %q", tc.input, v)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error for %q: %v", tc.input, err)
			}
			if v.String() != tc.input {
				t.Fatalf("expected %q, got %q", tc.input, v)
			}
		})
	}
}

func TestVersionNames(t *testing.T) {
	v := Version("1.2.3")
	if got := v.TagName(); got != "v1.2.3" {
		t.Errorf("TagName: expected v1.2.3, got %s", got)
	}
	if got := v.BranchName("release/v"); got != "release/v1.2.3" {
		t.Errorf("BranchName: expected release/v1.2.3, got %s", got)
	}
}
