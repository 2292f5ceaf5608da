package model

import "testing"

func TestParseSource(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    Source
		wantErr bool
	}{
		{name: "kalshi", input: "kalshi", want: SourceKalshi},
		{name: "polymarket", input: "polymarket", want: SourcePolymarket},
		{name: "unknown", input: "predictit", wantErr: true},
		{name: "empty", input: "", wantErr: true},
		{name: "case sensitive", input: "Kalshi", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseSource(tt.input)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("ParseSource(%q) = %q, want error", tt.input, got)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseSource(%q) failed: %v", tt.input, err)
			}
			if got != tt.want {
				t.Errorf("ParseSource(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}
