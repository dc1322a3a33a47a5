package types

import (
	"strings"
	"testing"
)

func TestParseComplexity(t *testing.T) {
	tests := []struct {
		in      string
		want    Complexity
		wantErr bool
	}{
		{"beginner", ComplexityBeginner, false},
		{" Intermediate ", ComplexityIntermediate, false},
		{"ADVANCED", ComplexityAdvanced, false},
		{"expert", "", true},
		{"", "", true},
	}

	for _, tt := range tests {
		got, err := ParseComplexity(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseComplexity(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseComplexity(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestDocumentRequest_FileStem(t *testing.T) {
	req := DocumentRequest{Topic: "Graph Theory: 101!", Complexity: ComplexityBeginner, Chapters: 3}
	if got, want := req.FileStem(), "Graph_Theory__101__beginner"; got != want {
		t.Errorf("FileStem() = %q, want %q", got, want)
	}
	if got := req.EstimatedMinutes(); got != 9 {
		t.Errorf("EstimatedMinutes() = %d, want 9", got)
	}
}

func TestDocumentRequest_Validate(t *testing.T) {
	limits := DefaultLimits()

	t.Run("accepts valid request", func(t *testing.T) {
		req := DocumentRequest{Topic: "Rust", Complexity: ComplexityAdvanced, Chapters: 12}
		if err := req.Validate(limits); err != nil {
			t.Errorf("Validate() error = %v", err)
		}
	})

	t.Run("rejects blank topic", func(t *testing.T) {
		req := DocumentRequest{Topic: "  ", Complexity: ComplexityAdvanced, Chapters: 5}
		if err := req.Validate(limits); err == nil {
			t.Error("expected error for blank topic")
		}
	})

	t.Run("rejects chapter count out of range", func(t *testing.T) {
		req := DocumentRequest{Topic: "Rust", Complexity: ComplexityBeginner, Chapters: 13}
		err := req.Validate(limits)
		if err == nil || !strings.Contains(err.Error(), "between 3 and 12") {
			t.Errorf("Validate() error = %v, want chapter range error", err)
		}
	})
}

func TestValidateRequestJSON(t *testing.T) {
	limits := DefaultLimits()

	t.Run("decodes and trims valid payload", func(t *testing.T) {
		req, err := ValidateRequestJSON([]byte(`{"topic":"  Graph Theory ","complexity":"beginner","chapters":3}`), limits)
		if err != nil {
			t.Fatalf("ValidateRequestJSON() error = %v", err)
		}
		if req.Topic != "Graph Theory" {
			t.Errorf("Topic = %q, want %q", req.Topic, "Graph Theory")
		}
		if req.Complexity != ComplexityBeginner || req.Chapters != 3 {
			t.Errorf("unexpected request: %+v", req)
		}
	})

	errorCases := []struct {
		name    string
		payload string
		want    string
	}{
		{"missing fields", `{"topic":"Go"}`, "missing required fields"},
		{"bad complexity", `{"topic":"Go","complexity":"expert","chapters":4}`, "invalid complexity level"},
		{"too few chapters", `{"topic":"Go","complexity":"beginner","chapters":2}`, "between 3 and 12"},
		{"too many chapters", `{"topic":"Go","complexity":"beginner","chapters":40}`, "between 3 and 12"},
		{"blank topic", `{"topic":"   ","complexity":"beginner","chapters":4}`, "topic must be a non-empty string"},
		{"not json", `{topic`, "invalid request body"},
	}

	for _, tc := range errorCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := ValidateRequestJSON([]byte(tc.payload), limits)
			if err == nil {
				t.Fatal("expected error, got nil")
			}
			if !strings.Contains(err.Error(), tc.want) {
				t.Errorf("error = %q, want it to contain %q", err.Error(), tc.want)
			}
		})
	}

	t.Run("respects custom limits", func(t *testing.T) {
		custom := Limits{MinChapters: 1, MaxChapters: 2, DefaultChapters: 1}
		_, err := ValidateRequestJSON([]byte(`{"topic":"Go","complexity":"beginner","chapters":3}`), custom)
		if err == nil || !strings.Contains(err.Error(), "between 1 and 2") {
			t.Errorf("error = %v, want custom range error", err)
		}
	})
}
