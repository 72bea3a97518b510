package parser

import (
	"reflect"
	"testing"
)

const cleanJSON = `{
  "gpt4": {
    "personalization": 7,
    "relevance": 9,
    "fluency": 8,
    "coherence": 8,
    "creativity": 6,
    "reasons": {
      "personalization": "Generic tone",
      "relevance": "Directly answers the question"
    }
  },
  "phi4": {
    "personalization": 5,
    "relevance": 6,
    "fluency": 7,
    "coherence": 6,
    "creativity": 4,
    "reasons": {}
  }
}`

func TestParseJudgeScores_DirectParse(t *testing.T) {
	scores := ParseJudgeScores(cleanJSON)

	if len(scores) != 2 {
		t.Fatalf("expected 2 models, got %d", len(scores))
	}

	gpt4 := scores["gpt4"]
	if gpt4.Relevance != 9 {
		t.Errorf("expected relevance=9, got %d", gpt4.Relevance)
	}
	if gpt4.Creativity != 6 {
		t.Errorf("expected creativity=6, got %d", gpt4.Creativity)
	}
	if gpt4.Reasons["relevance"] != "Directly answers the question" {
		t.Errorf("unexpected reason: %q", gpt4.Reasons["relevance"])
	}

	phi4 := scores["phi4"]
	if phi4.Fluency != 7 {
		t.Errorf("expected fluency=7, got %d", phi4.Fluency)
	}
}

func TestParseJudgeScores_FencedBlockMatchesDirect(t *testing.T) {
	fenced := "Here are my ratings:\n\n```json\n" + cleanJSON + "\n```\n\nLet me know if you need more detail."

	direct := ParseJudgeScores(cleanJSON)
	fromFenced := ParseJudgeScores(fenced)

	if !reflect.DeepEqual(direct, fromFenced) {
		t.Errorf("fenced block parse diverged from direct parse:\ndirect:  %+v\nfenced:  %+v", direct, fromFenced)
	}
}

func TestParseJudgeScores_BraceSpanWithoutFence(t *testing.T) {
	wrapped := "Sure! Evaluation below.\n" + cleanJSON + "\nHope this helps."

	scores := ParseJudgeScores(wrapped)
	if len(scores) != 2 {
		t.Fatalf("expected 2 models, got %d", len(scores))
	}
	if scores["phi4"].Coherence != 6 {
		t.Errorf("expected coherence=6, got %d", scores["phi4"].Coherence)
	}
}

func TestParseJudgeScores_StrayBytesAndEscapedNewlines(t *testing.T) {
	// BOM-ish prefix plus literal \n and \" sequences, the way a
	// doubly-serialized payload arrives.
	dirty := "\uFEFF  {\\n  \\\"gpt4\\\": {\\n    \\\"personalization\\\": 7,\\n    \\\"relevance\\\": 9,\\n    \\\"fluency\\\": 8,\\n    \\\"coherence\\\": 8,\\n    \\\"creativity\\\": 6\\n  }\\n}"

	scores := ParseJudgeScores(dirty)
	if len(scores) != 1 {
		t.Fatalf("expected 1 model, got %d", len(scores))
	}

	got := scores["gpt4"]
	if got.Personalization != 7 || got.Relevance != 9 || got.Fluency != 8 || got.Coherence != 8 || got.Creativity != 6 {
		t.Errorf("recovered scores differ from clean parse: %+v", got)
	}
}

func TestParseJudgeScores_RegexReconstruction(t *testing.T) {
	// Never valid JSON: prose inside the object and a trailing comma.
	mangled := `Ratings: { "gpt4": { "relevance": 8, clearly strong "fluency": 7, "creativity": 5, "unknown_metric": 99, } }`

	scores := ParseJudgeScores(mangled)
	if len(scores) != 1 {
		t.Fatalf("expected partial recovery for 1 model, got %d", len(scores))
	}

	got := scores["gpt4"]
	if got.Relevance != 8 {
		t.Errorf("expected relevance=8, got %d", got.Relevance)
	}
	if got.Fluency != 7 {
		t.Errorf("expected fluency=7, got %d", got.Fluency)
	}
	if got.Creativity != 5 {
		t.Errorf("expected creativity=5, got %d", got.Creativity)
	}
	// Unknown metrics are ignored, missing dimensions default to zero.
	if got.Personalization != 0 || got.Coherence != 0 {
		t.Errorf("expected zero defaults, got %+v", got)
	}
}

func TestParseJudgeScores_NoCandidate(t *testing.T) {
	scores := ParseJudgeScores("I could not evaluate the responses, sorry.")
	if len(scores) != 0 {
		t.Errorf("expected empty result, got %+v", scores)
	}
}

func TestParseJudgeScores_EmptyInput(t *testing.T) {
	if scores := ParseJudgeScores(""); len(scores) != 0 {
		t.Errorf("expected empty result for empty input, got %+v", scores)
	}
}

func TestParseJudgeScores_NonObjectEntrySkipped(t *testing.T) {
	raw := `{"gpt4": {"relevance": 9}, "note": "not a score object", "count": 2}`

	scores := ParseJudgeScores(raw)
	if len(scores) != 1 {
		t.Fatalf("expected 1 model, got %d", len(scores))
	}
	if scores["gpt4"].Relevance != 9 {
		t.Errorf("expected relevance=9, got %d", scores["gpt4"].Relevance)
	}
}

func TestParseJudgeScores_CoercesFloatsAndStrings(t *testing.T) {
	raw := `{"gpt4": {"relevance": 8.0, "fluency": "7", "coherence": null}}`

	scores := ParseJudgeScores(raw)
	got := scores["gpt4"]
	if got.Relevance != 8 {
		t.Errorf("expected float coerced to 8, got %d", got.Relevance)
	}
	if got.Fluency != 7 {
		t.Errorf("expected string coerced to 7, got %d", got.Fluency)
	}
	if got.Coherence != 0 {
		t.Errorf("expected null coerced to 0, got %d", got.Coherence)
	}
}

func TestParseJudgeScores_MalformedReasonsDefaultsEmpty(t *testing.T) {
	raw := `{"gpt4": {"relevance": 9, "reasons": "should be an object"}}`

	scores := ParseJudgeScores(raw)
	got := scores["gpt4"]
	if got.Reasons == nil || len(got.Reasons) != 0 {
		t.Errorf("expected empty reasons map, got %+v", got.Reasons)
	}
}
