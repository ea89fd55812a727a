package llmclient

import "testing"

func TestExtractJSONDirectParse(t *testing.T) {
	var out map[string]string
	result := ExtractJSON(`{"guest_rooms": "Ocean-view rooms from $199."}`, &out)
	if result != Ok {
		t.Fatalf("expected Ok, got %v", result)
	}
	if out["guest_rooms"] != "Ocean-view rooms from $199." {
		t.Fatalf("unexpected value: %v", out)
	}
}

func TestExtractJSONStripsSurroundingProse(t *testing.T) {
	var out map[string]string
	raw := `Sure, here is the JSON you asked for:
{"faq": "Q: Pets allowed? A: Yes, under 25 lbs."}
Let me know if you need anything else.`
	result := ExtractJSON(raw, &out)
	if result != Ok {
		t.Fatalf("expected Ok, got %v", result)
	}
	if out["faq"] != "Q: Pets allowed? A: Yes, under 25 lbs." {
		t.Fatalf("unexpected value: %v", out)
	}
}

func TestExtractJSONFallsBackToFencedBlock(t *testing.T) {
	var out map[string]string
	raw := "Here:\n```json\n{\"other\": \"Loyalty: Marriott Bonvoy\"}\n```\n"
	result := ExtractJSON(raw, &out)
	if result == Empty {
		t.Fatalf("expected a non-empty parse result")
	}
	if out["other"] != "Loyalty: Marriott Bonvoy" {
		t.Fatalf("unexpected value: %v", out)
	}
}

func TestExtractJSONReturnsEmptyOnGarbage(t *testing.T) {
	var out map[string]string
	result := ExtractJSON("I could not find any information on this page.", &out)
	if result != Empty {
		t.Fatalf("expected Empty, got %v", result)
	}
}

func TestExtractJSONReturnsEmptyOnBlank(t *testing.T) {
	var out map[string]string
	if result := ExtractJSON("   ", &out); result != Empty {
		t.Fatalf("expected Empty for blank input, got %v", result)
	}
}
