package extract

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/sashabaranov/go-openai"

	"github.com/oghuzrustamli/iranisrael/internal/model"
)

func newTestServer(t *testing.T, handler http.HandlerFunc) (*httptest.Server, *Client) {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client, err := NewClient(model.ExtractConfig{
		APIKey:  "test-key",
		BaseURL: server.URL,
		Model:   "gpt-4o-mini",
	})
	if err != nil {
		t.Fatalf("Failed to create client: %v", err)
	}
	return server, client
}

func completionWith(content string) openai.ChatCompletionResponse {
	return openai.ChatCompletionResponse{
		ID:     "chatcmpl-123",
		Object: "chat.completion",
		Model:  "gpt-4o-mini",
		Choices: []openai.ChatCompletionChoice{
			{
				Index: 0,
				Message: openai.ChatCompletionMessage{
					Role:    "assistant",
					Content: content,
				},
				FinishReason: "stop",
			},
		},
	}
}

func TestClient_Extract_Success(t *testing.T) {
	reply := "```json\n" + `{
		"attacked_city": "Tel Aviv",
		"attacker": "Iran",
		"attack_details": {
			"target_type": "Residential Area",
			"attack_time": "2025-06-15",
			"attack_status": "successful"
		},
		"casualties": {"dead": 3, "wounded": "No Info"},
		"weapon_type": "Ballistic Missile",
		"is_today": true,
		"confidence": 95
	}` + "\n```"

	_, client := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/completions" {
			t.Errorf("Expected path /chat/completions, got %s", r.URL.Path)
		}
		if r.Header.Get("Authorization") != "Bearer test-key" {
			t.Errorf("Unexpected Authorization header: %s", r.Header.Get("Authorization"))
		}
		_ = json.NewEncoder(w).Encode(completionWith(reply))
	})

	result, err := client.Extract(context.Background(), "Iran fired missiles at Tel Aviv")
	if err != nil {
		t.Fatalf("Extract failed: %v", err)
	}
	if result == nil {
		t.Fatal("Expected a result, got nil")
	}

	if result.AttackedCity == nil || *result.AttackedCity != "Tel Aviv" {
		t.Errorf("Unexpected attacked city: %v", result.AttackedCity)
	}
	if result.Attacker == nil || *result.Attacker != "Iran" {
		t.Errorf("Unexpected attacker: %v", result.Attacker)
	}
	if result.Details.AttackStatus != model.StatusSuccessful {
		t.Errorf("Unexpected attack status: %s", result.Details.AttackStatus)
	}
	if result.Casualties.Dead != model.KnownCount(3) {
		t.Errorf("Unexpected dead count: %+v", result.Casualties.Dead)
	}
	if result.Casualties.Wounded.Known {
		t.Errorf("Wounded should be unknown, got %+v", result.Casualties.Wounded)
	}
	if !result.IsToday.Known || !result.IsToday.Value {
		t.Errorf("Unexpected is_today: %+v", result.IsToday)
	}
	if result.Confidence != 95 {
		t.Errorf("Unexpected confidence: %d", result.Confidence)
	}
}

func TestClient_Extract_NoAttack(t *testing.T) {
	reply := `{
		"attacked_city": null,
		"attacker": null,
		"attack_details": {"target_type": "", "attack_time": "", "attack_status": ""},
		"casualties": {"dead": "No Info", "wounded": "No Info"},
		"weapon_type": "",
		"is_today": null,
		"confidence": 0
	}`

	_, client := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(completionWith(reply))
	})

	result, err := client.Extract(context.Background(), "Diplomats met for talks")
	if err != nil {
		t.Fatalf("Extract failed: %v", err)
	}
	if result == nil {
		t.Fatal("Expected a result, got nil")
	}
	if result.AttackedCity != nil {
		t.Errorf("Expected null attacked city, got %v", *result.AttackedCity)
	}
	// Empty descriptive fields are normalized to the sentinel.
	if result.Details.AttackStatus != model.NoInfo {
		t.Errorf("Expected No Info status, got %s", result.Details.AttackStatus)
	}
	if result.WeaponType != model.NoInfo {
		t.Errorf("Expected No Info weapon type, got %s", result.WeaponType)
	}
}

func TestClient_Extract_QuotedConfidence(t *testing.T) {
	reply := `{"attacked_city": "Haifa", "attacker": "Iran", "confidence": "88"}`

	_, client := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(completionWith(reply))
	})

	result, err := client.Extract(context.Background(), "text")
	if err != nil {
		t.Fatalf("Extract failed: %v", err)
	}
	if result.Confidence != 88 {
		t.Errorf("Expected confidence 88, got %d", result.Confidence)
	}
}

func TestClient_Extract_GarbageReply(t *testing.T) {
	_, client := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(completionWith("I cannot analyze this text."))
	})

	result, err := client.Extract(context.Background(), "text")
	if err != nil {
		t.Fatalf("Expected no error for unparseable reply, got %v", err)
	}
	if result != nil {
		t.Errorf("Expected nil result for unparseable reply, got %+v", result)
	}
}

func TestClient_Extract_RateLimit(t *testing.T) {
	_, client := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"error": {"message": "Rate limit exceeded", "type": "rate_limit_error"}}`))
	})

	_, err := client.Extract(context.Background(), "text")
	if err == nil {
		t.Fatal("Expected error, got nil")
	}
	if !IsRateLimit(err) {
		t.Errorf("Expected rate limit error, got %T: %v", err, err)
	}
}

func TestClient_Extract_ServerError(t *testing.T) {
	_, client := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"error": {"message": "Internal Server Error", "type": "server_error"}}`))
	})

	_, err := client.Extract(context.Background(), "text")
	if err == nil {
		t.Fatal("Expected error, got nil")
	}
	if IsRateLimit(err) {
		t.Error("Server error must not classify as rate limit")
	}
	var reqErr *RequestError
	if !errors.As(err, &reqErr) {
		t.Errorf("Expected RequestError, got %T", err)
	}
}

func TestNewClient_RequiresCredentials(t *testing.T) {
	if _, err := NewClient(model.ExtractConfig{}); err == nil {
		t.Fatal("Expected error without API key or base URL")
	}
}

func TestStripFences(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"```json\n{\"a\":1}\n```", `{"a":1}`},
		{"```\n{\"a\":1}\n```", `{"a":1}`},
		{`{"a":1}`, `{"a":1}`},
		{"  {\"a\":1}  ", `{"a":1}`},
	}
	for _, tt := range tests {
		if got := stripFences(tt.input); got != tt.want {
			t.Errorf("stripFences(%q): expected %q, got %q", tt.input, tt.want, got)
		}
	}
}
