package llm

import (
	"testing"
)

func TestNewClient_Providers(t *testing.T) {
	client, err := NewClient(Config{Provider: "openai", Model: "gpt-4o-mini", APIKey: "sk-test"})
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if client.Name() != "openai" {
		t.Errorf("Expected provider openai, got %s", client.Name())
	}

	client, err = NewClient(Config{Provider: "ollama", Model: "llama3.1"})
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if client.Name() != "ollama" {
		t.Errorf("Expected provider ollama, got %s", client.Name())
	}
}

func TestNewClient_EmptyProviderDisablesLLM(t *testing.T) {
	client, err := NewClient(Config{Provider: ""})
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if client != nil {
		t.Errorf("Expected nil client, got %v", client)
	}
}

func TestNewClient_OpenAIRequiresKey(t *testing.T) {
	if _, err := NewClient(Config{Provider: "openai", Model: "gpt-4o-mini"}); err == nil {
		t.Error("Expected error for missing API key")
	}
}

func TestNewClient_UnknownProvider(t *testing.T) {
	if _, err := NewClient(Config{Provider: "mystery"}); err == nil {
		t.Error("Expected error for unknown provider")
	}
}
