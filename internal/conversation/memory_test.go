package conversation

import (
	"fmt"
	"testing"

	"github.com/xpanvictor/aria/pkg/assistant"
)

func TestMemoryKeepsLastN(t *testing.T) {
	m := NewMemory(5)
	for i := 1; i <= 7; i++ {
		m.Record(fmt.Sprintf("question %d", i), fmt.Sprintf("answer %d", i))
	}

	got := m.Exchanges()
	if len(got) != 5 {
		t.Fatalf("expected 5 retained exchanges, got %d", len(got))
	}
	// Oldest first: exchanges 3..7 survive.
	for i, ex := range got {
		wantUser := fmt.Sprintf("question %d", i+3)
		if ex.User != wantUser {
			t.Errorf("exchange %d: expected %q, got %q", i, wantUser, ex.User)
		}
	}
}

func TestMemoryUnderCapacity(t *testing.T) {
	m := NewMemory(5)
	m.Record("hi", "hello")
	if m.Len() != 1 {
		t.Errorf("expected 1 exchange, got %d", m.Len())
	}
}

func TestPromptShape(t *testing.T) {
	m := NewMemory(5)
	m.Record("first question", "first answer")
	m.Record("second question", "second answer")

	msgs := m.Prompt("be brief", "third question")
	if len(msgs) != 6 {
		t.Fatalf("expected system + 2 exchanges + input = 6 messages, got %d", len(msgs))
	}
	if msgs[0].MsgRole != assistant.SYSTEM || msgs[0].Content != "be brief" {
		t.Errorf("expected system prompt first, got %+v", msgs[0])
	}
	wantRoles := []assistant.Role{
		assistant.SYSTEM, assistant.USER, assistant.ASSISTANT,
		assistant.USER, assistant.ASSISTANT, assistant.USER,
	}
	for i, role := range wantRoles {
		if msgs[i].MsgRole != role {
			t.Errorf("message %d: expected role %s, got %s", i, role, msgs[i].MsgRole)
		}
	}
	if msgs[5].Content != "third question" {
		t.Errorf("expected current input last, got %q", msgs[5].Content)
	}
}

func TestPromptWithoutSystem(t *testing.T) {
	m := NewMemory(5)
	msgs := m.Prompt("", "hello")
	if len(msgs) != 1 || msgs[0].MsgRole != assistant.USER {
		t.Errorf("expected lone user message, got %+v", msgs)
	}
}

func TestIsExit(t *testing.T) {
	phrases := DefaultExitPhrases
	tests := []struct {
		text string
		want bool
	}{
		{"goodbye", true},
		{"Goodbye!", true},
		{"okay GOODBYE then", true},
		{"I want to quit now", true},
		{"please stop", true},
		{"what a good buy", false},
		{"tell me about exits", true}, // substring match is intentional
		{"hello there", false},
		{"", false},
	}
	for _, tt := range tests {
		if got := IsExit(tt.text, phrases); got != tt.want {
			t.Errorf("IsExit(%q) = %v, want %v", tt.text, got, tt.want)
		}
	}
}

func TestFallbackRotation(t *testing.T) {
	f := NewFallback(nil)
	n := len(DefaultFallbackPhrases)

	// Rotation is driven by the exchange count at failure time, so repeated
	// failures with growing history walk the list and wrap around.
	for i := 0; i < 2*n; i++ {
		want := DefaultFallbackPhrases[i%n]
		if got := f.Pick(i); got != want {
			t.Errorf("Pick(%d) = %q, want %q", i, got, want)
		}
	}
}

func TestFallbackRecordedToMemoryAdvancesRotation(t *testing.T) {
	m := NewMemory(10)
	f := NewFallback(nil)

	first := f.Pick(m.Len())
	m.Record("unclear", first)
	second := f.Pick(m.Len())
	if first == second {
		t.Error("consecutive fallbacks must rotate, got the same phrase twice")
	}
}
