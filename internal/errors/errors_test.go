package errors

import (
	"encoding/json"
	stderrors "errors"
	"strings"
	"testing"
)

func TestNew(t *testing.T) {
	tests := []struct {
		name    string
		code    string
		wantMsg string
		wantCat Category
	}{
		{
			name:    "client error",
			code:    "E008",
			wantMsg: "Error writing to read only message.",
			wantCat: CategoryAPI,
		},
		{
			name:    "not connected",
			code:    "E015",
			wantMsg: "Not connected yet",
			wantCat: CategoryTransport,
		},
		{
			name:    "protocol error",
			code:    "E061",
			wantMsg: "Server protocol version mismatch.",
			wantCat: CategoryProtocol,
		},
		{
			name:    "unknown error code",
			code:    "E999",
			wantMsg: "Unknown error",
			wantCat: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := New(tt.code)
			if err.Message != tt.wantMsg {
				t.Errorf("Message = %q, want %q", err.Message, tt.wantMsg)
			}
			if err.Category != tt.wantCat {
				t.Errorf("Category = %q, want %q", err.Category, tt.wantCat)
			}
			if err.Code != tt.code {
				t.Errorf("Code = %q, want %q", err.Code, tt.code)
			}
		})
	}
}

func TestClientTable(t *testing.T) {
	for n := 1; n <= ClientErrorCount; n++ {
		err := Client(n)
		if err.Message == "Unknown error" {
			t.Errorf("Client(%d) is not registered", n)
		}
		if got := err.Index(); got != n {
			t.Errorf("Client(%d).Index() = %d, want %d", n, got, n)
		}
	}
}

func TestIndexOutsideTable(t *testing.T) {
	for _, code := range []string{"E060", "E120", "", "bogus"} {
		if got := New(code).Index(); got != 0 {
			t.Errorf("New(%q).Index() = %d, want 0", code, got)
		}
	}
}

func TestNewf(t *testing.T) {
	err := Newf(CategoryCLI, "buffer %q not found", "Disp1")
	if err.Message != `buffer "Disp1" not found` {
		t.Errorf("Message = %q, want %q", err.Message, `buffer "Disp1" not found`)
	}
	if err.Category != CategoryCLI {
		t.Errorf("Category = %q, want %q", err.Category, CategoryCLI)
	}
}

func TestMilError_Error(t *testing.T) {
	err := New("E015")
	if got, want := err.Error(), "E015: Not connected yet"; got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}

	plain := &MilError{Message: "test error"}
	if plain.Error() != "test error" {
		t.Errorf("Error() = %q, want %q", plain.Error(), "test error")
	}

	wrapped := New("E060").Wrap(stderrors.New("refused"))
	if got, want := wrapped.Error(), "E060: WebSocket connection failed: refused"; got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
}

func TestUnwrap(t *testing.T) {
	cause := stderrors.New("dial tcp: refused")
	err := New("E060").Wrap(cause)
	if !stderrors.Is(err, cause) {
		t.Error("errors.Is should find the wrapped cause")
	}
}

func TestFromError(t *testing.T) {
	if FromError(nil, "E060") != nil {
		t.Error("FromError(nil) should be nil")
	}

	orig := New("E061")
	if got := FromError(orig, "E060"); got != orig {
		t.Error("FromError should return an existing MilError unchanged")
	}

	plain := stderrors.New("boom")
	got := FromError(plain, "E063")
	if got.Code != "E063" || got.Wrapped != plain {
		t.Errorf("FromError = %+v, want code E063 wrapping cause", got)
	}
}

func TestBuilders(t *testing.T) {
	err := New("E120").
		WithDetail("unexpected end of JSON input").
		WithSuggestion("Check milweb.json")
	if err.Detail != "unexpected end of JSON input" {
		t.Errorf("Detail = %q", err.Detail)
	}
	if err.Suggestion != "Check milweb.json" {
		t.Errorf("Suggestion = %q", err.Suggestion)
	}
}

func TestFormat(t *testing.T) {
	DisableColors()
	defer EnableColors()

	out := New("E008").WithSuggestion("Publish the mailbox read/write").Format()
	for _, want := range []string{
		"ERROR E008: Error writing to read only message.",
		"The mailbox was published without read/write access.",
		"Hint: Publish the mailbox read/write",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("Format() missing %q in:\n%s", want, out)
		}
	}
}

func TestFormatCompact(t *testing.T) {
	if got, want := New("E010").FormatCompact(), "E010: Unsupported control type."; got != want {
		t.Errorf("FormatCompact() = %q, want %q", got, want)
	}
}

func TestFormatJSON(t *testing.T) {
	out := New("E060").Wrap(stderrors.New("refused")).FormatJSON()

	var decoded map[string]string
	if err := json.Unmarshal([]byte(out), &decoded); err != nil {
		t.Fatalf("FormatJSON() is not valid JSON: %v\n%s", err, out)
	}
	if decoded["code"] != "E060" {
		t.Errorf("code = %q, want E060", decoded["code"])
	}
	if decoded["cause"] != "refused" {
		t.Errorf("cause = %q, want refused", decoded["cause"])
	}
}

func TestWrapText(t *testing.T) {
	lines := wrapText("one two three four five six", 10)
	for _, l := range lines {
		if len(l) > 10 {
			t.Errorf("line %q longer than 10", l)
		}
	}
	if strings.Join(lines, " ") != "one two three four five six" {
		t.Errorf("wrapText lost words: %v", lines)
	}
	if wrapText("", 10) != nil {
		t.Error("wrapText(\"\") should be nil")
	}
}

func TestGetAllCodesSorted(t *testing.T) {
	codes := GetAllCodes()
	for i := 1; i < len(codes); i++ {
		if codes[i-1] >= codes[i] {
			t.Fatalf("codes not sorted at %d: %v", i, codes)
		}
	}
	if _, ok := GetTemplate("E001"); !ok {
		t.Error("E001 should be registered")
	}
}

func TestRegister(t *testing.T) {
	Register("E999", ErrorTemplate{Category: CategoryCLI, Message: "custom"})
	defer delete(registry, "E999")
	if got := New("E999").Message; got != "custom" {
		t.Errorf("Message = %q, want custom", got)
	}
}
