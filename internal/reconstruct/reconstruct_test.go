package reconstruct

import (
	"testing"

	"github.com/arvidsson/chatterbox/internal/symbol"
)

func TestStringBasicSentence(t *testing.T) {
	in := symbol.New()
	the := in.Intern("THE")
	cat := in.Intern("CAT")
	sat := in.Intern("SAT")
	period := in.Intern(".")

	got := String([]uint32{the, cat, sat, period}, in)
	want := "The cat sat."
	if got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
}

func TestStringNoSpaceBeforePunctuation(t *testing.T) {
	in := symbol.New()
	wait := in.Intern("WAIT")
	ellipsis := in.Intern("...")
	really := in.Intern("REALLY")
	bang := in.Intern("?!")

	got := String([]uint32{wait, ellipsis, really, bang}, in)
	want := "Wait... really?!"
	if got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
}

func TestStringAppendsTerminalPunctuationWhenMissing(t *testing.T) {
	in := symbol.New()
	hello := in.Intern("HELLO")

	got := String([]uint32{hello}, in)
	want := "Hello."
	if got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
}

func TestStringDropsSentinels(t *testing.T) {
	in := symbol.New()
	hi := in.Intern("HI")
	period := in.Intern(".")

	got := String([]uint32{symbol.FinID, hi, period, symbol.ErrorID}, in)
	want := "Hi."
	if got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
}

func TestStringAlreadyEndsInTerminalPunctuation(t *testing.T) {
	in := symbol.New()
	hi := in.Intern("HI")
	bang := in.Intern("!")

	got := String([]uint32{hi, bang}, in)
	want := "Hi!"
	if got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
}

func TestStringEmptyInput(t *testing.T) {
	in := symbol.New()
	if got := String(nil, in); got != "" {
		t.Fatalf("got %q, want empty string", got)
	}
}
