package di

import "testing"

type counter struct{ n int }

func TestRegisterToken_IsLazySingleton(t *testing.T) {
	c := NewContainer()
	builds := 0
	tok := NewToken[*counter]("test.counter")

	RegisterToken(c, tok, func(ServiceRegistry) *counter {
		builds++
		return &counter{n: 42}
	})

	if builds != 0 {
		t.Fatalf("factory ran before first Get")
	}

	a := GetToken(c, tok)
	b := GetToken(c, tok)
	if a != b {
		t.Error("expected the same instance on every Get")
	}
	if builds != 1 {
		t.Errorf("expected one build, got %d", builds)
	}
	if a.n != 42 {
		t.Errorf("expected 42, got %d", a.n)
	}
}

func TestRegister_ValueAndDependencies(t *testing.T) {
	c := NewContainer()
	c.Register("config", "cfg-value")

	tok := NewToken[string]("test.derived")
	RegisterToken(c, tok, func(sr ServiceRegistry) string {
		return sr.Get("config").(string) + "+derived"
	})

	if got := GetToken(c, tok); got != "cfg-value+derived" {
		t.Errorf("unexpected value %q", got)
	}
}

func TestGet_MissingPanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("expected panic for missing key")
		}
	}()
	NewContainer().Get("missing")
}
