package sessionkey

import (
	"os"
	"testing"
)

func TestInitializeGeneratesAndExportsKeyWhenUnset(t *testing.T) {
	os.Unsetenv(envVar)
	resetForTest()
	t.Cleanup(func() { os.Unsetenv(envVar); resetForTest() })

	if err := Initialize(32); err != nil {
		t.Fatalf("Initialize: %v", err)
	}
	if os.Getenv(envVar) == "" {
		t.Fatalf("Initialize did not export %s", envVar)
	}
	hexKey, err := HexKey()
	if err != nil {
		t.Fatalf("HexKey: %v", err)
	}
	if hexKey != os.Getenv(envVar) {
		t.Fatalf("HexKey() = %q, want exported env value %q", hexKey, os.Getenv(envVar))
	}
}

func TestInitializeIsIdempotent(t *testing.T) {
	os.Unsetenv(envVar)
	resetForTest()
	t.Cleanup(func() { os.Unsetenv(envVar); resetForTest() })

	if err := Initialize(32); err != nil {
		t.Fatalf("Initialize: %v", err)
	}
	first, _ := HexKey()
	if err := Initialize(32); err != nil {
		t.Fatalf("second Initialize: %v", err)
	}
	second, _ := HexKey()
	if first != second {
		t.Fatalf("second Initialize changed the key: %q != %q", first, second)
	}
}

func TestInitializeRejectsUndecodableEnvKey(t *testing.T) {
	os.Setenv(envVar, "not-hex!!")
	resetForTest()
	t.Cleanup(func() { os.Unsetenv(envVar); resetForTest() })

	if err := Initialize(32); err == nil {
		t.Fatalf("expected error for undecodable %s", envVar)
	}
}

func TestSignAndVerifyFrameRoundTrip(t *testing.T) {
	os.Unsetenv(envVar)
	resetForTest()
	t.Cleanup(func() { os.Unsetenv(envVar); resetForTest() })

	if err := Initialize(32); err != nil {
		t.Fatalf("Initialize: %v", err)
	}
	payload := []byte("prepare message body")
	token, err := SignFrame(payload)
	if err != nil {
		t.Fatalf("SignFrame: %v", err)
	}
	if err := VerifyFrame(token, payload); err != nil {
		t.Fatalf("VerifyFrame: %v", err)
	}
	if err := VerifyFrame(token, []byte("tampered body")); err == nil {
		t.Fatalf("VerifyFrame should reject a payload mismatch")
	}
}

func TestSignFrameBeforeInitializeFails(t *testing.T) {
	resetForTest()
	t.Cleanup(resetForTest)
	if _, err := SignFrame([]byte("x")); err == nil {
		t.Fatalf("SignFrame before Initialize should fail")
	}
}
