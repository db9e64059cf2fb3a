package security

import (
	"sync"
	"testing"
)

var (
	testKeyOnce sync.Once
	testKeyPair *KeyPair
	testKeyErr  error
)

// testKeys returns a memoized RSA keypair so the whole package pays for key
// generation once.
func testKeys(t *testing.T) *KeyPair {
	t.Helper()
	testKeyOnce.Do(func() {
		testKeyPair, testKeyErr = GenerateKeyPair()
	})
	if testKeyErr != nil {
		t.Fatalf("GenerateKeyPair: %v", testKeyErr)
	}
	return testKeyPair
}
