package auth

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore/policy"
)

func TestStaticCredentialAtomicSwap(t *testing.T) {
	exp0 := time.Now().Add(time.Hour)
	cred := NewStaticTokenCredential("t0", exp0)
	tokens := map[string]time.Time{
		"t0": exp0,
		"t1": time.Now().Add(2 * time.Hour),
		"t2": time.Now().Add(3 * time.Hour),
	}

	var wg sync.WaitGroup
	for name, exp := range tokens {
		wg.Add(1)
		go func(name string, exp time.Time) {
			defer wg.Done()
			cred.Set(name, exp)
		}(name, exp)
	}
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			tok, err := cred.GetToken(context.Background(), policy.TokenRequestOptions{})
			if err != nil {
				t.Errorf("unexpected error: %v", err)
				return
			}
			// A read must observe a consistent token/expiry pair.
			if want, ok := tokens[tok.Token]; !ok || !tok.ExpiresOn.Equal(want) {
				t.Errorf("torn read: token %q with expiry %v", tok.Token, tok.ExpiresOn)
			}
		}()
	}
	wg.Wait()
}

func TestStaticCredentialEmptyToken(t *testing.T) {
	cred := NewStaticTokenCredential("", time.Time{})
	if _, err := cred.GetToken(context.Background(), policy.TokenRequestOptions{}); err == nil {
		t.Fatalf("expected error with no token injected")
	}
	cred.Set("tok", time.Time{})
	got, err := cred.GetToken(context.Background(), policy.TokenRequestOptions{})
	if err != nil || got.Token != "tok" {
		t.Fatalf("expected injected token, got %q (%v)", got.Token, err)
	}
}
