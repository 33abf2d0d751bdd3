package identity

import (
	"testing"
	"time"
)

func TestTokenRoundTrip(t *testing.T) {
	p := TokenProvider{Secret: "test-secret", TTL: time.Hour}
	token, err := p.Issue("user-1", "Sara", map[string]string{MetadataRoleKey: "customer"})
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	u, err := p.Parse(token)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if u.ID != "user-1" || u.Name != "Sara" || !u.IsSignedIn {
		t.Fatalf("user = %+v", u)
	}
	if u.Metadata[MetadataRoleKey] != "customer" {
		t.Fatalf("metadata = %v", u.Metadata)
	}
}

func TestTokenExpiry(t *testing.T) {
	issued := time.Now()
	p := TokenProvider{Secret: "test-secret", TTL: time.Minute, Now: func() time.Time { return issued }}
	token, err := p.Issue("user-1", "", nil)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	p.Now = func() time.Time { return issued.Add(2 * time.Minute) }
	if _, err := p.Parse(token); err == nil {
		t.Fatal("expired token accepted")
	}
}

func TestTokenWrongSecret(t *testing.T) {
	token, err := TokenProvider{Secret: "one"}.Issue("user-1", "", nil)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if _, err := (TokenProvider{Secret: "two"}).Parse(token); err == nil {
		t.Fatal("token parsed with wrong secret")
	}
}

func TestIssueRequiresSecretAndSubject(t *testing.T) {
	if _, err := (TokenProvider{}).Issue("user-1", "", nil); err == nil {
		t.Fatal("empty secret accepted")
	}
	if _, err := (TokenProvider{Secret: "s"}).Issue("", "", nil); err == nil {
		t.Fatal("empty user id accepted")
	}
}
