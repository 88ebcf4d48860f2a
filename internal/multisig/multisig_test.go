package multisig

import (
	"errors"
	"strings"
	"testing"

	"time-release-helper/internal/models"
	"time-release-helper/internal/ss58"
)

const (
	alice   models.Signatory = "5GrwvaEF5zXb26Fz9rcQpDWS57CtERHpNehXCPcNoHGKutQY"
	bob     models.Signatory = "5FHneW46xGXgs5mUiveU4sbTyGBzmstUspZC92UhjJM694ty"
	charlie models.Signatory = "5FLSigC9HGRKVhB9FiEo4Y3koPsNmBmLJbpXg2mp1hXcS59Y"
)

func TestResolveKnownAccount(t *testing.T) {
	cfg, err := Resolve(42, 2, []models.Signatory{alice, bob, charlie}, "", false)
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if want := models.Signatory("5DjYJStmdZ2rcqXbXGX7TW85JsrW6uG4y9MUcLq2BoPMpRA7"); cfg.DerivedAddress != want {
		t.Errorf("DerivedAddress = %s, want %s", cfg.DerivedAddress, want)
	}
}

func TestResolveOrderIndependent(t *testing.T) {
	first, err := Resolve(42, 2, []models.Signatory{alice, bob, charlie}, alice, true)
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	second, err := Resolve(42, 2, []models.Signatory{charlie, alice, bob}, alice, true)
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}

	if first.DerivedAddress != second.DerivedAddress {
		t.Errorf("derived address depends on order: %s vs %s", first.DerivedAddress, second.DerivedAddress)
	}
	if len(first.Signatories) != 3 {
		t.Fatalf("got %d signatories, want 3", len(first.Signatories))
	}
	for i := range first.Signatories {
		if first.Signatories[i] != second.Signatories[i] {
			t.Errorf("canonical order differs at %d", i)
		}
	}

	// bob (8eaf..) < charlie (90b5..) < alice (d435..)
	want := []models.Signatory{bob, charlie, alice}
	for i, s := range want {
		if first.Signatories[i] != s {
			t.Errorf("Signatories[%d] = %s, want %s", i, first.Signatories[i], s)
		}
	}

	if err := ss58.Check(first.DerivedAddress.String(), 42); err != nil {
		t.Errorf("derived address is not a valid prefix 42 address: %v", err)
	}
}

func TestResolveImplicitSender(t *testing.T) {
	withSender, err := Resolve(42, 2, []models.Signatory{bob, charlie}, alice, true)
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	explicit, err := Resolve(42, 2, []models.Signatory{alice, bob, charlie}, "", false)
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if withSender.DerivedAddress != explicit.DerivedAddress {
		t.Error("implicit sender should match an explicit listing")
	}
}

func TestResolveCollapsesDuplicates(t *testing.T) {
	cfg, err := Resolve(42, 2, []models.Signatory{alice, bob, bob}, alice, true)
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if len(cfg.Signatories) != 2 {
		t.Errorf("got %d signatories, want 2", len(cfg.Signatories))
	}
}

func TestResolveThreshold(t *testing.T) {
	_, err := Resolve(42, 4, []models.Signatory{alice, bob, charlie}, alice, true)
	if !errors.Is(err, models.ErrThresholdExceedsSignatories) {
		t.Errorf("threshold 4 of 3: error = %v", err)
	}

	_, err = Resolve(42, 0, []models.Signatory{alice, bob}, alice, true)
	if !errors.Is(err, models.ErrThresholdExceedsSignatories) {
		t.Errorf("threshold 0: error = %v", err)
	}

	// a duplicate does not count towards the threshold
	_, err = Resolve(42, 3, []models.Signatory{alice, bob, bob}, alice, true)
	if !errors.Is(err, models.ErrThresholdExceedsSignatories) {
		t.Errorf("threshold over distinct count: error = %v", err)
	}
}

func TestResolveCollectsAllErrors(t *testing.T) {
	_, err := Resolve(42, 5, []models.Signatory{alice, "nonsense", bob, "5Gxxx"}, alice, true)
	if err == nil {
		t.Fatal("expected an error")
	}

	var invalid *models.InvalidAddressError
	if !errors.As(err, &invalid) {
		t.Errorf("missing InvalidAddressError in %v", err)
	}
	if !errors.Is(err, models.ErrThresholdExceedsSignatories) {
		t.Errorf("missing threshold error in %v", err)
	}
	for _, bad := range []string{"nonsense", "5Gxxx"} {
		if !strings.Contains(err.Error(), bad) {
			t.Errorf("error does not mention %s: %v", bad, err)
		}
	}
}

func TestResolveRejectsOtherNetwork(t *testing.T) {
	polkadotAlice := models.Signatory("15oF4uVJwmo4TdGW7VfQxNLavjCXviqxT9S1MgbjMNHr6Sp5")
	_, err := Resolve(42, 1, []models.Signatory{polkadotAlice, bob}, bob, true)

	var invalid *models.InvalidAddressError
	if !errors.As(err, &invalid) || invalid.Which != polkadotAlice.String() {
		t.Errorf("Resolve() error = %v, want InvalidAddressError for %s", err, polkadotAlice)
	}
}

func TestOtherSignatories(t *testing.T) {
	cfg, err := Resolve(42, 2, []models.Signatory{alice, bob, charlie}, alice, true)
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}

	others, err := OtherSignatories(cfg, alice)
	if err != nil {
		t.Fatalf("OtherSignatories() error = %v", err)
	}
	if len(others) != 2 {
		t.Fatalf("got %d others, want 2", len(others))
	}
	if others[0].Compare(others[1]) >= 0 {
		t.Error("others are not sorted")
	}
	bobID, _ := ss58.DecodeWithPrefix(bob.String(), 42)
	if others[0] != bobID {
		t.Error("bob should sort first")
	}

	stranger := models.Signatory("5DAAnrj7VHTznn2AWBemMuyBwZWs6FNFjdyVXUeYum3PTXFy")
	if _, err := OtherSignatories(cfg, stranger); err == nil {
		t.Error("expected error for a sender outside the set")
	}

	if !Contains(cfg, charlie) || Contains(cfg, stranger) {
		t.Error("Contains() mismatch")
	}
}
