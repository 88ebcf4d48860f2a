package extrinsic

import (
	"bytes"
	"encoding/hex"
	"errors"
	"math/big"
	"strings"
	"testing"

	"time-release-helper/internal/models"
	"time-release-helper/internal/ss58"
)

const (
	alice    = "5GrwvaEF5zXb26Fz9rcQpDWS57CtERHpNehXCPcNoHGKutQY"
	aliceHex = "d43593c715fdd31c61141abd04a99fd6822c8558854ccde39a5684e7a56da27d"
	bobHex   = "8eaf04151687736326c9fea17e25fc5287613693c912909cb226aa4794f26a48"
)

func testBuilder() *Builder {
	return &Builder{
		Prefix:      42,
		TimeRelease: CallIndex{Pallet: 40, Call: 1},
		AsMulti:     CallIndex{Pallet: 30, Call: 1},
		MaxWeight:   models.Weight{RefTime: 1_000_000_000},
	}
}

func TestBuildTransfer(t *testing.T) {
	b := testBuilder()
	call := models.NewTransferCall(alice, big.NewInt(100_000_000), 0x01020304)

	got, err := b.BuildTransfer(call)
	if err != nil {
		t.Fatalf("BuildTransfer() error = %v", err)
	}

	want := "2801" + "00" + aliceHex +
		"04030201" + // start
		"01000000" + // period
		"01000000" + // period count
		"0284d717" // compact(100_000_000)
	if hex.EncodeToString(got) != want {
		t.Errorf("BuildTransfer() = %x\nwant %s", got, want)
	}
}

func TestBuildTransferRejectsRecipient(t *testing.T) {
	b := testBuilder()
	b.Prefix = 90

	_, err := b.BuildTransfer(models.NewTransferCall(alice, big.NewInt(1), 10))
	var invalid *models.InvalidAddressError
	if !errors.As(err, &invalid) {
		t.Errorf("BuildTransfer() error = %v, want InvalidAddressError", err)
	}
}

func TestBuildAsMulti(t *testing.T) {
	b := testBuilder()
	inner := []byte{0x28, 0x01, 0xaa}

	var bob ss58.AccountID
	raw, _ := hex.DecodeString(bobHex)
	copy(bob[:], raw)

	got := b.BuildAsMulti(2, []ss58.AccountID{bob}, inner)

	want := "1e01" + "0200" + "04" + bobHex + "00" + "2801aa" +
		"02286bee" + // compact(1_000_000_000)
		"00"
	if hex.EncodeToString(got) != want {
		t.Errorf("BuildAsMulti() = %x\nwant %s", got, want)
	}
}

func TestFingerprint(t *testing.T) {
	b := testBuilder()
	call, err := b.BuildTransfer(models.NewTransferCall(alice, big.NewInt(5), 100))
	if err != nil {
		t.Fatal(err)
	}

	fp := Fingerprint(call)
	if !strings.HasPrefix(fp, "0x") || len(fp) != 66 {
		t.Errorf("Fingerprint() = %s, want 0x + 64 hex chars", fp)
	}
	if Fingerprint(call) != fp {
		t.Error("Fingerprint() is not deterministic")
	}

	other, _ := b.BuildTransfer(models.NewTransferCall(alice, big.NewInt(6), 100))
	if Fingerprint(other) == fp {
		t.Error("different calls share a fingerprint")
	}

	// wrapping does not change the fingerprint of the inner call
	wrapped := b.BuildAsMulti(1, nil, call)
	if !bytes.Contains(wrapped, call) {
		t.Error("asMulti does not embed the inner call verbatim")
	}
}
