package cli

import (
	"bufio"
	"bytes"
	"errors"
	"strings"
	"testing"
)

func rdr(s string) *bufio.Reader {
	return bufio.NewReader(strings.NewReader(s))
}

func TestGetSimpleText(t *testing.T) {
	var out bytes.Buffer
	got, err := GetSimpleText(rdr("hello world\n"), "Name?", &out)
	if err != nil || got != "hello world" {
		t.Fatalf("got %q, err=%v", got, err)
	}
}

func TestGetSimpleTextEOF(t *testing.T) {
	var out bytes.Buffer
	got, err := GetSimpleText(rdr("lastline"), "Name?", &out)
	if err != nil || got != "lastline" {
		t.Fatalf("got %q, err=%v", got, err)
	}
}

func TestGetInt(t *testing.T) {
	var out bytes.Buffer
	n, ok, err := GetInt(rdr("42\n"), "Member id?", &out)
	if err != nil || !ok || n != 42 {
		t.Fatalf("got %d ok=%v err=%v", n, ok, err)
	}
}

func TestGetInt_Empty(t *testing.T) {
	var out bytes.Buffer
	_, ok, err := GetInt(rdr("\n"), "Member id?", &out)
	if err != nil || ok {
		t.Fatalf("expected ok=false, got ok=%v err=%v", ok, err)
	}
}

func TestGetInt_NotANumber(t *testing.T) {
	var out bytes.Buffer
	_, _, err := GetInt(rdr("seven\n"), "Member id?", &out)
	if err == nil {
		t.Fatal("expected error")
	}
}

func TestGetInt_Negative(t *testing.T) {
	var out bytes.Buffer
	_, _, err := GetInt(rdr("-5\n"), "Member id?", &out)
	if err == nil {
		t.Fatal("expected error")
	}
}

func TestGetPassword_Error(t *testing.T) {
	old := readPassword
	defer func() { readPassword = old }()
	readPassword = func(int) ([]byte, error) {
		return nil, errors.New("boom")
	}
	var out bytes.Buffer
	_, err := GetPassword(&out)
	if err == nil {
		t.Fatal("expected error")
	}
}
