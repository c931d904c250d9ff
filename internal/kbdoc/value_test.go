package kbdoc

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"
)

func mustJSON(t *testing.T, s string) *Value {
	t.Helper()
	v, err := ParseJSON([]byte(s))
	if err != nil {
		t.Fatalf("ParseJSON(%s): %v", s, err)
	}
	return v
}

func TestJSONKeepsKeyOrder(t *testing.T) {
	in := `{"zeta":1,"alpha":{"b":[1,2,{"y":null,"x":true}],"a":"s"},"mid":-2.50}`
	v := mustJSON(t, in)

	out, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	if string(out) != in {
		t.Fatalf("round trip changed document:\n got %s\nwant %s", out, in)
	}
}

func TestJSONDuplicateKeyLastWins(t *testing.T) {
	v := mustJSON(t, `{"a":1,"b":2,"a":3}`)
	if v.Len() != 2 {
		t.Fatalf("len = %d, want 2", v.Len())
	}
	a, _ := v.Get("a")
	if a.Text() != "3" || v.Fields()[0].Key != "a" {
		t.Fatalf("unexpected fields %+v", v.Fields())
	}
}

func TestJSONRejectsTrailingData(t *testing.T) {
	if _, err := ParseJSON([]byte(`{"a":1} {"b":2}`)); err == nil {
		t.Fatal("expected error for trailing value")
	}
	if _, err := ParseJSON([]byte(`{"a":`)); err == nil {
		t.Fatal("expected error for truncated object")
	}
}

func TestJSONNoHTMLEscaping(t *testing.T) {
	v := NewMapping()
	v.Set("html", NewString("<b>Tom & Jerry</b> — Café"))
	out, err := json.Marshal(v)
	if err != nil {
		t.Fatal(err)
	}
	want := `{"html":"<b>Tom & Jerry</b> — Café"}`
	if string(out) != want {
		t.Fatalf("got %s, want %s", out, want)
	}
}

func TestYAMLBlockOutput(t *testing.T) {
	v := mustJSON(t, `{
		"version": 1,
		"last_updated": "2026-01-02",
		"my_content": {},
		"favorite_authors": {"x": [], "substack": [{"name": "Ada", "handle": "@ada"}]},
		"note": "123",
		"flag": "true",
		"ratio": 1.0,
		"nothing": null
	}`)

	out, err := v.EncodeYAML()
	if err != nil {
		t.Fatalf("EncodeYAML: %v", err)
	}
	want := strings.Join([]string{
		"version: 1",
		`last_updated: "2026-01-02"`,
		"my_content: {}",
		"favorite_authors:",
		"  x: []",
		"  substack:",
		"    - name: Ada",
		"      handle: '@ada'",
		`note: "123"`,
		`flag: "true"`,
		"ratio: 1.0",
		"nothing: null",
		"",
	}, "\n")
	if string(out) != want {
		t.Fatalf("yaml mismatch:\n got:\n%s\nwant:\n%s", out, want)
	}
}

func TestJSONYAMLJSONRoundTrip(t *testing.T) {
	in := `{"title":"Ünïcödé ✓ 日本語","body":"line one\nline two\n","n":12345678901234567890,` +
		`"f":1e-7,"neg":-3,"list":["yes","no","~","",null,false,0.5],"nested":{"k":{"k":{"k":[]}}}}`
	v := mustJSON(t, in)

	y, err := v.EncodeYAML()
	if err != nil {
		t.Fatalf("EncodeYAML: %v", err)
	}
	back, err := ParseYAML(y)
	if err != nil {
		t.Fatalf("ParseYAML: %v\n%s", err, y)
	}
	if !Equal(v, back) {
		a, _ := json.Marshal(v)
		b, _ := json.Marshal(back)
		t.Fatalf("round trip mismatch:\n in %s\nout %s\nyaml:\n%s", a, b, y)
	}
}

func TestParseYAMLScalars(t *testing.T) {
	v, err := ParseYAML([]byte("a: 0x1F\nb: 2.50\nc: ~\nd: True\ne: 2024-05-01\nf: '7'\ng: .inf\n"))
	if err != nil {
		t.Fatalf("ParseYAML: %v", err)
	}
	cases := []struct {
		key  string
		kind Kind
		text string
	}{
		{"a", Int, "31"},
		{"b", Float, "2.5"},
		{"c", Null, ""},
		{"d", Bool, "true"},
		{"e", String, "2024-05-01"},
		{"f", String, "7"},
		{"g", Float, ".inf"},
	}
	for _, tc := range cases {
		got, ok := v.Get(tc.key)
		if !ok {
			t.Fatalf("missing key %q", tc.key)
		}
		if got.Kind() != tc.kind || got.Text() != tc.text {
			t.Errorf("%s = %s %q, want %s %q", tc.key, got.Kind(), got.Text(), tc.kind, tc.text)
		}
	}

	out, err := json.Marshal(v)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(out), `"g":null`) {
		t.Fatalf("non-finite float should encode as null: %s", out)
	}
}

func TestParseYAMLEmptyAndAliases(t *testing.T) {
	v, err := ParseYAML([]byte("   \n"))
	if err != nil {
		t.Fatal(err)
	}
	if v.Kind() != Null || !v.Falsy() {
		t.Fatalf("empty document = %s", v.Kind())
	}

	v, err = ParseYAML([]byte("base: &b {x: 1}\ncopy: *b\n"))
	if err != nil {
		t.Fatal(err)
	}
	x, ok := v.Lookup("copy", "x")
	if !ok || x.Text() != "1" {
		t.Fatalf("alias not resolved: %v", x)
	}
}

func TestFalsy(t *testing.T) {
	falsy := []*Value{nil, NewNull(), NewBool(false), NewInt(0), mustJSON(t, "0.0"), NewString(""), NewSequence(), NewMapping()}
	for _, v := range falsy {
		if !v.Falsy() {
			t.Errorf("%s %q should be falsy", v.Kind(), v.Text())
		}
	}
	truthy := []*Value{NewBool(true), NewInt(2), NewString("x"), NewSequence(NewNull())}
	for _, v := range truthy {
		if v.Falsy() {
			t.Errorf("%s %q should not be falsy", v.Kind(), v.Text())
		}
	}
}

func TestSetReplacesInPlace(t *testing.T) {
	v := mustJSON(t, `{"a":1,"last_updated":"old","z":2}`)
	v.Set("last_updated", NewString("new"))
	v.Set("added", NewBool(true))

	var keys []string
	for _, f := range v.Fields() {
		keys = append(keys, f.Key)
	}
	if got := strings.Join(keys, ","); got != "a,last_updated,z,added" {
		t.Fatalf("keys = %s", got)
	}
}

func TestCloneIsDeep(t *testing.T) {
	v := mustJSON(t, `{"a":{"b":[1]}}`)
	c := v.Clone()
	inner, _ := c.Lookup("a")
	inner.Set("c", NewInt(2))
	if Equal(v, c) {
		t.Fatal("mutating clone changed original")
	}
}

func TestYAMLRoundTripBlankStrings(t *testing.T) {
	for _, s := range []string{"\n", "\n\n", " ", "\t", " \n ", "\r\n", "a\n", "  padded  "} {
		v := NewMapping()
		v.Set("value", NewString(s))
		v.Set(s, NewString("key"))

		y, err := v.EncodeYAML()
		if err != nil {
			t.Fatalf("EncodeYAML(%q): %v", s, err)
		}
		back, err := ParseYAML(y)
		if err != nil {
			t.Fatalf("ParseYAML(%q): %v\n%s", s, err, y)
		}
		if !Equal(v, back) {
			a, _ := json.Marshal(v)
			b, _ := json.Marshal(back)
			t.Errorf("round trip of %q:\n in %s\nout %s\nyaml:\n%s", s, a, b, y)
		}
	}
}

func TestParseYAMLRejectsExcessiveAliasing(t *testing.T) {
	var b strings.Builder
	b.WriteString("a: &a [x, x, x, x, x, x, x, x, x]\n")
	prev := "a"
	for _, name := range []string{"b", "c", "d", "e", "f", "g"} {
		refs := strings.TrimSuffix(strings.Repeat("*"+prev+", ", 9), ", ")
		b.WriteString(name + ": &" + name + " [" + refs + "]\n")
		prev = name
	}

	_, err := ParseYAML([]byte(b.String()))
	if !errors.Is(err, ErrExcessiveAliasing) {
		t.Fatalf("ParseYAML error = %v, want ErrExcessiveAliasing", err)
	}
}

func TestParseYAMLRejectsRecursiveAlias(t *testing.T) {
	if _, err := ParseYAML([]byte("a: &a [1, *a]\n")); err == nil {
		t.Fatal("expected error for an anchor that contains itself")
	}
}
