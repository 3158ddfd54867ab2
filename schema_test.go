package textdex

import (
	"strings"
	"testing"
)

type post struct {
	Key     string   `textdex:"id,id"`
	Title   string   `textdex:"title,text"`
	Status  string   `textdex:"status,keyword"`
	Time    int64    `textdex:"time,numeric"`
	Tags    []string `textdex:"tags,keyword"`
	Rating  float64  `textdex:"rating,numeric"`
	Ignored string
}

func TestParseSchema(t *testing.T) {
	meta, err := parseSchema[post]()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if meta.idIdx != 0 {
		t.Errorf("idIdx = %d, want 0", meta.idIdx)
	}
	if len(meta.fields) != 5 {
		t.Fatalf("fields = %d, want 5", len(meta.fields))
	}
	if meta.fields[1].name != "status" || meta.fields[1].typ != FieldKeyword {
		t.Errorf("fields[1] = %+v", meta.fields[1])
	}
}

func TestParseSchema_Errors(t *testing.T) {
	type noID struct {
		Title string `textdex:"title,text"`
	}
	type twoIDs struct {
		A string `textdex:"a,id"`
		B string `textdex:"b,id"`
	}
	type intID struct {
		ID int `textdex:"id,id"`
	}
	type badModifier struct {
		ID string `textdex:"id,id"`
		X  string `textdex:"x,vector"`
	}
	type textInt struct {
		ID string `textdex:"id,id"`
		X  int    `textdex:"x,text"`
	}
	type numericString struct {
		ID string `textdex:"id,id"`
		X  string `textdex:"x,numeric"`
	}
	type dupName struct {
		ID string `textdex:"id,id"`
		A  string `textdex:"x,text"`
		B  string `textdex:"x,keyword"`
	}

	tests := []struct {
		name string
		fn   func() error
		want string
	}{
		{"no id", func() error { _, err := parseSchema[noID](); return err }, "no field"},
		{"two ids", func() error { _, err := parseSchema[twoIDs](); return err }, "duplicate id"},
		{"int id", func() error { _, err := parseSchema[intID](); return err }, "must be a string"},
		{"bad modifier", func() error { _, err := parseSchema[badModifier](); return err }, "unknown modifier"},
		{"text int", func() error { _, err := parseSchema[textInt](); return err }, "string or []string"},
		{"numeric string", func() error { _, err := parseSchema[numericString](); return err }, "integer or float"},
		{"dup name", func() error { _, err := parseSchema[dupName](); return err }, "duplicate field name"},
		{"not a struct", func() error { _, err := parseSchema[string](); return err }, "not a struct"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.fn()
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Errorf("got %v, want error containing %q", err, tt.want)
			}
		})
	}
}

func TestSchema_RoundTrip(t *testing.T) {
	meta, err := parseSchema[post]()
	if err != nil {
		t.Fatal(err)
	}
	in := post{Key: "p1", Title: "hello", Status: "draft", Time: 42, Tags: []string{"a", "b"}, Rating: 4.5, Ignored: "x"}

	doc, err := meta.toDocument(in)
	if err != nil {
		t.Fatalf("toDocument: %v", err)
	}
	if doc.ID() != "p1" || doc.Title() != "hello" {
		t.Errorf("doc = %s/%s", doc.ID(), doc.Title())
	}
	if ts, _ := doc.Time(); ts != 42 {
		t.Errorf("time = %d", ts)
	}
	if got := doc.Values("tags"); len(got) != 2 {
		t.Errorf("tags = %v", got)
	}

	out, ok := meta.fromDocument(doc).(post)
	if !ok {
		t.Fatal("fromDocument returned wrong type")
	}
	in.Ignored = ""
	if out.Key != in.Key || out.Title != in.Title || out.Status != in.Status ||
		out.Time != in.Time || out.Rating != in.Rating || len(out.Tags) != 2 || out.Tags[1] != "b" {
		t.Errorf("round trip = %+v, want %+v", out, in)
	}
}

func TestSchema_CheckAgainst(t *testing.T) {
	meta, err := parseSchema[post]()
	if err != nil {
		t.Fatal(err)
	}

	c := openMem(t)
	if err := meta.checkAgainst(c.Schema()); err == nil || !strings.Contains(err.Error(), "tags") {
		t.Errorf("expected missing tags field error, got %v", err)
	}

	c = openMem(t, WithField("tags", FieldKeyword), WithField("rating", FieldNumeric))
	if err := meta.checkAgainst(c.Schema()); err != nil {
		t.Errorf("unexpected error: %v", err)
	}

	c = openMem(t, WithField("tags", FieldText), WithField("rating", FieldNumeric))
	if err := meta.checkAgainst(c.Schema()); err == nil {
		t.Error("expected type mismatch error")
	}
}
