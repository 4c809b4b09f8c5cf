package report

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/rs/zerolog"
)

type recorder struct {
	errs  []error
	metas []Metadata
}

func (r *recorder) Report(err error, meta Metadata) {
	r.errs = append(r.errs, err)
	r.metas = append(r.metas, meta)
}

type panicker struct{}

func (panicker) Report(error, Metadata) { panic("sink down") }

func TestLogReporter(t *testing.T) {
	var buf bytes.Buffer
	r := NewLogReporter(zerolog.New(&buf))

	r.Report(errors.New("boom"), Metadata{Endpoint: "https://api.devnet.solana.com", Feature: "largest", Key: "ACC1"})

	out := buf.String()
	for _, want := range []string{`"error":"boom"`, `"endpoint":"https://api.devnet.solana.com"`, `"feature":"largest"`, `"key":"ACC1"`} {
		if !strings.Contains(out, want) {
			t.Errorf("log output %s missing %s", out, want)
		}
	}
}

func TestMulti_IsolatesPanics(t *testing.T) {
	rec := &recorder{}
	m := Multi{panicker{}, rec, Nop}

	m.Report(errors.New("boom"), Metadata{Key: "ACC1"})

	if len(rec.errs) != 1 || rec.metas[0].Key != "ACC1" {
		t.Errorf("recorder got %+v", rec.metas)
	}
}

func TestSafe_NilReporter(t *testing.T) {
	Safe(nil, errors.New("boom"), Metadata{})
}
