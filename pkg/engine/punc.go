package engine

import (
	"context"
	"strings"
)

// FakePunctuation is the only concrete PunctuationModel shipped; the real
// offline/realtime restoration models are out of scope (§1). It appends a
// comma between realtime increments and a full stop at the end of an
// offline pass, which is enough to exercise the punctuation cascade (§4.3)
// deterministically.
type FakePunctuation struct{}

func NewFakePunctuation() *FakePunctuation { return &FakePunctuation{} }

type puncCache struct {
	last string
}

func (p *FakePunctuation) PunctuateRealtime(ctx context.Context, text string, cache StreamCache) (string, StreamCache, error) {
	pc, _ := cache.(*puncCache)
	if pc == nil {
		pc = &puncCache{}
	}
	trimmed := strings.TrimRight(text, "，。")
	if trimmed == "" {
		return text, pc, nil
	}
	pc.last = trimmed + "，"
	return pc.last, pc, nil
}

func (p *FakePunctuation) PunctuateOffline(ctx context.Context, text string) (string, error) {
	trimmed := strings.TrimRight(text, "，。")
	if trimmed == "" {
		return text, nil
	}
	return trimmed + "。", nil
}

// FakeITN is the only concrete ITNModel shipped; it rewrites a small set of
// spoken-form Chinese numerals to their written form, enough to exercise the
// "optionally through ITN" branch of §4.3's final punctuation step.
type FakeITN struct {
	replacer *strings.Replacer
}

func NewFakeITN() *FakeITN {
	return &FakeITN{replacer: strings.NewReplacer(
		"一百二十", "120",
		"一百", "100",
		"两百", "200",
	)}
}

func (f *FakeITN) Normalize(ctx context.Context, text string) (string, error) {
	return f.replacer.Replace(text), nil
}
