package payslip

import (
	"strings"
	"time"
)

// Extractor turns OCR text into a Record using a PatternSet.
type Extractor struct {
	patterns *PatternSet
	now      func() time.Time
}

// Option configures an Extractor.
type Option func(*Extractor)

// WithClock overrides the timestamp source for ProcessedAt.
func WithClock(now func() time.Time) Option {
	return func(e *Extractor) {
		if now != nil {
			e.now = now
		}
	}
}

// NewExtractor returns an extractor over patterns.
func NewExtractor(patterns *PatternSet, opts ...Option) *Extractor {
	e := &Extractor{patterns: patterns, now: time.Now}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// ExtractField returns the normalized value of the first rule for f that
// matches text. The search stops at the first match even when the
// normalized value is degenerate.
func (e *Extractor) ExtractField(text string, f Field) (Value, bool) {
	for _, rule := range e.patterns.Rules(f) {
		raw, ok := rule.Capture(text)
		if !ok {
			continue
		}
		return normalizeValue(f.Kind(), raw), true
	}
	return Value{}, false
}

// ExtractAll reads every field, backfills a missing amount and stamps the
// record. It never fails; fields without a match stay nil.
func (e *Extractor) ExtractAll(text string) Record {
	var rec Record
	for _, f := range Fields {
		if v, ok := e.ExtractField(text, f); ok {
			rec.Set(f, v)
		}
	}
	rec.Backfill()
	rec.ProcessedAt = e.now()
	rec.SourceExcerpt = Excerpt(text)
	return rec
}

func normalizeValue(kind Kind, raw string) Value {
	v := Value{Kind: kind}
	switch kind {
	case KindAmount:
		v.Amount = CleanCurrencyValue(raw)
	case KindNationalID:
		v.Text = CleanCPF(raw)
	case KindPeriod:
		v.Text = strings.TrimSpace(raw)
	default:
		v.Text = CleanTextField(raw)
	}
	return v
}
