package logx

import (
	"regexp"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const redacted = "[REDACTED]"

// maskingCore wraps a core and redacts sensitive structured fields and masks
// secret-looking text in Entry.Message. Every core built by Init is wrapped.
type maskingCore struct {
	zapcore.Core
	sensitive map[string]struct{} // lowercased keys to redact
	patterns  []*regexp.Regexp
}

func newMaskingCore(core zapcore.Core) zapcore.Core {
	return &maskingCore{
		Core:      core,
		sensitive: defaultSensitiveKeys(),
		patterns:  defaultMaskPatterns(),
	}
}

func (m *maskingCore) redactFields(fields []zapcore.Field) []zapcore.Field {
	if len(fields) == 0 {
		return fields
	}
	out := make([]zapcore.Field, 0, len(fields))
	for _, f := range fields {
		if _, ok := m.sensitive[strings.ToLower(f.Key)]; ok {
			out = append(out, zap.String(f.Key, redacted))
			continue
		}
		switch f.Type {
		case zapcore.StringType:
			f.String = m.mask(f.String)
		case zapcore.ErrorType:
			if err, ok := f.Interface.(error); ok && err != nil {
				f = zap.String(f.Key, m.mask(err.Error()))
			}
		}
		out = append(out, f)
	}
	return out
}

func (m *maskingCore) mask(s string) string {
	for _, p := range m.patterns {
		s = p.ReplaceAllString(s, redacted)
	}
	return s
}

func (m *maskingCore) With(fields []zapcore.Field) zapcore.Core {
	return &maskingCore{
		Core:      m.Core.With(m.redactFields(fields)),
		sensitive: m.sensitive,
		patterns:  m.patterns,
	}
}

// Check must register m, not the wrapped core, or Write below is bypassed
func (m *maskingCore) Check(entry zapcore.Entry, ce *zapcore.CheckedEntry) *zapcore.CheckedEntry {
	if m.Enabled(entry.Level) {
		return ce.AddCore(entry, m)
	}
	return ce
}

func (m *maskingCore) Write(entry zapcore.Entry, fields []zapcore.Field) error {
	if entry.Message != "" {
		entry.Message = m.mask(entry.Message)
	}
	return m.Core.Write(entry, m.redactFields(fields))
}

func defaultSensitiveKeys() map[string]struct{} {
	keys := []string{
		"private", "private_key", "privatekey", "secret",
		"mnemonic", "phrase", "words", "answers", "seed",
		"passphrase", "password", "token", "authorization",
	}
	m := make(map[string]struct{}, len(keys))
	for _, k := range keys {
		m[k] = struct{}{}
	}
	return m
}

func defaultMaskPatterns() []*regexp.Regexp {
	return []*regexp.Regexp{
		// base58 of a 64-byte ed25519 keypair is 86-88 chars
		regexp.MustCompile(`[1-9A-HJ-NP-Za-km-z]{80,90}`),
		// 12 or more lowercase words in a row look like a recovery phrase
		regexp.MustCompile(`\b(?:[a-z]{3,8}\s+){11,}[a-z]{3,8}\b`),
	}
}
