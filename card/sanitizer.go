package card

import (
	"sync"

	"github.com/goliatone/go-masker"
)

var defaultMaskerOnce sync.Once

// DefaultMasker returns a masker configured to redact contact PII before
// payloads reach logs.
func DefaultMasker() *masker.Masker {
	defaultMaskerOnce.Do(func() {
		if masker.Default == nil {
			return
		}
		registerDefaultMaskFields(masker.Default)
	})
	return masker.Default
}

// SanitizePayload masks phone numbers, email addresses, and usernames in a
// loggable payload map. The input map is not mutated.
func SanitizePayload(mask *masker.Masker, payload map[string]any) map[string]any {
	if len(payload) == 0 {
		return map[string]any{}
	}
	if mask == nil {
		mask = DefaultMasker()
	}
	if mask == nil {
		return map[string]any{}
	}

	cloned := make(map[string]any, len(payload))
	for k, v := range payload {
		cloned[k] = v
	}
	masked, err := mask.Mask(cloned)
	if err != nil {
		return map[string]any{}
	}
	switch masked := masked.(type) {
	case map[string]any:
		return masked
	default:
		return map[string]any{}
	}
}

func registerDefaultMaskFields(mask *masker.Masker) {
	if mask == nil {
		return
	}
	mask.RegisterMaskField("phone_numbers", "filled4")
	mask.RegisterMaskField("email_addresses", "filled4")
	mask.RegisterMaskField("username", "filled4")
}
