package cache

import (
	"crypto/sha256"
	"fmt"
	"slices"
	"strings"
)

const NewsPrefix = "news:"

// GenerateNewsKey builds a key for a news query. Channel order does not matter.
func GenerateNewsKey(kind, date, ownerID string, channels []string) string {
	sorted := slices.Clone(channels)
	slices.Sort(sorted)

	hash := sha256.Sum256([]byte(date + "|" + ownerID + "|" + strings.Join(sorted, ",")))
	return fmt.Sprintf("%s%s:%x", NewsPrefix, kind, hash[:8])
}

func encode(value any) (string, error) {
	switch v := value.(type) {
	case string:
		return v, nil
	case []byte:
		return string(v), nil
	default:
		return "", fmt.Errorf("unsupported cache value type %T", value)
	}
}
