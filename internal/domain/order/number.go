package order

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// NumberGenerator produces candidate order numbers. Uniqueness is enforced by
// the store; callers regenerate on a duplicate-key error.
type NumberGenerator func(now time.Time) string

// NewOrderNumber returns ORD-YYYYMMDD-XXXXXXXXXX built from the UTC date and
// ten random hex characters.
func NewOrderNumber(now time.Time) string {
	suffix := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", ""))[:10]
	return "ORD-" + now.UTC().Format("20060102") + "-" + suffix
}
