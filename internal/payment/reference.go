package payment

import (
	"errors"
	"strconv"
	"strings"
	"time"
)

const referencePrefix = "SOUK_"

var ErrMalformedReference = errors.New("malformed payment reference")

// NewReference mints SOUK_<orderID>_<unixMillis>.
func NewReference(orderID string, now time.Time) string {
	return referencePrefix + orderID + "_" + strconv.FormatInt(now.UnixMilli(), 10)
}

// OrderIDFromReference extracts the order id from a reference minted by NewReference.
func OrderIDFromReference(ref string) (string, error) {
	rest, ok := strings.CutPrefix(ref, referencePrefix)
	if !ok {
		return "", ErrMalformedReference
	}
	i := strings.LastIndexByte(rest, '_')
	if i <= 0 {
		return "", ErrMalformedReference
	}
	if _, err := strconv.ParseInt(rest[i+1:], 10, 64); err != nil {
		return "", ErrMalformedReference
	}
	return rest[:i], nil
}
