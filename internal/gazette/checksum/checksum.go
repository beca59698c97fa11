// Package checksum computes the content-addressed md5 hash the pipeline
// uses for idempotent processing and excerpt ids.
package checksum

import (
	"crypto/md5"
	"encoding/hex"
)

func Of(text string) string {
	sum := md5.Sum([]byte(text))
	return hex.EncodeToString(sum[:])
}
