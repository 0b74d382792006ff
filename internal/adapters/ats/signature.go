package ats

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
)

// SignatureHeader carries the webhook signature
const SignatureHeader = "Teamtailor-Signature"

// Sign computes the webhook signature for a resource id:
// base64 of the hex digest of HMAC-SHA256(key, resourceID)
func Sign(key, resourceID string) string {
	mac := hmac.New(sha256.New, []byte(key))
	mac.Write([]byte(resourceID))
	hexDigest := hex.EncodeToString(mac.Sum(nil))
	return base64.StdEncoding.EncodeToString([]byte(hexDigest))
}

// VerifySignature checks a webhook signature in constant time.
// An empty key disables verification and accepts everything
func VerifySignature(key, resourceID, provided string) bool {
	if key == "" {
		return true
	}
	return hmac.Equal([]byte(provided), []byte(Sign(key, resourceID)))
}
