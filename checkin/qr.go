package checkin

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"subiclife/globals"
)

const allowedDrift = 5 * 60 // seconds

// GeneratePayload builds a signed check-in payload:
// memberID|bookingID|code|timestamp|HMAC.
func GeneratePayload(memberID, bookingID, code string) string {
	return GeneratePayloadAt(memberID, bookingID, code, time.Now().Unix())
}

func GeneratePayloadAt(memberID, bookingID, code string, timestamp int64) string {
	data := fmt.Sprintf("%s|%s|%s|%d", memberID, bookingID, code, timestamp)
	return fmt.Sprintf("%s|%s", data, sign(data))
}

// VerifyPayload checks the signature and timestamp window of a scanned
// QR payload.
func VerifyPayload(payload string) (memberID, bookingID, code string, err error) {
	parts := strings.Split(payload, "|")
	if len(parts) != 5 {
		return "", "", "", errors.New("invalid QR format")
	}
	memberID = parts[0]
	bookingID = parts[1]
	code = parts[2]
	timestampStr := parts[3]
	signature := parts[4]

	ts, err := strconv.ParseInt(timestampStr, 10, 64)
	if err != nil {
		return "", "", "", errors.New("invalid timestamp")
	}
	if abs(time.Now().Unix()-ts) > allowedDrift {
		return "", "", "", errors.New("QR code expired or from the future")
	}

	data := fmt.Sprintf("%s|%s|%s|%s", memberID, bookingID, code, timestampStr)
	if !hmac.Equal([]byte(signature), []byte(sign(data))) {
		return "", "", "", errors.New("invalid signature")
	}
	return memberID, bookingID, code, nil
}

func sign(data string) string {
	h := hmac.New(sha256.New, globals.QRSecret)
	h.Write([]byte(data))
	return base64.StdEncoding.EncodeToString(h.Sum(nil))
}

func abs(x int64) int64 {
	if x < 0 {
		return -x
	}
	return x
}
