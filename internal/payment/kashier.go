package payment

import (
	"bytes"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/url"
	"sort"
	"strings"
)

// KashierNotification is the body Kashier posts to the webhook.
type KashierNotification struct {
	Event string                 `json:"event"`
	Data  map[string]interface{} `json:"data"`
}

// MerchantOrderID is the booking id the merchant attached to the payment,
// falling back to Kashier's own order id.
func (n *KashierNotification) MerchantOrderID() string {
	if id := stringField(n.Data, "merchantOrderId"); id != "" {
		return id
	}
	return stringField(n.Data, "orderId")
}

func (n *KashierNotification) TransactionID() string {
	return stringField(n.Data, "transactionId")
}

func stringField(data map[string]interface{}, key string) string {
	switch v := data[key].(type) {
	case string:
		return v
	case json.Number:
		return v.String()
	}
	return ""
}

// DecodeKashierNotification keeps numbers as json.Number so the signed query
// string sees them exactly as Kashier sent them.
func DecodeKashierNotification(payload []byte) (*KashierNotification, error) {
	dec := json.NewDecoder(bytes.NewReader(payload))
	dec.UseNumber()

	var n KashierNotification
	if err := dec.Decode(&n); err != nil {
		return nil, err
	}
	if n.Data == nil {
		n.Data = map[string]interface{}{}
	}
	return &n, nil
}

// KashierSignature signs the fields listed in data.signatureKeys: the keys
// sorted, each pair percent-encoded like encodeURIComponent, joined with '&',
// then HMAC-SHA256 with the API key, hex encoded.
func KashierSignature(data map[string]interface{}, apiKey string) string {
	mac := hmac.New(sha256.New, []byte(apiKey))
	mac.Write([]byte(signingString(data)))
	return hex.EncodeToString(mac.Sum(nil))
}

// VerifyKashierSignature compares in constant time.
func VerifyKashierSignature(data map[string]interface{}, signature, apiKey string) bool {
	expected := KashierSignature(data, apiKey)
	return hmac.Equal([]byte(expected), []byte(strings.ToLower(strings.TrimSpace(signature))))
}

func signingString(data map[string]interface{}) string {
	keys := signatureKeys(data)
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, key := range keys {
		value, ok := data[key]
		if !ok {
			continue
		}
		switch v := value.(type) {
		case nil:
			parts = append(parts, encodeURIComponent(key))
		case []interface{}:
			for _, item := range v {
				parts = append(parts, encodeURIComponent(key)+"="+encodeURIComponent(formatValue(item)))
			}
		default:
			parts = append(parts, encodeURIComponent(key)+"="+encodeURIComponent(formatValue(v)))
		}
	}
	return strings.Join(parts, "&")
}

func signatureKeys(data map[string]interface{}) []string {
	raw, ok := data["signatureKeys"].([]interface{})
	if !ok {
		return nil
	}
	keys := make([]string, 0, len(raw))
	for _, k := range raw {
		if s, ok := k.(string); ok {
			keys = append(keys, s)
		}
	}
	return keys
}

func formatValue(v interface{}) string {
	switch t := v.(type) {
	case string:
		return t
	case json.Number:
		return t.String()
	case bool:
		if t {
			return "true"
		}
		return "false"
	case nil:
		return ""
	}
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprint(v)
	}
	return string(b)
}

// encodeURIComponent in its strict form: everything but letters, digits and
// -_.~ is escaped, spaces as %20.
func encodeURIComponent(s string) string {
	return strings.ReplaceAll(url.QueryEscape(s), "+", "%20")
}
