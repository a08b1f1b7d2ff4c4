package vnpay

import (
	"crypto/hmac"
	"crypto/sha512"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"sort"
	"strings"
	"time"
)

const (
	versionDefault = "2.1.0"
	commandPay     = "pay"

	// ResponseCodeSuccess gateway code for a settled transaction
	ResponseCodeSuccess = "00"
)

var (
	ErrConfigInvalid    = errors.New("vnpay config invalid")
	ErrAmountInvalid    = errors.New("vnpay amount invalid")
	ErrSignatureInvalid = errors.New("vnpay signature invalid")
)

// Config VNPay gateway settings
type Config struct {
	GatewayURL string `json:"gateway_url"` // payment page base URL
	TmnCode    string `json:"tmn_code"`    // terminal code
	HashSecret string `json:"hash_secret"` // HMAC-SHA512 secret
	ReturnURL  string `json:"return_url"`  // browser redirect after payment
	Version    string `json:"version"`
	Locale     string `json:"locale"`
}

// CreateInput pay URL request
type CreateInput struct {
	PaymentNo string
	Amount    int64 // in VND, no decimals
	OrderInfo string
	ClientIP  string
	ExpireAt  time.Time
}

// CallbackResult normalized gateway callback
type CallbackResult struct {
	PaymentNo     string
	TransactionNo string
	ResponseCode  string
	Amount        int64
	Succeeded     bool
	Raw           map[string]string
}

// ParseConfig parses a raw settings map
func ParseConfig(raw map[string]string) (*Config, error) {
	if raw == nil {
		return nil, fmt.Errorf("%w: empty config", ErrConfigInvalid)
	}
	data, err := json.Marshal(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: marshal config failed", ErrConfigInvalid)
	}
	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("%w: unmarshal config failed", ErrConfigInvalid)
	}
	cfg.normalize()
	return &cfg, nil
}

// ValidateConfig checks required settings
func ValidateConfig(cfg *Config) error {
	if cfg == nil {
		return fmt.Errorf("%w: config is nil", ErrConfigInvalid)
	}
	if strings.TrimSpace(cfg.GatewayURL) == "" {
		return fmt.Errorf("%w: gateway_url is required", ErrConfigInvalid)
	}
	if strings.TrimSpace(cfg.TmnCode) == "" {
		return fmt.Errorf("%w: tmn_code is required", ErrConfigInvalid)
	}
	if strings.TrimSpace(cfg.HashSecret) == "" {
		return fmt.Errorf("%w: hash_secret is required", ErrConfigInvalid)
	}
	if strings.TrimSpace(cfg.ReturnURL) == "" {
		return fmt.Errorf("%w: return_url is required", ErrConfigInvalid)
	}
	return nil
}

func (c *Config) normalize() {
	if strings.TrimSpace(c.Version) == "" {
		c.Version = versionDefault
	}
	if strings.TrimSpace(c.Locale) == "" {
		c.Locale = "vn"
	}
}

// BuildPayURL builds the signed redirect URL. No gateway round trip is
// needed: VNPay takes every parameter on the query string.
func BuildPayURL(cfg *Config, input CreateInput) (string, error) {
	if err := ValidateConfig(cfg); err != nil {
		return "", err
	}
	if input.Amount <= 0 {
		return "", ErrAmountInvalid
	}
	if strings.TrimSpace(input.PaymentNo) == "" {
		return "", fmt.Errorf("%w: payment no is required", ErrConfigInvalid)
	}
	now := time.Now()
	params := map[string]string{
		"vnp_Version":    cfg.Version,
		"vnp_Command":    commandPay,
		"vnp_TmnCode":    cfg.TmnCode,
		"vnp_Amount":     fmt.Sprintf("%d", input.Amount*100), // gateway wants amount*100
		"vnp_CurrCode":   "VND",
		"vnp_TxnRef":     input.PaymentNo,
		"vnp_OrderInfo":  input.OrderInfo,
		"vnp_OrderType":  "other",
		"vnp_Locale":     cfg.Locale,
		"vnp_ReturnUrl":  cfg.ReturnURL,
		"vnp_IpAddr":     input.ClientIP,
		"vnp_CreateDate": now.Format("20060102150405"),
	}
	if !input.ExpireAt.IsZero() {
		params["vnp_ExpireDate"] = input.ExpireAt.Format("20060102150405")
	}
	query := buildSignedQuery(params, cfg.HashSecret)
	return strings.TrimRight(cfg.GatewayURL, "?&") + "?" + query, nil
}

// VerifyCallback checks the callback signature and normalizes the result.
// The signature covers every vnp_ parameter except the hash fields, sorted
// by key and url-encoded exactly as sent.
func VerifyCallback(cfg *Config, form map[string][]string) (*CallbackResult, error) {
	if cfg == nil {
		return nil, ErrConfigInvalid
	}
	params := make(map[string]string, len(form))
	for key, values := range form {
		if len(values) == 0 {
			continue
		}
		params[key] = values[0]
	}
	received := strings.TrimSpace(params["vnp_SecureHash"])
	if received == "" {
		return nil, ErrSignatureInvalid
	}
	delete(params, "vnp_SecureHash")
	delete(params, "vnp_SecureHashType")

	content := buildHashContent(params)
	expected := signHMACSHA512(content, cfg.HashSecret)
	if !hmac.Equal([]byte(strings.ToLower(received)), []byte(expected)) {
		return nil, ErrSignatureInvalid
	}

	result := &CallbackResult{
		PaymentNo:     params["vnp_TxnRef"],
		TransactionNo: params["vnp_TransactionNo"],
		ResponseCode:  params["vnp_ResponseCode"],
		Raw:           params,
	}
	var amount int64
	fmt.Sscanf(params["vnp_Amount"], "%d", &amount)
	result.Amount = amount / 100
	result.Succeeded = result.ResponseCode == ResponseCodeSuccess
	return result, nil
}

func buildHashContent(params map[string]string) string {
	keys := make([]string, 0, len(params))
	for k, v := range params {
		if v == "" || !strings.HasPrefix(k, "vnp_") {
			continue
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)
	pairs := make([]string, 0, len(keys))
	for _, k := range keys {
		pairs = append(pairs, k+"="+url.QueryEscape(params[k]))
	}
	return strings.Join(pairs, "&")
}

func buildSignedQuery(params map[string]string, secret string) string {
	content := buildHashContent(params)
	return content + "&vnp_SecureHash=" + signHMACSHA512(content, secret)
}

func signHMACSHA512(content, secret string) string {
	mac := hmac.New(sha512.New, []byte(secret))
	mac.Write([]byte(content))
	return hex.EncodeToString(mac.Sum(nil))
}
