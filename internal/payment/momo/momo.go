package momo

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const (
	requestTypeDefault = "captureWallet"

	// ResultCodeSuccess gateway code for a settled transaction
	ResultCodeSuccess = 0
)

var (
	ErrConfigInvalid    = errors.New("momo config invalid")
	ErrRequestFailed    = errors.New("momo request failed")
	ErrResponseInvalid  = errors.New("momo response invalid")
	ErrSignatureInvalid = errors.New("momo signature invalid")
)

// Config MoMo gateway settings
type Config struct {
	Endpoint    string `json:"endpoint"` // create-payment API URL
	PartnerCode string `json:"partner_code"`
	AccessKey   string `json:"access_key"`
	SecretKey   string `json:"secret_key"` // HMAC-SHA256 secret
	RedirectURL string `json:"redirect_url"`
	IPNURL      string `json:"ipn_url"`
	RequestType string `json:"request_type"`
}

// CreateInput payment creation request
type CreateInput struct {
	PaymentNo string
	Amount    int64 // in VND, no decimals
	OrderInfo string
}

// CreateResult payment creation response
type CreateResult struct {
	PayURL string
	Raw    map[string]interface{}
}

// IPNPayload async callback body
type IPNPayload struct {
	PartnerCode  string `json:"partnerCode"`
	OrderID      string `json:"orderId"`
	RequestID    string `json:"requestId"`
	Amount       int64  `json:"amount"`
	OrderInfo    string `json:"orderInfo"`
	OrderType    string `json:"orderType"`
	TransID      int64  `json:"transId"`
	ResultCode   int    `json:"resultCode"`
	Message      string `json:"message"`
	PayType      string `json:"payType"`
	ResponseTime int64  `json:"responseTime"`
	ExtraData    string `json:"extraData"`
	Signature    string `json:"signature"`
}

// CallbackResult normalized gateway callback
type CallbackResult struct {
	PaymentNo     string
	TransactionNo string
	ResultCode    int
	Amount        int64
	Succeeded     bool
	Raw           map[string]interface{}
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
	if strings.TrimSpace(cfg.RequestType) == "" {
		cfg.RequestType = requestTypeDefault
	}
	return &cfg, nil
}

// ValidateConfig checks required settings
func ValidateConfig(cfg *Config) error {
	if cfg == nil {
		return fmt.Errorf("%w: config is nil", ErrConfigInvalid)
	}
	if strings.TrimSpace(cfg.Endpoint) == "" {
		return fmt.Errorf("%w: endpoint is required", ErrConfigInvalid)
	}
	if strings.TrimSpace(cfg.PartnerCode) == "" {
		return fmt.Errorf("%w: partner_code is required", ErrConfigInvalid)
	}
	if strings.TrimSpace(cfg.AccessKey) == "" {
		return fmt.Errorf("%w: access_key is required", ErrConfigInvalid)
	}
	if strings.TrimSpace(cfg.SecretKey) == "" {
		return fmt.Errorf("%w: secret_key is required", ErrConfigInvalid)
	}
	if strings.TrimSpace(cfg.IPNURL) == "" {
		return fmt.Errorf("%w: ipn_url is required", ErrConfigInvalid)
	}
	return nil
}

// CreatePayment calls the create-payment API and returns the redirect URL.
// The request signature covers the canonical field string in MoMo's fixed
// key order, not sorted order.
func CreatePayment(ctx context.Context, cfg *Config, input CreateInput) (*CreateResult, error) {
	if err := ValidateConfig(cfg); err != nil {
		return nil, err
	}
	if input.Amount <= 0 || strings.TrimSpace(input.PaymentNo) == "" {
		return nil, ErrConfigInvalid
	}
	requestID := input.PaymentNo
	orderInfo := input.OrderInfo
	if orderInfo == "" {
		orderInfo = input.PaymentNo
	}
	rawSignature := fmt.Sprintf(
		"accessKey=%s&amount=%d&extraData=%s&ipnUrl=%s&orderId=%s&orderInfo=%s&partnerCode=%s&redirectUrl=%s&requestId=%s&requestType=%s",
		cfg.AccessKey, input.Amount, "", cfg.IPNURL, input.PaymentNo, orderInfo,
		cfg.PartnerCode, cfg.RedirectURL, requestID, cfg.RequestType,
	)
	body := map[string]interface{}{
		"partnerCode": cfg.PartnerCode,
		"accessKey":   cfg.AccessKey,
		"requestId":   requestID,
		"amount":      input.Amount,
		"orderId":     input.PaymentNo,
		"orderInfo":   orderInfo,
		"redirectUrl": cfg.RedirectURL,
		"ipnUrl":      cfg.IPNURL,
		"extraData":   "",
		"requestType": cfg.RequestType,
		"lang":        "vi",
		"signature":   signHMACSHA256(rawSignature, cfg.SecretKey),
	}
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, ErrRequestFailed
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, cfg.Endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, ErrRequestFailed
	}
	req.Header.Set("Content-Type", "application/json")
	client := &http.Client{Timeout: 10 * time.Second}
	resp, err := client.Do(req)
	if err != nil {
		return nil, ErrRequestFailed
	}
	defer resp.Body.Close()
	respBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, ErrRequestFailed
	}

	var raw map[string]interface{}
	_ = json.Unmarshal(respBytes, &raw)
	var parsed struct {
		ResultCode int    `json:"resultCode"`
		Message    string `json:"message"`
		PayURL     string `json:"payUrl"`
	}
	if err := json.Unmarshal(respBytes, &parsed); err != nil {
		return nil, ErrResponseInvalid
	}
	if parsed.ResultCode != ResultCodeSuccess {
		return nil, fmt.Errorf("%w: %s", ErrResponseInvalid, parsed.Message)
	}
	return &CreateResult{
		PayURL: strings.TrimSpace(parsed.PayURL),
		Raw:    raw,
	}, nil
}

// VerifyIPN checks the async callback signature and normalizes the result.
func VerifyIPN(cfg *Config, payload *IPNPayload) (*CallbackResult, error) {
	if cfg == nil || payload == nil {
		return nil, ErrConfigInvalid
	}
	rawSignature := fmt.Sprintf(
		"accessKey=%s&amount=%d&extraData=%s&message=%s&orderId=%s&orderInfo=%s&orderType=%s&partnerCode=%s&payType=%s&requestId=%s&responseTime=%d&resultCode=%d&transId=%d",
		cfg.AccessKey, payload.Amount, payload.ExtraData, payload.Message,
		payload.OrderID, payload.OrderInfo, payload.OrderType, payload.PartnerCode,
		payload.PayType, payload.RequestID, payload.ResponseTime, payload.ResultCode,
		payload.TransID,
	)
	expected := signHMACSHA256(rawSignature, cfg.SecretKey)
	if !hmac.Equal([]byte(expected), []byte(strings.TrimSpace(payload.Signature))) {
		return nil, ErrSignatureInvalid
	}

	raw := map[string]interface{}{
		"partnerCode":  payload.PartnerCode,
		"orderId":      payload.OrderID,
		"requestId":    payload.RequestID,
		"amount":       payload.Amount,
		"transId":      payload.TransID,
		"resultCode":   payload.ResultCode,
		"message":      payload.Message,
		"payType":      payload.PayType,
		"responseTime": payload.ResponseTime,
	}
	return &CallbackResult{
		PaymentNo:     payload.OrderID,
		TransactionNo: fmt.Sprintf("%d", payload.TransID),
		ResultCode:    payload.ResultCode,
		Amount:        payload.Amount,
		Succeeded:     payload.ResultCode == ResultCodeSuccess,
		Raw:           raw,
	}, nil
}

func signHMACSHA256(content, secret string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(content))
	return hex.EncodeToString(mac.Sum(nil))
}
