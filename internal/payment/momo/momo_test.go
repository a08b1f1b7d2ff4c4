package momo

import (
	"errors"
	"fmt"
	"testing"
)

func testConfig() *Config {
	return &Config{
		Endpoint:    "https://test-payment.momo.vn/v2/gateway/api/create",
		PartnerCode: "MOMOTEST",
		AccessKey:   "access-key",
		SecretKey:   "secret-key",
		RedirectURL: "https://shop.example/orders",
		IPNURL:      "https://shop.example/api/v1/payments/callback/momo/ipn",
		RequestType: requestTypeDefault,
	}
}

func signIPN(cfg *Config, payload *IPNPayload) {
	raw := fmt.Sprintf(
		"accessKey=%s&amount=%d&extraData=%s&message=%s&orderId=%s&orderInfo=%s&orderType=%s&partnerCode=%s&payType=%s&requestId=%s&responseTime=%d&resultCode=%d&transId=%d",
		cfg.AccessKey, payload.Amount, payload.ExtraData, payload.Message,
		payload.OrderID, payload.OrderInfo, payload.OrderType, payload.PartnerCode,
		payload.PayType, payload.RequestID, payload.ResponseTime, payload.ResultCode,
		payload.TransID,
	)
	payload.Signature = signHMACSHA256(raw, cfg.SecretKey)
}

func TestVerifyIPNAcceptsSignedPayload(t *testing.T) {
	cfg := testConfig()
	payload := &IPNPayload{
		PartnerCode:  cfg.PartnerCode,
		OrderID:      "PAY-551",
		RequestID:    "PAY-551",
		Amount:       262000,
		OrderInfo:    "order CG-5",
		TransID:      2147483901,
		ResultCode:   ResultCodeSuccess,
		Message:      "Successful.",
		PayType:      "qr",
		ResponseTime: 1724942400000,
	}
	signIPN(cfg, payload)

	result, err := VerifyIPN(cfg, payload)
	if err != nil {
		t.Fatalf("verify failed: %v", err)
	}
	if !result.Succeeded || result.PaymentNo != "PAY-551" || result.Amount != 262000 {
		t.Fatalf("unexpected result: %+v", result)
	}
	if result.TransactionNo != "2147483901" {
		t.Fatalf("transaction no want 2147483901 got %s", result.TransactionNo)
	}
}

func TestVerifyIPNFailureCode(t *testing.T) {
	cfg := testConfig()
	payload := &IPNPayload{
		PartnerCode: cfg.PartnerCode,
		OrderID:     "PAY-552",
		RequestID:   "PAY-552",
		Amount:      100000,
		ResultCode:  1006, // user declined
		Message:     "Transaction denied by user.",
	}
	signIPN(cfg, payload)

	result, err := VerifyIPN(cfg, payload)
	if err != nil {
		t.Fatalf("verify failed: %v", err)
	}
	if result.Succeeded {
		t.Fatal("non-zero result code must not count as success")
	}
}

func TestVerifyIPNRejectsTampering(t *testing.T) {
	cfg := testConfig()
	payload := &IPNPayload{
		PartnerCode: cfg.PartnerCode,
		OrderID:     "PAY-553",
		RequestID:   "PAY-553",
		Amount:      100000,
		ResultCode:  ResultCodeSuccess,
	}
	signIPN(cfg, payload)
	payload.Amount = 1

	if _, err := VerifyIPN(cfg, payload); !errors.Is(err, ErrSignatureInvalid) {
		t.Fatalf("tampered amount want ErrSignatureInvalid got %v", err)
	}
	if _, err := VerifyIPN(cfg, nil); !errors.Is(err, ErrConfigInvalid) {
		t.Fatalf("nil payload want ErrConfigInvalid got %v", err)
	}
}

func TestParseConfigDefaults(t *testing.T) {
	cfg, err := ParseConfig(map[string]string{
		"endpoint":     "https://pay.example",
		"partner_code": "P",
		"access_key":   "a",
		"secret_key":   "s",
		"ipn_url":      "https://shop.example/ipn",
	})
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	if cfg.RequestType != requestTypeDefault {
		t.Fatalf("request type default not applied: %s", cfg.RequestType)
	}
	if err := ValidateConfig(&Config{}); !errors.Is(err, ErrConfigInvalid) {
		t.Fatalf("empty config want ErrConfigInvalid got %v", err)
	}
}
