package config

import "testing"

func TestCanonicalizeEnvKey_UsesExistingCamelCaseKeys(t *testing.T) {
	existing := map[string]any{
		"secretKey": map[string]any{
			"encryption": "",
		},
		"payment": map[string]any{
			"expectedAmount": 300000,
			"paystack": map[string]any{
				"webhookSecret": "",
			},
		},
		"rateLimit": map[string]any{
			"verify": map[string]any{
				"maxRequests": 3,
			},
		},
	}

	tests := []struct {
		envKey string
		want   string
	}{
		{envKey: "SECRETKEY_ENCRYPTION", want: "secretKey.encryption"},
		{envKey: "PAYMENT_EXPECTEDAMOUNT", want: "payment.expectedAmount"},
		{envKey: "PAYMENT_PAYSTACK_WEBHOOKSECRET", want: "payment.paystack.webhookSecret"},
		{envKey: "RATELIMIT_VERIFY_MAXREQUESTS", want: "rateLimit.verify.maxRequests"},
		{envKey: "NEW_FEATURE_FLAG", want: "new.feature.flag"},
	}

	for _, tt := range tests {
		t.Run(tt.envKey, func(t *testing.T) {
			if got := canonicalizeEnvKey(tt.envKey, existing); got != tt.want {
				t.Fatalf("canonicalizeEnvKey(%q) = %q, want %q", tt.envKey, got, tt.want)
			}
		})
	}
}

func TestValidateSecrets_ProductionRequiresAllSecrets(t *testing.T) {
	cfg := &Config{}
	cfg.Env.Env = "production"

	if err := cfg.validateSecrets(); err == nil {
		t.Fatal("expected error for missing secrets in production")
	}

	cfg.SecretKey.Encryption = "enc"
	cfg.SecretKey.Signing = "sign"
	cfg.SecretKey.Salt = "salt"
	if err := cfg.validateSecrets(); err != nil {
		t.Fatalf("unexpected error with all secrets set: %v", err)
	}
}

func TestValidateSecrets_DevelopmentAllowsEphemeralKeys(t *testing.T) {
	cfg := &Config{}
	cfg.Env.Env = EnvDevelopment

	if err := cfg.validateSecrets(); err != nil {
		t.Fatalf("development must tolerate missing secrets, got: %v", err)
	}
}
