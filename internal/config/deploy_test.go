package config

import "testing"

func TestValidateDeployKeyUnknown(t *testing.T) {
	if err := ValidateDeployKey("deploy.nonexistent", "x"); err == nil {
		t.Error("expected error for unknown deploy key")
	}
}

func TestValidateDeployKeyRejectsSecret(t *testing.T) {
	if err := ValidateDeployKey("deploy.online_dsn", "user:pass@tcp(host:3306)/ldm"); err == nil {
		t.Error("expected error storing a secret key in config.yaml")
	}
}

func TestValidateDeployKeyRunsValidator(t *testing.T) {
	if err := ValidateDeployKey("deploy.log_level", "chatty"); err == nil {
		t.Error("expected error for invalid log level")
	}
	if err := ValidateDeployKey("deploy.log_level", "debug"); err != nil {
		t.Errorf("unexpected error for valid log level: %v", err)
	}
}

func TestValidateDeployKeyPositiveInt(t *testing.T) {
	if err := ValidateDeployKey("retention.trash-days", "-1"); err == nil {
		t.Error("expected error for non-positive retention days")
	}
	if err := ValidateDeployKey("retention.trash-days", "30"); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestIsDeployKey(t *testing.T) {
	if !IsDeployKey("deploy.log_level") {
		t.Error("expected deploy.log_level to be a deploy key")
	}
	if !IsDeployKey("mode.token-prefix") {
		t.Error("expected mode.token-prefix to be a recognized deploy key")
	}
	if IsDeployKey("unrelated.key") {
		t.Error("did not expect unrelated.key to be a deploy key")
	}
}

func TestDeployKeyEnvMap(t *testing.T) {
	m := DeployKeyEnvMap()
	if m["deploy.online_dsn"] != "LDM_ONLINE_DSN" {
		t.Errorf("env map for deploy.online_dsn = %q, want LDM_ONLINE_DSN", m["deploy.online_dsn"])
	}
}
