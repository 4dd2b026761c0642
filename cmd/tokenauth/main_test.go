package main

import (
	"bytes"
	"encoding/json"
	"os"
	"strings"
	"testing"

	"gopkg.in/yaml.v3"
)

const cliSecret = "cli-test-secret"

func runCLI(t *testing.T, args ...string) (int, string, string) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	code := run(args, &stdout, &stderr)
	return code, strings.TrimSpace(stdout.String()), stderr.String()
}

func TestCreateThenValidateJSON(t *testing.T) {
	code, token, stderr := runCLI(t, "--secret", cliSecret, "create", "--claim", "uid=u1", "--claim", "stp=60")
	if code != exitOK {
		t.Fatalf("create exit %d: %s", code, stderr)
	}
	if !strings.HasPrefix(token, "Bearer ") {
		t.Fatalf("expected bearer-prefixed token, got %q", token)
	}

	code, out, stderr := runCLI(t, "--secret", cliSecret, "validate", token)
	if code != exitOK {
		t.Fatalf("validate exit %d: %s", code, stderr)
	}
	var payload map[string]any
	if err := json.Unmarshal([]byte(out), &payload); err != nil {
		t.Fatalf("decode output: %v\n%s", err, out)
	}
	if payload["uid"] != "u1" || payload["stp"] != float64(60) {
		t.Fatalf("unexpected payload %v", payload)
	}
	if _, ok := payload["exp"]; !ok {
		t.Fatalf("expected exp claim, got %v", payload)
	}
}

func TestValidateYAMLOutput(t *testing.T) {
	_, token, _ := runCLI(t, "--secret", cliSecret, "create", "-c", "uid=u2")

	code, out, stderr := runCLI(t, "--secret", cliSecret, "-o", "yaml", "validate", token)
	if code != exitOK {
		t.Fatalf("validate exit %d: %s", code, stderr)
	}
	var payload map[string]any
	if err := yaml.Unmarshal([]byte(out), &payload); err != nil {
		t.Fatalf("decode yaml: %v\n%s", err, out)
	}
	if payload["uid"] != "u2" {
		t.Fatalf("unexpected payload %v", payload)
	}
}

func TestValidateSplitArguments(t *testing.T) {
	_, token, _ := runCLI(t, "--secret", cliSecret, "create")
	parts := strings.SplitN(token, " ", 2)

	if code, _, stderr := runCLI(t, "--secret", cliSecret, "validate", parts[0], parts[1]); code != exitOK {
		t.Fatalf("validate exit %d: %s", code, stderr)
	}
}

func TestValidateRejectsWrongSecret(t *testing.T) {
	_, token, _ := runCLI(t, "--secret", cliSecret, "create")

	code, _, stderr := runCLI(t, "--secret", "other-secret", "validate", token)
	if code != exitUnauthorized {
		t.Fatalf("expected exit %d, got %d", exitUnauthorized, code)
	}
	if !strings.Contains(stderr, "unauthorized") {
		t.Fatalf("expected unauthorized message, got %q", stderr)
	}
}

func TestValidateOptionalMissing(t *testing.T) {
	code, out, stderr := runCLI(t, "--secret", cliSecret, "--required=false", "validate")
	if code != exitOK {
		t.Fatalf("expected exit 0, got %d: %s", code, stderr)
	}
	if out != "anonymous" {
		t.Fatalf("expected anonymous, got %q", out)
	}
}

func TestRenewIncrementsCount(t *testing.T) {
	_, token, _ := runCLI(t, "--secret", cliSecret, "create", "-c", "stp=120", "-c", "cnt=2")

	code, renewed, stderr := runCLI(t, "--secret", cliSecret, "renew", token)
	if code != exitOK {
		t.Fatalf("renew exit %d: %s", code, stderr)
	}

	_, out, _ := runCLI(t, "--secret", cliSecret, "validate", renewed)
	var payload map[string]any
	if err := json.Unmarshal([]byte(out), &payload); err != nil {
		t.Fatalf("decode output: %v", err)
	}
	if payload["cnt"] != float64(3) {
		t.Fatalf("expected cnt=3, got %v", payload["cnt"])
	}
}

func TestCustomBearer(t *testing.T) {
	_, token, _ := runCLI(t, "--secret", cliSecret, "--bearer", "Token", "create")
	if !strings.HasPrefix(token, "Token ") {
		t.Fatalf("expected custom scheme, got %q", token)
	}
	if code, _, _ := runCLI(t, "--secret", cliSecret, "validate", token); code != exitUnauthorized {
		t.Fatalf("expected default bearer to reject custom scheme, got %d", code)
	}
}

func TestCodecCommands(t *testing.T) {
	if code, out, _ := runCLI(t, "btoa", "hello"); code != exitOK || out != "aGVsbG8=" {
		t.Fatalf("btoa: code=%d out=%q", code, out)
	}
	if code, out, _ := runCLI(t, "atob", "aGVsbG8="); code != exitOK || out != "hello" {
		t.Fatalf("atob: code=%d out=%q", code, out)
	}
	if code, _, _ := runCLI(t, "btoa"); code != exitUsage {
		t.Fatalf("expected usage error, got %d", code)
	}
}

func TestUsageErrors(t *testing.T) {
	cases := [][]string{
		{},
		{"frobnicate"},
		{"--no-such-flag", "create"},
		{"--secret", cliSecret, "create", "--claim", "novalue"},
		{"--secret", cliSecret, "--log-level", "loud", "create"},
	}
	for _, args := range cases {
		if code, _, _ := runCLI(t, args...); code != exitUsage {
			t.Fatalf("args %v: expected exit %d, got %d", args, exitUsage, code)
		}
	}
}

func TestMissingSecret(t *testing.T) {
	if os.Getenv("JWT_SECRET") != "" || os.Getenv("JWT_ALLOW_INSECURE_SECRET") != "" {
		t.Skip("process environment provides a secret")
	}
	if code, _, stderr := runCLI(t, "create"); code != exitError {
		t.Fatalf("expected exit %d without a secret, got %d: %s", exitError, code, stderr)
	}
}

func TestParseClaimsDecodesJSONValues(t *testing.T) {
	payload, err := parseClaims([]string{"n=5", "ok=true", "name=alice", "list=[1,2]", "eq=a=b"})
	if err != nil {
		t.Fatalf("parseClaims: %v", err)
	}
	if payload["n"] != float64(5) || payload["ok"] != true || payload["name"] != "alice" || payload["eq"] != "a=b" {
		t.Fatalf("unexpected payload %v", payload)
	}
	if list, ok := payload["list"].([]any); !ok || len(list) != 2 {
		t.Fatalf("expected decoded list, got %#v", payload["list"])
	}
}

func TestReportCommand(t *testing.T) {
	code, out, stderr := runCLI(t, "--secret", cliSecret, "--algorithm", "hs512", "report")
	if code != exitOK {
		t.Fatalf("report exit %d: %s", code, stderr)
	}
	var report struct {
		SigningAlgorithm string
		SecretLength     int
		Warnings         []string
	}
	if err := json.Unmarshal([]byte(out), &report); err != nil {
		t.Fatalf("decode report: %v\n%s", err, out)
	}
	if report.SigningAlgorithm != "HS512" || report.SecretLength != len(cliSecret) {
		t.Fatalf("unexpected report %+v", report)
	}
	if strings.Contains(out, cliSecret) {
		t.Fatal("report must not contain the secret")
	}
}

func TestUnknownOutputFormat(t *testing.T) {
	if code, _, _ := runCLI(t, "--secret", cliSecret, "-o", "xml", "report"); code != exitUsage {
		t.Fatalf("expected usage error, got %d", code)
	}
}
