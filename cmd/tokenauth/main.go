// Command tokenauth issues, renews and inspects bearer tokens from the shell.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/yaml.v3"

	"github.com/MrEthical07/tokenauth"
	"github.com/MrEthical07/tokenauth/jwt"
)

const (
	exitOK           = 0
	exitError        = 1
	exitUsage        = 2
	exitUnauthorized = 3
)

type options struct {
	secret         string
	bearer         string
	algorithm      string
	leeway         time.Duration
	insecureSecret bool
	output         string
	logLevel       string

	claims    []string
	expiresIn time.Duration
	issuer    string
	subject   string
	audience  []string
	tokenIDs  bool
	required  bool
}

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	var opts options
	flagSet := pflag.NewFlagSet("tokenauth", pflag.ContinueOnError)
	flagSet.SetOutput(stderr)
	flagSet.StringVar(&opts.secret, "secret", "", "signing secret (default: $JWT_SECRET)")
	flagSet.StringVar(&opts.bearer, "bearer", "", "scheme keyword (default: Bearer)")
	flagSet.StringVar(&opts.algorithm, "algorithm", string(jwt.HS256), "HS256, HS384 or HS512")
	flagSet.DurationVar(&opts.leeway, "leeway", 0, "clock tolerance when validating")
	flagSet.BoolVar(&opts.insecureSecret, "insecure-secret", false, "allow the username+HOSTNAME fallback secret")
	flagSet.StringVarP(&opts.output, "output", "o", "json", "payload output format: json or yaml")
	flagSet.StringVar(&opts.logLevel, "log-level", "warn", "debug, info, warn or error")
	flagSet.StringArrayVarP(&opts.claims, "claim", "c", nil, "claim as key=value; JSON values are decoded (create)")
	flagSet.DurationVar(&opts.expiresIn, "expires-in", 0, "validity window (create, default 1h)")
	flagSet.StringVar(&opts.issuer, "issuer", "", "iss claim (create)")
	flagSet.StringVar(&opts.subject, "subject", "", "sub claim (create)")
	flagSet.StringSliceVar(&opts.audience, "audience", nil, "aud claim (create)")
	flagSet.BoolVar(&opts.tokenIDs, "token-id", false, "assign a random jti (create)")
	flagSet.BoolVar(&opts.required, "required", true, "treat missing or invalid credentials as an error (validate)")
	flagSet.BoolP("help", "h", false, "show help")

	if err := flagSet.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			printHelp(stderr, flagSet)
			return exitOK
		}
		fmt.Fprintf(stderr, "error: %v\n", err)
		return exitUsage
	}
	if help, _ := flagSet.GetBool("help"); help {
		printHelp(stderr, flagSet)
		return exitOK
	}

	rest := flagSet.Args()
	if len(rest) == 0 {
		printHelp(stderr, flagSet)
		return exitUsage
	}
	command, rest := rest[0], rest[1:]

	switch command {
	case "btoa", "atob":
		if len(rest) != 1 {
			fmt.Fprintf(stderr, "error: %s takes exactly one argument\n", command)
			return exitUsage
		}
		if command == "btoa" {
			fmt.Fprintln(stdout, tokenauth.Btoa(rest[0]))
		} else {
			fmt.Fprintln(stdout, tokenauth.Atob(rest[0]))
		}
		return exitOK
	case "create", "renew", "validate", "report":
	default:
		fmt.Fprintf(stderr, "error: unknown command %q\n", command)
		return exitUsage
	}

	logger, err := newLogger(opts.logLevel, stderr)
	if err != nil {
		fmt.Fprintf(stderr, "error: %v\n", err)
		return exitUsage
	}
	defer func() { _ = logger.Sync() }()

	auth, err := tokenauth.New(tokenauth.Config{
		Bearer:              opts.bearer,
		Secret:              opts.secret,
		Algorithm:           jwt.Algorithm(strings.ToUpper(opts.algorithm)),
		Leeway:              opts.leeway,
		IssueTokenIDs:       opts.tokenIDs,
		AllowInsecureSecret: opts.insecureSecret,
	}, tokenauth.WithLogger(logger))
	if err != nil {
		fmt.Fprintf(stderr, "error: %v\n", err)
		return exitError
	}

	ctx := context.Background()
	switch command {
	case "create":
		return runCreate(auth, opts, stdout, stderr)
	case "renew":
		return runRenew(ctx, auth, headerArg(rest), stdout, stderr)
	case "report":
		if err := writeOutput(stdout, opts.output, auth.SecurityReport()); err != nil {
			fmt.Fprintf(stderr, "error: %v\n", err)
			return exitUsage
		}
		return exitOK
	default:
		return runValidate(ctx, auth, headerArg(rest), opts, stdout, stderr)
	}
}

func runCreate(auth *tokenauth.Authority, opts options, stdout, stderr io.Writer) int {
	payload, err := parseClaims(opts.claims)
	if err != nil {
		fmt.Fprintf(stderr, "error: %v\n", err)
		return exitUsage
	}
	token, err := auth.Create(payload, tokenauth.SignOptions{
		ExpiresIn: opts.expiresIn,
		Issuer:    opts.issuer,
		Subject:   opts.subject,
		Audience:  opts.audience,
	})
	if err != nil {
		fmt.Fprintf(stderr, "error: %v\n", err)
		return exitError
	}
	fmt.Fprintln(stdout, token)
	return exitOK
}

func runRenew(ctx context.Context, auth *tokenauth.Authority, header string, stdout, stderr io.Writer) int {
	payload, err := auth.Validate(ctx, header, true)
	if err != nil {
		fmt.Fprintf(stderr, "%v\n", err)
		return exitUnauthorized
	}
	token, _, err := auth.Renew(payload)
	if err != nil {
		fmt.Fprintf(stderr, "error: %v\n", err)
		return exitError
	}
	fmt.Fprintln(stdout, token)
	return exitOK
}

func runValidate(ctx context.Context, auth *tokenauth.Authority, header string, opts options, stdout, stderr io.Writer) int {
	payload, err := auth.Validate(ctx, header, opts.required)
	if err != nil {
		fmt.Fprintf(stderr, "%v\n", err)
		return exitUnauthorized
	}
	if payload == nil {
		fmt.Fprintln(stdout, "anonymous")
		return exitOK
	}
	if err := writeOutput(stdout, opts.output, map[string]any(payload)); err != nil {
		fmt.Fprintf(stderr, "error: %v\n", err)
		return exitUsage
	}
	return exitOK
}

// headerArg joins the remaining arguments so both
// `validate "Bearer x"` and `validate Bearer x` work.
func headerArg(rest []string) string {
	return strings.Join(rest, " ")
}

func parseClaims(pairs []string) (tokenauth.Payload, error) {
	payload := tokenauth.Payload{}
	for _, pair := range pairs {
		key, value, ok := strings.Cut(pair, "=")
		if !ok || key == "" {
			return nil, fmt.Errorf("invalid claim %q, want key=value", pair)
		}
		var decoded any
		if err := json.Unmarshal([]byte(value), &decoded); err == nil {
			payload[key] = decoded
		} else {
			payload[key] = value
		}
	}
	return payload, nil
}

func writeOutput(w io.Writer, format string, v any) error {
	switch format {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	case "yaml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return err
		}
		return enc.Close()
	default:
		return fmt.Errorf("unknown output format %q", format)
	}
}

func newLogger(level string, w io.Writer) (*zap.Logger, error) {
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		return nil, fmt.Errorf("invalid log level %q", level)
	}
	encoderCfg := zap.NewDevelopmentEncoderConfig()
	encoderCfg.TimeKey = ""
	core := zapcore.NewCore(zapcore.NewConsoleEncoder(encoderCfg), zapcore.AddSync(w), zap.NewAtomicLevelAt(lvl))
	return zap.New(core), nil
}

func printHelp(w io.Writer, flagSet *pflag.FlagSet) {
	fmt.Fprintf(w, `tokenauth issues, renews and validates bearer tokens.

Usage:
  tokenauth [flags] create [--claim key=value]...
  tokenauth [flags] renew <authorization>
  tokenauth [flags] validate <authorization>
  tokenauth [flags] report
  tokenauth btoa <text>
  tokenauth atob <base64>

The signing secret comes from --secret or $JWT_SECRET.

Flags:
%s`, flagSet.FlagUsages())
}
