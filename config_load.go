package codeAuth

import (
	"fmt"
	"os"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/pflag"
)

// LoadConfig layers DefaultConfig, the YAML file at path (skipped when
// empty) and the changed flags in flags (skipped when nil). Flag names use
// the dotted config keys, for example "token.ttl". Key files named in the
// result are read into the corresponding byte fields.
func LoadConfig(path string, flags *pflag.FlagSet) (Config, error) {
	k := koanf.New(".")

	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return Config{}, fmt.Errorf("load config file %s: %w", path, err)
		}
	}
	if flags != nil {
		if err := k.Load(posflag.Provider(flags, ".", k), nil); err != nil {
			return Config{}, fmt.Errorf("load config flags: %w", err)
		}
	}

	cfg := DefaultConfig()
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}

	if err := readKeyFile(cfg.Token.PrivateKeyFile, &cfg.Token.PrivateKey); err != nil {
		return Config{}, err
	}
	if err := readKeyFile(cfg.Token.PublicKeyFile, &cfg.Token.PublicKey); err != nil {
		return Config{}, err
	}
	if err := readKeyFile(cfg.Credential.BindingKeyFile, &cfg.Credential.BindingKey); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

// RegisterFlags adds the commonly overridden settings to fs.
func RegisterFlags(fs *pflag.FlagSet) {
	d := DefaultConfig()
	fs.Duration("token.ttl", d.Token.TTL, "password login session lifetime")
	fs.Duration("token.code_login_ttl", d.Token.CodeLoginTTL, "code login session lifetime")
	fs.String("token.signing_method", d.Token.SigningMethod, "ed25519 or hs256")
	fs.String("token.private_key_file", "", "token signing key file")
	fs.String("token.public_key_file", "", "token verification key file")
	fs.Duration("credential.ttl", d.Credential.TTL, "issued code lifetime")
	fs.String("credential.redis_prefix", d.Credential.RedisPrefix, "Redis key prefix for credentials")
	fs.String("credential.binding_key_file", "", "HMAC key file for email bindings")
	fs.Bool("throttle.issue.enabled", false, "throttle code issuance")
	fs.Bool("audit.enabled", false, "emit audit events")
	fs.Bool("metrics.enabled", false, "collect metrics")
}

func readKeyFile(path string, dst *[]byte) error {
	if path == "" {
		return nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read key file: %w", err)
	}
	*dst = data
	return nil
}
